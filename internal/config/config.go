package config

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
)

// GameConfig holds the tunable rule values loaded from data/game_config.json.
type GameConfig struct {
	MaxRounds         int `json:"max_rounds"`
	MaxFeaturesInPlay int `json:"max_features_in_play"`
	// TurnDurationSeconds configures the client-side turn timer advertised to players.
	TurnDurationSeconds int `json:"turn_duration_seconds"`
}

var (
	cfg      *GameConfig
	loadOnce sync.Once
	loadErr  error
)

// LoadGameConfig loads the game configuration from the given path.
func LoadGameConfig(path string) error {
	loadOnce.Do(func() {
		data, err := os.ReadFile(path)
		if err != nil {
			loadErr = fmt.Errorf("failed to read game config: %w", err)
			return
		}

		var c GameConfig
		if err := json.Unmarshal(data, &c); err != nil {
			loadErr = fmt.Errorf("failed to unmarshal game config: %w", err)
			return
		}
		cfg = &c
	})
	return loadErr
}

// GetGameConfig returns the global game configuration.
func GetGameConfig() *GameConfig {
	return cfg
}

// MaxRounds returns the configured round limit, or the default of 10.
func MaxRounds() int {
	if cfg == nil || cfg.MaxRounds <= 0 {
		return 10
	}
	return cfg.MaxRounds
}

// MaxFeaturesInPlay returns the configured concurrent feature cap, or 5.
func MaxFeaturesInPlay() int {
	if cfg == nil || cfg.MaxFeaturesInPlay <= 0 {
		return 5
	}
	return cfg.MaxFeaturesInPlay
}

// TurnDurationSeconds returns the advertised turn timer, or 30.
func TurnDurationSeconds() int {
	if cfg == nil || cfg.TurnDurationSeconds <= 0 {
		return 30
	}
	return cfg.TurnDurationSeconds
}
