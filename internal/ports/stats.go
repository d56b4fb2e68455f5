package ports

import "context"

// PlayerResult is one player's final standing in a finished game.
type PlayerResult struct {
	PlayerID string
	Name     string
	Score    int
}

// GameResult summarizes a finished game for persistence.
type GameResult struct {
	GameID       string
	Reason       string
	WinCondition bool
	TeamScore    int
	Players      []PlayerResult

	// Snapshot is the serialized final game state.
	Snapshot []byte
}

// StatsPort persists finished-game results outside the engine.
type StatsPort interface {
	// RecordResult writes the final result and snapshot of one game.
	RecordResult(ctx context.Context, result GameResult) error
}
