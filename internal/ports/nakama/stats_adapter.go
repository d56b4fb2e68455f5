package nakama

import (
	"context"
	"fmt"

	"shipit/internal/ports"

	"github.com/heroiclabs/nakama-common/runtime"
)

// StorageCollectionGames is the Nakama storage collection for finished games.
const StorageCollectionGames = "shipit_games"

// NakamaStatsAdapter implements ports.StatsPort using Nakama's storage engine.
type NakamaStatsAdapter struct {
	nk runtime.NakamaModule
}

// NewNakamaStatsAdapter creates a new stats adapter.
func NewNakamaStatsAdapter(nk runtime.NakamaModule) *NakamaStatsAdapter {
	return &NakamaStatsAdapter{nk: nk}
}

// RecordResult writes the final snapshot under the game's id so external
// tooling can read back the full end-of-game state.
func (a *NakamaStatsAdapter) RecordResult(ctx context.Context, result ports.GameResult) error {
	writes := []*runtime.StorageWrite{{
		Collection:      StorageCollectionGames,
		Key:             result.GameID,
		Value:           string(result.Snapshot),
		PermissionRead:  2,
		PermissionWrite: 0,
	}}

	if _, err := a.nk.StorageWrite(ctx, writes); err != nil {
		return fmt.Errorf("failed to persist game %s: %w", result.GameID, err)
	}
	return nil
}
