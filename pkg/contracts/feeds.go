package contracts

import (
	"context"
	"time"

	"github.com/XavierBriggs/fortuna/services/consensus-engine/pkg/models"
)

// PerformanceFeed supplies the per-invocation capper performance snapshot.
// The engine computes the snapshot once per run and reuses it for every game.
type PerformanceFeed interface {
	// FetchPerformance aggregates graded picks into per-capper records.
	// Cappers whose data could not be read are listed in the snapshot's
	// Unavailable slice, never silently defaulted.
	FetchPerformance(ctx context.Context) (models.PerformanceSnapshot, error)
}

// PickFeed supplies candidate games and their pending picks
type PickFeed interface {
	// ListUpcomingGames returns games with pending picks starting inside
	// [from, from+window)
	ListUpcomingGames(ctx context.Context, from time.Time, window time.Duration) ([]models.GameRef, error)

	// FetchPendingPicks returns all non-graded picks for a game, across markets
	FetchPendingPicks(ctx context.Context, gameID string) ([]models.Pick, error)
}

// EngineConfig defines the knobs the batch engine reads
type EngineConfig interface {
	// GetMarkets returns the market types evaluated per game
	GetMarkets() []models.MarketType

	// GetLookaheadWindow returns how far ahead candidate games are pulled
	GetLookaheadWindow() time.Duration

	// GetWorkerCount returns the per-game evaluation fan-out
	GetWorkerCount() int
}
