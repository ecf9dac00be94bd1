// Package store reads cappers and picks from the Alexandria database.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/XavierBriggs/fortuna/services/consensus-engine/pkg/models"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// AlexandriaStore implements the performance and pick feeds over Postgres
type AlexandriaStore struct {
	db *sql.DB
}

// NewAlexandriaStore creates a new Alexandria store
func NewAlexandriaStore(db *sql.DB) *AlexandriaStore {
	return &AlexandriaStore{db: db}
}

// FetchPerformance aggregates graded picks into per-capper records. Every
// capper on the roster gets a record; a capper with no graded picks nets zero.
// Rows that fail to scan are reported in Unavailable so the eligibility filter
// fails closed for them.
func (s *AlexandriaStore) FetchPerformance(ctx context.Context) (models.PerformanceSnapshot, error) {
	query := `
		SELECT c.capper_id, c.display_name,
		       COUNT(p.id) FILTER (WHERE p.result = 'win')  AS wins,
		       COUNT(p.id) FILTER (WHERE p.result = 'loss') AS losses,
		       COALESCE(SUM(p.net_units), 0)::text          AS net_units
		FROM cappers c
		LEFT JOIN picks p ON p.capper_id = c.capper_id AND p.status = 'settled'
		GROUP BY c.capper_id, c.display_name
		ORDER BY c.capper_id
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return models.PerformanceSnapshot{}, fmt.Errorf("query capper performance: %w", err)
	}
	defer rows.Close()

	var snapshot models.PerformanceSnapshot
	for rows.Next() {
		var (
			rec      models.CapperRecord
			netUnits string
		)
		if err := rows.Scan(&rec.CapperID, &rec.DisplayName, &rec.Wins, &rec.Losses, &netUnits); err != nil {
			return models.PerformanceSnapshot{}, fmt.Errorf("scan capper record: %w", err)
		}

		parsed, err := decimal.NewFromString(netUnits)
		if err != nil {
			// Unreadable record - this capper must not default to eligible
			fmt.Printf("[ConsensusEngine] ⚠️  unreadable net units for capper %s: %v\n", rec.CapperID, err)
			snapshot.Unavailable = append(snapshot.Unavailable, rec.CapperID)
			continue
		}
		rec.NetUnits = parsed

		snapshot.Records = append(snapshot.Records, rec)
	}

	if err := rows.Err(); err != nil {
		return models.PerformanceSnapshot{}, fmt.Errorf("iterate capper records: %w", err)
	}

	return snapshot, nil
}

// ListUpcomingGames returns games with pending picks starting inside the window
func (s *AlexandriaStore) ListUpcomingGames(ctx context.Context, from time.Time, window time.Duration) ([]models.GameRef, error) {
	query := `
		SELECT DISTINCT g.game_id, g.sport_key, g.start_time
		FROM games g
		JOIN picks p ON p.game_id = g.game_id
		WHERE p.status = 'pending'
		  AND g.start_time >= $1
		  AND g.start_time < $2
		ORDER BY g.start_time, g.game_id
	`

	rows, err := s.db.QueryContext(ctx, query, from, from.Add(window))
	if err != nil {
		return nil, fmt.Errorf("query upcoming games: %w", err)
	}
	defer rows.Close()

	var games []models.GameRef
	for rows.Next() {
		var game models.GameRef
		if err := rows.Scan(&game.GameID, &game.SportKey, &game.StartTime); err != nil {
			return nil, fmt.Errorf("scan game: %w", err)
		}
		games = append(games, game)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate games: %w", err)
	}

	return games, nil
}

// FetchPendingPicks returns all non-graded picks for a game
func (s *AlexandriaStore) FetchPendingPicks(ctx context.Context, gameID string) ([]models.Pick, error) {
	query := `
		SELECT p.id, p.capper_id, p.game_id, g.sport_key, p.market_key,
		       p.selection, p.units, p.confidence, p.factors, p.created_at
		FROM picks p
		JOIN games g ON g.game_id = p.game_id
		WHERE p.game_id = $1 AND p.status = 'pending'
		ORDER BY p.capper_id, p.created_at
	`

	rows, err := s.db.QueryContext(ctx, query, gameID)
	if err != nil {
		return nil, fmt.Errorf("query pending picks: %w", err)
	}
	defer rows.Close()

	var picks []models.Pick
	for rows.Next() {
		var p models.Pick
		p.Status = models.PickStatusPending
		if err := rows.Scan(&p.PickID, &p.CapperID, &p.GameID, &p.SportKey, &p.MarketKey,
			&p.Selection, &p.Units, &p.Confidence, pq.Array(&p.Factors), &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan pick: %w", err)
		}
		picks = append(picks, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate picks: %w", err)
	}

	return picks, nil
}
