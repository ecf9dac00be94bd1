// Package writer persists generated meta-picks to the Holocron database.
package writer

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/XavierBriggs/fortuna/services/consensus-engine/pkg/models"
)

// HolocronWriter writes meta-pick decisions to Holocron
type HolocronWriter struct {
	db *sql.DB
}

// NewHolocronWriter creates a new Holocron writer
func NewHolocronWriter(db *sql.DB) *HolocronWriter {
	return &HolocronWriter{db: db}
}

// WriteDecision writes a decision with its contributing cappers and factor
// confluence in one transaction. Returns the meta-pick ID on success.
func (w *HolocronWriter) WriteDecision(ctx context.Context, decision models.Decision) (int64, error) {
	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() // Rollback if commit doesn't happen

	metaPickQuery := `
		INSERT INTO meta_picks (
			game_id, sport_key, market, side, line, should_generate,
			reason_code, reason, units, agreement_count, disagreement_count,
			decided_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id
	`

	var metaPickID int64
	err = tx.QueryRowContext(
		ctx,
		metaPickQuery,
		decision.GameID,
		decision.SportKey,
		string(decision.Market),
		decision.Side,
		decision.Line,
		decision.ShouldGenerate,
		string(decision.ReasonCode),
		decision.Reason,
		decision.Units,
		decision.AgreementCount,
		decision.DisagreementCount,
		time.Now(),
	).Scan(&metaPickID)

	if err != nil {
		return 0, fmt.Errorf("failed to insert meta pick: %w", err)
	}

	contributorQuery := `
		INSERT INTO meta_pick_contributors (meta_pick_id, capper_id)
		VALUES ($1, $2)
	`

	for _, capperID := range decision.ContributingCapperIDs {
		if _, err = tx.ExecContext(ctx, contributorQuery, metaPickID, capperID); err != nil {
			return 0, fmt.Errorf("failed to insert contributor: %w", err)
		}
	}

	factorQuery := `
		INSERT INTO meta_pick_factors (meta_pick_id, rank, factor, agree_count, net_units)
		VALUES ($1, $2, $3, $4, $5)
	`

	for rank, factor := range decision.FactorConfluence {
		if _, err = tx.ExecContext(ctx, factorQuery, metaPickID, rank+1, factor.Factor, factor.Count, factor.NetUnits); err != nil {
			return 0, fmt.Errorf("failed to insert factor: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return metaPickID, nil
}

// WriteDecisions writes multiple decisions, returning the IDs written so far
// on first failure
func (w *HolocronWriter) WriteDecisions(ctx context.Context, decisions []models.Decision) ([]int64, error) {
	if len(decisions) == 0 {
		return nil, nil
	}

	ids := make([]int64, 0, len(decisions))
	for _, decision := range decisions {
		id, err := w.WriteDecision(ctx, decision)
		if err != nil {
			return ids, fmt.Errorf("failed to write decision: %w", err)
		}
		ids = append(ids, id)
	}

	return ids, nil
}

// RecentDecisions returns the latest generated meta-picks for dashboard reads
func (w *HolocronWriter) RecentDecisions(ctx context.Context, limit int) ([]models.Decision, error) {
	query := `
		SELECT game_id, sport_key, market, side, line, should_generate,
		       reason_code, reason, units, agreement_count, disagreement_count
		FROM meta_picks
		WHERE should_generate = true
		ORDER BY decided_at DESC, id DESC
		LIMIT $1
	`

	rows, err := w.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent decisions: %w", err)
	}
	defer rows.Close()

	var decisions []models.Decision
	for rows.Next() {
		var (
			d      models.Decision
			market string
			code   string
		)
		if err := rows.Scan(&d.GameID, &d.SportKey, &market, &d.Side, &d.Line, &d.ShouldGenerate,
			&code, &d.Reason, &d.Units, &d.AgreementCount, &d.DisagreementCount); err != nil {
			return nil, fmt.Errorf("failed to scan decision: %w", err)
		}
		d.Market = models.MarketType(market)
		d.ReasonCode = models.ReasonCode(code)
		decisions = append(decisions, d)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating decisions: %w", err)
	}

	return decisions, nil
}
