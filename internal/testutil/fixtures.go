// Package testutil provides fixture builders for engine tests.
package testutil

import (
	"time"

	"github.com/XavierBriggs/fortuna/services/consensus-engine/pkg/models"
	"github.com/shopspring/decimal"
)

// PickFixture creates a test Pick with sensible defaults
func PickFixture(overrides ...func(*models.Pick)) models.Pick {
	pick := models.Pick{
		PickID:     1,
		CapperID:   "capper-1",
		GameID:     "game-1",
		SportKey:   "basketball_nba",
		MarketKey:  "total",
		Selection:  "OVER 225.5",
		Units:      1.0,
		Confidence: 60,
		Status:     models.PickStatusPending,
		CreatedAt:  time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC),
	}

	for _, override := range overrides {
		override(&pick)
	}

	return pick
}

// TotalPick creates a pending total pick
func TotalPick(capperID, selection string) models.Pick {
	return PickFixture(func(p *models.Pick) {
		p.CapperID = capperID
		p.MarketKey = "total"
		p.Selection = selection
	})
}

// SpreadPick creates a pending spread pick
func SpreadPick(capperID, selection string) models.Pick {
	return PickFixture(func(p *models.Pick) {
		p.CapperID = capperID
		p.MarketKey = "spread"
		p.Selection = selection
	})
}

// RecordFixture creates a capper performance record
func RecordFixture(capperID string, netUnits string, overrides ...func(*models.CapperRecord)) models.CapperRecord {
	record := models.CapperRecord{
		CapperID:    capperID,
		DisplayName: capperID,
		Wins:        10,
		Losses:      5,
		NetUnits:    decimal.RequireFromString(netUnits),
	}

	for _, override := range overrides {
		override(&record)
	}

	return record
}

// SnapshotFixture assembles a performance snapshot from records
func SnapshotFixture(records ...models.CapperRecord) models.PerformanceSnapshot {
	return models.PerformanceSnapshot{Records: records}
}
