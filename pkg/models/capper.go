package models

import "github.com/shopspring/decimal"

// Capper is an identified opinion source. Read-only input to the engine;
// performance is recomputed from graded picks each time eligibility runs.
type Capper struct {
	CapperID    string `json:"capper_id"`
	DisplayName string `json:"display_name"`
}

// CapperRecord is a capper's rolling graded-pick performance.
// NetUnits uses decimal arithmetic so the strictly-positive eligibility
// boundary is exact (0.00 excluded, 0.01 included).
type CapperRecord struct {
	CapperID    string          `json:"capper_id"`
	DisplayName string          `json:"display_name"`
	Wins        int             `json:"wins"`
	Losses      int             `json:"losses"`
	NetUnits    decimal.Decimal `json:"net_units"`
}

// GradedCount returns the number of graded picks in the record
func (r CapperRecord) GradedCount() int {
	return r.Wins + r.Losses
}

// WinRate returns wins / graded, or 0 for a capper with no graded picks
func (r CapperRecord) WinRate() float64 {
	graded := r.GradedCount()
	if graded == 0 {
		return 0
	}
	return float64(r.Wins) / float64(graded)
}

// PerformanceSnapshot is the per-invocation view of every capper's record.
// Unavailable holds capper IDs whose performance could not be fetched; those
// cappers are ineligible (fail closed), never eligible by default.
type PerformanceSnapshot struct {
	Records     []CapperRecord `json:"records"`
	Unavailable []string       `json:"unavailable,omitempty"`
}

// RecordsByID indexes the snapshot for lookups during unit sizing
func (s PerformanceSnapshot) RecordsByID() map[string]CapperRecord {
	byID := make(map[string]CapperRecord, len(s.Records))
	for _, rec := range s.Records {
		byID[rec.CapperID] = rec
	}
	return byID
}

// EligibleCapper is a capper that passed the net-units filter
type EligibleCapper struct {
	CapperID    string          `json:"capper_id"`
	DisplayName string          `json:"display_name"`
	Wins        int             `json:"wins"`
	Losses      int             `json:"losses"`
	NetUnits    decimal.Decimal `json:"net_units"`
	WinRate     float64         `json:"win_rate"`
}
