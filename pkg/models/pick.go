package models

import "time"

// MarketType classifies the betting market a pick belongs to
type MarketType string

const (
	MarketTotal     MarketType = "total"     // Over/under on combined score
	MarketSpread    MarketType = "spread"    // Point spread
	MarketMoneyline MarketType = "moneyline" // Straight winner
)

// PickStatus tracks a pick's lifecycle
type PickStatus string

const (
	PickStatusPending PickStatus = "pending" // Not yet graded - participates in consensus
	PickStatusSettled PickStatus = "settled" // Graded - historical, feeds eligibility only
)

// Pick represents one capper's opinion for a single game and market
type Pick struct {
	PickID     int64      `json:"pick_id"`
	CapperID   string     `json:"capper_id"`
	GameID     string     `json:"game_id"`
	SportKey   string     `json:"sport_key"`
	MarketKey  string     `json:"market_key"` // Raw key, may be a sub-variant ("total_over")
	Selection  string     `json:"selection"`  // Raw selection string ("LAL -4.5", "OVER 225.5")
	Units      float64    `json:"units"`      // Stake weight, not currency
	Confidence float64    `json:"confidence"` // Self-reported, 0-100
	Factors    []string   `json:"factors,omitempty"`
	Status     PickStatus `json:"status"`
	CreatedAt  time.Time  `json:"created_at"`
}

// GameRef identifies a candidate game inside the lookahead window
type GameRef struct {
	GameID    string    `json:"game_id"`
	SportKey  string    `json:"sport_key"`
	StartTime time.Time `json:"start_time"`
}
