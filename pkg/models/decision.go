package models

// ConsensusGroup is the set of picks sharing one canonical side for one
// (game, market) pair, paired against the opposing side's picks. Agreeing and
// disagreeing form a symmetric partition: every valid pick for the pair
// appears in exactly one group's agreeing list, and in the opposing group's
// disagreeing list when an opposing group exists.
type ConsensusGroup struct {
	GameID      string        `json:"game_id"`
	SportKey    string        `json:"sport_key"`
	Market      MarketType    `json:"market"`
	Side        CanonicalSide `json:"side"`
	Agreeing    []Pick        `json:"agreeing"`
	Disagreeing []Pick        `json:"disagreeing"`
}

// ReasonCode classifies a decision outcome for metrics and filtering
type ReasonCode string

const (
	ReasonTooFewAgreeing  ReasonCode = "too_few_agreeing"
	ReasonOneVsManySplit  ReasonCode = "one_vs_many_split"
	ReasonTwoVsOne        ReasonCode = "two_vs_one"
	ReasonSplitConsensus  ReasonCode = "split_consensus"
	ReasonConflictPenalty ReasonCode = "conflict_penalty"
	ReasonCleanConsensus  ReasonCode = "clean_consensus"
)

// ConflictAnalysis is the decision-table verdict for one consensus group.
// A blocked verdict is a deliberate outcome, not a failure.
type ConflictAnalysis struct {
	HasConflict       bool       `json:"has_conflict"`
	AgreementCount    int        `json:"agreement_count"`
	DisagreementCount int        `json:"disagreement_count"`
	CanGeneratePick   bool       `json:"can_generate_pick"`
	ReasonCode        ReasonCode `json:"reason_code"`
	Reason            string     `json:"reason"`
}

// FactorAgreement records how many agreeing cappers cited one underlying
// signal, plus the net units behind them (the ranking tie-breaker)
type FactorAgreement struct {
	Factor   string  `json:"factor"`
	Count    int     `json:"count"`
	NetUnits float64 `json:"net_units"`
}

// UnitResult is the sizing output for a group that passed the decision table
type UnitResult struct {
	CalculatedUnits  float64           `json:"calculated_units"`
	FactorConfluence []FactorAgreement `json:"factor_confluence,omitempty"`
	ShouldGenerate   bool              `json:"should_generate"`
}

// Decision is the engine's terminal output for one consensus group
type Decision struct {
	GameID                string            `json:"game_id"`
	SportKey              string            `json:"sport_key"`
	Market                MarketType        `json:"market"`
	Side                  string            `json:"side"`
	Line                  *float64          `json:"line,omitempty"`
	ShouldGenerate        bool              `json:"should_generate"`
	ReasonCode            ReasonCode        `json:"reason_code"`
	Reason                string            `json:"reason"`
	Units                 float64           `json:"units"`
	AgreementCount        int               `json:"agreement_count"`
	DisagreementCount     int               `json:"disagreement_count"`
	FactorConfluence      []FactorAgreement `json:"factor_confluence,omitempty"`
	ContributingCapperIDs []string          `json:"contributing_capper_ids"`
}

// EvalError is a structured per-game failure entry. It means "we could not
// evaluate", which callers must never conflate with "we decided not to pick".
type EvalError struct {
	GameID  string `json:"game_id"`
	Market  string `json:"market,omitempty"`
	Stage   string `json:"stage"` // "performance", "picks", "grouping"
	Message string `json:"message"`
}

// BatchResult is one engine invocation's full output
type BatchResult struct {
	Decisions      []Decision       `json:"decisions"`
	Errors         []EvalError      `json:"errors,omitempty"`
	Eligible       []EligibleCapper `json:"eligible,omitempty"`
	GamesEvaluated int              `json:"games_evaluated"`
	ParseErrors    int              `json:"parse_errors"`
}
