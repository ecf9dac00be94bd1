// Package engine runs the consensus evaluation batch: one eligibility
// snapshot per invocation, independent per-game evaluation, deterministic
// output.
package engine

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/XavierBriggs/fortuna/services/consensus-engine/internal/eligibility"
	"github.com/XavierBriggs/fortuna/services/consensus-engine/internal/grouper"
	"github.com/XavierBriggs/fortuna/services/consensus-engine/internal/resolver"
	"github.com/XavierBriggs/fortuna/services/consensus-engine/pkg/contracts"
	"github.com/XavierBriggs/fortuna/services/consensus-engine/pkg/models"
)

// Engine evaluates consensus for every candidate game in a lookahead window.
// Stateless between invocations; a Run is a pure function of the feeds'
// contents and the supplied clock reading.
type Engine struct {
	performance contracts.PerformanceFeed
	picks       contracts.PickFeed
	config      contracts.EngineConfig
	policy      resolver.SizingPolicy
}

// NewEngine creates a new consensus engine
func NewEngine(performance contracts.PerformanceFeed, picks contracts.PickFeed, config contracts.EngineConfig, policy resolver.SizingPolicy) *Engine {
	return &Engine{
		performance: performance,
		picks:       picks,
		config:      config,
		policy:      policy,
	}
}

// gameOutcome carries one game's evaluation back from a worker
type gameOutcome struct {
	decisions   []models.Decision
	errors      []models.EvalError
	parseErrors int
}

// Run executes one batch invocation. The eligibility snapshot is computed
// once and shared by every game; games are evaluated concurrently with no
// shared mutable state. If ctx is cancelled mid-batch, decisions already
// computed are returned alongside a batch-level error entry.
func (e *Engine) Run(ctx context.Context, now time.Time) models.BatchResult {
	var result models.BatchResult

	snapshot, err := e.performance.FetchPerformance(ctx)
	if err != nil {
		// Without a performance snapshot no game can be evaluated
		result.Errors = append(result.Errors, models.EvalError{
			Stage:   "performance",
			Message: fmt.Sprintf("fetch performance snapshot: %v", err),
		})
		return result
	}

	eligible := eligibility.ComputeEligibility(snapshot)
	eligibleIDs := eligibility.EligibleIDs(eligible)
	records := snapshot.RecordsByID()
	result.Eligible = eligible

	games, err := e.picks.ListUpcomingGames(ctx, now, e.config.GetLookaheadWindow())
	if err != nil {
		result.Errors = append(result.Errors, models.EvalError{
			Stage:   "picks",
			Message: fmt.Sprintf("list upcoming games: %v", err),
		})
		return result
	}

	workers := e.config.GetWorkerCount()
	if workers < 1 {
		workers = 1
	}

	gameCh := make(chan models.GameRef)
	outcomeCh := make(chan gameOutcome, len(games))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for game := range gameCh {
				outcomeCh <- e.evaluateGame(ctx, game, eligibleIDs, records)
			}
		}()
	}

	for _, game := range games {
		select {
		case gameCh <- game:
		case <-ctx.Done():
		}
		if ctx.Err() != nil {
			break
		}
	}
	close(gameCh)
	wg.Wait()
	close(outcomeCh)

	for outcome := range outcomeCh {
		result.Decisions = append(result.Decisions, outcome.decisions...)
		result.Errors = append(result.Errors, outcome.errors...)
		result.ParseErrors += outcome.parseErrors
		result.GamesEvaluated++
	}

	if ctx.Err() != nil {
		result.Errors = append(result.Errors, models.EvalError{
			Stage:   "picks",
			Message: fmt.Sprintf("batch cancelled: %v", ctx.Err()),
		})
	}

	sortDecisions(result.Decisions)
	sortErrors(result.Errors)

	return result
}

// evaluateGame evaluates every configured market for one game
func (e *Engine) evaluateGame(ctx context.Context, game models.GameRef, eligibleIDs map[string]bool, records map[string]models.CapperRecord) gameOutcome {
	picks, err := e.picks.FetchPendingPicks(ctx, game.GameID)
	if err != nil {
		// Skipped and reported, never silently treated as "no consensus"
		return gameOutcome{errors: []models.EvalError{{
			GameID:  game.GameID,
			Stage:   "picks",
			Message: fmt.Sprintf("fetch pending picks: %v", err),
		}}}
	}

	return evaluateMarkets(picks, eligibleIDs, records, e.config.GetMarkets(), e.policy)
}

// EvaluateSnapshot runs the full pipeline over an in-memory snapshot, with no
// feed access. Used by the on-demand HTTP endpoint and by tests; the batch
// path shares the same core.
func EvaluateSnapshot(picks []models.Pick, snapshot models.PerformanceSnapshot, markets []models.MarketType, policy resolver.SizingPolicy) models.BatchResult {
	eligible := eligibility.ComputeEligibility(snapshot)
	eligibleIDs := eligibility.EligibleIDs(eligible)
	records := snapshot.RecordsByID()

	outcome := evaluateMarkets(picks, eligibleIDs, records, markets, policy)

	result := models.BatchResult{
		Decisions:   outcome.decisions,
		Errors:      outcome.errors,
		Eligible:    eligible,
		ParseErrors: outcome.parseErrors,
	}
	sortDecisions(result.Decisions)
	return result
}

// evaluateMarkets filters picks to eligible pending opinions, dedups repeat
// submissions, and decides every group for each requested market
func evaluateMarkets(picks []models.Pick, eligibleIDs map[string]bool, records map[string]models.CapperRecord, markets []models.MarketType, policy resolver.SizingPolicy) gameOutcome {
	var outcome gameOutcome

	// Ineligible cappers' opinions do not count
	filtered := make([]models.Pick, 0, len(picks))
	for _, p := range picks {
		if p.Status != models.PickStatusPending {
			continue
		}
		if !eligibleIDs[p.CapperID] {
			continue
		}
		filtered = append(filtered, p)
	}
	filtered = grouper.DedupLatest(filtered)

	for i, market := range markets {
		grouped := grouper.GroupAndPair(filtered, market)
		outcome.parseErrors += grouped.UnknownSides
		if i == 0 {
			// Invalid market keys fail before the market filter; count them once
			outcome.parseErrors += grouped.InvalidMarket
		}

		for _, group := range grouped.Groups {
			outcome.decisions = append(outcome.decisions, decide(group, records, policy))
		}
	}

	return outcome
}

// decide runs one group through the conflict table and unit calculator
func decide(group models.ConsensusGroup, records map[string]models.CapperRecord, policy resolver.SizingPolicy) models.Decision {
	analysis := resolver.AnalyzeConflict(group)

	decision := models.Decision{
		GameID:            group.GameID,
		SportKey:          group.SportKey,
		Market:            group.Market,
		Side:              group.Side.Key(),
		Line:              group.Side.Line,
		ReasonCode:        analysis.ReasonCode,
		Reason:            analysis.Reason,
		AgreementCount:    analysis.AgreementCount,
		DisagreementCount: analysis.DisagreementCount,
	}

	for _, p := range group.Agreeing {
		decision.ContributingCapperIDs = append(decision.ContributingCapperIDs, p.CapperID)
	}
	sort.Strings(decision.ContributingCapperIDs)

	units := resolver.CalculateUnits(group, analysis, records, policy)
	decision.ShouldGenerate = units.ShouldGenerate
	decision.Units = units.CalculatedUnits
	decision.FactorConfluence = units.FactorConfluence

	return decision
}

// sortDecisions orders batch output so identical inputs give identical bytes
func sortDecisions(decisions []models.Decision) {
	sort.Slice(decisions, func(i, j int) bool {
		a, b := decisions[i], decisions[j]
		if a.GameID != b.GameID {
			return a.GameID < b.GameID
		}
		if a.Market != b.Market {
			return a.Market < b.Market
		}
		return a.Side < b.Side
	})
}

func sortErrors(errs []models.EvalError) {
	sort.Slice(errs, func(i, j int) bool {
		a, b := errs[i], errs[j]
		if a.GameID != b.GameID {
			return a.GameID < b.GameID
		}
		if a.Stage != b.Stage {
			return a.Stage < b.Stage
		}
		return a.Message < b.Message
	})
}
