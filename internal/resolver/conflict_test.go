package resolver_test

import (
	"strings"
	"testing"

	"github.com/XavierBriggs/fortuna/services/consensus-engine/internal/resolver"
	"github.com/XavierBriggs/fortuna/services/consensus-engine/internal/testutil"
	"github.com/XavierBriggs/fortuna/services/consensus-engine/pkg/models"
)

// groupWith builds a total-market group with the given camp sizes
func groupWith(agreeing, disagreeing int) models.ConsensusGroup {
	group := models.ConsensusGroup{
		GameID:   "game-1",
		SportKey: "basketball_nba",
		Market:   models.MarketTotal,
		Side:     models.CanonicalSide{Kind: models.SideTotal, OverUnder: models.TotalOver},
	}
	for i := 0; i < agreeing; i++ {
		group.Agreeing = append(group.Agreeing, testutil.TotalPick("agree", "OVER 225.5"))
	}
	for i := 0; i < disagreeing; i++ {
		group.Disagreeing = append(group.Disagreeing, testutil.TotalPick("disagree", "UNDER 225.5"))
	}
	return group
}

func TestAnalyzeConflict_DecisionTable(t *testing.T) {
	tests := []struct {
		name         string
		agreeing     int
		disagreeing  int
		wantGenerate bool
		wantCode     models.ReasonCode
		wantReason   string
	}{
		{"one vs one", 1, 1, false, models.ReasonOneVsManySplit, "1-vs-1 split — blocked"},
		{"one vs many", 1, 3, false, models.ReasonOneVsManySplit, "1-vs-3 split — blocked"},
		{"lone pick", 1, 0, false, models.ReasonTooFewAgreeing, "need at least 2 agreeing"},
		{"no picks", 0, 0, false, models.ReasonTooFewAgreeing, "need at least 2 agreeing"},
		{"two vs one", 2, 1, false, models.ReasonTwoVsOne, "2-vs-1 — too close, conservative skip"},
		{"two vs two", 2, 2, false, models.ReasonSplitConsensus, "2-vs-2 split consensus — blocked"},
		{"three vs four", 3, 4, false, models.ReasonSplitConsensus, "3-vs-4 split consensus — blocked"},
		{"three vs three", 3, 3, false, models.ReasonSplitConsensus, "3-vs-3 split consensus — blocked"},
		{"three vs one", 3, 1, true, models.ReasonConflictPenalty, "3-vs-1 — consensus with conflict penalty"},
		{"five vs two", 5, 2, true, models.ReasonConflictPenalty, "5-vs-2 — consensus with conflict penalty"},
		{"two clean", 2, 0, true, models.ReasonCleanConsensus, "2-vs-0 — clean consensus"},
		{"four clean", 4, 0, true, models.ReasonCleanConsensus, "4-vs-0 — clean consensus"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := resolver.AnalyzeConflict(groupWith(tt.agreeing, tt.disagreeing))

			if got.CanGeneratePick != tt.wantGenerate {
				t.Errorf("canGenerate = %v, want %v", got.CanGeneratePick, tt.wantGenerate)
			}
			if got.ReasonCode != tt.wantCode {
				t.Errorf("reason code = %s, want %s", got.ReasonCode, tt.wantCode)
			}
			if got.Reason != tt.wantReason {
				t.Errorf("reason = %q, want %q", got.Reason, tt.wantReason)
			}
			if got.AgreementCount != tt.agreeing || got.DisagreementCount != tt.disagreeing {
				t.Errorf("counts = %d/%d, want %d/%d",
					got.AgreementCount, got.DisagreementCount, tt.agreeing, tt.disagreeing)
			}
		})
	}
}

func TestAnalyzeConflict_HasConflict(t *testing.T) {
	if resolver.AnalyzeConflict(groupWith(3, 0)).HasConflict {
		t.Error("no disagreement should mean no conflict")
	}
	if !resolver.AnalyzeConflict(groupWith(3, 1)).HasConflict {
		t.Error("any disagreement should flag conflict")
	}
}

// A blocked verdict carries a reason, never an empty string
func TestAnalyzeConflict_AlwaysReasoned(t *testing.T) {
	for a := 0; a <= 5; a++ {
		for d := 0; d <= 5; d++ {
			got := resolver.AnalyzeConflict(groupWith(a, d))
			if strings.TrimSpace(got.Reason) == "" {
				t.Errorf("(%d,%d) produced empty reason", a, d)
			}
			if got.ReasonCode == "" {
				t.Errorf("(%d,%d) produced empty reason code", a, d)
			}
		}
	}
}
