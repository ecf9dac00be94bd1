// Package resolver applies the agreement/disagreement decision table and
// sizes the meta-pick for groups that pass it.
package resolver

import (
	"fmt"

	"github.com/XavierBriggs/fortuna/services/consensus-engine/pkg/models"
)

// AnalyzeConflict evaluates one consensus group against the decision table.
// Rules are checked in priority order and the first match wins:
//
//	1 agreeing vs any disagreement  -> blocked (split)
//	fewer than 2 agreeing           -> blocked
//	2 vs 1                          -> blocked (named conservatism rule:
//	                                   two data points against one is too thin)
//	a <= d                          -> blocked (split consensus)
//	a >= 3 with d >= 1              -> allowed, conflict penalty applies
//	a >= 2 with d == 0              -> allowed, clean
//
// Ties and near-ties never generate a pick; only a clear, size->=2 majority
// with zero or minority opposition proceeds. A blocked verdict is a decision,
// not an error.
func AnalyzeConflict(group models.ConsensusGroup) models.ConflictAnalysis {
	a := len(group.Agreeing)
	d := len(group.Disagreeing)

	analysis := models.ConflictAnalysis{
		HasConflict:       d > 0,
		AgreementCount:    a,
		DisagreementCount: d,
	}

	switch {
	case a == 1 && d >= 1:
		analysis.ReasonCode = models.ReasonOneVsManySplit
		analysis.Reason = fmt.Sprintf("1-vs-%d split — blocked", d)

	case a < 2:
		analysis.ReasonCode = models.ReasonTooFewAgreeing
		analysis.Reason = "need at least 2 agreeing"

	case a == 2 && d == 1:
		analysis.ReasonCode = models.ReasonTwoVsOne
		analysis.Reason = "2-vs-1 — too close, conservative skip"

	case a <= d:
		analysis.ReasonCode = models.ReasonSplitConsensus
		analysis.Reason = fmt.Sprintf("%d-vs-%d split consensus — blocked", a, d)

	case d >= 1:
		analysis.CanGeneratePick = true
		analysis.ReasonCode = models.ReasonConflictPenalty
		analysis.Reason = fmt.Sprintf("%d-vs-%d — consensus with conflict penalty", a, d)

	default:
		analysis.CanGeneratePick = true
		analysis.ReasonCode = models.ReasonCleanConsensus
		analysis.Reason = fmt.Sprintf("%d-vs-0 — clean consensus", a)
	}

	return analysis
}
