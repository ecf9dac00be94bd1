// Package eligibility decides which cappers' opinions count toward consensus.
package eligibility

import (
	"sort"

	"github.com/XavierBriggs/fortuna/services/consensus-engine/pkg/models"
	"github.com/shopspring/decimal"
)

// netUnitsScale is the rounding applied before the positivity check, so a
// record that nets to 0.0 at two decimal places is excluded
const netUnitsScale = 2

// ComputeEligibility returns the cappers allowed to contribute to consensus:
// those with strictly positive net units across graded picks. A capper with
// zero graded picks nets 0 and is excluded. Cappers in the snapshot's
// Unavailable list never appear in the result (fail closed). Output is sorted
// by capper ID so repeated runs on the same snapshot are identical.
func ComputeEligibility(snapshot models.PerformanceSnapshot) []models.EligibleCapper {
	unavailable := make(map[string]bool, len(snapshot.Unavailable))
	for _, id := range snapshot.Unavailable {
		unavailable[id] = true
	}

	eligible := make([]models.EligibleCapper, 0, len(snapshot.Records))
	for _, rec := range snapshot.Records {
		if unavailable[rec.CapperID] {
			continue
		}

		rounded := rec.NetUnits.Round(netUnitsScale)
		if !rounded.GreaterThan(decimal.Zero) {
			continue
		}

		eligible = append(eligible, models.EligibleCapper{
			CapperID:    rec.CapperID,
			DisplayName: rec.DisplayName,
			Wins:        rec.Wins,
			Losses:      rec.Losses,
			NetUnits:    rounded,
			WinRate:     rec.WinRate(),
		})
	}

	sort.Slice(eligible, func(i, j int) bool {
		return eligible[i].CapperID < eligible[j].CapperID
	})

	return eligible
}

// EligibleIDs returns the eligible capper IDs as a set, for pick filtering
func EligibleIDs(eligible []models.EligibleCapper) map[string]bool {
	ids := make(map[string]bool, len(eligible))
	for _, e := range eligible {
		ids[e.CapperID] = true
	}
	return ids
}
