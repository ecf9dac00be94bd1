package resolver

import (
	"math"
	"sort"

	"github.com/XavierBriggs/fortuna/services/consensus-engine/pkg/models"
	"github.com/shopspring/decimal"
)

// SizingPolicy holds the tunable knobs of the unit calculator. The formula is
// documented policy, not a derived threshold: a confidence-weighted mean of
// the agreeing picks' units, boosted per agreeing capper beyond two, cut by a
// flat penalty when any opposition exists, then clamped and rounded.
type SizingPolicy struct {
	MinUnits           float64 `yaml:"min_units"`
	MaxUnits           float64 `yaml:"max_units"`
	BoostPerExtraAgree float64 `yaml:"boost_per_extra_agree"`
	MaxBoost           float64 `yaml:"max_boost"`
	ConflictPenalty    float64 `yaml:"conflict_penalty"`
}

// DefaultSizingPolicy returns the stock policy
func DefaultSizingPolicy() SizingPolicy {
	return SizingPolicy{
		MinUnits:           0.5,
		MaxUnits:           5.0,
		BoostPerExtraAgree: 0.10,
		MaxBoost:           1.5,
		ConflictPenalty:    0.75,
	}
}

// CalculateUnits sizes the meta-pick for a group that passed the decision
// table and ranks the factor confluence behind it. Groups that did not pass
// get a zero-unit result with ShouldGenerate false.
func CalculateUnits(group models.ConsensusGroup, analysis models.ConflictAnalysis, records map[string]models.CapperRecord, policy SizingPolicy) models.UnitResult {
	if !analysis.CanGeneratePick {
		return models.UnitResult{ShouldGenerate: false}
	}

	base := weightedMeanUnits(group.Agreeing)

	boost := 1.0 + policy.BoostPerExtraAgree*float64(analysis.AgreementCount-2)
	if boost > policy.MaxBoost {
		boost = policy.MaxBoost
	}

	units := base * boost
	if analysis.DisagreementCount > 0 {
		units *= policy.ConflictPenalty
	}

	if units < policy.MinUnits {
		units = policy.MinUnits
	}
	if units > policy.MaxUnits {
		units = policy.MaxUnits
	}

	return models.UnitResult{
		CalculatedUnits:  round2(units),
		FactorConfluence: RankFactorConfluence(group.Agreeing, records),
		ShouldGenerate:   true,
	}
}

// weightedMeanUnits averages the agreeing picks' unit sizes weighted by their
// self-reported confidence. Falls back to a plain mean when no pick carries a
// confidence value.
func weightedMeanUnits(picks []models.Pick) float64 {
	if len(picks) == 0 {
		return 0
	}

	var weightedSum, weightTotal float64
	for _, p := range picks {
		if p.Confidence > 0 {
			weightedSum += p.Units * p.Confidence
			weightTotal += p.Confidence
		}
	}

	if weightTotal > 0 {
		return weightedSum / weightTotal
	}

	var sum float64
	for _, p := range picks {
		sum += p.Units
	}
	return sum / float64(len(picks))
}

// RankFactorConfluence counts how many agreeing cappers cited each underlying
// factor. Ranking is descending by agreement count, ties broken by the total
// net units of the cappers behind the factor (highest first), then by factor
// name, so the ordering is fully deterministic.
func RankFactorConfluence(agreeing []models.Pick, records map[string]models.CapperRecord) []models.FactorAgreement {
	counts := make(map[string]int)
	netUnits := make(map[string]decimal.Decimal)

	for _, p := range agreeing {
		seen := make(map[string]bool, len(p.Factors))
		for _, factor := range p.Factors {
			if factor == "" || seen[factor] {
				continue
			}
			seen[factor] = true
			counts[factor]++
			if rec, ok := records[p.CapperID]; ok {
				netUnits[factor] = netUnits[factor].Add(rec.NetUnits)
			}
		}
	}

	ranked := make([]models.FactorAgreement, 0, len(counts))
	for factor, count := range counts {
		units, _ := netUnits[factor].Float64()
		ranked = append(ranked, models.FactorAgreement{
			Factor:   factor,
			Count:    count,
			NetUnits: units,
		})
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Count != ranked[j].Count {
			return ranked[i].Count > ranked[j].Count
		}
		if ranked[i].NetUnits != ranked[j].NetUnits {
			return ranked[i].NetUnits > ranked[j].NetUnits
		}
		return ranked[i].Factor < ranked[j].Factor
	})

	return ranked
}

// round2 rounds to 2 decimal places
func round2(val float64) float64 {
	return math.Round(val*100) / 100
}
