package resolver_test

import (
	"testing"

	"github.com/XavierBriggs/fortuna/services/consensus-engine/internal/resolver"
	"github.com/XavierBriggs/fortuna/services/consensus-engine/internal/testutil"
	"github.com/XavierBriggs/fortuna/services/consensus-engine/pkg/models"
)

func recordsFor(records ...models.CapperRecord) map[string]models.CapperRecord {
	byID := make(map[string]models.CapperRecord, len(records))
	for _, r := range records {
		byID[r.CapperID] = r
	}
	return byID
}

func TestCalculateUnits_BlockedGroupGetsNothing(t *testing.T) {
	group := groupWith(2, 1)
	analysis := resolver.AnalyzeConflict(group)

	got := resolver.CalculateUnits(group, analysis, nil, resolver.DefaultSizingPolicy())
	if got.ShouldGenerate {
		t.Error("blocked group must not generate")
	}
	if got.CalculatedUnits != 0 {
		t.Errorf("blocked group units = %v, want 0", got.CalculatedUnits)
	}
}

func TestCalculateUnits_CleanConsensus(t *testing.T) {
	group := models.ConsensusGroup{
		Market: models.MarketTotal,
		Side:   models.CanonicalSide{Kind: models.SideTotal, OverUnder: models.TotalOver},
		Agreeing: []models.Pick{
			testutil.PickFixture(func(p *models.Pick) { p.Units = 2.0; p.Confidence = 50 }),
			testutil.PickFixture(func(p *models.Pick) { p.CapperID = "capper-2"; p.Units = 2.0; p.Confidence = 50 }),
		},
	}
	analysis := resolver.AnalyzeConflict(group)

	got := resolver.CalculateUnits(group, analysis, nil, resolver.DefaultSizingPolicy())
	if !got.ShouldGenerate {
		t.Fatal("clean 2-vs-0 consensus must generate")
	}
	// Equal units and confidence, a=2: no boost, no penalty
	if got.CalculatedUnits != 2.0 {
		t.Errorf("units = %v, want 2.0", got.CalculatedUnits)
	}
}

func TestCalculateUnits_ConflictPenaltyApplied(t *testing.T) {
	policy := resolver.DefaultSizingPolicy()

	clean := groupWith(3, 0)
	conflicted := groupWith(3, 1)

	cleanUnits := resolver.CalculateUnits(clean, resolver.AnalyzeConflict(clean), nil, policy)
	conflictedUnits := resolver.CalculateUnits(conflicted, resolver.AnalyzeConflict(conflicted), nil, policy)

	if !cleanUnits.ShouldGenerate || !conflictedUnits.ShouldGenerate {
		t.Fatal("both 3-vs-0 and 3-vs-1 must generate")
	}
	if conflictedUnits.CalculatedUnits >= cleanUnits.CalculatedUnits {
		t.Errorf("conflicted units %v should be below clean units %v",
			conflictedUnits.CalculatedUnits, cleanUnits.CalculatedUnits)
	}
}

func TestCalculateUnits_BoostGrowsWithAgreement(t *testing.T) {
	policy := resolver.DefaultSizingPolicy()

	two := groupWith(2, 0)
	four := groupWith(4, 0)

	twoUnits := resolver.CalculateUnits(two, resolver.AnalyzeConflict(two), nil, policy)
	fourUnits := resolver.CalculateUnits(four, resolver.AnalyzeConflict(four), nil, policy)

	if fourUnits.CalculatedUnits <= twoUnits.CalculatedUnits {
		t.Errorf("4 agreeing (%v units) should size above 2 agreeing (%v units)",
			fourUnits.CalculatedUnits, twoUnits.CalculatedUnits)
	}
}

func TestCalculateUnits_Clamped(t *testing.T) {
	policy := resolver.DefaultSizingPolicy()

	group := groupWith(2, 0)
	for i := range group.Agreeing {
		group.Agreeing[i].Units = 50.0
	}

	got := resolver.CalculateUnits(group, resolver.AnalyzeConflict(group), nil, policy)
	if got.CalculatedUnits != policy.MaxUnits {
		t.Errorf("units = %v, want clamped to %v", got.CalculatedUnits, policy.MaxUnits)
	}
}

func TestRankFactorConfluence_MostAgreedFirst(t *testing.T) {
	picks := []models.Pick{
		testutil.PickFixture(func(p *models.Pick) { p.CapperID = "a"; p.Factors = []string{"pace", "injuries"} }),
		testutil.PickFixture(func(p *models.Pick) { p.CapperID = "b"; p.Factors = []string{"pace"} }),
		testutil.PickFixture(func(p *models.Pick) { p.CapperID = "c"; p.Factors = []string{"pace", "rest"} }),
	}

	ranked := resolver.RankFactorConfluence(picks, nil)
	if len(ranked) != 3 {
		t.Fatalf("ranked factors = %d, want 3", len(ranked))
	}
	if ranked[0].Factor != "pace" || ranked[0].Count != 3 {
		t.Errorf("top factor = %s x%d, want pace x3", ranked[0].Factor, ranked[0].Count)
	}
}

// Ties on count break by total contributing net units, then by name
func TestRankFactorConfluence_TieBreaks(t *testing.T) {
	picks := []models.Pick{
		testutil.PickFixture(func(p *models.Pick) { p.CapperID = "sharp"; p.Factors = []string{"injuries"} }),
		testutil.PickFixture(func(p *models.Pick) { p.CapperID = "square"; p.Factors = []string{"pace"} }),
	}
	records := recordsFor(
		testutil.RecordFixture("sharp", "20.0"),
		testutil.RecordFixture("square", "1.0"),
	)

	ranked := resolver.RankFactorConfluence(picks, records)
	if ranked[0].Factor != "injuries" {
		t.Errorf("top factor = %s, want injuries (higher net units behind it)", ranked[0].Factor)
	}

	// With no records at all, equal counts fall back to name order
	ranked = resolver.RankFactorConfluence(picks, nil)
	if ranked[0].Factor != "injuries" || ranked[1].Factor != "pace" {
		t.Errorf("name tie-break order = [%s %s], want [injuries pace]", ranked[0].Factor, ranked[1].Factor)
	}
}

// The same pick citing a factor twice counts once
func TestRankFactorConfluence_DuplicateFactorsInOnePick(t *testing.T) {
	picks := []models.Pick{
		testutil.PickFixture(func(p *models.Pick) { p.Factors = []string{"pace", "pace"} }),
	}

	ranked := resolver.RankFactorConfluence(picks, nil)
	if len(ranked) != 1 || ranked[0].Count != 1 {
		t.Errorf("ranked = %v, want single pace x1", ranked)
	}
}
