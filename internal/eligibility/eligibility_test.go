package eligibility_test

import (
	"testing"

	"github.com/XavierBriggs/fortuna/services/consensus-engine/internal/eligibility"
	"github.com/XavierBriggs/fortuna/services/consensus-engine/internal/testutil"
	"github.com/XavierBriggs/fortuna/services/consensus-engine/pkg/models"
)

func TestComputeEligibility_PositiveNetUnitsOnly(t *testing.T) {
	tests := []struct {
		name     string
		netUnits string
		want     bool
	}{
		{"clearly positive", "12.5", true},
		{"barely positive", "0.01", true},
		{"exactly zero", "0.0", false},
		{"rounds to zero", "0.004", false},
		{"negative", "-3.25", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snapshot := testutil.SnapshotFixture(testutil.RecordFixture("capper-1", tt.netUnits))
			eligible := eligibility.ComputeEligibility(snapshot)

			got := len(eligible) == 1
			if got != tt.want {
				t.Errorf("netUnits=%s eligible = %v, want %v", tt.netUnits, got, tt.want)
			}
		})
	}
}

func TestComputeEligibility_ZeroGradedPicks(t *testing.T) {
	snapshot := testutil.SnapshotFixture(
		testutil.RecordFixture("rookie", "0", func(r *models.CapperRecord) {
			r.Wins = 0
			r.Losses = 0
		}),
	)

	if got := eligibility.ComputeEligibility(snapshot); len(got) != 0 {
		t.Errorf("capper with zero graded picks should be excluded, got %v", got)
	}
}

// Missing performance data means ineligible, never eligible by default
func TestComputeEligibility_FailClosed(t *testing.T) {
	snapshot := models.PerformanceSnapshot{
		Records: []models.CapperRecord{
			testutil.RecordFixture("healthy", "5.0"),
			testutil.RecordFixture("broken", "5.0"),
		},
		Unavailable: []string{"broken"},
	}

	eligible := eligibility.ComputeEligibility(snapshot)
	if len(eligible) != 1 {
		t.Fatalf("eligible count = %d, want 1", len(eligible))
	}
	if eligible[0].CapperID != "healthy" {
		t.Errorf("eligible capper = %s, want healthy", eligible[0].CapperID)
	}
}

func TestComputeEligibility_StableOrdering(t *testing.T) {
	snapshot := testutil.SnapshotFixture(
		testutil.RecordFixture("zeta", "1.0"),
		testutil.RecordFixture("alpha", "2.0"),
		testutil.RecordFixture("mid", "3.0"),
	)

	first := eligibility.ComputeEligibility(snapshot)
	second := eligibility.ComputeEligibility(snapshot)

	if len(first) != 3 || len(second) != 3 {
		t.Fatalf("eligible counts = %d, %d, want 3, 3", len(first), len(second))
	}

	wantOrder := []string{"alpha", "mid", "zeta"}
	for i, want := range wantOrder {
		if first[i].CapperID != want {
			t.Errorf("first[%d] = %s, want %s", i, first[i].CapperID, want)
		}
		if second[i].CapperID != first[i].CapperID {
			t.Errorf("run order not stable at %d: %s vs %s", i, first[i].CapperID, second[i].CapperID)
		}
	}
}

func TestComputeEligibility_WinRate(t *testing.T) {
	snapshot := testutil.SnapshotFixture(
		testutil.RecordFixture("capper-1", "8.5", func(r *models.CapperRecord) {
			r.Wins = 6
			r.Losses = 4
		}),
	)

	eligible := eligibility.ComputeEligibility(snapshot)
	if len(eligible) != 1 {
		t.Fatal("expected one eligible capper")
	}
	if got := eligible[0].WinRate; got != 0.6 {
		t.Errorf("win rate = %v, want 0.6", got)
	}
}
