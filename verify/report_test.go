package verify

import (
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestReportGolden pins the evidence report wire format. Downstream
// dashboards and CI gates parse this document; field renames or
// reorderings are breaking changes.
func TestReportGolden(t *testing.T) {
	report := &Report{
		ID:          "0194d37e-1111-7222-8333-444455556666",
		Fingerprint: "f1e2d3c4b5a69788776655443322110099887766554433221100998877665544",
		Behavior:    "transfer",
		Results: []ClauseResult{
			{
				ID:       "transfer/postcondition/1",
				Kind:     KindPostcondition,
				State:    StatePass,
				Duration: time.Millisecond,
			},
			{
				ID:       "transfer/temporal/1",
				Kind:     KindTemporal,
				State:    StatePartial,
				Message:  "temporal eventually(true): unsupported expression: call eventually",
				Duration: 2 * time.Millisecond,
			},
		},
		Summary: ScoreSummary{
			Postconditions: CategoryScore{Pass: 1, Percent: 100},
			Invariants:     CategoryScore{Percent: 100},
			Scenarios:      CategoryScore{Percent: 100},
			Temporal:       CategoryScore{Partial: 1, Percent: 40},
			Score:          94,
			Pass:           1,
			Partial:        1,
			Recommendation: RecShip,
		},
		Assumptions: []string{
			"go: no translation for call eventually(true)",
		},
		StartedAt:  time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		FinishedAt: time.Date(2026, 1, 2, 3, 4, 6, 0, time.UTC),
		DurationMS: 1000,
	}

	data, err := report.MarshalIndent()
	require.NoError(t, err)

	g := goldie.New(t)
	g.Assert(t, "report", data)
}

func TestGoldenSummaryMatchesScorer(t *testing.T) {
	// The golden file's summary is what Score produces for its results.
	results := []ClauseResult{
		{Kind: KindPostcondition, State: StatePass},
		{Kind: KindTemporal, State: StatePartial},
	}
	s := Score(results)
	assert.Equal(t, 94, s.Score)
	assert.Equal(t, RecShip, s.Recommendation)
	assert.Equal(t, 40.0, s.Temporal.Percent)
}
