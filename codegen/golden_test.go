package codegen

import (
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/require"

	"github.com/vowlang/vow/binder"
	"github.com/vowlang/vow/spec"
)

// The fixture document is the data contract between generated tests and
// the people who complete needs_manual entries; pin its exact shape.
func TestFixtureGolden(t *testing.T) {
	binding := binder.Binding{
		Behavior:   "apply_payment",
		ValidInput: map[string]any{"amount": 1.0},
		Preconditions: []binder.PreconditionBinding{
			{
				Description: "requires (input.amount > 0)",
				Violating:   binder.Input{Fields: map[string]any{"amount": 0.0}},
			},
		},
		Postconditions: []binder.PostconditionBinding{
			{
				Description:      `ensures (result.status == "posted")`,
				Condition:        spec.CondSuccess,
				FailsOnViolation: true,
				ViolatingResult:  map[string]any{"status": "posted_other"},
			},
		},
		Errors: []binder.ErrorBinding{
			{
				Name:       "limit_exceeded",
				Retriable:  false,
				Triggering: binder.Input{Fields: map[string]any{"amount": 501.0}},
			},
			{
				Name:       "ledger_offline",
				Retriable:  true,
				Triggering: binder.Input{NeedsManual: true},
			},
		},
	}

	artifact, err := renderFixture(binding)
	require.NoError(t, err)
	require.Equal(t, "fixtures/apply_payment.json", artifact.Path)

	g := goldie.New(t)
	g.Assert(t, "fixture", []byte(artifact.Content))
}
