package scenario

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vowlang/vow/runtime"
	"github.com/vowlang/vow/verify"
)

const depositFlow = `
name: two_deposits_accumulate
description: Sequential deposits add up and post a ledger row each.
behavior: deposit
setup:
  - entity: Account
    records:
      - id: ada
        balance: 100
steps:
  - input: {account: ada, amount: 40}
    expect:
      case: success
      result: {balance: 140}
  - input: {account: ada, amount: 10}
    expect:
      case: success
      result: {balance: 150}
final_state:
  - entity: Account
    where: {id: ada}
    expect: {balance: 150}
  - entity: Ledger
    count: 2
`

// depositInvoker is a correct reference implementation of the flow
// above: it mutates the account balance and appends a ledger row.
func depositInvoker() verify.Invoker {
	return verify.InvokerFunc(func(_ context.Context, _ string, input map[string]any, store *runtime.Context) (verify.Outcome, error) {
		account, _ := input["account"].(string)
		amount := toFloat(input["amount"])
		rec := store.Entity("Account").Lookup(map[string]any{"id": account})
		if rec == nil {
			return verify.Outcome{Case: "unknown_account"}, nil
		}
		balance := toFloat(rec["balance"]) + amount
		store.Update("Account", map[string]any{"id": account}, map[string]any{"balance": balance})
		store.Insert("Ledger", map[string]any{"account": account, "amount": amount})
		return verify.Outcome{Case: "success", Result: map[string]any{"balance": balance}}, nil
	})
}

func toFloat(v any) float64 {
	switch n := v.(type) {
	case int:
		return float64(n)
	case float64:
		return n
	}
	return 0
}

func steadyClock() func() time.Time {
	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	step := 0
	return func() time.Time {
		step++
		return base.Add(time.Duration(step) * time.Millisecond)
	}
}

func TestParseValidScenario(t *testing.T) {
	s, err := Parse([]byte(depositFlow))
	require.NoError(t, err)

	assert.Equal(t, "two_deposits_accumulate", s.Name)
	assert.Equal(t, "deposit", s.Behavior)
	require.Len(t, s.Steps, 2)
	assert.Equal(t, "success", s.Steps[0].Expect.Case)
	require.Len(t, s.Setup, 1)
	assert.Equal(t, "Account", s.Setup[0].Entity)
	require.Len(t, s.FinalState, 2)
	require.NotNil(t, s.FinalState[1].Count)
	assert.Equal(t, 2, *s.FinalState[1].Count)
}

func TestParseRejectsUnknownFields(t *testing.T) {
	doc := `
name: typo
description: misspelled steps key
behavior: deposit
step:
  - input: {amount: 1}
`
	_, err := Parse([]byte(doc))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing scenario")
}

func TestParseRequiredFields(t *testing.T) {
	cases := map[string]struct {
		doc  string
		want string
	}{
		"missing name": {
			doc:  "behavior: deposit\nsteps:\n  - input: {a: 1}\n",
			want: "name is required",
		},
		"missing behavior": {
			doc:  "name: x\nsteps:\n  - input: {a: 1}\n",
			want: "behavior is required",
		},
		"no steps": {
			doc:  "name: x\nbehavior: deposit\n",
			want: "steps list is required",
		},
		"expect without case": {
			doc:  "name: x\nbehavior: deposit\nsteps:\n  - input: {a: 1}\n    expect:\n      result: {b: 2}\n",
			want: "expect.case is required",
		},
		"empty state assertion": {
			doc:  "name: x\nbehavior: deposit\nsteps:\n  - input: {a: 1}\nfinal_state:\n  - entity: Account\n",
			want: "count or expect is required",
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(tc.doc))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deposit.yaml")
	require.NoError(t, os.WriteFile(path, []byte(depositFlow), 0o644))

	s, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "two_deposits_accumulate", s.Name)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading scenario file")
}

func TestRunPassingFlow(t *testing.T) {
	s, err := Parse([]byte(depositFlow))
	require.NoError(t, err)

	runner := NewRunner(depositInvoker(), WithClock(steadyClock()))
	res := runner.Run(context.Background(), s)

	assert.Equal(t, "deposit/scenario/two_deposits_accumulate", res.ID)
	assert.Equal(t, verify.KindScenario, res.Kind)
	assert.Equal(t, verify.StatePass, res.State)
	assert.Empty(t, res.Message)
	assert.Equal(t, time.Millisecond, res.Duration)
}

func TestRunReportsCaseMismatch(t *testing.T) {
	s, err := Parse([]byte(depositFlow))
	require.NoError(t, err)
	// Unknown account makes the first invocation return a different case.
	s.Setup = nil

	runner := NewRunner(depositInvoker())
	res := runner.Run(context.Background(), s)

	assert.Equal(t, verify.StateFail, res.State)
	assert.Contains(t, res.Message, "step 1")
	assert.Contains(t, res.Message, `expected case "success", got "unknown_account"`)
}

func TestRunReportsResultMismatch(t *testing.T) {
	s, err := Parse([]byte(depositFlow))
	require.NoError(t, err)
	s.Steps[1].Expect.Result["balance"] = 999

	runner := NewRunner(depositInvoker())
	res := runner.Run(context.Background(), s)

	assert.Equal(t, verify.StateFail, res.State)
	assert.Contains(t, res.Message, "step 2")
	assert.Contains(t, res.Message, "result.balance")
}

func TestRunChecksFinalState(t *testing.T) {
	s, err := Parse([]byte(depositFlow))
	require.NoError(t, err)
	three := 3
	s.FinalState[1].Count = &three

	runner := NewRunner(depositInvoker())
	res := runner.Run(context.Background(), s)

	assert.Equal(t, verify.StateFail, res.State)
	assert.Contains(t, res.Message, "final_state 2")
	assert.Contains(t, res.Message, "expected 3 matching records, got 2")
}

func TestRunWithoutExpectRequiresSuccess(t *testing.T) {
	doc := `
name: fire_and_forget
description: Steps without expect must still succeed.
behavior: deposit
steps:
  - input: {account: nobody, amount: 1}
`
	s, err := Parse([]byte(doc))
	require.NoError(t, err)

	runner := NewRunner(depositInvoker())
	res := runner.Run(context.Background(), s)

	assert.Equal(t, verify.StateFail, res.State)
	assert.Contains(t, res.Message, `expected success, got "unknown_account"`)
}

func TestRunAllIsolatesState(t *testing.T) {
	first, err := Parse([]byte(depositFlow))
	require.NoError(t, err)
	second, err := Parse([]byte(depositFlow))
	require.NoError(t, err)
	second.Name = "rerun"

	runner := NewRunner(depositInvoker())
	results := runner.RunAll(context.Background(), []*Scenario{first, second})

	require.Len(t, results, 2)
	// If the second run saw the first run's ledger rows, its count
	// assertion would fail.
	assert.Equal(t, verify.StatePass, results[0].State)
	assert.Equal(t, verify.StatePass, results[1].State)
	assert.Equal(t, "deposit/scenario/rerun", results[1].ID)
}
