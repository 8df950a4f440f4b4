package codegen

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vowlang/vow/binder"
	"github.com/vowlang/vow/compiler"
	"github.com/vowlang/vow/eval"
	"github.com/vowlang/vow/runtime"
	"github.com/vowlang/vow/spec"
)

func paymentBehavior() spec.Behavior {
	amount := &spec.Member{Target: &spec.InputRef{}, Property: "amount"}

	return spec.Behavior{
		Name:   "apply_payment",
		Input:  []spec.Field{{Name: "amount", Type: "number", Required: true}, {Name: "account", Type: "string", Required: true}},
		Output: "PaymentResult",
		Errors: []spec.ErrorSpec{
			{
				Name:      "limit_exceeded",
				Trigger:   "amount above limit",
				Retriable: false,
				When:      &spec.Binary{Op: ">", Left: amount, Right: &spec.NumberLit{Value: 500}},
			},
		},
		Preconditions: []spec.Expr{
			&spec.Binary{Op: ">", Left: amount, Right: &spec.NumberLit{Value: 0}},
		},
		Postconditions: []spec.PostBlock{
			{
				Condition: spec.CondSuccess,
				Predicates: []spec.Expr{
					&spec.Binary{
						Op:    "==",
						Left:  &spec.Member{Target: &spec.ResultRef{}, Property: "status"},
						Right: &spec.StringLit{Value: "posted"},
					},
				},
			},
		},
		Invariants: []spec.Expr{
			&spec.Binary{
				Op:    ">=",
				Left:  &spec.Call{Fn: &spec.Member{Target: &spec.Ident{Name: "Ledger"}, Property: "count"}},
				Right: &spec.NumberLit{Value: 0},
			},
		},
	}
}

func kinds(artifacts []Artifact) map[Kind]int {
	out := make(map[Kind]int)
	for _, a := range artifacts {
		out[a.Kind]++
	}
	return out
}

func find(t *testing.T, artifacts []Artifact, path string) Artifact {
	t.Helper()
	for _, a := range artifacts {
		if a.Path == path {
			return a
		}
	}
	t.Fatalf("no artifact at %s", path)
	return Artifact{}
}

func TestGoRendererArtifactSet(t *testing.T) {
	b := paymentBehavior()
	binding := binder.Build(b, []string{"Ledger"}, compiler.NewGoBackend())
	artifacts, err := NewGoRenderer().Render(binding, b)
	require.NoError(t, err)

	assert.Equal(t, map[Kind]int{KindTest: 1, KindFixture: 1, KindHelper: 1, KindConfig: 1}, kinds(artifacts))

	test := find(t, artifacts, "apply_payment_contract_test.go")
	assert.Contains(t, test.Content, "package contracttest")
	assert.Contains(t, test.Content, "func TestApplyPaymentPrecondition1(t *testing.T) {")
	assert.Contains(t, test.Content, "func TestApplyPaymentPostcondition1(t *testing.T) {")
	assert.Contains(t, test.Content, "func TestApplyPaymentErrorLimitExceeded(t *testing.T) {")
	assert.Contains(t, test.Content, "func TestApplyPaymentInvariant1(t *testing.T) {")
	assert.Contains(t, test.Content, "env.Old = env.Store.Capture()")

	helper := find(t, artifacts, "vow_runtime_test.go")
	assert.Contains(t, helper.Content, "func vowEq(a, b any) bool")
	assert.Contains(t, helper.Content, "func (s *vowStore) Capture() *vowStore")

	config := find(t, artifacts, "go.mod")
	assert.Contains(t, config.Content, "module contracttest")
}

func TestGoViolationMetaTest(t *testing.T) {
	b := paymentBehavior()
	binding := binder.Build(b, []string{"Ledger"}, compiler.NewGoBackend())
	require.True(t, binding.Postconditions[0].FailsOnViolation)

	artifacts, err := NewGoRenderer().Render(binding, b)
	require.NoError(t, err)
	test := find(t, artifacts, "apply_payment_contract_test.go")

	assert.Contains(t, test.Content, "func TestApplyPaymentViolation1(t *testing.T) {")
	assert.Contains(t, test.Content, "result, ok := fix.ViolatingResult(0)")
	assert.Contains(t, test.Content, HarnessIntegrityMarker)
}

func TestUninvertiblePostconditionRendersNoViolationTest(t *testing.T) {
	b := paymentBehavior()
	b.Postconditions = []spec.PostBlock{{
		Condition: spec.CondSuccess,
		Predicates: []spec.Expr{&spec.Binary{
			Op: ">",
			Left: &spec.Member{
				Target:   &spec.Member{Target: &spec.ResultRef{}, Property: "entries"},
				Property: "length",
			},
			Right: &spec.NumberLit{Value: 0},
		}},
	}}
	binding := binder.Build(b, []string{"Ledger"}, compiler.NewGoBackend())
	require.False(t, binding.Postconditions[0].FailsOnViolation)

	artifacts, err := NewGoRenderer().Render(binding, b)
	require.NoError(t, err)
	test := find(t, artifacts, "apply_payment_contract_test.go")

	assert.Contains(t, test.Content, "func TestApplyPaymentPostcondition1(t *testing.T) {")
	assert.NotContains(t, test.Content, "Violation1", "no forged result for a predicate synthesis cannot falsify")
}

func TestErrorTaggedPostconditionDrivenByTriggeringInput(t *testing.T) {
	b := paymentBehavior()
	b.Postconditions = append(b.Postconditions, spec.PostBlock{
		Condition: spec.CondAnyError,
		Predicates: []spec.Expr{&spec.Binary{
			Op:    "==",
			Left:  &spec.Call{Fn: &spec.Member{Target: &spec.Ident{Name: "Ledger"}, Property: "count"}},
			Right: &spec.Old{Inner: &spec.Call{Fn: &spec.Member{Target: &spec.Ident{Name: "Ledger"}, Property: "count"}}},
		}},
	})
	binding := binder.Build(b, []string{"Ledger"}, compiler.NewGoBackend())

	artifacts, err := NewGoRenderer().Render(binding, b)
	require.NoError(t, err)
	test := find(t, artifacts, "apply_payment_contract_test.go")

	// Postcondition 2 is tagged any_error: its test must provoke the
	// declared error, not invoke with the valid input and skip forever.
	_, body, found := strings.Cut(test.Content, "func TestApplyPaymentPostcondition2(t *testing.T) {")
	require.True(t, found)
	body, _, _ = strings.Cut(body, "\nfunc ")
	assert.Contains(t, body, `fix.TriggeringInput("limit_exceeded")`)
	assert.NotContains(t, body, "fix.ValidInput()")
}

func TestGoConditionGuards(t *testing.T) {
	b := paymentBehavior()
	b.Postconditions = append(b.Postconditions, spec.PostBlock{
		Condition:  "limit_exceeded",
		Predicates: []spec.Expr{&spec.BoolLit{Value: true}},
	})
	binding := binder.Build(b, []string{"Ledger"}, compiler.NewGoBackend())

	artifacts, err := NewGoRenderer().Render(binding, b)
	require.NoError(t, err)
	test := find(t, artifacts, "apply_payment_contract_test.go")

	assert.Contains(t, test.Content, "if verr != nil {", "success guard")
	assert.Contains(t, test.Content, `if verr == nil || verr.Name != "limit_exceeded" {`, "named error guard")
}

func TestBackendMismatchRejected(t *testing.T) {
	b := paymentBehavior()
	binding := binder.Build(b, []string{"Ledger"}, compiler.NewPythonBackend())

	_, err := NewGoRenderer().Render(binding, b)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `compiled for backend "python"`)
}

func TestFixtureRoundTrip(t *testing.T) {
	// The rendered valid-input fixture, parsed back, must satisfy the
	// precondition when evaluated directly.
	b := paymentBehavior()
	binding := binder.Build(b, []string{"Ledger"}, compiler.NewGoBackend())
	artifacts, err := NewGoRenderer().Render(binding, b)
	require.NoError(t, err)

	fixture := find(t, artifacts, "fixtures/apply_payment.json")
	behaviorName, validInput, err := ParseFixture([]byte(fixture.Content))
	require.NoError(t, err)
	assert.Equal(t, "apply_payment", behaviorName)

	env := &eval.Env{Input: validInput, Store: runtime.NewContext(nil)}
	ok, err := eval.Bool(b.Preconditions[0], env)
	require.NoError(t, err)
	assert.True(t, ok, "fixture valid input must satisfy the precondition")

	// And the violating input must falsify it.
	var doc struct {
		Preconditions []struct {
			ViolatingInput map[string]any `json:"violating_input"`
		} `json:"preconditions"`
		Postconditions []struct {
			ViolatingResult map[string]any `json:"violating_result"`
		} `json:"postconditions"`
	}
	require.NoError(t, json.Unmarshal([]byte(fixture.Content), &doc))
	require.Len(t, doc.Preconditions, 1)

	env.Input = doc.Preconditions[0].ViolatingInput
	ok, err = eval.Bool(b.Preconditions[0], env)
	require.NoError(t, err)
	assert.False(t, ok, "fixture violating input must falsify the precondition")

	// Same falsifiability contract for the synthesized result.
	require.Len(t, doc.Postconditions, 1)
	env = &eval.Env{
		Input:  validInput,
		Result: doc.Postconditions[0].ViolatingResult,
		Store:  runtime.NewContext(nil),
	}
	ok, err = eval.Bool(b.Postconditions[0].Predicates[0], env)
	require.NoError(t, err)
	assert.False(t, ok, "fixture violating result must falsify the postcondition")
}

func TestPythonRendererArtifactSet(t *testing.T) {
	b := paymentBehavior()
	binding := binder.Build(b, []string{"Ledger"}, compiler.NewPythonBackend())
	artifacts, err := NewPythonRenderer().Render(binding, b)
	require.NoError(t, err)

	assert.Equal(t, map[Kind]int{KindTest: 1, KindFixture: 1, KindHelper: 1, KindConfig: 1}, kinds(artifacts))

	test := find(t, artifacts, "test_apply_payment_contract.py")
	assert.Contains(t, test.Content, "def test_apply_payment_precondition_1():")
	assert.Contains(t, test.Content, "def test_apply_payment_error_limit_exceeded():")
	assert.Contains(t, test.Content, "def test_apply_payment_violation_1():")
	assert.Contains(t, test.Content, "env.old = env.store.capture()")
	assert.Contains(t, test.Content, "assert not (")

	helper := find(t, artifacts, "vow_runtime.py")
	assert.Contains(t, helper.Content, "class VowStore:")
	assert.Contains(t, helper.Content, "def capture(self):")

	config := find(t, artifacts, "requirements.txt")
	assert.Contains(t, config.Content, "pytest")
}

func TestUnsupportedClauseRendersSkip(t *testing.T) {
	b := paymentBehavior()
	b.Preconditions = append(b.Preconditions, &spec.Call{Fn: &spec.Ident{Name: "sqrt"}})
	binding := binder.Build(b, []string{"Ledger"}, compiler.NewGoBackend())

	artifacts, err := NewGoRenderer().Render(binding, b)
	require.NoError(t, err)
	test := find(t, artifacts, "apply_payment_contract_test.go")

	assert.Contains(t, test.Content, `t.Skip("not fully translated: requires sqrt()")`)
}

func TestEntitySeedCoversQueriedEntities(t *testing.T) {
	b := paymentBehavior()
	binding := binder.Build(b, []string{"Ledger"}, compiler.NewGoBackend())
	artifacts, err := NewGoRenderer().Render(binding, b)
	require.NoError(t, err)

	test := find(t, artifacts, "apply_payment_contract_test.go")
	assert.Contains(t, test.Content, `newVowEnv(map[string][]map[string]any{"Ledger": nil})`)
}

func TestExportName(t *testing.T) {
	assert.Equal(t, "ApplyDiscount", exportName("apply_discount"))
	assert.Equal(t, "Transfer", exportName("transfer"))
	assert.Equal(t, "RateLimitCheck", exportName("rate-limit check"))
}
