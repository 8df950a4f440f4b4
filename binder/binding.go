// Package binder turns a behavior's contract clauses into Bindings: the
// compiled, implementation-facing form a backend adapter renders into test
// artifacts and the executor evaluates at verification time.
package binder

import (
	"github.com/vowlang/vow/compiler"
	"github.com/vowlang/vow/spec"
)

// Binding is the compiled form of one behavior for one backend. Bindings
// are immutable once built; a changed specification produces a fresh
// Binding, never an in-place update.
type Binding struct {
	// Behavior is the contract's behavior name.
	Behavior string
	// EntryPoint names the implementation function under test.
	EntryPoint string
	// InputType and OutputType describe the invocation signature.
	InputType  string
	OutputType string
	// Backend names the language the compiled fragments target.
	Backend string

	// ValidInput satisfies every solvable precondition. Precondition
	// tests use it as the accepted counterpart of each violating input.
	ValidInput map[string]any

	Preconditions  []PreconditionBinding
	Postconditions []PostconditionBinding
	Errors         []ErrorBinding
	Invariants     []ConstraintBinding
	Temporal       []ConstraintBinding
}

// PreconditionBinding pairs one precondition with its compiled validator
// and a synthesized input that falsifies it.
type PreconditionBinding struct {
	Expr        spec.Expr
	Code        compiler.Result
	Description string
	// Violating is an input the validator must reject. When the builder
	// cannot symbolically invert the condition, NeedsManual is set and
	// the fields hold the best valid input instead of a guess.
	Violating Input
}

// PostconditionBinding pairs one postcondition predicate with its compiled
// assertion and the outcome condition that guards it.
type PostconditionBinding struct {
	Expr        spec.Expr
	Code        compiler.Result
	Condition   spec.Condition
	Description string
	// FailsOnViolation marks predicates eligible for a violation test: the
	// assertion compiled cleanly and synthesis could construct a result
	// that falsifies it, so evaluating the predicate against that result
	// must raise. Predicates without an invertible result comparison are
	// left unmarked rather than tested against a result that may satisfy
	// them.
	FailsOnViolation bool
	// ViolatingResult is the synthesized result falsifying Expr. Set
	// exactly when FailsOnViolation is.
	ViolatingResult map[string]any
}

// ErrorBinding pairs one declared error case with a synthesized triggering
// input. The error-name and retriable assertions are rendered by the
// backend adapter from Name and Retriable; Guard carries the compiled
// trigger condition when the behavior declares one.
type ErrorBinding struct {
	Name        string
	Trigger     string
	Retriable   bool
	Description string
	Guard       compiler.Result
	// Triggering is an input expected to produce this error.
	Triggering Input
}

// ConstraintBinding is a compiled invariant or temporal clause. These are
// unconditional: the executor evaluates them on every outcome.
type ConstraintBinding struct {
	Expr        spec.Expr
	Code        compiler.Result
	Description string
}

// Input is a synthesized invocation input.
type Input struct {
	// Fields holds one value per declared input field.
	Fields map[string]any
	// NeedsManual is set when synthesis could not derive values that
	// provoke the intended outcome. The clause is still emitted so
	// coverage counts stay accurate; a person completes the fixture.
	NeedsManual bool
}
