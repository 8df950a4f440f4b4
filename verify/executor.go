package verify

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/vowlang/vow/binder"
	"github.com/vowlang/vow/eval"
	"github.com/vowlang/vow/runtime"
	"github.com/vowlang/vow/spec"
)

// Outcome is what one implementation invocation produced.
type Outcome struct {
	// Case is "success" or the name of the declared error that occurred.
	Case string
	// Result is the returned value on success.
	Result any
	// Retriable reports the error's retriable flag when Case is an error.
	Retriable bool
	// Message carries diagnostic detail for error outcomes.
	Message string
}

// Invoker calls the implementation under test. Invocations may perform
// I/O; the executor awaits each call to completion before evaluating
// postconditions, since those may reference the returned result.
type Invoker interface {
	Invoke(ctx context.Context, behavior string, input map[string]any, store *runtime.Context) (Outcome, error)
}

// InvokerFunc adapts a function to the Invoker interface.
type InvokerFunc func(ctx context.Context, behavior string, input map[string]any, store *runtime.Context) (Outcome, error)

// Invoke implements Invoker.
func (f InvokerFunc) Invoke(ctx context.Context, behavior string, input map[string]any, store *runtime.Context) (Outcome, error) {
	return f(ctx, behavior, input, store)
}

// Executor runs a behavior's bound clauses against an implementation.
type Executor struct {
	invoker Invoker
	logger  *slog.Logger
	now     func() time.Time
	newID   func() string
}

// Option configures an Executor.
type Option func(*Executor)

// WithLogger sets the executor's logger. The default discards everything.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Executor) { e.logger = logger }
}

// WithClock sets the time source used for clause durations and report
// timing. Tests inject a deterministic clock here.
func WithClock(now func() time.Time) Option {
	return func(e *Executor) { e.now = now }
}

// WithIDGenerator sets the report ID source.
func WithIDGenerator(gen func() string) Option {
	return func(e *Executor) { e.newID = gen }
}

// NewExecutor creates an executor around an implementation invoker.
func NewExecutor(invoker Invoker, opts ...Option) *Executor {
	e := &Executor{
		invoker: invoker,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:     time.Now,
		newID:   newReportID,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute runs every clause of one behavior and returns the evidence
// report. Scenario results evaluated elsewhere are folded into scoring via
// the scenarios argument.
//
// Violation meta-checks run first: if any fails-on-violation predicate
// holds for its synthesized violating result, the harness itself cannot be
// trusted and Execute returns a HarnessIntegrityError instead of a report.
func (e *Executor) Execute(ctx context.Context, behavior spec.Behavior, binding binder.Binding, initial map[string][]runtime.Record, scenarios ...ClauseResult) (*Report, error) {
	started := e.now()

	if err := e.checkHarnessIntegrity(binding, initial); err != nil {
		return nil, err
	}

	var results []ClauseResult
	results = append(results, e.preconditionClauses(binding, initial)...)
	results = append(results, e.successCase(ctx, binding, initial)...)
	results = append(results, e.errorCases(ctx, binding, initial)...)
	results = append(results, scenarios...)

	finished := e.now()
	report := &Report{
		ID:          e.newID(),
		Fingerprint: spec.Fingerprint([]spec.Behavior{behavior}),
		Behavior:    behavior.Name,
		Results:     results,
		Summary:     Score(results),
		Assumptions: assumptions(binding),
		StartedAt:   started,
		FinishedAt:  finished,
		DurationMS:  finished.Sub(started).Milliseconds(),
	}
	e.logger.Info("verification complete",
		"behavior", behavior.Name,
		"score", report.Summary.Score,
		"recommendation", report.Summary.Recommendation)
	return report, nil
}

// checkHarnessIntegrity evaluates every fails-on-violation predicate
// against its synthesized violating result. Each must come out false; one
// that holds means the harness would also miss a real violation.
func (e *Executor) checkHarnessIntegrity(binding binder.Binding, initial map[string][]runtime.Record) error {
	for _, post := range binding.Postconditions {
		if !post.FailsOnViolation {
			continue
		}
		store := runtime.NewContext(initial)
		env := &eval.Env{
			Input:  binding.ValidInput,
			Result: post.ViolatingResult,
			Store:  store,
			Old:    store.CaptureState(),
		}
		held, err := eval.Bool(post.Expr, env)
		if err != nil {
			// The meta-check could not run; the ordinary evaluation path
			// will surface the same problem as PARTIAL or FAIL.
			continue
		}
		if held {
			return &HarnessIntegrityError{Clause: post.Description}
		}
	}
	return nil
}

// preconditionClauses verifies each precondition accepts the valid input
// and rejects its synthesized violating input. Each clause gets a fresh
// store so entity-state preconditions see pristine data.
func (e *Executor) preconditionClauses(binding binder.Binding, initial map[string][]runtime.Record) []ClauseResult {
	results := make([]ClauseResult, 0, len(binding.Preconditions))
	for i, pre := range binding.Preconditions {
		id := fmt.Sprintf("%s/precondition/%d", binding.Behavior, i+1)
		start := e.now()

		state, msg := e.preconditionState(pre, binding.ValidInput, initial)
		results = append(results, ClauseResult{
			ID:       id,
			Kind:     KindPrecondition,
			State:    state,
			Message:  msg,
			Duration: e.now().Sub(start),
		})
	}
	return results
}

func (e *Executor) preconditionState(pre binder.PreconditionBinding, validInput map[string]any, initial map[string][]runtime.Record) (ClauseState, string) {
	env := &eval.Env{Input: validInput, Store: runtime.NewContext(initial)}
	holds, err := eval.Bool(pre.Expr, env)
	if err != nil {
		return classifyError(err, pre.Description)
	}
	if !holds {
		return StateFail, fmt.Sprintf("%s: valid input rejected (input: %s)", pre.Description, spec.RenderValue(validInput))
	}

	if pre.Violating.NeedsManual {
		return StatePartial, pre.Description + ": violating input requires manual completion"
	}
	env = &eval.Env{Input: pre.Violating.Fields, Store: runtime.NewContext(initial)}
	holds, err = eval.Bool(pre.Expr, env)
	if err != nil {
		return classifyError(err, pre.Description)
	}
	if holds {
		return StateFail, fmt.Sprintf("%s: violating input accepted (input: %s)", pre.Description, spec.RenderValue(pre.Violating.Fields))
	}
	return StatePass, ""
}

// successCase invokes the behavior with the valid input and evaluates
// postconditions, invariants and temporal clauses against the outcome.
// The sequence capture-state, invoke, evaluate is strictly ordered; the
// snapshot must reflect the store immediately before invocation.
func (e *Executor) successCase(ctx context.Context, binding binder.Binding, initial map[string][]runtime.Record) []ClauseResult {
	store := runtime.NewContext(initial)
	old := store.CaptureState()

	outcome, invokeErr := e.invoker.Invoke(ctx, binding.Behavior, binding.ValidInput, store)
	if invokeErr != nil {
		e.logger.Warn("implementation raised unexpectedly", "behavior", binding.Behavior, "error", invokeErr)
	}

	env := &eval.Env{
		Input:  binding.ValidInput,
		Result: outcome.Result,
		Store:  store,
		Old:    old,
	}

	var results []ClauseResult
	for i, post := range binding.Postconditions {
		id := fmt.Sprintf("%s/postcondition/%d", binding.Behavior, i+1)
		start := e.now()

		var state ClauseState
		var msg string
		switch {
		case invokeErr != nil:
			state = StateFail
			msg = fmt.Sprintf("%s: implementation raised: %v", post.Description, invokeErr)
		case !post.Condition.Matches(outcome.Case):
			// Condition tag does not apply to this outcome; nothing to
			// assert here and nothing to score.
			continue
		default:
			state, msg = e.evaluateClause(post.Expr, post.Description, env)
		}
		results = append(results, ClauseResult{
			ID: id, Kind: KindPostcondition, State: state, Message: msg,
			Duration: e.now().Sub(start),
		})
	}

	for i, inv := range binding.Invariants {
		results = append(results, e.constraintClause(
			fmt.Sprintf("%s/invariant/%d", binding.Behavior, i+1),
			KindInvariant, inv, invokeErr, env))
	}
	for i, tmp := range binding.Temporal {
		results = append(results, e.constraintClause(
			fmt.Sprintf("%s/temporal/%d", binding.Behavior, i+1),
			KindTemporal, tmp, invokeErr, env))
	}
	return results
}

func (e *Executor) constraintClause(id string, kind ClauseKind, c binder.ConstraintBinding, invokeErr error, env *eval.Env) ClauseResult {
	start := e.now()
	var state ClauseState
	var msg string
	if invokeErr != nil {
		state = StateFail
		msg = fmt.Sprintf("%s: implementation raised: %v", c.Description, invokeErr)
	} else {
		state, msg = e.evaluateClause(c.Expr, c.Description, env)
	}
	return ClauseResult{ID: id, Kind: kind, State: state, Message: msg, Duration: e.now().Sub(start)}
}

// errorCases invokes the behavior once per declared error with its
// triggering input, checks the returned error name and retriable flag, and
// evaluates every postcondition whose condition tag matches the outcome.
// Each case owns an isolated store; the state snapshot is taken before the
// triggering invocation so old() sees the pre-error store.
func (e *Executor) errorCases(ctx context.Context, binding binder.Binding, initial map[string][]runtime.Record) []ClauseResult {
	var results []ClauseResult
	for _, eb := range binding.Errors {
		id := fmt.Sprintf("%s/error/%s", binding.Behavior, eb.Name)
		start := e.now()

		if eb.Triggering.NeedsManual {
			results = append(results, ClauseResult{
				ID: id, Kind: KindPostcondition, State: StatePartial,
				Message:  eb.Description + ": triggering input requires manual completion",
				Duration: e.now().Sub(start),
			})
			continue
		}

		store := runtime.NewContext(initial)
		old := store.CaptureState()
		outcome, err := e.invoker.Invoke(ctx, binding.Behavior, eb.Triggering.Fields, store)

		var state ClauseState
		var msg string
		switch {
		case err != nil:
			state = StateFail
			msg = fmt.Sprintf("%s: implementation raised: %v", eb.Description, err)
		case outcome.Case != eb.Name:
			state = StateFail
			msg = fmt.Sprintf("%s: expected error %q, got %q", eb.Description, eb.Name, outcome.Case)
		case outcome.Retriable != eb.Retriable:
			state = StateFail
			msg = fmt.Sprintf("%s: retriable = %t, want %t", eb.Description, outcome.Retriable, eb.Retriable)
		default:
			state = StatePass
		}
		results = append(results, ClauseResult{
			ID: id, Kind: KindPostcondition, State: state, Message: msg,
			Duration: e.now().Sub(start),
		})
		if err != nil || outcome.Case != eb.Name {
			continue
		}

		env := &eval.Env{
			Input:  eb.Triggering.Fields,
			Result: outcome.Result,
			Store:  store,
			Old:    old,
		}
		for i, post := range binding.Postconditions {
			if !post.Condition.Matches(outcome.Case) {
				continue
			}
			postStart := e.now()
			postState, postMsg := e.evaluateClause(post.Expr, post.Description, env)
			results = append(results, ClauseResult{
				ID:       fmt.Sprintf("%s/error/%s/postcondition/%d", binding.Behavior, eb.Name, i+1),
				Kind:     KindPostcondition,
				State:    postState,
				Message:  postMsg,
				Duration: e.now().Sub(postStart),
			})
		}
	}
	return results
}

// evaluateClause classifies one assertion: held, degraded, or failed with
// the environment serialized into the message.
func (e *Executor) evaluateClause(expr spec.Expr, description string, env *eval.Env) (ClauseState, string) {
	holds, err := eval.Bool(expr, env)
	if err != nil {
		return classifyError(err, description)
	}
	if !holds {
		return StateFail, fmt.Sprintf("%s: assertion did not hold (input: %s, result: %s)",
			description, spec.RenderValue(env.Input), spec.RenderValue(env.Result))
	}
	return StatePass, ""
}

func classifyError(err error, description string) (ClauseState, string) {
	if errors.Is(err, eval.ErrUnsupported) {
		return StatePartial, description + ": " + err.Error()
	}
	return StateFail, description + ": " + err.Error()
}

// assumptions collects everything a reader of the report should know was
// taken on faith: degraded compilations and manually completed inputs.
func assumptions(binding binder.Binding) []string {
	var out []string
	for _, pre := range binding.Preconditions {
		out = append(out, pre.Code.Warnings...)
		if pre.Violating.NeedsManual {
			out = append(out, pre.Description+": violating input not synthesized")
		}
	}
	for _, post := range binding.Postconditions {
		out = append(out, post.Code.Warnings...)
	}
	for _, eb := range binding.Errors {
		out = append(out, eb.Guard.Warnings...)
		if eb.Triggering.NeedsManual {
			out = append(out, eb.Description+": triggering input not synthesized")
		}
	}
	for _, c := range binding.Invariants {
		out = append(out, c.Code.Warnings...)
	}
	for _, c := range binding.Temporal {
		out = append(out, c.Code.Warnings...)
	}
	return out
}
