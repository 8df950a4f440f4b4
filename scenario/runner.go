package scenario

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/vowlang/vow/runtime"
	"github.com/vowlang/vow/spec"
	"github.com/vowlang/vow/verify"
)

// Runner executes scenarios against an implementation and reports each
// one as a scenario-kind clause result, ready to fold into a
// verification run's score.
type Runner struct {
	invoker verify.Invoker
	logger  *slog.Logger
	now     func() time.Time
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithLogger sets the runner's logger. The default discards everything.
func WithLogger(logger *slog.Logger) RunnerOption {
	return func(r *Runner) { r.logger = logger }
}

// WithClock sets the time source used for durations.
func WithClock(now func() time.Time) RunnerOption {
	return func(r *Runner) { r.now = now }
}

// NewRunner creates a runner around an implementation invoker.
func NewRunner(invoker verify.Invoker, opts ...RunnerOption) *Runner {
	r := &Runner{
		invoker: invoker,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes one scenario. Each scenario gets a fresh entity store
// seeded from its setup block, so scenarios never observe each other's
// state. The returned result never carries an error; flow failures are
// reported as FAIL with a message naming the step that diverged.
func (r *Runner) Run(ctx context.Context, s *Scenario) verify.ClauseResult {
	started := r.now()
	res := verify.ClauseResult{
		ID:    fmt.Sprintf("%s/scenario/%s", s.Behavior, s.Name),
		Kind:  verify.KindScenario,
		State: verify.StatePass,
	}

	store := runtime.NewContext(nil)
	for _, setup := range s.Setup {
		for _, rec := range setup.Records {
			store.Insert(setup.Entity, rec)
		}
	}

	for i, step := range s.Steps {
		if err := r.runStep(ctx, s.Behavior, step, store); err != nil {
			res.State = verify.StateFail
			res.Message = fmt.Sprintf("step %d: %v", i+1, err)
			break
		}
	}

	if res.State == verify.StatePass {
		for i, sa := range s.FinalState {
			if err := checkState(store, sa); err != nil {
				res.State = verify.StateFail
				res.Message = fmt.Sprintf("final_state %d: %v", i+1, err)
				break
			}
		}
	}

	res.Duration = r.now().Sub(started)
	r.logger.Info("scenario finished",
		"scenario", s.Name,
		"behavior", s.Behavior,
		"state", res.State,
	)
	return res
}

// RunAll executes scenarios in order and collects their results.
func (r *Runner) RunAll(ctx context.Context, scenarios []*Scenario) []verify.ClauseResult {
	results := make([]verify.ClauseResult, 0, len(scenarios))
	for _, s := range scenarios {
		results = append(results, r.Run(ctx, s))
	}
	return results
}

func (r *Runner) runStep(ctx context.Context, behavior string, step Step, store *runtime.Context) error {
	outcome, err := r.invoker.Invoke(ctx, behavior, step.Input, store)
	if err != nil {
		return fmt.Errorf("implementation raised: %w", err)
	}

	if step.Expect == nil {
		if outcome.Case != "success" {
			return fmt.Errorf("expected success, got %q", outcome.Case)
		}
		return nil
	}
	if outcome.Case != step.Expect.Case {
		return fmt.Errorf("expected case %q, got %q", step.Expect.Case, outcome.Case)
	}
	for field, want := range step.Expect.Result {
		got := fieldOf(outcome.Result, field)
		if !spec.Equal(got, want) {
			return fmt.Errorf("result.%s: expected %v, got %v", field, want, got)
		}
	}
	return nil
}

func checkState(store *runtime.Context, sa StateAssertion) error {
	proxy := store.Entity(sa.Entity)
	matched := proxy.Count(sa.Where)
	if sa.Count != nil && matched != *sa.Count {
		return fmt.Errorf("%s: expected %d matching records, got %d", sa.Entity, *sa.Count, matched)
	}
	if len(sa.Expect) == 0 {
		return nil
	}
	rec := proxy.Lookup(sa.Where)
	if rec == nil {
		return fmt.Errorf("%s: no record matches %v", sa.Entity, sa.Where)
	}
	for field, want := range sa.Expect {
		if !spec.Equal(rec[field], want) {
			return fmt.Errorf("%s.%s: expected %v, got %v", sa.Entity, field, want, rec[field])
		}
	}
	return nil
}

func fieldOf(result any, field string) any {
	if m, ok := result.(map[string]any); ok {
		return m[field]
	}
	return nil
}
