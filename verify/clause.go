// Package verify executes bound contract clauses against a live
// implementation and reduces the outcomes to a weighted trust score, a
// ship/no-ship recommendation and an evidence report.
package verify

import (
	"fmt"
	"time"
)

// ClauseKind categorizes a clause for scoring.
type ClauseKind string

// Clause kinds. Preconditions score inside the postconditions category;
// they verify the same contract surface and carry no weight of their own.
const (
	KindPrecondition  ClauseKind = "precondition"
	KindPostcondition ClauseKind = "postcondition"
	KindInvariant     ClauseKind = "invariant"
	KindTemporal      ClauseKind = "temporal"
	KindScenario      ClauseKind = "scenario"
)

// ClauseState classifies one clause outcome.
type ClauseState string

// Clause states. PARTIAL means the clause could not be fully compiled or
// evaluated; it is never silently promoted to PASS.
const (
	StatePass    ClauseState = "PASS"
	StatePartial ClauseState = "PARTIAL"
	StateFail    ClauseState = "FAIL"
)

// ClauseResult is the outcome of evaluating one clause.
type ClauseResult struct {
	ID       string        `json:"id"`
	Kind     ClauseKind    `json:"kind"`
	State    ClauseState   `json:"state"`
	Message  string        `json:"message,omitempty"`
	Duration time.Duration `json:"duration_ns"`
}

// HarnessIntegrityError reports that a violation meta-check did not fail
// for its synthesized violating result. The verification run's output
// cannot be trusted, so scoring short-circuits instead of folding this
// into an ordinary FAIL.
type HarnessIntegrityError struct {
	Clause string
}

func (e *HarnessIntegrityError) Error() string {
	return fmt.Sprintf("harness compromised: assertion %q held for its violating result", e.Clause)
}
