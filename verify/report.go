package verify

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Report is the evidence record for one verification run: the contract
// between this core and downstream dashboards, CI gates and feature gates.
type Report struct {
	// ID is a stable, unique report identifier (UUIDv7: time-ordered, so
	// reports sort chronologically by ID).
	ID string `json:"id"`
	// Fingerprint identifies the exact specification that was verified.
	// Two runs with the same fingerprint verified the same contract.
	Fingerprint string `json:"fingerprint"`
	Behavior    string `json:"behavior"`
	// Results is ordered: preconditions, then the success case's clauses,
	// then error cases, then scenarios.
	Results []ClauseResult `json:"results"`
	Summary ScoreSummary   `json:"summary"`
	// Assumptions lists everything taken on faith during the run:
	// degraded compilations and manually completed inputs.
	Assumptions []string  `json:"assumptions,omitempty"`
	StartedAt   time.Time `json:"started_at"`
	FinishedAt  time.Time `json:"finished_at"`
	DurationMS  int64     `json:"duration_ms"`
}

// MarshalIndent renders the report as stable, indented JSON.
func (r *Report) MarshalIndent() ([]byte, error) {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling report %s: %w", r.ID, err)
	}
	return data, nil
}

func newReportID() string {
	id, err := uuid.NewV7()
	if err != nil {
		// NewV7 only fails if the entropy source does; fall back to v4
		// rather than abort a finished verification run.
		return uuid.NewString()
	}
	return id.String()
}
