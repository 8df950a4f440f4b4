package evidence

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vowlang/vow/verify"
)

// createTestStore creates a file-backed store in a temp dir.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "evidence.db")
	s, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestReport builds a minimal stored report. IDs are chosen so that
// lexicographic order matches chronological order, like UUIDv7.
func createTestReport(id, behavior string, startedAt time.Time, results ...verify.ClauseResult) *verify.Report {
	if len(results) == 0 {
		results = []verify.ClauseResult{
			{ID: behavior + "/postcondition/1", Kind: verify.KindPostcondition, State: verify.StatePass, Duration: time.Millisecond},
		}
	}
	return &verify.Report{
		ID:          id,
		Fingerprint: "fp-1",
		Behavior:    behavior,
		Results:     results,
		Summary:     verify.Score(results),
		StartedAt:   startedAt,
		FinishedAt:  startedAt.Add(5 * time.Millisecond),
		DurationMS:  5,
	}
}

func TestOpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "evidence.db")

	s1, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s1.WriteReport(context.Background(), createTestReport("r-1", "deposit", time.Now())))
	require.NoError(t, s1.Close())

	// Reopening an existing database reapplies pragmas and schema.
	s2, err := Open(path)
	require.NoError(t, err)
	defer s2.Close()

	got, err := s2.ReadReport(context.Background(), "r-1")
	require.NoError(t, err)
	assert.Equal(t, "deposit", got.Behavior)
}

func TestWriteAndReadReportRoundTrip(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	started := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	report := createTestReport("r-1", "deposit", started,
		verify.ClauseResult{ID: "deposit/precondition/1", Kind: verify.KindPrecondition, State: verify.StatePass, Duration: time.Millisecond},
		verify.ClauseResult{ID: "deposit/invariant/1", Kind: verify.KindInvariant, State: verify.StateFail, Message: "count dropped", Duration: 2 * time.Millisecond},
	)
	report.Assumptions = []string{"temporal clause not fully translated"}

	require.NoError(t, s.WriteReport(ctx, report))

	got, err := s.ReadReport(ctx, "r-1")
	require.NoError(t, err)
	assert.Equal(t, report.ID, got.ID)
	assert.Equal(t, report.Fingerprint, got.Fingerprint)
	assert.Equal(t, report.Summary, got.Summary)
	assert.Equal(t, report.Assumptions, got.Assumptions)
	require.Len(t, got.Results, 2)
	assert.Equal(t, report.Results[1], got.Results[1])
}

func TestReadMissingReport(t *testing.T) {
	s := createTestStore(t)

	_, err := s.ReadReport(context.Background(), "nope")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestWriteReportIsIdempotent(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	report := createTestReport("r-1", "deposit", time.Now())
	require.NoError(t, s.WriteReport(ctx, report))

	// A second write with the same ID is silently ignored, even when the
	// payload differs.
	altered := createTestReport("r-1", "deposit", time.Now())
	altered.Fingerprint = "fp-2"
	require.NoError(t, s.WriteReport(ctx, altered))

	got, err := s.ReadReport(ctx, "r-1")
	require.NoError(t, err)
	assert.Equal(t, "fp-1", got.Fingerprint)

	entries, err := s.ListReports(ctx, "deposit")
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestListReportsNewestFirst(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, s.WriteReport(ctx, createTestReport("r-1", "deposit", base)))
	require.NoError(t, s.WriteReport(ctx, createTestReport("r-2", "deposit", base.Add(time.Minute))))
	require.NoError(t, s.WriteReport(ctx, createTestReport("r-3", "withdraw", base.Add(2*time.Minute))))

	entries, err := s.ListReports(ctx, "deposit")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "r-2", entries[0].ID)
	assert.Equal(t, "r-1", entries[1].ID)
	assert.Equal(t, verify.RecProductionReady, entries[0].Recommendation)
	assert.True(t, entries[0].StartedAt.Equal(base.Add(time.Minute)))

	all, err := s.ListReports(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)
	assert.Equal(t, "r-3", all[0].ID)
}

func TestListReportsEmpty(t *testing.T) {
	s := createTestStore(t)

	entries, err := s.ListReports(context.Background(), "deposit")
	require.NoError(t, err)
	assert.NotNil(t, entries)
	assert.Empty(t, entries)
}

func TestFailuresAcrossReports(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, s.WriteReport(ctx, createTestReport("r-1", "deposit", base,
		verify.ClauseResult{ID: "deposit/postcondition/1", Kind: verify.KindPostcondition, State: verify.StateFail, Message: "old failure"},
	)))
	require.NoError(t, s.WriteReport(ctx, createTestReport("r-2", "deposit", base.Add(time.Minute),
		verify.ClauseResult{ID: "deposit/precondition/1", Kind: verify.KindPrecondition, State: verify.StatePass},
		verify.ClauseResult{ID: "deposit/error/limit_exceeded", Kind: verify.KindPostcondition, State: verify.StateFail, Message: "wrong case"},
	)))
	require.NoError(t, s.WriteReport(ctx, createTestReport("r-3", "withdraw", base.Add(2*time.Minute),
		verify.ClauseResult{ID: "withdraw/invariant/1", Kind: verify.KindInvariant, State: verify.StateFail, Message: "other behavior"},
	)))

	failures, err := s.Failures(ctx, "deposit")
	require.NoError(t, err)
	require.Len(t, failures, 2)
	assert.Equal(t, "deposit/error/limit_exceeded", failures[0].ID)
	assert.Equal(t, "wrong case", failures[0].Message)
	assert.Equal(t, "deposit/postcondition/1", failures[1].ID)
	assert.Equal(t, verify.StateFail, failures[1].State)
}

func TestCloseIsSafeTwice(t *testing.T) {
	path := filepath.Join(t.TempDir(), "evidence.db")
	s, err := Open(path)
	require.NoError(t, err)

	require.NoError(t, s.Close())
	// database/sql tolerates a second Close.
	require.NoError(t, s.Close())
}
