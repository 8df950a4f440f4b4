// Package evidence persists verification reports. Reports are append-only
// evidence: a run's report is written once and never updated, so downstream
// consumers (CI gates, dashboards) can cache by report ID.
package evidence

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/vowlang/vow/verify"
)

//go:embed schema.sql
var schemaSQL string

// ErrNotFound is returned when a requested report does not exist.
var ErrNotFound = errors.New("report not found")

const currentSchemaVersion = 1

// Store provides durable storage for verification reports.
// Uses SQLite with WAL mode for concurrent read access.
type Store struct {
	db *sql.DB
}

// Open creates or opens a SQLite database at the given path. Use
// ":memory:" for an ephemeral store. Applies required pragmas and the
// schema automatically; safe to call on an existing database.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite only supports one writer at a time; a single connection
	// avoids SQLITE_BUSY errors.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}

	if err := applySchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// WriteReport inserts a report and its clause rows. Uses ON CONFLICT(id)
// DO NOTHING: writing the same report twice is a silent no-op, so retried
// pipelines never duplicate evidence.
func (s *Store) WriteReport(ctx context.Context, r *verify.Report) error {
	document, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("write report: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("write report: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	res, err := tx.ExecContext(ctx, `
		INSERT INTO reports
		(id, fingerprint, behavior, score, recommendation, started_at, finished_at, duration_ms, document)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		r.ID,
		r.Fingerprint,
		r.Behavior,
		r.Summary.Score,
		string(r.Summary.Recommendation),
		r.StartedAt.UTC().Format(time.RFC3339Nano),
		r.FinishedAt.UTC().Format(time.RFC3339Nano),
		r.DurationMS,
		string(document),
	)
	if err != nil {
		return fmt.Errorf("write report: %w", err)
	}

	inserted, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	if inserted == 0 {
		// Duplicate ID: the report is already stored.
		return nil
	}

	for i, cr := range r.Results {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO clauses
			(report_id, seq, clause_id, kind, state, message, duration_ns)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`,
			r.ID, i, cr.ID, string(cr.Kind), string(cr.State), cr.Message, int64(cr.Duration),
		)
		if err != nil {
			return fmt.Errorf("write report clause %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("write report: commit: %w", err)
	}
	return nil
}

// ReadReport loads a stored report by ID. Returns ErrNotFound when no
// report with that ID exists.
func (s *Store) ReadReport(ctx context.Context, id string) (*verify.Report, error) {
	var document string
	err := s.db.QueryRowContext(ctx, `
		SELECT document FROM reports WHERE id = ?
	`, id).Scan(&document)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("read report %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("read report %s: %w", id, err)
	}

	var r verify.Report
	if err := json.Unmarshal([]byte(document), &r); err != nil {
		return nil, fmt.Errorf("read report %s: %w", id, err)
	}
	return &r, nil
}

// Entry is one row of a report listing.
type Entry struct {
	ID             string
	Fingerprint    string
	Behavior       string
	Score          float64
	Recommendation verify.Recommendation
	StartedAt      time.Time
}

// ListReports returns report entries for a behavior, newest first.
// An empty behavior lists every report.
func (s *Store) ListReports(ctx context.Context, behavior string) ([]Entry, error) {
	// UUIDv7 IDs sort chronologically, which breaks ties within one
	// timestamp deterministically.
	query := `
		SELECT id, fingerprint, behavior, score, recommendation, started_at
		FROM reports
		ORDER BY started_at DESC, id COLLATE BINARY DESC
	`
	args := []any{}
	if behavior != "" {
		query = `
			SELECT id, fingerprint, behavior, score, recommendation, started_at
			FROM reports
			WHERE behavior = ?
			ORDER BY started_at DESC, id COLLATE BINARY DESC
		`
		args = append(args, behavior)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var rec, started string
		if err := rows.Scan(&e.ID, &e.Fingerprint, &e.Behavior, &e.Score, &rec, &started); err != nil {
			return nil, fmt.Errorf("scan report entry: %w", err)
		}
		e.Recommendation = verify.Recommendation(rec)
		e.StartedAt, err = time.Parse(time.RFC3339Nano, started)
		if err != nil {
			return nil, fmt.Errorf("scan report entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}

	if entries == nil {
		entries = []Entry{}
	}
	return entries, nil
}

// Failures returns every failing clause recorded for a behavior, newest
// report first, clause order preserved within a report.
func (s *Store) Failures(ctx context.Context, behavior string) ([]verify.ClauseResult, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT c.clause_id, c.kind, c.state, c.message, c.duration_ns
		FROM clauses c
		JOIN reports r ON r.id = c.report_id
		WHERE r.behavior = ? AND c.state = ?
		ORDER BY r.started_at DESC, r.id COLLATE BINARY DESC, c.seq ASC
	`, behavior, string(verify.StateFail))
	if err != nil {
		return nil, fmt.Errorf("query failures: %w", err)
	}
	defer rows.Close()

	var results []verify.ClauseResult
	for rows.Next() {
		var cr verify.ClauseResult
		var kind, state string
		var durationNS int64
		if err := rows.Scan(&cr.ID, &kind, &state, &cr.Message, &durationNS); err != nil {
			return nil, fmt.Errorf("scan failure: %w", err)
		}
		cr.Kind = verify.ClauseKind(kind)
		cr.State = verify.ClauseState(state)
		cr.Duration = time.Duration(durationNS)
		results = append(results, cr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query failures: %w", err)
	}
	return results, nil
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}
	return nil
}

func applySchema(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}
	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}
	return nil
}
