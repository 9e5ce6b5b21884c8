package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nerrad567/emsconvert/internal/network"
)

// Status is the outcome of a run.
type Status string

// Run outcomes.
const (
	StatusSucceeded Status = "succeeded"

	// StatusEmpty marks a non-empty input that produced no entities.
	StatusEmpty Status = "empty"

	StatusFailed Status = "failed"
)

// timeLayout has fixed-width fractional seconds so stored timestamps sort
// lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Page size bounds for List.
const (
	defaultLimit = 50
	maxLimit     = 500
)

// Run is one conversion run.
type Run struct {
	ID      string `json:"id"`
	Source  string `json:"source"`
	Grammar string `json:"grammar"`
	Status  Status `json:"status"`

	// Failure is the error text of a failed run.
	Failure string `json:"failure,omitempty"`

	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`

	RecordsRead         int `json:"records_read"`
	RecordsMalformed    int `json:"records_malformed"`
	RecordsUnclassified int `json:"records_unclassified"`

	Buses        int `json:"total_buses"`
	Transformers int `json:"total_transformers"`
	Generators   int `json:"total_generators"`
	Loads        int `json:"total_loads"`
	Branches     int `json:"total_branches"`

	Errors   int `json:"errors"`
	Warnings int `json:"warnings"`

	// Outputs maps an artifact kind (raw, metadata, report) to its path.
	Outputs map[string]string `json:"outputs"`

	// Issues are stored by Create and loaded by Get only.
	Issues []network.Issue `json:"issues,omitempty"`
}

// Filter controls which runs List returns.
type Filter struct {
	Source string // optional: exact source path
	Status Status // optional
	Limit  int    // default 50, max 500
	Offset int
}

// ListResult is one page of runs, most recent first.
type ListResult struct {
	Runs   []Run `json:"runs"`
	Total  int   `json:"total"`
	Limit  int   `json:"limit"`
	Offset int   `json:"offset"`
}

// Repository defines the interface for run history operations.
type Repository interface {
	Create(ctx context.Context, run *Run) error
	Get(ctx context.Context, id string) (*Run, error)
	List(ctx context.Context, filter Filter) (*ListResult, error)
}

// SQLiteRepository stores runs in the conversion_runs and
// conversion_issues tables.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a repository on a migrated database.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Create inserts a run and its issues in one transaction. ID and
// StartedAt are generated if empty.
func (r *SQLiteRepository) Create(ctx context.Context, run *Run) error {
	if run.Source == "" || run.Status == "" {
		return fmt.Errorf("%w: source and status are required", ErrInvalidRun)
	}
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now().UTC()
	}

	outputs := run.Outputs
	if outputs == nil {
		outputs = map[string]string{}
	}
	outputsJSON, err := json.Marshal(outputs)
	if err != nil {
		return fmt.Errorf("marshalling run outputs: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	_, err = tx.ExecContext(ctx,
		`INSERT INTO conversion_runs (
			id, source, grammar, status, failure, started_at, duration_ms,
			records_read, records_malformed, records_unclassified,
			total_buses, total_transformers, total_generators, total_loads, total_branches,
			errors, warnings, outputs
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Source, run.Grammar, string(run.Status), nullableString(run.Failure),
		run.StartedAt.UTC().Format(timeLayout), run.Duration.Milliseconds(),
		run.RecordsRead, run.RecordsMalformed, run.RecordsUnclassified,
		run.Buses, run.Transformers, run.Generators, run.Loads, run.Branches,
		run.Errors, run.Warnings, string(outputsJSON),
	)
	if err != nil {
		return fmt.Errorf("inserting run: %w", err)
	}

	if len(run.Issues) > 0 {
		stmt, err := tx.PrepareContext(ctx,
			`INSERT INTO conversion_issues (run_id, seq, severity, code, entity_kind, entity_key, line, reason)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("preparing issue insert: %w", err)
		}
		defer stmt.Close()

		for i, issue := range run.Issues {
			if _, err := stmt.ExecContext(ctx, run.ID, i, string(issue.Severity), issue.Code,
				string(issue.Entity.Kind), issue.Entity.Key, issue.Entity.Line, issue.Reason); err != nil {
				return fmt.Errorf("inserting issue %d: %w", i, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing run: %w", err)
	}
	return nil
}

// nullableString returns nil for empty strings, for nullable TEXT columns.
func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

const runColumns = `id, source, grammar, status, failure, started_at, duration_ms,
	records_read, records_malformed, records_unclassified,
	total_buses, total_transformers, total_generators, total_loads, total_branches,
	errors, warnings, outputs`

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*Run, error) {
	var (
		run         Run
		status      string
		failure     sql.NullString
		startedAt   string
		durationMS  int64
		outputsJSON string
	)
	if err := row.Scan(&run.ID, &run.Source, &run.Grammar, &status, &failure, &startedAt, &durationMS,
		&run.RecordsRead, &run.RecordsMalformed, &run.RecordsUnclassified,
		&run.Buses, &run.Transformers, &run.Generators, &run.Loads, &run.Branches,
		&run.Errors, &run.Warnings, &outputsJSON); err != nil {
		return nil, err
	}

	run.Status = Status(status)
	if failure.Valid {
		run.Failure = failure.String
	}
	t, err := time.Parse(timeLayout, startedAt)
	if err != nil {
		return nil, fmt.Errorf("parsing run timestamp %q: %w", startedAt, err)
	}
	run.StartedAt = t
	run.Duration = time.Duration(durationMS) * time.Millisecond

	run.Outputs = map[string]string{}
	if outputsJSON != "" {
		if err := json.Unmarshal([]byte(outputsJSON), &run.Outputs); err != nil {
			return nil, fmt.Errorf("parsing run outputs: %w", err)
		}
	}
	return &run, nil
}

// Get returns a run with its issues.
func (r *SQLiteRepository) Get(ctx context.Context, id string) (*Run, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+runColumns+" FROM conversion_runs WHERE id = ?", id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying run: %w", err)
	}

	issues, err := r.issues(ctx, id)
	if err != nil {
		return nil, err
	}
	run.Issues = issues
	return run, nil
}

func (r *SQLiteRepository) issues(ctx context.Context, runID string) ([]network.Issue, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT severity, code, entity_kind, entity_key, line, reason
		 FROM conversion_issues WHERE run_id = ? ORDER BY seq`, runID)
	if err != nil {
		return nil, fmt.Errorf("querying issues: %w", err)
	}
	defer rows.Close()

	issues := []network.Issue{}
	for rows.Next() {
		var issue network.Issue
		var severity, kind string
		if err := rows.Scan(&severity, &issue.Code, &kind, &issue.Entity.Key, &issue.Entity.Line, &issue.Reason); err != nil {
			return nil, fmt.Errorf("scanning issue: %w", err)
		}
		issue.Severity = network.Severity(severity)
		issue.Entity.Kind = network.Kind(kind)
		issues = append(issues, issue)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating issues: %w", err)
	}
	return issues, nil
}

// List returns runs matching the filter, most recent first. Issues are
// not loaded.
func (r *SQLiteRepository) List(ctx context.Context, filter Filter) (*ListResult, error) {
	if filter.Limit <= 0 {
		filter.Limit = defaultLimit
	}
	if filter.Limit > maxLimit {
		filter.Limit = maxLimit
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	var conditions []string
	var args []any
	if filter.Source != "" {
		conditions = append(conditions, "source = ?")
		args = append(args, filter.Source)
	}
	if filter.Status != "" {
		conditions = append(conditions, "status = ?")
		args = append(args, string(filter.Status))
	}
	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM conversion_runs "+where, args...).Scan(&total); err != nil { //nolint:gosec // WHERE built from parameterised conditions
		return nil, fmt.Errorf("counting runs: %w", err)
	}

	query := "SELECT " + runColumns + " FROM conversion_runs " + where + " ORDER BY started_at DESC, id LIMIT ? OFFSET ?" //nolint:gosec // WHERE built from parameterised conditions
	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		runs = append(runs, *run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating runs: %w", err)
	}

	return &ListResult{
		Runs:   runs,
		Total:  total,
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}, nil
}
