// Package store keeps a local history of watch runs and the records each
// successful run returned.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/terrascout/terrascout/pkg/explorer"
)

// Static errors for err113 compliance.
var (
	ErrPathRequired = errors.New("store path cannot be empty")
	ErrRunNotFound  = errors.New("run not found")
)

const (
	driverName         = "sqlite"
	defaultBusyTimeout = 5 * time.Second
	defaultListLimit   = 20
)

func init() {
	sqlx.BindDriver(driverName, sqlx.QUESTION)
}

// Run is one recorded watch run.
type Run struct {
	ID           int64  `db:"id"           json:"id"           yaml:"id"`
	Organization string `db:"organization" json:"organization" yaml:"organization"`
	Kind         string `db:"kind"         json:"kind"         yaml:"kind"`
	StartedAt    int64  `db:"started_at"   json:"started_at"   yaml:"started_at"`
	DurationMS   int64  `db:"duration_ms"  json:"duration_ms"  yaml:"duration_ms"`
	Records      int    `db:"records"      json:"records"      yaml:"records"`
	Error        string `db:"error"        json:"error"        yaml:"error"`
}

// Started returns StartedAt as a time.
func (r Run) Started() time.Time {
	return time.Unix(0, r.StartedAt).UTC()
}

// Succeeded reports whether the run returned records.
func (r Run) Succeeded() bool {
	return r.Error == ""
}

// Store is a SQLite backed run history. It is safe for concurrent use.
type Store struct {
	db *sqlx.DB
}

// Open opens or creates the database at path.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, ErrPathRequired
	}

	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(%d)&_pragma=foreign_keys(1)",
		path, defaultBusyTimeout.Milliseconds())

	db, err := sqlx.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports a single writer
	db.SetMaxOpenConns(1)

	s := &Store{db: db}

	err = s.initSchema()
	if err != nil {
		_ = db.Close()

		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return s, nil
}

func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		organization TEXT NOT NULL,
		kind TEXT NOT NULL,
		started_at INTEGER NOT NULL,
		duration_ms INTEGER NOT NULL,
		records INTEGER NOT NULL,
		error TEXT NOT NULL DEFAULT ''
	);

	CREATE INDEX IF NOT EXISTS idx_runs_scope ON runs(organization, kind, id);

	CREATE TABLE IF NOT EXISTS snapshots (
		run_id INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		record TEXT NOT NULL,
		PRIMARY KEY (run_id, position)
	);
	`

	_, err := s.db.Exec(schema)

	return err
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// RecordRun stores run and, for successful runs, its records. It returns the
// new run id.
func (s *Store) RecordRun(ctx context.Context, run Run, records []explorer.Record) (int64, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if run.Succeeded() {
		run.Records = len(records)
	}

	res, err := tx.NamedExecContext(ctx, `
		INSERT INTO runs (organization, kind, started_at, duration_ms, records, error)
		VALUES (:organization, :kind, :started_at, :duration_ms, :records, :error)`, run)
	if err != nil {
		return 0, fmt.Errorf("failed to insert run: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read run id: %w", err)
	}

	if run.Succeeded() {
		for i, r := range records {
			_, err = tx.ExecContext(ctx,
				`INSERT INTO snapshots (run_id, position, record) VALUES (?, ?, ?)`, id, i, string(r))
			if err != nil {
				return 0, fmt.Errorf("failed to insert record %d: %w", i, err)
			}
		}
	}

	err = tx.Commit()
	if err != nil {
		return 0, fmt.Errorf("failed to commit run: %w", err)
	}

	return id, nil
}

// ListRuns returns the most recent runs for organization and kind, newest
// first. A non-positive limit uses the default of 20.
func (s *Store) ListRuns(ctx context.Context, organization, kind string, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}

	runs := []Run{}

	err := s.db.SelectContext(ctx, &runs, `
		SELECT id, organization, kind, started_at, duration_ms, records, error
		FROM runs
		WHERE organization = ? AND kind = ?
		ORDER BY id DESC
		LIMIT ?`, organization, kind, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}

	return runs, nil
}

// LastSuccessful returns the newest successful run for organization and kind.
func (s *Store) LastSuccessful(ctx context.Context, organization, kind string) (*Run, error) {
	var run Run

	err := s.db.GetContext(ctx, &run, `
		SELECT id, organization, kind, started_at, duration_ms, records, error
		FROM runs
		WHERE organization = ? AND kind = ? AND error = ''
		ORDER BY id DESC
		LIMIT 1`, organization, kind)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRunNotFound
		}

		return nil, fmt.Errorf("failed to load last run: %w", err)
	}

	return &run, nil
}

// Snapshot returns the records stored for runID in fetch order.
func (s *Store) Snapshot(ctx context.Context, runID int64) ([]explorer.Record, error) {
	var rows []string

	err := s.db.SelectContext(ctx, &rows,
		`SELECT record FROM snapshots WHERE run_id = ? ORDER BY position`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot %d: %w", runID, err)
	}

	records := make([]explorer.Record, 0, len(rows))
	for _, r := range rows {
		records = append(records, explorer.Record(r))
	}

	return records, nil
}

// Prune deletes all but the newest keep runs for organization and kind.
func (s *Store) Prune(ctx context.Context, organization, kind string, keep int) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM runs
		WHERE organization = ? AND kind = ? AND id NOT IN (
			SELECT id FROM runs WHERE organization = ? AND kind = ? ORDER BY id DESC LIMIT ?
		)`, organization, kind, organization, kind, keep)
	if err != nil {
		return 0, fmt.Errorf("failed to prune runs: %w", err)
	}

	return res.RowsAffected()
}

// Change lists record ids that appeared or disappeared between two snapshots.
type Change struct {
	Added   []string `json:"added"   yaml:"added"`
	Removed []string `json:"removed" yaml:"removed"`
}

// Empty reports whether nothing changed.
func (c Change) Empty() bool {
	return len(c.Added) == 0 && len(c.Removed) == 0
}

// Diff compares records by JSON:API id. Records without an id are ignored.
func Diff(previous, current []explorer.Record) Change {
	before := recordIDs(previous)
	after := recordIDs(current)

	change := Change{Added: []string{}, Removed: []string{}}

	for id := range after {
		if _, ok := before[id]; !ok {
			change.Added = append(change.Added, id)
		}
	}

	for id := range before {
		if _, ok := after[id]; !ok {
			change.Removed = append(change.Removed, id)
		}
	}

	sort.Strings(change.Added)
	sort.Strings(change.Removed)

	return change
}

func recordIDs(records []explorer.Record) map[string]struct{} {
	ids := make(map[string]struct{}, len(records))

	for _, r := range records {
		res, err := explorer.DecodeResource(r)
		if err != nil || res.ID == "" {
			continue
		}

		ids[res.ID] = struct{}{}
	}

	return ids
}
