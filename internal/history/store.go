// Package history keeps finished runs in SQLite so past results can be
// listed and inspected.
package history

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
	"unicode/utf8"

	_ "modernc.org/sqlite"

	"github.com/hochfrequenz/advent-runner/internal/domain"
)

// ErrRunNotFound is returned by GetRun for unknown IDs
var ErrRunNotFound = errors.New("run not found")

// captured output is cut to this many bytes before it is stored
const maxOutputBytes = 64 * 1024

// Store provides SQLite-backed run history
type Store struct {
	db *sql.DB
}

// New opens (and if needed creates) the database at dbPath
func New(dbPath string) (*Store, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return nil, fmt.Errorf("creating history directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	// Every connection to ":memory:" would see its own database.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, err
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// RecordRun stores a run together with its case results. Recording the same
// run again replaces the earlier entry.
func (s *Store) RecordRun(r *domain.RunReport) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var finished any
	if r.FinishedAt != nil {
		finished = r.FinishedAt.UTC()
	}

	_, err = tx.Exec(`
		INSERT INTO runs (id, day, root, status, started_at, finished_at, error)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status = excluded.status,
			finished_at = excluded.finished_at,
			error = excluded.error
	`, r.ID, int(r.Day), r.Root, string(r.Status), r.StartedAt.UTC(), finished, r.Error)
	if err != nil {
		return fmt.Errorf("inserting run: %w", err)
	}

	if _, err := tx.Exec(`DELETE FROM case_results WHERE run_id = ?`, r.ID); err != nil {
		return err
	}

	for i, c := range r.Cases {
		_, err := tx.Exec(`
			INSERT INTO case_results (run_id, position, dir, name, status, duration_ns, stdout, stderr)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`, r.ID, i, c.Dir, c.Name, string(c.Status), int64(c.Duration), truncate(c.Stdout), truncate(c.Stderr))
		if err != nil {
			return fmt.Errorf("inserting case %s: %w", c.Name, err)
		}
	}

	return tx.Commit()
}

// RunSummary is a stored run with its case counts, without the cases
type RunSummary struct {
	Report *domain.RunReport
	Passed int
	Total  int
}

// ListOptions specifies filters for listing runs
type ListOptions struct {
	// Day restricts the listing to one day; nil lists all days.
	Day   *uint8
	Limit int
}

// ListRuns returns matching runs, newest first
func (s *Store) ListRuns(opts ListOptions) ([]RunSummary, error) {
	query := `
		SELECT r.id, r.day, r.root, r.status, r.started_at, r.finished_at, r.error,
			COUNT(c.id), COALESCE(SUM(CASE WHEN c.status = ? THEN 1 ELSE 0 END), 0)
		FROM runs r LEFT JOIN case_results c ON c.run_id = r.id
		WHERE 1=1`
	args := []interface{}{string(domain.CasePassed)}

	if opts.Day != nil {
		query += " AND r.day = ?"
		args = append(args, int(*opts.Day))
	}

	query += " GROUP BY r.id ORDER BY r.started_at DESC"

	if opts.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, opts.Limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []RunSummary
	for rows.Next() {
		var sum RunSummary
		r, err := scanRun(rows, &sum.Total, &sum.Passed)
		if err != nil {
			return nil, err
		}
		sum.Report = r
		runs = append(runs, sum)
	}
	return runs, rows.Err()
}

// GetRun retrieves a run and its case results by ID
func (s *Store) GetRun(id string) (*domain.RunReport, error) {
	row := s.db.QueryRow(`
		SELECT id, day, root, status, started_at, finished_at, error
		FROM runs WHERE id = ?
	`, id)

	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, err
	}

	rows, err := s.db.Query(`
		SELECT dir, name, status, duration_ns, stdout, stderr
		FROM case_results WHERE run_id = ? ORDER BY position
	`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var c domain.CaseResult
		var status string
		var durationNs int64
		var stdout, stderr sql.NullString
		if err := rows.Scan(&c.Dir, &c.Name, &status, &durationNs, &stdout, &stderr); err != nil {
			return nil, err
		}
		c.Status = domain.CaseStatus(status)
		c.Duration = time.Duration(durationNs)
		c.Stdout = stdout.String
		c.Stderr = stderr.String
		r.Cases = append(r.Cases, c)
	}

	return r, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner, extra ...any) (*domain.RunReport, error) {
	var r domain.RunReport
	var day int
	var status string
	var finished sql.NullTime
	var errMsg sql.NullString

	dest := append([]any{&r.ID, &day, &r.Root, &status, &r.StartedAt, &finished, &errMsg}, extra...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}

	r.Day = uint8(day)
	r.Status = domain.RunStatus(status)
	if finished.Valid {
		t := finished.Time
		r.FinishedAt = &t
	}
	r.Error = errMsg.String

	return &r, nil
}

func truncate(s string) string {
	if len(s) <= maxOutputBytes {
		return s
	}
	cut := maxOutputBytes
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
