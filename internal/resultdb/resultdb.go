// Package resultdb persists evaluation runs to SQLite. It is a pure
// sink: evaluation results never depend on what was stored. Each batch
// run gets a uuid and one row per instance with its ICSD counts and
// trust metrics; failed instances record their error instead.
package resultdb

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"math"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/aiot-group/crossai-eval/internal/eval"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Store wraps the results database.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path and applies any
// pending migrations.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("resultdb: open %s: %w", path, err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate() error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("resultdb: migration source: %w", err)
	}
	driver, err := migratesqlite.WithInstance(s.db, &migratesqlite.Config{})
	if err != nil {
		return fmt.Errorf("resultdb: sqlite driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("resultdb: migrate instance: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("resultdb: migrate up: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error { return s.db.Close() }

// SaveRun stores one batch result under a fresh run ID and returns it.
func (s *Store) SaveRun(title string, opts eval.Options, batch *eval.BatchResult) (string, error) {
	runID := uuid.NewString()

	tx, err := s.db.Begin()
	if err != nil {
		return "", fmt.Errorf("resultdb: begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO runs (run_id, title, sample_rate, window_size, overlap,
			repeats, prob_threshold, min_duration, iou_threshold, anchor)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, title, opts.SampleRate, opts.WindowSize, opts.Overlap,
		opts.Repeats, opts.ProbThreshold, opts.MinDuration, opts.IoUThreshold,
		opts.Anchor.String(),
	)
	if err != nil {
		return "", fmt.Errorf("resultdb: insert run: %w", err)
	}

	for _, id := range batch.IDs() {
		res := batch.Results[id]
		_, err = tx.Exec(`
			INSERT INTO instance_results (run_id, instance_id, correct,
				substitutions, deletions, insertions,
				detection_ratio, reliability, event_error_rate)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			runID, id,
			res.Counts.Correct, res.Counts.Substitution,
			res.Counts.Deletion, res.Counts.Insertion,
			nullRatio(res.Metrics.DetectionRatio),
			nullRatio(res.Metrics.Reliability),
			nullRatio(res.Metrics.ErrorRate),
		)
		if err != nil {
			return "", fmt.Errorf("resultdb: insert instance %s: %w", id, err)
		}
	}
	for id, failure := range batch.Failures {
		_, err = tx.Exec(`
			INSERT INTO instance_results (run_id, instance_id, failure)
			VALUES (?, ?, ?)`,
			runID, id, failure.Error(),
		)
		if err != nil {
			return "", fmt.Errorf("resultdb: insert failure %s: %w", id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("resultdb: commit: %w", err)
	}
	return runID, nil
}

// nullRatio maps NotApplicable to SQL NULL so it cannot be confused
// with a genuine zero.
func nullRatio(r eval.Ratio) sql.NullFloat64 {
	if !r.IsApplicable() {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: float64(r), Valid: true}
}

// InstanceRow is one stored per-instance result.
type InstanceRow struct {
	InstanceID     string
	Counts         eval.Counts
	DetectionRatio eval.Ratio
	Reliability    eval.Ratio
	ErrorRate      eval.Ratio
	Failure        string
}

// RunResults returns the stored rows of a run ordered by instance ID.
func (s *Store) RunResults(runID string) ([]InstanceRow, error) {
	rows, err := s.db.Query(`
		SELECT instance_id, correct, substitutions, deletions, insertions,
			detection_ratio, reliability, event_error_rate,
			COALESCE(failure, '')
		FROM instance_results WHERE run_id = ? ORDER BY instance_id`, runID)
	if err != nil {
		return nil, fmt.Errorf("resultdb: query run %s: %w", runID, err)
	}
	defer rows.Close()

	var out []InstanceRow
	for rows.Next() {
		var r InstanceRow
		var dr, rel, erer sql.NullFloat64
		err := rows.Scan(&r.InstanceID,
			&r.Counts.Correct, &r.Counts.Substitution,
			&r.Counts.Deletion, &r.Counts.Insertion,
			&dr, &rel, &erer, &r.Failure)
		if err != nil {
			return nil, fmt.Errorf("resultdb: scan: %w", err)
		}
		r.DetectionRatio = fromNull(dr)
		r.Reliability = fromNull(rel)
		r.ErrorRate = fromNull(erer)
		out = append(out, r)
	}
	return out, rows.Err()
}

func fromNull(v sql.NullFloat64) eval.Ratio {
	if !v.Valid {
		return eval.Ratio(math.NaN())
	}
	return eval.Ratio(v.Float64)
}
