package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/valter-silva-au/study-brain/pkg/models"

	_ "modernc.org/sqlite"
)

// openDB is a package-level var to allow test injection.
var openDB = sql.Open

// RemoteStore is the sync target for performance stores: a SQLite database
// that several study-brain workspaces can share. It satisfies
// core.StoreRepository.
type RemoteStore struct {
	db *sql.DB
}

// NewRemoteStore opens (creating if needed) the SQLite database at path and
// migrates its schema.
func NewRemoteStore(path string) (*RemoteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("remote store: create data dir: %w", err)
	}

	db, err := openDB("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("remote store: open database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA foreign_keys = ON",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("remote store: pragma %q: %w", p, err)
		}
	}

	s := &RemoteStore{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("remote store: migration: %w", err)
	}
	return s, nil
}

// Close releases the database handle.
func (s *RemoteStore) Close() error {
	return s.db.Close()
}

func (s *RemoteStore) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS plans (
			plan_id        TEXT PRIMARY KEY,
			last_updated   INTEGER NOT NULL DEFAULT 0,
			replan_pending INTEGER NOT NULL DEFAULT 0,
			synced_at      TEXT    NOT NULL DEFAULT (datetime('now'))
		);

		CREATE TABLE IF NOT EXISTS task_records (
			plan_id     TEXT    NOT NULL,
			task_id     TEXT    NOT NULL,
			subject     TEXT    NOT NULL,
			activity    TEXT    NOT NULL,
			week_number INTEGER NOT NULL,
			day_of_week TEXT    NOT NULL,
			status      TEXT    NOT NULL,
			timestamp   INTEGER NOT NULL,
			PRIMARY KEY (plan_id, task_id),
			FOREIGN KEY (plan_id) REFERENCES plans(plan_id) ON DELETE CASCADE
		);

		CREATE INDEX IF NOT EXISTS idx_records_week   ON task_records(plan_id, week_number);
		CREATE INDEX IF NOT EXISTS idx_records_status ON task_records(plan_id, status);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Load returns the synced store of planID, or an empty store when the plan
// was never synced.
func (s *RemoteStore) Load(ctx context.Context, planID string) (models.PerformanceStore, error) {
	store := models.NewPerformanceStore()

	err := s.db.QueryRowContext(ctx,
		`SELECT last_updated, replan_pending FROM plans WHERE plan_id = ?`, planID,
	).Scan(&store.LastUpdated, &store.ReplanPending)
	if err == sql.ErrNoRows {
		return store, nil
	}
	if err != nil {
		return models.PerformanceStore{}, fmt.Errorf("remote store: load plan %s: %w", planID, err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT task_id, subject, activity, week_number, day_of_week, status, timestamp
		 FROM task_records WHERE plan_id = ? ORDER BY week_number, task_id`, planID,
	)
	if err != nil {
		return models.PerformanceStore{}, fmt.Errorf("remote store: load records of %s: %w", planID, err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var rec models.TaskRecord
		var status string
		if err := rows.Scan(&rec.TaskID, &rec.Subject, &rec.Activity, &rec.WeekNumber, &rec.DayOfWeek, &status, &rec.Timestamp); err != nil {
			return models.PerformanceStore{}, fmt.Errorf("remote store: scan record: %w", err)
		}
		rec.Status = models.TaskStatus(status)
		store.Tasks[rec.TaskID] = rec
	}
	if err := rows.Err(); err != nil {
		return models.PerformanceStore{}, fmt.Errorf("remote store: iterate records: %w", err)
	}
	return store.Normalize(), nil
}

// Save replaces the synced copy of planID with store in one transaction.
func (s *RemoteStore) Save(ctx context.Context, planID string, store models.PerformanceStore) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("remote store: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO plans (plan_id, last_updated, replan_pending, synced_at) VALUES (?, ?, ?, datetime('now'))
		 ON CONFLICT(plan_id) DO UPDATE SET last_updated = excluded.last_updated,
		   replan_pending = excluded.replan_pending, synced_at = excluded.synced_at`,
		planID, store.LastUpdated, store.ReplanPending,
	); err != nil {
		return fmt.Errorf("remote store: upsert plan %s: %w", planID, err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM task_records WHERE plan_id = ?`, planID); err != nil {
		return fmt.Errorf("remote store: clear records of %s: %w", planID, err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO task_records (plan_id, task_id, subject, activity, week_number, day_of_week, status, timestamp)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return fmt.Errorf("remote store: prepare insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for id, rec := range store.Tasks {
		if _, err := stmt.ExecContext(ctx,
			planID, id, rec.Subject, rec.Activity, rec.WeekNumber, rec.DayOfWeek, string(rec.Status), rec.Timestamp,
		); err != nil {
			return fmt.Errorf("remote store: insert record %s: %w", id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("remote store: commit: %w", err)
	}
	return nil
}
