package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"sentiboard/pkg/sentiment"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver.
)

// Compile-time interface check.
var _ SnapshotStore = (*SQLiteStore)(nil)

const schema = `
CREATE TABLE IF NOT EXISTS snapshots (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	fetched_at    INTEGER NOT NULL,
	source        TEXT    NOT NULL,
	total_reviews INTEGER NOT NULL,
	trend_points  INTEGER NOT NULL,
	payload       TEXT    NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_snapshots_fetched_at ON snapshots (fetched_at);
`

// SQLiteStore implements SnapshotStore backed by a SQLite database.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath, creates the
// schema and returns a ready-to-use SQLiteStore.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dir := filepath.Dir(dbPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating %s: %w", dir, err)
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return &SQLiteStore{db: db, now: time.Now}, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SaveSnapshot inserts an overview as JSON.
func (s *SQLiteStore) SaveSnapshot(ctx context.Context, source string, ov *sentiment.Overview) (int64, error) {
	payload, err := json.Marshal(ov)
	if err != nil {
		return 0, fmt.Errorf("encoding snapshot: %w", err)
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO snapshots (fetched_at, source, total_reviews, trend_points, payload) VALUES (?, ?, ?, ?, ?)`,
		s.now().UnixMilli(), source, ov.TotalReviews, len(ov.Trend), string(payload))
	if err != nil {
		return 0, fmt.Errorf("saving snapshot: %w", err)
	}
	return res.LastInsertId()
}

// LatestSnapshot returns the most recently saved snapshot.
func (s *SQLiteStore) LatestSnapshot(ctx context.Context) (*Snapshot, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, fetched_at, source, payload FROM snapshots ORDER BY fetched_at DESC, id DESC LIMIT 1`)

	var (
		snap    Snapshot
		ms      int64
		payload string
	)
	if err := row.Scan(&snap.ID, &ms, &snap.Source, &payload); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNoSnapshot
		}
		return nil, fmt.Errorf("reading latest snapshot: %w", err)
	}
	snap.FetchedAt = time.UnixMilli(ms)

	var ov sentiment.Overview
	if err := json.Unmarshal([]byte(payload), &ov); err != nil {
		return nil, fmt.Errorf("decoding snapshot %d: %w", snap.ID, err)
	}
	snap.Overview = &ov
	return &snap, nil
}

// ListSnapshots returns up to limit snapshots, newest first. A non-positive
// limit lists everything.
func (s *SQLiteStore) ListSnapshots(ctx context.Context, limit int) ([]SnapshotInfo, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, fetched_at, source, total_reviews, trend_points FROM snapshots ORDER BY fetched_at DESC, id DESC LIMIT ?`,
		limit)
	if err != nil {
		return nil, fmt.Errorf("listing snapshots: %w", err)
	}
	defer rows.Close()

	var out []SnapshotInfo
	for rows.Next() {
		var (
			info SnapshotInfo
			ms   int64
		)
		if err := rows.Scan(&info.ID, &ms, &info.Source, &info.TotalReviews, &info.TrendPoints); err != nil {
			return nil, err
		}
		info.FetchedAt = time.UnixMilli(ms)
		out = append(out, info)
	}
	return out, rows.Err()
}

// PruneSnapshots deletes all but the newest keep snapshots.
func (s *SQLiteStore) PruneSnapshots(ctx context.Context, keep int) (int, error) {
	if keep < 0 {
		keep = 0
	}
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM snapshots WHERE id NOT IN (
			SELECT id FROM snapshots ORDER BY fetched_at DESC, id DESC LIMIT ?
		)`, keep)
	if err != nil {
		return 0, fmt.Errorf("pruning snapshots: %w", err)
	}
	n, err := res.RowsAffected()
	return int(n), err
}
