// Package store persists analytics locally: overview snapshots in SQLite and
// trend series in Parquet files.
package store

import (
	"context"
	"errors"
	"time"

	"sentiboard/pkg/sentiment"
)

// ErrNoSnapshot is returned when no snapshot has been saved yet.
var ErrNoSnapshot = errors.New("no snapshot stored")

// Snapshot is a stored analytics overview.
type Snapshot struct {
	ID        int64
	FetchedAt time.Time
	Source    string // API base URL or file the overview came from
	Overview  *sentiment.Overview
}

// SnapshotInfo is the listing form of a Snapshot, without its payload.
type SnapshotInfo struct {
	ID           int64
	FetchedAt    time.Time
	Source       string
	TotalReviews int
	TrendPoints  int
}

// SnapshotStore persists and retrieves analytics overviews.
type SnapshotStore interface {
	// SaveSnapshot stores an overview and returns its ID.
	SaveSnapshot(ctx context.Context, source string, ov *sentiment.Overview) (int64, error)

	// LatestSnapshot returns the most recent snapshot, or ErrNoSnapshot.
	LatestSnapshot(ctx context.Context) (*Snapshot, error)

	// ListSnapshots returns up to limit snapshots, newest first.
	ListSnapshots(ctx context.Context, limit int) ([]SnapshotInfo, error)

	// PruneSnapshots keeps the newest keep snapshots and reports how many
	// were deleted.
	PruneSnapshots(ctx context.Context, keep int) (int, error)
}

// TrendStore persists and retrieves named trend series.
type TrendStore interface {
	// WriteTrend merges records into the named series, replacing entries
	// with the same date.
	WriteTrend(ctx context.Context, name string, records []sentiment.TrendRecord) error

	// ReadTrend returns the named series in chronological order.
	ReadTrend(ctx context.Context, name string) ([]sentiment.TrendRecord, error)
}
