package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/parquet-go/parquet-go"

	"sentiboard/pkg/sentiment"
)

// Compile-time interface check.
var _ TrendStore = (*ParquetStore)(nil)

// ParquetStore implements TrendStore using Parquet files on disk.
type ParquetStore struct {
	DataDir string
}

// NewParquetStore creates a new ParquetStore rooted at the given data directory.
func NewParquetStore(dataDir string) *ParquetStore {
	return &ParquetStore{DataDir: dataDir}
}

// ---------------------------------------------------------------------------
// Parquet record types (on-disk schema)
// ---------------------------------------------------------------------------

// TrendRow is the Parquet schema for one trend entry.
type TrendRow struct {
	Date     int64 `parquet:"date,timestamp(millisecond)"` // Unix ms, UTC
	Positive int64 `parquet:"positive"`
	Negative int64 `parquet:"negative"`
	Neutral  int64 `parquet:"neutral"`
}

func toRows(records []sentiment.TrendRecord) []TrendRow {
	rows := make([]TrendRow, len(records))
	for i, r := range records {
		rows[i] = TrendRow{
			Date:     r.Date.UnixMilli(),
			Positive: int64(r.Positive),
			Negative: int64(r.Negative),
			Neutral:  int64(r.Neutral),
		}
	}
	return rows
}

func fromRows(rows []TrendRow) ([]sentiment.TrendRecord, error) {
	records := make([]sentiment.TrendRecord, len(rows))
	for i, r := range rows {
		if r.Positive < 0 || r.Negative < 0 || r.Neutral < 0 {
			return nil, fmt.Errorf("row %d: negative count", i)
		}
		records[i] = sentiment.TrendRecord{
			Date:     time.UnixMilli(r.Date).UTC(),
			Positive: int(r.Positive),
			Negative: int(r.Negative),
			Neutral:  int(r.Neutral),
		}
	}
	return records, nil
}

// ---------------------------------------------------------------------------
// TrendStore implementation
// ---------------------------------------------------------------------------

// WriteTrend merges records into <DataDir>/trend/<name>.parquet, preferring
// incoming entries over stored ones with the same date.
func (s *ParquetStore) WriteTrend(_ context.Context, name string, records []sentiment.TrendRecord) error {
	if len(records) == 0 {
		return nil
	}
	path := s.trendPath(name)

	var existing []TrendRow
	if _, err := os.Stat(path); err == nil {
		if existing, err = readParquetFile[TrendRow](path); err != nil {
			return fmt.Errorf("reading trend %s: %w", name, err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("reading trend %s: %w", name, err)
	}
	merged := mergeTrendRows(existing, toRows(records))

	if err := writeParquetFile(path, merged); err != nil {
		return fmt.Errorf("writing trend %s: %w", name, err)
	}
	return nil
}

// ReadTrend reads the named trend series. A missing series is empty.
func (s *ParquetStore) ReadTrend(_ context.Context, name string) ([]sentiment.TrendRecord, error) {
	path := s.trendPath(name)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, nil
	}
	rows, err := readParquetFile[TrendRow](path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return fromRows(rows)
}

// ListTrends returns the names of all stored series.
func (s *ParquetStore) ListTrends() ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(s.DataDir, "trend"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".parquet") {
			names = append(names, strings.TrimSuffix(e.Name(), ".parquet"))
		}
	}
	sort.Strings(names)
	return names, nil
}

// trendPath returns the filesystem path for a named trend series.
// Layout: <dataDir>/trend/<name>.parquet
func (s *ParquetStore) trendPath(name string) string {
	return filepath.Join(s.DataDir, "trend", name+".parquet")
}

// ---------------------------------------------------------------------------
// Standalone files
// ---------------------------------------------------------------------------

// WriteTrendFile writes records to a Parquet file at path, replacing it.
func WriteTrendFile(path string, records []sentiment.TrendRecord) error {
	return writeParquetFile(path, toRows(records))
}

// ReadTrendFile reads a trend Parquet file in stored order.
func ReadTrendFile(path string) ([]sentiment.TrendRecord, error) {
	rows, err := readParquetFile[TrendRow](path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return fromRows(rows)
}

// ---------------------------------------------------------------------------
// Parquet file helpers
// ---------------------------------------------------------------------------

func writeParquetFile[T any](path string, records []T) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return parquet.WriteFile(path, records)
}

func readParquetFile[T any](path string) ([]T, error) {
	rows, err := parquet.ReadFile[T](path)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// mergeTrendRows deduplicates rows by date, preferring incoming rows over
// existing ones. Results are sorted by date.
func mergeTrendRows(existing, incoming []TrendRow) []TrendRow {
	seen := make(map[int64]TrendRow, len(existing)+len(incoming))
	for _, r := range existing {
		seen[r.Date] = r
	}
	for _, r := range incoming {
		seen[r.Date] = r
	}

	merged := make([]TrendRow, 0, len(seen))
	for _, r := range seen {
		merged = append(merged, r)
	}
	sort.Slice(merged, func(i, j int) bool {
		return merged[i].Date < merged[j].Date
	})
	return merged
}
