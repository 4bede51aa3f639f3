package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"sentiboard/pkg/sentiment"
)

func day(d int) time.Time {
	return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC)
}

func trend(days ...int) []sentiment.TrendRecord {
	out := make([]sentiment.TrendRecord, len(days))
	for i, d := range days {
		out[i] = sentiment.TrendRecord{Date: day(d), Positive: d, Negative: 1, Neutral: 2}
	}
	return out
}

func TestParquetStorePath(t *testing.T) {
	ps := NewParquetStore("/data")

	want := filepath.Join("/data", "trend", "daily.parquet")
	if got := ps.trendPath("daily"); got != want {
		t.Errorf("trendPath mismatch:\n  got  %s\n  want %s", got, want)
	}
}

func TestParquetStoreWriteReadTrend(t *testing.T) {
	ps := NewParquetStore(t.TempDir())
	ctx := context.Background()

	if err := ps.WriteTrend(ctx, "daily", trend(1, 2, 3)); err != nil {
		t.Fatalf("WriteTrend: %v", err)
	}

	got, err := ps.ReadTrend(ctx, "daily")
	if err != nil {
		t.Fatalf("ReadTrend: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("ReadTrend returned %d records, want 3", len(got))
	}
	if !got[0].Date.Equal(day(1)) || got[2].Positive != 3 {
		t.Errorf("records = %+v", got)
	}
	if s := sentiment.FormatDate(got[1].Date); s != "2024-01-02" {
		t.Errorf("FormatDate = %q, want date-only", s)
	}
}

func TestParquetStoreMergeTrend(t *testing.T) {
	ps := NewParquetStore(t.TempDir())
	ctx := context.Background()

	if err := ps.WriteTrend(ctx, "daily", trend(3, 1)); err != nil {
		t.Fatalf("WriteTrend (first): %v", err)
	}
	// Overlapping date 3 is replaced, not duplicated.
	update := []sentiment.TrendRecord{
		{Date: day(3), Positive: 99},
		{Date: day(2), Positive: 5},
	}
	if err := ps.WriteTrend(ctx, "daily", update); err != nil {
		t.Fatalf("WriteTrend (second): %v", err)
	}

	got, err := ps.ReadTrend(ctx, "daily")
	if err != nil {
		t.Fatalf("ReadTrend: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("ReadTrend returned %d records after merge, want 3", len(got))
	}
	for i, d := range []int{1, 2, 3} {
		if !got[i].Date.Equal(day(d)) {
			t.Errorf("record %d date = %v, want %v", i, got[i].Date, day(d))
		}
	}
	if got[2].Positive != 99 {
		t.Errorf("merged Positive = %d, want 99", got[2].Positive)
	}
}

func TestParquetStoreMissingTrend(t *testing.T) {
	ps := NewParquetStore(t.TempDir())

	got, err := ps.ReadTrend(context.Background(), "nope")
	if err != nil || len(got) != 0 {
		t.Errorf("ReadTrend(missing) = %v, %v; want empty, nil", got, err)
	}
}

func TestParquetStoreListTrends(t *testing.T) {
	ps := NewParquetStore(t.TempDir())
	ctx := context.Background()

	for _, name := range []string{"weekly", "daily"} {
		if err := ps.WriteTrend(ctx, name, trend(1)); err != nil {
			t.Fatalf("WriteTrend(%s): %v", name, err)
		}
	}

	names, err := ps.ListTrends()
	if err != nil {
		t.Fatalf("ListTrends: %v", err)
	}
	if len(names) != 2 || names[0] != "daily" || names[1] != "weekly" {
		t.Errorf("ListTrends = %v, want [daily weekly]", names)
	}
}

func TestParquetStoreWriteTrendDamagedArchive(t *testing.T) {
	ps := NewParquetStore(t.TempDir())
	ctx := context.Background()

	days := make([]int, 20)
	for i := range days {
		days[i] = i + 1
	}
	if err := ps.WriteTrend(ctx, "daily", trend(days...)); err != nil {
		t.Fatalf("WriteTrend: %v", err)
	}

	// Chop the footer so the file no longer parses.
	path := ps.trendPath("daily")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if err := os.WriteFile(path, data[:len(data)-3], 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	damaged, _ := os.ReadFile(path)

	if err := ps.WriteTrend(ctx, "daily", trend(21)); err == nil {
		t.Fatal("WriteTrend over a damaged archive returned nil error")
	}
	after, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if len(after) != len(damaged) {
		t.Errorf("archive rewritten: %d bytes, want the original %d", len(after), len(damaged))
	}
}

func TestTrendFileKeepsOrder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "export", "trend.parquet")
	in := trend(5, 1, 3)

	if err := WriteTrendFile(path, in); err != nil {
		t.Fatalf("WriteTrendFile: %v", err)
	}
	got, err := ReadTrendFile(path)
	if err != nil {
		t.Fatalf("ReadTrendFile: %v", err)
	}
	for i := range in {
		if !got[i].Date.Equal(in[i].Date) || got[i].Positive != in[i].Positive || got[i].Neutral != in[i].Neutral {
			t.Errorf("record %d = %+v, want %+v", i, got[i], in[i])
		}
	}
}

func TestFileProvider(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trend.parquet")
	if err := WriteTrendFile(path, trend(1, 2)); err != nil {
		t.Fatalf("WriteTrendFile: %v", err)
	}

	ov, err := NewFileProvider(path).Overview(context.Background())
	if err != nil {
		t.Fatalf("Overview: %v", err)
	}
	if len(ov.Trend) != 2 {
		t.Fatalf("len(Trend) = %d, want 2", len(ov.Trend))
	}
	want := sentiment.Distribution{Positive: 3, Negative: 2, Neutral: 4}
	if ov.Distribution != want {
		t.Errorf("Distribution = %+v, want %+v", ov.Distribution, want)
	}
	if ov.TotalReviews != 9 {
		t.Errorf("TotalReviews = %d, want 9", ov.TotalReviews)
	}

	if _, err := NewFileProvider(filepath.Join(t.TempDir(), "missing.parquet")).Overview(context.Background()); err == nil {
		t.Error("Overview on missing file returned nil error")
	}
}

func openTestDB(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "sub", "test.db")

	store, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("NewSQLiteStore(%q) returned error: %v", dbPath, err)
	}
	t.Cleanup(func() {
		if cerr := store.Close(); cerr != nil {
			t.Errorf("Close() returned error: %v", cerr)
		}
	})
	return store
}

func TestSQLiteStoreOpen(t *testing.T) {
	store := openTestDB(t)

	if err := store.db.Ping(); err != nil {
		t.Fatalf("db.Ping() returned error: %v", err)
	}
	if _, err := store.LatestSnapshot(context.Background()); !errors.Is(err, ErrNoSnapshot) {
		t.Errorf("LatestSnapshot on empty db = %v, want ErrNoSnapshot", err)
	}
}

func TestSQLiteStoreSnapshots(t *testing.T) {
	store := openTestDB(t)
	ctx := context.Background()

	clock := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}

	for i := 1; i <= 3; i++ {
		ov := &sentiment.Overview{
			TotalReviews: i * 100,
			Trend:        trend(1, 2, 3)[:i],
			TopBrands:    []sentiment.BrandStat{{Brand: "Acme", Count: i, Mean: 4.5}},
		}
		if _, err := store.SaveSnapshot(ctx, "http://localhost:5000/api", ov); err != nil {
			t.Fatalf("SaveSnapshot %d: %v", i, err)
		}
	}

	latest, err := store.LatestSnapshot(ctx)
	if err != nil {
		t.Fatalf("LatestSnapshot: %v", err)
	}
	if latest.Overview.TotalReviews != 300 {
		t.Errorf("latest TotalReviews = %d, want 300", latest.Overview.TotalReviews)
	}
	if len(latest.Overview.Trend) != 3 || !latest.Overview.Trend[2].Date.Equal(day(3)) {
		t.Errorf("latest Trend = %+v", latest.Overview.Trend)
	}
	if latest.Source != "http://localhost:5000/api" {
		t.Errorf("Source = %q", latest.Source)
	}

	list, err := store.ListSnapshots(ctx, 2)
	if err != nil {
		t.Fatalf("ListSnapshots: %v", err)
	}
	if len(list) != 2 || list[0].TotalReviews != 300 || list[1].TrendPoints != 2 {
		t.Errorf("ListSnapshots = %+v", list)
	}

	n, err := store.PruneSnapshots(ctx, 1)
	if err != nil {
		t.Fatalf("PruneSnapshots: %v", err)
	}
	if n != 2 {
		t.Errorf("PruneSnapshots deleted %d, want 2", n)
	}
	all, err := store.ListSnapshots(ctx, 0)
	if err != nil {
		t.Fatalf("ListSnapshots: %v", err)
	}
	if len(all) != 1 || all[0].TotalReviews != 300 {
		t.Errorf("after prune = %+v", all)
	}
}
