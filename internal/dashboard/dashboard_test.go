package dashboard

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"sentiboard/internal/chart"
	"sentiboard/internal/pager"
	"sentiboard/pkg/sentiment"
)

// recorder is a chart.Renderer that keeps every call.
type recorder struct {
	calls  int
	labels []string
	series []chart.Series
}

func (r *recorder) Render(labels []string, series []chart.Series) {
	r.calls++
	r.labels = labels
	r.series = series
}

func makeTrend(n int) []sentiment.TrendRecord {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]sentiment.TrendRecord, n)
	for i := range out {
		out[i] = sentiment.TrendRecord{Date: start.AddDate(0, 0, i), Positive: i, Negative: 1, Neutral: 2}
	}
	return out
}

func overview(n int) *sentiment.Overview {
	return &sentiment.Overview{Trend: makeTrend(n), TotalReviews: n}
}

func newSession(t *testing.T, r chart.Renderer, opts ...pager.Option) *Session {
	t.Helper()
	s, err := NewSession(10, r, nil, opts...)
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	return s
}

func TestFormatInt(t *testing.T) {
	tests := []struct {
		in   int
		want string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1,000"},
		{1234567, "1,234,567"},
		{-4500, "-4,500"},
	}
	for _, tt := range tests {
		if got := FormatInt(tt.in); got != tt.want {
			t.Errorf("FormatInt(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatHelpers(t *testing.T) {
	if got := FormatCount(250_000); got != "250K" {
		t.Errorf("FormatCount = %q", got)
	}
	if got := FormatPercent(0.8912); got != "89.1%" {
		t.Errorf("FormatPercent = %q", got)
	}
	if got := FormatConfidence(91.25); got != "91.2%" && got != "91.3%" {
		t.Errorf("FormatConfidence = %q", got)
	}
	if got := FormatRating(0); got != "-" {
		t.Errorf("FormatRating(0) = %q", got)
	}
	if got := FormatSigned(0.5); got != "+0.500" {
		t.Errorf("FormatSigned = %q", got)
	}
	if got := Truncate("héllo world", 6); got != "héllo…" {
		t.Errorf("Truncate = %q", got)
	}
}

func TestComputeStats(t *testing.T) {
	s := ComputeStats(&sentiment.Overview{
		Distribution: sentiment.Distribution{Positive: 6, Negative: 3, Neutral: 1},
		TotalReviews: 10,
		Performance:  sentiment.ModelPerformance{BestModel: "SVM", Accuracy: 0.9},
	})
	if s.PositiveShare != 0.6 || s.NeutralShare != 0.1 {
		t.Errorf("shares = %v/%v", s.PositiveShare, s.NeutralShare)
	}
	if got := s.Counts(); got[0] != 6 || got[1] != 3 || got[2] != 1 {
		t.Errorf("Counts() = %v", got)
	}
	if z := ComputeStats(&sentiment.Overview{}); z.PositiveShare != 0 {
		t.Errorf("empty shares = %v", z.PositiveShare)
	}
}

func TestSeriesFor(t *testing.T) {
	labels, series := SeriesFor(makeTrend(3))
	if len(labels) != 3 || labels[0] != "2024-01-01" {
		t.Errorf("labels = %v", labels)
	}
	if len(series) != chart.MaxSeries {
		t.Fatalf("len(series) = %d", len(series))
	}
	if series[0].Name != SeriesPositive || series[0].Values[2] != 2 {
		t.Errorf("positive series = %+v", series[0])
	}
}

func TestSessionRedrawsOnTransitions(t *testing.T) {
	r := &recorder{}
	s := newSession(t, r)
	if r.calls != 1 || len(r.labels) != 0 {
		t.Fatalf("initial draw: calls=%d labels=%v", r.calls, r.labels)
	}

	tok := s.BeginLoad()
	if !s.Loading() {
		t.Error("Loading() = false after BeginLoad")
	}
	if !s.ApplyOverview(tok, overview(23)) {
		t.Fatal("ApplyOverview rejected the latest token")
	}
	if s.Loading() {
		t.Error("Loading() = true after ApplyOverview")
	}
	if got := s.Page(); got != (pager.Page{Current: 1, Total: 3}) {
		t.Errorf("Page() = %+v", got)
	}
	if len(r.labels) != 10 || r.labels[0] != "2024-01-01" {
		t.Errorf("rendered labels = %v", r.labels)
	}

	calls := r.calls
	s.Next()
	s.Next()
	if r.calls != calls+2 || len(r.labels) != 3 || r.labels[0] != "2024-01-21" {
		t.Errorf("after two Next: calls=%d labels=%v", r.calls, r.labels)
	}

	// Boundary moves are no-ops and do not redraw.
	calls = r.calls
	if s.Next() {
		t.Error("Next() at last page returned true")
	}
	if r.calls != calls {
		t.Error("no-op Next redrew the chart")
	}

	if err := s.SetPageSize(20); err != nil {
		t.Fatalf("SetPageSize(20): %v", err)
	}
	if got := s.Page(); got != (pager.Page{Current: 1, Total: 2}) {
		t.Errorf("after resize Page() = %+v", got)
	}
	if len(r.labels) != 20 {
		t.Errorf("rendered %d labels after resize, want 20", len(r.labels))
	}
}

func TestSessionRejectsInvalidPageSize(t *testing.T) {
	r := &recorder{}
	s := newSession(t, r)
	s.ApplyOverview(s.BeginLoad(), overview(23))
	s.Next()
	calls := r.calls

	if err := s.SetPageSize(0); !errors.Is(err, pager.ErrInvalidArgument) {
		t.Errorf("SetPageSize(0) error = %v", err)
	}
	if s.Page().Current != 2 || s.PageSize() != 10 || r.calls != calls {
		t.Errorf("state changed on invalid size: page=%+v size=%d calls=%d", s.Page(), s.PageSize(), r.calls)
	}
}

func TestSessionCyclePageSize(t *testing.T) {
	s := newSession(t, nil)
	for _, want := range []int{15, 20, 5, 10} {
		if err := s.CyclePageSize(); err != nil {
			t.Fatalf("CyclePageSize: %v", err)
		}
		if s.PageSize() != want {
			t.Errorf("PageSize() = %d, want %d", s.PageSize(), want)
		}
	}
}

func TestSessionDiscardsStaleResponses(t *testing.T) {
	s := newSession(t, &recorder{})

	first := s.BeginLoad()
	second := s.BeginLoad()

	// The slow first response arrives after the second was issued.
	if s.ApplyOverview(first, overview(50)) {
		t.Error("stale overview applied")
	}
	if s.Len() != 0 || !s.Loading() {
		t.Errorf("stale overview changed state: len=%d loading=%v", s.Len(), s.Loading())
	}
	if s.FailLoad(first, errors.New("late failure")) {
		t.Error("stale failure recorded")
	}
	if s.Err() != nil {
		t.Errorf("Err() = %v after stale failure", s.Err())
	}

	if !s.ApplyOverview(second, overview(12)) {
		t.Fatal("latest overview rejected")
	}
	if s.Len() != 12 {
		t.Errorf("Len() = %d, want 12", s.Len())
	}
}

func TestSessionFailureKeepsLastGood(t *testing.T) {
	s := newSession(t, &recorder{})
	s.ApplyOverview(s.BeginLoad(), overview(23))
	s.Next()

	tok := s.BeginLoad()
	loadErr := &sentiment.ProviderError{Endpoint: "/analytics/overview", StatusCode: 500}
	if !s.FailLoad(tok, loadErr) {
		t.Fatal("FailLoad rejected the latest token")
	}
	if s.Loading() {
		t.Error("Loading() = true after failure")
	}
	if !errors.Is(s.Err(), loadErr) {
		t.Errorf("Err() = %v", s.Err())
	}
	if s.Len() != 23 || s.Page().Current != 2 {
		t.Errorf("failure changed view: len=%d page=%+v", s.Len(), s.Page())
	}
	if s.Overview() == nil || s.Overview().TotalReviews != 23 {
		t.Error("last good overview lost")
	}
}

func TestSessionSeed(t *testing.T) {
	s := newSession(t, &recorder{})
	at := time.Date(2024, 2, 1, 8, 0, 0, 0, time.UTC)

	if !s.Seed(overview(5), at) {
		t.Fatal("Seed on empty session returned false")
	}
	if !s.Seeded() || !s.LoadedAt().Equal(at) || s.Len() != 5 {
		t.Errorf("seeded state: seeded=%v at=%v len=%d", s.Seeded(), s.LoadedAt(), s.Len())
	}
	if s.Seed(overview(7), at) {
		t.Error("second Seed replaced existing data")
	}

	s.ApplyOverview(s.BeginLoad(), overview(8))
	if s.Seeded() || s.Len() != 8 {
		t.Errorf("live load did not replace seed: seeded=%v len=%d", s.Seeded(), s.Len())
	}
}

type fakeSource struct {
	ov     *sentiment.Overview
	cmp    []sentiment.ModelScore
	ovErr  error
	cmpErr error
}

func (f *fakeSource) Overview(ctx context.Context) (*sentiment.Overview, error) {
	return f.ov, f.ovErr
}

func (f *fakeSource) ModelComparison(ctx context.Context) ([]sentiment.ModelScore, error) {
	return f.cmp, f.cmpErr
}

func TestSessionRefresh(t *testing.T) {
	s := newSession(t, &recorder{})
	if err := s.Refresh(context.Background(), &fakeSource{ov: overview(4)}); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if s.Len() != 4 {
		t.Errorf("Len() = %d, want 4", s.Len())
	}

	boom := errors.New("boom")
	if err := s.Refresh(context.Background(), &fakeSource{ovErr: boom}); !errors.Is(err, boom) {
		t.Errorf("Refresh error = %v", err)
	}
	if s.Len() != 4 {
		t.Errorf("failed refresh changed Len() to %d", s.Len())
	}
}

func TestLoadAnalytics(t *testing.T) {
	src := &fakeSource{
		ov:  overview(3),
		cmp: []sentiment.ModelScore{{Model: "SVM", Accuracy: 0.9}},
	}
	a, err := LoadAnalytics(context.Background(), src)
	if err != nil {
		t.Fatalf("LoadAnalytics: %v", err)
	}
	if a.Overview.TotalReviews != 3 || len(a.Comparison) != 1 {
		t.Errorf("analytics = %+v", a)
	}

	src.cmpErr = errors.New("down")
	if _, err := LoadAnalytics(context.Background(), src); err == nil || !strings.Contains(err.Error(), "model comparison") {
		t.Errorf("LoadAnalytics error = %v", err)
	}
}

func TestTopBrands(t *testing.T) {
	in := []sentiment.BrandStat{
		{Brand: "A", Count: 10, Mean: 4.1},
		{Brand: "B", Count: 5, Mean: 4.8},
		{Brand: "C", Count: 20, Mean: 4.8},
	}
	got := TopBrands(in, 2)
	if len(got) != 2 || got[0].Brand != "A" || got[1].Brand != "B" {
		t.Errorf("TopBrands = %+v, want backend order [A B]", got)
	}
	got[0].Brand = "Z"
	if in[0].Brand != "A" {
		t.Error("TopBrands shares its input")
	}
	if all := TopBrands(in, -1); len(all) != 3 {
		t.Errorf("TopBrands(-1) returned %d brands, want 3", len(all))
	}
}

func TestTimeline(t *testing.T) {
	trend := makeTrend(30)
	tl := Timeline(trend, 20)
	if len(tl) != 20 || !tl[0].Date.Equal(trend[10].Date) {
		t.Errorf("Timeline len=%d first=%v", len(tl), tl[0].Date)
	}
	if got := Timeline(trend[:5], 20); len(got) != 5 {
		t.Errorf("short Timeline len=%d", len(got))
	}
	series := TimelineSparklines(trend, 20)
	if len(series) != 3 || len(series[0].Values) != 20 {
		t.Errorf("TimelineSparklines = %+v", series)
	}
}

func TestSplitTexts(t *testing.T) {
	got := SplitTexts("  great\n\n   \nbad one  \nok")
	want := []string{"great", "bad one", "ok"}
	if len(got) != len(want) {
		t.Fatalf("SplitTexts = %q", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("SplitTexts[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

// chunkPredictor labels each text by its position within the chunk.
type chunkPredictor struct {
	mu     sync.Mutex
	chunks [][]string
	failOn int // 1-based chunk number to fail, 0 never
}

func (p *chunkPredictor) BatchPredict(ctx context.Context, texts []string, model string) (*sentiment.BatchResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.chunks = append(p.chunks, texts)
	if p.failOn == len(p.chunks) {
		return nil, &sentiment.ProviderError{Endpoint: "/batch_predict", StatusCode: 500}
	}
	res := &sentiment.BatchResult{Summary: sentiment.BatchSummary{TotalProcessed: len(texts), ModelUsed: model}}
	for i, text := range texts {
		res.Results = append(res.Results, sentiment.BatchItem{Index: i, Text: text, Sentiment: "Positive"})
		res.Summary.Positive++
	}
	return res, nil
}

func TestBatchRunnerChunks(t *testing.T) {
	texts := make([]string, 7)
	for i := range texts {
		texts[i] = fmt.Sprintf("text %d", i)
	}
	p := &chunkPredictor{}
	var progress []int
	r := &BatchRunner{Predictor: p, ChunkSize: 3, Progress: func(done, total int) {
		progress = append(progress, done)
	}}

	res, err := r.Run(context.Background(), texts, "svm")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(p.chunks) != 3 || len(p.chunks[2]) != 1 {
		t.Errorf("chunks = %v", p.chunks)
	}
	if len(res.Results) != 7 {
		t.Fatalf("len(Results) = %d, want 7", len(res.Results))
	}
	for i, item := range res.Results {
		if item.Index != i || item.Text != texts[i] {
			t.Errorf("result %d = %+v", i, item)
		}
	}
	if res.Summary.TotalProcessed != 7 || res.Summary.Positive != 7 || res.Summary.ModelUsed != "svm" {
		t.Errorf("Summary = %+v", res.Summary)
	}
	if fmt.Sprint(progress) != "[3 6 7]" {
		t.Errorf("progress = %v", progress)
	}
}

func TestBatchRunnerStopsOnFailure(t *testing.T) {
	p := &chunkPredictor{failOn: 2}
	r := &BatchRunner{Predictor: p, ChunkSize: 2}

	_, err := r.Run(context.Background(), []string{"a", "b", "c", "d", "e"}, "svm")
	var pe *sentiment.ProviderError
	if !errors.As(err, &pe) {
		t.Fatalf("Run error = %v, want ProviderError", err)
	}
	if !strings.Contains(err.Error(), "chunk 2/3") {
		t.Errorf("error %q lacks chunk position", err)
	}
	if len(p.chunks) != 2 {
		t.Errorf("sent %d chunks after failure, want 2", len(p.chunks))
	}
}

func TestBatchRunnerEmpty(t *testing.T) {
	r := &BatchRunner{Predictor: &chunkPredictor{}}
	if _, err := r.Run(context.Background(), nil, "svm"); !errors.Is(err, sentiment.ErrEmptyBatch) {
		t.Errorf("Run(nil) error = %v", err)
	}
}
