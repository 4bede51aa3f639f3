package dashboard

import (
	"context"
	"log/slog"
	"time"

	"sentiboard/internal/chart"
	"sentiboard/internal/pager"
	"sentiboard/pkg/sentiment"
)

// Provider supplies the analytics overview, including the full ordered trend.
type Provider interface {
	Overview(ctx context.Context) (*sentiment.Overview, error)
}

// Session owns the paginated trend view and the last good overview. Every
// transition that changes the visible page redraws through the renderer.
// Loads are guarded by tokens: only the result of the most recent BeginLoad
// is applied. A Session is not safe for concurrent use.
type Session struct {
	view     *pager.View[sentiment.TrendRecord]
	renderer chart.Renderer
	log      *slog.Logger
	now      func() time.Time

	token    uint64
	loading  bool
	overview *sentiment.Overview
	loadedAt time.Time
	seeded   bool // data came from a stored snapshot, not a live load
	lastErr  error
}

// NewSession creates a session with an empty dataset and draws the empty
// first page.
func NewSession(pageSize int, renderer chart.Renderer, log *slog.Logger, opts ...pager.Option) (*Session, error) {
	view, err := pager.New[sentiment.TrendRecord](pageSize, opts...)
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = slog.Default()
	}
	s := &Session{view: view, renderer: renderer, log: log, now: time.Now}
	s.redraw()
	return s, nil
}

// BeginLoad issues the token for a new load and marks the session busy.
func (s *Session) BeginLoad() uint64 {
	s.token++
	s.loading = true
	return s.token
}

// ApplyOverview installs ov as the new dataset if token is the latest issued.
// It reports whether the overview was applied.
func (s *Session) ApplyOverview(token uint64, ov *sentiment.Overview) bool {
	if token != s.token {
		s.log.Debug("discarding stale overview", "token", token, "latest", s.token)
		return false
	}
	s.loading = false
	s.lastErr = nil
	s.seeded = false
	s.install(ov)
	s.log.Info("trend loaded", "records", s.view.Len(), "pages", s.view.Describe().Total)
	return true
}

// FailLoad records a failed load if token is the latest issued. The dataset
// and page are left as they were. It reports whether the failure was
// recorded.
func (s *Session) FailLoad(token uint64, err error) bool {
	if token != s.token {
		s.log.Debug("discarding stale failure", "token", token, "latest", s.token, "error", err)
		return false
	}
	s.loading = false
	s.lastErr = err
	s.log.Warn("trend load failed", "error", err)
	return true
}

// Seed installs a stored overview when nothing has been loaded yet. It does
// not touch the load token.
func (s *Session) Seed(ov *sentiment.Overview, fetchedAt time.Time) bool {
	if s.overview != nil || ov == nil {
		return false
	}
	s.install(ov)
	s.loadedAt = fetchedAt
	s.seeded = true
	return true
}

// Refresh runs a complete load against p. It is the synchronous form used
// outside the TUI event loop.
func (s *Session) Refresh(ctx context.Context, p Provider) error {
	token := s.BeginLoad()
	ov, err := p.Overview(ctx)
	if err != nil {
		s.FailLoad(token, err)
		return err
	}
	s.ApplyOverview(token, ov)
	return nil
}

func (s *Session) install(ov *sentiment.Overview) {
	if ov == nil {
		ov = &sentiment.Overview{}
	}
	s.overview = ov
	s.loadedAt = s.now()
	s.view.Load(ov.Trend)
	s.redraw()
}

// Next advances one page.
func (s *Session) Next() bool { return s.move(s.view.Next) }

// Previous moves back one page.
func (s *Session) Previous() bool { return s.move(s.view.Previous) }

// First jumps to page 1.
func (s *Session) First() bool { return s.move(s.view.First) }

// Last jumps to the final page.
func (s *Session) Last() bool { return s.move(s.view.Last) }

func (s *Session) move(step func() bool) bool {
	if !step() {
		return false
	}
	s.redraw()
	return true
}

// SetPageSize changes the page size and redraws. On error nothing changes.
func (s *Session) SetPageSize(size int) error {
	if err := s.view.SetPageSize(size); err != nil {
		return err
	}
	s.redraw()
	return nil
}

// CyclePageSize switches to the next size in pager.PageSizes.
func (s *Session) CyclePageSize() error {
	return s.SetPageSize(pager.NextSize(s.view.PageSize()))
}

// Redraw renders the current page again, e.g. after the renderer resized.
func (s *Session) Redraw() { s.redraw() }

func (s *Session) redraw() {
	if s.renderer == nil {
		return
	}
	labels, series := SeriesFor(s.view.Visible())
	s.renderer.Render(labels, series)
}

// Page returns the current pagination position.
func (s *Session) Page() pager.Page { return s.view.Describe() }

// PageSize returns the current page size.
func (s *Session) PageSize() int { return s.view.PageSize() }

// Visible returns the records on the current page.
func (s *Session) Visible() []sentiment.TrendRecord { return s.view.Visible() }

// Len returns the number of trend records loaded.
func (s *Session) Len() int { return s.view.Len() }

// NeedsPaging reports whether page controls should be shown.
func (s *Session) NeedsPaging() bool { return s.view.NeedsPaging() }

// HasNext reports whether a next page exists.
func (s *Session) HasNext() bool { return s.view.HasNext() }

// HasPrevious reports whether a previous page exists.
func (s *Session) HasPrevious() bool { return s.view.HasPrevious() }

// Loading reports whether the latest load is still in flight.
func (s *Session) Loading() bool { return s.loading }

// Overview returns the last good overview, or nil before the first load.
func (s *Session) Overview() *sentiment.Overview { return s.overview }

// LoadedAt returns when the current overview was obtained.
func (s *Session) LoadedAt() time.Time { return s.loadedAt }

// Seeded reports whether the current data came from a stored snapshot.
func (s *Session) Seeded() bool { return s.seeded }

// Err returns the error of the latest load, or nil if it succeeded.
func (s *Session) Err() error { return s.lastErr }
