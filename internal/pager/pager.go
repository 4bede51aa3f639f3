// Package pager provides a paginated view over an ordered, in-memory dataset.
// It owns the (dataset, page size, current page) triple and keeps it
// consistent across every transition, so callers only ever observe a page
// number in [1, total].
package pager

import (
	"errors"
	"fmt"
	"slices"
)

// ErrInvalidArgument is wrapped by every rejected page-size change.
var ErrInvalidArgument = errors.New("invalid argument")

// PageSizes is the enumerated set of page sizes offered by the dashboard.
var PageSizes = []int{5, 10, 15, 20}

// DefaultPageSize is the page size used when none is configured.
const DefaultPageSize = 10

// ResetPolicy controls where the view lands after the dataset or page size
// changes.
type ResetPolicy int

const (
	// ResetToFirst always returns to page 1.
	ResetToFirst ResetPolicy = iota
	// KeepPosition keeps the first visible record on screen after a page-size
	// change and clamps the current page after a reload.
	KeepPosition
)

// Page is a read-only snapshot of the pagination position.
type Page struct {
	Current int
	Total   int
}

// String renders the position the way the page indicator shows it.
func (p Page) String() string {
	return fmt.Sprintf("Page %d of %d", p.Current, p.Total)
}

// Option configures a View.
type Option func(*options)

type options struct {
	allowed []int
	policy  ResetPolicy
}

// WithAllowedSizes restricts SetPageSize to the given sizes. Passing no sizes
// accepts any positive size.
func WithAllowedSizes(sizes ...int) Option {
	return func(o *options) {
		o.allowed = slices.Clone(sizes)
	}
}

// WithResetPolicy selects the position policy applied on reloads and
// page-size changes.
func WithResetPolicy(p ResetPolicy) Option {
	return func(o *options) {
		o.policy = p
	}
}

// View is a paginated view over records of type T. The zero value is not
// usable; create one with New. A View is not safe for concurrent use.
type View[T any] struct {
	records  []T
	pageSize int
	current  int
	total    int
	opts     options
}

// New creates an empty view with the given page size. By default only the
// sizes in PageSizes are accepted.
func New[T any](pageSize int, opts ...Option) (*View[T], error) {
	o := options{allowed: PageSizes, policy: ResetToFirst}
	for _, opt := range opts {
		opt(&o)
	}
	v := &View[T]{opts: o, current: 1, total: 1}
	if err := v.validSize(pageSize); err != nil {
		return nil, err
	}
	v.pageSize = pageSize
	return v, nil
}

// Load replaces the dataset. The input is copied; the caller keeps ownership
// of its slice.
func (v *View[T]) Load(records []T) {
	firstBefore := v.firstIndex()
	v.records = slices.Clone(records)
	v.total = pageCount(len(v.records), v.pageSize)
	switch v.opts.policy {
	case KeepPosition:
		v.current = min(pageOf(firstBefore, v.pageSize), v.total)
	default:
		v.current = 1
	}
}

// SetPageSize changes the page size. It fails with ErrInvalidArgument, and
// leaves the view untouched, when size is not positive or not allowed.
func (v *View[T]) SetPageSize(size int) error {
	if err := v.validSize(size); err != nil {
		return err
	}
	first := v.firstIndex()
	v.pageSize = size
	v.total = pageCount(len(v.records), size)
	switch v.opts.policy {
	case KeepPosition:
		v.current = min(pageOf(first, size), v.total)
	default:
		v.current = 1
	}
	return nil
}

// Next advances one page. It reports whether the position changed.
func (v *View[T]) Next() bool {
	if v.current >= v.total {
		return false
	}
	v.current++
	return true
}

// Previous moves back one page. It reports whether the position changed.
func (v *View[T]) Previous() bool {
	if v.current <= 1 {
		return false
	}
	v.current--
	return true
}

// First jumps to page 1.
func (v *View[T]) First() bool {
	if v.current == 1 {
		return false
	}
	v.current = 1
	return true
}

// Last jumps to the final page.
func (v *View[T]) Last() bool {
	if v.current == v.total {
		return false
	}
	v.current = v.total
	return true
}

// HasNext reports whether Next would move.
func (v *View[T]) HasNext() bool { return v.current < v.total }

// HasPrevious reports whether Previous would move.
func (v *View[T]) HasPrevious() bool { return v.current > 1 }

// Range returns the half-open index range [start, end) of the current page,
// clipped to the dataset.
func (v *View[T]) Range() (start, end int) {
	start = (v.current - 1) * v.pageSize
	end = start + v.pageSize
	n := len(v.records)
	if start > n {
		start = n
	}
	if end > n {
		end = n
	}
	return start, end
}

// Visible returns a copy of the records on the current page. It is empty,
// never nil-erroring, when the dataset is empty.
func (v *View[T]) Visible() []T {
	start, end := v.Range()
	out := make([]T, end-start)
	copy(out, v.records[start:end])
	return out
}

// Describe returns the current position.
func (v *View[T]) Describe() Page {
	return Page{Current: v.current, Total: v.total}
}

// Len returns the dataset length.
func (v *View[T]) Len() int { return len(v.records) }

// PageSize returns the current page size.
func (v *View[T]) PageSize() int { return v.pageSize }

// NeedsPaging reports whether the dataset spans more than one page. The
// dashboard hides its page controls otherwise.
func (v *View[T]) NeedsPaging() bool { return v.total > 1 }

func (v *View[T]) validSize(size int) error {
	if size <= 0 {
		return fmt.Errorf("page size %d must be positive: %w", size, ErrInvalidArgument)
	}
	if len(v.opts.allowed) > 0 && !slices.Contains(v.opts.allowed, size) {
		return fmt.Errorf("page size %d not in %v: %w", size, v.opts.allowed, ErrInvalidArgument)
	}
	return nil
}

func (v *View[T]) firstIndex() int {
	if v.pageSize == 0 {
		return 0
	}
	return (v.current - 1) * v.pageSize
}

// pageCount is ceil(n/size), with an empty dataset counting as one page.
func pageCount(n, size int) int {
	if n == 0 {
		return 1
	}
	return (n + size - 1) / size
}

// pageOf returns the 1-based page holding index i.
func pageOf(i, size int) int {
	return i/size + 1
}

// NextSize returns the allowed size following cur in PageSizes, wrapping
// around. Unknown sizes map to the first entry.
func NextSize(cur int) int {
	i := slices.Index(PageSizes, cur)
	if i < 0 {
		return PageSizes[0]
	}
	return PageSizes[(i+1)%len(PageSizes)]
}
