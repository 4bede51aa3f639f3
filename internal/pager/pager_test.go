package pager

import (
	"errors"
	"testing"
)

func seq(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

func mustNew(t *testing.T, size int, opts ...Option) *View[int] {
	t.Helper()
	v, err := New[int](size, opts...)
	if err != nil {
		t.Fatalf("New(%d): %v", size, err)
	}
	return v
}

func TestLoadPageCount(t *testing.T) {
	for n := 0; n <= 45; n++ {
		for p := 1; p <= 12; p++ {
			v := mustNew(t, p, WithAllowedSizes())
			v.Load(seq(n))
			want := (n + p - 1) / p
			if want < 1 {
				want = 1
			}
			got := v.Describe()
			if got.Total != want || got.Current != 1 {
				t.Fatalf("n=%d p=%d: got %+v, want {1 %d}", n, p, got, want)
			}
		}
	}
}

func TestPagesCoverDatasetInOrder(t *testing.T) {
	for n := 0; n <= 40; n++ {
		for _, p := range PageSizes {
			v := mustNew(t, p)
			v.Load(seq(n))

			var all []int
			for {
				page := v.Visible()
				if len(page) > p {
					t.Fatalf("n=%d p=%d: page of %d exceeds size", n, p, len(page))
				}
				all = append(all, page...)
				if !v.Next() {
					break
				}
			}
			if len(all) != n {
				t.Fatalf("n=%d p=%d: pages hold %d records", n, p, len(all))
			}
			for i, x := range all {
				if x != i {
					t.Fatalf("n=%d p=%d: record %d = %d, want %d", n, p, i, x, i)
				}
			}
		}
	}
}

func TestBoundariesAreNoOps(t *testing.T) {
	v := mustNew(t, 10)
	v.Load(seq(23))

	if v.Previous() {
		t.Error("Previous() on page 1 returned true")
	}
	if got := v.Describe().Current; got != 1 {
		t.Errorf("Current = %d after Previous at start, want 1", got)
	}

	v.Next()
	v.Next()
	if v.Next() {
		t.Error("Next() on last page returned true")
	}
	if got := v.Describe().Current; got != 3 {
		t.Errorf("Current = %d after Next at end, want 3", got)
	}
}

func TestTwentyThreeRecordsByTen(t *testing.T) {
	v := mustNew(t, 10)
	v.Load(seq(23))

	if got := v.Describe(); got != (Page{Current: 1, Total: 3}) {
		t.Fatalf("Describe() = %+v, want {1 3}", got)
	}
	wantLens := []int{10, 10, 3}
	for i, want := range wantLens {
		if got := len(v.Visible()); got != want {
			t.Errorf("page %d has %d records, want %d", i+1, got, want)
		}
		v.Next()
	}
}

func TestEmptyDataset(t *testing.T) {
	v := mustNew(t, 10)
	v.Load(nil)

	if got := v.Describe(); got != (Page{Current: 1, Total: 1}) {
		t.Errorf("Describe() = %+v, want {1 1}", got)
	}
	if got := v.Visible(); len(got) != 0 {
		t.Errorf("Visible() = %v, want empty", got)
	}
	if v.Next() {
		t.Error("Next() on empty dataset returned true")
	}
	if v.NeedsPaging() {
		t.Error("NeedsPaging() = true for empty dataset")
	}
}

func TestSetPageSizeResetsToFirstPage(t *testing.T) {
	v := mustNew(t, 10)
	v.Load(seq(23))
	v.Next()

	if err := v.SetPageSize(20); err != nil {
		t.Fatalf("SetPageSize(20): %v", err)
	}
	if got := v.Describe(); got != (Page{Current: 1, Total: 2}) {
		t.Errorf("Describe() = %+v, want {1 2}", got)
	}
}

func TestSetPageSizeInvalidLeavesState(t *testing.T) {
	v := mustNew(t, 10)
	v.Load(seq(23))
	v.Next()
	before := v.Describe()

	for _, size := range []int{0, -5, 7, 100} {
		err := v.SetPageSize(size)
		if !errors.Is(err, ErrInvalidArgument) {
			t.Errorf("SetPageSize(%d) error = %v, want ErrInvalidArgument", size, err)
		}
		if v.PageSize() != 10 {
			t.Errorf("PageSize() = %d after rejected %d, want 10", v.PageSize(), size)
		}
		if got := v.Describe(); got != before {
			t.Errorf("Describe() = %+v after rejected %d, want %+v", got, size, before)
		}
	}
}

func TestNewRejectsInvalidSize(t *testing.T) {
	if _, err := New[int](0); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("New(0) error = %v, want ErrInvalidArgument", err)
	}
	if _, err := New[int](3); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("New(3) error = %v, want ErrInvalidArgument", err)
	}
	if _, err := New[int](3, WithAllowedSizes()); err != nil {
		t.Errorf("New(3) with any size allowed: %v", err)
	}
}

func TestReloadResetsToFirstPage(t *testing.T) {
	v := mustNew(t, 5)
	v.Load(seq(23))
	v.Last()

	v.Load(seq(12))
	if got := v.Describe(); got != (Page{Current: 1, Total: 3}) {
		t.Errorf("Describe() = %+v, want {1 3}", got)
	}
}

func TestLoadCopiesInput(t *testing.T) {
	v := mustNew(t, 5)
	in := seq(3)
	v.Load(in)
	in[0] = 99

	if got := v.Visible()[0]; got != 0 {
		t.Errorf("Visible()[0] = %d after caller mutation, want 0", got)
	}
}

func TestKeepPositionPolicy(t *testing.T) {
	v := mustNew(t, 5, WithResetPolicy(KeepPosition))
	v.Load(seq(23))
	v.Next()
	v.Next() // records 10..14

	if err := v.SetPageSize(10); err != nil {
		t.Fatalf("SetPageSize(10): %v", err)
	}
	if got := v.Describe(); got != (Page{Current: 2, Total: 3}) {
		t.Errorf("after resize Describe() = %+v, want {2 3}", got)
	}
	if got := v.Visible()[0]; got != 10 {
		t.Errorf("first visible = %d, want 10", got)
	}

	v.Load(seq(8))
	if got := v.Describe(); got != (Page{Current: 1, Total: 1}) {
		t.Errorf("after shrink Describe() = %+v, want {1 1}", got)
	}
}

func TestFirstLastAndFlags(t *testing.T) {
	v := mustNew(t, 5)
	v.Load(seq(12))

	if v.HasPrevious() || !v.HasNext() {
		t.Errorf("page 1 flags: prev=%v next=%v", v.HasPrevious(), v.HasNext())
	}
	if !v.Last() {
		t.Error("Last() from page 1 returned false")
	}
	if v.Last() {
		t.Error("Last() on last page returned true")
	}
	if start, end := v.Range(); start != 10 || end != 12 {
		t.Errorf("Range() = [%d,%d), want [10,12)", start, end)
	}
	if !v.First() || v.Describe().Current != 1 {
		t.Errorf("First() did not return to page 1: %+v", v.Describe())
	}
}

func TestNextSizeCycles(t *testing.T) {
	got := []int{}
	size := 5
	for range PageSizes {
		size = NextSize(size)
		got = append(got, size)
	}
	want := []int{10, 15, 20, 5}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("NextSize cycle = %v, want %v", got, want)
		}
	}
	if NextSize(7) != 5 {
		t.Errorf("NextSize(7) = %d, want 5", NextSize(7))
	}
}

func TestPageString(t *testing.T) {
	if s := (Page{Current: 2, Total: 3}).String(); s != "Page 2 of 3" {
		t.Errorf("String() = %q", s)
	}
}
