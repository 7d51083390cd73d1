package sparkframe

import (
	"errors"
	"fmt"
	"sync"
	"testing"
)

func mustFrame(t *testing.T, cols ...*Series) *Frame {
	t.Helper()
	f, err := NewFrame(cols...)
	if err != nil {
		t.Fatalf("NewFrame failed: %v", err)
	}
	return f
}

func columnCells(t *testing.T, f *Frame, name string) []any {
	t.Helper()
	col := f.ColumnByName(name)
	if col == nil {
		t.Fatalf("column %q missing, have %v", name, f.Columns())
	}
	out := make([]any, col.Len())
	for i := range out {
		out[i] = col.Get(i)
	}
	return out
}

func assertCells(t *testing.T, f *Frame, name string, want []any) {
	t.Helper()
	got := columnCells(t, f, name)
	if len(got) != len(want) {
		t.Fatalf("column %q has %d cells, want %d (%v)", name, len(got), len(want), got)
	}
	for i := range want {
		if !valueEqual(got[i], want[i]) {
			t.Errorf("column %q cell %d = %v, want %v", name, i, got[i], want[i])
		}
	}
}

func TestNewFrameDuplicateName(t *testing.T) {
	_, err := NewFrame(
		NewSeriesInt64("a", []int64{1}),
		NewSeriesInt64("a", []int64{2}),
	)
	if !errors.Is(err, ErrDuplicateName) {
		t.Fatalf("NewFrame with duplicate names: err = %v, want ErrDuplicateName", err)
	}
}

func TestNewFrameLengthMismatch(t *testing.T) {
	_, err := NewFrame(
		NewSeriesInt64("a", []int64{1, 2}),
		NewSeriesInt64("b", []int64{1}),
	)
	if err == nil {
		t.Fatal("NewFrame with mismatched lengths should fail")
	}
}

func TestFilterPreservesRowIDs(t *testing.T) {
	f := mustFrame(t,
		NewSeriesInt64("v", []int64{10, 20, 30, 40}),
	)
	out, err := f.Filter(Col("v").Gt(Lit(15)))
	if err != nil {
		t.Fatalf("Filter failed: %v", err)
	}
	assertCells(t, out, "v", []any{int64(20), int64(30), int64(40)})

	ids := out.RowIDs()
	want := []int64{1, 2, 3}
	for i := range want {
		if ids[i] != want[i] {
			t.Errorf("row id %d = %d, want %d", i, ids[i], want[i])
		}
	}
}

func TestFilterNullPredicateDropsRow(t *testing.T) {
	f := mustFrame(t, NewSeries("v", []any{int64(1), nil, int64(3)}))
	out, err := f.Filter(Col("v").Gt(Lit(0)))
	if err != nil {
		t.Fatalf("Filter failed: %v", err)
	}
	if out.Height() != 2 {
		t.Fatalf("Height = %d, want 2", out.Height())
	}
}

func TestSortStable(t *testing.T) {
	f := mustFrame(t,
		NewSeriesInt64("k", []int64{2, 1, 2, 1}),
		NewSeriesString("tag", []string{"a", "b", "c", "d"}),
	)
	out, err := f.Sort([]string{"k"}, true)
	if err != nil {
		t.Fatalf("Sort failed: %v", err)
	}
	assertCells(t, out, "k", []any{int64(1), int64(1), int64(2), int64(2)})
	assertCells(t, out, "tag", []any{"b", "d", "a", "c"})
}

func TestSortMultipleKeys(t *testing.T) {
	f := mustFrame(t,
		NewSeriesInt64("a", []int64{1, 2, 1, 2}),
		NewSeriesInt64("b", []int64{9, 3, 4, 1}),
	)
	out, err := f.Sort([]string{"a", "b"}, true)
	if err != nil {
		t.Fatalf("Sort failed: %v", err)
	}
	assertCells(t, out, "a", []any{int64(1), int64(1), int64(2), int64(2)})
	assertCells(t, out, "b", []any{int64(4), int64(9), int64(1), int64(3)})
}

func TestDistinct(t *testing.T) {
	f := mustFrame(t,
		NewSeriesInt64("a", []int64{1, 1, 2, 1}),
		NewSeriesString("b", []string{"x", "x", "y", "z"}),
	)
	out := f.Distinct()
	assertCells(t, out, "a", []any{int64(1), int64(2), int64(1)})
	assertCells(t, out, "b", []any{"x", "y", "z"})
}

func TestConcatFreshIDs(t *testing.T) {
	a := mustFrame(t, NewSeriesInt64("v", []int64{1, 2}))
	b := mustFrame(t, NewSeriesInt64("v", []int64{3}))
	out, err := a.Concat(b)
	if err != nil {
		t.Fatalf("Concat failed: %v", err)
	}
	assertCells(t, out, "v", []any{int64(1), int64(2), int64(3)})
	ids := out.RowIDs()
	for i := range ids {
		if ids[i] != int64(i) {
			t.Errorf("row id %d = %d, want %d", i, ids[i], i)
		}
	}
}

func TestConcatColumnSetMismatch(t *testing.T) {
	a := mustFrame(t, NewSeriesInt64("v", []int64{1}))
	b := mustFrame(t, NewSeriesInt64("w", []int64{1}))
	if _, err := a.Concat(b); err == nil {
		t.Fatal("Concat with different column sets should fail")
	}
}

func TestHead(t *testing.T) {
	f := mustFrame(t, NewSeriesInt64("v", []int64{1, 2, 3}))
	if got := f.Head(2).Height(); got != 2 {
		t.Errorf("Head(2).Height() = %d, want 2", got)
	}
	if got := f.Head(10).Height(); got != 3 {
		t.Errorf("Head(10).Height() = %d, want 3", got)
	}
}

func TestWithColumnReplaces(t *testing.T) {
	f := mustFrame(t, NewSeriesInt64("v", []int64{1, 2}))
	out, err := f.WithColumn("v", Col("v").Mul(Lit(10)))
	if err != nil {
		t.Fatalf("WithColumn failed: %v", err)
	}
	if out.Width() != 1 {
		t.Fatalf("Width = %d, want 1", out.Width())
	}
	assertCells(t, out, "v", []any{int64(10), int64(20)})
}

func TestWithColumnRenamed(t *testing.T) {
	f := mustFrame(t, NewSeriesInt64("v", []int64{1}))
	out, err := f.WithColumnRenamed("v", "w")
	if err != nil {
		t.Fatalf("WithColumnRenamed failed: %v", err)
	}
	if !out.HasColumn("w") || out.HasColumn("v") {
		t.Errorf("columns = %v, want [w]", out.Columns())
	}
}

func TestDropIgnoresUnknown(t *testing.T) {
	f := mustFrame(t,
		NewSeriesInt64("a", []int64{1}),
		NewSeriesInt64("b", []int64{2}),
	)
	out, err := f.Drop("b", "missing")
	if err != nil {
		t.Fatalf("Drop failed: %v", err)
	}
	if out.Width() != 1 || !out.HasColumn("a") {
		t.Errorf("columns = %v, want [a]", out.Columns())
	}
}

func TestSeriesLoc(t *testing.T) {
	f := mustFrame(t, NewSeriesInt64("v", []int64{10, 20, 30}))
	filtered, err := f.Filter(Col("v").Gt(Lit(10)))
	if err != nil {
		t.Fatalf("Filter failed: %v", err)
	}
	col := filtered.ColumnByName("v")
	v, ok := col.Loc(2)
	if !ok || !valueEqual(v, int64(30)) {
		t.Errorf("Loc(2) = %v, %v, want 30, true", v, ok)
	}
	if _, ok := col.Loc(0); ok {
		t.Error("Loc(0) should miss after the row was filtered out")
	}
}

func TestSeriesLocConcurrent(t *testing.T) {
	values := make([]int64, 1000)
	for i := range values {
		values[i] = int64(i * 10)
	}
	col := NewSeriesInt64("v", values)

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for id := int64(0); id < 1000; id++ {
				v, ok := col.Loc(id)
				if !ok || !valueEqual(v, id*10) {
					errs <- fmt.Errorf("Loc(%d) = %v, %v, want %d, true", id, v, ok, id*10)
					return
				}
			}
		}()
	}
	wg.Wait()
	close(errs)
	if err := <-errs; err != nil {
		t.Fatal(err)
	}
}
