package sparkframe

import (
	"errors"
	"testing"
)

func TestGroupBySum(t *testing.T) {
	f := mustFrame(t,
		NewSeriesInt64("id", []int64{1, 1, 2}),
		NewSeriesInt64("v", []int64{10, 20, 5}),
	)
	g, err := f.GroupBy("id")
	if err != nil {
		t.Fatalf("GroupBy failed: %v", err)
	}
	out, err := g.Agg(Sum(Col("v")))
	if err != nil {
		t.Fatalf("Agg failed: %v", err)
	}
	assertCells(t, out, "id", []any{int64(1), int64(2)})
	assertCells(t, out, "SUM(v)", []any{int64(30), int64(5)})
}

func TestGroupByFirstEncounterOrder(t *testing.T) {
	f := mustFrame(t,
		NewSeriesString("k", []string{"b", "a", "b", "c"}),
		NewSeriesInt64("v", []int64{1, 2, 3, 4}),
	)
	g, err := f.GroupBy("k")
	if err != nil {
		t.Fatalf("GroupBy failed: %v", err)
	}
	out, err := g.Agg(Count(Col("v")))
	if err != nil {
		t.Fatalf("Agg failed: %v", err)
	}
	assertCells(t, out, "k", []any{"b", "a", "c"})
	assertCells(t, out, "COUNT(v)", []any{int64(2), int64(1), int64(1)})
}

func TestGroupByListKeys(t *testing.T) {
	// list cells with the same printed form but different elements stay
	// separate groups
	f := mustFrame(t,
		NewSeries("k", []any{
			[]any{"a b"},
			[]any{"a", "b"},
			[]any{"a b"},
		}),
		NewSeriesInt64("v", []int64{1, 2, 4}),
	)
	g, err := f.GroupBy("k")
	if err != nil {
		t.Fatalf("GroupBy failed: %v", err)
	}
	if g.NumGroups() != 2 {
		t.Fatalf("NumGroups = %d, want 2", g.NumGroups())
	}
	out, err := g.Agg(Sum(Col("v")))
	if err != nil {
		t.Fatalf("Agg failed: %v", err)
	}
	assertCells(t, out, "SUM(v)", []any{int64(5), int64(2)})

	keysOnly, err := f.SelectColumns("k")
	if err != nil {
		t.Fatalf("SelectColumns failed: %v", err)
	}
	d := keysOnly.Distinct()
	if d.Height() != 2 {
		t.Fatalf("Distinct Height = %d, want 2", d.Height())
	}
}

func TestGroupByIsPartition(t *testing.T) {
	f := mustFrame(t,
		NewSeriesInt64("k", []int64{1, 2, 1, 3, 2}),
		NewSeriesInt64("v", []int64{1, 1, 1, 1, 1}),
	)
	g, err := f.GroupBy("k")
	if err != nil {
		t.Fatalf("GroupBy failed: %v", err)
	}
	seen := make(map[int64]int)
	for _, enc := range g.index.order {
		for _, id := range g.index.groups[enc].rows {
			seen[id]++
		}
	}
	if len(seen) != f.Height() {
		t.Fatalf("groups cover %d rows, want %d", len(seen), f.Height())
	}
	for id, n := range seen {
		if n != 1 {
			t.Errorf("row %d appears in %d groups, want 1", id, n)
		}
	}
}

func TestGroupByUnknownKey(t *testing.T) {
	f := mustFrame(t, NewSeriesInt64("v", []int64{1}))
	if _, err := f.GroupBy("nope"); !errors.Is(err, ErrInvalidGroupingKey) {
		t.Fatalf("err = %v, want ErrInvalidGroupingKey", err)
	}
}

func TestGroupByZeroKeys(t *testing.T) {
	f := mustFrame(t, NewSeriesInt64("v", []int64{1, 2, 3}))
	out, err := f.Agg(Sum(Col("v")), Count(Col("v")))
	if err != nil {
		t.Fatalf("Agg failed: %v", err)
	}
	if out.Height() != 1 {
		t.Fatalf("Height = %d, want 1", out.Height())
	}
	assertCells(t, out, "SUM(v)", []any{int64(6)})
	assertCells(t, out, "COUNT(v)", []any{int64(3)})
}

func TestAggDuplicateNames(t *testing.T) {
	f := mustFrame(t,
		NewSeriesInt64("id", []int64{1}),
		NewSeriesInt64("v", []int64{1}),
	)
	g, err := f.GroupBy("id")
	if err != nil {
		t.Fatalf("GroupBy failed: %v", err)
	}
	if _, err := g.Agg(Sum(Col("v")), Max(Col("v")).Alias("SUM(v)")); !errors.Is(err, ErrDuplicateName) {
		t.Fatalf("duplicate agg name: err = %v, want ErrDuplicateName", err)
	}
	if _, err := g.Agg(Sum(Col("v")).Alias("id")); !errors.Is(err, ErrDuplicateName) {
		t.Fatalf("agg name colliding with key: err = %v, want ErrDuplicateName", err)
	}
}

func TestRollupLevels(t *testing.T) {
	f := mustFrame(t,
		NewSeriesString("a", []string{"x", "x", "y"}),
		NewSeriesInt64("b", []int64{1, 2, 1}),
		NewSeriesInt64("v", []int64{10, 20, 30}),
	)
	g, err := f.Rollup("a", "b")
	if err != nil {
		t.Fatalf("Rollup failed: %v", err)
	}
	out, err := g.Agg(Sum(Col("v")))
	if err != nil {
		t.Fatalf("Agg failed: %v", err)
	}

	// detail groups, then per-a subtotals, then the grand total
	assertCells(t, out, "a", []any{"x", "x", "y", "x", "y", nil})
	assertCells(t, out, "b", []any{int64(1), int64(2), int64(1), nil, nil, nil})
	assertCells(t, out, "SUM(v)", []any{int64(10), int64(20), int64(30), int64(30), int64(30), int64(60)})
}

func TestRollupGrandTotalMatchesWholeTable(t *testing.T) {
	f := mustFrame(t,
		NewSeriesString("k", []string{"a", "b", "a"}),
		NewSeriesInt64("v", []int64{1, 2, 4}),
	)
	g, err := f.Rollup("k")
	if err != nil {
		t.Fatalf("Rollup failed: %v", err)
	}
	out, err := g.Agg(Sum(Col("v")))
	if err != nil {
		t.Fatalf("Agg failed: %v", err)
	}
	whole, err := f.Agg(Sum(Col("v")))
	if err != nil {
		t.Fatalf("whole-table Agg failed: %v", err)
	}

	sums := columnCells(t, out, "SUM(v)")
	total := sums[len(sums)-1]
	if !valueEqual(total, columnCells(t, whole, "SUM(v)")[0]) {
		t.Errorf("grand total = %v, want %v", total, columnCells(t, whole, "SUM(v)")[0])
	}
}

func TestCubeGranularities(t *testing.T) {
	f := mustFrame(t,
		NewSeriesString("a", []string{"x", "x", "y"}),
		NewSeriesInt64("b", []int64{1, 2, 1}),
		NewSeriesInt64("v", []int64{10, 20, 30}),
	)
	g, err := f.Cube("a", "b")
	if err != nil {
		t.Fatalf("Cube failed: %v", err)
	}
	out, err := g.Agg(Sum(Col("v")))
	if err != nil {
		t.Fatalf("Agg failed: %v", err)
	}

	// 2^2 granularities over 3 distinct detail tuples:
	// (a,b) x3, (a,*) x2, (*,b) x2, (*,*) x1
	if out.Height() != 8 {
		t.Fatalf("Height = %d, want 8", out.Height())
	}
	assertCells(t, out, "a", []any{"x", "x", "y", "x", "y", nil, nil, nil})
	assertCells(t, out, "b", []any{int64(1), int64(2), int64(1), nil, nil, int64(1), int64(2), nil})
	assertCells(t, out, "SUM(v)", []any{
		int64(10), int64(20), int64(30),
		int64(30), int64(30),
		int64(40), int64(20),
		int64(60),
	})
}

func TestWildcardDistinctFromNullKey(t *testing.T) {
	// a genuinely-null key value must not merge with a rollup wildcard
	f := mustFrame(t,
		NewSeries("k", []any{nil, "a"}),
		NewSeriesInt64("v", []int64{1, 2}),
	)
	g, err := f.Rollup("k")
	if err != nil {
		t.Fatalf("Rollup failed: %v", err)
	}
	if g.NumGroups() != 3 {
		t.Fatalf("NumGroups = %d, want 3 (null group, a group, grand total)", g.NumGroups())
	}
}

func TestAggregateConstructors(t *testing.T) {
	f := mustFrame(t,
		NewSeriesInt64("id", []int64{1, 1, 1, 2}),
		NewSeries("v", []any{int64(4), int64(2), int64(4), nil}),
	)
	g, err := f.GroupBy("id")
	if err != nil {
		t.Fatalf("GroupBy failed: %v", err)
	}
	out, err := g.Agg(
		Min(Col("v")), Max(Col("v")), Mean(Col("v")),
		First(Col("v")), Last(Col("v")),
		CountDistinct(Col("v")), SumDistinct(Col("v")),
	)
	if err != nil {
		t.Fatalf("Agg failed: %v", err)
	}
	assertCells(t, out, "MIN(v)", []any{int64(2), nil})
	assertCells(t, out, "MAX(v)", []any{int64(4), nil})
	assertCells(t, out, "MEAN(v)", []any{float64(10) / 3, nil})
	assertCells(t, out, "FIRST(v)", []any{int64(4), nil})
	assertCells(t, out, "LAST(v)", []any{int64(4), nil})
	assertCells(t, out, "COUNT DISTINCT(v)", []any{int64(2), int64(0)})
	assertCells(t, out, "SUM DISTINCT(v)", []any{int64(6), nil})
}

func TestCollectListAndSet(t *testing.T) {
	f := mustFrame(t,
		NewSeriesInt64("id", []int64{1, 1, 1}),
		NewSeriesString("v", []string{"a", "b", "a"}),
	)
	g, err := f.GroupBy("id")
	if err != nil {
		t.Fatalf("GroupBy failed: %v", err)
	}
	out, err := g.Agg(CollectList(Col("v")), CollectSet(Col("v")))
	if err != nil {
		t.Fatalf("Agg failed: %v", err)
	}
	list := columnCells(t, out, "COLLECT_LIST(v)")[0].([]any)
	if len(list) != 3 {
		t.Errorf("collect_list = %v, want 3 entries", list)
	}
	set := columnCells(t, out, "COLLECT_SET(v)")[0].([]any)
	if len(set) != 2 || !valueEqual(set[0], "a") || !valueEqual(set[1], "b") {
		t.Errorf("collect_set = %v, want [a b]", set)
	}
}

func TestCorr(t *testing.T) {
	f := mustFrame(t,
		NewSeriesInt64("id", []int64{1, 1, 1}),
		NewSeriesFloat64("x", []float64{1, 2, 3}),
		NewSeriesFloat64("y", []float64{2, 4, 6}),
	)
	g, err := f.GroupBy("id")
	if err != nil {
		t.Fatalf("GroupBy failed: %v", err)
	}
	out, err := g.Agg(Corr(Col("x"), Col("y")))
	if err != nil {
		t.Fatalf("Agg failed: %v", err)
	}
	got := columnCells(t, out, "CORR(x, y)")[0]
	if !valueEqual(got, 1.0) {
		t.Errorf("perfect correlation = %v, want 1", got)
	}
}
