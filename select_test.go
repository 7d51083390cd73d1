package sparkframe

import (
	"errors"
	"testing"
)

func TestSelectOrderAndNames(t *testing.T) {
	f := mustFrame(t,
		NewSeriesInt64("a", []int64{1, 2}),
		NewSeriesInt64("b", []int64{10, 20}),
	)
	out, err := f.Select(
		Col("b"),
		Col("a").Add(Col("b")).Alias("total"),
		Col("a"),
	)
	if err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	if got := out.Columns(); got[0] != "b" || got[1] != "total" || got[2] != "a" {
		t.Fatalf("columns = %v, want [b total a]", got)
	}
	assertCells(t, out, "total", []any{int64(11), int64(22)})
}

func TestSelectDuplicateNamesFail(t *testing.T) {
	f := mustFrame(t,
		NewSeriesInt64("x", []int64{1}),
		NewSeriesInt64("z", []int64{2}),
	)
	_, err := f.Select(Col("x").Alias("y"), Col("z").Alias("y"))
	if !errors.Is(err, ErrDuplicateName) {
		t.Fatalf("err = %v, want ErrDuplicateName", err)
	}
}

func TestSelectSeesEarlierOutputs(t *testing.T) {
	f := mustFrame(t, NewSeriesInt64("v", []int64{1, 2}))
	out, err := f.Select(
		Col("v").Mul(Lit(10)).Alias("big"),
		Col("big").Add(Lit(1)).Alias("bigger"),
	)
	if err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	assertCells(t, out, "bigger", []any{int64(11), int64(21)})
}

func TestSelectDefaultNames(t *testing.T) {
	f := mustFrame(t,
		NewSeriesInt64("a", []int64{1}),
		NewSeriesInt64("b", []int64{2}),
	)
	out, err := f.Select(Col("a").Add(Col("b")))
	if err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	if got := out.Columns()[0]; got != "(a + b)" {
		t.Errorf("column name = %q, want (a + b)", got)
	}
}

func TestSelectWindowColumn(t *testing.T) {
	f := mustFrame(t,
		NewSeriesString("g", []string{"a", "a", "b"}),
		NewSeriesInt64("v", []int64{1, 2, 3}),
	)
	out, err := f.Select(
		Col("g"),
		Lead(Col("v"), 1).Over(PartitionBy("g")).Alias("next"),
	)
	if err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	assertCells(t, out, "next", []any{int64(2), nil, nil})
}

func TestMinAllMaxAll(t *testing.T) {
	f := mustFrame(t,
		NewSeriesInt64("a", []int64{3, 1, 2}),
		NewSeriesFloat64("b", []float64{0.5, 2.5, 1.5}),
	)
	lo, err := f.MinAll()
	if err != nil {
		t.Fatalf("MinAll failed: %v", err)
	}
	assertCells(t, lo, "MIN(a)", []any{int64(1)})
	assertCells(t, lo, "MIN(b)", []any{0.5})

	hi, err := f.MaxAll()
	if err != nil {
		t.Fatalf("MaxAll failed: %v", err)
	}
	assertCells(t, hi, "MAX(a)", []any{int64(3)})
	assertCells(t, hi, "MAX(b)", []any{2.5})
}
