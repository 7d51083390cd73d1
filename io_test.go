package sparkframe

import (
	"bytes"
	"strings"
	"testing"
)

func TestReadCSVInfersTypes(t *testing.T) {
	data := "id,score,name,active\n1,1.5,ann,true\n2,2.5,bob,false\n"
	f, err := ReadCSVFromReader(strings.NewReader(data))
	if err != nil {
		t.Fatalf("ReadCSVFromReader failed: %v", err)
	}
	assertCells(t, f, "id", []any{int64(1), int64(2)})
	assertCells(t, f, "score", []any{1.5, 2.5})
	assertCells(t, f, "name", []any{"ann", "bob"})
	assertCells(t, f, "active", []any{true, false})
}

func TestReadCSVNullTokens(t *testing.T) {
	data := "v\n1\nNA\n3\n"
	f, err := ReadCSVFromReader(strings.NewReader(data))
	if err != nil {
		t.Fatalf("ReadCSVFromReader failed: %v", err)
	}
	assertCells(t, f, "v", []any{int64(1), nil, int64(3)})
}

func TestReadCSVForcedTypes(t *testing.T) {
	data := "v\n1\n2\n"
	opt := DefaultCSVReadOptions()
	opt.ColumnTypes = map[string]DType{"v": Float64}
	f, err := ReadCSVFromReader(strings.NewReader(data), opt)
	if err != nil {
		t.Fatalf("ReadCSVFromReader failed: %v", err)
	}
	assertCells(t, f, "v", []any{1.0, 2.0})
}

func TestCSVRoundTrip(t *testing.T) {
	f := mustFrame(t,
		NewSeriesInt64("id", []int64{1, 2}),
		NewSeries("note", []any{"hi", nil}),
	)
	var buf bytes.Buffer
	if err := f.WriteCSVToWriter(&buf); err != nil {
		t.Fatalf("WriteCSVToWriter failed: %v", err)
	}

	back, err := ReadCSVFromReader(&buf)
	if err != nil {
		t.Fatalf("ReadCSVFromReader failed: %v", err)
	}
	assertCells(t, back, "id", []any{int64(1), int64(2)})
	assertCells(t, back, "note", []any{"hi", nil})
}

func TestReadJSONRecords(t *testing.T) {
	data := `[{"id": 1, "name": "ann", "tags": ["go", "sql"]},
	          {"id": 2, "name": null, "score": 1.5}]`
	f, err := ReadJSONFromReader(strings.NewReader(data))
	if err != nil {
		t.Fatalf("ReadJSONFromReader failed: %v", err)
	}
	assertCells(t, f, "id", []any{int64(1), int64(2)})
	assertCells(t, f, "name", []any{"ann", nil})
	assertCells(t, f, "tags", []any{[]any{"go", "sql"}, nil})
	assertCells(t, f, "score", []any{nil, 1.5})
}

func TestReadJSONColumns(t *testing.T) {
	data := `{"b": [1, 2], "a": ["x", "y"]}`
	opt := JSONReadOptions{Format: JSONColumns}
	f, err := ReadJSONFromReader(strings.NewReader(data), opt)
	if err != nil {
		t.Fatalf("ReadJSONFromReader failed: %v", err)
	}
	cols := f.Columns()
	if len(cols) != 2 || cols[0] != "a" || cols[1] != "b" {
		t.Fatalf("column order = %v, want [a b]", cols)
	}
	assertCells(t, f, "b", []any{int64(1), int64(2)})
}

func TestReadJSONColumnsLengthMismatch(t *testing.T) {
	data := `{"a": [1, 2], "b": [1]}`
	opt := JSONReadOptions{Format: JSONColumns}
	if _, err := ReadJSONFromReader(strings.NewReader(data), opt); err == nil {
		t.Fatal("ragged column arrays should fail")
	}
}

func TestJSONRoundTrip(t *testing.T) {
	f := mustFrame(t,
		NewSeriesInt64("id", []int64{1, 2}),
		NewSeries("meta", []any{map[string]any{"k": "v"}, nil}),
	)
	var buf bytes.Buffer
	if err := f.WriteJSONToWriter(&buf); err != nil {
		t.Fatalf("WriteJSONToWriter failed: %v", err)
	}

	back, err := ReadJSONFromReader(&buf)
	if err != nil {
		t.Fatalf("ReadJSONFromReader failed: %v", err)
	}
	assertCells(t, back, "id", []any{int64(1), int64(2)})
	assertCells(t, back, "meta", []any{map[string]any{"k": "v"}, nil})
}

func TestArrowRoundTrip(t *testing.T) {
	f := mustFrame(t,
		NewSeriesInt64("id", []int64{1, 2, 3}),
		NewSeriesFloat64("score", []float64{0.5, 1.5, 2.5}),
		NewSeries("name", []any{"ann", nil, "cid"}),
		NewSeriesBool("ok", []bool{true, false, true}),
	)

	record, err := f.ToArrow(nil)
	if err != nil {
		t.Fatalf("ToArrow failed: %v", err)
	}
	defer record.Release()

	back, err := NewFrameFromArrow(record)
	if err != nil {
		t.Fatalf("NewFrameFromArrow failed: %v", err)
	}
	assertCells(t, back, "id", []any{int64(1), int64(2), int64(3)})
	assertCells(t, back, "score", []any{0.5, 1.5, 2.5})
	assertCells(t, back, "name", []any{"ann", nil, "cid"})
	assertCells(t, back, "ok", []any{true, false, true})
}

func TestArrowExportRejectsNested(t *testing.T) {
	f := mustFrame(t, NewSeries("xs", []any{[]any{int64(1)}}))
	if _, err := f.ToArrow(nil); err == nil {
		t.Fatal("exporting a list column to Arrow should fail")
	}
}
