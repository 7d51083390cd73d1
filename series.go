package sparkframe

import (
	"fmt"
	"sync"
)

// Series is an ordered sequence of dynamic values keyed by row identity.
// A series produced by evaluating an expression against a frame has
// exactly the frame's row ids as its domain, in the frame's row order.
// Series are never mutated after construction.
type Series struct {
	name   string
	ids    []int64
	values []any

	// position-by-id lookup, built once on first Loc call; the Once
	// keeps concurrent readers from racing on the build
	posOnce sync.Once
	posByID map[int64]int
}

// NewSeries creates a series from dynamic values. Row ids are assigned
// sequentially; values are normalized to the canonical cell types.
func NewSeries(name string, values []any) *Series {
	ids := make([]int64, len(values))
	vals := make([]any, len(values))
	for i, v := range values {
		ids[i] = int64(i)
		vals[i] = normalizeValue(v)
	}
	return &Series{name: name, ids: ids, values: vals}
}

// newSeriesWithIDs builds a series over an existing row-id domain.
// The slices are owned by the new series.
func newSeriesWithIDs(name string, ids []int64, values []any) *Series {
	return &Series{name: name, ids: ids, values: values}
}

// NewSeriesInt64 creates an Int64 series.
func NewSeriesInt64(name string, data []int64) *Series {
	values := make([]any, len(data))
	for i, v := range data {
		values[i] = v
	}
	return NewSeries(name, values)
}

// NewSeriesFloat64 creates a Float64 series.
func NewSeriesFloat64(name string, data []float64) *Series {
	values := make([]any, len(data))
	for i, v := range data {
		values[i] = v
	}
	return NewSeries(name, values)
}

// NewSeriesBool creates a Bool series.
func NewSeriesBool(name string, data []bool) *Series {
	values := make([]any, len(data))
	for i, v := range data {
		values[i] = v
	}
	return NewSeries(name, values)
}

// NewSeriesString creates a String series.
func NewSeriesString(name string, data []string) *Series {
	values := make([]any, len(data))
	for i, v := range data {
		values[i] = v
	}
	return NewSeries(name, values)
}

// NewSeriesList creates a List series; each cell is one list.
func NewSeriesList(name string, data [][]any) *Series {
	values := make([]any, len(data))
	for i, v := range data {
		if v == nil {
			values[i] = nil
			continue
		}
		cell := make([]any, len(v))
		for j, e := range v {
			cell[j] = normalizeValue(e)
		}
		values[i] = cell
	}
	return NewSeries(name, values)
}

// Name returns the series name.
func (s *Series) Name() string { return s.name }

// Len returns the number of rows.
func (s *Series) Len() int { return len(s.values) }

// Get returns the value at position i.
func (s *Series) Get(i int) any { return s.values[i] }

// ID returns the row id at position i.
func (s *Series) ID(i int) int64 { return s.ids[i] }

// IDs returns a copy of the row-id domain.
func (s *Series) IDs() []int64 {
	out := make([]int64, len(s.ids))
	copy(out, s.ids)
	return out
}

// Values returns a copy of the cell values in row order.
func (s *Series) Values() []any {
	out := make([]any, len(s.values))
	copy(out, s.values)
	return out
}

// Loc returns the value for a row id, and whether the id is present.
func (s *Series) Loc(id int64) (any, bool) {
	pos, ok := s.pos(id)
	if !ok {
		return nil, false
	}
	return s.values[pos], true
}

func (s *Series) pos(id int64) (int, bool) {
	s.posOnce.Do(func() {
		s.posByID = make(map[int64]int, len(s.ids))
		for i, rid := range s.ids {
			s.posByID[rid] = i
		}
	})
	pos, ok := s.posByID[id]
	return pos, ok
}

// Rename returns a series with the same rows under a new name.
func (s *Series) Rename(name string) *Series {
	return &Series{name: name, ids: s.ids, values: s.values}
}

// DType infers the column type of the series.
func (s *Series) DType() DType { return seriesDType(s) }

// gather restricts the series to the given positions, keeping row ids.
func (s *Series) gather(positions []int) *Series {
	ids := make([]int64, len(positions))
	values := make([]any, len(positions))
	for i, p := range positions {
		ids[i] = s.ids[p]
		values[i] = s.values[p]
	}
	return newSeriesWithIDs(s.name, ids, values)
}

// gatherIDs restricts the series to the given row ids, in that order.
func (s *Series) gatherIDs(ids []int64) (*Series, error) {
	values := make([]any, len(ids))
	outIDs := make([]int64, len(ids))
	for i, id := range ids {
		pos, ok := s.pos(id)
		if !ok {
			return nil, fmt.Errorf("series %q: row id %d not present", s.name, id)
		}
		outIDs[i] = id
		values[i] = s.values[pos]
	}
	return newSeriesWithIDs(s.name, outIDs, values), nil
}
