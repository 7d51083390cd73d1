package sparkframe

import (
	"fmt"
	"sort"
)

// Frame is an ordered collection of named columns of equal length with a
// stable row-id identity per row. Frames are immutable: every operation
// returns a new frame and never mutates the receiver. Row ids survive
// filtering and reordering, which is what lets window and group results
// join back by identity rather than by position.
type Frame struct {
	ids    []int64
	cols   []*Series
	byName map[string]int
}

// NewFrame creates a frame from columns. All columns must have the same
// length and distinct names. Row ids are assigned sequentially.
func NewFrame(cols ...*Series) (*Frame, error) {
	height := 0
	if len(cols) > 0 {
		height = cols[0].Len()
	}
	ids := make([]int64, height)
	for i := range ids {
		ids[i] = int64(i)
	}
	return newFrameWithIDs(ids, cols)
}

func newFrameWithIDs(ids []int64, cols []*Series) (*Frame, error) {
	byName := make(map[string]int, len(cols))
	aligned := make([]*Series, len(cols))
	for i, col := range cols {
		if col.Len() != len(ids) {
			return nil, fmt.Errorf("column %q has %d rows, want %d", col.Name(), col.Len(), len(ids))
		}
		if _, dup := byName[col.Name()]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateName, col.Name())
		}
		byName[col.Name()] = i
		aligned[i] = newSeriesWithIDs(col.Name(), ids, col.values)
	}
	return &Frame{ids: ids, cols: aligned, byName: byName}, nil
}

// Height returns the number of rows.
func (f *Frame) Height() int { return len(f.ids) }

// Width returns the number of columns.
func (f *Frame) Width() int { return len(f.cols) }

// Count returns the number of rows.
func (f *Frame) Count() int { return f.Height() }

// Columns returns the ordered column names.
func (f *Frame) Columns() []string {
	names := make([]string, len(f.cols))
	for i, col := range f.cols {
		names[i] = col.Name()
	}
	return names
}

// ColumnByName returns the named column, or nil if absent.
func (f *Frame) ColumnByName(name string) *Series {
	i, ok := f.byName[name]
	if !ok {
		return nil
	}
	return f.cols[i]
}

// HasColumn reports whether the frame has a column with this name.
func (f *Frame) HasColumn(name string) bool {
	_, ok := f.byName[name]
	return ok
}

// RowIDs returns a copy of the frame's row ids in row order.
func (f *Frame) RowIDs() []int64 {
	out := make([]int64, len(f.ids))
	copy(out, f.ids)
	return out
}

// SelectColumns returns a frame restricted to the named columns, in the
// given order. Row ids are preserved.
func (f *Frame) SelectColumns(names ...string) (*Frame, error) {
	cols := make([]*Series, len(names))
	for i, name := range names {
		col := f.ColumnByName(name)
		if col == nil {
			return nil, fmt.Errorf("%w: %q", ErrUnknownColumn, name)
		}
		cols[i] = col
	}
	return newFrameWithIDs(f.ids, cols)
}

// WithColumnSeries returns a frame with the series added, replacing any
// existing column of the same name. The series must either share the
// frame's row length (positional alignment) or be realigned by the
// caller beforehand.
func (f *Frame) WithColumnSeries(s *Series) (*Frame, error) {
	if s.Len() != f.Height() {
		return nil, fmt.Errorf("column %q has %d rows, want %d", s.Name(), s.Len(), f.Height())
	}
	cols := make([]*Series, 0, len(f.cols)+1)
	replaced := false
	for _, col := range f.cols {
		if col.Name() == s.Name() {
			cols = append(cols, s)
			replaced = true
		} else {
			cols = append(cols, col)
		}
	}
	if !replaced {
		cols = append(cols, s)
	}
	return newFrameWithIDs(f.ids, cols)
}

// FilterByMask keeps the rows whose mask cell is true. The mask must be
// a Bool series aligned with the frame; null mask cells drop the row.
// Row ids of surviving rows are preserved.
func (f *Frame) FilterByMask(mask *Series) (*Frame, error) {
	if mask.Len() != f.Height() {
		return nil, fmt.Errorf("mask has %d rows, want %d", mask.Len(), f.Height())
	}
	positions := make([]int, 0, f.Height())
	for i := 0; i < mask.Len(); i++ {
		switch v := mask.Get(i).(type) {
		case bool:
			if v {
				positions = append(positions, i)
			}
		case nil:
			// null predicate keeps nothing
		default:
			return nil, fmt.Errorf("%w: filter mask must be Bool, got %T", ErrTypeMismatch, v)
		}
	}
	return f.takePositions(positions), nil
}

// takePositions builds a frame from a subset of row positions, keeping
// the original row ids.
func (f *Frame) takePositions(positions []int) *Frame {
	ids := make([]int64, len(positions))
	for i, p := range positions {
		ids[i] = f.ids[p]
	}
	cols := make([]*Series, len(f.cols))
	for i, col := range f.cols {
		cols[i] = newSeriesWithIDs(col.Name(), ids, col.gather(positions).values)
	}
	out, _ := newFrameWithIDs(ids, cols)
	return out
}

// Head returns the first n rows (all rows if n exceeds the height).
func (f *Frame) Head(n int) *Frame {
	if n > f.Height() {
		n = f.Height()
	}
	if n < 0 {
		n = 0
	}
	positions := make([]int, n)
	for i := range positions {
		positions[i] = i
	}
	return f.takePositions(positions)
}

// SortBy returns a frame with rows stably ordered by the named column.
func (f *Frame) SortBy(name string, ascending bool) (*Frame, error) {
	col := f.ColumnByName(name)
	if col == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownColumn, name)
	}
	positions := make([]int, f.Height())
	for i := range positions {
		positions[i] = i
	}
	var sortErr error
	sort.SliceStable(positions, func(i, j int) bool {
		a, b := col.Get(positions[i]), col.Get(positions[j])
		less, err := valueLess(a, b)
		if err != nil && sortErr == nil {
			sortErr = err
		}
		if !ascending {
			gt, err := valueLess(b, a)
			if err != nil && sortErr == nil {
				sortErr = err
			}
			return gt
		}
		return less
	})
	if sortErr != nil {
		return nil, fmt.Errorf("sort by %q: %w", name, sortErr)
	}
	return f.takePositions(positions), nil
}

// Sort orders rows by one or more columns, last key applied first so the
// first named column dominates (stable sorts compose right-to-left).
func (f *Frame) Sort(names []string, ascending bool) (*Frame, error) {
	out := f
	var err error
	for i := len(names) - 1; i >= 0; i-- {
		out, err = out.SortBy(names[i], ascending)
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Distinct drops duplicate rows, keeping the first occurrence. Rows are
// compared across all columns.
func (f *Frame) Distinct() *Frame {
	seen := make(map[string]struct{}, f.Height())
	positions := make([]int, 0, f.Height())
	parts := make([]any, len(f.cols))
	for i := 0; i < f.Height(); i++ {
		for j, col := range f.cols {
			parts[j] = col.Get(i)
		}
		key := encodeKey(parts)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		positions = append(positions, i)
	}
	return f.takePositions(positions)
}

// Concat appends the other frames below this one. All frames must share
// this frame's column set; columns are matched by name. The result gets
// a fresh row-id domain.
func (f *Frame) Concat(others ...*Frame) (*Frame, error) {
	names := f.Columns()
	total := f.Height()
	for _, o := range others {
		if err := sameColumnSet(names, o.Columns()); err != nil {
			return nil, err
		}
		total += o.Height()
	}
	cols := make([]*Series, len(names))
	for i, name := range names {
		values := make([]any, 0, total)
		values = append(values, f.cols[i].values...)
		for _, o := range others {
			values = append(values, o.ColumnByName(name).values...)
		}
		cols[i] = NewSeries(name, values)
	}
	out, err := NewFrame(cols...)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func sameColumnSet(a, b []string) error {
	if len(a) != len(b) {
		return fmt.Errorf("column sets differ: %v vs %v", a, b)
	}
	set := make(map[string]struct{}, len(a))
	for _, n := range a {
		set[n] = struct{}{}
	}
	for _, n := range b {
		if _, ok := set[n]; !ok {
			return fmt.Errorf("column sets differ: %v vs %v", a, b)
		}
	}
	return nil
}

// rowGroup is one group of a grouped frame: the key tuple plus the row
// ids belonging to it, in natural frame order.
type rowGroup struct {
	key  []any
	rows []int64
}

// groupIndex holds groups in first-encounter order.
type groupIndex struct {
	order  []string
	groups map[string]*rowGroup
}

func newGroupIndex() *groupIndex {
	return &groupIndex{groups: make(map[string]*rowGroup)}
}

func (gi *groupIndex) add(key []any, id int64) {
	enc := encodeKey(key)
	g, ok := gi.groups[enc]
	if !ok {
		g = &rowGroup{key: key}
		gi.groups[enc] = g
		gi.order = append(gi.order, enc)
	}
	g.rows = append(g.rows, id)
}

// merge folds the rows of key into the group of the (possibly
// wildcarded) tuple, creating it on first encounter.
func (gi *groupIndex) merge(key []any, rows []int64) {
	enc := encodeKey(key)
	g, ok := gi.groups[enc]
	if !ok {
		g = &rowGroup{key: key}
		gi.groups[enc] = g
		gi.order = append(gi.order, enc)
	}
	g.rows = append(g.rows, rows...)
}

// GroupIndices groups the frame's row ids by the exact value tuple of
// the key columns, in first-encounter order.
func (f *Frame) GroupIndices(keys ...string) (*groupIndex, error) {
	cols := make([]*Series, len(keys))
	for i, k := range keys {
		col := f.ColumnByName(k)
		if col == nil {
			return nil, fmt.Errorf("%w: %q", ErrUnknownColumn, k)
		}
		cols[i] = col
	}
	gi := newGroupIndex()
	for i := 0; i < f.Height(); i++ {
		key := make([]any, len(cols))
		for j, col := range cols {
			key[j] = col.Get(i)
		}
		gi.add(key, f.ids[i])
	}
	return gi, nil
}

// row returns the cells of one row position in column order.
func (f *Frame) row(i int) []any {
	out := make([]any, len(f.cols))
	for j, col := range f.cols {
		out[j] = col.Get(i)
	}
	return out
}

// String renders the frame with the default display config.
func (f *Frame) String() string {
	return f.StringWithConfig(GetDisplayConfig())
}
