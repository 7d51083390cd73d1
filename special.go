package sparkframe

import (
	"fmt"
)

// specialKind tags the two cardinality-affecting transformations.
type specialKind uint8

const (
	expandColumns specialKind = iota // wildcard: struct column flattened per field
	explodeRows                      // list column replicated into one row per element
)

// SpecialColumn is a selection entry whose evaluation can redefine the
// result's shape, unlike the map-only Column. It runs in three phases
// against the frame being assembled: preprocess captures metadata from
// the original frame, apply produces an ordinary series, and postprocess
// rewrites the assembled frame (flattening the struct column, or
// replicating rows per list element).
type SpecialColumn struct {
	kind   specialKind
	name   string
	source *Column
}

// Name returns the output column name before postprocessing.
func (sc *SpecialColumn) Name() string { return sc.name }

// Star selects every column of the frame: the selection entry expands
// in place into one output column per frame column, in frame order.
func Star() *SpecialColumn {
	return &SpecialColumn{kind: expandColumns, name: "*", source: Col("*")}
}

// Explode flattens a list column into rows: each row is replicated once
// per element of its list cell, the exploded column holding one element
// per replica. Rows whose cell is an empty list or null are dropped.
// Every other selected column's value is repeated alongside.
func Explode(c *Column) *SpecialColumn {
	return &SpecialColumn{kind: explodeRows, name: c.Name(), source: c}
}

// preprocess captures metadata from the frame as it was before any
// selected column was assigned.
func (sc *SpecialColumn) preprocess(f *Frame) ([]string, error) {
	if sc.kind == expandColumns {
		return f.Columns(), nil
	}
	return nil, nil
}

// apply produces the intermediate series assigned under sc's name.
func (sc *SpecialColumn) apply(f *Frame) (*Series, error) {
	s, err := sc.source.Eval(f)
	if err != nil {
		return nil, err
	}
	return s.Rename(sc.name), nil
}

// postprocess rewrites the assembled frame and the pending output name
// list. Expansion swaps the tuple column for one column per captured
// field; explosion replicates rows and redefines the row-id domain.
func (sc *SpecialColumn) postprocess(f *Frame, names []string, meta []string) (*Frame, []string, error) {
	switch sc.kind {
	case expandColumns:
		return sc.expand(f, names, meta)
	case explodeRows:
		out, err := sc.explode(f)
		return out, names, err
	default:
		return nil, nil, fmt.Errorf("unknown special column kind %d", sc.kind)
	}
}

func (sc *SpecialColumn) expand(f *Frame, names []string, meta []string) (*Frame, []string, error) {
	tuples := f.ColumnByName(sc.name)
	if tuples == nil {
		return nil, nil, fmt.Errorf("%w: %q", ErrUnknownColumn, sc.name)
	}
	fieldCols := make([]*Series, len(meta))
	for j, field := range meta {
		values := make([]any, tuples.Len())
		for i := 0; i < tuples.Len(); i++ {
			cell := tuples.Get(i)
			if cell == nil {
				continue
			}
			tup, ok := cell.([]any)
			if !ok || len(tup) != len(meta) {
				return nil, nil, fmt.Errorf("%w: wildcard cell has %T, want a %d-tuple", ErrTypeMismatch, cell, len(meta))
			}
			values[i] = tup[j]
		}
		fieldCols[j] = newSeriesWithIDs(field, f.ids, values)
	}

	// the flattened fields replace any columns already bearing their names
	replaced := make(map[string]bool, len(meta))
	for _, field := range meta {
		replaced[field] = true
	}
	cols := make([]*Series, 0, f.Width()+len(meta)-1)
	for _, col := range f.cols {
		switch {
		case col.Name() == sc.name:
			cols = append(cols, fieldCols...)
		case replaced[col.Name()]:
		default:
			cols = append(cols, col)
		}
	}
	out, err := newFrameWithIDs(f.ids, cols)
	if err != nil {
		return nil, nil, err
	}

	rewritten := make([]string, 0, len(names)+len(meta)-1)
	for _, n := range names {
		if n == sc.name {
			rewritten = append(rewritten, meta...)
		} else {
			rewritten = append(rewritten, n)
		}
	}
	return out, rewritten, nil
}

func (sc *SpecialColumn) explode(f *Frame) (*Frame, error) {
	lists := f.ColumnByName(sc.name)
	if lists == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownColumn, sc.name)
	}

	// per source row: how many replicas and which element each holds
	positions := make([]int, 0, f.Height())
	elements := make([]any, 0, f.Height())
	for i := 0; i < lists.Len(); i++ {
		cell := lists.Get(i)
		if cell == nil {
			continue
		}
		list, ok := cell.([]any)
		if !ok {
			return nil, fmt.Errorf("%w: EXPLODE needs a list cell, got %T", ErrTypeMismatch, cell)
		}
		for _, e := range list {
			positions = append(positions, i)
			elements = append(elements, e)
		}
	}

	cols := make([]*Series, len(f.cols))
	for j, col := range f.cols {
		var values []any
		if col.Name() == sc.name {
			values = elements
		} else {
			values = make([]any, len(positions))
			for i, p := range positions {
				values[i] = col.Get(p)
			}
		}
		cols[j] = NewSeries(col.Name(), values)
	}
	// exploded rows get a fresh row-id domain
	return NewFrame(cols...)
}
