package sparkframe

import (
	"fmt"
)

// JoinHow selects the join mode.
type JoinHow string

const (
	JoinInner     JoinHow = "inner"
	JoinLeft      JoinHow = "left"
	JoinRight     JoinHow = "right"
	JoinOuter     JoinHow = "outer"
	JoinCross     JoinHow = "cross"
	JoinLeftSemi  JoinHow = "left_semi"
	JoinLeftAnti  JoinHow = "left_anti"
	JoinRightAnti JoinHow = "right_anti"
)

// Join matches rows of two frames by equality over the named key
// columns. The result carries the key columns once, then the left
// frame's remaining columns, then the right frame's, under a fresh
// row-id domain. Matching right rows are taken in right-frame order per
// left row. Non-key column names must not collide across the sides.
func (f *Frame) Join(other *Frame, on []string, how JoinHow) (*Frame, error) {
	switch how {
	case JoinInner, JoinLeft, JoinRight, JoinOuter, JoinCross, JoinLeftSemi, JoinLeftAnti, JoinRightAnti:
	default:
		return nil, fmt.Errorf("unsupported join mode %q", how)
	}

	if how == JoinLeftSemi {
		matched, err := f.matchMask(other, on, true)
		if err != nil {
			return nil, err
		}
		return f.FilterByMask(matched)
	}
	if how == JoinLeftAnti {
		unmatched, err := f.matchMask(other, on, false)
		if err != nil {
			return nil, err
		}
		return f.FilterByMask(unmatched)
	}
	if how == JoinRightAnti {
		return other.Join(f, on, JoinLeftAnti)
	}
	if how == JoinCross {
		return crossJoin(f, other)
	}

	for _, k := range on {
		if !f.HasColumn(k) || !other.HasColumn(k) {
			return nil, fmt.Errorf("%w: join key %q", ErrUnknownColumn, k)
		}
	}
	leftRest := restColumns(f, on)
	rightRest := restColumns(other, on)
	for _, n := range rightRest {
		if f.HasColumn(n) {
			return nil, fmt.Errorf("%w: column %q on both join sides", ErrDuplicateName, n)
		}
	}

	rightKeys, err := rowKeys(other, on)
	if err != nil {
		return nil, err
	}
	rightByKey := make(map[string][]int, other.Height())
	for i, k := range rightKeys {
		rightByKey[k] = append(rightByKey[k], i)
	}
	leftKeys, err := rowKeys(f, on)
	if err != nil {
		return nil, err
	}

	outNames := append(append(append([]string{}, on...), leftRest...), rightRest...)
	out := newRowCollector(outNames)
	rightMatched := make([]bool, other.Height())

	for i := range leftKeys {
		matches := rightByKey[leftKeys[i]]
		if len(matches) == 0 {
			if how == JoinLeft || how == JoinOuter {
				out.add(cellsOf(f, i, on), cellsOf(f, i, leftRest), nullCells(len(rightRest)))
			}
			continue
		}
		for _, j := range matches {
			rightMatched[j] = true
			if how == JoinRight {
				continue // right rows are emitted below, in right order
			}
			out.add(cellsOf(f, i, on), cellsOf(f, i, leftRest), cellsOf(other, j, rightRest))
		}
	}

	if how == JoinRight {
		leftByKey := make(map[string][]int, f.Height())
		for i, k := range leftKeys {
			leftByKey[k] = append(leftByKey[k], i)
		}
		for j, k := range rightKeys {
			matches := leftByKey[k]
			if len(matches) == 0 {
				out.add(cellsOf(other, j, on), nullCells(len(leftRest)), cellsOf(other, j, rightRest))
				continue
			}
			for _, i := range matches {
				out.add(cellsOf(other, j, on), cellsOf(f, i, leftRest), cellsOf(other, j, rightRest))
			}
		}
	}
	if how == JoinOuter {
		for j, hit := range rightMatched {
			if !hit {
				out.add(cellsOf(other, j, on), nullCells(len(leftRest)), cellsOf(other, j, rightRest))
			}
		}
	}

	return out.frame()
}

// CrossJoin pairs every row of f with every row of other.
func (f *Frame) CrossJoin(other *Frame) (*Frame, error) {
	return crossJoin(f, other)
}

func crossJoin(f, other *Frame) (*Frame, error) {
	for _, n := range other.Columns() {
		if f.HasColumn(n) {
			return nil, fmt.Errorf("%w: column %q on both join sides", ErrDuplicateName, n)
		}
	}
	leftNames := f.Columns()
	rightNames := other.Columns()
	out := newRowCollector(append(append([]string{}, leftNames...), rightNames...))
	for i := 0; i < f.Height(); i++ {
		for j := 0; j < other.Height(); j++ {
			out.add(cellsOf(f, i, leftNames), cellsOf(other, j, rightNames))
		}
	}
	return out.frame()
}

// matchMask marks each row of f by whether its key tuple occurs in
// other, for the semi/anti join filters.
func (f *Frame) matchMask(other *Frame, on []string, want bool) (*Series, error) {
	for _, k := range on {
		if !f.HasColumn(k) || !other.HasColumn(k) {
			return nil, fmt.Errorf("%w: join key %q", ErrUnknownColumn, k)
		}
	}
	otherKeys, err := rowKeys(other, on)
	if err != nil {
		return nil, err
	}
	present := make(map[string]struct{}, len(otherKeys))
	for _, k := range otherKeys {
		present[k] = struct{}{}
	}
	keys, err := rowKeys(f, on)
	if err != nil {
		return nil, err
	}
	values := make([]any, len(keys))
	for i, k := range keys {
		_, hit := present[k]
		values[i] = hit == want
	}
	return newSeriesWithIDs("", f.ids, values), nil
}

// Union concatenates the frames and drops duplicate rows. Both frames
// must share the same column set.
func (f *Frame) Union(other *Frame) (*Frame, error) {
	cat, err := f.Concat(other)
	if err != nil {
		return nil, err
	}
	return cat.Distinct(), nil
}

// Intersect keeps the distinct rows of f that also occur in other. Both
// frames must share the same column set.
func (f *Frame) Intersect(other *Frame) (*Frame, error) {
	if err := sameColumnSet(f.Columns(), other.Columns()); err != nil {
		return nil, err
	}
	matched, err := f.matchMask(other, f.Columns(), true)
	if err != nil {
		return nil, err
	}
	kept, err := f.FilterByMask(matched)
	if err != nil {
		return nil, err
	}
	return kept.Distinct(), nil
}

// Subtract removes the rows of f whose full tuple occurs in other. Both
// frames must share the same column set.
func (f *Frame) Subtract(other *Frame) (*Frame, error) {
	if err := sameColumnSet(f.Columns(), other.Columns()); err != nil {
		return nil, err
	}
	return f.Join(other, f.Columns(), JoinLeftAnti)
}

// ----------------------------------------------------------------------------
// Join assembly helpers
// ----------------------------------------------------------------------------

func restColumns(f *Frame, on []string) []string {
	keySet := make(map[string]struct{}, len(on))
	for _, k := range on {
		keySet[k] = struct{}{}
	}
	out := make([]string, 0, f.Width())
	for _, n := range f.Columns() {
		if _, isKey := keySet[n]; !isKey {
			out = append(out, n)
		}
	}
	return out
}

func rowKeys(f *Frame, on []string) ([]string, error) {
	cols := make([]*Series, len(on))
	for i, k := range on {
		cols[i] = f.ColumnByName(k)
	}
	keys := make([]string, f.Height())
	parts := make([]any, len(on))
	for i := 0; i < f.Height(); i++ {
		for j, col := range cols {
			parts[j] = col.Get(i)
		}
		keys[i] = encodeKey(parts)
	}
	return keys, nil
}

func cellsOf(f *Frame, row int, names []string) []any {
	out := make([]any, len(names))
	for i, n := range names {
		out[i] = f.ColumnByName(n).Get(row)
	}
	return out
}

func nullCells(n int) []any {
	return make([]any, n)
}

// rowCollector accumulates result rows column-wise for a fresh frame.
type rowCollector struct {
	names  []string
	values [][]any
}

func newRowCollector(names []string) *rowCollector {
	return &rowCollector{names: names, values: make([][]any, len(names))}
}

func (rc *rowCollector) add(cellGroups ...[]any) {
	i := 0
	for _, cells := range cellGroups {
		for _, v := range cells {
			rc.values[i] = append(rc.values[i], v)
			i++
		}
	}
}

func (rc *rowCollector) frame() (*Frame, error) {
	cols := make([]*Series, len(rc.names))
	for i, n := range rc.names {
		values := rc.values[i]
		if values == nil {
			values = []any{}
		}
		cols[i] = NewSeries(n, values)
	}
	return NewFrame(cols...)
}
