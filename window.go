package sparkframe

import (
	"fmt"
	"sort"
	"strings"
)

// Window describes how each row resolves its partition and the ordered
// sequence of row ids it may look at. A window is built once per Over
// call and is immutable.
//
// Resolution keeps two explicit maps: row id -> representative group
// key, and group key -> ordered member row ids. They are allowed to
// disagree in membership direction: the group a row is represented by
// can list member rows outside the row's nominal partition, which is
// what lets lead/lag scan neighbors beyond it.
type Window struct {
	partitionKeys []string
	orderKey      string
}

// PartitionBy starts a window over the given partition columns. With no
// columns the whole frame forms a single partition.
func PartitionBy(cols ...string) *Window {
	return &Window{partitionKeys: cols}
}

// OrderBy returns a window whose per-partition row order follows the
// named column (ascending, ties keep natural frame order) instead of the
// frame's natural row order.
func (w *Window) OrderBy(col string) *Window {
	return &Window{partitionKeys: w.partitionKeys, orderKey: col}
}

// Name renders the window for output column names.
func (w *Window) Name() string {
	var b strings.Builder
	if len(w.partitionKeys) > 0 {
		b.WriteString("PARTITION BY ")
		b.WriteString(strings.Join(w.partitionKeys, ", "))
	}
	if w.orderKey != "" {
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString("ORDER BY ")
		b.WriteString(w.orderKey)
	}
	return b.String()
}

// orderColumn is the implicit source for positional transforms that take
// no column of their own (rank, dense_rank).
func (w *Window) orderColumn() (*Column, error) {
	if w.orderKey == "" {
		return nil, fmt.Errorf("%w: window has no ORDER BY column", ErrNotWindowable)
	}
	return Col(w.orderKey), nil
}

// windowGroups is the resolved form of a window against one frame.
type windowGroups struct {
	rowToGroup  map[int64]string
	groupToRows map[string][]int64
	positionOf  map[int64]int // position of each row inside its group
}

// resolve builds the row/group maps for a frame. Member row order is the
// frame's natural row order restricted to the group, re-sorted by the
// ORDER BY column when one is set.
func (w *Window) resolve(f *Frame) (*windowGroups, error) {
	cols := make([]*Series, len(w.partitionKeys))
	for i, k := range w.partitionKeys {
		col := f.ColumnByName(k)
		if col == nil {
			return nil, fmt.Errorf("%w: window partition key %q", ErrUnknownColumn, k)
		}
		cols[i] = col
	}

	wg := &windowGroups{
		rowToGroup:  make(map[int64]string, f.Height()),
		groupToRows: make(map[string][]int64),
		positionOf:  make(map[int64]int, f.Height()),
	}
	key := make([]any, len(cols))
	for i := 0; i < f.Height(); i++ {
		for j, col := range cols {
			key[j] = col.Get(i)
		}
		enc := encodeKey(key)
		id := f.ids[i]
		wg.rowToGroup[id] = enc
		wg.groupToRows[enc] = append(wg.groupToRows[enc], id)
	}

	if w.orderKey != "" {
		orderCol := f.ColumnByName(w.orderKey)
		if orderCol == nil {
			return nil, fmt.Errorf("%w: window order key %q", ErrUnknownColumn, w.orderKey)
		}
		var sortErr error
		for _, rows := range wg.groupToRows {
			sort.SliceStable(rows, func(i, j int) bool {
				a, _ := orderCol.Loc(rows[i])
				b, _ := orderCol.Loc(rows[j])
				less, err := valueLess(a, b)
				if err != nil && sortErr == nil {
					sortErr = err
				}
				return less
			})
		}
		if sortErr != nil {
			return nil, fmt.Errorf("window order by %q: %w", w.orderKey, sortErr)
		}
	}

	for _, rows := range wg.groupToRows {
		for pos, id := range rows {
			wg.positionOf[id] = pos
		}
	}
	return wg, nil
}

// WindowColumn is a positional window transform: unlike a plain
// aggregate it receives the full source series, the ordered member rows
// of the partition, and the row's own position among them. It cannot be
// applied as a grouped aggregate.
type WindowColumn struct {
	fn        string
	alias     string
	source    *Column // nil: fall back to the window's ORDER BY column
	transform func(src *Series, rows []int64, pos int) (any, error)
}

// Name returns the output column name, "FN(source)" unless aliased.
func (wc *WindowColumn) Name() string {
	if wc.alias != "" {
		return wc.alias
	}
	if wc.source == nil {
		return wc.fn
	}
	return wc.fn + "(" + wc.source.Name() + ")"
}

// Alias returns the transform under a new output name.
func (wc *WindowColumn) Alias(name string) *WindowColumn {
	return &WindowColumn{fn: wc.fn, alias: name, source: wc.source, transform: wc.transform}
}

// prepare implements Aggregator but always refuses: positional
// transforms are meaningless without ordering context.
func (wc *WindowColumn) prepare(*Frame) (*Series, error) {
	return nil, fmt.Errorf("%w: cannot aggregate grouped data with %s; use Over", ErrNotWindowable, wc.Name())
}

func (wc *WindowColumn) reduceGroup(*Series, []int64) (any, error) {
	return nil, fmt.Errorf("%w: cannot aggregate grouped data with %s; use Over", ErrNotWindowable, wc.Name())
}

// Over lifts the transform into an ordinary column evaluated against a
// window.
func (wc *WindowColumn) Over(w *Window) *Column {
	return &Column{node: &windowOverExpr{wt: wc, win: w}}
}

// ----------------------------------------------------------------------------
// Window functions
// ----------------------------------------------------------------------------

// Lead looks n rows ahead within the row's window partition; null past
// the end.
func Lead(c *Column, n int) *WindowColumn {
	return &WindowColumn{
		fn:     fmt.Sprintf("LEAD %d", n),
		source: c,
		transform: func(src *Series, rows []int64, pos int) (any, error) {
			if pos+n >= len(rows) || pos+n < 0 {
				return nil, nil
			}
			v, ok := src.Loc(rows[pos+n])
			if !ok {
				return nil, fmt.Errorf("window row %d missing from source series", rows[pos+n])
			}
			return v, nil
		},
	}
}

// Lag looks n rows back within the row's window partition; null before
// the start.
func Lag(c *Column, n int) *WindowColumn {
	return &WindowColumn{
		fn:     fmt.Sprintf("LAG %d", n),
		source: c,
		transform: func(src *Series, rows []int64, pos int) (any, error) {
			if pos-n < 0 || pos-n >= len(rows) {
				return nil, nil
			}
			v, ok := src.Loc(rows[pos-n])
			if !ok {
				return nil, fmt.Errorf("window row %d missing from source series", rows[pos-n])
			}
			return v, nil
		},
	}
}

// Rank returns the 0-based position of the first occurrence of the
// row's order value within the ordered partition. Repeated values all
// take the first occurrence's position; this index-of lookup is not a
// tie-aware SQL rank.
func Rank() *WindowColumn {
	return &WindowColumn{
		fn: "RANK",
		transform: func(src *Series, rows []int64, pos int) (any, error) {
			own, ok := src.Loc(rows[pos])
			if !ok {
				return nil, fmt.Errorf("window row %d missing from source series", rows[pos])
			}
			for i, id := range rows {
				v, ok := src.Loc(id)
				if !ok {
					return nil, fmt.Errorf("window row %d missing from source series", id)
				}
				if valueEqual(v, own) {
					return int64(i), nil
				}
			}
			return int64(pos), nil
		},
	}
}

// DenseRank returns the row's raw position within the ordered partition.
// It does not collapse tied values; the simplified semantics are kept
// deliberately.
func DenseRank() *WindowColumn {
	return &WindowColumn{
		fn: "DENSE RANK",
		transform: func(src *Series, rows []int64, pos int) (any, error) {
			return int64(pos), nil
		},
	}
}

// RowNumber numbers rows within their partition starting at 1.
func RowNumber() *WindowColumn {
	return &WindowColumn{
		fn: "ROW_NUMBER",
		transform: func(src *Series, rows []int64, pos int) (any, error) {
			return int64(pos + 1), nil
		},
	}
}

// ----------------------------------------------------------------------------
// Over evaluation
// ----------------------------------------------------------------------------

func evalAggOver(e *aggOverExpr, f *Frame) (*Series, error) {
	src, err := e.agg.prepare(f)
	if err != nil {
		return nil, err
	}
	wg, err := e.win.resolve(f)
	if err != nil {
		return nil, err
	}

	// one reduction per group, broadcast to its rows
	groupValue := make(map[string]any, len(wg.groupToRows))
	for key, rows := range wg.groupToRows {
		v, err := e.agg.reduceGroup(src, rows)
		if err != nil {
			return nil, err
		}
		groupValue[key] = v
	}

	values := make([]any, f.Height())
	for i, id := range f.ids {
		values[i] = groupValue[wg.rowToGroup[id]]
	}
	return newSeriesWithIDs(e.name(), f.ids, values), nil
}

func evalWindowOver(e *windowOverExpr, f *Frame) (*Series, error) {
	source := e.wt.source
	if source == nil {
		var err error
		source, err = e.win.orderColumn()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", e.wt.Name(), err)
		}
	}
	src, err := source.Eval(f)
	if err != nil {
		return nil, err
	}
	wg, err := e.win.resolve(f)
	if err != nil {
		return nil, err
	}

	values := make([]any, f.Height())
	for i, id := range f.ids {
		rows := wg.groupToRows[wg.rowToGroup[id]]
		v, err := e.wt.transform(src, rows, wg.positionOf[id])
		if err != nil {
			return nil, fmt.Errorf("%s: %w", e.name(), err)
		}
		values[i] = normalizeValue(v)
	}
	return newSeriesWithIDs(e.name(), f.ids, values), nil
}
