package sparkframe

import (
	"fmt"
)

// Selection is anything Frame.Select accepts: an ordinary Column, or a
// SpecialColumn whose evaluation may reshape the result.
type Selection interface {
	Name() string
}

// Select evaluates the selections against the frame and returns a frame
// with exactly those output columns, in selection order. Ordinary
// columns are evaluated sequentially, so a later selection may reference
// an earlier one's output name. Special columns run their preprocess
// against the original frame, are assigned in order with everything
// else, and reshape the assembled result in a final pass, so output
// order follows the caller regardless of which entries were special.
func (f *Frame) Select(items ...Selection) (*Frame, error) {
	names := make([]string, 0, len(items))
	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		if _, dup := seen[item.Name()]; dup {
			return nil, fmt.Errorf("%w: %q selected twice", ErrDuplicateName, item.Name())
		}
		seen[item.Name()] = struct{}{}
	}

	meta := make(map[string][]string)
	for _, item := range items {
		if sc, ok := item.(*SpecialColumn); ok {
			m, err := sc.preprocess(f)
			if err != nil {
				return nil, err
			}
			meta[sc.Name()] = m
		}
	}

	df := f
	var specials []*SpecialColumn
	for _, item := range items {
		switch it := item.(type) {
		case *Column:
			s, err := it.Eval(df)
			if err != nil {
				return nil, err
			}
			df, err = df.WithColumnSeries(s.Rename(it.Name()))
			if err != nil {
				return nil, err
			}
			names = append(names, it.Name())

		case *SpecialColumn:
			s, err := it.apply(df)
			if err != nil {
				return nil, err
			}
			df, err = df.WithColumnSeries(s)
			if err != nil {
				return nil, err
			}
			names = append(names, it.Name())
			specials = append(specials, it)

		default:
			return nil, fmt.Errorf("cannot select %T", item)
		}
	}

	for _, sc := range specials {
		var err error
		df, names, err = sc.postprocess(df, names, meta[sc.Name()])
		if err != nil {
			return nil, err
		}
	}

	return df.SelectColumns(names...)
}

// Filter keeps the rows where the predicate column is true. Null
// predicate cells drop the row; surviving rows keep their ids.
func (f *Frame) Filter(cond *Column) (*Frame, error) {
	mask, err := cond.Eval(f)
	if err != nil {
		return nil, err
	}
	return f.FilterByMask(mask)
}

// Where is Filter.
func (f *Frame) Where(cond *Column) (*Frame, error) {
	return f.Filter(cond)
}

// WithColumn returns the frame with the expression's result assigned
// under name, replacing any existing column of that name.
func (f *Frame) WithColumn(name string, c *Column) (*Frame, error) {
	s, err := c.Eval(f)
	if err != nil {
		return nil, err
	}
	return f.WithColumnSeries(s.Rename(name))
}

// WithColumnRenamed renames a column, keeping its position.
func (f *Frame) WithColumnRenamed(old, new string) (*Frame, error) {
	if !f.HasColumn(old) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownColumn, old)
	}
	cols := make([]*Series, len(f.cols))
	for i, col := range f.cols {
		if col.Name() == old {
			cols[i] = col.Rename(new)
		} else {
			cols[i] = col
		}
	}
	return newFrameWithIDs(f.ids, cols)
}

// Drop returns the frame without the named columns. Unknown names are
// ignored.
func (f *Frame) Drop(names ...string) (*Frame, error) {
	dropped := make(map[string]struct{}, len(names))
	for _, n := range names {
		dropped[n] = struct{}{}
	}
	keep := make([]string, 0, f.Width())
	for _, n := range f.Columns() {
		if _, gone := dropped[n]; !gone {
			keep = append(keep, n)
		}
	}
	return f.SelectColumns(keep...)
}

// Agg reduces the whole frame as a single group and returns a one-row
// frame with one column per aggregate.
func (f *Frame) Agg(aggs ...Aggregator) (*Frame, error) {
	g, err := f.GroupBy()
	if err != nil {
		return nil, err
	}
	return g.Agg(aggs...)
}

// MinAll aggregates the minimum of every column into a one-row frame.
func (f *Frame) MinAll() (*Frame, error) {
	aggs := make([]Aggregator, f.Width())
	for i, n := range f.Columns() {
		aggs[i] = Min(Col(n))
	}
	return f.Agg(aggs...)
}

// MaxAll aggregates the maximum of every column into a one-row frame.
func (f *Frame) MaxAll() (*Frame, error) {
	aggs := make([]Aggregator, f.Width())
	for i, n := range f.Columns() {
		aggs[i] = Max(Col(n))
	}
	return f.Agg(aggs...)
}
