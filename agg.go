package sparkframe

import (
	"fmt"
	"math"
)

// Aggregator is anything GroupedFrame.Agg can drive: a plain aggregate
// reduces one group's rows to a scalar; a positional window transform
// refuses and must be lifted with Over instead.
type Aggregator interface {
	// Name is the output column name; must be unique per Agg call.
	Name() string

	// prepare evaluates the source expression once against the full
	// frame. Window transforms fail here with ErrNotWindowable.
	prepare(f *Frame) (*Series, error)

	// reduceGroup reduces the prepared series restricted to one group's
	// row ids.
	reduceGroup(src *Series, rows []int64) (any, error)
}

// AggColumn is a named reduction of a produced series restricted to one
// group's rows. Like Column it is immutable and carries no frame.
type AggColumn struct {
	fn     string
	alias  string
	source *Column
	reduce func(values []any) (any, error)
}

// Name returns the output column name, "FN(source)" unless aliased.
func (a *AggColumn) Name() string {
	if a.alias != "" {
		return a.alias
	}
	return a.fn + "(" + a.source.Name() + ")"
}

// Alias returns the aggregate under a new output name.
func (a *AggColumn) Alias(name string) *AggColumn {
	return &AggColumn{fn: a.fn, alias: name, source: a.source, reduce: a.reduce}
}

func (a *AggColumn) prepare(f *Frame) (*Series, error) {
	return a.source.Eval(f)
}

func (a *AggColumn) reduceGroup(src *Series, rows []int64) (any, error) {
	grp, err := src.gatherIDs(rows)
	if err != nil {
		return nil, err
	}
	out, err := a.reduce(grp.values)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", a.Name(), err)
	}
	return normalizeValue(out), nil
}

// Over lifts the aggregate into an ordinary column: the reduction over a
// row's window partition is broadcast to every row of that partition, so
// the output keeps one row per input row instead of collapsing groups.
func (a *AggColumn) Over(w *Window) *Column {
	return &Column{node: &aggOverExpr{agg: a, win: w}}
}

func newAgg(fn string, source *Column, reduce func([]any) (any, error)) *AggColumn {
	return &AggColumn{fn: fn, source: source, reduce: reduce}
}

// ----------------------------------------------------------------------------
// Reduction helpers
// ----------------------------------------------------------------------------

// nonNull filters nulls out of a group; aggregates skip them the way the
// original columnar substrate does.
func nonNull(values []any) []any {
	out := make([]any, 0, len(values))
	for _, v := range values {
		if v != nil {
			out = append(out, v)
		}
	}
	return out
}

func sumValues(values []any) (any, error) {
	vals := nonNull(values)
	if len(vals) == 0 {
		return nil, nil
	}
	allInt := true
	var isum int64
	var fsum float64
	for _, v := range vals {
		switch x := v.(type) {
		case int64:
			isum += x
			fsum += float64(x)
		case float64:
			allInt = false
			fsum += x
		default:
			return nil, fmt.Errorf("%w: SUM needs numerics, got %T", ErrTypeMismatch, v)
		}
	}
	if allInt {
		return isum, nil
	}
	return fsum, nil
}

func extremum(values []any, wantMin bool) (any, error) {
	vals := nonNull(values)
	if len(vals) == 0 {
		return nil, nil
	}
	best := vals[0]
	for _, v := range vals[1:] {
		less, err := valueLess(v, best)
		if err != nil {
			return nil, err
		}
		if less == wantMin {
			best = v
		}
	}
	return best, nil
}

// ----------------------------------------------------------------------------
// Aggregate constructors
// ----------------------------------------------------------------------------

// Sum aggregates the sum of the group. Integer columns stay Int64.
func Sum(c *Column) *AggColumn {
	return newAgg("SUM", c, sumValues)
}

// Min aggregates the minimum of the group.
func Min(c *Column) *AggColumn {
	return newAgg("MIN", c, func(values []any) (any, error) {
		return extremum(values, true)
	})
}

// Max aggregates the maximum of the group.
func Max(c *Column) *AggColumn {
	return newAgg("MAX", c, func(values []any) (any, error) {
		return extremum(values, false)
	})
}

// Mean aggregates the arithmetic mean of the group.
func Mean(c *Column) *AggColumn {
	return newAgg("MEAN", c, func(values []any) (any, error) {
		vals := nonNull(values)
		if len(vals) == 0 {
			return nil, nil
		}
		var sum float64
		for _, v := range vals {
			x, ok := asFloat(v)
			if !ok {
				return nil, fmt.Errorf("%w: MEAN needs numerics, got %T", ErrTypeMismatch, v)
			}
			sum += x
		}
		return sum / float64(len(vals)), nil
	})
}

// First takes the first entry of the group, in group row order.
func First(c *Column) *AggColumn {
	return newAgg("FIRST", c, func(values []any) (any, error) {
		if len(values) == 0 {
			return nil, nil
		}
		return values[0], nil
	})
}

// Last takes the last entry of the group, in group row order.
func Last(c *Column) *AggColumn {
	return newAgg("LAST", c, func(values []any) (any, error) {
		if len(values) == 0 {
			return nil, nil
		}
		return values[len(values)-1], nil
	})
}

// Count counts the rows of the group. The column's values are not
// inspected; use Count(Col("*")) for the conventional spelling.
func Count(c *Column) *AggColumn {
	return newAgg("COUNT", c, func(values []any) (any, error) {
		return int64(len(values)), nil
	})
}

// CountDistinct counts distinct non-null values in the group.
func CountDistinct(c *Column) *AggColumn {
	return newAgg("COUNT DISTINCT", c, func(values []any) (any, error) {
		seen := make(map[string]struct{})
		for _, v := range nonNull(values) {
			seen[encodeKey([]any{v})] = struct{}{}
		}
		return int64(len(seen)), nil
	})
}

// SumDistinct sums the distinct values of the group.
func SumDistinct(c *Column) *AggColumn {
	return newAgg("SUM DISTINCT", c, func(values []any) (any, error) {
		seen := make(map[string]struct{})
		distinct := make([]any, 0, len(values))
		for _, v := range nonNull(values) {
			key := encodeKey([]any{v})
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			distinct = append(distinct, v)
		}
		return sumValues(distinct)
	})
}

// CollectList collects the group's values into a list, in row order.
func CollectList(c *Column) *AggColumn {
	return newAgg("COLLECT_LIST", c, func(values []any) (any, error) {
		out := make([]any, len(values))
		copy(out, values)
		return out, nil
	})
}

// CollectSet collects the group's distinct values into a list, keeping
// first-occurrence order.
func CollectSet(c *Column) *AggColumn {
	return newAgg("COLLECT_SET", c, func(values []any) (any, error) {
		seen := make(map[string]struct{})
		out := make([]any, 0, len(values))
		for _, v := range values {
			key := encodeKey([]any{v})
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, v)
		}
		return out, nil
	})
}

// Corr aggregates the Pearson correlation between two columns over the
// group. Rows where either side is null are skipped.
func Corr(x, y *Column) *AggColumn {
	agg := newAgg("CORR", Struct(x, y), func(values []any) (any, error) {
		var xs, ys []float64
		for _, v := range values {
			pair, ok := v.([]any)
			if !ok || len(pair) != 2 {
				return nil, fmt.Errorf("%w: CORR needs value pairs", ErrArityMismatch)
			}
			if pair[0] == nil || pair[1] == nil {
				continue
			}
			xf, ok := asFloat(pair[0])
			if !ok {
				return nil, fmt.Errorf("%w: CORR needs numerics, got %T", ErrTypeMismatch, pair[0])
			}
			yf, ok := asFloat(pair[1])
			if !ok {
				return nil, fmt.Errorf("%w: CORR needs numerics, got %T", ErrTypeMismatch, pair[1])
			}
			xs = append(xs, xf)
			ys = append(ys, yf)
		}
		if len(xs) < 2 {
			return nil, nil
		}
		return pearson(xs, ys), nil
	})
	return agg.Alias("CORR(" + x.Name() + ", " + y.Name() + ")")
}

func pearson(xs, ys []float64) any {
	n := float64(len(xs))
	var mx, my float64
	for i := range xs {
		mx += xs[i]
		my += ys[i]
	}
	mx /= n
	my /= n
	var cov, vx, vy float64
	for i := range xs {
		dx, dy := xs[i]-mx, ys[i]-my
		cov += dx * dy
		vx += dx * dx
		vy += dy * dy
	}
	if vx == 0 || vy == 0 {
		return nil
	}
	return cov / math.Sqrt(vx*vy)
}
