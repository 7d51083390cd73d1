package sparkframe

import (
	"fmt"
)

// GroupedFrame is a frame partitioned by key columns, ready for Agg.
// Groups keep first-encounter order; rollup and cube grouping sets keep
// their generation order (detail level first, coarser levels after).
type GroupedFrame struct {
	src   *Frame
	keys  []string
	index *groupIndex
}

// GroupBy groups the frame by the exact value tuples of the key columns.
// With no keys the whole frame forms a single group, so Agg collapses to
// one row. Unknown key names fail immediately.
func (f *Frame) GroupBy(keys ...string) (*GroupedFrame, error) {
	if err := f.checkGroupKeys(keys); err != nil {
		return nil, err
	}
	if len(keys) == 0 {
		gi := newGroupIndex()
		gi.merge(nil, f.ids)
		return &GroupedFrame{src: f, keys: keys, index: gi}, nil
	}
	gi, err := f.GroupIndices(keys...)
	if err != nil {
		return nil, err
	}
	return &GroupedFrame{src: f, keys: keys, index: gi}, nil
}

// Rollup groups the frame by hierarchical grouping sets: the full key
// tuple, then each suffix of keys replaced by the wildcard, down to the
// grand total where every key is wildcarded. k keys produce k+1 levels.
func (f *Frame) Rollup(keys ...string) (*GroupedFrame, error) {
	if err := f.checkGroupKeys(keys); err != nil {
		return nil, err
	}
	base, err := f.GroupIndices(keys...)
	if err != nil {
		return nil, err
	}
	gi := newGroupIndex()
	for level := 0; level <= len(keys); level++ {
		for _, enc := range base.order {
			g := base.groups[enc]
			key := make([]any, len(keys))
			for i := range key {
				if i < len(keys)-level {
					key[i] = g.key[i]
				} else {
					key[i] = wildcard
				}
			}
			gi.merge(key, g.rows)
		}
	}
	return &GroupedFrame{src: f, keys: keys, index: gi}, nil
}

// Cube groups the frame by every subset of the key columns: each of the
// 2^k wildcard combinations forms a grouping set. Combination order puts
// the full detail level first and wildcards keys from the right.
func (f *Frame) Cube(keys ...string) (*GroupedFrame, error) {
	if err := f.checkGroupKeys(keys); err != nil {
		return nil, err
	}
	base, err := f.GroupIndices(keys...)
	if err != nil {
		return nil, err
	}
	gi := newGroupIndex()
	for mask := 0; mask < 1<<len(keys); mask++ {
		for _, enc := range base.order {
			g := base.groups[enc]
			key := make([]any, len(keys))
			for i := range key {
				if mask&(1<<(len(keys)-1-i)) == 0 {
					key[i] = g.key[i]
				} else {
					key[i] = wildcard
				}
			}
			gi.merge(key, g.rows)
		}
	}
	return &GroupedFrame{src: f, keys: keys, index: gi}, nil
}

func (f *Frame) checkGroupKeys(keys []string) error {
	seen := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		if !f.HasColumn(k) {
			return fmt.Errorf("%w: %q is not a column", ErrInvalidGroupingKey, k)
		}
		if _, dup := seen[k]; dup {
			return fmt.Errorf("%w: %q named twice", ErrInvalidGroupingKey, k)
		}
		seen[k] = struct{}{}
	}
	return nil
}

// Keys returns the grouping column names.
func (g *GroupedFrame) Keys() []string {
	out := make([]string, len(g.keys))
	copy(out, g.keys)
	return out
}

// NumGroups returns the number of grouping sets, rollup and cube levels
// included.
func (g *GroupedFrame) NumGroups() int { return len(g.index.order) }

// Agg reduces each group with the given aggregators and returns one row
// per group: the key columns first (wildcarded levels show null), then
// one column per aggregator in argument order. Output names must be
// unique and must not collide with a key column.
func (g *GroupedFrame) Agg(aggs ...Aggregator) (*Frame, error) {
	names := make(map[string]struct{}, len(g.keys)+len(aggs))
	for _, k := range g.keys {
		names[k] = struct{}{}
	}
	for _, a := range aggs {
		if _, dup := names[a.Name()]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateName, a.Name())
		}
		names[a.Name()] = struct{}{}
	}

	// key columns, wildcards as null
	keyValues := make([][]any, len(g.keys))
	for i := range keyValues {
		keyValues[i] = make([]any, 0, g.NumGroups())
	}
	for _, enc := range g.index.order {
		grp := g.index.groups[enc]
		for i := range g.keys {
			v := grp.key[i]
			if isWildcard(v) {
				v = nil
			}
			keyValues[i] = append(keyValues[i], v)
		}
	}

	cols := make([]*Series, 0, len(g.keys)+len(aggs))
	for i, k := range g.keys {
		cols = append(cols, NewSeries(k, keyValues[i]))
	}

	for _, a := range aggs {
		src, err := a.prepare(g.src)
		if err != nil {
			return nil, err
		}
		values := make([]any, 0, g.NumGroups())
		for _, enc := range g.index.order {
			grp := g.index.groups[enc]
			v, err := a.reduceGroup(src, grp.rows)
			if err != nil {
				return nil, err
			}
			values = append(values, v)
		}
		cols = append(cols, NewSeries(a.Name(), values))
	}

	return NewFrame(cols...)
}
