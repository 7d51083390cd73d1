package sparkframe

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// wildcardKey is the sentinel inserted into rollup/cube key tuples to
// mean "aggregated over all values" at that position. It is a dedicated
// type so it can never collide with real data.
type wildcardKey struct{}

func (wildcardKey) String() string { return "*" }

var wildcard any = wildcardKey{}

func isWildcard(v any) bool {
	_, ok := v.(wildcardKey)
	return ok
}

// asFloat widens a numeric cell to float64.
func asFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case int64:
		return float64(x), true
	case float64:
		return x, true
	default:
		return 0, false
	}
}

// valueEqual compares two cells. Numerics compare across int64/float64;
// lists compare elementwise; structs compare by field.
func valueEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if af, ok := asFloat(a); ok {
		bf, ok := asFloat(b)
		return ok && af == bf
	}
	switch x := a.(type) {
	case string:
		y, ok := b.(string)
		return ok && x == y
	case bool:
		y, ok := b.(bool)
		return ok && x == y
	case []any:
		y, ok := b.([]any)
		if !ok || len(x) != len(y) {
			return false
		}
		for i := range x {
			if !valueEqual(x[i], y[i]) {
				return false
			}
		}
		return true
	case map[string]any:
		y, ok := b.(map[string]any)
		if !ok || len(x) != len(y) {
			return false
		}
		for k, v := range x {
			w, ok := y[k]
			if !ok || !valueEqual(v, w) {
				return false
			}
		}
		return true
	case wildcardKey:
		return isWildcard(b)
	default:
		return a == b
	}
}

// valueLess orders two cells of a compatible kind. Nulls sort first.
func valueLess(a, b any) (bool, error) {
	if a == nil {
		return b != nil, nil
	}
	if b == nil {
		return false, nil
	}
	if af, ok := asFloat(a); ok {
		if bf, ok := asFloat(b); ok {
			return af < bf, nil
		}
		return false, fmt.Errorf("%w: cannot order %T against %T", ErrTypeMismatch, a, b)
	}
	switch x := a.(type) {
	case string:
		if y, ok := b.(string); ok {
			return x < y, nil
		}
	case bool:
		if y, ok := b.(bool); ok {
			return !x && y, nil
		}
	}
	return false, fmt.Errorf("%w: cannot order %T against %T", ErrTypeMismatch, a, b)
}

// encodeKeyPart appends a collision-free encoding of one key tuple
// position. Each value is tagged by kind so e.g. int64(1) and "1" map to
// different group keys, and the wildcard sentinel stays distinguishable
// from any data value.
func encodeKeyPart(b *strings.Builder, v any) {
	switch x := v.(type) {
	case nil:
		b.WriteString("n;")
	case wildcardKey:
		b.WriteString("w;")
	case bool:
		if x {
			b.WriteString("b1;")
		} else {
			b.WriteString("b0;")
		}
	case int64:
		b.WriteByte('i')
		b.WriteString(strconv.FormatInt(x, 10))
		b.WriteByte(';')
	case float64:
		// integral floats share a key with the equal int64
		if x == math.Trunc(x) && !math.IsInf(x, 0) {
			b.WriteByte('i')
			b.WriteString(strconv.FormatInt(int64(x), 10))
			b.WriteByte(';')
			return
		}
		b.WriteByte('f')
		b.WriteString(strconv.FormatFloat(x, 'g', -1, 64))
		b.WriteByte(';')
	case string:
		b.WriteByte('s')
		b.WriteString(strconv.Itoa(len(x)))
		b.WriteByte(':')
		b.WriteString(x)
		b.WriteByte(';')
	case []any:
		// length-prefixed so nested lists never concatenate ambiguously
		b.WriteByte('l')
		b.WriteString(strconv.Itoa(len(x)))
		b.WriteByte(':')
		for _, e := range x {
			encodeKeyPart(b, e)
		}
		b.WriteByte(';')
	case map[string]any:
		fields := make([]string, 0, len(x))
		for k := range x {
			fields = append(fields, k)
		}
		sort.Strings(fields)
		b.WriteByte('m')
		b.WriteString(strconv.Itoa(len(x)))
		b.WriteByte(':')
		for _, k := range fields {
			encodeKeyPart(b, k)
			encodeKeyPart(b, x[k])
		}
		b.WriteByte(';')
	default:
		fmt.Fprintf(b, "v%T:%v;", v, v)
	}
}

// encodeKey renders a key tuple as a map key.
func encodeKey(parts []any) string {
	var b strings.Builder
	for _, p := range parts {
		encodeKeyPart(&b, p)
	}
	return b.String()
}
