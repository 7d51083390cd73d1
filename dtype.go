package sparkframe

import "fmt"

// DType classifies the dynamic values a Series can hold. Cells are
// dynamically typed; the DType of a column is inferred by scanning its
// values and is used by IO, display and the elementwise kernels.
type DType uint8

const (
	Null DType = iota
	Int64
	Float64
	Bool
	String

	// Nested kinds
	List       // []any cells
	StructType // map[string]any cells
	Tuple      // []any cells produced by Struct()/Star() expressions
)

// String returns the string representation of the DType.
func (d DType) String() string {
	switch d {
	case Null:
		return "Null"
	case Int64:
		return "Int64"
	case Float64:
		return "Float64"
	case Bool:
		return "Bool"
	case String:
		return "String"
	case List:
		return "List"
	case StructType:
		return "Struct"
	case Tuple:
		return "Tuple"
	default:
		return fmt.Sprintf("Unknown(%d)", d)
	}
}

// IsNumeric returns true if the dtype is a numeric type.
func (d DType) IsNumeric() bool {
	return d == Int64 || d == Float64
}

// IsNested returns true if the dtype holds nested values.
func (d DType) IsNested() bool {
	return d == List || d == StructType || d == Tuple
}

// inferDType classifies a single cell value. Values are expected to be
// normalized (see normalizeValue).
func inferDType(v any) DType {
	switch v.(type) {
	case nil:
		return Null
	case int64:
		return Int64
	case float64:
		return Float64
	case bool:
		return Bool
	case string:
		return String
	case []any:
		return List
	case map[string]any:
		return StructType
	default:
		return String
	}
}

// normalizeValue widens Go's numeric zoo to the canonical cell types:
// int64, float64, bool, string, []any, map[string]any or nil.
func normalizeValue(v any) any {
	switch x := v.(type) {
	case nil, int64, float64, bool, string, []any, map[string]any:
		return x
	case int:
		return int64(x)
	case int8:
		return int64(x)
	case int16:
		return int64(x)
	case int32:
		return int64(x)
	case uint:
		return int64(x)
	case uint8:
		return int64(x)
	case uint16:
		return int64(x)
	case uint32:
		return int64(x)
	case uint64:
		return int64(x)
	case float32:
		return float64(x)
	default:
		return x
	}
}

// seriesDType infers the column type of a series. Mixed int/float
// columns widen to Float64; any other mix degrades to String, matching
// how untyped CSV columns are handled.
func seriesDType(s *Series) DType {
	dtype := Null
	for _, v := range s.values {
		k := inferDType(v)
		if k == Null {
			continue
		}
		switch {
		case dtype == Null:
			dtype = k
		case dtype == k:
		case dtype == Int64 && k == Float64, dtype == Float64 && k == Int64:
			dtype = Float64
		default:
			return String
		}
	}
	return dtype
}
