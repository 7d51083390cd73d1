package sparkframe

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

// ============================================================================
// Arrow Export
// ============================================================================

// ToArrow exports the frame to an Arrow Record.
// The caller is responsible for calling Release() on the returned Record.
func (f *Frame) ToArrow(mem memory.Allocator) (arrow.Record, error) {
	if mem == nil {
		mem = memory.DefaultAllocator
	}

	fields := make([]arrow.Field, f.Width())
	for i, col := range f.cols {
		arrowType, err := dtypeToArrowType(col.DType())
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", col.Name(), err)
		}
		fields[i] = arrow.Field{Name: col.Name(), Type: arrowType, Nullable: true}
	}
	schema := arrow.NewSchema(fields, nil)

	arrays := make([]arrow.Array, f.Width())
	for i, col := range f.cols {
		arr, err := seriesToArrowArray(col, mem)
		if err != nil {
			for j := 0; j < i; j++ {
				arrays[j].Release()
			}
			return nil, fmt.Errorf("column %s: %w", col.Name(), err)
		}
		arrays[i] = arr
	}

	record := array.NewRecord(schema, arrays, int64(f.Height()))
	for _, arr := range arrays {
		arr.Release()
	}
	return record, nil
}

// ToArrowTable exports the frame to an Arrow Table.
// The caller is responsible for calling Release() on the returned Table.
func (f *Frame) ToArrowTable(mem memory.Allocator) (arrow.Table, error) {
	record, err := f.ToArrow(mem)
	if err != nil {
		return nil, err
	}
	defer record.Release()

	return array.NewTableFromRecords(record.Schema(), []arrow.Record{record}), nil
}

func dtypeToArrowType(dtype DType) (arrow.DataType, error) {
	switch dtype {
	case Float64:
		return arrow.PrimitiveTypes.Float64, nil
	case Int64:
		return arrow.PrimitiveTypes.Int64, nil
	case Bool:
		return arrow.FixedWidthTypes.Boolean, nil
	case String:
		return arrow.BinaryTypes.String, nil
	case Null:
		return arrow.Null, nil
	default:
		return nil, fmt.Errorf("%w: cannot export %s to Arrow", ErrTypeMismatch, dtype)
	}
}

// seriesToArrowArray converts a series to an Arrow array, null cells
// becoming Arrow nulls.
func seriesToArrowArray(s *Series, mem memory.Allocator) (arrow.Array, error) {
	switch s.DType() {
	case Float64:
		builder := array.NewFloat64Builder(mem)
		defer builder.Release()
		for i := 0; i < s.Len(); i++ {
			switch v := s.Get(i).(type) {
			case nil:
				builder.AppendNull()
			case float64:
				builder.Append(v)
			case int64:
				builder.Append(float64(v))
			default:
				return nil, fmt.Errorf("%w: mixed cell %T in Float64 column", ErrTypeMismatch, v)
			}
		}
		return builder.NewArray(), nil

	case Int64:
		builder := array.NewInt64Builder(mem)
		defer builder.Release()
		for i := 0; i < s.Len(); i++ {
			switch v := s.Get(i).(type) {
			case nil:
				builder.AppendNull()
			case int64:
				builder.Append(v)
			default:
				return nil, fmt.Errorf("%w: mixed cell %T in Int64 column", ErrTypeMismatch, v)
			}
		}
		return builder.NewArray(), nil

	case Bool:
		builder := array.NewBooleanBuilder(mem)
		defer builder.Release()
		for i := 0; i < s.Len(); i++ {
			switch v := s.Get(i).(type) {
			case nil:
				builder.AppendNull()
			case bool:
				builder.Append(v)
			default:
				return nil, fmt.Errorf("%w: mixed cell %T in Bool column", ErrTypeMismatch, v)
			}
		}
		return builder.NewArray(), nil

	case String:
		builder := array.NewStringBuilder(mem)
		defer builder.Release()
		for i := 0; i < s.Len(); i++ {
			switch v := s.Get(i).(type) {
			case nil:
				builder.AppendNull()
			case string:
				builder.Append(v)
			default:
				builder.Append(fmt.Sprintf("%v", v))
			}
		}
		return builder.NewArray(), nil

	case Null:
		return array.NewNull(s.Len()), nil

	default:
		return nil, fmt.Errorf("%w: cannot export %s to Arrow", ErrTypeMismatch, s.DType())
	}
}

// ============================================================================
// Arrow Import
// ============================================================================

// NewFrameFromArrow creates a frame from an Arrow Record.
func NewFrameFromArrow(record arrow.Record) (*Frame, error) {
	if record == nil {
		return nil, fmt.Errorf("record is nil")
	}

	schema := record.Schema()
	numCols := int(record.NumCols())
	series := make([]*Series, numCols)

	for i := 0; i < numCols; i++ {
		field := schema.Field(i)
		s, err := arrowArrayToSeries(field.Name, record.Column(i))
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", field.Name, err)
		}
		series[i] = s
	}

	return NewFrame(series...)
}

// NewFrameFromArrowTable creates a frame from an Arrow Table, chunked
// columns concatenated in chunk order.
func NewFrameFromArrowTable(table arrow.Table) (*Frame, error) {
	if table == nil {
		return nil, fmt.Errorf("table is nil")
	}

	schema := table.Schema()
	numCols := int(table.NumCols())
	series := make([]*Series, numCols)

	for i := 0; i < numCols; i++ {
		field := schema.Field(i)
		chunks := table.Column(i).Data()

		values := make([]any, 0, table.NumRows())
		for j := 0; j < chunks.Len(); j++ {
			chunkValues, err := arrowArrayValues(chunks.Chunk(j))
			if err != nil {
				return nil, fmt.Errorf("column %s chunk %d: %w", field.Name, j, err)
			}
			values = append(values, chunkValues...)
		}
		series[i] = NewSeries(field.Name, values)
	}

	return NewFrame(series...)
}

func arrowArrayToSeries(name string, arr arrow.Array) (*Series, error) {
	values, err := arrowArrayValues(arr)
	if err != nil {
		return nil, err
	}
	return NewSeries(name, values), nil
}

// arrowArrayValues widens an Arrow array into dynamic cells, Arrow nulls
// becoming null cells.
func arrowArrayValues(arr arrow.Array) ([]any, error) {
	values := make([]any, arr.Len())
	set := func(get func(int) any) {
		for i := range values {
			if arr.IsNull(i) {
				continue
			}
			values[i] = get(i)
		}
	}

	switch a := arr.(type) {
	case *array.Float64:
		set(func(i int) any { return a.Value(i) })
	case *array.Float32:
		set(func(i int) any { return float64(a.Value(i)) })
	case *array.Int64:
		set(func(i int) any { return a.Value(i) })
	case *array.Int32:
		set(func(i int) any { return int64(a.Value(i)) })
	case *array.Uint64:
		set(func(i int) any { return int64(a.Value(i)) })
	case *array.Uint32:
		set(func(i int) any { return int64(a.Value(i)) })
	case *array.Boolean:
		set(func(i int) any { return a.Value(i) })
	case *array.String:
		set(func(i int) any { return a.Value(i) })
	case *array.Null:
		// all cells stay null
	default:
		return nil, fmt.Errorf("%w: unsupported Arrow array type %T", ErrTypeMismatch, arr)
	}
	return values, nil
}
