package sparkframe

import (
	"fmt"
	"io"
	"os"

	"github.com/parquet-go/parquet-go"
)

// ParquetReadOptions configures Parquet reading behavior.
type ParquetReadOptions struct {
	Columns []string // Only read these columns (nil = all)
	MaxRows int      // Max rows to read (0 = unlimited)
}

// DefaultParquetReadOptions returns default Parquet reading options.
func DefaultParquetReadOptions() ParquetReadOptions {
	return ParquetReadOptions{}
}

// ReadParquet reads a Parquet file into a Frame.
func ReadParquet(path string, opts ...ParquetReadOptions) (*Frame, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	return ReadParquetFromReader(f, stat.Size(), opts...)
}

// ReadParquetFromReader reads Parquet data from an io.ReaderAt into a
// Frame. Parquet nulls become null cells.
func ReadParquetFromReader(r io.ReaderAt, size int64, opts ...ParquetReadOptions) (*Frame, error) {
	opt := DefaultParquetReadOptions()
	if len(opts) > 0 {
		opt = opts[0]
	}

	pf, err := parquet.OpenFile(r, size)
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet file: %w", err)
	}

	schema := pf.Schema()

	var colNames []string
	if len(opt.Columns) > 0 {
		colNames = opt.Columns
	} else {
		fields := schema.Fields()
		colNames = make([]string, len(fields))
		for i, f := range fields {
			colNames[i] = f.Name()
		}
	}

	colIndexMap := make(map[string]int)
	for i, col := range schema.Columns() {
		if len(col) > 0 {
			colIndexMap[col[0]] = i
		}
	}
	colIndices := make([]int, len(colNames))
	for i, name := range colNames {
		idx, ok := colIndexMap[name]
		if !ok {
			return nil, fmt.Errorf("%w: column %q not in parquet file", ErrUnknownColumn, name)
		}
		colIndices[i] = idx
	}

	values := make([][]any, len(colNames))
	rowCount := 0
	for _, rg := range pf.RowGroups() {
		if opt.MaxRows > 0 && rowCount >= opt.MaxRows {
			break
		}
		rows := rg.Rows()
		rowBuf := make([]parquet.Row, 1000)
		for {
			n, err := rows.ReadRows(rowBuf)
			if err != nil && err != io.EOF {
				rows.Close()
				return nil, fmt.Errorf("failed to read rows: %w", err)
			}
			if n == 0 {
				break
			}
			for _, row := range rowBuf[:n] {
				if opt.MaxRows > 0 && rowCount >= opt.MaxRows {
					break
				}
				for i, colIdx := range colIndices {
					var cell any
					if colIdx < len(row) {
						cell = fromParquetValue(row[colIdx])
					}
					values[i] = append(values[i], cell)
				}
				rowCount++
			}
			if opt.MaxRows > 0 && rowCount >= opt.MaxRows {
				break
			}
		}
		rows.Close()
	}

	columns := make([]*Series, len(colNames))
	for i, name := range colNames {
		columns[i] = NewSeries(name, values[i])
	}
	return NewFrame(columns...)
}

func fromParquetValue(v parquet.Value) any {
	if v.IsNull() {
		return nil
	}
	switch v.Kind() {
	case parquet.Boolean:
		return v.Boolean()
	case parquet.Int32:
		return int64(v.Int32())
	case parquet.Int64:
		return v.Int64()
	case parquet.Float:
		return float64(v.Float())
	case parquet.Double:
		return v.Double()
	case parquet.ByteArray, parquet.FixedLenByteArray:
		return string(v.ByteArray())
	default:
		return string(v.ByteArray())
	}
}

// ParquetWriteOptions configures Parquet writing behavior.
type ParquetWriteOptions struct {
	Compression string // "snappy", "gzip", "zstd", "none" (default "snappy")
}

// DefaultParquetWriteOptions returns default Parquet writing options.
func DefaultParquetWriteOptions() ParquetWriteOptions {
	return ParquetWriteOptions{Compression: "snappy"}
}

// WriteParquet writes the frame to a Parquet file.
func (f *Frame) WriteParquet(path string, opts ...ParquetWriteOptions) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	return f.WriteParquetToWriter(file, opts...)
}

// WriteParquetToWriter writes the frame to an io.Writer. Nested columns
// (List, Struct, Tuple) are not representable and fail.
func (f *Frame) WriteParquetToWriter(w io.Writer, opts ...ParquetWriteOptions) error {
	opt := DefaultParquetWriteOptions()
	if len(opts) > 0 {
		opt = opts[0]
	}

	if f.Width() == 0 || f.Height() == 0 {
		return nil
	}

	group := make(parquet.Group)
	for _, col := range f.cols {
		node, err := dtypeToParquetNode(col.DType())
		if err != nil {
			return fmt.Errorf("column %s: %w", col.Name(), err)
		}
		group[col.Name()] = node
	}
	schema := parquet.NewSchema("frame", group)

	writerOpts := []parquet.WriterOption{schema}
	switch opt.Compression {
	case "snappy":
		writerOpts = append(writerOpts, parquet.Compression(&parquet.Snappy))
	case "gzip":
		writerOpts = append(writerOpts, parquet.Compression(&parquet.Gzip))
	case "zstd":
		writerOpts = append(writerOpts, parquet.Compression(&parquet.Zstd))
	}

	pw := parquet.NewWriter(w, writerOpts...)

	// schema groups are alphabetical, so cells follow schema column order
	names := make([]string, f.Width())
	for i, schemaCol := range schema.Columns() {
		names[i] = schemaCol[0]
	}

	const batchSize = 1000
	rows := make([]parquet.Row, 0, batchSize)
	for i := 0; i < f.Height(); i++ {
		row := make(parquet.Row, len(names))
		for j, name := range names {
			col := f.ColumnByName(name)
			v := toParquetValue(col.Get(i), col.DType())
			// optional leaves: definition level 1 marks a present value
			def := 1
			if v.IsNull() {
				def = 0
			}
			row[j] = v.Level(0, def, j)
		}
		rows = append(rows, row)

		if len(rows) >= batchSize {
			if _, err := pw.WriteRows(rows); err != nil {
				return fmt.Errorf("failed to write rows at %d: %w", i-len(rows)+1, err)
			}
			rows = rows[:0]
		}
	}
	if len(rows) > 0 {
		if _, err := pw.WriteRows(rows); err != nil {
			return fmt.Errorf("failed to write final rows: %w", err)
		}
	}

	return pw.Close()
}

// dtypeToParquetNode maps a column type to an optional parquet leaf, so
// null cells are representable.
func dtypeToParquetNode(dtype DType) (parquet.Node, error) {
	switch dtype {
	case Float64:
		return parquet.Optional(parquet.Leaf(parquet.DoubleType)), nil
	case Int64:
		return parquet.Optional(parquet.Leaf(parquet.Int64Type)), nil
	case Bool:
		return parquet.Optional(parquet.Leaf(parquet.BooleanType)), nil
	case String, Null:
		return parquet.Optional(parquet.Leaf(parquet.ByteArrayType)), nil
	default:
		return nil, fmt.Errorf("%w: cannot write %s to parquet", ErrTypeMismatch, dtype)
	}
}

func toParquetValue(v any, dtype DType) parquet.Value {
	if v == nil {
		return parquet.NullValue()
	}

	switch dtype {
	case Float64:
		switch x := v.(type) {
		case float64:
			return parquet.DoubleValue(x)
		case int64:
			return parquet.DoubleValue(float64(x))
		}
	case Int64:
		if i, ok := v.(int64); ok {
			return parquet.Int64Value(i)
		}
	case Bool:
		if b, ok := v.(bool); ok {
			return parquet.BooleanValue(b)
		}
	case String:
		if s, ok := v.(string); ok {
			return parquet.ByteArrayValue([]byte(s))
		}
	}

	return parquet.ByteArrayValue([]byte(fmt.Sprintf("%v", v)))
}
