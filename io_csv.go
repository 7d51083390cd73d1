package sparkframe

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// CSVReadOptions configures CSV reading behavior.
type CSVReadOptions struct {
	Delimiter   rune             // Field delimiter (default ',')
	HasHeader   bool             // First row is header (default true)
	ColumnNames []string         // Override column names
	ColumnTypes map[string]DType // Force column types
	InferTypes  bool             // Auto-detect types (default true)
	NullValues  []string         // Strings to treat as null
	SkipRows    int              // Skip first N rows
	MaxRows     int              // Max rows to read (0 = unlimited)
	TrimSpace   bool             // Trim whitespace from values
	Comment     rune             // Skip lines starting with this rune
}

// DefaultCSVReadOptions returns default CSV reading options.
func DefaultCSVReadOptions() CSVReadOptions {
	return CSVReadOptions{
		Delimiter:  ',',
		HasHeader:  true,
		InferTypes: true,
		NullValues: []string{"", "null", "NULL", "NA", "N/A", "nan", "NaN"},
		TrimSpace:  true,
	}
}

// ReadCSV reads a CSV file into a Frame.
func ReadCSV(path string, opts ...CSVReadOptions) (*Frame, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	return ReadCSVFromReader(f, opts...)
}

// ReadCSVFromReader reads CSV data from an io.Reader into a Frame.
func ReadCSVFromReader(r io.Reader, opts ...CSVReadOptions) (*Frame, error) {
	opt := DefaultCSVReadOptions()
	if len(opts) > 0 {
		opt = opts[0]
	}

	reader := csv.NewReader(r)
	reader.Comma = opt.Delimiter
	if opt.Comment != 0 {
		reader.Comment = opt.Comment
	}
	reader.TrimLeadingSpace = opt.TrimSpace

	for i := 0; i < opt.SkipRows; i++ {
		if _, err := reader.Read(); err != nil {
			return nil, fmt.Errorf("failed to skip row %d: %w", i, err)
		}
	}

	var headers []string
	if opt.HasHeader {
		var err error
		headers, err = reader.Read()
		if err != nil {
			return nil, fmt.Errorf("failed to read header: %w", err)
		}
	} else if len(opt.ColumnNames) > 0 {
		headers = opt.ColumnNames
	}

	var records [][]string
	for {
		if opt.MaxRows > 0 && len(records) >= opt.MaxRows {
			break
		}
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read row %d: %w", len(records), err)
		}
		if headers == nil {
			headers = make([]string, len(record))
			for i := range record {
				headers[i] = fmt.Sprintf("column_%d", i)
			}
		}
		records = append(records, record)
	}

	if len(records) == 0 {
		return NewFrame()
	}

	colTypes := make([]DType, len(headers))
	for i := range headers {
		colTypes[i] = String
		if opt.InferTypes {
			colTypes[i] = inferColumnType(records, i, opt.NullValues)
		}
	}
	for name, dtype := range opt.ColumnTypes {
		for i, h := range headers {
			if h == name {
				colTypes[i] = dtype
				break
			}
		}
	}

	columns := make([]*Series, len(headers))
	for i, name := range headers {
		col, err := buildCSVColumn(name, colTypes[i], records, i, opt)
		if err != nil {
			return nil, fmt.Errorf("failed to build column %q: %w", name, err)
		}
		columns[i] = col
	}

	return NewFrame(columns...)
}

func inferColumnType(records [][]string, colIdx int, nullValues []string) DType {
	hasInt := false
	hasFloat := false
	hasBool := false

	for _, record := range records {
		if colIdx >= len(record) {
			continue
		}
		val := strings.TrimSpace(record[colIdx])
		if isNullToken(val, nullValues) {
			continue
		}
		lower := strings.ToLower(val)
		if lower == "true" || lower == "false" {
			hasBool = true
			continue
		}
		if _, err := strconv.ParseInt(val, 10, 64); err == nil {
			hasInt = true
			continue
		}
		if _, err := strconv.ParseFloat(val, 64); err == nil {
			hasFloat = true
			continue
		}
		return String
	}

	if hasFloat {
		return Float64
	}
	if hasInt {
		return Int64
	}
	if hasBool {
		return Bool
	}
	return String
}

// buildCSVColumn parses one column of the raw records. Null tokens and
// missing trailing fields become null cells.
func buildCSVColumn(name string, dtype DType, records [][]string, colIdx int, opt CSVReadOptions) (*Series, error) {
	values := make([]any, len(records))
	for i, record := range records {
		if colIdx >= len(record) {
			continue
		}
		val := record[colIdx]
		if opt.TrimSpace {
			val = strings.TrimSpace(val)
		}
		if isNullToken(val, opt.NullValues) {
			continue
		}
		switch dtype {
		case Float64:
			f, err := strconv.ParseFloat(val, 64)
			if err != nil {
				return nil, fmt.Errorf("row %d: cannot parse %q as Float64", i, val)
			}
			values[i] = f
		case Int64:
			v, err := strconv.ParseInt(val, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("row %d: cannot parse %q as Int64", i, val)
			}
			values[i] = v
		case Bool:
			lower := strings.ToLower(val)
			values[i] = lower == "true" || lower == "1" || lower == "yes"
		case String:
			values[i] = val
		default:
			return nil, fmt.Errorf("%w: cannot parse CSV into %s", ErrTypeMismatch, dtype)
		}
	}
	return NewSeries(name, values), nil
}

func isNullToken(val string, nullValues []string) bool {
	for _, nv := range nullValues {
		if val == nv {
			return true
		}
	}
	return false
}

// CSVWriteOptions configures CSV writing behavior.
type CSVWriteOptions struct {
	Delimiter   rune   // Field delimiter (default ',')
	WriteHeader bool   // Write header row (default true)
	NullString  string // String written for null cells (default "")
}

// DefaultCSVWriteOptions returns default CSV writing options.
func DefaultCSVWriteOptions() CSVWriteOptions {
	return CSVWriteOptions{
		Delimiter:   ',',
		WriteHeader: true,
	}
}

// WriteCSV writes the frame to a CSV file.
func (f *Frame) WriteCSV(path string, opts ...CSVWriteOptions) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	w := bufio.NewWriter(file)
	defer w.Flush()

	return f.WriteCSVToWriter(w, opts...)
}

// WriteCSVToWriter writes the frame to an io.Writer.
func (f *Frame) WriteCSVToWriter(w io.Writer, opts ...CSVWriteOptions) error {
	opt := DefaultCSVWriteOptions()
	if len(opts) > 0 {
		opt = opts[0]
	}

	writer := csv.NewWriter(w)
	writer.Comma = opt.Delimiter

	if opt.WriteHeader {
		if err := writer.Write(f.Columns()); err != nil {
			return fmt.Errorf("failed to write header: %w", err)
		}
	}

	row := make([]string, f.Width())
	for i := 0; i < f.Height(); i++ {
		for j, col := range f.cols {
			val := col.Get(i)
			if val == nil {
				row[j] = opt.NullString
			} else {
				row[j] = formatValue(val)
			}
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i, err)
		}
	}

	writer.Flush()
	return writer.Error()
}

func formatValue(v any) string {
	switch val := v.(type) {
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case int64:
		return strconv.FormatInt(val, 10)
	case bool:
		return strconv.FormatBool(val)
	case string:
		return val
	default:
		return fmt.Sprintf("%v", val)
	}
}
