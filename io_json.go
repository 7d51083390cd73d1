package sparkframe

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
)

// JSONFormat specifies the JSON layout.
type JSONFormat int

const (
	// JSONRecords is an array of row objects: [{"a":1}, {"a":2}]
	JSONRecords JSONFormat = iota
	// JSONColumns is an object of column arrays: {"a":[1,2]}
	JSONColumns
)

// JSONReadOptions configures JSON reading behavior.
type JSONReadOptions struct {
	Format JSONFormat
}

// DefaultJSONReadOptions returns default JSON reading options.
func DefaultJSONReadOptions() JSONReadOptions {
	return JSONReadOptions{Format: JSONRecords}
}

// ReadJSON reads a JSON file into a Frame.
func ReadJSON(path string, opts ...JSONReadOptions) (*Frame, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	return ReadJSONFromReader(f, opts...)
}

// ReadJSONFromReader reads JSON data from an io.Reader into a Frame.
// Nested arrays and objects become List and Struct cells; integral JSON
// numbers decode as Int64.
func ReadJSONFromReader(r io.Reader, opts ...JSONReadOptions) (*Frame, error) {
	opt := DefaultJSONReadOptions()
	if len(opts) > 0 {
		opt = opts[0]
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read data: %w", err)
	}

	switch opt.Format {
	case JSONRecords:
		return readJSONRecords(data)
	case JSONColumns:
		return readJSONColumns(data)
	default:
		return nil, fmt.Errorf("unknown JSON format: %d", opt.Format)
	}
}

func jsonDecoder(data []byte) *json.Decoder {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	return dec
}

// fromJSONValue converts a decoded JSON value to a canonical cell.
func fromJSONValue(v any) any {
	switch x := v.(type) {
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return i
		}
		f, _ := x.Float64()
		return f
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = fromJSONValue(e)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, e := range x {
			out[k] = fromJSONValue(e)
		}
		return out
	default:
		return x
	}
}

func readJSONRecords(data []byte) (*Frame, error) {
	var records []map[string]any
	if err := jsonDecoder(data).Decode(&records); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}
	if len(records) == 0 {
		return NewFrame()
	}

	// column order follows first encounter across the records
	var names []string
	seen := make(map[string]bool)
	for _, record := range records {
		for k := range record {
			if !seen[k] {
				seen[k] = true
				names = append(names, k)
			}
		}
	}

	cols := make([]*Series, len(names))
	for i, name := range names {
		values := make([]any, len(records))
		for j, record := range records {
			if v, ok := record[name]; ok {
				values[j] = fromJSONValue(v)
			}
		}
		cols[i] = NewSeries(name, values)
	}
	return NewFrame(cols...)
}

func readJSONColumns(data []byte) (*Frame, error) {
	var columns map[string][]any
	if err := jsonDecoder(data).Decode(&columns); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}
	if len(columns) == 0 {
		return NewFrame()
	}

	names := make([]string, 0, len(columns))
	for k := range columns {
		names = append(names, k)
	}
	// map iteration order is random; stabilize on the sorted names
	sort.Strings(names)

	height := -1
	cols := make([]*Series, len(names))
	for i, name := range names {
		raw := columns[name]
		if height == -1 {
			height = len(raw)
		} else if len(raw) != height {
			return nil, fmt.Errorf("column %q has %d rows, want %d", name, len(raw), height)
		}
		values := make([]any, len(raw))
		for j, v := range raw {
			values[j] = fromJSONValue(v)
		}
		cols[i] = NewSeries(name, values)
	}
	return NewFrame(cols...)
}

// JSONWriteOptions configures JSON writing behavior.
type JSONWriteOptions struct {
	Format JSONFormat
	Indent string // pretty-print indent, "" for compact
}

// DefaultJSONWriteOptions returns default JSON writing options.
func DefaultJSONWriteOptions() JSONWriteOptions {
	return JSONWriteOptions{Format: JSONRecords}
}

// WriteJSON writes the frame to a JSON file.
func (f *Frame) WriteJSON(path string, opts ...JSONWriteOptions) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	return f.WriteJSONToWriter(file, opts...)
}

// WriteJSONToWriter writes the frame to an io.Writer.
func (f *Frame) WriteJSONToWriter(w io.Writer, opts ...JSONWriteOptions) error {
	opt := DefaultJSONWriteOptions()
	if len(opts) > 0 {
		opt = opts[0]
	}

	var doc any
	switch opt.Format {
	case JSONRecords:
		records := make([]map[string]any, f.Height())
		for i := 0; i < f.Height(); i++ {
			record := make(map[string]any, f.Width())
			for _, col := range f.cols {
				record[col.Name()] = col.Get(i)
			}
			records[i] = record
		}
		doc = records
	case JSONColumns:
		columns := make(map[string]any, f.Width())
		for _, col := range f.cols {
			columns[col.Name()] = col.Values()
		}
		doc = columns
	default:
		return fmt.Errorf("unknown JSON format: %d", opt.Format)
	}

	enc := json.NewEncoder(w)
	if opt.Indent != "" {
		enc.SetIndent("", opt.Indent)
	}
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}
