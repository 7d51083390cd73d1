package sparkframe

import (
	"fmt"
	"strings"
	"sync"
)

// DisplayConfig controls how frames are formatted when printed.
type DisplayConfig struct {
	// MaxRows is the maximum number of rows to display. Taller frames
	// show head and tail rows with an ellipsis row between.
	// Default: 10
	MaxRows int

	// MaxCols is the maximum number of columns to display. Wider frames
	// replace the middle columns with an ellipsis column.
	// Default: 10
	MaxCols int

	// MaxColWidth is the maximum width for cell content; longer values
	// are truncated. Default: 25
	MaxColWidth int

	// MinColWidth is the minimum column width for alignment. Default: 8
	MinColWidth int

	// FloatPrecision is the number of decimal places for floats.
	// Default: 4
	FloatPrecision int

	// ShowDTypes displays data types under column names. Default: true
	ShowDTypes bool

	// ShowShape displays the (rows, columns) header. Default: true
	ShowShape bool

	// TableStyle is one of "rounded", "sharp", "ascii", "minimal".
	// Default: "rounded"
	TableStyle string
}

type tableChars struct {
	topLeft, topRight, bottomLeft, bottomRight string
	horizontal, vertical                       string
	topT, bottomT, leftT, rightT, cross        string
}

var tableStyles = map[string]tableChars{
	"rounded": {
		topLeft: "╭", topRight: "╮", bottomLeft: "╰", bottomRight: "╯",
		horizontal: "─", vertical: "│",
		topT: "┬", bottomT: "┴", leftT: "├", rightT: "┤", cross: "┼",
	},
	"sharp": {
		topLeft: "┌", topRight: "┐", bottomLeft: "└", bottomRight: "┘",
		horizontal: "─", vertical: "│",
		topT: "┬", bottomT: "┴", leftT: "├", rightT: "┤", cross: "┼",
	},
	"ascii": {
		topLeft: "+", topRight: "+", bottomLeft: "+", bottomRight: "+",
		horizontal: "-", vertical: "|",
		topT: "+", bottomT: "+", leftT: "+", rightT: "+", cross: "+",
	},
	"minimal": {
		topLeft: " ", topRight: " ", bottomLeft: " ", bottomRight: " ",
		horizontal: "─", vertical: " ",
		topT: " ", bottomT: " ", leftT: " ", rightT: " ", cross: " ",
	},
}

// DefaultDisplayConfig returns the default display configuration.
func DefaultDisplayConfig() DisplayConfig {
	return DisplayConfig{
		MaxRows:        10,
		MaxCols:        10,
		MaxColWidth:    25,
		MinColWidth:    8,
		FloatPrecision: 4,
		ShowDTypes:     true,
		ShowShape:      true,
		TableStyle:     "rounded",
	}
}

var (
	globalDisplayConfig = DefaultDisplayConfig()
	displayConfigMu     sync.RWMutex
)

// SetDisplayConfig sets the global display configuration.
func SetDisplayConfig(cfg DisplayConfig) {
	displayConfigMu.Lock()
	defer displayConfigMu.Unlock()
	globalDisplayConfig = cfg
}

// GetDisplayConfig returns the current global display configuration.
func GetDisplayConfig() DisplayConfig {
	displayConfigMu.RLock()
	defer displayConfigMu.RUnlock()
	return globalDisplayConfig
}

// SetMaxDisplayRows sets the maximum number of rows to display.
func SetMaxDisplayRows(n int) {
	displayConfigMu.Lock()
	defer displayConfigMu.Unlock()
	globalDisplayConfig.MaxRows = n
}

// SetTableStyle sets the table border style, ignoring unknown names.
func SetTableStyle(style string) {
	displayConfigMu.Lock()
	defer displayConfigMu.Unlock()
	if _, ok := tableStyles[style]; ok {
		globalDisplayConfig.TableStyle = style
	}
}

func formatDisplayValue(val any, cfg DisplayConfig) string {
	var s string
	switch v := val.(type) {
	case nil:
		s = "null"
	case float64:
		s = fmt.Sprintf(fmt.Sprintf("%%.%df", cfg.FloatPrecision), v)
	case string:
		s = v
	case bool:
		if v {
			s = "true"
		} else {
			s = "false"
		}
	default:
		s = fmt.Sprintf("%v", v)
	}
	if len(s) > cfg.MaxColWidth {
		s = s[:cfg.MaxColWidth-3] + "..."
	}
	return s
}

func (f *Frame) columnWidths(cfg DisplayConfig, rows []int) []int {
	widths := make([]int, len(f.cols))
	for i, col := range f.cols {
		widths[i] = len(col.Name())
		if cfg.ShowDTypes && len(col.DType().String()) > widths[i] {
			widths[i] = len(col.DType().String())
		}
		for _, r := range rows {
			if w := len(formatDisplayValue(col.Get(r), cfg)); w > widths[i] {
				widths[i] = w
			}
		}
		if widths[i] < cfg.MinColWidth {
			widths[i] = cfg.MinColWidth
		}
		if widths[i] > cfg.MaxColWidth {
			widths[i] = cfg.MaxColWidth
		}
	}
	return widths
}

// headTailIndices picks the visible indices out of n, inserting a -1
// marker where rows or columns were elided.
func headTailIndices(n, max int) []int {
	if n <= max {
		all := make([]int, n)
		for i := range all {
			all[i] = i
		}
		return all
	}
	head := max / 2
	tail := max - head
	out := make([]int, 0, max+1)
	for i := 0; i < head; i++ {
		out = append(out, i)
	}
	out = append(out, -1)
	for i := n - tail; i < n; i++ {
		out = append(out, i)
	}
	return out
}

func visibleOnly(indices []int) []int {
	out := make([]int, 0, len(indices))
	for _, i := range indices {
		if i >= 0 {
			out = append(out, i)
		}
	}
	return out
}

// StringWithConfig formats the frame using the provided configuration.
func (f *Frame) StringWithConfig(cfg DisplayConfig) string {
	if f.Height() == 0 || f.Width() == 0 {
		return "Frame(empty)"
	}

	chars, ok := tableStyles[cfg.TableStyle]
	if !ok {
		chars = tableStyles["rounded"]
	}

	var sb strings.Builder
	if cfg.ShowShape {
		fmt.Fprintf(&sb, "shape: (%d, %d)\n", f.Height(), f.Width())
	}

	colIdx := headTailIndices(f.Width(), cfg.MaxCols)
	rowIdx := headTailIndices(f.Height(), cfg.MaxRows)

	allWidths := f.columnWidths(cfg, visibleOnly(rowIdx))
	widths := make([]int, len(colIdx))
	for i, c := range colIdx {
		if c == -1 {
			widths[i] = 3
		} else {
			widths[i] = allWidths[c]
		}
	}

	border := func(left, t, right string) {
		sb.WriteString(left)
		for i, w := range widths {
			if i > 0 {
				sb.WriteString(t)
			}
			sb.WriteString(strings.Repeat(chars.horizontal, w+2))
		}
		sb.WriteString(right)
		sb.WriteString("\n")
	}

	border(chars.topLeft, chars.topT, chars.topRight)

	sb.WriteString(chars.vertical)
	for i, c := range colIdx {
		if c == -1 {
			fmt.Fprintf(&sb, " %*s ", widths[i], "…")
		} else {
			name := f.cols[c].Name()
			if len(name) > widths[i] {
				name = name[:widths[i]-3] + "..."
			}
			fmt.Fprintf(&sb, " %-*s ", widths[i], name)
		}
		sb.WriteString(chars.vertical)
	}
	sb.WriteString("\n")

	if cfg.ShowDTypes {
		sb.WriteString(chars.vertical)
		for i, c := range colIdx {
			if c == -1 {
				fmt.Fprintf(&sb, " %*s ", widths[i], "---")
			} else {
				dtype := f.cols[c].DType().String()
				if len(dtype) > widths[i] {
					dtype = dtype[:widths[i]-3] + "..."
				}
				fmt.Fprintf(&sb, " %-*s ", widths[i], dtype)
			}
			sb.WriteString(chars.vertical)
		}
		sb.WriteString("\n")
	}

	border(chars.leftT, chars.cross, chars.rightT)

	for _, r := range rowIdx {
		sb.WriteString(chars.vertical)
		for i, c := range colIdx {
			if r == -1 || c == -1 {
				fmt.Fprintf(&sb, " %*s ", widths[i], "…")
			} else {
				fmt.Fprintf(&sb, " %*s ", widths[i], formatDisplayValue(f.cols[c].Get(r), cfg))
			}
			sb.WriteString(chars.vertical)
		}
		sb.WriteString("\n")
	}

	sb.WriteString(chars.bottomLeft)
	for i, w := range widths {
		if i > 0 {
			sb.WriteString(chars.bottomT)
		}
		sb.WriteString(strings.Repeat(chars.horizontal, w+2))
	}
	sb.WriteString(chars.bottomRight)

	return sb.String()
}

// String renders the series with the global display config.
func (s *Series) String() string {
	return s.StringWithConfig(GetDisplayConfig())
}

// StringWithConfig formats the series using the provided configuration.
func (s *Series) StringWithConfig(cfg DisplayConfig) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Series: '%s' (%s)\n", s.Name(), s.DType())
	fmt.Fprintf(&sb, "length: %d\n", s.Len())
	if s.Len() == 0 {
		sb.WriteString("[]")
		return sb.String()
	}
	sb.WriteString("[")
	for i, r := range headTailIndices(s.Len(), cfg.MaxRows) {
		if i > 0 {
			sb.WriteString(", ")
		}
		if r == -1 {
			sb.WriteString("…")
		} else {
			sb.WriteString(formatDisplayValue(s.Get(r), cfg))
		}
	}
	sb.WriteString("]")
	return sb.String()
}
