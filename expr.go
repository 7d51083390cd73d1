package sparkframe

import (
	"fmt"
	"strings"
)

// Column is a named, deferred computation over a frame producing one
// series. Columns are immutable value objects: combining two columns
// builds a new expression tree and never mutates a child, so they are
// freely shareable and reusable across evaluation calls.
type Column struct {
	node expr
}

// expr is the closed variant set of expression nodes. Evaluation is a
// single dispatch over the node kind in eval.go; the textual name is a
// pure function over the tree.
type expr interface {
	name() string
}

type colExpr struct {
	col string
}

type litExpr struct {
	value any
}

type aliasExpr struct {
	inner expr
	alias string
}

type unaryOp uint8

const (
	opNeg unaryOp = iota
	opNot
	opSqrt
	opExp
	opLog
	opAbs
	opSin
	opCos
	opTan
)

type unaryExpr struct {
	op    unaryOp
	input expr
}

type binaryOp uint8

const (
	opAdd binaryOp = iota
	opSub
	opMul
	opDiv
	opEq
	opNeq
	opGt
	opLt
	opGte
	opLte
	opAnd
	opOr
	opIn
)

func (op binaryOp) String() string {
	switch op {
	case opAdd:
		return "+"
	case opSub:
		return "-"
	case opMul:
		return "*"
	case opDiv:
		return "/"
	case opEq:
		return "=="
	case opNeq:
		return "!="
	case opGt:
		return ">"
	case opLt:
		return "<"
	case opGte:
		return ">="
	case opLte:
		return "<="
	case opAnd:
		return "AND"
	case opOr:
		return "OR"
	case opIn:
		return "IN"
	default:
		return "?"
	}
}

type binaryExpr struct {
	left  expr
	op    binaryOp
	right expr
}

// fieldExpr extracts one field from a Struct column.
type fieldExpr struct {
	input expr
	field string
}

// applyExpr lifts a user elementwise function over argument expressions.
// Arguments are evaluated, zipped row-wise, and fed to fn per row.
type applyExpr struct {
	fn     string
	apply  func(args []any) (any, error)
	inputs []expr
}

// starExpr evaluates to one tuple per row combining every column of the
// frame, in column order.
type starExpr struct{}

func (*starExpr) name() string { return "*" }

// aggOverExpr is a plain aggregate lifted over a window: the group's
// reduction is broadcast to every row sharing the group.
type aggOverExpr struct {
	agg *AggColumn
	win *Window
}

// windowOverExpr is a positional window transform over a window.
type windowOverExpr struct {
	wt  *WindowColumn
	win *Window
}

// ----------------------------------------------------------------------------
// Name rendering
// ----------------------------------------------------------------------------

func (e *colExpr) name() string   { return e.col }
func (e *litExpr) name() string   { return fmt.Sprintf("LIT(%v)", e.value) }
func (e *aliasExpr) name() string { return e.alias }
func (e *fieldExpr) name() string { return e.field }

func (e *unaryExpr) name() string {
	in := e.input.name()
	switch e.op {
	case opNeg:
		return "(-" + in + ")"
	case opNot:
		return "(NOT " + in + ")"
	case opSqrt:
		return "SQRT(" + in + ")"
	case opExp:
		return "EXP(" + in + ")"
	case opLog:
		return "LOG(" + in + ")"
	case opAbs:
		return "ABS(" + in + ")"
	case opSin:
		return "SIN(" + in + ")"
	case opCos:
		return "COS(" + in + ")"
	case opTan:
		return "TAN(" + in + ")"
	default:
		return "?(" + in + ")"
	}
}

func (e *binaryExpr) name() string {
	return "(" + e.left.name() + " " + e.op.String() + " " + e.right.name() + ")"
}

func (e *applyExpr) name() string {
	args := make([]string, len(e.inputs))
	for i, in := range e.inputs {
		args[i] = in.name()
	}
	return e.fn + "(" + strings.Join(args, ", ") + ")"
}

func (e *aggOverExpr) name() string {
	return e.agg.Name() + " OVER (" + e.win.Name() + ")"
}

func (e *windowOverExpr) name() string {
	return e.wt.Name() + " OVER (" + e.win.Name() + ")"
}

// ----------------------------------------------------------------------------
// Constructors
// ----------------------------------------------------------------------------

// Col references a column by name. A dotted name like "a.b.c" decomposes
// into a base lookup followed by struct field extractions, each named
// after its sub-field. The reserved name "*" produces a tuple of all
// columns per row (see also Star for the expanding form).
func Col(name string) *Column {
	if name == "*" {
		return &Column{node: &starExpr{}}
	}
	parts := strings.Split(name, ".")
	var node expr = &colExpr{col: parts[0]}
	for _, field := range parts[1:] {
		node = &fieldExpr{input: node, field: field}
	}
	return &Column{node: node}
}

// Lit is a column whose evaluation ignores the frame and broadcasts the
// literal value to every row.
func Lit(value any) *Column {
	return &Column{node: &litExpr{value: normalizeValue(value)}}
}

// Name returns the deterministic textual rendering of the expression,
// used for display and as the default output column name.
func (c *Column) Name() string { return c.node.name() }

// String implements fmt.Stringer.
func (c *Column) String() string { return "<Column " + c.Name() + ">" }

// Alias returns a column with identical evaluation under a new name.
func (c *Column) Alias(name string) *Column {
	return &Column{node: &aliasExpr{inner: c.node, alias: name}}
}

// Eval evaluates the column against a frame.
func (c *Column) Eval(f *Frame) (*Series, error) {
	return evalNode(c.node, f)
}

func (c *Column) binary(op binaryOp, other *Column) *Column {
	return &Column{node: &binaryExpr{left: c.node, op: op, right: other.node}}
}

func (c *Column) unary(op unaryOp) *Column {
	return &Column{node: &unaryExpr{op: op, input: c.node}}
}

// Arithmetic operators.
func (c *Column) Add(other *Column) *Column { return c.binary(opAdd, other) }
func (c *Column) Sub(other *Column) *Column { return c.binary(opSub, other) }
func (c *Column) Mul(other *Column) *Column { return c.binary(opMul, other) }
func (c *Column) Div(other *Column) *Column { return c.binary(opDiv, other) }
func (c *Column) Neg() *Column              { return c.unary(opNeg) }

// Comparison operators.
func (c *Column) Eq(other *Column) *Column  { return c.binary(opEq, other) }
func (c *Column) Neq(other *Column) *Column { return c.binary(opNeq, other) }
func (c *Column) Gt(other *Column) *Column  { return c.binary(opGt, other) }
func (c *Column) Lt(other *Column) *Column  { return c.binary(opLt, other) }
func (c *Column) Gte(other *Column) *Column { return c.binary(opGte, other) }
func (c *Column) Lte(other *Column) *Column { return c.binary(opLte, other) }

// Boolean operators.
func (c *Column) And(other *Column) *Column { return c.binary(opAnd, other) }
func (c *Column) Or(other *Column) *Column  { return c.binary(opOr, other) }
func (c *Column) Not() *Column              { return c.unary(opNot) }

// IsIn is true where the column's value is contained in values.
func (c *Column) IsIn(values ...any) *Column {
	list := make([]any, len(values))
	for i, v := range values {
		list[i] = normalizeValue(v)
	}
	return c.binary(opIn, Lit(list))
}

// Between is true where start <= value <= end.
func (c *Column) Between(start, end *Column) *Column {
	return c.Gte(start).And(c.Lte(end))
}

// Field extracts a field from a Struct column.
func (c *Column) Field(name string) *Column {
	return &Column{node: &fieldExpr{input: c.node, field: name}}
}

// Apply lifts fn elementwise over this column.
func (c *Column) Apply(fnName string, fn func(v any) (any, error)) *Column {
	return UDF(fnName, func(args []any) (any, error) {
		return fn(args[0])
	})(c)
}

// UDF turns fn into a combinator that applies it elementwise across the
// evaluated argument columns, zipped row by row.
func UDF(name string, fn func(args []any) (any, error)) func(cols ...*Column) *Column {
	return func(cols ...*Column) *Column {
		inputs := make([]expr, len(cols))
		for i, c := range cols {
			inputs[i] = c.node
		}
		return &Column{node: &applyExpr{fn: "UDF " + name, apply: fn, inputs: inputs}}
	}
}

// ----------------------------------------------------------------------------
// Column functions
// ----------------------------------------------------------------------------

// Sqrt computes the square root elementwise.
func Sqrt(c *Column) *Column { return c.unary(opSqrt) }

// Exp computes e**x elementwise.
func Exp(c *Column) *Column { return c.unary(opExp) }

// Log computes the natural logarithm elementwise.
func Log(c *Column) *Column { return c.unary(opLog) }

// Abs computes the absolute value elementwise.
func Abs(c *Column) *Column { return c.unary(opAbs) }

// Sin computes the sine elementwise.
func Sin(c *Column) *Column { return c.unary(opSin) }

// Cos computes the cosine elementwise.
func Cos(c *Column) *Column { return c.unary(opCos) }

// Tan computes the tangent elementwise.
func Tan(c *Column) *Column { return c.unary(opTan) }

// Struct combines columns into a single tuple-per-row column. Multi-arg
// elementwise functions funnel through it so zipping stays well-defined
// for arbitrary arity.
func Struct(cols ...*Column) *Column {
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.Name()
	}
	tuple := UDF("struct", func(args []any) (any, error) {
		out := make([]any, len(args))
		copy(out, args)
		return out, nil
	})(cols...)
	return tuple.Alias("(" + strings.Join(names, ", ") + ")")
}

// Array builds a list-valued column from the given columns.
func Array(cols ...*Column) *Column {
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.Name()
	}
	return Struct(cols...).Alias("[" + strings.Join(names, ", ") + "]")
}

// ArrayContains is true where the list cell contains value.
func ArrayContains(c *Column, value any) *Column {
	want := normalizeValue(value)
	contains := c.Apply("array_contains", func(v any) (any, error) {
		if v == nil {
			return nil, nil
		}
		list, ok := v.([]any)
		if !ok {
			return nil, fmt.Errorf("%w: ARRAY_CONTAINS needs a list cell, got %T", ErrArityMismatch, v)
		}
		for _, e := range list {
			if valueEqual(e, want) {
				return true, nil
			}
		}
		return false, nil
	})
	return contains.Alias(fmt.Sprintf("ARRAY_CONTAINS(%s, %v)", c.Name(), value))
}

// ArrayDistinct removes duplicate elements from each list cell, keeping
// first-occurrence order.
func ArrayDistinct(c *Column) *Column {
	distinct := c.Apply("array_distinct", func(v any) (any, error) {
		if v == nil {
			return nil, nil
		}
		list, ok := v.([]any)
		if !ok {
			return nil, fmt.Errorf("%w: ARRAY_DISTINCT needs a list cell, got %T", ErrArityMismatch, v)
		}
		out := make([]any, 0, len(list))
		for _, e := range list {
			dup := false
			for _, kept := range out {
				if valueEqual(kept, e) {
					dup = true
					break
				}
			}
			if !dup {
				out = append(out, e)
			}
		}
		return out, nil
	})
	return distinct.Alias("ARRAY_DISTINCT(" + c.Name() + ")")
}

// ConcatWS concatenates string columns with sep between them.
func ConcatWS(sep string, cols ...*Column) *Column {
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.Name()
	}
	joined := UDF("concat_ws", func(args []any) (any, error) {
		parts := make([]string, len(args))
		for i, a := range args {
			s, ok := a.(string)
			if !ok {
				return nil, fmt.Errorf("%w: CONCAT_WS needs string cells, got %T", ErrTypeMismatch, a)
			}
			parts[i] = s
		}
		return strings.Join(parts, sep), nil
	})(cols...)
	return joined.Alias(fmt.Sprintf("CONCAT_WS(%q, %s)", sep, strings.Join(names, ", ")))
}
