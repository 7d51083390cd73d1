package sparkframe

import (
	"fmt"
	"math"
)

// evalNode evaluates an expression node against a frame. Every produced
// series has exactly the frame's row ids as its domain, in frame order.
func evalNode(node expr, f *Frame) (*Series, error) {
	switch e := node.(type) {
	case *colExpr:
		col := f.ColumnByName(e.col)
		if col == nil {
			return nil, fmt.Errorf("%w: %q", ErrUnknownColumn, e.col)
		}
		return col, nil

	case *litExpr:
		values := make([]any, f.Height())
		for i := range values {
			values[i] = e.value
		}
		return newSeriesWithIDs(e.name(), f.ids, values), nil

	case *aliasExpr:
		inner, err := evalNode(e.inner, f)
		if err != nil {
			return nil, err
		}
		return inner.Rename(e.alias), nil

	case *unaryExpr:
		input, err := evalNode(e.input, f)
		if err != nil {
			return nil, err
		}
		return mapUnary(e, input, f)

	case *binaryExpr:
		left, err := evalNode(e.left, f)
		if err != nil {
			return nil, err
		}
		right, err := evalNode(e.right, f)
		if err != nil {
			return nil, err
		}
		return mapBinary(e, left, right, f)

	case *fieldExpr:
		input, err := evalNode(e.input, f)
		if err != nil {
			return nil, err
		}
		return extractField(e, input, f)

	case *applyExpr:
		return evalApply(e, f)

	case *starExpr:
		values := make([]any, f.Height())
		for i := range values {
			values[i] = f.row(i)
		}
		return newSeriesWithIDs("*", f.ids, values), nil

	case *aggOverExpr:
		return evalAggOver(e, f)

	case *windowOverExpr:
		return evalWindowOver(e, f)

	default:
		return nil, fmt.Errorf("cannot evaluate expression node %T", node)
	}
}

// ----------------------------------------------------------------------------
// Elementwise kernels
// ----------------------------------------------------------------------------

func mapUnary(e *unaryExpr, input *Series, f *Frame) (*Series, error) {
	values := make([]any, input.Len())
	for i := 0; i < input.Len(); i++ {
		v := input.Get(i)
		if v == nil {
			values[i] = nil
			continue
		}
		out, err := applyUnary(e.op, v)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", e.name(), err)
		}
		values[i] = out
	}
	return newSeriesWithIDs(e.name(), f.ids, values), nil
}

func applyUnary(op unaryOp, v any) (any, error) {
	switch op {
	case opNeg:
		switch x := v.(type) {
		case int64:
			return -x, nil
		case float64:
			return -x, nil
		}
		return nil, fmt.Errorf("%w: cannot negate %T", ErrTypeMismatch, v)

	case opNot:
		if b, ok := v.(bool); ok {
			return !b, nil
		}
		return nil, fmt.Errorf("%w: NOT needs Bool, got %T", ErrTypeMismatch, v)

	case opAbs:
		switch x := v.(type) {
		case int64:
			if x < 0 {
				return -x, nil
			}
			return x, nil
		case float64:
			return math.Abs(x), nil
		}
		return nil, fmt.Errorf("%w: ABS needs a numeric, got %T", ErrTypeMismatch, v)

	default:
		x, ok := asFloat(v)
		if !ok {
			return nil, fmt.Errorf("%w: needs a numeric, got %T", ErrTypeMismatch, v)
		}
		switch op {
		case opSqrt:
			return math.Sqrt(x), nil
		case opExp:
			return math.Exp(x), nil
		case opLog:
			return math.Log(x), nil
		case opSin:
			return math.Sin(x), nil
		case opCos:
			return math.Cos(x), nil
		case opTan:
			return math.Tan(x), nil
		}
		return nil, fmt.Errorf("unknown unary op %d", op)
	}
}

func mapBinary(e *binaryExpr, left, right *Series, f *Frame) (*Series, error) {
	if left.Len() != right.Len() {
		return nil, fmt.Errorf("%w: operand lengths differ: %d vs %d", ErrArityMismatch, left.Len(), right.Len())
	}
	values := make([]any, left.Len())
	for i := 0; i < left.Len(); i++ {
		out, err := applyBinary(e.op, left.Get(i), right.Get(i))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", e.name(), err)
		}
		values[i] = out
	}
	return newSeriesWithIDs(e.name(), f.ids, values), nil
}

// applyBinary implements the null-propagating elementwise semantics: a
// null on either side yields null.
func applyBinary(op binaryOp, a, b any) (any, error) {
	if a == nil || b == nil {
		return nil, nil
	}

	switch op {
	case opAdd:
		if as, ok := a.(string); ok {
			bs, ok := b.(string)
			if !ok {
				return nil, fmt.Errorf("%w: cannot add %T to String", ErrTypeMismatch, b)
			}
			return as + bs, nil
		}
		return numericOp(op, a, b)

	case opSub, opMul, opDiv:
		return numericOp(op, a, b)

	case opEq:
		return valueEqual(a, b), nil
	case opNeq:
		return !valueEqual(a, b), nil

	case opGt:
		less, err := valueLess(b, a)
		if err != nil {
			return nil, err
		}
		return less, nil
	case opLt:
		less, err := valueLess(a, b)
		if err != nil {
			return nil, err
		}
		return less, nil
	case opGte:
		less, err := valueLess(a, b)
		if err != nil {
			return nil, err
		}
		return !less, nil
	case opLte:
		less, err := valueLess(b, a)
		if err != nil {
			return nil, err
		}
		return !less, nil

	case opAnd, opOr:
		ab, ok := a.(bool)
		if !ok {
			return nil, fmt.Errorf("%w: %s needs Bool, got %T", ErrTypeMismatch, op, a)
		}
		bb, ok := b.(bool)
		if !ok {
			return nil, fmt.Errorf("%w: %s needs Bool, got %T", ErrTypeMismatch, op, b)
		}
		if op == opAnd {
			return ab && bb, nil
		}
		return ab || bb, nil

	case opIn:
		list, ok := b.([]any)
		if !ok {
			return nil, fmt.Errorf("%w: IN needs a list, got %T", ErrTypeMismatch, b)
		}
		for _, e := range list {
			if valueEqual(a, e) {
				return true, nil
			}
		}
		return false, nil

	default:
		return nil, fmt.Errorf("unknown binary op %s", op)
	}
}

// numericOp applies arithmetic with int64 preserved when both operands
// are integers (division always widens to float64).
func numericOp(op binaryOp, a, b any) (any, error) {
	ai, aInt := a.(int64)
	bi, bInt := b.(int64)
	if aInt && bInt && op != opDiv {
		switch op {
		case opAdd:
			return ai + bi, nil
		case opSub:
			return ai - bi, nil
		case opMul:
			return ai * bi, nil
		}
	}
	af, ok := asFloat(a)
	if !ok {
		return nil, fmt.Errorf("%w: %s needs a numeric, got %T", ErrTypeMismatch, op, a)
	}
	bf, ok := asFloat(b)
	if !ok {
		return nil, fmt.Errorf("%w: %s needs a numeric, got %T", ErrTypeMismatch, op, b)
	}
	switch op {
	case opAdd:
		return af + bf, nil
	case opSub:
		return af - bf, nil
	case opMul:
		return af * bf, nil
	case opDiv:
		return af / bf, nil
	}
	return nil, fmt.Errorf("unknown arithmetic op %s", op)
}

func extractField(e *fieldExpr, input *Series, f *Frame) (*Series, error) {
	values := make([]any, input.Len())
	for i := 0; i < input.Len(); i++ {
		v := input.Get(i)
		if v == nil {
			values[i] = nil
			continue
		}
		cell, ok := v.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: field access %q needs a Struct cell, got %T", ErrTypeMismatch, e.field, v)
		}
		fieldVal, ok := cell[e.field]
		if !ok {
			return nil, fmt.Errorf("%w: struct field %q", ErrUnknownColumn, e.field)
		}
		values[i] = normalizeValue(fieldVal)
	}
	return newSeriesWithIDs(e.name(), f.ids, values), nil
}

func evalApply(e *applyExpr, f *Frame) (*Series, error) {
	inputs := make([]*Series, len(e.inputs))
	for i, in := range e.inputs {
		s, err := evalNode(in, f)
		if err != nil {
			return nil, err
		}
		inputs[i] = s
	}
	values := make([]any, f.Height())
	args := make([]any, len(inputs))
	for row := 0; row < f.Height(); row++ {
		for i, s := range inputs {
			args[i] = s.Get(row)
		}
		out, err := e.apply(args)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", e.name(), err)
		}
		values[row] = normalizeValue(out)
	}
	return newSeriesWithIDs(e.name(), f.ids, values), nil
}
