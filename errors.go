package sparkframe

import "errors"

// Sentinel errors returned by expression evaluation, grouping and
// selection. All of them are deterministic functions of the expression
// graph and the frame it is applied to; callers match with errors.Is.
var (
	// ErrUnknownColumn is returned when an expression references a column
	// name that does not exist in the frame at evaluation time.
	ErrUnknownColumn = errors.New("unknown column")

	// ErrTypeMismatch is returned when an operator is applied to values of
	// an incompatible dynamic type.
	ErrTypeMismatch = errors.New("type mismatch")

	// ErrDuplicateName is returned when two output columns or aggregates
	// would share a name. Checked before any evaluation proceeds.
	ErrDuplicateName = errors.New("duplicate column name")

	// ErrNotWindowable is returned when a positional window expression
	// (lead, lag, rank, ...) is used as a plain aggregate, or when a window
	// expression is evaluated without the ordering context it needs.
	ErrNotWindowable = errors.New("not usable outside a window")

	// ErrInvalidGroupingKey is returned by GroupBy/Rollup/Cube when a
	// grouping key is not a plain column of the frame.
	ErrInvalidGroupingKey = errors.New("invalid grouping key")

	// ErrArityMismatch is returned when an operation receives operands of
	// an incompatible shape, e.g. an array operation on a non-list cell.
	ErrArityMismatch = errors.New("arity mismatch")
)
