package plan

import "errors"

var (
	// ErrUnresolvedReference marks an unknown or ambiguous table, column or
	// function reference. Planning aborts, no partial tree is returned.
	ErrUnresolvedReference = errors.New("unresolved reference")
	// ErrTypeMismatch marks an expression whose operand or result types do
	// not fit its position, e.g. a non-boolean where predicate.
	ErrTypeMismatch = errors.New("type mismatch")
)
