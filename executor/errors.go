package executor

import (
	"errors"
	"fmt"
)

// ExecutionError wraps a storage-adapter or resource-acquisition failure
// raised during Open or Next. It propagates up the operator tree unchanged;
// already-opened operators get closed on the way out.
type ExecutionError struct {
	Op    string
	Cause error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("execution error in %s: %v", e.Op, e.Cause)
}

func (e *ExecutionError) Unwrap() error { return e.Cause }

// execError wraps cause into an ExecutionError unless it already is one, so
// the operator nearest the failure names it.
func execError(op string, cause error) error {
	var ee *ExecutionError
	if errors.As(cause, &ee) {
		return cause
	}
	return &ExecutionError{Op: op, Cause: cause}
}

// errNotOpen guards Next calls outside the Open/Close window.
var errNotOpen = errors.New("operator is not open")

// IsExecutionError reports whether err carries an ExecutionError.
func IsExecutionError(err error) bool {
	var ee *ExecutionError
	return errors.As(err, &ee)
}
