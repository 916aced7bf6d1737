package adapter

import (
	"errors"
	"fmt"
)

// InvariantError reports a contract violation between the adapter and
// its caller or the engine: the kind of failure after which the
// execution graph can no longer be trusted. It is delivered by panic,
// never as an ordinary result.
type InvariantError struct {
	// Op is the operation during which the violation was detected.
	Op string

	// Message describes the violated contract.
	Message string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("adapter invariant violated in %s: %s", e.Op, e.Message)
}

// IsInvariantError reports whether err (or a recovered panic value
// wrapped into an error) is an adapter invariant violation.
func IsInvariantError(err error) bool {
	var ie *InvariantError
	return errors.As(err, &ie)
}

// invariantf panics with an *InvariantError. Used for the fatal tier of
// the error model; the recoverable tier travels inside result records.
func invariantf(op, format string, args ...any) {
	panic(&InvariantError{Op: op, Message: fmt.Sprintf(format, args...)})
}
