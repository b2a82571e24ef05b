package batch

import (
	"errors"
	"fmt"
)

// ErrDestructed is returned by operations on a Batch that has been
// destructed.
var ErrDestructed = errors.New("batch: destructed")

// ActionError is reported in processing events when the action fails for
// an item.
type ActionError struct {
	// Seq is the dispatch number of the item.
	Seq uint64
	Err error
}

func (e ActionError) Error() string {
	return fmt.Sprintf("action error (item %d): %v", e.Seq, e.Err)
}

func (e ActionError) Unwrap() error {
	return e.Err
}

// PanicError wraps a value recovered from a panicking action or filter.
type PanicError struct {
	Value any
	Stack []byte
}

func (e PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// Unwrap returns the recovered value if it is an error.
func (e PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}
