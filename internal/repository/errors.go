package repository

import (
	"errors"
	"fmt"
)

// ErrNotFound indicates an entity was not located.
var ErrNotFound = errors.New("repository: not found")

// QueryError wraps a store failure with the operation that issued it.
// It always carries the store's diagnostic text and is never retried.
type QueryError struct {
	Op  string
	Err error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("%s: query failed: %v", e.Op, e.Err)
}

func (e *QueryError) Unwrap() error { return e.Err }

// NewQueryError tags a store error with its originating operation.
func NewQueryError(op string, err error) *QueryError {
	return &QueryError{Op: op, Err: err}
}
