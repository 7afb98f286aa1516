package core

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrInvalidDate       = errors.New("invalid date")
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrInvalidKind       = errors.New("invalid transaction kind")
	ErrUnknownMethod     = errors.New("unknown transaction method")
	ErrBadDescriptor     = errors.New("malformed method descriptor")
	ErrDuplicateMethod   = errors.New("method already registered")
	ErrEmptyMethodName   = errors.New("empty method name")
	ErrSameTransferSides = errors.New("transfer source and destination are the same method")
)

// ValidationError reports a rejected input together with the field at fault.
// The wrapped sentinel stays reachable through errors.Is.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// NewValidationError wraps a sentinel with the offending field name.
func NewValidationError(field string, err error) *ValidationError {
	return &ValidationError{Field: field, Err: err}
}

// NotFoundError reports an unknown transaction id.
type NotFoundError struct {
	ID int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("transaction %d not found", e.ID)
}

// StorageError reports a durability failure. The enclosing unit of work is
// rolled back before one of these reaches the caller.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// OutOfRangeError reports a transaction date outside the configured span.
// Dates outside the span are rejected outright rather than partially applied.
type OutOfRangeError struct {
	Date      time.Time
	StartYear int
	EndYear   int
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("date %s outside configured range %d-%d",
		e.Date.Format("2006-01-02"), e.StartYear, e.EndYear)
}
