package store

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a record doesn't exist in its collection.
	ErrNotFound = errors.New("specmaster: record not found")

	// ErrValidation is returned when a required operation parameter is missing or empty.
	ErrValidation = errors.New("specmaster: validation failed")

	// ErrUnimplemented is returned when a custom request matches no registered pattern.
	ErrUnimplemented = errors.New("specmaster: unimplemented")

	// ErrAlreadyExists is returned when inserting a record whose id is already present.
	ErrAlreadyExists = errors.New("specmaster: record already exists")

	// ErrParentNotFound is returned when parent validation is enabled and the
	// referenced parent record doesn't exist.
	ErrParentNotFound = errors.New("specmaster: parent record not found")
)

// NotFoundError identifies the missing record. It unwraps to ErrNotFound.
type NotFoundError struct {
	Resource string
	ID       int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("specmaster: %s %d not found", e.Resource, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// ValidationError names the offending field. It unwraps to ErrValidation.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("specmaster: invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// UnimplementedError carries the method and path that matched nothing.
// It unwraps to ErrUnimplemented.
type UnimplementedError struct {
	Pattern string
}

func (e *UnimplementedError) Error() string {
	return fmt.Sprintf("specmaster: no handler for %q", e.Pattern)
}

func (e *UnimplementedError) Unwrap() error { return ErrUnimplemented }

func notFound(resource string, id int64) error {
	return &NotFoundError{Resource: resource, ID: id}
}

func isNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
