package models

import (
	"errors"
	"fmt"
)

var (
	// ErrUniquenessViolation is returned when a unique column (users.email, users.user_id) collides.
	ErrUniquenessViolation = errors.New("uniqueness violation")
	// ErrDomainViolation is returned when an enumerated column holds a value outside its domain.
	ErrDomainViolation = errors.New("domain violation")
	// ErrRequiredFieldMissing is returned when a non-nullable field without a default is empty.
	ErrRequiredFieldMissing = errors.New("required field missing")
	// ErrReferenceDangling is only produced by the storage layer when strict references are on.
	ErrReferenceDangling = errors.New("dangling reference")

	ErrNotFound     = errors.New("not found")
	ErrCyclicParent = errors.New("parent task would create a cycle")
	ErrAppendOnly   = errors.New("record is append-only")
)

// FieldError ties a validation failure to the column that caused it.
type FieldError struct {
	Entity string
	Field  string
	Err    error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s.%s: %v", e.Entity, e.Field, e.Err)
}

func (e *FieldError) Unwrap() error { return e.Err }

func missing(entity, field string) error {
	return &FieldError{Entity: entity, Field: field, Err: ErrRequiredFieldMissing}
}
