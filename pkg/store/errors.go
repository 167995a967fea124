package store

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound matches every NotFoundError.
	ErrNotFound = errors.New("not found")
	// ErrInvalidData signals a persisted row that does not describe a valid entity.
	ErrInvalidData = errors.New("invalid persisted data")
	// ErrSchemaNotReady matches the schema errors raised while constructing a repository.
	ErrSchemaNotReady = errors.New("storage schema is not ready")
	ErrReadOnly       = errors.New("operation denied: store is in read-only mode")
	ErrAlreadyExists  = errors.New("already exists")
)

// NotFoundError reports a missing or soft-deleted target of a mutation.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Entity, e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// InvalidDataError reports a stored row that failed to parse or validate.
type InvalidDataError struct {
	Table   string
	ID      string
	Message string
}

func (e *InvalidDataError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("invalid data in %s: %s", e.Table, e.Message)
	}
	return fmt.Sprintf("invalid data in %s row %s: %s", e.Table, e.ID, e.Message)
}

func (e *InvalidDataError) Is(target error) bool { return target == ErrInvalidData }

// UninitializedConnectionError reports a schema version other than the one the code expects.
type UninitializedConnectionError struct {
	Expected int
	Actual   int
}

func (e *UninitializedConnectionError) Error() string {
	return fmt.Sprintf("uninitialized connection: expected schema version %d, got %d", e.Expected, e.Actual)
}

func (e *UninitializedConnectionError) Is(target error) bool { return target == ErrSchemaNotReady }

type MissingTableError struct {
	Table string
}

func (e *MissingTableError) Error() string {
	return fmt.Sprintf("missing required table %q", e.Table)
}

func (e *MissingTableError) Is(target error) bool { return target == ErrSchemaNotReady }

type MissingColumnError struct {
	Table  string
	Column string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("missing required column %q in table %q", e.Column, e.Table)
}

func (e *MissingColumnError) Is(target error) bool { return target == ErrSchemaNotReady }
