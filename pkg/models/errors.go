package models

import (
	"errors"
	"fmt"
)

// ErrValidation matches every structural problem reported by Atom.Validate.
var ErrValidation = errors.New("atom validation failed")

// ErrEmptyContent is returned when an atom's content is blank after trimming.
var ErrEmptyContent error = &validationError{msg: "atom content must not be empty"}

type validationError struct {
	msg string
}

func (e *validationError) Error() string { return e.msg }

func (e *validationError) Is(target error) bool { return target == ErrValidation }

// InvalidEventWindowError reports an event window whose end precedes its start.
type InvalidEventWindowError struct {
	Start int64
	End   int64
}

func (e *InvalidEventWindowError) Error() string {
	return fmt.Sprintf("invalid event window: end_at %d is before start_at %d", e.End, e.Start)
}

func (e *InvalidEventWindowError) Is(target error) bool { return target == ErrValidation }

// InvalidTaskStatusError reports a status value outside the known set.
type InvalidTaskStatusError struct {
	Value string
}

func (e *InvalidTaskStatusError) Error() string {
	return fmt.Sprintf("invalid task status %q", e.Value)
}

func (e *InvalidTaskStatusError) Is(target error) bool { return target == ErrValidation }
