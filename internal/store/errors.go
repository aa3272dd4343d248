package store

import (
	"errors"
	"fmt"
)

// ErrConstraintViolation is matched by errors.Is when a statement broke a
// uniqueness constraint, whichever engine reported it.
var ErrConstraintViolation = errors.New("store: constraint violation")

// ConstraintError carries the engine's own description of a uniqueness
// violation.
type ConstraintError struct {
	Backend    string
	Constraint string
	Err        error
}

func (e *ConstraintError) Error() string {
	if e.Constraint != "" {
		return fmt.Sprintf("%s: unique constraint %q violated", e.Backend, e.Constraint)
	}
	return fmt.Sprintf("%s: unique constraint violated: %v", e.Backend, e.Err)
}

func (e *ConstraintError) Unwrap() error { return e.Err }

func (e *ConstraintError) Is(target error) bool { return target == ErrConstraintViolation }

// StatementError is any other failure while preparing, running or reading a
// statement.
type StatementError struct {
	Backend string
	Op      string
	Err     error
}

func (e *StatementError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Backend, e.Op, e.Err)
}

func (e *StatementError) Unwrap() error { return e.Err }
