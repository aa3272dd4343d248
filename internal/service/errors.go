package service

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrValidation   = errors.New("validation failed")
	ErrUnauthorized = errors.New("invalid credentials")
	ErrConflict     = errors.New("already exists")
	// ErrNotFoundOrForbidden covers both a missing booking and one owned by
	// someone else, so callers cannot probe for other users' bookings.
	ErrNotFoundOrForbidden = errors.New("booking not found")
	ErrStorage             = errors.New("storage failure")
	// ErrNotification means the booking was saved but its emails were not sent.
	ErrNotification = errors.New("booking saved, but email failed to send")
)

type ValidationError struct {
	Fields []string
	Msg    string
}

func (e *ValidationError) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	return "missing required fields: " + strings.Join(e.Fields, ", ")
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// required returns a ValidationError naming every blank field, in order.
func required(fields ...[2]string) error {
	var missing []string
	for _, f := range fields {
		if strings.TrimSpace(f[1]) == "" {
			missing = append(missing, f[0])
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return &ValidationError{Fields: missing}
}

func storageErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStorage, op, err)
}

// NoRows turns a zero affected-row count into ErrNotFoundOrForbidden for
// callers that prefer an error to a count.
func NoRows(affected int64) error {
	if affected == 0 {
		return ErrNotFoundOrForbidden
	}
	return nil
}
