package store

import (
	"errors"
	"fmt"
)

// ErrEmptyTitle is the cause of a ValidationError for a blank title.
var ErrEmptyTitle = errors.New("title required")

// ValidationError reports caller input rejected before reaching a store.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Err)
	}
	return e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *ValidationError) Unwrap() error {
	return e.Err
}

// PersistenceError reports a store operation that could not be completed.
// The operation is treated as not applied.
type PersistenceError struct {
	Op  string // create, fetch, update, delete, deleteAll
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s failed: %s", e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// Wrap returns err as a *PersistenceError for op. A nil err stays nil and an
// existing PersistenceError is returned unchanged.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	var pe *PersistenceError
	if errors.As(err, &pe) {
		return err
	}
	return &PersistenceError{Op: op, Err: err}
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsPersistence reports whether err is a PersistenceError.
func IsPersistence(err error) bool {
	var pe *PersistenceError
	return errors.As(err, &pe)
}
