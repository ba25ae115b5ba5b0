package lifecycle

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when an operation references a menu id that is not
// in the staging store.
var ErrNotFound = errors.New("menu not found in staging")

// ErrConflictRequiresConfirmation is returned by Publish when the computed
// production path is already occupied and the caller has not confirmed the
// overwrite. It is a decision point, not a failure: retrying with confirmation
// proceeds, anything else aborts.
var ErrConflictRequiresConfirmation = errors.New("menu already exists in production; confirmation required to overwrite")

// ValidationError reports a missing or malformed field. The operation aborts
// before any write.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// IsValidation helps callers distinguish business rule violations from
// infrastructure failures.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// PreconditionError reports a status guard violation, e.g. publishing a menu
// that is not approved.
type PreconditionError struct {
	Op       string
	Current  string
	Required string
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("%s requires status %q, menu is %q", e.Op, e.Required, e.Current)
}

func IsPrecondition(err error) bool {
	var p *PreconditionError
	return errors.As(err, &p)
}

// StoreUnavailableError wraps a transport failure from the document store.
// Nothing in this package retries; callers surface it as retryable.
type StoreUnavailableError struct {
	Op  string
	Err error
}

func (e *StoreUnavailableError) Error() string {
	return fmt.Sprintf("store unavailable during %s: %v", e.Op, e.Err)
}

func (e *StoreUnavailableError) Unwrap() error { return e.Err }

func IsStoreUnavailable(err error) bool {
	var s *StoreUnavailableError
	return errors.As(err, &s)
}

// RejectedValueError reports that the store refused a value shape. The
// adapter strips empty and undefined fields before every write, so this is
// defensive: it should not occur in normal operation.
type RejectedValueError struct {
	Field string
	Err   error
}

func (e *RejectedValueError) Error() string {
	return fmt.Sprintf("store rejected value for %s: %v", e.Field, e.Err)
}

func (e *RejectedValueError) Unwrap() error { return e.Err }
