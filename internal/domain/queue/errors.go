package queue

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates the patient id does not exist.
	ErrNotFound = errors.New("patient not found")

	// ErrTokenNotFound indicates no waiting patient holds the token. A
	// served token and a never-issued one are indistinguishable to the
	// caller.
	ErrTokenNotFound = errors.New("invalid token number")

	// ErrAlreadyServed indicates a serve on a patient who is already DONE.
	// Kept as a conflict rather than a no-op so double serves stay visible.
	ErrAlreadyServed = errors.New("patient already served")

	// ErrQueueEmpty signals an empty queue to the doctor console. It is a
	// state, not a failure.
	ErrQueueEmpty = errors.New("queue is empty")
)

// ValidationError reports a missing or invalid registration field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}
