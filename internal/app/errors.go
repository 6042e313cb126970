package app

import (
	"errors"
	"fmt"
	"strings"
)

// All failures of the core are local and recoverable: an operation either
// applies fully or not at all, and the caller is told why.
var (
	// ErrNotFound is returned when an id does not exist in its collection.
	ErrNotFound = errors.New("record not found")

	// ErrEntityInUse blocks deletion of a workshop, educator or class
	// that is still referenced by at least one session.
	ErrEntityInUse = errors.New("record is referenced by existing sessions")

	// ErrNothingToSchedule is returned by batch creation when no valid
	// dates were supplied.
	ErrNothingToSchedule = errors.New("no valid dates to schedule")
)

// ValidationError is a precondition failure: the request never reached the
// conflict check and no state changed.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// ConflictError is the negative result of batch creation: the whole batch
// was rejected and Dates lists every colliding date.
type ConflictError struct {
	Dates []string
}

func (e *ConflictError) Error() string {
	return "educator already booked on: " + strings.Join(e.Dates, ", ")
}

// ImportError is a structural failure of an imported document; the current
// state is left untouched.
type ImportError struct {
	Reason string
}

func (e *ImportError) Error() string {
	return "invalid import document: " + e.Reason
}
