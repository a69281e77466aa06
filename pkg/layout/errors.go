package layout

import (
	"errors"
	"fmt"
)

var (
	// ErrNotInitialized is returned by Tick and Finish before Initialize
	ErrNotInitialized = errors.New("layout engine not initialized")

	// ErrFinished is returned by Tick after Finish until the next Initialize
	ErrFinished = errors.New("layout engine finished")

	// ErrNilView is returned when no graph view is supplied
	ErrNilView = errors.New("nil graph view")

	// ErrGraphChanged is returned when the view no longer matches the
	// snapshot taken by Initialize
	ErrGraphChanged = errors.New("graph structure changed since initialization")

	// ErrTickInProgress is returned when Tick is entered concurrently
	ErrTickInProgress = errors.New("another tick is in progress")
)

// TickError reports a failed tick. No position was committed.
type TickError struct {
	Tick  uint64 // Tick number that failed, starting at 1
	Phase string // Phase that failed
	Err   error  // Joined task failures
}

// Error implements the error interface.
func (e *TickError) Error() string {
	return fmt.Sprintf("tick %d: %s phase failed: %v", e.Tick, e.Phase, e.Err)
}

// Unwrap returns the underlying error
func (e *TickError) Unwrap() error {
	return e.Err
}
