package collab

import (
	"errors"
	"fmt"
)

// ErrNotConverged indicates clients ended a sync round at different versions.
var ErrNotConverged = errors.New("clients did not converge")

// SyncError wraps a failure while delivering one client's operations to another.
type SyncError struct {
	From, To string
	Err      error
}

func (e *SyncError) Error() string {
	return fmt.Sprintf("sync %s -> %s: %v", e.From, e.To, e.Err)
}

func (e *SyncError) Unwrap() error {
	return e.Err
}
