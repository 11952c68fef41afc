package orchestrator

import (
	"errors"
	"fmt"
	"strings"
)

// ErrSessionActive is returned when a race is requested while one is running
var ErrSessionActive = errors.New("a race session is already active")

// ErrNoSession is returned by Wait when no race was ever started
var ErrNoSession = errors.New("no race session")

// ErrTornDown ends a session whose view was dismantled before it finished
var ErrTornDown = errors.New("race session torn down")

// ValidationError reports an incomplete selection. It is user visible and
// never retried.
type ValidationError struct {
	Missing []string
}

func (e *ValidationError) Error() string {
	return "select a " + strings.Join(e.Missing, " and a ") + " before starting a race"
}

// CreateRaceError wraps the service failure that prevented a race from being
// created. The session moves to the failed state.
type CreateRaceError struct {
	Err error
}

func (e *CreateRaceError) Error() string {
	return fmt.Sprintf("failed to create race: %v", e.Err)
}

func (e *CreateRaceError) Unwrap() error {
	return e.Err
}
