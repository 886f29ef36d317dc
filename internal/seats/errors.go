package seats

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrSeatNotFound = errors.New("seat not found")
	ErrSeatConflict = errors.New("seat not available")
	ErrHoldNotFound = errors.New("hold not found")
	ErrHoldExpired  = errors.New("hold expired")
	ErrTooManySeats = errors.New("too many seats requested")
)

// HoldConflictError reports which requested seats were not free, so callers
// can tell the user exactly what to re-pick. Matches ErrSeatConflict under
// errors.Is.
type HoldConflictError struct {
	Labels []string
}

func (e *HoldConflictError) Error() string {
	return fmt.Sprintf("seats not available: %s", strings.Join(e.Labels, ", "))
}

func (e *HoldConflictError) Is(target error) bool {
	return target == ErrSeatConflict
}
