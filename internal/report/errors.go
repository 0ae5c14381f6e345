package report

import (
	"errors"
	"fmt"
)

// ErrSessionNotFound is returned when a session id matches no wrangled
// session.
var ErrSessionNotFound = errors.New("session not found")

func sessionNotFound(id int64) error {
	return fmt.Errorf("%w: %d", ErrSessionNotFound, id)
}

// IsSessionNotFound checks if an error is a session not found error.
func IsSessionNotFound(err error) bool {
	return errors.Is(err, ErrSessionNotFound)
}
