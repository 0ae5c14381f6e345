package analysis

import (
	"errors"
	"fmt"
)

// ErrInvalidQuery is returned for analysis parameters that can never be valid.
var ErrInvalidQuery = errors.New("invalid query")

func invalidQuery(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidQuery, fmt.Sprintf(format, args...))
}
