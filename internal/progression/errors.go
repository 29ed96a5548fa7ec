package progression

import (
	"errors"
	"fmt"
)

// ErrInvalidProgressionInput is returned for inputs outside the engine's
// domain: negative XP, scores outside 0..100, negative durations.
var ErrInvalidProgressionInput = errors.New("invalid progression input")

func invalidInput(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidProgressionInput, fmt.Sprintf(format, args...))
}
