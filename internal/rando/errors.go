package rando

import (
	"errors"
	"fmt"
)

// ErrImpossibleMap is returned when an attempt cannot be completed: no legal
// pairing exists, an edge insert did not take effect, or validation failed.
// The retry driver recovers from it by advancing the seed.
var ErrImpossibleMap = errors.New("impossible map")

// ErrInvalidWorld is returned when the static world data cannot support any
// attempt, e.g. no root candidate is present at the configured level.
var ErrInvalidWorld = errors.New("invalid world")

// ErrRetriesExhausted is returned when a bounded retry loop gives up.
var ErrRetriesExhausted = errors.New("retries exhausted")

func impossible(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrImpossibleMap, fmt.Sprintf(format, args...))
}
