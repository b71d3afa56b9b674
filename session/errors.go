package session

import (
	"errors"
	"fmt"
)

var (
	// ErrUserCancelled is returned when the ROM chooser is dismissed.
	ErrUserCancelled = errors.New("ROM selection cancelled")

	// ErrConstructionFailed matches any *ConstructionError.
	ErrConstructionFailed = errors.New("engine construction failed")

	// ErrAlreadyStarted is returned when Start is called more than once.
	ErrAlreadyStarted = errors.New("session already started")
)

// ConstructionError reports that the engine rejected a ROM.
type ConstructionError struct {
	ROM string
	Err error
}

func (e *ConstructionError) Error() string {
	return fmt.Sprintf("construct engine for %s: %v", e.ROM, e.Err)
}

func (e *ConstructionError) Unwrap() error { return e.Err }

// Is matches ErrConstructionFailed.
func (e *ConstructionError) Is(target error) bool {
	return target == ErrConstructionFailed
}
