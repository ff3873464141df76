package workflow

import "errors"

var (
	// ErrInvalidTransition is returned when the current state does not permit the trigger
	ErrInvalidTransition = errors.New("invalid state transition")

	// ErrGuardFailed is returned when every guarded transition for a trigger refused
	ErrGuardFailed = errors.New("guard condition failed")
)
