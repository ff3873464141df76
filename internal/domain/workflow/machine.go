package workflow

import "context"

// StateMachine tracks one PO's state and validates transitions
type StateMachine interface {
	State() State

	// CanFire reports whether the trigger is configured for the current state
	CanFire(trigger Trigger) bool

	// Fire moves to the first transition whose guard passes
	Fire(ctx context.Context, trigger Trigger) error

	PermittedTriggers() []Trigger
}
