// Package workflow wires the PO state machine to the persisted PO status.
package workflow

import (
	"context"
	"fmt"

	"github.com/zosarillana/prs-be/internal/domain/entity"
	domainwf "github.com/zosarillana/prs-be/internal/domain/workflow"
)

var (
	toState = map[entity.POStatus]domainwf.State{
		entity.POStatusNone:        domainwf.StateNone,
		entity.POStatusForApproval: domainwf.StateForApproval,
		entity.POStatusApproved:    domainwf.StateApproved,
		entity.POStatusCancelled:   domainwf.StateCancelled,
		entity.POStatusReturned:    domainwf.StateReturned,
	}
	toStatus = func() map[domainwf.State]entity.POStatus {
		m := make(map[domainwf.State]entity.POStatus, len(toState))
		for k, v := range toState {
			m[v] = k
		}
		return m
	}()
)

// BuildPOStateMachine creates a machine for the PO sub-lifecycle of a report
func BuildPOStateMachine(initialState domainwf.State) domainwf.StateMachine {
	builder := domainwf.NewBuilder()

	builder.Configure(domainwf.StateNone).
		Permit(domainwf.TriggerAssign, domainwf.StateForApproval)

	builder.Configure(domainwf.StateForApproval).
		Permit(domainwf.TriggerApprove, domainwf.StateApproved).
		Permit(domainwf.TriggerCancel, domainwf.StateCancelled).
		Permit(domainwf.TriggerReturn, domainwf.StateReturned)

	builder.Configure(domainwf.StateApproved).
		Permit(domainwf.TriggerCancel, domainwf.StateCancelled).
		Permit(domainwf.TriggerReturn, domainwf.StateReturned)

	// a cancelled or returned PO can be issued again under a new number
	builder.Configure(domainwf.StateCancelled).
		Permit(domainwf.TriggerAssign, domainwf.StateForApproval)
	builder.Configure(domainwf.StateReturned).
		Permit(domainwf.TriggerAssign, domainwf.StateForApproval)

	return builder.Build(initialState)
}

// NextPOStatus fires trigger against the stored PO status and returns the
// resulting status. Illegal moves wrap domainwf.ErrInvalidTransition.
func NextPOStatus(ctx context.Context, current entity.POStatus, trigger domainwf.Trigger) (entity.POStatus, error) {
	state, ok := toState[current]
	if !ok {
		return "", fmt.Errorf("%w: unknown po status %q", domainwf.ErrInvalidTransition, current)
	}

	m := BuildPOStateMachine(state)
	if err := m.Fire(ctx, trigger); err != nil {
		return "", err
	}
	return toStatus[m.State()], nil
}

// PermittedPOTriggers lists what may be done next with a PO in status current
func PermittedPOTriggers(current entity.POStatus) []domainwf.Trigger {
	state, ok := toState[current]
	if !ok {
		return nil
	}
	return BuildPOStateMachine(state).PermittedTriggers()
}
