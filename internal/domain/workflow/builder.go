package workflow

import (
	"context"
	"fmt"
	"sort"
)

// GuardFunc decides whether a guarded transition may be taken
type GuardFunc func(ctx context.Context) bool

// StateMachineBuilder collects transitions and stamps out machines
type StateMachineBuilder interface {
	// Configure returns the transition table of a source state
	Configure(state State) StateConfiguration

	// Build returns a machine positioned at initialState
	Build(initialState State) StateMachine
}

// StateConfiguration adds outgoing transitions to one source state
type StateConfiguration interface {
	Permit(trigger Trigger, toState State) StateConfiguration
	PermitIf(trigger Trigger, toState State, guard GuardFunc) StateConfiguration
}

type transition struct {
	to    State
	guard GuardFunc
}

// table maps source state -> trigger -> candidate transitions, tried in order
type table map[State]map[Trigger][]transition

func (t table) clone() table {
	out := make(table, len(t))
	for from, byTrigger := range t {
		m := make(map[Trigger][]transition, len(byTrigger))
		for trig, ts := range byTrigger {
			m[trig] = append([]transition(nil), ts...)
		}
		out[from] = m
	}
	return out
}

type stateMachineBuilder struct {
	transitions table
}

type stateConfig struct {
	from  State
	table table
}

type stateMachine struct {
	current     State
	transitions table
}

// NewBuilder creates an empty builder
func NewBuilder() StateMachineBuilder {
	return &stateMachineBuilder{transitions: make(table)}
}

func (b *stateMachineBuilder) Configure(state State) StateConfiguration {
	mustBeValid("source", state)
	if _, ok := b.transitions[state]; !ok {
		b.transitions[state] = make(map[Trigger][]transition)
	}
	return &stateConfig{from: state, table: b.transitions}
}

// Build copies the transition table so later Configure calls don't leak into
// machines already handed out.
func (b *stateMachineBuilder) Build(initialState State) StateMachine {
	mustBeValid("initial", initialState)
	return &stateMachine{
		current:     initialState,
		transitions: b.transitions.clone(),
	}
}

func (c *stateConfig) Permit(trigger Trigger, toState State) StateConfiguration {
	return c.PermitIf(trigger, toState, nil)
}

func (c *stateConfig) PermitIf(trigger Trigger, toState State, guard GuardFunc) StateConfiguration {
	mustBeValid("target", toState)
	c.table[c.from][trigger] = append(c.table[c.from][trigger], transition{to: toState, guard: guard})
	return c
}

func mustBeValid(kind string, s State) {
	if !s.IsValid() {
		panic(fmt.Sprintf("invalid %s state: %s", kind, s))
	}
}

func (m *stateMachine) State() State {
	return m.current
}

// CanFire ignores guards; it only says whether the trigger is configured
func (m *stateMachine) CanFire(trigger Trigger) bool {
	return len(m.transitions[m.current][trigger]) > 0
}

func (m *stateMachine) Fire(ctx context.Context, trigger Trigger) error {
	candidates := m.transitions[m.current][trigger]
	if len(candidates) == 0 {
		return fmt.Errorf("%w: %s from %s", ErrInvalidTransition, trigger, m.current)
	}

	for _, t := range candidates {
		if t.guard == nil || t.guard(ctx) {
			m.current = t.to
			return nil
		}
	}
	return fmt.Errorf("%w: %s from %s", ErrGuardFailed, trigger, m.current)
}

// PermittedTriggers lists the configured triggers of the current state, sorted
func (m *stateMachine) PermittedTriggers() []Trigger {
	out := make([]Trigger, 0, len(m.transitions[m.current]))
	for trig := range m.transitions[m.current] {
		out = append(out, trig)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
