// Package workflow provides a small guarded state machine used by the
// three workflow services to validate status transitions before any write
// is issued. The repositories enforce the same guards again at update
// time; the machine exists so illegal operations fail fast with a typed
// error naming the current and attempted states.
package workflow

import (
	"fmt"
	"sort"
)

// State is a workflow status value
type State string

// String returns the string representation of the state
func (s State) String() string { return string(s) }

// Trigger is an operation that may cause a state transition
type Trigger string

// String returns the string representation of the trigger
func (t Trigger) String() string { return string(t) }

// GuardFunc evaluates whether a transition should be allowed
type GuardFunc func() bool

type transition struct {
	toState State
	guard   GuardFunc
}

// Builder assembles a transition table shared by every machine instance
// built from it.
type Builder struct {
	transitions map[State]map[Trigger][]transition
	terminal    map[State]bool
}

// NewBuilder creates an empty transition-table builder
func NewBuilder() *Builder {
	return &Builder{
		transitions: make(map[State]map[Trigger][]transition),
		terminal:    make(map[State]bool),
	}
}

// Permit allows trigger to move from state to toState
func (b *Builder) Permit(from State, trigger Trigger, to State) *Builder {
	return b.PermitIf(from, trigger, to, nil)
}

// PermitIf allows the transition only when the guard passes
func (b *Builder) PermitIf(from State, trigger Trigger, to State, guard GuardFunc) *Builder {
	m, ok := b.transitions[from]
	if !ok {
		m = make(map[Trigger][]transition)
		b.transitions[from] = m
	}
	m[trigger] = append(m[trigger], transition{toState: to, guard: guard})
	return b
}

// Terminal marks a state as terminal (no transitions leave it)
func (b *Builder) Terminal(states ...State) *Builder {
	for _, s := range states {
		b.terminal[s] = true
	}
	return b
}

// Build creates a machine positioned at the given state
func (b *Builder) Build(current State) *Machine {
	return &Machine{current: current, table: b}
}

// Machine tracks a current state against a shared transition table
type Machine struct {
	current State
	table   *Builder
}

// State returns the current state
func (m *Machine) State() State { return m.current }

// IsTerminal returns true if the current state permits no further transitions
func (m *Machine) IsTerminal() bool { return m.table.terminal[m.current] }

// CanFire returns true if the trigger is permitted in the current state,
// ignoring guards.
func (m *Machine) CanFire(trigger Trigger) bool {
	ts, ok := m.table.transitions[m.current]
	if !ok {
		return false
	}
	return len(ts[trigger]) > 0
}

// Peek returns the state the trigger would move to without firing it.
// Guards are evaluated in registration order; the first passing transition
// wins.
func (m *Machine) Peek(trigger Trigger) (State, error) {
	ts, ok := m.table.transitions[m.current]
	if !ok || len(ts[trigger]) == 0 {
		return "", fmt.Errorf("trigger %s not permitted from state %s", trigger, m.current)
	}
	for _, t := range ts[trigger] {
		if t.guard == nil || t.guard() {
			return t.toState, nil
		}
	}
	return "", fmt.Errorf("trigger %s from state %s: all guards failed", trigger, m.current)
}

// Fire executes the trigger, moving to the new state if allowed
func (m *Machine) Fire(trigger Trigger) error {
	next, err := m.Peek(trigger)
	if err != nil {
		return err
	}
	m.current = next
	return nil
}

// PermittedTriggers returns the triggers that can fire from the current
// state, sorted for stable output.
func (m *Machine) PermittedTriggers() []Trigger {
	ts, ok := m.table.transitions[m.current]
	if !ok {
		return nil
	}
	out := make([]Trigger, 0, len(ts))
	for trigger := range ts {
		out = append(out, trigger)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
