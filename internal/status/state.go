// Package status tracks the daemon's connection lifecycle.
package status

import (
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/matheus3301/wpphist/internal/bus"
)

// State represents a daemon runtime state.
type State string

const (
	Booting      State = "BOOTING"
	AuthRequired State = "AUTH_REQUIRED"
	Connecting   State = "CONNECTING"
	Syncing      State = "SYNCING"
	Ready        State = "READY"
	Reconnecting State = "RECONNECTING"
	Degraded     State = "DEGRADED"
	Error        State = "ERROR"
)

// validTransitions defines allowed state transitions.
var validTransitions = map[State][]State{
	Booting:      {AuthRequired, Connecting, Error},
	AuthRequired: {Connecting, Error},
	Connecting:   {Syncing, AuthRequired, Reconnecting, Error},
	Syncing:      {Ready, Reconnecting, Degraded, Error},
	Ready:        {Reconnecting, Degraded, AuthRequired, Error},
	Reconnecting: {Connecting, Degraded, Error},
	Degraded:     {Connecting, Reconnecting, Ready, Error},
	Error:        {Booting},
}

// Serving reports whether history reads hit a connected, synced session.
// Reads still work in every state since they are served from local storage.
func (s State) Serving() bool {
	return s == Ready || s == Degraded
}

// Machine tracks and enforces daemon runtime state transitions.
type Machine struct {
	mu      sync.RWMutex
	current State
	since   time.Time
	bus     *bus.Bus
	now     func() time.Time
}

// NewMachine creates a new state machine starting in Booting state.
func NewMachine(b *bus.Bus) *Machine {
	return &Machine{
		current: Booting,
		since:   time.Now(),
		bus:     b,
		now:     time.Now,
	}
}

// Current returns the current state.
func (m *Machine) Current() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Snapshot returns the current state and when it was entered.
func (m *Machine) Snapshot() (State, time.Time) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current, m.since
}

// TransitionError reports a transition the machine does not allow.
type TransitionError struct {
	From State
	To   State
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("invalid transition from %s to %s", e.From, e.To)
}

// CanTransition reports whether from -> to is an allowed edge.
func CanTransition(from, to State) bool {
	return slices.Contains(validTransitions[from], to)
}

// Transition moves to a new state. A disallowed edge returns *TransitionError
// and leaves the state unchanged.
func (m *Machine) Transition(to State) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !CanTransition(m.current, to) {
		return &TransitionError{From: m.current, To: to}
	}
	from := m.current
	m.current = to
	m.since = m.now()
	m.bus.Emit(bus.KindSessionStatusChanged, StatusChange{From: from, To: to})
	return nil
}

// StatusChange is the payload for status change events.
type StatusChange struct {
	From State
	To   State
}
