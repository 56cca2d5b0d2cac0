package status

import (
	"fmt"
	"slices"
	"sync"

	"github.com/velorent/rentchat/internal/bus"
)

// State represents the realtime connection state.
type State string

const (
	Disconnected State = "DISCONNECTED"
	Connecting   State = "CONNECTING"
	Open         State = "OPEN"
	Reconnecting State = "RECONNECTING"
)

// validTransitions defines allowed state transitions. An unclean closure or
// dial failure moves to Reconnecting; only an intentional close reaches
// Disconnected.
var validTransitions = map[State][]State{
	Disconnected: {Connecting},
	Connecting:   {Open, Reconnecting, Disconnected},
	Open:         {Reconnecting, Disconnected},
	Reconnecting: {Connecting, Disconnected},
}

// Machine tracks and enforces realtime connection state transitions.
type Machine struct {
	mu      sync.RWMutex
	current State
	bus     *bus.Bus
}

// NewMachine creates a new state machine starting in Disconnected state.
func NewMachine(b *bus.Bus) *Machine {
	return &Machine{
		current: Disconnected,
		bus:     b,
	}
}

// Current returns the current state.
func (m *Machine) Current() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Transition attempts to move to a new state. Returns error if transition is
// invalid.
func (m *Machine) Transition(to State) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	allowed := validTransitions[m.current]
	if !slices.Contains(allowed, to) {
		return fmt.Errorf("invalid transition from %s to %s", m.current, to)
	}
	from := m.current
	m.current = to
	if m.bus != nil {
		m.bus.Emit("realtime.status_changed", StatusChange{From: from, To: to})
	}
	return nil
}

// StatusChange is the payload for status change events.
type StatusChange struct {
	From State
	To   State
}
