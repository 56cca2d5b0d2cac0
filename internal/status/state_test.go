package status

import (
	"testing"

	"github.com/velorent/rentchat/internal/bus"
)

func TestInitialState(t *testing.T) {
	m := NewMachine(nil)
	if m.Current() != Disconnected {
		t.Errorf("initial state = %s, want DISCONNECTED", m.Current())
	}
}

func TestValidTransitions(t *testing.T) {
	tests := []struct {
		walk []State
	}{
		{[]State{Connecting}},
		{[]State{Connecting, Open}},
		{[]State{Connecting, Open, Reconnecting}},
		{[]State{Connecting, Open, Reconnecting, Connecting}},
		{[]State{Connecting, Reconnecting, Connecting, Open}},
		{[]State{Connecting, Open, Disconnected}},
		{[]State{Connecting, Reconnecting, Disconnected}},
	}
	for _, tt := range tests {
		m := NewMachine(nil)
		for _, s := range tt.walk {
			if err := m.Transition(s); err != nil {
				t.Fatalf("walk %v: Transition(%s) error = %v", tt.walk, s, err)
			}
		}
		if m.Current() != tt.walk[len(tt.walk)-1] {
			t.Errorf("walk %v ended at %s", tt.walk, m.Current())
		}
	}
}

func TestInvalidTransition(t *testing.T) {
	m := NewMachine(nil)
	if err := m.Transition(Open); err == nil {
		t.Error("Transition(DISCONNECTED -> OPEN) should fail")
	}
	if err := m.Transition(Reconnecting); err == nil {
		t.Error("Transition(DISCONNECTED -> RECONNECTING) should fail")
	}
}

func TestTransitionEmitsEvent(t *testing.T) {
	b := bus.New()
	ch, unsub := b.Subscribe("realtime.", 10)
	defer unsub()

	m := NewMachine(b)
	if err := m.Transition(Connecting); err != nil {
		t.Fatal(err)
	}

	evt := <-ch
	if evt.Kind != "realtime.status_changed" {
		t.Errorf("event kind = %q, want realtime.status_changed", evt.Kind)
	}
	change, ok := evt.Payload.(StatusChange)
	if !ok {
		t.Fatalf("payload type = %T, want StatusChange", evt.Payload)
	}
	if change.From != Disconnected || change.To != Connecting {
		t.Errorf("change = %+v", change)
	}
}
