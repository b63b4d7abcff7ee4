package monitor

import "github.com/muurk/wifiprov/internal/machine"

// Message types on the event stream
const (
	TypeSnapshot   = "snapshot"
	TypeTransition = "transition"
)

// Message is one event stream frame
type Message struct {
	Type       string              `json:"type"`
	Snapshot   *machine.Snapshot   `json:"snapshot,omitempty"`
	Transition *machine.Transition `json:"transition,omitempty"`
}

func snapshotMessage(s machine.Snapshot) Message {
	return Message{Type: TypeSnapshot, Snapshot: &s}
}

func transitionMessage(t machine.Transition) Message {
	return Message{Type: TypeTransition, Transition: &t}
}
