package machine

import (
	"fmt"
	"net/netip"
	"time"

	"github.com/muurk/wifiprov/internal/netdev"
)

// State is a state machine state
type State int

const (
	StateUnprovisioned State = iota
	StateConnecting
	StateConnected
	StateProvisioning
)

func (s State) String() string {
	switch s {
	case StateUnprovisioned:
		return "Unprovisioned"
	case StateConnecting:
		return "Connecting"
	case StateConnected:
		return "Connected"
	case StateProvisioning:
		return "Provisioning"
	default:
		return fmt.Sprintf("State(%d)", s)
	}
}

// MarshalText renders the state name in JSON/YAML
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText parses a state name
func (s *State) UnmarshalText(text []byte) error {
	for _, candidate := range []State{StateUnprovisioned, StateConnecting, StateConnected, StateProvisioning} {
		if candidate.String() == string(text) {
			*s = candidate
			return nil
		}
	}
	return fmt.Errorf("unknown state %q", text)
}

// Status is the connection status owned by the machine
type Status struct {
	Connected   bool       `json:"connected"`
	LastAddress netip.Addr `json:"last_address"`
}

// Snapshot is a point-in-time copy of the machine's observable state
type Snapshot struct {
	State  State     `json:"state"`
	Mode   string    `json:"mode"`
	Status Status    `json:"status"`
	Since  time.Time `json:"since"`
}

// Transition describes a change of state
type Transition struct {
	From    State      `json:"from"`
	To      State      `json:"to"`
	Reason  string     `json:"reason"`
	Address netip.Addr `json:"address"`
	At      time.Time  `json:"at"`
}

// Observer receives every state change. Calls are made from the machine's
// goroutine and must not block.
type Observer interface {
	OnTransition(Transition)
}

// ObserverFunc adapts a function to Observer
type ObserverFunc func(Transition)

// OnTransition implements Observer
func (f ObserverFunc) OnTransition(t Transition) {
	f(t)
}

const (
	// DefaultAPNetworkName is the access point network name
	DefaultAPNetworkName = "ESP32_Config"

	// DefaultAPSecret is the access point secret
	DefaultAPSecret = "123456789"

	// DefaultAPMaxStations is the access point client limit
	DefaultAPMaxStations = 4
)

// DefaultAccessPoint returns the fixed provisioning access point parameters
func DefaultAccessPoint() netdev.APParams {
	return netdev.APParams{
		NetworkName: DefaultAPNetworkName,
		Secret:      DefaultAPSecret,
		MaxStations: DefaultAPMaxStations,
		Auth:        netdev.AuthWPA2PSK,
	}
}
