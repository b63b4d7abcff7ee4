// Package netdev defines the boundary between the provisioning core and the
// wireless network layer, plus two implementations of that boundary.
//
// The core configures the radio for one of two modes, starts it and asks it
// to connect. It never polls: outcomes come back as Events on the channel
// returned by Driver.Events, in the order the radio produced them.
package netdev

import (
	"errors"
	"fmt"
	"net/netip"
)

// Mode is the radio operating mode
type Mode int

const (
	// ModeClient joins an existing network as a station
	ModeClient Mode = iota
	// ModeAccessPoint hosts a network for other devices to join
	ModeAccessPoint
)

func (m Mode) String() string {
	switch m {
	case ModeClient:
		return "client"
	case ModeAccessPoint:
		return "access-point"
	default:
		return fmt.Sprintf("Mode(%d)", m)
	}
}

// AuthMode is the access point authentication scheme
type AuthMode int

const (
	AuthOpen AuthMode = iota
	AuthWPA2PSK
)

func (a AuthMode) String() string {
	switch a {
	case AuthOpen:
		return "open"
	case AuthWPA2PSK:
		return "wpa2-psk"
	default:
		return fmt.Sprintf("AuthMode(%d)", a)
	}
}

// ClientParams configures client mode
type ClientParams struct {
	NetworkName string
	Secret      string
}

// APParams configures access-point mode
type APParams struct {
	NetworkName string
	Secret      string
	MaxStations int
	Auth        AuthMode
}

// EventKind identifies a network layer event
type EventKind int

const (
	// EventDisconnected reports a failed connect attempt or a lost link
	EventDisconnected EventKind = iota
	// EventAddressAcquired reports that the client interface obtained an IPv4 address
	EventAddressAcquired
)

func (k EventKind) String() string {
	switch k {
	case EventDisconnected:
		return "disconnected"
	case EventAddressAcquired:
		return "address-acquired"
	default:
		return fmt.Sprintf("EventKind(%d)", k)
	}
}

// Event is emitted by a Driver
type Event struct {
	Kind    EventKind
	Address netip.Addr // set for EventAddressAcquired
	Reason  string     // optional detail for EventDisconnected
}

// Disconnected builds a disconnect event
func Disconnected(reason string) Event {
	return Event{Kind: EventDisconnected, Reason: reason}
}

// AddressAcquired builds an address acquisition event
func AddressAcquired(addr netip.Addr) Event {
	return Event{Kind: EventAddressAcquired, Address: addr}
}

// Driver is the network layer consumed by the state machine.
//
// RequestConnect is asynchronous: its outcome is delivered later as an
// Event, never as its return value. A nil error only means the request was
// issued.
type Driver interface {
	ConfigureClient(p ClientParams) error
	ConfigureAccessPoint(p APParams) error
	Start() error
	RequestConnect() error
	Events() <-chan Event
}

var (
	// ErrNotStarted is returned by RequestConnect before Start
	ErrNotStarted = errors.New("radio not started")

	// ErrNoClientConfig is returned by RequestConnect when client mode was never configured
	ErrNoClientConfig = errors.New("client mode not configured")
)
