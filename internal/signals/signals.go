// Package signals drives the device's digital outputs: relay, buzzer and the
// connectivity LED. Calls are fire-and-forget; failures are logged and never
// reported back to the caller.
package signals

import (
	"fmt"

	"github.com/muurk/wifiprov/internal/logging"
	"go.uber.org/zap"
)

// Channel identifies a digital signal line
type Channel int

const (
	Relay Channel = iota
	Buzzer
	WiFiLED
	APButton // input, pulled up
)

func (c Channel) String() string {
	switch c {
	case Relay:
		return "relay"
	case Buzzer:
		return "buzzer"
	case WiFiLED:
		return "wifi-led"
	case APButton:
		return "ap-button"
	default:
		return fmt.Sprintf("Channel(%d)", c)
	}
}

// ParseChannel is the inverse of Channel.String
func ParseChannel(name string) (Channel, error) {
	for _, ch := range []Channel{Relay, Buzzer, WiFiLED, APButton} {
		if ch.String() == name {
			return ch, nil
		}
	}
	return 0, fmt.Errorf("unknown signal channel %q", name)
}

// Outputs lists the channels driven low at boot
var Outputs = []Channel{Relay, Buzzer, WiFiLED}

// Pins maps channels to GPIO numbers
type Pins map[Channel]int

// DefaultPins is the stock board wiring
func DefaultPins() Pins {
	return Pins{
		Relay:    4,
		Buzzer:   15,
		APButton: 25,
		WiFiLED:  32,
	}
}

// Controller sets output levels
type Controller interface {
	SetLevel(ch Channel, on bool)
}

// Nop discards every call
type Nop struct{}

// SetLevel implements Controller
func (Nop) SetLevel(Channel, bool) {}

// Logger logs every call instead of touching hardware
type Logger struct{}

// SetLevel implements Controller
func (Logger) SetLevel(ch Channel, on bool) {
	logging.Info("Signal level", zap.String("channel", ch.String()), zap.Bool("on", on))
}
