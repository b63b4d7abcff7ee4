package netdev

import (
	"context"
	"fmt"
	"net/netip"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/muurk/wifiprov/internal/logging"
	"go.uber.org/zap"
)

// DefaultCommandTimeout bounds a single nmcli invocation
const DefaultCommandTimeout = 45 * time.Second

// CommandRunner executes a command and returns its combined output
type CommandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// NMCLI drives a NetworkManager-managed wireless interface through the nmcli tool.
type NMCLI struct {
	Interface      string
	CommandTimeout time.Duration

	run CommandRunner

	mu      sync.Mutex
	started bool
	client  *ClientParams
	ap      *APParams

	events chan Event
}

// NewNMCLI creates a driver for iface (e.g. "wlan0")
func NewNMCLI(iface string) *NMCLI {
	return NewNMCLIWithRunner(iface, execRunner)
}

// NewNMCLIWithRunner creates a driver that executes commands through run
func NewNMCLIWithRunner(iface string, run CommandRunner) *NMCLI {
	return &NMCLI{
		Interface:      iface,
		CommandTimeout: DefaultCommandTimeout,
		run:            run,
		events:         make(chan Event, 16),
	}
}

// ConfigureClient implements Driver
func (n *NMCLI) ConfigureClient(p ClientParams) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.client = &p
	return nil
}

// ConfigureAccessPoint implements Driver
func (n *NMCLI) ConfigureAccessPoint(p APParams) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.ap = &p
	return nil
}

// Start implements Driver. With an access point configured it brings up a
// hotspot; otherwise it makes sure the radio is on.
func (n *NMCLI) Start() error {
	n.mu.Lock()
	defer n.mu.Unlock()

	var args []string
	if n.ap != nil {
		args = []string{"device", "wifi", "hotspot", "ifname", n.Interface, "ssid", n.ap.NetworkName}
		if n.ap.Auth != AuthOpen {
			args = append(args, "password", n.ap.Secret)
		}
		// NetworkManager has no per-hotspot station limit
		logging.Debug("Ignoring access point station limit",
			zap.Int("max_stations", n.ap.MaxStations),
		)
	} else {
		args = []string{"radio", "wifi", "on"}
	}

	if out, err := n.exec(args...); err != nil {
		return fmt.Errorf("failed to start radio: %w (%s)", err, strings.TrimSpace(string(out)))
	}
	n.started = true
	return nil
}

// RequestConnect implements Driver
func (n *NMCLI) RequestConnect() error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if !n.started {
		return ErrNotStarted
	}
	if n.client == nil {
		return ErrNoClientConfig
	}

	params := *n.client
	go n.connect(params)
	return nil
}

func (n *NMCLI) connect(p ClientParams) {
	args := []string{"device", "wifi", "connect", p.NetworkName, "ifname", n.Interface}
	if p.Secret != "" {
		args = append(args, "password", p.Secret)
	}

	out, err := n.exec(args...)
	if err != nil {
		n.events <- Disconnected(strings.TrimSpace(string(out)))
		return
	}

	addr, err := n.lookupAddress()
	if err != nil {
		n.events <- Disconnected(err.Error())
		return
	}
	n.events <- AddressAcquired(addr)
}

func (n *NMCLI) lookupAddress() (netip.Addr, error) {
	out, err := n.exec("-g", "IP4.ADDRESS", "device", "show", n.Interface)
	if err != nil {
		return netip.Addr{}, fmt.Errorf("failed to read interface address: %w", err)
	}
	return ParseIP4Address(string(out))
}

// ParseIP4Address extracts the first IPv4 address from nmcli IP4.ADDRESS
// output, e.g. "192.168.1.42/24 | 10.0.0.2/8".
func ParseIP4Address(out string) (netip.Addr, error) {
	for _, field := range strings.FieldsFunc(out, func(r rune) bool {
		return r == '|' || r == '\n' || r == ' '
	}) {
		prefix, err := netip.ParsePrefix(field)
		if err != nil {
			continue
		}
		if prefix.Addr().Is4() {
			return prefix.Addr(), nil
		}
	}
	return netip.Addr{}, fmt.Errorf("no IPv4 address in %q", strings.TrimSpace(out))
}

func (n *NMCLI) exec(args ...string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(context.Background(), n.CommandTimeout)
	defer cancel()

	logging.Debug("Running nmcli", zap.Strings("args", redact(args)))
	return n.run(ctx, "nmcli", args...)
}

// redact hides the value following a "password" argument
func redact(args []string) []string {
	out := make([]string, len(args))
	copy(out, args)
	for i := 0; i < len(out)-1; i++ {
		if out[i] == "password" {
			out[i+1] = "***"
		}
	}
	return out
}

// Events implements Driver
func (n *NMCLI) Events() <-chan Event {
	return n.events
}
