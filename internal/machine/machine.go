package machine

import (
	"context"
	"errors"
	"fmt"
	"net/netip"
	"sync"
	"time"

	"github.com/muurk/wifiprov/internal/credstore"
	"github.com/muurk/wifiprov/internal/logging"
	"github.com/muurk/wifiprov/internal/netdev"
	"github.com/muurk/wifiprov/internal/signals"
	"go.uber.org/zap"
)

// ErrAlreadyStarted is returned by a second call to Start
var ErrAlreadyStarted = errors.New("state machine already started")

// CredentialLoader reads the stored credential pair
type CredentialLoader interface {
	Load() (credstore.Pair, bool)
}

// Portal is the provisioning endpoint started in access-point mode
type Portal interface {
	Start() error
}

// Options configures a Machine
type Options struct {
	Store   CredentialLoader
	Driver  netdev.Driver
	Portal  Portal
	Signals signals.Controller

	// AccessPoint overrides DefaultAccessPoint (tests only; the product
	// access point is fixed)
	AccessPoint *netdev.APParams

	// ConnectTimeout enables the connect watchdog when > 0
	ConnectTimeout time.Duration
}

// Machine is the connectivity provisioning state machine
type Machine struct {
	store          CredentialLoader
	driver         netdev.Driver
	portal         Portal
	signals        signals.Controller
	ap             netdev.APParams
	connectTimeout time.Duration

	submissions chan submission
	timeouts    chan uint64
	attempt     uint64 // owned by the Run goroutine

	mu        sync.RWMutex
	state     State
	mode      netdev.Mode
	status    Status
	since     time.Time
	observers []Observer
}

// New creates a machine in StateUnprovisioned
func New(opts Options) *Machine {
	ap := DefaultAccessPoint()
	if opts.AccessPoint != nil {
		ap = *opts.AccessPoint
	}
	sig := opts.Signals
	if sig == nil {
		sig = signals.Nop{}
	}
	return &Machine{
		store:          opts.Store,
		driver:         opts.Driver,
		portal:         opts.Portal,
		signals:        sig,
		ap:             ap,
		connectTimeout: opts.ConnectTimeout,
		submissions:    make(chan submission, 1),
		timeouts:       make(chan uint64, 4),
		state:          StateUnprovisioned,
		since:          time.Now(),
	}
}

// SetPortal sets the provisioning endpoint. It must be called before Start.
func (m *Machine) SetPortal(p Portal) {
	m.portal = p
}

// Subscribe registers an observer for state changes
func (m *Machine) Subscribe(o Observer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.observers = append(m.observers, o)
}

// State returns the current state
func (m *Machine) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// Status returns the current connection status
func (m *Machine) Status() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

// Snapshot returns the observable state
func (m *Machine) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Snapshot{
		State:  m.state,
		Mode:   m.mode.String(),
		Status: m.status,
		Since:  m.since,
	}
}

// Start performs the initial transition: Connecting with stored credentials,
// Provisioning without.
func (m *Machine) Start() error {
	if m.State() != StateUnprovisioned {
		return ErrAlreadyStarted
	}

	// Outputs start low regardless of mode
	for _, ch := range signals.Outputs {
		m.signals.SetLevel(ch, false)
	}

	pair, ok := m.store.Load()
	if ok {
		return m.startClient(pair)
	}
	return m.startProvisioning()
}

func (m *Machine) startClient(pair credstore.Pair) error {
	logging.Info("Stored credentials found, starting client mode",
		zap.String("ssid", pair.NetworkName),
	)

	if err := m.driver.ConfigureClient(clientParams(pair)); err != nil {
		return fmt.Errorf("failed to configure client mode: %w", err)
	}
	if err := m.driver.Start(); err != nil {
		return fmt.Errorf("failed to start radio: %w", err)
	}

	m.setMode(netdev.ModeClient)
	m.requestConnect()
	m.transition(StateConnecting, "stored credentials", netip.Addr{})
	return nil
}

func (m *Machine) startProvisioning() error {
	logging.Info("No stored credentials, starting access point",
		zap.String("ssid", m.ap.NetworkName),
		zap.Int("max_stations", m.ap.MaxStations),
	)

	if err := m.driver.ConfigureAccessPoint(m.ap); err != nil {
		return fmt.Errorf("failed to configure access point: %w", err)
	}
	if err := m.driver.Start(); err != nil {
		return fmt.Errorf("failed to start radio: %w", err)
	}
	m.setMode(netdev.ModeAccessPoint)

	if m.portal == nil {
		return errors.New("no provisioning portal configured")
	}
	if err := m.portal.Start(); err != nil {
		return fmt.Errorf("failed to start provisioning portal: %w", err)
	}

	m.transition(StateProvisioning, "no stored credentials", netip.Addr{})
	return nil
}

// submission carries a pair to the Run goroutine and its outcome back
type submission struct {
	pair credstore.Pair
	done chan error
}

// Submit hands newly saved credentials to the machine and waits until the
// machine has applied them. It is called by the provisioning portal after
// the pair has been written to the store. An error means the machine did
// not switch to the new network.
func (m *Machine) Submit(ctx context.Context, pair credstore.Pair) error {
	sub := submission{pair: pair, done: make(chan error, 1)}
	select {
	case m.submissions <- sub:
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-sub.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run consumes network events, submissions and watchdog expiries until ctx
// is cancelled.
func (m *Machine) Run(ctx context.Context) error {
	events := m.driver.Events()
	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-events:
			if !ok {
				return errors.New("network event stream closed")
			}
			m.handleEvent(ev)

		case sub := <-m.submissions:
			sub.done <- m.handleSubmission(sub.pair)

		case attempt := <-m.timeouts:
			m.handleTimeout(attempt)
		}
	}
}

func (m *Machine) handleEvent(ev netdev.Event) {
	logging.LogNetworkEvent(ev.Kind.String(), addrString(ev.Address), ev.Reason)

	switch ev.Kind {
	case netdev.EventAddressAcquired:
		m.mu.Lock()
		m.status = Status{Connected: true, LastAddress: ev.Address}
		m.mu.Unlock()

		m.attempt++ // outcome arrived, disarm watchdog
		m.signals.SetLevel(signals.WiFiLED, true)
		m.transition(StateConnected, "address acquired", ev.Address)

	case netdev.EventDisconnected:
		m.handleDisconnect(ev.Reason)
	}
}

func (m *Machine) handleDisconnect(reason string) {
	if m.State() == StateConnected {
		m.mu.Lock()
		m.status.Connected = false
		m.mu.Unlock()

		m.signals.SetLevel(signals.WiFiLED, false)
		m.requestConnect()
		m.transition(StateConnecting, withDetail("link lost", reason), netip.Addr{})
		return
	}

	// Not connected: retry immediately, stay put
	logging.Info("Connect attempt failed, retrying",
		zap.String("state", m.State().String()),
		zap.String("reason", reason),
	)
	m.requestConnect()
}

func (m *Machine) handleSubmission(pair credstore.Pair) error {
	logging.Info("Credentials submitted, switching to client mode",
		zap.String("ssid", pair.NetworkName),
	)

	if err := m.driver.ConfigureClient(clientParams(pair)); err != nil {
		logging.Error("Failed to configure client mode", zap.Error(err))
		return fmt.Errorf("failed to configure client mode: %w", err)
	}
	m.setMode(netdev.ModeClient)

	wasConnected := m.State() == StateConnected
	m.mu.Lock()
	m.status.Connected = false
	m.mu.Unlock()
	if wasConnected {
		m.signals.SetLevel(signals.WiFiLED, false)
	}

	m.requestConnect()
	m.transition(StateConnecting, "credentials submitted", netip.Addr{})
	return nil
}

func (m *Machine) handleTimeout(attempt uint64) {
	if attempt != m.attempt || m.State() != StateConnecting {
		return
	}
	logging.Warn("Connect attempt timed out", zap.Duration("timeout", m.connectTimeout))
	m.handleDisconnect("connect timeout")
}

// requestConnect issues one asynchronous connect request and, when enabled,
// arms the watchdog for it.
func (m *Machine) requestConnect() {
	m.attempt++
	if err := m.driver.RequestConnect(); err != nil {
		logging.Warn("Connect request failed", zap.Error(err))
		return
	}
	logging.Debug("Connect requested")

	if m.connectTimeout > 0 {
		attempt := m.attempt
		time.AfterFunc(m.connectTimeout, func() {
			select {
			case m.timeouts <- attempt:
			default:
			}
		})
	}
}

func (m *Machine) transition(to State, reason string, addr netip.Addr) {
	now := time.Now()

	m.mu.Lock()
	from := m.state
	m.state = to
	m.since = now
	observers := make([]Observer, len(m.observers))
	copy(observers, m.observers)
	m.mu.Unlock()

	logging.LogTransition(from.String(), to.String(), reason)

	t := Transition{From: from, To: to, Reason: reason, Address: addr, At: now}
	for _, o := range observers {
		o.OnTransition(t)
	}
}

func (m *Machine) setMode(mode netdev.Mode) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mode = mode
}

func clientParams(pair credstore.Pair) netdev.ClientParams {
	return netdev.ClientParams{NetworkName: pair.NetworkName, Secret: pair.Secret}
}

func withDetail(msg, detail string) string {
	if detail == "" {
		return msg
	}
	return msg + ": " + detail
}

func addrString(a netip.Addr) string {
	if !a.IsValid() {
		return ""
	}
	return a.String()
}
