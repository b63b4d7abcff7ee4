package netdev

import (
	"net/netip"
	"sync"
	"time"

	"github.com/muurk/wifiprov/internal/logging"
	"go.uber.org/zap"
)

// DefaultSimulatedAddress is handed out when SimulatedConfig.Address is unset
var DefaultSimulatedAddress = netip.MustParseAddr("192.168.1.42")

// SimulatedConfig describes the radio environment of a Simulated driver
type SimulatedConfig struct {
	// Networks maps reachable network names to their secrets
	Networks map[string]string

	// Address is the IPv4 address a successful connect acquires
	Address netip.Addr

	// Latency delays each connect outcome
	Latency time.Duration
}

// Simulated is an in-process radio. A connect succeeds when the configured
// client network is listed in SimulatedConfig.Networks with a matching secret,
// and fails with a disconnect event otherwise.
type Simulated struct {
	cfg SimulatedConfig

	mu           sync.Mutex
	started      bool
	client       *ClientParams
	ap           *APParams
	connectCount int

	events chan Event
	wg     sync.WaitGroup
}

// NewSimulated creates a simulated radio
func NewSimulated(cfg SimulatedConfig) *Simulated {
	if !cfg.Address.IsValid() {
		cfg.Address = DefaultSimulatedAddress
	}
	return &Simulated{
		cfg:    cfg,
		events: make(chan Event, 16),
	}
}

// ConfigureClient implements Driver
func (s *Simulated) ConfigureClient(p ClientParams) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.client = &p
	return nil
}

// ConfigureAccessPoint implements Driver
func (s *Simulated) ConfigureAccessPoint(p APParams) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ap = &p
	return nil
}

// Start implements Driver
func (s *Simulated) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.started = true
	if s.ap != nil {
		logging.Info("Simulated access point up",
			zap.String("ssid", s.ap.NetworkName),
			zap.Int("max_stations", s.ap.MaxStations),
			zap.String("auth", s.ap.Auth.String()),
		)
	}
	return nil
}

// RequestConnect implements Driver
func (s *Simulated) RequestConnect() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return ErrNotStarted
	}
	if s.client == nil {
		return ErrNoClientConfig
	}
	s.connectCount++

	params := *s.client
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if s.cfg.Latency > 0 {
			time.Sleep(s.cfg.Latency)
		}
		s.events <- s.outcome(params)
	}()
	return nil
}

func (s *Simulated) outcome(p ClientParams) Event {
	secret, known := s.cfg.Networks[p.NetworkName]
	switch {
	case !known:
		return Disconnected("no access point found")
	case secret != p.Secret:
		return Disconnected("authentication failed")
	default:
		return AddressAcquired(s.cfg.Address)
	}
}

// Drop simulates losing an established link
func (s *Simulated) Drop(reason string) {
	s.events <- Disconnected(reason)
}

// Events implements Driver
func (s *Simulated) Events() <-chan Event {
	return s.events
}

// ConnectRequests returns how many connects were requested
func (s *Simulated) ConnectRequests() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connectCount
}

// Mode returns the most recently configured mode
func (s *Simulated) Mode() Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.client != nil {
		return ModeClient
	}
	return ModeAccessPoint
}

// Wait blocks until all pending connect outcomes have been emitted
func (s *Simulated) Wait() {
	s.wg.Wait()
}
