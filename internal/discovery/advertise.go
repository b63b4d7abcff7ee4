package discovery

import (
	"context"
	"fmt"
	"net"
	"os"
	"strconv"
	"sync"

	"github.com/google/uuid"
	"github.com/grandcat/zeroconf"
	"go.uber.org/zap"

	"github.com/muurk/wifiprov/internal/logging"
	"github.com/muurk/wifiprov/internal/machine"
)

// Registration is a live mDNS service registration
type Registration interface {
	Shutdown()
}

// RegisterFunc registers a service; zeroconf.Register by default
type RegisterFunc func(instance, service, domain string, port int, text []string, ifaces []net.Interface) (Registration, error)

func zeroconfRegister(instance, service, domain string, port int, text []string, ifaces []net.Interface) (Registration, error) {
	return zeroconf.Register(instance, service, domain, port, text, ifaces)
}

// AdvertiserConfig configures an Advertiser
type AdvertiserConfig struct {
	// Instance is the service instance name; defaults to "wifiprov-<hostname>"
	Instance string

	// Port is the portal port; SetAddr overrides it once the portal is bound
	Port int

	// Register replaces zeroconf.Register (tests)
	Register RegisterFunc
}

// Advertiser publishes the portal over mDNS while the machine is in
// Provisioning. Registration runs on its own goroutine so the machine is
// never blocked on multicast sockets.
type Advertiser struct {
	instance string
	register RegisterFunc

	mu   sync.Mutex
	port int

	wanted chan bool
	active Registration // owned by Run
}

// NewAdvertiser creates an Advertiser
func NewAdvertiser(cfg AdvertiserConfig) *Advertiser {
	instance := cfg.Instance
	if instance == "" {
		instance = DefaultInstance()
	}
	register := cfg.Register
	if register == nil {
		register = zeroconfRegister
	}
	port := cfg.Port
	if port == 0 {
		port = DefaultPort
	}
	return &Advertiser{
		instance: instance,
		register: register,
		port:     port,
		wanted:   make(chan bool, 1),
	}
}

// DefaultInstance returns "wifiprov-<hostname>", or a random suffix when
// the hostname is unavailable
func DefaultInstance() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = uuid.NewString()[:8]
	}
	return TxtServiceValue + "-" + host
}

// Instance returns the advertised instance name
func (a *Advertiser) Instance() string {
	return a.instance
}

// SetAddr takes the port from a bound listener address
func (a *Advertiser) SetAddr(addr string) {
	_, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return
	}
	port, err := strconv.Atoi(portStr)
	if err != nil || port == 0 {
		return
	}
	a.mu.Lock()
	a.port = port
	a.mu.Unlock()
}

// OnTransition implements machine.Observer
func (a *Advertiser) OnTransition(t machine.Transition) {
	want := t.To == machine.StateProvisioning

	// keep only the latest wish
	select {
	case <-a.wanted:
	default:
	}
	a.wanted <- want
}

// Run applies registration changes until ctx is done, then withdraws any
// active registration.
func (a *Advertiser) Run(ctx context.Context) {
	defer a.withdraw()

	for {
		select {
		case <-ctx.Done():
			return
		case want := <-a.wanted:
			if want {
				if err := a.publish(); err != nil {
					logging.Warn("Failed to advertise portal over mDNS", zap.Error(err))
				}
			} else {
				a.withdraw()
			}
		}
	}
}

func (a *Advertiser) publish() error {
	if a.active != nil {
		return nil
	}

	a.mu.Lock()
	port := a.port
	a.mu.Unlock()

	text := []string{
		TxtService + "=" + TxtServiceValue,
		TxtPath + "=/",
		TxtState + "=" + machine.StateProvisioning.String(),
	}
	reg, err := a.register(a.instance, ServiceType, ServiceDomain, port, text, nil)
	if err != nil {
		return fmt.Errorf("failed to register %s: %w", a.instance, err)
	}
	a.active = reg

	logging.Info("Advertising portal over mDNS",
		zap.String("instance", a.instance),
		zap.String("service", ServiceType),
		zap.Int("port", port),
	)
	return nil
}

func (a *Advertiser) withdraw() {
	if a.active == nil {
		return
	}
	a.active.Shutdown()
	a.active = nil
	logging.Info("Withdrew mDNS advertisement", zap.String("instance", a.instance))
}
