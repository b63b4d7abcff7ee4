package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/netip"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/muurk/wifiprov/internal/config"
	"github.com/muurk/wifiprov/internal/credstore"
	"github.com/muurk/wifiprov/internal/discovery"
	"github.com/muurk/wifiprov/internal/logging"
	"github.com/muurk/wifiprov/internal/machine"
	"github.com/muurk/wifiprov/internal/metrics"
	"github.com/muurk/wifiprov/internal/monitor"
	"github.com/muurk/wifiprov/internal/netdev"
	"github.com/muurk/wifiprov/internal/portal"
	"github.com/muurk/wifiprov/internal/signals"
)

// shutdownTimeout bounds graceful shutdown of the HTTP listeners
const shutdownTimeout = 5 * time.Second

// daemon is the assembled provisioning service
type daemon struct {
	store      *credstore.Store
	closeStore io.Closer

	machine    *machine.Machine
	portal     *portal.Server
	monitor    *monitor.Server
	advertiser *discovery.Advertiser
	recorder   *metrics.Recorder
}

// newDaemon builds every component from cfg and wires them together. Nothing
// is started.
func newDaemon(cfg *config.Config) (*daemon, error) {
	backend, closer, err := openBackend(cfg)
	if err != nil {
		return nil, err
	}
	store := credstore.New(backend)

	driver, err := newDriver(cfg)
	if err != nil {
		closeQuietly(closer)
		return nil, err
	}

	ctrl, err := newSignals(cfg)
	if err != nil {
		closeQuietly(closer)
		return nil, err
	}

	d := &daemon{store: store, closeStore: closer}

	d.machine = machine.New(machine.Options{
		Store:          store,
		Driver:         driver,
		Signals:        ctrl,
		ConnectTimeout: cfg.Network.ConnectTimeout,
	})

	d.recorder = metrics.NewRecorder(prometheus.NewRegistry())
	d.machine.Subscribe(d.recorder)

	d.portal = portal.New(&portal.Config{
		Addr:      cfg.Portal.Addr,
		BodyLimit: cfg.Portal.BodyLimit,
	}, store, d.machine)
	d.portal.SetRecorder(d.recorder)
	d.machine.SetPortal(d.portal)

	if cfg.Monitor.Addr != "" {
		d.monitor = monitor.New(&monitor.Config{Addr: cfg.Monitor.Addr}, d.machine, d.recorder.Handler())
		d.machine.Subscribe(d.monitor)
	}

	if cfg.MDNS.Enabled {
		d.advertiser = discovery.NewAdvertiser(discovery.AdvertiserConfig{
			Instance: cfg.MDNS.Instance,
		})
		d.portal.OnStart(d.advertiser.SetAddr)
		d.machine.Subscribe(d.advertiser)
	}

	return d, nil
}

// run starts the machine and blocks until ctx is cancelled or the network
// event stream fails
func (d *daemon) run(ctx context.Context) error {
	defer closeQuietly(d.closeStore)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if d.advertiser != nil {
		go d.advertiser.Run(ctx)
	}

	if d.monitor != nil {
		if err := d.monitor.Start(); err != nil {
			return fmt.Errorf("failed to start monitor: %w", err)
		}
	}

	if err := d.machine.Start(); err != nil {
		d.shutdown()
		return err
	}

	logging.Info("Provisioning daemon running",
		zap.String("state", d.machine.State().String()),
	)

	err := d.machine.Run(ctx)
	d.shutdown()
	return err
}

func (d *daemon) shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := d.portal.Shutdown(ctx); err != nil {
		logging.Warn("Portal shutdown failed", zap.Error(err))
	}
	if d.monitor != nil {
		if err := d.monitor.Shutdown(ctx); err != nil {
			logging.Warn("Monitor shutdown failed", zap.Error(err))
		}
	}
}

// openBackend returns the configured credential backend and, for backends
// holding resources, a closer
func openBackend(cfg *config.Config) (credstore.Backend, io.Closer, error) {
	if cfg.Store.Backend == config.BackendMemory {
		return credstore.NewMemoryBackend(), nil, nil
	}

	path, err := cfg.StorePath()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to resolve store path: %w", err)
	}

	switch cfg.Store.Backend {
	case config.BackendSQLite:
		b, err := credstore.NewSQLiteBackend(path)
		if err != nil {
			return nil, nil, err
		}
		return b, b, nil
	case config.BackendFile:
		return credstore.NewFileBackend(path), nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}

func newDriver(cfg *config.Config) (netdev.Driver, error) {
	switch cfg.Network.Driver {
	case config.DriverNMCLI:
		return netdev.NewNMCLI(cfg.Network.Interface), nil
	case config.DriverSimulated:
		sc := netdev.SimulatedConfig{
			Networks: cfg.Simulated.Networks,
			Latency:  cfg.Simulated.Latency,
		}
		if cfg.Simulated.Address != "" {
			addr, err := netip.ParseAddr(cfg.Simulated.Address)
			if err != nil {
				return nil, fmt.Errorf("simulated.address: %w", err)
			}
			sc.Address = addr
		}
		return netdev.NewSimulated(sc), nil
	default:
		return nil, fmt.Errorf("unknown network driver %q", cfg.Network.Driver)
	}
}

func newSignals(cfg *config.Config) (signals.Controller, error) {
	switch cfg.Signals.Backend {
	case config.SignalsNone:
		return signals.Nop{}, nil
	case config.SignalsLog:
		return signals.Logger{}, nil
	case config.SignalsSysfs:
		pins, err := cfg.SignalPins()
		if err != nil {
			return nil, err
		}
		s := signals.NewSysfs(pins)
		if cfg.Signals.Root != "" {
			s.Root = cfg.Signals.Root
		}
		if err := s.Init(); err != nil {
			return nil, fmt.Errorf("failed to initialize GPIO: %w", err)
		}
		return s, nil
	default:
		return nil, errors.New("unknown signals backend " + cfg.Signals.Backend)
	}
}

func closeQuietly(c io.Closer) {
	if c == nil {
		return
	}
	if err := c.Close(); err != nil {
		logging.Warn("Close failed", zap.Error(err))
	}
}
