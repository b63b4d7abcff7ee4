package discovery

import (
	"context"
	"errors"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/muurk/wifiprov/internal/machine"
)

type fakeRegistration struct {
	mu       sync.Mutex
	shutdown bool
}

func (r *fakeRegistration) Shutdown() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.shutdown = true
}

func (r *fakeRegistration) isShutdown() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.shutdown
}

type registrar struct {
	mu    sync.Mutex
	calls []registerCall
	regs  []*fakeRegistration
	err   error
	done  chan struct{}
}

type registerCall struct {
	instance string
	service  string
	port     int
	text     []string
}

func newRegistrar() *registrar {
	return &registrar{done: make(chan struct{}, 16)}
}

func (r *registrar) register(instance, service, domain string, port int, text []string, _ []net.Interface) (Registration, error) {
	r.mu.Lock()
	defer func() {
		r.mu.Unlock()
		r.done <- struct{}{}
	}()
	r.calls = append(r.calls, registerCall{instance, service, port, text})
	if r.err != nil {
		return nil, r.err
	}
	reg := &fakeRegistration{}
	r.regs = append(r.regs, reg)
	return reg, nil
}

func (r *registrar) snapshot() ([]registerCall, []*fakeRegistration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]registerCall(nil), r.calls...), append([]*fakeRegistration(nil), r.regs...)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met within 2s")
}

func TestAdvertiser_RegistersWhileProvisioning(t *testing.T) {
	reg := newRegistrar()
	adv := NewAdvertiser(AdvertiserConfig{Instance: "wifiprov-test", Register: reg.register})
	adv.SetAddr("0.0.0.0:8080")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		adv.Run(ctx)
		close(done)
	}()

	adv.OnTransition(machine.Transition{From: machine.StateUnprovisioned, To: machine.StateProvisioning})
	<-reg.done

	calls, regs := reg.snapshot()
	if len(calls) != 1 {
		t.Fatalf("register calls = %d, want 1", len(calls))
	}
	if calls[0].instance != "wifiprov-test" || calls[0].service != ServiceType || calls[0].port != 8080 {
		t.Errorf("register call = %+v", calls[0])
	}
	if txt := parseText(calls[0].text); txt[TxtService] != TxtServiceValue {
		t.Errorf("TXT records = %v, missing service marker", calls[0].text)
	}

	adv.OnTransition(machine.Transition{From: machine.StateProvisioning, To: machine.StateConnecting})
	waitFor(t, regs[0].isShutdown)

	cancel()
	<-done
}

func TestAdvertiser_WithdrawsOnStop(t *testing.T) {
	reg := newRegistrar()
	adv := NewAdvertiser(AdvertiserConfig{Instance: "wifiprov-test", Register: reg.register})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		adv.Run(ctx)
		close(done)
	}()

	adv.OnTransition(machine.Transition{To: machine.StateProvisioning})
	<-reg.done

	cancel()
	<-done

	_, regs := reg.snapshot()
	if !regs[0].isShutdown() {
		t.Error("registration still active after Run returned")
	}
}

func TestAdvertiser_RegisterFailure(t *testing.T) {
	reg := newRegistrar()
	reg.err = errors.New("no multicast interface")
	adv := NewAdvertiser(AdvertiserConfig{Register: reg.register})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go adv.Run(ctx)

	adv.OnTransition(machine.Transition{To: machine.StateProvisioning})
	<-reg.done

	// a later Provisioning entry retries
	adv.OnTransition(machine.Transition{To: machine.StateProvisioning})
	<-reg.done

	calls, _ := reg.snapshot()
	if len(calls) != 2 {
		t.Errorf("register calls = %d, want 2", len(calls))
	}
}

func TestAdvertiser_Defaults(t *testing.T) {
	adv := NewAdvertiser(AdvertiserConfig{})
	if adv.Instance() == "" {
		t.Error("Instance() is empty")
	}
	if adv.port != DefaultPort {
		t.Errorf("port = %d, want %d", adv.port, DefaultPort)
	}

	adv.SetAddr("not-an-address")
	adv.SetAddr("[::]:0")
	if adv.port != DefaultPort {
		t.Errorf("port = %d after invalid addresses, want %d", adv.port, DefaultPort)
	}
}
