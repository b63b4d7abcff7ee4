package metrics

import (
	"net/http"

	prom "github.com/prometheus/client_golang/prometheus"
	promhttp "github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/muurk/wifiprov/internal/machine"
)

const namespace = "wifiprov"

var allStates = []machine.State{
	machine.StateUnprovisioned,
	machine.StateConnecting,
	machine.StateConnected,
	machine.StateProvisioning,
}

// Recorder records machine and portal metrics into a registry
type Recorder struct {
	registry    *prom.Registry
	transitions *prom.CounterVec
	state       *prom.GaugeVec
	connected   prom.Gauge
	submissions *prom.CounterVec
}

// NewRecorder constructs and registers the metrics. A nil registry gets a
// fresh one.
func NewRecorder(reg *prom.Registry) *Recorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	r := &Recorder{
		registry: reg,
		transitions: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Subsystem: "machine",
			Name:      "transitions_total",
			Help:      "State changes by source and destination state",
		}, []string{"from", "to"}),
		state: prom.NewGaugeVec(prom.GaugeOpts{
			Namespace: namespace,
			Subsystem: "machine",
			Name:      "state",
			Help:      "1 for the current state, 0 otherwise",
		}, []string{"state"}),
		connected: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Subsystem: "machine",
			Name:      "connected",
			Help:      "1 while the device holds an address on the configured network",
		}),
		submissions: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Subsystem: "portal",
			Name:      "submissions_total",
			Help:      "Provisioning form submissions by result",
		}, []string{"result"}),
	}
	reg.MustRegister(r.transitions, r.state, r.connected, r.submissions)

	r.setState(machine.StateUnprovisioned)
	return r
}

// Registry returns the underlying registry
func (r *Recorder) Registry() *prom.Registry {
	return r.registry
}

// OnTransition implements machine.Observer
func (r *Recorder) OnTransition(t machine.Transition) {
	r.transitions.WithLabelValues(t.From.String(), t.To.String()).Inc()
	r.setState(t.To)
	if t.To == machine.StateConnected {
		r.connected.Set(1)
	} else {
		r.connected.Set(0)
	}
}

// IncSubmission counts a portal submission outcome
func (r *Recorder) IncSubmission(result string) {
	r.submissions.WithLabelValues(result).Inc()
}

func (r *Recorder) setState(current machine.State) {
	for _, s := range allStates {
		v := 0.0
		if s == current {
			v = 1
		}
		r.state.WithLabelValues(s.String()).Set(v)
	}
}

// Handler serves the registry in the Prometheus exposition format
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}
