// Package metrics exposes simulation counters to Prometheus.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics with bounded cardinality: labels only ever carry fixed enum values.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	stepDuration      prometheus.Histogram
	bodies            prometheus.Gauge
	constraints       prometheus.Gauge
	triggers          prometheus.Gauge
	brokenConstraints prometheus.Counter
	triggerEvents     *prometheus.CounterVec
	commands          *prometheus.CounterVec
}

// New registers the collectors on reg. A nil reg builds unregistered collectors.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		stepDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "physics_step_duration_seconds",
			Help:    "Time spent in one fixed simulation step",
			Buckets: []float64{0.0005, 0.001, 0.002, 0.005, 0.01, 0.025, 0.05},
		}),
		bodies: f.NewGauge(prometheus.GaugeOpts{
			Name: "physics_bodies",
			Help: "Current number of rigid bodies",
		}),
		constraints: f.NewGauge(prometheus.GaugeOpts{
			Name: "physics_constraints",
			Help: "Current number of registered constraints",
		}),
		triggers: f.NewGauge(prometheus.GaugeOpts{
			Name: "physics_triggers",
			Help: "Current number of trigger volumes",
		}),
		brokenConstraints: f.NewCounter(prometheus.CounterOpts{
			Name: "physics_constraints_broken_total",
			Help: "Breakable constraints removed after exceeding their threshold",
		}),
		triggerEvents: f.NewCounterVec(prometheus.CounterOpts{
			Name: "physics_trigger_events_total",
			Help: "Trigger enter/stay/exit events",
		}, []string{"kind"}), // Bounded: "enter", "stay", "exit"
		commands: f.NewCounterVec(prometheus.CounterOpts{
			Name: "sandbox_commands_total",
			Help: "Commands executed on the simulation loop",
		}, []string{"command", "result"}), // Bounded: command names are constants, result is "ok" or "error"
	}
}

func (m *Metrics) ObserveStep(d time.Duration) {
	if m == nil {
		return
	}
	m.stepDuration.Observe(d.Seconds())
}

func (m *Metrics) SetBodies(n int) {
	if m == nil {
		return
	}
	m.bodies.Set(float64(n))
}

func (m *Metrics) SetConstraints(n int) {
	if m == nil {
		return
	}
	m.constraints.Set(float64(n))
}

func (m *Metrics) SetTriggers(n int) {
	if m == nil {
		return
	}
	m.triggers.Set(float64(n))
}

func (m *Metrics) ConstraintBroken() {
	if m == nil {
		return
	}
	m.brokenConstraints.Inc()
}

// TriggerEvent counts one trigger event; kind is "enter", "stay" or "exit".
func (m *Metrics) TriggerEvent(kind string) {
	if m == nil {
		return
	}
	m.triggerEvents.WithLabelValues(kind).Inc()
}

func (m *Metrics) Command(name string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.commands.WithLabelValues(name, result).Inc()
}
