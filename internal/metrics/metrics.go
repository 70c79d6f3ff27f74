// Package metrics exposes ambient tick/entity/script-error counters
// via prometheus/client_golang, the observability layer the spec's
// Non-goals never exclude (they exclude rendering, not metrics).
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds every counter/gauge this process registers. It is
// safe to pass a nil *Metrics anywhere these methods are called; all
// methods are nil-receiver safe so wiring metrics is strictly
// optional from the core's point of view.
type Metrics struct {
	TicksTotal    prometheus.Counter
	AliveEntities prometheus.Gauge
	ScriptErrors  *prometheus.CounterVec
	TickDuration  prometheus.Histogram
}

// New registers and returns a Metrics bound to reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		TicksTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "hexsim",
			Name:      "ticks_total",
			Help:      "Total number of simulation ticks executed.",
		}),
		AliveEntities: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "hexsim",
			Name:      "alive_entities",
			Help:      "Current number of alive entities.",
		}),
		ScriptErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hexsim",
			Name:      "script_errors_total",
			Help:      "Total number of script load/runtime errors, by kind.",
		}, []string{"kind"}),
		TickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "hexsim",
			Name:      "tick_duration_seconds",
			Help:      "Wall-clock duration of one simulated tick.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	reg.MustRegister(m.TicksTotal, m.AliveEntities, m.ScriptErrors, m.TickDuration)
	return m
}

func (m *Metrics) ObserveTick(durationSeconds float64, aliveCount int) {
	if m == nil {
		return
	}
	m.TicksTotal.Inc()
	m.AliveEntities.Set(float64(aliveCount))
	m.TickDuration.Observe(durationSeconds)
}

func (m *Metrics) ObserveScriptError(kind string) {
	if m == nil {
		return
	}
	m.ScriptErrors.WithLabelValues(kind).Inc()
}
