package control

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/peragwin/autopilot/session"
)

var _ session.Observer = (*Metrics)(nil)

// Metrics exports scheduler activity to Prometheus.
type Metrics struct {
	reg       *prometheus.Registry
	ticks     *prometheus.CounterVec
	errors    prometheus.Counter
	frameRate prometheus.Gauge
	position  prometheus.Gauge
}

// NewMetrics registers the collectors on a fresh registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		ticks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "autopilot",
			Name:      "capture_ticks_total",
			Help:      "Capture ticks by dispatch mode.",
		}, []string{"mode"}),
		errors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "autopilot",
			Name:      "tick_errors_total",
			Help:      "Ticks that failed to capture or align a frame.",
		}),
		frameRate: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "autopilot",
			Name:      "capture_frame_rate",
			Help:      "Ticks counted in the last second.",
		}),
		position: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "autopilot",
			Name:      "otw_position",
			Help:      "Last position in the reference reported by the alignment engine.",
		}),
	}
	m.reg.MustRegister(
		m.ticks, m.errors, m.frameRate, m.position,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveTick implements session.Observer.
func (m *Metrics) ObserveTick(active bool) {
	mode := "passive"
	if active {
		mode = "active"
	}
	m.ticks.WithLabelValues(mode).Inc()
}

// ObserveFrameRate implements session.Observer.
func (m *Metrics) ObserveFrameRate(rate int) {
	m.frameRate.Set(float64(rate))
}

// ObservePosition implements session.Observer.
func (m *Metrics) ObservePosition(otw float64) {
	m.position.Set(otw)
}

// ObserveError implements session.Observer.
func (m *Metrics) ObserveError(error) {
	m.errors.Inc()
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}
