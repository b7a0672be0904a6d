package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/unklstewy/ads-bsim/pkg/sim"
)

const namespace = "adsbsim"

// Metrics holds the Prometheus registry of one simulator service.
type Metrics struct {
	registry      *prometheus.Registry
	resetRequests *prometheus.CounterVec
}

// NewMetrics registers simulator and hub collectors. Counters are read from
// the simulator and hub on scrape.
func NewMetrics(s *sim.Simulator, hub *Hub) *Metrics {
	labels := prometheus.Labels{"simulator": s.Name()}
	reg := prometheus.NewRegistry()

	m := &Metrics{
		registry: reg,
		resetRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "reset_requests_total",
			Help:        "POST /reset requests by outcome.",
			ConstLabels: labels,
		}, []string{"outcome"}),
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.resetRequests,
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "ticks_total",
			Help:        "Simulation ticks completed.",
			ConstLabels: labels,
		}, func() float64 { return float64(s.Stats().Ticks) }),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "integration_failures_total",
			Help:        "Aircraft updates skipped because integration failed.",
			ConstLabels: labels,
		}, func() float64 { return float64(s.Stats().Failures) }),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "resets_total",
			Help:        "Simulator resets performed.",
			ConstLabels: labels,
		}, func() float64 { return float64(s.Stats().Resets) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace:   namespace,
			Name:        "aircraft",
			Help:        "Aircraft currently simulated.",
			ConstLabels: labels,
		}, func() float64 { return float64(s.Stats().Aircraft) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace:   namespace,
			Name:        "stream_clients",
			Help:        "Connected WebSocket listeners.",
			ConstLabels: labels,
		}, func() float64 { return float64(hub.Clients()) }),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "frames_sent_total",
			Help:        "Frames queued to listeners.",
			ConstLabels: labels,
		}, func() float64 { return float64(hub.Sent()) }),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "frames_dropped_total",
			Help:        "Frames skipped because a listener's queue was full.",
			ConstLabels: labels,
		}, func() float64 { return float64(hub.Dropped()) }),
	)

	return m
}

// Registry returns the registry served on /metrics.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
