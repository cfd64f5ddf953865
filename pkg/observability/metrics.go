package observability

import (
	"context"
	"net/http"
	"strconv"

	"github.com/aretw0/loadbank/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "loadbank"

// Metrics holds the gateway collectors.
type Metrics struct {
	registry    *prometheus.Registry
	invocations *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	inFlight    prometheus.Gauge
	requests    *prometheus.CounterVec
}

// NewMetrics creates and registers the gateway collectors, plus the standard Go and
// process collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		invocations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "invocations_total",
				Help:      "Total number of serial interface invocations by outcome",
			},
			[]string{"command", "outcome"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "invocation_duration_seconds",
				Help:      "Duration of serial interface invocations",
				Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"command"},
		),
		inFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "invocations_in_flight",
				Help:      "Number of serial interface processes currently running",
			},
		),
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of gateway HTTP requests by route and status",
			},
			[]string{"route", "status"},
		),
	}

	m.registry.MustRegister(
		m.invocations,
		m.duration,
		m.inFlight,
		m.requests,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Hooks returns invoker hooks that record invocation metrics.
func (m *Metrics) Hooks() domain.InvokeHooks {
	return domain.InvokeHooks{
		OnStart: func(_ context.Context, e *domain.InvokeEvent) {
			m.inFlight.Inc()
		},
		OnFinish: func(_ context.Context, e *domain.InvokeEvent) {
			m.inFlight.Dec()
			if e.Result == nil {
				return
			}
			command := e.Invocation.Command
			m.invocations.WithLabelValues(command, string(e.Result.Kind)).Inc()
			m.duration.WithLabelValues(command).Observe(e.Result.Duration.Seconds())
		},
	}
}

// ObserveRequest counts one HTTP request. Unmatched paths should be reported with a
// fixed route label to keep cardinality bounded.
func (m *Metrics) ObserveRequest(route string, status int) {
	m.requests.WithLabelValues(route, strconv.Itoa(status)).Inc()
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
