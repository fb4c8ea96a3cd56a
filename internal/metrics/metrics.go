// Package metrics exposes Prometheus collectors for the HTTP layer and the
// game recorder.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry *prometheus.Registry

	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
	httpInFlight    prometheus.Gauge
	gamesRecorded   prometheus.Counter
	recordFailures  *prometheus.CounterVec
	sinkFailures    *prometheus.CounterVec
	identities      prometheus.Counter
	streamListeners prometheus.Gauge
}

// New registers every collector on a fresh registry, so tests can build
// as many as they like.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "artsociety_http_requests_total", Help: "HTTP requests by route and status."},
			[]string{"method", "route", "status"},
		),
		httpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "artsociety_http_request_duration_seconds",
				Help:    "HTTP request latency by route.",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
			},
			[]string{"method", "route"},
		),
		httpInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{Name: "artsociety_http_requests_in_flight", Help: "HTTP requests being served."},
		),
		gamesRecorded: prometheus.NewCounter(
			prometheus.CounterOpts{Name: "artsociety_games_recorded_total", Help: "Games recorded with every step applied."},
		),
		recordFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "artsociety_record_failures_total", Help: "Failed game records by step."},
			[]string{"step"},
		),
		sinkFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "artsociety_sink_failures_total", Help: "Best-effort deliveries that failed, by sink."},
			[]string{"sink"},
		),
		identities: prometheus.NewCounter(
			prometheus.CounterOpts{Name: "artsociety_identities_created_total", Help: "Player identities created."},
		),
		streamListeners: prometheus.NewGauge(
			prometheus.GaugeOpts{Name: "artsociety_event_stream_listeners", Help: "Open event streams."},
		),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequests, m.httpDuration, m.httpInFlight,
		m.gamesRecorded, m.recordFailures, m.sinkFailures,
		m.identities, m.streamListeners,
	)
	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Middleware records request counts and latency labelled by the chi route
// pattern, keeping label cardinality bounded.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		m.httpInFlight.Inc()
		defer m.httpInFlight.Dec()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil {
			if p := rc.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.httpRequests.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		m.httpDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

// The recording methods below are no-ops on a nil *Metrics.

func (m *Metrics) GameRecorded() {
	if m != nil {
		m.gamesRecorded.Inc()
	}
}

func (m *Metrics) RecordFailed(step string) {
	if m == nil {
		return
	}
	if step == "" {
		step = "validation"
	}
	m.recordFailures.WithLabelValues(step).Inc()
}

func (m *Metrics) SinkFailed(sink string) {
	if m != nil {
		m.sinkFailures.WithLabelValues(sink).Inc()
	}
}

func (m *Metrics) IdentitiesCreated(n int) {
	if m != nil {
		m.identities.Add(float64(n))
	}
}

func (m *Metrics) StreamOpened() {
	if m != nil {
		m.streamListeners.Inc()
	}
}

func (m *Metrics) StreamClosed() {
	if m != nil {
		m.streamListeners.Dec()
	}
}
