// Package metrics exposes Prometheus counters for the authentication flows
// and the HTTP surface.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "smartlegal"

// Operation labels.
const (
	OpLogin          = "login"
	OpRefresh        = "refresh"
	OpRegister       = "register"
	OpPasswordChange = "password_change"
	OpPasswordForgot = "password_forgot"
	OpPasswordReset  = "password_reset"
)

// Recorder is what handlers report authentication outcomes to.
type Recorder interface {
	RecordAuth(op, outcome string)
}

// Collector implements Recorder on top of a Prometheus registry.
type Collector struct {
	auth        *prometheus.CounterVec
	requests    *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	inflight    prometheus.Gauge
	resetSweeps prometheus.Counter
}

func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		auth: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "auth_operations_total",
			Help:      "Authentication operations by outcome.",
		}, []string{"op", "outcome"}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status.",
		}, []string{"method", "route", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		inflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "http_inflight_requests",
			Help:      "Requests currently being served.",
		}),
		resetSweeps: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reset_tokens_swept_total",
			Help:      "Expired reset tokens removed by housekeeping.",
		}),
	}

	reg.MustRegister(c.auth, c.requests, c.duration, c.inflight, c.resetSweeps)
	return c
}

// RecordAuth counts one operation. outcome is usually domain.OutcomeSuccess
// or domain.OutcomeFailure.
func (c *Collector) RecordAuth(op, outcome string) {
	c.auth.WithLabelValues(op, outcome).Inc()
}

// RecordSwept adds n removed reset tokens.
func (c *Collector) RecordSwept(n int) {
	if n > 0 {
		c.resetSweeps.Add(float64(n))
	}
}

// RegisterAuditDropped exposes the drop count of the async audit sink.
func RegisterAuditDropped(reg prometheus.Registerer, dropped func() uint64) {
	reg.MustRegister(prometheus.NewCounterFunc(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "audit_events_dropped_total",
		Help:      "Audit events discarded because the buffer was full.",
	}, func() float64 { return float64(dropped()) }))
}

// Middleware records request counts and latency. Routes are labelled with
// the ServeMux pattern so path parameters do not explode cardinality.
func (c *Collector) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		c.inflight.Inc()
		defer c.inflight.Dec()

		rw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rw, r)

		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		c.requests.WithLabelValues(r.Method, route, strconv.Itoa(rw.status)).Inc()
		c.duration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

// Handler serves the registry in the Prometheus exposition format.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// Nop discards everything.
type Nop struct{}

func (Nop) RecordAuth(string, string) {}
