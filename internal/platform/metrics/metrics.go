package metrics

import (
	"net/http"
	"strconv"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	applog "github.com/janisto/engage-forms/internal/platform/logging"
)

const namespace = "engage"

var (
	// ActionsTotal counts dispatched form actions by outcome.
	ActionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "actions_total",
			Help:      "Form actions handled, by action and result kind",
		},
		[]string{"action", "result"},
	)

	// UpstreamDuration measures calls to the engagement platform.
	UpstreamDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upstream_request_duration_seconds",
			Help:      "Engagement platform request duration in seconds",
			Buckets:   []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"endpoint", "outcome"},
	)

	// RequestsTotal counts HTTP requests.
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	// RequestDuration measures request latency.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Request duration in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"method", "route"},
	)

	// RequestsInFlight tracks currently active requests.
	RequestsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "http_requests_in_flight",
			Help:      "Number of HTTP requests currently being processed",
		},
	)
)

func init() {
	prometheus.MustRegister(ActionsTotal, UpstreamDuration, RequestsTotal, RequestDuration, RequestsInFlight)
}

// ObserveAction records the outcome of one form action.
func ObserveAction(action, result string) {
	ActionsTotal.WithLabelValues(action, result).Inc()
}

// ObserveUpstream records one engagement platform call.
func ObserveUpstream(endpoint, outcome string, d time.Duration) {
	UpstreamDuration.WithLabelValues(endpoint, outcome).Observe(d.Seconds())
}

// Middleware collects request metrics labelled by chi route pattern so that
// cardinality stays bounded. The metrics endpoint itself is skipped.
func Middleware(metricsPath string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == metricsPath {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			RequestsInFlight.Inc()
			defer RequestsInFlight.Dec()

			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			route := applog.RoutePattern(r)
			if route == "" {
				route = "unmatched"
			}
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			RequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
			RequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
		})
	}
}

// Handler returns the Prometheus scrape handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
