package obs

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HTTP-level metrics shared by all routes.
var (
	httpInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "http_in_flight_requests",
		Help: "In-flight HTTP requests.",
	})

	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	ready = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "service_ready",
		Help: "1 when the service considers itself ready to serve traffic.",
	})
)

// Domain counters for the QR/fulfillment workflow.
var (
	qrTokensIssued = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "qr_tokens_issued_total",
		Help: "QR login tokens issued.",
	})
	qrTokensRedeemed = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "qr_tokens_redeemed_total",
		Help: "QR login tokens successfully redeemed.",
	})
	qrTokensRejected = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "qr_tokens_rejected_total",
		Help: "QR token redemptions rejected as invalid, expired or reused.",
	})
	fulfillments = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "component_requests_fulfilled_total",
		Help: "Component requests transitioned to fulfilled.",
	})
	recorderFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "timeline_write_failures_total",
		Help: "Timeline/activity writes that failed and were swallowed.",
	})
)

// Init registers all metrics with the default registry.
func Init() {
	prometheus.MustRegister(
		httpInFlight, httpRequestsTotal, httpRequestDuration, ready,
		qrTokensIssued, qrTokensRedeemed, qrTokensRejected,
		fulfillments, recorderFailures,
	)
}

// Handler exposes the Prometheus scrape endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// SetReady flips the readiness gauge.
func SetReady(ok bool) {
	if ok {
		ready.Set(1)
	} else {
		ready.Set(0)
	}
}

func TokenIssued()     { qrTokensIssued.Inc() }
func TokenRedeemed()   { qrTokensRedeemed.Inc() }
func TokenRejected()   { qrTokensRejected.Inc() }
func Fulfilled()       { fulfillments.Inc() }
func RecorderFailure() { recorderFailures.Inc() }

// CanonicalPath collapses resource identifiers so metric cardinality stays
// bounded. Unknown shapes pass through untouched.
func CanonicalPath(p string) string {
	if p == "" {
		return "/"
	}
	if i := strings.IndexByte(p, '?'); i >= 0 {
		p = p[:i]
	}
	parts := strings.Split(strings.TrimPrefix(p, "/"), "/")
	if len(parts) >= 3 && parts[0] == "v1" && parts[1] == "requests" {
		switch parts[2] {
		case "pending", "mine":
			return p
		}
		if len(parts) == 3 {
			return "/v1/requests/:id"
		}
		if len(parts) == 4 && (parts[3] == "fulfill" || parts[3] == "cancel" || parts[3] == "logs") {
			return "/v1/requests/:id/" + parts[3]
		}
	}
	if len(parts) == 4 && parts[0] == "v1" && parts[1] == "products" && parts[3] == "events" {
		return "/v1/products/:id/events"
	}
	if len(parts) == 4 && parts[0] == "v1" && parts[1] == "users" && parts[3] == "role" {
		return "/v1/users/:id/role"
	}
	return p
}

// Instrument wraps a handler with RPS/latency/in-flight measurement.
func Instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := CanonicalPath(r.URL.Path)
		method := r.Method

		httpInFlight.Inc()
		start := time.Now()

		sw := &statusWriter{ResponseWriter: w, code: 200}
		next.ServeHTTP(sw, r)

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(sw.code)

		httpRequestDuration.WithLabelValues(method, path, status).Observe(duration)
		httpRequestsTotal.WithLabelValues(method, path, status).Inc()
		httpInFlight.Dec()
	})
}

// statusWriter captures the response code for labelling.
type statusWriter struct {
	http.ResponseWriter
	code int
}

func (w *statusWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}
