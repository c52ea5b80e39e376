// Package metrics exposes Prometheus metrics for the HTTP surface, the
// propagation engine and the TLE catalog.
package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orbitd_http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"path", "method", "code"},
	)

	httpDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "orbitd_http_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path", "method"},
	)

	propagationSamplesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orbitd_propagation_samples_total",
			Help: "Propagated samples by outcome.",
		},
		[]string{"result"},
	)

	propagationDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "orbitd_propagation_duration_seconds",
			Help:    "Wall time of one propagation run.",
			Buckets: []float64{.0005, .001, .005, .01, .05, .1, .5, 1, 5},
		},
	)

	catalogEntries = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "orbitd_catalog_entries",
			Help: "Number of distinct catalog numbers in the loaded dataset.",
		},
	)

	catalogFetchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orbitd_catalog_fetches_total",
			Help: "Catalog fetch attempts by outcome.",
		},
		[]string{"result"},
	)

	catalogAgeOnce sync.Once
)

func init() {
	prometheus.MustRegister(httpRequestsTotal)
	prometheus.MustRegister(httpDurationSeconds)
	prometheus.MustRegister(propagationSamplesTotal)
	prometheus.MustRegister(propagationDurationSeconds)
	prometheus.MustRegister(catalogEntries)
	prometheus.MustRegister(catalogFetchesTotal)
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Propagation records propagation statistics. Its zero value is ready to
// use.
type Propagation struct{}

// ObserveSamples counts samples by outcome.
func (Propagation) ObserveSamples(ok, decayed, failed int) {
	propagationSamplesTotal.WithLabelValues("ok").Add(float64(ok))
	propagationSamplesTotal.WithLabelValues("decayed").Add(float64(decayed))
	propagationSamplesTotal.WithLabelValues("failed").Add(float64(failed))
}

// ObservePropagation records the duration of one run.
func (Propagation) ObservePropagation(d time.Duration) {
	propagationDurationSeconds.Observe(d.Seconds())
}

// SetCatalogEntries sets the catalog size gauge.
func SetCatalogEntries(n int) {
	catalogEntries.Set(float64(n))
}

// IncCatalogFetch counts a fetch attempt; result is "ok" or "error".
func IncCatalogFetch(result string) {
	catalogFetchesTotal.WithLabelValues(result).Inc()
}

// RegisterCatalogAge exports the dataset age, evaluated at scrape time.
// Only the first call has an effect.
func RegisterCatalogAge(age func() float64) {
	catalogAgeOnce.Do(func() {
		prometheus.MustRegister(prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{
				Name: "orbitd_catalog_age_seconds",
				Help: "Seconds since the loaded dataset was fetched, or -1.",
			},
			age,
		))
	})
}

var exactRoutes = map[string]bool{
	"/":                        true,
	"/healthz":                 true,
	"/readyz":                  true,
	"/metrics":                 true,
	"/api/v1/propagate":        true,
	"/api/v1/keplerian":        true,
	"/api/v1/catalog/metadata": true,
	"/api/v1/catalog/fetch":    true,
}

// normalizeRoute maps a request path to a bounded set of labels so that
// catalog numbers and bot traffic cannot blow up metric cardinality.
func normalizeRoute(path string) string {
	if exactRoutes[path] {
		return path
	}
	rest, ok := strings.CutPrefix(path, "/api/v1/catalog/")
	if !ok {
		return "other"
	}
	id, action, ok := strings.Cut(rest, "/")
	if !ok || !isDigits(id) {
		return "other"
	}
	switch action {
	case "propagate", "keplerian":
		return "/api/v1/catalog/{catalog_number}/" + action
	}
	return "other"
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Middleware records request count and duration for each request.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(rw, r)

		duration := time.Since(start).Seconds()
		code := strconv.Itoa(rw.statusCode)
		route := normalizeRoute(r.URL.Path)

		httpRequestsTotal.WithLabelValues(route, r.Method, code).Inc()
		httpDurationSeconds.WithLabelValues(route, r.Method).Observe(duration)
	})
}
