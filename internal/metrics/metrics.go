package metrics

import (
	"regexp"
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// RequestDuration tracks HTTP request duration in seconds by method, path, status.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	// RequestTotal counts HTTP requests by method, path, status.
	RequestTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// LoginAttempts counts login form submissions by result (success, failure).
	LoginAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "login_attempts_total",
			Help: "Total number of login attempts by result",
		},
		[]string{"result"},
	)

	// InventoryOps counts successful inventory writes by action (add, edit).
	InventoryOps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inventory_operations_total",
			Help: "Total number of inventory records added or edited",
		},
		[]string{"action"},
	)

	// CatalogImported counts species inserted by catalog imports.
	CatalogImported = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "catalog_species_imported_total",
			Help: "Total number of species inserted into the catalog",
		},
	)
)

var (
	numericPathSegment = regexp.MustCompile(`/[0-9]+(/|$)`)
	initOnce           sync.Once
)

func init() {
	initOnce.Do(func() {
		prometheus.MustRegister(RequestDuration, RequestTotal, LoginAttempts, InventoryOps, CatalogImported)
	})
}

// NormalizePath reduces cardinality by replacing numeric path segments with {id}.
// E.g. /user/pokemon/12/edit -> /user/pokemon/{id}/edit.
func NormalizePath(path string) string {
	return numericPathSegment.ReplaceAllString(path, "/{id}$1")
}

// RecordRequest records duration and count for an HTTP request.
func RecordRequest(method, path string, statusCode int, durationSeconds float64) {
	path = NormalizePath(path)
	status := strconv.Itoa(statusCode)
	RequestDuration.WithLabelValues(method, path, status).Observe(durationSeconds)
	RequestTotal.WithLabelValues(method, path, status).Inc()
}

// IncLoginAttempt counts one login with result "success" or "failure".
func IncLoginAttempt(result string) {
	LoginAttempts.WithLabelValues(result).Inc()
}

// IncInventoryOps counts one inventory write.
func IncInventoryOps(action string) {
	InventoryOps.WithLabelValues(action).Inc()
}

// AddCatalogImported adds n newly inserted species.
func AddCatalogImported(n int) {
	if n > 0 {
		CatalogImported.Add(float64(n))
	}
}
