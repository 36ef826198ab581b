package fetch

import (
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/Sternrassler/pokedex/pkg/metrics"
)

// Prometheus metrics for controller requests.
var (
	factory = promauto.With(metrics.Registry)

	fetchRequestsTotal = factory.NewCounterVec(prometheus.CounterOpts{
		Name: "pokedex_fetch_requests_total",
		Help: "Total fetch requests by method and outcome",
	}, []string{"method", "outcome"}) // outcome: "success", "error", "discarded"

	fetchRequestDuration = factory.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pokedex_fetch_request_duration_seconds",
		Help:    "Fetch request duration in seconds by method",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
	}, []string{"method"})

	fetchErrorsTotal = factory.NewCounterVec(prometheus.CounterOpts{
		Name: "pokedex_fetch_errors_total",
		Help: "Total fetch errors committed to controller state by class",
	}, []string{"class"})

	fetchSupersededTotal = factory.NewCounter(prometheus.CounterOpts{
		Name: "pokedex_fetch_superseded_total",
		Help: "Total in-flight requests cancelled because a newer request was issued",
	})

	fetchInFlight = factory.NewGauge(prometheus.GaugeOpts{
		Name: "pokedex_fetch_in_flight",
		Help: "Number of fetch requests currently in flight across all controllers",
	})
)

const (
	outcomeSuccess   = "success"
	outcomeError     = "error"
	outcomeDiscarded = "discarded"
)

// methodLabel maps a request method onto a fixed label set.
func methodLabel(method string) string {
	switch m := strings.ToUpper(method); m {
	case http.MethodGet, http.MethodHead, http.MethodPost, http.MethodPut,
		http.MethodPatch, http.MethodDelete, http.MethodOptions:
		return m
	default:
		return "other"
	}
}
