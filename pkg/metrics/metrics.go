// Package metrics exposes the pokedex Prometheus metrics.
// Collectors are defined next to the code that updates them (pkg/fetch)
// and registered through Registry.
//
// This package provides the scrape endpoint and a reference for all metrics.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

// Registry is the Prometheus registerer used by pokedex collectors.
var Registry = prometheus.DefaultRegisterer

// Gatherer is the gatherer served by Handler.
var Gatherer = prometheus.DefaultGatherer

// Handler returns a mux serving /metrics and /health.
func Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(Gatherer, promhttp.HandlerOpts{}))
	mux.HandleFunc("/health", healthHandler)
	return mux
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, "OK")
}

// Server serves Handler on a TCP address until its context ends.
type Server struct {
	listener net.Listener
	server   *http.Server
}

// Listen binds addr (e.g. ":9090" or "127.0.0.1:0").
func Listen(addr string) (*Server, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", addr, err)
	}
	return &Server{
		listener: ln,
		server: &http.Server{
			Handler:           Handler(),
			ReadHeaderTimeout: 5 * time.Second,
		},
	}, nil
}

// Addr returns the bound address.
func (s *Server) Addr() string {
	return s.listener.Addr().String()
}

// Serve blocks until ctx is done, then shuts the server down.
func (s *Server) Serve(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.server.Serve(s.listener)
	}()

	log.Info().Str("addr", s.Addr()).Msg("Metrics listener started")

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("metrics server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown metrics server: %w", err)
	}
	log.Info().Msg("Metrics listener stopped")
	return nil
}

// Metrics Documentation
//
// Fetch Metrics (pkg/fetch):
//   - pokedex_fetch_requests_total{method, outcome} (Counter): Completed attempts by
//     outcome ("success", "error", "discarded")
//   - pokedex_fetch_request_duration_seconds{method} (Histogram): Attempt duration
//   - pokedex_fetch_errors_total{class} (Counter): Errors committed to state by class
//     (client, server, network, decode, unknown)
//   - pokedex_fetch_superseded_total (Counter): In-flight requests cancelled by a newer issue
//   - pokedex_fetch_in_flight (Gauge): Requests in flight across all controllers
//
// Example Prometheus Queries:
//
//   # Share of outcomes thrown away by supersession or Close
//   sum(rate(pokedex_fetch_requests_total{outcome="discarded"}[5m])) /
//   sum(rate(pokedex_fetch_requests_total[5m]))
//
//   # Error Rate by class
//   rate(pokedex_fetch_errors_total[5m])
//
//   # P95 Request Latency
//   histogram_quantile(0.95, rate(pokedex_fetch_request_duration_seconds_bucket[5m]))
