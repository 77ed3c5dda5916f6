// Package observability provides the HTTP server for health checks and
// Prometheus metrics endpoints.
//
// # Endpoints
//
//   - GET /healthz: Health check endpoint. Returns 200 if the bridge process
//     is running.
//
//   - GET /readyz: Readiness check endpoint. Returns 200 once every configured
//     close-approach poller has started, with the query names in the body.
//
//   - GET /metrics: Prometheus metrics in text exposition format. Includes
//     both Go runtime metrics and the bridge metrics below.
//
// # Custom Metrics
//
//	┌──────────────────────────────────────┬─────────┬──────────────────────────────────────┐
//	│ Metric Name                          │ Type    │ Description                          │
//	├──────────────────────────────────────┼─────────┼──────────────────────────────────────┤
//	│ bridge_source_records_total          │ Counter │ Approach rows fetched per query      │
//	│ bridge_source_produce_total          │ Counter │ Rows produced to Kafka               │
//	│ bridge_source_errors_total           │ Counter │ Source pipeline errors               │
//	│ bridge_source_poll_duration_seconds  │ Hist    │ Duration of a full poll cycle        │
//	│ bridge_nasa_api_requests_total       │ Counter │ Requests to the APOD / CAD services  │
//	│ bridge_nasa_api_errors_total         │ Counter │ API errors (by status code or cause) │
//	│ bridge_nasa_api_latency_seconds      │ Hist    │ API response latency                 │
//	│ bridge_source_last_success_timestamp │ Gauge   │ Unix time of last successful poll    │
//	└──────────────────────────────────────┴─────────┴──────────────────────────────────────┘
//
// # Usage
//
//	srv := observability.NewServer(":8080", logger)
//	go srv.Start(ctx)
//	// When ready:
//	srv.SetReady(true)
package observability

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ----- Prometheus Metrics -----

// Metrics holds all Prometheus metrics used by the bridge.
// Using promauto for automatic registration with the default registry.
var Metrics = struct {
	// Source metrics
	SourceRecordsTotal *prometheus.CounterVec
	SourceProduceTotal *prometheus.CounterVec
	SourceErrorsTotal  *prometheus.CounterVec
	SourcePollDuration *prometheus.HistogramVec
	SourceLastSuccess  *prometheus.GaugeVec

	// NASA API metrics
	APIRequestsTotal *prometheus.CounterVec
	APIErrorsTotal   *prometheus.CounterVec
	APILatency       *prometheus.HistogramVec
}{
	SourceRecordsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bridge_source_records_total",
		Help: "Total number of close-approach rows fetched.",
	}, []string{"query"}),

	SourceProduceTotal: promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bridge_source_produce_total",
		Help: "Total number of rows successfully produced to Kafka.",
	}, []string{"query", "topic"}),

	SourceErrorsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bridge_source_errors_total",
		Help: "Total number of source pipeline errors.",
	}, []string{"query", "error_type"}),

	SourcePollDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "bridge_source_poll_duration_seconds",
		Help:    "Duration of a close-approach poll cycle, fetch through produce.",
		Buckets: prometheus.DefBuckets,
	}, []string{"query"}),

	SourceLastSuccess: promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "bridge_source_last_success_timestamp",
		Help: "Unix time of the last successful poll cycle.",
	}, []string{"query"}),

	APIRequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bridge_nasa_api_requests_total",
		Help: "Total number of NASA/JPL API requests.",
	}, []string{"method", "endpoint"}),

	APIErrorsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bridge_nasa_api_errors_total",
		Help: "Total number of NASA/JPL API errors by status code or cause.",
	}, []string{"method", "status_code"}),

	APILatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "bridge_nasa_api_latency_seconds",
		Help:    "NASA/JPL API response latency in seconds.",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	}, []string{"method", "endpoint"}),
}

// ----- Health/Readiness Server -----

// Server provides HTTP endpoints for health checks, readiness probes,
// and Prometheus metrics.
type Server struct {
	addr   string
	ready  atomic.Bool
	logger *slog.Logger
	srv    *http.Server

	mu      sync.Mutex
	queries []string
}

// NewServer creates a new observability HTTP server.
func NewServer(addr string, logger *slog.Logger) *Server {
	s := &Server{
		addr:   addr,
		logger: logger.With("component", "observability"),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/readyz", s.handleReady)
	mux.Handle("/metrics", promhttp.Handler())

	s.srv = &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Start begins listening for HTTP requests. Blocks until the context is
// cancelled, then gracefully shuts down the server.
func (s *Server) Start(ctx context.Context) error {
	s.logger.Info("observability server starting", "addr", s.addr)

	go func() {
		<-ctx.Done()
		s.logger.Info("shutting down observability server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.srv.Shutdown(shutdownCtx)
	}()

	if err := s.srv.ListenAndServe(); err != http.ErrServerClosed {
		return fmt.Errorf("observability server: %w", err)
	}
	return nil
}

// SetReady marks the server as ready (or not ready) for readiness probes and
// records the names of the running close-approach queries, which /readyz
// reports. Call it after all pollers have started.
func (s *Server) SetReady(ready bool, queries ...string) {
	s.mu.Lock()
	s.queries = append([]string(nil), queries...)
	s.mu.Unlock()
	s.ready.Store(ready)
	s.logger.Info("readiness state changed", "ready", ready, "queries", len(queries))
}

type statusBody struct {
	Status  string   `json:"status"`
	Queries []string `json:"queries,omitempty"`
}

func writeStatus(w http.ResponseWriter, code int, body statusBody) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}

// handleHealth responds with 200 OK while the process is alive.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeStatus(w, http.StatusOK, statusBody{Status: "healthy"})
}

// handleReady responds with 200 and the running queries if ready, 503 if
// not yet ready.
func (s *Server) handleReady(w http.ResponseWriter, _ *http.Request) {
	if !s.ready.Load() {
		writeStatus(w, http.StatusServiceUnavailable, statusBody{Status: "not_ready"})
		return
	}
	s.mu.Lock()
	queries := s.queries
	s.mu.Unlock()
	writeStatus(w, http.StatusOK, statusBody{Status: "ready", Queries: queries})
}
