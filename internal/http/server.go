// Package http serves health checks and Prometheus metrics.
package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"tunegrab/internal/core"
)

const (
	serviceName     = "tunegrab"
	shutdownTimeout = 10 * time.Second
)

type Server struct {
	config   *core.ServerConfig
	logger   *zap.Logger
	server   *http.Server
	registry *prometheus.Registry
	metrics  *Metrics
	ready    atomic.Bool
}

type Metrics struct {
	RequestsTotal   *prometheus.CounterVec
	StageDuration   *prometheus.HistogramVec
	FileSizeBytes   prometheus.Histogram
	ActiveDownloads prometheus.Gauge
}

func newMetrics(registry prometheus.Registerer) *Metrics {
	metrics := &Metrics{
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tunegrab_requests_total",
				Help: "Total number of download requests by outcome",
			},
			[]string{"outcome"},
		),
		StageDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tunegrab_stage_duration_seconds",
				Help:    "Time spent in each pipeline stage",
				Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
			},
			[]string{"stage"},
		),
		FileSizeBytes: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "tunegrab_delivered_file_size_bytes",
				Help:    "Size of delivered audio files",
				Buckets: prometheus.ExponentialBuckets(1<<20, 2, 7),
			},
		),
		ActiveDownloads: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "tunegrab_active_downloads",
				Help: "Number of users with a download in flight",
			},
		),
	}

	registry.MustRegister(
		metrics.RequestsTotal,
		metrics.StageDuration,
		metrics.FileSizeBytes,
		metrics.ActiveDownloads,
	)

	return metrics
}

func NewServer(config *core.ServerConfig, logger *zap.Logger) *Server {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	s := &Server{
		config:   config,
		logger:   logger,
		registry: registry,
		metrics:  newMetrics(registry),
	}
	s.server = createHTTPServer(config, setupRoutes(logger, registry, s.ready.Load))

	return s
}

func createHTTPServer(config *core.ServerConfig, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:         fmt.Sprintf("%s:%d", config.Host, config.Port),
		Handler:      handler,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
	}
}

func setupRoutes(logger *zap.Logger, gatherer prometheus.Gatherer, ready func() bool) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, logger, http.StatusOK, `{"status":"ok","service":"`+serviceName+`"}`)
	})

	mux.HandleFunc("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		if !ready() {
			writeJSON(w, logger, http.StatusServiceUnavailable, `{"status":"starting","service":"`+serviceName+`"}`)
			return
		}
		writeJSON(w, logger, http.StatusOK, `{"status":"ready","service":"`+serviceName+`"}`)
	})

	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	mux.HandleFunc("/", homeHandler(logger))

	return mux
}

func writeJSON(w http.ResponseWriter, logger *zap.Logger, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write([]byte(body)); err != nil {
		logger.Debug("Failed to write response", zap.Error(err))
	}
}

func homeHandler(logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte(`<!DOCTYPE html>
<html>
<head>
    <title>tunegrab</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 40px; }
        .header { color: #333; }
        .endpoint { margin: 10px 0; }
        .endpoint a { text-decoration: none; color: #0066cc; }
        .endpoint a:hover { text-decoration: underline; }
    </style>
</head>
<body>
    <h1 class="header">🎵 tunegrab</h1>
    <p>Spotify track links in, tagged MP3 files out, over Telegram</p>

    <h2>Endpoints</h2>
    <div class="endpoint">📊 <a href="/metrics">Metrics</a> - Prometheus metrics</div>
    <div class="endpoint">💚 <a href="/healthz">Health</a> - Health check</div>
    <div class="endpoint">✅ <a href="/readyz">Ready</a> - Readiness check</div>
</body>
</html>`)); err != nil {
			logger.Debug("Failed to write home page", zap.Error(err))
		}
	}
}

func (s *Server) Start(ctx context.Context) error {
	s.logger.Info("Starting HTTP server",
		zap.String("addr", s.server.Addr))

	go func() {
		<-ctx.Done()
		s.logger.Info("Shutting down HTTP server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := s.server.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("Failed to shutdown HTTP server gracefully", zap.Error(err))
		}
	}()

	if err := s.server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("HTTP server failed: %w", err)
	}

	return nil
}

// SetReady marks the server ready once the bot is connected.
func (s *Server) SetReady(ready bool) {
	s.ready.Store(ready)
}

func (s *Server) RecordRequest(outcome string) {
	s.metrics.RequestsTotal.WithLabelValues(outcome).Inc()
}

func (s *Server) RecordStage(stage core.Stage, duration time.Duration) {
	s.metrics.StageDuration.WithLabelValues(stage.String()).Observe(duration.Seconds())
}

func (s *Server) RecordFileSize(bytes int64) {
	s.metrics.FileSizeBytes.Observe(float64(bytes))
}

func (s *Server) SetActiveDownloads(count int) {
	s.metrics.ActiveDownloads.Set(float64(count))
}
