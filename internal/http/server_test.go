package http

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"tunegrab/internal/core"
)

func testConfig() *core.ServerConfig {
	return &core.ServerConfig{
		Host:         "127.0.0.1",
		Port:         0,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
	}
}

func get(t *testing.T, url string) (int, string, string) {
	t.Helper()

	req, _ := http.NewRequestWithContext(context.Background(), http.MethodGet, url, http.NoBody)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("Failed to call %s: %v", url, err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, resp.Header.Get("Content-Type"), string(body)
}

func TestCreateHTTPServer(t *testing.T) {
	config := &core.ServerConfig{
		Host:         "0.0.0.0",
		Port:         9090,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	mux := http.NewServeMux()
	server := createHTTPServer(config, mux)

	expectedAddr := "0.0.0.0:9090"
	if server.Addr != expectedAddr {
		t.Errorf("createHTTPServer() Addr = %q, expected %q", server.Addr, expectedAddr)
	}

	if server.Handler != mux {
		t.Errorf("createHTTPServer() Handler mismatch")
	}

	if server.ReadTimeout != config.ReadTimeout {
		t.Errorf("createHTTPServer() ReadTimeout = %v, expected %v", server.ReadTimeout, config.ReadTimeout)
	}

	if server.WriteTimeout != config.WriteTimeout {
		t.Errorf("createHTTPServer() WriteTimeout = %v, expected %v", server.WriteTimeout, config.WriteTimeout)
	}
}

func TestHealthzEndpoint(t *testing.T) {
	server := httptest.NewServer(setupRoutes(zap.NewNop(), prometheus.NewRegistry(), func() bool { return true }))
	defer server.Close()

	status, contentType, body := get(t, server.URL+"/healthz")

	if status != http.StatusOK {
		t.Errorf("Expected status 200, got %d", status)
	}
	if contentType != "application/json" {
		t.Errorf("/healthz Content-Type = %q, expected %q", contentType, "application/json")
	}
	if expected := `{"status":"ok","service":"tunegrab"}`; body != expected {
		t.Errorf("Expected body %q, got %q", expected, body)
	}
}

func TestReadyzEndpoint(t *testing.T) {
	var ready atomic.Bool
	server := httptest.NewServer(setupRoutes(zap.NewNop(), prometheus.NewRegistry(), ready.Load))
	defer server.Close()

	status, _, _ := get(t, server.URL+"/readyz")
	if status != http.StatusServiceUnavailable {
		t.Errorf("Expected status 503 before ready, got %d", status)
	}

	ready.Store(true)

	status, _, body := get(t, server.URL+"/readyz")
	if status != http.StatusOK {
		t.Errorf("Expected status 200 when ready, got %d", status)
	}
	if expected := `{"status":"ready","service":"tunegrab"}`; body != expected {
		t.Errorf("Expected body %q, got %q", expected, body)
	}
}

func TestHomeHandler(t *testing.T) {
	handler := homeHandler(zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
	rec := httptest.NewRecorder()

	handler(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", rec.Code)
	}

	if contentType := rec.Header().Get("Content-Type"); contentType != "text/html" {
		t.Errorf("Expected Content-Type text/html, got %q", contentType)
	}

	body := rec.Body.String()
	for _, element := range []string{"<!DOCTYPE html>", "<title>tunegrab</title>", "/metrics", "/healthz", "/readyz"} {
		if !strings.Contains(body, element) {
			t.Errorf("Expected body to contain %q", element)
		}
	}
}

func TestServerMetrics(t *testing.T) {
	s := NewServer(testConfig(), zap.NewNop())

	// Servers have their own registries, a second one must not panic
	_ = NewServer(testConfig(), zap.NewNop())

	s.RecordRequest("delivered")
	s.RecordRequest("delivered")
	s.RecordRequest("busy")
	s.RecordStage(core.StageDownloading, 3*time.Second)
	s.RecordFileSize(4 << 20)
	s.SetActiveDownloads(2)

	if s.metrics.RequestsTotal == nil {
		t.Fatal("Metrics were not initialized")
	}

	server := httptest.NewServer(setupRoutes(zap.NewNop(), s.registry, func() bool { return true }))
	defer server.Close()

	_, _, body := get(t, server.URL+"/metrics")
	for _, name := range []string{
		`tunegrab_requests_total{outcome="busy"} 1`,
		`tunegrab_requests_total{outcome="delivered"} 2`,
		"tunegrab_active_downloads 2",
		`tunegrab_stage_duration_seconds_count{stage="downloading"} 1`,
		"tunegrab_delivered_file_size_bytes_count 1",
	} {
		if !strings.Contains(body, name) {
			t.Errorf("Expected metrics output to contain %q", name)
		}
	}
}

func TestServer_StartContextCancellation(t *testing.T) {
	s := NewServer(testConfig(), zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Start(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Expected clean shutdown, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Server did not shut down after context cancellation")
	}
}
