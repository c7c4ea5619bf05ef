package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dwarvesf/drain-watcher/internal/handler"
	"github.com/dwarvesf/drain-watcher/internal/handler/health"
	"github.com/dwarvesf/drain-watcher/internal/monitoring"
	"github.com/dwarvesf/drain-watcher/internal/types/environments"
	"github.com/dwarvesf/drain-watcher/internal/utils/config"
	"github.com/dwarvesf/drain-watcher/internal/utils/logger"
	"github.com/dwarvesf/drain-watcher/internal/watcher"
)

type fakeWatcher struct{}

func (fakeWatcher) Scan(ctx context.Context, address string, windowDays int) (*watcher.ScanResult, error) {
	return &watcher.ScanResult{
		Address:    address,
		WindowDays: windowDays,
		Status:     watcher.StatusNoOutgoing,
		Findings:   []watcher.FindingDetail{},
	}, nil
}

func (fakeWatcher) WatchAll(ctx context.Context) (*watcher.WatchSummary, error) {
	return &watcher.WatchSummary{}, nil
}

func newTestServer(t *testing.T, allowedOrigins string) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.AppConfig{
		Environment: environments.Test,
		ApiServer:   config.ApiServerConfig{AllowedOrigins: allowedOrigins},
		Detector:    config.DetectorConfig{WindowDays: 7},
	}
	log := logger.New(environments.Test)

	registry := prometheus.NewRegistry()
	httpMetrics := monitoring.NewHTTPMetrics()
	httpMetrics.MustRegister(registry)
	jsm := monitoring.NewJobStatusManager(log, monitoring.NewBackgroundJobMetrics(), time.Minute)

	h := handler.New(cfg, log, fakeWatcher{}, map[string]health.Checker{}, registry, jsm)
	return NewHttpServer(cfg, log, h, httpMetrics)
}

func TestRoutes(t *testing.T) {
	r := newTestServer(t, "")

	tests := []struct {
		name string
		path string
		code int
	}{
		{name: "basic health", path: "/healthz", code: http.StatusOK},
		{name: "external health without checkers", path: "/api/v1/health/external", code: http.StatusOK},
		{name: "jobs health without jobs", path: "/api/v1/health/jobs", code: http.StatusOK},
		{name: "scan", path: "/api/v1/scan/0x742d35Cc6634C0532925a3b844Bc454e4438f44e", code: http.StatusOK},
		{name: "scan invalid address", path: "/api/v1/scan/not-an-address", code: http.StatusBadRequest},
		{name: "metrics", path: "/metrics", code: http.StatusOK},
		{name: "swagger spec", path: "/swagger/doc.json", code: http.StatusOK},
		{name: "unknown route", path: "/api/v1/unknown", code: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			r.ServeHTTP(w, req)
			assert.Equal(t, tt.code, w.Code, w.Body.String())
		})
	}
}

func TestMetricsExposeHTTPRequests(t *testing.T) {
	r := newTestServer(t, "")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "drain_watcher_http_requests_total")
}

func TestCORS(t *testing.T) {
	r := newTestServer(t, "https://a.example;https://b.example")

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("Origin", "https://b.example")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "https://b.example", w.Header().Get("Access-Control-Allow-Origin"))
}
