package server

import (
	"compress/gzip"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DannyMang/theta/internal/app"
	"github.com/DannyMang/theta/internal/infrastructure/config"
	"github.com/DannyMang/theta/internal/infrastructure/tracing"
	"github.com/DannyMang/theta/internal/shared/id"
)

func newTestServer(t *testing.T, cfg *config.Config) (*Server, *app.Context) {
	t.Helper()
	if cfg == nil {
		cfg = config.Default()
	}
	cfg.Logging.Development = true

	appCtx, err := app.New(cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { appCtx.Close() })

	return New(appCtx), appCtx
}

func TestTraceHeaders(t *testing.T) {
	s, _ := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, id.IsValid(w.Header().Get(tracing.HeaderTraceID)))
}

func TestRemoteTraceIsContinued(t *testing.T) {
	s, _ := newTestServer(t, nil)
	parent := id.NewTraceID().String()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(tracing.HeaderTraceID, parent)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	assert.Equal(t, parent, w.Header().Get(tracing.HeaderTraceID))
}

func TestGzipCompression(t *testing.T) {
	s, appCtx := newTestServer(t, nil)
	for i := 0; i < 30; i++ {
		appCtx.Tabs.CreateTab("https://example.com/some/long/path/for/padding", "A reasonably long tab title")
	}

	req := httptest.NewRequest(http.MethodGet, "/tabs", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "gzip", w.Header().Get("Content-Encoding"))

	zr, err := gzip.NewReader(w.Body)
	require.NoError(t, err)
	body, err := io.ReadAll(zr)
	require.NoError(t, err)
	assert.Contains(t, string(body), `"active_tab_id"`)
}

func TestRateLimitApplied(t *testing.T) {
	cfg := config.Default()
	cfg.RateLimit = config.RateLimitConfig{RequestsPerSecond: 1, Burst: 1, Enabled: true}
	s, _ := newTestServer(t, cfg)

	serve := func() int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.0.0.1:5000"
		w := httptest.NewRecorder()
		s.Handler().ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, serve())
	assert.Equal(t, http.StatusTooManyRequests, serve())
}

func TestRateLimitDisabled(t *testing.T) {
	cfg := config.Default()
	cfg.RateLimit = config.RateLimitConfig{RequestsPerSecond: 1, Burst: 1, Enabled: false}
	s, _ := newTestServer(t, cfg)

	for i := 0; i < 5; i++ {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		w := httptest.NewRecorder()
		s.Handler().ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	}
}

func TestRecoveryAndMetricsRoute(t *testing.T) {
	s, _ := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/nowhere", nil)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w = httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `theta_http_requests_total{method="GET",path="unmatched",status="404"} 1`)
}

func TestStreamThroughServer(t *testing.T) {
	s, appCtx := newTestServer(t, nil)
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	header := http.Header{}
	header.Set("Accept-Encoding", "gzip")
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/stream", header)
	require.NoError(t, err)
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var msg map[string]any
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "snapshot", msg["type"])

	appCtx.Tabs.CreateTab("https://example.com", "")
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "tab_created", msg["type"])
}

func TestShutdown(t *testing.T) {
	s, _ := newTestServer(t, nil)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, s.Shutdown(ctx))
}
