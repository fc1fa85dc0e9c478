package server

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/playground/internal/domain/source"
	"github.com/GriffinCanCode/playground/internal/infrastructure/config"
	"github.com/GriffinCanCode/playground/internal/infrastructure/logging"
	"github.com/GriffinCanCode/playground/internal/infrastructure/persistence"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Logging.Development = true
	cfg.Storage.Backend = persistence.BackendFile
	cfg.Storage.Path = t.TempDir() + "/code-storage.json"
	cfg.Sandbox.PoolSize = 1
	cfg.RateLimit.Enabled = false
	return cfg
}

func newTestServer(t *testing.T, cfg *config.Config) *Server {
	t.Helper()
	s, err := NewServer(context.Background(), cfg, logging.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func request(t *testing.T, h http.Handler, method, path, body string) (int, string) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(method, path, reader))
	return w.Code, w.Body.String()
}

func TestServerRoundTrip(t *testing.T) {
	s := newTestServer(t, testConfig(t))
	h := s.Handler()

	code, _ := request(t, h, "PUT", "/api/fragments/javascript", "console.log('a'); throw new Error('boom')")
	require.Equal(t, http.StatusOK, code)

	code, body := request(t, h, "POST", "/api/run?wait=true", "")
	require.Equal(t, http.StatusAccepted, code)
	assert.Contains(t, body, `"console":["a","Error: boom"]`)

	code, body = request(t, h, "GET", "/metrics", "")
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, `playground_compositions_total{variant="run"}`)
	assert.Contains(t, body, `playground_storage_breaker_state{state="closed"} 1`)
}

func TestServerPersistsAcrossRestart(t *testing.T) {
	cfg := testConfig(t)

	first, err := NewServer(context.Background(), cfg, logging.NewNop())
	require.NoError(t, err)
	code, _ := request(t, first.Handler(), "PUT", "/api/fragments/html", "<p>kept</p>")
	require.Equal(t, http.StatusOK, code)
	require.NoError(t, first.Close())

	second := newTestServer(t, cfg)
	assert.Equal(t, "<p>kept</p>", second.Core().Store.Get().Markup)
	assert.Equal(t, source.DefaultSeed().Script, second.Core().Store.Get().Script)
}

func TestBrowserModeHasNoPool(t *testing.T) {
	cfg := testConfig(t)
	cfg.Sandbox.Mode = config.SandboxBrowser

	s := newTestServer(t, cfg)
	assert.Nil(t, s.Core().Pool)

	code, body := request(t, s.Handler(), "GET", "/health", "")
	require.Equal(t, http.StatusOK, code)
	assert.NotContains(t, body, `"sandbox"`)
	assert.Contains(t, body, `"breaker":"closed"`)
}

func TestUnknownStorageBackend(t *testing.T) {
	cfg := testConfig(t)
	cfg.Storage.Backend = "s3"

	_, err := NewServer(context.Background(), cfg, logging.NewNop())
	assert.ErrorContains(t, err, `unknown storage backend "s3"`)
}

func TestRunStopsOnCancel(t *testing.T) {
	cfg := testConfig(t)
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = "0"
	s := newTestServer(t, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	cancel()
	assert.NoError(t, <-done)
}
