package monitoring

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsAreIndependent(t *testing.T) {
	a := NewMetrics()
	b := NewMetrics()

	a.Run()
	a.Run()

	assert.Equal(t, 2.0, testutil.ToFloat64(a.Runs))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.Runs))
}

func TestDomainRecorders(t *testing.T) {
	m := NewMetrics()

	m.Composition("live")
	m.Composition("run")
	m.Composition("run")
	m.Sandbox(10*time.Millisecond, false)
	m.Sandbox(5*time.Second, true)
	m.Diagnostic(true)
	m.Diagnostic(false)
	m.BridgeDrop("no_listener")
	m.PersistenceError("save")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Compositions.WithLabelValues("live")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Compositions.WithLabelValues("run")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SandboxTimeouts))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Diagnostics.WithLabelValues("accepted")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Diagnostics.WithLabelValues("stale")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.BridgeDrops.WithLabelValues("no_listener")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PersistErrors.WithLabelValues("save")))

	snap := m.Snapshot()
	assert.Equal(t, int64(1), snap.Diagnostics)
}

func TestBreakerState(t *testing.T) {
	m := NewMetrics()

	m.SetBreakerState("open")
	m.SetBreakerState("closed")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.BreakerStateInfo.WithLabelValues("closed")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.BreakerStateInfo.WithLabelValues("open")))
}

func TestWSConnections(t *testing.T) {
	m := NewMetrics()

	m.IncWSConnections()
	m.IncWSConnections()
	m.DecWSConnections()
	m.RecordWSMessage("in", "console")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.WSConnections))
	assert.Equal(t, int64(1), m.Snapshot().ActiveConnections)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.WSMessages.WithLabelValues("in", "console")))
}

func TestTimer(t *testing.T) {
	m := NewMetrics()

	NewTimer(m, "save").Stop(nil)
	NewTimer(m, "save").Stop(errors.New("disk full"))

	assert.Equal(t, 2, testutil.CollectAndCount(m.StorageDuration))
}

func TestMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := NewMetrics()

	router := gin.New()
	router.Use(Middleware(m))
	router.GET("/preview/:instance", func(c *gin.Context) {
		c.String(http.StatusNotFound, "gone")
	})
	router.GET("/metrics", gin.WrapH(m.Handler()))

	for _, path := range []string{"/preview/sbx_a", "/preview/sbx_b", "/nowhere"} {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("GET", "/preview/:instance", "404")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("GET", "unmatched", "404")))

	snap := m.Snapshot()
	assert.Equal(t, int64(3), snap.TotalRequests)
	assert.Equal(t, int64(3), snap.TotalErrors)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.True(t, strings.Contains(body, "playground_http_requests_total"))
	assert.True(t, strings.Contains(body, "playground_uptime_seconds"))
}
