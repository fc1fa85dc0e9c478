package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/playground/internal/domain/playground"
	"github.com/GriffinCanCode/playground/internal/infrastructure/monitoring"
)

// StatsProvider reports component statistics for the health endpoint
type StatsProvider interface {
	Stats() map[string]interface{}
}

// Handlers contains all HTTP handlers
type Handlers struct {
	playground *playground.Playground
	sandbox    StatsProvider
	storage    StatsProvider
	metrics    *monitoring.Metrics
	logger     *zap.Logger
}

// NewHandlers creates a new handler set. sandbox, storage and metrics may
// be nil.
func NewHandlers(
	p *playground.Playground,
	sandbox StatsProvider,
	storage StatsProvider,
	metrics *monitoring.Metrics,
	logger *zap.Logger,
) *Handlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handlers{
		playground: p,
		sandbox:    sandbox,
		storage:    storage,
		metrics:    metrics,
		logger:     logger,
	}
}

// Register installs every playground route except the WebSocket bridge
func (h *Handlers) Register(r gin.IRoutes) {
	r.GET("/", h.Root)
	r.GET("/health", h.Health)

	r.GET("/api/fragments", h.GetFragments)
	r.GET("/api/fragments/:kind", h.GetFragment)
	r.PUT("/api/fragments/:kind", h.PutFragment)
	r.POST("/api/run", h.Run)
	r.POST("/api/reset", h.Reset)
	r.GET("/api/console", h.GetConsole)
	r.DELETE("/api/console", h.ClearConsole)
	r.GET("/api/standalone", h.Standalone)
	r.GET("/api/export", h.Export)

	r.GET("/preview", h.Preview)
	r.GET("/preview/:instance", h.PreviewInstance)

	if h.metrics != nil {
		r.GET("/metrics", gin.WrapH(h.metrics.Handler()))
		r.GET("/metrics/json", h.MetricsJSON)
	}
}

// Root serves the host page
func (h *Handlers) Root(c *gin.Context) {
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "text/html; charset=utf-8", hostPage)
}

// Health handles detailed health check
func (h *Handlers) Health(c *gin.Context) {
	body := gin.H{
		"status":  "healthy",
		"service": "playground",
		"console": gin.H{
			"lines":   h.playground.Console().Len(),
			"evicted": h.playground.Console().Evicted(),
		},
	}
	if inst := h.playground.Current(); inst != nil {
		body["instance"] = gin.H{
			"id":      inst.ID,
			"variant": inst.Variant,
			"created": inst.Created,
		}
	}
	if h.sandbox != nil {
		body["sandbox"] = h.sandbox.Stats()
	}
	if h.storage != nil {
		body["storage"] = h.storage.Stats()
	}
	c.JSON(http.StatusOK, body)
}

func abortWithError(c *gin.Context, status int, err error) {
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}
