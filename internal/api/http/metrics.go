package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/GriffinCanCode/playground/internal/infrastructure/monitoring"
)

// MetricsSnapshot is the JSON view of the server metrics
type MetricsSnapshot struct {
	Timestamp time.Time              `json:"timestamp"`
	Server    monitoring.Snapshot    `json:"server"`
	Sandbox   map[string]interface{} `json:"sandbox,omitempty"`
	Storage   map[string]interface{} `json:"storage,omitempty"`
	Summary   MetricsSummary         `json:"summary"`
}

// MetricsSummary provides high-level metrics
type MetricsSummary struct {
	ErrorRate     float64 `json:"error_rate"`
	ConsoleLines  int     `json:"console_lines"`
	UptimeSeconds float64 `json:"uptime_seconds"`
}

// MetricsJSON returns the aggregated metrics as JSON
func (h *Handlers) MetricsJSON(c *gin.Context) {
	server := h.metrics.Snapshot()

	snapshot := MetricsSnapshot{
		Timestamp: time.Now(),
		Server:    server,
		Summary: MetricsSummary{
			ConsoleLines:  h.playground.Console().Len(),
			UptimeSeconds: server.UptimeSeconds,
		},
	}
	if server.TotalRequests > 0 {
		snapshot.Summary.ErrorRate = float64(server.TotalErrors) / float64(server.TotalRequests)
	}
	if h.sandbox != nil {
		snapshot.Sandbox = h.sandbox.Stats()
	}
	if h.storage != nil {
		snapshot.Storage = h.storage.Stats()
	}

	c.JSON(http.StatusOK, snapshot)
}
