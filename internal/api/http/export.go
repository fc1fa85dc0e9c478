package http

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/klauspost/compress/gzip"
	"go.uber.org/zap"
)

// Export downloads the standalone project file, gzip encoded when the
// client accepts it
func (h *Handlers) Export(c *gin.Context) {
	artifact := h.playground.Export()

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", artifact.Name))
	c.Header("Vary", "Accept-Encoding")

	if !acceptsGzip(c.GetHeader("Accept-Encoding")) {
		c.Data(http.StatusOK, artifact.ContentType, artifact.Content)
		return
	}

	c.Header("Content-Encoding", "gzip")
	c.Header("Content-Type", artifact.ContentType)
	c.Status(http.StatusOK)

	zw := gzip.NewWriter(c.Writer)
	if _, err := zw.Write(artifact.Content); err != nil {
		h.logger.Warn("Failed to write export", zap.Error(err))
		return
	}
	if err := zw.Close(); err != nil {
		h.logger.Warn("Failed to finish export", zap.Error(err))
	}
}

func acceptsGzip(header string) bool {
	for _, part := range strings.Split(header, ",") {
		coding, params, _ := strings.Cut(strings.TrimSpace(part), ";")
		if !strings.EqualFold(strings.TrimSpace(coding), "gzip") {
			continue
		}
		return strings.ReplaceAll(strings.TrimSpace(params), " ", "") != "q=0"
	}
	return false
}
