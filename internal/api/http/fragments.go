package http

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/playground/internal/domain/source"
)

// maxFragmentBytes bounds one fragment upload
const maxFragmentBytes = 1 << 20

// GetFragments returns all three fragments
func (h *Handlers) GetFragments(c *gin.Context) {
	c.JSON(http.StatusOK, h.playground.State())
}

// GetFragment returns one fragment
func (h *Handlers) GetFragment(c *gin.Context) {
	kind, err := source.ParseKind(c.Param("kind"))
	if err != nil {
		abortWithError(c, http.StatusNotFound, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"kind": kind,
		"text": h.playground.State().Get(kind),
	})
}

// PutFragment replaces one fragment. The body is either raw text or a JSON
// object {"text": "..."}.
func (h *Handlers) PutFragment(c *gin.Context) {
	kind, err := source.ParseKind(c.Param("kind"))
	if err != nil {
		abortWithError(c, http.StatusNotFound, err)
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxFragmentBytes)
	text, err := readFragment(c)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			abortWithError(c, http.StatusRequestEntityTooLarge, fmt.Errorf("fragment exceeds %d bytes", tooLarge.Limit))
			return
		}
		abortWithError(c, http.StatusBadRequest, fmt.Errorf("invalid request: %w", err))
		return
	}

	if err := h.playground.Edit(kind, text); err != nil {
		abortWithError(c, http.StatusBadRequest, err)
		return
	}

	h.logger.Debug("Fragment updated", zap.String("kind", string(kind)), zap.Int("bytes", len(text)))

	body := gin.H{
		"success": true,
		"kind":    kind,
		"bytes":   len(text),
	}
	if inst := h.playground.Current(); inst != nil {
		body["instance"] = inst.ID
	}
	c.JSON(http.StatusOK, body)
}

func readFragment(c *gin.Context) (string, error) {
	if strings.HasPrefix(c.ContentType(), "application/json") {
		var req struct {
			Text *string `json:"text" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			return "", err
		}
		return *req.Text, nil
	}

	data, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
