package http

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/GriffinCanCode/playground/internal/domain/playground"
	"github.com/GriffinCanCode/playground/internal/domain/preview"
	"github.com/GriffinCanCode/playground/internal/shared/id"
)

const htmlContentType = "text/html; charset=utf-8"

// Preview serves the current composed document
func (h *Handlers) Preview(c *gin.Context) {
	servePreview(c, h.playground.Document())
}

// PreviewInstance serves the document of one instance while it is current.
// With ?variant=live only markup and style are served, so a host page can
// display an instance the headless sandbox already runs.
func (h *Handlers) PreviewInstance(c *gin.Context) {
	instance := id.SandboxID(c.Param("instance"))

	var (
		doc string
		err error
	)
	switch variant := c.Query("variant"); variant {
	case "":
		doc, err = h.playground.DocumentFor(instance)
	case string(preview.VariantLive):
		doc, err = h.playground.LiveDocumentFor(instance)
	default:
		abortWithError(c, http.StatusBadRequest, fmt.Errorf("unknown preview variant %q", variant))
		return
	}
	if err != nil {
		if errors.Is(err, playground.ErrInstanceNotFound) {
			abortWithError(c, http.StatusNotFound, err)
			return
		}
		abortWithError(c, http.StatusInternalServerError, err)
		return
	}
	servePreview(c, doc)
}

// Standalone serves the open-in-new-context document
func (h *Handlers) Standalone(c *gin.Context) {
	servePreview(c, h.playground.Standalone())
}

func servePreview(c *gin.Context, doc string) {
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, htmlContentType, []byte(doc))
}
