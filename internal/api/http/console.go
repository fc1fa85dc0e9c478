package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// Run triggers an explicit run. With ?wait=true the response is delayed
// until the headless sandbox finished and carries the console.
func (h *Handlers) Run(c *gin.Context) {
	inst := h.playground.Run()

	body := gin.H{
		"success":  true,
		"instance": inst.ID,
		"variant":  inst.Variant,
	}

	if wait, _ := strconv.ParseBool(c.Query("wait")); wait {
		select {
		case <-inst.Done():
		case <-c.Request.Context().Done():
			return
		}
		body["console"] = h.playground.Console().Lines()
		if result := inst.Result(); result != nil {
			body["uncaught"] = result.Uncaught
			body["interrupted"] = result.Interrupted
		}
	}

	c.JSON(http.StatusAccepted, body)
}

// Reset restores the seed fragments
func (h *Handlers) Reset(c *gin.Context) {
	h.playground.Reset()
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"fragments": h.playground.State(),
	})
}

// GetConsole returns the console lines and their rendering
func (h *Handlers) GetConsole(c *gin.Context) {
	console := h.playground.Console()
	c.JSON(http.StatusOK, gin.H{
		"lines": console.Lines(),
		"text":  console.Render(),
	})
}

// ClearConsole empties the console
func (h *Handlers) ClearConsole(c *gin.Context) {
	h.playground.ClearConsole()
	c.JSON(http.StatusOK, gin.H{"success": true})
}
