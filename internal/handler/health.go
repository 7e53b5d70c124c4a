package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Health godoc
// @Summary      Health check
// @Description  Returns the health status of the service and the price feed connection state
// @Tags         health
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (h *Handler) Health(c *gin.Context) {
	resp := gin.H{"status": "healthy"}
	if h.feed != nil {
		state, attempt := h.feed.State()
		resp["feed"] = state.String()
		if attempt > 0 {
			resp["feed_reconnect_attempt"] = attempt
		}
	}
	c.JSON(http.StatusOK, resp)
}
