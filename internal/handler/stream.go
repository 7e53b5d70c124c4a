package handler

import (
	"io"

	"github.com/gin-gonic/gin"
)

// StreamAssets godoc
// @Summary      Stream snapshot updates
// @Description  Server-sent events: pushes the full asset snapshot list whenever a flush or baseline refresh changes the store
// @Tags         assets
// @Produce      text/event-stream
// @Success      200
// @Router       /api/stream [get]
func (h *Handler) StreamAssets(c *gin.Context) {
	updates, cancel := h.market.WatchSnapshots()
	defer cancel()

	// Initial frame so a new subscriber renders without waiting for the
	// next flush.
	c.SSEvent("snapshot", h.market.Snapshots())
	c.Writer.Flush()

	clientGone := c.Request.Context().Done()
	c.Stream(func(w io.Writer) bool {
		select {
		case <-clientGone:
			return false
		case <-updates:
			c.SSEvent("snapshot", h.market.Snapshots())
			return true
		}
	})
}
