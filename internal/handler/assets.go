package handler

import (
	"net/http"
	"strings"

	"coinpulse/internal/domain"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

// GetAssets godoc
// @Summary      Get current snapshots for all tracked assets
// @Description  Returns the best-known price, 24h change, and volume per asset, with its data source (live, baseline, or fallback)
// @Tags         assets
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      503  {object}  map[string]string
// @Router       /api/assets [get]
func (h *Handler) GetAssets(c *gin.Context) {
	_, span := h.tracer.Start(c.Request.Context(), "handler.get-assets")
	defer span.End()

	snapshots := h.market.Snapshots()
	if len(snapshots) == 0 {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "unable to load market data"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"assets": snapshots})
}

// GetAsset godoc
// @Summary      Get the current snapshot for one asset
// @Description  Returns the best-known market data for a single asset id
// @Tags         assets
// @Produce      json
// @Param        asset  path  string  true  "Asset id (e.g., bitcoin, ethereum)"
// @Success      200  {object}  domain.AssetSnapshot
// @Failure      400  {object}  map[string]string
// @Failure      503  {object}  map[string]string
// @Router       /api/assets/{asset} [get]
func (h *Handler) GetAsset(c *gin.Context) {
	_, span := h.tracer.Start(c.Request.Context(), "handler.get-asset")
	defer span.End()

	assetID := strings.ToLower(c.Param("asset"))
	span.SetAttributes(attribute.String("asset_id", assetID))

	// A snapshot outside the supported set means the asset is held, so it
	// is served; without one an unsupported id is a bad request.
	snapshot, ok := h.market.Snapshot(assetID)
	if !ok {
		if !domain.IsSupported(assetID) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":            "unsupported asset: " + assetID,
				"supported_assets": domain.SupportedAssets,
			})
			return
		}
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "unable to load market data for " + assetID})
		return
	}

	c.JSON(http.StatusOK, snapshot)
}
