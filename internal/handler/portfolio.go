package handler

import (
	"errors"
	"net/http"
	"strconv"

	"coinpulse/internal/repository"
	"coinpulse/internal/service"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

// GetPortfolio godoc
// @Summary      Get the valuated portfolio
// @Description  Returns per-asset positions (current value, profit/loss) and portfolio totals, recomputed against the latest snapshots
// @Tags         portfolio
// @Produce      json
// @Success      200  {object}  portfolio.Summary
// @Failure      503  {object}  map[string]string
// @Router       /api/portfolio [get]
func (h *Handler) GetPortfolio(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-portfolio")
	defer span.End()

	summary, err := h.market.Portfolio(ctx)
	if err != nil {
		if errors.Is(err, service.ErrHoldingsUnavailable) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "holdings storage not configured"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, summary)
}

type addHoldingRequest struct {
	AssetID  string  `json:"asset_id" binding:"required"`
	Quantity float64 `json:"quantity" binding:"required"`
	Invested float64 `json:"invested"`
}

// AddHolding godoc
// @Summary      Add a holding lot
// @Description  Persists a purchase lot and extends the live subscription to cover its asset
// @Tags         portfolio
// @Accept       json
// @Produce      json
// @Param        holding  body  addHoldingRequest  true  "Holding to add"
// @Success      201  {object}  domain.Holding
// @Failure      400  {object}  map[string]string
// @Failure      503  {object}  map[string]string
// @Router       /api/holdings [post]
func (h *Handler) AddHolding(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.add-holding")
	defer span.End()

	var req addHoldingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	span.SetAttributes(attribute.String("asset_id", req.AssetID))

	holding, err := h.market.AddHolding(ctx, req.AssetID, req.Quantity, req.Invested)
	if err != nil {
		if errors.Is(err, service.ErrHoldingsUnavailable) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "holdings storage not configured"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, holding)
}

// DeleteHolding godoc
// @Summary      Delete a holding lot
// @Description  Removes a purchase lot by id and recomputes the live subscription set
// @Tags         portfolio
// @Produce      json
// @Param        id  path  int  true  "Holding id"
// @Success      204
// @Failure      400  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /api/holdings/{id} [delete]
func (h *Handler) DeleteHolding(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.delete-holding")
	defer span.End()

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid holding id"})
		return
	}

	if err := h.market.RemoveHolding(ctx, id); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "holding not found"})
		case errors.Is(err, service.ErrHoldingsUnavailable):
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "holdings storage not configured"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	c.Status(http.StatusNoContent)
}
