package handler

import (
	"coinpulse/internal/domain"
	"coinpulse/internal/service"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"
)

// FeedStatus reports the stream manager's connection state for health
// checks; the manager implements it.
type FeedStatus interface {
	State() (domain.ConnectionState, int)
}

type Handler struct {
	tracer trace.Tracer
	market *service.MarketService
	feed   FeedStatus
}

func New(tracer trace.Tracer, market *service.MarketService, feed FeedStatus) *Handler {
	return &Handler{
		tracer: tracer,
		market: market,
		feed:   feed,
	}
}

// RegisterRoutes mounts the API. The health endpoint stays open; the
// /api group is guarded by the API key middleware when a key is set.
func (h *Handler) RegisterRoutes(r *gin.Engine, apiKey string) {
	r.GET("/health", h.Health)

	api := r.Group("/api", APIKeyAuth(apiKey))
	api.GET("/assets", h.GetAssets)
	api.GET("/assets/:asset", h.GetAsset)
	api.GET("/portfolio", h.GetPortfolio)
	api.POST("/holdings", h.AddHolding)
	api.DELETE("/holdings/:id", h.DeleteHolding)
	api.GET("/stream", h.StreamAssets)
}
