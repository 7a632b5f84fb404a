package backend

import (
	"context"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/tierstack/tierstack/internal/api"
	"github.com/tierstack/tierstack/internal/metrics"
)

// NewRouter assembles the backend: shared middleware plus the backend
// routes. store may be nil.
func NewRouter(ctx context.Context, cfg Config, logger *zap.Logger, m *metrics.Metrics, store Store) *gin.Engine {
	router := api.NewRouter(ctx, api.RouterConfig{
		Logger:         logger,
		Metrics:        m,
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
		TrustedProxies: cfg.TrustedProxies,
	})
	NewHandler(cfg, store).Register(router)
	return router
}
