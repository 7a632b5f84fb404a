package proxy

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/tierstack/tierstack/internal/api"
	"github.com/tierstack/tierstack/internal/metrics"
)

// NewRouter assembles the frontend: shared middleware plus the proxy
// routes. client may be nil.
func NewRouter(ctx context.Context, cfg Config, logger *zap.Logger, m *metrics.Metrics, client *http.Client) *gin.Engine {
	router := api.NewRouter(ctx, api.RouterConfig{
		Logger:         logger,
		Metrics:        m,
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
		TrustedProxies: cfg.TrustedProxies,
	})
	NewHandler(cfg, NewUpstream(cfg.BackendURL, client, m)).Register(router)
	return router
}
