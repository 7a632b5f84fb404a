package api

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/tierstack/tierstack/internal/api/middleware"
	"github.com/tierstack/tierstack/internal/metrics"
)

// limiterCleanup is how often idle rate limiter entries are dropped.
const limiterCleanup = 5 * time.Minute

// RouterConfig holds what NewRouter wires into the middleware chain.
type RouterConfig struct {
	Logger  *zap.Logger
	Metrics *metrics.Metrics

	// RateLimitRPS enables per-IP rate limiting when positive.
	RateLimitRPS   float64
	RateLimitBurst int

	// TrustedProxies is passed to gin.Engine.SetTrustedProxies. nil trusts
	// no proxy, so rate limiting keys on the peer address.
	TrustedProxies []string
}

// NewRouter creates a gin engine with recovery, metrics, request logging
// and optional rate limiting, and serves the metrics registry at /metrics.
// The rate limiter's cleanup loop stops when ctx is done.
func NewRouter(ctx context.Context, cfg RouterConfig) *gin.Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	router := gin.New()
	if err := router.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		logger.Error("invalid trusted proxies, trusting none", zap.Strings("trusted_proxies", cfg.TrustedProxies), zap.Error(err))
		_ = router.SetTrustedProxies(nil)
	}
	router.Use(gin.Recovery())

	if cfg.Metrics != nil {
		router.Use(middleware.Metrics(cfg.Metrics))
		router.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}

	router.Use(middleware.RequestLogger(logger))

	if cfg.RateLimitRPS > 0 {
		limiter := middleware.NewRateLimiter(ctx, cfg.RateLimitRPS, cfg.RateLimitBurst, limiterCleanup)
		router.Use(middleware.RateLimitByIP(limiter, cfg.Metrics))
	}

	return router
}
