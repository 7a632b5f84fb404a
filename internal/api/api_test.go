package api

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tierstack/tierstack/internal/metrics"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestLoadServiceConfig_Defaults(t *testing.T) {
	v := NewViper(8080)

	cfg, err := LoadServiceConfig(v)
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, ":8080", cfg.Addr())
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Zero(t, cfg.RateLimitRPS)
	assert.Empty(t, cfg.TrustedProxies)
}

func TestLoadServiceConfig_TrustedProxies(t *testing.T) {
	t.Setenv(EnvTrustedProxies, " 10.0.0.0/16 ,192.0.2.10,")

	cfg, err := LoadServiceConfig(NewViper(8080))
	require.NoError(t, err)
	assert.Equal(t, []string{"10.0.0.0/16", "192.0.2.10"}, cfg.TrustedProxies)
}

func TestLoadServiceConfig_FromEnvironment(t *testing.T) {
	t.Setenv(EnvPort, "9000")
	t.Setenv(EnvEnvironment, "production")
	t.Setenv(EnvLogLevel, "debug")
	t.Setenv(EnvLogFormat, "console")
	t.Setenv(EnvRateLimitRPS, "20")

	cfg, err := LoadServiceConfig(NewViper(8080))
	require.NoError(t, err)
	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, "production", cfg.Environment)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "console", cfg.LogFormat)
	assert.InDelta(t, 20, cfg.RateLimitRPS, 0)
	assert.Equal(t, 20, cfg.RateLimitBurst, "burst defaults to the rate")
}

func TestLoadServiceConfig_Invalid(t *testing.T) {
	tests := []struct {
		name, key, value, want string
	}{
		{"port", EnvPort, "70000", "PORT"},
		{"level", EnvLogLevel, "loud", "LOG_LEVEL"},
		{"format", EnvLogFormat, "xml", "LOG_FORMAT"},
		{"rate", EnvRateLimitRPS, "-1", "RATE_LIMIT_RPS"},
		{"environment", EnvEnvironment, "  ", "ENVIRONMENT"},
		{"trusted proxies", EnvTrustedProxies, "10.0.0.0/16, alb.internal", "TRUSTED_PROXIES"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := LoadServiceConfig(NewViper(8080))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestNewRouter_ServesMetricsAndRecovers(t *testing.T) {
	m := metrics.MustNew("test")
	router := NewRouter(context.Background(), RouterConfig{Logger: zap.NewNop(), Metrics: m})
	router.GET("/panic", func(*gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "tierstack_http_requests_in_flight")
}

func TestNewRouter_RateLimit(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	router := NewRouter(ctx, RouterConfig{RateLimitRPS: 0.001, RateLimitBurst: 1})
	router.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := make([]int, 0, 2)
	for range 2 {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusTooManyRequests}, codes)
}

func spoofedRequests(t *testing.T, router *gin.Engine, n int) (allowed, limited int) {
	t.Helper()
	for i := range n {
		req := httptest.NewRequest(http.MethodGet, "/x", nil)
		req.RemoteAddr = "192.0.2.1:40000"
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("203.0.113.%d", i+1))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		switch w.Code {
		case http.StatusOK:
			allowed++
		case http.StatusTooManyRequests:
			limited++
		}
	}
	return allowed, limited
}

func TestNewRouter_RateLimitIgnoresForwardedForFromUntrustedPeer(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	router := NewRouter(ctx, RouterConfig{RateLimitRPS: 0.001, RateLimitBurst: 1})
	router.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	allowed, limited := spoofedRequests(t, router, 50)
	assert.Equal(t, 1, allowed)
	assert.Equal(t, 49, limited)
}

func TestNewRouter_RateLimitHonoursTrustedProxy(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	router := NewRouter(ctx, RouterConfig{
		RateLimitRPS:   0.001,
		RateLimitBurst: 1,
		TrustedProxies: []string{"192.0.2.0/24"},
	})
	router.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	allowed, limited := spoofedRequests(t, router, 5)
	assert.Equal(t, 5, allowed, "each forwarded client gets its own bucket")
	assert.Zero(t, limited)
}

func TestNewRouter_InvalidTrustedProxiesTrustsNone(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	router := NewRouter(ctx, RouterConfig{
		RateLimitRPS:   0.001,
		RateLimitBurst: 1,
		TrustedProxies: []string{"not-an-ip"},
	})
	router.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	allowed, _ := spoofedRequests(t, router, 3)
	assert.Equal(t, 1, allowed)
}

func TestServe_ShutsDownWithContext(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- Serve(ctx, addr, http.NotFoundHandler(), zap.NewNop())
	}()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + addr + "/")
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusNotFound
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}

func TestServe_ListenError(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	err = Serve(context.Background(), ln.Addr().String(), http.NotFoundHandler(), zap.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed")
}
