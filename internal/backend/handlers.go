package backend

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/tierstack/tierstack/internal/api/middleware"
)

// Probe timeouts. The database test stays below the frontend's 15s.
const (
	pingTimeout   = 2 * time.Second
	dbTestTimeout = 10 * time.Second
)

// TestMessage is inserted by every database round trip.
const TestMessage = "Hello from the backend API!"

// errNoDatabase is reported when the service runs without a usable secret
// or cannot reach the database.
var errNoDatabase = errors.New("database connection failed")

// Handler serves the backend routes. store is nil when no database is
// configured.
type Handler struct {
	cfg   Config
	store Store
}

// NewHandler creates the backend handler. store may be nil.
func NewHandler(cfg Config, store Store) *Handler {
	return &Handler{cfg: cfg, store: store}
}

// Register adds the backend routes to r.
func (h *Handler) Register(r gin.IRouter) {
	r.GET("/", h.Root)
	r.GET("/health", h.Health)
	r.GET("/api/status", h.Status)
	r.GET("/api/db-test", h.DBTest)
}

// Root identifies the service.
func (h *Handler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message":     "Backend API Service",
		"environment": h.cfg.Environment,
		"version":     Version,
	})
}

// Health is the load balancer health check. It does not touch the
// database, so a database outage does not cycle the tasks.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":      "healthy",
		"environment": h.cfg.Environment,
		"service":     "backend",
	})
}

// Status reports whether the database answers a ping.
func (h *Handler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":             "operational",
		"environment":        h.cfg.Environment,
		"service":            "backend-api",
		"database_connected": h.ping(c) == nil,
	})
}

// DBTest writes and reads the probe table.
func (h *Handler) DBTest(c *gin.Context) {
	if err := h.ping(c); err != nil {
		h.fail(c, err)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), dbTestTimeout)
	defer cancel()

	rows, err := h.store.RoundTrip(ctx, TestMessage)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":             "success",
		"environment":        h.cfg.Environment,
		"database_connected": true,
		"test_data":          rows,
	})
}

func (h *Handler) ping(c *gin.Context) error {
	if h.store == nil {
		return errNoDatabase
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), pingTimeout)
	defer cancel()
	if err := h.store.Ping(ctx); err != nil {
		middleware.GetLogger(c).Warn("database ping failed", zap.Error(err))
		return errNoDatabase
	}
	return nil
}

func (h *Handler) fail(c *gin.Context, err error) {
	_ = c.Error(err)
	c.JSON(http.StatusInternalServerError, gin.H{
		"error":   "Database test failed",
		"details": err.Error(),
	})
}
