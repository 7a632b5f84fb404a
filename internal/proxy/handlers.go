package proxy

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tidwall/gjson"

	"github.com/tierstack/tierstack/internal/api/middleware"
)

// Upstream paths.
const (
	StatusPath = "/api/status"
	DBTestPath = "/api/db-test"
)

// Handler serves the frontend routes.
type Handler struct {
	cfg      Config
	upstream *Upstream
}

// NewHandler creates the frontend handler.
func NewHandler(cfg Config, upstream *Upstream) *Handler {
	return &Handler{cfg: cfg, upstream: upstream}
}

// Register adds the frontend routes to r.
func (h *Handler) Register(r gin.IRouter) {
	r.GET("/", h.Root)
	r.GET("/health", h.Health)
	r.GET("/api", h.Info)
	r.GET("/dashboard", h.Dashboard)
	r.GET(StatusPath, h.Status)
	r.GET(DBTestPath, h.DBTest)
}

// Root identifies the service.
func (h *Handler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message":     "Frontend Web Service",
		"environment": h.cfg.Environment,
		"version":     Version,
	})
}

// Health is the load balancer health check. It never calls the backend.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":      "healthy",
		"environment": h.cfg.Environment,
		"service":     "frontend",
	})
}

// Info lists the proxied endpoints.
func (h *Handler) Info(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"service":     "frontend",
		"environment": h.cfg.Environment,
		"version":     Version,
		"backend_url": h.cfg.BackendURL,
		"endpoints": []gin.H{
			{"path": StatusPath, "upstream": StatusPath, "timeout": h.cfg.StatusTimeout.String()},
			{"path": DBTestPath, "upstream": DBTestPath, "timeout": h.cfg.DBTestTimeout.String()},
		},
	})
}

// Dashboard summarises the frontend and the backend status. A failing
// backend is reported in the body; the dashboard itself still answers 200.
func (h *Handler) Dashboard(c *gin.Context) {
	backend := gin.H{"url": h.cfg.BackendURL, "reachable": false}

	body, err := h.upstream.Get(h.requestContext(c), StatusPath, h.cfg.StatusTimeout)
	if err != nil {
		backend["error"] = err.Error()
	} else {
		status := gjson.GetBytes(body, "status")
		backend["reachable"] = true
		backend["status"] = status.String()
		backend["service"] = gjson.GetBytes(body, "service").String()
		backend["environment"] = gjson.GetBytes(body, "environment").String()
		backend["database_connected"] = gjson.GetBytes(body, "database_connected").Bool()
	}

	c.JSON(http.StatusOK, gin.H{
		"frontend": h.frontendInfo(),
		"backend":  backend,
	})
}

// Status relays the backend status.
func (h *Handler) Status(c *gin.Context) {
	body, err := h.upstream.Get(h.requestContext(c), StatusPath, h.cfg.StatusTimeout)
	if err != nil {
		h.fail(c, "Backend connection failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":   "success",
		"frontend": h.frontendInfo(),
		"backend":  body,
	})
}

// DBTest relays the backend database round trip.
func (h *Handler) DBTest(c *gin.Context) {
	body, err := h.upstream.Get(h.requestContext(c), DBTestPath, h.cfg.DBTestTimeout)
	if err != nil {
		h.fail(c, "Backend database test failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"backend": body,
	})
}

func (h *Handler) frontendInfo() gin.H {
	return gin.H{
		"service":     "frontend",
		"environment": h.cfg.Environment,
		"version":     Version,
	}
}

func (h *Handler) fail(c *gin.Context, message string, err error) {
	_ = c.Error(err)
	c.JSON(http.StatusInternalServerError, gin.H{
		"error":   message,
		"details": err.Error(),
	})
}

func (h *Handler) requestContext(c *gin.Context) context.Context {
	return withRequestID(c.Request.Context(), middleware.GetRequestID(c))
}
