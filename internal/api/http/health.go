package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Service   string            `json:"service"`
	Version   string            `json:"version"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// Check pings one dependency.
type Check func(ctx context.Context) error

type HealthHandler struct {
	serviceName string
	version     string
	checks      map[string]Check
}

// NewHealthHandler reports each named check as up or down. A nil check is
// reported as disabled.
func NewHealthHandler(serviceName, version string, checks map[string]Check) *HealthHandler {
	return &HealthHandler{
		serviceName: serviceName,
		version:     version,
		checks:      checks,
	}
}

// HealthCheck answers 200 while the process is up; the relational store
// being down turns the status into "degraded" with 503.
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	status, code := "healthy", http.StatusOK
	results := make(map[string]string, len(h.checks))

	for name, check := range h.checks {
		if check == nil {
			results[name] = "disabled"
			continue
		}
		pingCtx, cancel := context.WithTimeout(c.Request.Context(), 1*time.Second)
		err := check(pingCtx)
		cancel()

		if err != nil {
			results[name] = "down"
			if name == "db" {
				status, code = "degraded", http.StatusServiceUnavailable
			}
		} else {
			results[name] = "up"
		}
	}

	c.JSON(code, HealthResponse{
		Status:    status,
		Timestamp: time.Now().UTC(),
		Service:   h.serviceName,
		Version:   h.version,
		Checks:    results,
	})
}

func (h *HealthHandler) RegisterRoutes(r gin.IRouter) {
	r.GET("/health", h.HealthCheck)
	r.GET("/healthz", h.HealthCheck)
}
