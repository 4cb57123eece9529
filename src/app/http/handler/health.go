// Package handler contains HTTP handlers for the operational API.
// Handlers are responsible for:
// - Calling use case methods
// - Converting results to HTTP responses
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"dbaccess/src/app/http/response"
	"dbaccess/src/core/usecase"
)

// HealthHandler handles health check endpoints.
type HealthHandler struct {
	healthService *usecase.HealthService
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(healthService *usecase.HealthService) *HealthHandler {
	return &HealthHandler{
		healthService: healthService,
	}
}

// HealthResponse is the response for the liveness endpoint.
type HealthResponse struct {
	Status string `json:"status"`
}

// Health reports that the process is serving requests. It does not touch the database.
// GET /health
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status: "ok",
	})
}

// DetailedHealth probes the database and returns its HealthStatus.
// GET /health/detailed
func (h *HealthHandler) DetailedHealth(c *gin.Context) {
	status := h.healthService.Check(c.Request.Context())
	if !status.IsHealthy() {
		c.JSON(http.StatusServiceUnavailable, status)
		return
	}
	c.JSON(http.StatusOK, status)
}

// Pools returns pool occupancy for the primary and direct pools.
// GET /health/pool
func (h *HealthHandler) Pools(c *gin.Context) {
	response.OK(c, h.healthService.Pools())
}
