package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/temcen/cartrec/internal/services"
)

// HealthChecker is implemented by services.HealthService.
type HealthChecker interface {
	CheckHealth(ctx context.Context) *services.HealthStatus
	ModelLoaded() bool
}

type HealthHandler struct {
	logger        *logrus.Logger
	healthService HealthChecker
}

func NewHealthHandler(logger *logrus.Logger, healthService HealthChecker) *HealthHandler {
	return &HealthHandler{
		logger:        logger,
		healthService: healthService,
	}
}

// Index is the liveness endpoint at "/".
func (h *HealthHandler) Index(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"service":      "AI Product Recommendation System",
		"status":       "running",
		"version":      Version,
		"model_loaded": h.healthService.ModelLoaded(),
	})
}

// Check reports dependency health. A degraded service still answers 200.
func (h *HealthHandler) Check(c *gin.Context) {
	status := h.healthService.CheckHealth(c.Request.Context())

	var httpStatus int
	switch status.Status {
	case services.StatusHealthy, services.StatusDegraded:
		httpStatus = http.StatusOK
	case services.StatusUnhealthy:
		httpStatus = http.StatusServiceUnavailable
	default:
		httpStatus = http.StatusInternalServerError
	}

	c.JSON(httpStatus, gin.H{
		"status":                status.Status,
		"timestamp":             status.Timestamp,
		"api_base_url":          status.APIBaseURL,
		"model_status":          status.ModelStatus,
		"services":              status.Services,
		"critical_failures":     status.Critical,
		"non_critical_failures": status.NonCritical,
		"endpoints": gin.H{
			"recommendations": "/api/recommendations/<user_id>",
			"batch":           "/api/recommendations",
			"health":          "/health",
			"metrics":         "/metrics",
		},
	})
}
