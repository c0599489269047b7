package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"github.com/temcen/cartrec/internal/config"
	"github.com/temcen/cartrec/internal/middleware"
	"github.com/temcen/cartrec/internal/ranking"
	"github.com/temcen/cartrec/internal/services"
	"github.com/temcen/cartrec/internal/upstream"
	"github.com/temcen/cartrec/pkg/models"
)

type RecommendationHandler struct {
	service   services.RecommendationServiceInterface
	cfg       config.RecommendationConfig
	validator *validator.Validate
	logger    *logrus.Logger
}

func NewRecommendationHandler(
	service services.RecommendationServiceInterface,
	cfg config.RecommendationConfig,
	logger *logrus.Logger,
) *RecommendationHandler {
	return &RecommendationHandler{
		service:   service,
		cfg:       cfg,
		validator: validator.New(),
		logger:    logger,
	}
}

// Get serves GET /api/recommendations/:userId. A limit that is not an
// integer falls back to the configured default.
func (h *RecommendationHandler) Get(c *gin.Context) {
	userID := c.Param("userId")
	if userID == "" {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "Invalid request",
			Message: "user id is required",
		})
		return
	}

	limit := h.defaultLimit()
	if limitStr := c.Query("limit"); limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil {
			limit = parsed
		}
	}

	resp, err := h.service.Get(c.Request.Context(), userID, limit, c.Query("algorithm"))
	if err != nil {
		h.writeError(c, userID, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Batch serves POST /api/recommendations.
func (h *RecommendationHandler) Batch(c *gin.Context) {
	var request models.BatchRecommendationRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "Invalid request",
			Message: "user_ids array is required",
		})
		return
	}

	if err := h.validator.Struct(&request); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "Invalid request",
			Message: err.Error(),
		})
		return
	}

	if h.cfg.BatchMaxUsers > 0 && len(request.UserIDs) > h.cfg.BatchMaxUsers {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "Invalid request",
			Message: fmt.Sprintf("at most %d user_ids are allowed", h.cfg.BatchMaxUsers),
		})
		return
	}

	limit := h.defaultLimit()
	if request.Limit != nil {
		limit = *request.Limit
	}

	results := h.service.Batch(c.Request.Context(), request.UserIDs, limit, request.Algorithm)

	h.logger.WithFields(logrus.Fields{
		"users":      len(request.UserIDs),
		"request_id": middleware.GetRequestID(c),
	}).Info("Batch recommendations served")

	c.JSON(http.StatusOK, results)
}

func (h *RecommendationHandler) defaultLimit() int {
	if h.cfg.DefaultLimit > 0 {
		return h.cfg.DefaultLimit
	}
	return 5
}

func (h *RecommendationHandler) writeError(c *gin.Context, userID string, err error) {
	logger := h.logger.WithError(err).WithFields(logrus.Fields{
		"user_id":    userID,
		"request_id": middleware.GetRequestID(c),
	})

	switch {
	case errors.Is(err, services.ErrUnknownAlgorithm), errors.Is(err, ranking.ErrInvalidInput):
		logger.Warn("Rejected recommendation request")
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "Invalid request",
			Message: err.Error(),
		})
	case errors.Is(err, upstream.ErrDashboardUnavailable):
		logger.Warn("User dashboard unavailable")
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error:   "Failed to fetch user data",
			Message: "Could not retrieve user dashboard from API",
		})
	case errors.Is(err, services.ErrCatalogUnavailable):
		logger.Error("Product catalog unavailable")
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "Failed to fetch product catalog",
			Message: "Could not retrieve products from API",
		})
	default:
		logger.Error("Failed to generate recommendations")
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "Internal server error",
			Message: err.Error(),
		})
	}
}
