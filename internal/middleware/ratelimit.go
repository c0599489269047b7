package middleware

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/temcen/cartrec/pkg/models"
)

// RateLimiter decides whether a caller may proceed.
type RateLimiter interface {
	IsAllowed(ctx context.Context, callerID, userTier string) (bool, *models.RateLimitInfo, error)
}

// RateLimit keys callers by authenticated user id, falling back to client IP.
func RateLimit(limiter RateLimiter, logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		callerID, userTier, ok := GetUserFromContext(c)
		if !ok {
			callerID = "ip:" + c.ClientIP()
			userTier = "free"
		}

		allowed, info, err := limiter.IsAllowed(c.Request.Context(), callerID, userTier)
		if err != nil {
			logger.WithError(err).Error("Failed to check rate limit")
			// Continue on error to avoid blocking requests when Redis is down
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(info.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(info.Remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(info.ResetTime, 10))

		if !allowed {
			logger.WithFields(logrus.Fields{
				"caller_id": callerID,
				"user_tier": userTier,
				"limit":     info.Limit,
			}).Warn("Rate limit exceeded")

			c.AbortWithStatusJSON(http.StatusTooManyRequests, models.ErrorResponse{
				Error:   "Rate limit exceeded",
				Message: "Rate limit exceeded. Please try again later.",
			})
			return
		}

		c.Next()
	}
}
