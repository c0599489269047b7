package middleware

import (
	"bytes"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/temcen/cartrec/internal/validation"
	"github.com/temcen/cartrec/pkg/models"
)

const maxRequestBodyBytes = 1 << 20

// ValidationMiddleware checks request bodies against the embedded JSON schemas.
type ValidationMiddleware struct {
	validator *validation.SchemaValidator
}

func NewValidationMiddleware(validator *validation.SchemaValidator) *ValidationMiddleware {
	return &ValidationMiddleware{
		validator: validator,
	}
}

// ValidateBatchRequest validates POST /api/recommendations bodies.
func (vm *ValidationMiddleware) ValidateBatchRequest() gin.HandlerFunc {
	return vm.validateRequestBody(validation.BatchRequestSchema)
}

// validateRequestBody creates a middleware that validates request body against a schema
func (vm *ValidationMiddleware) validateRequestBody(schemaName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodGet || c.Request.Method == http.MethodDelete {
			c.Next()
			return
		}

		bodyBytes, err := io.ReadAll(io.LimitReader(c.Request.Body, maxRequestBodyBytes))
		if err != nil {
			abortInvalid(c, "Failed to read request body")
			return
		}

		// Restore request body for downstream handlers
		c.Request.Body = io.NopCloser(bytes.NewReader(bodyBytes))

		if len(bytes.TrimSpace(bodyBytes)) == 0 {
			abortInvalid(c, "user_ids array is required")
			return
		}

		result := vm.validator.ValidateBytes(schemaName, bodyBytes)
		if !result.Valid {
			c.AbortWithStatusJSON(http.StatusBadRequest, result.ToAPIError())
			return
		}

		c.Next()
	}
}

// ValidateHeaders requires a JSON content type on requests with a body.
func (vm *ValidationMiddleware) ValidateHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodPost, http.MethodPut, http.MethodPatch:
			contentType := c.GetHeader("Content-Type")
			if !strings.Contains(contentType, "application/json") {
				abortInvalid(c, "Content-Type must be application/json")
				return
			}
		}
		c.Next()
	}
}

func abortInvalid(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, models.ErrorResponse{
		Error:   "Invalid request",
		Message: message,
	})
}
