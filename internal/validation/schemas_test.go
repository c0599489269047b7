package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEmbeddedValidator(t *testing.T) {
	sv, err := NewEmbeddedValidator()
	require.NoError(t, err)

	for _, name := range []string{DashboardResponseSchema, ProductListSchema, BatchRequestSchema} {
		assert.True(t, sv.SchemaExists(name), name)
	}
}

func TestSchemaValidator_Dashboard(t *testing.T) {
	sv, err := NewEmbeddedValidator()
	require.NoError(t, err)

	tests := []struct {
		name  string
		body  string
		valid bool
	}{
		{
			name: "full dashboard",
			body: `{"message":"User dashboard retrieved successfully","data":{"userId":"u1",
				"cart":{"items":[{"productId":"p1","name":"Loafer","category":"shoes","quantity":1}],"totalItems":1},
				"likedProducts":{"products":[{"productId":"p2","productName":"Tote"}],"totalLiked":1},
				"allProducts":[{"products_id":"p1","price":12.5},{"products_id":"p2"}]}}`,
			valid: true,
		},
		{
			name:  "null optional fields",
			body:  `{"message":"ok","data":{"allProducts":[{"products_id":"p1","price":null,"category":null}]}}`,
			valid: true,
		},
		{
			name:  "missing message",
			body:  `{"data":{}}`,
			valid: false,
		},
		{
			name:  "product without id",
			body:  `{"message":"ok","data":{"allProducts":[{"name":"nameless"}]}}`,
			valid: false,
		},
		{
			name:  "price as string",
			body:  `{"message":"ok","data":{"allProducts":[{"products_id":"p1","price":"12"}]}}`,
			valid: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := sv.ValidateBytes(DashboardResponseSchema, []byte(tt.body))
			assert.Equal(t, tt.valid, result.Valid)
			if tt.valid {
				assert.NoError(t, result.Err())
			} else {
				assert.Error(t, result.Err())
			}
		})
	}
}

func TestSchemaValidator_BatchRequest(t *testing.T) {
	sv, err := NewEmbeddedValidator()
	require.NoError(t, err)

	assert.True(t, sv.ValidateBytes(BatchRequestSchema, []byte(`{"user_ids":["a","b"],"limit":3}`)).Valid)
	assert.False(t, sv.ValidateBytes(BatchRequestSchema, []byte(`{"user_ids":[]}`)).Valid)
	assert.False(t, sv.ValidateBytes(BatchRequestSchema, []byte(`{"limit":3}`)).Valid)
	assert.False(t, sv.ValidateBytes(BatchRequestSchema, []byte(`{"user_ids":["a"],"algorithm":"magic"}`)).Valid)

	result := sv.ValidateStruct(BatchRequestSchema, map[string]interface{}{"user_ids": []string{"a"}})
	assert.True(t, result.Valid)
}

func TestSchemaValidator_UnknownSchema(t *testing.T) {
	sv := NewSchemaValidator()

	result := sv.ValidateBytes("missing", []byte(`{}`))
	assert.False(t, result.Valid)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "SCHEMA_NOT_FOUND", result.Errors[0].Code)
}

func TestValidationResult_ToAPIError(t *testing.T) {
	result := &ValidationResult{
		Valid: false,
		Errors: []ValidationError{
			{Field: "user_ids", Message: "Array must have at least 1 items", Code: "VALIDATION_ERROR"},
		},
	}

	apiError := result.ToAPIError()
	assert.Equal(t, "Invalid request", apiError["error"])
	assert.Equal(t, "validation error in field 'user_ids': Array must have at least 1 items", apiError["message"])

	details := apiError["details"].(map[string]interface{})
	fieldErrors := details["fieldErrors"].(map[string][]string)
	assert.Equal(t, []string{"Array must have at least 1 items"}, fieldErrors["user_ids"])

	assert.Nil(t, (&ValidationResult{Valid: true}).ToAPIError())
}
