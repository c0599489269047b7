package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/temcen/cartrec/pkg/models"
)

func TestOutputFileName(t *testing.T) {
	assert.Equal(t, "recommendations_user-1.json", outputFileName("user-1"))
	assert.Equal(t, "recommendations_.._etc.json", outputFileName("../etc"))
}

func TestWriteReport(t *testing.T) {
	price := 60.5
	resp := &models.RecommendationResponse{
		UserID: "user-1",
		UserContext: models.UserContext{
			CartItemsCount:  1,
			LikedItemsCount: 1,
			CartItems:       []models.ContextCartItem{{ID: "p1", Name: "Loafer", Category: "shoes", Quantity: 2}},
			LikedItems:      []models.ContextLikedItem{{ID: "p9", Name: "Scarf"}},
		},
		Recommendations: []models.Recommendation{
			{ProductID: "p3", Name: "Sneaker", Category: "shoes", Price: &price, Sizes: []string{"8", "9"}},
			{ProductID: "p4", Name: "Mystery", Category: "misc"},
		},
		RecommendationCount: 2,
		ModelUsed:           "rule-based",
	}

	var buf bytes.Buffer
	writeReport(&buf, resp)
	out := buf.String()

	assert.Contains(t, out, "PRODUCT RECOMMENDATIONS FOR USER: user-1")
	assert.Contains(t, out, "Loafer (shoes) x2")
	assert.Contains(t, out, "   - Scarf\n")
	assert.Contains(t, out, "RECOMMENDED FOR YOU (2 items, rule-based)")
	assert.Contains(t, out, "1. Sneaker")
	assert.Contains(t, out, "Price: ₹60.5")
	assert.Contains(t, out, "Sizes: 8, 9")
	assert.Contains(t, out, "2. Mystery")
	assert.Contains(t, out, "Price: n/a")
}

func TestRunRequiresUserID(t *testing.T) {
	assert.Error(t, run([]string{}))
	assert.Error(t, run([]string{"a", "b"}))
}
