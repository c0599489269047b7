package models

import (
	"time"

	"github.com/google/uuid"
)

// Recommendation is one recommended product in final rank order.
type Recommendation struct {
	ProductID   string   `json:"product_id"`
	Name        string   `json:"name"`
	Price       *float64 `json:"price"`
	Category    string   `json:"category"`
	Description string   `json:"description"`
	ImageURL    string   `json:"image_url"`
	Sizes       []string `json:"sizes"`
}

type ContextCartItem struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category"`
	Quantity int    `json:"quantity"`
}

type ContextLikedItem struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// UserContext summarises the activity a recommendation was built from.
type UserContext struct {
	CartItemsCount  int                `json:"cart_items_count"`
	LikedItemsCount int                `json:"liked_items_count"`
	CartItems       []ContextCartItem  `json:"cart_items"`
	LikedItems      []ContextLikedItem `json:"liked_items"`
}

type RecommendationResponse struct {
	UserID              string           `json:"user_id"`
	UserContext         UserContext      `json:"user_context"`
	Recommendations     []Recommendation `json:"recommendations"`
	RecommendationCount int              `json:"recommendation_count"`
	ModelUsed           string           `json:"model_used"`
	AlgorithmUsed       string           `json:"algorithm_used"`
	FallbackUsed        bool             `json:"fallback_used"`
	GeneratedAt         time.Time        `json:"generated_at"`
}

type BatchRecommendationRequest struct {
	UserIDs   []string `json:"user_ids" validate:"required,min=1,max=50,dive,required"`
	Limit     *int     `json:"limit,omitempty" validate:"omitempty,min=1"`
	Algorithm string   `json:"algorithm,omitempty" validate:"omitempty,oneof=rule_based collaborative category model"`
}

// BatchRecommendationResult is one user's entry in a batch response; exactly
// one of Recommendations or Error is meaningful.
type BatchRecommendationResult struct {
	Recommendations []Recommendation `json:"recommendations,omitempty"`
	Count           *int             `json:"count,omitempty"`
	Error           string           `json:"error,omitempty"`
}

// RecommendationEvent is published for every served recommendation list.
type RecommendationEvent struct {
	EventID     uuid.UUID `json:"event_id"`
	UserID      string    `json:"user_id"`
	Algorithm   string    `json:"algorithm"`
	Fallback    bool      `json:"fallback"`
	ProductIDs  []string  `json:"product_ids"`
	GeneratedAt time.Time `json:"generated_at"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
