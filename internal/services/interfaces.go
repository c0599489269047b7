package services

import (
	"context"

	"github.com/temcen/cartrec/internal/ranking"
	"github.com/temcen/cartrec/pkg/models"
)

// DashboardFetcher loads a user's cart, likes and catalog snapshot.
type DashboardFetcher interface {
	FetchDashboard(ctx context.Context, userID string) (*models.Dashboard, error)
}

// ProductFetcher loads the full product catalog.
type ProductFetcher interface {
	FetchProducts(ctx context.Context) ([]models.CatalogProduct, error)
}

// RecommendationSource produces an ordered product list for one user.
// Implementations must honour the activity's exclusions, never return
// duplicates and never return more than limit products.
type RecommendationSource interface {
	Name() string
	Recommend(ctx context.Context, catalog []ranking.Product, activity *ranking.Activity, limit int) ([]ranking.Product, error)
}

// EventPublisher ships served recommendation lists to downstream consumers.
type EventPublisher interface {
	Publish(ctx context.Context, event models.RecommendationEvent) error
}

// RecommendationServiceInterface is what the HTTP layer depends on.
type RecommendationServiceInterface interface {
	Get(ctx context.Context, userID string, limit int, algorithm string) (*models.RecommendationResponse, error)
	Batch(ctx context.Context, userIDs []string, limit int, algorithm string) map[string]models.BatchRecommendationResult
}
