package services

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/temcen/cartrec/internal/config"
	"github.com/temcen/cartrec/internal/database"
	"github.com/temcen/cartrec/internal/messaging"
	"github.com/temcen/cartrec/internal/upstream"
	"github.com/temcen/cartrec/internal/validation"
)

type Services struct {
	Auth           *AuthService
	Health         *HealthService
	RateLimit      *RateLimitService
	Recommendation *RecommendationService
	Catalog        *CatalogProvider
	Model          *ModelSource
	Upstream       *upstream.Client
	Publisher      messaging.Publisher
	Metrics        *Metrics
	Validator      *validation.SchemaValidator
}

func New(cfg *config.Config, logger *logrus.Logger, db *database.Database, reg prometheus.Registerer) (*Services, error) {
	validator, err := validation.NewEmbeddedValidator()
	if err != nil {
		return nil, fmt.Errorf("failed to load schemas: %w", err)
	}

	metrics := NewMetrics(reg)
	client := upstream.NewClient(cfg.Upstream, validator, metrics, logger)
	publisher := messaging.NewPublisher(cfg.Kafka, logger)

	redisClient := db.RedisClient()
	catalog := NewCatalogProvider(client, redisClient, cfg.Recommendation.CatalogTTL, logger)
	model := NewModelSource(cfg.Model, logger)

	recommendation := NewRecommendationService(
		client,
		catalog,
		[]RecommendationSource{CollaborativeSource{}, CategorySource{}, model},
		model.ModelName(),
		publisher,
		metrics,
		cfg.Recommendation,
		logger,
	)

	return &Services{
		Auth:           NewAuthService(cfg.Auth, logger),
		Health:         NewHealthService(client, model, db, reg, logger),
		RateLimit:      NewRateLimitService(cfg.RateLimit, logger, redisClient),
		Recommendation: recommendation,
		Catalog:        catalog,
		Model:          model,
		Upstream:       client,
		Publisher:      publisher,
		Metrics:        metrics,
		Validator:      validator,
	}, nil
}

// Close releases the event publisher.
func (s *Services) Close() error {
	if s.Publisher == nil {
		return nil
	}
	return s.Publisher.Close()
}
