package handlers

import (
	"github.com/sirupsen/logrus"

	"github.com/temcen/cartrec/internal/config"
	"github.com/temcen/cartrec/internal/services"
)

// Version is reported by the index endpoint.
const Version = "1.0.0"

type Handlers struct {
	Health         *HealthHandler
	Recommendation *RecommendationHandler
}

func New(cfg *config.Config, logger *logrus.Logger, services *services.Services) *Handlers {
	return &Handlers{
		Health:         NewHealthHandler(logger, services.Health),
		Recommendation: NewRecommendationHandler(services.Recommendation, cfg.Recommendation, logger),
	}
}
