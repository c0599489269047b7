package services

import (
	"context"

	"github.com/temcen/cartrec/internal/ranking"
)

// Algorithm names accepted by the API.
const (
	AlgorithmRuleBased     = "rule_based"
	AlgorithmCollaborative = "collaborative"
	AlgorithmCategory      = "category"
	AlgorithmModel         = "model"
)

// RuleBasedSource is the deterministic ranker every other source falls back to.
type RuleBasedSource struct{}

func (RuleBasedSource) Name() string { return AlgorithmRuleBased }

func (RuleBasedSource) Recommend(_ context.Context, catalog []ranking.Product, activity *ranking.Activity, limit int) ([]ranking.Product, error) {
	return ranking.Rank(catalog, activity, limit)
}

// CollaborativeSource ranks by similarity to products the user interacted with.
type CollaborativeSource struct{}

func (CollaborativeSource) Name() string { return AlgorithmCollaborative }

func (CollaborativeSource) Recommend(_ context.Context, catalog []ranking.Product, activity *ranking.Activity, limit int) ([]ranking.Product, error) {
	return ranking.RankBySimilarity(catalog, activity, limit)
}

// CategorySource ranks the user's strongest categories by price.
type CategorySource struct{}

func (CategorySource) Name() string { return AlgorithmCategory }

func (CategorySource) Recommend(_ context.Context, catalog []ranking.Product, activity *ranking.Activity, limit int) ([]ranking.Product, error) {
	return ranking.RankByCategoryPreference(catalog, activity, limit)
}
