package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/temcen/cartrec/internal/config"
	"github.com/temcen/cartrec/internal/ranking"
	"github.com/temcen/cartrec/pkg/models"
)

// ModelUsedRuleBased is reported as model_used whenever no language model
// produced the list.
const ModelUsedRuleBased = "rule-based"

// ErrUnknownAlgorithm is returned for an algorithm name with no source.
var ErrUnknownAlgorithm = errors.New("unknown recommendation algorithm")

// RecommendationService turns a user id into a ranked recommendation list:
// dashboard, catalog, chosen source, fallback, metrics and event.
type RecommendationService struct {
	dashboards DashboardFetcher
	catalog    *CatalogProvider
	sources    map[string]RecommendationSource
	fallback   RecommendationSource
	modelName  string
	publisher  EventPublisher
	metrics    *Metrics
	cfg        config.RecommendationConfig
	logger     *logrus.Logger
	now        func() time.Time
}

func NewRecommendationService(
	dashboards DashboardFetcher,
	catalog *CatalogProvider,
	sources []RecommendationSource,
	modelName string,
	publisher EventPublisher,
	metrics *Metrics,
	cfg config.RecommendationConfig,
	logger *logrus.Logger,
) *RecommendationService {
	s := &RecommendationService{
		dashboards: dashboards,
		catalog:    catalog,
		sources:    make(map[string]RecommendationSource, len(sources)+1),
		fallback:   RuleBasedSource{},
		modelName:  modelName,
		publisher:  publisher,
		metrics:    metrics,
		cfg:        cfg,
		logger:     logger,
		now:        time.Now,
	}

	s.sources[AlgorithmRuleBased] = s.fallback
	for _, src := range sources {
		s.sources[src.Name()] = src
	}
	return s
}

// Get builds recommendations for one user. Dashboard failures surface as
// upstream.ErrDashboardUnavailable and catalog failures as
// ErrCatalogUnavailable.
func (s *RecommendationService) Get(ctx context.Context, userID string, limit int, algorithm string) (*models.RecommendationResponse, error) {
	start := s.now()

	if algorithm == "" {
		algorithm = s.cfg.DefaultAlgorithm
	}
	if algorithm == "" {
		algorithm = AlgorithmRuleBased
	}
	source, ok := s.sources[algorithm]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownAlgorithm, algorithm)
	}
	limit = s.cfg.ClampLimit(limit)

	dashboard, err := s.dashboards.FetchDashboard(ctx, userID)
	if err != nil {
		return nil, err
	}
	activity := toActivity(dashboard)

	catalog, err := s.catalog.Resolve(ctx, dashboard)
	if err != nil {
		return nil, err
	}

	products, used, fallback, err := s.rank(ctx, source, catalog, activity, limit)
	if err != nil {
		return nil, err
	}

	modelUsed := ModelUsedRuleBased
	if used == AlgorithmModel && s.modelName != "" {
		modelUsed = s.modelName
	}

	generatedAt := s.now().UTC()
	s.metrics.RecordServed(used, fallback, algorithm, s.now().Sub(start))
	s.publish(ctx, models.RecommendationEvent{
		EventID:     uuid.New(),
		UserID:      userID,
		Algorithm:   used,
		Fallback:    fallback,
		ProductIDs:  productIDs(products),
		GeneratedAt: generatedAt,
	})

	s.logger.WithFields(logrus.Fields{
		"user_id":   userID,
		"algorithm": used,
		"fallback":  fallback,
		"count":     len(products),
	}).Debug("Recommendations generated")

	return &models.RecommendationResponse{
		UserID:              userID,
		UserContext:         toUserContext(dashboard, activity),
		Recommendations:     toRecommendations(products),
		RecommendationCount: len(products),
		ModelUsed:           modelUsed,
		AlgorithmUsed:       used,
		FallbackUsed:        fallback,
		GeneratedAt:         generatedAt,
	}, nil
}

// rank runs source and falls back to the rule-based ranker on any failure
// other than invalid input.
func (s *RecommendationService) rank(
	ctx context.Context,
	source RecommendationSource,
	catalog []ranking.Product,
	activity *ranking.Activity,
	limit int,
) ([]ranking.Product, string, bool, error) {
	products, err := source.Recommend(ctx, catalog, activity, limit)
	if err == nil {
		return products, source.Name(), false, nil
	}
	if errors.Is(err, ranking.ErrInvalidInput) || source.Name() == s.fallback.Name() {
		return nil, "", false, err
	}

	s.logger.WithError(err).WithField("algorithm", source.Name()).Warn("Recommendation source failed, using rule-based fallback")

	products, err = s.fallback.Recommend(ctx, catalog, activity, limit)
	if err != nil {
		return nil, "", false, err
	}
	return products, s.fallback.Name(), true, nil
}

func (s *RecommendationService) publish(ctx context.Context, event models.RecommendationEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.WithError(err).WithField("user_id", event.UserID).Warn("Failed to publish recommendation event")
	}
}

// Batch runs Get for every user concurrently. A failure for one user becomes
// that user's error entry and never aborts the others.
func (s *RecommendationService) Batch(ctx context.Context, userIDs []string, limit int, algorithm string) map[string]models.BatchRecommendationResult {
	results := make(map[string]models.BatchRecommendationResult, len(userIDs))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	concurrency := s.cfg.BatchConcurrency
	if concurrency < 1 {
		concurrency = 1
	}
	g.SetLimit(concurrency)

	for _, userID := range userIDs {
		g.Go(func() error {
			result := s.batchEntry(gctx, userID, limit, algorithm)

			mu.Lock()
			results[userID] = result
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func (s *RecommendationService) batchEntry(ctx context.Context, userID string, limit int, algorithm string) models.BatchRecommendationResult {
	resp, err := s.Get(ctx, userID, limit, algorithm)
	if err != nil {
		s.logger.WithError(err).WithField("user_id", userID).Warn("Batch recommendation failed")
		return models.BatchRecommendationResult{Error: BatchErrorMessage(err)}
	}

	count := resp.RecommendationCount
	return models.BatchRecommendationResult{
		Recommendations: resp.Recommendations,
		Count:           &count,
	}
}

// BatchErrorMessage maps a Get error to the message shown in a batch entry.
func BatchErrorMessage(err error) string {
	switch {
	case errors.Is(err, ErrCatalogUnavailable):
		return "Failed to fetch product catalog"
	case errors.Is(err, ErrUnknownAlgorithm), errors.Is(err, ranking.ErrInvalidInput):
		return err.Error()
	default:
		return "Failed to fetch user data"
	}
}
