package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/temcen/cartrec/internal/config"
	"github.com/temcen/cartrec/internal/ranking"
	"github.com/temcen/cartrec/internal/upstream"
	"github.com/temcen/cartrec/pkg/models"
)

type MockDashboardFetcher struct {
	mock.Mock
}

func (m *MockDashboardFetcher) FetchDashboard(ctx context.Context, userID string) (*models.Dashboard, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Dashboard), args.Error(1)
}

type MockProductFetcher struct {
	mock.Mock
}

func (m *MockProductFetcher) FetchProducts(ctx context.Context) ([]models.CatalogProduct, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.CatalogProduct), args.Error(1)
}

type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(ctx context.Context, event models.RecommendationEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

type failingSource struct {
	name string
	err  error
}

func (f failingSource) Name() string { return f.name }

func (f failingSource) Recommend(context.Context, []ranking.Product, *ranking.Activity, int) ([]ranking.Product, error) {
	return nil, f.err
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.FatalLevel)
	return logger
}

func floatPtr(v float64) *float64 { return &v }

func testDashboard(userID string) *models.Dashboard {
	return &models.Dashboard{
		UserID: userID,
		Cart: models.Cart{
			Items:      []models.CartItem{{ProductID: "p1", Name: "Loafer", Category: "shoes", Quantity: 2}},
			TotalItems: 2,
		},
		LikedProducts: models.LikedProductsList{
			Products:   []models.LikedProduct{{ProductID: "p2", ProductName: "Tote"}},
			TotalLiked: 1,
		},
		AllProducts: []models.CatalogProduct{
			{ProductID: "p1", Name: "Loafer", Category: "shoes", Price: floatPtr(80)},
			{ProductID: "p2", Name: "Tote", Category: "bags"},
			{ProductID: "p3", Name: "Sneaker", Category: "shoes", Price: floatPtr(60)},
			{ProductID: "p4", Name: "Fedora", Category: "hats", Price: floatPtr(100)},
		},
	}
}

func recommendationConfig() config.RecommendationConfig {
	return config.RecommendationConfig{
		DefaultLimit:     5,
		MaxLimit:         20,
		DefaultAlgorithm: AlgorithmRuleBased,
		BatchConcurrency: 4,
	}
}

func newTestService(t *testing.T, dashboards DashboardFetcher, publisher EventPublisher, sources ...RecommendationSource) (*RecommendationService, *Metrics) {
	t.Helper()
	metrics := NewMetrics(prometheus.NewRegistry())
	catalog := NewCatalogProvider(nil, nil, 0, quietLogger())
	svc := NewRecommendationService(dashboards, catalog, sources, "gpt2-products", publisher, metrics, recommendationConfig(), quietLogger())
	return svc, metrics
}

func recIDs(recs []models.Recommendation) []string {
	ids := make([]string, len(recs))
	for i, r := range recs {
		ids[i] = r.ProductID
	}
	return ids
}

func TestRecommendationService_Get_RuleBased(t *testing.T) {
	dashboards := new(MockDashboardFetcher)
	publisher := new(MockEventPublisher)
	dashboards.On("FetchDashboard", mock.Anything, "user-1").Return(testDashboard("user-1"), nil)
	publisher.On("Publish", mock.Anything, mock.MatchedBy(func(e models.RecommendationEvent) bool {
		return e.UserID == "user-1" && e.Algorithm == AlgorithmRuleBased && !e.Fallback &&
			assert.ObjectsAreEqual([]string{"p3", "p4"}, e.ProductIDs)
	})).Return(nil)

	svc, metrics := newTestService(t, dashboards, publisher)

	resp, err := svc.Get(context.Background(), "user-1", 5, "")
	require.NoError(t, err)

	assert.Equal(t, "user-1", resp.UserID)
	assert.Equal(t, []string{"p3", "p4"}, recIDs(resp.Recommendations))
	assert.Equal(t, 2, resp.RecommendationCount)
	assert.Equal(t, AlgorithmRuleBased, resp.AlgorithmUsed)
	assert.Equal(t, ModelUsedRuleBased, resp.ModelUsed)
	assert.False(t, resp.FallbackUsed)
	assert.Equal(t, 2, resp.UserContext.CartItemsCount)
	assert.Equal(t, 1, resp.UserContext.LikedItemsCount)
	require.Len(t, resp.UserContext.CartItems, 1)
	assert.Equal(t, "p1", resp.UserContext.CartItems[0].ID)
	assert.Equal(t, "Tote", resp.UserContext.LikedItems[0].Name)
	assert.Equal(t, []string{}, resp.Recommendations[0].Sizes)

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.served.WithLabelValues(AlgorithmRuleBased)))
	dashboards.AssertExpectations(t)
	publisher.AssertExpectations(t)
}

func TestRecommendationService_Get_ClampsLimit(t *testing.T) {
	dashboards := new(MockDashboardFetcher)
	dashboards.On("FetchDashboard", mock.Anything, "user-1").Return(testDashboard("user-1"), nil)

	svc, _ := newTestService(t, dashboards, nil)

	resp, err := svc.Get(context.Background(), "user-1", 0, AlgorithmRuleBased)
	require.NoError(t, err)
	assert.Equal(t, []string{"p3"}, recIDs(resp.Recommendations))
}

func TestRecommendationService_Get_FallsBack(t *testing.T) {
	dashboards := new(MockDashboardFetcher)
	dashboards.On("FetchDashboard", mock.Anything, "user-1").Return(testDashboard("user-1"), nil)

	svc, metrics := newTestService(t, dashboards, nil, failingSource{name: AlgorithmModel, err: ErrModelUnavailable})

	resp, err := svc.Get(context.Background(), "user-1", 5, AlgorithmModel)
	require.NoError(t, err)

	assert.True(t, resp.FallbackUsed)
	assert.Equal(t, AlgorithmRuleBased, resp.AlgorithmUsed)
	assert.Equal(t, ModelUsedRuleBased, resp.ModelUsed)
	assert.Equal(t, []string{"p3", "p4"}, recIDs(resp.Recommendations))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.fallbacks.WithLabelValues(AlgorithmModel)))
}

func TestRecommendationService_Get_InvalidInputNotRetried(t *testing.T) {
	dashboards := new(MockDashboardFetcher)
	dashboards.On("FetchDashboard", mock.Anything, "user-1").Return(testDashboard("user-1"), nil)

	svc, _ := newTestService(t, dashboards, nil, failingSource{name: AlgorithmCategory, err: ranking.ErrInvalidInput})

	_, err := svc.Get(context.Background(), "user-1", 5, AlgorithmCategory)
	assert.ErrorIs(t, err, ranking.ErrInvalidInput)
}

func TestRecommendationService_Get_ModelUsed(t *testing.T) {
	dashboards := new(MockDashboardFetcher)
	dashboards.On("FetchDashboard", mock.Anything, "user-1").Return(testDashboard("user-1"), nil)

	svc, _ := newTestService(t, dashboards, nil, stubSource{name: AlgorithmModel, ids: []string{"p4"}})

	resp, err := svc.Get(context.Background(), "user-1", 5, AlgorithmModel)
	require.NoError(t, err)
	assert.Equal(t, "gpt2-products", resp.ModelUsed)
	assert.Equal(t, AlgorithmModel, resp.AlgorithmUsed)
	assert.Equal(t, []string{"p4"}, recIDs(resp.Recommendations))
}

func TestRecommendationService_Get_Errors(t *testing.T) {
	t.Run("unknown algorithm", func(t *testing.T) {
		svc, _ := newTestService(t, new(MockDashboardFetcher), nil)
		_, err := svc.Get(context.Background(), "user-1", 5, "astrology")
		assert.ErrorIs(t, err, ErrUnknownAlgorithm)
	})

	t.Run("dashboard unavailable", func(t *testing.T) {
		dashboards := new(MockDashboardFetcher)
		dashboards.On("FetchDashboard", mock.Anything, "ghost").Return(nil, upstream.ErrDashboardUnavailable)

		svc, _ := newTestService(t, dashboards, nil)
		_, err := svc.Get(context.Background(), "ghost", 5, "")
		assert.ErrorIs(t, err, upstream.ErrDashboardUnavailable)
	})

	t.Run("catalog unavailable", func(t *testing.T) {
		dashboard := testDashboard("user-1")
		dashboard.AllProducts = nil
		dashboards := new(MockDashboardFetcher)
		dashboards.On("FetchDashboard", mock.Anything, "user-1").Return(dashboard, nil)
		products := new(MockProductFetcher)
		products.On("FetchProducts", mock.Anything).Return(nil, errors.New("boom"))

		svc, _ := newTestService(t, dashboards, nil)
		svc.catalog = NewCatalogProvider(products, nil, 0, quietLogger())

		_, err := svc.Get(context.Background(), "user-1", 5, "")
		assert.ErrorIs(t, err, ErrCatalogUnavailable)
	})
}

func TestRecommendationService_Get_PublishFailureIgnored(t *testing.T) {
	dashboards := new(MockDashboardFetcher)
	publisher := new(MockEventPublisher)
	dashboards.On("FetchDashboard", mock.Anything, "user-1").Return(testDashboard("user-1"), nil)
	publisher.On("Publish", mock.Anything, mock.Anything).Return(errors.New("broker down"))

	svc, _ := newTestService(t, dashboards, publisher)

	resp, err := svc.Get(context.Background(), "user-1", 5, "")
	require.NoError(t, err)
	assert.Equal(t, 2, resp.RecommendationCount)
}

func TestRecommendationService_Batch(t *testing.T) {
	dashboards := new(MockDashboardFetcher)
	dashboards.On("FetchDashboard", mock.Anything, "ghost").Return(nil, fmt.Errorf("%w: 404", upstream.ErrDashboardUnavailable))
	for i := 0; i < 10; i++ {
		id := fmt.Sprintf("user-%d", i)
		dashboards.On("FetchDashboard", mock.Anything, id).Return(testDashboard(id), nil)
	}

	svc, _ := newTestService(t, dashboards, nil)

	userIDs := []string{"ghost"}
	for i := 0; i < 10; i++ {
		userIDs = append(userIDs, fmt.Sprintf("user-%d", i))
	}

	results := svc.Batch(context.Background(), userIDs, 1, "")
	require.Len(t, results, 11)

	assert.Equal(t, "Failed to fetch user data", results["ghost"].Error)
	assert.Nil(t, results["ghost"].Count)

	for i := 0; i < 10; i++ {
		entry := results[fmt.Sprintf("user-%d", i)]
		assert.Empty(t, entry.Error)
		require.NotNil(t, entry.Count)
		assert.Equal(t, 1, *entry.Count)
		assert.Equal(t, []string{"p3"}, recIDs(entry.Recommendations))
	}
}

func TestRecommendationService_ConcurrentGet(t *testing.T) {
	dashboards := new(MockDashboardFetcher)
	dashboards.On("FetchDashboard", mock.Anything, "user-1").Return(testDashboard("user-1"), nil)

	svc, _ := newTestService(t, dashboards, nil, CollaborativeSource{}, CategorySource{})

	var wg sync.WaitGroup
	for _, algorithm := range []string{AlgorithmRuleBased, AlgorithmCollaborative, AlgorithmCategory} {
		for i := 0; i < 5; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				resp, err := svc.Get(context.Background(), "user-1", 3, algorithm)
				assert.NoError(t, err)
				assert.LessOrEqual(t, resp.RecommendationCount, 3)
				for _, rec := range resp.Recommendations {
					assert.NotContains(t, []string{"p1", "p2"}, rec.ProductID)
				}
			}()
		}
	}
	wg.Wait()
}

func TestBatchErrorMessage(t *testing.T) {
	assert.Equal(t, "Failed to fetch product catalog", BatchErrorMessage(ErrCatalogUnavailable))
	assert.Equal(t, "Failed to fetch user data", BatchErrorMessage(upstream.ErrDashboardUnavailable))
	assert.Contains(t, BatchErrorMessage(fmt.Errorf("%w: %q", ErrUnknownAlgorithm, "x")), "unknown recommendation algorithm")
}

type stubSource struct {
	name string
	ids  []string
}

func (s stubSource) Name() string { return s.name }

func (s stubSource) Recommend(_ context.Context, catalog []ranking.Product, _ *ranking.Activity, _ int) ([]ranking.Product, error) {
	var out []ranking.Product
	for _, id := range s.ids {
		for _, p := range catalog {
			if p.ID == id {
				out = append(out, p)
			}
		}
	}
	return out, nil
}
