package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/temcen/cartrec/internal/ranking"
	"github.com/temcen/cartrec/pkg/models"
)

const catalogCacheKey = "catalog:products"

// ErrCatalogUnavailable means neither the dashboard nor the products
// endpoint yielded a catalog.
var ErrCatalogUnavailable = errors.New("product catalog unavailable")

// CatalogProvider resolves the catalog a request ranks over. The dashboard's
// own snapshot wins; otherwise the full product list is fetched, through a
// Redis cache when one is configured.
type CatalogProvider struct {
	fetcher ProductFetcher
	redis   *redis.Client
	ttl     time.Duration
	logger  *logrus.Logger
}

func NewCatalogProvider(fetcher ProductFetcher, redisClient *redis.Client, ttl time.Duration, logger *logrus.Logger) *CatalogProvider {
	return &CatalogProvider{
		fetcher: fetcher,
		redis:   redisClient,
		ttl:     ttl,
		logger:  logger,
	}
}

func (c *CatalogProvider) Resolve(ctx context.Context, dashboard *models.Dashboard) ([]ranking.Product, error) {
	if dashboard != nil && len(dashboard.AllProducts) > 0 {
		return toCatalog(dashboard.AllProducts), nil
	}

	products, err := c.Products(ctx)
	if err != nil {
		return nil, err
	}
	return toCatalog(products), nil
}

// Products returns the full catalog. Cache errors are logged and ignored.
// An empty catalog is never cached and is reported as ErrCatalogUnavailable.
func (c *CatalogProvider) Products(ctx context.Context) ([]models.CatalogProduct, error) {
	if cached, ok := c.readCache(ctx); ok {
		return cached, nil
	}

	if c.fetcher == nil {
		return nil, fmt.Errorf("%w: no product source configured", ErrCatalogUnavailable)
	}

	products, err := c.fetcher.FetchProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCatalogUnavailable, err)
	}
	if len(products) == 0 {
		return nil, fmt.Errorf("%w: storefront returned an empty catalog", ErrCatalogUnavailable)
	}

	c.writeCache(ctx, products)
	return products, nil
}

func (c *CatalogProvider) readCache(ctx context.Context) ([]models.CatalogProduct, bool) {
	if c.redis == nil {
		return nil, false
	}

	data, err := c.redis.Get(ctx, catalogCacheKey).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.WithError(err).Warn("Catalog cache read failed")
		}
		return nil, false
	}

	var products []models.CatalogProduct
	if err := json.Unmarshal(data, &products); err != nil {
		c.logger.WithError(err).Warn("Discarding corrupt catalog cache entry")
		return nil, false
	}
	return products, true
}

func (c *CatalogProvider) writeCache(ctx context.Context, products []models.CatalogProduct) {
	if c.redis == nil || c.ttl <= 0 {
		return
	}

	data, err := json.Marshal(products)
	if err != nil {
		c.logger.WithError(err).Warn("Failed to encode catalog for cache")
		return
	}
	if err := c.redis.Set(ctx, catalogCacheKey, data, c.ttl).Err(); err != nil {
		c.logger.WithError(err).Warn("Catalog cache write failed")
	}
}
