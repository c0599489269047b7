// Package upstream talks to the storefront API that owns carts, liked
// products and the product catalog.
package upstream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/goccy/go-json"
	"github.com/sirupsen/logrus"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/temcen/cartrec/internal/config"
	"github.com/temcen/cartrec/internal/resilience"
	"github.com/temcen/cartrec/internal/validation"
	"github.com/temcen/cartrec/pkg/models"
)

const (
	EndpointDashboard = "dashboard"
	EndpointProducts  = "products"

	maxResponseBytes = 10 << 20
)

var (
	// ErrDashboardUnavailable means the storefront did not return a usable
	// dashboard for the user.
	ErrDashboardUnavailable = errors.New("user dashboard unavailable")
	// ErrInvalidPayload means the response body failed schema validation.
	ErrInvalidPayload = errors.New("invalid upstream payload")
)

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Endpoint string
	Code     int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream %s returned status %d", e.Endpoint, e.Code)
}

// Recorder observes the outcome of every upstream request.
type Recorder interface {
	ObserveUpstream(endpoint, outcome string)
}

// Client fetches dashboards and the catalog. Calls are throttled and run
// behind a circuit breaker; client errors (4xx) and calls abandoned by the
// caller do not trip the breaker.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	breaker    *gobreaker.CircuitBreaker[[]byte]
	validator  *validation.SchemaValidator
	recorder   Recorder
	logger     *logrus.Logger
}

func NewClient(
	cfg config.UpstreamConfig,
	validator *validation.SchemaValidator,
	recorder Recorder,
	logger *logrus.Logger,
) *Client {
	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	burst := cfg.Burst
	if burst < 1 {
		burst = 1
	}

	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: cfg.Timeout},
		limiter:    rate.NewLimiter(limit, burst),
		breaker:    resilience.NewCircuitBreaker[[]byte]("upstream", cfg.Breaker, logger, isBreakerSuccess),
		validator:  validator,
		recorder:   recorder,
		logger:     logger,
	}
}

// BaseURL returns the storefront API base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// BreakerOpen reports whether the storefront is currently considered down.
func (c *Client) BreakerOpen() bool {
	return resilience.IsOpen(c.breaker)
}

// FetchDashboard returns the user's cart, liked products and the catalog.
// Any failure is reported as ErrDashboardUnavailable wrapping the cause.
func (c *Client) FetchDashboard(ctx context.Context, userID string) (*models.Dashboard, error) {
	body, err := c.get(ctx, EndpointDashboard, "/users/"+url.PathEscape(userID)+"/dashboard")
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDashboardUnavailable, err)
	}

	if err := c.check(validation.DashboardResponseSchema, body); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDashboardUnavailable, err)
	}

	var envelope models.APIEnvelope[models.Dashboard]
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("%w: decode dashboard: %w", ErrDashboardUnavailable, err)
	}

	if envelope.Message != models.DashboardSuccessMessage || envelope.Data == nil {
		c.logger.WithFields(logrus.Fields{
			"user_id": userID,
			"message": envelope.Message,
		}).Warn("Unexpected dashboard response")
		return nil, fmt.Errorf("%w: unexpected message %q", ErrDashboardUnavailable, envelope.Message)
	}

	return envelope.Data, nil
}

// FetchProducts returns the full product catalog.
func (c *Client) FetchProducts(ctx context.Context) ([]models.CatalogProduct, error) {
	body, err := c.get(ctx, EndpointProducts, "/products")
	if err != nil {
		return nil, err
	}

	if err := c.check(validation.ProductListSchema, body); err != nil {
		return nil, err
	}

	products := make([]models.CatalogProduct, 0)
	if err := json.Unmarshal(body, &products); err != nil {
		return nil, fmt.Errorf("decode products: %w", err)
	}
	return products, nil
}

func (c *Client) check(schema string, body []byte) error {
	if c.validator == nil {
		return nil
	}
	if err := c.validator.ValidateBytes(schema, body).Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidPayload, err)
	}
	return nil
}

func (c *Client) get(ctx context.Context, endpoint, path string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		c.observe(endpoint, "throttled")
		return nil, fmt.Errorf("wait for upstream rate limiter: %w", err)
	}

	body, err := c.breaker.Execute(func() ([]byte, error) {
		body, err := c.do(ctx, endpoint, path)
		return body, resilience.CallerAborted(ctx, err)
	})

	if err != nil {
		c.observe(endpoint, outcome(err))
		c.logger.WithError(err).WithField("endpoint", endpoint).Error("Upstream request failed")
		return nil, err
	}

	c.observe(endpoint, "success")
	return body, nil
}

func (c *Client) do(ctx context.Context, endpoint, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
		return nil, &StatusError{Endpoint: endpoint, Code: resp.StatusCode}
	}

	return io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
}

func (c *Client) observe(endpoint, outcome string) {
	if c.recorder != nil {
		c.recorder.ObserveUpstream(endpoint, outcome)
	}
}

func outcome(err error) string {
	var statusErr *StatusError
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return "breaker_open"
	case resilience.IsCallerAbort(err):
		return "cancelled"
	case errors.As(err, &statusErr):
		return fmt.Sprintf("status_%dxx", statusErr.Code/100)
	default:
		return "error"
	}
}

func isBreakerSuccess(err error) bool {
	if err == nil {
		return true
	}
	var statusErr *StatusError
	return errors.As(err, &statusErr) && statusErr.Code < 500
}
