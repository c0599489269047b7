package services

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
)

const (
	StatusHealthy   = "healthy"
	StatusDegraded  = "degraded"
	StatusUnhealthy = "unhealthy"
)

// UpstreamProbe exposes the storefront client's breaker state.
type UpstreamProbe interface {
	BreakerOpen() bool
	BaseURL() string
}

// ModelProbe exposes the model source's availability. A disabled model is
// not checked.
type ModelProbe interface {
	Status() string
	Enabled() bool
}

// Pinger is satisfied by the Redis connection manager.
type Pinger interface {
	Ping(ctx context.Context) error
	Enabled() bool
}

type HealthService struct {
	upstream UpstreamProbe
	model    ModelProbe
	cache    Pinger
	logger   *logrus.Logger

	healthCheckStatus *prometheus.GaugeVec
	lastHealthCheck   *prometheus.GaugeVec
}

type HealthStatus struct {
	Status      string            `json:"status"`
	Timestamp   time.Time         `json:"timestamp"`
	Services    map[string]string `json:"services"`
	Critical    []string          `json:"critical_failures,omitempty"`
	NonCritical []string          `json:"non_critical_failures,omitempty"`
	ModelStatus string            `json:"model_status"`
	APIBaseURL  string            `json:"api_base_url"`
}

func NewHealthService(upstream UpstreamProbe, model ModelProbe, cache Pinger, reg prometheus.Registerer, logger *logrus.Logger) *HealthService {
	hs := &HealthService{
		upstream: upstream,
		model:    model,
		cache:    cache,
		logger:   logger,
		healthCheckStatus: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "health_check_status",
			Help: "Health check status (1 = healthy, 0 = unhealthy)",
		}, []string{"service"}),
		lastHealthCheck: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "health_check_timestamp",
			Help: "Timestamp of last health check",
		}, []string{"service"}),
	}

	if reg != nil {
		hs.healthCheckStatus = register(reg, hs.healthCheckStatus)
		hs.lastHealthCheck = register(reg, hs.lastHealthCheck)
	}
	return hs
}

// ModelStatus is "loaded" when the model source can serve, else "fallback".
func (s *HealthService) ModelStatus() string {
	if s.model == nil {
		return ModelStatusFallback
	}
	return s.model.Status()
}

// ModelLoaded reports whether the model source can currently serve.
func (s *HealthService) ModelLoaded() bool {
	return s.ModelStatus() == ModelStatusLoaded
}

func (s *HealthService) CheckHealth(ctx context.Context) *HealthStatus {
	status := &HealthStatus{
		Timestamp:   time.Now(),
		Services:    make(map[string]string),
		ModelStatus: s.ModelStatus(),
	}
	if s.upstream != nil {
		status.APIBaseURL = s.upstream.BaseURL()
	}

	critical := map[string]func(context.Context) error{
		"upstream": s.checkUpstream,
	}
	nonCritical := map[string]func(context.Context) error{}
	if s.model != nil && s.model.Enabled() {
		nonCritical["model"] = s.checkModel
	}
	if s.cache != nil && s.cache.Enabled() {
		nonCritical["redis"] = s.checkRedis
	}

	allCriticalHealthy := true
	for name, check := range critical {
		if err := check(ctx); err != nil {
			status.Services[name] = StatusUnhealthy
			status.Critical = append(status.Critical, name)
			allCriticalHealthy = false
			s.logger.WithError(err).Errorf("Critical service %s is unhealthy", name)
			s.UpdateHealthMetrics(name, false)
		} else {
			status.Services[name] = StatusHealthy
			s.UpdateHealthMetrics(name, true)
		}
	}

	for name, check := range nonCritical {
		if err := check(ctx); err != nil {
			status.Services[name] = StatusUnhealthy
			status.NonCritical = append(status.NonCritical, name)
			s.logger.WithError(err).Warnf("Non-critical service %s is unhealthy", name)
			s.UpdateHealthMetrics(name, false)
		} else {
			status.Services[name] = StatusHealthy
			s.UpdateHealthMetrics(name, true)
		}
	}

	switch {
	case !allCriticalHealthy:
		status.Status = StatusUnhealthy
	case len(status.NonCritical) > 0:
		status.Status = StatusDegraded
	default:
		status.Status = StatusHealthy
	}

	return status
}

func (s *HealthService) checkUpstream(context.Context) error {
	if s.upstream != nil && s.upstream.BreakerOpen() {
		return errors.New("storefront circuit breaker is open")
	}
	return nil
}

func (s *HealthService) checkModel(context.Context) error {
	if s.ModelStatus() != ModelStatusLoaded {
		return errors.New("model unavailable, serving rule-based fallback")
	}
	return nil
}

func (s *HealthService) checkRedis(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	return s.cache.Ping(ctx)
}

// UpdateHealthMetrics updates health check metrics
func (s *HealthService) UpdateHealthMetrics(serviceName string, healthy bool) {
	if healthy {
		s.healthCheckStatus.WithLabelValues(serviceName).Set(1)
	} else {
		s.healthCheckStatus.WithLabelValues(serviceName).Set(0)
	}
	s.lastHealthCheck.WithLabelValues(serviceName).Set(float64(time.Now().Unix()))
}
