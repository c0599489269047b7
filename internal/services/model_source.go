package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/goccy/go-json"
	"github.com/sirupsen/logrus"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/text/cases"

	"github.com/temcen/cartrec/internal/config"
	"github.com/temcen/cartrec/internal/ranking"
	"github.com/temcen/cartrec/internal/resilience"
)

const (
	ModelStatusLoaded   = "loaded"
	ModelStatusFallback = "fallback"

	maxModelResponseBytes = 1 << 20
)

var (
	// ErrModelUnavailable means the text-generation endpoint is disabled,
	// unreachable or returned an unusable response.
	ErrModelUnavailable = errors.New("recommendation model unavailable")
	// ErrNoModelSuggestions means the generated text named no eligible product.
	ErrNoModelSuggestions = errors.New("model produced no usable suggestions")
)

type generationParameters struct {
	MaxLength          int     `json:"max_length,omitempty"`
	Temperature        float64 `json:"temperature,omitempty"`
	TopK               int     `json:"top_k,omitempty"`
	TopP               float64 `json:"top_p,omitempty"`
	DoSample           bool    `json:"do_sample"`
	NumReturnSequences int     `json:"num_return_sequences"`
}

type generationRequest struct {
	Inputs     string               `json:"inputs"`
	Parameters generationParameters `json:"parameters"`
}

type generationResult struct {
	GeneratedText string `json:"generated_text"`
}

// ModelSource asks a hosted text-generation model for the next products and
// maps the generated text back onto the catalog.
type ModelSource struct {
	cfg        config.ModelConfig
	endpoint   string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[string]
	logger     *logrus.Logger
}

func NewModelSource(cfg config.ModelConfig, logger *logrus.Logger) *ModelSource {
	return &ModelSource{
		cfg:        cfg,
		endpoint:   cfg.ResolvedEndpoint(),
		httpClient: &http.Client{Timeout: cfg.Timeout},
		breaker:    resilience.NewCircuitBreaker[string]("model", cfg.Breaker, logger, nil),
		logger:     logger,
	}
}

func (m *ModelSource) Name() string { return AlgorithmModel }

// ModelName is reported as model_used in responses.
func (m *ModelSource) ModelName() string { return m.cfg.Name }

// Enabled reports whether the model source is switched on in config.
func (m *ModelSource) Enabled() bool { return m.cfg.Enabled }

// Status is "loaded" while the endpoint is enabled and its breaker is closed.
func (m *ModelSource) Status() string {
	if !m.cfg.Enabled || m.endpoint == "" || resilience.IsOpen(m.breaker) {
		return ModelStatusFallback
	}
	return ModelStatusLoaded
}

func (m *ModelSource) Recommend(ctx context.Context, catalog []ranking.Product, activity *ranking.Activity, limit int) ([]ranking.Product, error) {
	if catalog == nil || activity == nil || limit < 1 {
		return nil, fmt.Errorf("%w: model source needs a catalog, an activity and a positive limit", ranking.ErrInvalidInput)
	}
	if !m.cfg.Enabled || m.endpoint == "" {
		return nil, fmt.Errorf("%w: disabled", ErrModelUnavailable)
	}

	text, err := m.breaker.Execute(func() (string, error) {
		text, err := m.generate(ctx, BuildPrompt(activity))
		return text, resilience.CallerAborted(ctx, err)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrModelUnavailable, err)
	}

	products := ExtractProducts(text, catalog, activity, limit)
	if len(products) == 0 {
		m.logger.WithField("generated_length", len(text)).Debug("Model text matched no catalog products")
		return nil, ErrNoModelSuggestions
	}
	return products, nil
}

func (m *ModelSource) generate(ctx context.Context, prompt string) (string, error) {
	payload, err := json.Marshal(generationRequest{
		Inputs: prompt,
		Parameters: generationParameters{
			MaxLength:          m.cfg.MaxLength,
			Temperature:        m.cfg.Temperature,
			TopK:               m.cfg.TopK,
			TopP:               m.cfg.TopP,
			DoSample:           true,
			NumReturnSequences: 1,
		},
	})
	if err != nil {
		return "", fmt.Errorf("encode generation request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if m.cfg.APIToken != "" {
		req.Header.Set("Authorization", "Bearer "+m.cfg.APIToken)
	}

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxModelResponseBytes))
	if err != nil {
		return "", fmt.Errorf("read generation response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("model endpoint returned status %d", resp.StatusCode)
	}

	var results []generationResult
	if err := json.Unmarshal(body, &results); err != nil {
		return "", fmt.Errorf("decode generation response: %w", err)
	}
	if len(results) == 0 {
		return "", errors.New("model endpoint returned no sequences")
	}
	return results[0].GeneratedText, nil
}

// BuildPrompt renders the user's activity as the model's input prompt.
func BuildPrompt(activity *ranking.Activity) string {
	parts := make([]string, 0, 3)

	if len(activity.CartItems) > 0 {
		ids := make([]string, len(activity.CartItems))
		for i, item := range activity.CartItems {
			ids[i] = item.ProductID
		}
		parts = append(parts, "User cart: "+strings.Join(ids, ", "))
	}
	if len(activity.LikedItems) > 0 {
		ids := make([]string, len(activity.LikedItems))
		for i, item := range activity.LikedItems {
			ids[i] = item.ProductID
		}
		parts = append(parts, "User liked: "+strings.Join(ids, ", "))
	}
	parts = append(parts, "Recommend next products:")

	return strings.Join(parts, " | ")
}

// ExtractProducts returns catalog products whose id, or case-folded name,
// appears in text. Excluded products and duplicate ids are skipped and at
// most limit products are returned, in catalog order.
func ExtractProducts(text string, catalog []ranking.Product, activity *ranking.Activity, limit int) []ranking.Product {
	fold := cases.Fold()
	folded := fold.String(text)

	seen := make(map[string]struct{})
	out := make([]ranking.Product, 0, limit)
	for _, p := range catalog {
		if len(out) >= limit {
			break
		}
		if p.ID == "" || activity.IsExcluded(p.ID) {
			continue
		}
		if _, dup := seen[p.ID]; dup {
			continue
		}

		matched := strings.Contains(text, p.ID)
		if !matched && strings.TrimSpace(p.Name) != "" {
			matched = strings.Contains(folded, fold.String(p.Name))
		}
		if matched {
			seen[p.ID] = struct{}{}
			out = append(out, p)
		}
	}
	return out
}
