// Package openai implements the vision labeler over the OpenAI-compatible
// chat completions API.
package openai

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/bluestone/imagetag/internal/domain"
	"github.com/bluestone/imagetag/internal/metrics"
)

// Labeler detects image labels through a vision-capable chat model.
type Labeler struct {
	client        *openai.Client
	model         string
	maxLabels     int
	minConfidence float64
	provider      string
	logger        *zap.Logger
}

// Config holds the vision provider settings.
type Config struct {
	APIKey        string
	BaseURL       string
	Model         string
	MaxLabels     int
	MinConfidence float64
	Provider      string
	Logger        *zap.Logger
}

// NewLabeler creates an OpenAI-compatible vision labeler.
func NewLabeler(cfg *Config) *Labeler {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	return &Labeler{
		client:        openai.NewClientWithConfig(clientCfg),
		model:         cfg.Model,
		maxLabels:     cfg.MaxLabels,
		minConfidence: cfg.MinConfidence,
		provider:      cfg.Provider,
		logger:        cfg.Logger,
	}
}

// visionResponse is the JSON shape the model is asked to answer with.
type visionResponse struct {
	Labels []domain.Label `json:"labels"`
}

// DetectLabels sends the image inline as a data URI and parses the JSON
// label list out of the completion. Labels below the confidence threshold
// are dropped; at most maxLabels survive, strongest first.
func (l *Labeler) DetectLabels(ctx context.Context, data []byte, contentType string) ([]domain.Label, error) {
	prompt := fmt.Sprintf(
		"Identify the objects, scenes and concepts visible in this image. "+
			"Answer with a JSON object of the form "+
			`{"labels":[{"name":"...","confidence":0-100}]}`+
			" listing at most %d labels, single lowercase English words or short phrases, "+
			"confidence as a percentage.", l.maxLabels)

	dataURI := "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(data)

	req := openai.ChatCompletionRequest{
		Model: l.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{Type: openai.ChatMessagePartTypeText, Text: prompt},
					{
						Type:     openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{URL: dataURI},
					},
				},
			},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	}

	start := time.Now()

	resp, err := l.client.CreateChatCompletion(ctx, req)

	duration := time.Since(start)

	if err != nil {
		metrics.VisionRequestsTotal.WithLabelValues(l.provider, l.model, "error").Inc()
		metrics.VisionErrorsTotal.WithLabelValues(l.provider, l.model, "api_error").Inc()
		return nil, parseAPIError(err)
	}

	if len(resp.Choices) == 0 {
		metrics.VisionRequestsTotal.WithLabelValues(l.provider, l.model, "error").Inc()
		metrics.VisionErrorsTotal.WithLabelValues(l.provider, l.model, "empty_response").Inc()
		return nil, fmt.Errorf("empty vision response: %w", domain.ErrVisionProviderError)
	}

	var parsed visionResponse
	if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), &parsed); err != nil {
		metrics.VisionRequestsTotal.WithLabelValues(l.provider, l.model, "error").Inc()
		metrics.VisionErrorsTotal.WithLabelValues(l.provider, l.model, "bad_payload").Inc()
		return nil, fmt.Errorf("unparsable vision response: %w", domain.ErrVisionProviderError)
	}

	labels := l.filter(parsed.Labels)

	metrics.VisionRequestsTotal.WithLabelValues(l.provider, l.model, "success").Inc()
	metrics.VisionRequestDuration.WithLabelValues(l.provider, l.model).Observe(duration.Seconds())
	metrics.VisionLabelsDetected.WithLabelValues(l.provider, l.model).Add(float64(len(labels)))

	return labels, nil
}

// filter drops weak or malformed labels and keeps the strongest maxLabels.
func (l *Labeler) filter(raw []domain.Label) []domain.Label {
	labels := make([]domain.Label, 0, len(raw))
	for _, lab := range raw {
		if lab.Name == "" || lab.Confidence < l.minConfidence {
			continue
		}
		labels = append(labels, lab)
	}
	sort.Slice(labels, func(i, j int) bool {
		if labels[i].Confidence != labels[j].Confidence {
			return labels[i].Confidence > labels[j].Confidence
		}
		return labels[i].Name < labels[j].Name
	})
	if l.maxLabels > 0 && len(labels) > l.maxLabels {
		labels = labels[:l.maxLabels]
	}
	return labels
}

// HealthCheck verifies API availability via ListModels (free endpoint).
func (l *Labeler) HealthCheck(ctx context.Context) error {
	if _, err := l.client.ListModels(ctx); err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	return nil
}

// parseAPIError extracts a human-readable error from the API response.
// All errors are wrapped with domain.ErrVisionProviderError for correct 502 mapping.
func parseAPIError(err error) error {
	wrap := domain.ErrVisionProviderError

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		detail := extractDetail(reqErr.Body)
		if detail != "" {
			return fmt.Errorf("vision API error %d: %s: %w",
				reqErr.HTTPStatusCode, detail, wrap)
		}
		return fmt.Errorf("vision API error %d: %s: %w",
			reqErr.HTTPStatusCode, string(reqErr.Body), wrap)
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("vision API error %d: %s: %w",
			apiErr.HTTPStatusCode, apiErr.Message, wrap)
	}

	return fmt.Errorf("vision request failed: %w", wrap)
}

// extractDetail extracts the "detail" field from a JSON error body.
func extractDetail(body []byte) string {
	var parsed struct {
		Detail string `json:"detail"`
	}
	if json.Unmarshal(body, &parsed) == nil && parsed.Detail != "" {
		return parsed.Detail
	}
	return ""
}
