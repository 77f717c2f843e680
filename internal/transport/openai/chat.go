package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/laya1n/Haseef-sub000/internal/domain"
	"github.com/laya1n/Haseef-sub000/internal/metrics"
)

// Chat is an assistant provider using the OpenAI-compatible chat completions API.
type Chat struct {
	client   *openai.Client
	model    string
	user     string
	provider string
	logger   *zap.Logger
}

// Config holds the chat provider settings.
type Config struct {
	APIKey   string
	BaseURL  string // empty for api.openai.com
	Model    string
	User     string
	Provider string
	Timeout  time.Duration
	Logger   *zap.Logger
}

// NewChat creates an OpenAI-compatible chat provider.
func NewChat(cfg *Config) *Chat {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	if cfg.Timeout > 0 {
		clientCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}
	provider := cfg.Provider
	if provider == "" {
		provider = "openai"
	}

	return &Chat{
		client:   openai.NewClientWithConfig(clientCfg),
		model:    cfg.Model,
		user:     cfg.User,
		provider: provider,
		logger:   cfg.Logger,
	}
}

// Complete implements domain.Assistant with transport-level metrics.
func (c *Chat) Complete(ctx context.Context, messages []domain.Message) (domain.Completion, error) {
	req := openai.ChatCompletionRequest{
		Model:    c.model,
		Messages: make([]openai.ChatCompletionMessage, len(messages)),
		User:     c.user,
	}
	for i, m := range messages {
		req.Messages[i] = openai.ChatCompletionMessage{Role: m.Role, Content: m.Content}
	}

	start := time.Now()

	resp, err := c.client.CreateChatCompletion(ctx, req)

	duration := time.Since(start)

	if err != nil {
		metrics.AssistantRequestsTotal.WithLabelValues(c.provider, c.model, "error").Inc()
		metrics.AssistantErrorsTotal.WithLabelValues(c.provider, c.model, "api_error").Inc()
		c.logger.Warn("Assistant request failed",
			zap.String("provider", c.provider),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		return domain.Completion{}, parseAPIError(err)
	}

	if len(resp.Choices) == 0 {
		metrics.AssistantRequestsTotal.WithLabelValues(c.provider, c.model, "error").Inc()
		metrics.AssistantErrorsTotal.WithLabelValues(c.provider, c.model, "empty_response").Inc()
		return domain.Completion{}, fmt.Errorf("empty chat response: %w", domain.ErrAssistantProviderError)
	}

	metrics.AssistantRequestsTotal.WithLabelValues(c.provider, c.model, "success").Inc()
	metrics.AssistantRequestDuration.WithLabelValues(c.provider, c.model).Observe(duration.Seconds())

	u := resp.Usage
	if u.TotalTokens > 0 {
		metrics.AssistantTokensTotal.WithLabelValues(c.provider, c.model, "prompt").Add(float64(u.PromptTokens))
		metrics.AssistantTokensTotal.WithLabelValues(c.provider, c.model, "completion").Add(float64(u.CompletionTokens))
		metrics.AssistantTokensTotal.WithLabelValues(c.provider, c.model, "total").Add(float64(u.TotalTokens))
	}

	return domain.Completion{
		Content:          resp.Choices[0].Message.Content,
		PromptTokens:     u.PromptTokens,
		CompletionTokens: u.CompletionTokens,
		TotalTokens:      u.TotalTokens,
	}, nil
}

// HealthCheck verifies API availability via ListModels (free endpoint).
func (c *Chat) HealthCheck(ctx context.Context) error {
	if _, err := c.client.ListModels(ctx); err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	return nil
}

// parseAPIError extracts a human-readable error from the API response.
// Rate limits wrap domain.ErrRateLimited; everything else wraps
// domain.ErrAssistantProviderError for 502 mapping.
func parseAPIError(err error) error {
	wrap := domain.ErrAssistantProviderError

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		if reqErr.HTTPStatusCode == http.StatusTooManyRequests {
			wrap = domain.ErrRateLimited
		}
		if detail := extractDetail(reqErr.Body); detail != "" {
			return fmt.Errorf("chat API error %d: %s: %w", reqErr.HTTPStatusCode, detail, wrap)
		}
		return fmt.Errorf("chat API error %d: %s: %w", reqErr.HTTPStatusCode, string(reqErr.Body), wrap)
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.HTTPStatusCode == http.StatusTooManyRequests {
			wrap = domain.ErrRateLimited
		}
		return fmt.Errorf("chat API error %d: %s: %w", apiErr.HTTPStatusCode, apiErr.Message, wrap)
	}

	return fmt.Errorf("chat request failed: %w", wrap)
}

// extractDetail reads the "detail" field some OpenAI-compatible gateways return.
func extractDetail(body []byte) string {
	var parsed struct {
		Detail string `json:"detail"`
	}
	if json.Unmarshal(body, &parsed) == nil && parsed.Detail != "" {
		return parsed.Detail
	}
	return ""
}
