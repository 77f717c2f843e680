package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"

	"github.com/laya1n/Haseef-sub000/internal/domain"
	"github.com/laya1n/Haseef-sub000/internal/metrics"
)

func TestMain(m *testing.M) {
	metrics.RegisterAssistantMetrics()
	os.Exit(m.Run())
}

func newTestChat(url, model string) *Chat {
	return NewChat(&Config{
		APIKey:   "test-key",
		BaseURL:  url,
		Model:    model,
		Provider: "test",
		Logger:   zap.NewNop(),
	})
}

func TestChat_Complete(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("unexpected auth header: %s", r.Header.Get("Authorization"))
		}

		var req struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Model != "chat-model" || len(req.Messages) != 2 || req.Messages[0].Role != "system" {
			t.Errorf("unexpected request: %+v", req)
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "c1", "object": "chat.completion", "model": "chat-model",
			"choices": [{"index": 0, "message": {"role": "assistant", "content": "Dr. Ahmed"}, "finish_reason": "stop"}],
			"usage": {"prompt_tokens": 12, "completion_tokens": 3, "total_tokens": 15}
		}`))
	}))
	defer server.Close()

	c := newTestChat(server.URL, "chat-model")
	before := testutil.ToFloat64(metrics.AssistantRequestsTotal.WithLabelValues("test", "chat-model", "success"))

	got, err := c.Complete(context.Background(), []domain.Message{
		{Role: domain.RoleSystem, Content: "context"},
		{Role: domain.RoleUser, Content: "who?"},
	})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if got.Content != "Dr. Ahmed" {
		t.Errorf("Content = %q", got.Content)
	}
	if got.PromptTokens != 12 || got.CompletionTokens != 3 || got.TotalTokens != 15 {
		t.Errorf("unexpected usage: %+v", got)
	}
	after := testutil.ToFloat64(metrics.AssistantRequestsTotal.WithLabelValues("test", "chat-model", "success"))
	if after-before != 1 {
		t.Errorf("success counter delta = %v", after-before)
	}
}

func TestChat_EmptyChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"c1","object":"chat.completion","choices":[]}`))
	}))
	defer server.Close()

	_, err := newTestChat(server.URL, "m").Complete(context.Background(), []domain.Message{{Role: "user", Content: "x"}})
	if !errors.Is(err, domain.ErrAssistantProviderError) {
		t.Errorf("expected ErrAssistantProviderError, got %v", err)
	}
}

func TestChat_APIErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{"server error", http.StatusInternalServerError, `{"error":{"message":"boom","type":"server_error"}}`, domain.ErrAssistantProviderError},
		{"unauthorized", http.StatusUnauthorized, `{"error":{"message":"bad key","type":"invalid_request_error"}}`, domain.ErrAssistantProviderError},
		{"rate limited", http.StatusTooManyRequests, `{"error":{"message":"slow down","type":"rate_limit"}}`, domain.ErrRateLimited},
		{"detail body", http.StatusBadGateway, `{"detail":"upstream down"}`, domain.ErrAssistantProviderError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			c := newTestChat(server.URL, "m")
			_, err := c.Complete(context.Background(), []domain.Message{{Role: "user", Content: "x"}})
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestChat_HealthCheck(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/models" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"object":"list","data":[{"id":"m","object":"model"}]}`))
	}))
	defer server.Close()

	if err := newTestChat(server.URL, "m").HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck: %v", err)
	}

	server.Close()
	if err := newTestChat(server.URL, "m").HealthCheck(context.Background()); err == nil {
		t.Error("expected error against closed server")
	}
}

func TestParseAPIError_Transport(t *testing.T) {
	err := parseAPIError(errors.New("dial tcp: refused"))
	if !errors.Is(err, domain.ErrAssistantProviderError) {
		t.Errorf("expected ErrAssistantProviderError, got %v", err)
	}
}
