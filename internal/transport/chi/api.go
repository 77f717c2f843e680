package chi

import (
	"time"

	"github.com/laya1n/Haseef-sub000/internal/domain/record"
	"github.com/laya1n/Haseef-sub000/internal/domain/search/suggest"
	"github.com/laya1n/Haseef-sub000/internal/domain/search/summary"
)

// ErrorCode is the machine-readable error code of an ErrorResponse.
type ErrorCode string

// Error codes.
const (
	ErrorCodeBadRequest        ErrorCode = "bad_request"
	ErrorCodeUnauthorized      ErrorCode = "unauthorized"
	ErrorCodeNotFound          ErrorCode = "not_found"
	ErrorCodeUnknownKind       ErrorCode = "unknown_kind"
	ErrorCodeBatchNotLoaded    ErrorCode = "batch_not_loaded"
	ErrorCodeInvalidFilter     ErrorCode = "invalid_filter"
	ErrorCodeInvalidBatch      ErrorCode = "invalid_batch"
	ErrorCodeBatchTooLarge     ErrorCode = "batch_too_large"
	ErrorCodeRateLimited       ErrorCode = "rate_limited"
	ErrorCodeQuotaExceeded     ErrorCode = "assistant_quota_exceeded"
	ErrorCodeProviderError     ErrorCode = "assistant_provider_error"
	ErrorCodeAssistantDisabled ErrorCode = "assistant_disabled"
	ErrorCodeInternalError     ErrorCode = "internal_error"
)

// ErrorResponse is the body of every non-2xx JSON response.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// BatchResponse describes the loaded batch of one kind.
type BatchResponse struct {
	ID       string    `json:"id"`
	Kind     string    `json:"kind"`
	Count    int       `json:"count"`
	Source   string    `json:"source"`
	LoadedAt time.Time `json:"loaded_at"`
}

// BatchListResponse is the body of GET /api/v1/records.
type BatchListResponse struct {
	Items []BatchResponse `json:"items"`
}

// QueryResponse is the body of GET /api/v1/records/{kind}.
type QueryResponse struct {
	Batch      BatchResponse      `json:"batch"`
	Total      int                `json:"total"`
	Offset     int                `json:"offset"`
	Items      []record.Record    `json:"items"`
	Summary    summary.Summary    `json:"summary"`
	DidYouMean *suggest.Candidate `json:"did_you_mean,omitempty"`
}

// AlertsResponse is the body of GET /api/v1/records/{kind}/alerts.
type AlertsResponse struct {
	Batch  BatchResponse       `json:"batch"`
	Total  int                 `json:"total"`
	Offset int                 `json:"offset"`
	Counts summary.AlertCounts `json:"counts"`
	Items  []record.Record     `json:"items"`
}

// SuggestResponse is the body of GET /api/v1/records/{kind}/suggest.
type SuggestResponse struct {
	Items      []suggest.Candidate `json:"items"`
	DidYouMean *suggest.Candidate  `json:"did_you_mean,omitempty"`
}

// UploadResponse is one archived upload.
type UploadResponse struct {
	BatchID    string    `json:"batch_id"`
	Format     string    `json:"format"`
	Size       int64     `json:"size"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// UploadListResponse is the body of GET /api/v1/records/{kind}/uploads.
type UploadListResponse struct {
	Items []UploadResponse `json:"items"`
}

// ChatMessage is one conversation turn on the wire.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatContext attaches filtered records of a kind to the conversation.
// Filters use the same names as the record query parameters.
type ChatContext struct {
	Kind    string            `json:"kind"`
	Filters map[string]string `json:"filters,omitempty"`
}

// ChatRequest is the body of POST /api/v1/assistant/chat.
type ChatRequest struct {
	Messages []ChatMessage `json:"messages"`
	Context  *ChatContext  `json:"context,omitempty"`
}

// ChatResponse is the assistant answer.
type ChatResponse struct {
	Message ChatMessage `json:"message"`
	Usage   ChatUsage   `json:"usage"`
	// ContextRecords is set when record context was attached.
	ContextRecords *int `json:"context_records,omitempty"`
	ContextTotal   *int `json:"context_total,omitempty"`
}

// ChatUsage reports tokens consumed by the completion.
type ChatUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

func batchToResponse(m record.BatchMeta) BatchResponse {
	return BatchResponse{
		ID:       m.ID,
		Kind:     string(m.Kind),
		Count:    m.Count,
		Source:   m.Source,
		LoadedAt: m.LoadedAt,
	}
}

func uploadToResponse(u record.Upload) UploadResponse {
	return UploadResponse{
		BatchID:    u.BatchID,
		Format:     u.Format,
		Size:       u.Size,
		UploadedAt: u.UploadedAt,
	}
}
