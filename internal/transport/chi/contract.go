package chi

import (
	"context"
	"io"

	"github.com/laya1n/Haseef-sub000/internal/domain/record"
	"github.com/laya1n/Haseef-sub000/internal/domain/search/filter"
	"github.com/laya1n/Haseef-sub000/internal/domain/search/suggest"
	"github.com/laya1n/Haseef-sub000/internal/domain/search/summary"
	assistantuc "github.com/laya1n/Haseef-sub000/internal/usecase/assistant"
	healthuc "github.com/laya1n/Haseef-sub000/internal/usecase/health"
	recordsuc "github.com/laya1n/Haseef-sub000/internal/usecase/records"
)

// RecordService serves record views and batch replacement.
type RecordService interface {
	Schema(kind record.Kind) (*record.Schema, error)
	Query(ctx context.Context, kind record.Kind, state filter.State, offset, limit int) (recordsuc.QueryResult, error)
	Summary(ctx context.Context, kind record.Kind, state filter.State) (summary.Summary, error)
	Alerts(ctx context.Context, kind record.Kind, state filter.State, offset, limit int) (recordsuc.AlertsResult, error)
	Export(ctx context.Context, kind record.Kind, state filter.State, w io.Writer) (int, error)
	Suggest(ctx context.Context, kind record.Kind, q string, limit int) ([]suggest.Candidate, error)
	DidYouMean(ctx context.Context, kind record.Kind, q string) (suggest.Candidate, bool, error)
	Replace(ctx context.Context, kind record.Kind, format string, raw []byte) (record.BatchMeta, error)
	Batches(ctx context.Context) ([]record.BatchMeta, error)
	Uploads(ctx context.Context, kind record.Kind) ([]record.Upload, error)
	Upload(ctx context.Context, kind record.Kind, batchID string) (record.Upload, []byte, error)
}

// AssistantService answers chat conversations.
type AssistantService interface {
	Chat(ctx context.Context, req assistantuc.ChatRequest) (assistantuc.Reply, error)
}

// HealthService aggregates component health.
type HealthService interface {
	Check(ctx context.Context) healthuc.Report
}
