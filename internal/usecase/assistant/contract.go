package assistant

import (
	"context"

	"github.com/laya1n/Haseef-sub000/internal/domain"
	"github.com/laya1n/Haseef-sub000/internal/domain/record"
	"github.com/laya1n/Haseef-sub000/internal/domain/search/filter"
	"github.com/laya1n/Haseef-sub000/internal/domain/search/summary"
)

// RecordSource supplies the filtered records attached as conversation context.
type RecordSource interface {
	Schema(kind record.Kind) (*record.Schema, error)
	Filtered(ctx context.Context, kind record.Kind, state filter.State, maxRecords int) ([]record.Record, error)
	Summary(ctx context.Context, kind record.Kind, state filter.State) (summary.Summary, error)
}

// Budget enforces the assistant token budget.
type Budget interface {
	Check(ctx context.Context) error
	Record(ctx context.Context, tokens int64)
	Remaining(p domain.BudgetPeriod) int64
}
