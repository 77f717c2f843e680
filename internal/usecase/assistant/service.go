// Package assistant proxies chat conversations to the configured model,
// optionally grounded on the filtered records of a kind.
package assistant

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/laya1n/Haseef-sub000/internal/domain"
	"github.com/laya1n/Haseef-sub000/internal/domain/record"
	"github.com/laya1n/Haseef-sub000/internal/domain/search/filter"
	"github.com/laya1n/Haseef-sub000/internal/domain/search/summary"
	"github.com/laya1n/Haseef-sub000/internal/metrics"
)

// topGroups is the number of grouped buckets quoted in the record context.
const topGroups = 10

// RecordContext selects the records attached to a conversation.
type RecordContext struct {
	Kind  record.Kind
	State filter.State
}

// ChatRequest is a conversation turn.
type ChatRequest struct {
	Messages []domain.Message
	Context  *RecordContext
}

// Reply is the assistant answer.
type Reply struct {
	Content          string
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
	// ContextRecords is the number of records quoted to the model; ContextTotal the filtered total.
	ContextRecords int
	ContextTotal   int
}

// Service handles assistant conversations.
type Service struct {
	assistant  domain.Assistant
	records    RecordSource
	budget     Budget
	maxContext int
	logger     *zap.Logger
}

// New creates an assistant service. assistant nil disables chat; budget can be nil.
func New(
	assistant domain.Assistant, records RecordSource, budget Budget,
	maxContext int, logger *zap.Logger,
) *Service {
	return &Service{
		assistant:  assistant,
		records:    records,
		budget:     budget,
		maxContext: maxContext,
		logger:     logger,
	}
}

// Enabled reports whether a provider is configured.
func (s *Service) Enabled() bool { return s.assistant != nil }

// Chat validates the conversation, attaches record context and asks the model.
func (s *Service) Chat(ctx context.Context, req ChatRequest) (Reply, error) {
	if s.assistant == nil {
		return Reply{}, domain.ErrAssistantDisabled
	}
	if err := validateMessages(req.Messages); err != nil {
		return Reply{}, err
	}

	if s.budget != nil {
		if err := s.budget.Check(ctx); err != nil {
			return Reply{}, fmt.Errorf("budget check: %w", err)
		}
	}

	msgs := req.Messages
	var reply Reply
	if req.Context != nil {
		ctxMsg, shown, total, err := s.recordContext(ctx, req.Context)
		if err != nil {
			return Reply{}, err
		}
		msgs = make([]domain.Message, 0, len(req.Messages)+1)
		msgs = append(msgs, domain.Message{Role: domain.RoleSystem, Content: ctxMsg})
		msgs = append(msgs, req.Messages...)
		reply.ContextRecords, reply.ContextTotal = shown, total
	}

	c, err := s.assistant.Complete(ctx, msgs)
	if err != nil {
		return Reply{}, fmt.Errorf("assistant complete: %w", err)
	}

	reply.Content = c.Content
	reply.PromptTokens = c.PromptTokens
	reply.CompletionTokens = c.CompletionTokens
	reply.TotalTokens = c.TotalTokens
	s.recordUsage(ctx, c.TotalTokens)

	s.logger.Debug("Assistant reply",
		zap.Int("messages", len(msgs)),
		zap.Int("context_records", reply.ContextRecords),
		zap.Int("total_tokens", c.TotalTokens),
	)
	return reply, nil
}

// HealthCheck checks the provider when it supports it.
func (s *Service) HealthCheck(ctx context.Context) error {
	if s.assistant == nil {
		return domain.ErrAssistantDisabled
	}
	if hc, ok := s.assistant.(domain.HealthChecker); ok {
		return hc.HealthCheck(ctx) //nolint:wrapcheck // transparent
	}
	return nil
}

func (s *Service) recordUsage(ctx context.Context, tokens int) {
	domain.UsageFromContext(ctx).AddTokens(tokens)
	if s.budget == nil || tokens <= 0 {
		return
	}
	s.budget.Record(ctx, int64(tokens))
	for _, p := range []domain.BudgetPeriod{domain.BudgetDaily, domain.BudgetMonthly} {
		metrics.AssistantBudgetTokensRemaining.WithLabelValues(string(p)).Set(float64(s.budget.Remaining(p)))
	}
}

// recordContext renders the summary and the first maxContext filtered records as CSV.
func (s *Service) recordContext(ctx context.Context, rc *RecordContext) (string, int, int, error) {
	schema, err := s.records.Schema(rc.Kind)
	if err != nil {
		return "", 0, 0, err //nolint:wrapcheck // already wrapped with the kind
	}
	sum, err := s.records.Summary(ctx, rc.Kind, rc.State)
	if err != nil {
		return "", 0, 0, fmt.Errorf("context summary: %w", err)
	}
	recs, err := s.records.Filtered(ctx, rc.Kind, rc.State, s.maxContext)
	if err != nil {
		return "", 0, 0, fmt.Errorf("context records: %w", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Dataset: %s records matching the user's current filters.\n", rc.Kind)
	fmt.Fprintf(&b, "Matching records: %d. Alerts (emergency or referral): %d.\n", sum.Total, sum.Alerts)
	for _, f := range schema.DistinctFields {
		fmt.Fprintf(&b, "Distinct %s: %d.\n", f, sum.Distinct[f])
	}
	if top := summary.Top(sum.Grouped, topGroups); len(top) > 0 {
		fmt.Fprintf(&b, "Top %s:", schema.Grouping.Field)
		for _, g := range top {
			fmt.Fprintf(&b, " %s (%d);", g.Label, g.Count)
		}
		b.WriteString("\n")
	}
	if len(recs) < sum.Total {
		fmt.Fprintf(&b, "First %d of %d records as CSV:\n", len(recs), sum.Total)
	} else {
		b.WriteString("Records as CSV:\n")
	}

	var csvBuf bytes.Buffer
	if err := record.EncodeCSV(&csvBuf, schema.Fields, recs); err != nil {
		return "", 0, 0, fmt.Errorf("encode context: %w", err)
	}
	b.Write(csvBuf.Bytes())
	return b.String(), len(recs), sum.Total, nil
}

func validateMessages(msgs []domain.Message) error {
	if len(msgs) == 0 {
		return fmt.Errorf("%w: messages are required", domain.ErrInvalidRequest)
	}
	for i, m := range msgs {
		switch m.Role {
		case domain.RoleUser, domain.RoleAssistant:
		case domain.RoleSystem:
			return fmt.Errorf("%w: message %d: system role is reserved", domain.ErrInvalidRequest, i)
		default:
			return fmt.Errorf("%w: message %d has unknown role %q", domain.ErrInvalidRequest, i, m.Role)
		}
		if strings.TrimSpace(m.Content) == "" {
			return fmt.Errorf("%w: message %d is empty", domain.ErrInvalidRequest, i)
		}
	}
	if msgs[len(msgs)-1].Role != domain.RoleUser {
		return fmt.Errorf("%w: last message must come from the user", domain.ErrInvalidRequest)
	}
	return nil
}
