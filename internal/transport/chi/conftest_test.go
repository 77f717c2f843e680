package chi

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/laya1n/Haseef-sub000/internal/domain"
	"github.com/laya1n/Haseef-sub000/internal/domain/record"
	"github.com/laya1n/Haseef-sub000/internal/domain/search/filter"
	"github.com/laya1n/Haseef-sub000/internal/domain/search/suggest"
	"github.com/laya1n/Haseef-sub000/internal/domain/search/summary"
	assistantuc "github.com/laya1n/Haseef-sub000/internal/usecase/assistant"
	healthuc "github.com/laya1n/Haseef-sub000/internal/usecase/health"
	recordsuc "github.com/laya1n/Haseef-sub000/internal/usecase/records"
)

var testNow = time.Date(2025, 3, 12, 15, 0, 0, 0, time.UTC)

type mockRecords struct {
	queryFn      func(ctx context.Context, kind record.Kind, state filter.State, offset, limit int) (recordsuc.QueryResult, error)
	summaryFn    func(ctx context.Context, kind record.Kind, state filter.State) (summary.Summary, error)
	alertsFn     func(ctx context.Context, kind record.Kind, state filter.State, offset, limit int) (recordsuc.AlertsResult, error)
	exportFn     func(ctx context.Context, kind record.Kind, state filter.State, w io.Writer) (int, error)
	suggestFn    func(ctx context.Context, kind record.Kind, q string, limit int) ([]suggest.Candidate, error)
	didYouMeanFn func(ctx context.Context, kind record.Kind, q string) (suggest.Candidate, bool, error)
	replaceFn    func(ctx context.Context, kind record.Kind, format string, raw []byte) (record.BatchMeta, error)
	batchesFn    func(ctx context.Context) ([]record.BatchMeta, error)
	uploadsFn    func(ctx context.Context, kind record.Kind) ([]record.Upload, error)
	uploadFn     func(ctx context.Context, kind record.Kind, batchID string) (record.Upload, []byte, error)
}

func (m *mockRecords) Schema(kind record.Kind) (*record.Schema, error) {
	sc, ok := record.SchemaFor(kind)
	if !ok {
		return nil, domain.ErrUnknownKind
	}
	return &sc, nil
}

func (m *mockRecords) Query(
	ctx context.Context, kind record.Kind, state filter.State, offset, limit int,
) (recordsuc.QueryResult, error) {
	if m.queryFn != nil {
		return m.queryFn(ctx, kind, state, offset, limit)
	}
	return recordsuc.QueryResult{Records: []record.Record{}}, nil
}

func (m *mockRecords) Summary(ctx context.Context, kind record.Kind, state filter.State) (summary.Summary, error) {
	if m.summaryFn != nil {
		return m.summaryFn(ctx, kind, state)
	}
	return summary.Summary{}, nil
}

func (m *mockRecords) Alerts(
	ctx context.Context, kind record.Kind, state filter.State, offset, limit int,
) (recordsuc.AlertsResult, error) {
	if m.alertsFn != nil {
		return m.alertsFn(ctx, kind, state, offset, limit)
	}
	return recordsuc.AlertsResult{Records: []record.Record{}}, nil
}

func (m *mockRecords) Export(ctx context.Context, kind record.Kind, state filter.State, w io.Writer) (int, error) {
	if m.exportFn != nil {
		return m.exportFn(ctx, kind, state, w)
	}
	return 0, nil
}

func (m *mockRecords) Suggest(ctx context.Context, kind record.Kind, q string, limit int) ([]suggest.Candidate, error) {
	if m.suggestFn != nil {
		return m.suggestFn(ctx, kind, q, limit)
	}
	return nil, nil
}

func (m *mockRecords) DidYouMean(ctx context.Context, kind record.Kind, q string) (suggest.Candidate, bool, error) {
	if m.didYouMeanFn != nil {
		return m.didYouMeanFn(ctx, kind, q)
	}
	return suggest.Candidate{}, false, nil
}

func (m *mockRecords) Replace(ctx context.Context, kind record.Kind, format string, raw []byte) (record.BatchMeta, error) {
	if m.replaceFn != nil {
		return m.replaceFn(ctx, kind, format, raw)
	}
	return record.BatchMeta{ID: "batch-1", Kind: kind}, nil
}

func (m *mockRecords) Batches(ctx context.Context) ([]record.BatchMeta, error) {
	if m.batchesFn != nil {
		return m.batchesFn(ctx)
	}
	return nil, nil
}

func (m *mockRecords) Uploads(ctx context.Context, kind record.Kind) ([]record.Upload, error) {
	if m.uploadsFn != nil {
		return m.uploadsFn(ctx, kind)
	}
	return nil, nil
}

func (m *mockRecords) Upload(ctx context.Context, kind record.Kind, batchID string) (record.Upload, []byte, error) {
	if m.uploadFn != nil {
		return m.uploadFn(ctx, kind, batchID)
	}
	return record.Upload{}, nil, domain.ErrNotFound
}

type mockAssistant struct {
	chatFn func(ctx context.Context, req assistantuc.ChatRequest) (assistantuc.Reply, error)
}

func (m *mockAssistant) Chat(ctx context.Context, req assistantuc.ChatRequest) (assistantuc.Reply, error) {
	if m.chatFn != nil {
		return m.chatFn(ctx, req)
	}
	return assistantuc.Reply{}, domain.ErrAssistantDisabled
}

type mockHealth struct {
	report healthuc.Report
}

func (m *mockHealth) Check(context.Context) healthuc.Report { return m.report }

type testServer struct {
	records   *mockRecords
	assistant *mockAssistant
	health    *mockHealth
	handler   http.Handler
}

func newTestServer(t *testing.T, opts Options) *testServer {
	t.Helper()
	ts := &testServer{
		records:   &mockRecords{},
		assistant: &mockAssistant{},
		health:    &mockHealth{report: healthuc.Report{Status: healthuc.Healthy, Checks: map[string]healthuc.CheckResult{}}},
	}
	s := NewServer(ts.records, ts.assistant, ts.health, opts, zap.NewNop())
	s.now = func() time.Time { return testNow }

	r := chi.NewRouter()
	s.Routes(r)
	ts.handler = r
	return ts
}

func (ts *testServer) do(req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	ts.handler.ServeHTTP(rr, req)
	return rr
}
