package records

import (
	"context"
	"fmt"
	"testing"

	"go.uber.org/zap"

	"github.com/laya1n/Haseef-sub000/internal/domain"
	"github.com/laya1n/Haseef-sub000/internal/domain/record"
	"github.com/laya1n/Haseef-sub000/internal/domain/search/suggest"
)

// mockBatches keeps batches in memory; fn fields override single operations.
type mockBatches struct {
	batches map[record.Kind]record.Batch

	metaFn func(ctx context.Context, kind record.Kind) (record.BatchMeta, error)
	saveFn func(ctx context.Context, b record.Batch) error

	loadCalls int
}

func newMockBatches() *mockBatches {
	return &mockBatches{batches: map[record.Kind]record.Batch{}}
}

func (m *mockBatches) Meta(ctx context.Context, kind record.Kind) (record.BatchMeta, error) {
	if m.metaFn != nil {
		return m.metaFn(ctx, kind)
	}
	b, ok := m.batches[kind]
	if !ok {
		return record.BatchMeta{}, fmt.Errorf("batch %s: %w", kind, domain.ErrBatchNotLoaded)
	}
	return b.BatchMeta, nil
}

func (m *mockBatches) MetaAll(ctx context.Context, kinds []record.Kind) ([]record.BatchMeta, error) {
	var out []record.BatchMeta
	for _, k := range kinds {
		if b, ok := m.batches[k]; ok {
			out = append(out, b.BatchMeta)
		}
	}
	return out, nil
}

func (m *mockBatches) Load(_ context.Context, kind record.Kind) (record.Batch, error) {
	m.loadCalls++
	b, ok := m.batches[kind]
	if !ok {
		return record.Batch{}, domain.ErrBatchNotLoaded
	}
	return b, nil
}

func (m *mockBatches) Save(ctx context.Context, b record.Batch) error {
	if m.saveFn != nil {
		return m.saveFn(ctx, b)
	}
	m.batches[b.Kind] = b
	return nil
}

type mockArchive struct {
	putFn  func(ctx context.Context, kind record.Kind, batchID, format string, raw []byte) (record.Upload, error)
	listFn func(ctx context.Context, kind record.Kind) ([]record.Upload, error)
	getFn  func(ctx context.Context, kind record.Kind, batchID, format string) ([]byte, error)
	puts   int
}

func (m *mockArchive) Put(
	ctx context.Context, kind record.Kind, batchID, format string, raw []byte,
) (record.Upload, error) {
	m.puts++
	if m.putFn != nil {
		return m.putFn(ctx, kind, batchID, format, raw)
	}
	return record.Upload{Kind: kind, BatchID: batchID, Format: format, Size: int64(len(raw))}, nil
}

func (m *mockArchive) List(ctx context.Context, kind record.Kind) ([]record.Upload, error) {
	if m.listFn != nil {
		return m.listFn(ctx, kind)
	}
	return nil, nil
}

func (m *mockArchive) Get(ctx context.Context, kind record.Kind, batchID, format string) ([]byte, error) {
	if m.getFn != nil {
		return m.getFn(ctx, kind, batchID, format)
	}
	return nil, domain.ErrNotFound
}

const drugsJSON = `[
 {"Name":"Dr. Ahmed Ali","Patient Name":"Sara","ServiceCode":"P100","ServiceDescription":"Paracetamol","Net Amount":12.5,"Treatment Date":"2024-03-01"},
 {"Name":"Dr. Ahmed Ali","Patient Name":"Omar","ServiceCode":"I200","ServiceDescription":"Ibuprofen","Net Amount":30,"Treatment Date":"2024-03-05"},
 {"Name":"Dr. Mona Saleh","Patient Name":"Laila","ServiceCode":"A300","ServiceDescription":"Amoxicillin","Net Amount":55,"Treatment Date":"2024-02-20"}
]`

func newTestService(t *testing.T) (*Service, *mockBatches, *mockArchive) {
	t.Helper()
	mb := newMockBatches()
	ma := &mockArchive{}
	svc := New(mb, ma, Options{Suggest: suggest.DefaultConfig()}, zap.NewNop())
	ids := 0
	svc.newID = func() string {
		ids++
		return fmt.Sprintf("batch-%d", ids)
	}
	return svc, mb, ma
}

func seedDrugs(t *testing.T, svc *Service) record.BatchMeta {
	t.Helper()
	meta, err := svc.Replace(context.Background(), record.Drugs, record.FormatJSON, []byte(drugsJSON))
	if err != nil {
		t.Fatalf("Replace: %v", err)
	}
	return meta
}
