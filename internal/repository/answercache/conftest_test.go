package answercache

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/laya1n/Haseef-sub000/internal/db"
	"github.com/laya1n/Haseef-sub000/internal/domain"
)

type mockAssistant struct {
	result domain.Completion
	err    error
	calls  int
	health error
}

func (m *mockAssistant) Complete(_ context.Context, _ []domain.Message) (domain.Completion, error) {
	m.calls++
	return m.result, m.err
}

func (m *mockAssistant) HealthCheck(_ context.Context) error { return m.health }

type mockStore struct {
	getFn        func(ctx context.Context, key string) ([]byte, error)
	setWithTTLFn func(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

func (m *mockStore) Get(ctx context.Context, key string) ([]byte, error) {
	if m.getFn != nil {
		return m.getFn(ctx, key)
	}
	return nil, db.ErrKeyNotFound
}

func (m *mockStore) SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if m.setWithTTLFn != nil {
		return m.setWithTTLFn(ctx, key, value, ttl)
	}
	return nil
}

func newTestCache(t *testing.T, inner domain.Assistant) (*CachedAssistant, *mockStore) {
	t.Helper()
	ms := &mockStore{}
	return New(inner, ms, "haseef:", "gpt-4o-mini", 10*time.Minute, nil, zap.NewNop()), ms
}
