package records

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/laya1n/Haseef-sub000/internal/domain"
	"github.com/laya1n/Haseef-sub000/internal/domain/record"
	"github.com/laya1n/Haseef-sub000/internal/domain/search/suggest"
	"github.com/laya1n/Haseef-sub000/internal/metrics"
)

// snapshot is the in-memory view of one batch plus everything derived from it.
// Immutable once published.
type snapshot struct {
	meta    record.BatchMeta
	records []record.Record
	index   *suggest.Index
}

func (s *Service) newSnapshot(b record.Batch, schema *record.Schema) *snapshot {
	return &snapshot{
		meta:    b.BatchMeta,
		records: b.Records,
		index:   suggest.NewIndex(suggest.Build(b.Records, schema.Candidates), s.suggestCfg),
	}
}

// current returns the snapshot of the stored batch, rebuilding it when the stored
// batch ID differs from the cached one. When the store is unreachable the cached
// snapshot keeps serving.
func (s *Service) current(ctx context.Context, kind record.Kind) (*snapshot, *record.Schema, error) {
	schema, err := s.Schema(kind)
	if err != nil {
		return nil, nil, err
	}

	s.mu.RLock()
	cached := s.snaps[kind]
	s.mu.RUnlock()

	meta, err := s.batches.Meta(ctx, kind)
	if err != nil {
		if cached != nil && !errors.Is(err, domain.ErrBatchNotLoaded) {
			s.logger.Warn("Serving cached batch, store unavailable",
				zap.String("kind", string(kind)),
				zap.String("batch_id", cached.meta.ID),
				zap.Error(err),
			)
			return cached, schema, nil
		}
		return nil, nil, fmt.Errorf("batch meta: %w", err)
	}
	if cached != nil && cached.meta.ID == meta.ID {
		return cached, schema, nil
	}

	b, err := s.batches.Load(ctx, kind)
	if err != nil {
		return nil, nil, fmt.Errorf("load batch: %w", err)
	}
	snap := s.newSnapshot(b, schema)
	s.publish(kind, snap)
	metrics.BatchLoadsTotal.WithLabelValues(string(kind), "store").Inc()

	s.logger.Info("Batch loaded",
		zap.String("kind", string(kind)),
		zap.String("batch_id", b.ID),
		zap.Int("records", len(b.Records)),
	)
	return snap, schema, nil
}

// publish swaps the cached snapshot of kind.
func (s *Service) publish(kind record.Kind, snap *snapshot) {
	s.mu.Lock()
	s.snaps[kind] = snap
	s.mu.Unlock()
	metrics.BatchRecords.WithLabelValues(string(kind)).Set(float64(len(snap.records)))
}
