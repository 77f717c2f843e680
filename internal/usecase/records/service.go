package records

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/laya1n/Haseef-sub000/internal/domain"
	"github.com/laya1n/Haseef-sub000/internal/domain/record"
	"github.com/laya1n/Haseef-sub000/internal/domain/search/filter"
	"github.com/laya1n/Haseef-sub000/internal/domain/search/suggest"
	"github.com/laya1n/Haseef-sub000/internal/domain/search/summary"
	"github.com/laya1n/Haseef-sub000/internal/metrics"
)

// Options tunes paging and autocomplete.
type Options struct {
	Suggest         suggest.Config
	DefaultPageSize int
	MaxPageSize     int
}

// QueryResult is one page of the filtered batch plus the summary of the whole filtered set.
type QueryResult struct {
	Batch      record.BatchMeta
	Records    []record.Record
	Total      int
	Summary    summary.Summary
	DidYouMean *suggest.Candidate
}

// Service serves filtered views over the current batch of every record kind.
type Service struct {
	batches    BatchRepository
	archive    UploadArchive
	schemas    map[record.Kind]*record.Schema
	suggestCfg suggest.Config
	pageSize   int
	maxPage    int
	logger     *zap.Logger
	newID      func() string
	now        func() time.Time

	mu    sync.RWMutex
	snaps map[record.Kind]*snapshot
}

// New creates a records service. archive can be nil (uploads are not kept).
func New(batches BatchRepository, archive UploadArchive, opts Options, logger *zap.Logger) *Service {
	schemas := make(map[record.Kind]*record.Schema)
	for k, sc := range record.DefaultSchemas() {
		schemas[k] = &sc
	}
	if opts.DefaultPageSize <= 0 {
		opts.DefaultPageSize = filter.DefaultPageSize
	}
	if opts.MaxPageSize <= 0 {
		opts.MaxPageSize = filter.MaxPageSize
	}
	return &Service{
		batches:    batches,
		archive:    archive,
		schemas:    schemas,
		suggestCfg: opts.Suggest,
		pageSize:   opts.DefaultPageSize,
		maxPage:    opts.MaxPageSize,
		logger:     logger,
		newID:      uuid.NewString,
		now:        func() time.Time { return time.Now().UTC() },
		snaps:      make(map[record.Kind]*snapshot),
	}
}

// Schema returns the schema of kind.
func (s *Service) Schema(kind record.Kind) (*record.Schema, error) {
	sc, ok := s.schemas[kind]
	if !ok {
		return nil, fmt.Errorf("kind %q: %w", kind, domain.ErrUnknownKind)
	}
	return sc, nil
}

// Query filters the current batch of kind and returns one page of it.
// DidYouMean is set when a search query matched nothing and a close candidate exists.
func (s *Service) Query(
	ctx context.Context, kind record.Kind, state filter.State, offset, limit int,
) (QueryResult, error) {
	snap, schema, err := s.current(ctx, kind)
	if err != nil {
		return QueryResult{}, err
	}

	start := time.Now()
	filtered := filter.Apply(snap.records, schema, state)
	res := QueryResult{
		Batch:   snap.meta,
		Records: filter.Page(filtered, offset, s.clampLimit(limit)),
		Total:   len(filtered),
		Summary: summary.Summarize(filtered, schema),
	}
	s.observe(kind, "query", start, len(filtered))

	if len(filtered) == 0 && state.Searching() {
		if c, ok := s.correct(kind, snap, state.Query()); ok {
			res.DidYouMean = &c
		}
	}
	return res, nil
}

// AlertsResult is one page of the alert feed of a kind.
type AlertsResult struct {
	Batch   record.BatchMeta
	Records []record.Record
	Counts  summary.AlertCounts
}

// Alerts lists the emergency and referral records of the filtered batch of kind.
// Emergencies come first unless the state sets its own ordering.
func (s *Service) Alerts(
	ctx context.Context, kind record.Kind, state filter.State, offset, limit int,
) (AlertsResult, error) {
	snap, schema, err := s.current(ctx, kind)
	if err != nil {
		return AlertsResult{}, err
	}

	start := time.Now()
	alerts, counts := summary.Alerts(filter.Apply(snap.records, schema, state), schema)
	if state.Priority() == filter.PriorityNone {
		alerts = filter.Sort(alerts, schema, filter.PriorityUrgency)
	}
	s.observe(kind, "alerts", start, counts.Total)
	return AlertsResult{
		Batch:   snap.meta,
		Records: filter.Page(alerts, offset, s.clampLimit(limit)),
		Counts:  counts,
	}, nil
}

// Filtered returns up to max records of the filtered batch (0 means all).
func (s *Service) Filtered(
	ctx context.Context, kind record.Kind, state filter.State, maxRecords int,
) ([]record.Record, error) {
	snap, schema, err := s.current(ctx, kind)
	if err != nil {
		return nil, err
	}
	out := filter.Apply(snap.records, schema, state)
	if maxRecords > 0 && len(out) > maxRecords {
		out = out[:maxRecords]
	}
	return out, nil
}

// Summary aggregates the filtered batch of kind.
func (s *Service) Summary(ctx context.Context, kind record.Kind, state filter.State) (summary.Summary, error) {
	snap, schema, err := s.current(ctx, kind)
	if err != nil {
		return summary.Summary{}, err
	}

	start := time.Now()
	filtered := filter.Apply(snap.records, schema, state)
	sum := summary.Summarize(filtered, schema)
	s.observe(kind, "summary", start, len(filtered))
	return sum, nil
}

// Export writes the filtered batch of kind as CSV in schema column order.
// Returns the number of records written.
func (s *Service) Export(ctx context.Context, kind record.Kind, state filter.State, w io.Writer) (int, error) {
	snap, schema, err := s.current(ctx, kind)
	if err != nil {
		return 0, err
	}

	start := time.Now()
	filtered := filter.Apply(snap.records, schema, state)
	if err := record.EncodeCSV(w, schema.Fields, filtered); err != nil {
		return 0, fmt.Errorf("export %s: %w", kind, err)
	}
	s.observe(kind, "export", start, len(filtered))
	return len(filtered), nil
}

// Suggest returns autocomplete candidates for q. limit <= 0 uses the configured default.
func (s *Service) Suggest(ctx context.Context, kind record.Kind, q string, limit int) ([]suggest.Candidate, error) {
	snap, _, err := s.current(ctx, kind)
	if err != nil {
		return nil, err
	}

	out := snap.index.Suggest(q, limit)
	result := "hit"
	if len(out) == 0 {
		result = "empty"
	}
	metrics.SuggestionsTotal.WithLabelValues(string(kind), result).Inc()
	return out, nil
}

// DidYouMean returns the closest candidate to q within the typo threshold.
func (s *Service) DidYouMean(ctx context.Context, kind record.Kind, q string) (suggest.Candidate, bool, error) {
	snap, _, err := s.current(ctx, kind)
	if err != nil {
		return suggest.Candidate{}, false, err
	}
	c, ok := s.correct(kind, snap, q)
	return c, ok, nil
}

func (s *Service) correct(kind record.Kind, snap *snapshot, q string) (suggest.Candidate, bool) {
	if !snap.index.Eligible(q) {
		return suggest.Candidate{}, false
	}
	c, ok := snap.index.DidYouMean(q)
	result := "none"
	if ok {
		result = "suggested"
	}
	metrics.CorrectionsTotal.WithLabelValues(string(kind), result).Inc()
	return c, ok
}

// Replace decodes an upload, stores it as the new batch of kind and makes it current.
// The raw payload is archived when an archive is configured; archive failures are logged only.
func (s *Service) Replace(ctx context.Context, kind record.Kind, format string, raw []byte) (record.BatchMeta, error) {
	schema, err := s.Schema(kind)
	if err != nil {
		return record.BatchMeta{}, err
	}

	recs, err := record.Decode(format, bytes.NewReader(raw))
	if err != nil {
		return record.BatchMeta{}, fmt.Errorf("decode upload: %w", err)
	}
	if len(recs) == 0 {
		return record.BatchMeta{}, fmt.Errorf("%w: no records", domain.ErrInvalidBatch)
	}

	b := record.Batch{
		BatchMeta: record.BatchMeta{
			ID:       s.newID(),
			Kind:     kind,
			Count:    len(recs),
			Source:   "upload:" + format,
			LoadedAt: s.now(),
		},
		Records: schema.Canonicalize(recs),
	}
	if err := s.batches.Save(ctx, b); err != nil {
		return record.BatchMeta{}, fmt.Errorf("save batch: %w", err)
	}
	s.publish(kind, s.newSnapshot(b, schema))
	metrics.BatchLoadsTotal.WithLabelValues(string(kind), "upload").Inc()

	if s.archive != nil {
		if _, err := s.archive.Put(ctx, kind, b.ID, format, raw); err != nil {
			s.logger.Warn("Failed to archive upload",
				zap.String("kind", string(kind)),
				zap.String("batch_id", b.ID),
				zap.Error(err),
			)
		}
	}

	s.logger.Info("Batch replaced",
		zap.String("kind", string(kind)),
		zap.String("batch_id", b.ID),
		zap.Int("records", b.Count),
	)
	return b.BatchMeta, nil
}

// Batches returns metadata of every loaded kind.
func (s *Service) Batches(ctx context.Context) ([]record.BatchMeta, error) {
	metas, err := s.batches.MetaAll(ctx, record.Kinds())
	if err != nil {
		return nil, fmt.Errorf("list batches: %w", err)
	}
	return metas, nil
}

// Uploads lists archived uploads of kind, newest first. Empty when no archive is configured.
func (s *Service) Uploads(ctx context.Context, kind record.Kind) ([]record.Upload, error) {
	if _, err := s.Schema(kind); err != nil {
		return nil, err
	}
	if s.archive == nil {
		return []record.Upload{}, nil
	}
	ups, err := s.archive.List(ctx, kind)
	if err != nil {
		return nil, fmt.Errorf("list uploads: %w", err)
	}
	return ups, nil
}

// Upload returns an archived upload of kind and its raw payload.
func (s *Service) Upload(ctx context.Context, kind record.Kind, batchID string) (record.Upload, []byte, error) {
	ups, err := s.Uploads(ctx, kind)
	if err != nil {
		return record.Upload{}, nil, err
	}
	for _, u := range ups {
		if u.BatchID != batchID {
			continue
		}
		raw, err := s.archive.Get(ctx, kind, u.BatchID, u.Format)
		if err != nil {
			return record.Upload{}, nil, fmt.Errorf("get upload: %w", err)
		}
		return u, raw, nil
	}
	return record.Upload{}, nil, fmt.Errorf("upload %s/%s: %w", kind, batchID, domain.ErrNotFound)
}

// HealthCheck fails when no kind has a batch.
func (s *Service) HealthCheck(ctx context.Context) error {
	metas, err := s.Batches(ctx)
	if err != nil {
		return err
	}
	if len(metas) == 0 {
		return domain.ErrBatchNotLoaded
	}
	return nil
}

func (s *Service) clampLimit(limit int) int {
	if limit <= 0 {
		return s.pageSize
	}
	return min(limit, s.maxPage)
}

func (s *Service) observe(kind record.Kind, op string, start time.Time, n int) {
	metrics.PipelineDuration.WithLabelValues(string(kind), op).Observe(time.Since(start).Seconds())
	if op == "query" {
		metrics.PipelineResultRecords.WithLabelValues(string(kind)).Observe(float64(n))
	}
}

// isNotLoaded reports a kind without a stored batch.
func isNotLoaded(err error) bool {
	return errors.Is(err, domain.ErrBatchNotLoaded)
}
