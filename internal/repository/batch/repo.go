// Package batch persists record batches: a msgpack blob per batch plus a meta hash
// pointing at the current one.
package batch

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/laya1n/Haseef-sub000/internal/db"
	"github.com/laya1n/Haseef-sub000/internal/domain"
	"github.com/laya1n/Haseef-sub000/internal/domain/record"
)

// store is the consumer interface for the batch repository (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
	Del(ctx context.Context, keys ...string) error
	Scan(ctx context.Context, pattern string) ([]string, error)
}

// Repo implements batch storage.
type Repo struct {
	store  store
	prefix string
}

// New creates a batch repository. prefix namespaces every key (e.g. "haseef:").
func New(s store, prefix string) *Repo {
	return &Repo{store: s, prefix: prefix}
}

// Meta returns the current batch metadata of kind.
// Returns domain.ErrBatchNotLoaded when no batch was saved yet.
func (r *Repo) Meta(ctx context.Context, kind record.Kind) (record.BatchMeta, error) {
	fields, err := r.store.HGetAll(ctx, r.metaKey(kind))
	if err != nil {
		return record.BatchMeta{}, fmt.Errorf("get batch meta %s: %w", kind, err)
	}
	if len(fields) == 0 {
		return record.BatchMeta{}, fmt.Errorf("batch %s: %w", kind, domain.ErrBatchNotLoaded)
	}
	m, err := metaFromHash(kind, fields)
	if err != nil {
		return record.BatchMeta{}, fmt.Errorf("decode batch meta %s: %w", kind, err)
	}
	return m, nil
}

// MetaAll returns metadata of every kind that has a batch, in the given order.
func (r *Repo) MetaAll(ctx context.Context, kinds []record.Kind) ([]record.BatchMeta, error) {
	keys := make([]string, len(kinds))
	for i, k := range kinds {
		keys[i] = r.metaKey(k)
	}
	hashes, err := r.store.HGetAllMulti(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("list batch meta: %w", err)
	}
	out := make([]record.BatchMeta, 0, len(hashes))
	for i, fields := range hashes {
		if len(fields) == 0 {
			continue
		}
		m, err := metaFromHash(kinds[i], fields)
		if err != nil {
			return nil, fmt.Errorf("decode batch meta %s: %w", kinds[i], err)
		}
		out = append(out, m)
	}
	return out, nil
}

// Load returns the current batch of kind with its records.
func (r *Repo) Load(ctx context.Context, kind record.Kind) (record.Batch, error) {
	m, err := r.Meta(ctx, kind)
	if err != nil {
		return record.Batch{}, err
	}
	data, err := r.store.Get(ctx, r.dataKey(kind, m.ID))
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return record.Batch{}, fmt.Errorf("batch %s data %s: %w", kind, m.ID, domain.ErrBatchNotLoaded)
		}
		return record.Batch{}, fmt.Errorf("get batch data %s: %w", kind, err)
	}
	records, err := decodeRecords(data)
	if err != nil {
		return record.Batch{}, fmt.Errorf("decode batch %s: %w", m.ID, err)
	}
	return record.Batch{BatchMeta: m, Records: records}, nil
}

// Save stores b as the current batch of its kind. The blob is written before
// the meta hash is switched, so readers never see a meta without data.
// Blobs of previous batches are removed afterwards.
func (r *Repo) Save(ctx context.Context, b record.Batch) error {
	if b.ID == "" {
		return fmt.Errorf("batch id is required")
	}
	if !b.Kind.IsValid() {
		return fmt.Errorf("batch %s: %w", b.Kind, domain.ErrUnknownKind)
	}

	data, err := encodeRecords(b.Records)
	if err != nil {
		return fmt.Errorf("encode batch %s: %w", b.ID, err)
	}
	if err := r.store.Set(ctx, r.dataKey(b.Kind, b.ID), data); err != nil {
		return fmt.Errorf("set batch data %s: %w", b.ID, err)
	}
	b.Count = len(b.Records)
	if err := r.store.HSet(ctx, r.metaKey(b.Kind), metaToHash(b.BatchMeta)); err != nil {
		return fmt.Errorf("set batch meta %s: %w", b.ID, err)
	}

	return r.prune(ctx, b.Kind, b.ID)
}

// prune deletes blobs of kind other than keepID.
func (r *Repo) prune(ctx context.Context, kind record.Kind, keepID string) error {
	keys, err := r.store.Scan(ctx, r.dataKey(kind, "*"))
	if err != nil {
		return fmt.Errorf("scan batch data %s: %w", kind, err)
	}
	keep := r.dataKey(kind, keepID)
	keys = slices.DeleteFunc(keys, func(k string) bool { return k == keep })
	if len(keys) == 0 {
		return nil
	}
	if err := r.store.Del(ctx, keys...); err != nil {
		return fmt.Errorf("delete stale batches %s: %w", kind, err)
	}
	return nil
}

func (r *Repo) metaKey(kind record.Kind) string {
	return fmt.Sprintf("%sbatch:%s", r.prefix, kind)
}

func (r *Repo) dataKey(kind record.Kind, id string) string {
	return fmt.Sprintf("%sbatch:%s:%s", r.prefix, kind, id)
}

func metaToHash(m record.BatchMeta) map[string]string {
	return map[string]string{
		fieldID:       m.ID,
		fieldCount:    strconv.Itoa(m.Count),
		fieldSource:   m.Source,
		fieldLoadedAt: strconv.FormatInt(m.LoadedAt.UnixMilli(), 10),
	}
}

func metaFromHash(kind record.Kind, h map[string]string) (record.BatchMeta, error) {
	m := record.BatchMeta{ID: h[fieldID], Kind: kind, Source: h[fieldSource]}
	if m.ID == "" {
		return record.BatchMeta{}, fmt.Errorf("missing %s", fieldID)
	}
	if v := h[fieldCount]; v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return record.BatchMeta{}, fmt.Errorf("parse %s: %w", fieldCount, err)
		}
		m.Count = n
	}
	if v := h[fieldLoadedAt]; v != "" {
		ms, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return record.BatchMeta{}, fmt.Errorf("parse %s: %w", fieldLoadedAt, err)
		}
		m.LoadedAt = time.UnixMilli(ms).UTC()
	}
	return m, nil
}

func encodeRecords(records []record.Record) ([]byte, error) {
	rows := make([]map[string]any, len(records))
	for i, r := range records {
		rows[i] = r
	}
	data, err := msgpack.Marshal(rows)
	if err != nil {
		return nil, fmt.Errorf("msgpack marshal: %w", err)
	}
	return data, nil
}

func decodeRecords(data []byte) ([]record.Record, error) {
	var rows []map[string]any
	if err := msgpack.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("msgpack unmarshal: %w", err)
	}
	out := make([]record.Record, len(rows))
	for i, row := range rows {
		out[i] = record.Record(row)
	}
	return out, nil
}
