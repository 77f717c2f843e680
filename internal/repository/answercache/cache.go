// Package answercache caches assistant completions keyed by the full conversation.
package answercache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/vmihailenco/msgpack/v5"
	"go.uber.org/zap"

	"github.com/laya1n/Haseef-sub000/internal/db"
	"github.com/laya1n/Haseef-sub000/internal/domain"
)

// store is the consumer interface for the answer cache (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// entry is the msgpack payload stored per conversation.
type entry struct {
	Content string `msgpack:"c"`
	Model   string `msgpack:"m,omitempty"`
}

// CachedAssistant serves repeated conversations from a key-value store.
type CachedAssistant struct {
	inner      domain.Assistant
	store      store
	prefix     string
	model      string
	ttl        time.Duration
	cacheTotal *prometheus.CounterVec
	logger     *zap.Logger
}

// New creates a caching decorator.
// model is part of the key so switching models never serves stale answers.
// cacheTotal is a counter vec with label "result" ("hit"/"miss"), passed explicitly.
func New(
	inner domain.Assistant,
	s store,
	prefix, model string,
	ttl time.Duration,
	cacheTotal *prometheus.CounterVec,
	logger *zap.Logger,
) *CachedAssistant {
	return &CachedAssistant{
		inner:      inner,
		store:      s,
		prefix:     prefix,
		model:      model,
		ttl:        ttl,
		cacheTotal: cacheTotal,
		logger:     logger,
	}
}

// Complete returns a cached completion or calls the inner assistant.
// Cache hit: token counts are zero (nothing consumed).
func (c *CachedAssistant) Complete(ctx context.Context, messages []domain.Message) (domain.Completion, error) {
	key, err := c.cacheKey(messages)
	if err != nil {
		return domain.Completion{}, err
	}

	if content, ok := c.getFromCache(ctx, key); ok {
		c.incCache("hit")
		return domain.Completion{Content: content}, nil
	}

	c.incCache("miss")

	res, err := c.inner.Complete(ctx, messages)
	if err != nil {
		return domain.Completion{}, fmt.Errorf("cached complete: %w", err)
	}

	c.putToCache(ctx, key, res.Content)
	return res, nil
}

// HealthCheck delegates to the inner assistant when it supports health checks.
func (c *CachedAssistant) HealthCheck(ctx context.Context) error {
	if hc, ok := c.inner.(domain.HealthChecker); ok {
		return hc.HealthCheck(ctx) //nolint:wrapcheck // transparent decorator
	}
	return nil
}

func (c *CachedAssistant) incCache(result string) {
	if c.cacheTotal != nil {
		c.cacheTotal.WithLabelValues(result).Inc()
	}
}

func (c *CachedAssistant) cacheKey(messages []domain.Message) (string, error) {
	payload := make([][2]string, len(messages))
	for i, m := range messages {
		payload[i] = [2]string{m.Role, m.Content}
	}
	data, err := msgpack.Marshal(struct {
		Model    string      `msgpack:"m"`
		Messages [][2]string `msgpack:"t"`
	}{c.model, payload})
	if err != nil {
		return "", fmt.Errorf("encode cache key: %w", err)
	}
	h := sha256.Sum256(data)
	return c.prefix + "answer_cache:" + hex.EncodeToString(h[:]), nil
}

func (c *CachedAssistant) getFromCache(ctx context.Context, key string) (string, bool) {
	data, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, db.ErrKeyNotFound) {
			c.logger.Warn("Failed to get cached answer", zap.String("key", key), zap.Error(err))
		}
		return "", false
	}
	if len(data) == 0 {
		return "", false
	}

	var e entry
	if err := msgpack.Unmarshal(data, &e); err != nil {
		c.logger.Warn("Failed to parse cached answer", zap.String("key", key), zap.Error(err))
		return "", false
	}
	if e.Content == "" {
		return "", false
	}
	return e.Content, true
}

func (c *CachedAssistant) putToCache(ctx context.Context, key, content string) {
	if content == "" {
		return
	}
	data, err := msgpack.Marshal(entry{Content: content, Model: c.model})
	if err != nil {
		c.logger.Warn("Failed to encode answer", zap.String("key", key), zap.Error(err))
		return
	}
	if err := c.store.SetWithTTL(ctx, key, data, c.ttl); err != nil {
		c.logger.Warn("Failed to cache answer", zap.String("key", key), zap.Error(err))
	}
}
