// Package budget persists assistant token counters per day and per month.
package budget

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/laya1n/Haseef-sub000/internal/db"
	"github.com/laya1n/Haseef-sub000/internal/domain"
)

// store is the consumer interface for budget operations (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	IncrByWithTTL(ctx context.Context, key string, val int64, ttl time.Duration) (int64, error)
}

// Store keeps counters as INCRBY keys that expire after their window.
type Store struct {
	store    store
	prefix   string
	dailyTTL time.Duration
	monthTTL time.Duration
}

// New creates a budget store.
// dailyTTL is the TTL for daily keys (recommended: 48h).
// monthTTL is the TTL for monthly keys (recommended: 62 days).
func New(s store, prefix string, dailyTTL, monthTTL time.Duration) *Store {
	return &Store{
		store:    s,
		prefix:   prefix,
		dailyTTL: dailyTTL,
		monthTTL: monthTTL,
	}
}

// Add atomically adds tokens to the counter of the window containing at.
func (s *Store) Add(ctx context.Context, p domain.BudgetPeriod, at time.Time, tokens int64) error {
	key := s.Key(p, at)
	// The first write of a window fixes its expiry.
	if _, err := s.store.IncrByWithTTL(ctx, key, tokens, s.ttl(p)); err != nil {
		return fmt.Errorf("budget add %s: %w", key, err)
	}
	return nil
}

// Used returns the counter of the window containing at. Missing keys read as 0.
func (s *Store) Used(ctx context.Context, p domain.BudgetPeriod, at time.Time) (int64, error) {
	key := s.Key(p, at)
	data, err := s.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return 0, nil
		}
		return 0, fmt.Errorf("budget GET %s: %w", key, err)
	}

	val, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("budget GET %s parse: %w", key, err)
	}
	return val, nil
}

// Key returns the counter key, e.g. haseef:budget:assistant:daily:2024-03-01.
func (s *Store) Key(p domain.BudgetPeriod, at time.Time) string {
	at = at.UTC()
	if p == domain.BudgetDaily {
		return fmt.Sprintf("%sbudget:assistant:daily:%s", s.prefix, at.Format("2006-01-02"))
	}
	return fmt.Sprintf("%sbudget:assistant:monthly:%s", s.prefix, at.Format("2006-01"))
}

func (s *Store) ttl(p domain.BudgetPeriod) time.Duration {
	if p == domain.BudgetDaily {
		return s.dailyTTL
	}
	return s.monthTTL
}
