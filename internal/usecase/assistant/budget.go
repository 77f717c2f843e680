package assistant

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/laya1n/Haseef-sub000/internal/domain"
)

// BudgetAction defines behavior when the token budget is exceeded.
type BudgetAction string

const (
	// BudgetActionWarn logs a warning but allows the request.
	BudgetActionWarn BudgetAction = "warn"
	// BudgetActionReject blocks the request.
	BudgetActionReject BudgetAction = "reject"
)

// BudgetStore is the persistence interface for budget counters.
type BudgetStore interface {
	Add(ctx context.Context, p domain.BudgetPeriod, at time.Time, tokens int64) error
	Used(ctx context.Context, p domain.BudgetPeriod, at time.Time) (int64, error)
}

// BudgetTracker keeps daily and monthly token counters in memory and
// writes them behind to an optional store shared by all replicas.
type BudgetTracker struct {
	mu           sync.Mutex
	dailyUsed    int64
	monthlyUsed  int64
	dailyLimit   int64
	monthlyLimit int64
	action       BudgetAction
	day          time.Time
	month        time.Time
	store        BudgetStore
	now          func() time.Time
	logger       *zap.Logger
}

// NewBudgetTracker creates a tracker. Zero limits mean unlimited.
func NewBudgetTracker(dailyLimit, monthlyLimit int64, action BudgetAction, logger *zap.Logger) *BudgetTracker {
	b := &BudgetTracker{
		dailyLimit:   dailyLimit,
		monthlyLimit: monthlyLimit,
		action:       action,
		now:          func() time.Time { return time.Now().UTC() },
		logger:       logger,
	}
	now := b.now()
	b.day, b.month = truncateToDay(now), truncateToMonth(now)
	return b
}

// WithStore attaches a persistence store and loads the current counters from it.
func (b *BudgetTracker) WithStore(ctx context.Context, store BudgetStore) *BudgetTracker {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.store = store
	now := b.now()
	if v, err := store.Used(ctx, domain.BudgetDaily, now); err == nil {
		b.dailyUsed = v
	} else {
		b.logger.Warn("Failed to load daily budget from store", zap.Error(err))
	}
	if v, err := store.Used(ctx, domain.BudgetMonthly, now); err == nil {
		b.monthlyUsed = v
	} else {
		b.logger.Warn("Failed to load monthly budget from store", zap.Error(err))
	}

	b.logger.Info("Assistant budget loaded",
		zap.Int64("daily_used", b.dailyUsed),
		zap.Int64("monthly_used", b.monthlyUsed),
	)
	return b
}

// Check verifies the budget allows a new request. In-memory only.
func (b *BudgetTracker) Check(_ context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.rollover()

	dailyExceeded := b.dailyLimit > 0 && b.dailyUsed >= b.dailyLimit
	monthlyExceeded := b.monthlyLimit > 0 && b.monthlyUsed >= b.monthlyLimit
	if !dailyExceeded && !monthlyExceeded {
		return nil
	}

	if b.action == BudgetActionReject {
		return domain.ErrAssistantQuotaExceeded
	}

	b.logger.Warn("Assistant token budget exceeded",
		zap.Int64("daily_used", b.dailyUsed),
		zap.Int64("daily_limit", b.dailyLimit),
		zap.Int64("monthly_used", b.monthlyUsed),
		zap.Int64("monthly_limit", b.monthlyLimit),
	)
	return nil
}

// Record adds consumed tokens and persists them when a store is attached.
func (b *BudgetTracker) Record(ctx context.Context, tokens int64) {
	if tokens <= 0 {
		return
	}
	b.mu.Lock()
	b.rollover()
	b.dailyUsed += tokens
	b.monthlyUsed += tokens
	store := b.store
	now := b.now()
	b.mu.Unlock()

	if store == nil {
		return
	}

	// Detached from the request so a cancelled client does not lose the count.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()

	for _, p := range []domain.BudgetPeriod{domain.BudgetDaily, domain.BudgetMonthly} {
		if err := store.Add(ctx, p, now, tokens); err != nil {
			b.logger.Warn("Failed to persist assistant budget", zap.String("period", string(p)), zap.Error(err))
		}
	}
}

// Remaining returns tokens left in the period (-1 if unlimited).
func (b *BudgetTracker) Remaining(p domain.BudgetPeriod) int64 {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.rollover()
	limit, used := b.monthlyLimit, b.monthlyUsed
	if p == domain.BudgetDaily {
		limit, used = b.dailyLimit, b.dailyUsed
	}
	if limit == 0 {
		return -1
	}
	return max(limit-used, 0)
}

// rollover zeroes counters when the day or month changes.
func (b *BudgetTracker) rollover() {
	now := b.now()
	if today := truncateToDay(now); today.After(b.day) {
		b.dailyUsed = 0
		b.day = today
	}
	if thisMonth := truncateToMonth(now); thisMonth.After(b.month) {
		b.monthlyUsed = 0
		b.month = thisMonth
	}
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func truncateToMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}
