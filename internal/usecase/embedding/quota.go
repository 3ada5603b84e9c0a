package embedding

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/keypoints/internal/domain"
)

// QuotaAction defines behavior when the daily token quota is used up.
type QuotaAction string

const (
	// QuotaActionWarn logs a warning but allows the request.
	QuotaActionWarn QuotaAction = "warn"
	// QuotaActionReject blocks the request.
	QuotaActionReject QuotaAction = "reject"
)

// QuotaStore persists daily token counters. IncrBy may be called repeatedly for a key.
type QuotaStore interface {
	IncrBy(ctx context.Context, key string, val int64) error
	Get(ctx context.Context, key string) (int64, error)
}

// Quota tracks daily token usage in memory with optional write-behind persistence.
// Check never touches the store.
type Quota struct {
	mu        sync.Mutex
	used      int64
	limit     int64
	action    QuotaAction
	provider  string
	keyPrefix string
	day       time.Time
	now       func() time.Time
	store     QuotaStore
	logger    *zap.Logger
}

// NewQuota creates a quota of limit tokens per UTC day. A zero limit means unlimited.
func NewQuota(provider string, limit int64, action QuotaAction, logger *zap.Logger) *Quota {
	q := &Quota{
		limit:    limit,
		action:   action,
		provider: provider,
		now:      time.Now,
		logger:   logger,
	}
	q.day = truncateToDay(q.now())
	return q
}

// WithStore attaches a persistence store and loads today's counter.
// keyPrefix namespaces the counter keys.
func (q *Quota) WithStore(ctx context.Context, store QuotaStore, keyPrefix string) *Quota {
	q.store = store
	q.keyPrefix = keyPrefix
	q.load(ctx)
	return q
}

func (q *Quota) load(ctx context.Context) {
	q.mu.Lock()
	defer q.mu.Unlock()

	key := q.key(q.day)
	val, err := q.store.Get(ctx, key)
	if err != nil {
		q.logger.Warn("Failed to load embedding quota from store", zap.String("key", key), zap.Error(err))
		return
	}
	q.used = val

	q.logger.Info("Embedding quota loaded from store",
		zap.String("provider", q.provider),
		zap.Int64("used", q.used),
		zap.Int64("limit", q.limit),
	)
}

func (q *Quota) key(day time.Time) string {
	return fmt.Sprintf("%squota:%s:%s", q.keyPrefix, q.provider, day.Format("2006-01-02"))
}

// Check reports whether a new request is allowed.
func (q *Quota) Check(_ context.Context) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.rollover()
	if q.limit == 0 || q.used < q.limit {
		return nil
	}

	if q.action == QuotaActionReject {
		return fmt.Errorf("%d of %d daily tokens used: %w", q.used, q.limit, domain.ErrEmbeddingQuotaExceeded)
	}

	q.logger.Warn("Embedding token quota exceeded",
		zap.String("provider", q.provider),
		zap.Int64("used", q.used),
		zap.Int64("limit", q.limit),
	)
	return nil
}

// Record adds consumed tokens, then persists them if a store is attached.
func (q *Quota) Record(tokens int64) {
	q.mu.Lock()
	q.rollover()
	q.used += tokens
	store := q.store
	key := q.key(q.day)
	q.mu.Unlock()

	if store == nil {
		return
	}

	// Store writes must not block or fail the caller.
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := store.IncrBy(ctx, key, tokens); err != nil {
		q.logger.Warn("Failed to persist embedding quota", zap.String("key", key), zap.Error(err))
	}
}

// Remaining returns tokens left today, or -1 when unlimited.
func (q *Quota) Remaining() int64 {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.rollover()
	if q.limit == 0 {
		return -1
	}
	return max(q.limit-q.used, 0)
}

// Used returns tokens consumed today.
func (q *Quota) Used() int64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.rollover()
	return q.used
}

// Limit returns the daily token cap.
func (q *Quota) Limit() int64 { return q.limit }

// rollover zeroes the counter when the UTC day changes.
func (q *Quota) rollover() {
	today := truncateToDay(q.now())
	if today.After(q.day) {
		q.used = 0
		q.day = today
	}
}

func truncateToDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
