// Package quota persists daily embedding token counters.
package quota

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/kailas-cloud/keypoints/internal/db"
)

// DefaultTTL keeps a daily counter a little past its day.
const DefaultTTL = 48 * time.Hour

// store is the consumer interface for quota operations (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	IncrBy(ctx context.Context, key string, val int64) error
	Expire(ctx context.Context, key string, ttl time.Duration, nx bool) error
}

// Store implements embedding.QuotaStore on top of the DB (INCRBY + EXPIRE NX).
type Store struct {
	store store
	ttl   time.Duration
}

// New creates a quota store. A zero ttl selects DefaultTTL.
func New(s store, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{store: s, ttl: ttl}
}

// IncrBy atomically increments the counter and sets its TTL once.
func (s *Store) IncrBy(ctx context.Context, key string, val int64) error {
	if err := s.store.IncrBy(ctx, key, val); err != nil {
		return fmt.Errorf("quota INCRBY %s: %w", key, err)
	}
	// NX keeps the first expiry so repeated increments do not extend it.
	if err := s.store.Expire(ctx, key, s.ttl, true); err != nil {
		return fmt.Errorf("quota EXPIRE %s: %w", key, err)
	}
	return nil
}

// Get returns the counter value, or 0 when the key does not exist.
func (s *Store) Get(ctx context.Context, key string) (int64, error) {
	data, err := s.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return 0, nil
		}
		return 0, fmt.Errorf("quota GET %s: %w", key, err)
	}

	val, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("quota GET %s parse: %w", key, err)
	}
	return val, nil
}
