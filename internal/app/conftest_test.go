package app

import (
	"context"
	"sync"
	"time"

	"github.com/kailas-cloud/keypoints/internal/db"
)

// memKV is an in-memory db.KVStore.
type memKV struct {
	mu   sync.Mutex
	data map[string][]byte
}

var _ db.KVStore = (*memKV)(nil)

func newMemKV() *memKV { return &memKV{data: make(map[string][]byte)} }

func (m *memKV) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return v, nil
}

func (m *memKV) GetMulti(_ context.Context, keys []string) ([][]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]byte, len(keys))
	for i, k := range keys {
		out[i] = m.data[k]
	}
	return out, nil
}

func (m *memKV) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *memKV) SetWithTTL(ctx context.Context, key string, value []byte, _ time.Duration) error {
	return m.Set(ctx, key, value)
}

func (m *memKV) IncrBy(context.Context, string, int64) error { return nil }

func (m *memKV) Expire(context.Context, string, time.Duration, bool) error { return nil }
