// Package transcription stores processed transcriptions as JSON values.
package transcription

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/kailas-cloud/keypoints/internal/db"
	"github.com/kailas-cloud/keypoints/internal/domain"
	domtr "github.com/kailas-cloud/keypoints/internal/domain/transcription"
)

// store is the consumer interface for transcriptions (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Repo implements usecase/transcription.Repository.
type Repo struct {
	store     store
	keyPrefix string
	ttl       time.Duration
}

// New creates a transcription repository. A zero ttl keeps records forever.
func New(s store, keyPrefix string, ttl time.Duration) *Repo {
	return &Repo{store: s, keyPrefix: keyPrefix, ttl: ttl}
}

// Save writes t, replacing any record with the same ID.
func (r *Repo) Save(ctx context.Context, t *domtr.Transcription) error {
	data, err := json.Marshal(toDTO(t))
	if err != nil {
		return fmt.Errorf("marshal transcription: %w", err)
	}

	key := r.key(t.ID())
	if r.ttl > 0 {
		err = r.store.SetWithTTL(ctx, key, data, r.ttl)
	} else {
		err = r.store.Set(ctx, key, data)
	}
	if err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

// Get returns a transcription by ID.
func (r *Repo) Get(ctx context.Context, id string) (domtr.Transcription, error) {
	key := r.key(id)
	data, err := r.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return domtr.Transcription{}, fmt.Errorf("transcription %q: %w", id, domain.ErrNotFound)
		}
		return domtr.Transcription{}, fmt.Errorf("get %s: %w", key, err)
	}

	var dto transcriptionDTO
	if err := json.Unmarshal(data, &dto); err != nil {
		return domtr.Transcription{}, fmt.Errorf("unmarshal %s: %w", key, err)
	}
	return dto.toDomain(), nil
}

func (r *Repo) key(id string) string {
	return r.keyPrefix + "transcription:" + id
}
