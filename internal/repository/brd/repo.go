// Package brd stores drafted business requirement documents as JSON values.
package brd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/kailas-cloud/keypoints/internal/db"
	"github.com/kailas-cloud/keypoints/internal/domain"
	dombrd "github.com/kailas-cloud/keypoints/internal/domain/brd"
)

// store is the consumer interface for BRDs (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	GetMulti(ctx context.Context, keys []string) ([][]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Scan(ctx context.Context, pattern string) ([]string, error)
}

type brdDTO struct {
	ID              string    `json:"id"`
	TranscriptionID string    `json:"transcription_id"`
	Selected        []string  `json:"selected_key_points"`
	Content         string    `json:"content"`
	Embedding       []float32 `json:"embedding"`
	CreatedAt       int64     `json:"created_at"`
}

// Repo implements usecase/brd.Repository.
type Repo struct {
	store     store
	keyPrefix string
	ttl       time.Duration
}

// New creates a BRD repository. A zero ttl keeps records forever.
func New(s store, keyPrefix string, ttl time.Duration) *Repo {
	return &Repo{store: s, keyPrefix: keyPrefix, ttl: ttl}
}

// Save writes b, replacing any record with the same ID.
func (r *Repo) Save(ctx context.Context, b *dombrd.BRD) error {
	data, err := json.Marshal(brdDTO{
		ID:              b.ID(),
		TranscriptionID: b.TranscriptionID(),
		Selected:        b.SelectedKeyPoints(),
		Content:         b.Content(),
		Embedding:       b.Embedding(),
		CreatedAt:       b.CreatedAt(),
	})
	if err != nil {
		return fmt.Errorf("marshal brd: %w", err)
	}

	key := r.key(b.ID())
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

// Get returns a BRD by ID.
func (r *Repo) Get(ctx context.Context, id string) (dombrd.BRD, error) {
	key := r.key(id)
	data, err := r.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return dombrd.BRD{}, fmt.Errorf("brd %q: %w", id, domain.ErrNotFound)
		}
		return dombrd.BRD{}, fmt.Errorf("get %s: %w", key, err)
	}
	return decode(key, data)
}

// List returns every stored BRD ordered by ID. Records that expired between
// SCAN and MGET are skipped.
func (r *Repo) List(ctx context.Context) ([]dombrd.BRD, error) {
	keys, err := r.store.Scan(ctx, r.keyPrefix+"brd:*")
	if err != nil {
		return nil, fmt.Errorf("scan brds: %w", err)
	}
	if len(keys) == 0 {
		return nil, nil
	}
	sort.Strings(keys)

	values, err := r.store.GetMulti(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("load %d brds: %w", len(keys), err)
	}

	out := make([]dombrd.BRD, 0, len(values))
	for i, data := range values {
		if data == nil {
			continue
		}
		b, err := decode(keys[i], data)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, nil
}

func (r *Repo) key(id string) string {
	return r.keyPrefix + "brd:" + id
}

func decode(key string, data []byte) (dombrd.BRD, error) {
	var dto brdDTO
	if err := json.Unmarshal(data, &dto); err != nil {
		return dombrd.BRD{}, fmt.Errorf("unmarshal %s: %w", key, err)
	}
	if dto.ID == "" {
		dto.ID = key[strings.LastIndex(key, ":")+1:]
	}
	return dombrd.Reconstruct(dto.ID, dto.TranscriptionID, dto.Selected, dto.Content, dto.Embedding, dto.CreatedAt), nil
}
