package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	domain "github.com/bryanwahyu/heartnote/internal/domain/history"
)

// KVRepository keeps each user's list as one JSON array under domain.Key(user).
type KVRepository struct {
	store domain.Store
	log   *zap.Logger
}

func NewKVRepository(store domain.Store, log *zap.Logger) *KVRepository {
	if log == nil {
		log = zap.NewNop()
	}
	return &KVRepository{store: store, log: log}
}

// Load never fails on storage trouble: a missing, unreadable or corrupt list is an empty list.
func (r *KVRepository) Load(ctx context.Context, user string) ([]domain.Record, error) {
	key := domain.Key(user)
	b, err := r.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			r.log.Warn("history load failed, starting empty", zap.String("key", key), zap.Error(err))
		}
		return []domain.Record{}, nil
	}
	var records []domain.Record
	if err := json.Unmarshal(b, &records); err != nil {
		r.log.Warn("history decode failed, starting empty", zap.String("key", key), zap.Error(err))
		return []domain.Record{}, nil
	}
	if records == nil {
		records = []domain.Record{}
	}
	return records, nil
}

// Save writes at most domain.MaxRecords records. When the store is full it keeps only the
// domain.TrimTo most recent and tries once more.
func (r *KVRepository) Save(ctx context.Context, user string, records []domain.Record) error {
	key := domain.Key(user)
	if len(records) > domain.MaxRecords {
		records = records[:domain.MaxRecords]
	}
	err := r.set(ctx, key, records)
	if !errors.Is(err, domain.ErrCapacityExceeded) || len(records) <= domain.TrimTo {
		return err
	}

	r.log.Warn("history store full, trimming",
		zap.String("key", key),
		zap.Int("from", len(records)),
		zap.Int("to", domain.TrimTo),
	)
	return r.set(ctx, key, records[:domain.TrimTo])
}

func (r *KVRepository) set(ctx context.Context, key string, records []domain.Record) error {
	if records == nil {
		records = []domain.Record{}
	}
	b, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("failed to encode history: %w", err)
	}
	if err := r.store.Set(ctx, key, b); err != nil {
		return fmt.Errorf("failed to save history: %w", err)
	}
	return nil
}
