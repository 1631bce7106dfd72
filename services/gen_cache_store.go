package services

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/TiltedFt/ai-learning-flashcards/model"
)

// GenCacheStore persists generated question payloads keyed by content
// fingerprint. Entries are write-once: PutIfAbsent never overwrites an
// existing key, so the first successful generation wins permanently.
type GenCacheStore struct {
	db *gorm.DB
}

func NewGenCacheStore(db *gorm.DB) *GenCacheStore {
	return &GenCacheStore{db: db}
}

// Get returns the cache entry for key, or nil without error on a miss.
func (s *GenCacheStore) Get(ctx context.Context, key string) (*model.GenCache, error) {
	var entry model.GenCache
	err := s.db.WithContext(ctx).Where("key = ?", key).First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// PutIfAbsent stores a payload under key unless one already exists.
// Losing the insert race is not an error: the stored entry for a given
// key is always equivalent, since the key hashes the generation input.
func (s *GenCacheStore) PutIfAbsent(ctx context.Context, key, payload string, tokens int) error {
	entry := model.GenCache{
		Key:           key,
		Payload:       payload,
		Tokens:        tokens,
		SchemaVersion: model.GenCacheSchemaVersion,
	}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "key"}}, DoNothing: true}).
		Create(&entry).Error
}
