// Package repository persists each store's collection as one JSON document
// under a fixed key of the key-value store.
package repository

import (
	"context"
	"encoding/json"

	apperrors "github.com/vladimiradmaev/ai-trainer/internal/errors"
	"github.com/vladimiradmaev/ai-trainer/internal/kvstore"
)

// Snapshot keys
const (
	KeyUser           = "user"
	KeyDailyNutrition = "dailyNutrition"
	KeyChatSessions   = "chatSessions"
	KeyWeightEntries  = "weightEntries"
	KeyProgressPhotos = "progressPhotos"
	KeyFoodCatalog    = "foodCatalog"
	KeyWidgetTarget   = "widget.target"
	KeyWidgetConsumed = "widget.consumed"
)

// Snapshot loads and saves a whole value of type T under one key.
type Snapshot[T any] struct {
	store kvstore.Store
	key   string
}

// NewSnapshot creates a snapshot repository for key
func NewSnapshot[T any](store kvstore.Store, key string) *Snapshot[T] {
	return &Snapshot[T]{store: store, key: key}
}

// Key returns the storage key
func (s *Snapshot[T]) Key() string {
	return s.key
}

// Load reads the stored value. ok is false when nothing was saved yet.
func (s *Snapshot[T]) Load(ctx context.Context) (T, bool, error) {
	var value T

	raw, ok, err := s.store.Get(ctx, s.key)
	if err != nil {
		return value, false, apperrors.NewStorageError(err, s.key)
	}
	if !ok {
		return value, false, nil
	}

	if err := json.Unmarshal([]byte(raw), &value); err != nil {
		return value, false, apperrors.NewStorageError(err, s.key).WithContext("stage", "decode")
	}
	return value, true, nil
}

// Save replaces the stored value
func (s *Snapshot[T]) Save(ctx context.Context, value T) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return apperrors.NewStorageError(err, s.key).WithContext("stage", "encode")
	}
	if err := s.store.Set(ctx, s.key, string(raw)); err != nil {
		return apperrors.NewStorageError(err, s.key)
	}
	return nil
}

// Clear deletes the stored value
func (s *Snapshot[T]) Clear(ctx context.Context) error {
	if err := s.store.Delete(ctx, s.key); err != nil {
		return apperrors.NewStorageError(err, s.key)
	}
	return nil
}
