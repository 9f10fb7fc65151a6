package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vladimiradmaev/ai-trainer/internal/domain"
	apperrors "github.com/vladimiradmaev/ai-trainer/internal/errors"
	"github.com/vladimiradmaev/ai-trainer/internal/kvstore"
)

func TestSnapshotRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := kvstore.NewMemoryStore()
	repo := NewWeightRepository(store)

	_, ok, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	entries := []domain.WeightEntry{
		{ID: "w1", Date: time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC), Weight: 80.5},
	}
	require.NoError(t, repo.Save(ctx, entries))

	raw, ok, err := store.Get(ctx, KeyWeightEntries)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Contains(t, raw, `"weight":80.5`)

	loaded, ok, err := repo.Load(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, entries, loaded)

	require.NoError(t, repo.Clear(ctx))
	_, ok, err = repo.Load(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestChatStateKeepsNullCurrentSession(t *testing.T) {
	ctx := context.Background()
	store := kvstore.NewMemoryStore()
	repo := NewChatRepository(store)

	require.NoError(t, repo.Save(ctx, ChatState{Sessions: []domain.ChatSession{}}))

	raw, _, err := store.Get(ctx, KeyChatSessions)
	require.NoError(t, err)
	assert.JSONEq(t, `{"sessions":[],"currentSessionId":null}`, raw)
}

func TestSnapshotCorruptValue(t *testing.T) {
	ctx := context.Background()
	store := kvstore.NewMemoryStore()
	require.NoError(t, store.Set(ctx, KeyUser, "{not json"))

	_, _, err := NewUserRepository(store).Load(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrStorage)
}
