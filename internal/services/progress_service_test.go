package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vladimiradmaev/ai-trainer/internal/domain"
	apperrors "github.com/vladimiradmaev/ai-trainer/internal/errors"
	"github.com/vladimiradmaev/ai-trainer/internal/kvstore"
	"github.com/vladimiradmaev/ai-trainer/internal/repository"
)

func newProgress(t *testing.T, store kvstore.Store) *ProgressService {
	t.Helper()
	s := NewProgressService(repository.NewWeightRepository(store), repository.NewPhotoRepository(store), testOptions()...)
	require.NoError(t, s.Load(context.Background()))
	return s
}

func TestWeightEntriesRangeAscending(t *testing.T) {
	ctx := context.Background()
	s := newProgress(t, kvstore.NewMemoryStore())

	for _, e := range []domain.WeightEntry{
		{Date: at(9, 8), Weight: 80},
		{Date: at(5, 8), Weight: 81},
		{Date: at(7, 8), Weight: 80.5},
		{Date: at(1, 8), Weight: 82},
	} {
		_, err := s.AddWeightEntry(ctx, e)
		require.NoError(t, err)
	}

	got := s.GetWeightEntries(at(5, 8), at(9, 8))
	require.Len(t, got, 3)
	assert.Equal(t, []float64{81, 80.5, 80}, []float64{got[0].Weight, got[1].Weight, got[2].Weight})

	latest, ok := s.LatestWeight()
	require.True(t, ok)
	assert.Equal(t, 80.0, latest.Weight)
}

func TestWeightValidationAndNotFound(t *testing.T) {
	ctx := context.Background()
	s := newProgress(t, kvstore.NewMemoryStore())

	_, err := s.AddWeightEntry(ctx, domain.WeightEntry{Weight: 0})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	assert.ErrorIs(t, s.DeleteWeightEntry(ctx, "x"), apperrors.ErrNotFound)
	assert.ErrorIs(t, s.UpdateWeightEntryNotes(ctx, "x", "n"), apperrors.ErrNotFound)
	assert.ErrorIs(t, s.DeleteProgressPhoto(ctx, "x"), apperrors.ErrNotFound)
	assert.ErrorIs(t, s.UpdatePhotoNotes(ctx, "x", "n"), apperrors.ErrNotFound)
}

func TestWeightTrendAveragesPerDay(t *testing.T) {
	ctx := context.Background()
	s := newProgress(t, kvstore.NewMemoryStore())

	entries := []domain.WeightEntry{
		{Date: at(10, 7), Weight: 80.0},
		{Date: at(10, 21), Weight: 80.5},
		{Date: at(8, 7), Weight: 81.1},
		{Date: at(8, 8), Weight: 81.2},
		{Date: at(8, 9), Weight: 81.2},
		{Date: at(1, 7), Weight: 85},
	}
	for _, e := range entries {
		_, err := s.AddWeightEntry(ctx, e)
		require.NoError(t, err)
	}

	// testNow is noon on the 10th, so the 21:00 entry is still in the future.
	want := []domain.WeightTrendPoint{
		{Date: at(8, 0), Weight: 81.2},
		{Date: at(10, 0), Weight: 80.0},
	}
	if diff := cmp.Diff(want, s.GetWeightTrend(7)); diff != "" {
		t.Errorf("trend (-want +got):\n%s", diff)
	}

	assert.Empty(t, s.GetWeightTrend(0))
}

func TestWeightListenerAndDelete(t *testing.T) {
	ctx := context.Background()
	store := kvstore.NewMemoryStore()
	s := newProgress(t, store)

	var seen []float64
	s.OnWeightAdded(func(_ context.Context, e domain.WeightEntry) { seen = append(seen, e.Weight) })

	id, err := s.AddWeightEntry(ctx, domain.WeightEntry{Weight: 77.7})
	require.NoError(t, err)
	assert.Equal(t, []float64{77.7}, seen)

	require.NoError(t, s.UpdateWeightEntryNotes(ctx, id, "after holidays"))
	reloaded := newProgress(t, store)
	entries := reloaded.GetWeightEntries(time.Time{}, testNow)
	require.Len(t, entries, 1)
	assert.Equal(t, "after holidays", entries[0].Notes)
	assert.True(t, entries[0].Date.Equal(testNow))

	require.NoError(t, reloaded.DeleteWeightEntry(ctx, id))
	assert.Empty(t, reloaded.GetWeightEntries(time.Time{}, testNow))
}

func TestProgressPhotosNewestFirst(t *testing.T) {
	ctx := context.Background()
	s := newProgress(t, kvstore.NewMemoryStore())

	_, err := s.AddProgressPhoto(ctx, domain.ProgressPhoto{})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	var ids []string
	for _, day := range []int{3, 9, 6} {
		id, err := s.AddProgressPhoto(ctx, domain.ProgressPhoto{Date: at(day, 9), ImageURI: "photo.jpg"})
		require.NoError(t, err)
		ids = append(ids, id)
	}

	photos := s.GetProgressPhotos(at(3, 9), at(9, 9))
	require.Len(t, photos, 3)
	assert.Equal(t, []string{ids[1], ids[2], ids[0]}, []string{photos[0].ID, photos[1].ID, photos[2].ID})

	require.NoError(t, s.UpdatePhotoNotes(ctx, ids[0], "start"))
	require.NoError(t, s.DeleteProgressPhoto(ctx, ids[1]))
	photos = s.GetProgressPhotos(at(1, 0), at(31, 0))
	require.Len(t, photos, 2)
	assert.Equal(t, "start", photos[1].Notes)
}
