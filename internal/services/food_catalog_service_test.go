package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vladimiradmaev/ai-trainer/internal/domain"
	apperrors "github.com/vladimiradmaev/ai-trainer/internal/errors"
	"github.com/vladimiradmaev/ai-trainer/internal/kvstore"
	"github.com/vladimiradmaev/ai-trainer/internal/repository"
)

func newCatalog(t *testing.T, store kvstore.Store) *FoodCatalogService {
	t.Helper()
	s := NewFoodCatalogService(repository.NewFoodCatalogRepository(store))
	require.NoError(t, s.Load(context.Background()))
	return s
}

func names(items []domain.FoodItem) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = item.Name
	}
	return out
}

func TestFoodCatalogSearch(t *testing.T) {
	ctx := context.Background()
	store := kvstore.NewMemoryStore()
	s := newCatalog(t, store)

	for _, name := range []string{"Peanut butter", "Butter", "Bread", "Buttermilk"} {
		_, err := s.AddFood(ctx, domain.FoodItem{Name: name, Calories: 100})
		require.NoError(t, err)
	}

	assert.Equal(t, []string{"Butter", "Buttermilk", "Peanut butter"}, names(s.SearchFoods("BUTTER", 0)))
	assert.Equal(t, []string{"Butter", "Buttermilk"}, names(s.SearchFoods("butter", 2)))
	assert.Empty(t, s.SearchFoods("kale", 0))

	reloaded := newCatalog(t, store)
	assert.Len(t, reloaded.SearchFoods("", 0), 4)
}

func TestFoodCatalogUpsertAndValidation(t *testing.T) {
	ctx := context.Background()
	s := newCatalog(t, kvstore.NewMemoryStore())

	id, err := s.AddFood(ctx, oats())
	require.NoError(t, err)
	assert.Equal(t, "oats", id)

	updated := oats()
	updated.Calories = 380
	_, err = s.AddFood(ctx, updated)
	require.NoError(t, err)

	item, ok := s.GetFood("oats")
	require.True(t, ok)
	assert.Equal(t, 380.0, item.Calories)
	assert.Len(t, s.SearchFoods("oat", 0), 1)

	_, err = s.AddFood(ctx, domain.FoodItem{Name: "  "})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	_, err = s.AddFood(ctx, domain.FoodItem{Name: "Ice", Calories: -5})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	_, ok = s.GetFood("missing")
	assert.False(t, ok)
}
