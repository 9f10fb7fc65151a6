package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vladimiradmaev/ai-trainer/internal/domain"
	apperrors "github.com/vladimiradmaev/ai-trainer/internal/errors"
	"github.com/vladimiradmaev/ai-trainer/internal/kvstore"
	"github.com/vladimiradmaev/ai-trainer/internal/repository"
)

func TestMealTypeAt(t *testing.T) {
	msk := time.FixedZone("MSK", 3*60*60)
	cases := []struct {
		clock string
		want  domain.MealType
	}{
		{"07:30", domain.MealBreakfast},
		{"10:00", domain.MealMorningSnack},
		{"13:15", domain.MealLunch},
		{"16:45", domain.MealAfternoonSnack},
		{"19:00", domain.MealDinner},
		{"22:30", domain.MealEveningSnack},
		{"00:10", domain.MealBreakfast},
	}
	for _, tc := range cases {
		t.Run(tc.clock, func(t *testing.T) {
			local, err := time.ParseInLocation("2006-01-02 15:04", "2024-03-10 "+tc.clock, msk)
			require.NoError(t, err)
			assert.Equal(t, tc.want, MealTypeAt(local.UTC(), msk))
		})
	}
}

func TestFoodItemFromAnalysis(t *testing.T) {
	item := FoodItemFromAnalysis(domain.AnalyzedFood{Name: " Гречка ", Amount: 200, Calories: 220, Protein: 8, Carbs: 42, Fat: 2})
	assert.Equal(t, domain.FoodItem{
		Name:         "Гречка",
		Calories:     220,
		Macros:       domain.Macros{Protein: 8, Carbs: 42, Fat: 2},
		ServingSize:  200,
		ServingUnit:  "g",
		IsPerServing: true,
	}, item)
}

func newFoodAnalysis(t *testing.T, gateway domain.Gateway) (*FoodAnalysisService, *NutritionService, *FoodCatalogService) {
	t.Helper()
	store := kvstore.NewMemoryStore()
	nutrition := newNutrition(t, store)
	catalog := NewFoodCatalogService(repository.NewFoodCatalogRepository(store))
	require.NoError(t, catalog.Load(context.Background()))
	return NewFoodAnalysisService(gateway, nutrition, catalog, testOptions()...), nutrition, catalog
}

func dinnerAnalysis() *domain.FoodAnalysis {
	return &domain.FoodAnalysis{
		MealName:     "Гречка с курицей",
		Confidence:   "high",
		AnalysisText: "Сбалансированный приём пищи",
		Foods: []domain.AnalyzedFood{
			{Name: "Гречка", Amount: 200, Unit: "g", Calories: 220, Protein: 8, Carbs: 42, Fat: 2},
			{Name: "Куриная грудка", Amount: 150, Unit: "g", Calories: 248, Protein: 46.5, Carbs: 0, Fat: 5.4},
			{Name: "", Calories: 10},
		},
	}
}

func TestLogMealFromText(t *testing.T) {
	ctx := context.Background()
	svc, nutrition, catalog := newFoodAnalysis(t, &fakeGateway{analysis: dinnerAnalysis()})

	result, err := svc.LogMealFromText(ctx, "гречка с курицей", "", time.Time{})
	require.NoError(t, err)

	assert.Equal(t, 0.9, result.Confidence)
	assert.Equal(t, domain.MealLunch, result.Meal.Type)
	assert.Equal(t, "Гречка с курицей", result.Meal.Name)
	assert.Equal(t, "Сбалансированный приём пищи", result.Meal.Notes)
	assert.Len(t, result.Meal.Foods, 2)
	assert.Equal(t, 468.0, result.Meal.TotalCalories)
	assert.Equal(t, 54.5, result.Meal.TotalMacros.Protein)

	day, ok := nutrition.GetDailyNutrition(testNow)
	require.True(t, ok)
	assert.Equal(t, 468.0, day.TotalCalories)

	found := catalog.SearchFoods("греч", 0)
	require.Len(t, found, 1)
	assert.Equal(t, result.Meal.Foods[0].FoodItem.ID, found[0].ID)
}

func TestLogMealFromImageKeepsTypeAndImage(t *testing.T) {
	gateway := &fakeGateway{analysis: dinnerAnalysis()}
	svc, _, _ := newFoodAnalysis(t, gateway)

	result, err := svc.LogMealFromImage(context.Background(), "https://example.com/plate.jpg", "", domain.MealDinner, at(9, 19))
	require.NoError(t, err)
	assert.Equal(t, domain.MealDinner, result.Meal.Type)
	assert.Equal(t, "https://example.com/plate.jpg", result.Meal.ImageURI)

	result, err = svc.LogMealFromImage(context.Background(), "https://example.com/secret/plate.jpg", "tg-file:AgAD", "", at(9, 8))
	require.NoError(t, err)
	assert.Equal(t, domain.MealBreakfast, result.Meal.Type)
	assert.Equal(t, "tg-file:AgAD", result.Meal.ImageURI)
	assert.True(t, result.Meal.Date.Equal(at(9, 8)))
	assert.Equal(t, []string{"https://example.com/plate.jpg", "https://example.com/secret/plate.jpg"}, gateway.images)
}

func TestLogMealWithoutUsableFoods(t *testing.T) {
	svc, nutrition, _ := newFoodAnalysis(t, &fakeGateway{analysis: &domain.FoodAnalysis{
		Foods: []domain.AnalyzedFood{{Name: " "}, {Name: "Вода", Calories: -1}},
	}})

	_, err := svc.LogMealFromText(context.Background(), "ничего", "", time.Time{})
	assert.ErrorIs(t, err, apperrors.ErrGateway)
	_, ok := nutrition.GetDailyNutrition(testNow)
	assert.False(t, ok)
}
