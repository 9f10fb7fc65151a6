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

func TestGoalsFromTDEEMaintenance(t *testing.T) {
	goals := GoalsFromTDEE(2500, 75, domain.GoalMaintenance)

	assert.Equal(t, 2500.0, goals.Calories)
	assert.Equal(t, 135.0, goals.Protein)
	assert.Equal(t, 83.0, goals.Fat)
	assert.Equal(t, 303.0, goals.Carbs)
	require.NotNil(t, goals.Fiber)
	assert.Equal(t, 30.0, *goals.Fiber)
}

func TestGoalsFromTDEETable(t *testing.T) {
	cases := []struct {
		goal     domain.FitnessGoal
		calories float64
		protein  float64
		fat      float64
	}{
		{domain.GoalWeightLoss, 2000, 165, 78},
		{domain.GoalMuscleGain, 2750, 150, 76},
		{domain.GoalRecomposition, 2500, 165, 83},
		{domain.GoalPerformance, 2625, 135, 73},
		{domain.GoalHealth, 2500, 120, 83},
		{"unknown", 2500, 135, 83},
	}
	for _, tc := range cases {
		t.Run(string(tc.goal), func(t *testing.T) {
			g := GoalsFromTDEE(2500, 75, tc.goal)
			assert.Equal(t, tc.calories, g.Calories)
			assert.Equal(t, tc.protein, g.Protein)
			assert.Equal(t, tc.fat, g.Fat)
			assert.GreaterOrEqual(t, g.Carbs, 0.0)
		})
	}
}

func TestGoalsFromTDEEClampsCarbs(t *testing.T) {
	// 150 kg at 2.2 g/kg is 1320 kcal of protein alone.
	g := GoalsFromTDEE(1200, 150, domain.GoalWeightLoss)
	assert.Equal(t, 0.0, g.Carbs)
	require.NotNil(t, g.Fiber)
	assert.Equal(t, 0.0, *g.Fiber)
}

func TestBMRAndTDEE(t *testing.T) {
	a := domain.Anthropometry{Height: 180, Weight: 80, Age: 30, Gender: domain.GenderMale, ActivityLevel: domain.ActivityModeratelyActive}
	assert.Equal(t, 1780.0, BMR(a))
	assert.Equal(t, 2759.0, TDEE(a))

	a.Gender = domain.GenderFemale
	assert.Equal(t, 1614.0, BMR(a))
	a.Gender = domain.GenderOther
	assert.Equal(t, 1614.0, BMR(a))

	a.ActivityLevel = "couch"
	assert.Equal(t, 1.2, ActivityMultiplier(a.ActivityLevel))
}

func TestBMI(t *testing.T) {
	r, ok := BMI(domain.Anthropometry{Height: 180, Weight: 81})
	require.True(t, ok)
	assert.Equal(t, 25.0, r.Value)
	assert.Equal(t, "overweight", r.Category)

	r, ok = BMI(domain.Anthropometry{Height: 170, Weight: 50})
	require.True(t, ok)
	assert.Equal(t, "underweight", r.Category)

	_, ok = BMI(domain.Anthropometry{Weight: 70})
	assert.False(t, ok)
}

func newUsers(t *testing.T, store kvstore.Store) *UserService {
	t.Helper()
	s := NewUserService(repository.NewUserRepository(store), testOptions()...)
	require.NoError(t, s.Load(context.Background()))
	return s
}

func sampleUser() domain.UserData {
	return domain.UserData{
		Name: "Anna",
		Anthropometry: domain.Anthropometry{
			Height: 170, Weight: 65, Age: 28,
			Gender: domain.GenderFemale, ActivityLevel: domain.ActivityLightlyActive,
		},
		Preferences: domain.Preferences{FitnessGoal: domain.GoalMaintenance, Language: "ru"},
	}
}

func TestSetUserDataDerivesGoals(t *testing.T) {
	ctx := context.Background()
	s := newUsers(t, kvstore.NewMemoryStore())

	var notified []domain.NutritionGoals
	s.OnGoalsChange(func(_ context.Context, g domain.NutritionGoals) { notified = append(notified, g) })

	require.NoError(t, s.SetUserData(ctx, sampleUser()))

	user, ok := s.GetUserData()
	require.True(t, ok)
	assert.NotEmpty(t, user.ID)
	assert.Equal(t, testNow, user.CreatedAt)

	tdee := TDEE(user.Anthropometry)
	assert.Equal(t, GoalsFromTDEE(tdee, 65, domain.GoalMaintenance), user.NutritionGoals)
	require.Len(t, notified, 1)
	assert.Equal(t, user.NutritionGoals, notified[0])
}

func TestUpdateAnthropometryCascades(t *testing.T) {
	ctx := context.Background()
	s := newUsers(t, kvstore.NewMemoryStore())
	require.NoError(t, s.SetUserData(ctx, sampleUser()))

	before, _ := s.GetUserData()
	require.NoError(t, s.UpdateAnthropometry(ctx, domain.AnthropometryUpdate{Weight: ptr(80.0)}))
	after, _ := s.GetUserData()

	assert.Equal(t, 80.0, after.Anthropometry.Weight)
	assert.Equal(t, 170.0, after.Anthropometry.Height)
	assert.Greater(t, after.NutritionGoals.Calories, before.NutritionGoals.Calories)
	assert.Equal(t, GoalsFromTDEE(TDEE(after.Anthropometry), 80, domain.GoalMaintenance), after.NutritionGoals)

	err := s.UpdateAnthropometry(ctx, domain.AnthropometryUpdate{Weight: ptr(-3.0)})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	unchanged, _ := s.GetUserData()
	assert.Equal(t, 80.0, unchanged.Anthropometry.Weight)
}

func TestUpdatePreferencesRecalculatesOnlyOnGoalChange(t *testing.T) {
	ctx := context.Background()
	s := newUsers(t, kvstore.NewMemoryStore())
	require.NoError(t, s.SetUserData(ctx, sampleUser()))

	require.NoError(t, s.UpdateNutritionGoals(ctx, domain.NutritionGoalsUpdate{Calories: ptr(1234.0)}))

	require.NoError(t, s.UpdatePreferences(ctx, domain.PreferencesUpdate{
		FitnessGoal: ptr(domain.GoalMaintenance),
		MealsPerDay: ptr(4),
	}))
	user, _ := s.GetUserData()
	assert.Equal(t, 1234.0, user.NutritionGoals.Calories, "same goal keeps manual override")
	assert.Equal(t, 4, user.Preferences.MealsPerDay)

	require.NoError(t, s.UpdatePreferences(ctx, domain.PreferencesUpdate{FitnessGoal: ptr(domain.GoalWeightLoss)}))
	user, _ = s.GetUserData()
	assert.Equal(t, GoalsFromTDEE(TDEE(user.Anthropometry), 65, domain.GoalWeightLoss).Calories, user.NutritionGoals.Calories)
}

func TestUserUpdatesRequireProfile(t *testing.T) {
	ctx := context.Background()
	s := newUsers(t, kvstore.NewMemoryStore())

	assert.ErrorIs(t, s.UpdateAnthropometry(ctx, domain.AnthropometryUpdate{}), apperrors.ErrNotFound)
	assert.ErrorIs(t, s.UpdatePreferences(ctx, domain.PreferencesUpdate{}), apperrors.ErrNotFound)
	assert.ErrorIs(t, s.UpdateNutritionGoals(ctx, domain.NutritionGoalsUpdate{}), apperrors.ErrNotFound)
	assert.ErrorIs(t, s.UpdateAvatar(ctx, "a.png"), apperrors.ErrNotFound)

	_, ok := s.CalculateTDEE()
	assert.False(t, ok)
}

func TestUserPersists(t *testing.T) {
	ctx := context.Background()
	store := kvstore.NewMemoryStore()
	s := newUsers(t, store)
	require.NoError(t, s.SetUserData(ctx, sampleUser()))
	require.NoError(t, s.UpdateAvatar(ctx, "file://avatar.jpg"))

	reloaded := newUsers(t, store)
	user, ok := reloaded.GetUserData()
	require.True(t, ok)
	assert.Equal(t, "Anna", user.Name)
	assert.Equal(t, "file://avatar.jpg", user.AvatarURI)

	goals, ok := reloaded.CalculateNutritionGoals(domain.GoalMuscleGain)
	require.True(t, ok)
	assert.Equal(t, 130.0, goals.Protein)

	bmi, ok := reloaded.BMI()
	require.True(t, ok)
	assert.Equal(t, "normal", bmi.Category)
}
