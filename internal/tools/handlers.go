package tools

import (
	"context"
	"strings"

	"github.com/vladimiradmaev/ai-trainer/internal/domain"
	apperrors "github.com/vladimiradmaev/ai-trainer/internal/errors"
)

type logMealParams struct {
	Description string `json:"description"`
	MealType    string `json:"meal_type,omitempty"`
	Timestamp   string `json:"timestamp,omitempty"`
}

type mealIDParams struct {
	MealID string `json:"meal_id"`
}

type dateParams struct {
	Date string `json:"date,omitempty"`
}

type searchFoodsParams struct {
	Query string `json:"query"`
	Limit int    `json:"limit,omitempty"`
}

type logWeightParams struct {
	Weight    float64 `json:"weight"`
	Notes     string  `json:"notes,omitempty"`
	Timestamp string  `json:"timestamp,omitempty"`
}

type weightTrendParams struct {
	Days int `json:"days,omitempty"`
}

func (r *Registry) logMeal(ctx context.Context, args map[string]any) (any, error) {
	var params logMealParams
	if err := extractParams(args, &params); err != nil {
		return nil, err
	}
	if strings.TrimSpace(params.Description) == "" {
		return nil, apperrors.NewValidationError("meal description is required")
	}
	at, err := parseTimestamp(params.Timestamp)
	if err != nil {
		return nil, err
	}

	result, err := r.deps.Analysis.LogMealFromText(ctx, params.Description, domain.MealType(params.MealType), at)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"meal":       result.Meal,
		"confidence": result.Confidence,
		"analysis":   result.Analysis.AnalysisText,
	}, nil
}

func (r *Registry) deleteMeal(ctx context.Context, args map[string]any) (any, error) {
	var params mealIDParams
	if err := extractParams(args, &params); err != nil {
		return nil, err
	}
	if params.MealID == "" {
		return nil, apperrors.NewValidationError("meal_id is required")
	}
	if err := r.deps.Nutrition.DeleteMeal(ctx, params.MealID); err != nil {
		return nil, err
	}
	return map[string]any{"deleted": params.MealID}, nil
}

func (r *Registry) getDailyNutrition(_ context.Context, args map[string]any) (any, error) {
	var params dateParams
	if err := extractParams(args, &params); err != nil {
		return nil, err
	}
	date, err := r.parseDate(params.Date)
	if err != nil {
		return nil, err
	}

	day, found := r.deps.Nutrition.GetDailyNutrition(date)
	if !found {
		day = domain.DailyNutrition{Date: date, Meals: []domain.Meal{}}
	}
	return day, nil
}

func (r *Registry) getRemainingNutrition(_ context.Context, args map[string]any) (any, error) {
	var params dateParams
	if err := extractParams(args, &params); err != nil {
		return nil, err
	}
	date, err := r.parseDate(params.Date)
	if err != nil {
		return nil, err
	}
	user, ok := r.deps.Users.GetUserData()
	if !ok {
		return nil, apperrors.NewNotFoundError("user", "")
	}

	g := user.NutritionGoals
	return r.deps.Nutrition.CalculateRemainingNutrition(date, g.Calories, domain.MacroTargets{
		Protein: g.Protein,
		Carbs:   g.Carbs,
		Fat:     g.Fat,
	}), nil
}

func (r *Registry) searchFoods(_ context.Context, args map[string]any) (any, error) {
	var params searchFoodsParams
	if err := extractParams(args, &params); err != nil {
		return nil, err
	}
	if strings.TrimSpace(params.Query) == "" {
		return nil, apperrors.NewValidationError("query is required")
	}
	if params.Limit <= 0 {
		params.Limit = 10
	}

	foods := r.deps.Catalog.SearchFoods(params.Query, params.Limit)
	if foods == nil {
		foods = []domain.FoodItem{}
	}
	return foods, nil
}

func (r *Registry) logWeight(ctx context.Context, args map[string]any) (any, error) {
	var params logWeightParams
	if err := extractParams(args, &params); err != nil {
		return nil, err
	}
	at, err := parseTimestamp(params.Timestamp)
	if err != nil {
		return nil, err
	}

	id, err := r.deps.Progress.AddWeightEntry(ctx, domain.WeightEntry{
		Date:   at,
		Weight: params.Weight,
		Notes:  params.Notes,
	})
	if err != nil {
		return nil, err
	}
	return map[string]any{"id": id, "weight": params.Weight}, nil
}

func (r *Registry) getWeightTrend(_ context.Context, args map[string]any) (any, error) {
	var params weightTrendParams
	if err := extractParams(args, &params); err != nil {
		return nil, err
	}
	if params.Days <= 0 {
		params.Days = 30
	}
	return r.deps.Progress.GetWeightTrend(params.Days), nil
}
