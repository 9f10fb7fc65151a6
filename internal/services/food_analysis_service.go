package services

import (
	"context"
	"strings"
	"time"

	"github.com/vladimiradmaev/ai-trainer/internal/domain"
	apperrors "github.com/vladimiradmaev/ai-trainer/internal/errors"
	"github.com/vladimiradmaev/ai-trainer/internal/logger"
	"github.com/vladimiradmaev/ai-trainer/internal/utils"
)

// MealLogResult is a meal logged from an AI analysis
type MealLogResult struct {
	Meal       domain.Meal
	Analysis   *domain.FoodAnalysis
	Confidence float64
}

// FoodAnalysisService logs meals from descriptions and photos
type FoodAnalysisService struct {
	gateway   domain.Gateway
	nutrition *NutritionService
	catalog   *FoodCatalogService
	clock     clock
}

// NewFoodAnalysisService creates the meal analysis flow. catalog may be nil.
func NewFoodAnalysisService(gateway domain.Gateway, nutrition *NutritionService, catalog *FoodCatalogService, opts ...Option) *FoodAnalysisService {
	return &FoodAnalysisService{
		gateway:   gateway,
		nutrition: nutrition,
		catalog:   catalog,
		clock:     newClock(opts),
	}
}

// LogMealFromText analyses a described meal and adds it to the ledger.
// An empty mealType is chosen from the time of day.
func (s *FoodAnalysisService) LogMealFromText(ctx context.Context, description string, mealType domain.MealType, at time.Time) (*MealLogResult, error) {
	analysis, err := s.gateway.AnalyzeFoodFromText(ctx, description)
	if err != nil {
		return nil, err
	}
	return s.logAnalysis(ctx, analysis, mealType, at, "")
}

// LogMealFromImage analyses the photo at imageURL and adds it to the ledger.
// The meal keeps imageRef as its image, or imageURL when imageRef is empty.
func (s *FoodAnalysisService) LogMealFromImage(ctx context.Context, imageURL, imageRef string, mealType domain.MealType, at time.Time) (*MealLogResult, error) {
	analysis, err := s.gateway.AnalyzeFoodFromImage(ctx, imageURL)
	if err != nil {
		return nil, err
	}
	if imageRef == "" {
		imageRef = imageURL
	}
	return s.logAnalysis(ctx, analysis, mealType, at, imageRef)
}

func (s *FoodAnalysisService) logAnalysis(ctx context.Context, analysis *domain.FoodAnalysis, mealType domain.MealType, at time.Time, imageURI string) (*MealLogResult, error) {
	log := logger.WithContext(ctx)
	if at.IsZero() {
		at = s.clock.now()
	}
	if mealType == "" {
		mealType = MealTypeAt(at, s.clock.loc)
	}

	foods := make([]domain.ConsumedFood, 0, len(analysis.Foods))
	for _, f := range analysis.Foods {
		if strings.TrimSpace(f.Name) == "" || f.Calories < 0 {
			continue
		}
		item := FoodItemFromAnalysis(f)
		if s.catalog != nil {
			id, err := s.catalog.AddFood(ctx, item)
			if err != nil {
				log.Warn("Failed to add analysed food to catalogue", "food", f.Name, "error", err)
			} else {
				item.ID = id
			}
		}
		foods = append(foods, NewConsumedFood(item, 1))
	}
	if len(foods) == 0 {
		return nil, apperrors.NewGatewayError(nil, "analysis").WithContext("reason", "no usable foods")
	}

	mealID, err := s.nutrition.AddMeal(ctx, domain.MealInput{
		Type:     mealType,
		Name:     analysis.MealName,
		Foods:    foods,
		Date:     at,
		Time:     at,
		Notes:    analysis.AnalysisText,
		ImageURI: imageURI,
	})
	if err != nil {
		return nil, err
	}
	meal, _ := s.nutrition.GetMeal(mealID)

	log.Info("Meal logged from analysis",
		"meal_id", mealID,
		"type", mealType,
		"foods", len(foods),
		"calories", meal.TotalCalories,
		"confidence", analysis.Confidence)

	return &MealLogResult{
		Meal:       meal,
		Analysis:   analysis,
		Confidence: confidenceScore(analysis.Confidence),
	}, nil
}

// FoodItemFromAnalysis turns an analysed portion into a per-serving item whose
// serving is the analysed portion
func FoodItemFromAnalysis(f domain.AnalyzedFood) domain.FoodItem {
	unit := f.Unit
	if unit == "" {
		unit = "g"
	}
	return domain.FoodItem{
		Name:     strings.TrimSpace(f.Name),
		Calories: f.Calories,
		Macros: domain.Macros{
			Protein: f.Protein,
			Carbs:   f.Carbs,
			Fat:     f.Fat,
			Fiber:   f.Fiber,
			Sugar:   f.Sugar,
		},
		ServingSize:  f.Amount,
		ServingUnit:  unit,
		IsPerServing: true,
	}
}

// MealTypeAt picks the meal type for the local time of t
func MealTypeAt(t time.Time, loc *time.Location) domain.MealType {
	if loc == nil {
		loc = time.Local
	}
	minutes := utils.TimeToMinutes(t.In(loc).Format("15:04"))
	switch {
	case minutes < utils.TimeToMinutes("10:00"):
		return domain.MealBreakfast
	case minutes < utils.TimeToMinutes("12:00"):
		return domain.MealMorningSnack
	case minutes < utils.TimeToMinutes("15:00"):
		return domain.MealLunch
	case minutes < utils.TimeToMinutes("18:00"):
		return domain.MealAfternoonSnack
	case minutes < utils.TimeToMinutes("21:00"):
		return domain.MealDinner
	default:
		return domain.MealEveningSnack
	}
}

func confidenceScore(confidence string) float64 {
	switch strings.ToLower(confidence) {
	case "high":
		return 0.9
	case "medium":
		return 0.6
	case "low":
		return 0.3
	default:
		return 0.5
	}
}
