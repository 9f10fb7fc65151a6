package menus

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/vladimiradmaev/ai-trainer/internal/domain"
	"github.com/vladimiradmaev/ai-trainer/internal/services"
)

func TestFormatTodayWithGoals(t *testing.T) {
	day := domain.DailyNutrition{
		Meals: []domain.Meal{
			{Type: domain.MealBreakfast, Time: time.Date(2024, 3, 10, 8, 30, 0, 0, time.UTC), TotalCalories: 350},
			{Type: domain.MealLunch, Name: "Борщ_домашний", Time: time.Date(2024, 3, 10, 13, 0, 0, 0, time.UTC), TotalCalories: 420},
		},
		TotalCalories: 770,
		TotalMacros:   domain.Macros{Protein: 40, Carbs: 90, Fat: 25},
	}
	goals := &domain.NutritionGoals{Calories: 2000, Protein: 120, Carbs: 250, Fat: 60}
	remaining := &domain.RemainingNutrition{Calories: 1230, Macros: domain.MacroTargets{Protein: 80, Carbs: 160, Fat: 35}}

	text := FormatToday(day, goals, remaining)

	assert.Contains(t, text, "08:30 Завтрак: 350 ккал")
	assert.Contains(t, text, "13:00 Борщ\\_домашний: 420 ккал")
	assert.Contains(t, text, "770 из 2000")
	assert.Contains(t, text, "1230 ккал (Б 80 / У 160 / Ж 35)")
}

func TestFormatTodayEmpty(t *testing.T) {
	text := FormatToday(domain.DailyNutrition{}, nil, nil)

	assert.Contains(t, text, "Пока ничего не записано")
	assert.NotContains(t, text, "Осталось")
}

func TestFormatProfile(t *testing.T) {
	user := domain.UserData{
		Name: "Anna",
		Anthropometry: domain.Anthropometry{
			Height: 170, Weight: 65, Age: 28,
			Gender: domain.GenderFemale, ActivityLevel: domain.ActivityLightlyActive,
		},
		NutritionGoals: domain.NutritionGoals{Calories: 1800, Protein: 117, Carbs: 200, Fat: 55},
		Preferences:    domain.Preferences{FitnessGoal: domain.GoalMaintenance},
	}

	text := FormatProfile(user)

	assert.Contains(t, text, "Рост: 170 см")
	assert.Contains(t, text, "ИМТ: 22.5 (норма)")
	assert.Contains(t, text, "Норма: 1800 ккал")

	assert.Contains(t, FormatProfile(domain.UserData{Name: "New"}), "Антропометрия не заполнена")
}

func TestFormatMealLogged(t *testing.T) {
	result := &services.MealLogResult{
		Meal: domain.Meal{
			Type: domain.MealDinner,
			Foods: []domain.ConsumedFood{
				{FoodItem: domain.FoodItem{Name: "рис"}, TotalCalories: 200},
			},
			TotalCalories: 200,
			TotalMacros:   domain.Macros{Protein: 4, Carbs: 44, Fat: 0.5},
		},
		Analysis:   &domain.FoodAnalysis{AnalysisText: "*примерно*"},
		Confidence: 0.9,
	}

	text := FormatMealLogged(result)

	assert.Contains(t, text, "*Ужин* записан (Ужин)")
	assert.Contains(t, text, "• рис: 200 ккал")
	assert.Contains(t, text, "высокая")
	assert.Contains(t, text, "\\*примерно\\*")
}

func TestFormatTrainerReply(t *testing.T) {
	text := FormatTrainerReply(&domain.AIResponse{
		Text:      "Хорошо",
		NextSteps: []string{"Шаг 1"},
		Questions: []string{"Сколько вы спите?"},
	})

	assert.Equal(t, "Хорошо\n\nСледующие шаги:\n• Шаг 1\n\n❓ Сколько вы спите?", text)
}

func TestMealTypeNameFallsBack(t *testing.T) {
	assert.Equal(t, "Обед", MealTypeName(domain.MealLunch))
	assert.Equal(t, "Приём пищи", MealTypeName("brunch"))
}
