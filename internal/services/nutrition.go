package services

import (
	"math"

	"github.com/vladimiradmaev/ai-trainer/internal/domain"
)

// NewConsumedFood freezes the nutrition of amount units of item. Amount is a
// number of servings for per-serving items, otherwise a quantity in the
// item's serving unit measured against servingSize (100 when unset).
func NewConsumedFood(item domain.FoodItem, amount float64) domain.ConsumedFood {
	multiplier := amount
	if !item.IsPerServing {
		base := item.ServingSize
		if base == 0 {
			base = 100
		}
		multiplier = amount / base
	}

	macros := domain.Macros{
		Protein: round1(item.Macros.Protein * multiplier),
		Carbs:   round1(item.Macros.Carbs * multiplier),
		Fat:     round1(item.Macros.Fat * multiplier),
	}
	if item.Macros.Fiber != nil {
		macros.Fiber = ptr(round1(*item.Macros.Fiber * multiplier))
	}
	if item.Macros.Sugar != nil {
		macros.Sugar = ptr(round1(*item.Macros.Sugar * multiplier))
	}

	return domain.ConsumedFood{
		FoodItem:      item,
		Amount:        amount,
		TotalCalories: math.Round(item.Calories * multiplier),
		TotalMacros:   macros,
	}
}

// sumFoods totals calories and macros of foods. Fiber and sugar count as zero
// when absent and are always present on the result.
func sumFoods(foods []domain.ConsumedFood) (float64, domain.Macros) {
	var calories, protein, carbs, fat, fiber, sugar float64
	for _, f := range foods {
		calories += f.TotalCalories
		protein += f.TotalMacros.Protein
		carbs += f.TotalMacros.Carbs
		fat += f.TotalMacros.Fat
		if f.TotalMacros.Fiber != nil {
			fiber += *f.TotalMacros.Fiber
		}
		if f.TotalMacros.Sugar != nil {
			sugar += *f.TotalMacros.Sugar
		}
	}
	return calories, domain.Macros{
		Protein: round1(protein),
		Carbs:   round1(carbs),
		Fat:     round1(fat),
		Fiber:   ptr(round1(fiber)),
		Sugar:   ptr(round1(sugar)),
	}
}

func recomputeMeal(meal *domain.Meal) {
	meal.TotalCalories, meal.TotalMacros = sumFoods(meal.Foods)
}

// recomputeDay totals the day from every food of every meal, not from the
// meal totals.
func recomputeDay(day *domain.DailyNutrition) {
	var foods []domain.ConsumedFood
	for _, m := range day.Meals {
		foods = append(foods, m.Foods...)
	}
	day.TotalCalories, day.TotalMacros = sumFoods(foods)
}

// RemainingNutrition compares consumed amounts against targets. Remaining
// values never go below zero and percentages are capped at 100.
func RemainingNutrition(consumedCalories float64, consumed domain.Macros, targetCalories float64, target domain.MacroTargets) domain.RemainingNutrition {
	return domain.RemainingNutrition{
		Calories: remaining(targetCalories, consumedCalories),
		Macros: domain.MacroTargets{
			Protein: round1(remaining(target.Protein, consumed.Protein)),
			Carbs:   round1(remaining(target.Carbs, consumed.Carbs)),
			Fat:     round1(remaining(target.Fat, consumed.Fat)),
		},
		Percentages: domain.NutrientPercent{
			Calories: percentOf(consumedCalories, targetCalories),
			Protein:  percentOf(consumed.Protein, target.Protein),
			Carbs:    percentOf(consumed.Carbs, target.Carbs),
			Fat:      percentOf(consumed.Fat, target.Fat),
		},
	}
}

func remaining(target, consumed float64) float64 {
	return math.Max(0, target-consumed)
}

// percentOf returns consumed as a whole percentage of target in [0, 100].
// Without a positive target anything eaten counts as 100.
func percentOf(consumed, target float64) float64 {
	if target <= 0 {
		if consumed <= 0 {
			return 0
		}
		return 100
	}
	return math.Max(0, math.Min(100, math.Round(consumed/target*100)))
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func ptr[T any](v T) *T {
	return &v
}
