package services

import (
	"math"

	"github.com/vladimiradmaev/ai-trainer/internal/domain"
)

// activityMultipliers maps activity levels to their TDEE multiplier
var activityMultipliers = map[domain.ActivityLevel]float64{
	domain.ActivitySedentary:        1.2,
	domain.ActivityLightlyActive:    1.375,
	domain.ActivityModeratelyActive: 1.55,
	domain.ActivityVeryActive:       1.725,
	domain.ActivityExtraActive:      1.9,
}

type goalSplit struct {
	calorieMultiplier float64 // applied to TDEE
	proteinPerKg      float64
	fatShare          float64 // fraction of calories
}

var goalSplits = map[domain.FitnessGoal]goalSplit{
	domain.GoalWeightLoss:    {0.8, 2.2, 0.35},
	domain.GoalMaintenance:   {1.0, 1.8, 0.30},
	domain.GoalMuscleGain:    {1.1, 2.0, 0.25},
	domain.GoalRecomposition: {1.0, 2.2, 0.30},
	domain.GoalPerformance:   {1.05, 1.8, 0.25},
	domain.GoalHealth:        {1.0, 1.6, 0.30},
}

// ActivityMultiplier returns the TDEE multiplier of level; unknown levels
// count as sedentary.
func ActivityMultiplier(level domain.ActivityLevel) float64 {
	if m, ok := activityMultipliers[level]; ok {
		return m
	}
	return activityMultipliers[domain.ActivitySedentary]
}

// BMR estimates basal metabolic rate with the Mifflin-St Jeor equation.
// Only male gets the +5 constant; female and other use -161.
func BMR(a domain.Anthropometry) float64 {
	bmr := 10*a.Weight + 6.25*a.Height - 5*float64(a.Age)
	if a.Gender == domain.GenderMale {
		return bmr + 5
	}
	return bmr - 161
}

// TDEE estimates total daily energy expenditure
func TDEE(a domain.Anthropometry) float64 {
	return math.Round(BMR(a) * ActivityMultiplier(a.ActivityLevel))
}

// GoalsFromTDEE derives daily targets for goal. Unknown goals use
// maintenance. Carbs never go below zero and fiber follows the clamped carbs.
func GoalsFromTDEE(tdee, weight float64, goal domain.FitnessGoal) domain.NutritionGoals {
	split, ok := goalSplits[goal]
	if !ok {
		split = goalSplits[domain.GoalMaintenance]
	}

	calories := math.Round(tdee * split.calorieMultiplier)
	protein := math.Round(weight * split.proteinPerKg)
	fat := math.Round(calories * split.fatShare / 9)
	carbs := math.Max(0, math.Round((calories-protein*4-fat*9)/4))

	return domain.NutritionGoals{
		Calories: calories,
		Protein:  protein,
		Carbs:    carbs,
		Fat:      fat,
		Fiber:    ptr(math.Round(carbs * 0.1)),
	}
}

// BMIResult is a body mass index with its WHO category
type BMIResult struct {
	Value    float64 `json:"value"`
	Category string  `json:"category"`
}

// BMI computes body mass index from height in cm and weight in kg.
// ok is false when either is missing.
func BMI(a domain.Anthropometry) (BMIResult, bool) {
	if a.Height <= 0 || a.Weight <= 0 {
		return BMIResult{}, false
	}
	meters := a.Height / 100
	value := round1(a.Weight / (meters * meters))

	category := "obese"
	switch {
	case value < 18.5:
		category = "underweight"
	case value < 25:
		category = "normal"
	case value < 30:
		category = "overweight"
	}
	return BMIResult{Value: value, Category: category}, true
}

// anthropometryComplete reports whether goals can be derived from a.
func anthropometryComplete(a domain.Anthropometry) bool {
	return a.Height > 0 && a.Weight > 0 && a.Age > 0
}
