package domain

import (
	"time"
)

// Macros holds macronutrient amounts in grams. Fiber and Sugar are optional
// on catalogue items and consumed foods; meal and day totals always carry them.
type Macros struct {
	Protein float64  `json:"protein"`
	Carbs   float64  `json:"carbs"`
	Fat     float64  `json:"fat"`
	Fiber   *float64 `json:"fiber,omitempty"`
	Sugar   *float64 `json:"sugar,omitempty"`
}

// FoodItem is a catalogue entry. Calories and macros are per serving when
// IsPerServing is set, otherwise per 100 units of ServingUnit.
type FoodItem struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Calories     float64 `json:"calories"`
	Macros       Macros  `json:"macros"`
	ServingSize  float64 `json:"servingSize"`
	ServingUnit  string  `json:"servingUnit"`
	IsPerServing bool    `json:"isPerServing"`
	ImageURI     string  `json:"imageUri,omitempty"`
}

// ConsumedFood freezes the nutrition of a FoodItem at the moment it was eaten.
type ConsumedFood struct {
	FoodItem      FoodItem `json:"foodItem"`
	Amount        float64  `json:"amount"`
	TotalCalories float64  `json:"totalCalories"`
	TotalMacros   Macros   `json:"totalMacros"`
}

// MealType classifies a meal within the day
type MealType string

const (
	MealBreakfast      MealType = "breakfast"
	MealMorningSnack   MealType = "morningSnack"
	MealLunch          MealType = "lunch"
	MealAfternoonSnack MealType = "afternoonSnack"
	MealDinner         MealType = "dinner"
	MealEveningSnack   MealType = "eveningSnack"
	MealCustom         MealType = "custom"
)

// Valid reports whether t is a known meal type.
func (t MealType) Valid() bool {
	switch t {
	case MealBreakfast, MealMorningSnack, MealLunch, MealAfternoonSnack, MealDinner, MealEveningSnack, MealCustom:
		return true
	}
	return false
}

// Meal groups consumed foods eaten together
type Meal struct {
	ID            string         `json:"id"`
	Type          MealType       `json:"type"`
	Name          string         `json:"name"`
	Foods         []ConsumedFood `json:"foods"`
	TotalCalories float64        `json:"totalCalories"`
	TotalMacros   Macros         `json:"totalMacros"`
	Date          time.Time      `json:"date"`
	Time          time.Time      `json:"time"`
	Notes         string         `json:"notes,omitempty"`
	ImageURI      string         `json:"imageUri,omitempty"`
}

// Clone returns a deep copy of the meal.
func (m Meal) Clone() Meal {
	m.Foods = append([]ConsumedFood{}, m.Foods...)
	return m
}

// DailyNutrition holds every meal of one local calendar day
type DailyNutrition struct {
	ID            string    `json:"id"`
	Date          time.Time `json:"date"`
	Meals         []Meal    `json:"meals"`
	TotalCalories float64   `json:"totalCalories"`
	TotalMacros   Macros    `json:"totalMacros"`
}

// Clone returns a deep copy of the day.
func (d DailyNutrition) Clone() DailyNutrition {
	meals := make([]Meal, len(d.Meals))
	for i, m := range d.Meals {
		meals[i] = m.Clone()
	}
	d.Meals = meals
	return d
}

// MealInput describes a meal to be added; totals are derived by the ledger.
type MealInput struct {
	Type     MealType
	Name     string
	Foods    []ConsumedFood
	Date     time.Time
	Time     time.Time
	Notes    string
	ImageURI string
}

// MealUpdate is a partial meal update; nil fields are left unchanged.
type MealUpdate struct {
	Type     *MealType
	Name     *string
	Foods    []ConsumedFood // nil keeps the current foods
	Date     *time.Time
	Time     *time.Time
	Notes    *string
	ImageURI *string
}

// RemainingNutrition is what is left of a day's targets
type RemainingNutrition struct {
	Calories    float64         `json:"calories"`
	Macros      MacroTargets    `json:"macros"`
	Percentages NutrientPercent `json:"percentages"`
}

// MacroTargets holds the three tracked macro targets in grams
type MacroTargets struct {
	Protein float64 `json:"protein"`
	Carbs   float64 `json:"carbs"`
	Fat     float64 `json:"fat"`
}

// NutrientPercent holds consumed-of-target percentages, 0..100
type NutrientPercent struct {
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fat      float64 `json:"fat"`
}

// Role of a chat message author
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// AttachmentType of a chat attachment
type AttachmentType string

const (
	AttachmentImage AttachmentType = "image"
	AttachmentAudio AttachmentType = "audio"
)

// Attachment references media sent with a message
type Attachment struct {
	Type AttachmentType `json:"type"`
	URI  string         `json:"uri"`
}

// ChatMessage is a single chat entry
type ChatMessage struct {
	ID          string       `json:"id"`
	Role        Role         `json:"role"`
	Content     string       `json:"content"`
	Timestamp   time.Time    `json:"timestamp"`
	Attachments []Attachment `json:"attachments,omitempty"`
	Error       bool         `json:"error,omitempty"`
}

// MessageInput is a message before the store assigns its id.
type MessageInput struct {
	Role        Role
	Content     string
	Timestamp   time.Time
	Attachments []Attachment
	Error       bool
}

// MessageUpdate is a shallow partial update of a message.
type MessageUpdate struct {
	Content     *string
	Attachments []Attachment
	Error       *bool
}

// ChatSession is an ordered conversation. Insertion order is chronological order.
type ChatSession struct {
	ID        string        `json:"id"`
	Messages  []ChatMessage `json:"messages"`
	CreatedAt time.Time     `json:"createdAt"`
	UpdatedAt time.Time     `json:"updatedAt"`
}

// Clone returns a deep copy of the session.
func (s ChatSession) Clone() ChatSession {
	msgs := make([]ChatMessage, len(s.Messages))
	for i, m := range s.Messages {
		msgs[i] = m.Clone()
	}
	s.Messages = msgs
	return s
}

// Clone returns a copy of the message with its own attachments.
func (m ChatMessage) Clone() ChatMessage {
	if m.Attachments != nil {
		m.Attachments = append([]Attachment{}, m.Attachments...)
	}
	return m
}

// Gender as recorded in the profile
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderOther  Gender = "other"
)

// ActivityLevel drives the TDEE multiplier
type ActivityLevel string

const (
	ActivitySedentary        ActivityLevel = "sedentary"
	ActivityLightlyActive    ActivityLevel = "lightlyActive"
	ActivityModeratelyActive ActivityLevel = "moderatelyActive"
	ActivityVeryActive       ActivityLevel = "veryActive"
	ActivityExtraActive      ActivityLevel = "extraActive"
)

// FitnessGoal selects the calorie and macro split
type FitnessGoal string

const (
	GoalWeightLoss    FitnessGoal = "weightLoss"
	GoalMaintenance   FitnessGoal = "maintenance"
	GoalMuscleGain    FitnessGoal = "muscleGain"
	GoalRecomposition FitnessGoal = "recomposition"
	GoalPerformance   FitnessGoal = "performance"
	GoalHealth        FitnessGoal = "health"
)

// Anthropometry holds body measurements; height in cm, weight in kg
type Anthropometry struct {
	Height             float64       `json:"height"`
	Weight             float64       `json:"weight"`
	Age                int           `json:"age"`
	Gender             Gender        `json:"gender"`
	ActivityLevel      ActivityLevel `json:"activityLevel"`
	BodyFatPercentage  *float64      `json:"bodyFatPercentage,omitempty"`
	MuscleMass         *float64      `json:"muscleMass,omitempty"`
	WaistCircumference *float64      `json:"waistCircumference,omitempty"`
	HipCircumference   *float64      `json:"hipCircumference,omitempty"`
}

// AnthropometryUpdate is a partial anthropometry update
type AnthropometryUpdate struct {
	Height             *float64
	Weight             *float64
	Age                *int
	Gender             *Gender
	ActivityLevel      *ActivityLevel
	BodyFatPercentage  *float64
	MuscleMass         *float64
	WaistCircumference *float64
	HipCircumference   *float64
}

// NutritionGoals are daily targets
type NutritionGoals struct {
	Calories float64  `json:"calories"`
	Protein  float64  `json:"protein"`
	Carbs    float64  `json:"carbs"`
	Fat      float64  `json:"fat"`
	Fiber    *float64 `json:"fiber,omitempty"`
	Sugar    *float64 `json:"sugar,omitempty"`
	Water    *float64 `json:"water,omitempty"`
}

// NutritionGoalsUpdate is a manual partial override of the goals
type NutritionGoalsUpdate struct {
	Calories *float64
	Protein  *float64
	Carbs    *float64
	Fat      *float64
	Fiber    *float64
	Sugar    *float64
	Water    *float64
}

// Preferences captures training and diet preferences
type Preferences struct {
	FitnessGoal              FitnessGoal `json:"fitnessGoal"`
	DietaryPreferences       []string    `json:"dietaryPreferences"`
	DietaryRestrictions      []string    `json:"dietaryRestrictions"`
	MealsPerDay              int         `json:"mealsPerDay"`
	PreferredWorkoutDuration int         `json:"preferredWorkoutDuration"`
	PreferredWorkoutDays     []string    `json:"preferredWorkoutDays"`
	Language                 string      `json:"language"`
}

// PreferencesUpdate is a partial preferences update
type PreferencesUpdate struct {
	FitnessGoal              *FitnessGoal
	DietaryPreferences       []string
	DietaryRestrictions      []string
	MealsPerDay              *int
	PreferredWorkoutDuration *int
	PreferredWorkoutDays     []string
	Language                 *string
}

// UserData is the single profile of an installation
type UserData struct {
	ID             string         `json:"id"`
	Name           string         `json:"name"`
	Anthropometry  Anthropometry  `json:"anthropometry"`
	NutritionGoals NutritionGoals `json:"nutritionGoals"`
	Preferences    Preferences    `json:"preferences"`
	AvatarURI      string         `json:"avatarUri,omitempty"`
	CreatedAt      time.Time      `json:"createdAt"`
	UpdatedAt      time.Time      `json:"updatedAt"`
}

// BodyMeasurements recorded alongside a progress photo, in cm
type BodyMeasurements struct {
	Chest  *float64 `json:"chest,omitempty"`
	Waist  *float64 `json:"waist,omitempty"`
	Hips   *float64 `json:"hips,omitempty"`
	Biceps *float64 `json:"biceps,omitempty"`
	Thighs *float64 `json:"thighs,omitempty"`
}

// WeightEntry is a single weigh-in in kg
type WeightEntry struct {
	ID     string    `json:"id"`
	Date   time.Time `json:"date"`
	Weight float64   `json:"weight"`
	Notes  string    `json:"notes,omitempty"`
}

// ProgressPhoto is a dated body photo
type ProgressPhoto struct {
	ID               string            `json:"id"`
	Date             time.Time         `json:"date"`
	ImageURI         string            `json:"imageUri"`
	Weight           *float64          `json:"weight,omitempty"`
	Notes            string            `json:"notes,omitempty"`
	BodyMeasurements *BodyMeasurements `json:"bodyMeasurements,omitempty"`
}

// WeightTrendPoint is the average weight of one calendar day
type WeightTrendPoint struct {
	Date   time.Time `json:"date"`
	Weight float64   `json:"weight"`
}
