package domain

import (
	"context"
	"time"
)

// PromptKey selects one of the fixed system prompts
type PromptKey string

const (
	PromptFitnessTrainer    PromptKey = "fitnessTrainer"
	PromptInitialAssessment PromptKey = "initialAssessment"
	PromptFoodAnalysis      PromptKey = "foodAnalysis"
	PromptWorkoutAdvice     PromptKey = "workoutAdvice"
)

// ResponseType classifies an AI reply
type ResponseType string

const (
	ResponseNutrition     ResponseType = "nutrition"
	ResponseWorkout       ResponseType = "workout"
	ResponseGeneral       ResponseType = "general"
	ResponseAnthropometry ResponseType = "anthropometry"
)

// RequestOptions tune a single gateway call; zero values mean provider defaults.
type RequestOptions struct {
	Model            string   `json:"model,omitempty"`
	Temperature      *float32 `json:"temperature,omitempty"`
	MaxTokens        int      `json:"max_tokens,omitempty"`
	TopP             *float32 `json:"top_p,omitempty"`
	FrequencyPenalty *float32 `json:"frequency_penalty,omitempty"`
	PresencePenalty  *float32 `json:"presence_penalty,omitempty"`
}

// TodayIntake summarises what the user ate today
type TodayIntake struct {
	Calories  float64             `json:"calories"`
	Macros    Macros              `json:"macros"`
	Remaining *RemainingNutrition `json:"remaining,omitempty"`
	Meals     []string            `json:"meals,omitempty"`
}

// UserContext is the profile summary sent along with chat requests
type UserContext struct {
	Name           string          `json:"name,omitempty"`
	Anthropometry  *Anthropometry  `json:"anthropometry,omitempty"`
	NutritionGoals *NutritionGoals `json:"nutritionGoals,omitempty"`
	Preferences    *Preferences    `json:"preferences,omitempty"`
	TodayIntake    *TodayIntake    `json:"todayIntake,omitempty"`
}

// ToolFunction is the function part of a tool call; Arguments is JSON text.
type ToolFunction struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// ToolCall is a function invocation requested by the model
type ToolCall struct {
	ID       string       `json:"id"`
	Function ToolFunction `json:"function"`
}

// AIResponse is the parsed reply of the gateway
type AIResponse struct {
	Text      string         `json:"text"`
	Data      map[string]any `json:"data,omitempty"`
	Type      ResponseType   `json:"type,omitempty"`
	NextSteps []string       `json:"nextSteps,omitempty"`
	Questions []string       `json:"questions,omitempty"`
	ToolCalls []ToolCall     `json:"toolCalls,omitempty"`
}

// AnalyzedFood is one food recognised by the gateway, with portion totals
type AnalyzedFood struct {
	Name     string   `json:"name"`
	Amount   float64  `json:"amount"`
	Unit     string   `json:"unit"`
	Calories float64  `json:"calories"`
	Protein  float64  `json:"protein"`
	Carbs    float64  `json:"carbs"`
	Fat      float64  `json:"fat"`
	Fiber    *float64 `json:"fiber,omitempty"`
	Sugar    *float64 `json:"sugar,omitempty"`
}

// FoodAnalysis is the gateway's breakdown of a described or photographed meal
type FoodAnalysis struct {
	Foods        []AnalyzedFood `json:"foods"`
	MealName     string         `json:"mealName,omitempty"`
	Confidence   string         `json:"confidence"`
	AnalysisText string         `json:"analysisText"`
}

// Gateway is the external AI capability boundary. It is the only component
// allowed to fail for reasons outside the process.
type Gateway interface {
	SendChatRequest(ctx context.Context, messages []ChatMessage, prompt PromptKey, userCtx *UserContext, opts RequestOptions) (*AIResponse, error)
	AnalyzeFoodFromText(ctx context.Context, description string) (*FoodAnalysis, error)
	AnalyzeFoodFromImage(ctx context.Context, imageURL string) (*FoodAnalysis, error)
	TranscribeAudio(ctx context.Context, audioPath string) (string, error)
}

// NutritionLedger owns meals grouped into daily entries
type NutritionLedger interface {
	AddMeal(ctx context.Context, input MealInput) (string, error)
	UpdateMeal(ctx context.Context, mealID string, update MealUpdate) error
	DeleteMeal(ctx context.Context, mealID string) error
	AddFoodToMeal(ctx context.Context, mealID string, food ConsumedFood) error
	UpdateFoodInMeal(ctx context.Context, mealID string, index int, food ConsumedFood) error
	RemoveFoodFromMeal(ctx context.Context, mealID string, index int) error
	GetMeal(mealID string) (Meal, bool)
	GetDailyNutrition(date time.Time) (DailyNutrition, bool)
	GetDailyNutritionRange(start, end time.Time) []DailyNutrition
	CalculateRemainingNutrition(date time.Time, targetCalories float64, targetMacros MacroTargets) RemainingNutrition
}

// ChatStore owns chat sessions and the current-session pointer
type ChatStore interface {
	CreateSession(ctx context.Context) (string, error)
	AddMessage(ctx context.Context, input MessageInput) (string, error)
	UpdateMessage(ctx context.Context, messageID string, update MessageUpdate) error
	DeleteMessage(ctx context.Context, messageID string) error
	DeleteSession(ctx context.Context, sessionID string) error
	SetCurrentSession(ctx context.Context, sessionID string) error
	CurrentSession() (ChatSession, bool)
	Sessions() []ChatSession
	GetContextForAI(maxMessages int) []ChatMessage
}

// ProfileStore owns the single user profile
type ProfileStore interface {
	GetUserData() (UserData, bool)
	SetUserData(ctx context.Context, user UserData) error
	UpdateAnthropometry(ctx context.Context, update AnthropometryUpdate) error
	UpdatePreferences(ctx context.Context, update PreferencesUpdate) error
	UpdateNutritionGoals(ctx context.Context, update NutritionGoalsUpdate) error
}

// ProgressStore owns weight entries and progress photos
type ProgressStore interface {
	AddWeightEntry(ctx context.Context, entry WeightEntry) (string, error)
	DeleteWeightEntry(ctx context.Context, id string) error
	GetWeightEntries(start, end time.Time) []WeightEntry
	GetWeightTrend(days int) []WeightTrendPoint
	AddProgressPhoto(ctx context.Context, photo ProgressPhoto) (string, error)
	DeleteProgressPhoto(ctx context.Context, id string) error
	GetProgressPhotos(start, end time.Time) []ProgressPhoto
}
