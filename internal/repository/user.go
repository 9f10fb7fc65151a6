package repository

import (
	"github.com/vladimiradmaev/ai-trainer/internal/domain"
	"github.com/vladimiradmaev/ai-trainer/internal/kvstore"
)

// ChatState is the persisted form of the chat store
type ChatState struct {
	Sessions         []domain.ChatSession `json:"sessions"`
	CurrentSessionID *string              `json:"currentSessionId"`
}

// NewUserRepository stores the single profile
func NewUserRepository(store kvstore.Store) *Snapshot[domain.UserData] {
	return NewSnapshot[domain.UserData](store, KeyUser)
}

// NewNutritionRepository stores the daily nutrition entries
func NewNutritionRepository(store kvstore.Store) *Snapshot[[]domain.DailyNutrition] {
	return NewSnapshot[[]domain.DailyNutrition](store, KeyDailyNutrition)
}

// NewChatRepository stores sessions together with the current-session pointer
func NewChatRepository(store kvstore.Store) *Snapshot[ChatState] {
	return NewSnapshot[ChatState](store, KeyChatSessions)
}

// NewWeightRepository stores weight entries
func NewWeightRepository(store kvstore.Store) *Snapshot[[]domain.WeightEntry] {
	return NewSnapshot[[]domain.WeightEntry](store, KeyWeightEntries)
}

// NewPhotoRepository stores progress photos
func NewPhotoRepository(store kvstore.Store) *Snapshot[[]domain.ProgressPhoto] {
	return NewSnapshot[[]domain.ProgressPhoto](store, KeyProgressPhotos)
}

// NewFoodCatalogRepository stores the shared food database
func NewFoodCatalogRepository(store kvstore.Store) *Snapshot[[]domain.FoodItem] {
	return NewSnapshot[[]domain.FoodItem](store, KeyFoodCatalog)
}
