package services

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/vladimiradmaev/ai-trainer/internal/domain"
	apperrors "github.com/vladimiradmaev/ai-trainer/internal/errors"
	"github.com/vladimiradmaev/ai-trainer/internal/repository"
)

// FoodCatalogService is the shared food database consumed foods are built from.
type FoodCatalogService struct {
	repo  *repository.Snapshot[[]domain.FoodItem]
	mu    sync.RWMutex
	items []domain.FoodItem
}

// NewFoodCatalogService creates the food catalogue over repo
func NewFoodCatalogService(repo *repository.Snapshot[[]domain.FoodItem]) *FoodCatalogService {
	return &FoodCatalogService{repo: repo}
}

// Load replaces the in-memory catalogue with the persisted snapshot
func (s *FoodCatalogService) Load(ctx context.Context) error {
	items, _, err := s.repo.Load(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.items = items
	s.mu.Unlock()
	return nil
}

// AddFood inserts item, or replaces the item with the same id. An id is
// generated when empty.
func (s *FoodCatalogService) AddFood(ctx context.Context, item domain.FoodItem) (string, error) {
	item.Name = strings.TrimSpace(item.Name)
	if item.Name == "" {
		return "", apperrors.NewValidationError("food name is required")
	}
	if item.Calories < 0 || item.ServingSize < 0 {
		return "", apperrors.NewValidationError("food values must not be negative").WithContext("name", item.Name)
	}
	if item.ID == "" {
		item.ID = uuid.NewString()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := append([]domain.FoodItem{}, s.items...)
	replaced := false
	for i := range next {
		if next[i].ID == item.ID {
			next[i] = item
			replaced = true
			break
		}
	}
	if !replaced {
		next = append(next, item)
	}

	if err := s.repo.Save(ctx, next); err != nil {
		return "", err
	}
	s.items = next
	return item.ID, nil
}

// GetFood returns the item with id
func (s *FoodCatalogService) GetFood(id string) (domain.FoodItem, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, item := range s.items {
		if item.ID == id {
			return item, true
		}
	}
	return domain.FoodItem{}, false
}

// SearchFoods matches query case-insensitively against item names. Names
// starting with the query come first. limit <= 0 returns every match.
func (s *FoodCatalogService) SearchFoods(query string, limit int) []domain.FoodItem {
	query = strings.ToLower(strings.TrimSpace(query))

	s.mu.RLock()
	var matches []domain.FoodItem
	for _, item := range s.items {
		if strings.Contains(strings.ToLower(item.Name), query) {
			matches = append(matches, item)
		}
	}
	s.mu.RUnlock()

	sort.SliceStable(matches, func(i, j int) bool {
		pi := strings.HasPrefix(strings.ToLower(matches[i].Name), query)
		pj := strings.HasPrefix(strings.ToLower(matches[j].Name), query)
		return pi && !pj
	})

	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches
}
