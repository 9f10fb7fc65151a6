package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/vladimiradmaev/ai-trainer/internal/domain"
	apperrors "github.com/vladimiradmaev/ai-trainer/internal/errors"
	"github.com/vladimiradmaev/ai-trainer/internal/logger"
	"github.com/vladimiradmaev/ai-trainer/internal/repository"
	"github.com/vladimiradmaev/ai-trainer/internal/utils"
)

// DayChangeFunc is called after a persisted ledger mutation touching day.
type DayChangeFunc func(ctx context.Context, day time.Time)

// NutritionService is the nutrition ledger: meals grouped by local calendar day.
type NutritionService struct {
	repo      *repository.Snapshot[[]domain.DailyNutrition]
	clock     clock
	mu        sync.RWMutex
	days      []domain.DailyNutrition
	listeners []DayChangeFunc
}

// NewNutritionService creates an empty ledger; call Load to hydrate it.
func NewNutritionService(repo *repository.Snapshot[[]domain.DailyNutrition], opts ...Option) *NutritionService {
	return &NutritionService{
		repo:  repo,
		clock: newClock(opts),
	}
}

// Load replaces the in-memory state with the persisted snapshot
func (s *NutritionService) Load(ctx context.Context) error {
	days, _, err := s.repo.Load(ctx)
	if err != nil {
		return err
	}
	sortDays(days)

	s.mu.Lock()
	s.days = days
	s.mu.Unlock()
	return nil
}

// OnChange registers fn to be notified after every persisted mutation
func (s *NutritionService) OnChange(fn DayChangeFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// AddMeal stores a new meal under its local day and returns the meal id.
func (s *NutritionService) AddMeal(ctx context.Context, input domain.MealInput) (string, error) {
	if input.Type == "" {
		input.Type = domain.MealCustom
	}
	if !input.Type.Valid() {
		return "", apperrors.NewValidationError("unknown meal type").WithContext("type", input.Type)
	}

	now := s.clock.now()
	if input.Date.IsZero() {
		input.Date = now
	}
	if input.Time.IsZero() {
		input.Time = input.Date
	}

	meal := domain.Meal{
		ID:       uuid.NewString(),
		Type:     input.Type,
		Name:     input.Name,
		Foods:    append([]domain.ConsumedFood{}, input.Foods...),
		Date:     input.Date,
		Time:     input.Time,
		Notes:    input.Notes,
		ImageURI: input.ImageURI,
	}
	recomputeMeal(&meal)

	s.mu.Lock()
	next := cloneDays(s.days)
	next = s.insertMeal(next, meal)
	if err := s.commit(ctx, next); err != nil {
		s.mu.Unlock()
		return "", err
	}
	listeners := s.listeners
	s.mu.Unlock()

	logger.WithContext(ctx).Debug("Meal added", "meal_id", meal.ID, "calories", meal.TotalCalories)
	notify(ctx, listeners, s.dayOf(meal.Date))
	return meal.ID, nil
}

// UpdateMeal applies a partial update. A date on another calendar day moves
// the meal to that day.
func (s *NutritionService) UpdateMeal(ctx context.Context, mealID string, update domain.MealUpdate) error {
	if update.Type != nil && !update.Type.Valid() {
		return apperrors.NewValidationError("unknown meal type").WithContext("type", *update.Type)
	}

	s.mu.Lock()
	di, mi, ok := s.locate(mealID)
	if !ok {
		s.mu.Unlock()
		return apperrors.NewNotFoundError("meal", mealID)
	}

	next := cloneDays(s.days)
	meal := next[di].Meals[mi]
	oldDay := next[di].Date

	if update.Type != nil {
		meal.Type = *update.Type
	}
	if update.Name != nil {
		meal.Name = *update.Name
	}
	if update.Foods != nil {
		meal.Foods = append([]domain.ConsumedFood{}, update.Foods...)
	}
	if update.Time != nil {
		meal.Time = *update.Time
	}
	if update.Notes != nil {
		meal.Notes = *update.Notes
	}
	if update.ImageURI != nil {
		meal.ImageURI = *update.ImageURI
	}
	if update.Date != nil {
		meal.Date = *update.Date
	}
	recomputeMeal(&meal)

	newDay := s.dayOf(meal.Date)
	if newDay.Equal(oldDay) {
		next[di].Meals[mi] = meal
		recomputeDay(&next[di])
	} else {
		next = removeMealAt(next, di, mi)
		next = s.insertMeal(next, meal)
	}

	if err := s.commit(ctx, next); err != nil {
		s.mu.Unlock()
		return err
	}
	listeners := s.listeners
	s.mu.Unlock()

	notify(ctx, listeners, oldDay)
	if !newDay.Equal(oldDay) {
		notify(ctx, listeners, newDay)
	}
	return nil
}

// DeleteMeal removes a meal; its day is removed when it becomes empty
func (s *NutritionService) DeleteMeal(ctx context.Context, mealID string) error {
	s.mu.Lock()
	di, mi, ok := s.locate(mealID)
	if !ok {
		s.mu.Unlock()
		return apperrors.NewNotFoundError("meal", mealID)
	}

	day := s.days[di].Date
	next := removeMealAt(cloneDays(s.days), di, mi)
	if err := s.commit(ctx, next); err != nil {
		s.mu.Unlock()
		return err
	}
	listeners := s.listeners
	s.mu.Unlock()

	logger.WithContext(ctx).Debug("Meal deleted", "meal_id", mealID)
	notify(ctx, listeners, day)
	return nil
}

// AddFoodToMeal appends food to the meal
func (s *NutritionService) AddFoodToMeal(ctx context.Context, mealID string, food domain.ConsumedFood) error {
	return s.editFoods(ctx, mealID, -1, func(foods []domain.ConsumedFood) ([]domain.ConsumedFood, bool) {
		return append(foods, food), true
	})
}

// UpdateFoodInMeal replaces the food at index
func (s *NutritionService) UpdateFoodInMeal(ctx context.Context, mealID string, index int, food domain.ConsumedFood) error {
	if index < 0 {
		return apperrors.NewNotFoundError("food", mealID).WithContext("index", index)
	}
	return s.editFoods(ctx, mealID, index, func(foods []domain.ConsumedFood) ([]domain.ConsumedFood, bool) {
		foods[index] = food
		return foods, true
	})
}

// RemoveFoodFromMeal removes the food at index. An emptied meal is removed,
// and so is its day if that was the last meal.
func (s *NutritionService) RemoveFoodFromMeal(ctx context.Context, mealID string, index int) error {
	if index < 0 {
		return apperrors.NewNotFoundError("food", mealID).WithContext("index", index)
	}
	return s.editFoods(ctx, mealID, index, func(foods []domain.ConsumedFood) ([]domain.ConsumedFood, bool) {
		foods = append(foods[:index], foods[index+1:]...)
		return foods, len(foods) > 0
	})
}

// editFoods applies edit to a copy of the meal's foods. index is bounds-checked
// unless negative. When edit reports keep=false the meal is pruned.
func (s *NutritionService) editFoods(ctx context.Context, mealID string, index int, edit func([]domain.ConsumedFood) ([]domain.ConsumedFood, bool)) error {
	s.mu.Lock()
	di, mi, ok := s.locate(mealID)
	if !ok {
		s.mu.Unlock()
		return apperrors.NewNotFoundError("meal", mealID)
	}
	if index >= 0 && index >= len(s.days[di].Meals[mi].Foods) {
		s.mu.Unlock()
		return apperrors.NewNotFoundError("food", mealID).WithContext("index", index)
	}

	next := cloneDays(s.days)
	day := next[di].Date
	foods, keep := edit(next[di].Meals[mi].Foods)
	if keep {
		next[di].Meals[mi].Foods = foods
		recomputeMeal(&next[di].Meals[mi])
		recomputeDay(&next[di])
	} else {
		next = removeMealAt(next, di, mi)
	}

	if err := s.commit(ctx, next); err != nil {
		s.mu.Unlock()
		return err
	}
	listeners := s.listeners
	s.mu.Unlock()

	notify(ctx, listeners, day)
	return nil
}

// GetMeal returns a copy of the meal
func (s *NutritionService) GetMeal(mealID string) (domain.Meal, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	di, mi, ok := s.locate(mealID)
	if !ok {
		return domain.Meal{}, false
	}
	return s.days[di].Meals[mi].Clone(), true
}

// GetDailyNutrition returns the entry of the local day containing date
func (s *NutritionService) GetDailyNutrition(date time.Time) (domain.DailyNutrition, bool) {
	day := s.dayOf(date)

	s.mu.RLock()
	defer s.mu.RUnlock()

	if i := findDay(s.days, day); i >= 0 {
		return s.days[i].Clone(), true
	}
	return domain.DailyNutrition{}, false
}

// GetDailyNutritionRange returns the entries of every day from start to end
// inclusive, oldest first
func (s *NutritionService) GetDailyNutritionRange(start, end time.Time) []domain.DailyNutrition {
	from, to := s.dayOf(start), s.dayOf(end)

	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []domain.DailyNutrition
	for _, d := range s.days {
		if d.Date.Before(from) || d.Date.After(to) {
			continue
		}
		result = append(result, d.Clone())
	}
	return result
}

// CalculateRemainingNutrition compares the day's totals with the targets
func (s *NutritionService) CalculateRemainingNutrition(date time.Time, targetCalories float64, targetMacros domain.MacroTargets) domain.RemainingNutrition {
	day, _ := s.GetDailyNutrition(date)
	return RemainingNutrition(day.TotalCalories, day.TotalMacros, targetCalories, targetMacros)
}

// Today returns the start of the current local day
func (s *NutritionService) Today() time.Time {
	return s.dayOf(s.clock.now())
}

func (s *NutritionService) dayOf(t time.Time) time.Time {
	return utils.StartOfDay(t, s.clock.loc)
}

// insertMeal appends meal to its day, creating the day when needed.
func (s *NutritionService) insertMeal(days []domain.DailyNutrition, meal domain.Meal) []domain.DailyNutrition {
	day := s.dayOf(meal.Date)
	i := findDay(days, day)
	if i < 0 {
		days = append(days, domain.DailyNutrition{
			ID:    uuid.NewString(),
			Date:  day,
			Meals: []domain.Meal{},
		})
		sortDays(days)
		i = findDay(days, day)
	}
	days[i].Meals = append(days[i].Meals, meal)
	recomputeDay(&days[i])
	return days
}

// locate scans for the meal; callers hold the lock.
func (s *NutritionService) locate(mealID string) (int, int, bool) {
	for di, d := range s.days {
		for mi, m := range d.Meals {
			if m.ID == mealID {
				return di, mi, true
			}
		}
	}
	return -1, -1, false
}

// commit persists next and swaps it in; callers hold the write lock.
func (s *NutritionService) commit(ctx context.Context, next []domain.DailyNutrition) error {
	if err := s.repo.Save(ctx, next); err != nil {
		return err
	}
	s.days = next
	return nil
}

func removeMealAt(days []domain.DailyNutrition, di, mi int) []domain.DailyNutrition {
	days[di].Meals = append(days[di].Meals[:mi], days[di].Meals[mi+1:]...)
	if len(days[di].Meals) == 0 {
		return append(days[:di], days[di+1:]...)
	}
	recomputeDay(&days[di])
	return days
}

func findDay(days []domain.DailyNutrition, day time.Time) int {
	for i, d := range days {
		if d.Date.Equal(day) {
			return i
		}
	}
	return -1
}

func sortDays(days []domain.DailyNutrition) {
	sort.SliceStable(days, func(i, j int) bool {
		return days[i].Date.Before(days[j].Date)
	})
}

func cloneDays(days []domain.DailyNutrition) []domain.DailyNutrition {
	next := make([]domain.DailyNutrition, len(days))
	for i, d := range days {
		next[i] = d.Clone()
	}
	return next
}

func notify(ctx context.Context, listeners []DayChangeFunc, day time.Time) {
	for _, fn := range listeners {
		fn(ctx, day)
	}
}
