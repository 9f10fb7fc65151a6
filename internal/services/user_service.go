package services

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/vladimiradmaev/ai-trainer/internal/domain"
	apperrors "github.com/vladimiradmaev/ai-trainer/internal/errors"
	"github.com/vladimiradmaev/ai-trainer/internal/logger"
	"github.com/vladimiradmaev/ai-trainer/internal/repository"
)

// GoalsChangeFunc is called after the nutrition goals were persisted
type GoalsChangeFunc func(ctx context.Context, goals domain.NutritionGoals)

// UserService owns the single user profile and its derived goals
type UserService struct {
	repo      *repository.Snapshot[domain.UserData]
	clock     clock
	mu        sync.RWMutex
	user      *domain.UserData
	listeners []GoalsChangeFunc
}

// NewUserService creates the profile store over repo. Call Load before use.
func NewUserService(repo *repository.Snapshot[domain.UserData], opts ...Option) *UserService {
	return &UserService{
		repo:  repo,
		clock: newClock(opts),
	}
}

// Load hydrates the profile from storage
func (s *UserService) Load(ctx context.Context) error {
	user, ok, err := s.repo.Load(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if ok {
		s.user = &user
	} else {
		s.user = nil
	}
	return nil
}

// OnGoalsChange registers fn to run after every goals change
func (s *UserService) OnGoalsChange(fn GoalsChangeFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// GetUserData returns a copy of the profile
func (s *UserService) GetUserData() (domain.UserData, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.user == nil {
		return domain.UserData{}, false
	}
	return cloneUser(*s.user), true
}

// SetUserData creates or replaces the profile. Goals are derived from the
// anthropometry when it is complete, otherwise the given goals are kept.
func (s *UserService) SetUserData(ctx context.Context, user domain.UserData) error {
	if err := validateAnthropometry(user.Anthropometry); err != nil {
		return err
	}

	now := s.clock.now()
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now
	if user.Preferences.FitnessGoal == "" {
		user.Preferences.FitnessGoal = domain.GoalMaintenance
	}
	if anthropometryComplete(user.Anthropometry) {
		user.NutritionGoals = s.calculateGoals(user, user.Preferences.FitnessGoal)
	}

	return s.save(ctx, cloneUser(user), true)
}

// UpdateAnthropometry merges update and recalculates the goals
func (s *UserService) UpdateAnthropometry(ctx context.Context, update domain.AnthropometryUpdate) error {
	return s.modify(ctx, func(user *domain.UserData) (bool, error) {
		a := &user.Anthropometry
		if update.Height != nil {
			a.Height = *update.Height
		}
		if update.Weight != nil {
			a.Weight = *update.Weight
		}
		if update.Age != nil {
			a.Age = *update.Age
		}
		if update.Gender != nil {
			a.Gender = *update.Gender
		}
		if update.ActivityLevel != nil {
			a.ActivityLevel = *update.ActivityLevel
		}
		if update.BodyFatPercentage != nil {
			a.BodyFatPercentage = ptr(*update.BodyFatPercentage)
		}
		if update.MuscleMass != nil {
			a.MuscleMass = ptr(*update.MuscleMass)
		}
		if update.WaistCircumference != nil {
			a.WaistCircumference = ptr(*update.WaistCircumference)
		}
		if update.HipCircumference != nil {
			a.HipCircumference = ptr(*update.HipCircumference)
		}
		if err := validateAnthropometry(*a); err != nil {
			return false, err
		}

		if !anthropometryComplete(*a) {
			return false, nil
		}
		user.NutritionGoals = s.calculateGoals(*user, user.Preferences.FitnessGoal)
		return true, nil
	})
}

// UpdatePreferences merges update. Goals are recalculated only when the
// fitness goal changes.
func (s *UserService) UpdatePreferences(ctx context.Context, update domain.PreferencesUpdate) error {
	return s.modify(ctx, func(user *domain.UserData) (bool, error) {
		p := &user.Preferences
		goalChanged := update.FitnessGoal != nil && *update.FitnessGoal != p.FitnessGoal

		if update.FitnessGoal != nil {
			p.FitnessGoal = *update.FitnessGoal
		}
		if update.DietaryPreferences != nil {
			p.DietaryPreferences = append([]string{}, update.DietaryPreferences...)
		}
		if update.DietaryRestrictions != nil {
			p.DietaryRestrictions = append([]string{}, update.DietaryRestrictions...)
		}
		if update.MealsPerDay != nil {
			p.MealsPerDay = *update.MealsPerDay
		}
		if update.PreferredWorkoutDuration != nil {
			p.PreferredWorkoutDuration = *update.PreferredWorkoutDuration
		}
		if update.PreferredWorkoutDays != nil {
			p.PreferredWorkoutDays = append([]string{}, update.PreferredWorkoutDays...)
		}
		if update.Language != nil {
			p.Language = *update.Language
		}

		if !goalChanged || !anthropometryComplete(user.Anthropometry) {
			return false, nil
		}
		user.NutritionGoals = s.calculateGoals(*user, p.FitnessGoal)
		return true, nil
	})
}

// UpdateNutritionGoals overrides goals manually
func (s *UserService) UpdateNutritionGoals(ctx context.Context, update domain.NutritionGoalsUpdate) error {
	return s.modify(ctx, func(user *domain.UserData) (bool, error) {
		g := &user.NutritionGoals
		for _, v := range []*float64{update.Calories, update.Protein, update.Carbs, update.Fat, update.Fiber, update.Sugar, update.Water} {
			if v != nil && *v < 0 {
				return false, apperrors.NewValidationError("nutrition goals must not be negative")
			}
		}
		if update.Calories != nil {
			g.Calories = *update.Calories
		}
		if update.Protein != nil {
			g.Protein = *update.Protein
		}
		if update.Carbs != nil {
			g.Carbs = *update.Carbs
		}
		if update.Fat != nil {
			g.Fat = *update.Fat
		}
		if update.Fiber != nil {
			g.Fiber = ptr(*update.Fiber)
		}
		if update.Sugar != nil {
			g.Sugar = ptr(*update.Sugar)
		}
		if update.Water != nil {
			g.Water = ptr(*update.Water)
		}
		return true, nil
	})
}

// UpdateAvatar sets the avatar reference
func (s *UserService) UpdateAvatar(ctx context.Context, uri string) error {
	return s.modify(ctx, func(user *domain.UserData) (bool, error) {
		user.AvatarURI = uri
		return false, nil
	})
}

// CalculateBMR returns the BMR of the stored profile
func (s *UserService) CalculateBMR() (float64, bool) {
	user, ok := s.GetUserData()
	if !ok {
		return 0, false
	}
	return BMR(user.Anthropometry), true
}

// CalculateTDEE returns the TDEE of the stored profile
func (s *UserService) CalculateTDEE() (float64, bool) {
	user, ok := s.GetUserData()
	if !ok {
		return 0, false
	}
	return TDEE(user.Anthropometry), true
}

// CalculateNutritionGoals derives goals for goal from the stored profile
// without saving them
func (s *UserService) CalculateNutritionGoals(goal domain.FitnessGoal) (domain.NutritionGoals, bool) {
	user, ok := s.GetUserData()
	if !ok {
		return domain.NutritionGoals{}, false
	}
	return s.calculateGoals(user, goal), true
}

// BMI returns the body mass index of the stored profile
func (s *UserService) BMI() (BMIResult, bool) {
	user, ok := s.GetUserData()
	if !ok {
		return BMIResult{}, false
	}
	return BMI(user.Anthropometry)
}

func (s *UserService) calculateGoals(user domain.UserData, goal domain.FitnessGoal) domain.NutritionGoals {
	goals := GoalsFromTDEE(TDEE(user.Anthropometry), user.Anthropometry.Weight, goal)
	// Manual extras survive recalculation.
	goals.Sugar = user.NutritionGoals.Sugar
	goals.Water = user.NutritionGoals.Water
	return goals
}

// modify applies edit to a copy of the profile and persists it. edit reports
// whether the goals changed.
func (s *UserService) modify(ctx context.Context, edit func(*domain.UserData) (bool, error)) error {
	s.mu.Lock()
	if s.user == nil {
		s.mu.Unlock()
		return apperrors.NewNotFoundError("user", "")
	}
	next := cloneUser(*s.user)
	goalsChanged, err := edit(&next)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	next.UpdatedAt = s.clock.now()
	return s.commitAndUnlock(ctx, next, goalsChanged)
}

func (s *UserService) save(ctx context.Context, user domain.UserData, goalsChanged bool) error {
	s.mu.Lock()
	return s.commitAndUnlock(ctx, user, goalsChanged)
}

// commitAndUnlock persists user, swaps it in and releases the write lock
// before notifying listeners.
func (s *UserService) commitAndUnlock(ctx context.Context, user domain.UserData, goalsChanged bool) error {
	if err := s.repo.Save(ctx, user); err != nil {
		s.mu.Unlock()
		return err
	}
	s.user = &user
	listeners := s.listeners
	s.mu.Unlock()

	if goalsChanged {
		logger.WithContext(ctx).Info("Nutrition goals updated",
			"calories", user.NutritionGoals.Calories,
			"protein", user.NutritionGoals.Protein,
			"carbs", user.NutritionGoals.Carbs,
			"fat", user.NutritionGoals.Fat)
		for _, fn := range listeners {
			fn(ctx, user.NutritionGoals)
		}
	}
	return nil
}

func validateAnthropometry(a domain.Anthropometry) error {
	var problems []string
	if a.Height < 0 || a.Height > 300 {
		problems = append(problems, "height must be between 0 and 300 cm")
	}
	if a.Weight < 0 || a.Weight > 500 {
		problems = append(problems, "weight must be between 0 and 500 kg")
	}
	if a.Age < 0 || a.Age > 130 {
		problems = append(problems, "age must be between 0 and 130")
	}
	if len(problems) > 0 {
		return apperrors.NewValidationError(strings.Join(problems, "; "))
	}
	return nil
}

func cloneUser(u domain.UserData) domain.UserData {
	u.Preferences.DietaryPreferences = append([]string(nil), u.Preferences.DietaryPreferences...)
	u.Preferences.DietaryRestrictions = append([]string(nil), u.Preferences.DietaryRestrictions...)
	u.Preferences.PreferredWorkoutDays = append([]string(nil), u.Preferences.PreferredWorkoutDays...)
	return u
}
