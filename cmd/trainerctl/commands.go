package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/vladimiradmaev/ai-trainer/internal/app"
	"github.com/vladimiradmaev/ai-trainer/internal/domain"
	apperrors "github.com/vladimiradmaev/ai-trainer/internal/errors"
	"go.uber.org/zap"
)

var (
	date         string
	days         int
	contextLimit int
)

var goalsCmd = &cobra.Command{
	Use:   "goals",
	Short: "Show the profile's nutrition goals with BMR and TDEE",
	RunE:  withAccount(showGoals),
}

var todayCmd = &cobra.Command{
	Use:   "today",
	Short: "Show a day's meals and what is left of the goals",
	RunE:  withAccount(showDay),
}

var weightTrendCmd = &cobra.Command{
	Use:   "weight-trend",
	Short: "Show the daily average weight over the trailing days",
	RunE:  withAccount(showWeightTrend),
}

var logWeightCmd = &cobra.Command{
	Use:   "log-weight [kg]",
	Short: "Record a weigh-in",
	Args:  cobra.ExactArgs(1),
	RunE:  withAccount(logWeight),
}

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List chat sessions, newest first",
	RunE:  withAccount(showSessions),
}

var contextCmd = &cobra.Command{
	Use:   "context",
	Short: "Show the messages the trainer would receive next",
	RunE:  withAccount(showContext),
}

func init() {
	todayCmd.Flags().StringVar(&date, "date", "", "Day to show (YYYY-MM-DD), today when empty")
	weightTrendCmd.Flags().IntVar(&days, "days", 30, "Number of trailing days")
	contextCmd.Flags().IntVar(&contextLimit, "limit", 10, "Maximum number of messages")
}

func withAccount(run func(cmd *cobra.Command, args []string, acc *app.Account) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		acc, closeStore, err := openAccount(cmd.Context())
		if err != nil {
			logger.Error("Failed to open account", zap.String("account", accountID), zap.Error(err))
			return err
		}
		defer closeStore()
		return run(cmd, args, acc)
	}
}

type goalsView struct {
	Goals domain.NutritionGoals `json:"goals"`
	Goal  domain.FitnessGoal    `json:"fitnessGoal"`
	BMR   *float64              `json:"bmr,omitempty"`
	TDEE  *float64              `json:"tdee,omitempty"`
}

func showGoals(cmd *cobra.Command, _ []string, acc *app.Account) error {
	user, ok := acc.Users.GetUserData()
	if !ok {
		return apperrors.NewNotFoundError("user", acc.ID)
	}
	view := goalsView{Goals: user.NutritionGoals, Goal: user.Preferences.FitnessGoal}
	if bmr, ok := acc.Users.CalculateBMR(); ok {
		view.BMR = &bmr
	}
	if tdee, ok := acc.Users.CalculateTDEE(); ok {
		view.TDEE = &tdee
	}
	return printJSON(cmd.OutOrStdout(), view)
}

type dayView struct {
	Day       domain.DailyNutrition      `json:"day"`
	Remaining *domain.RemainingNutrition `json:"remaining,omitempty"`
}

func showDay(cmd *cobra.Command, _ []string, acc *app.Account) error {
	day := acc.Nutrition.Today()
	if date != "" {
		parsed, err := time.ParseInLocation("2006-01-02", date, day.Location())
		if err != nil {
			return apperrors.NewValidationError("date must be YYYY-MM-DD").WithContext("date", date)
		}
		day = parsed
	}

	daily, found := acc.Nutrition.GetDailyNutrition(day)
	if !found {
		daily = domain.DailyNutrition{Date: day, Meals: []domain.Meal{}}
	}
	view := dayView{Day: daily}
	if user, ok := acc.Users.GetUserData(); ok && user.NutritionGoals.Calories > 0 {
		g := user.NutritionGoals
		remaining := acc.Nutrition.CalculateRemainingNutrition(day, g.Calories, domain.MacroTargets{
			Protein: g.Protein,
			Carbs:   g.Carbs,
			Fat:     g.Fat,
		})
		view.Remaining = &remaining
	}
	return printJSON(cmd.OutOrStdout(), view)
}

func showWeightTrend(cmd *cobra.Command, _ []string, acc *app.Account) error {
	return printJSON(cmd.OutOrStdout(), acc.Progress.GetWeightTrend(days))
}

func logWeight(cmd *cobra.Command, args []string, acc *app.Account) error {
	var weight float64
	if _, err := fmt.Sscanf(args[0], "%g", &weight); err != nil {
		return apperrors.NewValidationError("weight must be a number").WithContext("weight", args[0])
	}
	id, err := acc.Progress.AddWeightEntry(cmd.Context(), domain.WeightEntry{Weight: weight})
	if err != nil {
		return err
	}
	logger.Info("Weight entry added", zap.String("account", acc.ID), zap.String("id", id), zap.Float64("weight", weight))
	return printJSON(cmd.OutOrStdout(), map[string]any{"id": id, "weight": weight})
}

type sessionView struct {
	ID        string    `json:"id"`
	Messages  int       `json:"messages"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	Current   bool      `json:"current"`
}

func showSessions(cmd *cobra.Command, _ []string, acc *app.Account) error {
	current, _ := acc.Chat.CurrentSession()
	sessions := acc.Chat.Sessions()
	views := make([]sessionView, 0, len(sessions))
	for _, s := range sessions {
		views = append(views, sessionView{
			ID:        s.ID,
			Messages:  len(s.Messages),
			CreatedAt: s.CreatedAt,
			UpdatedAt: s.UpdatedAt,
			Current:   s.ID == current.ID,
		})
	}
	return printJSON(cmd.OutOrStdout(), views)
}

func showContext(cmd *cobra.Command, _ []string, acc *app.Account) error {
	messages := acc.Chat.GetContextForAI(contextLimit)
	if messages == nil {
		messages = []domain.ChatMessage{}
	}
	return printJSON(cmd.OutOrStdout(), messages)
}
