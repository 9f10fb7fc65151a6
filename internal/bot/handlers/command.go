package handlers

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/vladimiradmaev/ai-trainer/internal/app"
	"github.com/vladimiradmaev/ai-trainer/internal/bot/keyboards"
	"github.com/vladimiradmaev/ai-trainer/internal/bot/menus"
	"github.com/vladimiradmaev/ai-trainer/internal/bot/state"
	"github.com/vladimiradmaev/ai-trainer/internal/domain"
	apperrors "github.com/vladimiradmaev/ai-trainer/internal/errors"
	"github.com/vladimiradmaev/ai-trainer/internal/interfaces"
	"github.com/vladimiradmaev/ai-trainer/internal/logger"
)

// CommandHandler handles bot commands
type CommandHandler struct {
	api          interfaces.Sender
	stateManager state.StateManager
}

// NewCommandHandler creates a new command handler
func NewCommandHandler(api interfaces.Sender, stateManager state.StateManager) *CommandHandler {
	return &CommandHandler{
		api:          api,
		stateManager: stateManager,
	}
}

// Handle processes a command message
func (h *CommandHandler) Handle(ctx context.Context, message *tgbotapi.Message, account *app.Account) error {
	logger.WithContext(ctx).Info("Handling command", "command", message.Command())

	chatID := message.Chat.ID
	switch message.Command() {
	case "start":
		h.stateManager.ClearUserState(message.From.ID)
		h.stateManager.ClearTempData(message.From.ID)
		if err := ensureProfile(ctx, account, message.From); err != nil {
			return err
		}
		return menus.SendMainMenu(h.api, chatID)
	case "help":
		return reply(h.api, chatID, menus.HelpText, keyboards.BackToMenu())
	case "today":
		return sendToday(h.api, chatID, account)
	case "new":
		if _, err := account.Chat.CreateSession(ctx); err != nil {
			return fmt.Errorf("failed to create chat session: %w", err)
		}
		return reply(h.api, chatID, "💬 Начат новый диалог с тренером.", nil)
	case "weight":
		return h.handleWeight(ctx, message, account)
	case "profile":
		return h.handleProfile(ctx, message, account)
	default:
		return reply(h.api, chatID, "Неизвестная команда. Используйте /help для списка команд.", nil)
	}
}

func (h *CommandHandler) handleWeight(ctx context.Context, message *tgbotapi.Message, account *app.Account) error {
	args := strings.TrimSpace(message.CommandArguments())
	if args == "" {
		h.stateManager.SetUserState(message.From.ID, state.WaitingForWeight)
		return reply(h.api, message.Chat.ID, "Введите ваш вес в кг (например: 72.5)", keyboards.BackToMenu())
	}
	return logWeight(ctx, h.api, message.Chat.ID, account, args)
}

func (h *CommandHandler) handleProfile(ctx context.Context, message *tgbotapi.Message, account *app.Account) error {
	chatID := message.Chat.ID
	args := strings.Fields(message.CommandArguments())
	if len(args) == 0 {
		return sendProfile(h.api, chatID, account)
	}

	user, err := parseProfileArgs(args)
	if err != nil {
		return reply(h.api, chatID, "Формат: /profile рост вес возраст пол [активность] [цель]\nПример: /profile 170 65 28 female lightlyActive weightLoss", nil)
	}

	if existing, ok := account.Users.GetUserData(); ok {
		existing.Anthropometry = user.Anthropometry
		if user.Preferences.FitnessGoal != "" {
			existing.Preferences.FitnessGoal = user.Preferences.FitnessGoal
		}
		user = existing
	} else {
		user.Name = message.From.FirstName
	}

	if err := account.Users.SetUserData(ctx, user); err != nil {
		if apperrors.TypeOf(err) == apperrors.ErrorTypeValidation {
			return reply(h.api, chatID, "Некорректные данные профиля: "+err.Error(), nil)
		}
		return fmt.Errorf("failed to save profile: %w", err)
	}
	return sendProfile(h.api, chatID, account)
}

// parseProfileArgs reads "height weight age gender [activity] [goal]"
func parseProfileArgs(args []string) (domain.UserData, error) {
	var user domain.UserData
	if len(args) < 4 || len(args) > 6 {
		return user, apperrors.NewValidationError("expected 4 to 6 arguments")
	}

	height, err := parseNumber(args[0])
	if err != nil {
		return user, err
	}
	weight, err := parseNumber(args[1])
	if err != nil {
		return user, err
	}
	age, err := strconv.Atoi(args[2])
	if err != nil {
		return user, apperrors.NewValidationError("age must be a whole number")
	}

	a := domain.Anthropometry{
		Height:        height,
		Weight:        weight,
		Age:           age,
		Gender:        domain.Gender(strings.ToLower(args[3])),
		ActivityLevel: domain.ActivityModeratelyActive,
	}
	switch a.Gender {
	case domain.GenderMale, domain.GenderFemale, domain.GenderOther:
	default:
		return user, apperrors.NewValidationError("unknown gender").WithContext("gender", args[3])
	}
	if len(args) > 4 {
		a.ActivityLevel = domain.ActivityLevel(args[4])
		if _, known := activityLevels[a.ActivityLevel]; !known {
			return user, apperrors.NewValidationError("unknown activity level").WithContext("activity", args[4])
		}
	}
	if len(args) > 5 {
		goal := domain.FitnessGoal(args[5])
		if _, known := fitnessGoals[goal]; !known {
			return user, apperrors.NewValidationError("unknown goal").WithContext("goal", args[5])
		}
		user.Preferences.FitnessGoal = goal
	}
	user.Anthropometry = a
	return user, nil
}

var activityLevels = map[domain.ActivityLevel]struct{}{
	domain.ActivitySedentary:        {},
	domain.ActivityLightlyActive:    {},
	domain.ActivityModeratelyActive: {},
	domain.ActivityVeryActive:       {},
	domain.ActivityExtraActive:      {},
}

var fitnessGoals = map[domain.FitnessGoal]struct{}{
	domain.GoalWeightLoss:    {},
	domain.GoalMaintenance:   {},
	domain.GoalMuscleGain:    {},
	domain.GoalRecomposition: {},
	domain.GoalPerformance:   {},
	domain.GoalHealth:        {},
}

// parseNumber accepts both "72.5" and "72,5"
func parseNumber(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(s), ",", "."), 64)
	if err != nil {
		return 0, apperrors.NewValidationError("not a number").WithContext("value", s)
	}
	return v, nil
}

// ensureProfile creates an empty profile named after the Telegram user
func ensureProfile(ctx context.Context, account *app.Account, from *tgbotapi.User) error {
	if _, ok := account.Users.GetUserData(); ok {
		return nil
	}
	name := strings.TrimSpace(from.FirstName)
	if name == "" {
		name = from.UserName
	}
	if err := account.Users.SetUserData(ctx, domain.UserData{Name: name}); err != nil {
		return fmt.Errorf("failed to create profile: %w", err)
	}
	logger.WithContext(ctx).Info("Profile created", "name", name)
	return nil
}

func sendToday(api interfaces.Sender, chatID int64, account *app.Account) error {
	today := account.Nutrition.Today()
	day, _ := account.Nutrition.GetDailyNutrition(today)

	var goals *domain.NutritionGoals
	var remaining *domain.RemainingNutrition
	if user, ok := account.Users.GetUserData(); ok && user.NutritionGoals.Calories > 0 {
		g := user.NutritionGoals
		goals = &g
		r := account.Nutrition.CalculateRemainingNutrition(today, g.Calories, domain.MacroTargets{
			Protein: g.Protein,
			Carbs:   g.Carbs,
			Fat:     g.Fat,
		})
		remaining = &r
	}
	return replyMarkdown(api, chatID, menus.FormatToday(day, goals, remaining), keyboards.BackToMenu())
}

func sendProfile(api interfaces.Sender, chatID int64, account *app.Account) error {
	user, ok := account.Users.GetUserData()
	if !ok {
		return reply(api, chatID, "Профиль не найден. Используйте /start.", nil)
	}
	return replyMarkdown(api, chatID, menus.FormatProfile(user), keyboards.BackToMenu())
}

func logWeight(ctx context.Context, api interfaces.Sender, chatID int64, account *app.Account, text string) error {
	weight, err := parseNumber(text)
	if err != nil {
		return reply(api, chatID, "Пожалуйста, введите корректное число (например: 72.5)", nil)
	}
	if _, err := account.Progress.AddWeightEntry(ctx, domain.WeightEntry{Weight: weight}); err != nil {
		if apperrors.TypeOf(err) == apperrors.ErrorTypeValidation {
			return reply(api, chatID, "Вес должен быть от 0 до 500 кг.", nil)
		}
		return fmt.Errorf("failed to add weight entry: %w", err)
	}
	return reply(api, chatID, fmt.Sprintf("⚖️ Вес %.1f кг записан.", weight), keyboards.MainMenu())
}
