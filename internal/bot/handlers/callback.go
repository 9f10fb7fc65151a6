package handlers

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/vladimiradmaev/ai-trainer/internal/app"
	"github.com/vladimiradmaev/ai-trainer/internal/bot/keyboards"
	"github.com/vladimiradmaev/ai-trainer/internal/bot/menus"
	"github.com/vladimiradmaev/ai-trainer/internal/bot/state"
	"github.com/vladimiradmaev/ai-trainer/internal/domain"
	"github.com/vladimiradmaev/ai-trainer/internal/interfaces"
	"github.com/vladimiradmaev/ai-trainer/internal/logger"
)

// CallbackHandler handles inline keyboard callbacks
type CallbackHandler struct {
	api          interfaces.Sender
	text         *TextHandler
	stateManager state.StateManager
}

// NewCallbackHandler creates a new callback handler
func NewCallbackHandler(api interfaces.Sender, text *TextHandler, stateManager state.StateManager) *CallbackHandler {
	return &CallbackHandler{
		api:          api,
		text:         text,
		stateManager: stateManager,
	}
}

// Handle processes a callback query
func (h *CallbackHandler) Handle(ctx context.Context, callback *tgbotapi.CallbackQuery, account *app.Account) error {
	if callback.Message == nil {
		return nil
	}
	if _, err := h.api.Request(tgbotapi.NewCallback(callback.ID, "")); err != nil {
		logger.WithContext(ctx).Debug("Failed to answer callback", "error", err)
	}

	chatID := callback.Message.Chat.ID
	userID := callback.From.ID
	data := callback.Data
	logger.WithContext(ctx).Info("Handling callback", "data", data)

	switch {
	case data == keyboards.MainMenuData:
		h.stateManager.ClearUserState(userID)
		h.stateManager.ClearTempData(userID)
		return menus.SendMainMenu(h.api, chatID)
	case data == keyboards.TodayData:
		return sendToday(h.api, chatID, account)
	case data == keyboards.ProfileData:
		return sendProfile(h.api, chatID, account)
	case data == keyboards.HelpData:
		return reply(h.api, chatID, menus.HelpText, keyboards.BackToMenu())
	case data == keyboards.LogFoodData:
		h.stateManager.ClearTempData(userID)
		return reply(h.api, chatID, "Выберите приём пищи:", keyboards.MealTypeMenu())
	case strings.HasPrefix(data, keyboards.MealTypePrefix):
		mealType := domain.MealType(strings.TrimPrefix(data, keyboards.MealTypePrefix))
		if !mealType.Valid() {
			return reply(h.api, chatID, "Неизвестный приём пищи.", keyboards.MainMenu())
		}
		h.stateManager.SetTempData(userID, state.KeyMealType, string(mealType))
		h.stateManager.SetUserState(userID, state.WaitingForFoodDescription)
		return reply(h.api, chatID, fmt.Sprintf("%s: опишите, что вы съели, или отправьте фото.", menus.MealTypeName(mealType)), keyboards.BackToMenu())
	case data == keyboards.LogWeightData:
		h.stateManager.SetUserState(userID, state.WaitingForWeight)
		return reply(h.api, chatID, "Введите ваш вес в кг (например: 72.5)", keyboards.BackToMenu())
	case data == keyboards.NewChatData:
		if _, err := account.Chat.CreateSession(ctx); err != nil {
			return fmt.Errorf("failed to create chat session: %w", err)
		}
		return reply(h.api, chatID, "💬 Начат новый диалог с тренером. Напишите ваш вопрос.", nil)
	case strings.HasPrefix(data, keyboards.RetryPrefix):
		return h.text.Retry(ctx, chatID, account, strings.TrimPrefix(data, keyboards.RetryPrefix))
	default:
		logger.WithContext(ctx).Warn("Unknown callback", "data", data)
		return nil
	}
}
