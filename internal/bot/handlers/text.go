package handlers

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/vladimiradmaev/ai-trainer/internal/app"
	"github.com/vladimiradmaev/ai-trainer/internal/bot/keyboards"
	"github.com/vladimiradmaev/ai-trainer/internal/bot/menus"
	"github.com/vladimiradmaev/ai-trainer/internal/bot/state"
	"github.com/vladimiradmaev/ai-trainer/internal/domain"
	apperrors "github.com/vladimiradmaev/ai-trainer/internal/errors"
	"github.com/vladimiradmaev/ai-trainer/internal/interfaces"
	"github.com/vladimiradmaev/ai-trainer/internal/logger"
	"github.com/vladimiradmaev/ai-trainer/internal/services"
)

// TextHandler handles text messages
type TextHandler struct {
	api          interfaces.Sender
	deps         Dependencies
	stateManager state.StateManager
}

// NewTextHandler creates a new text handler
func NewTextHandler(api interfaces.Sender, deps Dependencies, stateManager state.StateManager) *TextHandler {
	return &TextHandler{
		api:          api,
		deps:         deps,
		stateManager: stateManager,
	}
}

// Handle processes a text message
func (h *TextHandler) Handle(ctx context.Context, message *tgbotapi.Message, account *app.Account) error {
	userID := message.From.ID

	switch h.stateManager.GetUserState(userID) {
	case state.WaitingForWeight:
		h.stateManager.ClearUserState(userID)
		return logWeight(ctx, h.api, message.Chat.ID, account, message.Text)
	case state.WaitingForFoodDescription:
		mealType, _ := h.stateManager.GetTempData(userID, state.KeyMealType)
		h.stateManager.ClearUserState(userID)
		h.stateManager.ClearTempData(userID)
		return h.logFood(ctx, message, account, domain.MealType(mealType))
	default:
		return h.Chat(ctx, message.Chat.ID, account, message.Text)
	}
}

func (h *TextHandler) logFood(ctx context.Context, message *tgbotapi.Message, account *app.Account, mealType domain.MealType) error {
	result, err := account.Analysis.LogMealFromText(ctx, message.Text, mealType, message.Time())
	if err != nil {
		logger.WithContext(ctx).Warn("Failed to log meal from text", "error", err)
		return reply(h.api, message.Chat.ID, analysisErrorText(err), keyboards.MainMenu())
	}
	return replyMarkdown(h.api, message.Chat.ID, menus.FormatMealLogged(result), keyboards.MainMenu())
}

// Chat sends text to the trainer and replies with the answer. A failed
// exchange is answered with a retry button.
func (h *TextHandler) Chat(ctx context.Context, chatID int64, account *app.Account, text string) error {
	if _, err := h.api.Request(tgbotapi.NewChatAction(chatID, tgbotapi.ChatTyping)); err != nil {
		logger.WithContext(ctx).Debug("Failed to send typing action", "error", err)
	}

	result, err := account.Trainer.SendMessage(ctx, text, nil)
	return h.sendTrainerReply(ctx, chatID, account, result, err)
}

// Retry resends a failed message to the trainer
func (h *TextHandler) Retry(ctx context.Context, chatID int64, account *app.Account, messageID string) error {
	if _, err := h.api.Request(tgbotapi.NewChatAction(chatID, tgbotapi.ChatTyping)); err != nil {
		logger.WithContext(ctx).Debug("Failed to send typing action", "error", err)
	}

	result, err := account.Trainer.Retry(ctx, messageID)
	if apperrors.TypeOf(err) == apperrors.ErrorTypeNotFound || apperrors.TypeOf(err) == apperrors.ErrorTypeValidation {
		return reply(h.api, chatID, "Это сообщение уже нельзя повторить.", nil)
	}
	return h.sendTrainerReply(ctx, chatID, account, result, err)
}

func (h *TextHandler) sendTrainerReply(ctx context.Context, chatID int64, account *app.Account, result *services.TrainerReply, err error) error {
	if err != nil {
		if apperrors.TypeOf(err) == apperrors.ErrorTypeValidation {
			return reply(h.api, chatID, "Сообщение пустое.", nil)
		}
		logger.WithContext(ctx).Warn("Trainer exchange failed", "error", err)

		text := "Не удалось получить ответ тренера. Попробуйте ещё раз."
		if apperrors.TypeOf(err) == apperrors.ErrorTypeTimeout {
			text = "Тренер не ответил вовремя. Попробуйте ещё раз."
		}
		if msgID, ok := lastFailedMessage(account.Chat); ok {
			return reply(h.api, chatID, text, keyboards.Retry(msgID))
		}
		return reply(h.api, chatID, text, nil)
	}

	if err := reply(h.api, chatID, menus.FormatTrainerReply(result.Response), nil); err != nil {
		return fmt.Errorf("failed to send trainer reply: %w", err)
	}
	for _, tool := range result.ToolResults {
		if tool.Err != nil {
			continue
		}
		if tool.Name == "log_meal" || tool.Name == "log_weight" {
			return reply(h.api, chatID, "✅ Записано в дневник.", keyboards.MainMenu())
		}
	}
	return nil
}

func analysisErrorText(err error) string {
	switch apperrors.TypeOf(err) {
	case apperrors.ErrorTypeTimeout:
		return "Анализ занял слишком много времени. Пожалуйста, попробуйте ещё раз."
	case apperrors.ErrorTypeValidation:
		return "Не удалось распознать еду. Опишите блюдо подробнее."
	default:
		return "Извините, произошла ошибка при анализе. Пожалуйста, попробуйте ещё раз через несколько минут."
	}
}
