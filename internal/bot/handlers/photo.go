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
	"github.com/vladimiradmaev/ai-trainer/internal/interfaces"
	"github.com/vladimiradmaev/ai-trainer/internal/logger"
)

// TelegramFilePrefix marks image references that point at a Telegram file id
const TelegramFilePrefix = "tg-file:"

// PhotoHandler handles photo messages
type PhotoHandler struct {
	api          interfaces.Sender
	stateManager state.StateManager
}

// NewPhotoHandler creates a new photo handler
func NewPhotoHandler(api interfaces.Sender, stateManager state.StateManager) *PhotoHandler {
	return &PhotoHandler{
		api:          api,
		stateManager: stateManager,
	}
}

// Handle analyses a meal photo and logs it
func (h *PhotoHandler) Handle(ctx context.Context, message *tgbotapi.Message, account *app.Account) error {
	log := logger.WithContext(ctx)
	chatID := message.Chat.ID
	userID := message.From.ID

	// Get the largest photo
	photo := message.Photo[len(message.Photo)-1]
	imageURL, err := h.api.GetFileDirectURL(photo.FileID)
	if err != nil {
		return fmt.Errorf("failed to get file: %w", err)
	}

	mealType, _ := h.stateManager.GetTempData(userID, state.KeyMealType)
	h.stateManager.ClearUserState(userID)
	h.stateManager.ClearTempData(userID)

	processing, err := h.api.Send(tgbotapi.NewMessage(chatID, "Анализирую изображение..."))
	if err != nil {
		return fmt.Errorf("failed to send processing message: %w", err)
	}

	log.Info("Starting food photo analysis", "file_id", photo.FileID)
	result, err := account.Analysis.LogMealFromImage(ctx, imageURL, TelegramFilePrefix+photo.FileID, domain.MealType(mealType), message.Time())

	if _, delErr := h.api.Request(tgbotapi.NewDeleteMessage(chatID, processing.MessageID)); delErr != nil {
		log.Debug("Failed to delete processing message", "error", delErr)
	}

	if err != nil {
		log.Warn("Food photo analysis failed", "error", err)
		return reply(h.api, chatID, analysisErrorText(err), keyboards.MainMenu())
	}
	return replyMarkdown(h.api, chatID, menus.FormatMealLogged(result), keyboards.MainMenu())
}
