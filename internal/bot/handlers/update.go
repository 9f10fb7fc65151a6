package handlers

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/vladimiradmaev/ai-trainer/internal/app"
	"github.com/vladimiradmaev/ai-trainer/internal/bot/state"
	"github.com/vladimiradmaev/ai-trainer/internal/interfaces"
	"github.com/vladimiradmaev/ai-trainer/internal/logger"
)

// UpdateHandler handles telegram updates and coordinates other handlers
type UpdateHandler struct {
	deps            Dependencies
	callbackHandler *CallbackHandler
	commandHandler  *CommandHandler
	textHandler     *TextHandler
	photoHandler    *PhotoHandler
	voiceHandler    *VoiceHandler
}

// NewUpdateHandler creates a new update handler
func NewUpdateHandler(api interfaces.Sender, deps Dependencies, stateManager state.StateManager) *UpdateHandler {
	text := NewTextHandler(api, deps, stateManager)
	return &UpdateHandler{
		deps:            deps,
		callbackHandler: NewCallbackHandler(api, text, stateManager),
		commandHandler:  NewCommandHandler(api, stateManager),
		textHandler:     text,
		photoHandler:    NewPhotoHandler(api, stateManager),
		voiceHandler:    NewVoiceHandler(api, deps, text),
	}
}

// Handle processes a telegram update
func (h *UpdateHandler) Handle(ctx context.Context, update tgbotapi.Update) error {
	if update.Message == nil && update.CallbackQuery == nil {
		return nil
	}

	var from *tgbotapi.User
	if update.Message != nil {
		from = update.Message.From
	} else {
		from = update.CallbackQuery.From
	}
	if from == nil {
		return nil
	}

	accountID := app.TelegramAccountID(from.ID)
	ctx = logger.IntoContext(ctx, logger.WithFields("account", accountID, "update_id", update.UpdateID))

	account, err := h.deps.Accounts.Get(ctx, accountID)
	if err != nil {
		logger.WithContext(ctx).Error("Failed to load account", "error", err)
		return fmt.Errorf("failed to load account: %w", err)
	}

	if update.CallbackQuery != nil {
		return h.callbackHandler.Handle(ctx, update.CallbackQuery, account)
	}

	message := update.Message
	switch {
	case message.IsCommand():
		return h.commandHandler.Handle(ctx, message, account)
	case len(message.Photo) > 0:
		return h.photoHandler.Handle(ctx, message, account)
	case message.Voice != nil:
		return h.voiceHandler.Handle(ctx, message, account)
	case message.Text != "":
		return h.textHandler.Handle(ctx, message, account)
	}
	return nil
}
