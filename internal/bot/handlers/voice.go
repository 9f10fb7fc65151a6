package handlers

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/vladimiradmaev/ai-trainer/internal/app"
	"github.com/vladimiradmaev/ai-trainer/internal/interfaces"
	"github.com/vladimiradmaev/ai-trainer/internal/logger"
)

// VoiceHandler transcribes voice messages and passes them to the trainer
type VoiceHandler struct {
	api  interfaces.Sender
	deps Dependencies
	text *TextHandler
}

// NewVoiceHandler creates a new voice handler
func NewVoiceHandler(api interfaces.Sender, deps Dependencies, text *TextHandler) *VoiceHandler {
	return &VoiceHandler{
		api:  api,
		deps: deps,
		text: text,
	}
}

// Handle processes a voice message
func (h *VoiceHandler) Handle(ctx context.Context, message *tgbotapi.Message, account *app.Account) error {
	chatID := message.Chat.ID
	if h.deps.Transcriber == nil {
		return reply(h.api, chatID, "Голосовые сообщения пока не поддерживаются. Напишите текстом.", nil)
	}

	url, err := h.api.GetFileDirectURL(message.Voice.FileID)
	if err != nil {
		return fmt.Errorf("failed to get file: %w", err)
	}

	path, err := h.download(ctx, url)
	if err != nil {
		logger.WithContext(ctx).Error("Failed to download voice message", "error", err)
		return reply(h.api, chatID, "Не удалось загрузить голосовое сообщение.", nil)
	}
	defer os.Remove(path)

	text, err := h.deps.Transcriber.TranscribeAudio(ctx, path)
	if err != nil {
		logger.WithContext(ctx).Warn("Voice transcription failed", "error", err)
		return reply(h.api, chatID, "Не удалось распознать голосовое сообщение.", nil)
	}
	logger.WithContext(ctx).Info("Voice message transcribed", "chars", len(text))

	if err := reply(h.api, chatID, "🎤 "+text, nil); err != nil {
		return err
	}
	return h.text.Chat(ctx, chatID, account, text)
}

func (h *VoiceHandler) download(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := h.deps.httpClient().Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to download voice: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("failed to download voice: status %d", resp.StatusCode)
	}

	f, err := os.CreateTemp("", "voice-*.ogg")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("failed to write voice: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("failed to write voice: %w", err)
	}
	return f.Name(), nil
}
