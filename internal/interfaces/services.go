package interfaces

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/vladimiradmaev/ai-trainer/internal/app"
)

// Sender is the part of the Telegram Bot API the handlers use
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetFileDirectURL(fileID string) (string, error)
}

// AccountProvider defines the contract for resolving a user's stores
type AccountProvider interface {
	Get(ctx context.Context, accountID string) (*app.Account, error)
}

// TranscriptionService defines the contract for voice message transcription
type TranscriptionService interface {
	TranscribeAudio(ctx context.Context, audioPath string) (string, error)
}
