package handlers

import (
	"net/http"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/vladimiradmaev/ai-trainer/internal/domain"
	"github.com/vladimiradmaev/ai-trainer/internal/interfaces"
	"github.com/vladimiradmaev/ai-trainer/internal/services"
)

// Dependencies holds all service dependencies for handlers
type Dependencies struct {
	Accounts    interfaces.AccountProvider
	Transcriber interfaces.TranscriptionService
	// HTTPClient downloads voice messages; http.DefaultClient when nil.
	HTTPClient *http.Client
}

func (d Dependencies) httpClient() *http.Client {
	if d.HTTPClient != nil {
		return d.HTTPClient
	}
	return http.DefaultClient
}

func reply(api interfaces.Sender, chatID int64, text string, markup any) error {
	msg := tgbotapi.NewMessage(chatID, text)
	if markup != nil {
		msg.ReplyMarkup = markup
	}
	_, err := api.Send(msg)
	return err
}

// replyMarkdown sends text as Markdown and falls back to plain text when
// Telegram rejects the markup
func replyMarkdown(api interfaces.Sender, chatID int64, text string, markup any) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	if markup != nil {
		msg.ReplyMarkup = markup
	}
	if _, err := api.Send(msg); err != nil {
		msg.ParseMode = ""
		_, err = api.Send(msg)
		return err
	}
	return nil
}

// lastFailedMessage returns the newest user message of the current session
// that is flagged with error
func lastFailedMessage(chat *services.ChatService) (string, bool) {
	session, ok := chat.CurrentSession()
	if !ok {
		return "", false
	}
	for i := len(session.Messages) - 1; i >= 0; i-- {
		m := session.Messages[i]
		if m.Role == domain.RoleUser && m.Error {
			return m.ID, true
		}
	}
	return "", false
}
