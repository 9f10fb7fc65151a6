package bot

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/vladimiradmaev/ai-trainer/internal/bot/handlers"
	"github.com/vladimiradmaev/ai-trainer/internal/bot/state"
	apperrors "github.com/vladimiradmaev/ai-trainer/internal/errors"
	"github.com/vladimiradmaev/ai-trainer/internal/logger"
	"golang.org/x/sync/errgroup"
)

// maxConcurrentUpdates bounds the updates handled at once
const maxConcurrentUpdates = 16

type Bot struct {
	api     *tgbotapi.BotAPI
	handler *handlers.UpdateHandler
}

// NewBot authorizes token with Telegram and prepares the update handlers
func NewBot(token string, deps handlers.Dependencies, stateManager state.StateManager) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	logger.Infof("Bot authorized on account %s", api.Self.UserName)
	return &Bot{
		api:     api,
		handler: handlers.NewUpdateHandler(api, deps, stateManager),
	}, nil
}

// Start receives updates until ctx is cancelled. Updates are handled
// concurrently and in-flight ones finish before Start returns.
func (b *Bot) Start(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)
	log := logger.Component("bot")
	errs := apperrors.NewHandler(log)

	var g errgroup.Group
	g.SetLimit(maxConcurrentUpdates)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			log.Info("Stopping bot, waiting for in-flight updates")
			return g.Wait()
		case update, ok := <-updates:
			if !ok {
				return g.Wait()
			}
			g.Go(func() error {
				errs.Handle(ctx, b.handler.Handle(ctx, update))
				return nil
			})
		}
	}
}
