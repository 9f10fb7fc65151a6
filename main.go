package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/vladimiradmaev/ai-trainer/internal/app"
	"github.com/vladimiradmaev/ai-trainer/internal/bot"
	"github.com/vladimiradmaev/ai-trainer/internal/bot/handlers"
	"github.com/vladimiradmaev/ai-trainer/internal/bot/state"
	"github.com/vladimiradmaev/ai-trainer/internal/config"
	"github.com/vladimiradmaev/ai-trainer/internal/kvstore"
	"github.com/vladimiradmaev/ai-trainer/internal/logger"
	"github.com/vladimiradmaev/ai-trainer/internal/prompts"
	"github.com/vladimiradmaev/ai-trainer/internal/services"
	"github.com/vladimiradmaev/ai-trainer/internal/tools"
	"golang.org/x/sync/errgroup"
)

func main() {
	if err := godotenv.Load(); err != nil {
		logger.Warn(".env file not found")
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config", "error", err)
	}

	if err := logger.InitWithConfig(logger.Config{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
	}); err != nil {
		logger.Fatal("Failed to initialize logger", "error", err)
	}
	logger.Info("Starting AI Trainer...")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		logger.Fatal("Application stopped with error", "error", err)
	}
	logger.Info("AI Trainer stopped")
}

func run(ctx context.Context, cfg *config.Config) error {
	if cfg.TelegramToken == "" && cfg.Tools.Addr == "" {
		return errors.New("nothing to run: set TELEGRAM_BOT_TOKEN or TOOLS_ADDR")
	}

	store, err := kvstore.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	catalog, err := prompts.Default()
	if err != nil {
		return err
	}
	aiService, err := services.NewAIService(ctx, cfg.AI, catalog)
	if err != nil {
		return err
	}
	defer aiService.Close()

	accounts := app.NewAccounts(store, aiService, app.Config{
		ContextWindow: cfg.AI.ContextWindow,
		Timeout:       cfg.AI.Timeout,
		Location:      cfg.Location,
	})
	logger.Info("Services initialized successfully")

	g, ctx := errgroup.WithContext(ctx)

	if cfg.TelegramToken != "" {
		stateManager, closeState, err := newStateManager(cfg.Redis)
		if err != nil {
			return err
		}
		defer closeState()

		telegramBot, err := bot.NewBot(cfg.TelegramToken, handlers.Dependencies{
			Accounts:    accounts,
			Transcriber: aiService,
		}, stateManager)
		if err != nil {
			return err
		}
		g.Go(func() error {
			logger.Info("Bot is running")
			return telegramBot.Start(ctx)
		})
	}

	if cfg.Tools.Addr != "" {
		server := tools.NewServer(cfg.Tools.Addr, accounts)
		g.Go(func() error {
			return server.Start(ctx)
		})
	}

	return g.Wait()
}

// newStateManager keeps dialog state in Redis when it is configured so that
// it survives restarts
func newStateManager(cfg config.RedisConfig) (state.StateManager, func(), error) {
	if !cfg.Enabled() {
		return state.NewManager(), func() {}, nil
	}
	client, err := kvstore.NewRedisClient(cfg)
	if err != nil {
		return nil, nil, err
	}
	logger.Info("Using Redis for dialog state", "host", cfg.Host)
	return state.NewRedisManager(client), func() { client.Close() }, nil
}
