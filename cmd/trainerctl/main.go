package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/vladimiradmaev/ai-trainer/internal/app"
	"github.com/vladimiradmaev/ai-trainer/internal/config"
	"github.com/vladimiradmaev/ai-trainer/internal/kvstore"
	"github.com/vladimiradmaev/ai-trainer/internal/tools"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	verbose   bool
	accountID string

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "trainerctl",
	Short: "Inspect and edit the AI Trainer stores",
	Long: `trainerctl reads the store configured by the environment (the same
variables the bot uses) and prints one account's data as JSON.

Examples:
  trainerctl goals --account tg:123456
  trainerctl today --date 2024-03-10
  trainerctl weight-trend --days 14`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		zapConfig := zap.NewProductionConfig()
		if verbose {
			zapConfig.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zapConfig.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVarP(&accountID, "account", "a", tools.DefaultAccount, "Account id, e.g. tg:<telegram user id>")

	rootCmd.AddCommand(goalsCmd, todayCmd, weightTrendCmd, logWeightCmd, sessionsCmd, contextCmd)
}

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

// openAccount opens the configured store and loads the selected account.
// trainerctl has no AI gateway; commands only read and edit the stores.
func openAccount(ctx context.Context) (*app.Account, func(), error) {
	cfg, err := config.Read()
	if err != nil {
		return nil, nil, err
	}
	if err := cfg.ValidateStorage(); err != nil {
		return nil, nil, err
	}

	store, err := kvstore.Open(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open store: %w", err)
	}
	logger.Debug("Store opened", zap.String("backend", cfg.Storage.Backend), zap.String("account", accountID))

	accounts := app.NewAccounts(store, nil, app.Config{
		ContextWindow: cfg.AI.ContextWindow,
		Location:      cfg.Location,
	})
	acc, err := accounts.Get(ctx, accountID)
	if err != nil {
		store.Close()
		return nil, nil, err
	}
	return acc, func() { store.Close() }, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
