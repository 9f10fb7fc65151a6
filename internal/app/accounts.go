// Package app assembles the per-account services over the shared store.
package app

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/vladimiradmaev/ai-trainer/internal/domain"
	apperrors "github.com/vladimiradmaev/ai-trainer/internal/errors"
	"github.com/vladimiradmaev/ai-trainer/internal/kvstore"
	"github.com/vladimiradmaev/ai-trainer/internal/logger"
	"github.com/vladimiradmaev/ai-trainer/internal/repository"
	"github.com/vladimiradmaev/ai-trainer/internal/services"
	"github.com/vladimiradmaev/ai-trainer/internal/tools"
	"github.com/vladimiradmaev/ai-trainer/internal/widget"
	"golang.org/x/sync/errgroup"
)

// Config tunes every account
type Config struct {
	ContextWindow int
	Timeout       time.Duration
	Location      *time.Location
	// Options are applied after the location, e.g. a fixed clock in tests.
	Options []services.Option
}

// Account is one user's stores and flows
type Account struct {
	ID        string
	Users     *services.UserService
	Nutrition *services.NutritionService
	Chat      *services.ChatService
	Progress  *services.ProgressService
	Catalog   *services.FoodCatalogService
	Analysis  *services.FoodAnalysisService
	Trainer   *services.TrainerService
	Tools     *tools.Registry
	Widget    *widget.KVBridge

	widgetMu  sync.Mutex
	widgetDay time.Time
}

// Accounts lazily builds one Account per id. Every account lives under its
// own key prefix of the shared store.
type Accounts struct {
	store    kvstore.Store
	gateway  domain.Gateway
	cfg      Config
	mu       sync.Mutex
	accounts map[string]*Account
}

// NewAccounts creates the account registry over store. gateway may be nil for
// callers that never reach the AI.
func NewAccounts(store kvstore.Store, gateway domain.Gateway, cfg Config) *Accounts {
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	return &Accounts{
		store:    store,
		gateway:  gateway,
		cfg:      cfg,
		accounts: make(map[string]*Account),
	}
}

// KeyPrefix returns the store prefix of an account
func KeyPrefix(accountID string) string {
	return accountID + ":"
}

// TelegramAccountID returns the account id of a Telegram user
func TelegramAccountID(userID int64) string {
	return fmt.Sprintf("tg:%d", userID)
}

// Get returns the account, building and hydrating it on first use. A cached
// account refreshes its widget intake once the local day has rolled over.
func (a *Accounts) Get(ctx context.Context, id string) (*Account, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperrors.NewValidationError("account id is required")
	}

	acc, cached, err := a.lookup(ctx, id)
	if err != nil {
		return nil, err
	}
	if cached {
		acc.RefreshWidget(ctx)
	}
	return acc, nil
}

func (a *Accounts) lookup(ctx context.Context, id string) (*Account, bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if acc, ok := a.accounts[id]; ok {
		return acc, true, nil
	}
	acc, err := a.build(ctx, id)
	if err != nil {
		return nil, false, err
	}
	a.accounts[id] = acc
	return acc, false, nil
}

// Tools returns the tool registry of an account
func (a *Accounts) Tools(ctx context.Context, id string) (*tools.Registry, error) {
	acc, err := a.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return acc.Tools, nil
}

// Loaded lists the ids of the accounts built so far
func (a *Accounts) Loaded() []string {
	a.mu.Lock()
	defer a.mu.Unlock()

	ids := make([]string, 0, len(a.accounts))
	for id := range a.accounts {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (a *Accounts) build(ctx context.Context, id string) (*Account, error) {
	store := kvstore.WithPrefix(a.store, KeyPrefix(id))
	opts := append([]services.Option{services.WithLocation(a.cfg.Location)}, a.cfg.Options...)

	acc := &Account{
		ID:        id,
		Users:     services.NewUserService(repository.NewUserRepository(store), opts...),
		Nutrition: services.NewNutritionService(repository.NewNutritionRepository(store), opts...),
		Chat:      services.NewChatService(repository.NewChatRepository(store), opts...),
		Progress:  services.NewProgressService(repository.NewWeightRepository(store), repository.NewPhotoRepository(store), opts...),
		Catalog:   services.NewFoodCatalogService(repository.NewFoodCatalogRepository(store)),
		Widget:    widget.NewKVBridge(store),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return acc.Users.Load(gctx) })
	g.Go(func() error { return acc.Nutrition.Load(gctx) })
	g.Go(func() error { return acc.Chat.Load(gctx) })
	g.Go(func() error { return acc.Progress.Load(gctx) })
	g.Go(func() error { return acc.Catalog.Load(gctx) })
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to load account %s: %w", id, err)
	}

	acc.Analysis = services.NewFoodAnalysisService(a.gateway, acc.Nutrition, acc.Catalog, opts...)
	acc.Trainer = services.NewTrainerService(acc.Chat, acc.Nutrition, acc.Users, a.gateway, services.TrainerConfig{
		ContextWindow: a.cfg.ContextWindow,
		Timeout:       a.cfg.Timeout,
	})
	acc.Tools = tools.NewRegistry(tools.Deps{
		Nutrition: acc.Nutrition,
		Catalog:   acc.Catalog,
		Progress:  acc.Progress,
		Users:     acc.Users,
		Analysis:  acc.Analysis,
		Location:  a.cfg.Location,
	})
	acc.Trainer.SetToolExecutor(acc.Tools)
	acc.wire()

	today := acc.Nutrition.Today()
	if err := widget.Sync(ctx, acc.Widget, acc.Nutrition, acc.Users, today); err != nil {
		logger.WithContext(ctx).Warn("Failed to sync widget", "account", id, "error", err)
	} else {
		acc.markWidgetDay(today)
	}
	logger.Info("Account loaded", "account", id)
	return acc, nil
}

// wire connects the stores: today's ledger and the goals feed the widget and
// a newest weigh-in updates the profile weight.
func (acc *Account) wire() {
	acc.Nutrition.OnChange(func(ctx context.Context, day time.Time) {
		if !day.Equal(acc.Nutrition.Today()) {
			return
		}
		acc.syncConsumed(ctx, day)
	})

	acc.Users.OnGoalsChange(func(ctx context.Context, goals domain.NutritionGoals) {
		if err := widget.SyncTarget(ctx, acc.Widget, goals); err != nil {
			logger.WithContext(ctx).Warn("Failed to sync widget target", "account", acc.ID, "error", err)
		}
	})

	acc.Progress.OnWeightAdded(func(ctx context.Context, entry domain.WeightEntry) {
		latest, ok := acc.Progress.LatestWeight()
		if !ok || latest.ID != entry.ID {
			return
		}
		if _, hasProfile := acc.Users.GetUserData(); !hasProfile {
			return
		}
		weight := entry.Weight
		if err := acc.Users.UpdateAnthropometry(ctx, domain.AnthropometryUpdate{Weight: &weight}); err != nil {
			logger.WithContext(ctx).Warn("Failed to sync profile weight", "account", acc.ID, "error", err)
		}
	})
}

// RefreshWidget republishes today's intake when the widget still shows an
// earlier day
func (acc *Account) RefreshWidget(ctx context.Context) {
	today := acc.Nutrition.Today()
	acc.widgetMu.Lock()
	current := acc.widgetDay.Equal(today)
	acc.widgetMu.Unlock()
	if !current {
		acc.syncConsumed(ctx, today)
	}
}

func (acc *Account) syncConsumed(ctx context.Context, day time.Time) {
	totals, _ := acc.Nutrition.GetDailyNutrition(day)
	if err := widget.SyncConsumed(ctx, acc.Widget, totals); err != nil {
		logger.WithContext(ctx).Warn("Failed to sync widget intake", "account", acc.ID, "error", err)
		return
	}
	acc.markWidgetDay(day)
}

func (acc *Account) markWidgetDay(day time.Time) {
	acc.widgetMu.Lock()
	acc.widgetDay = day
	acc.widgetMu.Unlock()
}
