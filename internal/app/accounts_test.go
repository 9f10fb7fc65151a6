package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vladimiradmaev/ai-trainer/internal/domain"
	apperrors "github.com/vladimiradmaev/ai-trainer/internal/errors"
	"github.com/vladimiradmaev/ai-trainer/internal/kvstore"
	"github.com/vladimiradmaev/ai-trainer/internal/services"
	"github.com/vladimiradmaev/ai-trainer/internal/widget"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m, goleak.IgnoreTopFunction("go.opencensus.io/stats/view.(*worker).start"))
}

var testNow = time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

type scriptedGateway struct {
	reply *domain.AIResponse
}

func (g *scriptedGateway) SendChatRequest(context.Context, []domain.ChatMessage, domain.PromptKey, *domain.UserContext, domain.RequestOptions) (*domain.AIResponse, error) {
	return g.reply, nil
}

func (g *scriptedGateway) AnalyzeFoodFromText(context.Context, string) (*domain.FoodAnalysis, error) {
	return nil, apperrors.NewGatewayError(nil, "test")
}

func (g *scriptedGateway) AnalyzeFoodFromImage(context.Context, string) (*domain.FoodAnalysis, error) {
	return nil, apperrors.NewGatewayError(nil, "test")
}

func (g *scriptedGateway) TranscribeAudio(context.Context, string) (string, error) {
	return "", apperrors.NewGatewayError(nil, "test")
}

func newAccounts(store kvstore.Store, gateway domain.Gateway) *Accounts {
	return NewAccounts(store, gateway, Config{
		ContextWindow: 10,
		Location:      time.UTC,
		Options:       []services.Option{services.WithNow(func() time.Time { return testNow })},
	})
}

func profile() domain.UserData {
	return domain.UserData{
		Name: "Ivan",
		Anthropometry: domain.Anthropometry{
			Height: 180, Weight: 80, Age: 30,
			Gender: domain.GenderMale, ActivityLevel: domain.ActivityModeratelyActive,
		},
	}
}

func TestAccountsAreCachedAndIsolated(t *testing.T) {
	ctx := context.Background()
	store := kvstore.NewMemoryStore()
	accounts := newAccounts(store, &scriptedGateway{})

	first, err := accounts.Get(ctx, TelegramAccountID(1))
	require.NoError(t, err)
	again, err := accounts.Get(ctx, "tg:1")
	require.NoError(t, err)
	assert.Same(t, first, again)

	second, err := accounts.Get(ctx, TelegramAccountID(2))
	require.NoError(t, err)
	require.NoError(t, first.Users.SetUserData(ctx, profile()))

	_, ok := second.Users.GetUserData()
	assert.False(t, ok)
	_, ok, err = store.Get(ctx, "tg:1:user")
	require.NoError(t, err)
	assert.True(t, ok)

	assert.Equal(t, []string{"tg:1", "tg:2"}, accounts.Loaded())

	_, err = accounts.Get(ctx, " ")
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestAccountReloadsFromStore(t *testing.T) {
	ctx := context.Background()
	store := kvstore.NewMemoryStore()

	acc, err := newAccounts(store, &scriptedGateway{}).Get(ctx, "local")
	require.NoError(t, err)
	_, err = acc.Chat.AddMessage(ctx, domain.MessageInput{Role: domain.RoleUser, Content: "Привет"})
	require.NoError(t, err)

	reloaded, err := newAccounts(store, &scriptedGateway{}).Get(ctx, "local")
	require.NoError(t, err)
	session, ok := reloaded.Chat.CurrentSession()
	require.True(t, ok)
	require.Len(t, session.Messages, 1)
}

func TestWidgetFollowsLedgerAndGoals(t *testing.T) {
	ctx := context.Background()
	acc, err := newAccounts(kvstore.NewMemoryStore(), &scriptedGateway{}).Get(ctx, "local")
	require.NoError(t, err)

	require.NoError(t, acc.Users.SetUserData(ctx, profile()))
	target, ok, err := acc.Widget.Target(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	user, _ := acc.Users.GetUserData()
	assert.Equal(t, user.NutritionGoals.Calories, target.Calories)

	item := domain.FoodItem{Name: "Творог", Calories: 120, ServingSize: 100, ServingUnit: "g", Macros: domain.Macros{Protein: 18, Carbs: 3, Fat: 4}}
	_, err = acc.Nutrition.AddMeal(ctx, domain.MealInput{
		Type:  domain.MealBreakfast,
		Foods: []domain.ConsumedFood{services.NewConsumedFood(item, 250)},
		Date:  testNow,
	})
	require.NoError(t, err)

	consumed, _, err := acc.Widget.Consumed(ctx)
	require.NoError(t, err)
	assert.Equal(t, widget.Nutrition{Calories: 300, Protein: 45, Carbs: 8, Fat: 10}, consumed)

	_, err = acc.Nutrition.AddMeal(ctx, domain.MealInput{
		Foods: []domain.ConsumedFood{services.NewConsumedFood(item, 100)},
		Date:  testNow.AddDate(0, 0, -1),
	})
	require.NoError(t, err)
	consumed, _, err = acc.Widget.Consumed(ctx)
	require.NoError(t, err)
	assert.Equal(t, 300.0, consumed.Calories, "other days do not touch the widget")
}

func TestWidgetIntakeResetsAfterMidnight(t *testing.T) {
	ctx := context.Background()
	now := testNow
	accounts := NewAccounts(kvstore.NewMemoryStore(), &scriptedGateway{}, Config{
		Location: time.UTC,
		Options:  []services.Option{services.WithNow(func() time.Time { return now })},
	})
	acc, err := accounts.Get(ctx, "local")
	require.NoError(t, err)

	item := domain.FoodItem{Name: "Банан", Calories: 90, ServingSize: 100, ServingUnit: "g"}
	_, err = acc.Nutrition.AddMeal(ctx, domain.MealInput{
		Foods: []domain.ConsumedFood{services.NewConsumedFood(item, 100)},
		Date:  now,
	})
	require.NoError(t, err)
	consumed, _, err := acc.Widget.Consumed(ctx)
	require.NoError(t, err)
	assert.Equal(t, 90.0, consumed.Calories)

	now = testNow.Add(13 * time.Hour)
	again, err := accounts.Get(ctx, "local")
	require.NoError(t, err)
	assert.Same(t, acc, again)

	consumed, _, err = acc.Widget.Consumed(ctx)
	require.NoError(t, err)
	assert.Equal(t, widget.Nutrition{}, consumed)
}

func TestNewestWeighInUpdatesProfile(t *testing.T) {
	ctx := context.Background()
	acc, err := newAccounts(kvstore.NewMemoryStore(), &scriptedGateway{}).Get(ctx, "local")
	require.NoError(t, err)
	require.NoError(t, acc.Users.SetUserData(ctx, profile()))
	before, _ := acc.Users.GetUserData()

	_, err = acc.Progress.AddWeightEntry(ctx, domain.WeightEntry{Weight: 78})
	require.NoError(t, err)
	after, _ := acc.Users.GetUserData()
	assert.Equal(t, 78.0, after.Anthropometry.Weight)
	assert.Less(t, after.NutritionGoals.Calories, before.NutritionGoals.Calories)

	_, err = acc.Progress.AddWeightEntry(ctx, domain.WeightEntry{Weight: 90, Date: testNow.AddDate(0, 0, -30)})
	require.NoError(t, err)
	after, _ = acc.Users.GetUserData()
	assert.Equal(t, 78.0, after.Anthropometry.Weight, "older entries leave the profile alone")
}

func TestTrainerToolCallsRunAgainstAccount(t *testing.T) {
	ctx := context.Background()
	gateway := &scriptedGateway{reply: &domain.AIResponse{
		Text: "Записал 79.5 кг",
		ToolCalls: []domain.ToolCall{{
			ID:       "call_1",
			Function: domain.ToolFunction{Name: "log_weight", Arguments: `{"weight":79.5}`},
		}},
	}}
	acc, err := newAccounts(kvstore.NewMemoryStore(), gateway).Get(ctx, "local")
	require.NoError(t, err)

	reply, err := acc.Trainer.SendMessage(ctx, "Сегодня вешу 79.5", nil)
	require.NoError(t, err)
	require.Len(t, reply.ToolResults, 1)
	require.NoError(t, reply.ToolResults[0].Err)

	latest, ok := acc.Progress.LatestWeight()
	require.True(t, ok)
	assert.Equal(t, 79.5, latest.Weight)
}
