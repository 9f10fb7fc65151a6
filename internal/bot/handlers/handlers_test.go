package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vladimiradmaev/ai-trainer/internal/app"
	"github.com/vladimiradmaev/ai-trainer/internal/bot/keyboards"
	"github.com/vladimiradmaev/ai-trainer/internal/bot/menus"
	"github.com/vladimiradmaev/ai-trainer/internal/bot/state"
	"github.com/vladimiradmaev/ai-trainer/internal/domain"
	apperrors "github.com/vladimiradmaev/ai-trainer/internal/errors"
	"github.com/vladimiradmaev/ai-trainer/internal/kvstore"
	"github.com/vladimiradmaev/ai-trainer/internal/services"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m, goleak.IgnoreTopFunction("go.opencensus.io/stats/view.(*worker).start"))
}

var testNow = time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

const (
	testUserID = int64(42)
	testChatID = int64(4200)
)

type fakeSender struct {
	mu       sync.Mutex
	sent     []tgbotapi.MessageConfig
	requests []tgbotapi.Chattable
	fileURL  string
	nextID   int
}

func (s *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	if msg, ok := c.(tgbotapi.MessageConfig); ok {
		s.sent = append(s.sent, msg)
	}
	return tgbotapi.Message{MessageID: s.nextID}, nil
}

func (s *fakeSender) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, c)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (s *fakeSender) GetFileDirectURL(fileID string) (string, error) {
	if s.fileURL != "" {
		return s.fileURL, nil
	}
	return "https://files.example/" + fileID, nil
}

func (s *fakeSender) last(t *testing.T) tgbotapi.MessageConfig {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	require.NotEmpty(t, s.sent)
	return s.sent[len(s.sent)-1]
}

type fakeGateway struct {
	mu       sync.Mutex
	reply    *domain.AIResponse
	err      error
	analysis *domain.FoodAnalysis
	images   []string
	texts    []string
}

func (g *fakeGateway) SendChatRequest(_ context.Context, messages []domain.ChatMessage, _ domain.PromptKey, _ *domain.UserContext, _ domain.RequestOptions) (*domain.AIResponse, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.texts = append(g.texts, messages[len(messages)-1].Content)
	if g.err != nil {
		return nil, g.err
	}
	return g.reply, nil
}

func (g *fakeGateway) AnalyzeFoodFromText(_ context.Context, description string) (*domain.FoodAnalysis, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.texts = append(g.texts, description)
	return g.analysis, g.err
}

func (g *fakeGateway) AnalyzeFoodFromImage(_ context.Context, imageURL string) (*domain.FoodAnalysis, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.images = append(g.images, imageURL)
	return g.analysis, g.err
}

func (g *fakeGateway) TranscribeAudio(context.Context, string) (string, error) {
	return "", apperrors.NewGatewayError(nil, "test")
}

type fakeTranscriber struct {
	text    string
	content string
}

func (f *fakeTranscriber) TranscribeAudio(_ context.Context, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	f.content = string(data)
	return f.text, nil
}

type fixture struct {
	api      *fakeSender
	gateway  *fakeGateway
	accounts *app.Accounts
	states   *state.Manager
	handler  *UpdateHandler
}

func newFixture(t *testing.T, transcriber *fakeTranscriber) *fixture {
	t.Helper()
	f := &fixture{
		api: &fakeSender{},
		gateway: &fakeGateway{
			reply: &domain.AIResponse{Text: "Отличный вопрос!"},
			analysis: &domain.FoodAnalysis{
				MealName:   "Гречка с курицей",
				Confidence: "high",
				Foods: []domain.AnalyzedFood{
					{Name: "гречка", Amount: 150, Unit: "g", Calories: 180, Protein: 6, Carbs: 32, Fat: 2},
					{Name: "курица", Amount: 120, Unit: "g", Calories: 200, Protein: 30, Carbs: 0, Fat: 8},
				},
			},
		},
		states: state.NewManager(),
	}
	f.accounts = app.NewAccounts(kvstore.NewMemoryStore(), f.gateway, app.Config{
		ContextWindow: 10,
		Location:      time.UTC,
		Options:       []services.Option{services.WithNow(func() time.Time { return testNow })},
	})
	deps := Dependencies{Accounts: f.accounts}
	if transcriber != nil {
		deps.Transcriber = transcriber
	}
	f.handler = NewUpdateHandler(f.api, deps, f.states)
	return f
}

func (f *fixture) account(t *testing.T) *app.Account {
	t.Helper()
	acc, err := f.accounts.Get(context.Background(), app.TelegramAccountID(testUserID))
	require.NoError(t, err)
	return acc
}

func message(text string) *tgbotapi.Message {
	msg := &tgbotapi.Message{
		MessageID: 1,
		From:      &tgbotapi.User{ID: testUserID, FirstName: "Anna"},
		Chat:      &tgbotapi.Chat{ID: testChatID},
		Date:      int(testNow.Unix()),
		Text:      text,
	}
	if strings.HasPrefix(text, "/") {
		length := len(strings.Fields(text)[0])
		msg.Entities = []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: length}}
	}
	return msg
}

func (f *fixture) send(t *testing.T, msg *tgbotapi.Message) {
	t.Helper()
	require.NoError(t, f.handler.Handle(context.Background(), tgbotapi.Update{UpdateID: 1, Message: msg}))
}

func (f *fixture) press(t *testing.T, data string) {
	t.Helper()
	require.NoError(t, f.handler.Handle(context.Background(), tgbotapi.Update{
		UpdateID: 2,
		CallbackQuery: &tgbotapi.CallbackQuery{
			ID:      "cb",
			From:    &tgbotapi.User{ID: testUserID},
			Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: testChatID}},
			Data:    data,
		},
	}))
}

func TestStartCreatesProfileAndShowsMenu(t *testing.T) {
	f := newFixture(t, nil)

	f.send(t, message("/start"))

	user, ok := f.account(t).Users.GetUserData()
	require.True(t, ok)
	assert.Equal(t, "Anna", user.Name)
	assert.Equal(t, domain.GoalMaintenance, user.Preferences.FitnessGoal)

	last := f.api.last(t)
	assert.Equal(t, menus.MainMenuText, last.Text)
	assert.Equal(t, keyboards.MainMenu(), last.ReplyMarkup)

	f.send(t, message("/start"))
	again, _ := f.account(t).Users.GetUserData()
	assert.Equal(t, user.ID, again.ID)
}

func TestProfileCommandDerivesGoals(t *testing.T) {
	f := newFixture(t, nil)
	f.send(t, message("/start"))

	f.send(t, message("/profile 170 65 28 female lightlyActive weightLoss"))

	user, ok := f.account(t).Users.GetUserData()
	require.True(t, ok)
	assert.Equal(t, "Anna", user.Name)
	assert.Equal(t, 170.0, user.Anthropometry.Height)
	assert.Equal(t, domain.GoalWeightLoss, user.Preferences.FitnessGoal)
	assert.Greater(t, user.NutritionGoals.Calories, 0.0)
	assert.Contains(t, f.api.last(t).Text, "Рост: 170 см")

	f.send(t, message("/profile 170 abc"))
	assert.Contains(t, f.api.last(t).Text, "Формат: /profile")
}

func TestWeightFlow(t *testing.T) {
	f := newFixture(t, nil)

	f.press(t, keyboards.LogWeightData)
	assert.Equal(t, state.WaitingForWeight, f.states.GetUserState(testUserID))

	f.send(t, message("abc"))
	assert.Contains(t, f.api.last(t).Text, "корректное число")
	assert.Equal(t, state.None, f.states.GetUserState(testUserID))

	f.send(t, message("/weight 72,5"))
	latest, ok := f.account(t).Progress.LatestWeight()
	require.True(t, ok)
	assert.Equal(t, 72.5, latest.Weight)
	assert.Contains(t, f.api.last(t).Text, "72.5 кг")

	f.send(t, message("/weight 900"))
	assert.Contains(t, f.api.last(t).Text, "от 0 до 500")
}

func TestFoodDescriptionFlowUsesChosenMealType(t *testing.T) {
	f := newFixture(t, nil)

	f.press(t, keyboards.LogFoodData)
	assert.Equal(t, keyboards.MealTypeMenu(), f.api.last(t).ReplyMarkup)

	f.press(t, keyboards.MealTypePrefix+string(domain.MealLunch))
	assert.Equal(t, state.WaitingForFoodDescription, f.states.GetUserState(testUserID))

	f.send(t, message("гречка с курицей"))

	assert.Equal(t, state.None, f.states.GetUserState(testUserID))
	_, ok := f.states.GetTempData(testUserID, state.KeyMealType)
	assert.False(t, ok)

	acc := f.account(t)
	day, found := acc.Nutrition.GetDailyNutrition(acc.Nutrition.Today())
	require.True(t, found)
	require.Len(t, day.Meals, 1)
	assert.Equal(t, domain.MealLunch, day.Meals[0].Type)
	assert.Equal(t, 380.0, day.TotalCalories)
	assert.Contains(t, f.api.last(t).Text, "Гречка с курицей")

	f.press(t, keyboards.TodayData)
	assert.Contains(t, f.api.last(t).Text, "380")
}

func TestUnknownMealTypeCallback(t *testing.T) {
	f := newFixture(t, nil)

	f.press(t, keyboards.MealTypePrefix+"brunch")

	assert.Equal(t, state.None, f.states.GetUserState(testUserID))
	assert.Contains(t, f.api.last(t).Text, "Неизвестный")
}

func TestChatRepliesWithTrainerAnswer(t *testing.T) {
	f := newFixture(t, nil)
	f.gateway.reply = &domain.AIResponse{Text: "Пей больше воды", NextSteps: []string{"Выпить стакан воды"}}

	f.send(t, message("Что мне делать?"))

	last := f.api.last(t)
	assert.Contains(t, last.Text, "Пей больше воды")
	assert.Contains(t, last.Text, "• Выпить стакан воды")

	session, ok := f.account(t).Chat.CurrentSession()
	require.True(t, ok)
	require.Len(t, session.Messages, 2)
	assert.Equal(t, "Что мне делать?", session.Messages[0].Content)
}

func TestFailedChatOffersRetry(t *testing.T) {
	f := newFixture(t, nil)
	f.gateway.err = apperrors.NewGatewayError(nil, "openai")

	f.send(t, message("Привет"))

	acc := f.account(t)
	msgID, ok := lastFailedMessage(acc.Chat)
	require.True(t, ok)
	assert.Equal(t, keyboards.Retry(msgID), f.api.last(t).ReplyMarkup)

	f.gateway.err = nil
	f.press(t, keyboards.RetryPrefix+msgID)

	assert.Equal(t, "Отличный вопрос!", f.api.last(t).Text)
	_, ok = lastFailedMessage(acc.Chat)
	assert.False(t, ok)

	f.press(t, keyboards.RetryPrefix+msgID)
	assert.Contains(t, f.api.last(t).Text, "нельзя повторить")
}

func TestTimeoutReplyText(t *testing.T) {
	f := newFixture(t, nil)
	f.gateway.err = apperrors.NewTimeoutError("chat")

	f.send(t, message("Привет"))

	assert.Contains(t, f.api.last(t).Text, "не ответил вовремя")
}

func TestPhotoLogsMealWithFileReference(t *testing.T) {
	f := newFixture(t, nil)
	msg := message("")
	msg.Photo = []tgbotapi.PhotoSize{{FileID: "small"}, {FileID: "large"}}

	f.send(t, msg)

	assert.Equal(t, []string{"https://files.example/large"}, f.gateway.images)
	acc := f.account(t)
	day, found := acc.Nutrition.GetDailyNutrition(acc.Nutrition.Today())
	require.True(t, found)
	require.Len(t, day.Meals, 1)
	assert.Equal(t, TelegramFilePrefix+"large", day.Meals[0].ImageURI)
	assert.Equal(t, domain.MealLunch, day.Meals[0].Type)

	var deleted bool
	for _, r := range f.api.requests {
		if _, ok := r.(tgbotapi.DeleteMessageConfig); ok {
			deleted = true
		}
	}
	assert.True(t, deleted, "processing message should be deleted")
}

func TestPhotoAnalysisFailure(t *testing.T) {
	f := newFixture(t, nil)
	f.gateway.err = apperrors.NewTimeoutError("analysis")
	msg := message("")
	msg.Photo = []tgbotapi.PhotoSize{{FileID: "p"}}

	f.send(t, msg)

	assert.Contains(t, f.api.last(t).Text, "слишком много времени")
}

func TestVoiceIsTranscribedAndSentToTrainer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("OggS"))
	}))
	defer srv.Close()
	defer http.DefaultClient.CloseIdleConnections()

	transcriber := &fakeTranscriber{text: "Сколько мне пить воды?"}
	f := newFixture(t, transcriber)
	f.api.fileURL = srv.URL + "/voice.ogg"
	msg := message("")
	msg.Voice = &tgbotapi.Voice{FileID: "v"}

	f.send(t, msg)

	assert.Equal(t, "OggS", transcriber.content)
	assert.Equal(t, []string{"Сколько мне пить воды?"}, f.gateway.texts)
	assert.Equal(t, "Отличный вопрос!", f.api.last(t).Text)
}

func TestVoiceWithoutTranscriber(t *testing.T) {
	f := newFixture(t, nil)
	msg := message("")
	msg.Voice = &tgbotapi.Voice{FileID: "v"}

	f.send(t, msg)

	assert.Contains(t, f.api.last(t).Text, "не поддерживаются")
}

func TestNewChatStartsSession(t *testing.T) {
	f := newFixture(t, nil)
	f.send(t, message("Привет"))
	first, _ := f.account(t).Chat.CurrentSession()

	f.send(t, message("/new"))

	current, ok := f.account(t).Chat.CurrentSession()
	require.True(t, ok)
	assert.NotEqual(t, first.ID, current.ID)
	assert.Empty(t, current.Messages)
}

func TestParseProfileArgs(t *testing.T) {
	tests := []struct {
		name    string
		args    string
		wantErr bool
	}{
		{name: "minimal", args: "180 80 30 male"},
		{name: "full", args: "170 65,5 28 female veryActive muscleGain"},
		{name: "too few", args: "180 80 30", wantErr: true},
		{name: "bad age", args: "180 80 thirty male", wantErr: true},
		{name: "bad gender", args: "180 80 30 robot", wantErr: true},
		{name: "bad activity", args: "180 80 30 male lazy", wantErr: true},
		{name: "bad goal", args: "180 80 30 male sedentary fame", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user, err := parseProfileArgs(strings.Fields(tt.args))
			if tt.wantErr {
				assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
				return
			}
			require.NoError(t, err)
			assert.Greater(t, user.Anthropometry.Height, 0.0)
		})
	}

	user, err := parseProfileArgs(strings.Fields("170 65,5 28 female"))
	require.NoError(t, err)
	assert.Equal(t, 65.5, user.Anthropometry.Weight)
	assert.Equal(t, domain.ActivityModeratelyActive, user.Anthropometry.ActivityLevel)
	assert.Empty(t, user.Preferences.FitnessGoal)
}
