package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/vladimiradmaev/ai-trainer/internal/domain"
	apperrors "github.com/vladimiradmaev/ai-trainer/internal/errors"
	"github.com/vladimiradmaev/ai-trainer/internal/logger"
)

// ToolExecutor runs a tool call requested by the model and returns its JSON result
type ToolExecutor interface {
	Execute(ctx context.Context, call domain.ToolCall) (string, error)
}

// TrainerConfig tunes the chat flow
type TrainerConfig struct {
	ContextWindow int
	Timeout       time.Duration
	Options       domain.RequestOptions
}

// ToolResult is the outcome of one executed tool call
type ToolResult struct {
	CallID string
	Name   string
	Output string
	Err    error
}

// TrainerReply is the result of a successful exchange
type TrainerReply struct {
	UserMessageID      string
	AssistantMessageID string
	Response           *domain.AIResponse
	ToolResults        []ToolResult
}

// TrainerService runs the conversation with the AI trainer: the user message
// is stored before the gateway call and stays in the session if the call fails.
type TrainerService struct {
	chat      *ChatService
	nutrition *NutritionService
	users     *UserService
	gateway   domain.Gateway
	tools     ToolExecutor
	cfg       TrainerConfig
}

// NewTrainerService creates the chat flow over the account's stores and gateway
func NewTrainerService(chat *ChatService, nutrition *NutritionService, users *UserService, gateway domain.Gateway, cfg TrainerConfig) *TrainerService {
	if cfg.ContextWindow <= 0 {
		cfg.ContextWindow = DefaultContextWindow
	}
	return &TrainerService{
		chat:      chat,
		nutrition: nutrition,
		users:     users,
		gateway:   gateway,
		cfg:       cfg,
	}
}

// SetToolExecutor sets the executor for model tool calls
func (s *TrainerService) SetToolExecutor(tools ToolExecutor) {
	s.tools = tools
}

// SendMessage stores the user's message, asks the gateway and stores the reply.
// On gateway failure the user message is flagged with error and the gateway
// error is returned.
func (s *TrainerService) SendMessage(ctx context.Context, text string, attachments []domain.Attachment) (*TrainerReply, error) {
	text = strings.TrimSpace(text)
	if text == "" && len(attachments) == 0 {
		return nil, apperrors.NewValidationError("message is empty")
	}

	msgID, err := s.chat.AddMessage(ctx, domain.MessageInput{
		Role:        domain.RoleUser,
		Content:     text,
		Attachments: attachments,
	})
	if err != nil {
		return nil, err
	}
	return s.respond(ctx, msgID)
}

// Retry resends a user message whose gateway call failed. The gateway sees the
// message's own session up to that message and the reply joins that session.
func (s *TrainerService) Retry(ctx context.Context, messageID string) (*TrainerReply, error) {
	msg, ok := s.chat.GetMessage(messageID)
	if !ok {
		return nil, apperrors.NewNotFoundError("message", messageID)
	}
	if msg.Role != domain.RoleUser || !msg.Error {
		return nil, apperrors.NewValidationError("only failed user messages can be retried").WithContext("message_id", messageID)
	}

	if err := s.chat.UpdateMessage(ctx, messageID, domain.MessageUpdate{Error: ptr(false)}); err != nil {
		return nil, err
	}
	return s.respond(ctx, messageID)
}

func (s *TrainerService) respond(ctx context.Context, userMsgID string) (*TrainerReply, error) {
	log := logger.WithContext(ctx)

	window, sessionID, ok := s.chat.ContextUpTo(userMsgID, s.cfg.ContextWindow)
	if !ok {
		return nil, apperrors.NewNotFoundError("message", userMsgID)
	}
	userCtx := s.BuildUserContext()
	prompt := domain.PromptFitnessTrainer
	if userCtx.Anthropometry == nil {
		prompt = domain.PromptInitialAssessment
	}

	callCtx := ctx
	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}

	resp, err := s.gateway.SendChatRequest(callCtx, window, prompt, userCtx, s.cfg.Options)
	if err != nil {
		if callCtx.Err() == context.DeadlineExceeded && apperrors.TypeOf(err) != apperrors.ErrorTypeTimeout {
			err = apperrors.NewTimeoutError("chat").WithContext("cause", err.Error())
		} else if apperrors.TypeOf(err) == apperrors.ErrorTypeInternal {
			err = apperrors.NewGatewayError(err, "gateway")
		}
		if markErr := s.chat.UpdateMessage(ctx, userMsgID, domain.MessageUpdate{Error: ptr(true)}); markErr != nil {
			log.Error("Failed to flag message after gateway error", "message_id", userMsgID, "error", markErr)
		}
		log.Warn("Trainer reply unavailable", "message_id", userMsgID, "error", err)
		return nil, err
	}

	assistantID, err := s.chat.AddMessageToSession(ctx, sessionID, domain.MessageInput{
		Role:    domain.RoleAssistant,
		Content: resp.Text,
	})
	if err != nil {
		return nil, err
	}

	reply := &TrainerReply{
		UserMessageID:      userMsgID,
		AssistantMessageID: assistantID,
		Response:           resp,
	}
	for _, call := range resp.ToolCalls {
		reply.ToolResults = append(reply.ToolResults, s.executeTool(ctx, call))
	}
	return reply, nil
}

func (s *TrainerService) executeTool(ctx context.Context, call domain.ToolCall) ToolResult {
	result := ToolResult{CallID: call.ID, Name: call.Function.Name}
	if s.tools == nil {
		result.Err = fmt.Errorf("no tool executor configured")
		return result
	}

	result.Output, result.Err = s.tools.Execute(ctx, call)
	if result.Err != nil {
		logger.WithContext(ctx).Warn("Tool call failed", "tool", call.Function.Name, "call_id", call.ID, "error", result.Err)
	} else {
		logger.WithContext(ctx).Info("Tool call executed", "tool", call.Function.Name, "call_id", call.ID)
	}
	return result
}

// BuildUserContext summarises the profile, goals and today's intake
func (s *TrainerService) BuildUserContext() *domain.UserContext {
	uc := &domain.UserContext{}

	user, ok := s.users.GetUserData()
	if ok {
		uc.Name = user.Name
		if anthropometryComplete(user.Anthropometry) {
			a := user.Anthropometry
			uc.Anthropometry = &a
		}
		goals := user.NutritionGoals
		uc.NutritionGoals = &goals
		prefs := user.Preferences
		uc.Preferences = &prefs
	}

	today := s.nutrition.Today()
	day, found := s.nutrition.GetDailyNutrition(today)
	if !found && uc.NutritionGoals == nil {
		return uc
	}

	intake := &domain.TodayIntake{Calories: day.TotalCalories, Macros: day.TotalMacros}
	for _, m := range day.Meals {
		label := m.Name
		if label == "" {
			label = string(m.Type)
		}
		intake.Meals = append(intake.Meals, fmt.Sprintf("%s (%.0f kcal)", label, m.TotalCalories))
	}
	if g := uc.NutritionGoals; g != nil && g.Calories > 0 {
		remaining := s.nutrition.CalculateRemainingNutrition(today, g.Calories, domain.MacroTargets{
			Protein: g.Protein,
			Carbs:   g.Carbs,
			Fat:     g.Fat,
		})
		intake.Remaining = &remaining
	}
	uc.TodayIntake = intake
	return uc
}
