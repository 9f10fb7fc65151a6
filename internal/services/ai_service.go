package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/sashabaranov/go-openai"
	"github.com/vladimiradmaev/ai-trainer/internal/config"
	"github.com/vladimiradmaev/ai-trainer/internal/domain"
	apperrors "github.com/vladimiradmaev/ai-trainer/internal/errors"
	"github.com/vladimiradmaev/ai-trainer/internal/logger"
	"github.com/vladimiradmaev/ai-trainer/internal/prompts"
	"google.golang.org/api/option"
)

// providerReply is the raw answer of one provider
type providerReply struct {
	Text      string
	ToolCalls []domain.ToolCall
}

// chatProvider is one LLM backend
type chatProvider interface {
	Name() string
	Chat(ctx context.Context, system string, messages []domain.ChatMessage, opts domain.RequestOptions) (*providerReply, error)
	Vision(ctx context.Context, prompt, imageURL string) (string, error)
}

// transcriber turns an audio file into text
type transcriber interface {
	Transcribe(ctx context.Context, audioPath string) (string, error)
}

// AIService is the gateway to the configured LLM providers. The primary
// provider is tried first and the other one, when configured, on failure.
type AIService struct {
	providers   []chatProvider
	transcriber transcriber
	prompts     *prompts.Catalog
	closers     []func() error
}

// NewAIService creates the gateway from configuration
func NewAIService(ctx context.Context, cfg config.AIConfig, catalog *prompts.Catalog) (*AIService, error) {
	s := &AIService{prompts: catalog}

	var gemini, oa chatProvider
	if cfg.GeminiAPIKey != "" {
		client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.GeminiAPIKey))
		if err != nil {
			return nil, fmt.Errorf("failed to create Gemini client: %w", err)
		}
		gemini = &geminiProvider{client: client, model: cfg.GeminiModel, temperature: cfg.Temperature, maxTokens: cfg.MaxTokens}
		s.closers = append(s.closers, client.Close)
	}
	if cfg.OpenAIAPIKey != "" {
		p := &openAIProvider{client: openai.NewClient(cfg.OpenAIAPIKey), model: cfg.OpenAIModel, temperature: cfg.Temperature, maxTokens: cfg.MaxTokens}
		oa = p
		s.transcriber = p
	}

	switch {
	case cfg.Provider == config.ProviderOpenAI && oa != nil:
		s.providers = append(s.providers, oa)
		if gemini != nil {
			s.providers = append(s.providers, gemini)
		}
	case gemini != nil:
		s.providers = append(s.providers, gemini)
		if oa != nil {
			s.providers = append(s.providers, oa)
		}
	case oa != nil:
		s.providers = append(s.providers, oa)
	default:
		return nil, apperrors.NewValidationError("no AI provider API key configured")
	}

	logger.Info("AI gateway initialized", "primary", s.providers[0].Name(), "providers", len(s.providers))
	return s, nil
}

// Close releases provider clients
func (s *AIService) Close() error {
	var errs []error
	for _, c := range s.closers {
		if err := c(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// SendChatRequest sends the conversation with the selected system prompt and
// the formatted user context, and parses the reply envelope.
func (s *AIService) SendChatRequest(ctx context.Context, messages []domain.ChatMessage, promptKey domain.PromptKey, userCtx *domain.UserContext, opts domain.RequestOptions) (*domain.AIResponse, error) {
	if len(messages) == 0 {
		return nil, apperrors.NewValidationError("no messages to send")
	}
	prompt, err := s.prompts.Get(promptKey)
	if err != nil {
		return nil, apperrors.NewValidationError(err.Error())
	}
	system := prompt
	if uc := FormatUserContext(userCtx); uc != "" {
		system += "\n\n" + uc
	}

	var reply *providerReply
	err = s.withFallback(ctx, "chat", func(p chatProvider) error {
		var callErr error
		reply, callErr = p.Chat(ctx, system, messages, opts)
		return callErr
	})
	if err != nil {
		return nil, err
	}

	resp := ParseAIResponse(reply.Text)
	resp.ToolCalls = append(resp.ToolCalls, reply.ToolCalls...)
	return resp, nil
}

// AnalyzeFoodFromText estimates the nutrition of a described meal
func (s *AIService) AnalyzeFoodFromText(ctx context.Context, description string) (*domain.FoodAnalysis, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return nil, apperrors.NewValidationError("meal description is empty")
	}
	prompt, err := s.prompts.Get(domain.PromptFoodAnalysis)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	var text string
	err = s.withFallback(ctx, "food_text", func(p chatProvider) error {
		reply, callErr := p.Chat(ctx, prompt, []domain.ChatMessage{{Role: domain.RoleUser, Content: description}}, domain.RequestOptions{})
		if callErr != nil {
			return callErr
		}
		text = reply.Text
		return nil
	})
	if err != nil {
		return nil, err
	}
	return parseFoodAnalysis(text)
}

// AnalyzeFoodFromImage estimates the nutrition of a photographed meal
func (s *AIService) AnalyzeFoodFromImage(ctx context.Context, imageURL string) (*domain.FoodAnalysis, error) {
	prompt, err := s.prompts.Get(domain.PromptFoodAnalysis)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	var text string
	err = s.withFallback(ctx, "food_image", func(p chatProvider) error {
		var callErr error
		text, callErr = p.Vision(ctx, prompt, imageURL)
		return callErr
	})
	if err != nil {
		return nil, err
	}
	return parseFoodAnalysis(text)
}

// TranscribeAudio converts a voice message to text. Only OpenAI supports it.
func (s *AIService) TranscribeAudio(ctx context.Context, audioPath string) (string, error) {
	if s.transcriber == nil {
		return "", apperrors.NewGatewayError(errors.New("transcription requires an OpenAI API key"), "openai")
	}
	text, err := s.transcriber.Transcribe(ctx, audioPath)
	if err != nil {
		return "", gatewayError(ctx, err, "openai", "transcribe")
	}
	return strings.TrimSpace(text), nil
}

// withFallback runs call against each provider until one succeeds. Timeouts
// are not retried on the next provider.
func (s *AIService) withFallback(ctx context.Context, op string, call func(chatProvider) error) error {
	var err error
	for i, p := range s.providers {
		err = call(p)
		if err == nil {
			return nil
		}
		err = gatewayError(ctx, err, p.Name(), op)
		if apperrors.TypeOf(err) == apperrors.ErrorTypeTimeout {
			return err
		}
		if i < len(s.providers)-1 {
			logger.WithContext(ctx).Warn("AI provider failed, trying fallback",
				"provider", p.Name(), "operation", op, "error", err)
		}
	}
	return err
}

func gatewayError(ctx context.Context, err error, provider, op string) error {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return apperrors.NewTimeoutError(op).WithContext("provider", provider)
	}
	return apperrors.NewGatewayError(err, provider).WithContext("operation", op)
}

// aiEnvelope is the JSON object the prompts ask the model to answer with
type aiEnvelope struct {
	Text      string              `json:"text"`
	Type      domain.ResponseType `json:"type"`
	Data      map[string]any      `json:"data"`
	NextSteps []string            `json:"nextSteps"`
	Questions []string            `json:"questions"`
	ToolCalls []domain.ToolCall   `json:"toolCalls"`
}

// ParseAIResponse reads the reply envelope, fenced or bare. Replies that are
// not an envelope become plain general text.
func ParseAIResponse(text string) *domain.AIResponse {
	if jsonStr := extractJSON(text); jsonStr != "" {
		var env aiEnvelope
		if err := json.Unmarshal([]byte(jsonStr), &env); err == nil && (env.Text != "" || len(env.ToolCalls) > 0) {
			if env.Type == "" {
				env.Type = domain.ResponseGeneral
			}
			return &domain.AIResponse{
				Text:      env.Text,
				Type:      env.Type,
				Data:      env.Data,
				NextSteps: env.NextSteps,
				Questions: env.Questions,
				ToolCalls: env.ToolCalls,
			}
		}
	}
	return &domain.AIResponse{
		Text: strings.TrimSpace(text),
		Type: domain.ResponseGeneral,
	}
}

func parseFoodAnalysis(text string) (*domain.FoodAnalysis, error) {
	jsonStr := extractJSON(text)
	if jsonStr == "" {
		return nil, apperrors.NewGatewayError(errors.New("no valid JSON found in response"), "analysis")
	}
	var result domain.FoodAnalysis
	if err := json.Unmarshal([]byte(jsonStr), &result); err != nil {
		return nil, apperrors.NewGatewayError(fmt.Errorf("failed to parse response: %w", err), "analysis")
	}
	if len(result.Foods) == 0 {
		return nil, apperrors.NewGatewayError(errors.New("no foods recognised"), "analysis")
	}
	return &result, nil
}

// extractJSON returns the outermost JSON object in s, tolerating code fences
// and text around it.
func extractJSON(s string) string {
	start := strings.Index(s, "{")
	if start == -1 {
		return ""
	}
	end := strings.LastIndex(s, "}")
	if end == -1 || end <= start {
		return ""
	}
	return s[start : end+1]
}

// FormatUserContext renders the user summary appended to the system prompt
func FormatUserContext(uc *domain.UserContext) string {
	if uc == nil {
		return ""
	}

	var b strings.Builder
	b.WriteString("USER CONTEXT:\n")
	if uc.Name != "" {
		fmt.Fprintf(&b, "- Name: %s\n", uc.Name)
	}
	if a := uc.Anthropometry; a != nil {
		fmt.Fprintf(&b, "- Height: %.0f cm, weight: %.1f kg, age: %d, gender: %s, activity: %s\n",
			a.Height, a.Weight, a.Age, a.Gender, a.ActivityLevel)
		if a.BodyFatPercentage != nil {
			fmt.Fprintf(&b, "- Body fat: %.1f%%\n", *a.BodyFatPercentage)
		}
	}
	if p := uc.Preferences; p != nil {
		fmt.Fprintf(&b, "- Fitness goal: %s\n", p.FitnessGoal)
		if len(p.DietaryPreferences) > 0 {
			fmt.Fprintf(&b, "- Dietary preferences: %s\n", strings.Join(p.DietaryPreferences, ", "))
		}
		if len(p.DietaryRestrictions) > 0 {
			fmt.Fprintf(&b, "- Dietary restrictions: %s\n", strings.Join(p.DietaryRestrictions, ", "))
		}
		if p.PreferredWorkoutDuration > 0 {
			fmt.Fprintf(&b, "- Preferred workout: %d min", p.PreferredWorkoutDuration)
			if len(p.PreferredWorkoutDays) > 0 {
				fmt.Fprintf(&b, " on %s", strings.Join(p.PreferredWorkoutDays, ", "))
			}
			b.WriteString("\n")
		}
		if p.Language != "" {
			fmt.Fprintf(&b, "- Language: %s\n", p.Language)
		}
	}
	if g := uc.NutritionGoals; g != nil {
		fmt.Fprintf(&b, "- Daily goals: %.0f kcal, protein %.0f g, carbs %.0f g, fat %.0f g\n",
			g.Calories, g.Protein, g.Carbs, g.Fat)
	}
	if t := uc.TodayIntake; t != nil {
		fmt.Fprintf(&b, "- Eaten today: %.0f kcal, protein %.1f g, carbs %.1f g, fat %.1f g\n",
			t.Calories, t.Macros.Protein, t.Macros.Carbs, t.Macros.Fat)
		if len(t.Meals) > 0 {
			fmt.Fprintf(&b, "- Meals today: %s\n", strings.Join(t.Meals, "; "))
		}
		if r := t.Remaining; r != nil {
			fmt.Fprintf(&b, "- Remaining today: %.0f kcal, protein %.1f g, carbs %.1f g, fat %.1f g\n",
				r.Calories, r.Macros.Protein, r.Macros.Carbs, r.Macros.Fat)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

type geminiProvider struct {
	client      *genai.Client
	model       string
	temperature float32
	maxTokens   int
}

func (p *geminiProvider) Name() string { return config.ProviderGemini }

func (p *geminiProvider) generativeModel(opts domain.RequestOptions) *genai.GenerativeModel {
	name := p.model
	if opts.Model != "" {
		name = opts.Model
	}
	model := p.client.GenerativeModel(name)

	temperature := p.temperature
	if opts.Temperature != nil {
		temperature = *opts.Temperature
	}
	model.SetTemperature(temperature)

	maxTokens := p.maxTokens
	if opts.MaxTokens > 0 {
		maxTokens = opts.MaxTokens
	}
	if maxTokens > 0 {
		model.SetMaxOutputTokens(int32(maxTokens))
	}
	if opts.TopP != nil {
		model.SetTopP(*opts.TopP)
	}
	return model
}

// Chat replays the conversation as chat history. The system prompt opens the
// history as a user turn acknowledged by the model.
func (p *geminiProvider) Chat(ctx context.Context, system string, messages []domain.ChatMessage, opts domain.RequestOptions) (*providerReply, error) {
	cs := p.generativeModel(opts).StartChat()
	cs.History = []*genai.Content{
		{Role: "user", Parts: []genai.Part{genai.Text(system)}},
		{Role: "model", Parts: []genai.Part{genai.Text("OK")}},
	}
	for _, m := range messages[:len(messages)-1] {
		if m.Role == domain.RoleSystem || m.Content == "" {
			continue
		}
		role := "user"
		if m.Role == domain.RoleAssistant {
			role = "model"
		}
		cs.History = append(cs.History, &genai.Content{Role: role, Parts: []genai.Part{genai.Text(m.Content)}})
	}

	last := messages[len(messages)-1]
	parts := []genai.Part{genai.Text(last.Content)}
	for _, a := range last.Attachments {
		if a.Type != domain.AttachmentImage {
			continue
		}
		data, err := fetchImage(ctx, a.URI)
		if err != nil {
			return nil, err
		}
		parts = append(parts, genai.ImageData("jpeg", data))
	}

	resp, err := cs.SendMessage(ctx, parts...)
	if err != nil {
		return nil, fmt.Errorf("failed to generate content: %w", err)
	}
	text, err := geminiText(resp)
	if err != nil {
		return nil, err
	}
	return &providerReply{Text: text}, nil
}

func (p *geminiProvider) Vision(ctx context.Context, prompt, imageURL string) (string, error) {
	data, err := fetchImage(ctx, imageURL)
	if err != nil {
		return "", err
	}
	model := p.generativeModel(domain.RequestOptions{})
	resp, err := model.GenerateContent(ctx, genai.ImageData("jpeg", data), genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}
	return geminiText(resp)
}

func geminiText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", errors.New("empty response from Gemini")
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			b.WriteString(string(t))
		}
	}
	if b.Len() == 0 {
		return "", errors.New("no text in Gemini response")
	}
	return b.String(), nil
}

func fetchImage(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create image request: %w", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download image: status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, 20<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}
	return data, nil
}

type openAIProvider struct {
	client      *openai.Client
	model       string
	temperature float32
	maxTokens   int
}

func (p *openAIProvider) Name() string { return config.ProviderOpenAI }

func (p *openAIProvider) Chat(ctx context.Context, system string, messages []domain.ChatMessage, opts domain.RequestOptions) (*providerReply, error) {
	req := openai.ChatCompletionRequest{
		Model:       p.model,
		Temperature: p.temperature,
		MaxTokens:   p.maxTokens,
		Messages:    []openai.ChatCompletionMessage{{Role: openai.ChatMessageRoleSystem, Content: system}},
	}
	if opts.Model != "" {
		req.Model = opts.Model
	}
	if opts.Temperature != nil {
		req.Temperature = *opts.Temperature
	}
	if opts.MaxTokens > 0 {
		req.MaxTokens = opts.MaxTokens
	}
	if opts.TopP != nil {
		req.TopP = *opts.TopP
	}
	if opts.FrequencyPenalty != nil {
		req.FrequencyPenalty = *opts.FrequencyPenalty
	}
	if opts.PresencePenalty != nil {
		req.PresencePenalty = *opts.PresencePenalty
	}

	for _, m := range messages {
		req.Messages = append(req.Messages, toOpenAIMessage(m))
	}

	resp, err := p.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("empty response from OpenAI")
	}

	msg := resp.Choices[0].Message
	reply := &providerReply{Text: msg.Content}
	for _, tc := range msg.ToolCalls {
		reply.ToolCalls = append(reply.ToolCalls, domain.ToolCall{
			ID:       tc.ID,
			Function: domain.ToolFunction{Name: tc.Function.Name, Arguments: tc.Function.Arguments},
		})
	}
	return reply, nil
}

func toOpenAIMessage(m domain.ChatMessage) openai.ChatCompletionMessage {
	role := openai.ChatMessageRoleUser
	switch m.Role {
	case domain.RoleAssistant:
		role = openai.ChatMessageRoleAssistant
	case domain.RoleSystem:
		role = openai.ChatMessageRoleSystem
	}

	var images []openai.ChatMessagePart
	for _, a := range m.Attachments {
		if a.Type == domain.AttachmentImage && role == openai.ChatMessageRoleUser {
			images = append(images, openai.ChatMessagePart{
				Type:     openai.ChatMessagePartTypeImageURL,
				ImageURL: &openai.ChatMessageImageURL{URL: a.URI},
			})
		}
	}
	if len(images) == 0 {
		return openai.ChatCompletionMessage{Role: role, Content: m.Content}
	}

	parts := append([]openai.ChatMessagePart{{Type: openai.ChatMessagePartTypeText, Text: m.Content}}, images...)
	return openai.ChatCompletionMessage{Role: role, MultiContent: parts}
}

func (p *openAIProvider) Vision(ctx context.Context, prompt, imageURL string) (string, error) {
	resp, err := p.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model:     p.model,
			MaxTokens: p.maxTokens,
			Messages: []openai.ChatCompletionMessage{
				{
					Role: openai.ChatMessageRoleUser,
					MultiContent: []openai.ChatMessagePart{
						{
							Type: openai.ChatMessagePartTypeText,
							Text: prompt,
						},
						{
							Type: openai.ChatMessagePartTypeImageURL,
							ImageURL: &openai.ChatMessageImageURL{
								URL: imageURL,
							},
						},
					},
				},
			},
		},
	)
	if err != nil {
		return "", fmt.Errorf("failed to create chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("empty response from OpenAI")
	}
	return resp.Choices[0].Message.Content, nil
}

func (p *openAIProvider) Transcribe(ctx context.Context, audioPath string) (string, error) {
	resp, err := p.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    openai.Whisper1,
		FilePath: audioPath,
	})
	if err != nil {
		return "", fmt.Errorf("failed to transcribe audio: %w", err)
	}
	return resp.Text, nil
}
