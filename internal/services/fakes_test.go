package services

import (
	"context"
	"sync"

	"github.com/vladimiradmaev/ai-trainer/internal/domain"
)

// fakeGateway records requests and answers with canned values. With block
// set, chat requests wait for the context to end.
type fakeGateway struct {
	mu       sync.Mutex
	resp     *domain.AIResponse
	err      error
	block    bool
	analysis *domain.FoodAnalysis

	calls    int
	prompts  []domain.PromptKey
	messages [][]domain.ChatMessage
	userCtx  *domain.UserContext
	images   []string
}

func (g *fakeGateway) SendChatRequest(ctx context.Context, messages []domain.ChatMessage, prompt domain.PromptKey, userCtx *domain.UserContext, _ domain.RequestOptions) (*domain.AIResponse, error) {
	g.mu.Lock()
	g.calls++
	g.prompts = append(g.prompts, prompt)
	g.messages = append(g.messages, messages)
	g.userCtx = userCtx
	resp, err, block := g.resp, g.err, g.block
	g.mu.Unlock()

	if block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return resp, err
}

func (g *fakeGateway) AnalyzeFoodFromText(context.Context, string) (*domain.FoodAnalysis, error) {
	return g.analysis, g.err
}

func (g *fakeGateway) AnalyzeFoodFromImage(_ context.Context, imageURL string) (*domain.FoodAnalysis, error) {
	g.mu.Lock()
	g.images = append(g.images, imageURL)
	g.mu.Unlock()
	return g.analysis, g.err
}

func (g *fakeGateway) TranscribeAudio(context.Context, string) (string, error) {
	return "", g.err
}

type fakeTools struct {
	calls  []domain.ToolCall
	output string
	err    error
}

func (f *fakeTools) Execute(_ context.Context, call domain.ToolCall) (string, error) {
	f.calls = append(f.calls, call)
	return f.output, f.err
}
