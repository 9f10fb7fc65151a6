package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/ThinkInAIXYZ/go-mcp/protocol"
	apperrors "github.com/vladimiradmaev/ai-trainer/internal/errors"
	"github.com/vladimiradmaev/ai-trainer/internal/logger"
)

// AccountHeader selects the account a tool call runs against
const AccountHeader = "X-Account-ID"

// DefaultAccount is used when a request names no account
const DefaultAccount = "local"

// Resolver returns the tool registry of an account
type Resolver interface {
	Tools(ctx context.Context, accountID string) (*Registry, error)
}

// Server serves tool calls over HTTP. POST / takes an MCP tools/call request
// body and answers with a call result holding the tool's JSON as text.
type Server struct {
	resolver   Resolver
	httpServer *http.Server
}

// NewServer creates a new tool server listening on addr
func NewServer(addr string, resolver Resolver) *Server {
	s := &Server{resolver: resolver}

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleCall)
	mux.HandleFunc("/tools", s.handleList)

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the HTTP handler of the server
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting tool server", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down tool server: %w", err)
	}
	logger.Info("Tool server stopped")
	return nil
}

func (s *Server) handleCall(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var request protocol.CallToolRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		http.Error(w, fmt.Sprintf("Invalid JSON: %v", err), http.StatusBadRequest)
		return
	}

	accountID := r.Header.Get(AccountHeader)
	if accountID == "" {
		accountID = DefaultAccount
	}
	ctx := logger.IntoContext(r.Context(), logger.WithFields("account", accountID, "tool", request.Name))

	registry, err := s.resolver.Tools(ctx, accountID)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	output, err := registry.Call(ctx, request.Name, request.Arguments)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	result := &protocol.CallToolResult{
		Content: []protocol.Content{
			protocol.TextContent{
				Type: "text",
				Text: output,
			},
		},
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(result); err != nil {
		logger.WithContext(ctx).Error("Failed to encode response", "error", err)
	}
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	accountID := r.Header.Get(AccountHeader)
	if accountID == "" {
		accountID = DefaultAccount
	}
	registry, err := s.resolver.Tools(r.Context(), accountID)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]any{"tools": registry.Descriptors()}); err != nil {
		logger.WithContext(r.Context()).Error("Failed to encode response", "error", err)
	}
}

func writeError(ctx context.Context, w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch apperrors.TypeOf(err) {
	case apperrors.ErrorTypeValidation:
		status = http.StatusBadRequest
	case apperrors.ErrorTypeNotFound:
		status = http.StatusNotFound
	case apperrors.ErrorTypeExternal:
		status = http.StatusBadGateway
	case apperrors.ErrorTypeTimeout:
		status = http.StatusGatewayTimeout
	}
	apperrors.NewHandler(logger.WithContext(ctx)).Handle(ctx, err)
	http.Error(w, err.Error(), status)
}
