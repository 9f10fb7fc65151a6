package services

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/vladimiradmaev/ai-trainer/internal/domain"
	apperrors "github.com/vladimiradmaev/ai-trainer/internal/errors"
	"github.com/vladimiradmaev/ai-trainer/internal/logger"
	"github.com/vladimiradmaev/ai-trainer/internal/repository"
)

// DefaultContextWindow is the number of messages sent to the gateway when the
// caller does not choose one.
const DefaultContextWindow = 10

// ChatService owns chat sessions and tracks the current one.
type ChatService struct {
	repo  *repository.Snapshot[repository.ChatState]
	clock clock
	mu    sync.RWMutex
	state repository.ChatState
}

// NewChatService creates a chat store over repo. Call Load before use.
func NewChatService(repo *repository.Snapshot[repository.ChatState], opts ...Option) *ChatService {
	return &ChatService{
		repo:  repo,
		clock: newClock(opts),
	}
}

// Load replaces the in-memory sessions with the persisted snapshot. A current
// session id that no longer resolves is dropped.
func (s *ChatService) Load(ctx context.Context) error {
	state, _, err := s.repo.Load(ctx)
	if err != nil {
		return err
	}
	if state.CurrentSessionID != nil && indexOfSession(state.Sessions, *state.CurrentSessionID) < 0 {
		logger.WithContext(ctx).Warn("Dropping dangling current session", "session_id", *state.CurrentSessionID)
		state.CurrentSessionID = nil
	}

	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
	return nil
}

// CreateSession starts an empty session and makes it current
func (s *ChatService) CreateSession(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.cloneState()
	id := s.appendSession(&next)
	if err := s.commit(ctx, next); err != nil {
		return "", err
	}
	return id, nil
}

// AddMessage appends a message to the current session, creating one first
// when there is none, and returns the message id.
func (s *ChatService) AddMessage(ctx context.Context, input domain.MessageInput) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.cloneState()
	si := -1
	if next.CurrentSessionID != nil {
		si = indexOfSession(next.Sessions, *next.CurrentSessionID)
	}
	if si < 0 {
		s.appendSession(&next)
		si = len(next.Sessions) - 1
	}
	return s.appendMessage(ctx, next, si, input)
}

// AddMessageToSession appends a message to the given session whether or not
// it is current.
func (s *ChatService) AddMessageToSession(ctx context.Context, sessionID string, input domain.MessageInput) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.cloneState()
	si := indexOfSession(next.Sessions, sessionID)
	if si < 0 {
		return "", apperrors.NewNotFoundError("session", sessionID)
	}
	return s.appendMessage(ctx, next, si, input)
}

func (s *ChatService) appendMessage(ctx context.Context, next repository.ChatState, si int, input domain.MessageInput) (string, error) {
	now := s.clock.now()
	if input.Timestamp.IsZero() {
		input.Timestamp = now
	}
	msg := domain.ChatMessage{
		ID:          uuid.NewString(),
		Role:        input.Role,
		Content:     input.Content,
		Timestamp:   input.Timestamp,
		Attachments: append([]domain.Attachment(nil), input.Attachments...),
		Error:       input.Error,
	}

	session := &next.Sessions[si]
	session.Messages = append(session.Messages, msg)
	session.UpdatedAt = now

	if err := s.commit(ctx, next); err != nil {
		return "", err
	}
	return msg.ID, nil
}

// UpdateMessage merges update into the message, searching every session
func (s *ChatService) UpdateMessage(ctx context.Context, messageID string, update domain.MessageUpdate) error {
	return s.editMessage(ctx, messageID, func(session *domain.ChatSession, mi int) {
		msg := &session.Messages[mi]
		if update.Content != nil {
			msg.Content = *update.Content
		}
		if update.Attachments != nil {
			msg.Attachments = append([]domain.Attachment(nil), update.Attachments...)
		}
		if update.Error != nil {
			msg.Error = *update.Error
		}
	})
}

// DeleteMessage removes the message from whichever session holds it
func (s *ChatService) DeleteMessage(ctx context.Context, messageID string) error {
	return s.editMessage(ctx, messageID, func(session *domain.ChatSession, mi int) {
		session.Messages = append(session.Messages[:mi], session.Messages[mi+1:]...)
	})
}

func (s *ChatService) editMessage(ctx context.Context, messageID string, edit func(*domain.ChatSession, int)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.cloneState()
	for si := range next.Sessions {
		for mi, msg := range next.Sessions[si].Messages {
			if msg.ID != messageID {
				continue
			}
			edit(&next.Sessions[si], mi)
			next.Sessions[si].UpdatedAt = s.clock.now()
			return s.commit(ctx, next)
		}
	}
	return apperrors.NewNotFoundError("message", messageID)
}

// DeleteSession removes a session. When it was current, the most recently
// created remaining session becomes current, or none.
func (s *ChatService) DeleteSession(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.cloneState()
	i := indexOfSession(next.Sessions, sessionID)
	if i < 0 {
		return apperrors.NewNotFoundError("session", sessionID)
	}
	next.Sessions = append(next.Sessions[:i], next.Sessions[i+1:]...)

	if next.CurrentSessionID != nil && *next.CurrentSessionID == sessionID {
		next.CurrentSessionID = nil
		if latest := latestSession(next.Sessions); latest >= 0 {
			next.CurrentSessionID = ptr(next.Sessions[latest].ID)
		}
	}
	return s.commit(ctx, next)
}

// SetCurrentSession switches the current session
func (s *ChatService) SetCurrentSession(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if indexOfSession(s.state.Sessions, sessionID) < 0 {
		return apperrors.NewNotFoundError("session", sessionID)
	}
	next := s.cloneState()
	next.CurrentSessionID = ptr(sessionID)
	return s.commit(ctx, next)
}

// ClearHistory removes every session
func (s *ChatService) ClearHistory(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commit(ctx, repository.ChatState{Sessions: []domain.ChatSession{}})
}

// CurrentSession returns a copy of the current session
func (s *ChatService) CurrentSession() (domain.ChatSession, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.state.CurrentSessionID == nil {
		return domain.ChatSession{}, false
	}
	i := indexOfSession(s.state.Sessions, *s.state.CurrentSessionID)
	if i < 0 {
		return domain.ChatSession{}, false
	}
	return s.state.Sessions[i].Clone(), true
}

// Sessions returns every session, newest first
func (s *ChatService) Sessions() []domain.ChatSession {
	s.mu.RLock()
	sessions := make([]domain.ChatSession, len(s.state.Sessions))
	for i, session := range s.state.Sessions {
		sessions[i] = session.Clone()
	}
	s.mu.RUnlock()

	// Reverse first so sessions with equal CreatedAt stay newest-appended first.
	for i, j := 0, len(sessions)-1; i < j; i, j = i+1, j-1 {
		sessions[i], sessions[j] = sessions[j], sessions[i]
	}
	sort.SliceStable(sessions, func(i, j int) bool {
		return sessions[i].CreatedAt.After(sessions[j].CreatedAt)
	})
	return sessions
}

// GetMessage finds a message in any session
func (s *ChatService) GetMessage(messageID string) (domain.ChatMessage, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, session := range s.state.Sessions {
		for _, msg := range session.Messages {
			if msg.ID == messageID {
				return msg.Clone(), true
			}
		}
	}
	return domain.ChatMessage{}, false
}

// GetContextForAI returns the last maxMessages messages of the current
// session, oldest first. maxMessages <= 0 selects DefaultContextWindow.
func (s *ChatService) GetContextForAI(maxMessages int) []domain.ChatMessage {
	if maxMessages <= 0 {
		maxMessages = DefaultContextWindow
	}

	session, ok := s.CurrentSession()
	if !ok {
		return []domain.ChatMessage{}
	}
	msgs := session.Messages
	if len(msgs) > maxMessages {
		msgs = msgs[len(msgs)-maxMessages:]
	}
	return append([]domain.ChatMessage{}, msgs...)
}

// ContextUpTo returns the last maxMessages messages of the session holding
// messageID, oldest first and ending with that message, plus the session id.
// maxMessages <= 0 selects DefaultContextWindow.
func (s *ChatService) ContextUpTo(messageID string, maxMessages int) ([]domain.ChatMessage, string, bool) {
	if maxMessages <= 0 {
		maxMessages = DefaultContextWindow
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, session := range s.state.Sessions {
		for mi, msg := range session.Messages {
			if msg.ID != messageID {
				continue
			}
			start := mi + 1 - maxMessages
			if start < 0 {
				start = 0
			}
			window := make([]domain.ChatMessage, 0, mi+1-start)
			for _, m := range session.Messages[start : mi+1] {
				window = append(window, m.Clone())
			}
			return window, session.ID, true
		}
	}
	return nil, "", false
}

// appendSession adds a fresh session to state and makes it current.
func (s *ChatService) appendSession(state *repository.ChatState) string {
	now := s.clock.now()
	session := domain.ChatSession{
		ID:        uuid.NewString(),
		Messages:  []domain.ChatMessage{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	state.Sessions = append(state.Sessions, session)
	state.CurrentSessionID = ptr(session.ID)
	return session.ID
}

func (s *ChatService) cloneState() repository.ChatState {
	next := repository.ChatState{Sessions: make([]domain.ChatSession, len(s.state.Sessions))}
	for i, session := range s.state.Sessions {
		next.Sessions[i] = session.Clone()
	}
	if s.state.CurrentSessionID != nil {
		next.CurrentSessionID = ptr(*s.state.CurrentSessionID)
	}
	return next
}

// commit persists next and swaps it in; callers hold the write lock.
func (s *ChatService) commit(ctx context.Context, next repository.ChatState) error {
	if err := s.repo.Save(ctx, next); err != nil {
		return err
	}
	s.state = next
	return nil
}

func indexOfSession(sessions []domain.ChatSession, id string) int {
	for i, session := range sessions {
		if session.ID == id {
			return i
		}
	}
	return -1
}

// latestSession returns the index of the most recently created session.
func latestSession(sessions []domain.ChatSession) int {
	latest := -1
	for i, session := range sessions {
		if latest < 0 || !session.CreatedAt.Before(sessions[latest].CreatedAt) {
			latest = i
		}
	}
	return latest
}
