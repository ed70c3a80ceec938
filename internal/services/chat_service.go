package services

import (
	"context"
	"strings"

	"github.com/google/uuid"
)

type ChatRelay interface {
	Chat(ctx context.Context, message, sessionID string) (map[string]any, error)
}

type ChatService struct {
	Relay ChatRelay
}

func NewChatService(relay ChatRelay) *ChatService {
	return &ChatService{Relay: relay}
}

// Send forwards a message to the chatbot workflow. A new session id is minted when
// the caller has none; the reply always carries the session id used.
func (s *ChatService) Send(ctx context.Context, message, sessionID string) (map[string]any, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	if s.Relay == nil {
		return nil, ErrChatUnavailable
	}
	reply, err := s.Relay.Chat(ctx, message, sessionID)
	if err != nil {
		return nil, unavailable(ErrChatUnavailable, err)
	}
	if reply == nil {
		reply = map[string]any{}
	}
	reply["sessionId"] = sessionID
	return reply, nil
}
