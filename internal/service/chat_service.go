package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-core/internal/domain"
	"github.com/spec-kit/helpdesk-core/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-core/pkg/util"
)

// ChatService owns the ticket conversation thread. The lifecycle services
// use it to drop system messages into the thread on state transitions.
type ChatService struct {
	messages repository.TicketMessageRepository
	logger   *zap.Logger
}

// NewChatService creates the service.
func NewChatService(messages repository.TicketMessageRepository, logger *zap.Logger) *ChatService {
	return &ChatService{messages: messages, logger: logger}
}

// AppendSystemMessage records an automated entry in the ticket thread.
func (s *ChatService) AppendSystemMessage(ctx context.Context, ticketID, authorID, text string) error {
	msg := &domain.TicketMessage{
		TicketID:   ticketID,
		AuthorType: domain.AuthorTypeSystem,
		Body:       text,
	}
	if authorID != "" {
		msg.AuthorID = &authorID
	}
	if err := s.messages.Create(ctx, msg); err != nil {
		return apperrors.MapError(err)
	}
	return nil
}

// AppendUserMessage records a participant's message.
func (s *ChatService) AppendUserMessage(ctx context.Context, ticketID, authorID, body string) (*domain.TicketMessage, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, apperrors.NewValidationError("message body required", nil)
	}
	msg := &domain.TicketMessage{
		TicketID:   ticketID,
		AuthorType: domain.AuthorTypeUser,
		AuthorID:   &authorID,
		Body:       body,
	}
	if err := s.messages.Create(ctx, msg); err != nil {
		return nil, apperrors.MapError(err)
	}
	return msg, nil
}

// ListMessages returns the full thread in chronological order.
func (s *ChatService) ListMessages(ctx context.Context, ticketID string) ([]domain.TicketMessage, error) {
	list, err := s.messages.ListByTicket(ctx, ticketID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return list, nil
}
