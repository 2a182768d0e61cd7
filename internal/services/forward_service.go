package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"ebox-messaging/internal/domain/message"
	"ebox-messaging/internal/domain/user"
	"ebox-messaging/internal/repository"
	"ebox-messaging/internal/state"
	ebox_errors "ebox-messaging/pkg/errors"
	"ebox-messaging/pkg/logger"
)

// ForwardService copies a message into another conversation, gated by
// the externally administered forward policy. Policy denial aborts
// before any mutation.
type ForwardService struct {
	store         *state.Store
	messages      repository.MessageRepository
	conversations repository.ConversationRepository
	policies      repository.PolicyRepository
	log           *logger.Logger
}

func NewForwardService(
	store *state.Store,
	messages repository.MessageRepository,
	conversations repository.ConversationRepository,
	policies repository.PolicyRepository,
	log *logger.Logger,
) *ForwardService {
	return &ForwardService{
		store:         store,
		messages:      messages,
		conversations: conversations,
		policies:      policies,
		log:           log,
	}
}

func (s *ForwardService) Forward(ctx context.Context, actor user.Identity, messageID, targetConversationID uuid.UUID) (message.Message, error) {
	original, err := s.messages.GetByID(ctx, messageID)
	if err != nil {
		if errors.Is(err, ebox_errors.ErrNotFound) {
			return message.Message{}, err
		}
		return message.Message{}, ebox_errors.Persistence(err)
	}

	allowed, err := s.policies.CanForward(ctx, messageID)
	if err != nil {
		return message.Message{}, ebox_errors.Persistence(err)
	}
	if !allowed {
		return message.Message{}, fmt.Errorf("%w: message %s may not be forwarded", ebox_errors.ErrPolicy, messageID)
	}

	target, err := s.conversations.GetByID(ctx, targetConversationID)
	if err != nil {
		if errors.Is(err, ebox_errors.ErrNotFound) {
			return message.Message{}, err
		}
		return message.Message{}, ebox_errors.Persistence(err)
	}

	now := time.Now()
	forwarded := message.Message{
		ID:                uuid.New(),
		ConversationID:    target.ID,
		SenderID:          actor.ID,
		Content:           original.Content,
		Status:            message.StatusSent,
		IsForwarded:       true,
		OriginalMessageID: uuid.NullUUID{UUID: messageID, Valid: true},
		Attachments:       original.Attachments,
		CreatedAt:         now,
	}
	if err := s.messages.Create(ctx, &forwarded); err != nil {
		return message.Message{}, ebox_errors.Persistence(err)
	}
	if err := s.conversations.Touch(ctx, target.ID, now); err != nil {
		s.log.Warnf("could not touch conversation %s: %v", target.ID, err)
	}

	s.store.UpsertMessage(forwarded)
	return forwarded, nil
}
