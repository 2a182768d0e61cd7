package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"ebox-messaging/internal/config"
	"ebox-messaging/internal/domain/broadcast"
	"ebox-messaging/internal/domain/conversation"
	"ebox-messaging/internal/domain/message"
	"ebox-messaging/internal/domain/user"
	"ebox-messaging/internal/repository"
	"ebox-messaging/internal/state"
	ebox_errors "ebox-messaging/pkg/errors"
	"ebox-messaging/pkg/logger"
)

// MessageService owns the send/edit/delete lifecycle of ordinary
// messages and the per-message delivery state machine. Sends are
// optimistic: the message lands in the conversation store as "sending"
// before the durable write, and is advanced to "sent" or demoted to
// "failed" when the write resolves. A failed message is never retried
// automatically.
type MessageService struct {
	store         *state.Store
	messages      repository.MessageRepository
	conversations repository.ConversationRepository
	broadcasts    repository.BroadcastRepository
	authorizer    *BroadcastAuthorizer
	delays        config.DeliveryConfig
	log           *logger.Logger
}

func NewMessageService(
	store *state.Store,
	messages repository.MessageRepository,
	conversations repository.ConversationRepository,
	broadcasts repository.BroadcastRepository,
	authorizer *BroadcastAuthorizer,
	delays config.DeliveryConfig,
	log *logger.Logger,
) *MessageService {
	if authorizer == nil {
		authorizer = NewBroadcastAuthorizer()
	}
	return &MessageService{
		store:         store,
		messages:      messages,
		conversations: conversations,
		broadcasts:    broadcasts,
		authorizer:    authorizer,
		delays:        delays,
		log:           log,
	}
}

// Send posts a message into a conversation. Broadcast conversations
// additionally require an elevated role claim; a denied broadcast
// removes the optimistic entry and leaves no trace.
func (s *MessageService) Send(ctx context.Context, actor user.Identity, conversationID uuid.UUID, content string, attachments []message.Attachment) (message.Message, error) {
	if conversationID == uuid.Nil {
		return message.Message{}, ebox_errors.Validationf("conversation id is required")
	}
	if content == "" && len(attachments) == 0 {
		return message.Message{}, ebox_errors.Validationf("message needs content or attachments")
	}

	conv, err := s.conversationFor(ctx, conversationID)
	if err != nil {
		return message.Message{}, err
	}

	msg := message.Message{
		ID:             uuid.New(),
		ConversationID: conversationID,
		SenderID:       actor.ID,
		Content:        content,
		Status:         message.StatusSending,
		Attachments:    attachments,
		CreatedAt:      time.Now(),
	}
	s.store.UpsertMessage(msg)

	if conv.Kind == conversation.KindBroadcast {
		if err := s.authorizer.Authorize(actor.Role); err != nil {
			s.store.RemoveMessage(msg.ID)
			return message.Message{}, err
		}
	}

	if err := s.persist(ctx, conv, msg); err != nil {
		if tErr := s.store.SetMessageStatus(msg.ID, message.StatusFailed); tErr != nil {
			s.log.Errorf("could not mark message %s failed: %v", msg.ID, tErr)
		}
		return message.Message{}, ebox_errors.Persistence(err)
	}

	if err := s.store.SetMessageStatus(msg.ID, message.StatusSent); err != nil {
		s.log.Errorf("could not mark message %s sent: %v", msg.ID, err)
	}
	if err := s.conversations.Touch(ctx, conversationID, time.Now()); err != nil {
		s.log.Warnf("could not touch conversation %s: %v", conversationID, err)
	}

	if conv.Kind != conversation.KindBroadcast {
		s.scheduleReceipts(msg.ID)
	}

	sent, _ := s.store.Message(msg.ID)
	return sent, nil
}

func (s *MessageService) persist(ctx context.Context, conv conversation.Conversation, msg message.Message) error {
	if conv.Kind == conversation.KindBroadcast {
		return s.broadcasts.Create(ctx, &broadcast.Message{
			ID:             msg.ID,
			ConversationID: conv.ID,
			SenderID:       msg.SenderID,
			Content:        msg.Content,
			OrganizationID: conv.OrganizationID,
			CreatedAt:      msg.CreatedAt,
		})
	}
	return s.messages.Create(ctx, &msg)
}

// scheduleReceipts simulates recipient presence with fixed-delay timers:
// sent -> delivered after a short delay, delivered -> read after a
// longer one. This is a placeholder, not an acknowledgment protocol;
// the transitions still run through the state machine, so a message
// that failed in the meantime never advances.
func (s *MessageService) scheduleReceipts(messageID uuid.UUID) {
	if s.delays.DeliveredDelay <= 0 {
		return
	}
	time.AfterFunc(s.delays.DeliveredDelay, func() {
		if err := s.store.SetMessageStatus(messageID, message.StatusDelivered); err != nil {
			return
		}
		if s.delays.ReadDelay <= 0 {
			return
		}
		time.AfterFunc(s.delays.ReadDelay, func() {
			_ = s.store.SetMessageStatus(messageID, message.StatusRead)
		})
	})
}

// Edit replaces a message's content in the session view and marks it
// edited. Edits are deliberately client-ephemeral: the durable copy is
// not rewritten.
func (s *MessageService) Edit(actor user.Identity, messageID uuid.UUID, newContent string) (message.Message, error) {
	if newContent == "" {
		return message.Message{}, ebox_errors.Validationf("edited content must not be empty")
	}
	if err := s.store.EditMessage(messageID, newContent); err != nil {
		return message.Message{}, err
	}
	m, _ := s.store.Message(messageID)
	return m, nil
}

// Delete removes a message locally and from the durable store. Messages
// that never reached the store (still sending, or failed) only exist
// locally; their absence remotely is not an error.
func (s *MessageService) Delete(ctx context.Context, actor user.Identity, messageID uuid.UUID) error {
	m, ok := s.store.Message(messageID)
	if !ok {
		return ebox_errors.ErrNotFound
	}

	if m.Status != message.StatusSending && m.Status != message.StatusFailed {
		if err := s.messages.Delete(ctx, messageID); err != nil && !errors.Is(err, ebox_errors.ErrNotFound) {
			return ebox_errors.Persistence(err)
		}
	}
	s.store.RemoveMessage(messageID)
	return nil
}

func (s *MessageService) conversationFor(ctx context.Context, id uuid.UUID) (conversation.Conversation, error) {
	if conv, ok := s.store.Conversation(id); ok && conv.Kind.Valid() {
		return conv, nil
	}
	conv, err := s.conversations.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ebox_errors.ErrNotFound) {
			return conversation.Conversation{}, err
		}
		return conversation.Conversation{}, ebox_errors.Persistence(err)
	}
	s.store.UpsertConversation(conv)
	return conv, nil
}
