package services

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"ebox-messaging/internal/domain/conversation"
	"ebox-messaging/internal/domain/invitation"
	"ebox-messaging/internal/domain/message"
	"ebox-messaging/internal/domain/user"
	"ebox-messaging/internal/repository"
	"ebox-messaging/internal/state"
	ebox_errors "ebox-messaging/pkg/errors"
	"ebox-messaging/pkg/logger"
)

// InvitationService bootstraps direct conversations: search a user,
// invite them, and turn an accepted invitation into the one direct
// conversation that pair of users will ever have.
type InvitationService struct {
	store         *state.Store
	invitations   repository.InvitationRepository
	conversations repository.ConversationRepository
	messages      repository.MessageRepository
	users         repository.UserRepository
	log           *logger.Logger
}

func NewInvitationService(
	store *state.Store,
	invitations repository.InvitationRepository,
	conversations repository.ConversationRepository,
	messages repository.MessageRepository,
	users repository.UserRepository,
	log *logger.Logger,
) *InvitationService {
	return &InvitationService{
		store:         store,
		invitations:   invitations,
		conversations: conversations,
		messages:      messages,
		users:         users,
		log:           log,
	}
}

// SearchUsers matches term against the selected profile field,
// case-insensitively and partially. The caller never appears in their
// own results.
func (s *InvitationService) SearchUsers(ctx context.Context, actor user.Identity, term string, mode repository.SearchMode) ([]user.Profile, error) {
	if term == "" {
		return nil, ebox_errors.Validationf("search term is required")
	}
	profiles, err := s.users.Search(ctx, term, mode, actor.ID, 20)
	if err != nil {
		if errors.Is(err, ebox_errors.ErrValidation) {
			return nil, err
		}
		return nil, ebox_errors.Persistence(err)
	}
	return profiles, nil
}

// SendResult is the outcome of SendInvitation: either the direct
// conversation that already existed, or the (possibly pre-existing
// pending) invitation.
type SendResult struct {
	Conversation *conversation.Conversation
	Invitation   *invitation.Invitation
}

// SendInvitation is idempotent. An existing direct conversation between
// the pair is returned unchanged, an existing pending invitation is
// returned instead of duplicated, and only otherwise is a new pending
// invitation created.
func (s *InvitationService) SendInvitation(ctx context.Context, actor user.Identity, targetUserID uuid.UUID, initialMessage string) (SendResult, error) {
	if targetUserID == uuid.Nil {
		return SendResult{}, ebox_errors.Validationf("target user id is required")
	}
	if targetUserID == actor.ID {
		return SendResult{}, ebox_errors.Validationf("cannot invite yourself")
	}

	conv, err := s.conversations.GetDirectConversation(ctx, actor.ID, targetUserID)
	if err == nil {
		s.store.UpsertConversation(conv)
		return SendResult{Conversation: &conv}, nil
	}
	if !errors.Is(err, ebox_errors.ErrNotFound) {
		return SendResult{}, ebox_errors.Persistence(err)
	}

	if existing, err := s.invitations.GetPendingBetween(ctx, actor.ID, targetUserID); err == nil {
		s.store.UpsertInvitation(existing)
		return SendResult{Invitation: &existing}, nil
	} else if !errors.Is(err, ebox_errors.ErrNotFound) {
		return SendResult{}, ebox_errors.Persistence(err)
	}

	inv := invitation.Invitation{
		ID:             uuid.New(),
		SenderID:       actor.ID,
		ReceiverID:     targetUserID,
		InitialMessage: initialMessage,
		Status:         invitation.StatusPending,
		CreatedAt:      time.Now(),
	}
	if err := s.invitations.Create(ctx, &inv); err != nil {
		return SendResult{}, ebox_errors.Persistence(err)
	}
	s.store.UpsertInvitation(inv)
	return SendResult{Invitation: &inv}, nil
}

// Respond settles a pending invitation. Accepting creates the direct
// conversation, seeded with the initial message when one was attached.
// Declining is terminal and creates nothing. Responding to an
// already-settled invitation is a validation error so stale UI state is
// visible to the caller.
func (s *InvitationService) Respond(ctx context.Context, actor user.Identity, invitationID uuid.UUID, accept bool) (SendResult, error) {
	inv, err := s.invitations.GetByID(ctx, invitationID)
	if err != nil {
		if errors.Is(err, ebox_errors.ErrNotFound) {
			return SendResult{}, err
		}
		return SendResult{}, ebox_errors.Persistence(err)
	}
	if inv.Status.Terminal() {
		return SendResult{}, ebox_errors.Validationf("invitation already %s", inv.Status)
	}
	if inv.ReceiverID != actor.ID {
		return SendResult{}, ebox_errors.Permissionf("only the invited user may respond")
	}

	now := time.Now()
	inv.RespondedAt = sql.NullTime{Time: now, Valid: true}

	if !accept {
		inv.Status = invitation.StatusDeclined
		if err := s.invitations.Update(ctx, inv); err != nil {
			return SendResult{}, ebox_errors.Persistence(err)
		}
		s.store.UpsertInvitation(inv)
		return SendResult{Invitation: &inv}, nil
	}

	// The conversation and both member rows land first, in one
	// transaction; the invitation flips to accepted only once they are
	// durable. A failure at any point leaves the invitation pending and
	// the accept retryable. A retry after a partial success reuses the
	// conversation that already exists.
	conv, err := s.conversations.GetDirectConversation(ctx, inv.SenderID, inv.ReceiverID)
	if errors.Is(err, ebox_errors.ErrNotFound) {
		conv = conversation.Conversation{
			ID:        uuid.New(),
			Kind:      conversation.KindDirect,
			CreatedBy: inv.SenderID,
			CreatedAt: now,
			UpdatedAt: now,
		}
		members := make([]conversation.Membership, 0, 2)
		for _, userID := range []uuid.UUID{inv.SenderID, inv.ReceiverID} {
			members = append(members, conversation.Membership{
				ID:             uuid.New(),
				ConversationID: conv.ID,
				UserID:         userID,
				Role:           conversation.RoleMember,
				Status:         conversation.MemberAccepted,
				JoinDate:       sql.NullTime{Time: now, Valid: true},
				CreatedAt:      now,
			})
		}
		if err := s.conversations.CreateWithMembers(ctx, &conv, members); err != nil {
			return SendResult{}, ebox_errors.Persistence(err)
		}
		conv.Members = members
	} else if err != nil {
		return SendResult{}, ebox_errors.Persistence(err)
	}

	inv.Status = invitation.StatusAccepted
	if err := s.invitations.Update(ctx, inv); err != nil {
		return SendResult{}, ebox_errors.Persistence(err)
	}
	s.store.UpsertConversation(conv)
	s.store.UpsertInvitation(inv)

	if inv.InitialMessage != "" {
		seed := message.Message{
			ID:             uuid.New(),
			ConversationID: conv.ID,
			SenderID:       inv.SenderID,
			Content:        inv.InitialMessage,
			Status:         message.StatusSent,
			CreatedAt:      now,
		}
		if err := s.messages.Create(ctx, &seed); err != nil {
			s.log.Errorf("could not seed conversation %s with initial message: %v", conv.ID, err)
		} else {
			s.store.UpsertMessage(seed)
		}
	}

	return SendResult{Conversation: &conv, Invitation: &inv}, nil
}
