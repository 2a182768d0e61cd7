package services

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"ebox-messaging/internal/domain/conversation"
	"ebox-messaging/internal/domain/user"
	"ebox-messaging/internal/repository"
	"ebox-messaging/internal/state"
	ebox_errors "ebox-messaging/pkg/errors"
	"ebox-messaging/pkg/logger"
)

// GroupService manages group conversations: creation, invitations,
// join requests, moderation and leaving. All moderation-gated
// operations require the caller to hold an accepted moderator
// membership in the group.
type GroupService struct {
	store         *state.Store
	conversations repository.ConversationRepository
	members       repository.MemberRepository
	log           *logger.Logger
}

func NewGroupService(
	store *state.Store,
	conversations repository.ConversationRepository,
	members repository.MemberRepository,
	log *logger.Logger,
) *GroupService {
	return &GroupService{store: store, conversations: conversations, members: members, log: log}
}

type CreateGroupInput struct {
	Name           string
	Description    string
	IsPublic       bool
	OrganizationID uuid.NullUUID
	InviteeIDs     []uuid.UUID
}

// CreateGroup creates the conversation and seats the creator as its
// first accepted moderator. Optional invitees start out pending with
// the creator recorded as inviter.
func (s *GroupService) CreateGroup(ctx context.Context, actor user.Identity, input CreateGroupInput) (conversation.Conversation, error) {
	if input.Name == "" {
		return conversation.Conversation{}, ebox_errors.Validationf("group name is required")
	}

	now := time.Now()
	conv := conversation.Conversation{
		ID:             uuid.New(),
		Kind:           conversation.KindGroup,
		Name:           input.Name,
		Description:    input.Description,
		IsPublic:       input.IsPublic,
		OrganizationID: input.OrganizationID,
		CreatedBy:      actor.ID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	creator := conversation.Membership{
		ID:             uuid.New(),
		ConversationID: conv.ID,
		UserID:         actor.ID,
		Role:           conversation.RoleModerator,
		Status:         conversation.MemberAccepted,
		JoinDate:       sql.NullTime{Time: now, Valid: true},
		CreatedAt:      now,
	}
	// Group and moderator seat are one transaction; a group without its
	// moderator must never become visible.
	if err := s.conversations.CreateWithMembers(ctx, &conv, []conversation.Membership{creator}); err != nil {
		return conversation.Conversation{}, ebox_errors.Persistence(err)
	}
	conv.Members = append(conv.Members, creator)

	for _, inviteeID := range input.InviteeIDs {
		if inviteeID == actor.ID {
			continue
		}
		m := conversation.Membership{
			ID:             uuid.New(),
			ConversationID: conv.ID,
			UserID:         inviteeID,
			Role:           conversation.RoleMember,
			Status:         conversation.MemberPending,
			InvitedBy:      uuid.NullUUID{UUID: actor.ID, Valid: true},
			CreatedAt:      now,
		}
		if err := s.members.Create(ctx, &m); err != nil {
			s.log.Warnf("could not invite %s to group %s: %v", inviteeID, conv.ID, err)
			continue
		}
		conv.Members = append(conv.Members, m)
	}

	s.store.UpsertConversation(conv)
	return conv, nil
}

// JoinGroup handles three cases by membership state: accepting a
// pending invitation, a no-op when already a member, and a fresh join,
// which is immediate for public groups and a pending join request for
// private ones.
func (s *GroupService) JoinGroup(ctx context.Context, actor user.Identity, groupID uuid.UUID) (conversation.Membership, error) {
	existing, err := s.members.GetMember(ctx, groupID, actor.ID)
	if err == nil {
		if existing.Status == conversation.MemberAccepted {
			return existing, nil
		}
		if existing.Status == conversation.MemberPending && existing.InvitedBy.Valid {
			existing.Status = conversation.MemberAccepted
			existing.JoinDate = sql.NullTime{Time: time.Now(), Valid: true}
			if err := s.members.Update(ctx, existing); err != nil {
				return conversation.Membership{}, ebox_errors.Persistence(err)
			}
			s.store.UpsertMembership(existing)
			return existing, nil
		}
		// A join request is already pending; nothing more to do until a
		// moderator settles it.
		return existing, nil
	}
	if !errors.Is(err, ebox_errors.ErrNotFound) {
		return conversation.Membership{}, ebox_errors.Persistence(err)
	}

	conv, err := s.conversations.GetByID(ctx, groupID)
	if err != nil {
		if errors.Is(err, ebox_errors.ErrNotFound) {
			return conversation.Membership{}, err
		}
		return conversation.Membership{}, ebox_errors.Persistence(err)
	}
	if conv.Kind != conversation.KindGroup {
		return conversation.Membership{}, ebox_errors.Validationf("conversation %s is not a group", groupID)
	}

	now := time.Now()
	m := conversation.Membership{
		ID:             uuid.New(),
		ConversationID: groupID,
		UserID:         actor.ID,
		Role:           conversation.RoleMember,
		CreatedAt:      now,
	}
	if conv.IsPublic {
		m.Status = conversation.MemberAccepted
		m.JoinDate = sql.NullTime{Time: now, Valid: true}
	} else {
		m.Status = conversation.MemberPending
	}
	if err := s.members.Create(ctx, &m); err != nil {
		return conversation.Membership{}, ebox_errors.Persistence(err)
	}
	s.store.UpsertMembership(m)
	return m, nil
}

// InviteToGroup inserts pending invitations for the given users. Only
// an accepted moderator of the group may invite; users who already have
// a membership row are skipped.
func (s *GroupService) InviteToGroup(ctx context.Context, actor user.Identity, groupID uuid.UUID, userIDs []uuid.UUID) ([]conversation.Membership, error) {
	if len(userIDs) == 0 {
		return nil, ebox_errors.Validationf("no users to invite")
	}
	if err := s.requireModerator(ctx, actor, groupID); err != nil {
		return nil, err
	}

	now := time.Now()
	invited := make([]conversation.Membership, 0, len(userIDs))
	for _, userID := range userIDs {
		if _, err := s.members.GetMember(ctx, groupID, userID); err == nil {
			continue
		} else if !errors.Is(err, ebox_errors.ErrNotFound) {
			return invited, ebox_errors.Persistence(err)
		}
		m := conversation.Membership{
			ID:             uuid.New(),
			ConversationID: groupID,
			UserID:         userID,
			Role:           conversation.RoleMember,
			Status:         conversation.MemberPending,
			InvitedBy:      uuid.NullUUID{UUID: actor.ID, Valid: true},
			CreatedAt:      now,
		}
		if err := s.members.Create(ctx, &m); err != nil {
			return invited, ebox_errors.Persistence(err)
		}
		s.store.UpsertMembership(m)
		invited = append(invited, m)
	}
	return invited, nil
}

// RespondToJoinRequest settles a pending membership. Approval makes it
// accepted with a join date; rejection deletes the row so no trace of
// the request remains.
func (s *GroupService) RespondToJoinRequest(ctx context.Context, actor user.Identity, membershipID uuid.UUID, approve bool) (conversation.Membership, error) {
	m, err := s.members.GetByID(ctx, membershipID)
	if err != nil {
		if errors.Is(err, ebox_errors.ErrNotFound) {
			return conversation.Membership{}, err
		}
		return conversation.Membership{}, ebox_errors.Persistence(err)
	}
	if err := s.requireModerator(ctx, actor, m.ConversationID); err != nil {
		return conversation.Membership{}, err
	}
	if m.Status != conversation.MemberPending {
		return conversation.Membership{}, ebox_errors.Validationf("membership is not pending")
	}

	if !approve {
		if err := s.members.Delete(ctx, membershipID); err != nil {
			return conversation.Membership{}, ebox_errors.Persistence(err)
		}
		s.store.RemoveMembership(membershipID)
		return conversation.Membership{}, nil
	}

	m.Status = conversation.MemberAccepted
	m.JoinDate = sql.NullTime{Time: time.Now(), Valid: true}
	if err := s.members.Update(ctx, m); err != nil {
		return conversation.Membership{}, ebox_errors.Persistence(err)
	}
	s.store.UpsertMembership(m)
	return m, nil
}

// LeaveGroup deletes the caller's own membership row unconditionally.
// A moderator may leave even as the last one; the resulting
// moderator-less group is logged but not prevented.
func (s *GroupService) LeaveGroup(ctx context.Context, actor user.Identity, groupID uuid.UUID) error {
	m, err := s.members.GetMember(ctx, groupID, actor.ID)
	if err != nil {
		if errors.Is(err, ebox_errors.ErrNotFound) {
			return err
		}
		return ebox_errors.Persistence(err)
	}

	if m.IsAcceptedModerator() {
		count, err := s.members.CountAcceptedModerators(ctx, groupID)
		if err == nil && count <= 1 {
			s.log.Warnf("last moderator %s is leaving group %s", actor.ID, groupID)
		}
	}

	if err := s.members.Delete(ctx, m.ID); err != nil {
		return ebox_errors.Persistence(err)
	}
	s.store.RemoveMembership(m.ID)
	return nil
}

func (s *GroupService) requireModerator(ctx context.Context, actor user.Identity, conversationID uuid.UUID) error {
	m, err := s.members.GetMember(ctx, conversationID, actor.ID)
	if err != nil {
		if errors.Is(err, ebox_errors.ErrNotFound) {
			return ebox_errors.Permissionf("not a member of this group")
		}
		return ebox_errors.Persistence(err)
	}
	if !m.IsAcceptedModerator() {
		return ebox_errors.Permissionf("moderator role required")
	}
	return nil
}
