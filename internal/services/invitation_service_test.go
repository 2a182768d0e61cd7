package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"ebox-messaging/internal/domain/invitation"
	"ebox-messaging/internal/domain/user"
	"ebox-messaging/internal/repository"
	"ebox-messaging/internal/state"
	ebox_errors "ebox-messaging/pkg/errors"
	"ebox-messaging/pkg/logger"
)

func newInvitationService(f *fakes, store *state.Store) *InvitationService {
	return NewInvitationService(
		store,
		f.invitations,
		f.conversations,
		f.messages,
		f.users,
		logger.Nop(),
	)
}

func TestSendInvitationCreatesPending(t *testing.T) {
	f := newFakes()
	svc := newInvitationService(f, state.NewStore())
	sender := user.Identity{ID: uuid.New()}
	target := uuid.New()

	res, err := svc.SendInvitation(context.Background(), sender, target, "hi there")
	if err != nil {
		t.Fatalf("send invitation: %v", err)
	}
	if res.Invitation == nil || res.Conversation != nil {
		t.Fatal("first invitation should yield an invitation, not a conversation")
	}
	if res.Invitation.Status != invitation.StatusPending {
		t.Errorf("expected pending, got %s", res.Invitation.Status)
	}
	if res.Invitation.InitialMessage != "hi there" {
		t.Errorf("initial message lost: %q", res.Invitation.InitialMessage)
	}
}

func TestSendInvitationIsIdempotent(t *testing.T) {
	f := newFakes()
	svc := newInvitationService(f, state.NewStore())
	sender := user.Identity{ID: uuid.New()}
	target := uuid.New()

	first, err := svc.SendInvitation(context.Background(), sender, target, "")
	if err != nil {
		t.Fatalf("first send: %v", err)
	}
	second, err := svc.SendInvitation(context.Background(), sender, target, "")
	if err != nil {
		t.Fatalf("second send: %v", err)
	}
	if second.Invitation == nil || second.Invitation.ID != first.Invitation.ID {
		t.Error("repeat send should return the existing pending invitation")
	}
	if f.invitations.count() != 1 {
		t.Errorf("expected exactly 1 invitation row, got %d", f.invitations.count())
	}

	// The reverse direction also lands on the same pending invitation.
	reverse, err := svc.SendInvitation(context.Background(), user.Identity{ID: target}, sender.ID, "")
	if err != nil {
		t.Fatalf("reverse send: %v", err)
	}
	if reverse.Invitation == nil || reverse.Invitation.ID != first.Invitation.ID {
		t.Error("reverse invitation should dedupe against the pending one")
	}
}

func TestSendInvitationRejectsSelfAndNil(t *testing.T) {
	f := newFakes()
	svc := newInvitationService(f, state.NewStore())
	sender := user.Identity{ID: uuid.New()}

	if _, err := svc.SendInvitation(context.Background(), sender, sender.ID, ""); !errors.Is(err, ebox_errors.ErrValidation) {
		t.Errorf("self-invite should be a validation error, got %v", err)
	}
	if _, err := svc.SendInvitation(context.Background(), sender, uuid.Nil, ""); !errors.Is(err, ebox_errors.ErrValidation) {
		t.Errorf("nil target should be a validation error, got %v", err)
	}
}

func TestAcceptInvitationCreatesDirectConversation(t *testing.T) {
	f := newFakes()
	store := state.NewStore()
	svc := newInvitationService(f, store)
	sender := user.Identity{ID: uuid.New()}
	receiver := user.Identity{ID: uuid.New()}

	sent, err := svc.SendInvitation(context.Background(), sender, receiver.ID, "welcome aboard")
	if err != nil {
		t.Fatalf("send: %v", err)
	}

	res, err := svc.Respond(context.Background(), receiver, sent.Invitation.ID, true)
	if err != nil {
		t.Fatalf("accept: %v", err)
	}
	if res.Conversation == nil {
		t.Fatal("accepting must create the direct conversation")
	}
	if len(res.Conversation.Members) != 2 {
		t.Fatalf("expected 2 members, got %d", len(res.Conversation.Members))
	}
	for _, m := range res.Conversation.Members {
		if !m.JoinDate.Valid {
			t.Error("direct conversation members must carry a join date")
		}
	}

	// The initial message seeds the new conversation.
	last, ok := store.LastMessage(res.Conversation.ID)
	if !ok || last.Content != "welcome aboard" {
		t.Error("initial message should seed the conversation")
	}
	if last.SenderID != sender.ID {
		t.Error("seed message must be attributed to the inviter")
	}

	// A later invitation between the pair now resolves to this conversation.
	again, err := svc.SendInvitation(context.Background(), sender, receiver.ID, "")
	if err != nil {
		t.Fatalf("re-invite after accept: %v", err)
	}
	if again.Conversation == nil || again.Conversation.ID != res.Conversation.ID {
		t.Error("re-invite should return the existing direct conversation")
	}
}

func TestDeclineInvitationCreatesNothing(t *testing.T) {
	f := newFakes()
	svc := newInvitationService(f, state.NewStore())
	sender := user.Identity{ID: uuid.New()}
	receiver := user.Identity{ID: uuid.New()}

	sent, err := svc.SendInvitation(context.Background(), sender, receiver.ID, "")
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	res, err := svc.Respond(context.Background(), receiver, sent.Invitation.ID, false)
	if err != nil {
		t.Fatalf("decline: %v", err)
	}
	if res.Conversation != nil {
		t.Error("declining must not create a conversation")
	}
	if res.Invitation.Status != invitation.StatusDeclined {
		t.Errorf("expected declined, got %s", res.Invitation.Status)
	}
	if !res.Invitation.RespondedAt.Valid {
		t.Error("responded_at should be set")
	}
}

func TestRespondGuards(t *testing.T) {
	f := newFakes()
	svc := newInvitationService(f, state.NewStore())
	sender := user.Identity{ID: uuid.New()}
	receiver := user.Identity{ID: uuid.New()}

	sent, err := svc.SendInvitation(context.Background(), sender, receiver.ID, "")
	if err != nil {
		t.Fatalf("send: %v", err)
	}

	// Only the receiver may respond.
	if _, err := svc.Respond(context.Background(), sender, sent.Invitation.ID, true); !errors.Is(err, ebox_errors.ErrPermission) {
		t.Errorf("sender responding should be a permission error, got %v", err)
	}

	if _, err := svc.Respond(context.Background(), receiver, sent.Invitation.ID, false); err != nil {
		t.Fatalf("decline: %v", err)
	}

	// A settled invitation cannot be responded to again.
	if _, err := svc.Respond(context.Background(), receiver, sent.Invitation.ID, true); !errors.Is(err, ebox_errors.ErrValidation) {
		t.Errorf("responding to a settled invitation should be a validation error, got %v", err)
	}

	if _, err := svc.Respond(context.Background(), receiver, uuid.New(), true); !errors.Is(err, ebox_errors.ErrNotFound) {
		t.Errorf("unknown invitation should be not found, got %v", err)
	}
}

func TestSearchUsersExcludesSelf(t *testing.T) {
	f := newFakes()
	svc := newInvitationService(f, state.NewStore())

	me := user.Profile{ID: uuid.New(), DisplayName: "Ann Smith", Mobile: "+32470111111"}
	other := user.Profile{ID: uuid.New(), DisplayName: "Anna Jones", Mobile: "+32470222222"}
	_ = f.users.Create(context.Background(), &me)
	_ = f.users.Create(context.Background(), &other)

	actor := user.Identity{ID: me.ID}
	got, err := svc.SearchUsers(context.Background(), actor, "ann", repository.SearchByName)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(got) != 1 || got[0].ID != other.ID {
		t.Errorf("search should be partial, case-insensitive and exclude the caller: %v", got)
	}

	byMobile, err := svc.SearchUsers(context.Background(), actor, "470222", repository.SearchByMobile)
	if err != nil {
		t.Fatalf("search by mobile: %v", err)
	}
	if len(byMobile) != 1 || byMobile[0].ID != other.ID {
		t.Error("mobile search should match a partial number")
	}

	if _, err := svc.SearchUsers(context.Background(), actor, "", repository.SearchByName); !errors.Is(err, ebox_errors.ErrValidation) {
		t.Errorf("empty term should be a validation error, got %v", err)
	}
}

func TestAcceptIsAtomicWhenMemberInsertFails(t *testing.T) {
	f := newFakes()
	svc := newInvitationService(f, state.NewStore())
	sender := user.Identity{ID: uuid.New()}
	receiver := user.Identity{ID: uuid.New()}

	sent, err := svc.SendInvitation(context.Background(), sender, receiver.ID, "")
	if err != nil {
		t.Fatalf("send: %v", err)
	}

	f.members.failCreate = true
	if _, err := svc.Respond(context.Background(), receiver, sent.Invitation.ID, true); !errors.Is(err, ebox_errors.ErrPersistence) {
		t.Fatalf("failed member insert should surface as a persistence error, got %v", err)
	}

	// Nothing half-committed: the invitation is still pending, no
	// conversation exists, no stray member rows.
	inv, err := f.invitations.GetByID(context.Background(), sent.Invitation.ID)
	if err != nil || inv.Status != invitation.StatusPending {
		t.Errorf("invitation must stay pending after a failed accept, got %s (%v)", inv.Status, err)
	}
	if _, err := f.conversations.GetDirectConversation(context.Background(), sender.ID, receiver.ID); !errors.Is(err, ebox_errors.ErrNotFound) {
		t.Errorf("no direct conversation should exist, got %v", err)
	}
	if f.members.count() != 0 {
		t.Errorf("expected 0 member rows, got %d", f.members.count())
	}

	// Idempotence holds through the failure: a repeat invitation dedupes
	// against the still-pending one instead of minting another.
	again, err := svc.SendInvitation(context.Background(), sender, receiver.ID, "")
	if err != nil {
		t.Fatalf("re-send: %v", err)
	}
	if again.Invitation == nil || again.Invitation.ID != sent.Invitation.ID {
		t.Error("re-send should return the pending invitation, not a new one")
	}
	if f.invitations.count() != 1 {
		t.Errorf("expected 1 invitation row, got %d", f.invitations.count())
	}

	// The accept is retryable once the store recovers.
	f.members.failCreate = false
	res, err := svc.Respond(context.Background(), receiver, sent.Invitation.ID, true)
	if err != nil {
		t.Fatalf("retry accept: %v", err)
	}
	if res.Conversation == nil || len(res.Conversation.Members) != 2 {
		t.Fatal("retried accept should create the conversation with both members")
	}
}
