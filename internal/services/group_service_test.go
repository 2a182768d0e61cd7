package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"ebox-messaging/internal/domain/conversation"
	"ebox-messaging/internal/domain/user"
	"ebox-messaging/internal/state"
	ebox_errors "ebox-messaging/pkg/errors"
	"ebox-messaging/pkg/logger"
)

func newGroupService(f *fakes, store *state.Store) *GroupService {
	return NewGroupService(store, f.conversations, f.members, logger.Nop())
}

func TestCreateGroupSeatsCreatorAsModerator(t *testing.T) {
	f := newFakes()
	svc := newGroupService(f, state.NewStore())
	creator := user.Identity{ID: uuid.New()}
	invitee := uuid.New()

	conv, err := svc.CreateGroup(context.Background(), creator, CreateGroupInput{
		Name:       "release crew",
		IsPublic:   false,
		InviteeIDs: []uuid.UUID{invitee, creator.ID},
	})
	if err != nil {
		t.Fatalf("create group: %v", err)
	}
	if conv.Kind != conversation.KindGroup {
		t.Errorf("expected group kind, got %s", conv.Kind)
	}

	own, err := f.members.GetMember(context.Background(), conv.ID, creator.ID)
	if err != nil {
		t.Fatalf("creator membership missing: %v", err)
	}
	if own.Role != conversation.RoleModerator || own.Status != conversation.MemberAccepted {
		t.Errorf("creator must be an accepted moderator, got %s/%s", own.Role, own.Status)
	}
	if !own.JoinDate.Valid {
		t.Error("creator membership must carry a join date")
	}

	inv, err := f.members.GetMember(context.Background(), conv.ID, invitee)
	if err != nil {
		t.Fatalf("invitee membership missing: %v", err)
	}
	if inv.Status != conversation.MemberPending {
		t.Errorf("invitee should start pending, got %s", inv.Status)
	}
	if !inv.InvitedBy.Valid || inv.InvitedBy.UUID != creator.ID {
		t.Error("invitee must record the creator as inviter")
	}

	// The creator appearing in the invitee list is dropped, not duplicated.
	if f.members.count() != 2 {
		t.Errorf("expected 2 membership rows, got %d", f.members.count())
	}

	if _, err := svc.CreateGroup(context.Background(), creator, CreateGroupInput{}); !errors.Is(err, ebox_errors.ErrValidation) {
		t.Errorf("nameless group should be a validation error, got %v", err)
	}
}

func TestJoinPublicGroupIsImmediate(t *testing.T) {
	f := newFakes()
	svc := newGroupService(f, state.NewStore())
	creator := user.Identity{ID: uuid.New()}
	joiner := user.Identity{ID: uuid.New()}

	conv, err := svc.CreateGroup(context.Background(), creator, CreateGroupInput{Name: "open floor", IsPublic: true})
	if err != nil {
		t.Fatalf("create group: %v", err)
	}

	m, err := svc.JoinGroup(context.Background(), joiner, conv.ID)
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	if m.Status != conversation.MemberAccepted {
		t.Errorf("public join should be immediate, got %s", m.Status)
	}
	if !m.JoinDate.Valid {
		t.Error("accepted membership must carry a join date")
	}
	if m.InvitedBy.Valid {
		t.Error("a self-join records no inviter")
	}

	// Joining again is a no-op on the same row.
	again, err := svc.JoinGroup(context.Background(), joiner, conv.ID)
	if err != nil {
		t.Fatalf("rejoin: %v", err)
	}
	if again.ID != m.ID {
		t.Error("rejoin must return the existing membership")
	}
}

func TestJoinPrivateGroupNeedsApproval(t *testing.T) {
	f := newFakes()
	svc := newGroupService(f, state.NewStore())
	creator := user.Identity{ID: uuid.New()}
	joiner := user.Identity{ID: uuid.New()}

	conv, err := svc.CreateGroup(context.Background(), creator, CreateGroupInput{Name: "private"})
	if err != nil {
		t.Fatalf("create group: %v", err)
	}

	req, err := svc.JoinGroup(context.Background(), joiner, conv.ID)
	if err != nil {
		t.Fatalf("request join: %v", err)
	}
	if req.Status != conversation.MemberPending {
		t.Fatalf("private join should be pending, got %s", req.Status)
	}
	if req.InvitedBy.Valid {
		t.Error("a join request has no inviter")
	}

	// A second join attempt while pending changes nothing.
	again, err := svc.JoinGroup(context.Background(), joiner, conv.ID)
	if err != nil {
		t.Fatalf("repeat request: %v", err)
	}
	if again.ID != req.ID || again.Status != conversation.MemberPending {
		t.Error("repeat request must return the pending row unchanged")
	}

	approved, err := svc.RespondToJoinRequest(context.Background(), creator, req.ID, true)
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if approved.Status != conversation.MemberAccepted || !approved.JoinDate.Valid {
		t.Error("approval should accept the membership and stamp the join date")
	}
}

func TestRejectJoinRequestDeletesRow(t *testing.T) {
	f := newFakes()
	svc := newGroupService(f, state.NewStore())
	creator := user.Identity{ID: uuid.New()}
	joiner := user.Identity{ID: uuid.New()}

	conv, _ := svc.CreateGroup(context.Background(), creator, CreateGroupInput{Name: "private"})
	req, _ := svc.JoinGroup(context.Background(), joiner, conv.ID)

	if _, err := svc.RespondToJoinRequest(context.Background(), creator, req.ID, false); err != nil {
		t.Fatalf("reject: %v", err)
	}
	if _, err := f.members.GetByID(context.Background(), req.ID); !errors.Is(err, ebox_errors.ErrNotFound) {
		t.Error("rejected request must leave no membership row")
	}
}

func TestInviteRequiresModerator(t *testing.T) {
	f := newFakes()
	svc := newGroupService(f, state.NewStore())
	creator := user.Identity{ID: uuid.New()}
	member := user.Identity{ID: uuid.New()}

	conv, _ := svc.CreateGroup(context.Background(), creator, CreateGroupInput{Name: "open floor", IsPublic: true})
	if _, err := svc.JoinGroup(context.Background(), member, conv.ID); err != nil {
		t.Fatalf("join: %v", err)
	}
	before := f.members.count()

	_, err := svc.InviteToGroup(context.Background(), member, conv.ID, []uuid.UUID{uuid.New()})
	if !errors.Is(err, ebox_errors.ErrPermission) {
		t.Fatalf("ordinary member inviting should be a permission error, got %v", err)
	}
	if f.members.count() != before {
		t.Error("denied invite must leave membership rows unchanged")
	}

	outsider := user.Identity{ID: uuid.New()}
	if _, err := svc.InviteToGroup(context.Background(), outsider, conv.ID, []uuid.UUID{uuid.New()}); !errors.Is(err, ebox_errors.ErrPermission) {
		t.Errorf("non-member inviting should be a permission error, got %v", err)
	}
}

func TestInviteByModeratorSkipsExistingMembers(t *testing.T) {
	f := newFakes()
	svc := newGroupService(f, state.NewStore())
	creator := user.Identity{ID: uuid.New()}
	existing := user.Identity{ID: uuid.New()}
	fresh := uuid.New()

	conv, _ := svc.CreateGroup(context.Background(), creator, CreateGroupInput{Name: "open floor", IsPublic: true})
	if _, err := svc.JoinGroup(context.Background(), existing, conv.ID); err != nil {
		t.Fatalf("join: %v", err)
	}

	invited, err := svc.InviteToGroup(context.Background(), creator, conv.ID, []uuid.UUID{existing.ID, fresh})
	if err != nil {
		t.Fatalf("invite: %v", err)
	}
	if len(invited) != 1 || invited[0].UserID != fresh {
		t.Fatalf("only the fresh user should be invited, got %v", invited)
	}
	if invited[0].Status != conversation.MemberPending {
		t.Errorf("invitation should be pending, got %s", invited[0].Status)
	}
	if !invited[0].InvitedBy.Valid || invited[0].InvitedBy.UUID != creator.ID {
		t.Error("invited row must record the inviter")
	}
}

func TestInvitedUserJoinAcceptsInvitation(t *testing.T) {
	f := newFakes()
	svc := newGroupService(f, state.NewStore())
	creator := user.Identity{ID: uuid.New()}
	invitee := user.Identity{ID: uuid.New()}

	conv, _ := svc.CreateGroup(context.Background(), creator, CreateGroupInput{
		Name:       "private",
		InviteeIDs: []uuid.UUID{invitee.ID},
	})

	// Joining with a pending invitation accepts it even in a private group.
	m, err := svc.JoinGroup(context.Background(), invitee, conv.ID)
	if err != nil {
		t.Fatalf("join via invitation: %v", err)
	}
	if m.Status != conversation.MemberAccepted || !m.JoinDate.Valid {
		t.Errorf("invited join should accept immediately, got %s", m.Status)
	}
}

func TestLeaveGroup(t *testing.T) {
	f := newFakes()
	store := state.NewStore()
	svc := newGroupService(f, store)
	creator := user.Identity{ID: uuid.New()}
	member := user.Identity{ID: uuid.New()}

	conv, _ := svc.CreateGroup(context.Background(), creator, CreateGroupInput{Name: "open floor", IsPublic: true})
	if _, err := svc.JoinGroup(context.Background(), member, conv.ID); err != nil {
		t.Fatalf("join: %v", err)
	}

	if err := svc.LeaveGroup(context.Background(), member, conv.ID); err != nil {
		t.Fatalf("leave: %v", err)
	}
	if _, err := f.members.GetMember(context.Background(), conv.ID, member.ID); !errors.Is(err, ebox_errors.ErrNotFound) {
		t.Error("membership row should be gone after leaving")
	}

	// The last moderator may leave; the group just ends up unmoderated.
	if err := svc.LeaveGroup(context.Background(), creator, conv.ID); err != nil {
		t.Fatalf("last moderator leave: %v", err)
	}
	count, _ := f.members.CountAcceptedModerators(context.Background(), conv.ID)
	if count != 0 {
		t.Errorf("expected 0 moderators, got %d", count)
	}

	if err := svc.LeaveGroup(context.Background(), member, conv.ID); !errors.Is(err, ebox_errors.ErrNotFound) {
		t.Errorf("leaving twice should be not found, got %v", err)
	}
}

func TestJoinRejectsNonGroupConversation(t *testing.T) {
	f := newFakes()
	svc := newGroupService(f, state.NewStore())
	a, b := uuid.New(), uuid.New()
	direct := seedConversation(t, f, conversation.KindDirect, a, b)

	joiner := user.Identity{ID: uuid.New()}
	if _, err := svc.JoinGroup(context.Background(), joiner, direct.ID); !errors.Is(err, ebox_errors.ErrValidation) {
		t.Errorf("joining a direct conversation should be a validation error, got %v", err)
	}
	if _, err := svc.JoinGroup(context.Background(), joiner, uuid.New()); !errors.Is(err, ebox_errors.ErrNotFound) {
		t.Errorf("unknown group should be not found, got %v", err)
	}
}

func TestCreateGroupIsAtomicWithModeratorSeat(t *testing.T) {
	f := newFakes()
	f.members.failCreate = true
	svc := newGroupService(f, state.NewStore())
	creator := user.Identity{ID: uuid.New()}

	_, err := svc.CreateGroup(context.Background(), creator, CreateGroupInput{Name: "doomed"})
	if !errors.Is(err, ebox_errors.ErrPersistence) {
		t.Fatalf("failed moderator seat should surface as a persistence error, got %v", err)
	}
	if got, _ := f.conversations.GetUserConversations(context.Background(), creator.ID, 0); len(got) != 0 {
		t.Error("no group should exist without its moderator seat")
	}
	if f.members.count() != 0 {
		t.Errorf("expected 0 member rows, got %d", f.members.count())
	}
}
