package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"ebox-messaging/internal/domain/broadcast"
	"ebox-messaging/internal/domain/conversation"
	"ebox-messaging/internal/domain/invitation"
	"ebox-messaging/internal/domain/message"
	"ebox-messaging/internal/domain/user"
	"ebox-messaging/internal/repository"
	ebox_errors "ebox-messaging/pkg/errors"
)

var errInjected = errors.New("injected store failure")

type fakes struct {
	conversations *fakeConversationRepo
	messages      *fakeMessageRepo
	invitations   *fakeInvitationRepo
	members       *fakeMemberRepo
	broadcasts    *fakeBroadcastRepo
	users         *fakeUserRepo
	policies      *fakePolicyRepo
}

func newFakes() *fakes {
	members := &fakeMemberRepo{rows: map[uuid.UUID]conversation.Membership{}}
	return &fakes{
		conversations: &fakeConversationRepo{convs: map[uuid.UUID]conversation.Conversation{}, members: members},
		messages:      &fakeMessageRepo{rows: map[uuid.UUID]message.Message{}},
		invitations:   &fakeInvitationRepo{rows: map[uuid.UUID]invitation.Invitation{}},
		members:       members,
		broadcasts:    &fakeBroadcastRepo{},
		users:         &fakeUserRepo{profiles: map[uuid.UUID]user.Profile{}, roles: map[uuid.UUID]user.Role{}},
		policies:      &fakePolicyRepo{denied: map[uuid.UUID]bool{}},
	}
}

type fakeConversationRepo struct {
	mu      sync.Mutex
	convs   map[uuid.UUID]conversation.Conversation
	members *fakeMemberRepo
}

func (r *fakeConversationRepo) Create(ctx context.Context, c *conversation.Conversation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.convs[c.ID]; ok {
		return ebox_errors.ErrAlreadyExists
	}
	r.convs[c.ID] = *c
	return nil
}

func (r *fakeConversationRepo) CreateWithMembers(ctx context.Context, c *conversation.Conversation, members []conversation.Membership) error {
	// Atomic like the real transaction: a member insert failure leaves
	// no conversation row behind either.
	if r.members.failCreate {
		return errInjected
	}
	if err := r.Create(ctx, c); err != nil {
		return err
	}
	for i := range members {
		if err := r.members.Create(ctx, &members[i]); err != nil {
			return err
		}
	}
	return nil
}

func (r *fakeConversationRepo) GetByID(ctx context.Context, id uuid.UUID) (conversation.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.convs[id]
	if !ok {
		return conversation.Conversation{}, ebox_errors.ErrNotFound
	}
	c.Members = r.members.byConversation(id)
	return c, nil
}

func (r *fakeConversationRepo) Update(ctx context.Context, c conversation.Conversation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.convs[c.ID]; !ok {
		return ebox_errors.ErrNotFound
	}
	r.convs[c.ID] = c
	return nil
}

func (r *fakeConversationRepo) Touch(ctx context.Context, id uuid.UUID, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.convs[id]
	if !ok {
		return ebox_errors.ErrNotFound
	}
	c.UpdatedAt = at
	r.convs[id] = c
	return nil
}

func (r *fakeConversationRepo) GetUserConversations(ctx context.Context, userID uuid.UUID, limit int) ([]conversation.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []conversation.Conversation
	for id, c := range r.convs {
		for _, m := range r.members.byConversation(id) {
			if m.UserID == userID {
				c.Members = r.members.byConversation(id)
				out = append(out, c)
				break
			}
		}
	}
	return out, nil
}

func (r *fakeConversationRepo) GetDirectConversation(ctx context.Context, userID1, userID2 uuid.UUID) (conversation.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, c := range r.convs {
		if c.Kind != conversation.KindDirect {
			continue
		}
		seen := map[uuid.UUID]bool{}
		for _, m := range r.members.byConversation(id) {
			if m.UserID == userID1 || m.UserID == userID2 {
				seen[m.UserID] = true
			}
		}
		if len(seen) == 2 {
			c.Members = r.members.byConversation(id)
			return c, nil
		}
	}
	return conversation.Conversation{}, ebox_errors.ErrNotFound
}

type fakeMessageRepo struct {
	mu         sync.Mutex
	rows       map[uuid.UUID]message.Message
	failCreate bool
}

func (r *fakeMessageRepo) Create(ctx context.Context, m *message.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failCreate {
		return errInjected
	}
	r.rows[m.ID] = *m
	return nil
}

func (r *fakeMessageRepo) GetByID(ctx context.Context, id uuid.UUID) (message.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.rows[id]
	if !ok {
		return message.Message{}, ebox_errors.ErrNotFound
	}
	return m, nil
}

func (r *fakeMessageRepo) Update(ctx context.Context, m message.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[m.ID]; !ok {
		return ebox_errors.ErrNotFound
	}
	r.rows[m.ID] = m
	return nil
}

func (r *fakeMessageRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[id]; !ok {
		return ebox_errors.ErrNotFound
	}
	delete(r.rows, id)
	return nil
}

func (r *fakeMessageRepo) GetConversationMessages(ctx context.Context, conversationID uuid.UUID, limit int) ([]message.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []message.Message
	for _, m := range r.rows {
		if m.ConversationID == conversationID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *fakeMessageRepo) GetLatestMessage(ctx context.Context, conversationID uuid.UUID) (message.Message, error) {
	msgs, _ := r.GetConversationMessages(ctx, conversationID, 0)
	if len(msgs) == 0 {
		return message.Message{}, ebox_errors.ErrNotFound
	}
	latest := msgs[0]
	for _, m := range msgs[1:] {
		if m.CreatedAt.After(latest.CreatedAt) {
			latest = m
		}
	}
	return latest, nil
}

func (r *fakeMessageRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.rows)
}

type fakeInvitationRepo struct {
	mu   sync.Mutex
	rows map[uuid.UUID]invitation.Invitation
}

func (r *fakeInvitationRepo) Create(ctx context.Context, inv *invitation.Invitation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows[inv.ID] = *inv
	return nil
}

func (r *fakeInvitationRepo) GetByID(ctx context.Context, id uuid.UUID) (invitation.Invitation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	inv, ok := r.rows[id]
	if !ok {
		return invitation.Invitation{}, ebox_errors.ErrNotFound
	}
	return inv, nil
}

func (r *fakeInvitationRepo) GetPendingBetween(ctx context.Context, senderID, receiverID uuid.UUID) (invitation.Invitation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, inv := range r.rows {
		if inv.Status != invitation.StatusPending {
			continue
		}
		if (inv.SenderID == senderID && inv.ReceiverID == receiverID) ||
			(inv.SenderID == receiverID && inv.ReceiverID == senderID) {
			return inv, nil
		}
	}
	return invitation.Invitation{}, ebox_errors.ErrNotFound
}

func (r *fakeInvitationRepo) Update(ctx context.Context, inv invitation.Invitation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[inv.ID]; !ok {
		return ebox_errors.ErrNotFound
	}
	r.rows[inv.ID] = inv
	return nil
}

func (r *fakeInvitationRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.rows)
}

type fakeMemberRepo struct {
	mu         sync.Mutex
	rows       map[uuid.UUID]conversation.Membership
	failCreate bool
}

func (r *fakeMemberRepo) Create(ctx context.Context, m *conversation.Membership) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failCreate {
		return errInjected
	}
	r.rows[m.ID] = *m
	return nil
}

func (r *fakeMemberRepo) GetByID(ctx context.Context, id uuid.UUID) (conversation.Membership, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.rows[id]
	if !ok {
		return conversation.Membership{}, ebox_errors.ErrNotFound
	}
	return m, nil
}

func (r *fakeMemberRepo) GetMember(ctx context.Context, conversationID, userID uuid.UUID) (conversation.Membership, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.rows {
		if m.ConversationID == conversationID && m.UserID == userID {
			return m, nil
		}
	}
	return conversation.Membership{}, ebox_errors.ErrNotFound
}

func (r *fakeMemberRepo) Update(ctx context.Context, m conversation.Membership) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[m.ID]; !ok {
		return ebox_errors.ErrNotFound
	}
	r.rows[m.ID] = m
	return nil
}

func (r *fakeMemberRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[id]; !ok {
		return ebox_errors.ErrNotFound
	}
	delete(r.rows, id)
	return nil
}

func (r *fakeMemberRepo) ListByConversation(ctx context.Context, conversationID uuid.UUID) ([]conversation.Membership, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.byConversation(conversationID), nil
}

func (r *fakeMemberRepo) CountAcceptedModerators(ctx context.Context, conversationID uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	for _, m := range r.rows {
		if m.ConversationID == conversationID && m.IsAcceptedModerator() {
			count++
		}
	}
	return count, nil
}

// byConversation takes no lock; external callers go through
// ListByConversation.
func (r *fakeMemberRepo) byConversation(conversationID uuid.UUID) []conversation.Membership {
	var out []conversation.Membership
	for _, m := range r.rows {
		if m.ConversationID == conversationID {
			out = append(out, m)
		}
	}
	return out
}

func (r *fakeMemberRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.rows)
}

type fakeBroadcastRepo struct {
	mu         sync.Mutex
	rows       []broadcast.Message
	failCreate bool
}

func (r *fakeBroadcastRepo) Create(ctx context.Context, b *broadcast.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failCreate {
		return errInjected
	}
	r.rows = append(r.rows, *b)
	return nil
}

func (r *fakeBroadcastRepo) ListByConversation(ctx context.Context, conversationID uuid.UUID) ([]broadcast.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []broadcast.Message
	for _, b := range r.rows {
		if b.ConversationID == conversationID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (r *fakeBroadcastRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.rows)
}

type fakeUserRepo struct {
	mu       sync.Mutex
	profiles map[uuid.UUID]user.Profile
	roles    map[uuid.UUID]user.Role
}

func (r *fakeUserRepo) Create(ctx context.Context, p *user.Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.profiles[p.ID] = *p
	return nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id uuid.UUID) (user.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.profiles[id]
	if !ok {
		return user.Profile{}, ebox_errors.ErrNotFound
	}
	return p, nil
}

func (r *fakeUserRepo) Search(ctx context.Context, term string, mode repository.SearchMode, excludeID uuid.UUID, limit int) ([]user.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	needle := strings.ToLower(term)
	var out []user.Profile
	for id, p := range r.profiles {
		if id == excludeID {
			continue
		}
		var haystack string
		switch mode {
		case repository.SearchByName:
			haystack = p.DisplayName
		case repository.SearchByMobile:
			haystack = p.Mobile
		case repository.SearchByID:
			haystack = id.String()
		default:
			return nil, ebox_errors.Validationf("unknown search mode %q", mode)
		}
		if strings.Contains(strings.ToLower(haystack), needle) {
			out = append(out, p)
		}
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (r *fakeUserRepo) GetRole(ctx context.Context, userID uuid.UUID) (user.Role, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if role, ok := r.roles[userID]; ok {
		return role, nil
	}
	return user.RoleUser, nil
}

func (r *fakeUserRepo) AssignRole(ctx context.Context, userID uuid.UUID, role user.Role) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.roles[userID] = role
	return nil
}

type fakePolicyRepo struct {
	mu     sync.Mutex
	denied map[uuid.UUID]bool
	fail   bool
}

func (r *fakePolicyRepo) CanForward(ctx context.Context, messageID uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail {
		return false, errInjected
	}
	return !r.denied[messageID], nil
}
