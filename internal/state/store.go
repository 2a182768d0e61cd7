// Package state holds the in-memory view of conversations for the
// current session. It is the single source of truth for UI callers and
// is written from two sides: optimistic local mutations made by the
// services, and remote change-feed events folded in by the reconciler.
//
// Everything is keyed by id and merged in place. A remote conversation
// update can therefore never discard a locally pending message, and a
// message row is only ever advanced through its delivery state machine,
// never reset by a stale event.
package state

import (
	"sort"
	"sync"

	"github.com/google/uuid"

	"ebox-messaging/internal/domain/conversation"
	"ebox-messaging/internal/domain/invitation"
	"ebox-messaging/internal/domain/message"
	ebox_errors "ebox-messaging/pkg/errors"
)

type entry struct {
	conv     conversation.Conversation
	messages map[uuid.UUID]*message.Message
	order    []uuid.UUID
}

type Store struct {
	mu            sync.RWMutex
	conversations map[uuid.UUID]*entry
	msgIndex      map[uuid.UUID]uuid.UUID
	invitations   map[uuid.UUID]invitation.Invitation
}

func NewStore() *Store {
	return &Store{
		conversations: make(map[uuid.UUID]*entry),
		msgIndex:      make(map[uuid.UUID]uuid.UUID),
		invitations:   make(map[uuid.UUID]invitation.Invitation),
	}
}

func (s *Store) entryFor(conversationID uuid.UUID) *entry {
	e, ok := s.conversations[conversationID]
	if !ok {
		// Skeleton entry: a message or membership event can arrive
		// before the conversation row it belongs to.
		e = &entry{
			conv:     conversation.Conversation{ID: conversationID},
			messages: make(map[uuid.UUID]*message.Message),
		}
		s.conversations[conversationID] = e
	}
	return e
}

// UpsertConversation merges conversation metadata into the store.
// Message state is untouched; a nil Members slice on the incoming
// record keeps the known membership.
func (s *Store) UpsertConversation(c conversation.Conversation) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := s.entryFor(c.ID)
	if c.Members == nil {
		c.Members = e.conv.Members
	}
	e.conv = c
}

func (s *Store) Conversation(id uuid.UUID) (conversation.Conversation, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.conversations[id]
	if !ok {
		return conversation.Conversation{}, false
	}
	return e.conv, true
}

// Conversations returns all known conversations, most recently updated
// first.
func (s *Store) Conversations() []conversation.Conversation {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]conversation.Conversation, 0, len(s.conversations))
	for _, e := range s.conversations {
		out = append(out, e.conv)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out
}

// UpsertMessage inserts the message at the tail of its conversation or
// merges it into the existing row. On merge the delivery status only
// moves through legal transitions; a stale or conflicting status on the
// incoming record is ignored. Locally tracked reactions, edits and
// forward provenance survive a merge with a record that lacks them.
func (s *Store) UpsertMessage(m message.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := s.entryFor(m.ConversationID)
	existing, ok := e.messages[m.ID]
	if !ok {
		cp := m
		e.messages[m.ID] = &cp
		e.order = append(e.order, m.ID)
		s.msgIndex[m.ID] = m.ConversationID
		return
	}

	if m.Status == existing.Status || existing.Status.CanTransitionTo(m.Status) {
		existing.Status = m.Status
	}
	if m.Reactions != nil {
		existing.Reactions = m.Reactions
	}
	// A local edit wins over a stale remote copy of the pre-edit row.
	if m.IsEdited || !existing.IsEdited {
		existing.Content = m.Content
		existing.IsEdited = existing.IsEdited || m.IsEdited
	}
	existing.IsForwarded = existing.IsForwarded || m.IsForwarded
	if m.OriginalMessageID.Valid {
		existing.OriginalMessageID = m.OriginalMessageID
	}
	if m.Attachments != nil {
		existing.Attachments = m.Attachments
	}
	if !m.CreatedAt.IsZero() {
		existing.CreatedAt = m.CreatedAt
	}
}

// SetMessageStatus advances a message through the delivery state
// machine. Illegal transitions return ErrInvalidTransition and leave
// the message untouched.
func (s *Store) SetMessageStatus(messageID uuid.UUID, status message.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.lookup(messageID)
	if !ok {
		return ebox_errors.ErrNotFound
	}
	if !m.Status.CanTransitionTo(status) {
		return ebox_errors.ErrInvalidTransition
	}
	m.Status = status
	return nil
}

// EditMessage replaces the content and marks the message edited. The
// mutation is session-local.
func (s *Store) EditMessage(messageID uuid.UUID, content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.lookup(messageID)
	if !ok {
		return ebox_errors.ErrNotFound
	}
	m.Content = content
	m.IsEdited = true
	return nil
}

// ToggleReaction flips userID's reaction with emoji on the message.
func (s *Store) ToggleReaction(messageID uuid.UUID, userID uuid.UUID, emoji string) (message.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.lookup(messageID)
	if !ok {
		return message.Message{}, ebox_errors.ErrNotFound
	}
	m.Reactions = m.Reactions.Toggle(emoji, userID)
	return s.copyMessage(m), nil
}

// RemoveMessage deletes the message from its conversation. The
// conversation's last message becomes the new tail.
func (s *Store) RemoveMessage(messageID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	convID, ok := s.msgIndex[messageID]
	if !ok {
		return
	}
	e := s.conversations[convID]
	delete(e.messages, messageID)
	delete(s.msgIndex, messageID)
	for i, id := range e.order {
		if id == messageID {
			e.order = append(e.order[:i], e.order[i+1:]...)
			break
		}
	}
}

func (s *Store) Message(messageID uuid.UUID) (message.Message, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.lookup(messageID)
	if !ok {
		return message.Message{}, false
	}
	return s.copyMessage(m), true
}

// Messages returns the ordered message list of a conversation.
func (s *Store) Messages(conversationID uuid.UUID) []message.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.conversations[conversationID]
	if !ok {
		return nil
	}
	out := make([]message.Message, 0, len(e.order))
	for _, id := range e.order {
		out = append(out, s.copyMessage(e.messages[id]))
	}
	return out
}

// LastMessage returns the tail of the conversation's message list. The
// second return is false when the conversation has no messages.
func (s *Store) LastMessage(conversationID uuid.UUID) (message.Message, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.conversations[conversationID]
	if !ok || len(e.order) == 0 {
		return message.Message{}, false
	}
	return s.copyMessage(e.messages[e.order[len(e.order)-1]]), true
}

// UpsertMembership merges a membership row into its conversation's
// member list, keyed by membership id.
func (s *Store) UpsertMembership(m conversation.Membership) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := s.entryFor(m.ConversationID)
	for i, existing := range e.conv.Members {
		if existing.ID == m.ID {
			e.conv.Members[i] = m
			return
		}
	}
	e.conv.Members = append(e.conv.Members, m)
}

// RemoveMembership drops a membership row wherever it lives. Delete
// envelopes carry only the row id, so this scans.
func (s *Store) RemoveMembership(membershipID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range s.conversations {
		for i, m := range e.conv.Members {
			if m.ID == membershipID {
				e.conv.Members = append(e.conv.Members[:i], e.conv.Members[i+1:]...)
				return
			}
		}
	}
}

func (s *Store) UpsertInvitation(inv invitation.Invitation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.invitations[inv.ID] = inv
}

func (s *Store) Invitation(id uuid.UUID) (invitation.Invitation, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	inv, ok := s.invitations[id]
	return inv, ok
}

func (s *Store) RemoveInvitation(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.invitations, id)
}

func (s *Store) lookup(messageID uuid.UUID) (*message.Message, bool) {
	convID, ok := s.msgIndex[messageID]
	if !ok {
		return nil, false
	}
	m, ok := s.conversations[convID].messages[messageID]
	return m, ok
}

func (s *Store) copyMessage(m *message.Message) message.Message {
	cp := *m
	cp.Reactions = m.Reactions.Clone()
	cp.Attachments = append([]message.Attachment(nil), m.Attachments...)
	return cp
}
