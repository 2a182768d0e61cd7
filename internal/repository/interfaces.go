package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"ebox-messaging/internal/domain/broadcast"
	"ebox-messaging/internal/domain/conversation"
	"ebox-messaging/internal/domain/invitation"
	"ebox-messaging/internal/domain/message"
	"ebox-messaging/internal/domain/user"
)

// SearchMode selects which profile field SearchUsers matches against.
type SearchMode string

const (
	SearchByName   SearchMode = "name"
	SearchByMobile SearchMode = "mobile"
	SearchByID     SearchMode = "id"
)

type ConversationRepository interface {
	Create(ctx context.Context, c *conversation.Conversation) error
	// CreateWithMembers inserts the conversation and its member rows in
	// one transaction; a conversation never becomes visible with a
	// partial member list.
	CreateWithMembers(ctx context.Context, c *conversation.Conversation, members []conversation.Membership) error
	GetByID(ctx context.Context, id uuid.UUID) (conversation.Conversation, error)
	Update(ctx context.Context, c conversation.Conversation) error
	Touch(ctx context.Context, id uuid.UUID, at time.Time) error

	GetUserConversations(ctx context.Context, userID uuid.UUID, limit int) ([]conversation.Conversation, error)
	GetDirectConversation(ctx context.Context, userID1, userID2 uuid.UUID) (conversation.Conversation, error)
}

type MessageRepository interface {
	Create(ctx context.Context, m *message.Message) error
	GetByID(ctx context.Context, id uuid.UUID) (message.Message, error)
	Update(ctx context.Context, m message.Message) error
	Delete(ctx context.Context, id uuid.UUID) error

	GetConversationMessages(ctx context.Context, conversationID uuid.UUID, limit int) ([]message.Message, error)
	GetLatestMessage(ctx context.Context, conversationID uuid.UUID) (message.Message, error)
}

type InvitationRepository interface {
	Create(ctx context.Context, inv *invitation.Invitation) error
	GetByID(ctx context.Context, id uuid.UUID) (invitation.Invitation, error)
	GetPendingBetween(ctx context.Context, senderID, receiverID uuid.UUID) (invitation.Invitation, error)
	Update(ctx context.Context, inv invitation.Invitation) error
}

type MemberRepository interface {
	Create(ctx context.Context, m *conversation.Membership) error
	GetByID(ctx context.Context, id uuid.UUID) (conversation.Membership, error)
	GetMember(ctx context.Context, conversationID, userID uuid.UUID) (conversation.Membership, error)
	Update(ctx context.Context, m conversation.Membership) error
	Delete(ctx context.Context, id uuid.UUID) error

	ListByConversation(ctx context.Context, conversationID uuid.UUID) ([]conversation.Membership, error)
	CountAcceptedModerators(ctx context.Context, conversationID uuid.UUID) (int64, error)
}

type BroadcastRepository interface {
	Create(ctx context.Context, b *broadcast.Message) error
	ListByConversation(ctx context.Context, conversationID uuid.UUID) ([]broadcast.Message, error)
}

type UserRepository interface {
	Create(ctx context.Context, p *user.Profile) error
	GetByID(ctx context.Context, id uuid.UUID) (user.Profile, error)
	Search(ctx context.Context, term string, mode SearchMode, excludeID uuid.UUID, limit int) ([]user.Profile, error)

	GetRole(ctx context.Context, userID uuid.UUID) (user.Role, error)
	AssignRole(ctx context.Context, userID uuid.UUID, role user.Role) error
}

// PolicyRepository evaluates the organization's forward policy. The
// rule itself is data owned by the portal administration, not logic
// reimplemented here.
type PolicyRepository interface {
	CanForward(ctx context.Context, messageID uuid.UUID) (bool, error)
}
