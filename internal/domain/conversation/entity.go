package conversation

import (
	"time"

	"github.com/google/uuid"
)

// Kind is the closed set of conversation kinds.
type Kind string

const (
	KindDirect    Kind = "direct"
	KindGroup     Kind = "group"
	KindBroadcast Kind = "broadcast"
)

func (k Kind) Valid() bool {
	switch k {
	case KindDirect, KindGroup, KindBroadcast:
		return true
	}
	return false
}

// Conversation represents the conversations table. Direct conversations
// are unique per unordered pair of members; conversations are never
// deleted, only left.
type Conversation struct {
	ID             uuid.UUID
	Kind           Kind
	Name           string
	Description    string
	IsPublic       bool
	OrganizationID uuid.NullUUID
	CreatedBy      uuid.UUID
	CreatedAt      time.Time
	UpdatedAt      time.Time

	// Relationships
	Members []Membership `gorm:"foreignKey:ConversationID"`
}

func (Conversation) TableName() string {
	return "conversations"
}

// ParticipantIDs returns the user ids of all members regardless of
// membership status.
func (c Conversation) ParticipantIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(c.Members))
	for _, m := range c.Members {
		ids = append(ids, m.UserID)
	}
	return ids
}

// HasParticipant reports whether userID has a membership row of any status.
func (c Conversation) HasParticipant(userID uuid.UUID) bool {
	for _, m := range c.Members {
		if m.UserID == userID {
			return true
		}
	}
	return false
}
