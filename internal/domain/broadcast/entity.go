package broadcast

import (
	"time"

	"github.com/google/uuid"
)

// Message represents the broadcast_messages table: an announcement
// addressed to an organization or globally, gated by elevated role.
type Message struct {
	ID             uuid.UUID
	ConversationID uuid.UUID
	SenderID       uuid.UUID
	Content        string
	OrganizationID uuid.NullUUID
	CreatedAt      time.Time
}

func (Message) TableName() string {
	return "broadcast_messages"
}
