package invitation

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// Status is the invitation lifecycle. Accepted and declined are
// terminal; a terminal invitation never changes again.
type Status string

const (
	StatusPending  Status = "pending"
	StatusAccepted Status = "accepted"
	StatusDeclined Status = "declined"
)

func (s Status) Terminal() bool {
	return s == StatusAccepted || s == StatusDeclined
}

// Invitation represents the conversation_invitations table: the
// handshake that creates a direct conversation only upon acceptance.
type Invitation struct {
	ID             uuid.UUID
	SenderID       uuid.UUID
	ReceiverID     uuid.UUID
	InitialMessage string
	Status         Status
	CreatedAt      time.Time
	RespondedAt    sql.NullTime
}

func (Invitation) TableName() string {
	return "conversation_invitations"
}
