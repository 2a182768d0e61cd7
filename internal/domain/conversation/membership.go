package conversation

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// MemberRole is the closed set of group roles.
type MemberRole string

const (
	RoleModerator MemberRole = "moderator"
	RoleMember    MemberRole = "member"
)

// MemberStatus is the closed set of membership states. There is no
// failed or declined state: a rejected join request is deleted.
type MemberStatus string

const (
	MemberPending  MemberStatus = "pending"
	MemberAccepted MemberStatus = "accepted"
)

// Membership represents the conversation_members table. Direct
// conversations carry two accepted member rows; group semantics
// (invitations, join requests, moderation) live entirely in this table.
//
// InvitedBy distinguishes a moderator invitation from an unsolicited
// join request: invitations have it set, join requests do not.
// JoinDate is set only on the transition to accepted.
type Membership struct {
	ID             uuid.UUID
	ConversationID uuid.UUID
	UserID         uuid.UUID
	Role           MemberRole
	Status         MemberStatus
	InvitedBy      uuid.NullUUID
	JoinDate       sql.NullTime
	CreatedAt      time.Time
}

func (Membership) TableName() string {
	return "conversation_members"
}

// IsAcceptedModerator reports whether this row grants moderation rights.
func (m Membership) IsAcceptedModerator() bool {
	return m.Role == RoleModerator && m.Status == MemberAccepted
}
