package user

import (
	"time"

	"github.com/google/uuid"
)

// Role is the closed set of role claims the identity provider issues.
type Role string

const (
	RoleUser          Role = "user"
	RoleGlobalAdmin   Role = "global_admin"
	RoleOrgAdmin      Role = "org_admin"
	RoleCommModerator Role = "comm_moderator"
)

func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleGlobalAdmin, RoleOrgAdmin, RoleCommModerator:
		return true
	}
	return false
}

// Identity is the authenticated caller, passed explicitly into every
// service operation rather than looked up from ambient state.
type Identity struct {
	ID   uuid.UUID
	Role Role
}

// Profile represents the user_profiles table. Authentication data lives
// with the identity provider; this is only what the portal searches on.
type Profile struct {
	ID          uuid.UUID
	DisplayName string
	Mobile      string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// RoleAssignment represents the user_roles table.
type RoleAssignment struct {
	UserID    uuid.UUID
	Role      Role
	GrantedAt time.Time
}

func (Profile) TableName() string {
	return "user_profiles"
}

func (RoleAssignment) TableName() string {
	return "user_roles"
}
