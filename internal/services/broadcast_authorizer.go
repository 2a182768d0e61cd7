package services

import (
	"ebox-messaging/internal/domain/user"
	ebox_errors "ebox-messaging/pkg/errors"
)

// BroadcastAuthorizer gates broadcast sends by role claim. The check is
// synchronous and runs before any broadcast row is written.
type BroadcastAuthorizer struct{}

func NewBroadcastAuthorizer() *BroadcastAuthorizer {
	return &BroadcastAuthorizer{}
}

func (a *BroadcastAuthorizer) Authorize(role user.Role) error {
	switch role {
	case user.RoleGlobalAdmin, user.RoleOrgAdmin, user.RoleCommModerator:
		return nil
	}
	return ebox_errors.Permissionf("role %q may not send broadcasts", role)
}
