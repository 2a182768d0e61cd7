package database

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"ebox-messaging/internal/domain/user"
	"ebox-messaging/internal/repository"
	ebox_errors "ebox-messaging/pkg/errors"
)

// SeedDev inserts a handful of profiles and role assignments for local
// development. Idempotent: existing rows are left alone.
func SeedDev(ctx context.Context, db *gorm.DB) error {
	users := repository.NewUserRepository(db)

	profiles := []struct {
		name   string
		mobile string
		role   user.Role
	}{
		{"Citizen One", "+32470000001", user.RoleUser},
		{"Citizen Two", "+32470000002", user.RoleUser},
		{"Org Admin", "+32470000010", user.RoleOrgAdmin},
		{"Comms Desk", "+32470000011", user.RoleCommModerator},
		{"Portal Admin", "+32470000099", user.RoleGlobalAdmin},
	}

	for _, p := range profiles {
		profile := user.Profile{
			ID:          uuid.New(),
			DisplayName: p.name,
			Mobile:      p.mobile,
			CreatedAt:   time.Now(),
			UpdatedAt:   time.Now(),
		}
		if err := users.Create(ctx, &profile); err != nil {
			if errors.Is(err, ebox_errors.ErrAlreadyExists) {
				continue
			}
			return err
		}
		if p.role != user.RoleUser {
			if err := users.AssignRole(ctx, profile.ID, p.role); err != nil {
				return err
			}
		}
	}
	return nil
}
