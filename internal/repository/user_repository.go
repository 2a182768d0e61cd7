package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"ebox-messaging/internal/domain/user"
	ebox_errors "ebox-messaging/pkg/errors"
)

type PostgresUserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &PostgresUserRepository{db: db}
}

func (r *PostgresUserRepository) Create(ctx context.Context, p *user.Profile) error {
	res := r.db.WithContext(ctx).Create(p)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) || isUniqueViolation(res.Error) {
			return ebox_errors.ErrAlreadyExists
		}
		return res.Error
	}
	return nil
}

func (r *PostgresUserRepository) GetByID(ctx context.Context, id uuid.UUID) (user.Profile, error) {
	var p user.Profile
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return user.Profile{}, ebox_errors.ErrNotFound
		}
		return user.Profile{}, err
	}
	return p, nil
}

func (r *PostgresUserRepository) Search(ctx context.Context, term string, mode SearchMode, excludeID uuid.UUID, limit int) ([]user.Profile, error) {
	if limit <= 0 {
		limit = 20
	}

	q := r.db.WithContext(ctx).
		Model(&user.Profile{}).
		Where("id <> ?", excludeID).
		Limit(limit)

	pattern := "%" + term + "%"
	switch mode {
	case SearchByName:
		q = q.Where("display_name ILIKE ?", pattern)
	case SearchByMobile:
		q = q.Where("mobile ILIKE ?", pattern)
	case SearchByID:
		q = q.Where("CAST(id AS TEXT) ILIKE ?", pattern)
	default:
		return nil, ebox_errors.Validationf("unknown search mode %q", mode)
	}

	var profiles []user.Profile
	if err := q.Find(&profiles).Error; err != nil {
		return nil, err
	}
	return profiles, nil
}

func (r *PostgresUserRepository) GetRole(ctx context.Context, userID uuid.UUID) (user.Role, error) {
	var assignment user.RoleAssignment
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&assignment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// No assignment means the base role, not an error.
			return user.RoleUser, nil
		}
		return "", err
	}
	return assignment.Role, nil
}

func (r *PostgresUserRepository) AssignRole(ctx context.Context, userID uuid.UUID, role user.Role) error {
	if !role.Valid() {
		return ebox_errors.Validationf("unknown role %q", role)
	}
	assignment := user.RoleAssignment{UserID: userID, Role: role, GrantedAt: time.Now()}
	return r.db.WithContext(ctx).Save(&assignment).Error
}
