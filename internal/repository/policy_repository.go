package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ForwardPolicy represents the forward_policies table. Rows are written
// by the portal administration; absence of a row means forwarding is
// allowed.
type ForwardPolicy struct {
	MessageID uuid.UUID
	Allowed   bool
	CreatedAt time.Time
}

func (ForwardPolicy) TableName() string {
	return "forward_policies"
}

type PostgresPolicyRepository struct {
	db *gorm.DB
}

func NewPolicyRepository(db *gorm.DB) PolicyRepository {
	return &PostgresPolicyRepository{db: db}
}

func (r *PostgresPolicyRepository) CanForward(ctx context.Context, messageID uuid.UUID) (bool, error) {
	var policy ForwardPolicy
	err := r.db.WithContext(ctx).Where("message_id = ?", messageID).First(&policy).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return true, nil
		}
		return false, err
	}
	return policy.Allowed, nil
}
