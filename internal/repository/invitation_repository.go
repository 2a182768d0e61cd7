package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"ebox-messaging/internal/domain/invitation"
	"ebox-messaging/internal/events"
	ebox_errors "ebox-messaging/pkg/errors"
)

type PostgresInvitationRepository struct {
	db   *gorm.DB
	feed events.Publisher
}

func NewInvitationRepository(db *gorm.DB, feed events.Publisher) InvitationRepository {
	return &PostgresInvitationRepository{db: db, feed: feed}
}

func (r *PostgresInvitationRepository) Create(ctx context.Context, inv *invitation.Invitation) error {
	res := r.db.WithContext(ctx).Create(inv)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) || isUniqueViolation(res.Error) {
			return ebox_errors.ErrAlreadyExists
		}
		return res.Error
	}
	emitFeed(ctx, r.feed, events.OpInsert, events.TableInvitations, inv)
	return nil
}

func (r *PostgresInvitationRepository) GetByID(ctx context.Context, id uuid.UUID) (invitation.Invitation, error) {
	var inv invitation.Invitation
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&inv).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return invitation.Invitation{}, ebox_errors.ErrNotFound
		}
		return invitation.Invitation{}, err
	}
	return inv, nil
}

func (r *PostgresInvitationRepository) GetPendingBetween(ctx context.Context, senderID, receiverID uuid.UUID) (invitation.Invitation, error) {
	var inv invitation.Invitation
	err := r.db.WithContext(ctx).
		Where("status = ?", invitation.StatusPending).
		Where("(sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)",
			senderID, receiverID, receiverID, senderID).
		First(&inv).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return invitation.Invitation{}, ebox_errors.ErrNotFound
		}
		return invitation.Invitation{}, err
	}
	return inv, nil
}

func (r *PostgresInvitationRepository) Update(ctx context.Context, inv invitation.Invitation) error {
	res := r.db.WithContext(ctx).Save(&inv)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ebox_errors.ErrNotFound
	}
	emitFeed(ctx, r.feed, events.OpUpdate, events.TableInvitations, inv)
	return nil
}
