package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"ebox-messaging/internal/domain/conversation"
	"ebox-messaging/internal/events"
	ebox_errors "ebox-messaging/pkg/errors"
)

type PostgresMemberRepository struct {
	db   *gorm.DB
	feed events.Publisher
}

func NewMemberRepository(db *gorm.DB, feed events.Publisher) MemberRepository {
	return &PostgresMemberRepository{db: db, feed: feed}
}

func (r *PostgresMemberRepository) Create(ctx context.Context, m *conversation.Membership) error {
	res := r.db.WithContext(ctx).Create(m)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) || isUniqueViolation(res.Error) {
			return ebox_errors.ErrAlreadyExists
		}
		return res.Error
	}
	emitFeed(ctx, r.feed, events.OpInsert, events.TableMembers, m)
	return nil
}

func (r *PostgresMemberRepository) GetByID(ctx context.Context, id uuid.UUID) (conversation.Membership, error) {
	var m conversation.Membership
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return conversation.Membership{}, ebox_errors.ErrNotFound
		}
		return conversation.Membership{}, err
	}
	return m, nil
}

func (r *PostgresMemberRepository) GetMember(ctx context.Context, conversationID, userID uuid.UUID) (conversation.Membership, error) {
	var m conversation.Membership
	err := r.db.WithContext(ctx).
		Where("conversation_id = ? AND user_id = ?", conversationID, userID).
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return conversation.Membership{}, ebox_errors.ErrNotFound
		}
		return conversation.Membership{}, err
	}
	return m, nil
}

func (r *PostgresMemberRepository) Update(ctx context.Context, m conversation.Membership) error {
	res := r.db.WithContext(ctx).Save(&m)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ebox_errors.ErrNotFound
	}
	emitFeed(ctx, r.feed, events.OpUpdate, events.TableMembers, m)
	return nil
}

func (r *PostgresMemberRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&conversation.Membership{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ebox_errors.ErrNotFound
	}
	emitFeed(ctx, r.feed, events.OpDelete, events.TableMembers, conversation.Membership{ID: id})
	return nil
}

func (r *PostgresMemberRepository) ListByConversation(ctx context.Context, conversationID uuid.UUID) ([]conversation.Membership, error) {
	var members []conversation.Membership
	err := r.db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("created_at ASC").
		Find(&members).Error
	if err != nil {
		return nil, err
	}
	return members, nil
}

func (r *PostgresMemberRepository) CountAcceptedModerators(ctx context.Context, conversationID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&conversation.Membership{}).
		Where("conversation_id = ? AND role = ? AND status = ?",
			conversationID, conversation.RoleModerator, conversation.MemberAccepted).
		Count(&count).Error
	return count, err
}
