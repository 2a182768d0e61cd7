package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"ebox-messaging/internal/domain/conversation"
	"ebox-messaging/internal/events"
	ebox_errors "ebox-messaging/pkg/errors"
)

type PostgresConversationRepository struct {
	db   *gorm.DB
	feed events.Publisher
}

func NewConversationRepository(db *gorm.DB, feed events.Publisher) ConversationRepository {
	return &PostgresConversationRepository{db: db, feed: feed}
}

func (r *PostgresConversationRepository) Create(ctx context.Context, c *conversation.Conversation) error {
	res := r.db.WithContext(ctx).Create(c)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) || isUniqueViolation(res.Error) {
			return ebox_errors.ErrAlreadyExists
		}
		return res.Error
	}
	emitFeed(ctx, r.feed, events.OpInsert, events.TableConversations, c)
	return nil
}

func (r *PostgresConversationRepository) CreateWithMembers(ctx context.Context, c *conversation.Conversation, members []conversation.Membership) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(c).Error; err != nil {
			return err
		}
		for i := range members {
			if err := tx.Create(&members[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) || isUniqueViolation(err) {
			return ebox_errors.ErrAlreadyExists
		}
		return err
	}
	emitFeed(ctx, r.feed, events.OpInsert, events.TableConversations, c)
	for i := range members {
		emitFeed(ctx, r.feed, events.OpInsert, events.TableMembers, members[i])
	}
	return nil
}

func (r *PostgresConversationRepository) GetByID(ctx context.Context, id uuid.UUID) (conversation.Conversation, error) {
	var c conversation.Conversation
	err := r.db.WithContext(ctx).
		Preload("Members").
		Where("id = ?", id).
		First(&c).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return conversation.Conversation{}, ebox_errors.ErrNotFound
		}
		return conversation.Conversation{}, err
	}
	return c, nil
}

func (r *PostgresConversationRepository) Update(ctx context.Context, c conversation.Conversation) error {
	res := r.db.WithContext(ctx).Omit("Members").Save(&c)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ebox_errors.ErrNotFound
	}
	emitFeed(ctx, r.feed, events.OpUpdate, events.TableConversations, c)
	return nil
}

func (r *PostgresConversationRepository) Touch(ctx context.Context, id uuid.UUID, at time.Time) error {
	res := r.db.WithContext(ctx).
		Model(&conversation.Conversation{}).
		Where("id = ?", id).
		Update("updated_at", at)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ebox_errors.ErrNotFound
	}
	return nil
}

func (r *PostgresConversationRepository) GetUserConversations(ctx context.Context, userID uuid.UUID, limit int) ([]conversation.Conversation, error) {
	if limit <= 0 {
		limit = 50
	}

	subQuery := r.db.Model(&conversation.Membership{}).
		Select("conversation_id").
		Where("user_id = ?", userID)

	var conversations []conversation.Conversation
	err := r.db.WithContext(ctx).
		Preload("Members").
		Where("id IN (?)", subQuery).
		Order("updated_at DESC").
		Limit(limit).
		Find(&conversations).Error
	if err != nil {
		return nil, err
	}
	return conversations, nil
}

func (r *PostgresConversationRepository) GetDirectConversation(ctx context.Context, userID1, userID2 uuid.UUID) (conversation.Conversation, error) {
	// Unordered-pair match: a direct conversation where both users hold
	// a member row.
	subQuery := r.db.Model(&conversation.Membership{}).
		Select("conversation_id").
		Where("user_id IN (?, ?)", userID1, userID2).
		Group("conversation_id").
		Having("COUNT(DISTINCT user_id) = 2")

	var c conversation.Conversation
	err := r.db.WithContext(ctx).
		Preload("Members").
		Where("id IN (?) AND kind = ?", subQuery, conversation.KindDirect).
		First(&c).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return conversation.Conversation{}, ebox_errors.ErrNotFound
		}
		return conversation.Conversation{}, err
	}
	return c, nil
}
