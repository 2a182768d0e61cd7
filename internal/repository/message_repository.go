package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"ebox-messaging/internal/domain/message"
	"ebox-messaging/internal/events"
	ebox_errors "ebox-messaging/pkg/errors"
)

type PostgresMessageRepository struct {
	db   *gorm.DB
	feed events.Publisher
}

func NewMessageRepository(db *gorm.DB, feed events.Publisher) MessageRepository {
	return &PostgresMessageRepository{db: db, feed: feed}
}

func (r *PostgresMessageRepository) Create(ctx context.Context, m *message.Message) error {
	res := r.db.WithContext(ctx).Create(m)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) || isUniqueViolation(res.Error) {
			return ebox_errors.ErrAlreadyExists
		}
		return res.Error
	}
	emitFeed(ctx, r.feed, events.OpInsert, events.TableMessages, feedRecord(*m))
	return nil
}

// feedRecord strips the session-local fields before a message row goes
// on the change feed. The sender's delivery status, reactions and edit
// marker mean nothing to other sessions; each derives its own.
func feedRecord(m message.Message) message.Message {
	m.Status = ""
	m.Reactions = nil
	m.IsEdited = false
	return m
}

func (r *PostgresMessageRepository) GetByID(ctx context.Context, id uuid.UUID) (message.Message, error) {
	var m message.Message
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return message.Message{}, ebox_errors.ErrNotFound
		}
		return message.Message{}, err
	}
	return m, nil
}

func (r *PostgresMessageRepository) Update(ctx context.Context, m message.Message) error {
	res := r.db.WithContext(ctx).Save(&m)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ebox_errors.ErrNotFound
	}
	emitFeed(ctx, r.feed, events.OpUpdate, events.TableMessages, feedRecord(m))
	return nil
}

func (r *PostgresMessageRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&message.Message{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ebox_errors.ErrNotFound
	}
	emitFeed(ctx, r.feed, events.OpDelete, events.TableMessages, message.Message{ID: id})
	return nil
}

func (r *PostgresMessageRepository) GetConversationMessages(ctx context.Context, conversationID uuid.UUID, limit int) ([]message.Message, error) {
	if limit <= 0 {
		limit = 100
	}
	var msgs []message.Message
	err := r.db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("created_at ASC").
		Limit(limit).
		Find(&msgs).Error
	if err != nil {
		return nil, err
	}
	return msgs, nil
}

func (r *PostgresMessageRepository) GetLatestMessage(ctx context.Context, conversationID uuid.UUID) (message.Message, error) {
	var m message.Message
	err := r.db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("created_at DESC").
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return message.Message{}, ebox_errors.ErrNotFound
		}
		return message.Message{}, err
	}
	return m, nil
}
