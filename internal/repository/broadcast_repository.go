package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"ebox-messaging/internal/domain/broadcast"
	"ebox-messaging/internal/events"
)

type PostgresBroadcastRepository struct {
	db   *gorm.DB
	feed events.Publisher
}

func NewBroadcastRepository(db *gorm.DB, feed events.Publisher) BroadcastRepository {
	return &PostgresBroadcastRepository{db: db, feed: feed}
}

func (r *PostgresBroadcastRepository) Create(ctx context.Context, b *broadcast.Message) error {
	if err := r.db.WithContext(ctx).Create(b).Error; err != nil {
		return err
	}
	emitFeed(ctx, r.feed, events.OpInsert, events.TableBroadcasts, b)
	return nil
}

func (r *PostgresBroadcastRepository) ListByConversation(ctx context.Context, conversationID uuid.UUID) ([]broadcast.Message, error) {
	var msgs []broadcast.Message
	err := r.db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("created_at ASC").
		Find(&msgs).Error
	if err != nil {
		return nil, err
	}
	return msgs, nil
}
