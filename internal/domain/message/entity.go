package message

import (
	"time"

	"github.com/google/uuid"
)

// Message represents the messages table plus the session-local fields
// (Status, Reactions) the conversation store tracks per message.
type Message struct {
	ID                uuid.UUID
	ConversationID    uuid.UUID
	SenderID          uuid.UUID
	Content           string
	Status            Status       `gorm:"-"`
	Reactions         Reactions    `gorm:"-"`
	IsEdited          bool         `gorm:"-"`
	IsForwarded       bool
	OriginalMessageID uuid.NullUUID
	Attachments       []Attachment `gorm:"serializer:json"`
	CreatedAt         time.Time
}

func (Message) TableName() string {
	return "messages"
}

// Attachment is a descriptor for a blob already uploaded to object
// storage; messages persist descriptors, never bytes.
type Attachment struct {
	ID          uuid.UUID `json:"id"`
	FileName    string    `json:"file_name"`
	ContentType string    `json:"content_type"`
	SizeBytes   int64     `json:"size_bytes"`
	StorageKey  string    `json:"storage_key"`
}
