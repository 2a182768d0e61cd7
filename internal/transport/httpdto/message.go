package httpdto

import (
	"time"

	"ebox-messaging/internal/domain/message"
)

type AttachmentDTO struct {
	ID          string `json:"id"`
	FileName    string `json:"file_name"`
	ContentType string `json:"content_type"`
	SizeBytes   int64  `json:"size_bytes"`
	StorageKey  string `json:"storage_key"`
}

type SendMessageRequest struct {
	ConversationID string          `json:"conversation_id" binding:"required"`
	Content        string          `json:"content"`
	Attachments    []AttachmentDTO `json:"attachments"`
}

type EditMessageRequest struct {
	Content string `json:"content" binding:"required"`
}

type ToggleReactionRequest struct {
	Emoji string `json:"emoji" binding:"required"`
}

type ForwardMessageRequest struct {
	TargetConversationID string `json:"target_conversation_id" binding:"required"`
}

type MessageResponse struct {
	ID                string              `json:"id"`
	ConversationID    string              `json:"conversation_id"`
	SenderID          string              `json:"sender_id"`
	Content           string              `json:"content"`
	Status            string              `json:"status"`
	Reactions         map[string][]string `json:"reactions,omitempty"`
	IsEdited          bool                `json:"is_edited"`
	IsForwarded       bool                `json:"is_forwarded"`
	OriginalMessageID string              `json:"original_message_id,omitempty"`
	Attachments       []AttachmentDTO     `json:"attachments,omitempty"`
	CreatedAt         time.Time           `json:"created_at"`
}

func FromMessage(m message.Message) MessageResponse {
	resp := MessageResponse{
		ID:             m.ID.String(),
		ConversationID: m.ConversationID.String(),
		SenderID:       m.SenderID.String(),
		Content:        m.Content,
		Status:         string(m.Status),
		IsEdited:       m.IsEdited,
		IsForwarded:    m.IsForwarded,
		CreatedAt:      m.CreatedAt,
	}
	if m.OriginalMessageID.Valid {
		resp.OriginalMessageID = m.OriginalMessageID.UUID.String()
	}
	if len(m.Reactions) > 0 {
		resp.Reactions = make(map[string][]string, len(m.Reactions))
		for emoji, users := range m.Reactions {
			ids := make([]string, 0, len(users))
			for _, id := range users {
				ids = append(ids, id.String())
			}
			resp.Reactions[emoji] = ids
		}
	}
	for _, a := range m.Attachments {
		resp.Attachments = append(resp.Attachments, AttachmentDTO{
			ID:          a.ID.String(),
			FileName:    a.FileName,
			ContentType: a.ContentType,
			SizeBytes:   a.SizeBytes,
			StorageKey:  a.StorageKey,
		})
	}
	return resp
}

func FromMessageSlice(msgs []message.Message) []MessageResponse {
	out := make([]MessageResponse, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, FromMessage(m))
	}
	return out
}
