package httpdto

import (
	"time"

	"ebox-messaging/internal/domain/conversation"
)

type MembershipResponse struct {
	ID             string     `json:"id"`
	ConversationID string     `json:"conversation_id"`
	UserID         string     `json:"user_id"`
	Role           string     `json:"role"`
	Status         string     `json:"status"`
	InvitedBy      string     `json:"invited_by,omitempty"`
	JoinDate       *time.Time `json:"join_date,omitempty"`
}

func FromMembership(m conversation.Membership) MembershipResponse {
	resp := MembershipResponse{
		ID:             m.ID.String(),
		ConversationID: m.ConversationID.String(),
		UserID:         m.UserID.String(),
		Role:           string(m.Role),
		Status:         string(m.Status),
	}
	if m.InvitedBy.Valid {
		resp.InvitedBy = m.InvitedBy.UUID.String()
	}
	if m.JoinDate.Valid {
		t := m.JoinDate.Time
		resp.JoinDate = &t
	}
	return resp
}

type ConversationResponse struct {
	ID             string               `json:"id"`
	Kind           string               `json:"kind"`
	Name           string               `json:"name,omitempty"`
	Description    string               `json:"description,omitempty"`
	IsPublic       bool                 `json:"is_public"`
	OrganizationID string               `json:"organization_id,omitempty"`
	CreatedBy      string               `json:"created_by"`
	CreatedAt      time.Time            `json:"created_at"`
	UpdatedAt      time.Time            `json:"updated_at"`
	Members        []MembershipResponse `json:"members,omitempty"`
	LastMessage    *MessageResponse     `json:"last_message,omitempty"`
}

func FromConversation(c conversation.Conversation) ConversationResponse {
	resp := ConversationResponse{
		ID:          c.ID.String(),
		Kind:        string(c.Kind),
		Name:        c.Name,
		Description: c.Description,
		IsPublic:    c.IsPublic,
		CreatedBy:   c.CreatedBy.String(),
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
	if c.OrganizationID.Valid {
		resp.OrganizationID = c.OrganizationID.UUID.String()
	}
	for _, m := range c.Members {
		resp.Members = append(resp.Members, FromMembership(m))
	}
	return resp
}

type ListConversationsResponse struct {
	Conversations []ConversationResponse `json:"conversations"`
}
