package httpdto

import (
	"time"

	"ebox-messaging/internal/domain/invitation"
	"ebox-messaging/internal/domain/user"
)

type SendInvitationRequest struct {
	TargetUserID   string `json:"target_user_id" binding:"required"`
	InitialMessage string `json:"initial_message"`
}

type RespondInvitationRequest struct {
	Accept bool `json:"accept"`
}

type InvitationResponse struct {
	ID             string     `json:"id"`
	SenderID       string     `json:"sender_id"`
	ReceiverID     string     `json:"receiver_id"`
	InitialMessage string     `json:"initial_message,omitempty"`
	Status         string     `json:"status"`
	CreatedAt      time.Time  `json:"created_at"`
	RespondedAt    *time.Time `json:"responded_at,omitempty"`
}

func FromInvitation(inv invitation.Invitation) InvitationResponse {
	resp := InvitationResponse{
		ID:             inv.ID.String(),
		SenderID:       inv.SenderID.String(),
		ReceiverID:     inv.ReceiverID.String(),
		InitialMessage: inv.InitialMessage,
		Status:         string(inv.Status),
		CreatedAt:      inv.CreatedAt,
	}
	if inv.RespondedAt.Valid {
		t := inv.RespondedAt.Time
		resp.RespondedAt = &t
	}
	return resp
}

// InvitationOutcome carries whichever side of the idempotent invite
// flow applied: an existing conversation or an invitation.
type InvitationOutcome struct {
	Conversation *ConversationResponse `json:"conversation,omitempty"`
	Invitation   *InvitationResponse   `json:"invitation,omitempty"`
}

type UserProfileResponse struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Mobile      string `json:"mobile,omitempty"`
}

func FromProfile(p user.Profile) UserProfileResponse {
	return UserProfileResponse{
		ID:          p.ID.String(),
		DisplayName: p.DisplayName,
		Mobile:      p.Mobile,
	}
}

type SearchUsersResponse struct {
	Users []UserProfileResponse `json:"users"`
}
