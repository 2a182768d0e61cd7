package httpdto

type CreateGroupRequest struct {
	Name           string   `json:"name" binding:"required"`
	Description    string   `json:"description"`
	IsPublic       bool     `json:"is_public"`
	OrganizationID string   `json:"organization_id"`
	InviteeIDs     []string `json:"invitee_ids"`
}

type InviteToGroupRequest struct {
	UserIDs []string `json:"user_ids" binding:"required"`
}

type RespondJoinRequest struct {
	Approve bool `json:"approve"`
}

type InviteToGroupResponse struct {
	Invited []MembershipResponse `json:"invited"`
}
