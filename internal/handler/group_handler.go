package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"ebox-messaging/internal/services"
	"ebox-messaging/internal/transport/httpdto"
)

type GroupHandler struct {
	groups *services.GroupService
}

func NewGroupHandler(groups *services.GroupService) *GroupHandler {
	return &GroupHandler{groups: groups}
}

func (h *GroupHandler) Create(c *gin.Context) {
	var req httpdto.CreateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", "INVALID_REQUEST"))
		return
	}
	actor, ok := identity(c)
	if !ok {
		return
	}

	input := services.CreateGroupInput{
		Name:        req.Name,
		Description: req.Description,
		IsPublic:    req.IsPublic,
	}
	if req.OrganizationID != "" {
		orgID, err := uuid.Parse(req.OrganizationID)
		if err != nil {
			c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid organization id", "INVALID_REQUEST"))
			return
		}
		input.OrganizationID = uuid.NullUUID{UUID: orgID, Valid: true}
	}
	for _, idStr := range req.InviteeIDs {
		id, err := uuid.Parse(idStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid invitee id", "INVALID_REQUEST"))
			return
		}
		input.InviteeIDs = append(input.InviteeIDs, id)
	}

	conv, err := h.groups.CreateGroup(c.Request.Context(), actor, input)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.FromConversation(conv)))
}

func (h *GroupHandler) Join(c *gin.Context) {
	actor, ok := identity(c)
	if !ok {
		return
	}
	groupID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid group id", "INVALID_REQUEST"))
		return
	}

	m, err := h.groups.JoinGroup(c.Request.Context(), actor, groupID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.FromMembership(m)))
}

func (h *GroupHandler) Invite(c *gin.Context) {
	var req httpdto.InviteToGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", "INVALID_REQUEST"))
		return
	}
	actor, ok := identity(c)
	if !ok {
		return
	}
	groupID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid group id", "INVALID_REQUEST"))
		return
	}

	userIDs := make([]uuid.UUID, 0, len(req.UserIDs))
	for _, idStr := range req.UserIDs {
		id, err := uuid.Parse(idStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid user id", "INVALID_REQUEST"))
			return
		}
		userIDs = append(userIDs, id)
	}

	invited, err := h.groups.InviteToGroup(c.Request.Context(), actor, groupID, userIDs)
	if err != nil {
		fail(c, err)
		return
	}

	out := make([]httpdto.MembershipResponse, 0, len(invited))
	for _, m := range invited {
		out = append(out, httpdto.FromMembership(m))
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.InviteToGroupResponse{Invited: out}))
}

func (h *GroupHandler) RespondToJoinRequest(c *gin.Context) {
	var req httpdto.RespondJoinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", "INVALID_REQUEST"))
		return
	}
	actor, ok := identity(c)
	if !ok {
		return
	}
	membershipID, err := uuid.Parse(c.Param("memberId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid membership id", "INVALID_REQUEST"))
		return
	}

	m, err := h.groups.RespondToJoinRequest(c.Request.Context(), actor, membershipID, req.Approve)
	if err != nil {
		fail(c, err)
		return
	}
	if !req.Approve {
		c.JSON(http.StatusOK, httpdto.NewSuccessResponse(gin.H{"rejected": true}))
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.FromMembership(m)))
}

func (h *GroupHandler) Leave(c *gin.Context) {
	actor, ok := identity(c)
	if !ok {
		return
	}
	groupID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid group id", "INVALID_REQUEST"))
		return
	}

	if err := h.groups.LeaveGroup(c.Request.Context(), actor, groupID); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(gin.H{"left": true}))
}
