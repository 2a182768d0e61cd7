package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"ebox-messaging/internal/repository"
	"ebox-messaging/internal/services"
	"ebox-messaging/internal/transport/httpdto"
)

type InvitationHandler struct {
	invitations *services.InvitationService
}

func NewInvitationHandler(invitations *services.InvitationService) *InvitationHandler {
	return &InvitationHandler{invitations: invitations}
}

func (h *InvitationHandler) SearchUsers(c *gin.Context) {
	actor, ok := identity(c)
	if !ok {
		return
	}
	term := c.Query("term")
	mode := repository.SearchMode(c.DefaultQuery("mode", string(repository.SearchByName)))

	profiles, err := h.invitations.SearchUsers(c.Request.Context(), actor, term, mode)
	if err != nil {
		fail(c, err)
		return
	}

	users := make([]httpdto.UserProfileResponse, 0, len(profiles))
	for _, p := range profiles {
		users = append(users, httpdto.FromProfile(p))
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.SearchUsersResponse{Users: users}))
}

func (h *InvitationHandler) Send(c *gin.Context) {
	var req httpdto.SendInvitationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", "INVALID_REQUEST"))
		return
	}
	actor, ok := identity(c)
	if !ok {
		return
	}
	targetID, err := uuid.Parse(req.TargetUserID)
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid target user id", "INVALID_REQUEST"))
		return
	}

	result, err := h.invitations.SendInvitation(c.Request.Context(), actor, targetID, req.InitialMessage)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(outcome(result)))
}

func (h *InvitationHandler) Respond(c *gin.Context) {
	var req httpdto.RespondInvitationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", "INVALID_REQUEST"))
		return
	}
	actor, ok := identity(c)
	if !ok {
		return
	}
	invitationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid invitation id", "INVALID_REQUEST"))
		return
	}

	result, err := h.invitations.Respond(c.Request.Context(), actor, invitationID, req.Accept)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(outcome(result)))
}

func outcome(result services.SendResult) httpdto.InvitationOutcome {
	var out httpdto.InvitationOutcome
	if result.Conversation != nil {
		conv := httpdto.FromConversation(*result.Conversation)
		out.Conversation = &conv
	}
	if result.Invitation != nil {
		inv := httpdto.FromInvitation(*result.Invitation)
		out.Invitation = &inv
	}
	return out
}
