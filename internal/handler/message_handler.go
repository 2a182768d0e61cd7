package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"ebox-messaging/internal/domain/message"
	"ebox-messaging/internal/services"
	"ebox-messaging/internal/transport/httpdto"
)

type MessageHandler struct {
	messages  *services.MessageService
	reactions *services.ReactionService
	forwards  *services.ForwardService
}

func NewMessageHandler(messages *services.MessageService, reactions *services.ReactionService, forwards *services.ForwardService) *MessageHandler {
	return &MessageHandler{messages: messages, reactions: reactions, forwards: forwards}
}

func (h *MessageHandler) Send(c *gin.Context) {
	var req httpdto.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", "INVALID_REQUEST"))
		return
	}
	actor, ok := identity(c)
	if !ok {
		return
	}
	conversationID, err := uuid.Parse(req.ConversationID)
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid conversation id", "INVALID_REQUEST"))
		return
	}

	attachments := make([]message.Attachment, 0, len(req.Attachments))
	for _, a := range req.Attachments {
		id, err := uuid.Parse(a.ID)
		if err != nil {
			c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid attachment id", "INVALID_REQUEST"))
			return
		}
		attachments = append(attachments, message.Attachment{
			ID:          id,
			FileName:    a.FileName,
			ContentType: a.ContentType,
			SizeBytes:   a.SizeBytes,
			StorageKey:  a.StorageKey,
		})
	}

	sent, err := h.messages.Send(c.Request.Context(), actor, conversationID, req.Content, attachments)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.FromMessage(sent)))
}

func (h *MessageHandler) Edit(c *gin.Context) {
	var req httpdto.EditMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", "INVALID_REQUEST"))
		return
	}
	actor, ok := identity(c)
	if !ok {
		return
	}
	messageID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid message id", "INVALID_REQUEST"))
		return
	}

	edited, err := h.messages.Edit(actor, messageID, req.Content)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.FromMessage(edited)))
}

func (h *MessageHandler) Delete(c *gin.Context) {
	actor, ok := identity(c)
	if !ok {
		return
	}
	messageID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid message id", "INVALID_REQUEST"))
		return
	}

	if err := h.messages.Delete(c.Request.Context(), actor, messageID); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(gin.H{"deleted": true}))
}

func (h *MessageHandler) ToggleReaction(c *gin.Context) {
	var req httpdto.ToggleReactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", "INVALID_REQUEST"))
		return
	}
	actor, ok := identity(c)
	if !ok {
		return
	}
	messageID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid message id", "INVALID_REQUEST"))
		return
	}

	updated, err := h.reactions.Toggle(actor, messageID, req.Emoji)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.FromMessage(updated)))
}

func (h *MessageHandler) Forward(c *gin.Context) {
	var req httpdto.ForwardMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", "INVALID_REQUEST"))
		return
	}
	actor, ok := identity(c)
	if !ok {
		return
	}
	messageID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid message id", "INVALID_REQUEST"))
		return
	}
	targetID, err := uuid.Parse(req.TargetConversationID)
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid target conversation id", "INVALID_REQUEST"))
		return
	}

	forwarded, err := h.forwards.Forward(c.Request.Context(), actor, messageID, targetID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.FromMessage(forwarded)))
}
