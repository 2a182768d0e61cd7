package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"ebox-messaging/internal/domain/message"
	"ebox-messaging/internal/repository"
	"ebox-messaging/internal/state"
	"ebox-messaging/internal/transport/httpdto"
)

// ConversationHandler serves the session view. Listing hydrates the
// store from the durable copy so a fresh session sees its history.
type ConversationHandler struct {
	store         *state.Store
	conversations repository.ConversationRepository
	messages      repository.MessageRepository
}

func NewConversationHandler(store *state.Store, conversations repository.ConversationRepository, messages repository.MessageRepository) *ConversationHandler {
	return &ConversationHandler{store: store, conversations: conversations, messages: messages}
}

func (h *ConversationHandler) List(c *gin.Context) {
	actor, ok := identity(c)
	if !ok {
		return
	}

	items, err := h.conversations.GetUserConversations(c.Request.Context(), actor.ID, 50)
	if err != nil {
		fail(c, err)
		return
	}
	for _, conv := range items {
		h.store.UpsertConversation(conv)
	}

	out := make([]httpdto.ConversationResponse, 0, len(items))
	for _, conv := range h.store.Conversations() {
		resp := httpdto.FromConversation(conv)
		if last, ok := h.store.LastMessage(conv.ID); ok {
			lastResp := httpdto.FromMessage(last)
			resp.LastMessage = &lastResp
		}
		out = append(out, resp)
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.ListConversationsResponse{Conversations: out}))
}

func (h *ConversationHandler) GetByID(c *gin.Context) {
	if _, ok := identity(c); !ok {
		return
	}
	conversationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid conversation id", "INVALID_REQUEST"))
		return
	}

	conv, ok := h.store.Conversation(conversationID)
	if !ok {
		remote, err := h.conversations.GetByID(c.Request.Context(), conversationID)
		if err != nil {
			fail(c, err)
			return
		}
		h.store.UpsertConversation(remote)
		conv = remote
	}

	if len(h.store.Messages(conversationID)) == 0 {
		msgs, err := h.messages.GetConversationMessages(c.Request.Context(), conversationID, 100)
		if err == nil {
			for _, m := range msgs {
				// Durable rows carry no transient status.
				if m.Status == "" {
					m.Status = message.StatusSent
				}
				h.store.UpsertMessage(m)
			}
		}
	}

	resp := httpdto.FromConversation(conv)
	if last, ok := h.store.LastMessage(conversationID); ok {
		lastResp := httpdto.FromMessage(last)
		resp.LastMessage = &lastResp
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(gin.H{
		"conversation": resp,
		"messages":     httpdto.FromMessageSlice(h.store.Messages(conversationID)),
	}))
}
