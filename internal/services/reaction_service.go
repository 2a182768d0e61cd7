package services

import (
	"github.com/google/uuid"

	"ebox-messaging/internal/domain/message"
	"ebox-messaging/internal/domain/user"
	"ebox-messaging/internal/state"
)

// ReactionService toggles emoji reactions on messages. Reactions are
// session-local state; toggling twice restores the original mapping.
type ReactionService struct {
	store *state.Store
}

func NewReactionService(store *state.Store) *ReactionService {
	return &ReactionService{store: store}
}

func (s *ReactionService) Toggle(actor user.Identity, messageID uuid.UUID, emoji string) (message.Message, error) {
	return s.store.ToggleReaction(messageID, actor.ID, emoji)
}
