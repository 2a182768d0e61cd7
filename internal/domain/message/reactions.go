package message

import "github.com/google/uuid"

// Reactions maps an emoji to the set of users who reacted with it.
// Empty sets are dropped rather than kept as empty keys.
type Reactions map[string][]uuid.UUID

// Toggle adds userID under emoji if absent and removes it if present.
// Applying it twice with the same arguments is a no-op overall.
func (r Reactions) Toggle(emoji string, userID uuid.UUID) Reactions {
	if r == nil {
		r = Reactions{}
	}
	users := r[emoji]
	for i, id := range users {
		if id == userID {
			users = append(users[:i], users[i+1:]...)
			if len(users) == 0 {
				delete(r, emoji)
			} else {
				r[emoji] = users
			}
			return r
		}
	}
	r[emoji] = append(users, userID)
	return r
}

// Has reports whether userID currently reacts with emoji.
func (r Reactions) Has(emoji string, userID uuid.UUID) bool {
	for _, id := range r[emoji] {
		if id == userID {
			return true
		}
	}
	return false
}

// Clone returns a deep copy so store reads never alias store state.
func (r Reactions) Clone() Reactions {
	if r == nil {
		return nil
	}
	out := make(Reactions, len(r))
	for emoji, users := range r {
		out[emoji] = append([]uuid.UUID(nil), users...)
	}
	return out
}
