package services

import (
	"context"

	"ebox-messaging/internal/domain/user"
)

type ctxKey int

const identityKey ctxKey = iota

// WithIdentity stores the authenticated identity on the context. Only
// the transport layer writes it; services always receive the identity
// as an explicit parameter.
func WithIdentity(ctx context.Context, id user.Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

func IdentityFromContext(ctx context.Context) (user.Identity, bool) {
	id, ok := ctx.Value(identityKey).(user.Identity)
	return id, ok
}
