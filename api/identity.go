package api

import (
	"context"
	"errors"

	"tonflip/domain/entities"
)

// ErrUnauthorized is returned when a request carries no valid Telegram launch data
var ErrUnauthorized = errors.New("unauthorized")

// Identity is the verified Telegram session of a request
type Identity struct {
	User       entities.TelegramUser
	StartParam string
}

// ProfileID returns the profile key of the session's user
func (i Identity) ProfileID() string {
	return i.User.ProfileID()
}

type identityKey struct{}

// WithIdentity stores identity in ctx
func WithIdentity(ctx context.Context, identity Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, identity)
}

// IdentityFromContext returns the request's identity, if the auth middleware ran
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	identity, ok := ctx.Value(identityKey{}).(Identity)
	return identity, ok
}
