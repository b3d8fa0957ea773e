package utils

import (
	"context"

	"github.com/google/uuid"
)

type contextKey string

const (
	identityKey contextKey = "identity"
)

// Roles carried in verified bearer tokens.
const (
	RolePassenger = "passenger"
	RoleDriver    = "driver"
	RoleAdmin     = "admin"
)

// Identity is the verified caller supplied by the authentication layer.
type Identity struct {
	HolderID uuid.UUID
	Category string // protected attribute used for restricted seats, e.g. "female"
	Role     string
}

func SetIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

func GetIdentity(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey).(Identity)
	if !ok || id.HolderID == uuid.Nil {
		return Identity{}, false
	}
	return id, true
}

