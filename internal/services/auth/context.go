package auth

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/ASK10520/codeplay-spark/internal/domain/enums"
)

type identityContextKey string

const identityKey identityContextKey = "auth_identity"

type Identity struct {
	UserID uuid.UUID
	Roles  []enums.Role
}

// HasRole matches case-insensitively against any of roles.
func (i Identity) HasRole(roles ...string) bool {
	for _, have := range i.Roles {
		for _, want := range roles {
			if strings.EqualFold(string(have), strings.TrimSpace(want)) {
				return true
			}
		}
	}
	return false
}

func (i Identity) IsAdmin() bool {
	return i.HasRole(string(enums.RoleAdmin))
}

func WithIdentity(ctx context.Context, identity Identity) context.Context {
	return context.WithValue(ctx, identityKey, identity)
}

func IdentityFromContext(ctx context.Context) (Identity, bool) {
	identity, ok := ctx.Value(identityKey).(Identity)
	return identity, ok
}
