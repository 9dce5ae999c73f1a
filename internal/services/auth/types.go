package auth

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/ASK10520/codeplay-spark/internal/domain/enums"
)

var ErrUnauthorized = errors.New("unauthorized")

type AccessClaims struct {
	UserID    uuid.UUID
	Roles     []enums.Role
	ExpiresAt time.Time
}
