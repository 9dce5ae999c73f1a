package model

import (
	"time"

	"github.com/google/uuid"
)

// Teacher is a public directory entry, not a login account.
type Teacher struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	NameMM    *string   `json:"name_mm,omitempty"`
	Role      string    `json:"role"`
	PhotoURL  *string   `json:"photo_url,omitempty"`
	Bio       *string   `json:"bio,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
