package handlers

import (
	"context"
	"net/http"
	"time"

	httperrors "github.com/ASK10520/codeplay-spark/internal/transport/http/errors"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	db Pinger
}

// NewHealthHandler reports healthy without a database when db is nil.
func NewHealthHandler(db Pinger) *HealthHandler {
	return &HealthHandler{db: db}
}

func (h *HealthHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.db.Ping(ctx); err != nil {
			httperrors.Write(w, http.StatusServiceUnavailable, map[string]any{"ok": false})
			return
		}
	}
	httperrors.Write(w, http.StatusOK, map[string]any{"ok": true})
}
