package handlers

import (
	"net/http"
	"strconv"

	"github.com/isdelr/filevault-be/internal/auth"
	"github.com/isdelr/filevault-be/internal/services"
	"github.com/rs/zerolog/log"
)

const maxEventLimit = 200

// EventHandler handles HTTP requests related to the activity log.
type EventHandler struct {
	service services.EventServiceProvider
}

// NewEventHandler creates a new EventHandler.
func NewEventHandler(service services.EventServiceProvider) *EventHandler {
	return &EventHandler{service: service}
}

// GetRecent returns the caller's most recent activity.
func (h *EventHandler) GetRecent(w http.ResponseWriter, r *http.Request) {
	username, _ := auth.UsernameFromContext(r.Context())
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit <= 0 {
		limit = 20 // Default limit
	}
	if limit > maxEventLimit {
		limit = maxEventLimit
	}

	events, err := h.service.GetRecentEvents(username, limit)
	if err != nil {
		log.Error().Err(err).Str("username", username).Msg("Failed to retrieve events")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to retrieve events"})
		return
	}
	writeJSON(w, http.StatusOK, events)
}
