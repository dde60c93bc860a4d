package handlers

import (
	"net/http"

	"github.com/isdelr/filevault-be/internal/services"
	"github.com/rs/zerolog/log"
)

// SystemHandler handles HTTP requests about the host.
type SystemHandler struct {
	service services.SystemServiceProvider
}

// NewSystemHandler creates a new SystemHandler.
func NewSystemHandler(service services.SystemServiceProvider) *SystemHandler {
	return &SystemHandler{service: service}
}

// GetStorage reports disk usage of the volume holding user files.
func (h *SystemHandler) GetStorage(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.GetStorageStats()
	if err != nil {
		log.Error().Err(err).Msg("Failed to read storage stats")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to read storage stats"})
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
