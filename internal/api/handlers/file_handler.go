package handlers

import (
	"errors"
	"fmt"
	"mime"
	"net/http"

	"github.com/isdelr/filevault-be/internal/auth"
	"github.com/isdelr/filevault-be/internal/services"
	"github.com/rs/zerolog/log"
)

// FileHandler handles HTTP requests for the caller's files.
type FileHandler struct {
	service        services.FileServiceProvider
	maxUploadBytes int64
}

// NewFileHandler creates a new FileHandler. Uploads larger than maxUploadBytes
// are rejected.
func NewFileHandler(service services.FileServiceProvider, maxUploadBytes int64) *FileHandler {
	return &FileHandler{service: service, maxUploadBytes: maxUploadBytes}
}

type pathPayload struct {
	Path  string `json:"path"`
	Name  string `json:"name"`
	IsDir bool   `json:"is_dir"`
}

// List returns the entries of a directory.
func (h *FileHandler) List(w http.ResponseWriter, r *http.Request) {
	username, _ := auth.UsernameFromContext(r.Context())
	var payload pathPayload
	if !decodeJSON(w, r, &payload) {
		return
	}

	entries, err := h.service.List(username, payload.Path)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// CreateFolder creates a folder.
func (h *FileHandler) CreateFolder(w http.ResponseWriter, r *http.Request) {
	username, _ := auth.UsernameFromContext(r.Context())
	var payload pathPayload
	if !decodeJSON(w, r, &payload) {
		return
	}
	if payload.Name == "" {
		writeError(w, services.ErrMissingField)
		return
	}

	if err := h.service.CreateFolder(username, payload.Path, payload.Name); err != nil {
		writeError(w, err)
		return
	}
	writeMessage(w, http.StatusCreated, fmt.Sprintf("Folder '%s' created", payload.Name))
}

// Delete removes a file, or a folder with everything in it.
func (h *FileHandler) Delete(w http.ResponseWriter, r *http.Request) {
	username, _ := auth.UsernameFromContext(r.Context())
	var payload pathPayload
	if !decodeJSON(w, r, &payload) {
		return
	}
	if payload.Name == "" {
		writeError(w, services.ErrMissingField)
		return
	}

	if err := h.service.DeleteItem(username, payload.Path, payload.Name, payload.IsDir); err != nil {
		writeError(w, err)
		return
	}
	writeMessage(w, http.StatusOK, fmt.Sprintf("'%s' deleted", payload.Name))
}

// Upload stores the multipart "file" field under the "path" form value.
func (h *FileHandler) Upload(w http.ResponseWriter, r *http.Request) {
	username, _ := auth.UsernameFromContext(r.Context())
	if h.maxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{"error": "File is too large"})
			return
		}
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "No file selected"})
		return
	}
	defer file.Close()
	if header.Filename == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "No file selected"})
		return
	}

	path := r.FormValue("path")
	if err := h.service.Upload(username, path, header.Filename, file); err != nil {
		log.Warn().Err(err).Str("username", username).Str("file_name", header.Filename).Msg("Upload failed")
		writeError(w, err)
		return
	}
	writeMessage(w, http.StatusCreated, fmt.Sprintf("'%s' uploaded", header.Filename))
}

// Download streams a file as an attachment.
func (h *FileHandler) Download(w http.ResponseWriter, r *http.Request) {
	username, _ := auth.UsernameFromContext(r.Context())
	query := r.URL.Query()

	f, entry, err := h.service.Download(username, query.Get("path"), query.Get("filename"))
	if err != nil {
		writeError(w, err)
		return
	}
	defer f.Close()

	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": entry.Name}))
	http.ServeContent(w, r, entry.Name, entry.Modified, f)
}
