package handlers

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"path"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"
	"github.com/snappy-loop/tutor/internal/storage"
)

// Illustration handles GET /illustrations/{name}, streaming a stored SVG from the local store.
func (h *Handler) Illustration(w http.ResponseWriter, r *http.Request) {
	if h.objects == nil {
		writeJSONError(w, http.StatusNotFound, "illustration not found")
		return
	}
	name := mux.Vars(r)["name"]

	body, err := h.objects.Get(r.Context(), name)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) || errors.Is(err, storage.ErrInvalidKey) {
			writeJSONError(w, http.StatusNotFound, "illustration not found")
			return
		}
		log.Error().Err(err).Str("name", name).Msg("Failed to read illustration")
		writeJSONError(w, http.StatusInternalServerError, "failed to read illustration")
		return
	}
	defer body.Close()

	contentType := mime.TypeByExtension(path.Ext(name))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "public, max-age=86400")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, body); err != nil {
		log.Debug().Err(err).Str("name", name).Msg("Illustration copy interrupted")
	}
}

// Healthz handles GET /healthz
func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	if h.health != nil {
		if err := h.health(); err != nil {
			log.Warn().Err(err).Msg("Health check failed")
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
