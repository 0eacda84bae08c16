package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"
	"github.com/snappy-loop/tutor/internal/database"
	"github.com/snappy-loop/tutor/internal/models"
	"github.com/snappy-loop/tutor/internal/services"
	"github.com/snappy-loop/tutor/internal/storage"
)

const maxMultipartMemory = 32 << 20 // 32MB, larger parts spill to disk

var errInvalidChatID = errors.New("invalid chat id")

// chatService is the subset of services.ChatService used by handlers.
type chatService interface {
	SendMessage(ctx context.Context, req *models.SendMessageRequest) (*models.SendMessageResponse, error)
	ListChats(ctx context.Context, limit int, before *time.Time) ([]*models.Chat, error)
	GetChat(ctx context.Context, chatID uuid.UUID) (*models.ChatResponse, error)
	DeleteChat(ctx context.Context, chatID uuid.UUID) error
}

// uploadService is the subset of services.FileService used by handlers.
type uploadService interface {
	SaveUpload(ctx context.Context, filename, mimeType string, data io.Reader) (models.Attachment, error)
	Discard(attachments []models.Attachment)
	MaxFiles() int
}

// Handler contains all HTTP handlers
type Handler struct {
	chats   chatService
	uploads uploadService
	objects storage.ObjectStore
	health  func() error
}

// NewHandler creates a new handler. objects may be nil when illustrations are not served locally.
func NewHandler(chats chatService, uploads uploadService, objects storage.ObjectStore) *Handler {
	return &Handler{
		chats:   chats,
		uploads: uploads,
		objects: objects,
	}
}

// WithHealthCheck makes /healthz report 503 when check fails.
func (h *Handler) WithHealthCheck(check func() error) *Handler {
	h.health = check
	return h
}

// Register mounts all routes on r.
func (h *Handler) Register(r *mux.Router) {
	r.HandleFunc("/", h.Index).Methods("GET")
	r.HandleFunc("/healthz", h.Healthz).Methods("GET")
	r.HandleFunc("/illustrations/{name}", h.Illustration).Methods("GET")
	r.HandleFunc("/ws/chat", h.ChatWS).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/chat/message", h.SendMessage).Methods("POST")
	api.HandleFunc("/chats", h.ListChats).Methods("GET")
	api.HandleFunc("/chats/{id}", h.GetChat).Methods("GET")
	api.HandleFunc("/chats/{id}", h.DeleteChat).Methods("DELETE")
}

// SendMessage handles POST /api/chat/message (multipart/form-data or JSON)
func (h *Handler) SendMessage(w http.ResponseWriter, r *http.Request) {
	var (
		ask         models.AskRequest
		attachments []models.Attachment
	)

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
			writeJSONError(w, http.StatusBadRequest, "failed to parse multipart form")
			return
		}
		defer r.MultipartForm.RemoveAll()

		ask = models.AskRequest{
			ChatID:        r.FormValue("chatId"),
			Question:      r.FormValue("question"),
			Marks:         models.Marks(r.FormValue("marks")),
			GenerateImage: parseFormBool(r.FormValue("generateImage")),
		}

		var err error
		attachments, err = h.saveUploads(r.Context(), r.MultipartForm.File["files"])
		if err != nil {
			writeJSONError(w, statusForError(err), err.Error())
			return
		}
	} else {
		if err := json.NewDecoder(r.Body).Decode(&ask); err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	req, err := toSendMessageRequest(ask, attachments)
	if err != nil {
		h.uploads.Discard(attachments)
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	resp, err := h.chats.SendMessage(r.Context(), req)
	if err != nil {
		status := statusForError(err)
		if status == http.StatusInternalServerError {
			log.Error().Err(err).Msg("Failed to process chat message")
			writeJSONError(w, status, "failed to process message")
			return
		}
		writeJSONError(w, status, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// saveUploads stores every file part; on failure the ones already saved are removed.
func (h *Handler) saveUploads(ctx context.Context, headers []*multipart.FileHeader) ([]models.Attachment, error) {
	if len(headers) > h.uploads.MaxFiles() {
		return nil, fmt.Errorf("%w: at most %d files per message", services.ErrTooManyFiles, h.uploads.MaxFiles())
	}
	attachments := make([]models.Attachment, 0, len(headers))
	for _, fh := range headers {
		att, err := h.saveUpload(ctx, fh)
		if err != nil {
			h.uploads.Discard(attachments)
			return nil, err
		}
		attachments = append(attachments, att)
	}
	return attachments, nil
}

func (h *Handler) saveUpload(ctx context.Context, fh *multipart.FileHeader) (models.Attachment, error) {
	f, err := fh.Open()
	if err != nil {
		return models.Attachment{}, fmt.Errorf("failed to open upload %s: %w", fh.Filename, err)
	}
	defer f.Close()
	return h.uploads.SaveUpload(ctx, fh.Filename, fh.Header.Get("Content-Type"), f)
}

// toSendMessageRequest validates the marks and chat id of an incoming message.
func toSendMessageRequest(ask models.AskRequest, attachments []models.Attachment) (*models.SendMessageRequest, error) {
	detail, err := models.ParseDetailLevel(string(ask.Marks))
	if err != nil {
		return nil, err
	}
	req := &models.SendMessageRequest{
		Question:      ask.Question,
		Detail:        detail,
		GenerateImage: ask.GenerateImage,
		Attachments:   attachments,
	}
	if s := strings.TrimSpace(ask.ChatID); s != "" {
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, errInvalidChatID
		}
		req.ChatID = &id
	}
	return req, nil
}

// ListChats handles GET /api/chats
func (h *Handler) ListChats(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if parsedLimit, err := strconv.Atoi(limitStr); err == nil {
			limit = parsedLimit
		}
	}

	var before *time.Time
	if beforeStr := r.URL.Query().Get("before"); beforeStr != "" {
		if parsed, err := time.Parse(time.RFC3339, beforeStr); err == nil {
			before = &parsed
		}
	}

	chats, err := h.chats.ListChats(r.Context(), limit, before)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list chats")
		writeJSONError(w, http.StatusInternalServerError, "failed to list chats")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"chats": chats,
	})
}

// GetChat handles GET /api/chats/{id}
func (h *Handler) GetChat(w http.ResponseWriter, r *http.Request) {
	chatID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, errInvalidChatID.Error())
		return
	}

	resp, err := h.chats.GetChat(r.Context(), chatID)
	if err != nil {
		if errors.Is(err, database.ErrChatNotFound) {
			writeJSONError(w, http.StatusNotFound, "chat not found")
			return
		}
		log.Error().Err(err).Str("chat_id", chatID.String()).Msg("Failed to get chat")
		writeJSONError(w, http.StatusInternalServerError, "failed to get chat")
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// DeleteChat handles DELETE /api/chats/{id}
func (h *Handler) DeleteChat(w http.ResponseWriter, r *http.Request) {
	chatID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, errInvalidChatID.Error())
		return
	}

	if err := h.chats.DeleteChat(r.Context(), chatID); err != nil {
		if errors.Is(err, database.ErrChatNotFound) {
			writeJSONError(w, http.StatusNotFound, "chat not found")
			return
		}
		log.Error().Err(err).Str("chat_id", chatID.String()).Msg("Failed to delete chat")
		writeJSONError(w, http.StatusInternalServerError, "failed to delete chat")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, models.ErrInvalidDetailLevel),
		errors.Is(err, services.ErrEmptyQuestion),
		errors.Is(err, services.ErrTooManyFiles),
		errors.Is(err, errInvalidChatID):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, database.ErrChatNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func parseFormBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "on", "yes":
		return true
	}
	return false
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
