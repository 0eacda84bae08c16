package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/snappy-loop/tutor/internal/database"
	"github.com/snappy-loop/tutor/internal/markup"
	"github.com/snappy-loop/tutor/internal/models"
	"github.com/snappy-loop/tutor/internal/storage"
)

// ErrEmptyQuestion is returned when a message has neither a question nor attachments.
var ErrEmptyQuestion = errors.New("question or at least one file is required")

const (
	maxTitleRunes    = 50
	defaultListLimit = 20
	maxListLimit     = 100
)

// MessageProcessor runs one turn through the tutor pipeline.
type MessageProcessor interface {
	ProcessMessage(ctx context.Context, in models.MessageInput) *models.MessageResult
}

// EventPublisher publishes processed turns (e.g. to Kafka). May be nil to skip publishing.
type EventPublisher interface {
	PublishChatEvent(ctx context.Context, event *models.ChatEvent) error
}

// ChatService handles chat turns and history
type ChatService struct {
	store     database.ChatStore
	processor MessageProcessor
	objects   storage.ObjectStore
	events    EventPublisher
	uploads   *FileService
	now       func() time.Time
}

// NewChatService creates a new ChatService. objects, events and uploads may be nil.
func NewChatService(
	store database.ChatStore,
	processor MessageProcessor,
	objects storage.ObjectStore,
	events EventPublisher,
	uploads *FileService,
) *ChatService {
	return &ChatService{
		store:     store,
		processor: processor,
		objects:   objects,
		events:    events,
		uploads:   uploads,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// SendMessage stores the user turn, runs the pipeline and stores the answer.
// Uploaded files are discarded before returning, whatever the outcome.
func (s *ChatService) SendMessage(ctx context.Context, req *models.SendMessageRequest) (*models.SendMessageResponse, error) {
	if s.uploads != nil {
		defer s.uploads.Discard(req.Attachments)
	}

	question := strings.TrimSpace(req.Question)
	if question == "" && len(req.Attachments) == 0 {
		return nil, ErrEmptyQuestion
	}
	if !req.Detail.Valid() {
		return nil, models.ErrInvalidDetailLevel
	}

	chat, err := s.resolveChat(ctx, req.ChatID, question, req.Attachments)
	if err != nil {
		return nil, err
	}

	names := attachmentNames(req.Attachments)
	userMsg := &models.ChatMessage{
		ID:          uuid.New(),
		ChatID:      chat.ID,
		Role:        models.RoleUser,
		Content:     question,
		DetailLevel: req.Detail.Marks(),
		Attachments: names,
		CreatedAt:   s.now(),
	}
	if err := s.store.AddMessage(ctx, userMsg); err != nil {
		return nil, fmt.Errorf("failed to save user message: %w", err)
	}

	result := s.processor.ProcessMessage(ctx, models.MessageInput{
		Question:      question,
		Attachments:   req.Attachments,
		Detail:        req.Detail,
		GenerateImage: req.GenerateImage,
	})

	assistantMsg := &models.ChatMessage{
		ID:          uuid.New(),
		ChatID:      chat.ID,
		Role:        models.RoleAssistant,
		Content:     result.Content,
		DetailLevel: req.Detail.Marks(),
		ImageURL:    s.storeIllustration(ctx, chat.ID, result.Image),
		CreatedAt:   s.now(),
	}
	if err := s.store.AddMessage(ctx, assistantMsg); err != nil {
		return nil, fmt.Errorf("failed to save assistant message: %w", err)
	}

	s.publish(ctx, &models.ChatEvent{
		ChatID:      chat.ID,
		MessageID:   assistantMsg.ID,
		Question:    question,
		Answer:      result.Content,
		DetailLevel: req.Detail.Marks(),
		Attachments: names,
		ImageURL:    assistantMsg.ImageURL,
		CreatedAt:   assistantMsg.CreatedAt,
	})

	log.Info().
		Str("chat_id", chat.ID.String()).
		Str("message_id", assistantMsg.ID.String()).
		Int("marks", req.Detail.Marks()).
		Int("files", len(req.Attachments)).
		Bool("image", result.Image != nil).
		Msg("Chat message processed")

	return &models.SendMessageResponse{
		ChatID:      chat.ID,
		MessageID:   assistantMsg.ID,
		Content:     result.Content,
		ContentHTML: markup.MarkdownToHTML(result.Content),
		Image:       result.Image,
		ImageURL:    assistantMsg.ImageURL,
	}, nil
}

func (s *ChatService) resolveChat(ctx context.Context, chatID *uuid.UUID, question string, attachments []models.Attachment) (*models.Chat, error) {
	if chatID != nil {
		chat, err := s.store.GetChat(ctx, *chatID)
		if err != nil {
			return nil, err
		}
		return chat, nil
	}

	now := s.now()
	chat := &models.Chat{
		ID:        uuid.New(),
		Title:     chatTitle(question, attachments),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.CreateChat(ctx, chat); err != nil {
		return nil, fmt.Errorf("failed to create chat: %w", err)
	}
	return chat, nil
}

// storeIllustration uploads the SVG; failures leave the inline markup as the only copy.
func (s *ChatService) storeIllustration(ctx context.Context, chatID uuid.UUID, img *models.ImageResult) *string {
	if img == nil || s.objects == nil {
		return nil
	}
	key := uuid.New().String() + ".svg"
	location, err := s.objects.Put(ctx, key, []byte(img.SVGMarkup), "image/svg+xml")
	if err != nil {
		log.Warn().Err(err).Str("chat_id", chatID.String()).Msg("Failed to store illustration")
		return nil
	}
	return &location
}

func (s *ChatService) publish(ctx context.Context, event *models.ChatEvent) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishChatEvent(ctx, event); err != nil {
		log.Error().Err(err).Str("chat_id", event.ChatID.String()).Msg("Failed to publish chat event")
	}
}

// ListChats returns chats by most recent activity. limit is clamped to [1, 100].
func (s *ChatService) ListChats(ctx context.Context, limit int, before *time.Time) ([]*models.Chat, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	return s.store.ListChats(ctx, limit, before)
}

// GetChat returns a chat with its messages in order.
func (s *ChatService) GetChat(ctx context.Context, chatID uuid.UUID) (*models.ChatResponse, error) {
	chat, err := s.store.GetChat(ctx, chatID)
	if err != nil {
		return nil, err
	}
	msgs, err := s.store.ListMessages(ctx, chatID)
	if err != nil {
		return nil, err
	}
	return &models.ChatResponse{Chat: chat, Messages: msgs}, nil
}

// DeleteChat removes a chat and the illustrations stored for it.
// Object removal is best effort; the chat is deleted regardless.
func (s *ChatService) DeleteChat(ctx context.Context, chatID uuid.UUID) error {
	if _, err := s.store.GetChat(ctx, chatID); err != nil {
		return err
	}
	msgs, err := s.store.ListMessages(ctx, chatID)
	if err != nil {
		return err
	}
	if s.objects != nil {
		for _, msg := range msgs {
			key := illustrationKey(msg.ImageURL)
			if key == "" {
				continue
			}
			if err := s.objects.Delete(ctx, key); err != nil {
				log.Warn().Err(err).Str("key", key).Msg("Failed to delete illustration")
			}
		}
	}
	if err := s.store.DeleteChat(ctx, chatID); err != nil {
		return fmt.Errorf("failed to delete chat: %w", err)
	}
	log.Info().Str("chat_id", chatID.String()).Int("messages", len(msgs)).Msg("Chat deleted")
	return nil
}

// illustrationKey recovers the object key from a stored illustration URL.
// Presigned query strings are ignored.
func illustrationKey(imageURL *string) string {
	if imageURL == nil {
		return ""
	}
	u, err := url.Parse(*imageURL)
	if err != nil {
		return ""
	}
	key := path.Base(u.Path)
	if !strings.HasSuffix(key, ".svg") {
		return ""
	}
	return key
}

func attachmentNames(attachments []models.Attachment) []string {
	if len(attachments) == 0 {
		return nil
	}
	names := make([]string, len(attachments))
	for i, a := range attachments {
		names[i] = a.Name
	}
	return names
}

// chatTitle uses the first line of the question, or the file names for file-only turns.
func chatTitle(question string, attachments []models.Attachment) string {
	title := question
	if i := strings.IndexByte(title, '\n'); i >= 0 {
		title = title[:i]
	}
	title = strings.TrimSpace(title)
	if title == "" {
		title = strings.Join(attachmentNames(attachments), ", ")
	}
	if title == "" {
		return "New chat"
	}
	r := []rune(title)
	if len(r) > maxTitleRunes {
		return strings.TrimSpace(string(r[:maxTitleRunes-3])) + "..."
	}
	return title
}
