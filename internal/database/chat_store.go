package database

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/snappy-loop/tutor/internal/models"
)

// ErrChatNotFound is returned when a chat id does not exist.
var ErrChatNotFound = errors.New("chat not found")

// ChatStore persists chats and their messages.
type ChatStore interface {
	CreateChat(ctx context.Context, chat *models.Chat) error
	GetChat(ctx context.Context, chatID uuid.UUID) (*models.Chat, error)
	ListChats(ctx context.Context, limit int, before *time.Time) ([]*models.Chat, error)
	AddMessage(ctx context.Context, msg *models.ChatMessage) error
	ListMessages(ctx context.Context, chatID uuid.UUID) ([]*models.ChatMessage, error)
	DeleteChat(ctx context.Context, chatID uuid.UUID) error
}

var (
	_ ChatStore = (*MemoryChatStore)(nil)
	_ ChatStore = (*ChatRepository)(nil)
)

// MemoryChatStore keeps chats in process memory. Contents are lost on restart.
type MemoryChatStore struct {
	mu       sync.RWMutex
	chats    map[uuid.UUID]*models.Chat
	messages map[uuid.UUID][]*models.ChatMessage
}

// NewMemoryChatStore creates an empty store.
func NewMemoryChatStore() *MemoryChatStore {
	return &MemoryChatStore{
		chats:    make(map[uuid.UUID]*models.Chat),
		messages: make(map[uuid.UUID][]*models.ChatMessage),
	}
}

func (s *MemoryChatStore) CreateChat(ctx context.Context, chat *models.Chat) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *chat
	s.chats[chat.ID] = &c
	return nil
}

func (s *MemoryChatStore) GetChat(ctx context.Context, chatID uuid.UUID) (*models.Chat, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.chats[chatID]
	if !ok {
		return nil, ErrChatNotFound
	}
	out := *c
	return &out, nil
}

// ListChats returns the most recently updated chats first.
func (s *MemoryChatStore) ListChats(ctx context.Context, limit int, before *time.Time) ([]*models.Chat, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Chat, 0, len(s.chats))
	for _, c := range s.chats {
		if before != nil && !c.UpdatedAt.Before(*before) {
			continue
		}
		cp := *c
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryChatStore) AddMessage(ctx context.Context, msg *models.ChatMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.chats[msg.ChatID]
	if !ok {
		return ErrChatNotFound
	}
	m := *msg
	m.Attachments = append([]string(nil), msg.Attachments...)
	s.messages[msg.ChatID] = append(s.messages[msg.ChatID], &m)
	if msg.CreatedAt.After(c.UpdatedAt) {
		c.UpdatedAt = msg.CreatedAt
	}
	return nil
}

// ListMessages returns messages in insertion order.
func (s *MemoryChatStore) ListMessages(ctx context.Context, chatID uuid.UUID) ([]*models.ChatMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.chats[chatID]; !ok {
		return nil, ErrChatNotFound
	}
	msgs := s.messages[chatID]
	out := make([]*models.ChatMessage, len(msgs))
	for i, m := range msgs {
		cp := *m
		out[i] = &cp
	}
	return out, nil
}

func (s *MemoryChatStore) DeleteChat(ctx context.Context, chatID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.chats[chatID]; !ok {
		return ErrChatNotFound
	}
	delete(s.chats, chatID)
	delete(s.messages, chatID)
	return nil
}
