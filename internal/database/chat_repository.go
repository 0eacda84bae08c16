package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/snappy-loop/tutor/internal/models"
)

// ChatRepository is the PostgreSQL ChatStore.
type ChatRepository struct {
	db *DB
}

// NewChatRepository creates a new ChatRepository
func NewChatRepository(db *DB) *ChatRepository {
	return &ChatRepository{db: db}
}

// CreateChat inserts a chat row
func (r *ChatRepository) CreateChat(ctx context.Context, chat *models.Chat) error {
	query := `
		INSERT INTO chats (id, title, created_at, updated_at)
		VALUES ($1, $2, $3, $4)
	`
	_, err := r.db.ExecContext(ctx, query, chat.ID, chat.Title, chat.CreatedAt, chat.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert chat: %w", err)
	}
	return nil
}

// GetChat retrieves a chat by ID
func (r *ChatRepository) GetChat(ctx context.Context, chatID uuid.UUID) (*models.Chat, error) {
	query := `SELECT id, title, created_at, updated_at FROM chats WHERE id = $1`

	chat := &models.Chat{}
	err := r.db.QueryRowContext(ctx, query, chatID).Scan(&chat.ID, &chat.Title, &chat.CreatedAt, &chat.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrChatNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get chat: %w", err)
	}
	return chat, nil
}

// ListChats returns chats by most recent activity, optionally older than before
func (r *ChatRepository) ListChats(ctx context.Context, limit int, before *time.Time) ([]*models.Chat, error) {
	query := `
		SELECT id, title, created_at, updated_at
		FROM chats
		WHERE ($1::timestamptz IS NULL OR updated_at < $1)
		ORDER BY updated_at DESC
		LIMIT $2
	`
	rows, err := r.db.QueryContext(ctx, query, before, limit)
	if err != nil {
		return nil, fmt.Errorf("list chats: %w", err)
	}
	defer rows.Close()

	var chats []*models.Chat
	for rows.Next() {
		chat := &models.Chat{}
		if err := rows.Scan(&chat.ID, &chat.Title, &chat.CreatedAt, &chat.UpdatedAt); err != nil {
			return nil, err
		}
		chats = append(chats, chat)
	}
	return chats, rows.Err()
}

// AddMessage inserts a message and bumps the chat's updated_at in one transaction
func (r *ChatRepository) AddMessage(ctx context.Context, msg *models.ChatMessage) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE chats SET updated_at = GREATEST(updated_at, $2) WHERE id = $1`,
		msg.ChatID, msg.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("touch chat: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrChatNotFound
	}

	attachments := msg.Attachments
	if attachments == nil {
		attachments = []string{}
	}
	query := `
		INSERT INTO chat_messages (id, chat_id, role, content, detail_level, attachments, image_url, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err = tx.ExecContext(ctx, query,
		msg.ID, msg.ChatID, msg.Role, msg.Content, msg.DetailLevel,
		pq.Array(attachments), msg.ImageURL, msg.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	return tx.Commit()
}

// ListMessages returns a chat's messages oldest first
func (r *ChatRepository) ListMessages(ctx context.Context, chatID uuid.UUID) ([]*models.ChatMessage, error) {
	if _, err := r.GetChat(ctx, chatID); err != nil {
		return nil, err
	}

	query := `
		SELECT id, chat_id, role, content, detail_level, attachments, image_url, created_at
		FROM chat_messages
		WHERE chat_id = $1
		ORDER BY created_at ASC, seq ASC
	`
	rows, err := r.db.QueryContext(ctx, query, chatID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	var msgs []*models.ChatMessage
	for rows.Next() {
		m := &models.ChatMessage{}
		if err := rows.Scan(
			&m.ID, &m.ChatID, &m.Role, &m.Content, &m.DetailLevel,
			pq.Array(&m.Attachments), &m.ImageURL, &m.CreatedAt,
		); err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

// DeleteChat removes a chat; messages cascade
func (r *ChatRepository) DeleteChat(ctx context.Context, chatID uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM chats WHERE id = $1`, chatID)
	if err != nil {
		return fmt.Errorf("delete chat: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrChatNotFound
	}
	return nil
}
