package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/snappy-loop/tutor/internal/models"
	"github.com/snappy-loop/tutor/internal/storage"
)

// TranscriptArchiver writes each chat event as a JSON object under transcripts/<chat>/<message>.json.
type TranscriptArchiver struct {
	objects storage.ObjectStore
}

// NewTranscriptArchiver creates an archiver writing to objects.
func NewTranscriptArchiver(objects storage.ObjectStore) *TranscriptArchiver {
	return &TranscriptArchiver{objects: objects}
}

// TranscriptKey is the object key for one archived turn.
func TranscriptKey(event *models.ChatEvent) string {
	return fmt.Sprintf("transcripts/%s/%s.json", event.ChatID, event.MessageID)
}

// HandleChatEvent archives one event. Re-delivery overwrites the same key.
func (a *TranscriptArchiver) HandleChatEvent(ctx context.Context, event *models.ChatEvent) error {
	data, err := json.MarshalIndent(event, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal transcript: %w", err)
	}
	key := TranscriptKey(event)
	if _, err := a.objects.Put(ctx, key, data, "application/json"); err != nil {
		return fmt.Errorf("failed to store transcript: %w", err)
	}
	log.Debug().Str("key", key).Msg("Transcript archived")
	return nil
}
