package services

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/snappy-loop/tutor/internal/models"
	"github.com/snappy-loop/tutor/internal/storage"
)

func TestTranscriptArchiver(t *testing.T) {
	store, err := storage.NewLocalStore(t.TempDir(), "")
	if err != nil {
		t.Fatal(err)
	}
	archiver := NewTranscriptArchiver(store)
	ctx := context.Background()

	event := &models.ChatEvent{
		ChatID:      uuid.New(),
		MessageID:   uuid.New(),
		Question:    "What is osmosis?",
		Answer:      "# Osmosis",
		DetailLevel: 2,
		CreatedAt:   time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
	}
	if err := archiver.HandleChatEvent(ctx, event); err != nil {
		t.Fatalf("HandleChatEvent() error = %v", err)
	}
	// redelivery is idempotent
	if err := archiver.HandleChatEvent(ctx, event); err != nil {
		t.Fatalf("HandleChatEvent() redelivery error = %v", err)
	}

	body, err := store.Get(ctx, TranscriptKey(event))
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	defer body.Close()
	raw, _ := io.ReadAll(body)
	var got models.ChatEvent
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatal(err)
	}
	if got.MessageID != event.MessageID || got.Answer != "# Osmosis" || !got.CreatedAt.Equal(event.CreatedAt) {
		t.Errorf("archived event = %+v", got)
	}
}

func TestTranscriptArchiver_StoreError(t *testing.T) {
	archiver := NewTranscriptArchiver(&fakeObjects{err: errors.New("access denied")})
	if err := archiver.HandleChatEvent(context.Background(), &models.ChatEvent{ChatID: uuid.New()}); err == nil {
		t.Error("HandleChatEvent() error = nil, want store error")
	}
}
