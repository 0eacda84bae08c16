package kafka

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/snappy-loop/tutor/internal/models"
)

func TestRetryDelay(t *testing.T) {
	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{0, 1 * time.Second},
		{1, 2 * time.Second},
		{5, 32 * time.Second},
		{8, 256 * time.Second},
		{9, 5 * time.Minute},
		{100, 5 * time.Minute},
	}
	for _, tt := range tests {
		if got := retryDelay(tt.attempt); got != tt.want {
			t.Errorf("retryDelay(%d) = %v, want %v", tt.attempt, got, tt.want)
		}
	}
}

func TestDecodeChatEvent(t *testing.T) {
	id := uuid.New()
	event, err := decodeChatEvent([]byte(`{"chat_id":"` + id.String() + `","question":"What is osmosis?","detail_level":2}`))
	if err != nil {
		t.Fatalf("decodeChatEvent() error = %v", err)
	}
	if event.ChatID != id || event.Question != "What is osmosis?" || event.DetailLevel != 2 {
		t.Errorf("decodeChatEvent() = %+v", event)
	}

	if _, err := decodeChatEvent([]byte("not json")); err == nil {
		t.Error("decodeChatEvent(invalid) error = nil, want error")
	}
}

type countingHandler struct {
	failures int
	calls    int
}

func (h *countingHandler) HandleChatEvent(ctx context.Context, event *models.ChatEvent) error {
	h.calls++
	if h.calls <= h.failures {
		return errors.New("storage unavailable")
	}
	return nil
}

func TestHandleWithRetry(t *testing.T) {
	value := []byte(`{"chat_id":"` + uuid.New().String() + `"}`)

	t.Run("success first try", func(t *testing.T) {
		h := &countingHandler{}
		c := &Consumer{handler: h}
		if err := c.handleWithRetry(context.Background(), kafka.Message{Value: value}); err != nil {
			t.Fatalf("handleWithRetry() error = %v", err)
		}
		if h.calls != 1 {
			t.Errorf("handler called %d times, want 1", h.calls)
		}
	})

	t.Run("malformed payload not retried", func(t *testing.T) {
		h := &countingHandler{}
		c := &Consumer{handler: h}
		if err := c.handleWithRetry(context.Background(), kafka.Message{Value: []byte("{")}); err == nil {
			t.Fatal("handleWithRetry() error = nil, want decode error")
		}
		if h.calls != 0 {
			t.Errorf("handler called %d times, want 0", h.calls)
		}
	})

	t.Run("cancelled during backoff", func(t *testing.T) {
		h := &countingHandler{failures: 100}
		c := &Consumer{handler: h}
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		if err := c.handleWithRetry(ctx, kafka.Message{Value: value}); !errors.Is(err, context.Canceled) {
			t.Errorf("handleWithRetry() error = %v, want context.Canceled", err)
		}
	})
}
