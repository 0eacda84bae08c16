package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"
	"github.com/snappy-loop/tutor/internal/models"
)

const (
	retryBaseDelay = 1 * time.Second
	retryMaxDelay  = 5 * time.Minute
	maxAttempts    = 20 // after this many failures the message is skipped so the partition keeps moving
)

// ChatEventHandler processes chat events
type ChatEventHandler interface {
	HandleChatEvent(ctx context.Context, event *models.ChatEvent) error
}

// Consumer reads chat events with manual commits
type Consumer struct {
	reader  *kafka.Reader
	handler ChatEventHandler
}

// NewConsumer creates a new Kafka consumer
func NewConsumer(brokers []string, topic, groupID string, handler ChatEventHandler) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		Topic:          topic,
		GroupID:        groupID,
		MinBytes:       1,
		MaxBytes:       10e6, // 10MB
		CommitInterval: 0,    // manual commits
		StartOffset:    kafka.FirstOffset,
	})

	log.Info().
		Strs("brokers", brokers).
		Str("topic", topic).
		Str("group_id", groupID).
		Msg("Kafka consumer initialized")

	return &Consumer{
		reader:  reader,
		handler: handler,
	}
}

// retryDelay is exponential backoff capped at retryMaxDelay.
func retryDelay(attempt int) time.Duration {
	if attempt > 20 {
		return retryMaxDelay
	}
	d := retryBaseDelay << uint(attempt)
	if d > retryMaxDelay {
		return retryMaxDelay
	}
	return d
}

// decodeChatEvent parses a message value.
func decodeChatEvent(value []byte) (*models.ChatEvent, error) {
	var event models.ChatEvent
	if err := json.Unmarshal(value, &event); err != nil {
		return nil, fmt.Errorf("failed to unmarshal chat event: %w", err)
	}
	return &event, nil
}

// Start consumes until ctx is cancelled
func (c *Consumer) Start(ctx context.Context) error {
	log.Info().Msg("Starting Kafka consumer")

	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				log.Info().Msg("Consumer context cancelled, stopping")
				return ctx.Err()
			}
			log.Error().Err(err).Msg("Failed to fetch message")
			continue
		}

		if err := c.handleWithRetry(ctx, msg); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Error().
				Err(err).
				Str("topic", msg.Topic).
				Int("partition", msg.Partition).
				Int64("offset", msg.Offset).
				Msg("Skipping chat event after failed processing")
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			log.Error().Err(err).Msg("Failed to commit message")
		}
	}
}

// handleWithRetry retries handler failures with backoff. Malformed payloads are not retried.
func (c *Consumer) handleWithRetry(ctx context.Context, msg kafka.Message) error {
	event, err := decodeChatEvent(msg.Value)
	if err != nil {
		return err
	}

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if lastErr = c.handler.HandleChatEvent(ctx, event); lastErr == nil {
			log.Info().
				Str("chat_id", event.ChatID.String()).
				Str("message_id", event.MessageID.String()).
				Msg("Chat event processed")
			return nil
		}

		log.Warn().
			Err(lastErr).
			Int64("offset", msg.Offset).
			Int("attempt", attempt+1).
			Msg("Failed to process chat event, will retry")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(retryDelay(attempt)):
		}
	}
	return fmt.Errorf("handler failed after %d attempts: %w", maxAttempts, lastErr)
}

// Close closes the consumer
func (c *Consumer) Close() error {
	log.Info().Msg("Closing Kafka consumer")
	return c.reader.Close()
}
