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

// chatEventType is set as the "event-type" header on every published turn.
const chatEventType = "chat.turn"

// Producer publishes chat events
type Producer struct {
	writer *kafka.Writer
	topic  string
}

// NewProducer writes to topic, balancing by message key.
func NewProducer(brokers []string, topic string) *Producer {
	// Writes happen on the request path, so each event is flushed immediately.
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
		RequiredAcks:           kafka.RequireOne,
		BatchTimeout:           10 * time.Millisecond,
		WriteTimeout:           10 * time.Second,
	}

	log.Info().
		Strs("brokers", brokers).
		Str("topic", topic).
		Msg("Kafka producer initialized")

	return &Producer{
		writer: writer,
		topic:  topic,
	}
}

// PublishChatEvent publishes a processed turn. Events are keyed by chat so one chat stays on one partition.
func (p *Producer) PublishChatEvent(ctx context.Context, event *models.ChatEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal chat event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(event.ChatID.String()),
		Value: data,
		Time:  event.CreatedAt,
		Headers: []kafka.Header{
			{Key: "event-type", Value: []byte(chatEventType)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to publish chat event %s: %w", event.MessageID, err)
	}

	log.Info().
		Str("chat_id", event.ChatID.String()).
		Str("message_id", event.MessageID.String()).
		Str("topic", p.topic).
		Msg("Chat event published to Kafka")

	return nil
}

// Close closes the producer
func (p *Producer) Close() error {
	log.Info().Msg("Closing Kafka producer")
	return p.writer.Close()
}
