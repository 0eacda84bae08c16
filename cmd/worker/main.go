package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/snappy-loop/tutor/internal/config"
	"github.com/snappy-loop/tutor/internal/kafka"
	"github.com/snappy-loop/tutor/internal/services"
	"github.com/snappy-loop/tutor/internal/storage"
)

func main() {
	// Setup logging
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg := config.Load()

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	log.Info().Msg("Starting Tutor transcript worker")

	if len(cfg.KafkaBrokers) == 0 {
		log.Fatal().Msg("KAFKA_BROKERS is required")
	}

	var objects storage.ObjectStore
	if cfg.S3Bucket != "" {
		objects, err = storage.NewS3Store(
			cfg.S3Endpoint, cfg.S3Region, cfg.S3Bucket,
			cfg.S3AccessKey, cfg.S3SecretKey, cfg.S3PublicURL,
		)
	} else {
		log.Warn().Msg("S3_BUCKET not set, archiving transcripts to the local illustration dir")
		objects, err = storage.NewLocalStore(cfg.IllustrationDir, cfg.PublicBaseURL+"/illustrations")
	}
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize storage")
	}

	consumer := kafka.NewConsumer(
		cfg.KafkaBrokers,
		cfg.KafkaTopicChatEvents,
		cfg.KafkaConsumerGroup,
		services.NewTranscriptArchiver(objects),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error().Err(err).Msg("Kafka consumer error")
		}
	}()

	log.Info().Msg("Worker started, consuming messages...")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down worker...")
	cancel()
	<-done

	if err := consumer.Close(); err != nil {
		log.Error().Err(err).Msg("Failed to close consumer")
	}

	log.Info().Msg("Worker exited")
}
