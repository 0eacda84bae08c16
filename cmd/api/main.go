package main

import (
	"context"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/snappy-loop/tutor/internal/config"
	"github.com/snappy-loop/tutor/internal/database"
	"github.com/snappy-loop/tutor/internal/extract"
	"github.com/snappy-loop/tutor/internal/handlers"
	"github.com/snappy-loop/tutor/internal/kafka"
	"github.com/snappy-loop/tutor/internal/llm"
	"github.com/snappy-loop/tutor/internal/mcpserver"
	"github.com/snappy-loop/tutor/internal/processor"
	"github.com/snappy-loop/tutor/internal/services"
	"github.com/snappy-loop/tutor/internal/storage"
	"github.com/snappy-loop/tutor/migrations"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg := config.Load()

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	log.Info().Msg("Starting Tutor API")

	ctx := context.Background()

	var chatStore database.ChatStore = database.NewMemoryChatStore()
	var healthCheck func() error
	if cfg.DatabaseURL != "" {
		db, err := database.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to database")
		}
		defer db.Close()

		if err := migrations.Run(ctx, db.DB); err != nil {
			log.Fatal().Err(err).Msg("Failed to run migrations")
		}
		chatStore = database.NewChatRepository(db)
		healthCheck = db.Health
	} else {
		log.Warn().Msg("DATABASE_URL not set, chats are kept in memory")
	}

	// Illustrations are served by this process only when no bucket is configured.
	var objects, servedObjects storage.ObjectStore
	if cfg.S3Bucket != "" {
		s3Store, err := storage.NewS3Store(
			cfg.S3Endpoint, cfg.S3Region, cfg.S3Bucket,
			cfg.S3AccessKey, cfg.S3SecretKey, cfg.S3PublicURL,
		)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize storage client")
		}
		objects = s3Store
	} else {
		localStore, err := storage.NewLocalStore(cfg.IllustrationDir, cfg.PublicBaseURL+"/illustrations")
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize local store")
		}
		objects, servedObjects = localStore, localStore
	}

	var events services.EventPublisher
	if len(cfg.KafkaBrokers) > 0 {
		kafkaProducer := kafka.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopicChatEvents)
		defer kafkaProducer.Close()
		events = kafkaProducer
	}

	llmClient := llm.NewClient(llm.Options{
		OpenAIAPIKey:         cfg.OpenAIAPIKey,
		OpenAIBaseURL:        cfg.OpenAIBaseURL,
		OpenAIModel:          cfg.OpenAIModel,
		OpenAIImageModel:     cfg.OpenAIImageModel,
		GeminiAPIKey:         cfg.GeminiAPIKey,
		GeminiAPIEndpoint:    cfg.GeminiAPIEndpoint,
		GeminiModel:          cfg.GeminiModel,
		GeminiModelImage:     cfg.GeminiModelImage,
		ImageDownloadTimeout: cfg.ImageDownloadTimeout,
		Rand:                 rand.New(rand.NewSource(time.Now().UnixNano())),
	})

	extractor := extract.NewExtractor(extract.Options{
		OCR:            ocrProvider(cfg),
		Concurrency:    cfg.ExtractConcurrency,
		DeepDocuments:  cfg.DeepDocumentExtraction,
		MaxTextFileLen: cfg.MaxTextFileLen,
	})
	chatProcessor := processor.NewChatProcessor(extractor, llmClient.Completion, llmClient.Images)

	fileService, err := services.NewFileService(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize upload dir")
	}
	chatService := services.NewChatService(chatStore, chatProcessor, objects, events, fileService)

	h := handlers.NewHandler(chatService, fileService, servedObjects).WithHealthCheck(healthCheck)
	mcp := mcpserver.NewServer(chatService, llmClient.Images)

	r := mux.NewRouter()
	h.Register(r)
	r.Handle("/mcp", mcpserver.AuthMiddleware(cfg.MCPAuthToken)(mcp.Handler())).Methods("POST")

	srv := &http.Server{
		Addr:        cfg.HTTPAddr,
		Handler:     r,
		ReadTimeout: 60 * time.Second,
		// completion plus illustration can take well over a minute
		WriteTimeout: 5 * time.Minute,
	}

	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("API listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down API...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server shutdown error")
	}
	log.Info().Msg("API exited")
}

// ocrProvider selects the OCR backend named by OCR_PROVIDER.
func ocrProvider(cfg *config.Config) extract.OCRProvider {
	switch cfg.OCRProvider {
	case "tesseract":
		return extract.TesseractOCR(cfg.TesseractPath, cfg.TesseractLang)
	case "gcp_vision":
		return extract.CloudVisionOCR()
	case "gemini":
		return llm.GeminiOCR(cfg.GeminiAPIKey, cfg.GeminiAPIEndpoint, cfg.GeminiModelVision)
	case "none":
		return extract.UnavailableOCR
	default:
		log.Warn().Str("provider", cfg.OCRProvider).Msg("Unknown OCR_PROVIDER, image text extraction disabled")
		return extract.UnavailableOCR
	}
}
