package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	// Server
	HTTPAddr      string
	LogLevel      string
	PublicBaseURL string // prefix for locally served illustration URLs, e.g. http://localhost:8080
	MCPAuthToken  string // bearer token for POST /mcp; empty = open

	// Database (empty = in-memory chat store)
	DatabaseURL string

	// Kafka (empty brokers = events disabled)
	KafkaBrokers         []string
	KafkaConsumerGroup   string
	KafkaTopicChatEvents string

	// S3/Storage (empty bucket = local illustration dir)
	S3Endpoint      string
	S3Region        string
	S3Bucket        string
	S3AccessKey     string
	S3SecretKey     string
	S3PublicURL     string
	IllustrationDir string

	// OpenAI (completion + images)
	OpenAIAPIKey     string
	OpenAIBaseURL    string
	OpenAIModel      string
	OpenAIImageModel string

	// Gemini (secondary completion, image and OCR tiers)
	GeminiAPIKey      string
	GeminiAPIEndpoint string
	GeminiModel       string
	GeminiModelImage  string
	GeminiModelVision string

	// Uploads
	UploadDir          string
	MaxFileSize        int64 // max size per file in bytes (default 10MB)
	MaxFilesPerMessage int

	// Extraction
	OCRProvider            string // tesseract, gcp_vision, gemini, none
	TesseractPath          string
	TesseractLang          string
	ExtractConcurrency     int
	DeepDocumentExtraction bool
	MaxTextFileLen         int // bytes of a text attachment passed on; 0 = unlimited

	// Illustrations
	ImageDownloadTimeout time.Duration
}

// Load loads configuration from environment variables
func Load() *Config {
	return &Config{
		HTTPAddr:      getEnv("HTTP_ADDR", ":8080"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		PublicBaseURL: strings.TrimSuffix(getEnv("PUBLIC_BASE_URL", ""), "/"),
		MCPAuthToken:  getEnv("MCP_AUTH_TOKEN", ""),

		DatabaseURL: getEnv("DATABASE_URL", ""),

		KafkaBrokers:         getEnvList("KAFKA_BROKERS"),
		KafkaConsumerGroup:   getEnv("KAFKA_CONSUMER_GROUP", "tutor-transcripts"),
		KafkaTopicChatEvents: getEnv("KAFKA_TOPIC_CHAT_EVENTS", "tutor.chat-events.v1"),

		S3Endpoint:      getEnv("S3_ENDPOINT", "http://localhost:9000"),
		S3Region:        getEnv("S3_REGION", "us-east-1"),
		S3Bucket:        getEnv("S3_BUCKET", ""),
		S3AccessKey:     getEnv("S3_ACCESS_KEY", ""),
		S3SecretKey:     getEnv("S3_SECRET_KEY", ""),
		S3PublicURL:     getEnv("S3_PUBLIC_URL", ""),
		IllustrationDir: getEnv("ILLUSTRATION_DIR", "data/illustrations"),

		OpenAIAPIKey:     getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL:    getEnv("OPENAI_BASE_URL", ""),
		OpenAIModel:      getEnv("OPENAI_MODEL", "gpt-3.5-turbo"),
		OpenAIImageModel: getEnv("OPENAI_IMAGE_MODEL", "dall-e-3"),

		GeminiAPIKey:      getEnv("GEMINI_API_KEY", ""),
		GeminiAPIEndpoint: getEnv("GEMINI_API_ENDPOINT", ""),
		GeminiModel:       getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
		GeminiModelImage:  getEnv("GEMINI_MODEL_IMAGE", "gemini-2.5-flash-image"),
		GeminiModelVision: getEnv("GEMINI_MODEL_VISION", "gemini-2.5-flash"),

		UploadDir:          getEnv("UPLOAD_DIR", "data/uploads"),
		MaxFileSize:        getEnvInt64("MAX_FILE_SIZE", 10*1024*1024), // 10MB
		MaxFilesPerMessage: clampMin(getEnvInt("MAX_FILES_PER_MESSAGE", 10), 1),

		OCRProvider:            strings.ToLower(getEnv("OCR_PROVIDER", "tesseract")),
		TesseractPath:          getEnv("TESSERACT_PATH", "tesseract"),
		TesseractLang:          getEnv("TESSERACT_LANG", "eng"),
		ExtractConcurrency:     clampMin(getEnvInt("EXTRACT_CONCURRENCY", 4), 1),
		DeepDocumentExtraction: getEnvBool("DEEP_DOCUMENT_EXTRACTION", false),
		MaxTextFileLen:         clampMin(getEnvInt("MAX_TEXT_FILE_LEN", 0), 0),

		ImageDownloadTimeout: getEnvDuration("IMAGE_DOWNLOAD_TIMEOUT", 60*time.Second),
	}
}

// getEnvList splits a comma-separated variable, dropping blanks.
func getEnvList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// clampMin returns v if v >= min, otherwise min. Used to ensure config values are in valid range.
func clampMin(v, min int) int {
	if v < min {
		return min
	}
	return v
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
