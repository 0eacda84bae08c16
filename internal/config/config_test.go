package config

import (
	"reflect"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"MAX_TEXT_FILE_LEN", "KAFKA_BROKERS", "S3_BUCKET", "OCR_PROVIDER", "MAX_FILE_SIZE", "EXTRACT_CONCURRENCY", "PUBLIC_BASE_URL"} {
		t.Setenv(key, "")
	}
	cfg := Load()

	if cfg.KafkaBrokers != nil {
		t.Errorf("KafkaBrokers = %v, want nil", cfg.KafkaBrokers)
	}
	if cfg.S3Bucket != "" {
		t.Errorf("S3Bucket = %q, want empty", cfg.S3Bucket)
	}
	if cfg.OCRProvider != "tesseract" {
		t.Errorf("OCRProvider = %q", cfg.OCRProvider)
	}
	if cfg.MaxFileSize != 10*1024*1024 {
		t.Errorf("MaxFileSize = %d", cfg.MaxFileSize)
	}
	if cfg.ExtractConcurrency != 4 {
		t.Errorf("ExtractConcurrency = %d", cfg.ExtractConcurrency)
	}
	if cfg.ImageDownloadTimeout != 60*time.Second {
		t.Errorf("ImageDownloadTimeout = %v", cfg.ImageDownloadTimeout)
	}
	if cfg.MaxTextFileLen != 0 {
		t.Errorf("MaxTextFileLen = %d, want unlimited", cfg.MaxTextFileLen)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, ,kafka-2:9092")
	t.Setenv("OCR_PROVIDER", "GCP_VISION")
	t.Setenv("EXTRACT_CONCURRENCY", "0")
	t.Setenv("DEEP_DOCUMENT_EXTRACTION", "true")
	t.Setenv("IMAGE_DOWNLOAD_TIMEOUT", "15s")
	t.Setenv("PUBLIC_BASE_URL", "https://tutor.example.com/")
	t.Setenv("MAX_FILES_PER_MESSAGE", "not-a-number")
	t.Setenv("MAX_TEXT_FILE_LEN", "-5")

	cfg := Load()

	if want := []string{"kafka-1:9092", "kafka-2:9092"}; !reflect.DeepEqual(cfg.KafkaBrokers, want) {
		t.Errorf("KafkaBrokers = %v, want %v", cfg.KafkaBrokers, want)
	}
	if cfg.OCRProvider != "gcp_vision" {
		t.Errorf("OCRProvider = %q", cfg.OCRProvider)
	}
	if cfg.ExtractConcurrency != 1 {
		t.Errorf("ExtractConcurrency = %d, want clamped to 1", cfg.ExtractConcurrency)
	}
	if !cfg.DeepDocumentExtraction {
		t.Error("DeepDocumentExtraction = false")
	}
	if cfg.ImageDownloadTimeout != 15*time.Second {
		t.Errorf("ImageDownloadTimeout = %v", cfg.ImageDownloadTimeout)
	}
	if cfg.PublicBaseURL != "https://tutor.example.com" {
		t.Errorf("PublicBaseURL = %q", cfg.PublicBaseURL)
	}
	if cfg.MaxTextFileLen != 0 {
		t.Errorf("MaxTextFileLen = %d, want clamped to 0", cfg.MaxTextFileLen)
	}
	if cfg.MaxFilesPerMessage != 10 {
		t.Errorf("MaxFilesPerMessage = %d, want default 10", cfg.MaxFilesPerMessage)
	}
}
