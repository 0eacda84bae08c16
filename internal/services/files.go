package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/snappy-loop/tutor/internal/config"
	"github.com/snappy-loop/tutor/internal/models"
)

var (
	// ErrFileTooLarge is returned when an upload exceeds MaxFileSize.
	ErrFileTooLarge = errors.New("file too large")
	// ErrTooManyFiles is returned when a message carries more than MaxFilesPerMessage files.
	ErrTooManyFiles = errors.New("too many files")
)

// FileService stores uploads for the duration of one turn.
type FileService struct {
	dir      string
	maxSize  int64
	maxFiles int
}

// NewFileService creates the upload directory.
func NewFileService(cfg *config.Config) (*FileService, error) {
	if err := os.MkdirAll(cfg.UploadDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload dir: %w", err)
	}
	return &FileService{
		dir:      cfg.UploadDir,
		maxSize:  cfg.MaxFileSize,
		maxFiles: cfg.MaxFilesPerMessage,
	}, nil
}

// MaxFiles is the per-message upload limit.
func (s *FileService) MaxFiles() int { return s.maxFiles }

// SaveUpload writes one upload to disk. A missing or generic MIME type is resolved from the extension or content.
func (s *FileService) SaveUpload(ctx context.Context, filename, mimeType string, data io.Reader) (models.Attachment, error) {
	filename = filepath.Base(filename)
	if filename == "" || filename == "." || filename == string(filepath.Separator) {
		filename = "upload"
	}

	path := filepath.Join(s.dir, uuid.New().String()+getExtension(filename, mimeType))
	f, err := os.Create(path)
	if err != nil {
		return models.Attachment{}, fmt.Errorf("failed to create upload file: %w", err)
	}

	n, err := io.Copy(f, io.LimitReader(data, s.maxSize+1))
	closeErr := f.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(path)
		return models.Attachment{}, fmt.Errorf("failed to write upload: %w", err)
	}
	if n > s.maxSize {
		_ = os.Remove(path)
		return models.Attachment{}, fmt.Errorf("%w: %s exceeds %d bytes", ErrFileTooLarge, filename, s.maxSize)
	}

	mimeType = resolveMimeType(filename, mimeType, path)

	log.Debug().
		Str("filename", filename).
		Str("mime_type", mimeType).
		Int64("size", n).
		Msg("Upload saved")

	return models.Attachment{
		Name:        filename,
		MimeType:    mimeType,
		StoragePath: path,
		SizeBytes:   n,
	}, nil
}

// Discard removes uploaded files once a turn is done.
func (s *FileService) Discard(attachments []models.Attachment) {
	for _, a := range attachments {
		if a.StoragePath == "" {
			continue
		}
		if err := os.Remove(a.StoragePath); err != nil && !errors.Is(err, os.ErrNotExist) {
			log.Warn().Err(err).Str("path", a.StoragePath).Msg("Failed to remove upload")
		}
	}
}

func resolveMimeType(filename, declared, path string) string {
	declared = strings.TrimSpace(declared)
	if declared != "" && declared != "application/octet-stream" {
		return declared
	}
	if t := mime.TypeByExtension(strings.ToLower(filepath.Ext(filename))); t != "" {
		return t
	}
	f, err := os.Open(path)
	if err != nil {
		return "application/octet-stream"
	}
	defer f.Close()
	head := make([]byte, 512)
	n, _ := io.ReadFull(f, head)
	return http.DetectContentType(head[:n])
}

func getExtension(filename, mimeType string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext != "" {
		return ext
	}
	switch mimeType {
	case "application/pdf":
		return ".pdf"
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	case "text/plain":
		return ".txt"
	default:
		return ""
	}
}
