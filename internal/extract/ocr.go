package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// ErrOCRUnavailable is returned by the provider used when no OCR backend is configured.
var ErrOCRUnavailable = errors.New("no OCR engine configured")

// OCREngine recognizes text in a single image. Engines are not shared:
// one is created per image and closed when that image is done.
type OCREngine interface {
	Recognize(ctx context.Context, imagePath string) (string, error)
	Close() error
}

// OCRProvider creates a fresh engine.
type OCRProvider func(ctx context.Context) (OCREngine, error)

// UnavailableOCR is the provider used when OCR is disabled.
func UnavailableOCR(ctx context.Context) (OCREngine, error) {
	return nil, ErrOCRUnavailable
}

// TesseractOCR returns a provider backed by the tesseract CLI.
func TesseractOCR(binary, lang string) OCRProvider {
	if binary == "" {
		binary = "tesseract"
	}
	if lang == "" {
		lang = "eng"
	}
	return func(ctx context.Context) (OCREngine, error) {
		if _, err := exec.LookPath(binary); err != nil {
			return nil, fmt.Errorf("tesseract not found: %w", err)
		}
		workDir, err := os.MkdirTemp("", "tutor-ocr-*")
		if err != nil {
			return nil, fmt.Errorf("failed to create temp dir: %w", err)
		}
		return &tesseractEngine{binary: binary, lang: lang, workDir: workDir}, nil
	}
}

type tesseractEngine struct {
	binary  string
	lang    string
	workDir string
}

func (e *tesseractEngine) Recognize(ctx context.Context, imagePath string) (string, error) {
	outBase := filepath.Join(e.workDir, "out")
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, e.binary, imagePath, outBase, "-l", e.lang)
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("tesseract failed: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	data, err := os.ReadFile(outBase + ".txt")
	if err != nil {
		return "", fmt.Errorf("read tesseract output: %w", err)
	}
	return string(data), nil
}

func (e *tesseractEngine) Close() error {
	return os.RemoveAll(e.workDir)
}
