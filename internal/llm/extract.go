package llm

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/snappy-loop/tutor/internal/extract"
	"google.golang.org/api/option"
)

const ocrSystemPrompt = "Transcribe all text visible in the image provided by the user, including handwriting, equations and labels. " +
	"Output only the transcribed text, preserving line breaks. Do not describe the image. " +
	"If the image contains no text, output nothing."

// GeminiOCR returns an OCR provider backed by Gemini vision. Each engine owns its own client.
func GeminiOCR(apiKey, apiEndpoint, model string) extract.OCRProvider {
	return func(ctx context.Context) (extract.OCREngine, error) {
		if apiKey == "" {
			return nil, fmt.Errorf("gemini ocr: %w", errNotConfigured)
		}
		opts := []option.ClientOption{option.WithAPIKey(apiKey)}
		if apiEndpoint != "" {
			opts = append(opts, option.WithEndpoint(apiEndpoint))
		}
		client, err := genai.NewClient(ctx, opts...)
		if err != nil {
			return nil, fmt.Errorf("gemini ocr client: %w", err)
		}
		return &geminiOCREngine{client: client, model: model}, nil
	}
}

type geminiOCREngine struct {
	client *genai.Client
	model  string
}

func (e *geminiOCREngine) Recognize(ctx context.Context, imagePath string) (string, error) {
	data, err := os.ReadFile(imagePath)
	if err != nil {
		return "", fmt.Errorf("read image: %w", err)
	}
	mimeType := http.DetectContentType(data)
	if !strings.HasPrefix(mimeType, "image/") {
		mimeType = "image/png"
	}

	model := e.client.GenerativeModel(e.model)
	model.SetTemperature(0)
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(ocrSystemPrompt)},
		Role:  "system",
	}

	resp, err := model.GenerateContent(ctx, genai.Blob{MIMEType: mimeType, Data: data})
	if err != nil {
		return "", fmt.Errorf("gemini vision failed: %w", err)
	}

	var result strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				result.WriteString(string(text))
			}
		}
	}
	logModelResponse("GeminiOCR", result.String())
	return result.String(), nil
}

func (e *geminiOCREngine) Close() error {
	return e.client.Close()
}
