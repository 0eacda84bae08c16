package llm

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/sashabaranov/go-openai"
	"github.com/snappy-loop/tutor/internal/models"
	unifiedgenai "google.golang.org/genai"
)

// maxImageDownloadBytes caps a downloaded illustration.
const maxImageDownloadBytes = 20 << 20

// Image is raw image bytes returned by a generator.
type Image struct {
	Data     []byte
	MimeType string // e.g. "image/png"
	Model    string
}

// ImageGenerator is one tier of the illustration chain.
type ImageGenerator interface {
	Name() string
	GenerateImage(ctx context.Context, prompt string) (*Image, error)
}

// ImageGateway produces an SVG illustration for an answer. It never fails:
// when every generator fails, a procedural placeholder is returned.
type ImageGateway struct {
	generators []ImageGenerator

	mu  sync.Mutex
	rng *rand.Rand
}

// NewImageGateway creates a gateway. rng drives placeholder colours.
func NewImageGateway(rng *rand.Rand, generators ...ImageGenerator) *ImageGateway {
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}
	return &ImageGateway{generators: generators, rng: rng}
}

// GenerateIllustration returns an SVG for topic, using answerContext to guide the image.
func (g *ImageGateway) GenerateIllustration(ctx context.Context, topic, answerContext string) models.ImageResult {
	topic = strings.TrimSpace(topic)
	prompt := BuildIllustrationPrompt(topic, answerContext)

	for _, gen := range g.generators {
		img, err := gen.GenerateImage(ctx, prompt)
		if err != nil {
			log.Warn().Err(err).Str("generator", gen.Name()).Msg("Image generation failed, trying next")
			continue
		}
		if img == nil || len(img.Data) == 0 {
			log.Warn().Str("generator", gen.Name()).Msg("Image generator returned no data, trying next")
			continue
		}
		log.Info().
			Str("generator", gen.Name()).
			Int("image_size_bytes", len(img.Data)).
			Str("mime_type", img.MimeType).
			Msg("Illustration generated")
		return models.ImageResult{Status: "success", SVGMarkup: WrapImageSVG(topic, img), Source: gen.Name()}
	}

	g.mu.Lock()
	hue := randomHue(g.rng)
	g.mu.Unlock()

	log.Info().Str("topic", topic).Int("hue", hue).Msg("Using placeholder illustration")
	return models.ImageResult{Status: "success", SVGMarkup: PlaceholderSVG(topic, hue), Source: "placeholder"}
}

// WrapImageSVG embeds a raster image as a base64 data URI inside a 1024x1024 SVG.
func WrapImageSVG(topic string, img *Image) string {
	mimeType := img.MimeType
	if mimeType == "" {
		mimeType = "image/png"
	}
	title := escapeSVGText(topic)
	var b strings.Builder
	b.WriteString(`<svg xmlns="http://www.w3.org/2000/svg" width="1024" height="1024" viewBox="0 0 1024 1024" role="img">`)
	fmt.Fprintf(&b, "\n  <title>%s</title>", title)
	fmt.Fprintf(&b, "\n  <desc>Educational illustration for %s</desc>", title)
	fmt.Fprintf(&b, "\n  <image x=\"0\" y=\"0\" width=\"1024\" height=\"1024\" preserveAspectRatio=\"xMidYMid meet\" href=\"data:%s;base64,%s\"/>",
		escapeSVGText(mimeType), base64.StdEncoding.EncodeToString(img.Data))
	b.WriteString("\n</svg>")
	return b.String()
}

// OpenAIImageGenerator requests an image URL from the OpenAI images API and downloads it.
type OpenAIImageGenerator struct {
	client     *openai.Client
	model      string
	httpClient *http.Client
}

// NewOpenAIImageGenerator creates a generator; baseURL may be empty for the public API.
func NewOpenAIImageGenerator(apiKey, baseURL, model string, httpClient *http.Client) *OpenAIImageGenerator {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = strings.TrimSuffix(baseURL, "/")
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &OpenAIImageGenerator{
		client:     openai.NewClientWithConfig(cfg),
		model:      model,
		httpClient: httpClient,
	}
}

func (g *OpenAIImageGenerator) Name() string { return "openai" }

func (g *OpenAIImageGenerator) GenerateImage(ctx context.Context, prompt string) (*Image, error) {
	resp, err := g.client.CreateImage(ctx, openai.ImageRequest{
		Prompt:         prompt,
		Model:          g.model,
		N:              1,
		Size:           openai.CreateImageSize1024x1024,
		Quality:        openai.CreateImageQualityStandard,
		ResponseFormat: openai.CreateImageResponseFormatURL,
	})
	if err != nil {
		return nil, fmt.Errorf("openai image request: %w", err)
	}
	if len(resp.Data) == 0 || resp.Data[0].URL == "" {
		return nil, errors.New("openai image response has no url")
	}
	data, mimeType, err := g.download(ctx, resp.Data[0].URL)
	if err != nil {
		return nil, err
	}
	return &Image{Data: data, MimeType: mimeType, Model: g.model}, nil
}

func (g *OpenAIImageGenerator) download(ctx context.Context, imageURL string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("build download request: %w", err)
	}
	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, "", fmt.Errorf("download image: unexpected status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageDownloadBytes))
	if err != nil {
		return nil, "", fmt.Errorf("read image: %w", err)
	}
	if len(data) == 0 {
		return nil, "", errors.New("downloaded image is empty")
	}
	mimeType := resp.Header.Get("Content-Type")
	if !strings.HasPrefix(mimeType, "image/") {
		mimeType = http.DetectContentType(data)
	}
	return data, mimeType, nil
}

// GeminiImageGenerator asks a Gemini image model for an inline image.
type GeminiImageGenerator struct {
	client *unifiedgenai.Client
	model  string
}

// NewGeminiImageGenerator creates a generator over an existing unified genai client.
func NewGeminiImageGenerator(client *unifiedgenai.Client, model string) *GeminiImageGenerator {
	return &GeminiImageGenerator{client: client, model: model}
}

func (g *GeminiImageGenerator) Name() string { return "gemini" }

func (g *GeminiImageGenerator) GenerateImage(ctx context.Context, prompt string) (*Image, error) {
	if g.client == nil {
		return nil, errNotConfigured
	}
	config := &unifiedgenai.GenerateContentConfig{
		ResponseModalities: []string{"TEXT", "IMAGE"},
	}
	result, err := g.client.Models.GenerateContent(ctx, g.model, unifiedgenai.Text(prompt), config)
	if err != nil {
		return nil, fmt.Errorf("gemini image request: %w", err)
	}
	for _, cand := range result.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if part == nil || part.InlineData == nil || len(part.InlineData.Data) == 0 {
				continue
			}
			mimeType := part.InlineData.MIMEType
			if mimeType == "" {
				mimeType = "image/png"
			}
			return &Image{Data: part.InlineData.Data, MimeType: mimeType, Model: g.model}, nil
		}
	}
	return nil, fmt.Errorf("no image blob in response (candidates=%d)", len(result.Candidates))
}
