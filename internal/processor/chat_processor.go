package processor

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/snappy-loop/tutor/internal/llm"
	"github.com/snappy-loop/tutor/internal/markup"
	"github.com/snappy-loop/tutor/internal/models"
)

// fallbackHue colours the placeholder drawn after a pipeline panic.
const fallbackHue = 210

// ContentExtractor turns attachments into prompt context.
type ContentExtractor interface {
	Extract(ctx context.Context, attachments []models.Attachment) string
}

// Completer answers a prompt; it never fails.
type Completer interface {
	Complete(ctx context.Context, req llm.CompletionRequest) string
}

// Illustrator draws an SVG for an answer; it never fails.
type Illustrator interface {
	GenerateIllustration(ctx context.Context, topic, answerContext string) models.ImageResult
}

// ChatProcessor runs one user turn through extraction, prompting, completion,
// formatting and optional illustration.
type ChatProcessor struct {
	extractor   ContentExtractor
	completer   Completer
	illustrator Illustrator
}

// NewChatProcessor creates a processor from its pipeline stages.
func NewChatProcessor(extractor ContentExtractor, completer Completer, illustrator Illustrator) *ChatProcessor {
	return &ChatProcessor{
		extractor:   extractor,
		completer:   completer,
		illustrator: illustrator,
	}
}

// ProcessMessage always returns a result. Stage failures are absorbed by the stages;
// a panic anywhere in the pipeline yields the fallback answer.
func (p *ChatProcessor) ProcessMessage(ctx context.Context, in models.MessageInput) (result *models.MessageResult) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("Message pipeline panicked, returning fallback answer")
			result = &models.MessageResult{Content: llm.FallbackAnswer}
			if in.GenerateImage {
				result.Image = &models.ImageResult{
					Status:    "success",
					SVGMarkup: llm.PlaceholderSVG(illustrationTopic(in.Question), fallbackHue),
					Source:    "placeholder",
				}
			}
		}
	}()

	log.Info().
		Int("question_len", len(in.Question)).
		Int("attachments", len(in.Attachments)).
		Int("detail_level", in.Detail.Marks()).
		Bool("generate_image", in.GenerateImage).
		Msg("Processing message")

	// Step 1: extract attachment content
	var extracted string
	if len(in.Attachments) > 0 {
		extracted = p.extractor.Extract(ctx, in.Attachments)
	}

	// Step 2: build prompt and complete
	prompt := llm.BuildPrompt(in.Question, extracted, in.Detail)
	answer := p.completer.Complete(ctx, llm.CompletionRequest{
		Prompt:   prompt,
		Question: in.Question,
		Detail:   in.Detail,
		HasFiles: extracted != "",
	})

	// Step 3: normalize markdown
	result = &models.MessageResult{
		Content:          markup.Format(answer),
		ExtractedContent: extracted,
	}

	// Step 4: optional illustration
	if in.GenerateImage {
		result.Image = p.illustrate(ctx, in.Question, result.Content)
	}

	log.Info().
		Int("content_len", len(result.Content)).
		Bool("image", result.Image != nil).
		Dur("duration", time.Since(start)).
		Msg("Message processed")
	return result
}

func (p *ChatProcessor) illustrate(ctx context.Context, question, answer string) *models.ImageResult {
	img := p.illustrator.GenerateIllustration(ctx, illustrationTopic(question), answer)
	return &img
}

// illustrationTopic is the trimmed question, or a generic label for file-only turns.
func illustrationTopic(question string) string {
	if topic := strings.TrimSpace(question); topic != "" {
		return topic
	}
	return llm.Topic("")
}
