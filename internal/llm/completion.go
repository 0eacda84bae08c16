package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/snappy-loop/tutor/internal/models"
	"github.com/tmc/langchaingo/llms"
)

const (
	completionTemperature = 0.7
	completionMaxTokens   = 2000
)

// FallbackAnswer is returned when every completion strategy failed.
const FallbackAnswer = "I'm sorry, I couldn't generate an answer right now. Please try asking your question again in a moment."

var errNotConfigured = errors.New("provider not configured")

// CompletionRequest carries the prompt plus the raw inputs the offline generator needs.
type CompletionRequest struct {
	Prompt   Prompt
	Question string
	Detail   models.DetailLevel
	HasFiles bool
}

// CompletionStrategy is one tier of the completion chain.
type CompletionStrategy interface {
	Name() string
	TryComplete(ctx context.Context, req CompletionRequest) (string, error)
}

// CompletionGateway tries strategies in order and returns the first non-empty answer.
type CompletionGateway struct {
	strategies []CompletionStrategy
}

// NewCompletionGateway creates a gateway over the given strategies, in priority order.
func NewCompletionGateway(strategies ...CompletionStrategy) *CompletionGateway {
	return &CompletionGateway{strategies: strategies}
}

// Complete never fails: strategy errors are logged and the next tier is tried.
func (g *CompletionGateway) Complete(ctx context.Context, req CompletionRequest) string {
	for _, s := range g.strategies {
		content, err := s.TryComplete(ctx, req)
		if err != nil {
			if errors.Is(err, errNotConfigured) {
				continue
			}
			log.Warn().Err(err).Str("strategy", s.Name()).Msg("Completion strategy failed, trying next")
			continue
		}
		if strings.TrimSpace(content) == "" {
			log.Warn().Str("strategy", s.Name()).Msg("Completion strategy returned empty content, trying next")
			continue
		}
		log.Info().Str("strategy", s.Name()).Int("content_len", len(content)).Msg("Completion generated")
		return content
	}
	log.Error().Msg("All completion strategies failed, using fallback answer")
	return FallbackAnswer
}

// ModelStrategy sends the prompt to a langchaingo chat model.
type ModelStrategy struct {
	name  string
	model llms.Model
}

// NewModelStrategy wraps model as a named completion tier. A nil model is skipped.
func NewModelStrategy(name string, model llms.Model) *ModelStrategy {
	return &ModelStrategy{name: name, model: model}
}

func (s *ModelStrategy) Name() string { return s.name }

func (s *ModelStrategy) TryComplete(ctx context.Context, req CompletionRequest) (string, error) {
	if s.model == nil {
		return "", errNotConfigured
	}
	messages := []llms.MessageContent{
		{Role: llms.ChatMessageTypeSystem, Parts: []llms.ContentPart{llms.TextContent{Text: req.Prompt.System}}},
		{Role: llms.ChatMessageTypeHuman, Parts: []llms.ContentPart{llms.TextContent{Text: req.Prompt.User}}},
	}
	resp, err := s.model.GenerateContent(ctx, messages,
		llms.WithTemperature(completionTemperature),
		llms.WithMaxTokens(completionMaxTokens),
	)
	if err != nil {
		return "", fmt.Errorf("%s completion: %w", s.name, err)
	}
	if resp == nil || len(resp.Choices) == 0 {
		return "", fmt.Errorf("%s completion: empty response from model", s.name)
	}
	content := resp.Choices[0].Content
	logModelResponse("Complete/"+s.name, content)
	return content, nil
}
