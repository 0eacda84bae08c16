package llm

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/snappy-loop/tutor/internal/models"
	"github.com/tmc/langchaingo/llms"
)

// fakeModel is a minimal llms.Model for tests.
type fakeModel struct {
	content string
	err     error

	calls    int
	messages []llms.MessageContent
	options  llms.CallOptions
}

func (f *fakeModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	f.calls++
	f.messages = messages
	for _, opt := range options {
		opt(&f.options)
	}
	if f.err != nil {
		return nil, f.err
	}
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: f.content}}}, nil
}

func (f *fakeModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return f.content, f.err
}

// stubStrategy returns a fixed result.
type stubStrategy struct {
	name    string
	content string
	err     error
	calls   int
}

func (s *stubStrategy) Name() string { return s.name }

func (s *stubStrategy) TryComplete(ctx context.Context, req CompletionRequest) (string, error) {
	s.calls++
	return s.content, s.err
}

func TestCompletionGateway_FirstSuccessWins(t *testing.T) {
	first := &stubStrategy{name: "first", content: "from first"}
	second := &stubStrategy{name: "second", content: "from second"}
	g := NewCompletionGateway(first, second)

	if got := g.Complete(context.Background(), CompletionRequest{}); got != "from first" {
		t.Errorf("Complete() = %q, want %q", got, "from first")
	}
	if second.calls != 0 {
		t.Errorf("second strategy called %d times, want 0", second.calls)
	}
}

func TestCompletionGateway_FallsThrough(t *testing.T) {
	tests := []struct {
		name  string
		first *stubStrategy
	}{
		{"error", &stubStrategy{name: "remote", err: errors.New("401 unauthorized")}},
		{"empty content", &stubStrategy{name: "remote", content: "   "}},
		{"not configured", &stubStrategy{name: "remote", err: errNotConfigured}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewCompletionGateway(tt.first, MockStrategy{})
			got := g.Complete(context.Background(), CompletionRequest{Question: "What is osmosis?", Detail: models.DetailBrief})
			if !strings.Contains(got, "(2 marks)") {
				t.Errorf("Complete() = %q, want the mock answer", got)
			}
		})
	}
}

func TestCompletionGateway_AllFail(t *testing.T) {
	g := NewCompletionGateway(&stubStrategy{name: "a", err: errors.New("boom")})
	if got := g.Complete(context.Background(), CompletionRequest{}); got != FallbackAnswer {
		t.Errorf("Complete() = %q, want fallback answer", got)
	}
}

func TestModelStrategy_SendsPromptAndOptions(t *testing.T) {
	model := &fakeModel{content: "Osmosis is diffusion of water."}
	s := NewModelStrategy("openai", model)

	got, err := s.TryComplete(context.Background(), CompletionRequest{
		Prompt: Prompt{System: "sys", User: "usr"},
	})
	if err != nil {
		t.Fatalf("TryComplete() error = %v", err)
	}
	if got != "Osmosis is diffusion of water." {
		t.Errorf("TryComplete() = %q", got)
	}
	if len(model.messages) != 2 {
		t.Fatalf("sent %d messages, want 2", len(model.messages))
	}
	if model.messages[0].Role != llms.ChatMessageTypeSystem || model.messages[1].Role != llms.ChatMessageTypeHuman {
		t.Errorf("roles = %v, %v", model.messages[0].Role, model.messages[1].Role)
	}
	if text := model.messages[1].Parts[0].(llms.TextContent).Text; text != "usr" {
		t.Errorf("user text = %q, want %q", text, "usr")
	}
	if model.options.Temperature != 0.7 {
		t.Errorf("temperature = %v, want 0.7", model.options.Temperature)
	}
	if model.options.MaxTokens != 2000 {
		t.Errorf("max tokens = %d, want 2000", model.options.MaxTokens)
	}
}

func TestModelStrategy_Errors(t *testing.T) {
	tests := []struct {
		name  string
		model llms.Model
	}{
		{"nil model", nil},
		{"model error", &fakeModel{err: errors.New("timeout")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewModelStrategy("x", tt.model).TryComplete(context.Background(), CompletionRequest{}); err == nil {
				t.Error("TryComplete() error = nil, want error")
			}
		})
	}
}

func TestNewClient_WithoutCredentialsUsesMock(t *testing.T) {
	c := NewClient(Options{})
	got := c.Completion.Complete(context.Background(), CompletionRequest{
		Question: "Explain Newton's second law",
		Detail:   models.DetailNone,
	})
	if !strings.HasPrefix(got, "# Explain Newton's second") {
		t.Errorf("Complete() = %q, want the mock answer", got)
	}

	img := c.Images.GenerateIllustration(context.Background(), "Photosynthesis Process Explained", "")
	if img.Status != "success" || img.Source != "placeholder" {
		t.Errorf("GenerateIllustration() = %+v, want placeholder success", img)
	}
}
