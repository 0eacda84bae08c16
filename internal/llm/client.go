package llm

import (
	"context"
	"math/rand"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/googleai"
	langopenai "github.com/tmc/langchaingo/llms/openai"
	unifiedgenai "google.golang.org/genai"
)

// maxResponseLogBytes is the max length of a model response to log in full.
const maxResponseLogBytes = 8192

// httpClientForEndpoint returns an http.Client that rewrites request URLs to the given base endpoint (e.g. http://host.docker.internal:31300/gemini).
func httpClientForEndpoint(baseEndpoint string) *http.Client {
	base, err := url.Parse(baseEndpoint)
	if err != nil {
		log.Warn().Err(err).Str("endpoint", baseEndpoint).Msg("Invalid GEMINI_API_ENDPOINT, using default")
		return nil
	}
	base.Path = strings.TrimSuffix(base.Path, "/")
	return &http.Client{
		Transport: &endpointRoundTripper{base: base, next: http.DefaultTransport},
	}
}

// endpointRoundTripper rewrites request URLs to a custom base (scheme, host, path prefix).
type endpointRoundTripper struct {
	base *url.URL
	next http.RoundTripper
}

func (e *endpointRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	req2 := req.Clone(req.Context())
	req2.URL.Scheme = e.base.Scheme
	req2.URL.Host = e.base.Host
	req2.URL.Path = path.Join(e.base.Path, strings.TrimPrefix(req.URL.Path, "/"))
	return e.next.RoundTrip(req2)
}

// logModelResponse logs a model response, truncating if over maxResponseLogBytes.
func logModelResponse(caller, raw string) {
	if len(raw) <= maxResponseLogBytes {
		log.Debug().Str("caller", caller).Str("model_response", raw).Msg("Model response")
		return
	}
	log.Debug().
		Str("caller", caller).
		Str("model_response", raw[:maxResponseLogBytes]+"... [truncated]").
		Int("model_response_len", len(raw)).
		Msg("Model response")
}

// Options configures the remote providers behind the gateways.
// Empty API keys disable the corresponding tiers.
type Options struct {
	OpenAIAPIKey     string
	OpenAIBaseURL    string
	OpenAIModel      string
	OpenAIImageModel string

	GeminiAPIKey      string
	GeminiAPIEndpoint string
	GeminiModel       string
	GeminiModelImage  string

	ImageDownloadTimeout time.Duration
	Rand                 *rand.Rand // placeholder colours; seeded from the clock when nil
}

// Client bundles the completion and illustration gateways.
type Client struct {
	Completion *CompletionGateway
	Images     *ImageGateway
}

// NewClient builds both gateways from opts. Providers that fail to initialize are skipped.
func NewClient(opts Options) *Client {
	if opts.OpenAIModel == "" {
		opts.OpenAIModel = "gpt-3.5-turbo"
	}
	if opts.OpenAIImageModel == "" {
		opts.OpenAIImageModel = "dall-e-3"
	}
	if opts.GeminiModel == "" {
		opts.GeminiModel = "gemini-2.5-flash"
	}
	if opts.GeminiModelImage == "" {
		opts.GeminiModelImage = "gemini-2.5-flash-image"
	}
	if opts.ImageDownloadTimeout <= 0 {
		opts.ImageDownloadTimeout = 60 * time.Second
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	var completions []CompletionStrategy
	var images []ImageGenerator

	if opts.OpenAIAPIKey != "" {
		clientOpts := []langopenai.Option{
			langopenai.WithToken(opts.OpenAIAPIKey),
			langopenai.WithModel(opts.OpenAIModel),
		}
		if opts.OpenAIBaseURL != "" {
			clientOpts = append(clientOpts, langopenai.WithBaseURL(opts.OpenAIBaseURL))
		}
		model, err := langopenai.New(clientOpts...)
		if err != nil {
			log.Error().Err(err).Msg("Failed to initialize OpenAI chat model")
		} else {
			completions = append(completions, NewModelStrategy("openai", model))
		}
		images = append(images, NewOpenAIImageGenerator(opts.OpenAIAPIKey, opts.OpenAIBaseURL, opts.OpenAIImageModel, &http.Client{Timeout: opts.ImageDownloadTimeout}))
	}

	if opts.GeminiAPIKey != "" {
		if model := newGeminiModel(opts.GeminiAPIKey, opts.GeminiModel, opts.GeminiAPIEndpoint); model != nil {
			completions = append(completions, NewModelStrategy("gemini", model))
		}
		unifiedCfg := &unifiedgenai.ClientConfig{APIKey: opts.GeminiAPIKey, Backend: unifiedgenai.BackendGeminiAPI}
		if opts.GeminiAPIEndpoint != "" {
			unifiedCfg.HTTPOptions = unifiedgenai.HTTPOptions{BaseURL: opts.GeminiAPIEndpoint}
		}
		unifiedClient, err := unifiedgenai.NewClient(context.Background(), unifiedCfg)
		if err != nil {
			log.Error().Err(err).Msg("Failed to initialize unified genai client for images")
		} else {
			images = append(images, NewGeminiImageGenerator(unifiedClient, opts.GeminiModelImage))
		}
	}

	completions = append(completions, MockStrategy{})

	log.Info().
		Bool("openai", opts.OpenAIAPIKey != "").
		Bool("gemini", opts.GeminiAPIKey != "").
		Str("model_openai", opts.OpenAIModel).
		Str("model_openai_image", opts.OpenAIImageModel).
		Str("model_gemini", opts.GeminiModel).
		Str("model_gemini_image", opts.GeminiModelImage).
		Int("completion_tiers", len(completions)).
		Int("image_tiers", len(images)).
		Msg("LLM client initialized")

	return &Client{
		Completion: NewCompletionGateway(completions...),
		Images:     NewImageGateway(opts.Rand, images...),
	}
}

// newGeminiModel returns a langchaingo Gemini model, or nil when it cannot be created.
func newGeminiModel(apiKey, model, endpoint string) llms.Model {
	geminiOpts := []googleai.Option{googleai.WithAPIKey(apiKey), googleai.WithDefaultModel(model)}
	if endpoint != "" {
		if hc := httpClientForEndpoint(endpoint); hc != nil {
			geminiOpts = append(geminiOpts, googleai.WithHTTPClient(hc))
		}
	}
	llm, err := googleai.New(context.Background(), geminiOpts...)
	if err != nil {
		log.Error().Err(err).Str("model", model).Msg("Failed to initialize Gemini chat model")
		return nil
	}
	return llm
}
