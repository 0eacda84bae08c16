package llm

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

type stubImageGenerator struct {
	name  string
	img   *Image
	err   error
	calls int
}

func (s *stubImageGenerator) Name() string { return s.name }

func (s *stubImageGenerator) GenerateImage(ctx context.Context, prompt string) (*Image, error) {
	s.calls++
	return s.img, s.err
}

func TestImageGateway_WrapsGeneratedImage(t *testing.T) {
	data := []byte("\x89PNG fake")
	gen := &stubImageGenerator{name: "openai", img: &Image{Data: data, MimeType: "image/png"}}
	g := NewImageGateway(rand.New(rand.NewSource(1)), gen)

	got := g.GenerateIllustration(context.Background(), "Photosynthesis", "Plants convert light into energy.")

	if got.Status != "success" || got.Source != "openai" {
		t.Errorf("GenerateIllustration() = status %q source %q", got.Status, got.Source)
	}
	wantHref := `href="data:image/png;base64,` + base64.StdEncoding.EncodeToString(data) + `"`
	if !strings.Contains(got.SVGMarkup, wantHref) {
		t.Errorf("SVG missing data URI %q", wantHref)
	}
	if !strings.Contains(got.SVGMarkup, `width="1024" height="1024"`) {
		t.Error("SVG is not 1024x1024")
	}
}

func TestImageGateway_FallsBackToPlaceholder(t *testing.T) {
	tests := []struct {
		name string
		gens []ImageGenerator
	}{
		{"no generators", nil},
		{"generator error", []ImageGenerator{&stubImageGenerator{name: "openai", err: errors.New("content policy")}}},
		{"empty image", []ImageGenerator{&stubImageGenerator{name: "openai", img: &Image{}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewImageGateway(rand.New(rand.NewSource(7)), tt.gens...)
			got := g.GenerateIllustration(context.Background(), "Photosynthesis Process Explained", "")
			if got.Status != "success" {
				t.Errorf("status = %q, want success", got.Status)
			}
			if !strings.Contains(got.SVGMarkup, "<circle") || !strings.Contains(got.SVGMarkup, ">PPE</text>") {
				t.Errorf("placeholder SVG missing circle or acronym: %s", got.SVGMarkup)
			}
		})
	}
}

func TestImageGateway_SecondGeneratorUsed(t *testing.T) {
	first := &stubImageGenerator{name: "openai", err: errors.New("rate limited")}
	second := &stubImageGenerator{name: "gemini", img: &Image{Data: []byte("jpg"), MimeType: "image/jpeg"}}
	g := NewImageGateway(nil, first, second)

	got := g.GenerateIllustration(context.Background(), "Cells", "")
	if got.Source != "gemini" {
		t.Errorf("source = %q, want gemini", got.Source)
	}
	if !strings.Contains(got.SVGMarkup, "data:image/jpeg;base64,") {
		t.Error("SVG does not carry the jpeg data URI")
	}
}

func TestWrapImageSVG_EscapesTopic(t *testing.T) {
	svg := WrapImageSVG(`Cells <b>"&"</b>`, &Image{Data: []byte("x")})
	for _, tag := range []string{"title", "desc"} {
		if text := between(svg, "<"+tag+">", "</"+tag+">"); strings.ContainsAny(text, `<>"`) {
			t.Errorf("<%s> contains raw markup characters: %q", tag, text)
		}
	}
}

func TestBuildIllustrationPrompt(t *testing.T) {
	answer := strings.Repeat("é", 600)
	got := BuildIllustrationPrompt("Photosynthesis", answer)
	if !strings.Contains(got, `"Photosynthesis"`) {
		t.Error("prompt missing topic")
	}
	if n := strings.Count(got, "é"); n != 500 {
		t.Errorf("prompt embeds %d runes of the answer, want 500", n)
	}
}

func TestOpenAIImageGenerator(t *testing.T) {
	png := []byte("\x89PNG\r\n\x1a\n image bytes")
	var gotReq map[string]any

	mux := http.NewServeMux()
	var srv *httptest.Server
	mux.HandleFunc("/v1/images/generations", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&gotReq)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"created": 1,
			"data":    []map[string]any{{"url": srv.URL + "/files/img.png"}},
		})
	})
	mux.HandleFunc("/files/img.png", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(png)
	})
	srv = httptest.NewServer(mux)
	defer srv.Close()

	gen := NewOpenAIImageGenerator("test-key", srv.URL+"/v1", "dall-e-3", srv.Client())
	img, err := gen.GenerateImage(context.Background(), "draw a leaf")
	if err != nil {
		t.Fatalf("GenerateImage() error = %v", err)
	}
	if string(img.Data) != string(png) {
		t.Errorf("image data = %q, want %q", img.Data, png)
	}
	if img.MimeType != "image/png" {
		t.Errorf("mime type = %q, want image/png", img.MimeType)
	}

	for key, want := range map[string]any{
		"model":           "dall-e-3",
		"size":            "1024x1024",
		"quality":         "standard",
		"response_format": "url",
		"n":               float64(1),
	} {
		if gotReq[key] != want {
			t.Errorf("request %s = %v, want %v", key, gotReq[key], want)
		}
	}
}

func TestOpenAIImageGenerator_DownloadFailure(t *testing.T) {
	mux := http.NewServeMux()
	var srv *httptest.Server
	mux.HandleFunc("/v1/images/generations", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{{"url": srv.URL + "/gone.png"}},
		})
	})
	mux.HandleFunc("/gone.png", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	srv = httptest.NewServer(mux)
	defer srv.Close()

	gen := NewOpenAIImageGenerator("test-key", srv.URL+"/v1", "dall-e-3", srv.Client())
	g := NewImageGateway(rand.New(rand.NewSource(3)), gen)

	got := g.GenerateIllustration(context.Background(), "Photosynthesis Process Explained", "answer")
	if got.Source != "placeholder" {
		t.Errorf("source = %q, want placeholder after a failed download", got.Source)
	}
}
