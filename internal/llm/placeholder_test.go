package llm

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestAcronym(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Photosynthesis Process Explained", "PPE"},
		{"the cell cycle and mitosis stages", "CCM"},
		{"How do plants make food", "PMF"},
		{"Newton's laws of motion and gravity explained", "NLM"},
		{"a of to", "A"},
		{"", "Q"},
		{"élan vital", "ÉV"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := acronym(tt.in); got != tt.want {
				t.Errorf("acronym(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestCaption(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"short", "Photosynthesis", "Photosynthesis"},
		{"exactly forty", strings.Repeat("a", 40), strings.Repeat("a", 40)},
		{"long", strings.Repeat("b", 50), strings.Repeat("b", 37) + "..."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := caption(tt.in)
			if got != tt.want {
				t.Errorf("caption(%q) = %q, want %q", tt.in, got, tt.want)
			}
			if n := utf8.RuneCountInString(got); n > maxCaptionRunes {
				t.Errorf("caption length %d exceeds %d", n, maxCaptionRunes)
			}
		})
	}
}

func TestPlaceholderSVG(t *testing.T) {
	svg := PlaceholderSVG("Photosynthesis Process Explained", 120)

	for _, want := range []string{
		`<svg xmlns="http://www.w3.org/2000/svg" width="1024" height="1024"`,
		"<circle ",
		">PPE</text>",
		"hsl(120, 70%, 85%)",
		"<title>Photosynthesis Process Explained</title>",
	} {
		if !strings.Contains(svg, want) {
			t.Errorf("placeholder SVG missing %q", want)
		}
	}
}

func TestPlaceholderSVG_EscapesText(t *testing.T) {
	topic := `<script>alert("x")</script> & "quotes"`
	svg := PlaceholderSVG(topic, 10)

	for _, tag := range []string{"title", "desc"} {
		text := between(svg, "<"+tag+">", "</"+tag+">")
		if strings.ContainsAny(text, `<>"`) {
			t.Errorf("<%s> contains raw markup characters: %q", tag, text)
		}
	}
	if strings.Contains(svg, "<script>") {
		t.Error("SVG contains an unescaped <script> tag")
	}
}

func TestPlaceholderSVG_HueWraps(t *testing.T) {
	if svg := PlaceholderSVG("Topic", 400); !strings.Contains(svg, "hsl(40, 70%, 85%)") {
		t.Error("hue 400 should wrap to 40")
	}
}

func between(s, start, end string) string {
	i := strings.Index(s, start)
	if i < 0 {
		return ""
	}
	s = s[i+len(start):]
	j := strings.Index(s, end)
	if j < 0 {
		return ""
	}
	return s[:j]
}
