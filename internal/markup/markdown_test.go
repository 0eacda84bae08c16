package markup

import (
	"strings"
	"testing"
)

func TestMarkdownToHTML_Headers(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"# Photosynthesis", "<h1>Photosynthesis</h1>"},
		{"## Key Points", "<h2>Key Points</h2>"},
		{"### Detail", "<h3>Detail</h3>"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := MarkdownToHTML(tt.in); got != tt.want {
				t.Errorf("MarkdownToHTML(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestMarkdownToHTML_Lists(t *testing.T) {
	result := MarkdownToHTML("- first\n- second\n- third")
	if strings.Count(result, "<li>") != 3 {
		t.Errorf("expected 3 list items, got: %s", result)
	}
	if !strings.HasPrefix(result, "<ul>") {
		t.Errorf("expected an unordered list, got: %s", result)
	}
}

func TestMarkdownToHTML_Bold(t *testing.T) {
	result := MarkdownToHTML("Force is **mass times acceleration**.")
	if !strings.Contains(result, "<strong>mass times acceleration</strong>") {
		t.Errorf("expected bold text, got: %s", result)
	}
}

func TestMarkdownToHTML_Tables(t *testing.T) {
	input := "| Organelle | Role |\n|---|---|\n| Chloroplast | Photosynthesis |"
	result := MarkdownToHTML(input)
	for _, want := range []string{"<table>", "<th>Organelle</th>", "<td>Chloroplast</td>"} {
		if !strings.Contains(result, want) {
			t.Errorf("expected %q in table output, got: %s", want, result)
		}
	}
}

func TestMarkdownToHTML_XSSPrevention(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"script tag", "<script>alert('x')</script>"},
		{"inline handler", `<img src=x onerror="alert(1)">`},
		{"script in heading", "# Title <script>alert(1)</script>"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MarkdownToHTML(tt.in)
			if strings.Contains(got, "<script>") || strings.Contains(got, "onerror=") {
				t.Errorf("MarkdownToHTML(%q) passed raw HTML through: %s", tt.in, got)
			}
		})
	}
}

func TestMarkdownToHTML_Empty(t *testing.T) {
	if got := MarkdownToHTML(""); got != "" {
		t.Errorf("MarkdownToHTML(\"\") = %q, want empty", got)
	}
}
