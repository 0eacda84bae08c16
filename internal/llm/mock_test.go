package llm

import (
	"strings"
	"testing"

	"github.com/snappy-loop/tutor/internal/models"
)

func TestTopic(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Explain Newton's second law", "Explain Newton's second"},
		{"What is osmosis?", "What is osmosis"},
		{"Photosynthesis", "Photosynthesis"},
		{"  spaced   out   words here ", "spaced out words"},
		{"", "Your Question"},
		{"?", "Your Question"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := Topic(tt.in); got != tt.want {
				t.Errorf("Topic(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestMockAnswer_DefaultHeading(t *testing.T) {
	got := MockAnswer("Explain Newton's second law", models.DetailNone, false)
	if !strings.HasPrefix(got, "# Explain Newton's second\n") {
		t.Errorf("MockAnswer heading = %q", strings.SplitN(got, "\n", 2)[0])
	}
	if strings.Contains(got, "##") {
		t.Error("default answer should have no subsections")
	}
}

func TestMockAnswer_Brief(t *testing.T) {
	got := MockAnswer("What is osmosis?", models.DetailBrief, false)
	if !strings.Contains(got, "(2 marks)") {
		t.Errorf("brief answer missing marks label: %q", got)
	}
	if strings.Contains(got, "##") {
		t.Errorf("brief answer should not contain subsection headings: %q", got)
	}
}

func TestMockAnswer_SubsectionsGrowWithDetail(t *testing.T) {
	tests := []struct {
		detail models.DetailLevel
		marks  string
		want   int
	}{
		{models.DetailNone, "", 0},
		{models.DetailBrief, "(2 marks)", 0},
		{models.DetailMedium, "(5 marks)", 2},
		{models.DetailComprehensive, "(7 marks)", 4},
	}
	for _, tt := range tests {
		t.Run(tt.marks, func(t *testing.T) {
			got := MockAnswer("Describe the water cycle", tt.detail, false)
			if n := strings.Count(got, "\n## "); n != tt.want {
				t.Errorf("detail %d: %d subsections, want %d", tt.detail, n, tt.want)
			}
			if tt.marks != "" && !strings.Contains(got, tt.marks) {
				t.Errorf("detail %d: missing %q", tt.detail, tt.marks)
			}
		})
	}
}

func TestMockAnswer_MentionsFiles(t *testing.T) {
	for _, d := range []models.DetailLevel{models.DetailNone, models.DetailBrief, models.DetailMedium, models.DetailComprehensive} {
		with := MockAnswer("Summarise my notes", d, true)
		without := MockAnswer("Summarise my notes", d, false)
		if !strings.Contains(with, "your uploaded files") {
			t.Errorf("detail %d: answer with files does not mention them", d)
		}
		if strings.Contains(without, "your uploaded files") {
			t.Errorf("detail %d: answer without files mentions uploaded files", d)
		}
	}
}
