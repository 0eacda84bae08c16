package extract

import "testing"

func TestCategorize(t *testing.T) {
	tests := []struct {
		name string
		mime string
		want Category
	}{
		{"plain text", "text/plain", CategoryText},
		{"markdown", "text/markdown", CategoryText},
		{"text with charset", "text/plain; charset=utf-8", CategoryText},
		{"png", "image/png", CategoryImage},
		{"jpeg upper case", "IMAGE/JPEG", CategoryImage},
		{"pdf", "application/pdf", CategoryPDF},
		{"docx", "application/vnd.openxmlformats-officedocument.wordprocessingml.document", CategoryOffice},
		{"xlsx", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", CategoryOffice},
		{"legacy word", "application/msword", CategoryOffice},
		{"legacy excel", "application/vnd.ms-excel", CategoryOffice},
		{"zip", "application/zip", CategoryOther},
		{"empty", "", CategoryOther},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Categorize(tt.mime); got != tt.want {
				t.Errorf("Categorize(%q) = %v, want %v", tt.mime, got, tt.want)
			}
		})
	}
}
