package extract

import "strings"

// Category selects the extraction strategy for an attachment.
type Category int

const (
	CategoryOther Category = iota
	CategoryText
	CategoryImage
	CategoryPDF
	CategoryOffice
)

func (c Category) String() string {
	switch c {
	case CategoryText:
		return "text"
	case CategoryImage:
		return "image"
	case CategoryPDF:
		return "pdf"
	case CategoryOffice:
		return "office"
	default:
		return "other"
	}
}

// officeMarkers are MIME substrings that identify Word and Excel documents.
var officeMarkers = []string{"word", "document", "excel", "spreadsheet"}

// Categorize maps a MIME type to a Category. Matching is case-insensitive and ignores parameters.
func Categorize(mimeType string) Category {
	m := strings.ToLower(strings.TrimSpace(mimeType))
	if i := strings.IndexByte(m, ';'); i >= 0 {
		m = strings.TrimSpace(m[:i])
	}
	switch {
	case strings.HasPrefix(m, "text/"):
		return CategoryText
	case strings.HasPrefix(m, "image/"):
		return CategoryImage
	case m == "application/pdf":
		return CategoryPDF
	}
	for _, marker := range officeMarkers {
		if strings.Contains(m, marker) {
			return CategoryOffice
		}
	}
	return CategoryOther
}
