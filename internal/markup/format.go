package markup

import "regexp"

var (
	// Title must not start with '#' so deeper headings are left untouched.
	headingLine  = regexp.MustCompile(`(?m)^(#{1,3})[ \t]*([^#\s].*?)[ \t]*$`)
	bulletMarker = regexp.MustCompile(`(?m)^([ \t]*)([-*])[ \t]+`)
	extraNewline = regexp.MustCompile(`\n{3,}`)
)

// Format normalizes answer markdown: heading spacing, list marker spacing and runs of
// blank lines. Applying it twice gives the same result as applying it once.
func Format(text string) string {
	text = headingLine.ReplaceAllString(text, "$1 $2")
	text = bulletMarker.ReplaceAllString(text, "$1$2 ")
	return extraNewline.ReplaceAllString(text, "\n\n")
}
