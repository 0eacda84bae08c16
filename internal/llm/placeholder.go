package llm

import (
	"fmt"
	"html"
	"math/rand"
	"strings"
	"unicode"
)

const (
	maxCaptionRunes = 40
	maxAcronymLen   = 3
)

// escapeSVGText escapes text for SVG element content and attribute values.
func escapeSVGText(s string) string {
	return html.EscapeString(s)
}

// acronym takes the first letter of each word longer than three runes, up to three letters.
// Falls back to the first letter of the first word, then to "Q".
func acronym(topic string) string {
	words := strings.FieldsFunc(topic, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	var letters []rune
	for _, w := range words {
		r := []rune(w)
		if len(r) <= 3 {
			continue
		}
		letters = append(letters, unicode.ToUpper(r[0]))
		if len(letters) == maxAcronymLen {
			break
		}
	}
	if len(letters) == 0 {
		if len(words) == 0 {
			return "Q"
		}
		return string(unicode.ToUpper([]rune(words[0])[0]))
	}
	return string(letters)
}

// caption truncates topic to at most maxCaptionRunes runes, ending in "..." when cut.
func caption(topic string) string {
	r := []rune(strings.TrimSpace(topic))
	if len(r) <= maxCaptionRunes {
		return string(r)
	}
	return string(r[:maxCaptionRunes-3]) + "..."
}

// PlaceholderSVG renders a procedural 1024x1024 illustration for topic using hue.
func PlaceholderSVG(topic string, hue int) string {
	hue = ((hue % 360) + 360) % 360
	title := escapeSVGText(topic)
	background := fmt.Sprintf("hsl(%d, 70%%, 85%%)", hue)
	accent := fmt.Sprintf("hsl(%d, 45%%, 35%%)", hue)

	var b strings.Builder
	b.WriteString(`<svg xmlns="http://www.w3.org/2000/svg" width="1024" height="1024" viewBox="0 0 1024 1024" role="img">`)
	fmt.Fprintf(&b, "\n  <title>%s</title>", title)
	fmt.Fprintf(&b, "\n  <desc>Placeholder illustration for %s</desc>", title)
	fmt.Fprintf(&b, "\n  <rect width=\"1024\" height=\"1024\" fill=\"%s\"/>", background)
	b.WriteString("\n  <circle cx=\"512\" cy=\"440\" r=\"220\" fill=\"#ffffff\"/>")
	fmt.Fprintf(&b, "\n  <text x=\"512\" y=\"440\" font-family=\"Arial, Helvetica, sans-serif\" font-size=\"150\" font-weight=\"bold\" fill=\"%s\" text-anchor=\"middle\" dominant-baseline=\"central\">%s</text>",
		accent, escapeSVGText(acronym(topic)))
	fmt.Fprintf(&b, "\n  <rect x=\"0\" y=\"864\" width=\"1024\" height=\"160\" fill=\"%s\" fill-opacity=\"0.85\"/>", accent)
	fmt.Fprintf(&b, "\n  <text x=\"512\" y=\"944\" font-family=\"Arial, Helvetica, sans-serif\" font-size=\"44\" fill=\"#ffffff\" text-anchor=\"middle\" dominant-baseline=\"central\">%s</text>",
		escapeSVGText(caption(topic)))
	b.WriteString("\n</svg>")
	return b.String()
}

// randomHue draws a hue in [0, 360) from rng.
func randomHue(rng *rand.Rand) int {
	return rng.Intn(360)
}
