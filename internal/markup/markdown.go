package markup

import (
	"bytes"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

// md renders GitHub-flavoured markdown. Raw HTML in the input is omitted, not passed through.
var md = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithRendererOptions(
		html.WithHardWraps(),
	),
)

// MarkdownToHTML converts an answer to HTML for clients that do not render markdown.
// On a render error the escaped source is returned inside a <pre> block.
func MarkdownToHTML(text string) string {
	if text == "" {
		return text
	}
	var buf bytes.Buffer
	if err := md.Convert([]byte(text), &buf); err != nil {
		log.Warn().Err(err).Msg("Markdown render failed, returning preformatted text")
		return "<pre>" + escapeHTML(text) + "</pre>"
	}
	return strings.TrimSpace(buf.String())
}

var htmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
)

func escapeHTML(s string) string {
	return htmlEscaper.Replace(s)
}
