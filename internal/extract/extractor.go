package extract

import (
	"context"
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog/log"
	"github.com/snappy-loop/tutor/internal/models"
	"golang.org/x/sync/errgroup"
)

// SectionKind describes how a section was produced.
type SectionKind string

const (
	SectionText        SectionKind = "text"
	SectionImageText   SectionKind = "image_text"
	SectionImageNoText SectionKind = "image_no_text"
	SectionDocument    SectionKind = "document"
	SectionNotice      SectionKind = "notice"
	SectionUnsupported SectionKind = "unsupported"
	SectionError       SectionKind = "error"
)

// Section is the extracted content of one attachment.
type Section struct {
	Filename string
	Kind     SectionKind
	Heading  string
	Body     string
}

func (s Section) String() string {
	return "## " + s.Heading + "\n" + s.Body
}

// Render joins sections into the text blob handed to the prompt builder.
func Render(sections []Section) string {
	parts := make([]string, len(sections))
	for i, s := range sections {
		parts[i] = s.String()
	}
	return strings.Join(parts, "\n\n")
}

type strategy func(ctx context.Context, att models.Attachment) Section

// Options configures an Extractor.
type Options struct {
	OCR            OCRProvider
	Concurrency    int
	DeepDocuments  bool
	MaxTextFileLen int // bytes, cut back to a rune boundary; 0 = unlimited
}

// Extractor turns attachments into labelled text sections.
type Extractor struct {
	ocr         OCRProvider
	concurrency int
	deep        bool
	maxTextLen  int
	strategies  map[Category]strategy
}

// NewExtractor creates an extractor. A nil OCR provider disables OCR.
func NewExtractor(opts Options) *Extractor {
	e := &Extractor{
		ocr:         opts.OCR,
		concurrency: opts.Concurrency,
		deep:        opts.DeepDocuments,
		maxTextLen:  opts.MaxTextFileLen,
	}
	if e.ocr == nil {
		e.ocr = UnavailableOCR
	}
	if e.concurrency < 1 {
		e.concurrency = 1
	}
	e.strategies = map[Category]strategy{
		CategoryText:   e.extractText,
		CategoryImage:  e.extractImage,
		CategoryPDF:    e.extractPDF,
		CategoryOffice: e.extractOffice,
		CategoryOther:  e.extractOther,
	}
	return e
}

// Extract returns one section per attachment, in input order, rendered as a single string.
// It never fails; per-file problems become error sections.
func (e *Extractor) Extract(ctx context.Context, attachments []models.Attachment) string {
	return Render(e.ExtractSections(ctx, attachments))
}

// ExtractSections runs the per-category strategies concurrently and keeps input order.
func (e *Extractor) ExtractSections(ctx context.Context, attachments []models.Attachment) []Section {
	if len(attachments) == 0 {
		return nil
	}
	sections := make([]Section, len(attachments))

	var g errgroup.Group
	g.SetLimit(e.concurrency)
	for i, att := range attachments {
		g.Go(func() error {
			sections[i] = e.extractOne(ctx, att)
			return nil
		})
	}
	_ = g.Wait()

	log.Debug().Int("attachments", len(attachments)).Msg("Extracted attachment content")
	return sections
}

// extractOne runs on an errgroup goroutine, so a panic in a reader or OCR engine
// is turned into an error section here instead of taking down the process.
func (e *Extractor) extractOne(ctx context.Context, att models.Attachment) (section Section) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Str("file", att.Name).Msg("Attachment extraction panicked")
			section = errorSection(att, "Error reading file", fmt.Errorf("%v", r))
		}
	}()

	cat := Categorize(att.MimeType)
	log.Debug().
		Str("file", att.Name).
		Str("mime_type", att.MimeType).
		Str("category", cat.String()).
		Msg("Extracting attachment")
	return e.strategies[cat](ctx, att)
}

func (e *Extractor) extractText(ctx context.Context, att models.Attachment) Section {
	data, err := os.ReadFile(att.StoragePath)
	if err != nil {
		log.Warn().Err(err).Str("file", att.Name).Msg("Failed to read text attachment")
		return errorSection(att, "Error reading file", err)
	}
	data = truncateRunes(data, e.maxTextLen)
	content := strings.ToValidUTF8(string(data), "�")
	return Section{
		Filename: att.Name,
		Kind:     SectionText,
		Heading:  "Content from file: " + att.Name,
		Body:     content,
	}
}

func (e *Extractor) extractImage(ctx context.Context, att models.Attachment) Section {
	description := fmt.Sprintf("Image Description: The user uploaded an image named %q.", att.Name)

	text, err := e.recognize(ctx, att.StoragePath)
	if err != nil {
		log.Warn().Err(err).Str("file", att.Name).Msg("OCR failed")
		s := errorSection(att, "Error extracting text from image", err)
		s.Body += "\n" + description
		return s
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return Section{
			Filename: att.Name,
			Kind:     SectionImageNoText,
			Heading:  "Image: " + att.Name,
			Body:     "No text could be detected in this image.\n" + description,
		}
	}
	return Section{
		Filename: att.Name,
		Kind:     SectionImageText,
		Heading:  "Text extracted from image: " + att.Name,
		Body:     text + "\n" + description,
	}
}

// recognize acquires an engine for a single image and always releases it.
func (e *Extractor) recognize(ctx context.Context, path string) (string, error) {
	engine, err := e.ocr(ctx)
	if err != nil {
		return "", err
	}
	defer func() {
		if cerr := engine.Close(); cerr != nil {
			log.Warn().Err(cerr).Msg("Failed to release OCR engine")
		}
	}()
	return engine.Recognize(ctx, path)
}

func (e *Extractor) extractPDF(ctx context.Context, att models.Attachment) Section {
	if s, ok := e.deepRead(att); ok {
		return s
	}
	return Section{
		Filename: att.Name,
		Kind:     SectionNotice,
		Heading:  "PDF Document: " + att.Name,
		Body: "The user uploaded a PDF document. Its text could not be extracted automatically. " +
			"Please ask specific questions about this PDF and describe the parts you need help with.",
	}
}

func (e *Extractor) extractOffice(ctx context.Context, att models.Attachment) Section {
	if s, ok := e.deepRead(att); ok {
		return s
	}
	return Section{
		Filename: att.Name,
		Kind:     SectionNotice,
		Heading:  "Office Document: " + att.Name,
		Body: "The user uploaded a Word or Excel document. Its contents are not read automatically. " +
			"Please ask specific questions about this document or paste the relevant parts as text.",
	}
}

func (e *Extractor) extractOther(ctx context.Context, att models.Attachment) Section {
	mimeType := att.MimeType
	if mimeType == "" {
		mimeType = "unknown"
	}
	return Section{
		Filename: att.Name,
		Kind:     SectionUnsupported,
		Heading:  "Unsupported File: " + att.Name,
		Body:     fmt.Sprintf("This file type (%s) cannot be processed.", mimeType),
	}
}

// deepRead tries the document readers when deep extraction is enabled.
// Any failure or empty result falls back to the static notice.
func (e *Extractor) deepRead(att models.Attachment) (Section, bool) {
	if !e.deep {
		return Section{}, false
	}
	read := documentReader(att.MimeType)
	if read == nil {
		return Section{}, false
	}
	text, err := read(att.StoragePath)
	if err != nil {
		log.Warn().Err(err).Str("file", att.Name).Msg("Document extraction failed, using notice")
		return Section{}, false
	}
	if strings.TrimSpace(text) == "" {
		return Section{}, false
	}
	return Section{
		Filename: att.Name,
		Kind:     SectionDocument,
		Heading:  "Content from file: " + att.Name,
		Body:     text,
	}, true
}

// truncateRunes cuts data to at most limit bytes without splitting a UTF-8 sequence.
func truncateRunes(data []byte, limit int) []byte {
	if limit <= 0 || len(data) <= limit {
		return data
	}
	cut := limit
	for cut > 0 && cut > limit-utf8.UTFMax && !utf8.RuneStart(data[cut]) {
		cut--
	}
	return data[:cut]
}

func errorSection(att models.Attachment, heading string, err error) Section {
	return Section{
		Filename: att.Name,
		Kind:     SectionError,
		Heading:  heading + ": " + att.Name,
		Body:     "Error: " + err.Error(),
	}
}
