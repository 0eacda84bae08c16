package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrInvalidDetailLevel is returned when a marks value is not one of 0, 2, 5, 7.
var ErrInvalidDetailLevel = errors.New("invalid detail level: marks must be 2, 5 or 7")

// DetailLevel is the requested answer depth, expressed in exam marks.
type DetailLevel int

const (
	DetailNone          DetailLevel = 0
	DetailBrief         DetailLevel = 2
	DetailMedium        DetailLevel = 5
	DetailComprehensive DetailLevel = 7
)

// ParseDetailLevel accepts "", "none", "0", "2", "5" and "7".
func ParseDetailLevel(s string) (DetailLevel, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" || s == "none" {
		return DetailNone, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return DetailNone, ErrInvalidDetailLevel
	}
	d := DetailLevel(n)
	if !d.Valid() {
		return DetailNone, ErrInvalidDetailLevel
	}
	return d, nil
}

// DetailLevelFromValue converts a decoded JSON marks value. A missing value is DetailNone;
// numbers must be whole and strings go through ParseDetailLevel.
func DetailLevelFromValue(v interface{}) (DetailLevel, error) {
	switch x := v.(type) {
	case nil:
		return DetailNone, nil
	case string:
		return ParseDetailLevel(x)
	case float64:
		if x != math.Trunc(x) || x < 0 || x > float64(DetailComprehensive) {
			return DetailNone, ErrInvalidDetailLevel
		}
		d := DetailLevel(x)
		if !d.Valid() {
			return DetailNone, ErrInvalidDetailLevel
		}
		return d, nil
	}
	return DetailNone, ErrInvalidDetailLevel
}

// Marks is a raw marks value from a JSON body, sent either as a string or a number.
type Marks string

func (m *Marks) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*m = ""
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*m = Marks(s)
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return ErrInvalidDetailLevel
		}
		*m = Marks(n.String())
	}
	return nil
}

// Valid reports whether d is one of the four known levels.
func (d DetailLevel) Valid() bool {
	switch d {
	case DetailNone, DetailBrief, DetailMedium, DetailComprehensive:
		return true
	}
	return false
}

// Marks returns the marks value, 0 for DetailNone.
func (d DetailLevel) Marks() int { return int(d) }

// Attachment is an uploaded file handed to the pipeline. The pipeline only reads it.
type Attachment struct {
	Name        string `json:"name"`
	MimeType    string `json:"mime_type"`
	StoragePath string `json:"-"`
	SizeBytes   int64  `json:"size_bytes"`
}

// ImageResult is an illustration ready for inline display.
type ImageResult struct {
	Status    string `json:"status"` // always "success"
	SVGMarkup string `json:"svg"`
	Source    string `json:"source"` // generator name or "placeholder"
}

// MessageInput is one user turn entering the pipeline.
type MessageInput struct {
	Question      string
	Attachments   []Attachment
	Detail        DetailLevel
	GenerateImage bool
}

// MessageResult is the pipeline output for one turn.
type MessageResult struct {
	Content          string       `json:"content"`
	ExtractedContent string       `json:"-"`
	Image            *ImageResult `json:"image,omitempty"`
}

// Chat is a conversation thread.
type Chat struct {
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ChatMessage is one stored turn in a chat.
type ChatMessage struct {
	ID          uuid.UUID `json:"id"`
	ChatID      uuid.UUID `json:"chat_id"`
	Role        string    `json:"role"` // user, assistant
	Content     string    `json:"content"`
	DetailLevel int       `json:"detail_level"`
	Attachments []string  `json:"attachments,omitempty"`
	ImageURL    *string   `json:"image_url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatEvent is published after an assistant turn is stored.
type ChatEvent struct {
	ChatID      uuid.UUID `json:"chat_id"`
	MessageID   uuid.UUID `json:"message_id"`
	Question    string    `json:"question"`
	Answer      string    `json:"answer"`
	DetailLevel int       `json:"detail_level"`
	Attachments []string  `json:"attachments,omitempty"`
	ImageURL    *string   `json:"image_url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// SendMessageRequest is the service-level input for one chat turn.
type SendMessageRequest struct {
	ChatID        *uuid.UUID
	Question      string
	Detail        DetailLevel
	GenerateImage bool
	Attachments   []Attachment
}

// SendMessageResponse is returned to HTTP and WebSocket clients.
type SendMessageResponse struct {
	ChatID      uuid.UUID    `json:"chat_id"`
	MessageID   uuid.UUID    `json:"message_id"`
	Content     string       `json:"content"`
	ContentHTML string       `json:"content_html"`
	Image       *ImageResult `json:"image,omitempty"`
	ImageURL    *string      `json:"image_url,omitempty"`
}

// ChatResponse is a chat with its messages.
type ChatResponse struct {
	Chat     *Chat          `json:"chat"`
	Messages []*ChatMessage `json:"messages"`
}

// AskRequest is the JSON body accepted by the message endpoint and WebSocket frames.
type AskRequest struct {
	ChatID        string `json:"chatId,omitempty"`
	Question      string `json:"question"`
	Marks         Marks  `json:"marks,omitempty"`
	GenerateImage bool   `json:"generateImage,omitempty"`
}
