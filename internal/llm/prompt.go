package llm

import "github.com/snappy-loop/tutor/internal/models"

const tutorPersona = `You are a friendly, knowledgeable tutor helping students learn. ` +
	`Explain concepts clearly and accurately, use simple language before introducing technical terms, ` +
	`and format your answers in Markdown with headings and bullet points where they help. ` +
	`Keep answers concise and focused on what the student asked. ` +
	`When the student shares file contents, ground your answer in those contents and say so. ` +
	`If you are unsure about something, say so instead of guessing.`

const filesContextPrefix = "\n\nContext from uploaded files:\n"

// Prompt is the system/user message pair sent to a completion provider.
type Prompt struct {
	System string
	User   string
}

// detailAddendum returns the length/depth instruction for an exam marks level.
func detailAddendum(detail models.DetailLevel) string {
	switch detail {
	case models.DetailBrief:
		return "\n\nThe student needs an answer worth 2 marks. Answer in 2-3 concise sentences covering only the key point."
	case models.DetailMedium:
		return "\n\nThe student needs an answer worth 5 marks. Answer in 1-2 well-structured paragraphs covering the main points with a short explanation of each."
	case models.DetailComprehensive:
		return "\n\nThe student needs an answer worth 7 marks. Answer in 2-3 detailed paragraphs with examples, formulas or diagrams described in words where relevant, and a brief conclusion."
	default:
		return ""
	}
}

// BuildPrompt composes the system and user messages for one turn. Content is not truncated.
func BuildPrompt(question, extracted string, detail models.DetailLevel) Prompt {
	user := question
	if extracted != "" {
		user = question + filesContextPrefix + extracted
	}
	return Prompt{
		System: tutorPersona + detailAddendum(detail),
		User:   user,
	}
}
