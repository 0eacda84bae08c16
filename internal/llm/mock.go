package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/snappy-loop/tutor/internal/models"
)

// topicWords is how many leading words of the question name the topic.
const topicWords = 3

// Topic returns the first few words of a question, used as a heading and illustration caption.
func Topic(question string) string {
	words := strings.Fields(question)
	if len(words) > topicWords {
		words = words[:topicWords]
	}
	topic := strings.TrimRight(strings.Join(words, " "), "?!.,:;")
	if topic == "" {
		return "Your Question"
	}
	return topic
}

// MockStrategy produces a canned, structured answer offline. It never fails.
type MockStrategy struct{}

func (MockStrategy) Name() string { return "mock" }

func (MockStrategy) TryComplete(ctx context.Context, req CompletionRequest) (string, error) {
	return MockAnswer(req.Question, req.Detail, req.HasFiles), nil
}

// MockAnswer renders the offline answer for a question at the given detail level.
func MockAnswer(question string, detail models.DetailLevel, hasFiles bool) string {
	topic := Topic(question)
	source := "the question you asked"
	if hasFiles {
		source = "your question and your uploaded files"
	}

	switch detail {
	case models.DetailBrief:
		return fmt.Sprintf("# %s (2 marks)\n\n"+
			"Based on %s, %s comes down to one central idea: identify the key principle and state it precisely. "+
			"A complete 2-mark answer names that principle and gives one supporting fact or example.",
			topic, source, topic)

	case models.DetailMedium:
		return fmt.Sprintf("# %s (5 marks)\n\n"+
			"Based on %s, here is a structured answer on %s.\n\n"+
			"## Key Points\n"+
			"- Define the core concept in one clear sentence.\n"+
			"- Identify the main factors or components involved.\n"+
			"- State how these factors relate to each other.\n\n"+
			"## Explanation\n"+
			"- Describe the process or reasoning step by step.\n"+
			"- Support each step with a short example.\n"+
			"- Finish with a one-line summary that links back to the question.",
			topic, source, topic)

	case models.DetailComprehensive:
		return fmt.Sprintf("# %s (7 marks)\n\n"+
			"Based on %s, here is a detailed answer on %s.\n\n"+
			"## Introduction\n"+
			"- Introduce the topic and define the key terms.\n"+
			"- Explain why the topic matters in the wider subject.\n\n"+
			"## Key Concepts\n"+
			"- Break the topic into its main concepts.\n"+
			"- Explain each concept and any formula that describes it.\n"+
			"- Show how the concepts depend on one another.\n\n"+
			"## Examples and Applications\n"+
			"- Work through a typical example step by step.\n"+
			"- Describe a real-world application.\n"+
			"- Mention a common mistake and how to avoid it.\n\n"+
			"## Conclusion\n"+
			"- Summarise the main argument in two or three sentences.\n"+
			"- Link the conclusion back to the original question.",
			topic, source, topic)

	default:
		return fmt.Sprintf("# %s\n\n"+
			"Thanks for your question! Based on %s, here is an overview of %s.\n\n"+
			"Start with the basic definition, then look at how it works and where it is used. "+
			"If you would like an exam-style answer, choose 2, 5 or 7 marks and ask again.",
			topic, source, topic)
	}
}
