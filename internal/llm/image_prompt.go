package llm

import (
	"fmt"
	"strings"
)

// maxIllustrationContextRunes bounds how much of the answer is embedded in the image prompt.
const maxIllustrationContextRunes = 500

// BuildIllustrationPrompt builds the image generation prompt for an answer.
func BuildIllustrationPrompt(topic, answerContext string) string {
	excerpt := strings.TrimSpace(answerContext)
	if r := []rune(excerpt); len(r) > maxIllustrationContextRunes {
		excerpt = string(r[:maxIllustrationContextRunes])
	}

	return fmt.Sprintf(`Create a clear educational illustration about "%s".
Style: clean, colourful diagram suitable for students, with simple shapes and clear labels. Prefer diagrams, step-by-step visuals or labelled parts over decorative scenes. Keep any text in the image short and legible.

The illustration should support this explanation:
%s`, topic, excerpt)
}
