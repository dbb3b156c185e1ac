package generation

import "strings"

// Sanitize strips the conversational wrapping models like to add around JSON:
// surrounding whitespace and a markdown code fence with an optional language
// tag. Best effort only; the parser downstream decides whether the result is
// actually JSON.
func Sanitize(raw string) string {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	return strings.TrimSpace(s)
}
