package generation

import (
	"fmt"
	"strings"

	"sportsquiz-service/internal/domain"
)

// BuildPrompt renders the generation instruction for a config. Pure and
// deterministic: the same config always yields the same prompt text, which is
// what makes validation failures reproducible from logs.
func BuildPrompt(cfg domain.QuizConfig) string {
	var b strings.Builder

	b.WriteString("You are an expert sports quiz writer. Generate quiz questions about the following topic.\n\n")
	b.WriteString("CRITICAL: Return ONLY a valid JSON array. No preamble, no markdown, no backticks, no surrounding text.\n\n")

	fmt.Fprintf(&b, "Generate exactly %d questions.\n", cfg.NumberOfQuestions)
	fmt.Fprintf(&b, "Sport/category: %s\n", cfg.Category)
	if cfg.Team != "" {
		fmt.Fprintf(&b, "Focus on the team: %s\n", cfg.Team)
	}
	if cfg.Event != "" {
		fmt.Fprintf(&b, "Focus on the event: %s\n", cfg.Event)
	}
	if cfg.Country != "" {
		fmt.Fprintf(&b, "Focus on the country: %s\n", cfg.Country)
	}
	fmt.Fprintf(&b, "Difficulty: %s\n\n", cfg.Difficulty)

	switch cfg.QuizType {
	case domain.TrueFalse:
		b.WriteString("Every question MUST be a true/false question.\n")
		b.WriteString("JSON schema per question:\n")
		b.WriteString(`{"question": "string", "options": ["True", "False"], "answer": "True"|"False"}` + "\n")
		b.WriteString("The options array MUST be exactly the two strings \"True\" and \"False\".\n")
		b.WriteString("The answer MUST be the literal string \"True\" or \"False\".\n")
	default:
		b.WriteString("Every question MUST be a multiple-choice question with exactly 4 options.\n")
		b.WriteString("JSON schema per question:\n")
		b.WriteString(`{"question": "string", "options": ["A. ...", "B. ...", "C. ...", "D. ..."], "answer": "A"|"B"|"C"|"D"}` + "\n")
		b.WriteString("Label the options A through D and set answer to the single letter of the correct option.\n")
	}

	b.WriteString("\nReturn the JSON array and nothing else.\n")
	return b.String()
}
