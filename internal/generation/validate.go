package generation

import (
	"encoding/json"
	"fmt"
	"strings"

	"sportsquiz-service/internal/domain"
)

// FailureKind classifies why a model response was rejected.
type FailureKind string

const (
	MalformedOutput FailureKind = "malformed_output"
	CountMismatch   FailureKind = "count_mismatch"
	SchemaViolation FailureKind = "schema_violation"
)

// ValidationError rejects an entire batch. It keeps enough diagnostics (raw
// text, counts, offending index and payload) to reproduce the failure from
// logs without calling the model again.
type ValidationError struct {
	Kind     FailureKind
	Reason   string
	Raw      string
	Expected int
	Actual   int
	Index    int
	Payload  string
}

func (e *ValidationError) Error() string {
	switch e.Kind {
	case CountMismatch:
		return fmt.Sprintf("%s: expected %d questions, got %d", e.Kind, e.Expected, e.Actual)
	case SchemaViolation:
		return fmt.Sprintf("%s at index %d: %s", e.Kind, e.Index, e.Reason)
	default:
		return fmt.Sprintf("%s: %s", e.Kind, e.Reason)
	}
}

// rawQuestion is the untrusted shape the model should return. Unknown fields
// are ignored; missing ones show up as zero values and fail the shape checks.
type rawQuestion struct {
	Question string   `json:"question"`
	Options  []string `json:"options"`
	Answer   string   `json:"answer"`
}

// ValidatedQuestion is a raw question that passed every shape invariant for
// its quiz type. It carries no identifier yet; that is the normalizer's job.
type ValidatedQuestion struct {
	Question string
	Options  []string
	Answer   string
}

// Validate parses sanitized model text and checks the whole batch against the
// requested type and count. Acceptance is all-or-nothing: one bad element
// rejects everything, a shorter array is never returned.
func Validate(text string, quizType domain.QuizType, count int) ([]ValidatedQuestion, *ValidationError) {
	var raws []rawQuestion
	if err := json.Unmarshal([]byte(text), &raws); err != nil {
		return nil, &ValidationError{Kind: MalformedOutput, Reason: err.Error(), Raw: text}
	}

	if len(raws) != count {
		return nil, &ValidationError{Kind: CountMismatch, Expected: count, Actual: len(raws), Raw: text}
	}

	out := make([]ValidatedQuestion, 0, count)
	for i, rq := range raws {
		if reason := checkShape(rq, quizType); reason != "" {
			payload, _ := json.Marshal(rq)
			return nil, &ValidationError{Kind: SchemaViolation, Index: i, Reason: reason, Payload: string(payload)}
		}
		out = append(out, ValidatedQuestion{
			Question: strings.TrimSpace(rq.Question),
			Options:  rq.Options,
			Answer:   canonicalAnswer(rq.Answer, quizType),
		})
	}
	return out, nil
}

func checkShape(rq rawQuestion, quizType domain.QuizType) string {
	if strings.TrimSpace(rq.Question) == "" {
		return "question text is empty"
	}

	switch quizType {
	case domain.TrueFalse:
		if len(rq.Options) != 2 {
			return fmt.Sprintf("true/false question must have exactly 2 options, got %d", len(rq.Options))
		}
		if !isTrueFalsePair(rq.Options) {
			return `options must be the pair "True" and "False"`
		}
		if a := strings.TrimSpace(rq.Answer); a != "True" && a != "False" {
			return fmt.Sprintf("answer %q is not \"True\" or \"False\"", rq.Answer)
		}
	default:
		if len(rq.Options) != 4 {
			return fmt.Sprintf("multiple-choice question must have exactly 4 options, got %d", len(rq.Options))
		}
		for j, opt := range rq.Options {
			if strings.TrimSpace(opt) == "" {
				return fmt.Sprintf("option %d is empty", j)
			}
		}
		if !isAnswerLetter(rq.Answer) {
			return fmt.Sprintf("answer %q is not one of A, B, C, D", rq.Answer)
		}
	}
	return ""
}

func isTrueFalsePair(options []string) bool {
	a, b := strings.TrimSpace(options[0]), strings.TrimSpace(options[1])
	return (a == "True" && b == "False") || (a == "False" && b == "True")
}

func isAnswerLetter(answer string) bool {
	a := strings.ToUpper(strings.TrimSpace(answer))
	return a == "A" || a == "B" || a == "C" || a == "D"
}

// canonicalAnswer normalizes the token that gets persisted: uppercase letter
// for multiple choice, the exact literal for true/false.
func canonicalAnswer(answer string, quizType domain.QuizType) string {
	a := strings.TrimSpace(answer)
	if quizType == domain.TrueFalse {
		return a
	}
	return strings.ToUpper(a)
}
