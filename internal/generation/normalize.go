package generation

import (
	"github.com/google/uuid"

	"sportsquiz-service/internal/domain"
)

// Normalize turns validated questions into their persisted form, assigning
// each a fresh uuid and tagging it with the quiz type. Pure transformation;
// uuids rather than content hashes so duplicate model questions still get
// distinct ids.
func Normalize(validated []ValidatedQuestion, quizType domain.QuizType) []domain.Question {
	questions := make([]domain.Question, 0, len(validated))
	for _, v := range validated {
		questions = append(questions, domain.Question{
			ID:       uuid.NewString(),
			Text:     v.Question,
			Options:  v.Options,
			Answer:   v.Answer,
			QuizType: quizType,
		})
	}
	return questions
}
