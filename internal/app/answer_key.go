package app

import (
	"context"

	"sportsquiz-service/internal/domain"
)

// KeyEntry is the canonical correct answer for one question, plus the type
// needed to pick the comparison rule at grading time.
type KeyEntry struct {
	Answer string
	Type   domain.QuizType
}

// AnswerKey maps question ids to their key entries for one quiz.
type AnswerKey struct {
	QuizID  string
	Entries map[string]KeyEntry
}

// KeyFromQuiz derives the answer key from a stored quiz. A quiz with no
// questions is unscorable corruption, not a zero-question success.
func KeyFromQuiz(quiz domain.Quiz) (AnswerKey, error) {
	if len(quiz.Questions) == 0 {
		return AnswerKey{}, domain.E(domain.KindInvalidQuizState, "quiz has no gradable questions")
	}
	entries := make(map[string]KeyEntry, len(quiz.Questions))
	for _, q := range quiz.Questions {
		entries[q.ID] = KeyEntry{Answer: q.Answer, Type: q.QuizType}
	}
	return AnswerKey{QuizID: quiz.ID, Entries: entries}, nil
}

// StoreAnswerKeys resolves keys straight from the quiz store. Deliberately
// ignores soft-delete status: historical attempts stay gradable after a quiz
// is soft-deleted.
type StoreAnswerKeys struct {
	store QuizStore
}

func NewStoreAnswerKeys(store QuizStore) *StoreAnswerKeys {
	return &StoreAnswerKeys{store: store}
}

func (r *StoreAnswerKeys) AnswerKey(ctx context.Context, quizID string) (AnswerKey, error) {
	quiz, err := r.store.GetQuiz(ctx, quizID)
	if err != nil {
		return AnswerKey{}, err
	}
	return KeyFromQuiz(quiz)
}
