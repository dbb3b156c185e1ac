package app

import (
	"sportsquiz-service/internal/domain"
)

// QuestionNotFoundSentinel is recorded as the correct option when a submitted
// answer references a question id absent from the quiz.
const QuestionNotFoundSentinel = "N/A - Question not found"

// Grade matches submitted answers against the key. Unknown question ids never
// abort grading; they are recorded incorrect with the sentinel. Results keep
// submission order.
func Grade(key AnswerKey, answers []domain.SubmittedAnswer) (int, []domain.GradedAnswer) {
	correct := 0
	details := make([]domain.GradedAnswer, 0, len(answers))
	for _, ans := range answers {
		entry, ok := key.Entries[ans.QuestionID]
		if !ok {
			details = append(details, domain.GradedAnswer{
				QuestionID:     ans.QuestionID,
				SelectedOption: ans.SelectedOption,
				CorrectOption:  QuestionNotFoundSentinel,
				IsCorrect:      false,
			})
			continue
		}

		isCorrect := answerMatches(entry, ans.SelectedOption)
		if isCorrect {
			correct++
		}
		details = append(details, domain.GradedAnswer{
			QuestionID:     ans.QuestionID,
			SelectedOption: ans.SelectedOption,
			CorrectOption:  entry.Answer,
			IsCorrect:      isCorrect,
		})
	}
	return correct, details
}

// answerMatches applies the type-aware comparison rule. True/false answers
// compare literally. Multiple-choice compares label letters only, so the
// client may send either a bare "A" or a labelled "A. Some option". That also
// means "Paris" grades as if the user picked "P"; known quirk, kept on
// purpose.
func answerMatches(entry KeyEntry, selected string) bool {
	if entry.Type == domain.TrueFalse {
		return selected == entry.Answer
	}
	if selected == "" || entry.Answer == "" {
		return false
	}
	return leadingLabel(selected) == leadingLabel(entry.Answer)
}

func leadingLabel(s string) rune {
	for _, r := range s {
		return r
	}
	return 0
}
