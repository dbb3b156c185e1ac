package domain

import "time"

// QuizType is the question format family for a whole quiz.
type QuizType string

const (
	MultipleChoice QuizType = "multiple_choice"
	TrueFalse      QuizType = "true_false"
)

// Valid reports whether the type is one of the two supported families.
func (t QuizType) Valid() bool {
	return t == MultipleChoice || t == TrueFalse
}

// Difficulty of the generated questions.
type Difficulty string

const (
	Easy   Difficulty = "easy"
	Medium Difficulty = "medium"
	Hard   Difficulty = "hard"
)

func (d Difficulty) Valid() bool {
	return d == Easy || d == Medium || d == Hard
}

// Visibility controls who can discover a quiz.
type Visibility string

const (
	VisibilityGlobal  Visibility = "global"
	VisibilityPrivate Visibility = "private"
)

func (v Visibility) Valid() bool {
	return v == VisibilityGlobal || v == VisibilityPrivate
}

// QuizStatus is the soft-delete lifecycle state.
type QuizStatus string

const (
	StatusActive  QuizStatus = "active"
	StatusDeleted QuizStatus = "deleted"
)

func (s QuizStatus) Valid() bool {
	return s == StatusActive || s == StatusDeleted
}

// Requester identifies the authenticated caller. Admin is the administrative
// capability flag; establishing it is the boundary's job, not the core's.
type Requester struct {
	UserID string
	Admin  bool
}

// QuizConfig is the immutable input to quiz generation.
type QuizConfig struct {
	Title             string     `json:"title,omitempty"`
	Category          string     `json:"category"`
	Difficulty        Difficulty `json:"difficulty"`
	NumberOfQuestions int        `json:"numberOfQuestions"`
	Team              string     `json:"team,omitempty"`
	Event             string     `json:"event,omitempty"`
	Country           string     `json:"country,omitempty"`
	Visibility        Visibility `json:"visibility,omitempty"`
	QuizType          QuizType   `json:"quizType"`
}

// MaxQuestions bounds a single generation request.
const MaxQuestions = 20

// Question is the persisted form of a validated question. Answer holds the
// canonical token: a letter A-D for multiple choice, the literal "True" or
// "False" otherwise.
type Question struct {
	ID       string   `json:"id"`
	Text     string   `json:"question"`
	Options  []string `json:"options"`
	Answer   string   `json:"correctAnswer"`
	QuizType QuizType `json:"quizType"`
}

// Quiz is the persisted aggregate, written atomically as one document.
type Quiz struct {
	ID         string     `json:"id"`
	Title      string     `json:"title"`
	Category   string     `json:"category"`
	Difficulty Difficulty `json:"difficulty"`
	QuizType   QuizType   `json:"quizType"`
	Questions  []Question `json:"questions"`
	CreatedBy  string     `json:"createdBy"`
	Visibility Visibility `json:"visibility"`
	Status     QuizStatus `json:"status"`
	CreatedAt  time.Time  `json:"createdAt"`
}

// SubmittedAnswer is one user answer; both fields are untrusted client input.
type SubmittedAnswer struct {
	QuestionID     string `json:"questionId"`
	SelectedOption string `json:"selectedOption"`
}

// GradedAnswer is the per-question audit record inside an attempt.
type GradedAnswer struct {
	QuestionID     string `json:"questionId"`
	SelectedOption string `json:"selectedOption"`
	CorrectOption  string `json:"correctOption"`
	IsCorrect      bool   `json:"isCorrect"`
}

// Score aggregates an attempt.
type Score struct {
	Correct   int `json:"correct"`
	Incorrect int `json:"incorrect"`
	Total     int `json:"total"`
}

// QuizAttempt is the persisted grading result. Immutable once written.
type QuizAttempt struct {
	ID               string         `json:"id"`
	QuizID           string         `json:"quizId"`
	UserID           string         `json:"userId"`
	Score            Score          `json:"score"`
	Answers          []GradedAnswer `json:"answers"`
	TimeSpentSeconds int64          `json:"timeSpentSeconds"`
	CompletedAt      time.Time      `json:"completedAt"`
}
