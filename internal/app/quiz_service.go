package app

import (
	"context"
	"strings"
	"time"

	"sportsquiz-service/internal/domain"
	"sportsquiz-service/internal/generation"
	"sportsquiz-service/internal/logger"
)

// TextGenerator abstracts the generative text service (Gemini in production,
// fakes in tests).
type TextGenerator interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

// QuizStore is keyed document persistence for quizzes. CreateQuiz assigns the
// id and creation timestamp and writes the aggregate atomically.
type QuizStore interface {
	CreateQuiz(ctx context.Context, quiz domain.Quiz) (domain.Quiz, error)
	GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
	SetQuizVisibility(ctx context.Context, quizID string, visibility domain.Visibility) (domain.Quiz, error)
	SetQuizStatus(ctx context.Context, quizID string, status domain.QuizStatus) (domain.Quiz, error)
}

// AttemptStore persists grading results. Attempts are append-only.
type AttemptStore interface {
	CreateAttempt(ctx context.Context, attempt domain.QuizAttempt) (domain.QuizAttempt, error)
}

// AnswerKeySource resolves the answer key for a quiz (store-backed, with an
// optional Redis cache in front).
type AnswerKeySource interface {
	AnswerKey(ctx context.Context, quizID string) (AnswerKey, error)
}

// QuizService contains the core use cases: generate a quiz from a config and
// grade a submission against a stored quiz.
type QuizService struct {
	generator TextGenerator
	quizzes   QuizStore
	attempts  AttemptStore
	keys      AnswerKeySource
	log       *logger.Logger
	now       func() time.Time
}

func NewQuizService(generator TextGenerator, quizzes QuizStore, attempts AttemptStore, keys AnswerKeySource, log *logger.Logger) *QuizService {
	return &QuizService{
		generator: generator,
		quizzes:   quizzes,
		attempts:  attempts,
		keys:      keys,
		log:       log.With("component", "quiz_service"),
		now:       time.Now,
	}
}

// WithClock is test-only for deterministic timestamps.
func (s *QuizService) WithClock(now func() time.Time) *QuizService {
	s.now = now
	return s
}

// GenerateQuizRequest mirrors the external generate operation. Unknown fields
// at the transport boundary are ignored, not rejected.
type GenerateQuizRequest struct {
	Title             string            `json:"title"`
	Category          string            `json:"category"`
	Difficulty        domain.Difficulty `json:"difficulty"`
	NumberOfQuestions int               `json:"numberOfQuestions"`
	Team              string            `json:"team"`
	Event             string            `json:"event"`
	Country           string            `json:"country"`
	Visibility        domain.Visibility `json:"visibility"`
	QuizType          domain.QuizType   `json:"quizType"`
}

// GenerateQuiz runs the full generation pipeline: validate the config, build
// the prompt, call the model once, sanitize and validate its output, assign
// question ids, resolve visibility, and persist the quiz in a single write.
// Nothing is persisted unless the whole batch validates.
func (s *QuizService) GenerateQuiz(ctx context.Context, req GenerateQuizRequest, requester domain.Requester) (domain.Quiz, error) {
	if requester.UserID == "" {
		return domain.Quiz{}, domain.E(domain.KindUnauthenticated, "caller identity required")
	}

	cfg, err := configFromRequest(req)
	if err != nil {
		return domain.Quiz{}, err
	}

	prompt := generation.BuildPrompt(cfg)
	raw, err := s.generator.GenerateText(ctx, prompt)
	if err != nil {
		return domain.Quiz{}, err
	}

	sanitized := generation.Sanitize(raw)
	validated, verr := generation.Validate(sanitized, cfg.QuizType, cfg.NumberOfQuestions)
	if verr != nil {
		s.log.Error("model output rejected",
			"kind", string(verr.Kind),
			"reason", verr.Reason,
			"expected", verr.Expected,
			"actual", verr.Actual,
			"index", verr.Index,
			"payload", verr.Payload,
			"raw", sanitized,
		)
		return domain.Quiz{}, domain.Wrap(domain.KindInvalidModelOutput, "model returned invalid quiz content", verr)
	}

	questions := generation.Normalize(validated, cfg.QuizType)
	quiz := assembleQuiz(cfg, questions, requester)

	created, err := s.quizzes.CreateQuiz(ctx, quiz)
	if err != nil {
		return domain.Quiz{}, err
	}
	s.log.Info("quiz generated",
		"quizId", created.ID,
		"category", created.Category,
		"quizType", string(created.QuizType),
		"questions", len(created.Questions),
		"visibility", string(created.Visibility),
	)
	return created, nil
}

// configFromRequest normalizes and validates the raw request into an
// immutable QuizConfig. Everything here is checked before any external call.
func configFromRequest(req GenerateQuizRequest) (domain.QuizConfig, error) {
	category := strings.TrimSpace(req.Category)
	if category == "" {
		return domain.QuizConfig{}, domain.E(domain.KindInvalidArgument, "category is required")
	}
	if req.NumberOfQuestions < 1 || req.NumberOfQuestions > domain.MaxQuestions {
		return domain.QuizConfig{}, domain.E(domain.KindInvalidArgument, "numberOfQuestions must be between 1 and 20")
	}
	if !req.QuizType.Valid() {
		return domain.QuizConfig{}, domain.E(domain.KindInvalidArgument, "quizType must be multiple_choice or true_false")
	}

	difficulty := req.Difficulty
	if difficulty == "" {
		difficulty = domain.Medium
	}
	if !difficulty.Valid() {
		return domain.QuizConfig{}, domain.E(domain.KindInvalidArgument, "difficulty must be easy, medium, or hard")
	}

	visibility := req.Visibility
	if visibility == "" {
		visibility = domain.VisibilityPrivate
	}
	if !visibility.Valid() {
		return domain.QuizConfig{}, domain.E(domain.KindInvalidArgument, "visibility must be global or private")
	}

	return domain.QuizConfig{
		Title:             strings.TrimSpace(req.Title),
		Category:          category,
		Difficulty:        difficulty,
		NumberOfQuestions: req.NumberOfQuestions,
		Team:              strings.TrimSpace(req.Team),
		Event:             strings.TrimSpace(req.Event),
		Country:           strings.TrimSpace(req.Country),
		Visibility:        visibility,
		QuizType:          req.QuizType,
	}, nil
}

// assembleQuiz combines normalized questions with config metadata. The
// requested visibility is honored only for admins; everyone else gets a
// private quiz no matter what they asked for. Enforced here, not in storage
// rules.
func assembleQuiz(cfg domain.QuizConfig, questions []domain.Question, requester domain.Requester) domain.Quiz {
	visibility := domain.VisibilityPrivate
	if requester.Admin {
		visibility = cfg.Visibility
	}

	title := cfg.Title
	if title == "" {
		title = cfg.Category + " Quiz"
	}

	return domain.Quiz{
		Title:      title,
		Category:   cfg.Category,
		Difficulty: cfg.Difficulty,
		QuizType:   cfg.QuizType,
		Questions:  questions,
		CreatedBy:  requester.UserID,
		Visibility: visibility,
		Status:     domain.StatusActive,
	}
}

// GradeSubmissionRequest mirrors the external grade operation.
type GradeSubmissionRequest struct {
	QuizID        string                   `json:"quizId"`
	UserAnswers   []domain.SubmittedAnswer `json:"userAnswers"`
	QuizStartTime int64                    `json:"quizStartTime"`
}

// GradingResult is what the caller gets back; the same data is persisted as
// the attempt.
type GradingResult struct {
	Score            domain.Score          `json:"score"`
	AttemptID        string                `json:"attemptId"`
	ReviewDetails    []domain.GradedAnswer `json:"reviewDetails"`
	TimeSpentSeconds int64                 `json:"timeSpentSeconds"`
}

// GradeSubmission resolves the quiz's answer key, grades every submitted
// answer (unknown question ids are recorded, never fatal), and persists the
// attempt.
func (s *QuizService) GradeSubmission(ctx context.Context, req GradeSubmissionRequest, requester domain.Requester) (GradingResult, error) {
	if requester.UserID == "" {
		return GradingResult{}, domain.E(domain.KindUnauthenticated, "caller identity required")
	}
	if strings.TrimSpace(req.QuizID) == "" {
		return GradingResult{}, domain.E(domain.KindInvalidArgument, "quizId is required")
	}
	if len(req.UserAnswers) == 0 {
		return GradingResult{}, domain.E(domain.KindInvalidArgument, "userAnswers must not be empty")
	}

	key, err := s.keys.AnswerKey(ctx, req.QuizID)
	if err != nil {
		return GradingResult{}, err
	}

	correct, details := Grade(key, req.UserAnswers)
	total := len(req.UserAnswers)
	score := domain.Score{Correct: correct, Incorrect: total - correct, Total: total}

	elapsed := int64(0)
	if req.QuizStartTime > 0 {
		elapsed = (s.now().UnixMilli() - req.QuizStartTime) / 1000
		if elapsed < 0 {
			elapsed = 0
		}
	}

	attempt, err := s.attempts.CreateAttempt(ctx, domain.QuizAttempt{
		QuizID:           req.QuizID,
		UserID:           requester.UserID,
		Score:            score,
		Answers:          details,
		TimeSpentSeconds: elapsed,
	})
	if err != nil {
		return GradingResult{}, err
	}

	s.log.Info("submission graded",
		"quizId", req.QuizID,
		"attemptId", attempt.ID,
		"correct", score.Correct,
		"total", score.Total,
	)
	return GradingResult{
		Score:            score,
		AttemptID:        attempt.ID,
		ReviewDetails:    details,
		TimeSpentSeconds: elapsed,
	}, nil
}

// GetQuiz returns a stored quiz. Non-admins never see soft-deleted quizzes,
// and only the creator or an admin sees the answer key; everyone else gets
// the answer-stripped taking view.
func (s *QuizService) GetQuiz(ctx context.Context, quizID string, requester domain.Requester) (domain.Quiz, error) {
	if requester.UserID == "" {
		return domain.Quiz{}, domain.E(domain.KindUnauthenticated, "caller identity required")
	}
	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return domain.Quiz{}, err
	}
	if quiz.Status == domain.StatusDeleted && !requester.Admin {
		return domain.Quiz{}, domain.E(domain.KindNotFound, "quiz not found")
	}
	if quiz.CreatedBy != requester.UserID && !requester.Admin {
		return StripAnswers(quiz), nil
	}
	return quiz, nil
}

// StripAnswers clears the answer tokens for the quiz-taking payload.
func StripAnswers(quiz domain.Quiz) domain.Quiz {
	questions := make([]domain.Question, len(quiz.Questions))
	for i, q := range quiz.Questions {
		q.Answer = ""
		questions[i] = q
	}
	quiz.Questions = questions
	return quiz
}

// SetQuizVisibility publishes or unpublishes a quiz. Admin capability only.
func (s *QuizService) SetQuizVisibility(ctx context.Context, quizID string, visibility domain.Visibility, requester domain.Requester) (domain.Quiz, error) {
	if requester.UserID == "" {
		return domain.Quiz{}, domain.E(domain.KindUnauthenticated, "caller identity required")
	}
	if !requester.Admin {
		return domain.Quiz{}, domain.E(domain.KindPermissionDenied, "changing visibility requires admin capability")
	}
	if !visibility.Valid() {
		return domain.Quiz{}, domain.E(domain.KindInvalidArgument, "visibility must be global or private")
	}
	return s.quizzes.SetQuizVisibility(ctx, quizID, visibility)
}

// SetQuizStatus soft-deletes or restores a quiz. Admin capability only;
// attempts against a soft-deleted quiz remain gradable.
func (s *QuizService) SetQuizStatus(ctx context.Context, quizID string, status domain.QuizStatus, requester domain.Requester) (domain.Quiz, error) {
	if requester.UserID == "" {
		return domain.Quiz{}, domain.E(domain.KindUnauthenticated, "caller identity required")
	}
	if !requester.Admin {
		return domain.Quiz{}, domain.E(domain.KindPermissionDenied, "changing status requires admin capability")
	}
	if !status.Valid() {
		return domain.Quiz{}, domain.E(domain.KindInvalidArgument, "status must be active or deleted")
	}
	return s.quizzes.SetQuizStatus(ctx, quizID, status)
}
