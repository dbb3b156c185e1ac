package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"sportsquiz-service/internal/domain"
)

// Store is an in-memory document store for quizzes and attempts. Used by
// tests and as the storage fallback when no Postgres URL is configured.
type Store struct {
	mu       sync.RWMutex
	clock    func() time.Time
	quizzes  map[string]domain.Quiz
	attempts map[string]domain.QuizAttempt
}

func NewStore() *Store {
	return &Store{
		clock:    time.Now,
		quizzes:  make(map[string]domain.Quiz),
		attempts: make(map[string]domain.QuizAttempt),
	}
}

// NewStoreWithClock is test-only for deterministic timestamps.
func NewStoreWithClock(now func() time.Time) *Store {
	s := NewStore()
	s.clock = now
	return s
}

func (s *Store) CreateQuiz(_ context.Context, quiz domain.Quiz) (domain.Quiz, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	quiz.ID = uuid.NewString()
	quiz.CreatedAt = s.clock()
	s.quizzes[quiz.ID] = quiz
	return quiz, nil
}

func (s *Store) GetQuiz(_ context.Context, quizID string) (domain.Quiz, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	quiz, ok := s.quizzes[quizID]
	if !ok {
		return domain.Quiz{}, domain.E(domain.KindNotFound, "quiz not found")
	}
	return quiz, nil
}

func (s *Store) SetQuizVisibility(_ context.Context, quizID string, visibility domain.Visibility) (domain.Quiz, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	quiz, ok := s.quizzes[quizID]
	if !ok {
		return domain.Quiz{}, domain.E(domain.KindNotFound, "quiz not found")
	}
	quiz.Visibility = visibility
	s.quizzes[quizID] = quiz
	return quiz, nil
}

func (s *Store) SetQuizStatus(_ context.Context, quizID string, status domain.QuizStatus) (domain.Quiz, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	quiz, ok := s.quizzes[quizID]
	if !ok {
		return domain.Quiz{}, domain.E(domain.KindNotFound, "quiz not found")
	}
	quiz.Status = status
	s.quizzes[quizID] = quiz
	return quiz, nil
}

func (s *Store) CreateAttempt(_ context.Context, attempt domain.QuizAttempt) (domain.QuizAttempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	attempt.ID = uuid.NewString()
	attempt.CompletedAt = s.clock()
	s.attempts[attempt.ID] = attempt
	return attempt, nil
}

// GetAttempt is used by tests to check what was persisted.
func (s *Store) GetAttempt(_ context.Context, attemptID string) (domain.QuizAttempt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	attempt, ok := s.attempts[attemptID]
	if !ok {
		return domain.QuizAttempt{}, domain.E(domain.KindNotFound, "attempt not found")
	}
	return attempt, nil
}

// SeedQuiz inserts a quiz with a caller-chosen id; test helper.
func (s *Store) SeedQuiz(quiz domain.Quiz) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if quiz.CreatedAt.IsZero() {
		quiz.CreatedAt = s.clock()
	}
	s.quizzes[quiz.ID] = quiz
}
