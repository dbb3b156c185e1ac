package postgres

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"sportsquiz-service/internal/domain"
)

// QuizStore persists quizzes as JSONB documents. The id, lifecycle status and
// creation timestamp live in columns so the server assigns them; the columns
// are authoritative over whatever the document body says.
type QuizStore struct {
	pool *pgxpool.Pool
}

func NewQuizStore(pool *pgxpool.Pool) *QuizStore {
	return &QuizStore{pool: pool}
}

func (s *QuizStore) CreateQuiz(ctx context.Context, quiz domain.Quiz) (domain.Quiz, error) {
	quiz.ID = uuid.NewString()

	data, err := json.Marshal(quiz)
	if err != nil {
		return domain.Quiz{}, domain.Wrap(domain.KindInternal, "marshal quiz", err)
	}

	err = s.pool.QueryRow(ctx,
		`INSERT INTO quizzes (id, data, status) VALUES ($1, $2, $3) RETURNING created_at`,
		quiz.ID, data, string(quiz.Status),
	).Scan(&quiz.CreatedAt)
	if err != nil {
		return domain.Quiz{}, domain.Wrap(domain.KindInternal, "insert quiz", err)
	}
	return quiz, nil
}

func (s *QuizStore) GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	var (
		raw    []byte
		status string
		quiz   domain.Quiz
	)
	err := s.pool.QueryRow(ctx,
		`SELECT data, status, created_at FROM quizzes WHERE id=$1`,
		quizID,
	).Scan(&raw, &status, &quiz.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Quiz{}, domain.E(domain.KindNotFound, "quiz not found")
	}
	if err != nil {
		return domain.Quiz{}, domain.Wrap(domain.KindInternal, "load quiz", err)
	}

	createdAt := quiz.CreatedAt
	if err := json.Unmarshal(raw, &quiz); err != nil {
		return domain.Quiz{}, domain.Wrap(domain.KindInternal, "unmarshal quiz", err)
	}
	quiz.ID = quizID
	quiz.Status = domain.QuizStatus(status)
	quiz.CreatedAt = createdAt
	return quiz, nil
}

func (s *QuizStore) SetQuizVisibility(ctx context.Context, quizID string, visibility domain.Visibility) (domain.Quiz, error) {
	tag, err := s.pool.Exec(ctx,
		`UPDATE quizzes SET data = jsonb_set(data, '{visibility}', to_jsonb($2::text)) WHERE id=$1`,
		quizID, string(visibility),
	)
	if err != nil {
		return domain.Quiz{}, domain.Wrap(domain.KindInternal, "update quiz visibility", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.Quiz{}, domain.E(domain.KindNotFound, "quiz not found")
	}
	return s.GetQuiz(ctx, quizID)
}

func (s *QuizStore) SetQuizStatus(ctx context.Context, quizID string, status domain.QuizStatus) (domain.Quiz, error) {
	tag, err := s.pool.Exec(ctx,
		`UPDATE quizzes SET status=$2, data = jsonb_set(data, '{status}', to_jsonb($2::text)) WHERE id=$1`,
		quizID, string(status),
	)
	if err != nil {
		return domain.Quiz{}, domain.Wrap(domain.KindInternal, "update quiz status", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.Quiz{}, domain.E(domain.KindNotFound, "quiz not found")
	}
	return s.GetQuiz(ctx, quizID)
}
