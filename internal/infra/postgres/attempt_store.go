package postgres

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4/pgxpool"

	"sportsquiz-service/internal/domain"
)

// AttemptStore persists grading results. Attempts are written once and never
// updated; the completion timestamp is server-assigned.
type AttemptStore struct {
	pool *pgxpool.Pool
}

func NewAttemptStore(pool *pgxpool.Pool) *AttemptStore {
	return &AttemptStore{pool: pool}
}

func (s *AttemptStore) CreateAttempt(ctx context.Context, attempt domain.QuizAttempt) (domain.QuizAttempt, error) {
	attempt.ID = uuid.NewString()

	data, err := json.Marshal(attempt)
	if err != nil {
		return domain.QuizAttempt{}, domain.Wrap(domain.KindInternal, "marshal attempt", err)
	}

	err = s.pool.QueryRow(ctx,
		`INSERT INTO quiz_attempts (id, quiz_id, data) VALUES ($1, $2, $3) RETURNING completed_at`,
		attempt.ID, attempt.QuizID, data,
	).Scan(&attempt.CompletedAt)
	if err != nil {
		return domain.QuizAttempt{}, domain.Wrap(domain.KindInternal, "insert attempt", err)
	}
	return attempt, nil
}
