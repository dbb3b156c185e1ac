package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"

	"sportsquiz-service/internal/app"
	"sportsquiz-service/internal/domain"
	"sportsquiz-service/internal/infra/memory"
)

// countingSource wraps a real source and counts resolutions so tests can tell
// cache hits from misses.
type countingSource struct {
	inner app.AnswerKeySource
	calls int
}

func (s *countingSource) AnswerKey(ctx context.Context, quizID string) (app.AnswerKey, error) {
	s.calls++
	return s.inner.AnswerKey(ctx, quizID)
}

func newCacheFixture(t *testing.T) (*AnswerKeyCache, *countingSource, *memory.Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	store := memory.NewStore()
	source := &countingSource{inner: app.NewStoreAnswerKeys(store)}
	cache := NewAnswerKeyCache(client, source, time.Minute)
	return cache, source, store, mr
}

func seedQuiz(store *memory.Store) {
	store.SeedQuiz(domain.Quiz{
		ID:     "quiz-1",
		Status: domain.StatusActive,
		Questions: []domain.Question{
			{ID: "q1", Answer: "A", QuizType: domain.MultipleChoice},
			{ID: "q2", Answer: "True", QuizType: domain.TrueFalse},
		},
	})
}

func TestAnswerKeyCachePopulatesOnMiss(t *testing.T) {
	cache, source, store, mr := newCacheFixture(t)
	seedQuiz(store)

	key, err := cache.AnswerKey(context.Background(), "quiz-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if source.calls != 1 {
		t.Fatalf("expected 1 source call, got %d", source.calls)
	}
	if len(key.Entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(key.Entries))
	}

	if got := mr.HGet("quiz:quiz-1:answers", "q1"); got != "A" {
		t.Fatalf("answer not written to redis, got %q", got)
	}
	if got := mr.HGet("quiz:quiz-1:types", "q2"); got != string(domain.TrueFalse) {
		t.Fatalf("type not written to redis, got %q", got)
	}
	if mr.TTL("quiz:quiz-1:answers") <= 0 {
		t.Fatalf("answers hash must carry a TTL")
	}
}

func TestAnswerKeyCacheServesHitsWithoutSource(t *testing.T) {
	cache, source, store, _ := newCacheFixture(t)
	seedQuiz(store)

	if _, err := cache.AnswerKey(context.Background(), "quiz-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	key, err := cache.AnswerKey(context.Background(), "quiz-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if source.calls != 1 {
		t.Fatalf("second lookup must be a cache hit, got %d source calls", source.calls)
	}
	if key.Entries["q2"].Type != domain.TrueFalse {
		t.Fatalf("cached entry lost its type: %+v", key.Entries["q2"])
	}
	if key.Entries["q1"].Answer != "A" {
		t.Fatalf("cached entry lost its answer: %+v", key.Entries["q1"])
	}
}

func TestAnswerKeyCacheDoesNotCacheFailures(t *testing.T) {
	cache, source, _, _ := newCacheFixture(t)

	for i := 0; i < 2; i++ {
		_, err := cache.AnswerKey(context.Background(), "missing")
		if !domain.IsKind(err, domain.KindNotFound) {
			t.Fatalf("expected not_found, got %v", err)
		}
	}
	if source.calls != 2 {
		t.Fatalf("failures must not be cached, got %d source calls", source.calls)
	}
}

func TestAnswerKeyCacheInvalidate(t *testing.T) {
	cache, source, store, _ := newCacheFixture(t)
	seedQuiz(store)

	if _, err := cache.AnswerKey(context.Background(), "quiz-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cache.Invalidate(context.Background(), "quiz-1")

	if _, err := cache.AnswerKey(context.Background(), "quiz-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if source.calls != 2 {
		t.Fatalf("invalidate must force a source reload, got %d calls", source.calls)
	}
}

func TestAnswerKeyCacheExpiry(t *testing.T) {
	cache, source, store, mr := newCacheFixture(t)
	seedQuiz(store)

	if _, err := cache.AnswerKey(context.Background(), "quiz-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	mr.FastForward(3 * time.Minute) // past ttl plus jitter

	if _, err := cache.AnswerKey(context.Background(), "quiz-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if source.calls != 2 {
		t.Fatalf("expired entry must be reloaded, got %d calls", source.calls)
	}
}
