package redis

import (
	"context"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"sportsquiz-service/internal/app"
	"sportsquiz-service/internal/domain"
)

// AnswerKeyCache caches answer keys in Redis (two hashes per quiz) and falls
// back to the store-backed source on a miss.
// Answers are stored as: HSET quiz:{quizID}:answers {questionID} {token}
// Types are stored as:   HSET quiz:{quizID}:types   {questionID} {quizType}
// Only successful resolutions are cached; NotFound and corrupt quizzes go to
// the source every time.
type AnswerKeyCache struct {
	client *redis.Client
	source app.AnswerKeySource
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
}

func NewAnswerKeyCache(client *redis.Client, source app.AnswerKeySource, ttl time.Duration) *AnswerKeyCache {
	return &AnswerKeyCache{
		client: client,
		source: source,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *AnswerKeyCache) AnswerKey(ctx context.Context, quizID string) (app.AnswerKey, error) {
	answersKey := c.answersKey(quizID)
	typesKey := c.typesKey(quizID)

	answers, err := c.client.HGetAll(ctx, answersKey).Result()
	if err == nil && len(answers) > 0 {
		types, _ := c.client.HGetAll(ctx, typesKey).Result()
		return buildKeyFromCache(quizID, answers, types), nil
	}

	result, err, _ := c.sf.Do(quizID, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		answers, err := c.client.HGetAll(ctx, answersKey).Result()
		if err == nil && len(answers) > 0 {
			types, _ := c.client.HGetAll(ctx, typesKey).Result()
			return buildKeyFromCache(quizID, answers, types), nil
		}

		key, err := c.source.AnswerKey(ctx, quizID)
		if err != nil {
			return app.AnswerKey{}, err
		}

		ttl := c.ttlWithJitter()
		pipe := c.client.Pipeline()
		for questionID, entry := range key.Entries {
			pipe.HSet(ctx, answersKey, questionID, entry.Answer)
			pipe.HSet(ctx, typesKey, questionID, string(entry.Type))
		}
		if ttl > 0 {
			pipe.Expire(ctx, answersKey, ttl)
			pipe.Expire(ctx, typesKey, ttl)
		}
		_, _ = pipe.Exec(ctx)

		return key, nil
	})
	if err != nil {
		return app.AnswerKey{}, err
	}
	return result.(app.AnswerKey), nil
}

// Invalidate drops the cached key, used after admin mutations.
func (c *AnswerKeyCache) Invalidate(ctx context.Context, quizID string) {
	_ = c.client.Del(ctx, c.answersKey(quizID), c.typesKey(quizID)).Err()
}

func (c *AnswerKeyCache) answersKey(quizID string) string {
	return "quiz:" + quizID + ":answers"
}

func (c *AnswerKeyCache) typesKey(quizID string) string {
	return "quiz:" + quizID + ":types"
}

func buildKeyFromCache(quizID string, answers, types map[string]string) app.AnswerKey {
	entries := make(map[string]app.KeyEntry, len(answers))
	for questionID, token := range answers {
		quizType := domain.QuizType(types[questionID])
		if !quizType.Valid() {
			quizType = domain.MultipleChoice
		}
		entries[questionID] = app.KeyEntry{Answer: token, Type: quizType}
	}
	return app.AnswerKey{QuizID: quizID, Entries: entries}
}

func (c *AnswerKeyCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
