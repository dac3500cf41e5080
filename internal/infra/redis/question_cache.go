package redis

import (
	"context"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"quizduel/internal/domain"
)

// QuestionGenerator produces a question for a topic (question service, bank).
type QuestionGenerator interface {
	GenerateQuestion(ctx context.Context, topic string) (domain.Question, error)
}

// QuestionCache caches generated questions in Redis (hash per topic) and falls back
// to the generator on a miss, so several engine processes share generated content.
//
//	HSET quizduel:question:{topic} prompt ... answer ... topic ... context ...
type QuestionCache struct {
	client    *redis.Client
	generator QuestionGenerator
	ttl       time.Duration
	sf        singleflight.Group
	rnd       *rand.Rand
	rndMu     sync.Mutex
}

func NewQuestionCache(client *redis.Client, generator QuestionGenerator, ttl time.Duration) *QuestionCache {
	return &QuestionCache{
		client:    client,
		generator: generator,
		ttl:       ttl,
		rnd:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *QuestionCache) GenerateQuestion(ctx context.Context, topic string) (domain.Question, error) {
	key := c.key(topic)

	fields, err := c.client.HGetAll(ctx, key).Result()
	if err == nil && fields["prompt"] != "" {
		return questionFromCache(fields), nil
	}

	result, err, _ := c.sf.Do(key, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		fields, err := c.client.HGetAll(ctx, key).Result()
		if err == nil && fields["prompt"] != "" {
			return questionFromCache(fields), nil
		}

		q, err := c.generator.GenerateQuestion(ctx, topic)
		if err != nil {
			return domain.Question{}, err
		}

		pipe := c.client.Pipeline()
		pipe.HSet(ctx, key,
			"prompt", q.Prompt,
			"answer", q.ReferenceAnswer,
			"topic", q.Topic,
			"context", q.Context,
		)
		if ttl := c.ttlWithJitter(); ttl > 0 {
			pipe.Expire(ctx, key, ttl)
		}
		if _, err := pipe.Exec(ctx); err != nil {
			log.Warn().Err(err).Str("topic", topic).Msg("question cache write failed")
		}
		return q, nil
	})
	if err != nil {
		return domain.Question{}, err
	}
	return result.(domain.Question), nil
}

func (c *QuestionCache) key(topic string) string {
	return "quizduel:question:" + strings.ToLower(topic)
}

func questionFromCache(fields map[string]string) domain.Question {
	return domain.Question{
		Prompt:          fields["prompt"],
		ReferenceAnswer: fields["answer"],
		Topic:           fields["topic"],
		Context:         fields["context"],
	}
}

func (c *QuestionCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	jitterMax := int64(c.ttl) / 10
	c.rndMu.Lock()
	defer c.rndMu.Unlock()
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
