package memory

import (
	"context"
	"math/rand"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"quizduel/internal/domain"
)

// QuestionGenerator produces a question for a topic (question service, bank).
type QuestionGenerator interface {
	GenerateQuestion(ctx context.Context, topic string) (domain.Question, error)
}

// QuestionCache caches generated questions per topic with TTL to avoid repeated
// round trips to the generator. Concurrent misses for one topic share a single call.
type QuestionCache struct {
	generator QuestionGenerator
	ttl       time.Duration
	clock     func() time.Time
	sf        singleflight.Group
	rnd       *rand.Rand
	rndMu     sync.Mutex

	mu    sync.RWMutex
	cache map[string]cachedQuestion
}

type cachedQuestion struct {
	question  domain.Question
	expiresAt time.Time
}

func NewQuestionCache(generator QuestionGenerator, ttl time.Duration) *QuestionCache {
	return &QuestionCache{
		generator: generator,
		ttl:       ttl,
		clock:     time.Now,
		rnd:       rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:     make(map[string]cachedQuestion),
	}
}

func (c *QuestionCache) GenerateQuestion(ctx context.Context, topic string) (domain.Question, error) {
	key := strings.ToLower(topic)
	now := c.clock()

	c.mu.RLock()
	if entry, ok := c.cache[key]; ok && entry.expiresAt.After(now) {
		c.mu.RUnlock()
		return entry.question, nil
	}
	c.mu.RUnlock()

	result, err, _ := c.sf.Do(key, func() (interface{}, error) {
		now := c.clock()
		c.mu.RLock()
		if entry, ok := c.cache[key]; ok && entry.expiresAt.After(now) {
			c.mu.RUnlock()
			return entry.question, nil
		}
		c.mu.RUnlock()

		q, err := c.generator.GenerateQuestion(ctx, topic)
		if err != nil {
			return domain.Question{}, err
		}

		c.mu.Lock()
		c.cache[key] = cachedQuestion{
			question:  q,
			expiresAt: now.Add(c.ttlWithJitter()),
		}
		c.mu.Unlock()
		return q, nil
	})
	if err != nil {
		return domain.Question{}, err
	}
	return result.(domain.Question), nil
}

func (c *QuestionCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	c.rndMu.Lock()
	defer c.rndMu.Unlock()
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}

// StaticQuestionBank is a simple generator backed by an in-memory map of topic to
// questions (useful for tests, demos and the offline opponent).
type StaticQuestionBank struct {
	mu        sync.Mutex
	rnd       *rand.Rand
	questions map[string][]domain.Question
}

func NewStaticQuestionBank(questions []domain.Question) *StaticQuestionBank {
	byTopic := make(map[string][]domain.Question)
	for _, q := range questions {
		key := strings.ToLower(q.Topic)
		byTopic[key] = append(byTopic[key], q)
	}
	return &StaticQuestionBank{
		rnd:       rand.New(rand.NewSource(time.Now().UnixNano())),
		questions: byTopic,
	}
}

func (b *StaticQuestionBank) GenerateQuestion(_ context.Context, topic string) (domain.Question, error) {
	candidates := b.questions[strings.ToLower(topic)]
	if len(candidates) == 0 {
		return domain.Question{}, domain.ErrQuestionNotFound
	}
	b.mu.Lock()
	q := candidates[b.rnd.Intn(len(candidates))]
	b.mu.Unlock()
	return q, nil
}

// AnswerFor returns a reference answer for the topic, if the bank knows one.
func (b *StaticQuestionBank) AnswerFor(topic string) (string, bool) {
	candidates := b.questions[strings.ToLower(topic)]
	if len(candidates) == 0 {
		return "", false
	}
	b.mu.Lock()
	q := candidates[b.rnd.Intn(len(candidates))]
	b.mu.Unlock()
	return q.ReferenceAnswer, q.ReferenceAnswer != ""
}
