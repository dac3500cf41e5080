package redis

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"quizduel/internal/domain"
	"quizduel/internal/infra/memory"
)

func TestQuestionCacheCachesInRedis(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := newClient(mr)

	gen := &countingGenerator{
		QuestionGenerator: memory.NewStaticQuestionBank([]domain.Question{sampleQuestion()}),
	}
	cache := NewQuestionCache(client, gen, time.Minute)

	q, err := cache.GenerateQuestion(context.Background(), "mean")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if gen.calls != 1 {
		t.Fatalf("expected generator called once, got %d", gen.calls)
	}
	if !mr.Exists("quizduel:question:mean") {
		t.Fatalf("expected redis hash to be written")
	}

	// Second call should hit cache, generator not incremented.
	cached, err := cache.GenerateQuestion(context.Background(), "MEAN")
	if err != nil {
		t.Fatalf("generate cached: %v", err)
	}
	if gen.calls != 1 {
		t.Fatalf("expected cache hit, generator calls=%d", gen.calls)
	}
	if cached.Prompt != q.Prompt || cached.ReferenceAnswer != q.ReferenceAnswer || cached.Context != q.Context {
		t.Fatalf("cached question mismatch: %+v vs %+v", cached, q)
	}
}

func TestQuestionCacheExpiresWithTTL(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	gen := &countingGenerator{
		QuestionGenerator: memory.NewStaticQuestionBank([]domain.Question{sampleQuestion()}),
	}
	cache := NewQuestionCache(newClient(mr), gen, time.Minute)

	_, _ = cache.GenerateQuestion(context.Background(), "mean")
	mr.FastForward(2 * time.Minute)
	_, _ = cache.GenerateQuestion(context.Background(), "mean")
	if gen.calls != 2 {
		t.Fatalf("expected reload after ttl, generator calls=%d", gen.calls)
	}
}

type countingGenerator struct {
	memory.QuestionGenerator
	calls int
}

func (g *countingGenerator) GenerateQuestion(ctx context.Context, topic string) (domain.Question, error) {
	g.calls++
	return g.QuestionGenerator.GenerateQuestion(ctx, topic)
}

func sampleQuestion() domain.Question {
	return domain.Question{
		Prompt:          "How is the arithmetic mean calculated?",
		ReferenceAnswer: "sum of values divided by their count",
		Topic:           "mean",
		Context:         "descriptive statistics",
	}
}

func newClient(mr *miniredis.Miniredis) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
}
