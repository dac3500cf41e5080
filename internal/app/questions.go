package app

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"quizduel/internal/domain"
)

// Topics is the pool questions are generated from.
var Topics = []string{
	"mean", "median", "mode", "variance", "standard deviation", "normal distribution",
	"z-score", "probability", "sampling", "confidence interval", "t-test",
	"chi-square test", "hypothesis testing", "correlation", "regression",
	"linear regression", "logistic regression", "outliers", "skewness",
	"descriptive statistics", "inference", "statistical significance",
	"random sampling", "data distribution", "histograms", "percentiles",
	"quartiles", "scatter plots", "Bayesian inference", "p-values",
	"Type I error", "Type II error", "confidence levels", "sample size",
	"response bias", "non-response bias", "students t-distribution",
	"degrees of freedom", "z-table", "t-table", "left-tailed test",
	"frequency distribution", "relative frequency", "cumulative frequency",
	"mutually exclusive events", "independent events", "dependent events",
	"conditional probability", "Bayes' theorem", "random variables",
	"discrete random variables", "continuous random variables", "expected value",
	"Bernoulli distribution", "Binomial distribution", "Poisson distribution",
	"Geometric distribution", "Uniform distribution", "Exponential distribution",
	"Beta distribution", "Gamma distribution", "joint probability",
	"counting principles", "permutations", "combinations",
	"cross-validation", "train-test split", "feature selection", "bagging",
	"boosting", "ensemble learning", "data leakage", "confusion matrix",
	"precision and recall", "F1 score", "ROC curve", "AUC",
	"classification threshold", "covariance matrix", "bootstrap",
	"principal component analysis",
}

// TopicPicker chooses the topics for a match.
type TopicPicker interface {
	PickTopics(n int) []string
}

// RandomTopicPicker draws topics uniformly (with replacement) from a pool.
type RandomTopicPicker struct {
	mu   sync.Mutex
	rnd  *rand.Rand
	pool []string
}

func NewRandomTopicPicker(rnd *rand.Rand) *RandomTopicPicker {
	if rnd == nil {
		rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &RandomTopicPicker{rnd: rnd, pool: Topics}
}

func (p *RandomTopicPicker) PickTopics(n int) []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, p.pool[p.rnd.Intn(len(p.pool))])
	}
	return out
}

// FixedTopics returns the same topics every match, cycling if more are asked for.
type FixedTopics []string

func (f FixedTopics) PickTopics(n int) []string {
	if len(f) == 0 {
		return nil
	}
	out := make([]string, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, f[i%len(f)])
	}
	return out
}

var fallbackPrompts = map[string]string{
	"mode":        "What is the mode in statistics?",
	"bagging":     "Explain the concept of bagging in machine learning.",
	"mean":        "How is the arithmetic mean calculated?",
	"probability": "Define conditional probability.",
}

const placeholderContext = "Failed to load context."

// PlaceholderQuestion synthesizes a question for a topic whose generation failed.
func PlaceholderQuestion(topic string) domain.Question {
	prompt, ok := fallbackPrompts[topic]
	if !ok {
		prompt = fmt.Sprintf("What is %s?", topic)
	}
	return domain.Question{
		Prompt:  prompt,
		Topic:   topic,
		Context: placeholderContext,
	}
}

// DefaultQuestions is the built-in set used when nothing could be generated.
func DefaultQuestions() []domain.Question {
	return []domain.Question{
		{ID: 1, Prompt: "What is the capital of France?", ReferenceAnswer: "Paris", Topic: "geography"},
		{ID: 2, Prompt: "What is the largest planet in our solar system?", ReferenceAnswer: "Jupiter", Topic: "astronomy"},
		{ID: 3, Prompt: "Who wrote 'Romeo and Juliet'?", ReferenceAnswer: "William Shakespeare", Topic: "literature"},
		{ID: 4, Prompt: "What is the square root of 144?", ReferenceAnswer: "12", Topic: "mathematics"},
		{ID: 5, Prompt: "What is the main component of Earth's atmosphere?", ReferenceAnswer: "Nitrogen", Topic: "science"},
	}
}

// loadQuestions generates one question per topic, sequentially. A failed topic gets
// a placeholder for its slot only; if every slot failed the built-in set is used.
func (e *Engine) loadQuestions(ctx context.Context, n int) []domain.Question {
	if e.generator == nil || n <= 0 {
		e.log.Warn().Msg("no question generator configured, using default questions")
		return DefaultQuestions()
	}

	topics := e.topics.PickTopics(n)
	questions := make([]domain.Question, 0, len(topics))
	failures := 0
	for i, topic := range topics {
		e.log.Debug().Int("slot", i+1).Str("topic", topic).Msg("loading question")

		q, err := e.generator.GenerateQuestion(ctx, topic)
		if err == nil && strings.TrimSpace(q.Prompt) == "" {
			err = fmt.Errorf("empty prompt for topic %q", topic)
		}
		if err != nil {
			e.log.Warn().Err(err).Str("topic", topic).Msg("question generation failed, using placeholder")
			q = PlaceholderQuestion(topic)
			failures++
		}
		if q.Topic == "" {
			q.Topic = topic
		}
		q.ID = i + 1
		questions = append(questions, q)
	}

	if len(questions) == 0 || failures == len(questions) {
		e.log.Warn().Int("failures", failures).Msg("no questions generated, using default questions")
		return DefaultQuestions()
	}
	return questions
}
