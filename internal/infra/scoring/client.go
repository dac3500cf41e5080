package scoring

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/rs/zerolog/log"

	"quizduel/internal/domain"
)

// Client talks to the question-generation / answer-classification service.
//
//	GET  {base}/v1/generate_question?topic=...  -> {prompt, topic, context, generated_question}
//	POST {base}/v1/classify_answer              -> {question, predicted_score}
type Client struct {
	baseURL    string
	httpClient *http.Client
	maxTries   uint
}

type Option func(*Client)

// WithHTTPClient overrides the HTTP client (tests, custom transports).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithMaxTries bounds retries of question generation. Answer classification is never retried.
func WithMaxTries(n uint) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxTries = n
		}
	}
}

func NewClient(baseURL string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		maxTries:   3,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type generateResponse struct {
	Prompt            string `json:"prompt"`
	Topic             string `json:"topic"`
	Context           string `json:"context"`
	GeneratedQuestion string `json:"generated_question"`
}

type classifyRequest struct {
	Question      string `json:"question"`
	StudentAnswer string `json:"student_answer"`
}

type classifyResponse struct {
	Question       string   `json:"question"`
	PredictedScore *float64 `json:"predicted_score"`
}

// GenerateQuestion retries transient failures with exponential backoff.
func (c *Client) GenerateQuestion(ctx context.Context, topic string) (domain.Question, error) {
	op := func() (generateResponse, error) {
		var out generateResponse
		endpoint := c.baseURL + "/v1/generate_question?topic=" + url.QueryEscape(topic)
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return out, backoff.Permanent(err)
		}
		if err := c.do(req, &out); err != nil {
			return out, err
		}
		return out, nil
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 200 * time.Millisecond
	b.MaxInterval = 2 * time.Second
	res, err := backoff.Retry(ctx, op, backoff.WithBackOff(b), backoff.WithMaxTries(c.maxTries))
	if err != nil {
		return domain.Question{}, fmt.Errorf("generate question %q: %w", topic, err)
	}

	prompt := res.GeneratedQuestion
	if strings.TrimSpace(prompt) == "" {
		prompt = fmt.Sprintf("What is %s?", topic)
	}
	q := domain.Question{
		Prompt:  prompt,
		Topic:   res.Topic,
		Context: res.Context,
	}
	if q.Topic == "" {
		q.Topic = topic
	}
	if q.Context == "" {
		q.Context = "No context available."
	}
	return q, nil
}

// SubmitAnswer classifies an answer. The service only sees the question identifier.
func (c *Client) SubmitAnswer(ctx context.Context, submission domain.AnswerSubmission) (domain.Evaluation, error) {
	body, err := json.Marshal(classifyRequest{
		Question:      fmt.Sprintf("Question ID: %d", submission.QuestionID),
		StudentAnswer: submission.Answer,
	})
	if err != nil {
		return domain.Evaluation{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/classify_answer", bytes.NewReader(body))
	if err != nil {
		return domain.Evaluation{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	var out classifyResponse
	if err := c.do(req, &out); err != nil {
		return domain.Evaluation{}, fmt.Errorf("classify answer: %w", err)
	}
	if out.PredictedScore == nil {
		return domain.Evaluation{}, fmt.Errorf("classify answer: no predicted_score: %w", domain.ErrServiceUnavailable)
	}
	return EvaluationForScore(*out.PredictedScore), nil
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		log.Debug().
			Int("status", resp.StatusCode).
			Str("path", req.URL.Path).
			Str("body", string(msg)).
			Msg("scoring service error")
		err := fmt.Errorf("%w: status %d", domain.ErrServiceUnavailable, resp.StatusCode)
		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			return backoff.Permanent(err)
		}
		return err
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return backoff.Permanent(fmt.Errorf("decode response: %w", err))
	}
	return nil
}
