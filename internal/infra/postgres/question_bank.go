package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"quizduel/internal/domain"
)

// QuestionBank serves curated questions from Postgres. It is used as a generator
// when the question service is unavailable, and as the simulated opponent's knowledge.
type QuestionBank struct {
	pool *pgxpool.Pool
}

func NewQuestionBank(pool *pgxpool.Pool) *QuestionBank {
	return &QuestionBank{pool: pool}
}

// GenerateQuestion picks a random question for the topic.
func (b *QuestionBank) GenerateQuestion(ctx context.Context, topic string) (domain.Question, error) {
	q := domain.Question{Topic: topic}
	err := b.pool.QueryRow(ctx,
		`SELECT prompt, answer, context FROM questions WHERE lower(topic) = lower($1) ORDER BY random() LIMIT 1`,
		topic,
	).Scan(&q.Prompt, &q.ReferenceAnswer, &q.Context)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Question{}, fmt.Errorf("topic %q: %w", topic, domain.ErrQuestionNotFound)
	}
	if err != nil {
		return domain.Question{}, fmt.Errorf("load question: %w", err)
	}
	return q, nil
}

// AnswerFor returns a reference answer for the topic, if the bank has one.
func (b *QuestionBank) AnswerFor(topic string) (string, bool) {
	var answer string
	err := b.pool.QueryRow(context.Background(),
		`SELECT answer FROM questions WHERE lower(topic) = lower($1) AND answer <> '' ORDER BY random() LIMIT 1`,
		topic,
	).Scan(&answer)
	if err != nil {
		return "", false
	}
	return answer, true
}

// Topics lists the distinct topics in the bank.
func (b *QuestionBank) Topics(ctx context.Context) ([]string, error) {
	rows, err := b.pool.Query(ctx, `SELECT DISTINCT topic FROM questions ORDER BY topic`)
	if err != nil {
		return nil, fmt.Errorf("list topics: %w", err)
	}
	defer rows.Close()

	var topics []string
	for rows.Next() {
		var topic string
		if err := rows.Scan(&topic); err != nil {
			return nil, fmt.Errorf("scan topic: %w", err)
		}
		topics = append(topics, topic)
	}
	return topics, rows.Err()
}
