package app

import (
	"context"

	"quizduel/internal/domain"
)

// QuestionGenerator produces one question for a topic (question service, bank, cache).
type QuestionGenerator interface {
	GenerateQuestion(ctx context.Context, topic string) (domain.Question, error)
}

// AnswerScorer evaluates a free-text answer. Calls count as attempts and are never retried.
type AnswerScorer interface {
	SubmitAnswer(ctx context.Context, submission domain.AnswerSubmission) (domain.Evaluation, error)
}

// ProgressSource reports a remote participant's progress. Safe to poll.
type ProgressSource interface {
	OpponentProgress(ctx context.Context, query domain.ProgressQuery) (domain.OpponentProgress, error)
}

// ProgressPublisher records a local participant's progress so other engines can poll it.
type ProgressPublisher interface {
	PublishProgress(ctx context.Context, matchID, participantID string, progress domain.OpponentProgress) error
	RemoveProgress(ctx context.Context, matchID, participantID string) error
}
