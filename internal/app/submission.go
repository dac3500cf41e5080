package app

import (
	"context"
	"fmt"

	"quizduel/internal/domain"
)

// SubmitStatus tells the presentation layer what happened to a submission.
type SubmitStatus string

const (
	SubmitAccepted  SubmitStatus = "accepted"
	SubmitRetry     SubmitStatus = "retry"
	SubmitDiscarded SubmitStatus = "discarded"
)

const skippedAnswer = "SKIPPED"

// SubmitResult is the outcome of Submit.
type SubmitResult struct {
	Status     SubmitStatus      `json:"status"`
	QuestionID int               `json:"questionId"`
	Evaluation domain.Evaluation `json:"evaluation"`
}

var tryAgain = domain.Evaluation{
	Outcome:  domain.OutcomeIncorrect,
	Score:    0,
	Feedback: "Error submitting answer. Please try again.",
}

// Submit scores a free-text answer for the current question. The scorer is called
// outside the engine lock; if the match moved on meanwhile the result is dropped.
func (e *Engine) Submit(ctx context.Context, answer string) (SubmitResult, error) {
	e.mu.Lock()
	if err := e.checkAnswerableLocked(); err != nil {
		e.mu.Unlock()
		return SubmitResult{}, err
	}
	question := e.questions[e.index]
	index, epoch := e.index, e.epoch
	e.submitting = true
	e.stopCountdownLocked()
	e.broadcastLocked()
	e.mu.Unlock()

	eval, err := e.score(ctx, question, answer)

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.epoch == epoch {
		e.submitting = false
	}
	if e.epoch != epoch || e.state != domain.StateActive || e.index != index {
		e.log.Info().Int("question", question.ID).Msg("submission completed after match moved on, discarding")
		return SubmitResult{Status: SubmitDiscarded, QuestionID: question.ID}, domain.ErrNotActive
	}

	if err != nil {
		e.log.Warn().Err(err).Int("question", question.ID).Msg("answer submission failed, resuming countdown")
		e.startCountdownLocked()
		e.broadcastLocked()
		return SubmitResult{Status: SubmitRetry, QuestionID: question.ID, Evaluation: tryAgain}, nil
	}

	e.log.Info().
		Str("match_id", e.matchID).
		Int("question", question.ID).
		Str("outcome", string(eval.Outcome)).
		Float64("score", eval.Score).
		Msg("answer evaluated")
	e.recordLocalLocked(answer, eval)
	e.resolveLocked()
	e.broadcastLocked()
	return SubmitResult{Status: SubmitAccepted, QuestionID: question.ID, Evaluation: eval}, nil
}

// Skip gives up on the current question without calling the scorer.
func (e *Engine) Skip() (SubmitResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.checkAnswerableLocked(); err != nil {
		return SubmitResult{}, err
	}
	question := e.questions[e.index]
	eval := domain.Evaluation{
		Outcome:  domain.OutcomeIncorrect,
		Score:    0,
		Feedback: "Question skipped.",
	}
	e.stopCountdownLocked()
	e.recordLocalLocked(skippedAnswer, eval)
	e.resolveLocked()
	e.broadcastLocked()
	return SubmitResult{Status: SubmitAccepted, QuestionID: question.ID, Evaluation: eval}, nil
}

func (e *Engine) checkAnswerableLocked() error {
	if e.state != domain.StateActive {
		return fmt.Errorf("answer in %s: %w", e.state, domain.ErrNotActive)
	}
	if e.submitting {
		return domain.ErrSubmissionInFlight
	}
	if e.local().QuestionsAnswered > e.index {
		return domain.ErrAlreadyAnswered
	}
	return nil
}

func (e *Engine) score(ctx context.Context, question domain.Question, answer string) (domain.Evaluation, error) {
	if e.scorer == nil {
		return domain.Evaluation{}, domain.ErrServiceUnavailable
	}
	return e.scorer.SubmitAnswer(ctx, domain.AnswerSubmission{
		QuestionID:      question.ID,
		QuestionText:    question.Prompt,
		Answer:          answer,
		ReferenceAnswer: question.ReferenceAnswer,
	})
}
