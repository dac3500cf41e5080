package app

import (
	"context"
	"errors"

	"quizduel/internal/domain"
)

func (e *Engine) startPollingLocked() {
	if e.progress == nil || e.state != domain.StateActive || len(e.order) < 2 {
		return
	}
	e.pollTask.Start()
}

func (e *Engine) stopPollingLocked() {
	e.pollTask.Stop()
}

// poll fetches every remote participant's progress for the current question and
// merges it. Responses that land after the poller stopped, or that belong to an
// earlier match, are dropped. Progress stamped before this match started is
// another match's leftover on a shared board.
func (e *Engine) poll(gen uint64) {
	e.mu.RLock()
	if !e.pollTask.Live(gen) || e.state != domain.StateActive || e.progress == nil {
		e.mu.RUnlock()
		return
	}
	epoch := e.epoch
	ctx := e.matchCtx
	matchID := e.matchID
	since := e.startedAt
	question := e.questions[e.index]
	remotes := append([]string(nil), e.order[1:]...)
	e.mu.RUnlock()

	for _, id := range remotes {
		reqCtx, cancel := context.WithTimeout(ctx, pollInterval)
		progress, err := e.progress.OpponentProgress(reqCtx, domain.ProgressQuery{
			MatchID:       matchID,
			ParticipantID: id,
			QuestionID:    question.ID,
			Topic:         question.Topic,
			Since:         since,
		})
		cancel()
		if err == nil && !progress.UpdatedAt.IsZero() && progress.UpdatedAt.Before(since) {
			err = domain.ErrProgressNotFound
		}
		if err != nil {
			if errors.Is(err, domain.ErrProgressNotFound) || errors.Is(err, context.Canceled) {
				e.log.Debug().Err(err).Str("participant", id).Msg("no opponent progress")
			} else {
				e.log.Warn().Err(err).Str("participant", id).Msg("opponent poll failed")
			}
			continue
		}

		e.mu.Lock()
		if e.epoch != epoch || e.state != domain.StateActive || !e.pollTask.Live(gen) {
			e.mu.Unlock()
			e.log.Debug().Str("participant", id).Msg("stale opponent progress discarded")
			return
		}
		e.mergeProgressLocked(id, progress)
		e.resolveLocked()
		e.broadcastLocked()
		e.mu.Unlock()
	}
}

// mergeProgressLocked overwrites a remote participant with server values. The
// answered count is clamped so it never decreases or exceeds the question count.
func (e *Engine) mergeProgressLocked(id string, progress domain.OpponentProgress) {
	p, ok := e.participants[id]
	if !ok || id == e.localID {
		return
	}
	answered := progress.QuestionsAnswered
	if answered < p.QuestionsAnswered {
		answered = p.QuestionsAnswered
	}
	if answered > len(e.questions) {
		answered = len(e.questions)
	}

	prevScore, prevAnswered := p.Score, p.QuestionsAnswered
	p.Score = progress.Score
	p.QuestionsAnswered = answered
	if v, ok := progress.LastAnswer.Get(); ok {
		p.LastAnswer = domain.Some(v)
	}
	if v, ok := progress.LastEvaluation.Get(); ok {
		p.LastEvaluation = domain.Some(v)
	}

	if prevScore != p.Score || prevAnswered != p.QuestionsAnswered {
		e.log.Debug().
			Str("participant", id).
			Float64("score", p.Score).
			Int("answered", p.QuestionsAnswered).
			Msg("opponent updated")
	}
}
