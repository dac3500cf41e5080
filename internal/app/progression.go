package app

import "quizduel/internal/domain"

// resolveLocked advances or concludes the match once every participant has answered
// the current question. Guarded only by the monotonic answered counts, so repeated
// calls with unchanged counts are no-ops.
func (e *Engine) resolveLocked() {
	if e.state != domain.StateActive || len(e.questions) == 0 {
		return
	}
	need := e.index + 1
	for _, id := range e.order {
		if e.participants[id].QuestionsAnswered < need {
			return
		}
	}

	if e.index == len(e.questions)-1 {
		// pin counts so a lagging remote update cannot "unfinish" the match
		for _, id := range e.order {
			e.participants[id].QuestionsAnswered = len(e.questions)
		}
		e.concludeLocked()
		return
	}

	e.index++
	local := e.local()
	local.LastAnswer = domain.None[string]()
	local.LastEvaluation = domain.None[domain.Evaluation]()
	e.log.Debug().
		Str("match_id", e.matchID).
		Int("question", e.questions[e.index].ID).
		Msg("advanced to next question")
	e.startCountdownLocked()
}

// recordLocalLocked applies an evaluation to the local participant and logs history.
func (e *Engine) recordLocalLocked(answer string, eval domain.Evaluation) {
	local := e.local()
	local.LastAnswer = domain.Some(answer)
	local.LastEvaluation = domain.Some(eval)
	local.Score += eval.Score
	local.QuestionsAnswered = e.index + 1
	e.history = append(e.history, domain.HistoryEntry{
		Question:   e.questions[e.index],
		Answer:     answer,
		Evaluation: eval,
	})
}
