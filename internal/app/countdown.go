package app

import (
	"quizduel/internal/domain"
)

const timeUpAnswer = "Time's up!"

// startCountdownLocked resets the budget and (re)starts the ticker. Any previous
// ticker is stopped first so two tickers never run at once.
func (e *Engine) startCountdownLocked() {
	e.countdownTask.Stop()
	if e.state != domain.StateActive {
		e.countdown.Active = false
		return
	}
	if e.local().QuestionsAnswered > e.index {
		e.countdown.Active = false
		return
	}
	e.countdown = domain.Countdown{Remaining: e.settings.QuestionTimeLimit, Active: true}
	e.countdownTask.Start()
}

func (e *Engine) stopCountdownLocked() {
	e.countdownTask.Stop()
	e.countdown.Active = false
}

// tick is the countdown callback.
func (e *Engine) tick(gen uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.countdownTask.Live(gen) || e.state != domain.StateActive || !e.countdown.Active {
		return
	}

	if e.countdown.Remaining > 0 {
		e.countdown.Remaining--
	}
	if e.countdown.Remaining > 0 {
		e.broadcastLocked()
		return
	}

	e.stopCountdownLocked()
	e.recordTimeoutLocked()
	e.broadcastLocked()
}

// recordTimeoutLocked records an Incorrect/0 outcome unless the local participant
// already answered the current index (a submission landed on the same tick).
func (e *Engine) recordTimeoutLocked() {
	local := e.local()
	if local.QuestionsAnswered > e.index {
		return
	}
	eval := domain.Evaluation{
		Outcome:  domain.OutcomeIncorrect,
		Score:    0,
		Feedback: "Time's up! You didn't answer in time.",
	}
	e.log.Info().
		Str("match_id", e.matchID).
		Int("question", e.questions[e.index].ID).
		Msg("question timed out")
	e.recordLocalLocked(timeUpAnswer, eval)
	e.resolveLocked()
}
