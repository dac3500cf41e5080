package app

import (
	"fmt"

	"quizduel/internal/domain"
)

// EnterReview switches the concluded match into review mode.
func (e *Engine) EnterReview() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != domain.StateConcluded {
		return fmt.Errorf("review in %s: %w", e.state, domain.ErrInvalidTransition)
	}
	e.reviewing = true
	e.broadcastLocked()
	return nil
}

func (e *Engine) ExitReview() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.reviewing {
		return
	}
	e.reviewing = false
	e.broadcastLocked()
}

// ToggleReviewFlag flips the review flag of a history entry and returns the new value.
func (e *Engine) ToggleReviewFlag(i int) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if i < 0 || i >= len(e.history) {
		return false, domain.ErrHistoryIndex
	}
	e.history[i].Flagged = !e.history[i].Flagged
	e.broadcastLocked()
	return e.history[i].Flagged, nil
}
