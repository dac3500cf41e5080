package memory

import (
	"context"
	"sync"

	"quizduel/internal/domain"
)

// ProgressBoard is an in-process board where engines publish their local progress
// and poll each other's. It implements both app.ProgressPublisher and app.ProgressSource.
type ProgressBoard struct {
	mu      sync.RWMutex
	matches map[string]map[string]domain.OpponentProgress
}

func NewProgressBoard() *ProgressBoard {
	return &ProgressBoard{
		matches: make(map[string]map[string]domain.OpponentProgress),
	}
}

func (b *ProgressBoard) PublishProgress(_ context.Context, matchID, participantID string, progress domain.OpponentProgress) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	match, ok := b.matches[matchID]
	if !ok {
		match = make(map[string]domain.OpponentProgress)
		b.matches[matchID] = match
	}
	match[participantID] = progress
	return nil
}

func (b *ProgressBoard) OpponentProgress(_ context.Context, query domain.ProgressQuery) (domain.OpponentProgress, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	progress, ok := b.matches[query.MatchID][query.ParticipantID]
	if !ok || progress.StaleFor(query) {
		return domain.OpponentProgress{}, domain.ErrProgressNotFound
	}
	return progress, nil
}

// RemoveProgress drops a participant's entry; the match goes away with its last entry.
func (b *ProgressBoard) RemoveProgress(_ context.Context, matchID, participantID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	match, ok := b.matches[matchID]
	if !ok {
		return nil
	}
	delete(match, participantID)
	if len(match) == 0 {
		delete(b.matches, matchID)
	}
	return nil
}
