package app

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"quizduel/internal/domain"
)

const removeTimeout = 2 * time.Second

// RunProgressRelay publishes the local participant's progress whenever it changes,
// so engines in other processes can poll it through a shared board. Each entry is
// stamped with the engine clock. The entry is removed once the engine leaves the
// match (reset or a new match id) and when the relay returns, which happens when
// ctx is done or the engine is closed.
func RunProgressRelay(ctx context.Context, engine *Engine, publisher ProgressPublisher) {
	updates, cancel := engine.Subscribe()
	defer cancel()

	localID := engine.LocalID()
	var last domain.OpponentProgress
	var lastMatch string
	var lastStart time.Time

	remove := func(matchID string) {
		removeCtx, cancelRemove := context.WithTimeout(context.Background(), removeTimeout)
		defer cancelRemove()
		if err := publisher.RemoveProgress(removeCtx, matchID, localID); err != nil {
			log.Warn().Err(err).Str("match_id", matchID).Msg("remove progress failed")
		}
	}
	defer func() {
		if lastMatch != "" {
			remove(lastMatch)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case snap, ok := <-updates:
			if !ok {
				return
			}
			if lastMatch != "" && (snap.MatchID != lastMatch || !snap.StartedAt.Equal(lastStart)) {
				remove(lastMatch)
				lastMatch = ""
			}
			if snap.MatchID == "" || snap.StartedAt.IsZero() {
				continue
			}
			local, ok := snap.Participant(localID)
			if !ok {
				continue
			}
			progress := domain.OpponentProgress{
				Score:             local.Score,
				QuestionsAnswered: local.QuestionsAnswered,
				LastAnswer:        local.LastAnswer,
				LastEvaluation:    local.LastEvaluation,
			}
			if lastMatch == snap.MatchID && sameProgress(last, progress) {
				continue
			}
			progress.UpdatedAt = engine.clock.Now()
			if err := publisher.PublishProgress(ctx, snap.MatchID, localID, progress); err != nil {
				log.Warn().Err(err).Str("match_id", snap.MatchID).Msg("publish progress failed")
				continue
			}
			last, lastMatch, lastStart = progress, snap.MatchID, snap.StartedAt
		}
	}
}

func sameProgress(a, b domain.OpponentProgress) bool {
	return a.Score == b.Score &&
		a.QuestionsAnswered == b.QuestionsAnswered &&
		a.LastAnswer.Present() == b.LastAnswer.Present() &&
		a.LastAnswer.OrElse("") == b.LastAnswer.OrElse("")
}
