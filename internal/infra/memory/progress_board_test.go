package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"quizduel/internal/domain"
)

func TestProgressBoardLifecycle(t *testing.T) {
	ctx := context.Background()
	board := NewProgressBoard()

	query := domain.ProgressQuery{MatchID: "m1", ParticipantID: "p2", QuestionID: 1}
	if _, err := board.OpponentProgress(ctx, query); !errors.Is(err, domain.ErrProgressNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	err := board.PublishProgress(ctx, "m1", "p2", domain.OpponentProgress{
		Score:             2,
		QuestionsAnswered: 1,
		LastAnswer:        domain.Some("forty two"),
	})
	if err != nil {
		t.Fatalf("publish: %v", err)
	}

	got, err := board.OpponentProgress(ctx, query)
	if err != nil {
		t.Fatalf("progress: %v", err)
	}
	if got.Score != 2 || got.QuestionsAnswered != 1 || got.LastAnswer.OrElse("") != "forty two" {
		t.Fatalf("unexpected progress %+v", got)
	}

	if err := board.RemoveProgress(ctx, "m1", "p2"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, err := board.OpponentProgress(ctx, query); !errors.Is(err, domain.ErrProgressNotFound) {
		t.Fatalf("expected progress removed, got %v", err)
	}
	if len(board.matches) != 0 {
		t.Fatalf("expected empty match to be dropped, got %d matches", len(board.matches))
	}
}

func TestProgressBoardIgnoresEarlierMatches(t *testing.T) {
	ctx := context.Background()
	board := NewProgressBoard()
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	if err := board.PublishProgress(ctx, "lobby", "p2", domain.OpponentProgress{Score: 7, QuestionsAnswered: 5}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	query := domain.ProgressQuery{MatchID: "lobby", ParticipantID: "p2", Since: start}
	if _, err := board.OpponentProgress(ctx, query); !errors.Is(err, domain.ErrProgressNotFound) {
		t.Fatalf("unstamped progress must not count for a new match, got %v", err)
	}

	if err := board.PublishProgress(ctx, "lobby", "p2", domain.OpponentProgress{QuestionsAnswered: 5, UpdatedAt: start.Add(-time.Minute)}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if _, err := board.OpponentProgress(ctx, query); !errors.Is(err, domain.ErrProgressNotFound) {
		t.Fatalf("progress from before the match started must be ignored, got %v", err)
	}

	if err := board.PublishProgress(ctx, "lobby", "p2", domain.OpponentProgress{QuestionsAnswered: 1, UpdatedAt: start.Add(time.Second)}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	got, err := board.OpponentProgress(ctx, query)
	if err != nil || got.QuestionsAnswered != 1 {
		t.Fatalf("expected current progress, got %+v %v", got, err)
	}
}
