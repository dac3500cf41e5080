package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"quizduel/internal/domain"
)

func TestProgressBoardSetsAndClearsKeys(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	ctx := context.Background()
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	board := NewProgressBoard(client, time.Minute)

	query := domain.ProgressQuery{MatchID: "m1", ParticipantID: "player2", QuestionID: 2}
	if _, err := board.OpponentProgress(ctx, query); !errors.Is(err, domain.ErrProgressNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	err = board.PublishProgress(ctx, "m1", "player2", domain.OpponentProgress{
		Score:             2.5,
		QuestionsAnswered: 2,
		LastAnswer:        domain.Some("the median"),
		LastEvaluation:    domain.Some(domain.Evaluation{Outcome: domain.OutcomePartiallyCorrect, Score: 2}),
	})
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	if !mr.Exists("quizduel:match:m1:progress") {
		t.Fatalf("expected redis key to be set")
	}
	if ttl := mr.TTL("quizduel:match:m1:progress"); ttl != time.Minute {
		t.Fatalf("expected ttl of a minute, got %v", ttl)
	}

	got, err := board.OpponentProgress(ctx, query)
	if err != nil {
		t.Fatalf("progress: %v", err)
	}
	eval, ok := got.LastEvaluation.Get()
	if got.Score != 2.5 || got.QuestionsAnswered != 2 || !ok || eval.Outcome != domain.OutcomePartiallyCorrect {
		t.Fatalf("unexpected progress %+v", got)
	}

	stale := query
	stale.Since = time.Now().Add(time.Hour)
	if _, err := board.OpponentProgress(ctx, stale); !errors.Is(err, domain.ErrProgressNotFound) {
		t.Fatalf("progress published before the match started must be ignored, got %v", err)
	}

	if err := board.RemoveProgress(ctx, "m1", "player2"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if mr.Exists("quizduel:match:m1:progress") {
		t.Fatalf("expected redis key to be removed with its last entry")
	}
}
