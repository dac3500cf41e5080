package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"quizduel/internal/domain"
)

// ProgressBoard shares participant progress across engine processes.
// Progress is stored as: HSET quizduel:match:{matchID}:progress {participantID} {json}
// and the hash expires after ttl of inactivity.
type ProgressBoard struct {
	client *redis.Client
	ttl    time.Duration
}

func NewProgressBoard(client *redis.Client, ttl time.Duration) *ProgressBoard {
	return &ProgressBoard{client: client, ttl: ttl}
}

func (b *ProgressBoard) PublishProgress(ctx context.Context, matchID, participantID string, progress domain.OpponentProgress) error {
	data, err := json.Marshal(progress)
	if err != nil {
		return fmt.Errorf("marshal progress: %w", err)
	}
	key := b.key(matchID)
	pipe := b.client.TxPipeline()
	pipe.HSet(ctx, key, participantID, data)
	if b.ttl > 0 {
		pipe.Expire(ctx, key, b.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("publish progress: %w", err)
	}
	return nil
}

func (b *ProgressBoard) OpponentProgress(ctx context.Context, query domain.ProgressQuery) (domain.OpponentProgress, error) {
	raw, err := b.client.HGet(ctx, b.key(query.MatchID), query.ParticipantID).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.OpponentProgress{}, domain.ErrProgressNotFound
	}
	if err != nil {
		return domain.OpponentProgress{}, fmt.Errorf("read progress: %w", err)
	}
	var progress domain.OpponentProgress
	if err := json.Unmarshal(raw, &progress); err != nil {
		return domain.OpponentProgress{}, fmt.Errorf("unmarshal progress: %w", err)
	}
	if progress.StaleFor(query) {
		return domain.OpponentProgress{}, domain.ErrProgressNotFound
	}
	return progress, nil
}

// RemoveProgress drops a participant's entry. Redis deletes the hash with its last field.
func (b *ProgressBoard) RemoveProgress(ctx context.Context, matchID, participantID string) error {
	if err := b.client.HDel(ctx, b.key(matchID), participantID).Err(); err != nil {
		return fmt.Errorf("remove progress: %w", err)
	}
	return nil
}

func (b *ProgressBoard) key(matchID string) string {
	return "quizduel:match:" + matchID + ":progress"
}
