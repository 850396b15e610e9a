package repository

import (
	"context"
	"encoding/json"
	"localdeals/internal/domain/payment/model"

	"github.com/redis/go-redis/v9"
)

// DeadLetterKey 死信列表
const DeadLetterKey = "payment:deadletter"

type DeadLetterRepository interface {
	Push(ctx context.Context, letter *model.DeadLetter) error
	List(ctx context.Context, limit int64) ([]model.DeadLetter, error)
}

type redisDeadLetterRepository struct {
	client *redis.Client
}

func NewDeadLetterRepository(client *redis.Client) DeadLetterRepository {
	return &redisDeadLetterRepository{client: client}
}

func (r *redisDeadLetterRepository) Push(ctx context.Context, letter *model.DeadLetter) error {
	data, err := json.Marshal(letter)
	if err != nil {
		return err
	}
	return r.client.RPush(ctx, DeadLetterKey, data).Err()
}

// List 最早的 limit 条
func (r *redisDeadLetterRepository) List(ctx context.Context, limit int64) ([]model.DeadLetter, error) {
	raw, err := r.client.LRange(ctx, DeadLetterKey, 0, limit-1).Result()
	if err != nil {
		return nil, err
	}
	letters := make([]model.DeadLetter, 0, len(raw))
	for _, item := range raw {
		var l model.DeadLetter
		if err := json.Unmarshal([]byte(item), &l); err != nil {
			continue
		}
		letters = append(letters, l)
	}
	return letters, nil
}
