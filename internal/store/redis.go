package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "board:canvas:"

// Redis stores snapshots in Redis with an optional TTL so abandoned
// boards eventually vanish.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedis wraps an existing client. A zero ttl keeps snapshots forever.
func NewRedis(client *redis.Client, ttl time.Duration) *Redis {
	return &Redis{client: client, ttl: ttl}
}

func (r *Redis) Save(ctx context.Context, roomID, canvasData string) error {
	if err := r.client.Set(ctx, keyPrefix+roomID, canvasData, r.ttl).Err(); err != nil {
		return fmt.Errorf("save canvas %s: %w", roomID, err)
	}
	return nil
}

func (r *Redis) Load(ctx context.Context, roomID string) (string, error) {
	data, err := r.client.Get(ctx, keyPrefix+roomID).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("load canvas %s: %w", roomID, err)
	}
	return data, nil
}

func (r *Redis) Delete(ctx context.Context, roomID string) error {
	if err := r.client.Del(ctx, keyPrefix+roomID).Err(); err != nil {
		return fmt.Errorf("delete canvas %s: %w", roomID, err)
	}
	return nil
}
