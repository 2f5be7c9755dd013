package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// CurrentSessionKey holds the id of the in-progress stock opname session.
const CurrentSessionKey = "opname:current"

// OpnameStateRepository mirrors the current-session pointer to Redis so it survives restarts.
type OpnameStateRepository struct {
	client *redis.Client
}

// NewOpnameStateRepository constructs the repository. A nil client disables persistence.
func NewOpnameStateRepository(client *redis.Client) *OpnameStateRepository {
	return &OpnameStateRepository{client: client}
}

// Current returns the stored pointer or an empty string.
func (r *OpnameStateRepository) Current(ctx context.Context) (string, error) {
	if r.client == nil {
		return "", nil
	}
	id, err := r.client.Get(ctx, CurrentSessionKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil
		}
		return "", fmt.Errorf("redis get %s: %w", CurrentSessionKey, err)
	}
	return id, nil
}

// SetCurrent stores the pointer; an empty id clears it.
func (r *OpnameStateRepository) SetCurrent(ctx context.Context, id string) error {
	if r.client == nil {
		return nil
	}
	if id == "" {
		if err := r.client.Del(ctx, CurrentSessionKey).Err(); err != nil {
			return fmt.Errorf("redis delete %s: %w", CurrentSessionKey, err)
		}
		return nil
	}
	if err := r.client.Set(ctx, CurrentSessionKey, id, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", CurrentSessionKey, err)
	}
	return nil
}
