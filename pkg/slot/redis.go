package slot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/snaapconnections/storefront/pkg/redis"
)

// kv is the subset of *redis.Client the redis slot needs.
type kv interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	SlotKey(key string) string
}

// Redis stores slots under sf:slot:<key> with a sliding TTL.
type Redis struct {
	client kv
	ttl    time.Duration
}

func NewRedis(client kv, ttl time.Duration) (*Redis, error) {
	if client == nil {
		return nil, errors.New("redis client required")
	}
	return &Redis{client: client, ttl: ttl}, nil
}

func (r *Redis) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := r.client.Get(ctx, r.client.SlotKey(key))
	if err != nil {
		if redis.IsNil(err) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("read slot %q: %w", key, err)
	}
	return v, true, nil
}

func (r *Redis) Set(ctx context.Context, key, value string) error {
	if err := r.client.Set(ctx, r.client.SlotKey(key), value, r.ttl); err != nil {
		return fmt.Errorf("write slot %q: %w", key, err)
	}
	return nil
}

func (r *Redis) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, r.client.SlotKey(key)); err != nil {
		return fmt.Errorf("delete slot %q: %w", key, err)
	}
	return nil
}
