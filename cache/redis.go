package cache

import (
	"context"
	"errors"
	"time"

	"foodcart/rdx"
)

// Redis stores entries as plain Redis strings.
type Redis struct {
	client *rdx.Client
}

func NewRedis(client *rdx.Client) *Redis {
	return &Redis{client: client}
}

func (r *Redis) Get(ctx context.Context, key string) (string, error) {
	val, err := r.client.RdxGet(ctx, key)
	if errors.Is(err, rdx.ErrNil) {
		return "", ErrMiss
	}
	return val, err
}

func (r *Redis) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return r.client.RdxSet(ctx, key, value, ttl)
}

func (r *Redis) Del(ctx context.Context, key string) error {
	return r.client.RdxDel(ctx, key)
}
