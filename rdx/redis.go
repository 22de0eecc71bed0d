// Package rdx owns the Redis connection and the small set of commands the
// gateway needs: string get/set/del for caches and pub/sub for events.
package rdx

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrNil is returned by RdxGet when the key does not exist.
var ErrNil = redis.Nil

type Client struct {
	Conn *redis.Client
}

// Connect dials Redis and pings it once.
func Connect(ctx context.Context, addr, password string, db int) (*Client, error) {
	conn := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := conn.Ping(ctx).Err(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return &Client{Conn: conn}, nil
}

func (c *Client) RdxGet(ctx context.Context, key string) (string, error) {
	val, err := c.Conn.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNil
	}
	return val, err
}

// RdxSet stores value under key; ttl <= 0 means no expiry.
func (c *Client) RdxSet(ctx context.Context, key, value string, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0
	}
	return c.Conn.Set(ctx, key, value, ttl).Err()
}

func (c *Client) RdxDel(ctx context.Context, keys ...string) error {
	return c.Conn.Del(ctx, keys...).Err()
}

func (c *Client) Publish(ctx context.Context, channel string, payload []byte) error {
	return c.Conn.Publish(ctx, channel, payload).Err()
}

// Subscribe returns the message channel of a subscription; close the
// returned PubSub to stop it.
func (c *Client) Subscribe(ctx context.Context, channel string) (*redis.PubSub, <-chan *redis.Message) {
	sub := c.Conn.Subscribe(ctx, channel)
	return sub, sub.Channel()
}

func (c *Client) Close() error {
	return c.Conn.Close()
}
