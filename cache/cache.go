// Package cache provides the string key/value stores behind the local cart
// slot and the restaurant/menu lookup caches.
package cache

import (
	"context"
	"errors"
	"time"
)

// ErrMiss is returned by Get when the key is absent or expired.
var ErrMiss = errors.New("cache: miss")

type Store interface {
	Get(ctx context.Context, key string) (string, error)
	// Set stores value under key; ttl <= 0 keeps it until overwritten.
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Del(ctx context.Context, key string) error
}

// CartKey is the local cart slot of one customer.
func CartKey(customerID string) string {
	if customerID == "" {
		customerID = "anonymous"
	}
	return "cart:local:" + customerID
}
