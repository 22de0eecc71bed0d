// Package places resolves restaurant metadata for the cart, with a
// read-through cache in front of the upstream API.
package places

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"foodcart/cache"
	"foodcart/models"
)

// Source is the upstream the lookup reads through to.
type Source interface {
	GetRestaurantByID(ctx context.Context, id string) (*models.Restaurant, error)
	GetRestaurants(ctx context.Context) ([]models.Restaurant, error)
}

type Lookup struct {
	src   Source
	cache cache.Store
	ttl   time.Duration
	log   logrus.FieldLogger
}

// NewLookup wraps src. A nil store disables caching.
func NewLookup(src Source, store cache.Store, ttl time.Duration, log logrus.FieldLogger) *Lookup {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Lookup{src: src, cache: store, ttl: ttl, log: log.WithField("component", "places")}
}

func restaurantKey(id string) string { return "restaurant:" + id }

const allRestaurantsKey = "restaurant:all"

func (l *Lookup) GetRestaurantByID(ctx context.Context, id string) (*models.Restaurant, error) {
	var cached models.Restaurant
	if l.fromCache(ctx, restaurantKey(id), &cached) {
		return &cached, nil
	}

	r, err := l.src.GetRestaurantByID(ctx, id)
	if err != nil {
		return nil, err
	}
	l.toCache(ctx, restaurantKey(id), r)
	return r, nil
}

func (l *Lookup) GetRestaurants(ctx context.Context) ([]models.Restaurant, error) {
	var cached []models.Restaurant
	if l.fromCache(ctx, allRestaurantsKey, &cached) {
		return cached, nil
	}

	rs, err := l.src.GetRestaurants(ctx)
	if err != nil {
		return nil, err
	}
	l.toCache(ctx, allRestaurantsKey, rs)
	return rs, nil
}

func (l *Lookup) fromCache(ctx context.Context, key string, out any) bool {
	if l.cache == nil {
		return false
	}
	raw, err := l.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, cache.ErrMiss) {
			l.log.WithError(err).WithField("key", key).Warn("restaurant cache read failed")
		}
		return false
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		l.log.WithError(err).WithField("key", key).Warn("dropping corrupt restaurant cache entry")
		return false
	}
	return true
}

func (l *Lookup) toCache(ctx context.Context, key string, v any) {
	if l.cache == nil {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := l.cache.Set(ctx, key, string(data), l.ttl); err != nil {
		l.log.WithError(err).WithField("key", key).Warn("restaurant cache write failed")
	}
}
