// Package menu resolves restaurant dish catalogs for the cart.
package menu

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"foodcart/cache"
	"foodcart/models"
)

type Source interface {
	GetDishes(ctx context.Context, categoryID, restaurantID string) ([]models.Dish, error)
}

// Lookup caches catalogs under "menu:<restaurant>:<category>".
type Lookup struct {
	src   Source
	cache cache.Store
	ttl   time.Duration
	log   logrus.FieldLogger
}

func NewLookup(src Source, store cache.Store, ttl time.Duration, log logrus.FieldLogger) *Lookup {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Lookup{src: src, cache: store, ttl: ttl, log: log.WithField("component", "menu")}
}

func menuKey(restaurantID, categoryID string) string {
	return fmt.Sprintf("menu:%s:%s", restaurantID, categoryID)
}

func (l *Lookup) GetDishes(ctx context.Context, categoryID, restaurantID string) ([]models.Dish, error) {
	key := menuKey(restaurantID, categoryID)

	if l.cache != nil {
		raw, err := l.cache.Get(ctx, key)
		switch {
		case err == nil:
			var dishes []models.Dish
			if jerr := json.Unmarshal([]byte(raw), &dishes); jerr == nil {
				return dishes, nil
			}
			l.log.WithField("key", key).Warn("dropping corrupt menu cache entry")
		case !errors.Is(err, cache.ErrMiss):
			l.log.WithError(err).WithField("key", key).Warn("menu cache read failed")
		}
	}

	dishes, err := l.src.GetDishes(ctx, categoryID, restaurantID)
	if err != nil {
		return nil, err
	}

	if l.cache != nil {
		if data, err := json.Marshal(dishes); err == nil {
			if err := l.cache.Set(ctx, key, string(data), l.ttl); err != nil {
				l.log.WithError(err).WithField("key", key).Warn("menu cache write failed")
			}
		}
	}
	return dishes, nil
}

// Invalidate drops the cached full catalog of a restaurant.
func (l *Lookup) Invalidate(ctx context.Context, restaurantID string) error {
	if l.cache == nil {
		return nil
	}
	return l.cache.Del(ctx, menuKey(restaurantID, ""))
}

// FindDish returns the dish with id from a catalog.
func FindDish(dishes []models.Dish, id int64) (models.Dish, bool) {
	for _, d := range dishes {
		if d.ID == id {
			return d, true
		}
	}
	return models.Dish{}, false
}
