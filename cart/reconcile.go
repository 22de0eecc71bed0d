package cart

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"foodcart/cache"
	"foodcart/menu"
	"foodcart/metrics"
	"foodcart/models"
)

const (
	SourceRemote = "remote"
	SourceLocal  = "local"
	SourceEmpty  = "empty"
)

// LoadResult reports which copy won reconciliation and how many line
// items were pruned while rebuilding it.
type LoadResult struct {
	Source string `json:"source"`
	Pruned int    `json:"pruned"`
}

// menuInvalidator is implemented by cached menu lookups.
type menuInvalidator interface {
	Invalidate(ctx context.Context, restaurantID string) error
}

// Load reconciles the remote cart with the locally cached copy and
// publishes the result. It never fails; lookups and reads that error are
// treated as absent. Only the first call does any work.
func (s *Store) Load(ctx context.Context) LoadResult {
	s.loadOnce.Do(func() {
		s.loaded = s.reconcile(ctx)
	})
	return s.loaded
}

func (s *Store) reconcile(ctx context.Context) LoadResult {
	remote, remoteErr := s.fetchRemote(ctx)
	local, hasLocal := s.readLocal(ctx)

	var (
		next   models.Cart
		result LoadResult
	)
	switch {
	case remoteErr == nil && (!hasLocal || !localIsNewer(local.UpdatedAt, remote.UpdatedAt)):
		next, result.Pruned = s.expand(ctx, remote)
		result.Source = SourceRemote
	case hasLocal:
		next = local
		result.Pruned = normalize(&next)
		result.Source = SourceLocal
	default:
		next = models.NewCart(s.opts.CustomerID)
		result.Source = SourceEmpty
	}
	if next.CustomerID == "" {
		next.CustomerID = s.opts.CustomerID
	}
	if next.Restaurants == nil {
		next.Restaurants = []models.CartByRestaurant{}
	}

	s.mu.Lock()
	s.cart = next
	recompute(&s.cart)
	s.publishLocked()
	s.writeLocalLocked(ctx)
	s.mu.Unlock()

	entry := s.log.WithFields(logrus.Fields{"source": result.Source, "pruned": result.Pruned})
	if remoteErr != nil {
		entry = entry.WithError(remoteErr)
	}
	entry.Info("cart reconciled")
	metrics.RecordReconciliation(result.Source, result.Pruned)
	return result
}

func (s *Store) fetchRemote(ctx context.Context) (*models.RemoteCart, error) {
	if s.opts.Remote == nil {
		return nil, errors.New("no remote cart endpoint")
	}
	rc, err := s.opts.Remote.GetCart(ctx)
	if err != nil {
		return nil, err
	}
	if rc == nil {
		return nil, errors.New("empty remote cart response")
	}
	return rc, nil
}

func (s *Store) readLocal(ctx context.Context) (models.Cart, bool) {
	raw, err := s.opts.Cache.Get(ctx, cache.CartKey(s.opts.CustomerID))
	if err != nil {
		if !errors.Is(err, cache.ErrMiss) {
			s.log.WithError(err).Warn("local cart read failed")
		}
		return models.Cart{}, false
	}
	var c models.Cart
	if err := json.Unmarshal([]byte(raw), &c); err != nil {
		s.log.WithError(err).Warn("discarding corrupt local cart")
		return models.Cart{}, false
	}
	return c, true
}

// localIsNewer is true only when both stamps parse and local is strictly
// later. Anything else lets the remote copy win.
func localIsNewer(local, remote string) bool {
	lt, ok := parseTime(local)
	if !ok {
		return false
	}
	rt, ok := parseTime(remote)
	if !ok {
		return false
	}
	return lt.After(rt)
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
}

func parseTime(v string) (time.Time, bool) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, false
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// expand rebuilds the grouped cart from the flat remote list. Names and
// prices come from the current catalog; items whose restaurant or dish no
// longer resolves are dropped.
func (s *Store) expand(ctx context.Context, rc *models.RemoteCart) (models.Cart, int) {
	out := models.Cart{
		CustomerID:    rc.CustomerID,
		Restaurants:   []models.CartByRestaurant{},
		VoucherID:     rc.VoucherID,
		VoucherCode:   rc.VoucherCode,
		CustomerNotes: rc.CustomerNotes,
		CreatedAt:     rc.CreatedAt,
		UpdatedAt:     rc.UpdatedAt,
	}
	pruned := 0
	order, byRestaurant := groupByRestaurant(rc.Items)

	for _, rid := range order {
		items := byRestaurant[rid]
		log := s.log.WithField("restaurant", rid)

		name, ok := s.restaurantName(ctx, rid, items)
		if !ok {
			log.WithField("items", len(items)).Warn("restaurant unresolved, dropping its items")
			pruned += len(items)
			continue
		}
		dishes, err := s.dishes(ctx, rid)
		if err != nil {
			log.WithError(err).Warn("menu unresolved, dropping restaurant items")
			pruned += len(items)
			continue
		}

		group := models.CartByRestaurant{RestaurantID: rid, RestaurantName: name, Items: []models.CartItem{}}
		refetched := false
		for _, it := range items {
			dish, found := menu.FindDish(dishes, it.DishID)
			if !found && !refetched {
				refetched = true
				if fresh, ok := s.refetchDishes(ctx, rid); ok {
					dishes = fresh
					dish, found = menu.FindDish(dishes, it.DishID)
				}
			}
			if !found {
				log.WithField("dish", it.DishID).Warn("dish no longer on menu, dropping")
				pruned++
				continue
			}
			group.Items = append(group.Items, models.CartItem{
				DishID:         dish.ID,
				DishName:       dish.Name,
				PricePerUnit:   dish.Price,
				Quantity:       it.Quantity,
				RestaurantID:   rid,
				RestaurantName: name,
			})
		}
		out.Restaurants = append(out.Restaurants, group)
	}

	pruned += normalize(&out)
	return out, pruned
}

func (s *Store) restaurantName(ctx context.Context, id string, items []models.CartItem) (string, bool) {
	if s.opts.Restaurants == nil {
		return "", false
	}
	r, err := s.opts.Restaurants.GetRestaurantByID(ctx, id)
	if err != nil || r == nil {
		if err != nil {
			s.log.WithField("restaurant", id).WithError(err).Debug("restaurant lookup failed")
		}
		return "", false
	}
	if r.Name != "" {
		return r.Name, true
	}
	for _, it := range items {
		if it.RestaurantName != "" {
			return it.RestaurantName, true
		}
	}
	return id, true
}

func (s *Store) dishes(ctx context.Context, restaurantID string) ([]models.Dish, error) {
	if s.opts.Menu == nil {
		return nil, errors.New("no menu lookup")
	}
	return s.opts.Menu.GetDishes(ctx, "", restaurantID)
}

// refetchDishes drops a possibly stale cached catalog and asks again. It
// only applies when the menu lookup caches.
func (s *Store) refetchDishes(ctx context.Context, restaurantID string) ([]models.Dish, bool) {
	inv, ok := s.opts.Menu.(menuInvalidator)
	if !ok {
		return nil, false
	}
	if err := inv.Invalidate(ctx, restaurantID); err != nil {
		s.log.WithField("restaurant", restaurantID).WithError(err).Debug("menu invalidate failed")
		return nil, false
	}
	dishes, err := s.opts.Menu.GetDishes(ctx, "", restaurantID)
	if err != nil {
		return nil, false
	}
	return dishes, true
}
