package cart

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"foodcart/metrics"
	"foodcart/models"
)

const (
	OpAdd       = "add"
	OpRemove    = "remove"
	OpUpdate    = "update"
	OpIncrement = "increment"
	OpDecrement = "decrement"
	OpClear     = "clear"
	OpVoucher   = "voucher"
	OpNotes     = "notes"
)

// MaxQuantity caps a single line. Additions saturate at it.
const MaxQuantity = 99

func clampQuantity(q int) int {
	return min(q, MaxQuantity)
}

// addQuantity sums two non-negative quantities without overflowing past
// MaxQuantity.
func addQuantity(a, b int) int {
	if b > MaxQuantity-a {
		return MaxQuantity
	}
	return a + b
}

// AddItem puts quantity units of dish into the restaurant's group. A
// quantity below one adds a single unit. An existing line keeps its
// captured price and only grows, up to MaxQuantity.
func (s *Store) AddItem(ctx context.Context, dish models.Dish, restaurantID, restaurantName string, quantity int) {
	if quantity < 1 {
		quantity = 1
	}
	quantity = clampQuantity(quantity)

	s.mu.Lock()
	defer s.mu.Unlock()

	if item := s.itemLocked(dish.ID, restaurantID); item != nil && item.Quantity >= MaxQuantity {
		return
	}

	gi := indexOfGroup(s.cart.Restaurants, restaurantID)
	if gi < 0 {
		s.cart.Restaurants = append(s.cart.Restaurants, models.CartByRestaurant{
			RestaurantID:   restaurantID,
			RestaurantName: restaurantName,
			Items:          []models.CartItem{},
		})
		gi = len(s.cart.Restaurants) - 1
	}
	g := &s.cart.Restaurants[gi]

	if ii := indexOfItem(g.Items, dish.ID); ii >= 0 {
		g.Items[ii].Quantity = addQuantity(g.Items[ii].Quantity, quantity)
	} else {
		g.Items = append(g.Items, models.CartItem{
			DishID:         dish.ID,
			DishName:       dish.Name,
			PricePerUnit:   dish.Price,
			Quantity:       quantity,
			RestaurantID:   restaurantID,
			RestaurantName: restaurantName,
		})
	}

	s.commitLocked(ctx, OpAdd, logrus.Fields{"restaurant": restaurantID, "dish": dish.ID, "quantity": quantity})
}

// RemoveItem deletes a line, and its group when that was the last line.
func (s *Store) RemoveItem(ctx context.Context, dishID int64, restaurantID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.removeLocked(dishID, restaurantID) {
		return
	}
	s.commitLocked(ctx, OpRemove, logrus.Fields{"restaurant": restaurantID, "dish": dishID})
}

// UpdateQuantity sets a line's quantity; zero or less removes the line and
// anything above MaxQuantity is capped.
func (s *Store) UpdateQuantity(ctx context.Context, dishID int64, restaurantID string, quantity int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	fields := logrus.Fields{"restaurant": restaurantID, "dish": dishID, "quantity": quantity}
	if quantity <= 0 {
		if s.removeLocked(dishID, restaurantID) {
			s.commitLocked(ctx, OpRemove, fields)
		}
		return
	}
	item := s.itemLocked(dishID, restaurantID)
	if item == nil {
		return
	}
	item.Quantity = clampQuantity(quantity)
	s.commitLocked(ctx, OpUpdate, fields)
}

func (s *Store) IncrementQuantity(ctx context.Context, dishID int64, restaurantID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item := s.itemLocked(dishID, restaurantID)
	if item == nil || item.Quantity >= MaxQuantity {
		return
	}
	item.Quantity++
	s.commitLocked(ctx, OpIncrement, logrus.Fields{"restaurant": restaurantID, "dish": dishID})
}

// DecrementQuantity lowers a line by one and removes it at zero.
func (s *Store) DecrementQuantity(ctx context.Context, dishID int64, restaurantID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item := s.itemLocked(dishID, restaurantID)
	if item == nil {
		return
	}
	if item.Quantity <= 1 {
		s.removeLocked(dishID, restaurantID)
	} else {
		item.Quantity--
	}
	s.commitLocked(ctx, OpDecrement, logrus.Fields{"restaurant": restaurantID, "dish": dishID})
}

// Clear empties the cart. The customer id is kept.
func (s *Store) Clear(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearLocked(ctx)
}

func (s *Store) clearLocked(ctx context.Context) {
	created := s.cart.CreatedAt
	s.cart = models.NewCart(s.opts.CustomerID)
	s.cart.CreatedAt = created
	s.commitLocked(ctx, OpClear, nil)
}

// SetVoucher records the voucher the customer chose. It does not validate it.
func (s *Store) SetVoucher(ctx context.Context, code, id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cart.VoucherCode == code && s.cart.VoucherID == id {
		return
	}
	s.cart.VoucherCode = code
	s.cart.VoucherID = id
	s.commitLocked(ctx, OpVoucher, logrus.Fields{"voucher": code})
}

func (s *Store) SetCustomerNotes(ctx context.Context, notes string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cart.CustomerNotes == notes {
		return
	}
	s.cart.CustomerNotes = notes
	s.commitLocked(ctx, OpNotes, nil)
}

func (s *Store) itemLocked(dishID int64, restaurantID string) *models.CartItem {
	gi := indexOfGroup(s.cart.Restaurants, restaurantID)
	if gi < 0 {
		return nil
	}
	g := &s.cart.Restaurants[gi]
	ii := indexOfItem(g.Items, dishID)
	if ii < 0 {
		return nil
	}
	return &g.Items[ii]
}

// removeLocked drops a line and prunes its group if it became empty.
func (s *Store) removeLocked(dishID int64, restaurantID string) bool {
	gi := indexOfGroup(s.cart.Restaurants, restaurantID)
	if gi < 0 {
		return false
	}
	g := &s.cart.Restaurants[gi]
	ii := indexOfItem(g.Items, dishID)
	if ii < 0 {
		return false
	}
	g.Items = append(g.Items[:ii], g.Items[ii+1:]...)
	if len(g.Items) == 0 {
		s.cart.Restaurants = append(s.cart.Restaurants[:gi], s.cart.Restaurants[gi+1:]...)
	}
	return true
}

// commitLocked runs the side effects of an effective mutation in order:
// stamp, recompute, publish, local write, remote sync.
func (s *Store) commitLocked(ctx context.Context, op string, fields logrus.Fields) {
	now := s.now().UTC().Format(time.RFC3339Nano)
	if s.cart.CreatedAt == "" {
		s.cart.CreatedAt = now
	}
	s.cart.UpdatedAt = now

	recompute(&s.cart)
	s.publishLocked()
	s.writeLocalLocked(ctx)
	s.bestEffortSync(ctx, s.cart.Clone())

	metrics.RecordMutation(op)
	s.log.WithFields(fields).WithField("op", op).Debug("cart mutated")
}
