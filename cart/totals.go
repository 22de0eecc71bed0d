package cart

import (
	"github.com/shopspring/decimal"

	"foodcart/models"
)

// recompute refreshes every derived field: per-group item count and
// subtotal, the grand total (sum of group subtotals) and the line count.
func recompute(c *models.Cart) {
	grand := decimal.Zero
	lines := 0
	for i := range c.Restaurants {
		g := &c.Restaurants[i]
		sum := decimal.Zero
		qty := 0
		for _, it := range g.Items {
			line := decimal.NewFromFloat(it.PricePerUnit).Mul(decimal.NewFromInt(int64(it.Quantity)))
			sum = sum.Add(line)
			qty += it.Quantity
		}
		sum = sum.Round(2)
		g.TotalItems = qty
		g.TotalPrice = sum.InexactFloat64()
		grand = grand.Add(sum)
		lines += len(g.Items)
	}
	c.TotalAmount = grand.InexactFloat64()
	c.TotalItems = lines
}

// normalize enforces the structural invariants on a cart that came from
// outside the store: 1 <= quantity <= MaxQuantity, unique dish ids per
// group (merged), no empty groups, non-nil slices. It returns how many
// lines it dropped.
func normalize(c *models.Cart) int {
	dropped := 0
	groups := make([]models.CartByRestaurant, 0, len(c.Restaurants))
	seenGroup := make(map[string]int, len(c.Restaurants))

	for _, g := range c.Restaurants {
		idx, ok := seenGroup[g.RestaurantID]
		if !ok {
			idx = len(groups)
			seenGroup[g.RestaurantID] = idx
			groups = append(groups, models.CartByRestaurant{
				RestaurantID:   g.RestaurantID,
				RestaurantName: g.RestaurantName,
				Items:          []models.CartItem{},
			})
		}
		dst := &groups[idx]
		for _, it := range g.Items {
			if it.Quantity < 1 {
				dropped++
				continue
			}
			it.Quantity = clampQuantity(it.Quantity)
			if j := indexOfItem(dst.Items, it.DishID); j >= 0 {
				dst.Items[j].Quantity = addQuantity(dst.Items[j].Quantity, it.Quantity)
				continue
			}
			dst.Items = append(dst.Items, it)
		}
	}

	kept := groups[:0]
	for _, g := range groups {
		if len(g.Items) > 0 {
			kept = append(kept, g)
		}
	}
	c.Restaurants = kept
	return dropped
}

func indexOfGroup(groups []models.CartByRestaurant, restaurantID string) int {
	for i := range groups {
		if groups[i].RestaurantID == restaurantID {
			return i
		}
	}
	return -1
}

func indexOfItem(items []models.CartItem, dishID int64) int {
	for i := range items {
		if items[i].DishID == dishID {
			return i
		}
	}
	return -1
}
