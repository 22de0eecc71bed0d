package cart

import "foodcart/models"

// Flatten strips the restaurant grouping for the remote cart endpoint.
// Every item carries its restaurant id and name so the grouping can be
// rebuilt on load.
func Flatten(c models.Cart) models.RemoteCart {
	items := make([]models.CartItem, 0, c.TotalItems)
	for _, g := range c.Restaurants {
		for _, it := range g.Items {
			it.RestaurantID = g.RestaurantID
			if it.RestaurantName == "" {
				it.RestaurantName = g.RestaurantName
			}
			items = append(items, it)
		}
	}
	return models.RemoteCart{
		CustomerID:    c.CustomerID,
		Items:         items,
		VoucherID:     c.VoucherID,
		VoucherCode:   c.VoucherCode,
		TotalAmount:   c.TotalAmount,
		TotalItems:    c.TotalItems,
		CustomerNotes: c.CustomerNotes,
		CreatedAt:     c.CreatedAt,
		UpdatedAt:     c.UpdatedAt,
	}
}

// groupByRestaurant splits a flat item list by restaurant id, keeping the
// order in which restaurants first appear.
func groupByRestaurant(items []models.CartItem) (order []string, byRestaurant map[string][]models.CartItem) {
	byRestaurant = make(map[string][]models.CartItem)
	for _, it := range items {
		if _, ok := byRestaurant[it.RestaurantID]; !ok {
			order = append(order, it.RestaurantID)
		}
		byRestaurant[it.RestaurantID] = append(byRestaurant[it.RestaurantID], it)
	}
	return order, byRestaurant
}
