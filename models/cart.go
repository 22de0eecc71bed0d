package models

// CartItem represents a single dish line in the customer's cart.
type CartItem struct {
	DishID         int64   `json:"dishId" bson:"dishId"`
	DishName       string  `json:"dishName" bson:"dishName"`
	PricePerUnit   float64 `json:"pricePerUnit" bson:"pricePerUnit"` // captured at add-time, re-resolved on remote load
	Quantity       int     `json:"quantity" bson:"quantity"`
	RestaurantID   string  `json:"restaurantId" bson:"restaurantId"`
	RestaurantName string  `json:"restaurantName,omitempty" bson:"restaurantName,omitempty"`
}

// CartByRestaurant groups the items that come from one restaurant.
type CartByRestaurant struct {
	RestaurantID   string     `json:"restaurantId" bson:"restaurantId"`
	RestaurantName string     `json:"restaurantName" bson:"restaurantName"`
	Items          []CartItem `json:"items" bson:"items"`
	TotalItems     int        `json:"totalItems" bson:"totalItems"`
	TotalPrice     float64    `json:"totalPrice" bson:"totalPrice"`
}

// Cart is the customer's in-progress order, grouped by restaurant.
// TotalAmount and TotalItems are derived; UpdatedAt arbitrates merges
// between the local and the remote copy.
type Cart struct {
	CustomerID    string             `json:"customerId,omitempty" bson:"customerId,omitempty"`
	Restaurants   []CartByRestaurant `json:"restaurants" bson:"restaurants"`
	VoucherID     string             `json:"voucherId,omitempty" bson:"voucherId,omitempty"`
	VoucherCode   string             `json:"voucherCode,omitempty" bson:"voucherCode,omitempty"`
	TotalAmount   float64            `json:"totalAmount" bson:"totalAmount"`
	TotalItems    int                `json:"totalItems" bson:"totalItems"`
	CustomerNotes string             `json:"customerNotes,omitempty" bson:"customerNotes,omitempty"`
	CreatedAt     string             `json:"createdAt,omitempty" bson:"createdAt,omitempty"`
	UpdatedAt     string             `json:"updatedAt,omitempty" bson:"updatedAt,omitempty"`
}

// RemoteCart is the shape the remote cart endpoint reads and writes:
// the cart with its restaurant grouping flattened into Items.
type RemoteCart struct {
	CustomerID    string     `json:"customerId,omitempty"`
	Items         []CartItem `json:"items"`
	VoucherID     string     `json:"voucherId,omitempty"`
	VoucherCode   string     `json:"voucherCode,omitempty"`
	TotalAmount   float64    `json:"totalAmount"`
	TotalItems    int        `json:"totalItems"`
	CustomerNotes string     `json:"customerNotes,omitempty"`
	CreatedAt     string     `json:"createdAt,omitempty"`
	UpdatedAt     string     `json:"updatedAt,omitempty"`
}

// NewCart returns an empty cart with a non-nil restaurant list.
func NewCart(customerID string) Cart {
	return Cart{CustomerID: customerID, Restaurants: []CartByRestaurant{}}
}

// Clone returns a deep copy, safe to hand to subscribers.
func (c Cart) Clone() Cart {
	out := c
	out.Restaurants = make([]CartByRestaurant, len(c.Restaurants))
	for i, g := range c.Restaurants {
		g.Items = append([]CartItem(nil), g.Items...)
		if g.Items == nil {
			g.Items = []CartItem{}
		}
		out.Restaurants[i] = g
	}
	return out
}
