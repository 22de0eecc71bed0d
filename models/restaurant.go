package models

// Restaurant is the subset of restaurant metadata the cart needs.
type Restaurant struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Address     string  `json:"address,omitempty"`
	Category    string  `json:"category,omitempty"`
	Description string  `json:"description,omitempty"`
	Image       string  `json:"image,omitempty"`
	Rating      float64 `json:"rating,omitempty"`
	IsOpen      bool    `json:"isOpen,omitempty"`
}

// Dish is one entry of a restaurant's catalog.
type Dish struct {
	ID           int64   `json:"id"`
	Name         string  `json:"name"`
	Price        float64 `json:"price"`
	Description  string  `json:"description,omitempty"`
	Image        string  `json:"image,omitempty"`
	CategoryID   string  `json:"categoryId,omitempty"`
	RestaurantID string  `json:"restaurantId,omitempty"`
	Available    bool    `json:"available,omitempty"`
}
