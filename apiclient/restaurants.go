package apiclient

import (
	"context"
	"net/http"

	"foodcart/models"
)

// GetRestaurantByID fetches restaurant metadata.
func (c *Client) GetRestaurantByID(ctx context.Context, id string) (*models.Restaurant, error) {
	var out models.Restaurant
	r := c.request(ctx).SetPathParam("id", id)
	if err := c.do(r, http.MethodGet, "/restaurants/{id}", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetRestaurants(ctx context.Context) ([]models.Restaurant, error) {
	var out []models.Restaurant
	if err := c.do(c.request(ctx), http.MethodGet, "/restaurants", &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []models.Restaurant{}
	}
	return out, nil
}

// GetDishes lists dishes, optionally narrowed by category and/or restaurant.
func (c *Client) GetDishes(ctx context.Context, categoryID, restaurantID string) ([]models.Dish, error) {
	r := c.request(ctx)
	if categoryID != "" {
		r.SetQueryParam("categoryId", categoryID)
	}
	if restaurantID != "" {
		r.SetQueryParam("restaurantId", restaurantID)
	}

	var out []models.Dish
	if err := c.do(r, http.MethodGet, "/dishes", &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []models.Dish{}
	}
	return out, nil
}
