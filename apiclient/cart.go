package apiclient

import (
	"context"
	"net/http"

	"foodcart/models"
)

// GetCart returns the persisted cart in its flat form.
func (c *Client) GetCart(ctx context.Context) (*models.RemoteCart, error) {
	var out models.RemoteCart
	if err := c.do(c.request(ctx), http.MethodGet, "/cart", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SaveCart upserts the flat cart. The response body is ignored.
func (c *Client) SaveCart(ctx context.Context, cart *models.RemoteCart) error {
	return c.do(c.request(ctx).SetBody(cart), http.MethodPost, "/cart", nil)
}

// CreateOrder submits one restaurant's share of the cart.
func (c *Client) CreateOrder(ctx context.Context, req models.OrderRequest) (*models.Order, error) {
	var out models.Order
	if err := c.do(c.request(ctx).SetBody(req), http.MethodPost, "/orders", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ValidateVoucher(ctx context.Context, req models.VoucherValidationRequest) (*models.VoucherValidationResult, error) {
	var out models.VoucherValidationResult
	if err := c.do(c.request(ctx).SetBody(req), http.MethodPost, "/vouchers/validate", &out); err != nil {
		return nil, err
	}
	return &out, nil
}
