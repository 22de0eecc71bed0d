package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"foodcart/logger"
	"foodcart/models"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(Config{BaseURL: srv.URL, Logger: logger.Discard()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func TestGetRestaurantByID(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/restaurants/R1", r.URL.Path)
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))
		writeJSON(w, http.StatusOK, models.Restaurant{ID: "R1", Name: "Pizzeria"})
	})

	got, err := c.GetRestaurantByID(context.Background(), "R1")
	require.NoError(t, err)
	assert.Equal(t, "Pizzeria", got.Name)
}

func TestGetRestaurantsUnwrapsDataEnvelope(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"ok":   true,
			"data": []models.Restaurant{{ID: "R1"}, {ID: "R2"}},
		})
	})

	got, err := c.GetRestaurants(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "R2", got[1].ID)
}

func TestGetDishesQuery(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/dishes", r.URL.Path)
		assert.Equal(t, "R2", r.URL.Query().Get("restaurantId"))
		assert.Empty(t, r.URL.Query().Get("categoryId"))
		writeJSON(w, http.StatusOK, []models.Dish{{ID: 3, Name: "Soup", Price: 4.25}})
	})

	got, err := c.GetDishes(context.Background(), "", "R2")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 4.25, got[0].Price)
}

func TestTokenForwarding(t *testing.T) {
	var seen []string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, r.Header.Get("Authorization"))
		writeJSON(w, http.StatusOK, models.RemoteCart{})
	})

	ctx := context.Background()
	_, err := c.GetCart(ctx)
	require.NoError(t, err)

	session := c.WithToken("abc")
	_, err = session.GetCart(ctx)
	require.NoError(t, err)

	session.SetToken("def")
	_, err = session.GetCart(ctx)
	require.NoError(t, err)

	assert.Equal(t, []string{"", "Bearer abc", "Bearer def"}, seen)
}

func TestSaveCartSendsFlatItems(t *testing.T) {
	var body models.RemoteCart
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/cart", r.URL.Path)
		raw, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(raw, &body))
		w.WriteHeader(http.StatusNoContent)
	})

	err := c.SaveCart(context.Background(), &models.RemoteCart{
		Items: []models.CartItem{{DishID: 7, Quantity: 2, RestaurantID: "R1"}},
	})
	require.NoError(t, err)
	require.Len(t, body.Items, 1)
	assert.Equal(t, int64(7), body.Items[0].DishID)
}

func TestNotFoundError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no cart", http.StatusNotFound)
	})

	_, err := c.GetCart(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))

	var apiErr *Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Equal(t, "no cart", apiErr.Body)
}

func TestValidateVoucherPassesThroughRejection(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req models.VoucherValidationRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "SAVE10", req.VoucherCode)
		assert.Equal(t, 28.5, req.OrderAmount)
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"message": "minimum order not met"})
	})

	_, err := c.ValidateVoucher(context.Background(), models.VoucherValidationRequest{VoucherCode: "SAVE10", OrderAmount: 28.5})
	var apiErr *Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnprocessableEntity, apiErr.StatusCode)
	assert.Contains(t, apiErr.Body, "minimum order not met")
	assert.False(t, errors.Is(err, ErrNotFound))
}

func TestCreateOrder(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req models.OrderRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		writeJSON(w, http.StatusCreated, models.Order{ID: "O-1", RestaurantID: req.RestaurantID, Status: "pending"})
	})

	got, err := c.CreateOrder(context.Background(), models.OrderRequest{RestaurantID: "R1"})
	require.NoError(t, err)
	assert.Equal(t, "O-1", got.ID)
	assert.Equal(t, "R1", got.RestaurantID)
}
