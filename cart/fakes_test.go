package cart

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"foodcart/apiclient"
	"foodcart/cache"
	"foodcart/logger"
	"foodcart/models"
)

type fakeRestaurants struct {
	byID map[string]models.Restaurant
}

func (f *fakeRestaurants) GetRestaurantByID(_ context.Context, id string) (*models.Restaurant, error) {
	r, ok := f.byID[id]
	if !ok {
		return nil, &apiclient.Error{Method: "GET", Path: "/restaurants/" + id, StatusCode: 404}
	}
	return &r, nil
}

type fakeMenu struct {
	mu     sync.Mutex
	dishes map[string][]models.Dish
	calls  int
}

func (f *fakeMenu) GetDishes(_ context.Context, _, restaurantID string) ([]models.Dish, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	d, ok := f.dishes[restaurantID]
	if !ok {
		return nil, apiclient.ErrNotFound
	}
	return d, nil
}

type fakeRemote struct {
	mu      sync.Mutex
	cart    *models.RemoteCart
	getErr  error
	saveErr error
	gets    int
	saves   []models.RemoteCart
}

func (f *fakeRemote) GetCart(context.Context) (*models.RemoteCart, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gets++
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.cart, nil
}

func (f *fakeRemote) SaveCart(_ context.Context, c *models.RemoteCart) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saves = append(f.saves, *c)
	return f.saveErr
}

func (f *fakeRemote) savedCarts() []models.RemoteCart {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.RemoteCart(nil), f.saves...)
}

type fakeOrders struct {
	mu     sync.Mutex
	reqs   []models.OrderRequest
	failOn map[string]bool
}

func (f *fakeOrders) CreateOrder(_ context.Context, req models.OrderRequest) (*models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reqs = append(f.reqs, req)
	if f.failOn[req.RestaurantID] {
		return nil, errors.New("kitchen closed")
	}
	return &models.Order{ID: "order-" + req.RestaurantID, RestaurantID: req.RestaurantID, Status: "pending"}, nil
}

func (f *fakeOrders) requests() []models.OrderRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.OrderRequest(nil), f.reqs...)
}

type fakeVouchers struct {
	got models.VoucherValidationRequest
	res *models.VoucherValidationResult
	err error
}

func (f *fakeVouchers) ValidateVoucher(_ context.Context, req models.VoucherValidationRequest) (*models.VoucherValidationResult, error) {
	f.got = req
	return f.res, f.err
}

type fakeEvents struct {
	mu     sync.Mutex
	events []models.OrderEvent
}

func (f *fakeEvents) Emit(_ context.Context, ev models.OrderEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, ev)
	return nil
}

func (f *fakeEvents) all() []models.OrderEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.OrderEvent(nil), f.events...)
}

// fakeClock advances one second per reading.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newClock() *fakeClock {
	return &fakeClock{t: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Second)
	return c.t
}

type fixture struct {
	store       *Store
	cache       *cache.Memory
	restaurants *fakeRestaurants
	menu        *fakeMenu
	remote      *fakeRemote
	orders      *fakeOrders
	vouchers    *fakeVouchers
	events      *fakeEvents
}

var (
	pizza = models.Dish{ID: 7, Name: "Pizza", Price: 9.5}
	soup  = models.Dish{ID: 1, Name: "Soup", Price: 5}
	bread = models.Dish{ID: 2, Name: "Bread", Price: 3}
	ramen = models.Dish{ID: 4, Name: "Ramen", Price: 12.25}
)

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		cache: cache.NewMemory(),
		restaurants: &fakeRestaurants{byID: map[string]models.Restaurant{
			"R1": {ID: "R1", Name: "Pizzeria"},
			"R2": {ID: "R2", Name: "Noodle Bar"},
		}},
		menu: &fakeMenu{dishes: map[string][]models.Dish{
			"R1": {pizza, soup, bread},
			"R2": {ramen},
		}},
		remote:   &fakeRemote{getErr: apiclient.ErrNotFound},
		orders:   &fakeOrders{failOn: map[string]bool{}},
		vouchers: &fakeVouchers{},
		events:   &fakeEvents{},
	}
	f.store = New(f.options())
	t.Cleanup(f.store.Wait)
	return f
}

func (f *fixture) options() Options {
	return Options{
		CustomerID:  "c1",
		Restaurants: f.restaurants,
		Menu:        f.menu,
		Remote:      f.remote,
		Orders:      f.orders,
		Vouchers:    f.vouchers,
		Events:      f.events,
		Cache:       f.cache,
		SyncTimeout: time.Second,
		Logger:      logger.Discard(),
		Now:         newClock().Now,
	}
}

func (f *fixture) seedLocal(t *testing.T, c models.Cart) {
	t.Helper()
	data, err := json.Marshal(c)
	require.NoError(t, err)
	require.NoError(t, f.cache.Set(context.Background(), cache.CartKey("c1"), string(data), 0))
}

func (f *fixture) localCart(t *testing.T) models.Cart {
	t.Helper()
	raw, err := f.cache.Get(context.Background(), cache.CartKey("c1"))
	require.NoError(t, err)
	var c models.Cart
	require.NoError(t, json.Unmarshal([]byte(raw), &c))
	return c
}
