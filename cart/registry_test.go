package cart

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"foodcart/cache"
	"foodcart/logger"
	"foodcart/models"
)

type tokenRecorder struct {
	mu     sync.Mutex
	tokens []string
}

func (r *tokenRecorder) SetToken(tok string) {
	r.mu.Lock()
	r.tokens = append(r.tokens, tok)
	r.mu.Unlock()
}

func TestRegistryOneStorePerCustomer(t *testing.T) {
	f := newFixture(t)
	tokens := &tokenRecorder{}
	built := 0
	reg := NewRegistry(func(customerID, token string) (Options, TokenSetter) {
		built++
		opts := f.options()
		opts.CustomerID = "ignored"
		return opts, tokens
	}, logger.Discard())

	var created []*Store
	reg.OnCreate(func(s *Store) func() {
		created = append(created, s)
		return nil
	})

	a := reg.Session(context.Background(), "alice", "t1")
	again := reg.Session(context.Background(), "alice", "t2")
	b := reg.Session(context.Background(), "bob", "t3")

	assert.Same(t, a, again)
	assert.NotSame(t, a, b)
	assert.Equal(t, "alice", a.CustomerID())
	assert.Equal(t, 2, built)
	assert.Equal(t, 2, reg.Len())
	assert.Equal(t, []*Store{a, b}, created)
	assert.Equal(t, []string{"t2"}, tokens.tokens)

	got, ok := reg.Lookup("bob")
	require.True(t, ok)
	assert.Same(t, b, got)
	_, ok = reg.Lookup("carol")
	assert.False(t, ok)
}

func TestRegistrySessionLoadsOnce(t *testing.T) {
	f := newFixture(t)
	f.remote.cart = remoteCart(remoteStamp)
	reg := NewRegistry(func(string, string) (Options, TokenSetter) { return f.options(), nil }, logger.Discard())

	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			reg.Session(ctx, "c1", "")
		}()
	}
	wg.Wait()
	cancel()

	s := reg.Session(context.Background(), "c1", "")
	assert.Equal(t, 1, f.remote.gets)
	assert.Equal(t, 10.0, s.TotalAmount())
}

func TestRegistryCloseDrains(t *testing.T) {
	f := newFixture(t)
	reg := NewRegistry(func(string, string) (Options, TokenSetter) { return f.options(), nil }, logger.Discard())

	s := reg.Session(context.Background(), "c1", "")
	s.AddItem(context.Background(), soup, "R1", "Pizzeria", 1)
	reg.Close()

	assert.Len(t, f.remote.savedCarts(), 1)
}

func TestRegistryEvictsIdleSessions(t *testing.T) {
	f := newFixture(t)
	f.remote.cart = remoteCart(remoteStamp)
	reg := NewRegistry(func(string, string) (Options, TokenSetter) { return f.options(), nil }, logger.Discard())
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	reg.now = func() time.Time { return now }
	reg.SetIdleTTL(time.Minute)

	released := 0
	reg.OnCreate(func(*Store) func() { return func() { released++ } })

	first := reg.Session(context.Background(), "c1", "")
	assert.Equal(t, 10.0, first.TotalAmount())

	// still active: the same store comes back
	now = now.Add(30 * time.Second)
	assert.Same(t, first, reg.Session(context.Background(), "c1", ""))

	// the cart changes elsewhere while this instance is idle
	f.remote.mu.Lock()
	f.remote.cart = &models.RemoteCart{
		Items:     []models.CartItem{{DishID: 4, Quantity: 2, RestaurantID: "R2"}},
		UpdatedAt: "2024-05-01T13:00:00Z",
	}
	f.remote.mu.Unlock()
	require.NoError(t, f.cache.Del(context.Background(), cache.CartKey("c1")))

	now = now.Add(2 * time.Minute)
	second := reg.Session(context.Background(), "c1", "")

	assert.NotSame(t, first, second)
	assert.Equal(t, 1, released)
	assert.Equal(t, 2, f.remote.gets)
	assert.Equal(t, 24.5, second.TotalAmount())
	assert.Equal(t, 1, reg.Len())
}

func TestRegistrySweep(t *testing.T) {
	f := newFixture(t)
	reg := NewRegistry(func(string, string) (Options, TokenSetter) { return f.options(), nil }, logger.Discard())
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	reg.now = func() time.Time { return now }
	reg.SetIdleTTL(time.Minute)

	s := reg.Session(context.Background(), "alice", "")
	s.AddItem(context.Background(), soup, "R1", "Pizzeria", 1)
	reg.Session(context.Background(), "bob", "")

	now = now.Add(45 * time.Second)
	reg.Session(context.Background(), "bob", "")
	now = now.Add(30 * time.Second)
	reg.Sweep()

	_, ok := reg.Lookup("alice")
	assert.False(t, ok)
	_, ok = reg.Lookup("bob")
	assert.True(t, ok)

	// evicted stores still finish their remote sync before Close returns
	reg.Close()
	assert.Len(t, f.remote.savedCarts(), 1)
}

func TestRegistryZeroTTLKeepsSessions(t *testing.T) {
	f := newFixture(t)
	reg := NewRegistry(func(string, string) (Options, TokenSetter) { return f.options(), nil }, logger.Discard())
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	reg.now = func() time.Time { return now }
	reg.SetIdleTTL(0)

	s := reg.Session(context.Background(), "c1", "")
	now = now.Add(24 * time.Hour)

	assert.Same(t, s, reg.Session(context.Background(), "c1", ""))
}
