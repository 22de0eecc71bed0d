// Package cart holds the per-customer cart store: reconciliation of the
// remote and locally cached carts, synchronous mutations with derived
// totals, snapshot publication, persistence and order submission.
package cart

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"foodcart/cache"
	"foodcart/models"
)

type RestaurantLookup interface {
	GetRestaurantByID(ctx context.Context, id string) (*models.Restaurant, error)
}

type MenuLookup interface {
	GetDishes(ctx context.Context, categoryID, restaurantID string) ([]models.Dish, error)
}

// CartEndpoint is the remote persisted cart.
type CartEndpoint interface {
	GetCart(ctx context.Context) (*models.RemoteCart, error)
	SaveCart(ctx context.Context, cart *models.RemoteCart) error
}

type OrderSubmitter interface {
	CreateOrder(ctx context.Context, req models.OrderRequest) (*models.Order, error)
}

type VoucherValidator interface {
	ValidateVoucher(ctx context.Context, req models.VoucherValidationRequest) (*models.VoucherValidationResult, error)
}

type EventPublisher interface {
	Emit(ctx context.Context, ev models.OrderEvent) error
}

// Options wires a Store to its collaborators. A nil collaborator disables
// the matching behaviour; Cache defaults to an in-process store.
type Options struct {
	CustomerID string

	Restaurants RestaurantLookup
	Menu        MenuLookup
	Remote      CartEndpoint
	Orders      OrderSubmitter
	Vouchers    VoucherValidator
	Events      EventPublisher

	Cache    cache.Store
	CacheTTL time.Duration

	// SyncTimeout bounds each detached remote call.
	SyncTimeout time.Duration
	Logger      logrus.FieldLogger
	Now         func() time.Time
}

type subscriber struct {
	fn func(models.Cart)
}

// Store is the single source of truth for one customer's cart.
//
// All mutations, snapshot publication and the local cache write happen
// under mu, so subscribers observe snapshots in mutation order. Remote
// saves and order submissions run detached and never write back.
type Store struct {
	opts Options
	log  logrus.FieldLogger
	now  func() time.Time

	mu   sync.Mutex
	cart models.Cart
	subs []*subscriber

	loadOnce sync.Once
	loaded   LoadResult

	wg sync.WaitGroup
}

func New(opts Options) *Store {
	if opts.SyncTimeout <= 0 {
		opts.SyncTimeout = 10 * time.Second
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Cache == nil {
		opts.Cache = cache.NewMemory()
	}
	log := opts.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}

	return &Store{
		opts: opts,
		log:  log.WithFields(logrus.Fields{"component": "cart", "customer": opts.CustomerID}),
		now:  opts.Now,
		cart: models.NewCart(opts.CustomerID),
	}
}

// CustomerID returns the owner of the store.
func (s *Store) CustomerID() string { return s.opts.CustomerID }

// Snapshot returns a deep copy of the current cart.
func (s *Store) Snapshot() models.Cart {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.Clone()
}

// CartByRestaurant returns the groups that still hold items.
func (s *Store) CartByRestaurant() []models.CartByRestaurant {
	snap := s.Snapshot()
	out := make([]models.CartByRestaurant, 0, len(snap.Restaurants))
	for _, g := range snap.Restaurants {
		if g.TotalItems > 0 {
			out = append(out, g)
		}
	}
	return out
}

func (s *Store) TotalAmount() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.TotalAmount
}

func (s *Store) TotalItems() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.TotalItems
}

// Subscribe registers fn for every published snapshot and immediately
// delivers the current one. fn runs while the store is locked and must not
// call back into the same store.
func (s *Store) Subscribe(fn func(models.Cart)) (unsubscribe func()) {
	sub := &subscriber{fn: fn}

	s.mu.Lock()
	s.subs = append(s.subs, sub)
	fn(s.cart.Clone())
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			for i, x := range s.subs {
				if x == sub {
					s.subs = append(s.subs[:i], s.subs[i+1:]...)
					break
				}
			}
		})
	}
}

// WithSnapshot runs fn with the current cart while holding the store lock,
// so no mutation is published until fn returns. fn must not call back into
// the same store.
func (s *Store) WithSnapshot(fn func(models.Cart)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.cart.Clone())
}

func (s *Store) publishLocked() {
	for _, sub := range s.subs {
		sub.fn(s.cart.Clone())
	}
}

// Wait blocks until every detached remote call has finished.
func (s *Store) Wait() {
	s.wg.Wait()
}
