package cart

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"foodcart/metrics"
)

// DefaultIdleTTL is how long a session may go unused before its store is
// released and the next request reconciles a fresh one.
const DefaultIdleTTL = 15 * time.Minute

// TokenSetter refreshes the bearer token a session forwards upstream.
type TokenSetter interface {
	SetToken(token string)
}

// SessionFactory builds the collaborators for a new customer session. The
// returned TokenSetter, if any, is refreshed on every later request.
type SessionFactory func(customerID, token string) (Options, TokenSetter)

type session struct {
	store    *Store
	tokens   TokenSetter
	release  func()
	lastSeen time.Time
}

// Registry owns one Store per customer while the customer is active.
type Registry struct {
	factory  SessionFactory
	log      logrus.FieldLogger
	onCreate func(*Store) (release func())
	idleTTL  time.Duration
	now      func() time.Time

	mu       sync.Mutex
	sessions map[string]*session

	// evicted stores still draining detached work
	draining sync.WaitGroup
}

func NewRegistry(factory SessionFactory, log logrus.FieldLogger) *Registry {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Registry{
		factory:  factory,
		log:      log.WithField("component", "cart-registry"),
		idleTTL:  DefaultIdleTTL,
		now:      time.Now,
		sessions: make(map[string]*session),
	}
}

// SetIdleTTL changes how long an unused session is kept. Zero or less
// keeps sessions until Close.
func (r *Registry) SetIdleTTL(ttl time.Duration) {
	r.mu.Lock()
	r.idleTTL = ttl
	r.mu.Unlock()
}

// OnCreate registers a hook that runs once for each new store, before it
// is loaded. The returned release func, if any, runs when the store is
// evicted.
func (r *Registry) OnCreate(fn func(*Store) (release func())) {
	r.mu.Lock()
	r.onCreate = fn
	r.mu.Unlock()
}

// Session returns the customer's store, creating and loading it on first
// use or after the previous one went idle. Concurrent first calls share
// one store and one load.
func (r *Registry) Session(ctx context.Context, customerID, token string) *Store {
	r.mu.Lock()
	now := r.now()
	r.sweepLocked(now)

	sess, ok := r.sessions[customerID]
	if !ok {
		opts, tokens := r.factory(customerID, token)
		opts.CustomerID = customerID
		sess = &session{store: New(opts), tokens: tokens}
		r.sessions[customerID] = sess
		if r.onCreate != nil {
			sess.release = r.onCreate(sess.store)
		}
		r.log.WithField("customer", customerID).Info("cart session created")
	} else if sess.tokens != nil && token != "" {
		sess.tokens.SetToken(token)
	}
	sess.lastSeen = now
	metrics.SetActiveSessions(len(r.sessions))
	r.mu.Unlock()

	sess.store.Load(context.WithoutCancel(ctx))
	return sess.store
}

// Sweep evicts sessions idle for longer than the idle TTL.
func (r *Registry) Sweep() {
	r.mu.Lock()
	r.sweepLocked(r.now())
	metrics.SetActiveSessions(len(r.sessions))
	r.mu.Unlock()
}

// sweepLocked drops idle sessions. Their subscriptions are released right
// away; detached work drains in the background and Close waits for it.
func (r *Registry) sweepLocked(now time.Time) {
	if r.idleTTL <= 0 {
		return
	}
	for id, sess := range r.sessions {
		if now.Sub(sess.lastSeen) <= r.idleTTL {
			continue
		}
		delete(r.sessions, id)
		if sess.release != nil {
			sess.release()
		}
		r.draining.Add(1)
		go func(s *Store) {
			defer r.draining.Done()
			s.Wait()
		}(sess.store)
		r.log.WithField("customer", id).Debug("idle cart session evicted")
	}
}

// Lookup returns an existing store without creating one.
func (r *Registry) Lookup(customerID string) (*Store, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sess, ok := r.sessions[customerID]
	if !ok {
		return nil, false
	}
	return sess.store, true
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Close waits for every store's background work to drain, including
// stores already evicted.
func (r *Registry) Close() {
	r.mu.Lock()
	stores := make([]*Store, 0, len(r.sessions))
	for _, s := range r.sessions {
		stores = append(stores, s.store)
	}
	r.mu.Unlock()

	for _, s := range stores {
		s.Wait()
	}
	r.draining.Wait()
	r.log.WithField("sessions", len(stores)).Info("cart sessions drained")
}
