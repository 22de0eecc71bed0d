package cart

import (
	"context"
	"encoding/json"

	"foodcart/cache"
	"foodcart/metrics"
	"foodcart/models"
)

// writeLocalLocked stores the current cart in the local cache slot.
// Failures are logged; the in-memory cart stays authoritative.
func (s *Store) writeLocalLocked(ctx context.Context) {
	data, err := json.Marshal(s.cart)
	if err != nil {
		s.log.WithError(err).Error("encode local cart")
		return
	}
	if err := s.opts.Cache.Set(ctx, cache.CartKey(s.opts.CustomerID), string(data), s.opts.CacheTTL); err != nil {
		s.log.WithError(err).Warn("local cart write failed")
	}
}

// bestEffortSync upserts the flattened cart to the remote endpoint in the
// background. The outcome is logged and counted, never applied back.
func (s *Store) bestEffortSync(ctx context.Context, snapshot models.Cart) {
	if s.opts.Remote == nil {
		return
	}
	payload := Flatten(snapshot)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.opts.SyncTimeout)
		defer cancel()

		err := s.opts.Remote.SaveCart(ctx, &payload)
		metrics.RecordRemoteSync(err == nil)
		if err != nil {
			s.log.WithError(err).WithField("items", payload.TotalItems).Warn("remote cart sync failed")
			return
		}
		s.log.WithField("items", payload.TotalItems).Debug("remote cart synced")
	}()
}
