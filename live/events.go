package live

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"

	"foodcart/models"
)

// ForwardOrderEvents relays order events received over Redis pub/sub to
// the owning customer's room until ctx ends or msgs closes.
func (h *Hub) ForwardOrderEvents(ctx context.Context, msgs <-chan *redis.Message) {
	for {
		select {
		case <-ctx.Done():
			return
		case m, ok := <-msgs:
			if !ok {
				return
			}
			var ev models.OrderEvent
			if err := json.Unmarshal([]byte(m.Payload), &ev); err != nil {
				h.log.WithError(err).Warn("dropping malformed order event")
				continue
			}
			if ev.CustomerID == "" {
				continue
			}
			h.Emit(ctx, ev)
		}
	}
}
