package mq

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sirupsen/logrus"

	"foodcart/models"
)

// OrderEventsChannel is the Redis channel order events are published on.
const OrderEventsChannel = "order-events"

// Publisher is the subset of rdx.Client the emitter needs.
type Publisher interface {
	Publish(ctx context.Context, channel string, payload []byte) error
}

// Emitter publishes order submission outcomes so other services (receipts,
// analytics) can react without polling the order API.
type Emitter struct {
	pub     Publisher
	channel string
	log     logrus.FieldLogger
}

func NewEmitter(pub Publisher, log logrus.FieldLogger) *Emitter {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Emitter{pub: pub, channel: OrderEventsChannel, log: log.WithField("component", "mq")}
}

// Emit publishes one event. Failures are returned and also logged.
func (e *Emitter) Emit(ctx context.Context, ev models.OrderEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", ev.Event, err)
	}
	if err := e.pub.Publish(ctx, e.channel, data); err != nil {
		e.log.WithError(err).WithFields(logrus.Fields{
			"event":      ev.Event,
			"restaurant": ev.RestaurantID,
		}).Warn("failed to publish order event")
		return fmt.Errorf("publish %s event: %w", ev.Event, err)
	}
	return nil
}
