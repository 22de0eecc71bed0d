package cart

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"foodcart/metrics"
	"foodcart/models"
)

const (
	EventOrderSubmitted = "order-submitted"
	EventOrderFailed    = "order-failed"
)

var ErrNoVoucherValidator = errors.New("cart: voucher validation unavailable")

// CreateOrder submits one order per non-empty restaurant group and clears
// the cart without waiting for the outcomes. Each submission is
// independent; failures are logged and emitted as events only. It returns
// how many submissions were issued.
func (s *Store) CreateOrder(ctx context.Context) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	issued := 0
	for _, g := range s.cart.Restaurants {
		if len(g.Items) == 0 {
			continue
		}
		req := models.OrderRequest{
			RestaurantID:  g.RestaurantID,
			Items:         append([]models.CartItem(nil), g.Items...),
			VoucherCode:   s.cart.VoucherCode,
			VoucherID:     s.cart.VoucherID,
			CustomerNotes: s.cart.CustomerNotes,
		}
		s.submitOrder(ctx, req)
		issued++
	}
	s.log.WithField("orders", issued).Info("checkout dispatched")

	s.clearLocked(ctx)
	return issued
}

func (s *Store) submitOrder(ctx context.Context, req models.OrderRequest) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.opts.SyncTimeout)
		defer cancel()

		log := s.log.WithFields(logrus.Fields{"restaurant": req.RestaurantID, "items": len(req.Items)})
		ev := models.OrderEvent{
			CustomerID:   s.opts.CustomerID,
			RestaurantID: req.RestaurantID,
			Items:        len(req.Items),
		}

		var (
			order *models.Order
			err   error
		)
		if s.opts.Orders == nil {
			err = errors.New("no order endpoint")
		} else {
			order, err = s.opts.Orders.CreateOrder(ctx, req)
		}
		metrics.RecordOrderSubmission(err == nil)

		if err != nil {
			log.WithError(err).Error("order submission failed")
			ev.Event = EventOrderFailed
			ev.Error = err.Error()
		} else {
			ev.Event = EventOrderSubmitted
			if order != nil {
				ev.OrderID = order.ID
			}
			log.WithField("order", ev.OrderID).Info("order submitted")
		}
		ev.At = s.now().UTC().Format(time.RFC3339Nano)

		if s.opts.Events != nil {
			if err := s.opts.Events.Emit(ctx, ev); err != nil {
				log.WithError(err).Warn("order event not published")
			}
		}
	}()
}

// ValidateVoucher asks the backend whether code applies to amount. The
// result, or the remote error, is returned untouched; the cart is not
// changed.
func (s *Store) ValidateVoucher(ctx context.Context, code string, amount float64) (*models.VoucherValidationResult, error) {
	if s.opts.Vouchers == nil {
		return nil, ErrNoVoucherValidator
	}
	return s.opts.Vouchers.ValidateVoucher(ctx, models.VoucherValidationRequest{
		VoucherCode: code,
		OrderAmount: amount,
	})
}
