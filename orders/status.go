package orders

import (
	"context"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/smartfeastt/smartfeast-backend/access"
	"github.com/smartfeastt/smartfeast-backend/apperr"
	"github.com/smartfeastt/smartfeast-backend/models"
	"github.com/smartfeastt/smartfeast-backend/realtime"
	"github.com/smartfeastt/smartfeast-backend/statemachine"
)

var errStale = apperr.Conflict("Order was modified concurrently, reload and retry")

// UpdateStatus moves an order to next on behalf of a vendor authorized for
// its outlet. Setting the current status again is a no-op and publishes
// nothing.
func (s *Service) UpdateStatus(ctx context.Context, id access.Identity, orderID string, next models.OrderStatus) (*models.Order, error) {
	if !statemachine.Valid(next) {
		return nil, apperr.Invalid("Invalid status")
	}

	var order models.Order
	if err := s.first(ctx, &order, orderID); err != nil {
		return nil, err
	}
	if _, err := s.authorizeOutlet(ctx, id, order.OutletID); err != nil {
		return nil, err
	}
	if err := statemachine.CanTransition(order.Status, next); err != nil {
		return nil, err
	}
	if order.Status == next {
		return s.load(ctx, order.ID)
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := compareAndSwap(tx, &order, map[string]any{"status": next}); err != nil {
			return err
		}
		return tx.Create(&models.OrderStatusHistory{
			OrderID:    order.ID,
			FromStatus: order.Status,
			ToStatus:   next,
			ChangedBy:  id.UserID(),
		}).Error
	})
	if err != nil {
		return nil, wrap("orders.UpdateStatus", err)
	}

	updated, err := s.load(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	s.metrics.StatusTransitions.WithLabelValues(string(next)).Inc()
	s.log.Info("Order status updated",
		zap.String("order_id", order.ID),
		zap.String("from", string(order.Status)),
		zap.String("to", string(next)))

	s.publish(updated, realtime.EventOrderUpdated)
	return updated, nil
}

// UpdatePaymentStatus sets the payment status. The caller is either the
// payment service or a vendor authorized for the order's outlet. Paying a
// pending order also confirms it, and a paid order is re-announced to the
// outlet room as new-order.
func (s *Service) UpdatePaymentStatus(ctx context.Context, id access.Identity, orderID string, next models.PaymentStatus) (*models.Order, error) {
	if !next.Valid() {
		return nil, apperr.Invalid("Invalid payment status")
	}

	var order models.Order
	if err := s.first(ctx, &order, orderID); err != nil {
		return nil, err
	}
	if _, ok := id.(access.Service); !ok {
		if _, err := s.authorizeOutlet(ctx, id, order.OutletID); err != nil {
			return nil, err
		}
	}
	if order.PaymentStatus == next {
		return s.load(ctx, order.ID)
	}

	status, err := statemachine.Payment(order.Status, next)
	if err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := compareAndSwap(tx, &order, map[string]any{
			"payment_status": next,
			"status":         status,
		}); err != nil {
			return err
		}
		entry := &models.OrderStatusHistory{
			OrderID:    order.ID,
			FromStatus: order.Status,
			ToStatus:   status,
			Payment:    next,
			ChangedBy:  id.UserID(),
			Note:       "payment " + string(next),
		}
		if entry.ChangedBy == "" {
			if svc, ok := id.(access.Service); ok {
				entry.ChangedBy = svc.Name
			}
		}
		return tx.Create(entry).Error
	})
	if err != nil {
		return nil, wrap("orders.UpdatePaymentStatus", err)
	}

	updated, err := s.load(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	s.metrics.PaymentTransitions.WithLabelValues(string(next)).Inc()
	if status != order.Status {
		s.metrics.StatusTransitions.WithLabelValues(string(status)).Inc()
	}
	s.log.Info("Order payment updated",
		zap.String("order_id", order.ID),
		zap.String("payment_status", string(next)),
		zap.String("status", string(status)))

	s.publish(updated, realtime.EventPaymentUpdated)
	if next == models.PaymentPaid {
		s.publishNewOrder(updated)
	}
	return updated, nil
}

// compareAndSwap applies fields only if the row still carries the version
// that was read, bumping it on success.
func compareAndSwap(tx *gorm.DB, order *models.Order, fields map[string]any) error {
	fields["version"] = order.Version + 1
	res := tx.Model(&models.Order{}).
		Where("id = ? AND version = ?", order.ID, order.Version).
		Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errStale
	}
	return nil
}

// first reads the bare order row.
func (s *Service) first(ctx context.Context, order *models.Order, orderID string) error {
	err := s.db.WithContext(ctx).First(order, "id = ?", orderID).Error
	if err != nil {
		return notFoundOr("orders.first", err)
	}
	return nil
}
