package orders

import (
	"context"
	"time"

	"github.com/smartfeastt/smartfeast-backend/access"
	"github.com/smartfeastt/smartfeast-backend/apperr"
	"github.com/smartfeastt/smartfeast-backend/models"
)

// UserOrders lists the caller's own orders, newest first.
func (s *Service) UserOrders(ctx context.Context, id access.Identity) ([]models.Order, error) {
	if !access.Authenticated(id) {
		return nil, apperr.Unauthorized("Token required")
	}
	orders := []models.Order{}
	err := s.db.WithContext(ctx).
		Preload("Items", itemsInOrder).
		Preload("Outlet").
		Preload("Restaurant").
		Where("user_id = ?", id.UserID()).
		Order("created_at DESC").
		Find(&orders).Error
	if err != nil {
		return nil, apperr.Internal("orders.UserOrders", err)
	}
	return orders, nil
}

// OutletOrders lists the paid orders of an outlet, newest first. An
// unrecognised orderType is ignored rather than rejected.
func (s *Service) OutletOrders(ctx context.Context, id access.Identity, outletID string, orderType string) ([]models.Order, error) {
	if _, err := s.authorizeOutlet(ctx, id, outletID); err != nil {
		return nil, err
	}

	q := s.db.WithContext(ctx).
		Preload("Items", itemsInOrder).
		Preload("User").
		Where("outlet_id = ? AND payment_status = ?", outletID, models.PaymentPaid)
	if t := models.OrderType(orderType); t.Valid() {
		q = q.Where("order_type = ?", t)
	}

	orders := []models.Order{}
	if err := q.Order("created_at DESC").Find(&orders).Error; err != nil {
		return nil, apperr.Internal("orders.OutletOrders", err)
	}
	return orders, nil
}

// SyncResult is one sync page and the checkpoint to pass as the next since.
type SyncResult struct {
	Orders   []models.Order `json:"orders"`
	SyncedAt time.Time      `json:"syncedAt"`
}

// SyncVendorOrders returns the paid orders across every outlet the vendor
// controls that were created or updated at or after since. SyncedAt is
// taken before the read so feeding it back as since never skips a write
// that raced the query.
func (s *Service) SyncVendorOrders(ctx context.Context, id access.Identity, since time.Time) (*SyncResult, error) {
	if err := access.RequireVendor(id); err != nil {
		return nil, err
	}
	res := &SyncResult{Orders: []models.Order{}, SyncedAt: s.clock.Now().UTC()}

	db := s.db.WithContext(ctx)
	var (
		outletIDs []string
		err       error
	)
	switch v := id.(type) {
	case access.Owner:
		outletIDs, err = models.OwnedOutletIDs(db, v.ID)
	case access.Manager:
		outletIDs, err = models.ManagedOutletIDs(db, v.ID)
	}
	if err != nil {
		return nil, apperr.Internal("orders.SyncVendorOrders", err)
	}
	if len(outletIDs) == 0 {
		return res, nil
	}

	since = since.UTC()
	err = db.
		Preload("Items", itemsInOrder).
		Preload("User").
		Preload("Outlet").
		Where("outlet_id IN ? AND payment_status = ?", outletIDs, models.PaymentPaid).
		Where("updated_at >= ? OR created_at >= ?", since, since).
		Order("updated_at DESC").
		Find(&res.Orders).Error
	if err != nil {
		return nil, apperr.Internal("orders.SyncVendorOrders", err)
	}
	return res, nil
}

// Verification is the public view of an order used by payment and
// confirmation pages.
type Verification struct {
	ID            string               `json:"_id"`
	OrderNumber   string               `json:"orderNumber"`
	PaymentStatus models.PaymentStatus `json:"paymentStatus"`
	Status        models.OrderStatus   `json:"status"`
	TotalPrice    float64              `json:"totalPrice"`
}

// Verify returns the public summary of an order. No identity is required.
func (s *Service) Verify(ctx context.Context, orderID string) (*Verification, error) {
	var order models.Order
	if err := s.first(ctx, &order, orderID); err != nil {
		return nil, err
	}
	return &Verification{
		ID:            order.ID,
		OrderNumber:   order.OrderNumber,
		PaymentStatus: order.PaymentStatus,
		Status:        order.Status,
		TotalPrice:    order.TotalPrice,
	}, nil
}

// History returns the recorded status changes of an order, oldest first.
func (s *Service) History(ctx context.Context, id access.Identity, orderID string) ([]models.OrderStatusHistory, error) {
	var order models.Order
	if err := s.first(ctx, &order, orderID); err != nil {
		return nil, err
	}
	if _, err := s.authorizeOutlet(ctx, id, order.OutletID); err != nil {
		return nil, err
	}
	history := []models.OrderStatusHistory{}
	err := s.db.WithContext(ctx).
		Where("order_id = ?", order.ID).
		Order("id").
		Find(&history).Error
	if err != nil {
		return nil, apperr.Internal("orders.History", err)
	}
	return history, nil
}
