// Package orders owns the order lifecycle: creation from a cart, the status
// and payment state machines, vendor listings and the sync fallback. Every
// applied change is published to the outlet room and, for attributed
// orders, to the customer's room.
package orders

import (
	"context"
	"errors"
	"math/rand/v2"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/smartfeastt/smartfeast-backend/access"
	"github.com/smartfeastt/smartfeast-backend/apperr"
	"github.com/smartfeastt/smartfeast-backend/metrics"
	"github.com/smartfeastt/smartfeast-backend/models"
	"github.com/smartfeastt/smartfeast-backend/realtime"
)

// Service applies order operations against the store and publishes the
// resulting events.
type Service struct {
	db       *gorm.DB
	notifier realtime.Notifier
	clock    clock.Clock
	metrics  *metrics.Metrics
	log      *zap.Logger

	// intn returns a value in [0, n) for order numbers.
	intn func(n int) int
}

// NewService wires the order service to its store, notifier and clock.
func NewService(db *gorm.DB, notifier realtime.Notifier, clk clock.Clock, m *metrics.Metrics, log *zap.Logger) *Service {
	return &Service{
		db:       db,
		notifier: notifier,
		clock:    clk,
		metrics:  m,
		log:      log.With(zap.String("component", "orders")),
		intn:     rand.IntN,
	}
}

func itemsInOrder(db *gorm.DB) *gorm.DB { return db.Order("position") }

// load reads an order with everything a dashboard renders.
func (s *Service) load(ctx context.Context, orderID string) (*models.Order, error) {
	var o models.Order
	err := s.db.WithContext(ctx).
		Preload("Items", itemsInOrder).
		Preload("User").
		Preload("Outlet").
		Preload("Restaurant").
		First(&o, "id = ?", orderID).Error
	if err != nil {
		return nil, notFoundOr("orders.load", err)
	}
	return &o, nil
}

func (s *Service) loadOutlet(ctx context.Context, outletID string) (*models.Outlet, error) {
	var o models.Outlet
	err := s.db.WithContext(ctx).Preload("Restaurant").First(&o, "id = ?", outletID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("Outlet not found")
	}
	if err != nil {
		return nil, apperr.Internal("orders.loadOutlet", err)
	}
	if o.Restaurant == nil {
		return nil, apperr.NotFound("Restaurant not found")
	}
	return &o, nil
}

// authorizeOutlet checks id against the outlet using the manager's current
// assignments from the store rather than the token snapshot.
func (s *Service) authorizeOutlet(ctx context.Context, id access.Identity, outletID string) (*models.Outlet, error) {
	outlet, err := s.loadOutlet(ctx, outletID)
	if err != nil {
		return nil, err
	}
	id, err = access.Refresh(id, func(userID string) ([]string, error) {
		return models.ManagedOutletIDs(s.db.WithContext(ctx), userID)
	})
	if err != nil {
		return nil, apperr.Internal("orders.authorizeOutlet", err)
	}
	if err := access.Authorize(id, access.ForOutlet(outlet)); err != nil {
		return nil, err
	}
	return outlet, nil
}

// newOrderKey collapses the creation and paid re-emit of new-order on a
// socket that saw both.
func newOrderKey(orderID string) string { return "new-order:" + orderID }

// publish sends name to the outlet room and, when the order is attributed,
// to the customer's room.
func (s *Service) publish(o *models.Order, name string) {
	ev := realtime.Event{Name: name, Payload: o}
	s.notifier.Publish(realtime.OutletRoom(o.OutletID), ev)
	if o.UserID != nil {
		s.notifier.Publish(realtime.UserRoom(*o.UserID), ev)
	}
}

func (s *Service) publishNewOrder(o *models.Order) {
	s.notifier.Publish(realtime.OutletRoom(o.OutletID), realtime.Event{
		Name:    realtime.EventNewOrder,
		Key:     newOrderKey(o.ID),
		Payload: o,
	})
}
