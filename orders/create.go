package orders

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/smartfeastt/smartfeast-backend/access"
	"github.com/smartfeastt/smartfeast-backend/apperr"
	"github.com/smartfeastt/smartfeast-backend/carts"
	"github.com/smartfeastt/smartfeast-backend/models"
	"github.com/smartfeastt/smartfeast-backend/realtime"
)

const maxOrderNumberAttempts = 10

// LineItem is one cart line submitted at checkout.
type LineItem struct {
	ItemID    string  `json:"itemId"`
	ItemName  string  `json:"itemName"`
	ItemPrice float64 `json:"itemPrice"`
	Quantity  int     `json:"quantity"`
	ItemPhoto string  `json:"itemPhoto"`
	OutletID  string  `json:"outletId"`
}

type CreateOrderInput struct {
	Items           []LineItem           `json:"items"`
	TotalPrice      float64              `json:"totalPrice"`
	DeliveryAddress string               `json:"deliveryAddress"`
	PaymentMethod   models.PaymentMethod `json:"paymentMethod"`
	OrderType       models.OrderType     `json:"orderType"`
	CustomerInfo    *models.CustomerInfo `json:"customerInfo"`
}

func (in *CreateOrderInput) validate(guest bool) error {
	if len(in.Items) == 0 {
		return apperr.Invalid("Cart is empty")
	}
	if !in.OrderType.Valid() {
		return apperr.Invalid("Valid order type is required (dine_in, takeaway, or delivery)")
	}
	if guest && !in.CustomerInfo.Complete() {
		return apperr.Invalid("Customer information is required for guest orders")
	}
	if in.PaymentMethod == "" {
		in.PaymentMethod = models.PaymentCash
	}
	if !in.PaymentMethod.Valid() {
		return apperr.Invalid("Invalid payment method")
	}
	if in.OrderType == models.OrderDelivery && strings.TrimSpace(in.DeliveryAddress) == "" {
		return apperr.Invalid("Delivery address is required for delivery orders")
	}
	if in.TotalPrice < 0 {
		return apperr.Invalid("Total price cannot be negative")
	}

	outletID := in.Items[0].OutletID
	if outletID == "" {
		return apperr.Invalid("Outlet information is missing")
	}
	for i, it := range in.Items {
		switch {
		case it.ItemID == "" || it.ItemName == "":
			return apperr.Invalid("Item %d is missing its id or name", i+1)
		case it.Quantity < 1:
			return apperr.Invalid("Item %q must have a quantity of at least 1", it.ItemName)
		case it.ItemPrice < 0:
			return apperr.Invalid("Item %q has a negative price", it.ItemName)
		case it.OutletID != outletID:
			return apperr.Invalid("All items must belong to the same outlet")
		}
	}
	return nil
}

// CreateOrder places an order for the outlet of the first line item. For an
// authenticated caller the order is attributed to the user and their cart is
// emptied in the same transaction. A guest must supply complete contact
// information. The order starts pending/pending; new-order is published to
// the outlet room and order-created to the user's room after commit.
func (s *Service) CreateOrder(ctx context.Context, id access.Identity, in CreateOrderInput) (*models.Order, error) {
	authed := access.Authenticated(id)
	if err := in.validate(!authed); err != nil {
		return nil, err
	}

	outlet, err := s.loadOutlet(ctx, in.Items[0].OutletID)
	if err != nil {
		return nil, err
	}

	number, err := s.nextOrderNumber(ctx)
	if err != nil {
		return nil, err
	}

	order := &models.Order{
		OrderNumber:     number,
		OutletID:        outlet.ID,
		RestaurantID:    outlet.RestaurantID,
		TotalPrice:      in.TotalPrice,
		DeliveryAddress: in.DeliveryAddress,
		PaymentMethod:   in.PaymentMethod,
		PaymentStatus:   models.PaymentPending,
		Status:          models.StatusPending,
		OrderType:       in.OrderType,
	}
	if authed {
		userID := id.UserID()
		order.UserID = &userID
	} else {
		order.CustomerInfo = in.CustomerInfo
	}
	for i, it := range in.Items {
		order.Items = append(order.Items, models.OrderItem{
			Position: i,
			ItemID:   it.ItemID,
			Name:     it.ItemName,
			Price:    it.ItemPrice,
			Quantity: it.Quantity,
			Photo:    it.ItemPhoto,
		})
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(order).Error; err != nil {
			return err
		}
		if err := tx.Create(&models.OrderStatusHistory{
			OrderID:   order.ID,
			ToStatus:  models.StatusPending,
			Payment:   models.PaymentPending,
			ChangedBy: id.UserID(),
			Note:      "order placed",
		}).Error; err != nil {
			return err
		}
		if order.UserID != nil {
			return carts.Empty(tx, *order.UserID)
		}
		return nil
	})
	if err != nil {
		return nil, apperr.Internal("orders.CreateOrder", err)
	}

	created, err := s.load(ctx, order.ID)
	if err != nil {
		return nil, err
	}

	s.metrics.OrdersCreated.WithLabelValues(string(created.OrderType)).Inc()
	s.log.Info("Order created",
		zap.String("order_id", created.ID),
		zap.String("order_number", created.OrderNumber),
		zap.String("outlet_id", created.OutletID),
		zap.Bool("guest", created.UserID == nil))

	s.publishNewOrder(created)
	if created.UserID != nil {
		s.notifier.Publish(realtime.UserRoom(*created.UserID), realtime.Event{
			Name:    realtime.EventOrderCreated,
			Payload: created,
		})
	}
	return created, nil
}

// nextOrderNumber builds ORD-<unix millis>-<0..9999>, retrying on collision.
func (s *Service) nextOrderNumber(ctx context.Context) (string, error) {
	for attempt := 0; attempt < maxOrderNumberAttempts; attempt++ {
		number := fmt.Sprintf("ORD-%d-%d", s.clock.Now().UnixMilli(), s.intn(10000))
		var n int64
		if err := s.db.WithContext(ctx).Model(&models.Order{}).
			Where("order_number = ?", number).Count(&n).Error; err != nil {
			return "", apperr.Internal("orders.nextOrderNumber", err)
		}
		if n == 0 {
			return number, nil
		}
	}
	return "", apperr.Conflict("Could not allocate a unique order number, please retry")
}
