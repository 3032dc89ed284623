package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// OrderStatus represents all possible states of an order
type OrderStatus string

const (
	StatusPending        OrderStatus = "pending"
	StatusConfirmed      OrderStatus = "confirmed"
	StatusPreparing      OrderStatus = "preparing"
	StatusReady          OrderStatus = "ready"
	StatusOutForDelivery OrderStatus = "out_for_delivery"
	StatusDelivered      OrderStatus = "delivered"
	StatusCancelled      OrderStatus = "cancelled"
)

// PaymentStatus is independent of OrderStatus except for the
// pending -> confirmed cascade on payment.
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentFailed   PaymentStatus = "failed"
	PaymentRefunded PaymentStatus = "refunded"
)

func (p PaymentStatus) Valid() bool {
	switch p {
	case PaymentPending, PaymentPaid, PaymentFailed, PaymentRefunded:
		return true
	}
	return false
}

type PaymentMethod string

const (
	PaymentCash   PaymentMethod = "cash"
	PaymentCard   PaymentMethod = "card"
	PaymentUPI    PaymentMethod = "upi"
	PaymentWallet PaymentMethod = "wallet"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCash, PaymentCard, PaymentUPI, PaymentWallet:
		return true
	}
	return false
}

type OrderType string

const (
	OrderDineIn   OrderType = "dine_in"
	OrderTakeaway OrderType = "takeaway"
	OrderDelivery OrderType = "delivery"
)

func (t OrderType) Valid() bool {
	switch t {
	case OrderDineIn, OrderTakeaway, OrderDelivery:
		return true
	}
	return false
}

// CustomerInfo attributes a guest order.
type CustomerInfo struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// Complete reports whether every contact field is present.
func (ci *CustomerInfo) Complete() bool {
	return ci != nil && ci.Name != "" && ci.Email != "" && ci.Phone != ""
}

// Order is attributed either to UserID or to CustomerInfo, never both.
// OutletID and RestaurantID are fixed at creation.
type Order struct {
	ID              string               `json:"_id" gorm:"primaryKey;type:varchar(36)"`
	OrderNumber     string               `json:"orderNumber" gorm:"not null;uniqueIndex"`
	UserID          *string              `json:"userId,omitempty" gorm:"index"`
	User            *User                `json:"user,omitempty" gorm:"foreignKey:UserID"`
	CustomerInfo    *CustomerInfo        `json:"customerInfo,omitempty" gorm:"serializer:json"`
	OutletID        string               `json:"outletId" gorm:"not null;index:idx_orders_outlet_payment"`
	Outlet          *Outlet              `json:"outlet,omitempty" gorm:"foreignKey:OutletID"`
	RestaurantID    string               `json:"restaurantId" gorm:"not null;index"`
	Restaurant      *Restaurant          `json:"restaurant,omitempty" gorm:"foreignKey:RestaurantID"`
	Items           []OrderItem          `json:"items" gorm:"foreignKey:OrderID"`
	TotalPrice      float64              `json:"totalPrice" gorm:"not null"`
	DeliveryAddress string               `json:"deliveryAddress"`
	PaymentMethod   PaymentMethod        `json:"paymentMethod" gorm:"not null"`
	PaymentStatus   PaymentStatus        `json:"paymentStatus" gorm:"not null;default:'pending';index:idx_orders_outlet_payment"`
	Status          OrderStatus          `json:"status" gorm:"not null;default:'pending'"`
	OrderType       OrderType            `json:"orderType" gorm:"not null"`
	Version         int                  `json:"version" gorm:"not null;default:1"`
	StatusHistory   []OrderStatusHistory `json:"statusHistory,omitempty" gorm:"foreignKey:OrderID"`
	CreatedAt       time.Time            `json:"createdAt"`
	UpdatedAt       time.Time            `json:"updatedAt" gorm:"index"`
}

func (o *Order) BeforeCreate(*gorm.DB) error {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	if o.Version == 0 {
		o.Version = 1
	}
	return nil
}

// OrderItem is a snapshot of the menu item at order time.
type OrderItem struct {
	ID       uint    `json:"-" gorm:"primaryKey"`
	OrderID  string  `json:"-" gorm:"not null;index"`
	Position int     `json:"-"`
	ItemID   string  `json:"itemId" gorm:"not null"`
	Name     string  `json:"itemName" gorm:"not null"`
	Price    float64 `json:"itemPrice" gorm:"not null"`
	Quantity int     `json:"quantity" gorm:"not null"`
	Photo    string  `json:"itemPhoto,omitempty"`
}

// OrderStatusHistory tracks every status change
type OrderStatusHistory struct {
	ID         uint          `json:"id" gorm:"primaryKey"`
	OrderID    string        `json:"orderId" gorm:"not null;index"`
	FromStatus OrderStatus   `json:"fromStatus"`
	ToStatus   OrderStatus   `json:"toStatus" gorm:"not null"`
	Payment    PaymentStatus `json:"paymentStatus,omitempty"`
	ChangedBy  string        `json:"changedBy"`
	Note       string        `json:"note"`
	CreatedAt  time.Time     `json:"createdAt"`
}
