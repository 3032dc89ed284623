package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Cart is unique per user and is emptied, not deleted, when an order is placed.
type Cart struct {
	ID        string     `json:"_id" gorm:"primaryKey;type:varchar(36)"`
	UserID    string     `json:"userId" gorm:"not null;uniqueIndex"`
	Items     []CartItem `json:"items" gorm:"foreignKey:CartID"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

func (c *Cart) BeforeCreate(*gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

type CartItem struct {
	ID       uint    `json:"-" gorm:"primaryKey"`
	CartID   string  `json:"-" gorm:"not null;index"`
	Position int     `json:"-"`
	ItemID   string  `json:"itemId" gorm:"not null"`
	Name     string  `json:"itemName" gorm:"not null"`
	Price    float64 `json:"itemPrice" gorm:"not null"`
	Quantity int     `json:"quantity" gorm:"not null"`
	Photo    string  `json:"itemPhoto,omitempty"`
	OutletID string  `json:"outletId" gorm:"not null"`
}

// All lists every model for auto-migration.
func All() []any {
	return []any{
		&User{},
		&Restaurant{},
		&Outlet{},
		&MenuItem{},
		&Category{},
		&InventoryItem{},
		&Favorite{},
		&Cart{},
		&CartItem{},
		&Order{},
		&OrderItem{},
		&OrderStatusHistory{},
	}
}
