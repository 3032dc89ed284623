package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DefaultOutletLimit is the outlet cap given to new restaurants.
const DefaultOutletLimit = 3

type Restaurant struct {
	ID              string    `json:"_id" gorm:"primaryKey;type:varchar(36)"`
	OwnerID         string    `json:"ownerId" gorm:"not null;index"`
	Owner           *User     `json:"owner,omitempty" gorm:"foreignKey:OwnerID"`
	Name            string    `json:"name" gorm:"not null"`
	Outlets         []Outlet  `json:"outlets,omitempty" gorm:"foreignKey:RestaurantID"`
	OutletCount     int       `json:"outlet_count" gorm:"not null;default:3"`
	Image           string    `json:"image"`
	ProfilePhotoURL string    `json:"profilePhotoUrl"`
	RestaurantImage string    `json:"restaurantImage"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

func (r *Restaurant) BeforeCreate(*gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.OutletCount < 1 {
		r.OutletCount = DefaultOutletLimit
	}
	return nil
}

type MenuItem struct {
	ID          string    `json:"_id" gorm:"primaryKey;type:varchar(36)"`
	OutletID    string    `json:"outletId" gorm:"not null;index"`
	Name        string    `json:"itemName" gorm:"not null"`
	Price       float64   `json:"itemPrice" gorm:"not null"`
	Quantity    int       `json:"itemQuantity"`
	Photo       string    `json:"itemPhoto"`
	Description string    `json:"itemDescription"`
	Category    string    `json:"category"`
	IsAvailable bool      `json:"isAvailable"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (m *MenuItem) BeforeCreate(*gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}

// Category names are unique per outlet.
type Category struct {
	ID          string    `json:"_id" gorm:"primaryKey;type:varchar(36)"`
	OutletID    string    `json:"outletId" gorm:"not null;uniqueIndex:idx_categories_outlet_name"`
	Name        string    `json:"name" gorm:"not null;uniqueIndex:idx_categories_outlet_name"`
	Description string    `json:"description"`
	IsActive    bool      `json:"isActive"`
	SortOrder   int       `json:"sortOrder"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (c *Category) BeforeCreate(*gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

// Favorite is unique per (user, restaurant).
type Favorite struct {
	ID           string      `json:"_id" gorm:"primaryKey;type:varchar(36)"`
	UserID       string      `json:"userId" gorm:"not null;uniqueIndex:idx_favorites_user_restaurant"`
	RestaurantID string      `json:"restaurantId" gorm:"not null;uniqueIndex:idx_favorites_user_restaurant"`
	Restaurant   *Restaurant `json:"restaurant,omitempty" gorm:"foreignKey:RestaurantID"`
	CreatedAt    time.Time   `json:"createdAt"`
}

func (f *Favorite) BeforeCreate(*gorm.DB) error {
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	return nil
}
