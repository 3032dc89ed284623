package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Address struct {
	Street      string `json:"street"`
	City        string `json:"city"`
	State       string `json:"state"`
	Pincode     string `json:"pincode"`
	Country     string `json:"country"`
	FullAddress string `json:"fullAddress"`
}

type Coordinates struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

// Outlet belongs to exactly one restaurant. Managers is the same
// outlet_managers relation seen from the other side as User.ManagedOutlets.
type Outlet struct {
	ID           string      `json:"_id" gorm:"primaryKey;type:varchar(36)"`
	Name         string      `json:"name" gorm:"not null"`
	RestaurantID string      `json:"restaurantId" gorm:"not null;index"`
	Restaurant   *Restaurant `json:"restaurant,omitempty" gorm:"foreignKey:RestaurantID"`
	Managers     []User      `json:"managers,omitempty" gorm:"many2many:outlet_managers"`
	Location     string      `json:"location"`
	Address      Address     `json:"address" gorm:"embedded;embeddedPrefix:address_"`
	Coordinates  Coordinates `json:"coordinates" gorm:"embedded;embeddedPrefix:coord_"`
	Image        string      `json:"image"`
	CreatedAt    time.Time   `json:"createdAt"`
	UpdatedAt    time.Time   `json:"updatedAt"`
}

func (o *Outlet) BeforeCreate(*gorm.DB) error {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	if o.Address.Country == "" {
		o.Address.Country = "India"
	}
	return nil
}

// StockUnit is the measuring unit of an inventory row.
type StockUnit string

const (
	UnitPieces  StockUnit = "pieces"
	UnitKg      StockUnit = "kg"
	UnitGrams   StockUnit = "grams"
	UnitLiters  StockUnit = "liters"
	UnitMl      StockUnit = "ml"
	UnitPackets StockUnit = "packets"
	UnitBoxes   StockUnit = "boxes"
)

func (u StockUnit) Valid() bool {
	switch u {
	case UnitPieces, UnitKg, UnitGrams, UnitLiters, UnitMl, UnitPackets, UnitBoxes:
		return true
	}
	return false
}

type InventoryItem struct {
	ID            string     `json:"_id" gorm:"primaryKey;type:varchar(36)"`
	OutletID      string     `json:"outletId" gorm:"not null;index"`
	ItemName      string     `json:"itemName" gorm:"not null"`
	Category      string     `json:"category" gorm:"default:'Other'"`
	CurrentStock  float64    `json:"currentStock"`
	MinStock      float64    `json:"minStock"`
	Unit          StockUnit  `json:"unit" gorm:"default:'pieces'"`
	CostPerUnit   float64    `json:"costPerUnit"`
	Supplier      string     `json:"supplier"`
	LastRestocked time.Time  `json:"lastRestocked"`
	ExpiryDate    *time.Time `json:"expiryDate,omitempty"`
	Notes         string     `json:"notes"`
	LowStock      bool       `json:"lowStock" gorm:"-"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

func (i *InventoryItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	if i.Unit == "" {
		i.Unit = UnitPieces
	}
	if i.LastRestocked.IsZero() {
		i.LastRestocked = tx.NowFunc()
	}
	return nil
}

func (i *InventoryItem) AfterFind(*gorm.DB) error {
	i.LowStock = i.CurrentStock <= i.MinStock
	return nil
}
