package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UserRole defines allowed roles in the system
type UserRole string

const (
	RoleOwner    UserRole = "owner"
	RoleManager  UserRole = "manager"
	RoleCustomer UserRole = "user"
)

// Valid reports whether r is one of the known roles.
func (r UserRole) Valid() bool {
	switch r {
	case RoleOwner, RoleManager, RoleCustomer:
		return true
	}
	return false
}

// User is unique on (email, role): one person may hold a customer account
// and an owner account under the same address.
type User struct {
	ID               string       `json:"_id" gorm:"primaryKey;type:varchar(36)"`
	Name             string       `json:"name" gorm:"not null"`
	Email            string       `json:"email" gorm:"not null;uniqueIndex:idx_users_email_role"`
	PasswordHash     string       `json:"-" gorm:"not null"`
	Role             UserRole     `json:"role" gorm:"not null;uniqueIndex:idx_users_email_role"`
	OwnedRestaurants []Restaurant `json:"ownedRestaurants,omitempty" gorm:"foreignKey:OwnerID"`
	ManagedOutlets   []Outlet     `json:"managedOutlets,omitempty" gorm:"many2many:outlet_managers"`
	CreatedAt        time.Time    `json:"createdAt"`
	UpdatedAt        time.Time    `json:"updatedAt"`
}

func (u *User) BeforeCreate(*gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

// ManagedOutletIDs re-reads a manager's outlet assignments from the store.
func ManagedOutletIDs(db *gorm.DB, userID string) ([]string, error) {
	var ids []string
	err := db.Table("outlet_managers").
		Where("user_id = ?", userID).
		Pluck("outlet_id", &ids).Error
	return ids, err
}

// OwnedRestaurantIDs lists the restaurants owned by ownerID.
func OwnedRestaurantIDs(db *gorm.DB, ownerID string) ([]string, error) {
	var ids []string
	err := db.Model(&Restaurant{}).
		Where("owner_id = ?", ownerID).
		Pluck("id", &ids).Error
	return ids, err
}

// OwnedOutletIDs lists every outlet under every restaurant owned by ownerID.
func OwnedOutletIDs(db *gorm.DB, ownerID string) ([]string, error) {
	var ids []string
	err := db.Model(&Outlet{}).
		Joins("JOIN restaurants ON restaurants.id = outlets.restaurant_id").
		Where("restaurants.owner_id = ?", ownerID).
		Pluck("outlets.id", &ids).Error
	return ids, err
}
