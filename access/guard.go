package access

import (
	"github.com/smartfeastt/smartfeast-backend/apperr"
	"github.com/smartfeastt/smartfeast-backend/models"
)

// Outlet is what the guard needs to know about an outlet.
type Outlet struct {
	ID      string
	OwnerID string
}

// ForOutlet builds the guard view of o. o.Restaurant must be loaded.
func ForOutlet(o *models.Outlet) Outlet {
	ref := Outlet{ID: o.ID}
	if o.Restaurant != nil {
		ref.OwnerID = o.Restaurant.OwnerID
	}
	return ref
}

// IsOwnerOf reports whether id is the owner of the outlet's restaurant.
func IsOwnerOf(id Identity, o Outlet) bool {
	owner, ok := id.(Owner)
	return ok && owner.ID != "" && owner.ID == o.OwnerID
}

// IsManagerOf reports whether id is a manager assigned to the outlet.
func IsManagerOf(id Identity, o Outlet) bool {
	m, ok := id.(Manager)
	return ok && m.manages(o.ID)
}

// CanManage is the single authorization predicate for outlet-scoped
// operations.
func CanManage(id Identity, o Outlet) bool {
	switch id.(type) {
	case Owner:
		return IsOwnerOf(id, o)
	case Manager:
		return IsManagerOf(id, o)
	case Customer, Guest, Service:
		return false
	default:
		return false
	}
}

// Authorize returns a forbidden error unless CanManage holds.
func Authorize(id Identity, o Outlet) error {
	if CanManage(id, o) {
		return nil
	}
	return apperr.Forbidden("Access denied")
}

// RequireVendor admits owners and managers only.
func RequireVendor(id Identity) error {
	switch id.(type) {
	case Owner, Manager:
		return nil
	default:
		return apperr.Forbidden("Access denied")
	}
}
