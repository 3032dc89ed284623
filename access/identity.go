// Package access decides whether a caller may act on an outlet and the
// orders, items, categories and inventory that hang off it.
package access

import (
	"slices"

	"github.com/smartfeastt/smartfeast-backend/models"
)

// Identity is a closed set of caller kinds. Only the types in this package
// implement it.
type Identity interface {
	UserID() string
	isIdentity()
}

// Owner owns restaurants. OwnedRestaurants is the snapshot carried by the
// token and is informational only: ownership is checked against the store.
type Owner struct {
	ID               string
	Email            string
	OwnedRestaurants []string
}

// Manager operates the outlets listed in ManagedOutlets.
type Manager struct {
	ID             string
	Email          string
	ManagedOutlets []string
}

// Customer is an authenticated end user.
type Customer struct {
	ID    string
	Email string
}

// Guest is an unauthenticated caller.
type Guest struct{}

// Service is a trusted backend caller such as a payment webhook.
type Service struct {
	Name string
}

func (o Owner) UserID() string    { return o.ID }
func (m Manager) UserID() string  { return m.ID }
func (c Customer) UserID() string { return c.ID }
func (Guest) UserID() string      { return "" }
func (Service) UserID() string    { return "" }

func (Owner) isIdentity()    {}
func (Manager) isIdentity()  {}
func (Customer) isIdentity() {}
func (Guest) isIdentity()    {}
func (Service) isIdentity()  {}

// New builds the identity for an authenticated user of the given role.
// Unknown roles yield a Guest.
func New(userID, email string, role models.UserRole, owned, managed []string) Identity {
	switch role {
	case models.RoleOwner:
		return Owner{ID: userID, Email: email, OwnedRestaurants: owned}
	case models.RoleManager:
		return Manager{ID: userID, Email: email, ManagedOutlets: managed}
	case models.RoleCustomer:
		return Customer{ID: userID, Email: email}
	default:
		return Guest{}
	}
}

// Authenticated reports whether id belongs to a signed-in user.
func Authenticated(id Identity) bool {
	switch id.(type) {
	case Owner, Manager, Customer:
		return true
	case Guest, Service:
		return false
	default:
		return false
	}
}

// Role returns the stored role of a user identity.
func Role(id Identity) (models.UserRole, bool) {
	switch id.(type) {
	case Owner:
		return models.RoleOwner, true
	case Manager:
		return models.RoleManager, true
	case Customer:
		return models.RoleCustomer, true
	default:
		return "", false
	}
}

// ManagedOutletsFunc re-reads a manager's assignments from the store.
type ManagedOutletsFunc func(userID string) ([]string, error)

// Refresh replaces a manager's token snapshot of assigned outlets with the
// current store value. Other identities are returned unchanged.
func Refresh(id Identity, lookup ManagedOutletsFunc) (Identity, error) {
	m, ok := id.(Manager)
	if !ok {
		return id, nil
	}
	outlets, err := lookup(m.ID)
	if err != nil {
		return id, err
	}
	m.ManagedOutlets = outlets
	return m, nil
}

func (m Manager) manages(outletID string) bool {
	return slices.Contains(m.ManagedOutlets, outletID)
}
