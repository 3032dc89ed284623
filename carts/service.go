// Package carts keeps one server-side cart per user so a cart follows the
// customer across devices. Mutations are last-write-wins.
package carts

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/smartfeastt/smartfeast-backend/apperr"
	"github.com/smartfeastt/smartfeast-backend/models"
)

type Service struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewService(db *gorm.DB, log *zap.Logger) *Service {
	return &Service{db: db, log: log.With(zap.String("component", "carts"))}
}

// Line is a cart line as sent by clients. Sync payloads sometimes carry the
// menu item's _id instead of itemId.
type Line struct {
	ItemID    string  `json:"itemId"`
	MenuID    string  `json:"_id"`
	ItemName  string  `json:"itemName"`
	ItemPrice float64 `json:"itemPrice"`
	Quantity  *int    `json:"quantity"`
	ItemPhoto string  `json:"itemPhoto"`
	OutletID  string  `json:"outletId"`
}

func (l Line) id() string {
	if l.ItemID != "" {
		return l.ItemID
	}
	return l.MenuID
}

func (l Line) quantity() int {
	if l.Quantity == nil {
		return 1
	}
	return *l.Quantity
}

// Get returns the user's cart, creating an empty one on first use.
func (s *Service) Get(ctx context.Context, userID string) (*models.Cart, error) {
	var cart *models.Cart
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		cart, err = getOrCreate(tx, userID)
		return err
	})
	if err != nil {
		return nil, apperr.Internal("carts.Get", err)
	}
	return s.reload(ctx, cart.ID)
}

// Add puts a line in the cart, adding to the quantity if the item is
// already there.
func (s *Service) Add(ctx context.Context, userID string, line Line) (*models.Cart, error) {
	if line.id() == "" {
		return nil, apperr.Invalid("Item id is required")
	}
	qty := line.quantity()
	if qty < 1 {
		return nil, apperr.Invalid("Quantity must be at least 1")
	}

	var cartID string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cart, err := getOrCreate(tx, userID)
		if err != nil {
			return err
		}
		cartID = cart.ID

		var existing models.CartItem
		err = tx.Where("cart_id = ? AND item_id = ?", cart.ID, line.id()).First(&existing).Error
		switch {
		case err == nil:
			return tx.Model(&existing).Update("quantity", gorm.Expr("quantity + ?", qty)).Error
		case errors.Is(err, gorm.ErrRecordNotFound):
			item := toItem(line, qty)
			item.CartID = cart.ID
			item.Position, err = nextPosition(tx, cart.ID)
			if err != nil {
				return err
			}
			return tx.Create(&item).Error
		default:
			return err
		}
	})
	if err != nil {
		return nil, apperr.Internal("carts.Add", err)
	}
	return s.reload(ctx, cartID)
}

// Update sets the quantity of a line; zero or less removes it.
func (s *Service) Update(ctx context.Context, userID, itemID string, quantity int) (*models.Cart, error) {
	cart, err := s.find(ctx, userID)
	if err != nil {
		return nil, err
	}

	db := s.db.WithContext(ctx).Where("cart_id = ? AND item_id = ?", cart.ID, itemID)
	var res *gorm.DB
	if quantity <= 0 {
		res = db.Delete(&models.CartItem{})
	} else {
		res = db.Model(&models.CartItem{}).Update("quantity", quantity)
	}
	if res.Error != nil {
		return nil, apperr.Internal("carts.Update", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, apperr.NotFound("Item not found in cart")
	}
	return s.reload(ctx, cart.ID)
}

// Remove drops a line. Removing an item that is not in the cart is not an
// error.
func (s *Service) Remove(ctx context.Context, userID, itemID string) (*models.Cart, error) {
	cart, err := s.find(ctx, userID)
	if err != nil {
		return nil, err
	}
	err = s.db.WithContext(ctx).
		Where("cart_id = ? AND item_id = ?", cart.ID, itemID).
		Delete(&models.CartItem{}).Error
	if err != nil {
		return nil, apperr.Internal("carts.Remove", err)
	}
	return s.reload(ctx, cart.ID)
}

// Clear empties the cart. Clearing an empty or missing cart succeeds.
func (s *Service) Clear(ctx context.Context, userID string) error {
	if err := Empty(s.db.WithContext(ctx), userID); err != nil {
		return apperr.Internal("carts.Clear", err)
	}
	return nil
}

// Empty deletes every line of the user's cart, if there is one. It runs on
// tx so order placement can empty the cart in its own transaction.
func Empty(tx *gorm.DB, userID string) error {
	sub := tx.Model(&models.Cart{}).Select("id").Where("user_id = ?", userID)
	return tx.Where("cart_id IN (?)", sub).Delete(&models.CartItem{}).Error
}

// Sync replaces every line with lines.
func (s *Service) Sync(ctx context.Context, userID string, lines []Line) (*models.Cart, error) {
	items := make([]models.CartItem, 0, len(lines))
	for i, l := range lines {
		if l.id() == "" {
			return nil, apperr.Invalid("Item %d is missing its id", i+1)
		}
		if l.quantity() < 1 {
			return nil, apperr.Invalid("Item %q must have a quantity of at least 1", l.ItemName)
		}
		item := toItem(l, l.quantity())
		item.Position = i
		items = append(items, item)
	}

	var cartID string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cart, err := getOrCreate(tx, userID)
		if err != nil {
			return err
		}
		cartID = cart.ID
		if err := tx.Where("cart_id = ?", cart.ID).Delete(&models.CartItem{}).Error; err != nil {
			return err
		}
		if len(items) == 0 {
			return nil
		}
		for i := range items {
			items[i].CartID = cart.ID
		}
		return tx.Create(&items).Error
	})
	if err != nil {
		return nil, apperr.Internal("carts.Sync", err)
	}
	return s.reload(ctx, cartID)
}

// Delete removes the cart and its lines, used when an account is closed.
func Delete(tx *gorm.DB, userID string) error {
	if err := Empty(tx, userID); err != nil {
		return err
	}
	return tx.Where("user_id = ?", userID).Delete(&models.Cart{}).Error
}

func (s *Service) find(ctx context.Context, userID string) (*models.Cart, error) {
	var cart models.Cart
	err := s.db.WithContext(ctx).First(&cart, "user_id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("Cart not found")
	}
	if err != nil {
		return nil, apperr.Internal("carts.find", err)
	}
	return &cart, nil
}

func (s *Service) reload(ctx context.Context, cartID string) (*models.Cart, error) {
	var cart models.Cart
	err := s.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("position, id") }).
		First(&cart, "id = ?", cartID).Error
	if err != nil {
		return nil, apperr.Internal("carts.reload", err)
	}
	if cart.Items == nil {
		cart.Items = []models.CartItem{}
	}
	return &cart, nil
}

func getOrCreate(tx *gorm.DB, userID string) (*models.Cart, error) {
	var cart models.Cart
	if err := tx.Where(models.Cart{UserID: userID}).FirstOrCreate(&cart).Error; err != nil {
		return nil, err
	}
	return &cart, nil
}

func nextPosition(tx *gorm.DB, cartID string) (int, error) {
	var last int
	err := tx.Model(&models.CartItem{}).
		Where("cart_id = ?", cartID).
		Select("COALESCE(MAX(position), -1)").
		Scan(&last).Error
	return last + 1, err
}

func toItem(l Line, qty int) models.CartItem {
	return models.CartItem{
		ItemID:   l.id(),
		Name:     l.ItemName,
		Price:    l.ItemPrice,
		Quantity: qty,
		Photo:    l.ItemPhoto,
		OutletID: l.OutletID,
	}
}
