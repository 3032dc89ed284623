package carts

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/smartfeastt/smartfeast-backend/apperr"
	"github.com/smartfeastt/smartfeast-backend/config"
	"github.com/smartfeastt/smartfeast-backend/models"
)

func newService(t *testing.T) *Service {
	t.Helper()
	db, err := config.OpenDB(filepath.Join(t.TempDir(), "carts.db"), clock.NewMock())
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return NewService(db, zaptest.NewLogger(t))
}

func qty(n int) *int { return &n }

func quantities(c *models.Cart) map[string]int {
	out := map[string]int{}
	for _, it := range c.Items {
		out[it.ItemID] = it.Quantity
	}
	return out
}

func TestGet_CreatesEmptyCart(t *testing.T) {
	s := newService(t)
	ctx := context.Background()

	cart, err := s.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "u1", cart.UserID)
	assert.NotNil(t, cart.Items)
	assert.Empty(t, cart.Items)

	again, err := s.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, cart.ID, again.ID)
}

func TestAdd_MergesQuantity(t *testing.T) {
	s := newService(t)
	ctx := context.Background()

	_, err := s.Add(ctx, "u1", Line{ItemID: "dosa", ItemName: "Dosa", ItemPrice: 80, OutletID: "o1"})
	require.NoError(t, err)
	_, err = s.Add(ctx, "u1", Line{ItemID: "coffee", ItemName: "Coffee", ItemPrice: 40, Quantity: qty(2), OutletID: "o1"})
	require.NoError(t, err)
	cart, err := s.Add(ctx, "u1", Line{ItemID: "dosa", ItemName: "Dosa", ItemPrice: 80, Quantity: qty(3), OutletID: "o1"})
	require.NoError(t, err)

	require.Len(t, cart.Items, 2)
	assert.Equal(t, "dosa", cart.Items[0].ItemID)
	assert.Equal(t, map[string]int{"dosa": 4, "coffee": 2}, quantities(cart))

	_, err = s.Add(ctx, "u1", Line{ItemName: "nameless"})
	assert.Equal(t, apperr.EInvalid, apperr.Code(err))
	_, err = s.Add(ctx, "u1", Line{ItemID: "dosa", Quantity: qty(0)})
	assert.Equal(t, apperr.EInvalid, apperr.Code(err))
}

func TestUpdate(t *testing.T) {
	s := newService(t)
	ctx := context.Background()

	_, err := s.Update(ctx, "u1", "dosa", 2)
	assert.Equal(t, apperr.ENotFound, apperr.Code(err))

	_, err = s.Add(ctx, "u1", Line{ItemID: "dosa", ItemName: "Dosa", ItemPrice: 80})
	require.NoError(t, err)

	cart, err := s.Update(ctx, "u1", "dosa", 5)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"dosa": 5}, quantities(cart))

	_, err = s.Update(ctx, "u1", "idli", 1)
	assert.Equal(t, apperr.ENotFound, apperr.Code(err))

	cart, err = s.Update(ctx, "u1", "dosa", 0)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
}

func TestRemove(t *testing.T) {
	s := newService(t)
	ctx := context.Background()
	_, err := s.Sync(ctx, "u1", []Line{
		{ItemID: "dosa", ItemName: "Dosa", Quantity: qty(1)},
		{ItemID: "idli", ItemName: "Idli", Quantity: qty(2)},
	})
	require.NoError(t, err)

	cart, err := s.Remove(ctx, "u1", "dosa")
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"idli": 2}, quantities(cart))

	_, err = s.Remove(ctx, "u2", "dosa")
	assert.Equal(t, apperr.ENotFound, apperr.Code(err))
}

func TestClear_Idempotent(t *testing.T) {
	s := newService(t)
	ctx := context.Background()

	require.NoError(t, s.Clear(ctx, "nobody"))

	_, err := s.Add(ctx, "u1", Line{ItemID: "dosa", ItemName: "Dosa"})
	require.NoError(t, err)
	require.NoError(t, s.Clear(ctx, "u1"))
	require.NoError(t, s.Clear(ctx, "u1"))

	cart, err := s.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
}

func TestSync_ReplacesLines(t *testing.T) {
	s := newService(t)
	ctx := context.Background()
	_, err := s.Add(ctx, "u1", Line{ItemID: "old", ItemName: "Old"})
	require.NoError(t, err)

	cart, err := s.Sync(ctx, "u1", []Line{
		{MenuID: "vada", ItemName: "Vada", ItemPrice: 30, Quantity: qty(3), OutletID: "o1"},
		{ItemID: "chai", ItemName: "Chai", ItemPrice: 20, OutletID: "o1"},
	})
	require.NoError(t, err)
	require.Len(t, cart.Items, 2)
	assert.Equal(t, "vada", cart.Items[0].ItemID)
	assert.Equal(t, map[string]int{"vada": 3, "chai": 1}, quantities(cart))

	cart, err = s.Sync(ctx, "u1", nil)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)

	_, err = s.Sync(ctx, "u1", []Line{{ItemName: "no id"}})
	assert.Equal(t, apperr.EInvalid, apperr.Code(err))
}

func TestDelete(t *testing.T) {
	s := newService(t)
	ctx := context.Background()
	_, err := s.Add(ctx, "u1", Line{ItemID: "dosa", ItemName: "Dosa"})
	require.NoError(t, err)

	require.NoError(t, Delete(s.db, "u1"))

	var n int64
	require.NoError(t, s.db.Model(&models.Cart{}).Count(&n).Error)
	assert.Zero(t, n)
	require.NoError(t, s.db.Model(&models.CartItem{}).Count(&n).Error)
	assert.Zero(t, n)
}
