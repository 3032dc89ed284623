package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartfeastt/smartfeast-backend/models"
)

func TestLoad_Defaults(t *testing.T) {
	v := viper.New()
	SetDefaults(v)

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 7*24*time.Hour, cfg.TokenTTL)
	assert.Equal(t, "json", cfg.LogFormat)
}

func TestLoad_Env(t *testing.T) {
	t.Setenv(KeyPort, "9090")
	t.Setenv(KeyTokenTTL, "1h")
	t.Setenv(KeyPaymentServiceKey, "psk")
	v := viper.New()
	SetDefaults(v)

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, time.Hour, cfg.TokenTTL)
	assert.Equal(t, "psk", cfg.PaymentServiceKey)
}

func TestLoad_RejectsBadTTL(t *testing.T) {
	v := viper.New()
	SetDefaults(v)
	v.Set(KeyTokenTTL, "-1h")

	_, err := Load(v)
	assert.Error(t, err)
}

func TestNewLogger(t *testing.T) {
	_, err := NewLogger("debug", "console")
	assert.NoError(t, err)
	_, err = NewLogger("loud", "json")
	assert.Error(t, err)
	_, err = NewLogger("info", "xml")
	assert.Error(t, err)
}

func TestOpenDB_Migrates(t *testing.T) {
	mock := clock.NewMock()
	mock.Set(time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC))

	db, err := OpenDB(filepath.Join(t.TempDir(), "test.db"), mock)
	require.NoError(t, err)

	for _, table := range []string{"users", "restaurants", "outlets", "outlet_managers", "orders", "order_items", "carts", "cart_items"} {
		assert.True(t, db.Migrator().HasTable(table), table)
	}

	u := models.User{Name: "A", Email: "a@x.com", PasswordHash: "h", Role: models.RoleCustomer}
	require.NoError(t, db.Create(&u).Error)
	assert.NotEmpty(t, u.ID)
	assert.True(t, u.CreatedAt.Equal(mock.Now()))

	dup := models.User{Name: "A", Email: "a@x.com", PasswordHash: "h", Role: models.RoleCustomer}
	assert.Error(t, db.Create(&dup).Error)

	owner := models.User{Name: "A", Email: "a@x.com", PasswordHash: "h", Role: models.RoleOwner}
	assert.NoError(t, db.Create(&owner).Error)
}
