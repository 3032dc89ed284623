package cli

import (
	"path/filepath"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestMigrate_CreatesSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cli.db")

	cmd := NewRootCommand()
	cmd.SetArgs([]string{"migrate", "--db", path, "--log-level", "error"})
	require.NoError(t, cmd.Execute())

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	require.NoError(t, err)
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}
	for _, table := range []string{"users", "restaurants", "outlets", "orders", "order_items", "carts", "outlet_managers"} {
		assert.True(t, db.Migrator().HasTable(table), table)
	}
}

func TestRoot_RejectsUnknownLogFormat(t *testing.T) {
	cmd := NewRootCommand()
	cmd.SetArgs([]string{"migrate", "--db", filepath.Join(t.TempDir(), "x.db"), "--log-format", "xml"})
	assert.Error(t, cmd.Execute())
}
