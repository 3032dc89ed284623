package cli

import (
	"github.com/benbjohnson/clock"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/smartfeastt/smartfeast-backend/config"
)

func newMigrateCommand(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or upgrade the database schema and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(v)
			if err != nil {
				return err
			}
			log, err := config.NewLogger(cfg.LogLevel, cfg.LogFormat)
			if err != nil {
				return err
			}
			defer log.Sync()

			db, err := config.OpenDB(cfg.DatabasePath, clock.New())
			if err != nil {
				return err
			}
			if sqlDB, err := db.DB(); err == nil {
				defer sqlDB.Close()
			}
			log.Info("Database migrated", zap.String("path", cfg.DatabasePath))
			return nil
		},
	}
}
