// Package cli wires configuration, storage and the HTTP server behind the
// smartfeast command.
package cli

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/smartfeastt/smartfeast-backend/config"
)

// NewRootCommand creates the smartfeast command with its subcommands.
// Every flag is also readable from the environment variable named by its
// config key.
func NewRootCommand() *cobra.Command {
	v := viper.New()
	config.SetDefaults(v)

	cmd := &cobra.Command{
		Use:           "smartfeast",
		Short:         "SmartFeast multi-outlet ordering backend",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := cmd.PersistentFlags()
	flags.String("db", v.GetString(config.KeyDatabasePath), "path to the SQLite database")
	flags.String("log-level", v.GetString(config.KeyLogLevel), "log level (debug|info|warn|error)")
	flags.String("log-format", v.GetString(config.KeyLogFormat), "log format (json|console)")
	mustBind(v, config.KeyDatabasePath, cmd, "db")
	mustBind(v, config.KeyLogLevel, cmd, "log-level")
	mustBind(v, config.KeyLogFormat, cmd, "log-format")

	cmd.AddCommand(newServeCommand(v))
	cmd.AddCommand(newMigrateCommand(v))
	return cmd
}

func mustBind(v *viper.Viper, key string, cmd *cobra.Command, flag string) {
	f := cmd.PersistentFlags().Lookup(flag)
	if f == nil {
		f = cmd.Flags().Lookup(flag)
	}
	if err := v.BindPFlag(key, f); err != nil {
		panic(err)
	}
}
