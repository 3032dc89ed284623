package config

import (
	"fmt"
	"os"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/glebarez/sqlite"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/smartfeastt/smartfeast-backend/models"
)

// Config is the process configuration, read from flags and environment.
type Config struct {
	Port              string
	DatabasePath      string
	JWTSecret         []byte
	TokenTTL          time.Duration
	PaymentServiceKey string
	LogLevel          string
	LogFormat         string
	GinMode           string
}

// Keys double as environment variable names.
const (
	KeyPort              = "PORT"
	KeyDatabasePath      = "DB_PATH"
	KeyJWTSecret         = "JWT_SECRET"
	KeyTokenTTL          = "TOKEN_TTL"
	KeyPaymentServiceKey = "PAYMENT_SERVICE_KEY"
	KeyLogLevel          = "LOG_LEVEL"
	KeyLogFormat         = "LOG_FORMAT"
	KeyGinMode           = "GIN_MODE"
)

// SetDefaults registers defaults and environment bindings on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyPort, "8080")
	v.SetDefault(KeyDatabasePath, "smartfeast.db")
	v.SetDefault(KeyJWTSecret, "smartfeast_dev_secret")
	v.SetDefault(KeyTokenTTL, 7*24*time.Hour)
	v.SetDefault(KeyPaymentServiceKey, "")
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, "json")
	v.SetDefault(KeyGinMode, "release")
	v.AutomaticEnv()
}

// Load reads a Config out of v.
func Load(v *viper.Viper) (Config, error) {
	cfg := Config{
		Port:              v.GetString(KeyPort),
		DatabasePath:      v.GetString(KeyDatabasePath),
		JWTSecret:         []byte(v.GetString(KeyJWTSecret)),
		TokenTTL:          v.GetDuration(KeyTokenTTL),
		PaymentServiceKey: v.GetString(KeyPaymentServiceKey),
		LogLevel:          v.GetString(KeyLogLevel),
		LogFormat:         v.GetString(KeyLogFormat),
		GinMode:           v.GetString(KeyGinMode),
	}
	if len(cfg.JWTSecret) == 0 {
		return cfg, fmt.Errorf("%s must not be empty", KeyJWTSecret)
	}
	if cfg.TokenTTL <= 0 {
		return cfg, fmt.Errorf("%s must be positive, got %s", KeyTokenTTL, cfg.TokenTTL)
	}
	if cfg.DatabasePath == "" {
		return cfg, fmt.Errorf("%s must not be empty", KeyDatabasePath)
	}
	return cfg, nil
}

// NewLogger builds a zap logger writing to stdout in json or console format.
func NewLogger(level, format string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = func(ts time.Time, enc zapcore.PrimitiveArrayEncoder) {
		enc.AppendString(ts.UTC().Format(time.RFC3339))
	}
	encCfg.EncodeDuration = zapcore.StringDurationEncoder

	var enc zapcore.Encoder
	switch format {
	case "json", "":
		enc = zapcore.NewJSONEncoder(encCfg)
	case "console", "text":
		enc = zapcore.NewConsoleEncoder(encCfg)
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}
	return zap.New(zapcore.NewCore(enc, zapcore.Lock(os.Stdout), lvl)), nil
}

// OpenDB opens the sqlite database at path and migrates every model.
// Timestamps written by gorm come from clk.
func OpenDB(path string, clk clock.Clock) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Warn),
		NowFunc:                                  func() time.Time { return clk.Now().UTC() },
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	// SQLite allows a single writer.
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(models.All()...); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return db, nil
}
