package cli

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/smartfeastt/smartfeast-backend/carts"
	"github.com/smartfeastt/smartfeast-backend/config"
	"github.com/smartfeastt/smartfeast-backend/handlers"
	"github.com/smartfeastt/smartfeast-backend/metrics"
	"github.com/smartfeastt/smartfeast-backend/middleware"
	"github.com/smartfeastt/smartfeast-backend/orders"
	"github.com/smartfeastt/smartfeast-backend/realtime"
	"github.com/smartfeastt/smartfeast-backend/routes"
)

const shutdownTimeout = 10 * time.Second

func newServeCommand(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the realtime socket endpoint",
		Long: `Run the HTTP API and the realtime socket endpoint.

Configuration is read from flags and environment variables:
  PORT, DB_PATH, JWT_SECRET, TOKEN_TTL, PAYMENT_SERVICE_KEY,
  LOG_LEVEL, LOG_FORMAT, GIN_MODE`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(v)
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg)
		},
	}
	cmd.Flags().String("port", v.GetString(config.KeyPort), "HTTP listen port")
	mustBind(v, config.KeyPort, cmd, "port")
	return cmd
}

func serve(ctx context.Context, cfg config.Config) error {
	log, err := config.NewLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	defer log.Sync()

	clk := clock.New()
	db, err := config.OpenDB(cfg.DatabasePath, clk)
	if err != nil {
		return err
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}
	if cfg.PaymentServiceKey == "" {
		log.Warn("PAYMENT_SERVICE_KEY is not set, payment updates require a vendor token")
	}

	m := metrics.New()
	reg := prometheus.NewRegistry()
	reg.MustRegister(m.PrometheusCollectors()...)
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	hub := realtime.NewHub(log, m, realtime.DefaultOptions())
	auth := middleware.NewAuthenticator(cfg.JWTSecret, cfg.TokenTTL, clk.Now)
	h := handlers.New(db, auth,
		orders.NewService(db, hub, clk, m, log),
		carts.NewService(db, log),
		log)

	gin.SetMode(cfg.GinMode)
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(log), middleware.CORS())
	routes.SetupRoutes(r, routes.Deps{
		Handler:           h,
		Auth:              auth,
		Socket:            hub,
		Metrics:           promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		PaymentServiceKey: cfg.PaymentServiceKey,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("Server listening", zap.String("addr", srv.Addr), zap.String("db", cfg.DatabasePath))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		log.Info("Shutting down")
		hub.Close()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
