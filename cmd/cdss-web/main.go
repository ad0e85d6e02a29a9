package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/cdss/cdss-web/internal/config"
	"github.com/cdss/cdss-web/internal/core/authchan"
	"github.com/cdss/cdss-web/internal/core/menu"
	"github.com/cdss/cdss-web/internal/core/route"
	"github.com/cdss/cdss-web/internal/core/session"
	"github.com/cdss/cdss-web/internal/platform/audit"
	"github.com/cdss/cdss-web/internal/platform/backend"
	"github.com/cdss/cdss-web/internal/platform/credstore"
	"github.com/cdss/cdss-web/internal/platform/db"
	"github.com/cdss/cdss-web/internal/platform/middleware"
	"github.com/cdss/cdss-web/internal/platform/telemetry"
	"github.com/cdss/cdss-web/internal/platform/wsbridge"
	"github.com/cdss/cdss-web/internal/web"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "cdss-web",
		Short: "CDSS web session gateway",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(auditCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the session gateway",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func auditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Manage the audit trail",
	}

	pruneCmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete audit events older than the retention window",
		RunE: func(cmd *cobra.Command, args []string) error {
			days, _ := cmd.Flags().GetInt("days")

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.DatabaseURL == "" {
				return fmt.Errorf("DATABASE_URL is required for audit prune")
			}
			if days <= 0 {
				days = cfg.AuditRetentionDays
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
			svc := audit.NewService(audit.NewRepoPG(pool), logger)
			removed, err := svc.Prune(ctx, time.Duration(days)*24*time.Hour)
			if err != nil {
				return fmt.Errorf("prune failed: %w", err)
			}

			fmt.Printf("Pruned %d audit event(s) older than %d day(s).\n", removed, days)
			return nil
		},
	}
	pruneCmd.Flags().Int("days", 0, "Retention window in days (default AUDIT_RETENTION_DAYS)")
	cmd.AddCommand(pruneCmd)

	return cmd
}

func runServer() error {
	// Logger
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	// Config
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid config")
	}

	ctx := context.Background()

	// Credential store: Redis when configured, in-memory otherwise. The TTL
	// tracks the session lifetime so stale credentials age out on their own.
	var creds credstore.Store = credstore.NewMemoryStore()
	if cfg.RedisURL != "" {
		rs, err := credstore.NewRedisStore(cfg.RedisURL, "cdss:session:credentials", time.Duration(cfg.SessionSeconds)*time.Second)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer rs.Close()
		creds = rs
		logger.Info().Msg("credential store: redis")
	} else {
		logger.Info().Msg("credential store: in-memory")
	}

	// Audit trail: Postgres when configured, in-memory otherwise.
	auditRepo := audit.Repository(audit.NewMemoryRepo())
	var pool *pgxpool.Pool
	if cfg.DatabaseURL != "" {
		pool, err = db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to database")
		}
		defer pool.Close()

		applied, err := db.NewMigrator(pool, cfg.MigrationsDir).Up(ctx)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to apply migrations")
		}
		if applied > 0 {
			logger.Info().Int("applied", applied).Msg("migrations applied")
		}

		auditRepo = audit.NewRepoPG(pool)
		logger.Info().Msg("audit trail: postgres")
	} else {
		logger.Info().Msg("audit trail: in-memory")
	}
	auditSvc := audit.NewService(auditRepo, logger)

	// Session core
	store := menu.NewStore()
	be := backend.NewClient(cfg.BackendURL, logger)
	manager := session.NewManager(session.Config{
		SessionSeconds: cfg.SessionSeconds,
		WarnSeconds:    cfg.SessionWarnSeconds,
	}, be, creds, store, auditSvc, logger)

	channel := authchan.New(authchan.Config{
		URL:                  cfg.BackendWSURL,
		HeartbeatInterval:    time.Duration(cfg.HeartbeatSeconds) * time.Second,
		ReconnectDelay:       time.Duration(cfg.ReconnectDelaySecs) * time.Second,
		MaxReconnectAttempts: cfg.ReconnectMaxAttempts,
	}, authchan.NewGorillaDialer(), manager.RefreshPermissions, logger)
	manager.AttachChannel(channel)

	resolver := route.NewResolver(store, route.DefaultRegistry(), logger)

	// Telemetry and the browser bridge
	metrics := telemetry.NewProvider("cdss-web")
	bridge := wsbridge.New(logger)

	bridge.OnCountChange(func(n int) {
		metrics.SetGauge(telemetry.GaugeBridgeClients, int64(n))
	})
	channel.OnStateChange(func(s authchan.State) {
		metrics.SetGaugeBool(telemetry.GaugeChannelConnected, s == authchan.StateConnected)
		if s == authchan.StateConnecting {
			metrics.Inc(telemetry.CounterChannelReconnects)
		}
		// A closed channel while a principal is still logged in means the
		// reconnect budget ran out, not an ordinary teardown.
		if s == authchan.StateClosed {
			if p := manager.Principal(); p != nil {
				auditSvc.Record(context.Background(), audit.EventChannelExhausted, p.ID, p.Name, p.Role, "")
			}
		}
	})
	store.OnReplace(func(t *menu.Tree) {
		bridge.Broadcast(wsbridge.EventMenuChanged, nil)
	})

	manager.OnLogin = func() {
		metrics.Inc(telemetry.CounterLogins)
		metrics.SetGaugeBool(telemetry.GaugeSessionAuthenticated, true)
	}
	manager.OnLoginFailed = func() {
		metrics.Inc(telemetry.CounterLoginFailures)
	}
	manager.OnLogout = func() {
		metrics.Inc(telemetry.CounterLogouts)
		metrics.SetGaugeBool(telemetry.GaugeSessionAuthenticated, false)
	}
	manager.OnRenewed = func() {
		metrics.Inc(telemetry.CounterSessionRenewals)
	}
	manager.OnRefresh = func() {
		metrics.Inc(telemetry.CounterPermissionRefresh)
	}
	manager.OnWarning = func(remaining int) {
		metrics.Inc(telemetry.CounterSessionWarnings)
		data, _ := json.Marshal(map[string]int{"remaining_seconds": remaining})
		bridge.Broadcast(wsbridge.EventSessionWarning, data)
	}
	manager.OnExpired = func() {
		metrics.Inc(telemetry.CounterSessionExpiries)
		bridge.Broadcast(wsbridge.EventSessionExpired, nil)
	}

	// Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.SecurityHeaders())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodDelete},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: true,
	}))

	// API routes
	apiV1 := e.Group("/api/v1")
	handler := web.NewHandler(manager, resolver, auditSvc)
	handler.RegisterRoutes(apiV1, middleware.RateLimit(middleware.RateLimitConfig{
		RequestsPerSecond: cfg.LoginRateLimitRPS,
		BurstSize:         cfg.LoginRateLimitBurst,
	}))

	wsHandler := wsbridge.NewHandler(bridge)
	apiV1.GET("/ws", wsHandler.HandleConnect, handler.RequireAuth)

	// Health and metrics
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": "0.1.0",
		})
	})
	e.GET("/metrics", metrics.MetricsHandler())
	if pool != nil {
		e.GET("/health/db", db.HealthHandler(pool))
	}

	// Restore any persisted session before serving; the handlers answer 503
	// until this completes.
	go manager.Initialize(ctx)

	// Graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("starting server")
		var err error
		if cfg.TLSEnabled {
			err = e.StartTLS(addr, cfg.TLSCertFile, cfg.TLSKeyFile)
		} else {
			err = e.Start(addr)
		}
		if err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	channel.Teardown()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("server stopped")
	return nil
}
