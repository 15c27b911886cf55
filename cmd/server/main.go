package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Simplici0/ringvirkning/internal/config"
	"github.com/Simplici0/ringvirkning/internal/db"
	"github.com/Simplici0/ringvirkning/internal/logging"
	"github.com/Simplici0/ringvirkning/internal/migrations"
	"github.com/Simplici0/ringvirkning/internal/preferences"
	"github.com/Simplici0/ringvirkning/internal/ripple"
	"github.com/Simplici0/ringvirkning/internal/seed"
	"github.com/Simplici0/ringvirkning/internal/session"
	"github.com/Simplici0/ringvirkning/internal/tenant"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	logger := logging.New(cfg.IsDev(), cfg.LogLevel, os.Stderr)
	for _, w := range cfg.Warnings() {
		logger.Warn().Msg(w)
	}

	if err := run(cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("server stopped")
	}
}

func run(cfg config.Config, logger zerolog.Logger) error {
	ctx := context.Background()

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer database.Close()

	if err := migrations.Up(database); err != nil {
		return err
	}

	catalog := tenant.Builtin()
	if cfg.TenantsPath != "" {
		catalog, err = tenant.LoadFile(cfg.TenantsPath)
		if err != nil {
			return err
		}
	}
	stats, err := seed.Run(database, catalog)
	if err != nil {
		return fmt.Errorf("seed tenants: %w", err)
	}
	logger.Info().Int("inserts", stats.Inserts).Int("updates", stats.Updates).Msg("tenant catalog seeded")

	defaultCfg := ripple.DefaultConfig()
	if cfg.RippleConfigPath != "" {
		defaultCfg, err = ripple.LoadConfig(cfg.RippleConfigPath)
		if err != nil {
			return err
		}
	}

	prefs, closePrefs, err := openPreferences(ctx, cfg, database)
	if err != nil {
		return err
	}
	defer closePrefs()

	registry, err := session.NewRegistry(session.Options{
		Tenants:         catalog,
		DefaultTenantID: catalog[0].ID,
		Prefs:           prefs,
		MaxSnapshots:    cfg.MaxSnapshots,
		IdleTimeout:     cfg.SessionIdleTimeout,
		Logger:          logger,
	})
	if err != nil {
		return err
	}
	registry.Start()
	defer registry.Stop()

	cookies, err := newCookieService(cfg.SessionSecret, !cfg.IsDev())
	if err != nil {
		return fmt.Errorf("create cookie key: %w", err)
	}

	srv := &server{
		db:         database,
		sessions:   registry,
		cookies:    cookies,
		defaultCfg: defaultCfg,
		logger:     logger,
	}

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", httpServer.Addr).Str("env", cfg.AppEnv).Msg("listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		return fmt.Errorf("listen: %w", err)
	case <-quit:
		logger.Info().Msg("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func openPreferences(ctx context.Context, cfg config.Config, database *sql.DB) (preferences.Store, func(), error) {
	switch cfg.PreferencesBackend {
	case config.BackendRedis:
		store := preferences.NewRedisStore(cfg.RedisAddr, cfg.SessionIdleTimeout*12)
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		defer cancel()
		if err := store.Ping(pingCtx); err != nil {
			_ = store.Close()
			return nil, nil, err
		}
		return store, func() { _ = store.Close() }, nil
	case config.BackendMemory:
		return preferences.NewMemoryStore(), func() {}, nil
	default:
		return preferences.NewSQLiteStore(database), func() {}, nil
	}
}
