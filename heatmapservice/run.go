// Package heatmapservice wires the process together: config, store,
// vault, registry client, services, scheduler and the HTTP server.
package heatmapservice

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/whalemap/whalemap/internal/api"
	"github.com/whalemap/whalemap/internal/config"
	"github.com/whalemap/whalemap/internal/platform/logger"
	"github.com/whalemap/whalemap/internal/registry"
	"github.com/whalemap/whalemap/internal/scheduler"
	"github.com/whalemap/whalemap/internal/services"
	"github.com/whalemap/whalemap/internal/store"
	"github.com/whalemap/whalemap/internal/store/postgres"
	"github.com/whalemap/whalemap/internal/store/sqlite"
	"github.com/whalemap/whalemap/internal/vault"
	"github.com/whalemap/whalemap/internal/worker"
)

// Run starts the heatmap service and blocks until shutdown or error.
func Run() error {
	log := logger.New("whalemap", false)

	cfg, err := config.New()
	if err != nil {
		log.Error().Err(err).Msg("failed to load configuration")
		return err
	}
	log = logger.New("whalemap", !cfg.IsProduction())

	log.Info().
		Str("environment", string(cfg.Environment)).
		Str("db_driver", cfg.DBDriver).
		Int("http_port", cfg.HTTPPort).
		Str("hub_api_url", cfg.HubAPIURL).
		Msg("whalemap starting")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := openStore(ctx, cfg, log)
	if err != nil {
		log.Error().Err(err).Msg("store unavailable")
		return err
	}
	defer func() { _ = st.Close() }()

	v, err := vault.New([]byte(cfg.EncryptionKey))
	if err != nil {
		log.Error().Err(err).Msg("invalid encryption key")
		return err
	}

	hub := registry.New(cfg.HubAPIURL, log)
	pool := worker.NewPool(cfg.SyncWorkers, log)

	syncer := services.NewSyncService(st, hub, v, log)
	accounts := services.NewAccountService(st, hub, v, syncer, pool, log)
	activity := services.NewActivityService(st, log)

	sched := scheduler.New(st, syncer, log)
	if err := sched.Start(cfg.SyncCronSpec, cfg.CleanupCronSpec); err != nil {
		log.Error().Err(err).Msg("invalid cron configuration")
		return err
	}

	router := api.NewRouter(
		api.NewAccountHandler(accounts),
		api.NewHeatmapHandler(activity),
		api.NewHealthHandler(st),
		log,
	)
	server := &http.Server{
		Addr:         cfg.GetHTTPAddr(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Int("port", cfg.HTTPPort).Msg("http server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutting down")
	case err := <-errCh:
		log.Error().Err(err).Msg("http server failed")
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	sched.Stop()
	if err := pool.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("background tasks did not drain in time")
	}
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
		return err
	}
	log.Info().Msg("server exited")
	return nil
}

func openStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (store.Store, error) {
	switch cfg.DBDriver {
	case "postgres":
		log.Info().Msg("using postgres store")
		return postgres.Open(ctx, cfg.PostgresDSN)
	case "sqlite":
		log.Info().Str("path", cfg.SQLitePath).Msg("using sqlite store")
		return sqlite.Open(ctx, cfg.SQLitePath)
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER: %s", cfg.DBDriver)
	}
}
