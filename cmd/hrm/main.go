package main

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"

	"github.com/gosuda/hrm/internal/audit"
	"github.com/gosuda/hrm/internal/auth"
	"github.com/gosuda/hrm/internal/config"
	"github.com/gosuda/hrm/internal/hr"
	"github.com/gosuda/hrm/internal/secrets"
	"github.com/gosuda/hrm/internal/server"
	"github.com/gosuda/hrm/internal/storage"
	"github.com/gosuda/hrm/internal/store/postgres"
	redisstore "github.com/gosuda/hrm/internal/store/redis"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("startup failed")
	}
}

func run() error {
	ctx := context.Background()

	// Load configuration from environment.
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logFile := setupLogging(cfg.Log)
	defer logFile.Close()

	// Connect to PostgreSQL.
	store, err := postgres.New(ctx, cfg.Database.DSN(), int32(cfg.Database.MaxConns)) //nolint:gosec // bounds checked by config
	if err != nil {
		return err
	}
	defer store.Close()

	if cfg.Database.AutoMigrate {
		if err := store.Migrate(ctx, "up"); err != nil {
			return err
		}
	}

	// Connect to Redis.
	rdb, err := redisstore.Connect(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		return err
	}
	defer rdb.Close()

	sessions := redisstore.NewSessionStore(rdb, cfg.Session.TTL)
	pubsub := redisstore.NewPubSub(rdb)

	codec, err := secrets.NewCodecFromHex(cfg.Security.EncryptionKey)
	if err != nil {
		return err
	}

	files, err := storage.NewOS(cfg.Storage.Dir, cfg.Storage.MaxUploadBytes)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	recorder := audit.NewRecorder(store.Audit(), pubsub, reg)

	services := hr.New(hr.Deps{
		Companies: store.Companies(),
		Users:     store.Users(),
		Employees: store.Employees(),
		Documents: store.Documents(),
		Audit:     store.Audit(),
		Logins:    store.LoginLogs(),
		Stats:     store.Stats(),
		Files:     files,
		Codec:     codec,
		Recorder:  recorder,
	})

	authSvc := auth.NewService(store.Users(), sessions, store.LoginLogs(), recorder, auth.Lockout{
		MaxAttempts: cfg.Security.LockoutAttempts,
		Duration:    cfg.Security.LockoutDuration,
	})

	var webAssets fs.FS
	if cfg.Server.WebDir != "" {
		webAssets = os.DirFS(cfg.Server.WebDir)
	}

	var metrics *prometheus.Registry
	if cfg.Metrics.Enabled {
		metrics = reg
	}

	// Graceful shutdown on SIGINT / SIGTERM.
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Create HTTP server with all routes wired.
	srv := server.New(ctx, cfg, server.Deps{
		Auth:      authSvc,
		Companies: services.Companies,
		Users:     services.Users,
		Employees: services.Employees,
		Documents: services.Documents,
		Logs:      services.Logs,
		Dashboard: services.Dashboard,
		Resolver:  auth.NewResolver(sessions, store.Users()),
		Activity:  pubsub,
		Health: map[string]server.HealthCheck{
			"postgres": store.Ping,
			"redis":    func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
		},
		Registry:  metrics,
		WebAssets: webAssets,
	})

	// Start server in background goroutine.
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.Server.Addr).Msg("starting server")
		errCh <- srv.Start(ctx)
	}()

	// Block until shutdown signal or a listener failure.
	select {
	case <-ctx.Done():
	case startErr := <-errCh:
		if startErr != nil {
			return fmt.Errorf("listen: %w", startErr)
		}
	}
	log.Info().Msg("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if shutdownErr := srv.Shutdown(shutdownCtx); shutdownErr != nil {
		return shutdownErr
	}

	log.Info().Msg("stopped")
	return nil
}
