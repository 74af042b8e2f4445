package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/playperu/hooplink/internal/config"
	"github.com/playperu/hooplink/internal/database"
	"github.com/playperu/hooplink/internal/handler/health"
	"github.com/playperu/hooplink/internal/migrations"
	"github.com/playperu/hooplink/internal/roster"
	"github.com/playperu/hooplink/internal/scheduler"
	"github.com/playperu/hooplink/internal/server"
	"github.com/playperu/hooplink/internal/store"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, stdout io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))

	// --- SQLite ---
	if cfg.DBPath != database.MemoryPath {
		if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
			return fmt.Errorf("creating data dir: %w", err)
		}
	}
	db, err := database.Open(ctx, cfg.DBPath)
	if err != nil {
		return fmt.Errorf("connecting to sqlite: %w", err)
	}
	defer db.Close()

	if err := migrations.Run(db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	version, _ := migrations.Version(db)
	logger.Info("connected to sqlite", "path", cfg.DBPath, "schema_version", version)

	docs := store.NewDocStore(db)
	checks := map[string]health.Checker{
		"sqlite": health.CheckerFunc(docs.Ping),
	}

	// --- Roster blobs ---
	var blobs roster.Blobs
	switch cfg.BlobBackend {
	case config.BackendRedis:
		rdb, err := store.OpenRedis(ctx, cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("connecting to redis: %w", err)
		}
		defer rdb.Close()
		logger.Info("connected to redis", "prefix", cfg.RedisKeyPrefix)
		blobs = store.NewRedisBlobs(rdb, cfg.RedisKeyPrefix)
		checks["redis"] = redisChecker{rdb}
	case config.BackendMemory:
		logger.Warn("roster blobs kept in memory; games are lost on restart")
		blobs = roster.NewMemoryBlobs()
	default:
		blobs = docs
	}

	rm := roster.New(
		roster.NewBlobRepository(blobs, logger),
		roster.WithLogger(logger),
	)

	// --- Housekeeping ---
	sched, err := scheduler.New(cfg.SessionPurgeSchedule, docs, logger)
	if err != nil {
		return err
	}
	sched.Start()
	defer sched.Stop()

	// --- HTTP Server ---
	srv := server.New(cfg.HTTPAddr, logger, server.Deps{
		Roster:                rm,
		Sessions:              docs,
		SessionTTL:            cfg.SessionTTL,
		OrganizerPasscodeHash: cfg.OrganizerPasscodeHash,
		SPADir:                cfg.SPADir,
	}, func(r chi.Router) {
		r.Mount("/healthz", health.NewHandler(logger, checks).Routes())
	})

	// --- Run ---
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("starting http server", "addr", cfg.HTTPAddr, "blob_backend", cfg.BlobBackend)
		return srv.Run(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down http server")
		return srv.Shutdown(context.Background())
	})

	return g.Wait()
}

// redisChecker adapts *redis.Client to health.Checker.
type redisChecker struct{ client *redis.Client }

func (r redisChecker) Check(ctx context.Context) error { return r.client.Ping(ctx).Err() }
