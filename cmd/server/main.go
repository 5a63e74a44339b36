/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the tuition payment plan server.
  Handles configuration, dependency wiring, and graceful shutdown.

STARTUP SEQUENCE:
  1. Parse command-line flags and load configuration
  2. Open the SQL store (runs migrations)
  3. Select the program catalog (sql, memory or remote), optionally cached
  4. Select the export sink (none, file or s3)
  5. Seed the demo catalog if enabled
  6. Start the consistency auditor
  7. Configure HTTP router and serve with graceful shutdown

COMMAND-LINE FLAGS:
  -config  Optional config file (yaml, json or toml)
  -port    HTTP server port, overrides http.port
  -db      Database DSN, overrides db.dsn
           Use ":memory:" for an in-memory SQLite database

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop the auditor
  2. Stop accepting new connections
  3. Wait for active requests to complete (30s timeout)
  4. Close cache and database connections

EXAMPLES:
  # Run with a file database and demo data
  TUITION_SEED_ENABLED=true ./server -db="./data/tuition.db"

  # Serve a remote catalog through redis, archiving to S3
  TUITION_CATALOG_SOURCE=remote TUITION_CATALOG_REMOTE_URL=https://catalog.example.edu \
  TUITION_CACHE_REDIS_ADDR=localhost:6379 \
  TUITION_EXPORT_SINK=s3 TUITION_EXPORT_S3_BUCKET=plans ./server

ENVIRONMENT:
  See config/config.go. Every key can be set as TUITION_<SECTION>_<KEY>.

SEE ALSO:
  - api/server.go: Router configuration
  - api/handlers.go: HTTP handlers
  - store/sqlstore/sqlstore.go: Database implementation
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/warp/tuition-engine/api"
	"github.com/warp/tuition-engine/config"
	"github.com/warp/tuition-engine/export"
	"github.com/warp/tuition-engine/factory"
	"github.com/warp/tuition-engine/metrics"
	"github.com/warp/tuition-engine/store/cache"
	"github.com/warp/tuition-engine/store/remote"
	"github.com/warp/tuition-engine/store/sqlstore"
	"github.com/warp/tuition-engine/tuition"
	"github.com/warp/tuition-engine/tuition/store"
)

func main() {
	// Flags
	configPath := flag.String("config", "", "Config file path")
	port := flag.Int("port", 0, "HTTP server port (overrides config)")
	dsn := flag.String("db", "", "Database DSN (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	if *port != 0 {
		cfg.HTTP.Port = *port
	}
	if *dsn != "" {
		cfg.DB.DSN = *dsn
	}

	logger := cfg.Log.NewLogger(os.Stderr)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("Server failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx := context.Background()
	currency := tuition.Currency(cfg.Plan.Currency)
	programs := factory.NewProgramFactory(currency)

	// Initialize store
	db, err := sqlstore.New(cfg.DB.Driver, cfg.DB.DSN)
	if err != nil {
		return errors.Wrap(err, "initialize database")
	}
	defer db.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	catalog, closeCatalog, err := newCatalog(ctx, cfg, db, programs, m, logger)
	if err != nil {
		return err
	}
	defer closeCatalog()

	sink, err := newSink(ctx, cfg.Export)
	if err != nil {
		return err
	}

	if cfg.Seed.Enabled {
		// only the sql catalog is both writable and persistent
		if cfg.Catalog.Source == "sql" {
			res, err := api.LoadDemoCatalog(ctx, programs, db, db)
			if err != nil {
				return errors.Wrap(err, "seed demo catalog")
			}
			logger.Info("Demo catalog loaded", "programs", res.Programs, "students", res.Students)
		} else {
			logger.Warn("Seeding skipped", "source", cfg.Catalog.Source)
		}
	}

	generator := tuition.NewGenerator(tuition.WithTailPadDays(cfg.Plan.TailPadDays))

	auditor := api.NewCatalogAuditor(catalog, db)
	auditor.Generator = generator
	auditor.Metrics = m
	auditor.Logger = logger
	auditor.Interval = cfg.Audit.Interval
	auditor.Enabled = cfg.Audit.Enabled

	handler := api.NewHandler(api.Deps{
		Catalog:   catalog,
		Students:  db,
		Receipts:  db,
		Audits:    db,
		Generator: generator,
		Export:    export.Options{Delimiter: cfg.Export.DelimiterRune(), BOM: cfg.Export.BOM},
		Sink:      sink,
		Auditor:   auditor,
		Metrics:   m,
		Logger:    logger,
		Currency:  currency,
		Health:    db.Ping,
	})

	// Create router
	router := api.NewRouter(handler, cfg.HTTP.AllowedOrigins...)

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 75 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	auditor.Start()

	// Start server in goroutine
	serveErr := make(chan error, 1)
	go func() {
		logger.Info("Server starting",
			"addr", server.Addr,
			"env", cfg.Env,
			"catalog", cfg.Catalog.Source,
			"sink", cfg.Export.Sink,
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serveErr <- err
		}
		close(serveErr)
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
	case err := <-serveErr:
		auditor.Stop()
		return err
	}

	logger.Info("Shutting down server...")
	auditor.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "server forced to shutdown")
	}

	logger.Info("Server stopped")
	return nil
}

// newCatalog selects the program source and wraps it in the redis cache
// when one is configured.
func newCatalog(
	ctx context.Context,
	cfg *config.Config,
	db *sqlstore.Store,
	programs *factory.ProgramFactory,
	m *metrics.Metrics,
	logger *slog.Logger,
) (tuition.ProgramCatalog, func(), error) {
	var catalog tuition.ProgramCatalog
	closeFn := func() {}

	switch cfg.Catalog.Source {
	case "sql":
		catalog = db
	case "memory":
		mem := store.NewMemory()
		if _, err := api.LoadDemoCatalog(ctx, programs, mem, nil); err != nil {
			return nil, closeFn, errors.Wrap(err, "load static catalog")
		}
		catalog = mem
	case "remote":
		catalog = remote.New(cfg.Catalog.RemoteURL,
			remote.WithTimeout(cfg.Catalog.Timeout),
			remote.WithCurrency(programs.DefaultCurrency),
		)
	default:
		return nil, closeFn, errors.Errorf("unknown catalog source %q", cfg.Catalog.Source)
	}

	if cfg.Cache.RedisAddr == "" {
		return catalog, closeFn, nil
	}

	rc := cache.NewRedisCache(cfg.Cache.RedisAddr)
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := rc.Ping(pingCtx); err != nil {
		// the cache falls through to the catalog on every error
		logger.Warn("Redis unreachable, catalog lookups will bypass the cache", "addr", cfg.Cache.RedisAddr, "error", err)
	}
	closeFn = func() { rc.Close() }

	return cache.NewCatalog(catalog, rc,
		cache.WithTTL(cfg.Cache.TTL),
		cache.WithMetrics(m),
		cache.WithLogger(logger),
	), closeFn, nil
}

func newSink(ctx context.Context, cfg config.ExportConfig) (export.Sink, error) {
	switch cfg.Sink {
	case "", "none":
		return nil, nil
	case "file":
		sink, err := export.NewFileSink(cfg.Dir)
		return sink, errors.Wrap(err, "file sink")
	case "s3":
		sink, err := export.NewS3Sink(ctx, export.S3Config{
			Region:  cfg.S3Region,
			Profile: cfg.S3Profile,
			Bucket:  cfg.S3Bucket,
			Prefix:  cfg.S3Prefix,
		})
		return sink, errors.Wrap(err, "s3 sink")
	default:
		return nil, errors.Errorf("unknown export sink %q", cfg.Sink)
	}
}
