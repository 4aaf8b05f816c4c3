package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/danielhkuo/pulse/catalog"
	"github.com/danielhkuo/pulse/cliparse"
	"github.com/danielhkuo/pulse/db"
	"github.com/danielhkuo/pulse/engine"
	"github.com/danielhkuo/pulse/handlers"
	"github.com/danielhkuo/pulse/middleware"
	"github.com/danielhkuo/pulse/router"
	"github.com/danielhkuo/pulse/session"
	"github.com/danielhkuo/pulse/store"
	"github.com/danielhkuo/pulse/tally"
	"github.com/danielhkuo/pulse/telemetry"
)

const shutdownTimeout = 10 * time.Second

func main() {
	var err error
	ctx := context.Background()

	// Parse configuration
	cfg, err := cliparse.ParseFlags(os.Args[1:])
	if err != nil {
		slog.Error("Error parsing flags", "error", err)
		os.Exit(1)
	}

	// Metrics (no-op unless OTEL_ENABLED=true)
	provider, err := telemetry.NewProvider(ctx, telemetry.ConfigFromEnv())
	if err != nil {
		slog.Error("telemetry setup failed", "error", err)
		os.Exit(1)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := provider.Shutdown(shutdownCtx); err != nil {
			slog.Warn("telemetry shutdown failed", "error", err)
		}
	}()
	metrics, err := telemetry.NewInstruments(provider.Meter("pulse"))
	if err != nil {
		slog.Error("metric instruments failed", "error", err)
		os.Exit(1)
	}

	// Apply migrations, then connect
	if err := db.Migrate(ctx, cfg.DatabaseType, cfg.DatabaseURL); err != nil {
		slog.Error("schema migration failed", "error", err)
		os.Exit(1)
	}
	dbConn, err := db.Open(ctx, cfg.DatabaseType, cfg.DatabaseURL)
	if err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	defer dbConn.Close()
	slog.Info("Database schema ready", "type", cfg.DatabaseType)

	s := store.New(dbConn)

	// Import item definitions
	if cfg.ItemsFile != "" {
		items, err := catalog.Load(cfg.ItemsFile)
		if err != nil {
			slog.Error("loading items failed", "file", cfg.ItemsFile, "error", err)
			os.Exit(1)
		}
		if err := catalog.Import(ctx, s, items); err != nil {
			slog.Error("importing items failed", "error", err)
			os.Exit(1)
		}
	}

	// Session token storage
	var storage session.Storage = session.NewMemoryStorage(cfg.SessionTTL)
	if cfg.RedisURL != "" {
		redisStorage, err := session.NewRedisStorage(cfg.RedisURL, cfg.SessionTTL)
		if err != nil {
			slog.Error("invalid redis URL", "error", err)
			os.Exit(1)
		}
		defer redisStorage.Close()
		if err := redisStorage.Ping(ctx); err != nil {
			// Tokens fall back to process memory per request until Redis answers
			slog.Warn("redis unreachable at startup", "error", err)
		}
		storage = redisStorage
	}

	m := tally.NewMaintainer(s, metrics)
	deps := handlers.Deps{
		Store: s,
		Tally: m,
		Engine: engine.New(s, m, engine.Config{
			SubmitRetries: cfg.SubmitRetries,
			Metrics:       metrics,
		}),
		Sessions: session.NewProvider(storage, cfg.SessionSalt, cfg.SessionTTL, metrics),
	}

	// Create router
	mux := router.NewRouter(deps, cfg)

	// Create server
	server := http.Server{
		Handler: middleware.CORS(mux),
		Addr:    ":" + strconv.Itoa(cfg.Port),
	}

	// signal.Notify requires the channel to be buffered
	ctrlc := make(chan os.Signal, 1)
	signal.Notify(ctrlc, os.Interrupt, syscall.SIGTERM)
	go func() {
		// Wait for Ctrl-C signal, then let in-flight submits finish
		<-ctrlc
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Warn("graceful shutdown failed", "error", err)
			server.Close()
		}
	}()

	// Start server
	slog.Info("Listening", "port", cfg.Port)
	err = server.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server closed", "error", err)
	} else {
		slog.Info("Server closed", "error", err)
	}
	mux.Drain()
}
