package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ric-center/planner/internal/api"
	"github.com/ric-center/planner/internal/auth"
	"github.com/ric-center/planner/internal/backend"
	"github.com/ric-center/planner/internal/cleanup"
	"github.com/ric-center/planner/internal/config"
	"github.com/ric-center/planner/internal/datasource"
	"github.com/ric-center/planner/internal/fixtures"
	"github.com/ric-center/planner/internal/planner"
	"github.com/ric-center/planner/internal/session"
	"github.com/ric-center/planner/internal/store"
	"github.com/ric-center/planner/internal/wizard"
)

func main() {
	// Setup structured logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	slog.Info("starting planner",
		"mode", cfg.Mode,
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
	)

	// Create context for initialization
	initCtx, initCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer initCancel()

	// The store backs local mode data and the persisted session record;
	// backend mode keeps its data upstream and uses only the kv side.
	st, err := store.Open(cfg.Store.Path)
	if err != nil {
		slog.Error("failed to open store", "path", cfg.Store.Path, "error", err)
		os.Exit(1)
	}
	defer st.Close()

	var (
		ds datasource.DataSource
		gw auth.Gateway
	)
	switch cfg.Mode {
	case config.ModeBackend:
		client := backend.NewClient(cfg.Upstream.BaseURL, backend.WithTimeout(cfg.Upstream.Timeout))
		ds = datasource.NewBackend(client)
		gw = auth.NewBackendGateway(client)
		slog.Info("using upstream data source", "base_url", cfg.Upstream.BaseURL)

	case config.ModeLocal:
		seed, err := fixtures.Load(cfg.Store.FixturesDir)
		if err != nil {
			slog.Error("failed to load fixtures", "dir", cfg.Store.FixturesDir, "error", err)
			os.Exit(1)
		}
		st.SetFixtures(seed)
		local := datasource.NewLocal(st)
		ds = local
		gw = auth.NewLocalGateway(local)
		slog.Info("using local data source", "path", cfg.Store.Path)
	}

	// Domain manager and auth
	manager := planner.NewManager(ds)
	authManager := auth.NewManager(gw, st)
	authManager.Hydrate(initCtx)

	// Session store: redis when configured, in-memory otherwise
	var sessions session.Store
	if cfg.Redis.Address != "" {
		sessions, err = session.NewRedisStore(initCtx, cfg.Redis.Address, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			slog.Error("failed to connect to redis", "error", err)
			os.Exit(1)
		}
		slog.Info("using redis session store", "address", cfg.Redis.Address)
	} else {
		sessions = session.NewMemoryStore()
	}
	defer sessions.Close()

	// Wizard sessions
	wizards := wizard.NewRegistry(cfg.Session.WizardTTL)

	// Background janitor
	janitor := cleanup.NewJanitor(wizards, sessions, cfg.Janitor.Interval)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	janitor.Start(ctx)

	// Setup HTTP server
	server := api.NewServer(cfg.Server, manager, authManager, sessions, cfg.Session.TTL, wizards)
	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      server.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		slog.Info("HTTP server starting", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down gracefully...")

	// Cancel context to stop background workers
	cancel()

	// Shutdown HTTP server with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	slog.Info("planner stopped")
}
