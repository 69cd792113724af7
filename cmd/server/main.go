package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"

	"github.com/JeffyMesquita/habit-tracker-api/internal/auth"
	"github.com/JeffyMesquita/habit-tracker-api/internal/config"
	"github.com/JeffyMesquita/habit-tracker-api/internal/db"
	"github.com/JeffyMesquita/habit-tracker-api/internal/events"
	api "github.com/JeffyMesquita/habit-tracker-api/internal/http"
	"github.com/JeffyMesquita/habit-tracker-api/internal/logging"
	"github.com/JeffyMesquita/habit-tracker-api/internal/metrics"
	"github.com/JeffyMesquita/habit-tracker-api/internal/repo"
	"github.com/JeffyMesquita/habit-tracker-api/internal/repo/sqlite"
	"github.com/JeffyMesquita/habit-tracker-api/internal/service"
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}
	logger, err := logging.New(logging.Config{Level: cfg.LogLevel, File: cfg.LogFile})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}
	if err := run(cfg, logger); err != nil {
		logger.Fatal("server stopped", "err", err)
	}
}

func run(cfg config.Config, logger *log.Logger) error {
	ctx := context.Background()

	store, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	var publisher events.Publisher = events.Nop{}
	if cfg.NATSURL != "" {
		nc, err := events.Connect(cfg.NATSURL)
		if err != nil {
			return err
		}
		defer nc.Close()
		publisher = nc
		logger.Info("publishing events", "nats", cfg.NATSURL)
	}

	m := metrics.New()
	authManager := auth.NewManager(cfg.JWTSecret)
	svc := service.New(store, authManager, publisher, m, logger)

	handler := &api.API{
		Service: svc,
		Auth:    authManager,
		Metrics: m,
		Log:     logger,
		Origins: cfg.AllowedOrigins(),
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("server listening", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-serveErr:
		return err
	case sig := <-stop:
		logger.Info("shutting down", "signal", sig.String())
	}

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctxShutdown); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return nil
}

// openStore picks Postgres for postgres:// URLs and SQLite for anything else.
func openStore(ctx context.Context, cfg config.Config, logger *log.Logger) (service.Store, func(), error) {
	if !db.IsPostgresURL(cfg.DatabaseURL) {
		store, err := sqlite.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("using sqlite store", "path", cfg.DatabaseURL)
		return store, func() { _ = store.Close() }, nil
	}

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("connect db: %w", err)
	}
	if cfg.Migrations {
		if err := db.RunMigrations(ctx, pool, logger); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("migrate: %w", err)
		}
	}
	logger.Info("using postgres store")
	return repo.New(pool), pool.Close, nil
}
