package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"pharmapos/m/internal/api"
	"pharmapos/m/internal/checkout"
	"pharmapos/m/internal/config"
	"pharmapos/m/internal/database"
	"pharmapos/m/internal/migrations"
	"pharmapos/m/internal/reports"
	"pharmapos/m/internal/seed"
	"pharmapos/m/internal/store"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}
	logger := config.NewLogger(cfg)
	slog.SetDefault(logger)

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("pharmacy pos stopped", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	db, err := database.Connect(ctx, cfg.DatabaseDSN)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := migrations.Run(ctx, db); err != nil {
		return err
	}
	if _, err := seed.LoadDrugs(ctx, db, cfg.SeedPath, logger); err != nil {
		return err
	}

	st := store.New(db)
	created, err := st.EnsureUser(ctx, cfg.AdminUsername, cfg.AdminPassword, api.RoleAdmin, cfg.AdminFullName)
	if err != nil {
		return err
	}
	if created {
		logger.Warn("created default admin account, change its password", slog.String("username", cfg.AdminUsername))
	}

	handler := api.New(st, checkout.NewRegistry(st, logger, checkout.WithIdleTimeout(cfg.CartIdle)), reports.NewService(st, logger), api.Options{
		Secret:           cfg.Secret,
		TokenTTL:         cfg.TokenTTL,
		ExpiryWindowDays: cfg.ExpiryWindowDays,
		Logger:           logger,
	})

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           handler.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("pharmacy pos server starting", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
