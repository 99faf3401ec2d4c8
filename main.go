package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/msomdec/mtaabiz/internal/config"
	"github.com/msomdec/mtaabiz/internal/domain"
	"github.com/msomdec/mtaabiz/internal/handler"
	"github.com/msomdec/mtaabiz/internal/logging"
	"github.com/msomdec/mtaabiz/internal/metrics"
	"github.com/msomdec/mtaabiz/internal/repository/redis"
	"github.com/msomdec/mtaabiz/internal/repository/sqlite"
	"github.com/msomdec/mtaabiz/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "invalid configuration:", err)
		os.Exit(1)
	}
	logging.Setup(cfg.LogLevel, cfg.LogFormat)

	if len(os.Args) > 1 && os.Args[1] == "set-pro" {
		if err := runSetPro(context.Background(), cfg, os.Args[2:], os.Stdout); err != nil {
			slog.Error("set-pro failed", "error", err)
			os.Exit(1)
		}
		return
	}

	if err := serve(cfg); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}

func openDatabase(ctx context.Context, path string) (*sqlite.DB, error) {
	db, err := sqlite.New(path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return db, nil
}

func serve(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := openDatabase(ctx, cfg.DatabasePath)
	if err != nil {
		return err
	}
	defer db.Close()
	slog.Info("database migrations applied", "path", cfg.DatabasePath)

	var tokens domain.TokenRepository = db.Tokens()
	if cfg.RedisURL != "" {
		client, err := redis.Connect(ctx, cfg.RedisURL)
		if err != nil {
			return err
		}
		defer client.Close()
		tokens = redis.NewTokenRepository(client, cfg.TokenTTL)
		slog.Info("using redis token store")
	}

	m := metrics.New()
	gate := service.NewEntitlementGate(cfg.FreeInvoiceLimit, m)
	profileService := service.NewProfileService(db, gate)
	authService := service.NewAuthService(db, tokens, profileService, cfg.JWTSecret, cfg.BcryptCost, cfg.TokenTTL)
	invoiceService := service.NewInvoiceService(db, gate)
	templateService := service.NewTemplateService(db.Templates())

	// Seed shared message templates (idempotent).
	added, err := templateService.SeedShared(ctx)
	if err != nil {
		return fmt.Errorf("seed shared templates: %w", err)
	}
	slog.Info("shared templates seeded", "added", added)

	authLimiter := service.NewKeyedLimiter(cfg.AuthRatePerMin, cfg.AuthRateBurst)
	defer authLimiter.Close()

	srv := &http.Server{
		Addr: ":" + cfg.Port,
		Handler: handler.NewServer(slog.Default(), handler.Dependencies{
			Auth:        authService,
			Profiles:    profileService,
			Invoices:    invoiceService,
			Templates:   templateService,
			Metrics:     m,
			AuthLimiter: authLimiter,
		}),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20, // 1MB
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	slog.Info("server stopped")
	return nil
}
