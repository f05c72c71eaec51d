package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/msomdec/expense-tracker/internal/app"
	"github.com/msomdec/expense-tracker/internal/config"
	"github.com/msomdec/expense-tracker/internal/handler"
	"github.com/msomdec/expense-tracker/internal/service"
)

func main() {
	configPath := flag.String("config", "", "Path to a YAML config file")
	flag.Parse()

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("failed to load .env", "error", err)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if err := cfg.ValidateServer(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}
	level, _ := cfg.LogLevel()

	logOpts := &slog.HandlerOptions{Level: level}
	logger := slog.New(slog.NewMultiHandler(
		slog.NewTextHandler(os.Stdout, logOpts),
		slog.NewJSONHandler(os.Stderr, logOpts),
	))
	slog.SetDefault(logger)

	a, err := app.Open(context.Background(), cfg)
	if err != nil {
		slog.Error("failed to open profile", "error", err)
		os.Exit(1)
	}
	defer a.Close()
	slog.Info("profile opened", "driver", cfg.Storage.Driver, "shared_scope", cfg.Transactions.SharedScope)

	srv := &http.Server{
		Addr:              cfg.HTTPAddress(),
		Handler:           newRouter(a, cfg),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20, // 1MB
	}

	// Graceful shutdown on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		slog.Info("server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

func newRouter(a *app.App, cfg *config.Config) http.Handler {
	tokens := service.NewTokenIssuer(cfg.Auth.JWTSecret, 0)

	mux := http.NewServeMux()
	handler.RegisterRoutes(mux, a.Auth, a.Ledger, tokens, cfg.Server.CookieSecure)
	return handler.SecurityHeaders(mux)
}
