package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/JonMunkholm/shipbatch/internal/config"
	"github.com/JonMunkholm/shipbatch/internal/core"
	"github.com/JonMunkholm/shipbatch/internal/core/carrier"
	"github.com/JonMunkholm/shipbatch/internal/logging"
	"github.com/JonMunkholm/shipbatch/internal/store"
	"github.com/JonMunkholm/shipbatch/internal/web"
	"github.com/joho/godotenv"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
	logger.Info("configuration loaded", "config", cfg.String())

	ctx := context.Background()
	st, err := store.Open(ctx, store.Config{
		Backend:         cfg.Store.Backend,
		RedisURL:        cfg.Store.RedisURL,
		RedisPrefix:     cfg.Store.RedisPrefix,
		DatabaseURL:     cfg.Store.DatabaseURL,
		MaxConns:        int32(cfg.Store.MaxConns),
		MinConns:        int32(cfg.Store.MinConns),
		MaxConnLifetime: cfg.Store.MaxConnLifetime,
		MaxConnIdleTime: cfg.Store.MaxConnIdleTime,
	})
	if err != nil {
		logger.Error("failed to open record store", "backend", cfg.Store.Backend, "error", err)
		os.Exit(1)
	}
	defer st.Close()
	logger.Info("record store ready", "backend", cfg.Store.Backend)

	env, err := carrier.NewEnv(cfg.Carrier.HomeCountry, cfg.Carrier.CountryProfilesFile)
	if err != nil {
		logger.Error("failed to load carrier profiles", "error", err)
		os.Exit(1)
	}

	service, err := core.NewService(env, st, core.ServiceConfig{
		MaxFileSize:     cfg.Import.MaxFileSize,
		ReadTimeout:     cfg.Import.ReadTimeout,
		GateWait:        cfg.Import.GateWait,
		SessionTTL:      cfg.Import.SessionTTL,
		PreviewRows:     cfg.Import.PreviewRows,
		MaxErrorSamples: cfg.Import.MaxErrorSamples,
	}, core.WithServiceLogger(logger))
	if err != nil {
		logger.Error("failed to create service", "error", err)
		os.Exit(1)
	}
	logger.Info("field catalog loaded",
		"fields", env.Catalog.Len(),
		"countries", len(env.Profiles.Profiles()),
		"home_country", env.HomeCountry,
	)

	server := web.NewServer(service, cfg)

	jobCtx, cancelJobs := context.WithCancel(context.Background())
	go service.StartSessionSweeper(jobCtx, cfg.Import.SweepInterval)

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		logger.Info("shutting down...")
		cancelJobs()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if status := service.GateStatus(); status.Busy {
			logger.Info("waiting for open import", "holder", status.Holder)
			if err := service.WaitForImports(shutdownCtx); err != nil {
				logger.Warn("import still open at shutdown", "error", err)
			}
		}

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown error", "error", err)
		}
	}()

	if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}
