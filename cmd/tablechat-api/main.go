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

	"github.com/tablechat/tablechat/internal/api"
	"github.com/tablechat/tablechat/internal/archive"
	"github.com/tablechat/tablechat/internal/config"
	"github.com/tablechat/tablechat/internal/intent"
	"github.com/tablechat/tablechat/internal/observability"
	"github.com/tablechat/tablechat/internal/session"
)

func main() {
	cfg, err := config.LoadFromEnv("tablechat-api")
	if err != nil {
		slog.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := observability.NewLogger(observability.LoggerOptions{
		Service: cfg.Service.Name,
		Profile: string(cfg.Profile),
		Level:   cfg.Observability.LogLevel,
		JSON:    cfg.Observability.LogJSON,
	}, os.Stdout)

	var resolver *intent.Resolver
	if cfg.AI.Enabled {
		capability, err := intent.NewOpenAICapability(intent.OpenAIConfig{
			BaseURL:     cfg.AI.BaseURL,
			APIKey:      cfg.AI.APIKey,
			Model:       cfg.AI.Model,
			Temperature: cfg.AI.Temperature,
			Timeout:     cfg.AI.Timeout,
		})
		if err != nil {
			logger.Error("failed to initialize language capability", slog.Any("error", err))
			os.Exit(1)
		}
		resolver = &intent.Resolver{Capability: capability, Logger: logger}
	}

	var archiver api.Archiver
	if cfg.Archive.Enabled {
		store, err := archive.New(context.Background(), archive.Config{
			Endpoint:         cfg.Archive.Endpoint,
			Region:           cfg.Archive.Region,
			Bucket:           cfg.Archive.Bucket,
			AccessKeyID:      cfg.Archive.AccessKeyID,
			SecretAccessKey:  cfg.Archive.SecretAccessKey,
			UseSSL:           cfg.Archive.UseSSL,
			Prefix:           cfg.Archive.Prefix,
			AutoCreateBucket: cfg.Archive.AutoCreateBucket,
		})
		if err != nil {
			logger.Error("failed to initialize archive store", slog.Any("error", err))
			os.Exit(1)
		}
		archiver = store
	}

	deps := api.Dependencies{
		Logger:   logger,
		Sessions: session.NewManager(),
		Resolver: resolver,
		Archive:  archiver,
		Readiness: api.CombineReadinessChecks(
			api.CheckCapabilityConfig(cfg),
			api.CheckArchiveConfig(cfg),
		),
		DependencyTimeout: time.Second,
	}

	handler := api.NewHandler(cfg, deps)
	server := &http.Server{
		Addr:         cfg.HTTP.Address,
		Handler:      handler,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("starting api server", slog.String("addr", cfg.HTTP.Address))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("api server failed", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	logger.Info("shutting down api server")
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", slog.Any("error", err))
		_ = server.Close()
		os.Exit(1)
	}
}
