package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tablechat/tablechat/internal/config"
	"github.com/tablechat/tablechat/internal/dataset"
	"github.com/tablechat/tablechat/internal/intent"
	"github.com/tablechat/tablechat/internal/observability"
	"github.com/tablechat/tablechat/internal/session"
)

type ReadinessCheck func(ctx context.Context) error

// Archiver mirrors the archive store surface so uploads can snapshot
// to object storage without the handler knowing about minio.
type Archiver interface {
	SaveRaw(ctx context.Context, sessionID, fileName string, data []byte) error
	SaveParquet(ctx context.Context, sessionID string, ds dataset.Dataset) error
}

type Dependencies struct {
	Logger            *slog.Logger
	Sessions          *session.Manager
	Resolver          *intent.Resolver
	Archive           Archiver
	Readiness         ReadinessCheck
	DependencyTimeout time.Duration
}

func NewHandler(cfg config.Config, deps Dependencies) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /v1/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "service": cfg.Service.Name})
	})

	mux.HandleFunc("GET /v1/ready", func(w http.ResponseWriter, r *http.Request) {
		if deps.Readiness == nil {
			writeJSON(w, http.StatusOK, map[string]any{"status": "ready"})
			return
		}
		timeout := deps.DependencyTimeout
		if timeout <= 0 {
			timeout = 2 * time.Second
		}
		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()
		if err := deps.Readiness(ctx); err != nil {
			writeError(r.Context(), w, http.StatusServiceUnavailable, "NOT_READY", err.Error(), true, nil)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"status": "ready"})
	})

	mux.Handle("GET /v1/metrics", promhttp.Handler())

	mux.HandleFunc("POST /v1/sessions", func(w http.ResponseWriter, r *http.Request) {
		handleCreateSession(deps, w, r)
	})
	mux.HandleFunc("DELETE /v1/sessions/{session}", func(w http.ResponseWriter, r *http.Request) {
		handleDropSession(deps, w, r)
	})
	mux.HandleFunc("POST /v1/sessions/{session}/files", func(w http.ResponseWriter, r *http.Request) {
		handleUpload(cfg, deps, w, r)
	})
	mux.HandleFunc("GET /v1/sessions/{session}/datasets", func(w http.ResponseWriter, r *http.Request) {
		handleListDatasets(deps, w, r)
	})
	mux.HandleFunc("DELETE /v1/sessions/{session}/datasets", func(w http.ResponseWriter, r *http.Request) {
		handleClearDatasets(deps, w, r)
	})
	mux.HandleFunc("POST /v1/sessions/{session}/ask", func(w http.ResponseWriter, r *http.Request) {
		handleAsk(deps, w, r)
	})
	mux.HandleFunc("GET /v1/sessions/{session}/datasets/{dataset}/export.parquet", func(w http.ResponseWriter, r *http.Request) {
		handleExport(deps, w, r)
	})

	middlewares := []func(http.Handler) http.Handler{
		observability.TraceMiddleware,
		observability.MetricsMiddleware,
	}
	if deps.Logger != nil {
		middlewares = append(middlewares, observability.LoggingMiddleware(deps.Logger))
	}
	return chain(mux, middlewares...)
}

func CheckCapabilityConfig(cfg config.Config) ReadinessCheck {
	return func(_ context.Context) error {
		if !cfg.AI.Enabled {
			return nil
		}
		if cfg.AI.BaseURL == "" {
			return errors.New("capability base url is not configured")
		}
		if cfg.AI.APIKey == "" {
			return errors.New("capability api key is not configured")
		}
		return nil
	}
}

func CheckArchiveConfig(cfg config.Config) ReadinessCheck {
	return func(_ context.Context) error {
		if !cfg.Archive.Enabled {
			return nil
		}
		if cfg.Archive.Endpoint == "" {
			return errors.New("archive endpoint is not configured")
		}
		if cfg.Archive.Bucket == "" {
			return errors.New("archive bucket is not configured")
		}
		return nil
	}
}

func CombineReadinessChecks(checks ...ReadinessCheck) ReadinessCheck {
	filtered := make([]ReadinessCheck, 0, len(checks))
	for _, check := range checks {
		if check != nil {
			filtered = append(filtered, check)
		}
	}
	return func(ctx context.Context) error {
		for _, check := range filtered {
			if err := check(ctx); err != nil {
				return err
			}
		}
		return nil
	}
}

func chain(base http.Handler, middlewares ...func(http.Handler) http.Handler) http.Handler {
	wrapped := base
	for i := len(middlewares) - 1; i >= 0; i-- {
		wrapped = middlewares[i](wrapped)
	}
	return wrapped
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(ctx context.Context, w http.ResponseWriter, status int, code, message string, retryable bool, extra map[string]any) {
	writeJSON(w, status, map[string]any{
		"error_code": code,
		"message":    message,
		"retryable":  retryable,
		"context":    extra,
		"trace_id":   observability.TraceIDFromContext(ctx),
	})
}
