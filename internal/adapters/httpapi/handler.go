// Package httpapi serves the call dispatcher over HTTP.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"marinecore/internal/dispatch"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	callsPrefix    = "/api/v1/calls/"
	operationsPath = "/api/v1/operations"
	maxBodyBytes   = 1 << 20
)

// Invoker runs a named operation with JSON arguments.
type Invoker interface {
	Invoke(ctx context.Context, operation string, args json.RawMessage) (json.RawMessage, error)
}

// Handler routes the call surface, health and metrics endpoints.
type Handler struct {
	Calls   Invoker
	Logger  *slog.Logger
	Metrics http.Handler
}

// NewHandler returns a handler over calls. When gatherer is non-nil its
// metrics are exposed on /metrics.
func NewHandler(calls Invoker, logger *slog.Logger, gatherer prometheus.Gatherer) *Handler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	h := &Handler{Calls: calls, Logger: logger}
	if gatherer != nil {
		h.Metrics = promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
	}
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimSuffix(r.URL.Path, "/")
	switch {
	case path == "/healthz":
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	case path == "/metrics":
		if h.Metrics == nil {
			http.NotFound(w, r)
			return
		}
		h.Metrics.ServeHTTP(w, r)
	case path == operationsPath:
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"operations": dispatch.Operations()})
	case strings.HasPrefix(path, callsPrefix):
		h.handleCall(w, r, strings.TrimPrefix(path, callsPrefix))
	default:
		http.NotFound(w, r)
	}
}

func (h *Handler) handleCall(w http.ResponseWriter, r *http.Request, operation string) {
	if _, ok := dispatch.Lookup(operation); !ok {
		writeError(w, http.StatusNotFound, "unknown operation")
		return
	}
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		writeError(w, http.StatusBadRequest, "read request body")
		return
	}
	out, err := h.Calls.Invoke(r.Context(), operation, body)
	if err != nil {
		if errors.Is(err, dispatch.ErrUnknownOperation) {
			writeError(w, http.StatusNotFound, "unknown operation")
			return
		}
		h.Logger.ErrorContext(r.Context(), "call failed", "operation", operation, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(out)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": message})
}
