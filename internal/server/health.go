package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"
)

const probeTimeout = 2 * time.Second

// HealthService defines behaviour for readiness probes.
type HealthService interface {
	Probe(ctx context.Context) error
}

// DatasetHealthService reports healthy once a dataset is being served.
type DatasetHealthService struct {
	Dataset interface{ Ready() bool }
}

// Probe implements the HealthService interface.
func (s DatasetHealthService) Probe(ctx context.Context) error {
	if s.Dataset == nil || !s.Dataset.Ready() {
		return errors.New("dataset not loaded")
	}
	return ctx.Err()
}

type healthResponse struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// healthHandler answers 200 without a probe, and 503 "degraded" when it fails.
func healthHandler(logger *slog.Logger, probe HealthService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if probe == nil {
			respondJSON(w, http.StatusOK, healthResponse{Status: "ok"})
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), probeTimeout)
		defer cancel()
		if err := probe.Probe(ctx); err != nil {
			logger.Warn("health probe failed", "error", err)
			respondJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "degraded", Error: err.Error()})
			return
		}
		respondJSON(w, http.StatusOK, healthResponse{Status: "ok"})
	}
}
