package server

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/vanshika/bacondistance/internal/metrics"
)

const indexPage = "/static/index.html"

// RouterDependencies collects handler dependencies.
type RouterDependencies struct {
	Health  HealthService
	API     *APIHandlers
	Metrics *metrics.Collector
	// MetricsEnabled exposes /metrics. Requests are counted whenever Metrics is set.
	MetricsEnabled   bool
	StaticDir        string
	AllowedOrigins   []string
	AllowCredentials bool
}

// NewRouter mounts the distance API, the health probe and optionally the
// metrics endpoint and the static front end.
func NewRouter(logger *slog.Logger, deps RouterDependencies) http.Handler {
	mux := http.NewServeMux()
	handle := func(pattern string, h http.HandlerFunc) {
		mux.Handle(pattern, instrument(logger, deps.Metrics, pattern, h))
	}

	handle("/healthz", healthHandler(logger, deps.Health))
	if api := deps.API; api != nil {
		handle("/api/bacon_distance", api.handleBaconDistance)
		handle("/api/distance", api.handleDistance)
		handle("/api/dataset", api.handleDataset)
	}
	if deps.MetricsEnabled && deps.Metrics != nil {
		mux.Handle("/metrics", deps.Metrics.Handler())
	}
	if dir := deps.StaticDir; dir != "" {
		mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.Dir(dir))))
		mux.Handle("/{$}", http.RedirectHandler(indexPage, http.StatusTemporaryRedirect))
	}

	var handler http.Handler = withRequestID(mux)
	if policy := newOriginPolicy(deps.AllowedOrigins, deps.AllowCredentials); policy != nil {
		handler = policy.wrap(handler)
	}
	return handler
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(data)
}
