package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/vanshika/bacondistance/internal/bacon"
	"github.com/vanshika/bacondistance/internal/service"
)

// DistanceQuerier is the query surface the HTTP API needs from the distance service.
type DistanceQuerier interface {
	BaconDistance(ctx context.Context, actor string) (string, error)
	Distance(ctx context.Context, from, to string) (string, error)
	Info() (service.DatasetInfo, error)
	Reference() string
}

// APIHandlers exposes HTTP handlers for the REST API.
type APIHandlers struct {
	logger   *slog.Logger
	service  DistanceQuerier
	validate *validator.Validate
}

// NewAPIHandlers constructs an APIHandlers instance.
func NewAPIHandlers(logger *slog.Logger, svc DistanceQuerier) *APIHandlers {
	return &APIHandlers{
		logger:   logger,
		service:  svc,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

type baconDistanceQuery struct {
	ActorName string `validate:"required,max=512"`
}

type distanceQuery struct {
	From string `validate:"required,max=512"`
	To   string `validate:"required,max=512"`
}

type baconDistanceResponse struct {
	BaconDistance string `json:"bacon_distance"`
}

type distanceResponse struct {
	From     string `json:"from"`
	To       string `json:"to"`
	Distance string `json:"distance"`
}

type datasetResponse struct {
	Reference string `json:"reference"`
	Movies    int    `json:"movies"`
	Actors    int    `json:"actors"`
	Edges     int    `json:"edges"`
	LoadedAt  string `json:"loaded_at"`
	Source    string `json:"source"`
}

type errorResponse struct {
	Message     string `json:"message"`
	Description string `json:"description,omitempty"`
}

func (h *APIHandlers) handleBaconDistance(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}

	query := baconDistanceQuery{ActorName: r.URL.Query().Get("actor_name")}
	if err := h.validate.Struct(query); err != nil {
		writeError(w, http.StatusBadRequest, validationMessage(err, map[string]string{"ActorName": "actor_name"}))
		return
	}

	distance, err := h.service.BaconDistance(r.Context(), query.ActorName)
	switch {
	case err == nil:
		respondJSON(w, http.StatusOK, baconDistanceResponse{BaconDistance: distance})
	case errors.Is(err, bacon.ErrActorNotFound):
		respondJSON(w, http.StatusNotFound, errorResponse{
			Message:     "Actor Not Found!",
			Description: err.Error(),
		})
	default:
		h.queryFailed(w, err, "actor", query.ActorName)
	}
}

func (h *APIHandlers) handleDistance(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}

	values := r.URL.Query()
	query := distanceQuery{From: values.Get("from"), To: values.Get("to")}
	if err := h.validate.Struct(query); err != nil {
		writeError(w, http.StatusBadRequest, validationMessage(err, map[string]string{"From": "from", "To": "to"}))
		return
	}

	distance, err := h.service.Distance(r.Context(), query.From, query.To)
	if err != nil {
		h.queryFailed(w, err, "from", query.From, "to", query.To)
		return
	}
	respondJSON(w, http.StatusOK, distanceResponse{From: query.From, To: query.To, Distance: distance})
}

func (h *APIHandlers) handleDataset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}

	info, err := h.service.Info()
	if err != nil {
		h.queryFailed(w, err)
		return
	}
	respondJSON(w, http.StatusOK, datasetResponse{
		Reference: h.service.Reference(),
		Movies:    info.Stats.Movies,
		Actors:    info.Stats.Actors,
		Edges:     info.Stats.Edges,
		LoadedAt:  formatTime(info.LoadedAt),
		Source:    info.Source,
	})
}

func (h *APIHandlers) queryFailed(w http.ResponseWriter, err error, attrs ...any) {
	if errors.Is(err, service.ErrDatasetNotLoaded) {
		writeError(w, http.StatusServiceUnavailable, "dataset is not loaded yet")
		return
	}
	if errors.Is(err, context.Canceled) {
		return
	}
	h.logger.Error("distance query failed", append(attrs, "error", err)...)
	writeError(w, http.StatusInternalServerError, "failed to compute distance")
}

// validationMessage renders the first failed rule against the query parameter name.
func validationMessage(err error, params map[string]string) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "invalid query"
	}
	fe := verrs[0]
	name := params[fe.Field()]
	if name == "" {
		name = strings.ToLower(fe.Field())
	}
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", name)
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", name, fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", name)
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, errorResponse{Message: msg})
}

func methodNotAllowed(w http.ResponseWriter, allowed ...string) {
	w.Header().Set("Allow", strings.Join(allowed, ", "))
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}
