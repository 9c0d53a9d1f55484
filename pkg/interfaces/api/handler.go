// Package api exposes batch planning over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/vsinha/batchplan/pkg/application/dto"
	"github.com/vsinha/batchplan/pkg/application/services/planning"
	"github.com/vsinha/batchplan/pkg/domain/entities"
	"github.com/vsinha/batchplan/pkg/infrastructure/events"
)

// maxBodyBytes caps plan request bodies
const maxBodyBytes = 1 << 20

// Planner is the planning surface the handler depends on
type Planner interface {
	Plan(ctx context.Context, req planning.PlanningRequest) (*dto.PlanningResult, error)
	ListVariants(ctx context.Context, code entities.ProductCode, window planning.SalesWindow) ([]dto.VariantRecommendation, error)
}

// ErrorResponse is the JSON body of every failed request
type ErrorResponse struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
	Code    int    `json:"code"`
}

// PlanRequest is the JSON body of POST /api/plans
type PlanRequest struct {
	Semiproduct        string             `json:"semiproduct"`
	Mode               dto.ControlMode    `json:"mode"`
	Value              float64            `json:"value"`
	Fixed              map[string]float64 `json:"fixed,omitempty"`
	From               string             `json:"from,omitempty"`
	To                 string             `json:"to,omitempty"`
	BalanceLowVelocity *bool              `json:"balance_low_velocity,omitempty"`
}

// VariantsResponse is the body of GET /api/semiproducts/{code}/variants
type VariantsResponse struct {
	Semiproduct string                      `json:"semiproduct"`
	Variants    []dto.VariantRecommendation `json:"variants"`
}

// HistoryResponse is the body of GET /api/semiproducts/{code}/plans
type HistoryResponse struct {
	Semiproduct string         `json:"semiproduct"`
	Events      []HistoryEntry `json:"events"`
}

type HistoryEntry struct {
	Type      string    `json:"type"`
	Version   int       `json:"version"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
}

// Handler serves the planning API
type Handler struct {
	planner Planner
	history events.EventStore
	logger  *slog.Logger
}

// NewHandler creates a new API handler
func NewHandler(planner Planner, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{planner: planner, logger: logger}
}

// WithHistory enables the plan history route backed by store
func (h *Handler) WithHistory(store events.EventStore) *Handler {
	h.history = store
	return h
}

// Router returns the chi router with all API routes registered
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/api/health", h.Health)
	r.Post("/api/plans", h.CreatePlan)
	r.Get("/api/semiproducts/{code}/variants", h.ListVariants)
	if h.history != nil {
		r.Get("/api/semiproducts/{code}/plans", h.ListPlans)
	}

	return r
}

// Health reports that the service is up
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// CreatePlan runs one planning request. Infeasible fixed allocations are a
// normal outcome and come back as 200 with success=false.
func (h *Handler) CreatePlan(w http.ResponseWriter, r *http.Request) {
	var body PlanRequest
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&body); err != nil {
		h.writeError(w, "invalid request body: "+err.Error(), nil, http.StatusBadRequest)
		return
	}

	req, err := body.toPlanningRequest()
	if err != nil {
		h.writeError(w, err.Error(), nil, http.StatusBadRequest)
		return
	}
	if err := req.Validate(); err != nil {
		h.writeError(w, err.Error(), nil, http.StatusBadRequest)
		return
	}

	result, err := h.planner.Plan(r.Context(), req)
	if err != nil {
		h.writePlanningError(w, err)
		return
	}

	h.logger.Info("plan created",
		"run_id", result.RunID,
		"semiproduct", req.SemiproductCode,
		"mode", req.Mode.String(),
		"success", result.Success)
	h.writeJSON(w, http.StatusOK, result)
}

// ListVariants returns the consuming variants of a semiproduct with their velocity
func (h *Handler) ListVariants(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	window, err := planning.ParseSalesWindow(r.URL.Query().Get("from"), r.URL.Query().Get("to"))
	if err != nil {
		h.writeError(w, err.Error(), nil, http.StatusBadRequest)
		return
	}

	variants, err := h.planner.ListVariants(r.Context(), entities.ProductCode(code), window)
	if err != nil {
		h.writePlanningError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, VariantsResponse{Semiproduct: code, Variants: variants})
}

// ListPlans returns the recorded plan runs of a semiproduct, oldest first.
// The since query parameter skips events below that version.
func (h *Handler) ListPlans(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	since := 1
	if raw := r.URL.Query().Get("since"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 {
			h.writeError(w, "since must be a positive integer", nil, http.StatusBadRequest)
			return
		}
		since = v
	}

	recorded, err := h.history.ReadEvents(code, since)
	if err != nil {
		h.logger.Error("failed to read plan history", "semiproduct", code, "error", err)
		h.writeError(w, "failed to read plan history", nil, http.StatusInternalServerError)
		return
	}

	entries := make([]HistoryEntry, 0, len(recorded))
	for _, event := range recorded {
		entries = append(entries, HistoryEntry{
			Type:      event.Type(),
			Version:   event.Version(),
			Timestamp: event.Timestamp(),
			Data:      event.Data(),
		})
	}
	h.writeJSON(w, http.StatusOK, HistoryResponse{Semiproduct: code, Events: entries})
}

func (b PlanRequest) toPlanningRequest() (planning.PlanningRequest, error) {
	window, err := planning.ParseSalesWindow(b.From, b.To)
	if err != nil {
		return planning.PlanningRequest{}, err
	}

	fixed := make(map[entities.ProductCode]float64, len(b.Fixed))
	for code, qty := range b.Fixed {
		fixed[entities.ProductCode(code)] = qty
	}

	return planning.PlanningRequest{
		SemiproductCode:    entities.ProductCode(b.Semiproduct),
		Mode:               b.Mode,
		Value:              b.Value,
		FixedQuantities:    fixed,
		Window:             window,
		BalanceLowVelocity: b.BalanceLowVelocity,
	}, nil
}

// writePlanningError maps planning errors to HTTP statuses
func (h *Handler) writePlanningError(w http.ResponseWriter, err error) {
	var convergence *planning.ConvergenceError
	switch {
	case errors.Is(err, planning.ErrSemiproductNotFound):
		h.writeError(w, err.Error(), nil, http.StatusNotFound)
	case errors.Is(err, planning.ErrNoProductsFound):
		h.writeError(w, err.Error(), nil, http.StatusUnprocessableEntity)
	case errors.As(err, &convergence):
		h.writeError(w, err.Error(), map[string]any{
			"target_days":   convergence.TargetDays,
			"best_budget":   convergence.BestBudget,
			"best_coverage": convergence.BestCoverage,
			"iterations":    convergence.Iterations,
		}, http.StatusUnprocessableEntity)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		h.writeError(w, "planning was cancelled", nil, http.StatusServiceUnavailable)
	default:
		h.logger.Error("planning failed", "error", err)
		h.writeError(w, "planning failed", nil, http.StatusInternalServerError)
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, message string, details any, code int) {
	h.writeJSON(w, code, ErrorResponse{
		Error:   message,
		Details: details,
		Code:    code,
	})
}
