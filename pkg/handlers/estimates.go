package handlers

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/estimateai/plancost-engine/pkg/apperrors"
	"github.com/estimateai/plancost-engine/pkg/services"
)

// EstimatesHandler handles estimate computation and retrieval requests.
type EstimatesHandler struct {
	estimateService *services.EstimateService
	logger          *zap.Logger
}

// NewEstimatesHandler creates a new estimates handler.
func NewEstimatesHandler(estimateService *services.EstimateService, logger *zap.Logger) *EstimatesHandler {
	return &EstimatesHandler{
		estimateService: estimateService,
		logger:          logger,
	}
}

// RegisterRoutes registers the estimates handler's routes on the given mux.
func (h *EstimatesHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/projects/{pid}/estimate", h.Compute)
	mux.HandleFunc("GET /api/projects/{pid}/estimate", h.GetLatest)
}

// Compute handles POST /api/projects/{pid}/estimate
// Prices the project from its current selections and measurements.
func (h *EstimatesHandler) Compute(w http.ResponseWriter, r *http.Request) {
	projectID, ok := ParseProjectID(w, r, h.logger)
	if !ok {
		return
	}

	breakdown, err := h.estimateService.ComputeEstimate(r.Context(), projectID)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrNotFound):
			if err := ErrorResponse(w, http.StatusNotFound, "not_found", "Project not found"); err != nil {
				h.logger.Error("Failed to write error response", zap.Error(err))
			}
		case errors.Is(err, apperrors.ErrInvalidQuantity), errors.Is(err, apperrors.ErrInvalidPercent):
			if err := ErrorResponse(w, http.StatusUnprocessableEntity, "invalid_inputs", err.Error()); err != nil {
				h.logger.Error("Failed to write error response", zap.Error(err))
			}
		default:
			h.logger.Error("Failed to compute estimate",
				zap.String("project_id", projectID.String()),
				zap.Error(err))
			if err := ErrorResponse(w, http.StatusInternalServerError, "estimate_failed", "Failed to compute estimate"); err != nil {
				h.logger.Error("Failed to write error response", zap.Error(err))
			}
		}
		return
	}

	if err := WriteJSON(w, http.StatusOK, breakdown); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// GetLatest handles GET /api/projects/{pid}/estimate
// Returns the most recently computed estimate for the project.
func (h *EstimatesHandler) GetLatest(w http.ResponseWriter, r *http.Request) {
	projectID, ok := ParseProjectID(w, r, h.logger)
	if !ok {
		return
	}

	breakdown, err := h.estimateService.GetLatest(r.Context(), projectID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			if err := ErrorResponse(w, http.StatusNotFound, "not_found", "No estimate exists for this project"); err != nil {
				h.logger.Error("Failed to write error response", zap.Error(err))
			}
			return
		}
		h.logger.Error("Failed to get estimate",
			zap.String("project_id", projectID.String()),
			zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, "internal_error", "Failed to get estimate"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := WriteJSON(w, http.StatusOK, breakdown); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
