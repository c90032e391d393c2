package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/estimateai/plancost-engine/pkg/apperrors"
	"github.com/estimateai/plancost-engine/pkg/services"
)

// SetSelectionRequest is the request body for recording a selection.
type SetSelectionRequest struct {
	Category     string `json:"category"`
	AssemblyCode string `json:"assembly_code"`
}

// SelectionsHandler handles build-specification selection requests.
type SelectionsHandler struct {
	selectionService *services.SelectionService
	logger           *zap.Logger
}

// NewSelectionsHandler creates a new selections handler.
func NewSelectionsHandler(selectionService *services.SelectionService, logger *zap.Logger) *SelectionsHandler {
	return &SelectionsHandler{
		selectionService: selectionService,
		logger:           logger,
	}
}

// RegisterRoutes registers the selections handler's routes on the given mux.
func (h *SelectionsHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/selection-options", h.ListOptions)
	mux.HandleFunc("GET /api/projects/{pid}/selections", h.List)
	mux.HandleFunc("PUT /api/projects/{pid}/selections", h.Set)
}

// ListOptions handles GET /api/selection-options
// Returns the catalog's dropdown options for every category.
func (h *SelectionsHandler) ListOptions(w http.ResponseWriter, r *http.Request) {
	options, err := h.selectionService.ListOptions(r.Context())
	if err != nil {
		h.logger.Error("Failed to list selection options", zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, "internal_error", "Failed to list selection options"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := WriteJSON(w, http.StatusOK, map[string]interface{}{"options": options}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// List handles GET /api/projects/{pid}/selections
func (h *SelectionsHandler) List(w http.ResponseWriter, r *http.Request) {
	projectID, ok := ParseProjectID(w, r, h.logger)
	if !ok {
		return
	}

	selections, err := h.selectionService.List(r.Context(), projectID)
	if err != nil {
		h.logger.Error("Failed to list selections",
			zap.String("project_id", projectID.String()),
			zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, "internal_error", "Failed to list selections"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := WriteJSON(w, http.StatusOK, map[string]interface{}{"selections": selections}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Set handles PUT /api/projects/{pid}/selections
// Records one selection; the previous choice for the category is replaced.
func (h *SelectionsHandler) Set(w http.ResponseWriter, r *http.Request) {
	projectID, ok := ParseProjectID(w, r, h.logger)
	if !ok {
		return
	}

	var req SetSelectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	selection, err := h.selectionService.Set(r.Context(), projectID, req.Category, req.AssemblyCode)
	if err != nil {
		if errors.Is(err, apperrors.ErrInvalidInput) {
			if err := ErrorResponse(w, http.StatusBadRequest, "invalid_selection", "Category and assembly code are required"); err != nil {
				h.logger.Error("Failed to write error response", zap.Error(err))
			}
			return
		}
		h.logger.Error("Failed to set selection",
			zap.String("project_id", projectID.String()),
			zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, "internal_error", "Failed to set selection"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := WriteJSON(w, http.StatusOK, selection); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
