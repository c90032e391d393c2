package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/estimateai/plancost-engine/pkg/apperrors"
	"github.com/estimateai/plancost-engine/pkg/services"
)

// AskRequest is the request body for an estimating question.
type AskRequest struct {
	Question string `json:"question"`
	Context  string `json:"context,omitempty"`
}

// AskResponse carries the assistant's answer.
type AskResponse struct {
	Answer string `json:"answer"`
}

// AskHandler handles estimator Q&A requests.
type AskHandler struct {
	assistantService *services.AssistantService
	logger           *zap.Logger
}

// NewAskHandler creates a new ask handler.
func NewAskHandler(assistantService *services.AssistantService, logger *zap.Logger) *AskHandler {
	return &AskHandler{
		assistantService: assistantService,
		logger:           logger,
	}
}

// RegisterRoutes registers the ask handler's routes on the given mux.
func (h *AskHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/ask", h.Ask)
}

// Ask handles POST /api/ask
// Answers a free-form estimating question via the configured AI providers.
func (h *AskHandler) Ask(w http.ResponseWriter, r *http.Request) {
	var req AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	answer, err := h.assistantService.Ask(r.Context(), req.Question, req.Context)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrInvalidInput):
			if err := ErrorResponse(w, http.StatusBadRequest, "missing_question", "Question is required"); err != nil {
				h.logger.Error("Failed to write error response", zap.Error(err))
			}
		case errors.Is(err, apperrors.ErrNoSources):
			if err := ErrorResponse(w, http.StatusServiceUnavailable, "no_sources", "No AI providers are configured"); err != nil {
				h.logger.Error("Failed to write error response", zap.Error(err))
			}
		default:
			h.logger.Error("Failed to answer question", zap.Error(err))
			if err := ErrorResponse(w, http.StatusInternalServerError, "ask_failed", "Failed to answer question"); err != nil {
				h.logger.Error("Failed to write error response", zap.Error(err))
			}
		}
		return
	}

	if err := WriteJSON(w, http.StatusOK, AskResponse{Answer: answer}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
