package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/estimateai/plancost-engine/pkg/apperrors"
	"github.com/estimateai/plancost-engine/pkg/services"
	"github.com/estimateai/plancost-engine/pkg/takeoff"
)

// maxUploadBytes caps plan uploads. Residential plan sets run well under this.
const maxUploadBytes = 32 << 20

// CreateProjectRequest is the request body for creating a project.
type CreateProjectRequest struct {
	Name    string  `json:"name"`
	ZipCode *string `json:"zip_code,omitempty"`
}

// ProjectsHandler handles project intake and plan analysis requests.
type ProjectsHandler struct {
	projectService *services.ProjectService
	logger         *zap.Logger
}

// NewProjectsHandler creates a new projects handler.
func NewProjectsHandler(projectService *services.ProjectService, logger *zap.Logger) *ProjectsHandler {
	return &ProjectsHandler{
		projectService: projectService,
		logger:         logger,
	}
}

// RegisterRoutes registers the projects handler's routes on the given mux.
func (h *ProjectsHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/projects", h.Create)
	mux.HandleFunc("GET /api/projects/{pid}", h.Get)
	mux.HandleFunc("POST /api/projects/{pid}/analyze", h.Analyze)
}

// Create handles POST /api/projects
// Registers a project and resolves its pricing region from the zip code.
func (h *ProjectsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if strings.TrimSpace(req.Name) == "" {
		if err := ErrorResponse(w, http.StatusBadRequest, "missing_name", "Project name is required"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	project, err := h.projectService.Create(r.Context(), req.Name, req.ZipCode)
	if err != nil {
		h.logger.Error("Failed to create project", zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, "internal_error", "Failed to create project"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := WriteJSON(w, http.StatusCreated, project); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Get handles GET /api/projects/{pid}
func (h *ProjectsHandler) Get(w http.ResponseWriter, r *http.Request) {
	projectID, ok := ParseProjectID(w, r, h.logger)
	if !ok {
		return
	}

	project, err := h.projectService.Get(r.Context(), projectID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			if err := ErrorResponse(w, http.StatusNotFound, "not_found", "Project not found"); err != nil {
				h.logger.Error("Failed to write error response", zap.Error(err))
			}
			return
		}
		h.logger.Error("Failed to get project",
			zap.String("project_id", projectID.String()),
			zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, "internal_error", "Failed to get project"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := WriteJSON(w, http.StatusOK, project); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Analyze handles POST /api/projects/{pid}/analyze
// Accepts a multipart upload with a "plan" file and an optional "text" field
// carrying pre-extracted plan text, runs the extraction pipeline, and returns
// the merged takeoff.
func (h *ProjectsHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	projectID, ok := ParseProjectID(w, r, h.logger)
	if !ok {
		return
	}

	doc, ok := h.parsePlanUpload(w, r)
	if !ok {
		return
	}

	merged, err := h.projectService.Analyze(r.Context(), projectID, doc)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrNotFound):
			if err := ErrorResponse(w, http.StatusNotFound, "not_found", "Project not found"); err != nil {
				h.logger.Error("Failed to write error response", zap.Error(err))
			}
		case errors.Is(err, apperrors.ErrNoSources):
			if err := ErrorResponse(w, http.StatusServiceUnavailable, "no_sources", "No extraction sources are configured"); err != nil {
				h.logger.Error("Failed to write error response", zap.Error(err))
			}
		default:
			h.logger.Error("Failed to analyze plan",
				zap.String("project_id", projectID.String()),
				zap.Error(err))
			if err := ErrorResponse(w, http.StatusInternalServerError, "analysis_failed", "Failed to analyze plan"); err != nil {
				h.logger.Error("Failed to write error response", zap.Error(err))
			}
		}
		return
	}

	if err := WriteJSON(w, http.StatusOK, merged); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// parsePlanUpload reads the multipart plan upload into a takeoff document.
// Plain-text uploads double as the extracted text when no "text" field is
// provided.
func (h *ProjectsHandler) parsePlanUpload(w http.ResponseWriter, r *http.Request) (takeoff.Document, bool) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_upload", "Expected a multipart plan upload"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return takeoff.Document{}, false
	}

	doc := takeoff.Document{Text: r.FormValue("text")}

	file, header, err := r.FormFile("plan")
	if err == nil {
		defer file.Close()
		data, readErr := io.ReadAll(io.LimitReader(file, maxUploadBytes))
		if readErr != nil {
			if err := ErrorResponse(w, http.StatusBadRequest, "invalid_upload", "Failed to read plan file"); err != nil {
				h.logger.Error("Failed to write error response", zap.Error(err))
			}
			return takeoff.Document{}, false
		}
		doc.Filename = header.Filename
		doc.PDF = data
		if doc.Text == "" && strings.HasSuffix(strings.ToLower(header.Filename), ".txt") {
			doc.Text = string(data)
		}
	}

	if doc.Text == "" {
		if err := ErrorResponse(w, http.StatusBadRequest, "missing_plan_text", "Plan text is required: upload a .txt plan or include a text field"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return takeoff.Document{}, false
	}

	return doc, true
}
