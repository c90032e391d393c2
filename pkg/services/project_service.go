package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/estimateai/plancost-engine/pkg/apperrors"
	"github.com/estimateai/plancost-engine/pkg/models"
	"github.com/estimateai/plancost-engine/pkg/repositories"
	"github.com/estimateai/plancost-engine/pkg/takeoff"
)

// ProjectService manages project intake and plan analysis.
type ProjectService struct {
	projects     repositories.ProjectRepository
	catalog      repositories.CatalogRepository
	measurements repositories.MeasurementRepository
	takeoffs     *TakeoffService
	logger       *zap.Logger
}

// NewProjectService creates a new ProjectService.
func NewProjectService(
	projects repositories.ProjectRepository,
	catalog repositories.CatalogRepository,
	measurements repositories.MeasurementRepository,
	takeoffs *TakeoffService,
	logger *zap.Logger,
) *ProjectService {
	return &ProjectService{
		projects:     projects,
		catalog:      catalog,
		measurements: measurements,
		takeoffs:     takeoffs,
		logger:       logger.Named("project-service"),
	}
}

// Create registers a project. A zip code is resolved to a pricing region when
// the map knows it; unmapped zips leave the project region-less, which prices
// at base cost.
func (s *ProjectService) Create(ctx context.Context, name string, zipCode *string) (*models.Project, error) {
	project := &models.Project{
		Name:    name,
		ZipCode: zipCode,
	}

	if zipCode != nil && *zipCode != "" {
		region, err := s.catalog.GetRegionByZip(ctx, *zipCode)
		switch {
		case err == nil:
			project.RegionID = &region.ID
		case errors.Is(err, apperrors.ErrNotFound):
			s.logger.Info("zip code not mapped to a region", zap.String("zip_code", *zipCode))
		default:
			return nil, fmt.Errorf("failed to resolve region: %w", err)
		}
	}

	if err := s.projects.Create(ctx, project); err != nil {
		return nil, err
	}
	return project, nil
}

// Get retrieves a project by ID.
func (s *ProjectService) Get(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	return s.projects.Get(ctx, id)
}

// Analyze runs the extraction pipeline over an uploaded plan, seeds the
// project's measurements from the merged takeoff, and marks the project
// analyzed. The merged estimate is returned for display; it is not the priced
// estimate.
func (s *ProjectService) Analyze(ctx context.Context, projectID uuid.UUID, doc takeoff.Document) (*models.MergedEstimate, error) {
	if _, err := s.projects.Get(ctx, projectID); err != nil {
		return nil, fmt.Errorf("failed to load project: %w", err)
	}

	merged, err := s.takeoffs.MergeExtractions(ctx, doc)
	if err != nil {
		return nil, err
	}

	measurements := MeasurementsFromTakeoff(projectID, merged)
	if len(measurements) > 0 {
		if err := s.measurements.UpsertMany(ctx, measurements); err != nil {
			return nil, fmt.Errorf("failed to seed measurements: %w", err)
		}
	}

	if err := s.projects.UpdateStatus(ctx, projectID, models.ProjectStatusAnalyzed); err != nil {
		return nil, fmt.Errorf("failed to mark project analyzed: %w", err)
	}

	s.logger.Info("plan analyzed",
		zap.String("project_id", projectID.String()),
		zap.Int("items", len(merged.Items)),
		zap.Int("seeded_measurements", len(measurements)))

	return merged, nil
}
