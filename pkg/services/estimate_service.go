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
)

// EstimateService orchestrates pricing: it loads a project's selections and
// measurements, snapshots the catalog, runs the rollup, applies markups, and
// persists the resulting breakdown.
type EstimateService struct {
	projects     repositories.ProjectRepository
	selections   repositories.SelectionRepository
	measurements repositories.MeasurementRepository
	catalog      repositories.CatalogRepository
	estimates    repositories.EstimateRepository
	rollup       *CostRollupEngine
	aggregator   *EstimateAggregator
	overheadPct  float64
	profitPct    float64
	logger       *zap.Logger
}

// NewEstimateService creates a new EstimateService. Markup percentages come
// from config; negative values mean "not configured" and fall back to the
// canonical defaults. An explicit zero is honored as a 0% markup.
func NewEstimateService(
	projects repositories.ProjectRepository,
	selections repositories.SelectionRepository,
	measurements repositories.MeasurementRepository,
	catalog repositories.CatalogRepository,
	estimates repositories.EstimateRepository,
	rollup *CostRollupEngine,
	aggregator *EstimateAggregator,
	overheadPct, profitPct float64,
	logger *zap.Logger,
) *EstimateService {
	if overheadPct < 0 {
		overheadPct = DefaultOverheadPct
	}
	if profitPct < 0 {
		profitPct = DefaultProfitPct
	}
	return &EstimateService{
		projects:     projects,
		selections:   selections,
		measurements: measurements,
		catalog:      catalog,
		estimates:    estimates,
		rollup:       rollup,
		aggregator:   aggregator,
		overheadPct:  overheadPct,
		profitPct:    profitPct,
		logger:       logger.Named("estimate-service"),
	}
}

// ComputeEstimate prices a project end to end and persists the breakdown.
// The computation is a pure function of the project's selections,
// measurements, and the catalog snapshot; recomputing with unchanged inputs
// yields an identical breakdown (modulo id and timestamp).
func (s *EstimateService) ComputeEstimate(ctx context.Context, projectID uuid.UUID) (*models.EstimateBreakdown, error) {
	project, err := s.projects.Get(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to load project: %w", err)
	}

	selections, err := s.selections.ListByProject(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to load selections: %w", err)
	}

	measurements, err := s.measurements.GetByProject(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to load measurements: %w", err)
	}

	snapshot, err := s.buildSnapshot(ctx, project, selections)
	if err != nil {
		return nil, err
	}

	rollup, err := s.rollup.Rollup(selections, snapshot, measurements)
	if err != nil {
		return nil, err
	}

	breakdown, err := s.aggregator.Aggregate(rollup.SubtotalMaterial, rollup.SubtotalLabor, s.overheadPct, s.profitPct)
	if err != nil {
		return nil, err
	}
	breakdown.ProjectID = projectID
	breakdown.LineItems = rollup.LineItems

	if err := s.estimates.Save(ctx, breakdown); err != nil {
		return nil, err
	}
	if err := s.projects.UpdateStatus(ctx, projectID, models.ProjectStatusPriced); err != nil {
		return nil, fmt.Errorf("failed to mark project priced: %w", err)
	}

	s.logger.Info("estimate computed",
		zap.String("project_id", projectID.String()),
		zap.Int("line_items", len(breakdown.LineItems)),
		zap.Float64("total", breakdown.TotalAmount))

	return breakdown, nil
}

// GetLatest returns the most recent persisted estimate for a project.
func (s *EstimateService) GetLatest(ctx context.Context, projectID uuid.UUID) (*models.EstimateBreakdown, error) {
	return s.estimates.GetLatestByProject(ctx, projectID)
}

// buildSnapshot assembles the catalog data a rollup needs: the selected
// assemblies, every material they reference, and the project's regional
// pricing. Projects without a region price at base cost with fallback labor.
func (s *EstimateService) buildSnapshot(
	ctx context.Context,
	project *models.Project,
	selections []models.UserSelection,
) (*CatalogSnapshot, error) {
	codes := make([]string, 0, len(selections))
	for _, sel := range selections {
		codes = append(codes, sel.AssemblyCode)
	}

	assemblies, err := s.catalog.GetAssembliesByCodes(ctx, codes)
	if err != nil {
		return nil, fmt.Errorf("failed to load assemblies: %w", err)
	}

	seen := make(map[uuid.UUID]bool)
	var materialIDs []uuid.UUID
	for _, a := range assemblies {
		for _, ml := range a.MaterialLines {
			if !seen[ml.MaterialID] {
				seen[ml.MaterialID] = true
				materialIDs = append(materialIDs, ml.MaterialID)
			}
		}
	}

	materials, err := s.catalog.GetMaterials(ctx, materialIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load materials: %w", err)
	}

	snapshot := &CatalogSnapshot{
		Assemblies:     assemblies,
		Materials:      materials,
		PriceOverrides: map[uuid.UUID]float64{},
		LaborRates:     map[string]float64{},
	}

	if project.RegionID == nil {
		return snapshot, nil
	}

	region, err := s.catalog.GetRegion(ctx, *project.RegionID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			s.logger.Warn("project references unknown region, pricing at base cost",
				zap.String("project_id", project.ID.String()),
				zap.String("region_id", project.RegionID.String()))
			return snapshot, nil
		}
		return nil, fmt.Errorf("failed to load region: %w", err)
	}
	snapshot.Region = region

	overrides, err := s.catalog.GetPriceOverrides(ctx, region.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load price overrides: %w", err)
	}
	snapshot.PriceOverrides = overrides

	rates, err := s.catalog.GetLaborRates(ctx, region.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load labor rates: %w", err)
	}
	snapshot.LaborRates = rates

	return snapshot, nil
}
