package services

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/estimateai/plancost-engine/pkg/apperrors"
	"github.com/estimateai/plancost-engine/pkg/models"
	"github.com/estimateai/plancost-engine/pkg/takeoff"
)

// TakeoffService runs all extraction sources against a plan document and
// reconciles their takeoffs into one merged estimate.
type TakeoffService struct {
	sources    []takeoff.Source
	pool       *takeoff.Pool
	reconciler *Reconciler
	logger     *zap.Logger
}

// NewTakeoffService creates a new TakeoffService.
func NewTakeoffService(
	sources []takeoff.Source,
	pool *takeoff.Pool,
	reconciler *Reconciler,
	logger *zap.Logger,
) *TakeoffService {
	return &TakeoffService{
		sources:    sources,
		pool:       pool,
		reconciler: reconciler,
		logger:     logger.Named("takeoff-service"),
	}
}

// MergeExtractions fans the document out to every configured source in
// parallel, waits for all of them to settle, and reconciles the outcomes.
// Individual source failures are captured per source and never abort the
// merge; the caller's ctx deadline bounds the whole operation.
func (s *TakeoffService) MergeExtractions(ctx context.Context, doc takeoff.Document) (*models.MergedEstimate, error) {
	if len(s.sources) == 0 {
		return nil, apperrors.ErrNoSources
	}

	tasks := make([]takeoff.Task[*models.TakeoffResult], 0, len(s.sources))
	for _, src := range s.sources {
		src := src
		tasks = append(tasks, takeoff.Task[*models.TakeoffResult]{
			ID: src.ID(),
			Execute: func(ctx context.Context) (*models.TakeoffResult, error) {
				return src.Extract(ctx, doc)
			},
		})
	}

	results := takeoff.Run(ctx, s.pool, tasks)

	outcomes := make([]models.SourceOutcome, 0, len(results))
	for _, res := range results {
		if res.Err != nil {
			outcomes = append(outcomes, models.SourceOutcome{
				SourceID: res.ID,
				Err:      res.Err.Error(),
			})
			continue
		}
		if res.Result == nil {
			outcomes = append(outcomes, models.SourceOutcome{
				SourceID: res.ID,
				Err:      "source returned no result",
			})
			continue
		}
		outcomes = append(outcomes, models.SourceOutcome{
			SourceID: res.ID,
			Result:   res.Result,
		})
	}

	merged := s.reconciler.Reconcile(outcomes)

	s.logger.Info("extractions merged",
		zap.Int("sources", len(s.sources)),
		zap.Int("items", len(merged.Items)),
		zap.Float64("confidence", merged.Confidence))

	return merged, nil
}

// MeasurementsFromTakeoff derives building measurements from merged takeoff
// items so an analysis pass can seed the measurement store. Only items whose
// vocabulary unambiguously maps to a feature are used; everything else stays
// takeoff-only.
func MeasurementsFromTakeoff(projectID uuid.UUID, merged *models.MergedEstimate) []models.Measurement {
	var out []models.Measurement
	seen := make(map[string]bool)

	record := func(feature string, qty float64) {
		if seen[feature] {
			return
		}
		seen[feature] = true
		out = append(out, models.Measurement{
			ProjectID:    projectID,
			FeatureType:  feature,
			ValueNumeric: &qty,
		})
	}

	for _, item := range merged.Items {
		desc := strings.ToLower(item.Description)
		switch {
		case item.Category == "concrete" && item.Unit == "sf":
			record(models.FeatureGrossArea, item.Qty)
		case item.Category == "windows_doors" && item.Unit == "ea" && strings.Contains(desc, "window"):
			record(models.FeatureWindowCount, item.Qty)
		case item.Category == "windows_doors" && item.Unit == "ea" && strings.Contains(desc, "door"):
			record(models.FeatureDoorCount, item.Qty)
		}
	}
	return out
}
