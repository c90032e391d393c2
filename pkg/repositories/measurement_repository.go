package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/estimateai/plancost-engine/pkg/database"
	"github.com/estimateai/plancost-engine/pkg/models"
)

// MeasurementRepository stores building measurements keyed by feature type.
type MeasurementRepository interface {
	GetByProject(ctx context.Context, projectID uuid.UUID) (models.MeasurementSet, error)
	UpsertMany(ctx context.Context, measurements []models.Measurement) error
}

// measurementRepository implements MeasurementRepository using PostgreSQL.
type measurementRepository struct {
	db *database.DB
}

// NewMeasurementRepository creates a new measurement repository.
func NewMeasurementRepository(db *database.DB) MeasurementRepository {
	return &measurementRepository{db: db}
}

// GetByProject returns all of a project's measurements indexed by feature type.
func (r *measurementRepository) GetByProject(ctx context.Context, projectID uuid.UUID) (models.MeasurementSet, error) {
	rows, err := r.db.Query(ctx, `
		SELECT project_id, feature_type, value_numeric, value_text
		FROM measurements
		WHERE project_id = $1`, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to query measurements: %w", err)
	}
	defer rows.Close()

	set := make(models.MeasurementSet)
	for rows.Next() {
		var m models.Measurement
		if err := rows.Scan(&m.ProjectID, &m.FeatureType, &m.ValueNumeric, &m.ValueText); err != nil {
			return nil, fmt.Errorf("failed to scan measurement: %w", err)
		}
		set[m.FeatureType] = m
	}
	return set, rows.Err()
}

// UpsertMany writes measurements; one row per (project, feature type), last
// write wins.
func (r *measurementRepository) UpsertMany(ctx context.Context, measurements []models.Measurement) error {
	if len(measurements) == 0 {
		return nil
	}

	query := `
		INSERT INTO measurements (project_id, feature_type, value_numeric, value_text, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (project_id, feature_type) DO UPDATE
		SET value_numeric = EXCLUDED.value_numeric,
		    value_text = EXCLUDED.value_text,
		    updated_at = EXCLUDED.updated_at`

	now := time.Now()
	for _, m := range measurements {
		if _, err := r.db.Exec(ctx, query, m.ProjectID, m.FeatureType, m.ValueNumeric, m.ValueText, now); err != nil {
			return fmt.Errorf("failed to upsert measurement %q: %w", m.FeatureType, err)
		}
	}
	return nil
}

// Ensure measurementRepository implements MeasurementRepository at compile time.
var _ MeasurementRepository = (*measurementRepository)(nil)
