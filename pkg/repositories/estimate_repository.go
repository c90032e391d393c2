package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/estimateai/plancost-engine/pkg/apperrors"
	"github.com/estimateai/plancost-engine/pkg/database"
	"github.com/estimateai/plancost-engine/pkg/models"
)

// EstimateRepository persists computed estimate breakdowns.
type EstimateRepository interface {
	Save(ctx context.Context, breakdown *models.EstimateBreakdown) error
	GetLatestByProject(ctx context.Context, projectID uuid.UUID) (*models.EstimateBreakdown, error)
}

// estimateRepository implements EstimateRepository using PostgreSQL.
type estimateRepository struct {
	db *database.DB
}

// NewEstimateRepository creates a new estimate repository.
func NewEstimateRepository(db *database.DB) EstimateRepository {
	return &estimateRepository{db: db}
}

// Save inserts a computed breakdown. Line items are stored as JSONB alongside
// the scalar totals so historical estimates survive catalog changes.
func (r *estimateRepository) Save(ctx context.Context, breakdown *models.EstimateBreakdown) error {
	if breakdown.ID == uuid.Nil {
		breakdown.ID = uuid.New()
	}
	breakdown.CreatedAt = time.Now()

	lineItems, err := json.Marshal(breakdown.LineItems)
	if err != nil {
		return fmt.Errorf("failed to marshal line items: %w", err)
	}

	query := `
		INSERT INTO estimates (id, project_id, line_items, subtotal_material, subtotal_labor,
		                       overhead_pct, overhead, profit_pct, profit, total_amount, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err = r.db.Exec(ctx, query,
		breakdown.ID,
		breakdown.ProjectID,
		lineItems,
		breakdown.SubtotalMaterial,
		breakdown.SubtotalLabor,
		breakdown.OverheadPct,
		breakdown.Overhead,
		breakdown.ProfitPct,
		breakdown.Profit,
		breakdown.TotalAmount,
		breakdown.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save estimate: %w", err)
	}
	return nil
}

// GetLatestByProject retrieves the most recent estimate for a project.
func (r *estimateRepository) GetLatestByProject(ctx context.Context, projectID uuid.UUID) (*models.EstimateBreakdown, error) {
	query := `
		SELECT id, project_id, line_items, subtotal_material, subtotal_labor,
		       overhead_pct, overhead, profit_pct, profit, total_amount, created_at
		FROM estimates
		WHERE project_id = $1
		ORDER BY created_at DESC
		LIMIT 1`

	var breakdown models.EstimateBreakdown
	var lineItems []byte

	err := r.db.QueryRow(ctx, query, projectID).Scan(
		&breakdown.ID,
		&breakdown.ProjectID,
		&lineItems,
		&breakdown.SubtotalMaterial,
		&breakdown.SubtotalLabor,
		&breakdown.OverheadPct,
		&breakdown.Overhead,
		&breakdown.ProfitPct,
		&breakdown.Profit,
		&breakdown.TotalAmount,
		&breakdown.CreatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get estimate: %w", err)
	}

	if err := json.Unmarshal(lineItems, &breakdown.LineItems); err != nil {
		return nil, fmt.Errorf("failed to unmarshal line items: %w", err)
	}

	return &breakdown, nil
}

// Ensure estimateRepository implements EstimateRepository at compile time.
var _ EstimateRepository = (*estimateRepository)(nil)
