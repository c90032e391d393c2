package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/estimateai/plancost-engine/pkg/database"
	"github.com/estimateai/plancost-engine/pkg/models"
)

// SelectionRepository stores build-specification choices, one active
// assembly per (project, category).
type SelectionRepository interface {
	Upsert(ctx context.Context, selection *models.UserSelection) error
	ListByProject(ctx context.Context, projectID uuid.UUID) ([]models.UserSelection, error)
}

// selectionRepository implements SelectionRepository using PostgreSQL.
type selectionRepository struct {
	db *database.DB
}

// NewSelectionRepository creates a new selection repository.
func NewSelectionRepository(db *database.DB) SelectionRepository {
	return &selectionRepository{db: db}
}

// Upsert writes a selection; last write per (project, category) wins.
func (r *selectionRepository) Upsert(ctx context.Context, selection *models.UserSelection) error {
	selection.UpdatedAt = time.Now()

	query := `
		INSERT INTO user_selections (project_id, category, assembly_code, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (project_id, category) DO UPDATE
		SET assembly_code = EXCLUDED.assembly_code,
		    updated_at = EXCLUDED.updated_at`

	_, err := r.db.Exec(ctx, query,
		selection.ProjectID,
		selection.Category,
		selection.AssemblyCode,
		selection.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert selection: %w", err)
	}
	return nil
}

// ListByProject returns a project's active selections.
func (r *selectionRepository) ListByProject(ctx context.Context, projectID uuid.UUID) ([]models.UserSelection, error) {
	rows, err := r.db.Query(ctx, `
		SELECT project_id, category, assembly_code, updated_at
		FROM user_selections
		WHERE project_id = $1
		ORDER BY category`, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to query selections: %w", err)
	}
	defer rows.Close()

	var selections []models.UserSelection
	for rows.Next() {
		var s models.UserSelection
		if err := rows.Scan(&s.ProjectID, &s.Category, &s.AssemblyCode, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan selection: %w", err)
		}
		selections = append(selections, s)
	}
	return selections, rows.Err()
}

// Ensure selectionRepository implements SelectionRepository at compile time.
var _ SelectionRepository = (*selectionRepository)(nil)
