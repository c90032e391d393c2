package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/estimateai/plancost-engine/pkg/apperrors"
	"github.com/estimateai/plancost-engine/pkg/models"
	"github.com/estimateai/plancost-engine/pkg/repositories"
)

// SelectionService manages build-specification choices.
type SelectionService struct {
	selections repositories.SelectionRepository
	catalog    repositories.CatalogRepository
	logger     *zap.Logger
}

// NewSelectionService creates a new SelectionService.
func NewSelectionService(
	selections repositories.SelectionRepository,
	catalog repositories.CatalogRepository,
	logger *zap.Logger,
) *SelectionService {
	return &SelectionService{
		selections: selections,
		catalog:    catalog,
		logger:     logger.Named("selection-service"),
	}
}

// ListOptions returns the catalog's selection options grouped for display.
func (s *SelectionService) ListOptions(ctx context.Context) ([]models.SelectionOption, error) {
	return s.catalog.ListSelectionOptions(ctx)
}

// Set records a selection for a project category, replacing any prior choice
// for that category.
func (s *SelectionService) Set(ctx context.Context, projectID uuid.UUID, category, assemblyCode string) (*models.UserSelection, error) {
	category = strings.TrimSpace(category)
	assemblyCode = strings.TrimSpace(assemblyCode)
	if category == "" || assemblyCode == "" {
		return nil, fmt.Errorf("category and assembly code are required: %w", apperrors.ErrInvalidInput)
	}

	selection := &models.UserSelection{
		ProjectID:    projectID,
		Category:     category,
		AssemblyCode: assemblyCode,
	}
	if err := s.selections.Upsert(ctx, selection); err != nil {
		return nil, err
	}

	s.logger.Debug("selection recorded",
		zap.String("project_id", projectID.String()),
		zap.String("category", category),
		zap.String("assembly_code", assemblyCode))

	return selection, nil
}

// List returns a project's active selections.
func (s *SelectionService) List(ctx context.Context, projectID uuid.UUID) ([]models.UserSelection, error) {
	return s.selections.ListByProject(ctx, projectID)
}
