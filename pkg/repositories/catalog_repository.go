// Package repositories provides PostgreSQL data access for plancost-engine.
package repositories

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/estimateai/plancost-engine/pkg/apperrors"
	"github.com/estimateai/plancost-engine/pkg/database"
	"github.com/estimateai/plancost-engine/pkg/models"
)

// CatalogRepository reads immutable catalog data: assemblies, materials,
// regions, price overrides, and labor rates.
type CatalogRepository interface {
	GetAssembliesByCodes(ctx context.Context, codes []string) (map[string]models.Assembly, error)
	GetMaterials(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Material, error)
	GetRegion(ctx context.Context, id uuid.UUID) (*models.Region, error)
	GetRegionByZip(ctx context.Context, zipCode string) (*models.Region, error)
	GetPriceOverrides(ctx context.Context, regionID uuid.UUID) (map[uuid.UUID]float64, error)
	GetLaborRates(ctx context.Context, regionID uuid.UUID) (map[string]float64, error)
	ListSelectionOptions(ctx context.Context) ([]models.SelectionOption, error)
}

// catalogRepository implements CatalogRepository using PostgreSQL.
type catalogRepository struct {
	db *database.DB
}

// NewCatalogRepository creates a new catalog repository.
func NewCatalogRepository(db *database.DB) CatalogRepository {
	return &catalogRepository{db: db}
}

// GetAssembliesByCodes loads assemblies with their material and labor lines,
// keyed by assembly code. Codes absent from the catalog are simply missing
// from the result. Quantity categories are tagged here, at load time.
func (r *catalogRepository) GetAssembliesByCodes(ctx context.Context, codes []string) (map[string]models.Assembly, error) {
	if len(codes) == 0 {
		return map[string]models.Assembly{}, nil
	}

	query := `
		SELECT id, code, name, category, unit
		FROM assemblies
		WHERE code = ANY($1)`

	rows, err := r.db.Query(ctx, query, codes)
	if err != nil {
		return nil, fmt.Errorf("failed to query assemblies: %w", err)
	}
	defer rows.Close()

	byID := make(map[uuid.UUID]*models.Assembly)
	result := make(map[string]models.Assembly, len(codes))

	for rows.Next() {
		var a models.Assembly
		if err := rows.Scan(&a.ID, &a.Code, &a.Name, &a.Category, &a.Unit); err != nil {
			return nil, fmt.Errorf("failed to scan assembly: %w", err)
		}
		a.QuantityCategory = models.CategorizeAssemblyCode(a.Code)
		byID[a.ID] = &a
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read assemblies: %w", err)
	}

	if len(byID) == 0 {
		return result, nil
	}

	ids := make([]uuid.UUID, 0, len(byID))
	for id := range byID {
		ids = append(ids, id)
	}

	matRows, err := r.db.Query(ctx, `
		SELECT assembly_id, material_id, qty_per_unit, waste_factor
		FROM assembly_materials
		WHERE assembly_id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to query assembly materials: %w", err)
	}
	defer matRows.Close()

	for matRows.Next() {
		var assemblyID uuid.UUID
		var ml models.MaterialLine
		if err := matRows.Scan(&assemblyID, &ml.MaterialID, &ml.QtyPerUnit, &ml.WasteFactor); err != nil {
			return nil, fmt.Errorf("failed to scan material line: %w", err)
		}
		if a, ok := byID[assemblyID]; ok {
			a.MaterialLines = append(a.MaterialLines, ml)
		}
	}
	if err := matRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read material lines: %w", err)
	}

	laborRows, err := r.db.Query(ctx, `
		SELECT assembly_id, trade_code, hours_per_unit
		FROM assembly_labor
		WHERE assembly_id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to query assembly labor: %w", err)
	}
	defer laborRows.Close()

	for laborRows.Next() {
		var assemblyID uuid.UUID
		var ll models.LaborLine
		if err := laborRows.Scan(&assemblyID, &ll.TradeCode, &ll.HoursPerUnit); err != nil {
			return nil, fmt.Errorf("failed to scan labor line: %w", err)
		}
		if a, ok := byID[assemblyID]; ok {
			a.LaborLines = append(a.LaborLines, ll)
		}
	}
	if err := laborRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read labor lines: %w", err)
	}

	for _, a := range byID {
		result[a.Code] = *a
	}
	return result, nil
}

// GetMaterials loads materials by id.
func (r *catalogRepository) GetMaterials(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Material, error) {
	result := make(map[uuid.UUID]models.Material, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	rows, err := r.db.Query(ctx, `
		SELECT id, name, unit, base_cost, category
		FROM materials
		WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to query materials: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var m models.Material
		if err := rows.Scan(&m.ID, &m.Name, &m.Unit, &m.BaseCost, &m.Category); err != nil {
			return nil, fmt.Errorf("failed to scan material: %w", err)
		}
		result[m.ID] = m
	}
	return result, rows.Err()
}

// GetRegion retrieves a region by ID.
func (r *catalogRepository) GetRegion(ctx context.Context, id uuid.UUID) (*models.Region, error) {
	var region models.Region
	err := r.db.QueryRow(ctx, `
		SELECT id, code, name, material_multiplier, labor_multiplier
		FROM regions
		WHERE id = $1`, id).
		Scan(&region.ID, &region.Code, &region.Name, &region.MaterialMultiplier, &region.LaborMultiplier)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get region: %w", err)
	}
	return &region, nil
}

// GetRegionByZip resolves a region from a zip code via the region_zip_map.
func (r *catalogRepository) GetRegionByZip(ctx context.Context, zipCode string) (*models.Region, error) {
	var region models.Region
	err := r.db.QueryRow(ctx, `
		SELECT r.id, r.code, r.name, r.material_multiplier, r.labor_multiplier
		FROM regions r
		JOIN region_zip_map z ON z.region_id = r.id
		WHERE z.zip_code = $1`, zipCode).
		Scan(&region.ID, &region.Code, &region.Name, &region.MaterialMultiplier, &region.LaborMultiplier)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get region by zip: %w", err)
	}
	return &region, nil
}

// GetPriceOverrides loads explicit per-material costs for a region.
func (r *catalogRepository) GetPriceOverrides(ctx context.Context, regionID uuid.UUID) (map[uuid.UUID]float64, error) {
	rows, err := r.db.Query(ctx, `
		SELECT material_id, cost_per_unit
		FROM region_price_overrides
		WHERE region_id = $1`, regionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query price overrides: %w", err)
	}
	defer rows.Close()

	overrides := make(map[uuid.UUID]float64)
	for rows.Next() {
		var materialID uuid.UUID
		var cost float64
		if err := rows.Scan(&materialID, &cost); err != nil {
			return nil, fmt.Errorf("failed to scan price override: %w", err)
		}
		overrides[materialID] = cost
	}
	return overrides, rows.Err()
}

// GetLaborRates loads hourly rates by trade code for a region.
func (r *catalogRepository) GetLaborRates(ctx context.Context, regionID uuid.UUID) (map[string]float64, error) {
	rows, err := r.db.Query(ctx, `
		SELECT trade_code, rate_per_hour
		FROM labor_rates
		WHERE region_id = $1`, regionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query labor rates: %w", err)
	}
	defer rows.Close()

	rates := make(map[string]float64)
	for rows.Next() {
		var trade string
		var rate float64
		if err := rows.Scan(&trade, &rate); err != nil {
			return nil, fmt.Errorf("failed to scan labor rate: %w", err)
		}
		rates[trade] = rate
	}
	return rates, rows.Err()
}

// ListSelectionOptions returns all dropdown options ordered for display.
func (r *catalogRepository) ListSelectionOptions(ctx context.Context) ([]models.SelectionOption, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, category, code, label, assembly_id, sort_order
		FROM selection_options
		ORDER BY category, sort_order`)
	if err != nil {
		return nil, fmt.Errorf("failed to query selection options: %w", err)
	}
	defer rows.Close()

	var options []models.SelectionOption
	for rows.Next() {
		var o models.SelectionOption
		if err := rows.Scan(&o.ID, &o.Category, &o.Code, &o.Label, &o.AssemblyID, &o.SortOrder); err != nil {
			return nil, fmt.Errorf("failed to scan selection option: %w", err)
		}
		options = append(options, o)
	}
	return options, rows.Err()
}

// Ensure catalogRepository implements CatalogRepository at compile time.
var _ CatalogRepository = (*catalogRepository)(nil)
