package services

import (
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/estimateai/plancost-engine/pkg/apperrors"
	"github.com/estimateai/plancost-engine/pkg/models"
)

// FallbackLaborRate is the hourly rate used when no labor rate exists for a
// (region, trade) pair, or when the project has no region at all.
const FallbackLaborRate = 50.0

// CatalogSnapshot is the immutable slice of catalog data a rollup computes
// against. Built once per computation; the engine never touches storage.
type CatalogSnapshot struct {
	// Assemblies is keyed by assembly code.
	Assemblies map[string]models.Assembly
	Materials  map[uuid.UUID]models.Material
	// Region is nil when the project has no region.
	Region *models.Region
	// PriceOverrides maps material ID to an overridden cost per unit.
	PriceOverrides map[uuid.UUID]float64
	// LaborRates maps trade code to rate per hour, already region-scoped.
	LaborRates map[string]float64
}

// RollupResult is the priced output of expanding all selections.
type RollupResult struct {
	LineItems        []models.LineItem
	SubtotalMaterial float64
	SubtotalLabor    float64
}

// CostRollupEngine expands user selections into priced material and labor
// line items using the regional price-resolution chain.
type CostRollupEngine struct {
	resolver *QuantityResolver
	logger   *zap.Logger
}

// NewCostRollupEngine creates a new CostRollupEngine.
func NewCostRollupEngine(resolver *QuantityResolver, logger *zap.Logger) *CostRollupEngine {
	return &CostRollupEngine{
		resolver: resolver,
		logger:   logger.Named("cost-rollup"),
	}
}

// Rollup prices every selection whose assembly resolves in the catalog.
// Selections referencing unknown assembly codes are skipped: they represent
// unpriced, manual-only options, not errors. The engine does no rounding;
// callers format for display.
func (e *CostRollupEngine) Rollup(
	selections []models.UserSelection,
	catalog *CatalogSnapshot,
	measurements models.MeasurementSet,
) (*RollupResult, error) {
	for ft, m := range measurements {
		if m.ValueNumeric != nil && *m.ValueNumeric < 0 {
			return nil, fmt.Errorf("measurement %q is negative: %w", ft, apperrors.ErrInvalidQuantity)
		}
	}

	result := &RollupResult{}

	for _, sel := range selections {
		assembly, ok := catalog.Assemblies[sel.AssemblyCode]
		if !ok {
			e.logger.Debug("selection has no priced assembly, skipping",
				zap.String("category", sel.Category),
				zap.String("assembly_code", sel.AssemblyCode))
			continue
		}

		units := e.resolver.Resolve(assembly.QuantityCategory, measurements)

		for _, ml := range assembly.MaterialLines {
			material, ok := catalog.Materials[ml.MaterialID]
			if !ok {
				e.logger.Warn("assembly references unknown material, skipping line",
					zap.String("assembly_code", assembly.Code),
					zap.String("material_id", ml.MaterialID.String()))
				continue
			}

			installedQty := units * ml.QtyPerUnit * (1 + ml.WasteFactor)
			unitCost := e.resolveMaterialCost(material, catalog)
			extended := installedQty * unitCost

			result.LineItems = append(result.LineItems, models.LineItem{
				Kind:        models.LineItemMaterial,
				Category:    assembly.Category,
				Description: material.Name,
				Quantity:    installedQty,
				Unit:        material.Unit,
				UnitCost:    unitCost,
				Extended:    extended,
				Notes:       fmt.Sprintf("%s @ %.4g %s/unit", assembly.Name, ml.QtyPerUnit, material.Unit),
			})
			result.SubtotalMaterial += extended
		}

		for _, ll := range assembly.LaborLines {
			hours := units * ll.HoursPerUnit
			rate := e.resolveLaborRate(ll.TradeCode, catalog)
			extended := hours * rate

			result.LineItems = append(result.LineItems, models.LineItem{
				Kind:        models.LineItemLabor,
				Category:    assembly.Category,
				Description: fmt.Sprintf("%s labor (%s)", assembly.Name, ll.TradeCode),
				Quantity:    hours,
				Unit:        "hr",
				UnitCost:    rate,
				Extended:    extended,
			})
			result.SubtotalLabor += extended
		}
	}

	return result, nil
}

// resolveMaterialCost walks the price-resolution chain:
// regional override → baseCost × region multiplier → base cost.
func (e *CostRollupEngine) resolveMaterialCost(material models.Material, catalog *CatalogSnapshot) float64 {
	if cost, ok := catalog.PriceOverrides[material.ID]; ok {
		return cost
	}
	if catalog.Region != nil {
		return material.BaseCost * catalog.Region.MaterialMultiplier
	}
	return material.BaseCost
}

// resolveLaborRate returns the region rate for a trade, or the fallback rate
// when the region has none (or the project has no region).
func (e *CostRollupEngine) resolveLaborRate(tradeCode string, catalog *CatalogSnapshot) float64 {
	if rate, ok := catalog.LaborRates[tradeCode]; ok {
		return rate
	}
	return FallbackLaborRate
}
