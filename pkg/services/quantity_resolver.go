package services

import (
	"github.com/estimateai/plancost-engine/pkg/models"
)

// Measurement defaults applied when a project has no value for a feature.
// A first-pass estimate must always price, so the resolver is total: every
// missing measurement falls back to these.
const (
	DefaultGrossAreaSF  = 2000.0
	DefaultWidthFt      = 50.0
	DefaultDepthFt      = 40.0
	DefaultWallHeightFt = 9.0
	DefaultWindowCount  = 15.0
	DefaultDoorCount    = 8.0
	RoofPitchInflation  = 1.2   // pitch-driven area inflation over the footprint
	RoofSquareDivisor   = 100.0 // sf per roofing square
)

// quantityRule derives an installed quantity from building measurements.
type quantityRule func(m models.MeasurementSet) float64

// quantityRules is the fixed policy table mapping a quantity category to its
// derivation rule. Adding a category is a table entry, not new control flow.
var quantityRules = map[models.AssemblyCategory]quantityRule{
	models.CategoryFoundation:   grossFloorArea,
	models.CategoryInterior:     grossFloorArea,
	models.CategoryExteriorWall: exteriorWallArea,
	models.CategoryRoof:         roofSquares,
	models.CategoryWindow: func(m models.MeasurementSet) float64 {
		return m.Numeric(models.FeatureWindowCount, DefaultWindowCount)
	},
	models.CategoryDoor: func(m models.MeasurementSet) float64 {
		return m.Numeric(models.FeatureDoorCount, DefaultDoorCount)
	},
}

func grossFloorArea(m models.MeasurementSet) float64 {
	return m.Numeric(models.FeatureGrossArea, DefaultGrossAreaSF)
}

// exteriorWallArea computes perimeter wall area: 2×(width+depth)×wallHeight.
func exteriorWallArea(m models.MeasurementSet) float64 {
	width := m.Numeric(models.FeatureWidth, DefaultWidthFt)
	depth := m.Numeric(models.FeatureDepth, DefaultDepthFt)
	height := m.Numeric(models.FeatureWallHeight, DefaultWallHeightFt)
	return 2 * (width + depth) * height
}

// roofSquares inflates the footprint for pitch and converts to roofing
// squares.
func roofSquares(m models.MeasurementSet) float64 {
	return grossFloorArea(m) * RoofPitchInflation / RoofSquareDivisor
}

// QuantityResolver derives installed quantities for assemblies from building
// measurements. Pure and total: it never fails, substituting documented
// defaults for missing measurements.
type QuantityResolver struct{}

// NewQuantityResolver creates a new QuantityResolver.
func NewQuantityResolver() *QuantityResolver {
	return &QuantityResolver{}
}

// Resolve returns the installed quantity for an assembly given the project's
// measurements, in the assembly's unit.
func (r *QuantityResolver) Resolve(category models.AssemblyCategory, measurements models.MeasurementSet) float64 {
	rule, ok := quantityRules[category]
	if !ok {
		return grossFloorArea(measurements)
	}
	return rule(measurements)
}

// ResolveCode is a convenience for callers that have not pre-tagged the
// assembly; it categorizes the code and resolves in one step.
func (r *QuantityResolver) ResolveCode(assemblyCode string, measurements models.MeasurementSet) float64 {
	return r.Resolve(models.CategorizeAssemblyCode(assemblyCode), measurements)
}
