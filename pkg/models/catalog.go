// Package models contains domain types for plancost-engine.
package models

import (
	"strings"

	"github.com/google/uuid"
)

// AssemblyCategory is the quantity-derivation class assigned to an assembly
// when the catalog is loaded. The tag decides which building measurement an
// assembly's installed quantity is derived from.
type AssemblyCategory string

const (
	CategoryFoundation   AssemblyCategory = "foundation"
	CategoryExteriorWall AssemblyCategory = "exterior_wall"
	CategoryRoof         AssemblyCategory = "roof"
	CategoryInterior     AssemblyCategory = "interior"
	CategoryWindow       AssemblyCategory = "window"
	CategoryDoor         AssemblyCategory = "door"
)

// codeCategoryRule maps an assembly code prefix to its quantity category.
// Rules are ordered; the first match wins. The catalog is designed so that
// prefixes never conflict.
type codeCategoryRule struct {
	prefix   string
	category AssemblyCategory
}

var codeCategoryRules = []codeCategoryRule{
	{"FOUND", CategoryFoundation},
	{"EXT_WALL", CategoryExteriorWall},
	{"ROOF", CategoryRoof},
	{"INT", CategoryInterior},
	{"FLOOR", CategoryInterior},
	{"CEIL", CategoryInterior},
	{"WIN", CategoryWindow},
	{"DOOR", CategoryDoor},
}

// CategorizeAssemblyCode assigns the quantity category for an assembly code.
// Called at catalog load time so quantity resolution is a tag lookup, not a
// runtime string scan. Unmatched codes default to floor-area pricing.
func CategorizeAssemblyCode(code string) AssemblyCategory {
	upper := strings.ToUpper(code)
	for _, rule := range codeCategoryRules {
		if strings.HasPrefix(upper, rule.prefix) {
			return rule.category
		}
	}
	return CategoryInterior
}

// Assembly is a catalog recipe describing the materials and labor required to
// install one unit of a building component. Catalog data is immutable at
// runtime; QuantityCategory is assigned at load time from the assembly code.
type Assembly struct {
	ID               uuid.UUID        `json:"id"`
	Code             string           `json:"code"`
	Name             string           `json:"name"`
	Category         string           `json:"category"`
	Unit             string           `json:"unit"`
	QuantityCategory AssemblyCategory `json:"quantity_category"`
	MaterialLines    []MaterialLine   `json:"material_lines"`
	LaborLines       []LaborLine      `json:"labor_lines"`
}

// MaterialLine is the quantity of one material consumed per unit of assembly,
// inflated by (1 + WasteFactor) when installed.
type MaterialLine struct {
	MaterialID  uuid.UUID `json:"material_id"`
	QtyPerUnit  float64   `json:"qty_per_unit"`
	WasteFactor float64   `json:"waste_factor"`
}

// LaborLine is the labor hours of one trade consumed per unit of assembly.
type LaborLine struct {
	TradeCode    string  `json:"trade_code"`
	HoursPerUnit float64 `json:"hours_per_unit"`
}

// Material is a priced catalog material.
type Material struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	Unit     string    `json:"unit"`
	BaseCost float64   `json:"base_cost"`
	Category string    `json:"category"`
}

// Region holds regional pricing multipliers.
type Region struct {
	ID                 uuid.UUID `json:"id"`
	Code               string    `json:"code"`
	Name               string    `json:"name"`
	MaterialMultiplier float64   `json:"material_multiplier"`
	LaborMultiplier    float64   `json:"labor_multiplier"`
}

// RegionPriceOverride pins an explicit unit cost for a material in a region.
// An override takes precedence over baseCost × materialMultiplier.
type RegionPriceOverride struct {
	MaterialID  uuid.UUID `json:"material_id"`
	RegionID    uuid.UUID `json:"region_id"`
	CostPerUnit float64   `json:"cost_per_unit"`
}

// LaborRate is the hourly rate for a trade in a region.
type LaborRate struct {
	RegionID    uuid.UUID `json:"region_id"`
	TradeCode   string    `json:"trade_code"`
	Description string    `json:"description"`
	RatePerHour float64   `json:"rate_per_hour"`
}

// SelectionOption is one choice in a build-specification dropdown. Options
// without a linked assembly are legal; they represent unpriced, manual-only
// choices that the rollup skips.
type SelectionOption struct {
	ID         uuid.UUID  `json:"id"`
	Category   string     `json:"category"`
	Code       string     `json:"code"`
	Label      string     `json:"label"`
	AssemblyID *uuid.UUID `json:"assembly_id,omitempty"`
	SortOrder  int        `json:"sort_order"`
}
