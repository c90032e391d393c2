package models

import (
	"time"

	"github.com/google/uuid"
)

// LineItemKind distinguishes material from labor line items.
type LineItemKind string

const (
	LineItemMaterial LineItemKind = "material"
	LineItemLabor    LineItemKind = "labor"
)

// LineItem is one priced row of an estimate. Derived data; identity lives in
// the breakdown that contains it.
type LineItem struct {
	Kind        LineItemKind `json:"kind"`
	Category    string       `json:"category"`
	Description string       `json:"description"`
	Quantity    float64      `json:"quantity"`
	Unit        string       `json:"unit"`
	UnitCost    float64      `json:"unit_cost"`
	Extended    float64      `json:"extended"`
	Notes       string       `json:"notes,omitempty"`
}

// EstimateBreakdown is the fully priced output of an estimate computation.
// Invariant: TotalAmount = (SubtotalMaterial+SubtotalLabor) ×
// (1+overheadPct/100) × (1+profitPct/100) up to rounding.
type EstimateBreakdown struct {
	ID               uuid.UUID  `json:"id"`
	ProjectID        uuid.UUID  `json:"project_id"`
	LineItems        []LineItem `json:"line_items"`
	SubtotalMaterial float64    `json:"subtotal_material"`
	SubtotalLabor    float64    `json:"subtotal_labor"`
	OverheadPct      float64    `json:"overhead_pct"`
	Overhead         float64    `json:"overhead"`
	ProfitPct        float64    `json:"profit_pct"`
	Profit           float64    `json:"profit"`
	TotalAmount      float64    `json:"total_amount"`
	CreatedAt        time.Time  `json:"created_at"`
}
