package services

import (
	"fmt"

	"github.com/estimateai/plancost-engine/pkg/apperrors"
	"github.com/estimateai/plancost-engine/pkg/models"
)

// Default markup percentages. An earlier pricing variant used 15% profit;
// 10/10 is the canonical policy now.
const (
	DefaultOverheadPct = 10.0
	DefaultProfitPct   = 10.0
)

// EstimateAggregator folds subtotals into a final breakdown. Deterministic,
// pure, no I/O.
type EstimateAggregator struct{}

// NewEstimateAggregator creates a new EstimateAggregator.
func NewEstimateAggregator() *EstimateAggregator {
	return &EstimateAggregator{}
}

// Aggregate applies overhead and profit markups:
//
//	overhead = (materials + labor) × overheadPct/100
//	profit   = (materials + labor + overhead) × profitPct/100
//	total    = materials + labor + overhead + profit
//
// Negative inputs indicate a caller bug and fail fast.
func (a *EstimateAggregator) Aggregate(
	subtotalMaterial, subtotalLabor, overheadPct, profitPct float64,
) (*models.EstimateBreakdown, error) {
	if subtotalMaterial < 0 || subtotalLabor < 0 {
		return nil, fmt.Errorf("subtotals must be non-negative: %w", apperrors.ErrInvalidQuantity)
	}
	if overheadPct < 0 || profitPct < 0 {
		return nil, fmt.Errorf("overhead %.2f / profit %.2f: %w", overheadPct, profitPct, apperrors.ErrInvalidPercent)
	}

	base := subtotalMaterial + subtotalLabor
	overhead := base * overheadPct / 100
	profit := (base + overhead) * profitPct / 100

	return &models.EstimateBreakdown{
		SubtotalMaterial: subtotalMaterial,
		SubtotalLabor:    subtotalLabor,
		OverheadPct:      overheadPct,
		Overhead:         overhead,
		ProfitPct:        profitPct,
		Profit:           profit,
		TotalAmount:      base + overhead + profit,
	}, nil
}
