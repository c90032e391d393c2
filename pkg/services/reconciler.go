package services

import (
	"fmt"
	"strings"

	"github.com/xrash/smetrics"
	"go.uber.org/zap"

	"github.com/estimateai/plancost-engine/pkg/models"
)

// Dedup thresholds for cross-source item matching.
const (
	// DescriptionSimilarityThreshold is the minimum Jaro-Winkler similarity
	// for two descriptions to be considered the same real-world item.
	DescriptionSimilarityThreshold = 0.85

	// QuantityTolerance is the maximum relative quantity difference between
	// matching items.
	QuantityTolerance = 0.05
)

// categoryAliases maps extraction vocabulary variants to canonical categories.
var categoryAliases = map[string]string{
	"carpentry":      "framing",
	"framing lumber": "framing",
	"lumber":         "framing",
	"foundation":     "concrete",
	"footings":       "concrete",
	"roof":           "roofing",
	"shingles":       "roofing",
	"windows":        "windows_doors",
	"doors":          "windows_doors",
	"hvac":           "mechanical",
	"sheetrock":      "drywall",
	"gypsum":         "drywall",
	"paint":          "finishes",
	"painting":       "finishes",
	"trim":           "finishes",
}

// unitAliases maps unit spelling variants to canonical takeoff units.
var unitAliases = map[string]string{
	"sqft":    "sf",
	"sq ft":   "sf",
	"sq.ft.":  "sf",
	"sft":     "sf",
	"linft":   "lf",
	"lin ft":  "lf",
	"lnft":    "lf",
	"each":    "ea",
	"pcs":     "ea",
	"pc":      "ea",
	"count":   "ea",
	"square":  "sq",
	"squares": "sq",
	"cuyd":    "cy",
	"cu yd":   "cy",
	"yd3":     "cy",
	"cuft":    "cf",
	"cu ft":   "cf",
	"bdft":    "bf",
	"bd ft":   "bf",
}

// knownCategories and knownUnits define the canonical extraction vocabulary.
// Items outside it survive reconciliation but get flagged.
var knownCategories = map[string]bool{
	"concrete": true, "framing": true, "roofing": true, "siding": true,
	"windows_doors": true, "drywall": true, "flooring": true,
	"insulation": true, "mechanical": true, "plumbing": true,
	"electrical": true, "finishes": true, "other": true,
}

var knownUnits = map[string]bool{
	"ea": true, "lf": true, "sf": true, "sq": true, "cy": true, "cf": true, "bf": true,
}

// Reconciler merges multiple sources' takeoffs into one deduplicated result.
type Reconciler struct {
	logger *zap.Logger
}

// NewReconciler creates a new Reconciler.
func NewReconciler(logger *zap.Logger) *Reconciler {
	return &Reconciler{logger: logger.Named("reconciler")}
}

// Reconcile fuses the settled outcomes of all extraction sources. Failed
// sources contribute nothing but never abort the merge; if every source
// failed the result is empty with confidence 0 and a summary saying so.
func (r *Reconciler) Reconcile(outcomes []models.SourceOutcome) *models.MergedEstimate {
	merged := &models.MergedEstimate{
		PerSourceResults: outcomes,
	}

	successes := 0
	for _, o := range outcomes {
		if !o.Failed() {
			successes++
		}
	}

	if successes == 0 {
		merged.Summary = r.composeSummary(outcomes)
		if merged.Summary == "" {
			merged.Summary = "All extraction sources failed; no takeoff available."
		}
		return merged
	}

	for _, o := range outcomes {
		if o.Failed() {
			r.logger.Warn("source failed, excluded from merge",
				zap.String("source", o.SourceID),
				zap.String("error", o.Err))
			continue
		}
		for _, item := range o.Result.Items {
			candidate, ok := r.normalizeItem(item)
			if !ok {
				continue
			}
			r.mergeItem(merged, candidate)
		}
	}

	merged.Confidence = r.combinedConfidence(outcomes)
	merged.Summary = r.composeSummary(outcomes)
	return merged
}

// normalizeItem validates an untrusted item and maps its vocabulary through
// the alias tables. Returns false for items that must be dropped.
func (r *Reconciler) normalizeItem(item models.TakeoffItem) (models.TakeoffItem, bool) {
	item.Description = strings.TrimSpace(item.Description)
	if item.Description == "" || item.Qty <= 0 {
		return item, false
	}

	item.Category = normalizeCategory(item.Category)
	item.Unit = normalizeUnit(item.Unit)

	if item.Confidence < 0 {
		item.Confidence = 0
	} else if item.Confidence > 1 {
		item.Confidence = 1
	}

	// Unknown vocabulary is kept but flagged, not rejected.
	if !knownCategories[item.Category] {
		item.Notes = append(item.Notes, fmt.Sprintf("unrecognized category %q", item.Category))
	}
	if !knownUnits[item.Unit] {
		item.Notes = append(item.Notes, fmt.Sprintf("unrecognized unit %q", item.Unit))
	}

	return item, true
}

// mergeItem either collapses the candidate into an existing near-identical
// item or appends it.
func (r *Reconciler) mergeItem(merged *models.MergedEstimate, candidate models.TakeoffItem) {
	for i := range merged.Items {
		if r.sameItem(merged.Items[i], candidate) {
			merged.Items[i] = fuseItems(merged.Items[i], candidate)
			return
		}
	}
	merged.Items = append(merged.Items, candidate)
}

// sameItem decides whether two normalized items describe the same real-world
// item: equal category and unit, similar description, and quantities within
// tolerance.
func (r *Reconciler) sameItem(a, b models.TakeoffItem) bool {
	if a.Category != b.Category || a.Unit != b.Unit {
		return false
	}

	sim := smetrics.JaroWinkler(strings.ToLower(a.Description), strings.ToLower(b.Description), 0.7, 4)
	if sim < DescriptionSimilarityThreshold {
		return false
	}

	denom := max(a.Qty, b.Qty, 1)
	delta := a.Qty - b.Qty
	if delta < 0 {
		delta = -delta
	}
	return delta/denom <= QuantityTolerance
}

// fuseItems collapses two matching items: the higher-confidence item's
// description and notes win, and confidence becomes the average of the two.
func fuseItems(a, b models.TakeoffItem) models.TakeoffItem {
	winner := a
	if b.Confidence > a.Confidence {
		winner = b
	}
	winner.Confidence = (a.Confidence + b.Confidence) / 2
	return winner
}

// combinedConfidence weights each successful source's confidence by its item
// count, so a source that extracted more carries more weight. Uniform rule;
// applied identically for every merge.
func (r *Reconciler) combinedConfidence(outcomes []models.SourceOutcome) float64 {
	var weighted, totalWeight float64
	for _, o := range outcomes {
		if o.Failed() {
			continue
		}
		// An empty-but-successful source still participates with weight 1.
		weight := float64(len(o.Result.Items))
		if weight == 0 {
			weight = 1
		}
		weighted += o.Result.Confidence * weight
		totalWeight += weight
	}
	if totalWeight == 0 {
		return 0
	}
	return weighted / totalWeight
}

// composeSummary concatenates each source's summary labeled by source id;
// failed sources are marked unavailable.
func (r *Reconciler) composeSummary(outcomes []models.SourceOutcome) string {
	parts := make([]string, 0, len(outcomes))
	for _, o := range outcomes {
		if o.Failed() {
			parts = append(parts, fmt.Sprintf("%s: unavailable (%s)", o.SourceID, o.Err))
			continue
		}
		parts = append(parts, fmt.Sprintf("%s: %s", o.SourceID, o.Result.Summary))
	}
	return strings.Join(parts, "\n")
}

func normalizeCategory(category string) string {
	c := strings.ToLower(strings.TrimSpace(category))
	if canonical, ok := categoryAliases[c]; ok {
		return canonical
	}
	return c
}

func normalizeUnit(unit string) string {
	u := strings.ToLower(strings.TrimSpace(unit))
	if canonical, ok := unitAliases[u]; ok {
		return canonical
	}
	return u
}
