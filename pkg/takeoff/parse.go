package takeoff

import (
	"fmt"
	"strings"

	"github.com/estimateai/plancost-engine/pkg/models"
)

// maxPlanTextChars caps the plan text sent to a model so a large plan set
// cannot overflow the context window.
const maxPlanTextChars = 120_000

// takeoffResponse is the JSON shape every source's model is instructed to
// return. Fields are loosely typed on purpose: model output is untrusted and
// gets validated by parseResult before anything downstream sees it.
type takeoffResponse struct {
	Items []struct {
		Category    string   `json:"category"`
		Description string   `json:"description"`
		Unit        string   `json:"unit"`
		Qty         float64  `json:"qty"`
		Notes       []string `json:"notes"`
		Confidence  *float64 `json:"confidence"`
	} `json:"items"`
	Summary    string   `json:"summary"`
	Confidence *float64 `json:"confidence"`
}

// systemPrompt instructs the model to emit the takeoffResponse JSON shape.
func systemPrompt() string {
	return `You are a senior residential construction estimator. From the plan set you are given, extract a clean, first-pass takeoff.

Return ONLY valid JSON (no markdown, no commentary) in this exact shape:
{
  "items": [
    {
      "category": "concrete" | "framing" | "roofing" | "siding" | "windows_doors" | "drywall" | "flooring" | "insulation" | "mechanical" | "plumbing" | "electrical" | "finishes" | "other",
      "description": "clear item description",
      "unit": "ea" | "lf" | "sf" | "sq" | "cy" | "cf" | "bf",
      "qty": number,
      "notes": ["sheet or detail reference"],
      "confidence": number
    }
  ],
  "summary": "one-paragraph summary of major quantities & assumptions",
  "confidence": number
}
Confidence values are between 0 and 1. If dimensions are missing, state assumptions in notes.`
}

// planText returns the document text capped to the model-safe length.
func planText(doc Document) (string, error) {
	text := strings.TrimSpace(doc.Text)
	if text == "" {
		return "", fmt.Errorf("no extractable text in document %q", doc.Filename)
	}
	if len(text) > maxPlanTextChars {
		text = text[:maxPlanTextChars]
	}
	return text, nil
}

// parseResult turns a raw model reply into a typed TakeoffResult. Items with
// an empty description or non-positive quantity are dropped; confidence
// values are clamped into [0,1]. Category and unit are lower-cased but not
// otherwise rewritten here; vocabulary normalization belongs to the reconciler.
func parseResult(sourceID, raw string) (*models.TakeoffResult, error) {
	resp, err := ParseJSONResponse[takeoffResponse](raw)
	if err != nil {
		return nil, fmt.Errorf("parse %s takeoff: %w", sourceID, err)
	}

	items := make([]models.TakeoffItem, 0, len(resp.Items))
	for _, it := range resp.Items {
		desc := strings.TrimSpace(it.Description)
		if desc == "" || it.Qty <= 0 {
			continue
		}

		notes := it.Notes
		if len(notes) > 6 {
			notes = notes[:6]
		}

		items = append(items, models.TakeoffItem{
			Category:    strings.ToLower(strings.TrimSpace(it.Category)),
			Description: desc,
			Unit:        strings.ToLower(strings.TrimSpace(it.Unit)),
			Qty:         it.Qty,
			Notes:       notes,
			Confidence:  clampConfidence(it.Confidence, 0.6),
		})
	}

	summary := strings.TrimSpace(resp.Summary)
	if summary == "" {
		summary = "Extraction complete."
	}

	return &models.TakeoffResult{
		SourceID:   sourceID,
		Items:      items,
		Summary:    summary,
		Confidence: clampConfidence(resp.Confidence, 0.6),
	}, nil
}

// clampConfidence coerces an optional model-reported confidence into [0,1],
// substituting def when absent.
func clampConfidence(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	switch {
	case *v < 0:
		return 0
	case *v > 1:
		return 1
	default:
		return *v
	}
}
