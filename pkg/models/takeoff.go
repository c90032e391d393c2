package models

// TakeoffItem is one quantified item extracted from a plan document by an
// extraction source. Immutable once emitted by a source.
type TakeoffItem struct {
	Category    string   `json:"category"`
	Description string   `json:"description"`
	Unit        string   `json:"unit"`
	Qty         float64  `json:"qty"`
	Notes       []string `json:"notes,omitempty"`
	Confidence  float64  `json:"confidence"`
}

// TakeoffResult is one extraction source's candidate takeoff.
type TakeoffResult struct {
	SourceID   string        `json:"source_id"`
	Items      []TakeoffItem `json:"items"`
	Summary    string        `json:"summary"`
	Confidence float64       `json:"confidence"`
}

// SourceOutcome captures one source's settled result: either a takeoff or a
// failure, never both. A failed source contributes nothing to the merge but
// does not abort it.
type SourceOutcome struct {
	SourceID string         `json:"source_id"`
	Result   *TakeoffResult `json:"result,omitempty"`
	Err      string         `json:"error,omitempty"`
}

// Failed reports whether the source failed to produce a takeoff.
func (o SourceOutcome) Failed() bool {
	return o.Result == nil
}

// MergedEstimate is the reconciled union of all successful sources' takeoffs.
// Items and Confidence are derived by the reconciler, never set independently.
type MergedEstimate struct {
	Items            []TakeoffItem   `json:"items"`
	Summary          string          `json:"summary"`
	Confidence       float64         `json:"confidence"`
	PerSourceResults []SourceOutcome `json:"per_source_results"`
}
