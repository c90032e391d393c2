package models

import "github.com/google/uuid"

// Feature type keys for building measurements. A project has at most one
// measurement per feature type.
const (
	FeatureGrossArea   = "gross_area"
	FeatureWidth       = "width"
	FeatureDepth       = "depth"
	FeatureWallHeight  = "wall_height"
	FeatureWindowCount = "window_count"
	FeatureDoorCount   = "door_count"
	FeatureStories     = "stories"
)

// Measurement is one building measurement for a project, keyed by feature
// type. Produced by extraction or manual entry; the estimation core only
// reads measurements.
type Measurement struct {
	ProjectID    uuid.UUID `json:"project_id"`
	FeatureType  string    `json:"feature_type"`
	ValueNumeric *float64  `json:"value_numeric,omitempty"`
	ValueText    *string   `json:"value_text,omitempty"`
}

// MeasurementSet indexes a project's measurements by feature type for the
// quantity resolver.
type MeasurementSet map[string]Measurement

// Numeric returns the numeric value for a feature type, or the given default
// when the measurement is absent or has no numeric value.
func (m MeasurementSet) Numeric(featureType string, def float64) float64 {
	meas, ok := m[featureType]
	if !ok || meas.ValueNumeric == nil {
		return def
	}
	return *meas.ValueNumeric
}
