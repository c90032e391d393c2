// Package takeoff provides the plan-document extraction boundary: pluggable
// AI extraction sources, strict parsing of their free-form output into typed
// takeoff results, and bounded-parallel execution.
package takeoff

import (
	"context"

	"github.com/estimateai/plancost-engine/pkg/models"
)

// Document is one uploaded plan document handed to extraction sources. PDF
// holds the raw bytes; Text holds pre-extracted plan text when the caller has
// it. Each source decides which representation it consumes.
type Document struct {
	Filename string
	PDF      []byte
	Text     string
}

// Source is one extraction provider. Extract returns a candidate takeoff or
// an error and must honor ctx cancellation. Transient provider errors may be
// retried inside the adapter; a returned error is final.
// Use this interface for dependency injection to enable mocking in tests.
type Source interface {
	// ID returns the stable source identifier used in merge summaries.
	ID() string

	// Extract analyzes the document and returns a typed takeoff result.
	Extract(ctx context.Context, doc Document) (*models.TakeoffResult, error)
}

// Compile-time interface checks for the provider implementations.
var (
	_ Source = (*OpenAISource)(nil)
	_ Source = (*AnthropicSource)(nil)
	_ Source = (*MockSource)(nil)
)
