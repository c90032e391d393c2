package takeoff

import (
	"context"

	"github.com/estimateai/plancost-engine/pkg/models"
)

// MockSource is a configurable Source and Answerer for tests.
type MockSource struct {
	SourceID string
	Result   *models.TakeoffResult
	Err      error

	// AnswerText and AnswerErr drive the canned Answer behavior.
	AnswerText string
	AnswerErr  error

	// PanicWith, if set, makes Extract panic with this value.
	PanicWith any

	// ExtractFunc, if set, overrides the canned behavior entirely.
	ExtractFunc func(ctx context.Context, doc Document) (*models.TakeoffResult, error)

	// AnswerFunc, if set, overrides the canned answer behavior entirely.
	AnswerFunc func(ctx context.Context, question, contextText string) (string, error)
}

// ID returns the configured source identifier.
func (m *MockSource) ID() string { return m.SourceID }

// Extract returns the configured result or error.
func (m *MockSource) Extract(ctx context.Context, doc Document) (*models.TakeoffResult, error) {
	if m.ExtractFunc != nil {
		return m.ExtractFunc(ctx, doc)
	}
	if m.PanicWith != nil {
		panic(m.PanicWith)
	}
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Result, nil
}

// Answer returns the configured answer or error.
func (m *MockSource) Answer(ctx context.Context, question, contextText string) (string, error) {
	if m.AnswerFunc != nil {
		return m.AnswerFunc(ctx, question, contextText)
	}
	if m.AnswerErr != nil {
		return "", m.AnswerErr
	}
	return m.AnswerText, nil
}
