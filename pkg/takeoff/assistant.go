package takeoff

import (
	"context"
	"strings"
)

// assistantSystemPrompt frames Q&A replies for estimators.
const assistantSystemPrompt = "You are an estimating assistant. Answer concisely and practically " +
	"for residential construction. If you lack specific numbers from context, state assumptions clearly."

// Answerer is a provider that can answer free-form estimating questions.
// Both built-in extraction sources implement it.
type Answerer interface {
	// ID returns the stable source identifier.
	ID() string

	// Answer responds to an estimating question, optionally grounded in
	// caller-supplied context such as a takeoff summary.
	Answer(ctx context.Context, question, contextText string) (string, error)
}

// assistantUserPrompt renders the question with its optional context block.
func assistantUserPrompt(question, contextText string) string {
	block := strings.TrimSpace(contextText)
	if block == "" {
		block = "—"
	}
	return "Question: " + question + "\n\nContext (optional):\n" + block
}

// Compile-time interface checks for the provider implementations.
var (
	_ Answerer = (*OpenAISource)(nil)
	_ Answerer = (*AnthropicSource)(nil)
	_ Answerer = (*MockSource)(nil)
)
