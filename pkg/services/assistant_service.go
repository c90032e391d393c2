package services

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/estimateai/plancost-engine/pkg/apperrors"
	"github.com/estimateai/plancost-engine/pkg/takeoff"
)

// AssistantService answers free-form estimating questions through the
// configured AI providers. Providers are tried in order; the first answer
// wins, so one flaky provider degrades to its peers instead of failing the
// request.
type AssistantService struct {
	answerers []takeoff.Answerer
	logger    *zap.Logger
}

// NewAssistantService creates a new AssistantService.
func NewAssistantService(answerers []takeoff.Answerer, logger *zap.Logger) *AssistantService {
	return &AssistantService{
		answerers: answerers,
		logger:    logger.Named("assistant-service"),
	}
}

// Ask answers an estimating question, optionally grounded in caller-supplied
// context such as a takeoff summary. A blank question is ErrInvalidInput;
// with no providers configured it returns ErrNoSources.
func (s *AssistantService) Ask(ctx context.Context, question, contextText string) (string, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return "", apperrors.ErrInvalidInput
	}
	if len(s.answerers) == 0 {
		return "", apperrors.ErrNoSources
	}

	var lastErr error
	for _, a := range s.answerers {
		answer, err := a.Answer(ctx, question, contextText)
		if err != nil {
			s.logger.Warn("assistant provider failed, trying next",
				zap.String("source", a.ID()),
				zap.Error(err))
			lastErr = err
			continue
		}
		s.logger.Info("question answered", zap.String("source", a.ID()))
		return answer, nil
	}
	return "", fmt.Errorf("all assistant providers failed: %w", lastErr)
}
