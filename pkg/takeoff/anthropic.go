package takeoff

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/liushuangls/go-anthropic/v2"
	"go.uber.org/zap"

	"github.com/estimateai/plancost-engine/pkg/models"
	"github.com/estimateai/plancost-engine/pkg/retry"
)

// anthropicMaxTokens bounds the reply length; a full takeoff fits comfortably.
const anthropicMaxTokens = 4096

// AnthropicSource extracts takeoffs using a Claude model.
type AnthropicSource struct {
	client *anthropic.Client
	model  string
	logger *zap.Logger
}

// AnthropicConfig holds configuration for creating an Anthropic extraction source.
type AnthropicConfig struct {
	APIKey string
	Model  string // e.g., "claude-sonnet-4-20250514"
}

// NewAnthropicSource creates a new Anthropic extraction source.
func NewAnthropicSource(cfg *AnthropicConfig, logger *zap.Logger) (*AnthropicSource, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("api key is required")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("model is required")
	}

	return &AnthropicSource{
		client: anthropic.NewClient(cfg.APIKey),
		model:  cfg.Model,
		logger: logger.Named("takeoff-anthropic"),
	}, nil
}

// ID returns the stable source identifier.
func (s *AnthropicSource) ID() string { return "anthropic" }

// Answer responds to a free-form estimating question using the model.
func (s *AnthropicSource) Answer(ctx context.Context, question, contextText string) (string, error) {
	s.logger.Debug("assistant request",
		zap.String("model", s.model),
		zap.Int("question_len", len(question)))

	prompt := assistantUserPrompt(question, contextText)
	temperature := float32(0.3)
	start := time.Now()

	resp, err := retry.DoWithResult(ctx, nil, func() (anthropic.MessagesResponse, error) {
		return s.client.CreateMessages(ctx, anthropic.MessagesRequest{
			Model:       anthropic.Model(s.model),
			System:      assistantSystemPrompt,
			MaxTokens:   anthropicMaxTokens,
			Temperature: &temperature,
			Messages: []anthropic.Message{
				{Role: anthropic.RoleUser, Content: []anthropic.MessageContent{
					{Type: anthropic.MessagesContentTypeText, Text: &prompt},
				}},
			},
		})
	})
	if err != nil {
		s.logger.Error("assistant request failed",
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		return "", fmt.Errorf("anthropic answer: %w", err)
	}

	for _, block := range resp.Content {
		if block.Type == anthropic.MessagesContentTypeText && block.Text != nil {
			if answer := strings.TrimSpace(*block.Text); answer != "" {
				s.logger.Info("assistant answer completed",
					zap.Duration("elapsed", time.Since(start)))
				return answer, nil
			}
		}
	}
	return "", fmt.Errorf("no text content in response")
}

// Extract sends the plan text to the model and parses the reply into a typed
// takeoff result.
func (s *AnthropicSource) Extract(ctx context.Context, doc Document) (*models.TakeoffResult, error) {
	text, err := planText(doc)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("extraction request",
		zap.String("model", s.model),
		zap.String("document", doc.Filename),
		zap.Int("text_len", len(text)))

	prompt := "Extract quantities from this plan text. If dimensions appear, " +
		"convert to quantities where reasonable.\n\n" + text

	start := time.Now()

	resp, err := retry.DoWithResult(ctx, nil, func() (anthropic.MessagesResponse, error) {
		return s.client.CreateMessages(ctx, anthropic.MessagesRequest{
			Model:     anthropic.Model(s.model),
			System:    systemPrompt(),
			MaxTokens: anthropicMaxTokens,
			Messages: []anthropic.Message{
				{Role: anthropic.RoleUser, Content: []anthropic.MessageContent{
					{Type: anthropic.MessagesContentTypeText, Text: &prompt},
				}},
			},
		})
	})
	if err != nil {
		s.logger.Error("extraction request failed",
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		return nil, fmt.Errorf("anthropic extraction: %w", err)
	}

	responseText := ""
	for _, block := range resp.Content {
		if block.Type == anthropic.MessagesContentTypeText && block.Text != nil {
			responseText = *block.Text
			break
		}
	}
	if responseText == "" {
		return nil, fmt.Errorf("no text content in response")
	}

	result, err := parseResult(s.ID(), responseText)
	if err != nil {
		return nil, err
	}

	s.logger.Info("extraction completed",
		zap.Int("items", len(result.Items)),
		zap.Duration("elapsed", time.Since(start)))

	return result, nil
}
