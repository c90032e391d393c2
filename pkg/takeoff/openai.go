package takeoff

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/estimateai/plancost-engine/pkg/models"
	"github.com/estimateai/plancost-engine/pkg/retry"
)

// OpenAISource extracts takeoffs using an OpenAI chat model.
type OpenAISource struct {
	client *openai.Client
	model  string
	logger *zap.Logger
}

// OpenAIConfig holds configuration for creating an OpenAI extraction source.
type OpenAIConfig struct {
	APIKey   string
	Model    string // e.g., "gpt-4o-mini"
	Endpoint string // Optional override for OpenAI-compatible endpoints
}

// NewOpenAISource creates a new OpenAI extraction source.
func NewOpenAISource(cfg *OpenAIConfig, logger *zap.Logger) (*OpenAISource, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("api key is required")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("model is required")
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.Endpoint != "" {
		clientConfig.BaseURL = strings.TrimSuffix(cfg.Endpoint, "/")
	}

	return &OpenAISource{
		client: openai.NewClientWithConfig(clientConfig),
		model:  cfg.Model,
		logger: logger.Named("takeoff-openai"),
	}, nil
}

// ID returns the stable source identifier.
func (s *OpenAISource) ID() string { return "openai" }

// Answer responds to a free-form estimating question using the chat model.
func (s *OpenAISource) Answer(ctx context.Context, question, contextText string) (string, error) {
	s.logger.Debug("assistant request",
		zap.String("model", s.model),
		zap.Int("question_len", len(question)))

	start := time.Now()

	resp, err := retry.DoWithResult(ctx, nil, func() (openai.ChatCompletionResponse, error) {
		return s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model:       s.model,
			Temperature: 0.3,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleSystem, Content: assistantSystemPrompt},
				{Role: openai.ChatMessageRoleUser, Content: assistantUserPrompt(question, contextText)},
			},
		})
	})
	if err != nil {
		s.logger.Error("assistant request failed",
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		return "", fmt.Errorf("openai answer: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices in response")
	}
	answer := strings.TrimSpace(resp.Choices[0].Message.Content)
	if answer == "" {
		return "", fmt.Errorf("empty answer in response")
	}

	s.logger.Info("assistant answer completed",
		zap.Int("prompt_tokens", resp.Usage.PromptTokens),
		zap.Int("completion_tokens", resp.Usage.CompletionTokens),
		zap.Duration("elapsed", time.Since(start)))

	return answer, nil
}

// Extract sends the plan text to the model and parses the reply into a typed
// takeoff result.
func (s *OpenAISource) Extract(ctx context.Context, doc Document) (*models.TakeoffResult, error) {
	text, err := planText(doc)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("extraction request",
		zap.String("model", s.model),
		zap.String("document", doc.Filename),
		zap.Int("text_len", len(text)))

	start := time.Now()

	resp, err := retry.DoWithResult(ctx, nil, func() (openai.ChatCompletionResponse, error) {
		return s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model:       s.model,
			Temperature: 0.2,
			ResponseFormat: &openai.ChatCompletionResponseFormat{
				Type: openai.ChatCompletionResponseFormatTypeJSONObject,
			},
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleSystem, Content: systemPrompt()},
				{
					Role: openai.ChatMessageRoleUser,
					Content: "Extract quantities from this plan text. If dimensions appear, " +
						"convert to quantities where reasonable.\n\n" + text,
				},
			},
		})
	})
	if err != nil {
		s.logger.Error("extraction request failed",
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		return nil, fmt.Errorf("openai extraction: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no choices in response")
	}

	result, err := parseResult(s.ID(), resp.Choices[0].Message.Content)
	if err != nil {
		return nil, err
	}

	s.logger.Info("extraction completed",
		zap.Int("items", len(result.Items)),
		zap.Int("prompt_tokens", resp.Usage.PromptTokens),
		zap.Int("completion_tokens", resp.Usage.CompletionTokens),
		zap.Duration("elapsed", time.Since(start)))

	return result, nil
}
