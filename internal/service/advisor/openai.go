package advisor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/iamasit07/4-in-a-row-duel/backend/internal/domain"
)

const chatTemperature = 0.2

type Config struct {
	APIKey  string
	Model   string
	BaseURL string
	Timeout time.Duration
}

// OpenAIAdvisor talks to an OpenAI-compatible chat completion endpoint.
type OpenAIAdvisor struct {
	client  *openai.Client
	model   string
	timeout time.Duration
	logger  *zap.Logger
}

// NewOpenAIAdvisor returns nil when no API key is configured.
func NewOpenAIAdvisor(cfg Config, logger *zap.Logger) *OpenAIAdvisor {
	if cfg.APIKey == "" {
		return nil
	}
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	model := cfg.Model
	if model == "" {
		model = openai.GPT3Dot5Turbo
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &OpenAIAdvisor{
		client:  openai.NewClientWithConfig(clientConfig),
		model:   model,
		timeout: cfg.Timeout,
		logger:  logger.Named("advisor"),
	}
}

func (a *OpenAIAdvisor) SuggestColumn(ctx context.Context, board domain.Board, mover domain.Color, difficulty domain.Difficulty) (int, error) {
	reply, err := a.complete(ctx, Temperature(difficulty), []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: suggestionPrompt(board, mover, difficulty)},
	})
	if err != nil {
		return -1, err
	}

	col, err := ParseColumn(reply)
	if err != nil {
		a.logger.Debug("unusable suggestion", zap.String("reply", reply))
		return -1, err
	}
	return col, nil
}

func (a *OpenAIAdvisor) complete(ctx context.Context, temperature float32, messages []openai.ChatCompletionMessage) (string, error) {
	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       a.model,
		Messages:    messages,
		Temperature: temperature,
	})
	if err != nil {
		return "", fmt.Errorf("failed to get chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("chat completion returned no choices")
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
