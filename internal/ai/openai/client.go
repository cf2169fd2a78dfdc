// Package openai adapts the OpenAI chat completions API, and any endpoint
// compatible with it, to ai.Completer.
package openai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	sdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
	"github.com/spigell/coldmail/internal/ai"
	"github.com/spigell/coldmail/internal/logger"
	"github.com/spigell/coldmail/internal/utils"
	"go.uber.org/zap"
)

const (
	Provider = "openai"

	defaultModel        = "gpt-4o-mini"
	defaultMaxTokens    = 2048
	defaultMaxRetries   = 3
	defaultMaxLogLength = 200
)

type Config struct {
	APIKey       string
	BaseURL      string
	Model        string
	System       string
	MaxTokens    int
	MaxRetries   int
	MaxLogLength int
}

type Client struct {
	client    sdk.Client
	model     string
	system    string
	maxTokens int64
	maxLogLen int
	logger    *zap.Logger
}

func New(cfg Config, log *zap.Logger) (*Client, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errors.New("openai api key is required")
	}

	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = defaultModel
	}

	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}

	maxLogLen := cfg.MaxLogLength
	if maxLogLen <= 0 {
		maxLogLen = defaultMaxLogLength
	}

	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(maxRetries),
	}
	if baseURL := strings.TrimSpace(cfg.BaseURL); baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}

	return &Client{
		client:    sdk.NewClient(opts...),
		model:     model,
		system:    strings.TrimSpace(cfg.System),
		maxTokens: int64(maxTokens),
		maxLogLen: maxLogLen,
		logger:    logger.WithCapability(log, Provider, model, ai.CapabilityCompletion),
	}, nil
}

// Complete implements ai.Completer.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", errors.New("prompt must not be empty")
	}

	messages := make([]sdk.ChatCompletionMessageParamUnion, 0, 2)
	if c.system != "" {
		messages = append(messages, sdk.SystemMessage(c.system))
	}
	messages = append(messages, sdk.UserMessage(prompt))

	c.logger.Debug("openai request",
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", utils.TruncateForLog(prompt, c.maxLogLen)),
	)

	resp, err := c.client.Chat.Completions.New(ctx, sdk.ChatCompletionNewParams{
		Model:     shared.ChatModel(c.model),
		Messages:  messages,
		MaxTokens: sdk.Int(c.maxTokens),
	})
	if err != nil {
		return "", ai.Failure(ai.CapabilityCompletion, Provider, fmt.Errorf("create chat completion: %w", err))
	}

	if len(resp.Choices) == 0 {
		return "", ai.Failure(ai.CapabilityCompletion, Provider, errors.New("openai api returned no choices"))
	}

	choice := resp.Choices[0]
	output := strings.TrimSpace(choice.Message.Content)
	if output == "" {
		return "", ai.Failure(ai.CapabilityCompletion, Provider, errors.New("openai api returned empty response"))
	}

	c.logger.Debug("openai response",
		zap.String("finish_reason", string(choice.FinishReason)),
		zap.Int("response_length", utf8.RuneCountInString(output)),
		zap.String("response_preview", utils.TruncateForLog(output, c.maxLogLen)),
	)

	return output, nil
}

func (c *Client) Provider() string {
	return Provider
}

func (c *Client) Model() string {
	return c.model
}
