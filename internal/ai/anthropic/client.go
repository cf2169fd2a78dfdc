// Package anthropic adapts the Anthropic Messages API to ai.Completer.
package anthropic

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/spigell/coldmail/internal/ai"
	"github.com/spigell/coldmail/internal/logger"
	"github.com/spigell/coldmail/internal/utils"
	"go.uber.org/zap"
)

const (
	Provider = "anthropic"

	defaultModel        = "claude-sonnet-4-5"
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

// Client sends single-turn prompts through the Messages API. Retries on rate
// limits and server errors are left to the SDK.
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
		return nil, errors.New("anthropic api key is required")
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

	params := sdk.MessageNewParams{
		Model:     sdk.Model(c.model),
		MaxTokens: c.maxTokens,
		Messages: []sdk.MessageParam{
			sdk.NewUserMessage(sdk.NewTextBlock(prompt)),
		},
	}
	if c.system != "" {
		params.System = []sdk.TextBlockParam{{Text: c.system}}
	}

	c.logger.Debug("anthropic request",
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", utils.TruncateForLog(prompt, c.maxLogLen)),
	)

	resp, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return "", ai.Failure(ai.CapabilityCompletion, Provider, fmt.Errorf("create message: %w", err))
	}

	var builder strings.Builder
	for _, block := range resp.Content {
		if block.Type != "text" {
			continue
		}
		builder.WriteString(block.Text)
	}

	output := strings.TrimSpace(builder.String())
	if output == "" {
		return "", ai.Failure(ai.CapabilityCompletion, Provider, errors.New("anthropic api returned empty response"))
	}

	c.logger.Debug("anthropic response",
		zap.String("stop_reason", string(resp.StopReason)),
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
