package cmd

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/spigell/coldmail/internal/ai"
	"github.com/spigell/coldmail/internal/ai/anthropic"
	"github.com/spigell/coldmail/internal/ai/gemini"
	"github.com/spigell/coldmail/internal/ai/openai"
	"github.com/spigell/coldmail/internal/ranking"
	"github.com/spigell/coldmail/internal/secrets"
)

// providers holds the capabilities built from the ai section of the config.
type providers struct {
	completer ai.Completer
	scorer    ranking.Scorer
}

func newProviders(ctx context.Context, config *Config, logger *zap.Logger) (*providers, error) {
	var (
		p            providers
		geminiClient *genai.Client
	)

	gemClient := func() (*genai.Client, error) {
		if geminiClient != nil {
			return geminiClient, nil
		}
		cfg := geminiConfig(config.AI)
		key, err := apiKey("gemini api key", cfg.ProviderConfig, "GEMINI_API_KEY")
		if err != nil {
			return nil, fmt.Errorf("%w (set ai.gemini.api-key-file or GEMINI_API_KEY)", err)
		}
		geminiClient, err = gemini.NewClient(ctx, key)
		return geminiClient, err
	}

	switch config.AI.Provider {
	case gemini.Provider:
		client, err := gemClient()
		if err != nil {
			return nil, err
		}
		cfg := geminiConfig(config.AI)
		p.completer, err = gemini.NewGenerator(client, gemini.Config{
			Model:        cfg.Model,
			MaxRetries:   cfg.MaxRetries,
			MaxLogLength: cfg.MaxLogLength,
		}, logger)
		if err != nil {
			return nil, err
		}
	case anthropic.Provider:
		cfg := providerConfig(config.AI.Anthropic)
		key, err := apiKey("anthropic api key", cfg, "ANTHROPIC_API_KEY")
		if err != nil {
			return nil, fmt.Errorf("%w (set ai.anthropic.api-key-file or ANTHROPIC_API_KEY)", err)
		}
		p.completer, err = anthropic.New(anthropic.Config{
			APIKey:       key,
			BaseURL:      cfg.BaseURL,
			Model:        cfg.Model,
			MaxTokens:    cfg.MaxTokens,
			MaxRetries:   cfg.MaxRetries,
			MaxLogLength: cfg.MaxLogLength,
		}, logger)
		if err != nil {
			return nil, err
		}
	case openai.Provider:
		cfg := providerConfig(config.AI.OpenAI)
		key, err := apiKey("openai api key", cfg, "OPENAI_API_KEY")
		if err != nil {
			return nil, fmt.Errorf("%w (set ai.openai.api-key-file or OPENAI_API_KEY)", err)
		}
		p.completer, err = openai.New(openai.Config{
			APIKey:       key,
			BaseURL:      cfg.BaseURL,
			Model:        cfg.Model,
			MaxTokens:    cfg.MaxTokens,
			MaxRetries:   cfg.MaxRetries,
			MaxLogLength: cfg.MaxLogLength,
		}, logger)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported ai provider: %s", config.AI.Provider)
	}

	switch config.Ranking.Scorer {
	case "bleve":
		p.scorer = ranking.NewBleveScorer()
	case "embedding":
		client, err := gemClient()
		if err != nil {
			return nil, fmt.Errorf("embedding scorer: %w", err)
		}
		embedder, err := gemini.NewEmbedder(client, geminiConfig(config.AI).EmbeddingModel, logger)
		if err != nil {
			return nil, err
		}
		p.scorer = ranking.NewEmbeddingScorer(embedder)
	case "none":
	default:
		return nil, fmt.Errorf("unsupported ranking scorer: %s", config.Ranking.Scorer)
	}

	return &p, nil
}

func apiKey(name string, cfg ProviderConfig, env string) (string, error) {
	return secrets.Load(secrets.Source{
		Name:  name,
		Value: cfg.APIKey,
		File:  cfg.APIKeyFile,
		Env:   env,
	})
}

func geminiConfig(cfg AIConfig) GeminiConfig {
	if cfg.Gemini == nil {
		return GeminiConfig{}
	}
	return *cfg.Gemini
}

func providerConfig(cfg *ProviderConfig) ProviderConfig {
	if cfg == nil {
		return ProviderConfig{}
	}
	return *cfg
}
