package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spigell/coldmail/internal/ai"
	"github.com/spigell/coldmail/internal/logger"
	"go.uber.org/zap"
	"google.golang.org/genai"
)

const (
	defaultEmbeddingModel = "gemini-embedding-001"
	embedBatchSize        = 100
)

type contentEmbedder interface {
	EmbedContent(ctx context.Context, model string, contents []*genai.Content, config *genai.EmbedContentConfig) (*genai.EmbedContentResponse, error)
}

// Embedder turns texts into vectors with a Gemini embedding model.
type Embedder struct {
	models contentEmbedder
	model  string
	logger *zap.Logger
}

func NewEmbedder(client *genai.Client, model string, log *zap.Logger) (*Embedder, error) {
	if client == nil {
		return nil, errors.New("genai client is required")
	}

	if model = strings.TrimSpace(model); model == "" {
		model = defaultEmbeddingModel
	}

	return &Embedder{
		models: client.Models,
		model:  model,
		logger: logger.WithCapability(log, Provider, model, ai.CapabilityEmbedding),
	}, nil
}

// Embed implements ai.Embedder. Inputs are sent in batches of at most 100.
func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	log := e.logger
	if log == nil {
		log = zap.NewNop()
	}

	vectors := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += embedBatchSize {
		end := min(start+embedBatchSize, len(texts))

		contents := make([]*genai.Content, 0, end-start)
		for _, text := range texts[start:end] {
			contents = append(contents, &genai.Content{Parts: []*genai.Part{{Text: text}}})
		}

		log.Debug("gemini embed request", zap.Int("batch_start", start), zap.Int("batch_size", len(contents)))

		resp, err := e.models.EmbedContent(ctx, e.model, contents, nil)
		if err != nil {
			return nil, ai.Failure(ai.CapabilityEmbedding, Provider, fmt.Errorf("embed content: %w", err))
		}
		if resp == nil || len(resp.Embeddings) != len(contents) {
			got := 0
			if resp != nil {
				got = len(resp.Embeddings)
			}
			return nil, ai.Failure(ai.CapabilityEmbedding, Provider,
				fmt.Errorf("expected %d embeddings, got %d", len(contents), got))
		}

		for _, embedding := range resp.Embeddings {
			if embedding == nil {
				vectors = append(vectors, nil)
				continue
			}
			vectors = append(vectors, embedding.Values)
		}
	}

	return vectors, nil
}

func (e *Embedder) Provider() string {
	return Provider
}

func (e *Embedder) Model() string {
	return e.model
}
