package ranking

import (
	"context"
	"fmt"
	"math"

	"github.com/spigell/coldmail/internal/ai"
)

// EmbeddingScorer rates fragments by cosine similarity of their embeddings to
// the embedding of the query.
type EmbeddingScorer struct {
	embedder ai.Embedder
}

func NewEmbeddingScorer(embedder ai.Embedder) *EmbeddingScorer {
	return &EmbeddingScorer{embedder: embedder}
}

// Score implements Scorer with a single Embed call.
func (s *EmbeddingScorer) Score(ctx context.Context, fragments []string, query string) ([]float64, error) {
	if len(fragments) == 0 {
		return nil, nil
	}

	inputs := make([]string, 0, len(fragments)+1)
	inputs = append(inputs, query)
	inputs = append(inputs, fragments...)

	vectors, err := s.embedder.Embed(ctx, inputs)
	if err != nil {
		provider, _ := ai.Describe(s.embedder)
		return nil, ai.Failure(ai.CapabilityEmbedding, provider, err)
	}
	if len(vectors) != len(inputs) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d inputs", len(vectors), len(inputs))
	}

	scores := make([]float64, len(fragments))
	for i := range fragments {
		scores[i] = cosineSimilarity(vectors[0], vectors[i+1])
	}
	return scores, nil
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
