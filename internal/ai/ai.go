// Package ai declares the model capabilities the pipeline consumes. Provider
// adapters live in subpackages and are constructed once per process.
package ai

import (
	"context"
)

const (
	CapabilityCompletion = "completion"
	CapabilityEmbedding  = "embedding"
)

// Completer sends a single prompt to a language model and returns its raw text.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Embedder returns one vector per input text, in input order.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Describer is implemented by providers that can report what they call.
type Describer interface {
	Provider() string
	Model() string
}

// Describe returns provider and model of c when it implements Describer.
func Describe(c any) (provider, model string) {
	if d, ok := c.(Describer); ok {
		return d.Provider(), d.Model()
	}
	return "", ""
}
