// Package embedder converts text into dense vector embeddings for tour and
// heritage-guide search. Each implementation talks to a different backend
// (OpenAI, Azure OpenAI, Ollama) via plain HTTP — no additional SDK
// dependencies are required.
package embedder

import "context"

// Embedder is the interface for converting text into dense vector
// embeddings. Implementations must be safe to call from multiple goroutines.
type Embedder interface {
	// Embed converts a batch of texts into their corresponding embeddings.
	// The returned slice is parallel to the input slice.
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}
