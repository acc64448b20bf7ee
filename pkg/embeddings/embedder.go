// Package embeddings provides clients for external text-embedding services.
//
// An Embedder turns text into a fixed-length float32 vector. Implementations
// exist for Ollama and for any OpenAI-compatible endpoint, plus a deterministic
// in-process embedder used by tests. The vector index treats the embedder as a
// pluggable capability and only invokes it lazily, so the rest of the system
// can run without a model server.
package embeddings

import (
	"context"

	"github.com/jakobengdahl/CommunityOverview-sub001/pkg/metrics"
)

// Embedder defines the interface for converting text into vector representations.
type Embedder interface {
	// Embed returns the vector for a single text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch returns one vector per input text, in input order.
	// A single upstream call is made where the provider supports it.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// ModelID identifies the provider and model that produced the vectors.
	// Vectors from different model ids are never comparable.
	ModelID() string
}

// observeRequest records one backend round trip in the shared metrics.
func observeRequest(err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	metrics.EmbeddingRequests.WithLabelValues(status).Inc()
}
