// Package rag provides the retrieval layer for context-construction
// experiments: an embedding contract, an in-memory vector store with
// keyword fallback, and a deterministic hash embedder for offline runs.
package rag

import "context"

// RetrievedDocument is a stored text with its retrieval score.
type RetrievedDocument struct {
	ID         string         `json:"id"`
	Content    string         `json:"content"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Similarity float64        `json:"similarity"`
}

// Store indexes texts and retrieves the most relevant ones for a query.
type Store interface {
	// Add indexes texts. metadatas may be nil or shorter than texts;
	// missing entries get empty metadata.
	Add(ctx context.Context, texts []string, metadatas []map[string]any) error

	// Retrieve returns the topK most similar documents, best first.
	// Similarity scores are normalized to [0, 1].
	Retrieve(ctx context.Context, query string, topK int) ([]RetrievedDocument, error)

	// Count returns the number of indexed documents.
	Count() int

	// Clear removes all indexed documents.
	Clear()
}

// Embedder converts texts to dense vectors.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float64, error)
}
