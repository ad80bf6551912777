package rag

import (
	"context"
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/contextwindows/ctxlab/pkg/errors"
	"github.com/contextwindows/ctxlab/pkg/logging"
)

type storedDocument struct {
	id        string
	content   string
	metadata  map[string]any
	embedding []float64
}

// MemoryStore is an in-memory vector store. When an embedder is configured
// it ranks by cosine similarity; without one, or when embedding fails, it
// falls back to keyword overlap scoring.
type MemoryStore struct {
	mu       sync.RWMutex
	docs     []storedDocument
	embedder Embedder
}

// MemoryStoreOption configures a MemoryStore.
type MemoryStoreOption func(*MemoryStore)

// WithEmbedder enables embedding-based retrieval.
func WithEmbedder(e Embedder) MemoryStoreOption {
	return func(s *MemoryStore) { s.embedder = e }
}

// NewMemoryStore creates an empty store.
func NewMemoryStore(opts ...MemoryStoreOption) *MemoryStore {
	s := &MemoryStore{}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Add implements Store.
func (s *MemoryStore) Add(ctx context.Context, texts []string, metadatas []map[string]any) error {
	if len(texts) == 0 {
		return nil
	}
	if err := errors.CheckContext(ctx, "vector store add"); err != nil {
		return err
	}

	var embeddings [][]float64
	if s.embedder != nil {
		embs, err := s.embedder.Embed(ctx, texts)
		if err != nil {
			// Keep the documents usable through keyword fallback.
			logging.GetLogger().Warn(ctx, "Embedding failed, documents stored without vectors: %v", err)
		} else if len(embs) == len(texts) {
			embeddings = embs
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i, text := range texts {
		doc := storedDocument{
			id:      uuid.New().String(),
			content: text,
		}
		if metadatas != nil && i < len(metadatas) {
			doc.metadata = metadatas[i]
		}
		if embeddings != nil {
			doc.embedding = embeddings[i]
		}
		s.docs = append(s.docs, doc)
	}
	return nil
}

// Retrieve implements Store.
func (s *MemoryStore) Retrieve(ctx context.Context, query string, topK int) ([]RetrievedDocument, error) {
	if topK <= 0 {
		return nil, errors.New(errors.InvalidParameter, "topK must be positive")
	}
	if err := errors.CheckContext(ctx, "vector store retrieve"); err != nil {
		return nil, err
	}

	s.mu.RLock()
	hasVectors := len(s.docs) > 0 && len(s.docs[0].embedding) > 0
	s.mu.RUnlock()

	if s.embedder != nil && hasVectors {
		results, err := s.retrieveByEmbedding(ctx, query, topK)
		if err == nil {
			return results, nil
		}
		logging.GetLogger().Warn(ctx, "Embedding retrieval failed, using keyword fallback: %v", err)
	}
	return s.retrieveByKeyword(query, topK), nil
}

func (s *MemoryStore) retrieveByEmbedding(ctx context.Context, query string, topK int) ([]RetrievedDocument, error) {
	queryEmbs, err := s.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, err
	}
	if len(queryEmbs) == 0 || len(queryEmbs[0]) == 0 {
		return nil, errors.New(errors.InvalidResponse, "embedder returned empty query vector")
	}
	queryVec := queryEmbs[0]

	s.mu.RLock()
	defer s.mu.RUnlock()

	type scored struct {
		doc   storedDocument
		score float64
	}

	scores := make([]scored, 0, len(s.docs))
	for _, doc := range s.docs {
		if len(doc.embedding) == 0 {
			continue
		}
		// Shift cosine similarity from [-1, 1] to [0, 1].
		score := (cosineSimilarity(queryVec, doc.embedding) + 1) / 2
		scores = append(scores, scored{doc: doc, score: score})
	}

	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].score > scores[j].score
	})

	results := make([]RetrievedDocument, 0, topK)
	for i := 0; i < topK && i < len(scores); i++ {
		results = append(results, RetrievedDocument{
			ID:         scores[i].doc.id,
			Content:    scores[i].doc.content,
			Metadata:   scores[i].doc.metadata,
			Similarity: scores[i].score,
		})
	}
	return results, nil
}

func (s *MemoryStore) retrieveByKeyword(query string, topK int) []RetrievedDocument {
	s.mu.RLock()
	defer s.mu.RUnlock()

	queryWords := strings.Fields(strings.ToLower(query))

	type scored struct {
		doc   storedDocument
		score int
	}

	scores := make([]scored, 0, len(s.docs))
	maxScore := 0
	for _, doc := range s.docs {
		contentLower := strings.ToLower(doc.content)
		score := 0
		for _, word := range queryWords {
			score += strings.Count(contentLower, word)
		}
		if score > 0 {
			scores = append(scores, scored{doc: doc, score: score})
			if score > maxScore {
				maxScore = score
			}
		}
	}

	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].score > scores[j].score
	})

	results := make([]RetrievedDocument, 0, topK)
	for i := 0; i < topK && i < len(scores); i++ {
		results = append(results, RetrievedDocument{
			ID:         scores[i].doc.id,
			Content:    scores[i].doc.content,
			Metadata:   scores[i].doc.metadata,
			Similarity: float64(scores[i].score) / float64(maxScore),
		})
	}

	// No keyword overlap at all: return the first documents with zero scores
	// so callers still get context to work with.
	if len(results) == 0 && len(s.docs) > 0 {
		for i := 0; i < topK && i < len(s.docs); i++ {
			results = append(results, RetrievedDocument{
				ID:       s.docs[i].id,
				Content:  s.docs[i].content,
				Metadata: s.docs[i].metadata,
			})
		}
	}
	return results
}

// Count implements Store.
func (s *MemoryStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}

// Clear implements Store.
func (s *MemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs = nil
}

func cosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	if normA == 0 || normB == 0 {
		return 0
	}
	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}
