package rag

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"io"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/contextwindows/ctxlab/pkg/errors"
)

// OllamaEmbedder computes embeddings through an Ollama server.
type OllamaEmbedder struct {
	baseURL string
	model   string
	http    *http.Client
}

// NewOllamaEmbedder creates an embedder for the given endpoint and model.
// An empty endpoint falls back to the default local address.
func NewOllamaEmbedder(endpoint, model string) *OllamaEmbedder {
	if endpoint == "" {
		endpoint = "http://localhost:11434"
	}
	return &OllamaEmbedder{
		baseURL: endpoint,
		model:   model,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

type ollamaEmbeddingRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type ollamaEmbeddingResponse struct {
	Embedding []float64 `json:"embedding"`
}

// Embed implements Embedder, one request per text.
func (e *OllamaEmbedder) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	results := make([][]float64, 0, len(texts))
	for _, text := range texts {
		vec, err := e.embedOne(ctx, text)
		if err != nil {
			return nil, err
		}
		results = append(results, vec)
	}
	return results, nil
}

func (e *OllamaEmbedder) embedOne(ctx context.Context, text string) ([]float64, error) {
	jsonData, err := json.Marshal(ollamaEmbeddingRequest{Model: e.model, Prompt: text})
	if err != nil {
		return nil, errors.Wrap(err, errors.InvalidParameter, "failed to marshal embedding request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/api/embeddings", bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, errors.Wrap(err, errors.InvalidParameter, "failed to create request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.http.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, errors.LLMGenerationFailed, "failed to send embedding request")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, errors.LLMGenerationFailed, "failed to read response body")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, errors.New(errors.LLMGenerationFailed,
			fmt.Sprintf("embedding request failed with status code %d", resp.StatusCode))
	}

	var embResp ollamaEmbeddingResponse
	if err := json.Unmarshal(body, &embResp); err != nil {
		return nil, errors.Wrap(err, errors.InvalidResponse, "failed to unmarshal embedding response")
	}
	return embResp.Embedding, nil
}

// HashEmbedder maps texts into a fixed-dimension bag-of-words vector with
// FNV word hashing. It is deterministic and needs no backend, which makes
// experiment runs reproducible offline. Not a semantic embedding.
type HashEmbedder struct {
	dim int
}

// NewHashEmbedder creates an embedder with the given dimensionality.
func NewHashEmbedder(dim int) *HashEmbedder {
	if dim <= 0 {
		dim = 256
	}
	return &HashEmbedder{dim: dim}
}

// Embed implements Embedder.
func (e *HashEmbedder) Embed(_ context.Context, texts []string) ([][]float64, error) {
	results := make([][]float64, 0, len(texts))
	for _, text := range texts {
		results = append(results, e.embedOne(text))
	}
	return results, nil
}

func (e *HashEmbedder) embedOne(text string) []float64 {
	vec := make([]float64, e.dim)
	for _, word := range strings.Fields(strings.ToLower(text)) {
		h := fnv.New32a()
		h.Write([]byte(word))
		vec[int(h.Sum32())%e.dim]++
	}

	var norm float64
	for _, v := range vec {
		norm += v * v
	}
	if norm > 0 {
		norm = math.Sqrt(norm)
		for i := range vec {
			vec[i] /= norm
		}
	}
	return vec
}
