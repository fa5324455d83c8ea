package llm

import (
	"context"
	"fmt"
	"hash/fnv"

	"github.com/sashabaranov/go-openai"

	"github.com/ppiankov/anamnesis/internal/index"
	"github.com/ppiankov/anamnesis/internal/model"
)

// NewEmbedder creates an embedder from configuration. "hash" is the offline
// deterministic default; "openai" uses the embeddings API.
func NewEmbedder(cfg model.EmbeddingConfig, apiKey string) (index.Embedder, error) {
	switch cfg.Provider {
	case "openai":
		return NewOpenAIEmbedder(cfg, apiKey)
	case "hash", "":
		return NewHashEmbedder(cfg.Dimensions), nil
	default:
		return nil, fmt.Errorf("unknown embedding provider: %s (supported: openai, hash)", cfg.Provider)
	}
}

// OpenAIEmbedder generates embeddings via the OpenAI embeddings API.
type OpenAIEmbedder struct {
	client *openai.Client
	model  string
}

// NewOpenAIEmbedder creates a new OpenAI embedder
func NewOpenAIEmbedder(cfg model.EmbeddingConfig, apiKey string) (*OpenAIEmbedder, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required for embeddings")
	}

	embModel := cfg.Model
	if embModel == "" {
		embModel = string(openai.SmallEmbedding3)
	}

	return &OpenAIEmbedder{
		client: openai.NewClient(apiKey),
		model:  embModel,
	}, nil
}

// EmbedText generates an embedding for a single text.
func (e *OpenAIEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	vecs, err := e.EmbedTexts(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedTexts generates embeddings for a batch of texts, in input order.
func (e *OpenAIEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: texts,
		Model: openai.EmbeddingModel(e.model),
	})
	if err != nil {
		return nil, fmt.Errorf("OpenAI embeddings error: %w", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("OpenAI embeddings: got %d vectors for %d texts", len(resp.Data), len(texts))
	}

	vecs := make([][]float32, len(texts))
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(texts) {
			return nil, fmt.Errorf("OpenAI embeddings: index %d out of range", d.Index)
		}
		vecs[d.Index] = d.Embedding
	}
	return vecs, nil
}

// HashEmbedder generates deterministic embeddings from a text hash. It has
// no semantic signal, but it is stable across runs and machines, which keeps
// the vector path exercised (and testable) without any external service.
type HashEmbedder struct {
	dim int
}

// NewHashEmbedder creates a hash embedder with the given dimensionality.
func NewHashEmbedder(dim int) *HashEmbedder {
	if dim <= 0 {
		dim = 384
	}
	return &HashEmbedder{dim: dim}
}

// EmbedText generates a deterministic embedding based on text hash.
func (e *HashEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	return deterministicVector(text, e.dim), nil
}

// EmbedTexts generates deterministic embeddings for multiple texts.
func (e *HashEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	vecs := make([][]float32, len(texts))
	for i, text := range texts {
		vecs[i] = deterministicVector(text, e.dim)
	}
	return vecs, nil
}

// deterministicVector creates a unit vector from an FNV hash of the text.
func deterministicVector(text string, dim int) []float32 {
	h := fnv.New32a()
	h.Write([]byte(text))
	seed := h.Sum32()

	vec := make([]float32, dim)
	for i := 0; i < dim; i++ {
		seed = seed*1664525 + 1013904223 // LCG constants
		vec[i] = float32(seed%1000)/500.0 - 1.0
	}
	return index.Normalize(vec)
}
