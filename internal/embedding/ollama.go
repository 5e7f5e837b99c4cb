package embedding

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/ollama/ollama/api"
	"github.com/ollama/ollama/envconfig"
)

// OllamaEmbedder generates embeddings using the Ollama API.
type OllamaEmbedder struct {
	Client  *api.Client
	Model   string
	Timeout time.Duration

	dimension int
}

// NewOllamaEmbedder creates a new Ollama embedder. An empty host falls back
// to the OLLAMA_HOST environment variable. The dimension is the embedding
// model's declared output size; every vector this embedder returns is
// checked against it.
func NewOllamaEmbedder(host, model string, dimension int) (*OllamaEmbedder, error) {
	if model == "" {
		return nil, fmt.Errorf("embedding model is required")
	}
	if dimension <= 0 {
		return nil, fmt.Errorf("embedding dimension must be positive, got %d", dimension)
	}

	hostURL := envconfig.Host()
	if host != "" {
		parsed, err := url.Parse(host)
		if err != nil {
			return nil, fmt.Errorf("invalid ollama host %q: %w", host, err)
		}
		hostURL = parsed
	}
	client := api.NewClient(hostURL, http.DefaultClient)

	return &OllamaEmbedder{
		Client:    client,
		Model:     model,
		Timeout:   time.Second * 30,
		dimension: dimension,
	}, nil
}

// Embed generates embeddings for a batch of texts in a single API call.
// The returned vectors align positionally with the input texts.
func (e *OllamaEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	req := api.EmbedRequest{
		Model: e.Model,
		Input: texts,
	}

	ctxWithTimeout, cancel := context.WithTimeout(ctx, e.Timeout)
	defer cancel()

	resp, err := e.Client.Embed(ctxWithTimeout, &req)
	if err != nil {
		return nil, fmt.Errorf("failed to create embeddings: %w", err)
	}

	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("embedding count mismatch: got %d, want %d", len(resp.Embeddings), len(texts))
	}

	return resp.Embeddings, nil
}

// Dimension returns the declared embedding dimension.
func (e *OllamaEmbedder) Dimension() int {
	return e.dimension
}
