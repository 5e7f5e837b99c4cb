package embedding

import (
	"context"
	"log"
	"time"

	"github.com/entropy1208/halsaveda-copilot/internal/models"
)

// Provider generates embedding vectors for texts. Vectors align positionally
// with the input texts.
type Provider interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	Dimension() int
}

const (
	// DefaultBatchSize is the number of texts sent per provider call.
	DefaultBatchSize = 100

	// DefaultBatchDelay is the pause between provider calls, a cooperative
	// backoff against provider rate limits.
	DefaultBatchDelay = 500 * time.Millisecond

	// DefaultRetryDelay is the pause after each per-item retry call.
	DefaultRetryDelay = time.Second
)

// Pipeline converts chunks into embedded chunks through batched provider
// calls. The output always has the same length and order as the input: a
// chunk whose embedding fails twice (once in its batch, once individually)
// gets a zero vector and Degraded set instead of being dropped, so downstream
// indexing stays aligned.
type Pipeline struct {
	Provider   Provider
	BatchSize  int
	BatchDelay time.Duration
	RetryDelay time.Duration
}

// NewPipeline creates a pipeline with default batch and delay settings.
func NewPipeline(provider Provider) *Pipeline {
	return &Pipeline{
		Provider:   provider,
		BatchSize:  DefaultBatchSize,
		BatchDelay: DefaultBatchDelay,
		RetryDelay: DefaultRetryDelay,
	}
}

// EmbedChunks embeds every chunk, enriching its metadata with a category
// derived from the source URL. The only error returned is context
// cancellation; provider failures degrade individual chunks instead.
func (p *Pipeline) EmbedChunks(ctx context.Context, chunks []models.Chunk) ([]models.EmbeddedChunk, error) {
	out := make([]models.EmbeddedChunk, 0, len(chunks))

	for start := 0; start < len(chunks); start += p.BatchSize {
		end := start + p.BatchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[start:end]

		if start > 0 {
			if err := sleepCtx(ctx, p.BatchDelay); err != nil {
				return nil, err
			}
		}

		embedded, err := p.embedBatch(ctx, batch)
		if err != nil {
			return nil, err
		}
		out = append(out, embedded...)
	}

	return out, nil
}

// embedBatch tries one provider call for the whole batch, then falls back to
// per-item calls if the batch call fails.
func (p *Pipeline) embedBatch(ctx context.Context, batch []models.Chunk) ([]models.EmbeddedChunk, error) {
	texts := make([]string, len(batch))
	for i, chunk := range batch {
		texts[i] = chunk.Text
	}

	vectors, err := p.Provider.Embed(ctx, texts)
	if err == nil {
		out := make([]models.EmbeddedChunk, len(batch))
		for i, chunk := range batch {
			out[i] = p.newEmbedded(chunk, vectors[i])
		}
		return out, nil
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	log.Printf("Warning: batch embedding failed, retrying %d items individually: %v", len(batch), err)

	out := make([]models.EmbeddedChunk, len(batch))
	for i, chunk := range batch {
		vector, itemErr := p.Provider.Embed(ctx, []string{chunk.Text})
		if itemErr == nil && len(vector) == 1 {
			out[i] = p.newEmbedded(chunk, vector[0])
		} else {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			log.Printf("Warning: failed to embed chunk %q from %s: %v", preview(chunk.Text, 50), chunk.DocURL, itemErr)
			out[i] = p.newEmbedded(chunk, nil)
		}

		if err := sleepCtx(ctx, p.RetryDelay); err != nil {
			return nil, err
		}
	}

	return out, nil
}

// newEmbedded wraps a chunk with its vector and enriched metadata. A nil or
// wrong-length vector is replaced with the zero sentinel so every embedding
// in one run has the declared dimension.
func (p *Pipeline) newEmbedded(chunk models.Chunk, vector []float32) models.EmbeddedChunk {
	chunk.Metadata.Category = Categorize(chunk.Metadata.URL)

	degraded := false
	if len(vector) != p.Provider.Dimension() {
		vector = make([]float32, p.Provider.Dimension())
		degraded = true
	}

	return models.EmbeddedChunk{
		Chunk:     chunk,
		Embedding: vector,
		Degraded:  degraded,
	}
}

// EmbedQuery embeds a single query text, propagating any provider failure to
// the caller.
func (p *Pipeline) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := p.Provider.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

func preview(text string, n int) string {
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	return string(runes[:n]) + "..."
}
