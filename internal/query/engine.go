// Package query turns natural-language questions into ranked chunk matches.
package query

import (
	"context"
	"fmt"
	"strings"

	"github.com/entropy1208/halsaveda-copilot/internal/models"
	"github.com/entropy1208/halsaveda-copilot/internal/vectordb"
)

// DefaultTopK is the number of matches retrieved when the caller doesn't
// specify one.
const DefaultTopK = 3

// Embedder produces the query vector. It must be backed by the same model
// the index was built with; a mismatch silently produces meaningless scores.
type Embedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// Index runs similarity queries against the persisted index.
type Index interface {
	Query(ctx context.Context, vector []float32, topK int, category string) ([]vectordb.Match, error)
}

// Engine retrieves ranked chunks for a query.
type Engine struct {
	embedder Embedder
	index    Index
}

// NewEngine creates a query engine over an embedder and an index.
func NewEngine(embedder Embedder, index Index) *Engine {
	return &Engine{embedder: embedder, index: index}
}

// Search embeds the query and returns the top-k matches, ranked by
// descending similarity. A failure returns a nil slice together with the
// error, so callers can tell "no results" from "retrieval failed".
func (e *Engine) Search(ctx context.Context, queryText string, topK int) ([]models.SearchResult, error) {
	return e.SearchCategory(ctx, queryText, topK, "")
}

// SearchCategory is Search restricted to one category; an empty category
// searches everything.
func (e *Engine) SearchCategory(ctx context.Context, queryText string, topK int, category string) ([]models.SearchResult, error) {
	if strings.TrimSpace(queryText) == "" {
		return nil, fmt.Errorf("query text is empty")
	}
	if topK <= 0 {
		topK = DefaultTopK
	}

	vector, err := e.embedder.EmbedQuery(ctx, queryText)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	matches, err := e.index.Query(ctx, vector, topK, category)
	if err != nil {
		return nil, fmt.Errorf("failed to search index: %w", err)
	}

	results := make([]models.SearchResult, len(matches))
	for i, match := range matches {
		results[i] = models.SearchResult{
			Text:  metadataString(match.Metadata, "text"),
			Title: metadataString(match.Metadata, "title"),
			URL:   metadataString(match.Metadata, "url"),
			Score: match.Score,
		}
	}
	return results, nil
}

// FormatContext renders ranked chunks into the numbered plain-text block
// consumed by the answer-generation step. Purely presentational.
func FormatContext(results []models.SearchResult) string {
	var b strings.Builder
	for i, result := range results {
		fmt.Fprintf(&b, "\n--- Source %d: %s ---\n", i+1, result.Title)
		b.WriteString(result.Text)
		b.WriteString("\n")
		fmt.Fprintf(&b, "URL: %s\n", result.URL)
	}
	return b.String()
}

func metadataString(metadata map[string]any, key string) string {
	if value, ok := metadata[key].(string); ok {
		return value
	}
	return ""
}
