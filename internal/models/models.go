package models

import (
	"encoding/json"
	"fmt"
	"os"
)

// Chunk type values assigned by the chunkers.
const (
	ChunkTypeSection     = "section"
	ChunkTypeSectionPart = "section_part"
	ChunkTypeFallback    = "fallback"
)

// Document is one scraped page, as produced by the scraper stage.
type Document struct {
	URL               string    `json:"url"`
	Title             string    `json:"title"`
	Content           string    `json:"content"`
	StructuredContent []Section `json:"structured_content,omitempty"`
	ScrapedAt         string    `json:"scraped_at"`
}

// Section is one heading with its paragraphs, in reading order.
type Section struct {
	Heading string   `json:"heading"`
	Level   int      `json:"level"`
	Content []string `json:"content"`
}

// Chunk is a bounded unit of document text prepared for embedding.
type Chunk struct {
	Text       string   `json:"text"`
	Heading    string   `json:"heading"`
	ChunkIndex int      `json:"chunk_index"`
	WordCount  int      `json:"word_count"`
	ChunkType  string   `json:"chunk_type"`
	DocTitle   string   `json:"doc_title"`
	DocURL     string   `json:"doc_url"`
	Metadata   Metadata `json:"metadata"`
}

// Metadata carries document-level context attached to each chunk.
type Metadata struct {
	URL       string `json:"url"`
	Title     string `json:"title"`
	ScrapedAt string `json:"scraped_at"`
	Category  string `json:"category,omitempty"`
}

// EmbeddedChunk is a chunk plus its embedding vector. Degraded marks chunks
// whose embedding failed and was replaced with a zero vector, so downstream
// consumers don't have to sniff for all-zero values.
type EmbeddedChunk struct {
	Chunk
	Embedding []float32 `json:"embedding"`
	Degraded  bool      `json:"degraded,omitempty"`
}

// VectorRecord is the unit persisted in the vector index. Text is a preview
// only; FullTextLength records the untruncated length so truncation is
// detectable.
type VectorRecord struct {
	ID             string
	Values         []float32
	Category       string
	ChunkLength    int
	ChunkType      string
	Heading        string
	Text           string
	FullTextLength int
	URL            string
	Title          string
	Degraded       bool
}

// SearchResult is one ranked match returned by the query engine.
type SearchResult struct {
	Text  string  `json:"text"`
	Title string  `json:"title"`
	URL   string  `json:"url"`
	Score float32 `json:"score"`
}

// Source is the citation form of a search result in a chat response.
type Source struct {
	Title   string  `json:"title"`
	URL     string  `json:"url"`
	Score   float32 `json:"score"`
	Preview string  `json:"preview"`
}

// Response is the answer envelope returned by the chatbot.
type Response struct {
	Question string            `json:"question"`
	Answer   string            `json:"answer"`
	Sources  []Source          `json:"sources"`
	Metadata map[string]string `json:"metadata"`
}

// LoadDocuments reads a JSON array of scraped documents from disk.
func LoadDocuments(path string) ([]Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read documents file: %w", err)
	}

	var docs []Document
	if err := json.Unmarshal(data, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode documents: %w", err)
	}

	return docs, nil
}
