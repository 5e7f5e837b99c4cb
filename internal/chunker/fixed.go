package chunker

import (
	"fmt"
	"strings"

	"github.com/entropy1208/halsaveda-copilot/internal/models"
)

const (
	DefaultChunkSize    = 300
	DefaultChunkOverlap = 50
)

// FixedChunker splits raw text into fixed-size overlapping word windows.
// It has no structural awareness and exists for documents the scraper could
// not parse into sections.
type FixedChunker struct {
	ChunkSize    int
	ChunkOverlap int
}

// NewFixedChunker validates the window parameters. Overlap must be smaller
// than the chunk size, otherwise the stride is non-positive and windowing
// would never advance.
func NewFixedChunker(chunkSize, chunkOverlap int) (*FixedChunker, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", chunkSize)
	}
	if chunkOverlap < 0 {
		return nil, fmt.Errorf("chunk overlap must be non-negative, got %d", chunkOverlap)
	}
	if chunkSize-chunkOverlap <= 0 {
		return nil, fmt.Errorf("chunk overlap %d must be smaller than chunk size %d", chunkOverlap, chunkSize)
	}

	return &FixedChunker{
		ChunkSize:    chunkSize,
		ChunkOverlap: chunkOverlap,
	}, nil
}

// Chunk splits text into overlapping windows. Window i covers words
// [i*stride, i*stride+size); the loop stops once a window's end reaches the
// text length. Empty or whitespace-only text produces no chunks.
func (c *FixedChunker) Chunk(text string, meta models.Metadata) []models.Chunk {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	stride := c.ChunkSize - c.ChunkOverlap
	var chunks []models.Chunk

	for i := 0; i < len(words); i += stride {
		end := i + c.ChunkSize
		if end > len(words) {
			end = len(words)
		}

		window := words[i:end]
		chunks = append(chunks, models.Chunk{
			Text:       strings.Join(window, " "),
			Heading:    "Content",
			ChunkIndex: len(chunks),
			WordCount:  len(window),
			ChunkType:  models.ChunkTypeFallback,
			Metadata:   meta,
		})

		if end >= len(words) {
			break
		}
	}

	return chunks
}
