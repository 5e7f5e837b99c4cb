package embedding

import (
	"github.com/google/uuid"

	"github.com/entropy1208/halsaveda-copilot/internal/models"
)

const (
	// maxHeadingChars bounds the heading stored in record metadata.
	maxHeadingChars = 100

	// maxTextChars bounds the text preview stored in record metadata. The
	// record's FullTextLength keeps the true length so truncation is
	// detectable.
	maxTextChars = 1000
)

// BuildRecords converts embedded chunks into the records persisted in the
// vector index. Ids are random UUIDs so that records from separate pipeline
// runs never collide under upsert semantics.
func BuildRecords(chunks []models.EmbeddedChunk) []models.VectorRecord {
	records := make([]models.VectorRecord, len(chunks))
	for i, chunk := range chunks {
		records[i] = models.VectorRecord{
			ID:             uuid.New().String(),
			Values:         chunk.Embedding,
			Category:       chunk.Metadata.Category,
			ChunkLength:    chunk.WordCount,
			ChunkType:      chunk.ChunkType,
			Heading:        truncate(chunk.Heading, maxHeadingChars),
			Text:           truncate(chunk.Text, maxTextChars),
			FullTextLength: len(chunk.Text),
			URL:            chunk.Metadata.URL,
			Title:          chunk.Metadata.Title,
			Degraded:       chunk.Degraded,
		}
	}
	return records
}

func truncate(text string, n int) string {
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	return string(runes[:n])
}
