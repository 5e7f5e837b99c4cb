package embedding

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entropy1208/halsaveda-copilot/internal/models"
)

func TestBuildRecords(t *testing.T) {
	chunk := models.EmbeddedChunk{
		Chunk: models.Chunk{
			Text:      "Rest and fluids help most fevers.",
			Heading:   "Fever",
			WordCount: 6,
			ChunkType: models.ChunkTypeSection,
			Metadata: models.Metadata{
				URL:      "https://www.1177.se/sjukdomar--besvar/feber",
				Title:    "Feber",
				Category: "diseases_conditions",
			},
		},
		Embedding: []float32{0.1, 0.2, 0.3},
	}

	records := BuildRecords([]models.EmbeddedChunk{chunk})
	require.Len(t, records, 1)

	rec := records[0]
	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, chunk.Embedding, rec.Values)
	assert.Equal(t, "diseases_conditions", rec.Category)
	assert.Equal(t, 6, rec.ChunkLength)
	assert.Equal(t, models.ChunkTypeSection, rec.ChunkType)
	assert.Equal(t, "Fever", rec.Heading)
	assert.Equal(t, chunk.Text, rec.Text)
	assert.Equal(t, len(chunk.Text), rec.FullTextLength)
	assert.Equal(t, "Feber", rec.Title)
	assert.False(t, rec.Degraded)
}

func TestBuildRecordsTruncation(t *testing.T) {
	longHeading := strings.Repeat("h", 150)
	longText := strings.Repeat("x", 2500)

	records := BuildRecords([]models.EmbeddedChunk{{
		Chunk: models.Chunk{Heading: longHeading, Text: longText},
	}})
	require.Len(t, records, 1)

	rec := records[0]
	assert.Len(t, []rune(rec.Heading), 100)
	assert.Len(t, []rune(rec.Text), 1000)
	// The full length survives truncation.
	assert.Equal(t, 2500, rec.FullTextLength)
}

func TestBuildRecordsTruncationCountsRunes(t *testing.T) {
	// Multi-byte runes must not be split mid-sequence.
	text := strings.Repeat("å", 1200)
	records := BuildRecords([]models.EmbeddedChunk{{Chunk: models.Chunk{Text: text}}})
	require.Len(t, records, 1)

	assert.Equal(t, strings.Repeat("å", 1000), records[0].Text)
}

func TestBuildRecordsUniqueIDs(t *testing.T) {
	chunks := make([]models.EmbeddedChunk, 50)
	seen := make(map[string]bool)

	for _, rec := range BuildRecords(chunks) {
		assert.False(t, seen[rec.ID], "duplicate id %s", rec.ID)
		seen[rec.ID] = true
	}

	// Re-running the build yields fresh ids.
	for _, rec := range BuildRecords(chunks) {
		assert.False(t, seen[rec.ID])
	}
}

func TestBuildRecordsCarriesDegraded(t *testing.T) {
	records := BuildRecords([]models.EmbeddedChunk{
		{Degraded: true},
		{Degraded: false},
	})
	require.Len(t, records, 2)
	assert.True(t, records[0].Degraded)
	assert.False(t, records[1].Degraded)
}
