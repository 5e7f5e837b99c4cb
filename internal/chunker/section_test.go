package chunker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entropy1208/halsaveda-copilot/internal/models"
)

func TestSectionChunkerSingleSection(t *testing.T) {
	c, err := NewSectionChunker(500)
	require.NoError(t, err)

	doc := models.Document{
		URL:   "https://www.1177.se/sjukdomar--besvar/feber",
		Title: "Feber",
		StructuredContent: []models.Section{{
			Heading: "Fever",
			Level:   2,
			Content: []string{
				"Adults should rest.",
				"See a doctor if fever exceeds three days.",
			},
		}},
	}

	chunks := c.ChunkDocument(doc)
	require.Len(t, chunks, 1)

	chunk := chunks[0]
	assert.Equal(t, "Fever. Adults should rest. See a doctor if fever exceeds three days.", chunk.Text)
	assert.Equal(t, "Fever", chunk.Heading)
	assert.Equal(t, models.ChunkTypeSection, chunk.ChunkType)
	assert.Equal(t, 11, chunk.WordCount)
	assert.Equal(t, 0, chunk.ChunkIndex)
	assert.Equal(t, "Feber", chunk.DocTitle)
	assert.Equal(t, doc.URL, chunk.Metadata.URL)
}

func TestSectionChunkerLongSection(t *testing.T) {
	c, err := NewSectionChunker(10)
	require.NoError(t, err)

	// Five paragraphs of four words each against a ten-word budget.
	paragraphs := []string{
		"one two three four",
		"five six seven eight",
		"nine ten eleven twelve",
		"thirteen fourteen fifteen sixteen",
		"seventeen eighteen nineteen twenty",
	}
	doc := models.Document{
		Title: "Vaccin",
		StructuredContent: []models.Section{{
			Heading: "Doses",
			Content: paragraphs,
		}},
	}

	chunks := c.ChunkDocument(doc)
	require.Len(t, chunks, 3)

	for _, chunk := range chunks {
		assert.Equal(t, models.ChunkTypeSectionPart, chunk.ChunkType)
		assert.True(t, strings.HasPrefix(chunk.Text, "Doses. "))
	}

	assert.Equal(t, 8, chunks[0].WordCount)
	assert.Equal(t, 8, chunks[1].WordCount)
	assert.Equal(t, 4, chunks[2].WordCount)

	// Paragraphs survive intact and in order across the parts.
	var joined []string
	for _, chunk := range chunks {
		joined = append(joined, strings.TrimPrefix(chunk.Text, "Doses. "))
	}
	assert.Equal(t, strings.Join(paragraphs, " "), strings.Join(joined, " "))
}

func TestSectionChunkerOversizedParagraph(t *testing.T) {
	c, err := NewSectionChunker(5)
	require.NoError(t, err)

	doc := models.Document{
		StructuredContent: []models.Section{{
			Heading: "Long",
			Content: []string{"a b c d e f g h i j k l"},
		}},
	}

	chunks := c.ChunkDocument(doc)
	require.Len(t, chunks, 1)
	assert.Equal(t, 12, chunks[0].WordCount)
	assert.Equal(t, "Long. a b c d e f g h i j k l", chunks[0].Text)
}

func TestSectionChunkerSkipsEmptySections(t *testing.T) {
	c, err := NewSectionChunker(500)
	require.NoError(t, err)

	doc := models.Document{
		StructuredContent: []models.Section{
			{Heading: "Empty", Content: nil},
			{Heading: "Blank", Content: []string{"   ", "\n\t"}},
			{Heading: "Kept", Content: []string{"some actual text"}},
		},
	}

	chunks := c.ChunkDocument(doc)
	require.Len(t, chunks, 1)
	assert.Equal(t, "Kept", chunks[0].Heading)
}

func TestSectionChunkerFallback(t *testing.T) {
	c, err := NewSectionChunker(5)
	require.NoError(t, err)

	doc := models.Document{
		URL:     "https://www.1177.se/liv--halsa/somn",
		Title:   "Sömn",
		Content: "w1 w2 w3 w4 w5 w6 w7 w8 w9 w10 w11 w12",
	}

	chunks := c.ChunkDocument(doc)
	require.Len(t, chunks, 3)

	total := 0
	for i, chunk := range chunks {
		assert.Equal(t, models.ChunkTypeFallback, chunk.ChunkType)
		assert.Equal(t, i, chunk.ChunkIndex)
		assert.Equal(t, "Sömn", chunk.DocTitle)
		assert.NotZero(t, chunk.WordCount)
		total += chunk.WordCount
	}
	// Non-overlapping fallback windows cover every word exactly once.
	assert.Equal(t, 12, total)
}

func TestSectionChunkerContiguousIndices(t *testing.T) {
	c, err := NewSectionChunker(500)
	require.NoError(t, err)

	doc := models.Document{
		URL:   "https://www.1177.se/barn--gravid/amning",
		Title: "Amning",
		StructuredContent: []models.Section{
			{Heading: "Start", Content: []string{"first section text"}},
			{Heading: "Tips", Content: []string{"second section text"}},
			{Heading: "Hjälp", Content: []string{"third section text"}},
		},
	}

	chunks := c.ChunkDocument(doc)
	require.Len(t, chunks, 3)
	for i, chunk := range chunks {
		assert.Equal(t, i, chunk.ChunkIndex)
		assert.Equal(t, "Amning", chunk.DocTitle)
		assert.Equal(t, doc.URL, chunk.DocURL)
	}
}

func TestSectionChunkerEmptyDocument(t *testing.T) {
	c, err := NewSectionChunker(500)
	require.NoError(t, err)

	assert.Empty(t, c.ChunkDocument(models.Document{}))
}

func TestChunkDocumentsOrder(t *testing.T) {
	c, err := NewSectionChunker(500)
	require.NoError(t, err)

	docs := []models.Document{
		{Title: "A", StructuredContent: []models.Section{{Heading: "H1", Content: []string{"alpha"}}}},
		{Title: "B", StructuredContent: []models.Section{{Heading: "H2", Content: []string{"beta"}}}},
	}

	chunks := c.ChunkDocuments(docs)
	require.Len(t, chunks, 2)
	assert.Equal(t, "A", chunks[0].DocTitle)
	assert.Equal(t, "B", chunks[1].DocTitle)
	// Indices restart per document.
	assert.Equal(t, 0, chunks[1].ChunkIndex)
}
