package chunker

import (
	"fmt"
	"strings"

	"github.com/entropy1208/halsaveda-copilot/internal/models"
)

// DefaultMaxChunkSize is the default word budget per section-aware chunk.
const DefaultMaxChunkSize = 500

// SectionChunker splits structured documents along section boundaries,
// keeping each heading attached to its text. Documents without structured
// content fall back to non-overlapping fixed windows.
type SectionChunker struct {
	MaxChunkSize int
	fallback     *FixedChunker
}

// NewSectionChunker creates a section-aware chunker with the given word
// budget per chunk.
func NewSectionChunker(maxChunkSize int) (*SectionChunker, error) {
	if maxChunkSize <= 0 {
		return nil, fmt.Errorf("max chunk size must be positive, got %d", maxChunkSize)
	}

	// Fallback windows are non-overlapping: stride equals the window size.
	fallback, err := NewFixedChunker(maxChunkSize, 0)
	if err != nil {
		return nil, err
	}

	return &SectionChunker{
		MaxChunkSize: maxChunkSize,
		fallback:     fallback,
	}, nil
}

// ChunkDocument produces the ordered chunk list for one document. Chunk
// indices are assigned sequentially after all sections are processed and are
// contiguous within the document.
func (c *SectionChunker) ChunkDocument(doc models.Document) []models.Chunk {
	meta := models.Metadata{
		URL:       doc.URL,
		Title:     doc.Title,
		ScrapedAt: doc.ScrapedAt,
	}

	var chunks []models.Chunk
	if len(doc.StructuredContent) == 0 {
		chunks = c.fallback.Chunk(doc.Content, meta)
	} else {
		for _, section := range doc.StructuredContent {
			chunks = append(chunks, c.chunkSection(section, meta)...)
		}
	}

	for i := range chunks {
		chunks[i].ChunkIndex = i
		chunks[i].DocTitle = doc.Title
		chunks[i].DocURL = doc.URL
		chunks[i].Metadata = meta
	}

	return chunks
}

// ChunkDocuments chunks every document in order.
func (c *SectionChunker) ChunkDocuments(docs []models.Document) []models.Chunk {
	var all []models.Chunk
	for _, doc := range docs {
		all = append(all, c.ChunkDocument(doc)...)
	}
	return all
}

// chunkSection emits one chunk for a section that fits the budget, or splits
// it by paragraphs while repeating the heading prefix. Sections with no text
// after trimming are skipped entirely.
func (c *SectionChunker) chunkSection(section models.Section, meta models.Metadata) []models.Chunk {
	paragraphs := make([]string, 0, len(section.Content))
	for _, p := range section.Content {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			paragraphs = append(paragraphs, trimmed)
		}
	}
	if len(paragraphs) == 0 {
		return nil
	}

	total := 0
	for _, p := range paragraphs {
		total += wordCount(p)
	}

	if total <= c.MaxChunkSize {
		return []models.Chunk{{
			Text:      section.Heading + ". " + strings.Join(paragraphs, " "),
			Heading:   section.Heading,
			WordCount: total,
			ChunkType: models.ChunkTypeSection,
			Metadata:  meta,
		}}
	}

	return c.splitLongSection(section.Heading, paragraphs, meta)
}

// splitLongSection greedily packs paragraphs into successive chunks. A single
// paragraph that alone exceeds the budget is kept whole and exceeds the
// bound; it is never split further.
func (c *SectionChunker) splitLongSection(heading string, paragraphs []string, meta models.Metadata) []models.Chunk {
	var chunks []models.Chunk
	var current []string
	currentWords := 0

	flush := func() {
		if len(current) == 0 {
			return
		}
		chunks = append(chunks, models.Chunk{
			Text:      heading + ". " + strings.Join(current, " "),
			Heading:   heading,
			WordCount: currentWords,
			ChunkType: models.ChunkTypeSectionPart,
			Metadata:  meta,
		})
		current = nil
		currentWords = 0
	}

	for _, para := range paragraphs {
		paraWords := wordCount(para)
		if currentWords+paraWords > c.MaxChunkSize && len(current) > 0 {
			flush()
		}
		current = append(current, para)
		currentWords += paraWords
	}
	flush()

	return chunks
}

func wordCount(text string) int {
	return len(strings.Fields(text))
}
