package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"github.com/entropy1208/halsaveda-copilot/internal/chunker"
	"github.com/entropy1208/halsaveda-copilot/internal/config"
	"github.com/entropy1208/halsaveda-copilot/internal/embedding"
	"github.com/entropy1208/halsaveda-copilot/internal/models"
	"github.com/entropy1208/halsaveda-copilot/internal/vectordb"
)

func main() {
	// Parse command line flags
	docsPath := flag.String("docs", "", "Path to scraped documents JSON file (required)")
	maxChunkSize := flag.Int("max-chunk-size", chunker.DefaultMaxChunkSize, "Maximum words per chunk")
	batchSize := flag.Int("batch-size", embedding.DefaultBatchSize, "Texts per embedding request")
	indexName := flag.String("index", "", "Index name (default uses INDEX_NAME env var)")
	flag.Parse()

	// Validate required flags
	if *docsPath == "" {
		log.Fatal("Documents path is required. Use -docs scraped_data.json")
	}

	if _, err := os.Stat(*docsPath); os.IsNotExist(err) {
		log.Fatalf("Documents file does not exist: %s", *docsPath)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if *indexName != "" {
		cfg.IndexName = *indexName
	}

	log.Printf("Processing documents: %s", *docsPath)
	log.Printf("Using embedding model: %s (dimension %d)", cfg.EmbedModel, cfg.EmbedDimension)
	log.Printf("Target index: %s", cfg.IndexName)

	ctx := context.Background()

	// Load scraped documents
	docs, err := models.LoadDocuments(*docsPath)
	if err != nil {
		log.Fatalf("Failed to load documents: %v", err)
	}
	log.Printf("Loaded %d documents", len(docs))

	// Section-aware chunking
	sectionChunker, err := chunker.NewSectionChunker(*maxChunkSize)
	if err != nil {
		log.Fatalf("Failed to create chunker: %v", err)
	}

	startTime := time.Now()
	chunks := sectionChunker.ChunkDocuments(docs)
	log.Printf("Produced %d chunks in %v", len(chunks), time.Since(startTime))

	if len(chunks) == 0 {
		log.Fatal("No chunks produced; nothing to index")
	}

	// Embed chunks in batches
	embedder, err := embedding.NewOllamaEmbedder(cfg.OllamaHost, cfg.EmbedModel, cfg.EmbedDimension)
	if err != nil {
		log.Fatalf("Failed to create embedder: %v", err)
	}

	pipeline := embedding.NewPipeline(embedder)
	pipeline.BatchSize = *batchSize

	log.Printf("Creating embeddings for %d chunks...", len(chunks))
	embeddingStart := time.Now()
	embedded, err := pipeline.EmbedChunks(ctx, chunks)
	if err != nil {
		log.Fatalf("Failed to create embeddings: %v", err)
	}

	degraded := 0
	for _, chunk := range embedded {
		if chunk.Degraded {
			degraded++
		}
	}
	log.Printf("Created %d embeddings in %v (%d degraded)", len(embedded), time.Since(embeddingStart), degraded)

	// Recreate the index. Destructive: prior vectors are gone after this.
	manager, err := vectordb.Connect(vectordb.Config{
		Host:       cfg.QdrantHost,
		Port:       cfg.QdrantPort,
		APIKey:     cfg.QdrantAPIKey,
		UseTLS:     cfg.QdrantUseTLS,
		Collection: cfg.IndexName,
		Dimension:  cfg.EmbedDimension,
	})
	if err != nil {
		log.Fatalf("Failed to connect to vector database: %v", err)
	}
	defer manager.Close()

	if err := manager.Recreate(ctx); err != nil {
		log.Fatalf("Failed to recreate index: %v", err)
	}

	// Upload
	records := embedding.BuildRecords(embedded)
	log.Printf("Uploading %d vectors...", len(records))
	uploadStart := time.Now()

	uploaded, err := manager.Upsert(ctx, records)
	if err != nil {
		log.Printf("Warning: upload incomplete: %v", err)
	}
	log.Printf("Uploaded %d/%d vectors in %v", uploaded, len(records), time.Since(uploadStart))

	// Verify
	stats, err := manager.Stats(ctx)
	if err != nil {
		log.Fatalf("Failed to read index stats: %v", err)
	}
	log.Printf("Index stats: %d vectors, dimension %d", stats.VectorCount, stats.Dimension)
	log.Printf("Completed indexing in %v", time.Since(startTime))

	printChunkStatistics(embedded)
}

// printChunkStatistics prints a breakdown of the embedded chunks.
func printChunkStatistics(chunks []models.EmbeddedChunk) {
	var totalWords int
	categoryMap := make(map[string]int)
	chunkTypeMap := make(map[string]int)
	docMap := make(map[string]int)
	degraded := 0

	for _, chunk := range chunks {
		totalWords += chunk.WordCount
		categoryMap[chunk.Metadata.Category]++

		if chunk.ChunkType != "" {
			chunkTypeMap[chunk.ChunkType]++
		} else {
			chunkTypeMap["unknown"]++
		}

		docMap[chunk.DocURL]++

		if chunk.Degraded {
			degraded++
		}
	}

	avgWords := float64(totalWords) / float64(len(chunks))

	log.Printf("Chunk Statistics:")
	log.Printf("  Total chunks: %d", len(chunks))
	log.Printf("  Documents: %d", len(docMap))
	log.Printf("  Average chunk length: %.1f words", avgWords)
	log.Printf("  Degraded embeddings: %d", degraded)

	log.Println("  Category breakdown:")
	for category, count := range categoryMap {
		if category == "" {
			category = "uncategorized"
		}
		log.Printf("    %s: %d chunks", category, count)
	}

	log.Println("  Chunk type breakdown:")
	for chunkType, count := range chunkTypeMap {
		log.Printf("    %s: %d chunks", chunkType, count)
	}
}
