package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/entropy1208/halsaveda-copilot/internal/chatbot"
	"github.com/entropy1208/halsaveda-copilot/internal/config"
	"github.com/entropy1208/halsaveda-copilot/internal/embedding"
	"github.com/entropy1208/halsaveda-copilot/internal/models"
	"github.com/entropy1208/halsaveda-copilot/internal/query"
	"github.com/entropy1208/halsaveda-copilot/internal/vectordb"
)

const DefaultContextLimit = 3

func main() {
	// Parse command line flags
	contextLimit := flag.Int("context", DefaultContextLimit, "Number of similar contexts to retrieve")
	interactive := flag.Bool("i", false, "Run in interactive mode")
	queryFlag := flag.String("q", "", "Question to answer (non-interactive mode)")
	categoryFilter := flag.String("category", "", "Filter by source category (e.g. 'diseases_conditions')")
	searchOnly := flag.Bool("search-only", false, "Print ranked matches without generating an answer")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx := context.Background()

	// Connect to the vector index
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

	// Create the query engine with the same embedding model the index was
	// built with
	embedder, err := embedding.NewOllamaEmbedder(cfg.OllamaHost, cfg.EmbedModel, cfg.EmbedDimension)
	if err != nil {
		log.Fatalf("Failed to create embedder: %v", err)
	}
	engine := query.NewEngine(embedding.NewPipeline(embedder), manager)

	bot, err := chatbot.New(cfg.OllamaHost, cfg.ChatModel, engine)
	if err != nil {
		log.Fatalf("Failed to create chatbot: %v", err)
	}

	if *interactive {
		runInteractiveMode(ctx, engine, bot, *contextLimit, *categoryFilter, *searchOnly)
		return
	}

	if *queryFlag == "" {
		log.Fatal("Question is required in non-interactive mode. Use -q 'your question'")
	}

	if *searchOnly {
		results, err := engine.SearchCategory(ctx, *queryFlag, *contextLimit, *categoryFilter)
		if err != nil {
			log.Fatalf("Failed to search: %v", err)
		}
		fmt.Println(formatResults(results))
		return
	}

	answer, err := bot.ChatCategory(ctx, *queryFlag, *contextLimit, *categoryFilter)
	if err != nil {
		log.Fatalf("Failed to process question: %v", err)
	}
	fmt.Println(formatAnswer(answer))
}

func runInteractiveMode(ctx context.Context, engine *query.Engine, bot *chatbot.Chatbot,
	contextLimit int, categoryFilter string, searchOnly bool) {

	scanner := bufio.NewScanner(os.Stdin)

	fmt.Println("HalsaVeda Assistant - Ask questions about Swedish healthcare (type 'exit' to quit)")
	if categoryFilter != "" {
		fmt.Printf("Filtering results to category: %s\n", categoryFilter)
	}

	for {
		fmt.Print("\n> ")
		if !scanner.Scan() {
			break
		}

		input := scanner.Text()
		if strings.ToLower(input) == "exit" || strings.ToLower(input) == "quit" {
			break
		}

		if strings.TrimSpace(input) == "" {
			continue
		}

		// Check for command to set category filter
		if strings.HasPrefix(strings.ToLower(input), "/category ") || strings.TrimSpace(input) == "/category" {
			categoryFilter = strings.TrimSpace(strings.TrimPrefix(input, "/category"))
			if categoryFilter == "" {
				fmt.Println("Category filter cleared")
			} else {
				fmt.Printf("Filtering results to category: %s\n", categoryFilter)
			}
			continue
		}

		if searchOnly {
			results, err := engine.SearchCategory(ctx, input, contextLimit, categoryFilter)
			if err != nil {
				log.Printf("Failed to search: %v", err)
				continue
			}
			fmt.Println(formatResults(results))
			continue
		}

		answer, err := bot.ChatCategory(ctx, input, contextLimit, categoryFilter)
		if err != nil {
			log.Printf("Failed to process question: %v", err)
			continue
		}

		fmt.Println(formatAnswer(answer))
	}
}

func formatResults(results []models.SearchResult) string {
	if len(results) == 0 {
		return "No matches found."
	}

	var b strings.Builder
	for i, result := range results {
		fmt.Fprintf(&b, "\nResult %d (score: %.3f)\n", i+1, result.Score)
		fmt.Fprintf(&b, "  Title: %s\n", result.Title)
		fmt.Fprintf(&b, "  URL: %s\n", result.URL)

		text := result.Text
		if len(text) > 200 {
			text = text[:200] + "..."
		}
		fmt.Fprintf(&b, "  Text: %s\n", text)
	}
	return b.String()
}

func formatAnswer(resp *models.Response) string {
	var b strings.Builder

	b.WriteString("\n" + resp.Answer + "\n")

	if len(resp.Sources) > 0 {
		b.WriteString("\nSources:\n")
		for i, source := range resp.Sources {
			fmt.Fprintf(&b, "  [%d] %s (score: %.3f)\n", i+1, source.Title, source.Score)
			fmt.Fprintf(&b, "      %s\n", source.URL)
		}
	}

	return b.String()
}
