package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/entropy1208/halsaveda-copilot/internal/api"
	"github.com/entropy1208/halsaveda-copilot/internal/chatbot"
	"github.com/entropy1208/halsaveda-copilot/internal/config"
	"github.com/entropy1208/halsaveda-copilot/internal/embedding"
	"github.com/entropy1208/halsaveda-copilot/internal/query"
	"github.com/entropy1208/halsaveda-copilot/internal/usage"
	"github.com/entropy1208/halsaveda-copilot/internal/vectordb"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx := context.Background()

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

	embedder, err := embedding.NewOllamaEmbedder(cfg.OllamaHost, cfg.EmbedModel, cfg.EmbedDimension)
	if err != nil {
		log.Fatalf("Failed to create embedder: %v", err)
	}
	engine := query.NewEngine(embedding.NewPipeline(embedder), manager)

	bot, err := chatbot.New(cfg.OllamaHost, cfg.ChatModel, engine)
	if err != nil {
		log.Fatalf("Failed to create chatbot: %v", err)
	}

	// Usage persistence is optional; the API runs without it.
	var store *usage.Store
	if cfg.DatabaseURL != "" {
		store, err = usage.NewStore(cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("Failed to connect to usage database: %v", err)
		}
		defer store.Close()

		if err := store.Initialize(ctx); err != nil {
			log.Fatalf("Failed to initialize usage database: %v", err)
		}
	} else {
		log.Println("DATABASE_URL not set, usage recording disabled")
	}

	srv := api.New(cfg.Port, bot, manager, api.ModelInfo{
		EmbeddingModel: cfg.EmbedModel,
		ChatModel:      cfg.ChatModel,
		IndexName:      cfg.IndexName,
	}, store)

	// Graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("Server stopped: %v", err)
		}
	}()

	<-done
	log.Println("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
}
