// Package config loads shared settings from the environment and an optional
// .env file.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds the settings shared by the indexer, the QA CLI and the API
// server. Missing or malformed values fail at load time, not mid-pipeline.
type Config struct {
	OllamaHost     string
	EmbedModel     string
	EmbedDimension int
	ChatModel      string

	QdrantHost   string
	QdrantPort   int
	QdrantAPIKey string
	QdrantUseTLS bool
	IndexName    string

	// DatabaseURL enables usage-statistics persistence when set.
	DatabaseURL string

	Port string
}

// Load reads .env (if present) and the environment.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		OllamaHost:   os.Getenv("OLLAMA_HOST"),
		EmbedModel:   envOrDefault("EMBED_MODEL", "nomic-embed-text"),
		ChatModel:    envOrDefault("CHAT_MODEL", "llama3.2"),
		QdrantHost:   envOrDefault("QDRANT_HOST", "localhost"),
		QdrantAPIKey: os.Getenv("QDRANT_API_KEY"),
		IndexName:    envOrDefault("INDEX_NAME", "halsaveda_comprehensive"),
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		Port:         envOrDefault("PORT", "8000"),
	}

	var err error
	if cfg.EmbedDimension, err = envInt("EMBED_DIMENSION", 768); err != nil {
		return Config{}, err
	}
	if cfg.QdrantPort, err = envInt("QDRANT_PORT", 6334); err != nil {
		return Config{}, err
	}
	if cfg.QdrantUseTLS, err = envBool("QDRANT_USE_TLS", false); err != nil {
		return Config{}, err
	}

	if cfg.EmbedDimension <= 0 {
		return Config{}, fmt.Errorf("EMBED_DIMENSION must be positive, got %d", cfg.EmbedDimension)
	}

	return cfg, nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", key, v)
	}
	return n, nil
}

func envBool(key string, def bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s must be a boolean, got %q", key, v)
	}
	return b, nil
}
