// Package chatbot generates grounded answers from retrieved healthcare
// passages. It is the downstream consumer of the query engine.
package chatbot

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ollama/ollama/api"
	"github.com/ollama/ollama/envconfig"

	"github.com/entropy1208/halsaveda-copilot/internal/models"
	"github.com/entropy1208/halsaveda-copilot/internal/query"
)

const systemPrompt = `You are HalsaVeda Copilot, an AI assistant helping people navigate Swedish healthcare.

Your role:
- Answer questions about Swedish healthcare clearly and concisely
- Use the provided context from 1177.se (Swedish healthcare website)
- Translate Swedish content to English when needed
- Provide practical, actionable advice
- Always cite your sources with [Source X] references
- If you don't know something, say so

Be empathetic and helpful, especially for immigrants/expats who may find the Swedish system confusing.`

// Retriever supplies ranked context chunks for a question.
type Retriever interface {
	SearchCategory(ctx context.Context, queryText string, topK int, category string) ([]models.SearchResult, error)
}

// Chatbot answers questions using retrieved context and an Ollama model.
type Chatbot struct {
	Client *api.Client
	Model  string

	retriever Retriever
}

// New creates a chatbot. An empty host falls back to the OLLAMA_HOST
// environment variable.
func New(host, model string, retriever Retriever) (*Chatbot, error) {
	if model == "" {
		return nil, fmt.Errorf("chat model is required")
	}

	hostURL := envconfig.Host()
	if host != "" {
		parsed, err := url.Parse(host)
		if err != nil {
			return nil, fmt.Errorf("invalid ollama host %q: %w", host, err)
		}
		hostURL = parsed
	}
	client := api.NewClient(hostURL, http.DefaultClient)

	return &Chatbot{
		Client:    client,
		Model:     model,
		retriever: retriever,
	}, nil
}

// GeneratePrompt assembles the user prompt from the question and its
// retrieved context.
func (c *Chatbot) GeneratePrompt(question string, results []models.SearchResult) string {
	var b strings.Builder

	b.WriteString("Question: " + question + "\n\n")
	b.WriteString("Context from 1177.se:\n")
	b.WriteString(query.FormatContext(results))
	b.WriteString("\nInstructions:\n")
	b.WriteString("1. Answer the question based on the context above\n")
	b.WriteString("2. If context is in Swedish, translate key points to English\n")
	b.WriteString("3. Provide practical steps when relevant\n")
	b.WriteString("4. Cite sources using [Source 1], [Source 2], etc.\n")
	b.WriteString("5. If context doesn't fully answer the question, say what you can answer and what's missing\n\n")
	b.WriteString("Answer: ")

	return b.String()
}

// GenerateResponse streams a completion from the model and accumulates it.
func (c *Chatbot) GenerateResponse(ctx context.Context, prompt string) (string, error) {
	req := api.GenerateRequest{
		Model:  c.Model,
		Prompt: prompt,
		System: systemPrompt,
		Options: map[string]interface{}{
			"temperature": 0.7,
			"num_predict": 500,
		},
	}

	var responseBuilder strings.Builder

	err := c.Client.Generate(ctx, &req, func(resp api.GenerateResponse) error {
		_, err := responseBuilder.WriteString(resp.Response)
		return err
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate response: %w", err)
	}

	return responseBuilder.String(), nil
}

// Chat retrieves context for a question and generates a cited answer.
func (c *Chatbot) Chat(ctx context.Context, question string, topK int) (*models.Response, error) {
	return c.ChatCategory(ctx, question, topK, "")
}

// ChatCategory is Chat restricted to one source category.
func (c *Chatbot) ChatCategory(ctx context.Context, question string, topK int, category string) (*models.Response, error) {
	results, err := c.retriever.SearchCategory(ctx, question, topK, category)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve context: %w", err)
	}

	answer, err := c.GenerateResponse(ctx, c.GeneratePrompt(question, results))
	if err != nil {
		return nil, err
	}

	sources := make([]models.Source, len(results))
	for i, result := range results {
		sources[i] = models.Source{
			Title:   result.Title,
			URL:     result.URL,
			Score:   result.Score,
			Preview: preview(result.Text, 200),
		}
	}

	return &models.Response{
		Question: question,
		Answer:   answer,
		Sources:  sources,
		Metadata: map[string]string{
			"model":       c.Model,
			"num_sources": fmt.Sprintf("%d", len(sources)),
			"timestamp":   time.Now().Format(time.RFC3339),
		},
	}, nil
}

func preview(text string, n int) string {
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	return string(runes[:n]) + "..."
}
