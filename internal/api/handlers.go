package api

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/entropy1208/halsaveda-copilot/internal/models"
	"github.com/entropy1208/halsaveda-copilot/internal/usage"
	"github.com/entropy1208/halsaveda-copilot/internal/vectordb"
)

// Answerer produces a grounded answer for a question.
type Answerer interface {
	Chat(ctx context.Context, question string, topK int) (*models.Response, error)
}

// StatsProvider reports the state of the vector index.
type StatsProvider interface {
	Stats(ctx context.Context) (vectordb.Stats, error)
}

// ModelInfo names the models behind the service, reported by /api/stats.
type ModelInfo struct {
	EmbeddingModel string
	ChatModel      string
	IndexName      string
}

// Handlers holds the HTTP handlers' dependencies.
type Handlers struct {
	bot    Answerer
	index  StatsProvider
	models ModelInfo
	store  *usage.Store
}

// NewHandlers wires the handlers. store may be nil.
func NewHandlers(bot Answerer, index StatsProvider, models ModelInfo, store *usage.Store) *Handlers {
	return &Handlers{bot: bot, index: index, models: models, store: store}
}

type chatRequest struct {
	Question string `json:"question"`
	TopK     int    `json:"top_k"`
}

// HandleRoot is the basic health check.
func (h *Handlers) HandleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "HalsaVeda Copilot",
	})
}

// HandleHealth reports readiness and the available endpoints.
func (h *Handlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":        "healthy",
		"chatbot_ready": h.bot != nil,
		"endpoints": map[string]string{
			"chat":   "/api/chat",
			"stats":  "/api/stats",
			"health": "/health",
		},
	})
}

// HandleChat answers one question.
func (h *Handlers) HandleChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Question == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "question is required"})
		return
	}
	if req.TopK <= 0 {
		req.TopK = 3
	}

	start := time.Now()
	resp, err := h.bot.Chat(r.Context(), req.Question, req.TopK)
	if err != nil {
		log.Printf("Chat error: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "error processing request"})
		return
	}

	if h.store != nil {
		// Usage recording is best-effort; an unreachable database must not
		// fail the chat response.
		if err := h.store.RecordResponse(r.Context(), resp, time.Since(start)); err != nil {
			log.Printf("Warning: failed to record usage: %v", err)
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

// HandleStats reports vector index and model information.
func (h *Handlers) HandleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.index.Stats(r.Context())
	if err != nil {
		log.Printf("Stats error: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to read index stats"})
		return
	}

	body := map[string]any{
		"vector_database": map[string]any{
			"total_vectors": stats.VectorCount,
			"dimension":     stats.Dimension,
			"index_name":    h.models.IndexName,
		},
		"models": map[string]string{
			"embedding": h.models.EmbeddingModel,
			"llm":       h.models.ChatModel,
		},
	}

	if h.store != nil {
		summary, err := h.store.Summarize(r.Context())
		if err != nil {
			log.Printf("Warning: failed to summarize usage: %v", err)
		} else {
			body["usage"] = map[string]any{
				"total_questions": summary.TotalQuestions,
				"avg_latency_ms":  summary.AvgLatencyMS,
			}
		}
	}

	writeJSON(w, http.StatusOK, body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
