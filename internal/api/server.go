// Package api exposes the chat endpoint and system statistics over HTTP.
package api

import (
	"log"
	"net/http"

	"github.com/entropy1208/halsaveda-copilot/internal/usage"
)

// New builds the HTTP server. The usage store is optional; pass nil to
// disable usage recording.
func New(port string, bot Answerer, index StatsProvider, models ModelInfo, store *usage.Store) *http.Server {
	handlers := NewHandlers(bot, index, models, store)

	mux := http.NewServeMux()
	mux.HandleFunc("/", handlers.HandleRoot)
	mux.HandleFunc("/health", handlers.HandleHealth)
	mux.HandleFunc("/api/chat", handlers.HandleChat)
	mux.HandleFunc("/api/stats", handlers.HandleStats)

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: withCORS(mux),
	}

	log.Printf("Server listening on http://localhost:%s", port)
	return srv
}

// withCORS allows the browser frontend to call the API from another origin.
func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}
