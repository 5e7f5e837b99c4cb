// Package usage persists chat usage statistics in Postgres.
package usage

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/entropy1208/halsaveda-copilot/internal/models"
)

// Store records answered questions for usage reporting.
type Store struct {
	Pool *pgxpool.Pool
}

// Entry is one answered question.
type Entry struct {
	Question   string
	Model      string
	NumSources int
	TopScore   float32
	Latency    time.Duration
}

// Summary aggregates recorded usage.
type Summary struct {
	TotalQuestions int
	AvgLatencyMS   float64
}

// NewStore opens a connection pool and verifies it.
func NewStore(connStr string) (*Store, error) {
	ctx := context.Background()
	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{Pool: pool}, nil
}

// Initialize sets up the usage table.
func (s *Store) Initialize(ctx context.Context) error {
	_, err := s.Pool.Exec(ctx, `
        CREATE TABLE IF NOT EXISTS chat_usage (
            id SERIAL PRIMARY KEY,
            question TEXT NOT NULL,
            model TEXT NOT NULL,
            num_sources INTEGER NOT NULL,
            top_score REAL NOT NULL,
            latency_ms INTEGER NOT NULL,
            asked_at TIMESTAMPTZ NOT NULL DEFAULT now()
        )
    `)
	if err != nil {
		return fmt.Errorf("failed to create chat_usage table: %w", err)
	}

	_, err = s.Pool.Exec(ctx, `
		CREATE INDEX IF NOT EXISTS chat_usage_asked_at_idx ON chat_usage (asked_at)
	`)
	if err != nil {
		return fmt.Errorf("failed to create usage index: %w", err)
	}

	return nil
}

// Record inserts one usage entry.
func (s *Store) Record(ctx context.Context, entry Entry) error {
	_, err := s.Pool.Exec(ctx, `
        INSERT INTO chat_usage (question, model, num_sources, top_score, latency_ms)
        VALUES ($1, $2, $3, $4, $5)
    `,
		entry.Question,
		entry.Model,
		entry.NumSources,
		entry.TopScore,
		entry.Latency.Milliseconds())

	return err
}

// RecordResponse derives a usage entry from a chat response.
func (s *Store) RecordResponse(ctx context.Context, resp *models.Response, latency time.Duration) error {
	var topScore float32
	if len(resp.Sources) > 0 {
		topScore = resp.Sources[0].Score
	}

	return s.Record(ctx, Entry{
		Question:   resp.Question,
		Model:      resp.Metadata["model"],
		NumSources: len(resp.Sources),
		TopScore:   topScore,
		Latency:    latency,
	})
}

// Summarize aggregates all recorded usage.
func (s *Store) Summarize(ctx context.Context) (Summary, error) {
	var summary Summary
	err := s.Pool.QueryRow(ctx, `
		SELECT count(*), coalesce(avg(latency_ms), 0) FROM chat_usage
	`).Scan(&summary.TotalQuestions, &summary.AvgLatencyMS)
	if err != nil {
		return Summary{}, fmt.Errorf("failed to summarize usage: %w", err)
	}

	return summary, nil
}

// Close closes the connection pool.
func (s *Store) Close() {
	s.Pool.Close()
}
