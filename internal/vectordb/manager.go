package vectordb

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/qdrant/go-client/qdrant"

	"github.com/entropy1208/halsaveda-copilot/internal/models"
)

// Manager owns exactly one named index at a time: lifecycle, batched writes
// and similarity queries.
type Manager struct {
	client storeClient
	closer func() error
	cfg    Config
}

// Stats reports the index contents for verification after an upload.
type Stats struct {
	VectorCount int
	Dimension   int
}

// Match is one scored result from a similarity query, with the record
// metadata attached.
type Match struct {
	Score    float32
	Metadata map[string]any
}

// Close releases the underlying connection.
func (m *Manager) Close() error {
	if m.closer != nil {
		return m.closer()
	}
	return nil
}

// Exists reports whether the index currently exists.
func (m *Manager) Exists(ctx context.Context) (bool, error) {
	_, err := m.client.GetCollectionInfo(ctx, m.cfg.Collection)
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to describe index %s: %w", m.cfg.Collection, err)
	}
	return true, nil
}

// Recreate destroys any existing index and creates a fresh one with the
// configured dimension and cosine distance. Prior vectors are unrecoverable
// afterwards. The readiness poll is bounded: if the index never reports
// ready, ErrIndexNotReady is returned instead of waiting forever.
func (m *Manager) Recreate(ctx context.Context) error {
	exists, err := m.Exists(ctx)
	if err != nil {
		return err
	}

	if exists {
		log.Printf("Deleting existing index: %s", m.cfg.Collection)
		if err := m.client.DeleteCollection(ctx, m.cfg.Collection); err != nil {
			return fmt.Errorf("failed to delete index %s: %w", m.cfg.Collection, err)
		}
		if err := m.waitFor(ctx, "deletion", func(ctx context.Context) (bool, error) {
			exists, err := m.Exists(ctx)
			return !exists, err
		}); err != nil {
			return err
		}
	}

	log.Printf("Creating index: %s (dimension=%d, metric=cosine)", m.cfg.Collection, m.cfg.Dimension)
	err = m.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: m.cfg.Collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(m.cfg.Dimension),
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("failed to create index %s: %w", m.cfg.Collection, err)
	}

	return m.waitFor(ctx, "readiness", func(ctx context.Context) (bool, error) {
		info, err := m.client.GetCollectionInfo(ctx, m.cfg.Collection)
		if err != nil {
			if isNotFound(err) {
				return false, nil
			}
			return false, fmt.Errorf("failed to describe index %s: %w", m.cfg.Collection, err)
		}
		return info.GetStatus() == qdrant.CollectionStatus_Green, nil
	})
}

// waitFor polls a condition at the configured interval, giving up after the
// configured number of attempts.
func (m *Manager) waitFor(ctx context.Context, what string, done func(context.Context) (bool, error)) error {
	for attempt := 0; attempt < m.cfg.MaxPollAttempts; attempt++ {
		ok, err := done(ctx)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
		log.Printf("Waiting for index %s %s...", m.cfg.Collection, what)
		if err := sleepCtx(ctx, m.cfg.PollInterval); err != nil {
			return err
		}
	}
	return fmt.Errorf("%w: %s %s not observed after %d attempts", ErrIndexNotReady, m.cfg.Collection, what, m.cfg.MaxPollAttempts)
}

// Upsert writes records in sequential batches with a short delay between
// them. A batch that fails is logged and skipped so the upload continues;
// the returned count and error let the caller see how complete the index is.
func (m *Manager) Upsert(ctx context.Context, records []models.VectorRecord) (int, error) {
	uploaded := 0
	failedBatches := 0

	for start := 0; start < len(records); start += m.cfg.BatchSize {
		end := start + m.cfg.BatchSize
		if end > len(records) {
			end = len(records)
		}
		batch := records[start:end]

		if start > 0 {
			if err := sleepCtx(ctx, m.cfg.BatchDelay); err != nil {
				return uploaded, err
			}
		}

		points := make([]*qdrant.PointStruct, len(batch))
		for i, record := range batch {
			points[i] = pointFromRecord(record)
		}

		_, err := m.client.Upsert(ctx, &qdrant.UpsertPoints{
			CollectionName: m.cfg.Collection,
			Points:         points,
		})
		if err != nil {
			if ctx.Err() != nil {
				return uploaded, ctx.Err()
			}
			log.Printf("Warning: failed to upsert batch %d-%d, skipping: %v", start, end, err)
			failedBatches++
			continue
		}
		uploaded += len(batch)
	}

	if failedBatches > 0 {
		return uploaded, fmt.Errorf("%d upsert batches failed, %d of %d records uploaded", failedBatches, uploaded, len(records))
	}
	return uploaded, nil
}

// Query runs one nearest-neighbour search with metadata attached. Matches
// come back pre-sorted by descending score; no local re-ranking is applied.
// An empty category matches all records.
func (m *Manager) Query(ctx context.Context, vector []float32, topK int, category string) ([]Match, error) {
	if topK <= 0 {
		return nil, fmt.Errorf("topK must be positive, got %d", topK)
	}

	var filter *qdrant.Filter
	if category != "" {
		filter = &qdrant.Filter{
			Must: []*qdrant.Condition{
				{
					ConditionOneOf: &qdrant.Condition_Field{
						Field: &qdrant.FieldCondition{
							Key: "category",
							Match: &qdrant.Match{
								MatchValue: &qdrant.Match_Keyword{Keyword: category},
							},
						},
					},
				},
			},
		}
	}

	points, err := m.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: m.cfg.Collection,
		Query:          qdrant.NewQuery(vector...),
		Limit:          qdrant.PtrOf(uint64(topK)),
		WithPayload:    qdrant.NewWithPayload(true),
		Filter:         filter,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query index %s: %w", m.cfg.Collection, err)
	}

	matches := make([]Match, len(points))
	for i, point := range points {
		matches[i] = Match{
			Score:    point.Score,
			Metadata: payloadToMap(point.Payload),
		}
	}
	return matches, nil
}

// Stats returns the stored vector count and the configured dimension.
func (m *Manager) Stats(ctx context.Context) (Stats, error) {
	info, err := m.client.GetCollectionInfo(ctx, m.cfg.Collection)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to describe index %s: %w", m.cfg.Collection, err)
	}

	count := 0
	if info.PointsCount != nil {
		count = int(*info.PointsCount)
	}
	return Stats{VectorCount: count, Dimension: m.cfg.Dimension}, nil
}

func pointFromRecord(record models.VectorRecord) *qdrant.PointStruct {
	payload := map[string]*qdrant.Value{
		"category":         {Kind: &qdrant.Value_StringValue{StringValue: record.Category}},
		"chunk_length":     {Kind: &qdrant.Value_IntegerValue{IntegerValue: int64(record.ChunkLength)}},
		"chunk_type":       {Kind: &qdrant.Value_StringValue{StringValue: record.ChunkType}},
		"heading":          {Kind: &qdrant.Value_StringValue{StringValue: record.Heading}},
		"text":             {Kind: &qdrant.Value_StringValue{StringValue: record.Text}},
		"full_text_length": {Kind: &qdrant.Value_IntegerValue{IntegerValue: int64(record.FullTextLength)}},
		"url":              {Kind: &qdrant.Value_StringValue{StringValue: record.URL}},
		"title":            {Kind: &qdrant.Value_StringValue{StringValue: record.Title}},
		"degraded":         {Kind: &qdrant.Value_BoolValue{BoolValue: record.Degraded}},
	}

	return &qdrant.PointStruct{
		Id:      qdrant.NewIDUUID(record.ID),
		Vectors: qdrant.NewVectors(record.Values...),
		Payload: payload,
	}
}

func payloadToMap(payload map[string]*qdrant.Value) map[string]any {
	out := make(map[string]any, len(payload))
	for key, value := range payload {
		switch kind := value.Kind.(type) {
		case *qdrant.Value_StringValue:
			out[key] = kind.StringValue
		case *qdrant.Value_IntegerValue:
			out[key] = kind.IntegerValue
		case *qdrant.Value_DoubleValue:
			out[key] = kind.DoubleValue
		case *qdrant.Value_BoolValue:
			out[key] = kind.BoolValue
		}
	}
	return out
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
