package vectordb

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/qdrant/go-client/qdrant"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	grpccodes "google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/entropy1208/halsaveda-copilot/internal/models"
)

// fakeClient simulates collection state transitions. statuses scripts the
// sequence returned by successive GetCollectionInfo calls once the collection
// exists.
type fakeClient struct {
	exists      bool
	statuses    []qdrant.CollectionStatus
	points      uint64
	creates     int
	deletes     int
	infoCalls   int
	upsertCalls []*qdrant.UpsertPoints
	upsertErrAt map[int]error
	queryReq    *qdrant.QueryPoints
	queryResult []*qdrant.ScoredPoint
	queryErr    error
}

func notFoundErr() error {
	return status.Error(grpccodes.NotFound, "collection not found")
}

func (f *fakeClient) CreateCollection(_ context.Context, _ *qdrant.CreateCollection) error {
	f.creates++
	f.exists = true
	return nil
}

func (f *fakeClient) DeleteCollection(_ context.Context, _ string) error {
	f.deletes++
	f.exists = false
	return nil
}

func (f *fakeClient) GetCollectionInfo(_ context.Context, _ string) (*qdrant.CollectionInfo, error) {
	f.infoCalls++
	if !f.exists {
		return nil, notFoundErr()
	}

	st := qdrant.CollectionStatus_Green
	if len(f.statuses) > 0 {
		st = f.statuses[0]
		f.statuses = f.statuses[1:]
	}
	return &qdrant.CollectionInfo{
		Status:      st,
		PointsCount: qdrant.PtrOf(f.points),
	}, nil
}

func (f *fakeClient) Upsert(_ context.Context, req *qdrant.UpsertPoints) (*qdrant.UpdateResult, error) {
	call := len(f.upsertCalls)
	f.upsertCalls = append(f.upsertCalls, req)
	if err, ok := f.upsertErrAt[call]; ok {
		return nil, err
	}
	return &qdrant.UpdateResult{}, nil
}

func (f *fakeClient) Query(_ context.Context, req *qdrant.QueryPoints) ([]*qdrant.ScoredPoint, error) {
	f.queryReq = req
	return f.queryResult, f.queryErr
}

func newTestManager(client storeClient) *Manager {
	cfg := Config{
		Host:            "localhost",
		Port:            6334,
		Collection:      "health-test",
		Dimension:       4,
		BatchSize:       2,
		BatchDelay:      -1,
		PollInterval:    time.Millisecond,
		MaxPollAttempts: 3,
	}
	return &Manager{client: client, cfg: cfg}
}

func TestExists(t *testing.T) {
	t.Run("missing collection", func(t *testing.T) {
		m := newTestManager(&fakeClient{})
		exists, err := m.Exists(context.Background())
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("present collection", func(t *testing.T) {
		m := newTestManager(&fakeClient{exists: true})
		exists, err := m.Exists(context.Background())
		require.NoError(t, err)
		assert.True(t, exists)
	})
}

func TestRecreateFreshIndex(t *testing.T) {
	client := &fakeClient{}
	m := newTestManager(client)

	require.NoError(t, m.Recreate(context.Background()))
	assert.Zero(t, client.deletes)
	assert.Equal(t, 1, client.creates)
}

func TestRecreateReplacesExistingIndex(t *testing.T) {
	client := &fakeClient{exists: true}
	m := newTestManager(client)

	require.NoError(t, m.Recreate(context.Background()))
	assert.Equal(t, 1, client.deletes)
	assert.Equal(t, 1, client.creates)
}

func TestRecreateWaitsForReadiness(t *testing.T) {
	client := &fakeClient{
		statuses: []qdrant.CollectionStatus{
			qdrant.CollectionStatus_Yellow,
			qdrant.CollectionStatus_Green,
		},
	}
	m := newTestManager(client)

	require.NoError(t, m.Recreate(context.Background()))
	assert.Empty(t, client.statuses)
}

func TestRecreateBoundedPolling(t *testing.T) {
	// The status never turns green, so the poll must give up.
	client := &fakeClient{
		statuses: []qdrant.CollectionStatus{
			qdrant.CollectionStatus_Yellow,
			qdrant.CollectionStatus_Yellow,
			qdrant.CollectionStatus_Yellow,
			qdrant.CollectionStatus_Yellow,
		},
	}
	m := newTestManager(client)

	err := m.Recreate(context.Background())
	require.ErrorIs(t, err, ErrIndexNotReady)
}

func testRecords(n int) []models.VectorRecord {
	records := make([]models.VectorRecord, n)
	for i := range records {
		records[i] = models.VectorRecord{
			ID:       "00000000-0000-0000-0000-00000000000" + string(rune('0'+i)),
			Values:   []float32{1, 2, 3, 4},
			Category: "other",
		}
	}
	return records
}

func TestUpsertBatches(t *testing.T) {
	client := &fakeClient{exists: true}
	m := newTestManager(client)

	uploaded, err := m.Upsert(context.Background(), testRecords(5))
	require.NoError(t, err)
	assert.Equal(t, 5, uploaded)

	require.Len(t, client.upsertCalls, 3)
	assert.Len(t, client.upsertCalls[0].Points, 2)
	assert.Len(t, client.upsertCalls[1].Points, 2)
	assert.Len(t, client.upsertCalls[2].Points, 1)
}

func TestUpsertSkipsFailedBatch(t *testing.T) {
	client := &fakeClient{
		exists:      true,
		upsertErrAt: map[int]error{1: errors.New("write timeout")},
	}
	m := newTestManager(client)

	uploaded, err := m.Upsert(context.Background(), testRecords(5))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 upsert batches failed")
	// The failing middle batch is skipped, the rest still lands.
	assert.Equal(t, 3, uploaded)
	assert.Len(t, client.upsertCalls, 3)
}

func TestUpsertEmptyInput(t *testing.T) {
	client := &fakeClient{exists: true}
	m := newTestManager(client)

	uploaded, err := m.Upsert(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, uploaded)
	assert.Empty(t, client.upsertCalls)
}

func TestUpsertPayload(t *testing.T) {
	client := &fakeClient{exists: true}
	m := newTestManager(client)

	record := models.VectorRecord{
		ID:             "7d444840-9dc0-11d1-b245-5ffdce74fad2",
		Values:         []float32{0.5, 0.5, 0.5, 0.5},
		Category:       "diseases_conditions",
		ChunkLength:    11,
		ChunkType:      models.ChunkTypeSection,
		Heading:        "Fever",
		Text:           "Adults should rest.",
		FullTextLength: 19,
		URL:            "https://www.1177.se/sjukdomar--besvar/feber",
		Title:          "Feber",
		Degraded:       true,
	}

	_, err := m.Upsert(context.Background(), []models.VectorRecord{record})
	require.NoError(t, err)
	require.Len(t, client.upsertCalls, 1)

	payload := client.upsertCalls[0].Points[0].Payload
	assert.Equal(t, "diseases_conditions", payload["category"].GetStringValue())
	assert.Equal(t, int64(11), payload["chunk_length"].GetIntegerValue())
	assert.Equal(t, models.ChunkTypeSection, payload["chunk_type"].GetStringValue())
	assert.Equal(t, "Fever", payload["heading"].GetStringValue())
	assert.Equal(t, "Adults should rest.", payload["text"].GetStringValue())
	assert.Equal(t, int64(19), payload["full_text_length"].GetIntegerValue())
	assert.Equal(t, "Feber", payload["title"].GetStringValue())
	assert.True(t, payload["degraded"].GetBoolValue())
}

func TestQuery(t *testing.T) {
	client := &fakeClient{
		exists: true,
		queryResult: []*qdrant.ScoredPoint{
			{
				Score: 0.92,
				Payload: map[string]*qdrant.Value{
					"text":  {Kind: &qdrant.Value_StringValue{StringValue: "Rest helps."}},
					"title": {Kind: &qdrant.Value_StringValue{StringValue: "Feber"}},
				},
			},
			{
				Score: 0.81,
				Payload: map[string]*qdrant.Value{
					"text": {Kind: &qdrant.Value_StringValue{StringValue: "Drink fluids."}},
				},
			},
		},
	}
	m := newTestManager(client)

	matches, err := m.Query(context.Background(), []float32{1, 0, 0, 0}, 3, "")
	require.NoError(t, err)
	require.Len(t, matches, 2)

	assert.Equal(t, float32(0.92), matches[0].Score)
	assert.Equal(t, "Rest helps.", matches[0].Metadata["text"])
	assert.Equal(t, "Feber", matches[0].Metadata["title"])
	assert.Equal(t, float32(0.81), matches[1].Score)

	require.NotNil(t, client.queryReq)
	assert.Equal(t, uint64(3), *client.queryReq.Limit)
	assert.Nil(t, client.queryReq.Filter)
}

func TestQueryWithCategoryFilter(t *testing.T) {
	client := &fakeClient{exists: true}
	m := newTestManager(client)

	_, err := m.Query(context.Background(), []float32{1, 0, 0, 0}, 3, "lifestyle_health")
	require.NoError(t, err)

	require.NotNil(t, client.queryReq.Filter)
	require.Len(t, client.queryReq.Filter.Must, 1)
	field := client.queryReq.Filter.Must[0].GetField()
	require.NotNil(t, field)
	assert.Equal(t, "category", field.Key)
	assert.Equal(t, "lifestyle_health", field.Match.GetKeyword())
}

func TestQueryRejectsNonPositiveTopK(t *testing.T) {
	m := newTestManager(&fakeClient{exists: true})

	_, err := m.Query(context.Background(), []float32{1, 0, 0, 0}, 0, "")
	require.Error(t, err)
}

func TestQueryPropagatesBackendError(t *testing.T) {
	client := &fakeClient{exists: true, queryErr: errors.New("unavailable")}
	m := newTestManager(client)

	_, err := m.Query(context.Background(), []float32{1, 0, 0, 0}, 3, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unavailable")
}

func TestStats(t *testing.T) {
	client := &fakeClient{exists: true, points: 1523}
	m := newTestManager(client)

	stats, err := m.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1523, stats.VectorCount)
	assert.Equal(t, 4, stats.Dimension)
}

func TestConfigValidate(t *testing.T) {
	valid := Config{Host: "localhost", Port: 6334, Collection: "c", Dimension: 768}
	require.NoError(t, valid.Validate())

	for name, mutate := range map[string]func(*Config){
		"missing host":       func(c *Config) { c.Host = "" },
		"bad port":           func(c *Config) { c.Port = 0 },
		"missing collection": func(c *Config) { c.Collection = "" },
		"missing dimension":  func(c *Config) { c.Dimension = 0 },
	} {
		t.Run(name, func(t *testing.T) {
			cfg := valid
			mutate(&cfg)
			require.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
		})
	}
}

func TestConfigApplyDefaults(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()

	assert.Equal(t, 100, cfg.BatchSize)
	assert.Equal(t, 500*time.Millisecond, cfg.BatchDelay)
	assert.Equal(t, 2*time.Second, cfg.PollInterval)
	assert.Equal(t, 30, cfg.MaxPollAttempts)
	assert.Equal(t, 50*1024*1024, cfg.MaxMessageSize)
}
