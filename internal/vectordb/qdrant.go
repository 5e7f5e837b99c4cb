// Package vectordb manages the remote vector index holding embedded chunks.
package vectordb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	grpccodes "google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var (
	// ErrInvalidConfig indicates missing or invalid index configuration.
	ErrInvalidConfig = errors.New("invalid index configuration")

	// ErrIndexNotReady indicates the index did not become ready within the
	// bounded polling window.
	ErrIndexNotReady = errors.New("index not ready")
)

// Config holds the connection and lifecycle settings for the index.
type Config struct {
	// Host is the Qdrant server hostname.
	Host string

	// Port is the Qdrant gRPC port.
	Port int

	// APIKey authenticates against a managed Qdrant instance. Empty for
	// local instances.
	APIKey string

	// UseTLS enables TLS for the gRPC connection.
	UseTLS bool

	// Collection is the index name.
	Collection string

	// Dimension is the embedding dimension, fixed at index creation.
	Dimension int

	// BatchSize is the number of records written per upsert call.
	BatchSize int

	// BatchDelay is the pause between upsert batches.
	BatchDelay time.Duration

	// PollInterval is the readiness polling cadence.
	PollInterval time.Duration

	// MaxPollAttempts bounds readiness polling; exceeding it yields
	// ErrIndexNotReady instead of hanging forever.
	MaxPollAttempts int

	// MaxMessageSize is the maximum gRPC message size in bytes.
	MaxMessageSize int
}

// Validate checks required fields.
func (c Config) Validate() error {
	if c.Host == "" {
		return fmt.Errorf("%w: host required", ErrInvalidConfig)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("%w: invalid port %d", ErrInvalidConfig, c.Port)
	}
	if c.Collection == "" {
		return fmt.Errorf("%w: collection name required", ErrInvalidConfig)
	}
	if c.Dimension <= 0 {
		return fmt.Errorf("%w: dimension required", ErrInvalidConfig)
	}
	return nil
}

// ApplyDefaults fills unset tuning fields.
func (c *Config) ApplyDefaults() {
	if c.BatchSize == 0 {
		c.BatchSize = 100
	}
	if c.BatchDelay == 0 {
		c.BatchDelay = 500 * time.Millisecond
	}
	if c.PollInterval == 0 {
		c.PollInterval = 2 * time.Second
	}
	if c.MaxPollAttempts == 0 {
		c.MaxPollAttempts = 30
	}
	if c.MaxMessageSize == 0 {
		c.MaxMessageSize = 50 * 1024 * 1024
	}
}

// storeClient is the slice of the Qdrant client the manager uses. Tests
// substitute a fake.
type storeClient interface {
	CreateCollection(ctx context.Context, req *qdrant.CreateCollection) error
	DeleteCollection(ctx context.Context, collection string) error
	GetCollectionInfo(ctx context.Context, collection string) (*qdrant.CollectionInfo, error)
	Upsert(ctx context.Context, req *qdrant.UpsertPoints) (*qdrant.UpdateResult, error)
	Query(ctx context.Context, req *qdrant.QueryPoints) ([]*qdrant.ScoredPoint, error)
}

// Connect dials Qdrant over gRPC and verifies the connection with a health
// check before returning a Manager.
func Connect(cfg Config) (*Manager, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   cfg.Host,
		Port:   cfg.Port,
		APIKey: cfg.APIKey,
		UseTLS: cfg.UseTLS,
		GrpcOptions: []grpc.DialOption{
			grpc.WithDefaultCallOptions(
				grpc.MaxCallRecvMsgSize(cfg.MaxMessageSize),
				grpc.MaxCallSendMsgSize(cfg.MaxMessageSize),
			),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to qdrant: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := client.HealthCheck(ctx); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("qdrant health check failed: %w", err)
	}

	return &Manager{client: client, closer: client.Close, cfg: cfg}, nil
}

func isNotFound(err error) bool {
	st, ok := status.FromError(err)
	return ok && st.Code() == grpccodes.NotFound
}
