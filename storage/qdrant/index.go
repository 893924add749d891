// Package qdrant implements storage.VectorIndex on top of a Qdrant collection.
package qdrant

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/poiesic/lexrag/core"
	"github.com/poiesic/lexrag/storage"
	qdrant "github.com/qdrant/go-client/qdrant"
)

const (
	// DefaultPort is the Qdrant gRPC port.
	DefaultPort = 6334

	// DefaultCollection is the collection used when none is configured.
	DefaultCollection = "condo-act"

	// DefaultDimension matches 1024-dimensional embedding models.
	DefaultDimension = 1024

	healthCheckTimeout = 3 * time.Second
)

// api is the subset of *qdrant.Client used by Index.
type api interface {
	HealthCheck(ctx context.Context) (*qdrant.HealthCheckReply, error)
	CollectionExists(ctx context.Context, collectionName string) (bool, error)
	CreateCollection(ctx context.Context, request *qdrant.CreateCollection) error
	GetCollectionInfo(ctx context.Context, collectionName string) (*qdrant.CollectionInfo, error)
	Upsert(ctx context.Context, request *qdrant.UpsertPoints) (*qdrant.UpdateResult, error)
	Query(ctx context.Context, request *qdrant.QueryPoints) ([]*qdrant.ScoredPoint, error)
	Count(ctx context.Context, request *qdrant.CountPoints) (uint64, error)
	Delete(ctx context.Context, request *qdrant.DeletePoints) (*qdrant.UpdateResult, error)
	Close() error
}

var _ api = (*qdrant.Client)(nil)

// Config holds connection settings for a Qdrant index.
type Config struct {
	Host       string
	Port       int
	APIKey     string
	UseTLS     bool
	Collection string
}

// Index is a storage.VectorIndex backed by a Qdrant collection.
//
// Point IDs are derived from chunk IDs with core.PointID, since Qdrant only
// accepts UUID or integer keys. The chunk ID itself is stored in the payload
// under core.PayloadChunkID and returned as the match ID.
type Index struct {
	client     api
	collection string
	logger     *slog.Logger
}

var (
	_ storage.VectorIndex  = (*Index)(nil)
	_ storage.IndexCreator = (*Index)(nil)
)

// Option configures an Index.
type Option func(*Index) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(idx *Index) error {
		if logger == nil {
			logger = slog.Default()
		}
		idx.logger = logger.With("component", "qdrant-index")
		return nil
	}
}

// NewIndex connects to Qdrant and verifies the server is healthy.
// The collection is not created; call CreateIndex for that.
func NewIndex(cfg Config, opts ...Option) (storage.VectorIndex, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("qdrant: host is required")
	}
	if cfg.Port == 0 {
		cfg.Port = DefaultPort
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   cfg.Host,
		Port:   cfg.Port,
		APIKey: cfg.APIKey,
		UseTLS: cfg.UseTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("qdrant: failed to initialize client: %w", err)
	}

	idx, err := newIndex(client, cfg.Collection, opts...)
	if err != nil {
		client.Close()
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), healthCheckTimeout)
	defer cancel()
	if err := idx.HealthCheck(ctx); err != nil {
		client.Close()
		return nil, err
	}
	return idx, nil
}

func newIndex(client api, collection string, opts ...Option) (*Index, error) {
	if collection == "" {
		collection = DefaultCollection
	}
	idx := &Index{
		client:     client,
		collection: collection,
		logger:     slog.Default().With("component", "qdrant-index"),
	}
	for _, opt := range opts {
		if err := opt(idx); err != nil {
			return nil, err
		}
	}
	idx.logger = idx.logger.With("collection", collection)
	return idx, nil
}

// HealthCheck verifies the Qdrant server responds.
func (idx *Index) HealthCheck(ctx context.Context) error {
	resp, err := idx.client.HealthCheck(ctx)
	if err != nil {
		return fmt.Errorf("qdrant: health check failed: %w", err)
	}
	idx.logger.Debug("health check passed", "version", resp.GetVersion())
	return nil
}

// CreateIndex creates the collection with cosine distance if it is missing.
func (idx *Index) CreateIndex(ctx context.Context, dimension int) error {
	if dimension <= 0 {
		return fmt.Errorf("qdrant: dimension must be positive, got %d", dimension)
	}

	exists, err := idx.client.CollectionExists(ctx, idx.collection)
	if err != nil {
		return fmt.Errorf("qdrant: failed to check collection: %w", err)
	}
	if exists {
		idx.logger.Info("collection already exists")
		return nil
	}

	err = idx.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: idx.collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(dimension),
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("qdrant: failed to create collection: %w", err)
	}
	idx.logger.Info("created collection", "dimension", dimension)
	return nil
}

// Upsert writes records as points in a single request and waits for them to apply.
func (idx *Index) Upsert(ctx context.Context, records []storage.Record) error {
	if len(records) == 0 {
		return nil
	}

	points := make([]*qdrant.PointStruct, 0, len(records))
	for _, rec := range records {
		if rec.ID == "" || len(rec.Vector) == 0 {
			return fmt.Errorf("%w: id %q has %d dimensions", storage.ErrInvalidRecord, rec.ID, len(rec.Vector))
		}

		payload := make(map[string]any, len(rec.Payload)+1)
		for k, v := range rec.Payload {
			payload[k] = v
		}
		payload[core.PayloadChunkID] = rec.ID

		values, err := toValueMap(payload)
		if err != nil {
			return fmt.Errorf("%w: %s: %w", storage.ErrSerializationFailed, rec.ID, err)
		}

		points = append(points, &qdrant.PointStruct{
			Id:      qdrant.NewID(core.PointID(rec.ID)),
			Vectors: qdrant.NewVectors(rec.Vector...),
			Payload: values,
		})
	}

	wait := true
	_, err := idx.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: idx.collection,
		Points:         points,
		Wait:           &wait,
	})
	if err != nil {
		return fmt.Errorf("qdrant: upsert failed: %w", err)
	}
	idx.logger.Debug("upserted points", "count", len(points))
	return nil
}

// Query returns the topK nearest points with their payloads.
// Scores are clamped to [0,1].
func (idx *Index) Query(ctx context.Context, vector []float32, topK int) ([]storage.Match, error) {
	if topK <= 0 || len(vector) == 0 {
		return nil, storage.ErrInvalidQuery
	}

	limit := uint64(topK)
	points, err := idx.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: idx.collection,
		Query:          qdrant.NewQuery(vector...),
		Limit:          &limit,
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("qdrant: query failed: %w", err)
	}

	matches := make([]storage.Match, 0, len(points))
	for _, p := range points {
		payload := fromValueMap(p.GetPayload())
		id, _ := payload[core.PayloadChunkID].(string)
		if id == "" {
			id = pointIDString(p.GetId())
		}
		matches = append(matches, storage.Match{
			ID:      id,
			Score:   core.ClampScore(p.GetScore()),
			Payload: payload,
		})
	}

	idx.logger.Debug("query complete", "topK", topK, "returned", len(matches))
	return matches, nil
}

// DescribeStats reports the exact point count and the configured vector size.
func (idx *Index) DescribeStats(ctx context.Context) (storage.Stats, error) {
	info, err := idx.client.GetCollectionInfo(ctx, idx.collection)
	if err != nil {
		return storage.Stats{}, fmt.Errorf("%w: %s: %w", storage.ErrIndexNotFound, idx.collection, err)
	}

	exact := true
	count, err := idx.client.Count(ctx, &qdrant.CountPoints{
		CollectionName: idx.collection,
		Exact:          &exact,
	})
	if err != nil {
		return storage.Stats{}, fmt.Errorf("qdrant: count failed: %w", err)
	}

	size := info.GetConfig().GetParams().GetVectorsConfig().GetParams().GetSize()
	return storage.Stats{
		Count:     int64(count),
		Dimension: int(size),
	}, nil
}

// DeleteAll removes every point while keeping the collection.
func (idx *Index) DeleteAll(ctx context.Context) error {
	wait := true
	_, err := idx.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: idx.collection,
		Points:         qdrant.NewPointsSelectorFilter(&qdrant.Filter{}),
		Wait:           &wait,
	})
	if err != nil {
		return fmt.Errorf("qdrant: delete failed: %w", err)
	}
	idx.logger.Info("collection cleared")
	return nil
}

// Close closes the gRPC connection.
func (idx *Index) Close() error {
	return idx.client.Close()
}

func pointIDString(id *qdrant.PointId) string {
	switch v := id.GetPointIdOptions().(type) {
	case *qdrant.PointId_Uuid:
		return v.Uuid
	case *qdrant.PointId_Num:
		return fmt.Sprintf("%d", v.Num)
	default:
		return ""
	}
}
