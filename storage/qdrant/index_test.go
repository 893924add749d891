package qdrant

import (
	"context"
	"errors"
	"testing"

	"github.com/poiesic/lexrag/core"
	"github.com/poiesic/lexrag/storage"
	qdrant "github.com/qdrant/go-client/qdrant"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAPI records requests and serves canned responses.
type fakeAPI struct {
	exists  bool
	created *qdrant.CreateCollection
	upserts []*qdrant.UpsertPoints
	deletes []*qdrant.DeletePoints
	queries []*qdrant.QueryPoints
	points  []*qdrant.ScoredPoint
	info    *qdrant.CollectionInfo
	count   uint64
	err     error
	closed  bool
}

func (f *fakeAPI) HealthCheck(ctx context.Context) (*qdrant.HealthCheckReply, error) {
	return &qdrant.HealthCheckReply{Title: "qdrant", Version: "1.16.0"}, f.err
}

func (f *fakeAPI) CollectionExists(ctx context.Context, name string) (bool, error) {
	return f.exists, f.err
}

func (f *fakeAPI) CreateCollection(ctx context.Context, req *qdrant.CreateCollection) error {
	f.created = req
	return f.err
}

func (f *fakeAPI) GetCollectionInfo(ctx context.Context, name string) (*qdrant.CollectionInfo, error) {
	return f.info, f.err
}

func (f *fakeAPI) Upsert(ctx context.Context, req *qdrant.UpsertPoints) (*qdrant.UpdateResult, error) {
	f.upserts = append(f.upserts, req)
	return &qdrant.UpdateResult{}, f.err
}

func (f *fakeAPI) Query(ctx context.Context, req *qdrant.QueryPoints) ([]*qdrant.ScoredPoint, error) {
	f.queries = append(f.queries, req)
	return f.points, f.err
}

func (f *fakeAPI) Count(ctx context.Context, req *qdrant.CountPoints) (uint64, error) {
	return f.count, f.err
}

func (f *fakeAPI) Delete(ctx context.Context, req *qdrant.DeletePoints) (*qdrant.UpdateResult, error) {
	f.deletes = append(f.deletes, req)
	return &qdrant.UpdateResult{}, f.err
}

func (f *fakeAPI) Close() error {
	f.closed = true
	return nil
}

func newTestIndex(t *testing.T, fake *fakeAPI) *Index {
	t.Helper()
	idx, err := newIndex(fake, "")
	require.NoError(t, err)
	return idx
}

func TestNewIndex_RequiresHost(t *testing.T) {
	_, err := NewIndex(Config{})
	assert.Error(t, err)
}

func TestCreateIndex(t *testing.T) {
	ctx := context.Background()

	t.Run("creates missing collection", func(t *testing.T) {
		fake := &fakeAPI{}
		idx := newTestIndex(t, fake)

		require.NoError(t, idx.CreateIndex(ctx, DefaultDimension))
		require.NotNil(t, fake.created)
		assert.Equal(t, DefaultCollection, fake.created.CollectionName)
		params := fake.created.GetVectorsConfig().GetParams()
		assert.Equal(t, uint64(1024), params.GetSize())
		assert.Equal(t, qdrant.Distance_Cosine, params.GetDistance())
	})

	t.Run("existing collection is left alone", func(t *testing.T) {
		fake := &fakeAPI{exists: true}
		idx := newTestIndex(t, fake)

		require.NoError(t, idx.CreateIndex(ctx, DefaultDimension))
		assert.Nil(t, fake.created)
	})

	t.Run("invalid dimension", func(t *testing.T) {
		idx := newTestIndex(t, &fakeAPI{})
		assert.Error(t, idx.CreateIndex(ctx, 0))
	})
}

func TestUpsert(t *testing.T) {
	ctx := context.Background()
	fake := &fakeAPI{}
	idx := newTestIndex(t, fake)

	err := idx.Upsert(ctx, []storage.Record{
		{ID: "part-i-section-1", Vector: []float32{0.1, 0.2}, Payload: map[string]any{"text": "alpha", "topics": []string{"board", "owner"}, "pageNumber": 3}},
		{ID: "part-i-section-2", Vector: []float32{0.3, 0.4}},
	})
	require.NoError(t, err)
	require.Len(t, fake.upserts, 1, "one request per call")

	req := fake.upserts[0]
	assert.True(t, req.GetWait())
	require.Len(t, req.Points, 2)

	first := req.Points[0]
	assert.Equal(t, core.PointID("part-i-section-1"), first.GetId().GetUuid())
	assert.Equal(t, "part-i-section-1", first.Payload[core.PayloadChunkID].GetStringValue())
	assert.Equal(t, "alpha", first.Payload["text"].GetStringValue())
	assert.Equal(t, int64(3), first.Payload["pageNumber"].GetIntegerValue())
	assert.Len(t, first.Payload["topics"].GetListValue().GetValues(), 2)

	assert.Equal(t, core.PointID("part-i-section-2"), req.Points[1].GetId().GetUuid())
}

func TestUpsert_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("invalid record", func(t *testing.T) {
		fake := &fakeAPI{}
		idx := newTestIndex(t, fake)
		err := idx.Upsert(ctx, []storage.Record{{ID: "", Vector: []float32{1}}})
		assert.ErrorIs(t, err, storage.ErrInvalidRecord)
		assert.Empty(t, fake.upserts)
	})

	t.Run("unsupported payload value", func(t *testing.T) {
		idx := newTestIndex(t, &fakeAPI{})
		err := idx.Upsert(ctx, []storage.Record{{ID: "a", Vector: []float32{1}, Payload: map[string]any{"bad": struct{}{}}}})
		assert.ErrorIs(t, err, storage.ErrSerializationFailed)
	})

	t.Run("server error", func(t *testing.T) {
		boom := errors.New("unavailable")
		idx := newTestIndex(t, &fakeAPI{err: boom})
		err := idx.Upsert(ctx, []storage.Record{{ID: "a", Vector: []float32{1}}})
		assert.ErrorIs(t, err, boom)
	})
}

func TestQuery(t *testing.T) {
	ctx := context.Background()
	fake := &fakeAPI{
		points: []*qdrant.ScoredPoint{
			{
				Id:    qdrant.NewID(core.PointID("part-ii-section-12")),
				Score: 0.82,
				Payload: qdrant.NewValueMap(map[string]any{
					core.PayloadChunkID: "part-ii-section-12",
					"text":              "The board shall act.",
					"topics":            []any{"board"},
				}),
			},
			{
				Id:    qdrant.NewIDNum(7),
				Score: -0.2,
			},
		},
	}
	idx := newTestIndex(t, fake)

	matches, err := idx.Query(ctx, []float32{0.1, 0.2}, 15)
	require.NoError(t, err)
	require.Len(t, matches, 2)

	assert.Equal(t, uint64(15), fake.queries[0].GetLimit())
	assert.Equal(t, "part-ii-section-12", matches[0].ID)
	assert.InDelta(t, 0.82, matches[0].Score, 1e-6)
	assert.Equal(t, "The board shall act.", matches[0].Payload["text"])
	assert.Equal(t, []string{"board"}, matches[0].Payload["topics"])

	assert.Equal(t, "7", matches[1].ID)
	assert.Equal(t, float32(0), matches[1].Score)

	_, err = idx.Query(ctx, []float32{0.1}, 0)
	assert.ErrorIs(t, err, storage.ErrInvalidQuery)
}

func TestDescribeStats(t *testing.T) {
	ctx := context.Background()
	fake := &fakeAPI{
		count: 42,
		info: &qdrant.CollectionInfo{
			Config: &qdrant.CollectionConfig{
				Params: &qdrant.CollectionParams{
					VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{Size: 1024, Distance: qdrant.Distance_Cosine}),
				},
			},
		},
	}
	idx := newTestIndex(t, fake)

	stats, err := idx.DescribeStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, storage.Stats{Count: 42, Dimension: 1024}, stats)

	fake.err = errors.New("not found")
	_, err = idx.DescribeStats(ctx)
	assert.ErrorIs(t, err, storage.ErrIndexNotFound)
}

func TestDeleteAllAndClose(t *testing.T) {
	ctx := context.Background()
	fake := &fakeAPI{}
	idx := newTestIndex(t, fake)

	require.NoError(t, idx.DeleteAll(ctx))
	require.Len(t, fake.deletes, 1)
	assert.NotNil(t, fake.deletes[0].GetPoints().GetFilter())
	assert.True(t, fake.deletes[0].GetWait())

	require.NoError(t, idx.Close())
	assert.True(t, fake.closed)
}
