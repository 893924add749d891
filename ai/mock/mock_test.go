package mock

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/poiesic/lexrag/ai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockEmbedder_Deterministic(t *testing.T) {
	m := NewMockEmbedder()
	ctx := context.Background()

	a, err := m.EmbedText(ctx, "board duties")
	require.NoError(t, err)
	b, err := m.EmbedText(ctx, "board duties")
	require.NoError(t, err)
	c, err := m.EmbedText(ctx, "reserve fund")
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, DefaultDimension)

	var sum float64
	for _, v := range a {
		sum += float64(v) * float64(v)
	}
	assert.InDelta(t, 1.0, math.Sqrt(sum), 1e-5)
}

func TestMockEmbedder_Overrides(t *testing.T) {
	m := NewMockEmbedder()
	m.Dimension = 8
	m.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		return nil, errors.New("boom")
	}

	v, err := m.EmbedText(context.Background(), "x")
	require.NoError(t, err)
	assert.Len(t, v, 8)

	_, err = m.EmbedTexts(context.Background(), []string{"x"})
	assert.EqualError(t, err, "boom")
	assert.Equal(t, 2, m.CallCount())

	m.Reset()
	assert.Zero(t, m.CallCount())
	_, err = m.EmbedTexts(context.Background(), []string{"x"})
	assert.NoError(t, err)
}

func TestMockEmbedder_ConcurrentCalls(t *testing.T) {
	m := NewMockEmbedder()
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = m.EmbedTexts(context.Background(), []string{"a", "b"})
		}()
	}
	wg.Wait()
	assert.Equal(t, 10, m.CallCount())
}

func TestMockGenerator(t *testing.T) {
	g := NewMockGenerator()
	req := ai.GenerateRequest{System: "sys", Messages: []ai.Message{{Role: ai.RoleUser, Content: "q"}}}

	reply, err := g.Generate(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, DefaultReply, reply)
	require.Len(t, g.Requests(), 1)
	assert.Equal(t, "sys", g.Requests()[0].System)

	g.GenerateFunc = func(ctx context.Context, req ai.GenerateRequest) (string, error) {
		return "custom", nil
	}
	reply, err = g.Generate(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "custom", reply)
	assert.Equal(t, 2, g.CallCount())

	g.Reset()
	assert.Zero(t, g.CallCount())
}

func TestMockProvider(t *testing.T) {
	p := NewMockProvider().(*MockProvider)

	assert.Same(t, p.GetMockEmbedder(), p.Embedder())
	assert.Same(t, p.GetMockGenerator(), p.Generator())
	require.NoError(t, p.Close())
	assert.True(t, p.Closed())
}
