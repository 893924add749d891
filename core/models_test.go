package core

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkID(t *testing.T) {
	tests := []struct {
		name string
		path []string
		want string
	}{
		{
			name: "part and section",
			path: []string{"PART I", "section", "12"},
			want: "part-i-section-12",
		},
		{
			name: "subsection markers are flattened",
			path: []string{"PART III", "section", "4.1", "sub", "(1)(a)"},
			want: "part-iii-section-4-1-sub-1-a",
		},
		{
			name: "amendment date",
			path: []string{"Part II", "section", "7", "amendment", "2015, c. 28"},
			want: "part-ii-section-7-amendment-2015-c-28",
		},
		{
			name: "empty elements are skipped",
			path: []string{"PART I", "", "section", "3"},
			want: "part-i-section-3",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ChunkID(tt.path...))
		})
	}
}

func TestChunkID_Deterministic(t *testing.T) {
	a := ChunkID("PART I", "section", "12", "(2)")
	b := ChunkID("PART I", "section", "12", "(2)")
	assert.Equal(t, a, b)
}

func TestPointID(t *testing.T) {
	t.Run("is a valid uuid", func(t *testing.T) {
		id := PointID("part-i-section-12")
		parsed, err := uuid.Parse(id)
		require.NoError(t, err)
		assert.Equal(t, id, parsed.String())
	})

	t.Run("same chunk id gives same point id", func(t *testing.T) {
		assert.Equal(t, PointID("part-i-section-1"), PointID("part-i-section-1"))
	})

	t.Run("different chunk ids give different point ids", func(t *testing.T) {
		assert.NotEqual(t, PointID("part-i-section-1"), PointID("part-i-section-2"))
	})
}

func TestClampScore(t *testing.T) {
	assert.Equal(t, float32(0), ClampScore(-0.2))
	assert.Equal(t, float32(0.42), ClampScore(0.42))
	assert.Equal(t, float32(1), ClampScore(1.0001))
}

func TestCitation_IsEmpty(t *testing.T) {
	assert.True(t, Citation{}.IsEmpty())
	assert.False(t, Citation{Section: "12"}.IsEmpty())
}
