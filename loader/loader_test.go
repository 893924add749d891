package loader

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestForPath(t *testing.T) {
	tests := []struct {
		path    string
		want    Loader
		wantErr error
	}{
		{"act.txt", TextLoader{}, nil},
		{"ACT.TXT", TextLoader{}, nil},
		{"act", TextLoader{}, nil},
		{"act.pdf", &PDFLoader{}, nil},
		{"act.docx", nil, ErrUnsupportedFormat},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			l, err := ForPath(tt.path, nil)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.IsType(t, tt.want, l)
		})
	}
}

func TestTextLoader(t *testing.T) {
	path := writeFile(t, "act.txt", "Page 1\nPART I\nSection 1 Definitions\n\fPage 2\nSection 2 Scope\n")

	doc, err := Load(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, doc.Pages, 2)
	assert.Equal(t, 1, doc.Pages[0].Number)
	assert.Contains(t, doc.Pages[0].Text, "PART I")
	assert.Equal(t, 2, doc.Pages[1].Number)
	assert.Contains(t, doc.Pages[1].Text, "Section 2 Scope")
}

func TestTextLoader_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := TextLoader{}.Load(context.Background(), filepath.Join(t.TempDir(), "missing.txt"))
		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("blank file", func(t *testing.T) {
		_, err := TextLoader{}.Load(context.Background(), writeFile(t, "blank.txt", " \n\f\n"))
		assert.ErrorIs(t, err, ErrNoText)
	})

	t.Run("canceled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := TextLoader{}.Load(ctx, writeFile(t, "act.txt", "PART I"))
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestPDFLoader_InvalidFile(t *testing.T) {
	path := writeFile(t, "broken.pdf", "this is not a pdf")

	_, err := NewPDFLoader().Load(context.Background(), path)
	assert.Error(t, err)
}
