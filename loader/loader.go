package loader

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/poiesic/lexrag/segment"
)

// Loader reads a source file into pages.
type Loader interface {
	Load(ctx context.Context, path string) (segment.Document, error)
}

// ForPath returns the loader for the file extension of path.
func ForPath(path string, logger *slog.Logger) (Loader, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt", ".text", "":
		return TextLoader{}, nil
	case ".pdf":
		return NewPDFLoader(WithLogger(logger)), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

// Load reads path with the loader matching its extension.
func Load(ctx context.Context, path string) (segment.Document, error) {
	l, err := ForPath(path, nil)
	if err != nil {
		return segment.Document{}, err
	}
	return l.Load(ctx, path)
}

// TextLoader reads plain text files. Form feeds separate pages.
type TextLoader struct{}

var _ Loader = TextLoader{}

// Load reads the file at path and splits it into pages.
func (TextLoader) Load(ctx context.Context, path string) (segment.Document, error) {
	if err := ctx.Err(); err != nil {
		return segment.Document{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return segment.Document{}, fmt.Errorf("reading %s: %w", path, err)
	}
	if strings.TrimSpace(string(data)) == "" {
		return segment.Document{}, fmt.Errorf("%w: %s", ErrNoText, path)
	}
	return segment.SplitPages(string(data)), nil
}
