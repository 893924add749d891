package loader

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/poiesic/lexrag/segment"
)

// PDFLoader extracts page text from PDF files with pdfcpu.
//
// pdfcpu dumps each page's content stream; the text showing operators in
// those streams are decoded into lines. Pages whose content cannot be
// decoded are kept with empty text so page numbers stay aligned.
type PDFLoader struct {
	logger *slog.Logger
}

var _ Loader = (*PDFLoader)(nil)

// PDFOption configures a PDFLoader.
type PDFOption func(*PDFLoader)

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) PDFOption {
	return func(l *PDFLoader) {
		if logger == nil {
			logger = slog.Default()
		}
		l.logger = logger
	}
}

// NewPDFLoader creates a new PDF loader.
func NewPDFLoader(opts ...PDFOption) *PDFLoader {
	l := &PDFLoader{logger: slog.Default()}
	for _, opt := range opts {
		opt(l)
	}
	l.logger = l.logger.With("component", "pdf-loader")
	return l
}

var contentFileName = regexp.MustCompile(`page_(\d+)\.txt$`)

// Load extracts the pages of the PDF at path.
func (l *PDFLoader) Load(ctx context.Context, path string) (segment.Document, error) {
	if err := ctx.Err(); err != nil {
		return segment.Document{}, err
	}

	pdfCtx, err := api.ReadContextFile(path)
	if err != nil {
		return segment.Document{}, fmt.Errorf("failed to read PDF context: %w", err)
	}
	pageCount := pdfCtx.PageCount

	outDir, err := os.MkdirTemp("", "lexrag-pdf-")
	if err != nil {
		return segment.Document{}, fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(outDir)

	conf := model.NewDefaultConfiguration()
	if err := api.ExtractContentFile(path, outDir, nil, conf); err != nil {
		return segment.Document{}, fmt.Errorf("failed to extract PDF content: %w", err)
	}

	files, err := os.ReadDir(outDir)
	if err != nil {
		return segment.Document{}, fmt.Errorf("failed to read extracted content: %w", err)
	}

	pageTexts := make(map[int]string, pageCount)
	for _, file := range files {
		if file.IsDir() {
			continue
		}
		m := contentFileName.FindStringSubmatch(file.Name())
		if m == nil {
			continue
		}
		pageNum, _ := strconv.Atoi(m[1])
		content, err := os.ReadFile(filepath.Join(outDir, file.Name()))
		if err != nil {
			l.logger.Warn("skipping unreadable page content", "page", pageNum, "err", err)
			continue
		}
		// Multiple content streams for one page are concatenated
		pageTexts[pageNum] += contentText(string(content))
	}

	doc := segment.Document{Pages: make([]segment.Page, 0, pageCount)}
	empty := true
	for pageNum := 1; pageNum <= pageCount; pageNum++ {
		text := pageTexts[pageNum]
		if strings.TrimSpace(text) != "" {
			empty = false
		}
		doc.Pages = append(doc.Pages, segment.Page{Number: pageNum, Text: text})
	}
	if empty {
		return segment.Document{}, fmt.Errorf("%w: %s", ErrNoText, path)
	}

	l.logger.Debug("loaded PDF", "path", path, "pages", pageCount)
	return doc, nil
}
