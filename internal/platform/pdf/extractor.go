package pdf

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/phrazzld/mockview-api/internal/generation"
	"github.com/phrazzld/mockview-api/internal/platform/logger"
)

var contentPageNumber = regexp.MustCompile(`_page_(\d+)`)

// Extractor implements generation.ChunkExtractor using pdfcpu.
type Extractor struct {
	workDir      string
	chunkSize    int
	maxChunkSize int
	logger       *slog.Logger
}

var _ generation.ChunkExtractor = (*Extractor)(nil)

// NewExtractor creates an Extractor that writes its scratch files under
// workDir (the OS temp dir when empty).
func NewExtractor(workDir string, log *slog.Logger) *Extractor {
	if log == nil {
		log = slog.Default()
	}
	return &Extractor{
		workDir:      workDir,
		chunkSize:    DefaultChunkSize,
		maxChunkSize: DefaultMaxChunkSize,
		logger:       log.With("component", "pdf_extractor"),
	}
}

// ExtractChunks extracts the document text and packs it into chunks.
func (e *Extractor) ExtractChunks(ctx context.Context, documentPath string) ([]string, error) {
	text, err := e.ExtractText(ctx, documentPath)
	if err != nil {
		return nil, err
	}

	chunks := Chunk(text, e.chunkSize, e.maxChunkSize)
	logger.FromContextOrDefault(ctx, e.logger).InfoContext(ctx, "document chunked",
		"path", documentPath,
		"text_length", len(text),
		"chunks", len(chunks))
	return chunks, nil
}

// ExtractText returns the text of every page in order, pages separated by a
// blank line.
func (e *Extractor) ExtractText(ctx context.Context, documentPath string) (string, error) {
	if documentPath == "" {
		return "", generation.ErrEmptyInput
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	log := logger.FromContextOrDefault(ctx, e.logger)

	pdfCtx, err := api.ReadContextFile(documentPath)
	if err != nil {
		return "", fmt.Errorf("%w: read pdf: %w", generation.ErrProducerFailure, err)
	}

	if e.workDir != "" {
		if err := os.MkdirAll(e.workDir, 0o755); err != nil {
			return "", fmt.Errorf("%w: create work dir: %w", generation.ErrProducerFailure, err)
		}
	}
	outDir, err := os.MkdirTemp(e.workDir, "pdf-content-*")
	if err != nil {
		return "", fmt.Errorf("%w: create scratch dir: %w", generation.ErrProducerFailure, err)
	}
	defer os.RemoveAll(outDir)

	if err := api.ExtractContentFile(documentPath, outDir, nil, model.NewDefaultConfiguration()); err != nil {
		return "", fmt.Errorf("%w: extract content: %w", generation.ErrProducerFailure, err)
	}

	pages, err := readContentPages(outDir)
	if err != nil {
		return "", fmt.Errorf("%w: %w", generation.ErrProducerFailure, err)
	}

	log.DebugContext(ctx, "pdf content extracted",
		"page_count", pdfCtx.PageCount,
		"content_pages", len(pages))

	texts := make([]string, 0, len(pages))
	for _, p := range pages {
		if t := textFromContent(p.content); t != "" {
			texts = append(texts, t)
		}
	}
	return strings.Join(texts, "\n\n"), nil
}

type contentPage struct {
	number  int
	content []byte
}

func readContentPages(dir string) ([]contentPage, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read content dir: %w", err)
	}

	pages := make([]contentPage, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		m := contentPageNumber.FindStringSubmatch(entry.Name())
		if m == nil {
			continue
		}
		n, _ := strconv.Atoi(m[1])
		content, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("read content page %d: %w", n, err)
		}
		pages = append(pages, contentPage{number: n, content: content})
	}

	sort.Slice(pages, func(i, j int) bool { return pages[i].number < pages[j].number })
	return pages, nil
}
