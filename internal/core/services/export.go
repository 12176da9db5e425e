package services

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/quirelabs/quire/internal/core/domain"
	"github.com/quirelabs/quire/internal/core/ports/driven"
	"github.com/quirelabs/quire/internal/core/ports/driving"
	"github.com/quirelabs/quire/internal/library"
	"github.com/quirelabs/quire/internal/logger"
)

// Ensure ExportService implements the interface.
var _ driving.ExportService = (*ExportService)(nil)

// ExportService renders books to PDF.
type ExportService struct {
	books    driven.BookStore
	chapters driven.ChapterStore
	renderer driven.PDFRenderer
	layout   library.Layout
}

// NewExportService creates a new export service.
func NewExportService(
	books driven.BookStore,
	chapters driven.ChapterStore,
	renderer driven.PDFRenderer,
	layout library.Layout,
) *ExportService {
	return &ExportService{
		books:    books,
		chapters: chapters,
		renderer: renderer,
		layout:   layout,
	}
}

// PDF renders the book into the library's exports directory and
// returns the absolute output path.
func (s *ExportService) PDF(ctx context.Context, bookID string, opts domain.ExportOptions) (string, error) {
	if err := opts.Validate(); err != nil {
		return "", err
	}
	book, err := s.books.Get(ctx, bookID)
	if err != nil {
		return "", err
	}
	if err := s.layout.EnsureExports(); err != nil {
		return "", err
	}

	outPath := filepath.Join(s.layout.ExportsDir(), exportFilename(book, opts))
	f, err := os.Create(outPath)
	if err != nil {
		return "", fmt.Errorf("creating export file: %w", err)
	}
	if err := s.render(ctx, f, book, opts); err != nil {
		//nolint:errcheck // Drop the partial file, the render error matters more
		_ = f.Close()
		_ = os.Remove(outPath)
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("closing export file: %w", err)
	}

	logger.Info("Exported %q to %s", book.Title, outPath)
	return outPath, nil
}

// PDFTo renders the book directly to w and returns the suggested
// download filename.
func (s *ExportService) PDFTo(ctx context.Context, w io.Writer, bookID string, opts domain.ExportOptions) (string, error) {
	if err := opts.Validate(); err != nil {
		return "", err
	}
	book, err := s.books.Get(ctx, bookID)
	if err != nil {
		return "", err
	}
	if err := s.render(ctx, w, book, opts); err != nil {
		return "", err
	}
	return exportFilename(book, opts), nil
}

func (s *ExportService) render(ctx context.Context, w io.Writer, book *domain.Book, opts domain.ExportOptions) error {
	if s.renderer == nil {
		return domain.ErrNotImplemented
	}
	chapters, err := s.chapters.List(ctx, book.ID)
	if err != nil {
		return fmt.Errorf("list chapters: %w", err)
	}
	if err := s.renderer.Render(ctx, w, *book, chapters, opts); err != nil {
		return fmt.Errorf("render pdf: %w", err)
	}
	return nil
}

// exportFilename is <slug>_<layout>_<quality>.pdf, so repeated exports
// with different options do not overwrite each other.
func exportFilename(book *domain.Book, opts domain.ExportOptions) string {
	return fmt.Sprintf("%s_%s_%s.pdf", book.Slug(), opts.Layout, opts.Quality)
}
