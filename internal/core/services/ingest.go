package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/quirelabs/quire/internal/core/domain"
	"github.com/quirelabs/quire/internal/core/ports/driven"
	"github.com/quirelabs/quire/internal/core/ports/driving"
	"github.com/quirelabs/quire/internal/epub"
	"github.com/quirelabs/quire/internal/library"
	"github.com/quirelabs/quire/internal/logger"
	"github.com/quirelabs/quire/internal/transform"
)

// defaultImportMax caps import size when no limit is configured.
const defaultImportMax = 50 << 20

// Ensure IngestService implements the interface.
var _ driving.IngestService = (*IngestService)(nil)

// IngestService imports EPUBs and runs them through the
// transformation pipeline.
type IngestService struct {
	books    driven.BookStore
	chapters driven.ChapterStore
	fetcher  driven.Fetcher
	layout   library.Layout
	maxSize  int64
}

// NewIngestService creates a new ingest service. maxSize is the import
// limit in bytes; non-positive values fall back to 50 MiB.
func NewIngestService(
	books driven.BookStore,
	chapters driven.ChapterStore,
	layout library.Layout,
	maxSize int64,
) *IngestService {
	if maxSize <= 0 {
		maxSize = defaultImportMax
	}
	return &IngestService{
		books:    books,
		chapters: chapters,
		layout:   layout,
		maxSize:  maxSize,
	}
}

// SetFetcher sets the fetcher used for URL imports.
func (s *IngestService) SetFetcher(fetcher driven.Fetcher) {
	s.fetcher = fetcher
}

// ImportFile imports an EPUB from the local filesystem.
func (s *IngestService) ImportFile(ctx context.Context, path string) (*domain.Book, error) {
	if err := validateExtension(path); err != nil {
		return nil, err
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.Size() > s.maxSize {
		return nil, fmt.Errorf("%s is %d bytes: %w", path, info.Size(), domain.ErrTooLarge)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return s.importData(ctx, data, filepath.Base(path))
}

// ImportReader imports an EPUB from a stream, typically an upload.
func (s *IngestService) ImportReader(ctx context.Context, r io.Reader, filename string, size int64) (*domain.Book, error) {
	if err := validateExtension(filename); err != nil {
		return nil, err
	}
	if size > s.maxSize {
		return nil, fmt.Errorf("%s is %d bytes: %w", filename, size, domain.ErrTooLarge)
	}

	data, err := io.ReadAll(io.LimitReader(r, s.maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("read upload %s: %w", filename, err)
	}
	if int64(len(data)) > s.maxSize {
		return nil, fmt.Errorf("%s: %w", filename, domain.ErrTooLarge)
	}
	return s.importData(ctx, data, filepath.Base(filename))
}

// ImportURL downloads an EPUB and imports it.
func (s *IngestService) ImportURL(ctx context.Context, rawURL string) (*domain.Book, error) {
	if s.fetcher == nil {
		return nil, domain.ErrNotImplemented
	}
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, fmt.Errorf("url %q: %w", rawURL, domain.ErrInvalidInput)
	}

	logger.Info("Downloading %s", rawURL)
	filename, data, err := s.fetcher.Fetch(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	return s.importData(ctx, data, filename)
}

// importData runs the import pipeline over an in-memory EPUB. Nothing
// is persisted until the pipeline has produced readable chapters.
func (s *IngestService) importData(ctx context.Context, data []byte, filename string) (*domain.Book, error) {
	logger.Section("Import")
	logger.Debug("Source: %s (%d bytes)", filename, len(data))

	// 1. Open and validate the container
	src, err := epub.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", filename, err)
	}
	defer src.Close()

	// 2. Run the transformation pipeline
	id := uuid.NewString()
	result, err := transform.Transform(ctx, src, transform.Options{BookID: id})
	if err != nil {
		return nil, err
	}

	// 3. Write the source copy and extracted assets
	if err := s.writeFiles(id, data, src, result); err != nil {
		//nolint:errcheck // Best-effort cleanup of a partial import
		_ = s.layout.RemoveBook(id)
		return nil, err
	}

	// 4. Persist the book, then its chapters
	book := buildBook(id, filename, src.Metadata(), result)
	if err := s.books.Save(ctx, book); err != nil {
		//nolint:errcheck // Best-effort cleanup of a partial import
		_ = s.layout.RemoveBook(id)
		return nil, fmt.Errorf("save book: %w", err)
	}
	if err := s.chapters.ReplaceAll(ctx, id, buildChapters(id, result)); err != nil {
		//nolint:errcheck // Best-effort cleanup of a partial import
		_ = s.books.Delete(ctx, id)
		_ = s.layout.RemoveBook(id)
		return nil, fmt.Errorf("save chapters: %w", err)
	}

	stored, err := s.books.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("reload book: %w", err)
	}
	logger.Info("Imported %q: %d chapters, %d images", stored.Title, stored.ChapterCount, len(result.Assets))
	return stored, nil
}

// Reprocess re-runs the pipeline from the stored source EPUB.
func (s *IngestService) Reprocess(ctx context.Context, bookID string) (*domain.Book, error) {
	book, err := s.books.Get(ctx, bookID)
	if err != nil {
		return nil, err
	}

	logger.Section("Reprocess")
	logger.Debug("Book: %s (%s)", book.Title, book.ID)

	src, err := epub.Open(s.layout.SourcePath(book.ID))
	if err != nil {
		return nil, fmt.Errorf("open stored source: %w", err)
	}
	defer src.Close()

	result, err := transform.Transform(ctx, src, transform.Options{BookID: book.ID})
	if err != nil {
		return nil, err
	}

	// Drop stale assets before writing the fresh set.
	if err := os.RemoveAll(s.layout.ImagesDir(book.ID)); err != nil {
		return nil, fmt.Errorf("clearing assets: %w", err)
	}
	if err := s.writeAssets(book.ID, src, result); err != nil {
		return nil, err
	}

	refreshBook(book, src.Metadata(), result)
	if err := s.chapters.ReplaceAll(ctx, book.ID, buildChapters(book.ID, result)); err != nil {
		return nil, fmt.Errorf("save chapters: %w", err)
	}
	if err := s.books.Save(ctx, book); err != nil {
		return nil, fmt.Errorf("save book: %w", err)
	}

	logger.Info("Reprocessed %q: %d chapters", book.Title, book.ChapterCount)
	return book, nil
}

// ReprocessAll reprocesses every book, skipping and logging failures.
func (s *IngestService) ReprocessAll(ctx context.Context) (int, error) {
	books, err := s.books.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("list books: %w", err)
	}

	count := 0
	for i := range books {
		if err := ctx.Err(); err != nil {
			return count, err
		}
		if _, err := s.Reprocess(ctx, books[i].ID); err != nil {
			logger.Warn("Reprocess %q failed: %v", books[i].Title, err)
			continue
		}
		count++
	}
	return count, nil
}

// writeFiles lays the book's directory out: the source copy plus all
// extracted images.
func (s *IngestService) writeFiles(id string, data []byte, src *epub.Book, result *transform.Result) error {
	if err := s.layout.EnsureBook(id); err != nil {
		return err
	}
	if err := os.WriteFile(s.layout.SourcePath(id), data, 0o644); err != nil {
		return fmt.Errorf("store source: %w", err)
	}
	return s.writeAssets(id, src, result)
}

// writeAssets extracts the pipeline's images into the library.
// Unreadable entries are skipped; the chapter HTML already dropped
// references to anything unresolvable.
func (s *IngestService) writeAssets(id string, src *epub.Book, result *transform.Result) error {
	if err := s.layout.EnsureBook(id); err != nil {
		return err
	}
	for _, asset := range result.Assets {
		data, err := src.ReadPath(asset.ZipPath)
		if err != nil {
			logger.Warn("Skipping asset %s: %v", asset.ZipPath, err)
			continue
		}
		if err := os.WriteFile(s.layout.ImagePath(id, asset.Name), data, 0o644); err != nil {
			return fmt.Errorf("write asset %s: %w", asset.Name, err)
		}
		logger.Debug("Asset: %s (%d bytes)", asset.Name, len(data))
	}
	return nil
}

// buildBook assembles the Book record for a fresh import.
func buildBook(id, filename string, meta epub.Metadata, result *transform.Result) *domain.Book {
	book := &domain.Book{
		ID:           id,
		Title:        meta.Title,
		Author:       meta.Author,
		Language:     meta.Language,
		Identifier:   meta.Identifier,
		Description:  meta.Description,
		SourcePath:   library.RelSourcePath(id),
		ChapterCount: len(result.Chapters),
	}
	if book.Title == "" {
		book.Title = titleFromFilename(filename)
	}
	if book.Author == "" {
		book.Author = "Unknown"
	}
	if result.CoverName != "" {
		book.CoverPath = library.RelImagePath(id, result.CoverName)
	}
	return book
}

// refreshBook updates a reprocessed book in place. Identity, source
// and progress are kept; progress is clamped to the new chapter count.
func refreshBook(book *domain.Book, meta epub.Metadata, result *transform.Result) {
	if meta.Title != "" {
		book.Title = meta.Title
	}
	if meta.Author != "" {
		book.Author = meta.Author
	}
	book.Language = meta.Language
	book.Identifier = meta.Identifier
	book.Description = meta.Description
	book.ChapterCount = len(result.Chapters)
	book.CoverPath = ""
	if result.CoverName != "" {
		book.CoverPath = library.RelImagePath(book.ID, result.CoverName)
	}

	clamped := domain.Progress{
		BookID:   book.ID,
		Chapter:  book.LastChapter,
		Position: book.LastPosition,
	}.Clamp(book.ChapterCount)
	book.LastChapter = clamped.Chapter
	book.LastPosition = clamped.Position
}

// buildChapters converts pipeline output into Chapter records.
func buildChapters(bookID string, result *transform.Result) []domain.Chapter {
	chapters := make([]domain.Chapter, 0, len(result.Chapters))
	for _, doc := range result.Chapters {
		chapters = append(chapters, domain.Chapter{
			ID:     uuid.NewString(),
			BookID: bookID,
			Index:  doc.Index,
			Title:  doc.Title,
			HTML:   doc.HTML,
			Text:   doc.Text,
		})
	}
	return chapters
}

// validateExtension requires a .epub filename, case-insensitively.
func validateExtension(name string) error {
	if strings.EqualFold(filepath.Ext(name), ".epub") {
		return nil
	}
	return fmt.Errorf("%s: not an .epub file: %w", filepath.Base(name), domain.ErrInvalidInput)
}

// titleFromFilename derives a display title from the source filename
// when the package metadata has none.
func titleFromFilename(name string) string {
	stem := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	stem = strings.NewReplacer("_", " ", "-", " ").Replace(stem)
	stem = strings.Join(strings.Fields(stem), " ")
	if stem == "" {
		return "Untitled"
	}
	return stem
}
