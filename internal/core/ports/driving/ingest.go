package driving

import (
	"context"
	"io"

	"github.com/quirelabs/quire/internal/core/domain"
)

// IngestService imports EPUB files and runs them through the
// transformation pipeline.
type IngestService interface {
	// ImportFile imports an EPUB from the local filesystem.
	ImportFile(ctx context.Context, path string) (*domain.Book, error)

	// ImportReader imports an EPUB from a stream, typically an upload.
	// The filename is used for validation and title fallback; size is
	// the declared length in bytes, checked against the import limit.
	ImportReader(ctx context.Context, r io.Reader, filename string, size int64) (*domain.Book, error)

	// ImportURL downloads an EPUB and imports it. Requires a Fetcher.
	ImportURL(ctx context.Context, url string) (*domain.Book, error)

	// Reprocess re-runs the pipeline from the stored source EPUB,
	// replacing the book's chapters. Progress is kept, clamped to the
	// new chapter count.
	Reprocess(ctx context.Context, bookID string) (*domain.Book, error)

	// ReprocessAll reprocesses every book, returning the number of
	// books successfully reprocessed. Per-book failures are logged
	// and skipped.
	ReprocessAll(ctx context.Context) (int, error)
}
