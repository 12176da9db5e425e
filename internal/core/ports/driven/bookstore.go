package driven

import (
	"context"

	"github.com/quirelabs/quire/internal/core/domain"
)

// BookStore persists books and their reading progress.
// Backed by SQLite for metadata storage.
type BookStore interface {
	// Save stores or updates a book.
	Save(ctx context.Context, book *domain.Book) error

	// Get retrieves a book by ID.
	Get(ctx context.Context, id string) (*domain.Book, error)

	// List returns all books, most recently added first.
	List(ctx context.Context) ([]domain.Book, error)

	// Delete removes a book and, through the schema's cascade,
	// its chapters.
	Delete(ctx context.Context, id string) error

	// UpdateProgress stores the reading position for a book.
	UpdateProgress(ctx context.Context, progress domain.Progress) error
}

// ChapterStore persists transformed chapters.
type ChapterStore interface {
	// ReplaceAll atomically swaps a book's chapters for a new set.
	// Used on import and reprocess.
	ReplaceAll(ctx context.Context, bookID string, chapters []domain.Chapter) error

	// Get retrieves one chapter of a book by its 1-based index.
	Get(ctx context.Context, bookID string, index int) (*domain.Chapter, error)

	// List returns a book's chapters in reading order, content included.
	List(ctx context.Context, bookID string) ([]domain.Chapter, error)

	// ListSummaries returns a book's chapters in reading order with
	// index and title only. HTML and Text are left empty.
	ListSummaries(ctx context.Context, bookID string) ([]domain.Chapter, error)
}
