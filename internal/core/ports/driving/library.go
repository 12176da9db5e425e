package driving

import (
	"context"

	"github.com/quirelabs/quire/internal/core/domain"
)

// LibraryService manages the book collection.
type LibraryService interface {
	// List returns all books, most recently added first.
	List(ctx context.Context) ([]domain.Book, error)

	// Get retrieves a book by ID.
	Get(ctx context.Context, id string) (*domain.Book, error)

	// Resolve retrieves a book by full ID or unique ID prefix.
	// Ambiguous prefixes return ErrInvalidInput.
	Resolve(ctx context.Context, ref string) (*domain.Book, error)

	// Outline returns the book's chapters with index and title only.
	Outline(ctx context.Context, bookID string) ([]domain.Chapter, error)

	// Delete removes a book, its chapters and its extracted assets.
	Delete(ctx context.Context, bookID string) error

	// CoverPath returns the absolute path of the book's cover image,
	// or empty string when the book has none.
	CoverPath(ctx context.Context, bookID string) (string, error)
}
