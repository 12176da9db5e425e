package driving

import (
	"context"

	"github.com/quirelabs/quire/internal/core/domain"
)

// ReaderService serves chapters for reading and tracks position.
type ReaderService interface {
	// Open returns the chapter index the reader should resume at:
	// the last chapter read, or 1 for an unopened book.
	Open(ctx context.Context, bookID string) (int, error)

	// Chapter returns one chapter with its navigation context.
	// Viewing a chapter records it as the last chapter read.
	Chapter(ctx context.Context, bookID string, index int) (*ChapterPage, error)

	// UpdateProgress stores the scroll position within a chapter.
	UpdateProgress(ctx context.Context, bookID string, chapter int, position float64) error

	// Progress returns the current reading position.
	Progress(ctx context.Context, bookID string) (domain.Progress, error)

	// Search finds chapters whose text contains the query,
	// case-insensitively.
	Search(ctx context.Context, bookID string, query string) ([]domain.SearchMatch, error)
}

// ChapterPage is a chapter prepared for display, with the navigation
// context the reader UI needs.
type ChapterPage struct {
	// Book is the parent book.
	Book domain.Book

	// Chapter is the requested chapter, content included.
	Chapter domain.Chapter

	// HasPrev indicates a chapter exists before this one.
	HasPrev bool

	// HasNext indicates a chapter exists after this one.
	HasNext bool

	// Total is the book's chapter count.
	Total int

	// Position is the stored scroll fraction to restore, 0 when the
	// reader has not been in this chapter before.
	Position float64
}
