// Package messages defines the messages passed between TUI components.
// Commands emit them back into the update loop, following the Elm
// architecture.
package messages

import (
	"github.com/quirelabs/quire/internal/core/domain"
	"github.com/quirelabs/quire/internal/core/ports/driving"
)

// BooksLoaded carries the library contents for the shelf view.
type BooksLoaded struct {
	Books []domain.Book
	Err   error
}

// BookSelected is emitted when the user picks a book on the shelf.
type BookSelected struct {
	Book domain.Book
}

// BookOpened is emitted when a book is opened directly for reading,
// bypassing the shelf. Chapter is the 1-based index to resume at.
type BookOpened struct {
	Book    domain.Book
	Chapter int
}

// ChaptersLoaded carries a book's chapter outline. Book is re-fetched
// alongside the outline so progress markers stay fresh.
type ChaptersLoaded struct {
	Book     domain.Book
	Chapters []domain.Chapter
	Err      error
}

// ChapterSelected is emitted when the user picks a chapter to read.
// Index is 1-based.
type ChapterSelected struct {
	Index int
}

// ChapterLoaded carries a chapter prepared for display.
type ChapterLoaded struct {
	Page *driving.ChapterPage
	Err  error
}

// ProgressSaved reports the outcome of storing a reading position.
type ProgressSaved struct {
	BookID string
	Err    error
}

// ViewChanged requests a switch to another view.
type ViewChanged struct {
	View ViewType
}

// ErrorOccurred carries an error to display.
type ErrorOccurred struct {
	Err error
}

// Quit requests application shutdown.
type Quit struct{}

// ViewType identifies which view is active.
type ViewType int

const (
	// ViewShelf is the book list.
	ViewShelf ViewType = iota

	// ViewChapters is the chapter outline of one book.
	ViewChapters

	// ViewReading is the chapter reading view.
	ViewReading
)

// String returns the view name for logging and debugging.
func (v ViewType) String() string {
	switch v {
	case ViewShelf:
		return "shelf"
	case ViewChapters:
		return "chapters"
	case ViewReading:
		return "reading"
	default:
		return "unknown"
	}
}
