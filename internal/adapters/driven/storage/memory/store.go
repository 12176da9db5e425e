// Package memory provides in-memory implementations of the driven
// storage ports, used by service and adapter tests.
package memory

import (
	"sort"
	"sync"
	"time"

	"github.com/quirelabs/quire/internal/core/domain"
	"github.com/quirelabs/quire/internal/core/ports/driven"
)

// Store holds books and chapters in mutex-guarded maps. Like the
// SQLite store it hands out sub-store views over shared state, so
// deleting a book drops its chapters too.
type Store struct {
	mu       sync.RWMutex
	books    map[string]domain.Book
	chapters map[string][]domain.Chapter
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{
		books:    make(map[string]domain.Book),
		chapters: make(map[string][]domain.Chapter),
	}
}

// Books returns a BookStore interface backed by this store.
func (s *Store) Books() driven.BookStore {
	return &bookStore{store: s}
}

// Chapters returns a ChapterStore interface backed by this store.
func (s *Store) Chapters() driven.ChapterStore {
	return &chapterStore{store: s}
}

// sortedBooks returns all books, most recently added first. Callers
// must hold at least a read lock.
func (s *Store) sortedBooks() []domain.Book {
	books := make([]domain.Book, 0, len(s.books))
	for _, b := range s.books {
		books = append(books, b)
	}
	sort.Slice(books, func(i, j int) bool {
		if !books[i].AddedAt.Equal(books[j].AddedAt) {
			return books[i].AddedAt.After(books[j].AddedAt)
		}
		return books[i].ID < books[j].ID
	})
	return books
}

// stampAddedAt mirrors the SQLite store: first save sets the
// timestamp, later saves keep the stored one.
func stampAddedAt(existing *domain.Book, book *domain.Book) {
	switch {
	case existing != nil:
		book.AddedAt = existing.AddedAt
	case book.AddedAt.IsZero():
		book.AddedAt = time.Now().UTC()
	}
}
