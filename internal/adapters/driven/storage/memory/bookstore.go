package memory

import (
	"context"

	"github.com/quirelabs/quire/internal/core/domain"
	"github.com/quirelabs/quire/internal/core/ports/driven"
)

// Ensure bookStore implements the interface.
var _ driven.BookStore = (*bookStore)(nil)

// bookStore is the book view over a Store.
type bookStore struct {
	store *Store
}

// Save stores or updates a book.
func (s *bookStore) Save(_ context.Context, book *domain.Book) error {
	if book == nil || book.ID == "" {
		return domain.ErrInvalidInput
	}
	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	var existing *domain.Book
	if prev, ok := s.store.books[book.ID]; ok {
		existing = &prev
	}
	stampAddedAt(existing, book)
	s.store.books[book.ID] = *book
	return nil
}

// Get retrieves a book by ID.
func (s *bookStore) Get(_ context.Context, id string) (*domain.Book, error) {
	s.store.mu.RLock()
	defer s.store.mu.RUnlock()
	book, ok := s.store.books[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &book, nil
}

// List returns all books, most recently added first.
func (s *bookStore) List(_ context.Context) ([]domain.Book, error) {
	s.store.mu.RLock()
	defer s.store.mu.RUnlock()
	return s.store.sortedBooks(), nil
}

// Delete removes a book and its chapters.
func (s *bookStore) Delete(_ context.Context, id string) error {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	delete(s.store.books, id)
	delete(s.store.chapters, id)
	return nil
}

// UpdateProgress stores the reading position for a book.
func (s *bookStore) UpdateProgress(_ context.Context, progress domain.Progress) error {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	book, ok := s.store.books[progress.BookID]
	if !ok {
		return domain.ErrNotFound
	}
	book.LastChapter = progress.Chapter
	book.LastPosition = progress.Position
	s.store.books[progress.BookID] = book
	return nil
}
