package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/quirelabs/quire/internal/core/domain"
	"github.com/quirelabs/quire/internal/core/ports/driven"
	"github.com/quirelabs/quire/internal/core/ports/driving"
	"github.com/quirelabs/quire/internal/library"
	"github.com/quirelabs/quire/internal/logger"
)

// Ensure LibraryService implements the interface.
var _ driving.LibraryService = (*LibraryService)(nil)

// LibraryService manages the book collection.
type LibraryService struct {
	books    driven.BookStore
	chapters driven.ChapterStore
	layout   library.Layout
}

// NewLibraryService creates a new library service.
func NewLibraryService(
	books driven.BookStore,
	chapters driven.ChapterStore,
	layout library.Layout,
) *LibraryService {
	return &LibraryService{
		books:    books,
		chapters: chapters,
		layout:   layout,
	}
}

// List returns all books, most recently added first.
func (s *LibraryService) List(ctx context.Context) ([]domain.Book, error) {
	return s.books.List(ctx)
}

// Get retrieves a book by ID.
func (s *LibraryService) Get(ctx context.Context, id string) (*domain.Book, error) {
	return s.books.Get(ctx, id)
}

// Resolve retrieves a book by full ID or unique ID prefix.
func (s *LibraryService) Resolve(ctx context.Context, ref string) (*domain.Book, error) {
	if ref == "" {
		return nil, fmt.Errorf("empty book reference: %w", domain.ErrInvalidInput)
	}

	book, err := s.books.Get(ctx, ref)
	if err == nil {
		return book, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	books, err := s.books.List(ctx)
	if err != nil {
		return nil, err
	}
	var matches []domain.Book
	for i := range books {
		if strings.HasPrefix(books[i].ID, ref) {
			matches = append(matches, books[i])
		}
	}
	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("book %q: %w", ref, domain.ErrNotFound)
	case 1:
		return &matches[0], nil
	}
	return nil, fmt.Errorf("%q matches %d books: %w", ref, len(matches), domain.ErrInvalidInput)
}

// Outline returns the book's chapters with index and title only.
func (s *LibraryService) Outline(ctx context.Context, bookID string) ([]domain.Chapter, error) {
	if _, err := s.books.Get(ctx, bookID); err != nil {
		return nil, err
	}
	return s.chapters.ListSummaries(ctx, bookID)
}

// Delete removes a book, its chapters and its extracted assets.
func (s *LibraryService) Delete(ctx context.Context, bookID string) error {
	book, err := s.books.Get(ctx, bookID)
	if err != nil {
		return err
	}

	if err := s.books.Delete(ctx, bookID); err != nil {
		return fmt.Errorf("delete book: %w", err)
	}
	if err := s.layout.RemoveBook(bookID); err != nil {
		return err
	}
	logger.Info("Deleted %q", book.Title)
	return nil
}

// CoverPath returns the absolute path of the book's cover image, or
// empty string when the book has none.
func (s *LibraryService) CoverPath(ctx context.Context, bookID string) (string, error) {
	book, err := s.books.Get(ctx, bookID)
	if err != nil {
		return "", err
	}
	if book.CoverPath == "" {
		return "", nil
	}
	return s.layout.Abs(book.CoverPath), nil
}
