package mcp

import (
	"context"

	"github.com/quirelabs/quire/internal/core/domain"
	"github.com/quirelabs/quire/internal/core/ports/driving"
)

// mockLibraryService is a mock implementation of driving.LibraryService.
type mockLibraryService struct {
	books    []domain.Book
	book     *domain.Book
	chapters []domain.Chapter
	cover    string
	err      error
}

func (m *mockLibraryService) List(_ context.Context) ([]domain.Book, error) {
	return m.books, m.err
}

func (m *mockLibraryService) Get(_ context.Context, _ string) (*domain.Book, error) {
	return m.book, m.err
}

func (m *mockLibraryService) Resolve(_ context.Context, _ string) (*domain.Book, error) {
	return m.book, m.err
}

func (m *mockLibraryService) Outline(_ context.Context, _ string) ([]domain.Chapter, error) {
	return m.chapters, m.err
}

func (m *mockLibraryService) Delete(_ context.Context, _ string) error {
	return m.err
}

func (m *mockLibraryService) CoverPath(_ context.Context, _ string) (string, error) {
	return m.cover, m.err
}

// mockReaderService is a mock implementation of driving.ReaderService.
// lastBookID and requested record the most recent Chapter call so tests
// can check the resolved book ID is the one passed through.
type mockReaderService struct {
	resume     int
	page       *driving.ChapterPage
	progress   domain.Progress
	matches    []domain.SearchMatch
	err        error
	lastBookID string
	requested  int
}

func (m *mockReaderService) Open(_ context.Context, _ string) (int, error) {
	return m.resume, m.err
}

func (m *mockReaderService) Chapter(_ context.Context, bookID string, index int) (*driving.ChapterPage, error) {
	m.lastBookID = bookID
	m.requested = index
	return m.page, m.err
}

func (m *mockReaderService) UpdateProgress(_ context.Context, _ string, _ int, _ float64) error {
	return m.err
}

func (m *mockReaderService) Progress(_ context.Context, _ string) (domain.Progress, error) {
	return m.progress, m.err
}

func (m *mockReaderService) Search(_ context.Context, _ string, _ string) ([]domain.SearchMatch, error) {
	return m.matches, m.err
}
