package services

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/quirelabs/quire/internal/core/domain"
	"github.com/quirelabs/quire/internal/core/ports/driven"
	"github.com/quirelabs/quire/internal/core/ports/driving"
	"github.com/quirelabs/quire/internal/logger"
)

// snippetContext is how many bytes of surrounding text a search
// snippet keeps on each side of the match.
const snippetContext = 60

// Ensure ReaderService implements the interface.
var _ driving.ReaderService = (*ReaderService)(nil)

// ReaderService serves chapters for reading and tracks position.
type ReaderService struct {
	books    driven.BookStore
	chapters driven.ChapterStore
}

// NewReaderService creates a new reader service.
func NewReaderService(books driven.BookStore, chapters driven.ChapterStore) *ReaderService {
	return &ReaderService{
		books:    books,
		chapters: chapters,
	}
}

// Open returns the chapter index the reader should resume at.
func (s *ReaderService) Open(ctx context.Context, bookID string) (int, error) {
	book, err := s.books.Get(ctx, bookID)
	if err != nil {
		return 0, err
	}
	if book.LastChapter >= 1 && book.LastChapter <= book.ChapterCount {
		return book.LastChapter, nil
	}
	return 1, nil
}

// Chapter returns one chapter with its navigation context. Viewing a
// chapter records it as the last chapter read, resetting the stored
// position when the chapter changed.
func (s *ReaderService) Chapter(ctx context.Context, bookID string, index int) (*driving.ChapterPage, error) {
	book, err := s.books.Get(ctx, bookID)
	if err != nil {
		return nil, err
	}
	chapter, err := s.chapters.Get(ctx, bookID, index)
	if err != nil {
		return nil, err
	}

	position := 0.0
	if index == book.LastChapter {
		position = book.LastPosition
	} else {
		progress := domain.Progress{BookID: bookID, Chapter: index}
		if err := s.books.UpdateProgress(ctx, progress); err != nil {
			return nil, fmt.Errorf("record chapter: %w", err)
		}
		book.LastChapter = index
		book.LastPosition = 0
	}

	return &driving.ChapterPage{
		Book:     *book,
		Chapter:  *chapter,
		HasPrev:  index > 1,
		HasNext:  index < book.ChapterCount,
		Total:    book.ChapterCount,
		Position: position,
	}, nil
}

// UpdateProgress stores the scroll position within a chapter.
func (s *ReaderService) UpdateProgress(ctx context.Context, bookID string, chapter int, position float64) error {
	book, err := s.books.Get(ctx, bookID)
	if err != nil {
		return err
	}
	if chapter < 1 || chapter > book.ChapterCount {
		return fmt.Errorf("chapter %d out of range 1..%d: %w", chapter, book.ChapterCount, domain.ErrInvalidInput)
	}

	progress := domain.Progress{
		BookID:   bookID,
		Chapter:  chapter,
		Position: position,
	}.Clamp(book.ChapterCount)
	return s.books.UpdateProgress(ctx, progress)
}

// Progress returns the current reading position.
func (s *ReaderService) Progress(ctx context.Context, bookID string) (domain.Progress, error) {
	book, err := s.books.Get(ctx, bookID)
	if err != nil {
		return domain.Progress{}, err
	}
	return domain.Progress{
		BookID:   book.ID,
		Chapter:  book.LastChapter,
		Position: book.LastPosition,
	}, nil
}

// Search finds chapters whose text contains the query. One match per
// chapter, first occurrence, with surrounding context.
func (s *ReaderService) Search(ctx context.Context, bookID string, query string) ([]domain.SearchMatch, error) {
	if _, err := s.books.Get(ctx, bookID); err != nil {
		return nil, err
	}

	query = strings.TrimSpace(query)
	if query == "" {
		logger.Debug("Empty query, returning no results")
		return nil, nil
	}

	chapters, err := s.chapters.List(ctx, bookID)
	if err != nil {
		return nil, err
	}

	needle := strings.ToLower(query)
	var matches []domain.SearchMatch
	for i := range chapters {
		pos := strings.Index(strings.ToLower(chapters[i].Text), needle)
		if pos < 0 {
			continue
		}
		matches = append(matches, domain.SearchMatch{
			ChapterIndex: chapters[i].Index,
			ChapterTitle: chapters[i].Title,
			Snippet:      snippet(chapters[i].Text, pos, len(query)),
		})
	}
	logger.Debug("Search %q: %d of %d chapters match", query, len(matches), len(chapters))
	return matches, nil
}

// snippet cuts the matched region out of text with context on both
// sides, ellipses marking truncation.
func snippet(text string, pos, matchLen int) string {
	start := pos - snippetContext
	if start < 0 {
		start = 0
	}
	for start > 0 && !utf8.RuneStart(text[start]) {
		start--
	}

	end := pos + matchLen + snippetContext
	if end > len(text) {
		end = len(text)
	}
	for end < len(text) && !utf8.RuneStart(text[end]) {
		end++
	}

	out := strings.TrimSpace(text[start:end])
	if start > 0 {
		out = "..." + out
	}
	if end < len(text) {
		out += "..."
	}
	return out
}
