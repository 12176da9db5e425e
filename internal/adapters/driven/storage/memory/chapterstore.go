package memory

import (
	"context"
	"sort"

	"github.com/quirelabs/quire/internal/core/domain"
	"github.com/quirelabs/quire/internal/core/ports/driven"
)

// Ensure chapterStore implements the interface.
var _ driven.ChapterStore = (*chapterStore)(nil)

// chapterStore is the chapter view over a Store.
type chapterStore struct {
	store *Store
}

// ReplaceAll atomically swaps a book's chapters for a new set.
// The book must exist, matching the SQLite foreign key.
func (s *chapterStore) ReplaceAll(_ context.Context, bookID string, chapters []domain.Chapter) error {
	if bookID == "" {
		return domain.ErrInvalidInput
	}
	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	if _, ok := s.store.books[bookID]; !ok {
		return domain.ErrNotFound
	}

	replacement := make([]domain.Chapter, len(chapters))
	copy(replacement, chapters)
	sort.Slice(replacement, func(i, j int) bool {
		return replacement[i].Index < replacement[j].Index
	})
	s.store.chapters[bookID] = replacement
	return nil
}

// Get retrieves one chapter of a book by its 1-based index.
func (s *chapterStore) Get(_ context.Context, bookID string, index int) (*domain.Chapter, error) {
	s.store.mu.RLock()
	defer s.store.mu.RUnlock()
	for _, ch := range s.store.chapters[bookID] {
		if ch.Index == index {
			return &ch, nil
		}
	}
	return nil, domain.ErrNotFound
}

// List returns a book's chapters in reading order, content included.
func (s *chapterStore) List(_ context.Context, bookID string) ([]domain.Chapter, error) {
	s.store.mu.RLock()
	defer s.store.mu.RUnlock()
	chapters := make([]domain.Chapter, len(s.store.chapters[bookID]))
	copy(chapters, s.store.chapters[bookID])
	return chapters, nil
}

// ListSummaries returns a book's chapters with index and title only.
func (s *chapterStore) ListSummaries(_ context.Context, bookID string) ([]domain.Chapter, error) {
	s.store.mu.RLock()
	defer s.store.mu.RUnlock()
	summaries := make([]domain.Chapter, 0, len(s.store.chapters[bookID]))
	for _, ch := range s.store.chapters[bookID] {
		ch.HTML = ""
		ch.Text = ""
		summaries = append(summaries, ch)
	}
	return summaries, nil
}
