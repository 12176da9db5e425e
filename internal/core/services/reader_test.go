package services

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quirelabs/quire/internal/adapters/driven/storage/memory"
	"github.com/quirelabs/quire/internal/core/domain"
)

func newReaderService(t *testing.T) (*ReaderService, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	return NewReaderService(store.Books(), store.Chapters()), store
}

func seedReadable(t *testing.T, store *memory.Store, id string, chapters int) {
	t.Helper()
	book := domain.Book{ID: id, Title: "A Book", Author: "Author", ChapterCount: chapters}
	require.NoError(t, store.Books().Save(context.Background(), &book))

	docs := make([]domain.Chapter, 0, chapters)
	for i := 1; i <= chapters; i++ {
		docs = append(docs, domain.Chapter{
			ID:     fmt.Sprintf("%s-c%d", id, i),
			BookID: id,
			Index:  i,
			Title:  fmt.Sprintf("Chapter %d", i),
			HTML:   "<p>content</p>",
			Text:   "content of the chapter",
		})
	}
	require.NoError(t, store.Chapters().ReplaceAll(context.Background(), id, docs))
}

func TestReaderService_Open_Unopened(t *testing.T) {
	svc, store := newReaderService(t)
	seedReadable(t, store, "b1", 3)

	idx, err := svc.Open(context.Background(), "b1")

	require.NoError(t, err)
	assert.Equal(t, 1, idx)
}

func TestReaderService_Open_Resumes(t *testing.T) {
	svc, store := newReaderService(t)
	seedReadable(t, store, "b1", 3)
	require.NoError(t, store.Books().UpdateProgress(context.Background(), domain.Progress{
		BookID: "b1", Chapter: 2, Position: 0.4,
	}))

	idx, err := svc.Open(context.Background(), "b1")

	require.NoError(t, err)
	assert.Equal(t, 2, idx)
}

func TestReaderService_Open_StaleProgressFallsBack(t *testing.T) {
	svc, store := newReaderService(t)
	seedReadable(t, store, "b1", 3)

	// A stored chapter beyond the current count, as after a reprocess
	// that produced fewer chapters.
	book, err := store.Books().Get(context.Background(), "b1")
	require.NoError(t, err)
	book.LastChapter = 9
	require.NoError(t, store.Books().Save(context.Background(), book))

	idx, err := svc.Open(context.Background(), "b1")

	require.NoError(t, err)
	assert.Equal(t, 1, idx)
}

func TestReaderService_Open_NotFound(t *testing.T) {
	svc, _ := newReaderService(t)

	_, err := svc.Open(context.Background(), "missing")

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestReaderService_Chapter(t *testing.T) {
	svc, store := newReaderService(t)
	seedReadable(t, store, "b1", 3)

	page, err := svc.Chapter(context.Background(), "b1", 2)

	require.NoError(t, err)
	assert.Equal(t, "A Book", page.Book.Title)
	assert.Equal(t, 2, page.Chapter.Index)
	assert.True(t, page.HasPrev)
	assert.True(t, page.HasNext)
	assert.Equal(t, 3, page.Total)
	assert.Zero(t, page.Position)

	// Viewing recorded the chapter.
	book, err := store.Books().Get(context.Background(), "b1")
	require.NoError(t, err)
	assert.Equal(t, 2, book.LastChapter)
	assert.Zero(t, book.LastPosition)
}

func TestReaderService_Chapter_Edges(t *testing.T) {
	svc, store := newReaderService(t)
	seedReadable(t, store, "b1", 3)

	first, err := svc.Chapter(context.Background(), "b1", 1)
	require.NoError(t, err)
	assert.False(t, first.HasPrev)
	assert.True(t, first.HasNext)

	last, err := svc.Chapter(context.Background(), "b1", 3)
	require.NoError(t, err)
	assert.True(t, last.HasPrev)
	assert.False(t, last.HasNext)
}

func TestReaderService_Chapter_KeepsPositionOnRevisit(t *testing.T) {
	svc, store := newReaderService(t)
	seedReadable(t, store, "b1", 3)
	require.NoError(t, store.Books().UpdateProgress(context.Background(), domain.Progress{
		BookID: "b1", Chapter: 2, Position: 0.6,
	}))

	page, err := svc.Chapter(context.Background(), "b1", 2)

	require.NoError(t, err)
	assert.InDelta(t, 0.6, page.Position, 1e-9)
}

func TestReaderService_Chapter_SwitchResetsPosition(t *testing.T) {
	svc, store := newReaderService(t)
	seedReadable(t, store, "b1", 3)
	require.NoError(t, store.Books().UpdateProgress(context.Background(), domain.Progress{
		BookID: "b1", Chapter: 2, Position: 0.6,
	}))

	page, err := svc.Chapter(context.Background(), "b1", 3)

	require.NoError(t, err)
	assert.Zero(t, page.Position)

	book, err := store.Books().Get(context.Background(), "b1")
	require.NoError(t, err)
	assert.Equal(t, 3, book.LastChapter)
	assert.Zero(t, book.LastPosition)
}

func TestReaderService_Chapter_OutOfRange(t *testing.T) {
	svc, store := newReaderService(t)
	seedReadable(t, store, "b1", 3)

	_, err := svc.Chapter(context.Background(), "b1", 9)

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestReaderService_UpdateProgress(t *testing.T) {
	svc, store := newReaderService(t)
	seedReadable(t, store, "b1", 3)

	require.NoError(t, svc.UpdateProgress(context.Background(), "b1", 2, 0.75))

	book, err := store.Books().Get(context.Background(), "b1")
	require.NoError(t, err)
	assert.Equal(t, 2, book.LastChapter)
	assert.InDelta(t, 0.75, book.LastPosition, 1e-9)
}

func TestReaderService_UpdateProgress_ClampsPosition(t *testing.T) {
	svc, store := newReaderService(t)
	seedReadable(t, store, "b1", 3)

	require.NoError(t, svc.UpdateProgress(context.Background(), "b1", 1, 1.8))

	book, err := store.Books().Get(context.Background(), "b1")
	require.NoError(t, err)
	assert.InDelta(t, 1.0, book.LastPosition, 1e-9)

	require.NoError(t, svc.UpdateProgress(context.Background(), "b1", 1, -0.5))
	book, err = store.Books().Get(context.Background(), "b1")
	require.NoError(t, err)
	assert.Zero(t, book.LastPosition)
}

func TestReaderService_UpdateProgress_InvalidChapter(t *testing.T) {
	svc, store := newReaderService(t)
	seedReadable(t, store, "b1", 3)

	assert.ErrorIs(t, svc.UpdateProgress(context.Background(), "b1", 0, 0.5), domain.ErrInvalidInput)
	assert.ErrorIs(t, svc.UpdateProgress(context.Background(), "b1", 4, 0.5), domain.ErrInvalidInput)
}

func TestReaderService_Progress(t *testing.T) {
	svc, store := newReaderService(t)
	seedReadable(t, store, "b1", 3)
	require.NoError(t, svc.UpdateProgress(context.Background(), "b1", 2, 0.25))

	progress, err := svc.Progress(context.Background(), "b1")

	require.NoError(t, err)
	assert.Equal(t, "b1", progress.BookID)
	assert.Equal(t, 2, progress.Chapter)
	assert.InDelta(t, 0.25, progress.Position, 1e-9)
}

func TestReaderService_Search(t *testing.T) {
	svc, store := newReaderService(t)
	book := domain.Book{ID: "b1", Title: "A Book", ChapterCount: 3}
	require.NoError(t, store.Books().Save(context.Background(), &book))
	require.NoError(t, store.Chapters().ReplaceAll(context.Background(), "b1", []domain.Chapter{
		{ID: "c1", BookID: "b1", Index: 1, Title: "Setting Sail", Text: "The ship left the harbour at dawn, sails full of wind."},
		{ID: "c2", BookID: "b1", Index: 2, Title: "Storm", Text: "Rain hammered the deck all night."},
		{ID: "c3", BookID: "b1", Index: 3, Title: "Landfall", Text: "They sighted the HARBOUR lights and wept."},
	}))

	matches, err := svc.Search(context.Background(), "b1", "harbour")

	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, 1, matches[0].ChapterIndex)
	assert.Equal(t, "Setting Sail", matches[0].ChapterTitle)
	assert.Contains(t, matches[0].Snippet, "harbour at dawn")
	assert.Equal(t, 3, matches[1].ChapterIndex)
	assert.Contains(t, matches[1].Snippet, "HARBOUR lights")
}

func TestReaderService_Search_Snippets(t *testing.T) {
	svc, store := newReaderService(t)
	long := strings.Repeat("water everywhere ", 20) + "an albatross overhead " + strings.Repeat("water everywhere ", 20)
	book := domain.Book{ID: "b1", Title: "A Book", ChapterCount: 1}
	require.NoError(t, store.Books().Save(context.Background(), &book))
	require.NoError(t, store.Chapters().ReplaceAll(context.Background(), "b1", []domain.Chapter{
		{ID: "c1", BookID: "b1", Index: 1, Title: "Becalmed", Text: long},
	}))

	matches, err := svc.Search(context.Background(), "b1", "albatross")

	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Contains(t, matches[0].Snippet, "albatross")
	assert.True(t, strings.HasPrefix(matches[0].Snippet, "..."))
	assert.True(t, strings.HasSuffix(matches[0].Snippet, "..."))
	assert.Less(t, len(matches[0].Snippet), len(long))
}

func TestReaderService_Search_NoMatches(t *testing.T) {
	svc, store := newReaderService(t)
	seedReadable(t, store, "b1", 2)

	matches, err := svc.Search(context.Background(), "b1", "xyzzy")

	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestReaderService_Search_EmptyQuery(t *testing.T) {
	svc, store := newReaderService(t)
	seedReadable(t, store, "b1", 2)

	matches, err := svc.Search(context.Background(), "b1", "   ")

	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestReaderService_Search_NotFound(t *testing.T) {
	svc, _ := newReaderService(t)

	_, err := svc.Search(context.Background(), "missing", "whale")

	assert.ErrorIs(t, err, domain.ErrNotFound)
}
