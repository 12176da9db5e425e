package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quirelabs/quire/internal/core/domain"
)

func TestNewStore(t *testing.T) {
	store := NewStore()
	require.NotNil(t, store)
	assert.NotNil(t, store.books)
	assert.NotNil(t, store.chapters)
}

func TestBookStore_SaveAndGet(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	book := &domain.Book{
		ID:           "b1",
		Title:        "The Waves",
		Author:       "V. Woolf",
		ChapterCount: 9,
	}
	require.NoError(t, store.Books().Save(ctx, book))
	assert.False(t, book.AddedAt.IsZero(), "save stamps AddedAt")

	got, err := store.Books().Get(ctx, "b1")
	require.NoError(t, err)
	assert.Equal(t, "The Waves", got.Title)
	assert.Equal(t, "V. Woolf", got.Author)
	assert.Equal(t, 9, got.ChapterCount)
}

func TestBookStore_Get_NotFound(t *testing.T) {
	store := NewStore()

	_, err := store.Books().Get(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestBookStore_Save_InvalidInput(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	assert.ErrorIs(t, store.Books().Save(ctx, nil), domain.ErrInvalidInput)
	assert.ErrorIs(t, store.Books().Save(ctx, &domain.Book{}), domain.ErrInvalidInput)
}

func TestBookStore_Save_UpdatePreservesAddedAt(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	first := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	book := &domain.Book{ID: "b1", Title: "Original", AddedAt: first}
	require.NoError(t, store.Books().Save(ctx, book))

	update := &domain.Book{ID: "b1", Title: "Updated", AddedAt: time.Now()}
	require.NoError(t, store.Books().Save(ctx, update))

	got, err := store.Books().Get(ctx, "b1")
	require.NoError(t, err)
	assert.Equal(t, "Updated", got.Title)
	assert.Equal(t, first, got.AddedAt)
}

func TestBookStore_List_Order(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	older := &domain.Book{ID: "older", AddedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	newer := &domain.Book{ID: "newer", AddedAt: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	require.NoError(t, store.Books().Save(ctx, older))
	require.NoError(t, store.Books().Save(ctx, newer))

	books, err := store.Books().List(ctx)
	require.NoError(t, err)
	require.Len(t, books, 2)
	assert.Equal(t, "newer", books[0].ID)
	assert.Equal(t, "older", books[1].ID)
}

func TestBookStore_Delete_DropsChapters(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	require.NoError(t, store.Books().Save(ctx, &domain.Book{ID: "b1"}))
	require.NoError(t, store.Chapters().ReplaceAll(ctx, "b1", []domain.Chapter{
		{ID: "c1", BookID: "b1", Index: 1, Title: "One"},
	}))

	require.NoError(t, store.Books().Delete(ctx, "b1"))

	_, err := store.Books().Get(ctx, "b1")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	chapters, err := store.Chapters().List(ctx, "b1")
	require.NoError(t, err)
	assert.Empty(t, chapters)
}

func TestBookStore_UpdateProgress(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	require.NoError(t, store.Books().Save(ctx, &domain.Book{ID: "b1", ChapterCount: 5}))

	err := store.Books().UpdateProgress(ctx, domain.Progress{BookID: "b1", Chapter: 3, Position: 0.25})
	require.NoError(t, err)

	got, err := store.Books().Get(ctx, "b1")
	require.NoError(t, err)
	assert.Equal(t, 3, got.LastChapter)
	assert.Equal(t, 0.25, got.LastPosition)

	err = store.Books().UpdateProgress(ctx, domain.Progress{BookID: "missing", Chapter: 1})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestBookStore_ConcurrentAccess(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			book := &domain.Book{ID: "b1", Title: "Race"}
			_ = store.Books().Save(ctx, book)
			_, _ = store.Books().Get(ctx, "b1")
			_, _ = store.Books().List(ctx)
		}(i)
	}
	wg.Wait()

	_, err := store.Books().Get(ctx, "b1")
	assert.NoError(t, err)
}
