package library

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLayout_Paths(t *testing.T) {
	l := NewLayout("/data/library")

	assert.Equal(t, "/data/library", l.Root())
	assert.Equal(t, filepath.Join("/data/library", "books", "b1"), l.BookDir("b1"))
	assert.Equal(t, filepath.Join("/data/library", "books", "b1", "images"), l.ImagesDir("b1"))
	assert.Equal(t, filepath.Join("/data/library", "books", "b1", "images", "pic.jpg"), l.ImagePath("b1", "pic.jpg"))
	assert.Equal(t, filepath.Join("/data/library", "books", "b1", "source.epub"), l.SourcePath("b1"))
	assert.Equal(t, filepath.Join("/data/library", "exports"), l.ExportsDir())
}

func TestLayout_Abs(t *testing.T) {
	l := NewLayout("/data/library")

	assert.Equal(t, l.SourcePath("b1"), l.Abs(RelSourcePath("b1")))
	assert.Equal(t, l.ImagePath("b1", "pic.jpg"), l.Abs(RelImagePath("b1", "pic.jpg")))
}

func TestRelPaths(t *testing.T) {
	assert.Equal(t, "books/b1/source.epub", RelSourcePath("b1"))
	assert.Equal(t, "books/b1/images/pic.jpg", RelImagePath("b1", "pic.jpg"))
}

func TestLayout_EnsureAndRemoveBook(t *testing.T) {
	l := NewLayout(t.TempDir())

	require.NoError(t, l.EnsureBook("b1"))
	info, err := os.Stat(l.ImagesDir("b1"))
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	require.NoError(t, l.RemoveBook("b1"))
	_, err = os.Stat(l.BookDir("b1"))
	assert.True(t, os.IsNotExist(err))

	// Removing twice is fine.
	require.NoError(t, l.RemoveBook("b1"))
}

func TestAssetURL(t *testing.T) {
	assert.Equal(t, "/assets/books/b1/images/pic.jpg", AssetURL("b1", "pic.jpg"))
}

func TestChapterURL(t *testing.T) {
	assert.Equal(t, "/book/b1/chapter/3/", ChapterURL("b1", 3))
}
