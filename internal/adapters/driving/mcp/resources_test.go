package mcp

import (
	"context"
	"errors"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quirelabs/quire/internal/core/domain"
	"github.com/quirelabs/quire/internal/core/ports/driving"
)

func TestExtractBookID(t *testing.T) {
	tests := []struct {
		name     string
		uri      string
		expected string
	}{
		{
			name:     "valid outline URI",
			uri:      "quire://books/book-123/chapters",
			expected: "book-123",
		},
		{
			name:     "invalid prefix",
			uri:      "file://books/book-123/chapters",
			expected: "",
		},
		{
			name:     "missing chapters suffix",
			uri:      "quire://books/book-123",
			expected: "",
		},
		{
			name:     "chapter content URI does not match",
			uri:      "quire://books/book-123/chapters/3",
			expected: "",
		},
		{
			name:     "empty URI",
			uri:      "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := extractBookID(tt.uri)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestExtractChapterRef(t *testing.T) {
	tests := []struct {
		name          string
		uri           string
		expectedID    string
		expectedIndex int
	}{
		{
			name:          "valid chapter URI",
			uri:           "quire://books/book-123/chapters/3",
			expectedID:    "book-123",
			expectedIndex: 3,
		},
		{
			name:          "invalid prefix",
			uri:           "file://books/book-123/chapters/3",
			expectedID:    "",
			expectedIndex: 0,
		},
		{
			name:          "missing index",
			uri:           "quire://books/book-123/chapters",
			expectedID:    "",
			expectedIndex: 0,
		},
		{
			name:          "non-numeric index",
			uri:           "quire://books/book-123/chapters/three",
			expectedID:    "",
			expectedIndex: 0,
		},
		{
			name:          "empty book ID",
			uri:           "quire://books//chapters/3",
			expectedID:    "",
			expectedIndex: 0,
		},
		{
			name:          "empty URI",
			uri:           "",
			expectedID:    "",
			expectedIndex: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bookID, index := extractChapterRef(tt.uri)
			assert.Equal(t, tt.expectedID, bookID)
			assert.Equal(t, tt.expectedIndex, index)
		})
	}
}

// Helper to create a ReadResourceRequest with the given URI.
func makeReadResourceRequest(uri string) *mcp.ReadResourceRequest {
	return &mcp.ReadResourceRequest{
		Params: &mcp.ReadResourceParams{
			URI: uri,
		},
	}
}

func TestServer_handleBooksResource(t *testing.T) {
	ctx := context.Background()

	t.Run("empty library returns empty array", func(t *testing.T) {
		ports := &Ports{Library: &mockLibraryService{}, Reader: &mockReaderService{}}
		server, err := NewServer(ports)
		require.NoError(t, err)

		req := makeReadResourceRequest("quire://books")
		result, err := server.handleBooksResource(ctx, req)

		require.NoError(t, err)
		require.Len(t, result.Contents, 1)
		assert.Equal(t, "[]", result.Contents[0].Text)
		assert.Equal(t, "application/json", result.Contents[0].MIMEType)
	})

	t.Run("returns books successfully", func(t *testing.T) {
		mockLibrary := &mockLibraryService{
			books: []domain.Book{
				{
					ID:           "book-1",
					Title:        "The Voyage Out",
					Author:       "Virginia Woolf",
					ChapterCount: 4,
					LastChapter:  2,
					LastPosition: 0.5,
				},
			},
		}

		ports := &Ports{Library: mockLibrary, Reader: &mockReaderService{}}
		server, err := NewServer(ports)
		require.NoError(t, err)

		req := makeReadResourceRequest("quire://books")
		result, err := server.handleBooksResource(ctx, req)

		require.NoError(t, err)
		require.Len(t, result.Contents, 1)
		assert.Equal(t, "quire://books", result.Contents[0].URI)
		assert.Contains(t, result.Contents[0].Text, "book-1")
		assert.Contains(t, result.Contents[0].Text, "The Voyage Out")
		assert.Contains(t, result.Contents[0].Text, `"percent": 37`)
	})

	t.Run("returns error on list failure", func(t *testing.T) {
		mockLibrary := &mockLibraryService{err: errors.New("database error")}
		ports := &Ports{Library: mockLibrary, Reader: &mockReaderService{}}
		server, err := NewServer(ports)
		require.NoError(t, err)

		req := makeReadResourceRequest("quire://books")
		_, err = server.handleBooksResource(ctx, req)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "listing books")
	})
}

func TestServer_handleOutlineResource(t *testing.T) {
	ctx := context.Background()

	t.Run("returns outline successfully", func(t *testing.T) {
		mockLibrary := &mockLibraryService{
			chapters: []domain.Chapter{
				{BookID: "book-1", Index: 1, Title: "Chapter I"},
				{BookID: "book-1", Index: 2, Title: "Chapter II"},
			},
		}

		ports := &Ports{Library: mockLibrary, Reader: &mockReaderService{}}
		server, err := NewServer(ports)
		require.NoError(t, err)

		req := makeReadResourceRequest("quire://books/book-1/chapters")
		result, err := server.handleOutlineResource(ctx, req)

		require.NoError(t, err)
		require.Len(t, result.Contents, 1)
		assert.Equal(t, "application/json", result.Contents[0].MIMEType)
		assert.Contains(t, result.Contents[0].Text, "Chapter I")
		assert.Contains(t, result.Contents[0].Text, "Chapter II")
		assert.Contains(t, result.Contents[0].Text, `"index": 2`)
	})

	t.Run("invalid URI returns not found", func(t *testing.T) {
		ports := &Ports{Library: &mockLibraryService{}, Reader: &mockReaderService{}}
		server, err := NewServer(ports)
		require.NoError(t, err)

		req := makeReadResourceRequest("quire://invalid/uri")
		_, err = server.handleOutlineResource(ctx, req)

		require.Error(t, err)
	})

	t.Run("returns error on outline failure", func(t *testing.T) {
		mockLibrary := &mockLibraryService{err: errors.New("database error")}
		ports := &Ports{Library: mockLibrary, Reader: &mockReaderService{}}
		server, err := NewServer(ports)
		require.NoError(t, err)

		req := makeReadResourceRequest("quire://books/book-1/chapters")
		_, err = server.handleOutlineResource(ctx, req)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "reading outline")
	})
}

func TestServer_handleChapterResource(t *testing.T) {
	ctx := context.Background()

	t.Run("returns chapter text successfully", func(t *testing.T) {
		mockReader := &mockReaderService{
			page: &driving.ChapterPage{
				Book: domain.Book{ID: "book-1"},
				Chapter: domain.Chapter{
					BookID: "book-1",
					Index:  3,
					Title:  "Chapter III",
					Text:   "They walked down to the beach together.",
				},
				Total: 10,
			},
		}

		ports := &Ports{Library: &mockLibraryService{}, Reader: mockReader}
		server, err := NewServer(ports)
		require.NoError(t, err)

		req := makeReadResourceRequest("quire://books/book-1/chapters/3")
		result, err := server.handleChapterResource(ctx, req)

		require.NoError(t, err)
		require.Len(t, result.Contents, 1)
		assert.Equal(t, "text/plain", result.Contents[0].MIMEType)
		assert.Equal(t, "They walked down to the beach together.", result.Contents[0].Text)
		assert.Equal(t, "book-1", mockReader.lastBookID)
		assert.Equal(t, 3, mockReader.requested)
	})

	t.Run("non-numeric index returns not found", func(t *testing.T) {
		ports := &Ports{Library: &mockLibraryService{}, Reader: &mockReaderService{}}
		server, err := NewServer(ports)
		require.NoError(t, err)

		req := makeReadResourceRequest("quire://books/book-1/chapters/three")
		_, err = server.handleChapterResource(ctx, req)

		require.Error(t, err)
	})

	t.Run("index below one returns not found", func(t *testing.T) {
		ports := &Ports{Library: &mockLibraryService{}, Reader: &mockReaderService{}}
		server, err := NewServer(ports)
		require.NoError(t, err)

		req := makeReadResourceRequest("quire://books/book-1/chapters/0")
		_, err = server.handleChapterResource(ctx, req)

		require.Error(t, err)
	})

	t.Run("returns error on chapter failure", func(t *testing.T) {
		mockReader := &mockReaderService{err: errors.New("chapter out of range")}
		ports := &Ports{Library: &mockLibraryService{}, Reader: mockReader}
		server, err := NewServer(ports)
		require.NoError(t, err)

		req := makeReadResourceRequest("quire://books/book-1/chapters/99")
		_, err = server.handleChapterResource(ctx, req)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "reading chapter")
	})
}
