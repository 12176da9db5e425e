package mcp

import (
	"context"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// ListBooksInput is the input schema for the list_books tool.
type ListBooksInput struct{}

// ListBooksOutput is the output schema for the list_books tool.
type ListBooksOutput struct {
	Books []BookOutput `json:"books"`
	Count int          `json:"count"`
}

// BookOutput represents a single book in tool output.
type BookOutput struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Author      string `json:"author,omitempty"`
	Language    string `json:"language,omitempty"`
	Chapters    int    `json:"chapters"`
	AddedAt     string `json:"added_at"`
	LastChapter int    `json:"last_chapter,omitempty"`
	Percent     int    `json:"percent"`
}

// ReadChapterInput is the input schema for the read_chapter tool.
type ReadChapterInput struct {
	BookID  string `json:"book_id" jsonschema:"the book ID, as returned by list_books"`
	Chapter int    `json:"chapter" jsonschema:"the 1-based chapter index"`
}

// ReadChapterOutput is the output schema for the read_chapter tool.
type ReadChapterOutput struct {
	BookID    string `json:"book_id"`
	BookTitle string `json:"book_title"`
	Chapter   int    `json:"chapter"`
	Title     string `json:"title"`
	Text      string `json:"text"`
	HasPrev   bool   `json:"has_prev"`
	HasNext   bool   `json:"has_next"`
	Total     int    `json:"total"`
}

// SearchBookInput is the input schema for the search_book tool.
type SearchBookInput struct {
	BookID string `json:"book_id" jsonschema:"the book ID, as returned by list_books"`
	Query  string `json:"query" jsonschema:"text to find inside the book, matched case-insensitively"`
}

// SearchBookOutput is the output schema for the search_book tool.
type SearchBookOutput struct {
	Matches []SearchMatchOutput `json:"matches"`
	Count   int                 `json:"count"`
}

// SearchMatchOutput represents a single search match.
type SearchMatchOutput struct {
	Chapter int    `json:"chapter"`
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_books",
		Description: "List the books in the library with their reading progress",
	}, s.handleListBooks)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "read_chapter",
		Description: "Read one chapter of a book as plain text",
	}, s.handleReadChapter)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search_book",
		Description: "Find chapters of a book whose text contains a query",
	}, s.handleSearchBook)
}

// handleListBooks handles the list_books tool invocation.
func (s *Server) handleListBooks(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ ListBooksInput,
) (*mcp.CallToolResult, ListBooksOutput, error) {
	books, err := s.ports.Library.List(ctx)
	if err != nil {
		return nil, ListBooksOutput{}, err
	}

	output := ListBooksOutput{
		Books: make([]BookOutput, len(books)),
		Count: len(books),
	}

	for i := range books {
		b := &books[i]
		output.Books[i] = BookOutput{
			ID:          b.ID,
			Title:       b.Title,
			Author:      b.Author,
			Language:    b.Language,
			Chapters:    b.ChapterCount,
			AddedAt:     b.AddedAt.Format(time.RFC3339),
			LastChapter: b.LastChapter,
			Percent:     b.ProgressPercent(),
		}
	}

	return nil, output, nil
}

// handleReadChapter handles the read_chapter tool invocation.
// Reading through an assistant counts as reading: the chapter is
// recorded as the last one read, exactly like the other readers.
func (s *Server) handleReadChapter(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ReadChapterInput,
) (*mcp.CallToolResult, ReadChapterOutput, error) {
	book, err := s.ports.Library.Resolve(ctx, input.BookID)
	if err != nil {
		return nil, ReadChapterOutput{}, err
	}

	page, err := s.ports.Reader.Chapter(ctx, book.ID, input.Chapter)
	if err != nil {
		return nil, ReadChapterOutput{}, err
	}

	return nil, ReadChapterOutput{
		BookID:    page.Book.ID,
		BookTitle: page.Book.Title,
		Chapter:   page.Chapter.Index,
		Title:     page.Chapter.Title,
		Text:      page.Chapter.Text,
		HasPrev:   page.HasPrev,
		HasNext:   page.HasNext,
		Total:     page.Total,
	}, nil
}

// handleSearchBook handles the search_book tool invocation.
func (s *Server) handleSearchBook(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchBookInput,
) (*mcp.CallToolResult, SearchBookOutput, error) {
	book, err := s.ports.Library.Resolve(ctx, input.BookID)
	if err != nil {
		return nil, SearchBookOutput{}, err
	}

	matches, err := s.ports.Reader.Search(ctx, book.ID, input.Query)
	if err != nil {
		return nil, SearchBookOutput{}, err
	}

	output := SearchBookOutput{
		Matches: make([]SearchMatchOutput, len(matches)),
		Count:   len(matches),
	}

	for i, m := range matches {
		output.Matches[i] = SearchMatchOutput{
			Chapter: m.ChapterIndex,
			Title:   m.ChapterTitle,
			Snippet: m.Snippet,
		}
	}

	return nil, output, nil
}
