package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// uriScheme is the custom URI scheme for quire resources.
const uriScheme = "quire://"

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	// Static resource for listing books.
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "books",
		Name:        "books",
		Description: "All books in the library",
		MIMEType:    "application/json",
	}, s.handleBooksResource)

	// Template for a book's chapter outline.
	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "books/{bookId}/chapters",
		Name:        "book-chapters",
		Description: "Chapter outline of a book",
		MIMEType:    "application/json",
	}, s.handleOutlineResource)

	// Template for chapter text.
	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "books/{bookId}/chapters/{index}",
		Name:        "chapter-text",
		Description: "Plain text of one chapter",
		MIMEType:    "text/plain",
	}, s.handleChapterResource)
}

// handleBooksResource returns the library as JSON.
func (s *Server) handleBooksResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	books, err := s.ports.Library.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing books: %w", err)
	}

	type bookInfo struct {
		ID       string `json:"id"`
		Title    string `json:"title"`
		Author   string `json:"author,omitempty"`
		Chapters int    `json:"chapters"`
		Percent  int    `json:"percent"`
	}

	infos := make([]bookInfo, len(books))
	for i := range books {
		b := &books[i]
		infos[i] = bookInfo{
			ID:       b.ID,
			Title:    b.Title,
			Author:   b.Author,
			Chapters: b.ChapterCount,
			Percent:  b.ProgressPercent(),
		}
	}

	data, err := json.MarshalIndent(infos, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling books: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// handleOutlineResource returns a book's chapter outline as JSON.
func (s *Server) handleOutlineResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	bookID := extractBookID(req.Params.URI)
	if bookID == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	chapters, err := s.ports.Library.Outline(ctx, bookID)
	if err != nil {
		return nil, fmt.Errorf("reading outline: %w", err)
	}

	type chapterInfo struct {
		Index int    `json:"index"`
		Title string `json:"title"`
	}

	infos := make([]chapterInfo, len(chapters))
	for i, ch := range chapters {
		infos[i] = chapterInfo{Index: ch.Index, Title: ch.Title}
	}

	data, err := json.MarshalIndent(infos, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling outline: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// handleChapterResource returns one chapter's reduced text.
func (s *Server) handleChapterResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	bookID, index := extractChapterRef(req.Params.URI)
	if bookID == "" || index < 1 {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	page, err := s.ports.Reader.Chapter(ctx, bookID, index)
	if err != nil {
		return nil, fmt.Errorf("reading chapter: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "text/plain",
			Text:     page.Chapter.Text,
		}},
	}, nil
}

// extractBookID extracts the book ID from a URI like
// quire://books/{bookId}/chapters.
func extractBookID(uri string) string {
	const prefix = uriScheme + "books/"
	const suffix = "/chapters"

	if !strings.HasPrefix(uri, prefix) {
		return ""
	}

	uri = strings.TrimPrefix(uri, prefix)
	if !strings.HasSuffix(uri, suffix) {
		return ""
	}

	return strings.TrimSuffix(uri, suffix)
}

// extractChapterRef extracts book ID and chapter index from a URI like
// quire://books/{bookId}/chapters/{index}.
func extractChapterRef(uri string) (string, int) {
	const prefix = uriScheme + "books/"

	if !strings.HasPrefix(uri, prefix) {
		return "", 0
	}

	rest := strings.TrimPrefix(uri, prefix)
	bookID, indexPart, found := strings.Cut(rest, "/chapters/")
	if !found || bookID == "" {
		return "", 0
	}

	index, err := strconv.Atoi(indexPart)
	if err != nil {
		return "", 0
	}
	return bookID, index
}
