package web

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/quirelabs/quire/internal/core/domain"
	"github.com/quirelabs/quire/internal/library"
	"github.com/quirelabs/quire/internal/logger"
)

// bookCard is one shelf entry on the library page.
type bookCard struct {
	domain.Book

	// CoverURL is the served cover image, empty when the book has none.
	CoverURL string

	// Percent is the coarse reading progress.
	Percent int

	// Started reports whether the book has been opened before.
	Started bool
}

type libraryView struct {
	Title  string
	Books  []bookCard
	Error  string
	Notice string
}

type readerView struct {
	Title       string
	Book        domain.Book
	Chapter     domain.Chapter
	ChapterHTML template.HTML
	HasPrev     bool
	HasNext     bool
	PrevURL     string
	NextURL     string
	Total       int
	Position    float64
}

type searchView struct {
	Title   string
	Book    domain.Book
	Query   string
	Matches []domain.SearchMatch
}

// exportChoice is one radio option on the export form.
type exportChoice struct {
	Value    string
	Label    string
	Selected bool
}

type exportView struct {
	Title     string
	Book      domain.Book
	Layouts   []exportChoice
	Qualities []exportChoice
}

func (s *Server) handleHealthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleLibrary(c *gin.Context) {
	books, err := s.ports.Library.List(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}

	cards := make([]bookCard, 0, len(books))
	for i := range books {
		b := &books[i]
		card := bookCard{Book: *b, Percent: b.ProgressPercent(), Started: b.Opened()}
		if b.CoverPath != "" {
			card.CoverURL = library.AssetURL(b.ID, path.Base(b.CoverPath))
		}
		cards = append(cards, card)
	}

	c.HTML(http.StatusOK, "library.html", libraryView{
		Title:  "Library",
		Books:  cards,
		Error:  c.Query("error"),
		Notice: c.Query("notice"),
	})
}

func (s *Server) handleUpload(c *gin.Context) {
	if s.maxUpload > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.maxUpload+uploadSlack)
	}

	file, header, err := c.Request.FormFile("epub")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			flashError(c, "/", "That file exceeds the upload size limit.")
			return
		}
		flashError(c, "/", "Choose an EPUB file to upload.")
		return
	}
	defer file.Close() //nolint:errcheck // Read-only temp file

	book, err := s.ports.Ingest.ImportReader(c.Request.Context(), file, header.Filename, header.Size)
	if err != nil {
		logger.Warn("Upload %s failed: %v", header.Filename, err)
		flashError(c, "/", uploadMessage(err))
		return
	}

	c.Redirect(http.StatusSeeOther, "/book/"+book.ID+"/")
}

// handleResume redirects to the chapter the reader should pick up at.
func (s *Server) handleResume(c *gin.Context) {
	id := c.Param("id")
	index, err := s.ports.Reader.Open(c.Request.Context(), id)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.Redirect(http.StatusFound, library.ChapterURL(id, index))
}

func (s *Server) handleChapter(c *gin.Context) {
	id := c.Param("id")
	index, err := strconv.Atoi(c.Param("n"))
	if err != nil || index < 1 {
		c.String(http.StatusNotFound, "no such chapter")
		return
	}

	page, err := s.ports.Reader.Chapter(c.Request.Context(), id, index)
	if err != nil {
		s.fail(c, err)
		return
	}

	view := readerView{
		Title:       page.Chapter.Title,
		Book:        page.Book,
		Chapter:     page.Chapter,
		ChapterHTML: template.HTML(page.Chapter.HTML), //nolint:gosec // Sanitised by the import pipeline
		HasPrev:     page.HasPrev,
		HasNext:     page.HasNext,
		Total:       page.Total,
		Position:    page.Position,
	}
	if page.HasPrev {
		view.PrevURL = library.ChapterURL(id, index-1)
	}
	if page.HasNext {
		view.NextURL = library.ChapterURL(id, index+1)
	}
	c.HTML(http.StatusOK, "reader.html", view)
}

// progressRequest is the body posted by the reader's scroll tracker.
type progressRequest struct {
	Chapter  int     `json:"chapter"`
	Position float64 `json:"position"`
}

// progressResponse is the stored reading position.
type progressResponse struct {
	BookID   string  `json:"book_id"`
	Chapter  int     `json:"chapter"`
	Position float64 `json:"position"`
}

func (s *Server) handleProgressUpdate(c *gin.Context) {
	var req progressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid progress payload"})
		return
	}

	err := s.ports.Reader.UpdateProgress(c.Request.Context(), c.Param("id"), req.Chapter, req.Position)
	if err != nil {
		c.JSON(httpStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleProgress(c *gin.Context) {
	p, err := s.ports.Reader.Progress(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(httpStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, progressResponse{BookID: p.BookID, Chapter: p.Chapter, Position: p.Position})
}

func (s *Server) handleDelete(c *gin.Context) {
	err := s.ports.Library.Delete(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			flashError(c, "/", "That book is already gone.")
			return
		}
		s.fail(c, err)
		return
	}
	c.Redirect(http.StatusSeeOther, "/?notice="+url.QueryEscape("Book deleted."))
}

func (s *Server) handleSearch(c *gin.Context) {
	id := c.Param("id")
	book, err := s.ports.Library.Get(c.Request.Context(), id)
	if err != nil {
		s.fail(c, err)
		return
	}

	query := strings.TrimSpace(c.Query("q"))
	matches, err := s.ports.Reader.Search(c.Request.Context(), id, query)
	if err != nil {
		s.fail(c, err)
		return
	}

	c.HTML(http.StatusOK, "search.html", searchView{
		Title:   "Search",
		Book:    *book,
		Query:   query,
		Matches: matches,
	})
}

func (s *Server) handleExportPage(c *gin.Context) {
	book, err := s.ports.Library.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}

	c.HTML(http.StatusOK, "export.html", exportView{
		Title: "Export",
		Book:  *book,
		Layouts: []exportChoice{
			{Value: string(domain.LayoutStandard), Label: "Standard (A4)", Selected: s.defaults.Layout == domain.LayoutStandard},
			{Value: string(domain.LayoutMobile), Label: "Mobile (4.5in x 7in)", Selected: s.defaults.Layout == domain.LayoutMobile},
		},
		Qualities: []exportChoice{
			{Value: string(domain.QualityStandard), Label: "Standard", Selected: s.defaults.Quality == domain.QualityStandard},
			{Value: string(domain.QualityHigh), Label: "High", Selected: s.defaults.Quality == domain.QualityHigh},
			{Value: string(domain.QualityPrint), Label: "Print", Selected: s.defaults.Quality == domain.QualityPrint},
		},
	})
}

func (s *Server) handleExportDownload(c *gin.Context) {
	opts := s.defaults
	if v := c.Query("layout"); v != "" {
		opts.Layout = domain.Layout(v)
	}
	if v := c.Query("quality"); v != "" {
		opts.Quality = domain.Quality(v)
	}
	if err := opts.Validate(); err != nil {
		s.fail(c, err)
		return
	}

	// Render to a buffer so headers carry the filename and length, and
	// render errors never leave a half-written response.
	var buf bytes.Buffer
	name, err := s.ports.Export.PDFTo(c.Request.Context(), &buf, c.Param("id"), opts)
	if err != nil {
		s.fail(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	c.Data(http.StatusOK, "application/pdf", buf.Bytes())
}

// handleImage serves one extracted image from the library directory.
func (s *Server) handleImage(c *gin.Context) {
	name := c.Param("file")
	if name != filepath.Base(name) || name == "." || name == ".." {
		c.String(http.StatusNotFound, "not found")
		return
	}

	p := s.layout.ImagePath(c.Param("id"), name)
	if _, err := os.Stat(p); err != nil {
		c.String(http.StatusNotFound, "not found")
		return
	}

	// Extracted images never change between imports.
	c.Header("Cache-Control", "public, max-age=86400")
	c.File(p)
}

// fail renders a service error on a browser-facing route.
func (s *Server) fail(c *gin.Context, err error) {
	status := httpStatus(err)
	if status >= http.StatusInternalServerError {
		logger.Warn("%s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		c.String(status, "something went wrong")
		return
	}
	c.String(status, err.Error())
}

// flashError redirects with the message as a flash query parameter.
func flashError(c *gin.Context, target, msg string) {
	c.Redirect(http.StatusSeeOther, target+"?error="+url.QueryEscape(msg))
}

// uploadMessage turns an import error into a message fit for the
// library page.
func uploadMessage(err error) string {
	switch {
	case errors.Is(err, domain.ErrNotEPUB):
		return "That file does not look like an EPUB."
	case errors.Is(err, domain.ErrDRMProtected):
		return "This EPUB is DRM-protected and cannot be imported."
	case errors.Is(err, domain.ErrNoContent):
		return "No readable chapters were found in this EPUB."
	case errors.Is(err, domain.ErrTooLarge):
		return "That file exceeds the import size limit."
	case errors.Is(err, domain.ErrInvalidInput):
		return "Only .epub files can be imported."
	default:
		return "Import failed."
	}
}

// httpStatus maps domain errors onto response codes.
func httpStatus(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, domain.ErrInvalidInput),
		errors.Is(err, domain.ErrNotEPUB),
		errors.Is(err, domain.ErrDRMProtected),
		errors.Is(err, domain.ErrNoContent):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotImplemented):
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}
