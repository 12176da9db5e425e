// Package web serves the library and reader UI over HTTP.
// It is a thin gin layer over the driving ports: pages are rendered
// from embedded templates, extracted images are served from the
// library directory, and PDFs are streamed from the export service.
package web

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os/exec"
	"runtime"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/quirelabs/quire/internal/core/domain"
	"github.com/quirelabs/quire/internal/library"
	"github.com/quirelabs/quire/internal/logger"
)

const (
	// maxMultipartMemory bounds the in-memory part of upload parsing;
	// larger uploads spill to temporary files.
	maxMultipartMemory = 8 << 20

	// uploadSlack covers multipart framing overhead on top of the
	// configured import limit.
	uploadSlack = 1 << 20

	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 5 * time.Second
)

// Config carries the server settings.
type Config struct {
	// Addr is the listen address, e.g. "127.0.0.1:8080".
	Addr string

	// Token guards all routes except /healthz and /static when set.
	Token string

	// LibraryDir is the library root extracted images are served from.
	LibraryDir string

	// MaxUploadBytes is the upload size limit. Zero disables the limit.
	MaxUploadBytes int64

	// ExportDefaults seeds the PDF export form.
	ExportDefaults domain.ExportOptions
}

// Server is the HTTP server for the library and reader.
type Server struct {
	ports  *Ports
	engine *gin.Engine
	layout library.Layout

	addr      string
	token     string
	maxUpload int64
	defaults  domain.ExportOptions

	mu    sync.Mutex
	bound string
}

// New creates the server and registers its routes.
func New(ports *Ports, cfg Config) (*Server, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("validating ports: %w", err)
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(recovery(), requestLogger())
	engine.MaxMultipartMemory = maxMultipartMemory
	engine.SetHTMLTemplate(pages)

	defaults := cfg.ExportDefaults
	if defaults.Validate() != nil {
		defaults = domain.DefaultExportOptions()
	}

	s := &Server{
		ports:     ports,
		engine:    engine,
		layout:    library.NewLayout(cfg.LibraryDir),
		addr:      cfg.Addr,
		token:     cfg.Token,
		maxUpload: cfg.MaxUploadBytes,
		defaults:  defaults,
	}
	s.routes()
	return s, nil
}

func (s *Server) routes() {
	// Liveness and app assets stay reachable without a token.
	s.engine.GET("/healthz", s.handleHealthz)
	s.engine.StaticFS("/static", staticRoot())

	app := s.engine.Group("/", tokenAuth(s.token))
	app.GET("/", s.handleLibrary)
	app.POST("/upload", s.handleUpload)
	app.GET("/assets/books/:id/images/:file", s.handleImage)

	book := app.Group("/book/:id")
	book.GET("/", s.handleResume)
	book.GET("/chapter/:n/", s.handleChapter)
	book.POST("/progress/", s.handleProgressUpdate)
	book.GET("/progress/", s.handleProgress)
	book.POST("/delete/", s.handleDelete)
	book.GET("/search", s.handleSearch)
	book.GET("/pdf/", s.handleExportPage)
	book.GET("/pdf/download", s.handleExportDownload)
}

// Handler returns the server's HTTP handler, used by tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until the context is cancelled, then shuts down
// gracefully.
func (s *Server) Run(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.addr, err)
	}

	s.mu.Lock()
	s.bound = listener.Addr().String()
	s.mu.Unlock()
	logger.Info("Serving library on http://%s", s.bound)

	srv := &http.Server{
		Handler:           s.engine,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Serve(listener); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// BoundAddr returns the address the server is listening on, once Run
// has bound it. Useful when the configured address has port 0.
func (s *Server) BoundAddr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bound
}

// OpenBrowser opens the default browser at the given URL.
func OpenBrowser(url string) error {
	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "linux":
		cmd = exec.Command("xdg-open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		return fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}

	return cmd.Start()
}
