package cli

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/quirelabs/quire/internal/adapters/driving/web"
	"github.com/quirelabs/quire/internal/logger"
	"github.com/quirelabs/quire/internal/watcher"
)

var (
	serveAddr string
	serveOpen bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the library web server",
	Long: `Serves the library over HTTP: the bookshelf, the chapter reader,
uploads, search and PDF downloads.

When inbox.dir is configured, EPUBs dropped there are imported in the
background while the server runs. Set server.token to require a token
for access.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVarP(&serveAddr, "addr", "a", "", "listen address (default from server.addr)")
	serveCmd.Flags().BoolVar(&serveOpen, "open", false, "open the library in the browser")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	addr := serveAddr
	if addr == "" {
		addr = settingsService.ServerAddr()
	}

	server, err := web.New(&web.Ports{
		Library: libraryService,
		Ingest:  ingestService,
		Reader:  readerService,
		Export:  exportService,
	}, web.Config{
		Addr:           addr,
		Token:          settingsService.ServerToken(),
		LibraryDir:     settingsService.LibraryDir(),
		MaxUploadBytes: settingsService.ImportMaxBytes(),
		ExportDefaults: settingsService.ExportDefaults(),
	})
	if err != nil {
		return fmt.Errorf("creating web server: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// The server is long-running, so the inbox watcher rides along
	// when one is configured.
	if inbox := settingsService.InboxDir(); inbox != "" {
		go func() {
			if err := watcher.New(ingestService, inbox).Run(ctx); err != nil {
				logger.Warn("Inbox watcher stopped: %v", err)
			}
		}()
	}

	if serveOpen {
		go openWhenBound(server)
	}

	return server.Run(ctx)
}

// openWhenBound waits for the server to bind and opens the library in
// the default browser.
func openWhenBound(server *web.Server) {
	for i := 0; i < 50; i++ {
		if addr := server.BoundAddr(); addr != "" {
			if err := web.OpenBrowser("http://" + addr); err != nil {
				logger.Warn("Could not open browser: %v", err)
			}
			return
		}
		time.Sleep(100 * time.Millisecond)
	}
}
