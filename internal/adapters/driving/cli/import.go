package cli

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/quirelabs/quire/internal/watcher"
)

var importWatch bool

var importCmd = &cobra.Command{
	Use:   "import [path|url]...",
	Short: "Import EPUB books into the library",
	Long: `Imports EPUB books. Arguments may be files, directories (searched
recursively for .epub files) or http(s) URLs.

With --watch, quire keeps running and imports EPUBs dropped into the
inbox directory (inbox.dir, or the first directory argument when the
setting is empty). Watched directories are not bulk-imported up front;
the watcher picks their files up itself and moves them to done/ or
failed/ as it goes.`,
	RunE: runImport,
}

func init() {
	importCmd.Flags().BoolVarP(&importWatch, "watch", "w", false, "keep running and import from the inbox directory")
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}
	if len(args) == 0 && !importWatch {
		return errors.New("nothing to import: pass files, directories or URLs, or use --watch")
	}

	ctx := context.Background()
	var imported, failed int

	for _, arg := range args {
		switch {
		case strings.HasPrefix(arg, "http://"), strings.HasPrefix(arg, "https://"):
			if importURL(ctx, cmd, arg) {
				imported++
			} else {
				failed++
			}

		default:
			info, err := os.Stat(arg)
			if err != nil {
				cmd.Printf("Failed %s: %v\n", arg, err)
				failed++
				continue
			}
			if info.IsDir() {
				if importWatch {
					// The watcher sweeps this directory itself.
					continue
				}
				n, f := importDir(ctx, cmd, arg)
				imported += n
				failed += f
				continue
			}
			if importFile(ctx, cmd, arg) {
				imported++
			} else {
				failed++
			}
		}
	}

	if imported > 0 || failed > 0 {
		cmd.Printf("Imported %d book(s)", imported)
		if failed > 0 {
			cmd.Printf(", %d failed", failed)
		}
		cmd.Println(".")
	}

	if importWatch {
		return watchInbox(cmd, args)
	}
	if failed > 0 {
		return fmt.Errorf("%d import(s) failed", failed)
	}
	return nil
}

func importFile(ctx context.Context, cmd *cobra.Command, path string) bool {
	book, err := ingestService.ImportFile(ctx, path)
	if err != nil {
		cmd.Printf("Failed %s: %v\n", path, err)
		return false
	}
	cmd.Printf("Imported %q (%s)\n", book.Title, shortID(book.ID))
	return true
}

func importURL(ctx context.Context, cmd *cobra.Command, url string) bool {
	cmd.Printf("Downloading %s...\n", url)
	book, err := ingestService.ImportURL(ctx, url)
	if err != nil {
		cmd.Printf("Failed %s: %v\n", url, err)
		return false
	}
	cmd.Printf("Imported %q (%s)\n", book.Title, shortID(book.ID))
	return true
}

// importDir imports every .epub under dir, recursively. Hidden files
// and directories are skipped.
func importDir(ctx context.Context, cmd *cobra.Command, dir string) (imported, failed int) {
	//nolint:errcheck // Per-file failures are counted, not fatal
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			cmd.Printf("Failed %s: %v\n", path, err)
			failed++
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") && path != dir {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(path), ".epub") {
			return nil
		}
		if importFile(ctx, cmd, path) {
			imported++
		} else {
			failed++
		}
		return nil
	})
	return imported, failed
}

// watchInbox blocks importing EPUBs dropped into the inbox directory
// until interrupted.
func watchInbox(cmd *cobra.Command, args []string) error {
	var dir string
	if settingsService != nil {
		dir = settingsService.InboxDir()
	}
	if dir == "" {
		for _, arg := range args {
			if info, err := os.Stat(arg); err == nil && info.IsDir() {
				dir = arg
				break
			}
		}
	}
	if dir == "" {
		return errors.New("no inbox directory: set inbox.dir or pass a directory")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd.Printf("Watching %s for EPUBs. Press Ctrl+C to stop.\n", dir)
	return watcher.New(ingestService, dir).Run(ctx)
}
