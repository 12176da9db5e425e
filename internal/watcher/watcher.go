// Package watcher imports EPUBs dropped into an inbox directory.
//
// Files are picked up on Create/Write events, imported once their size
// has been stable for a settle interval, then moved to done/ on
// success or failed/ on error, the latter with a .err sidecar note.
package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/quirelabs/quire/internal/core/ports/driving"
	"github.com/quirelabs/quire/internal/logger"
)

const (
	// defaultSettle is how long a file's size must hold before import.
	defaultSettle = 2 * time.Second

	// doneDir and failedDir are created under the inbox.
	doneDir   = "done"
	failedDir = "failed"
)

// Watcher watches one inbox directory and feeds the ingest service.
type Watcher struct {
	ingest driving.IngestService
	dir    string

	// settle and poll govern the size-stability check. Shortened in
	// tests.
	settle time.Duration
	poll   time.Duration
}

// New creates a watcher over dir.
func New(ingest driving.IngestService, dir string) *Watcher {
	return &Watcher{
		ingest: ingest,
		dir:    dir,
		settle: defaultSettle,
		poll:   500 * time.Millisecond,
	}
}

// pendingFile tracks a candidate between events and import.
type pendingFile struct {
	size    int64
	changed time.Time
}

// Run watches until the context is cancelled. Files already in the
// inbox at startup are imported too.
func (w *Watcher) Run(ctx context.Context) error {
	if w.dir == "" {
		return fmt.Errorf("watcher: no inbox directory configured")
	}
	for _, dir := range []string{w.dir, filepath.Join(w.dir, doneDir), filepath.Join(w.dir, failedDir)} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("watcher: creating %s: %w", dir, err)
		}
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watcher: %w", err)
	}
	defer fw.Close()
	if err := fw.Add(w.dir); err != nil {
		return fmt.Errorf("watcher: watching %s: %w", w.dir, err)
	}
	logger.Info("Watching %s for EPUBs", w.dir)

	pending := make(map[string]pendingFile)
	w.sweep(pending)

	ticker := time.NewTicker(w.poll)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if event.Op.Has(fsnotify.Remove) || event.Op.Has(fsnotify.Rename) {
				delete(pending, event.Name)
				continue
			}
			if !trackable(event.Name, event.Op) {
				continue
			}
			logger.Debug("Inbox event: %s %s", event.Op, filepath.Base(event.Name))
			pending[event.Name] = pendingFile{size: -1, changed: time.Now()}

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Watch error: %v", err)

		case now := <-ticker.C:
			for path, p := range pending {
				info, err := os.Stat(path)
				if err != nil {
					delete(pending, path)
					continue
				}
				if info.Size() != p.size {
					pending[path] = pendingFile{size: info.Size(), changed: now}
					continue
				}
				if now.Sub(p.changed) < w.settle {
					continue
				}
				delete(pending, path)
				w.finish(ctx, path)
			}
		}
	}
}

// sweep queues EPUBs already sitting in the inbox.
func (w *Watcher) sweep(pending map[string]pendingFile) {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		logger.Warn("Inbox scan failed: %v", err)
		return
	}
	for _, entry := range entries {
		path := filepath.Join(w.dir, entry.Name())
		if entry.IsDir() || !trackable(path, fsnotify.Create) {
			continue
		}
		pending[path] = pendingFile{size: -1, changed: time.Now()}
	}
}

// finish imports one settled file and files it under done/ or failed/.
func (w *Watcher) finish(ctx context.Context, path string) {
	book, err := w.ingest.ImportFile(ctx, path)
	if err != nil {
		logger.Warn("Import %s failed: %v", filepath.Base(path), err)
		dest, moveErr := moveTo(path, filepath.Join(w.dir, failedDir))
		if moveErr != nil {
			logger.Warn("Moving %s to failed: %v", filepath.Base(path), moveErr)
			return
		}
		note := dest + ".err"
		//nolint:errcheck // The sidecar is advisory
		_ = os.WriteFile(note, []byte(err.Error()+"\n"), 0o644)
		return
	}

	logger.Info("Imported %q from inbox", book.Title)
	if _, err := moveTo(path, filepath.Join(w.dir, doneDir)); err != nil {
		logger.Warn("Moving %s to done: %v", filepath.Base(path), err)
	}
}

// trackable reports whether an event names an EPUB worth tracking.
// Directories, hidden files and non-EPUBs are ignored.
func trackable(path string, op fsnotify.Op) bool {
	if !op.Has(fsnotify.Create) && !op.Has(fsnotify.Write) {
		return false
	}
	if isHidden(path) {
		return false
	}
	if !strings.EqualFold(filepath.Ext(path), ".epub") {
		return false
	}
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.Mode().IsRegular()
}

// isHidden reports whether the file's basename starts with a dot.
func isHidden(path string) bool {
	return strings.HasPrefix(filepath.Base(path), ".")
}

// moveTo renames path into dir, numbering the name on collision.
func moveTo(path, dir string) (string, error) {
	base := filepath.Base(path)
	dest := filepath.Join(dir, base)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	for n := 1; ; n++ {
		if _, err := os.Stat(dest); os.IsNotExist(err) {
			break
		}
		dest = filepath.Join(dir, fmt.Sprintf("%s-%d%s", stem, n, ext))
	}
	if err := os.Rename(path, dest); err != nil {
		return "", err
	}
	return dest, nil
}
