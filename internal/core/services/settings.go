package services

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/quirelabs/quire/internal/core/domain"
	"github.com/quirelabs/quire/internal/core/ports/driven"
	"github.com/quirelabs/quire/internal/core/ports/driving"
)

// Ensure Settings implements the interface.
var _ driving.SettingsService = (*Settings)(nil)

// Config keys for settings storage.
const (
	keyDataDir     = "data.dir"
	keyLibraryDir  = "library.dir"
	keyInboxDir    = "inbox.dir"
	keyServerAddr  = "server.addr"
	keyServerToken = "server.token"
	keyImportMaxMB = "import.max_mb"
	keyPDFLayout   = "pdf.layout"
	keyPDFQuality  = "pdf.quality"
)

// Defaults applied when a key is unset.
const (
	defaultServerAddr  = "127.0.0.1:8080"
	defaultImportMaxMB = 50
)

// Settings is the typed view over the configuration store.
type Settings struct {
	config driven.ConfigStore

	// dataDirOverride carries the --data-dir flag and wins over the
	// configured value.
	dataDirOverride string
}

// NewSettings creates a settings service backed by the given store.
func NewSettings(config driven.ConfigStore) *Settings {
	return &Settings{config: config}
}

// OverrideDataDir forces the data directory for this run without
// persisting anything.
func (s *Settings) OverrideDataDir(dir string) {
	s.dataDirOverride = dir
}

// DataDir returns the directory holding the database and, by default,
// the library. Defaults to ~/.quire.
func (s *Settings) DataDir() string {
	if s.dataDirOverride != "" {
		return s.dataDirOverride
	}
	if dir := s.config.GetString(keyDataDir); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".quire"
	}
	return filepath.Join(home, ".quire")
}

// LibraryDir returns the library root. Defaults to <data.dir>/library.
func (s *Settings) LibraryDir() string {
	if dir := s.config.GetString(keyLibraryDir); dir != "" {
		return dir
	}
	return filepath.Join(s.DataDir(), "library")
}

// InboxDir returns the watched import directory, empty when disabled.
func (s *Settings) InboxDir() string {
	return s.config.GetString(keyInboxDir)
}

// ServerAddr returns the web server listen address.
func (s *Settings) ServerAddr() string {
	if addr := s.config.GetString(keyServerAddr); addr != "" {
		return addr
	}
	return defaultServerAddr
}

// ServerToken returns the web access token, empty when auth is off.
func (s *Settings) ServerToken() string {
	return s.config.GetString(keyServerToken)
}

// ImportMaxBytes returns the import size limit in bytes.
func (s *Settings) ImportMaxBytes() int64 {
	return int64(s.importMaxMB()) << 20
}

// ExportDefaults returns the configured default PDF options. Values
// that do not name a known layout or quality fall back to standard.
func (s *Settings) ExportDefaults() domain.ExportOptions {
	opts := domain.DefaultExportOptions()
	if v := s.config.GetString(keyPDFLayout); v != "" {
		if l := domain.Layout(v); l.Validate() == nil {
			opts.Layout = l
		}
	}
	if v := s.config.GetString(keyPDFQuality); v != "" {
		if q := domain.Quality(v); q.Validate() == nil {
			opts.Quality = q
		}
	}
	return opts
}

// All returns every known setting with its effective value. The token
// is masked.
func (s *Settings) All() []driving.Setting {
	opts := s.ExportDefaults()
	return []driving.Setting{
		{Key: keyDataDir, Value: s.DataDir()},
		{Key: keyLibraryDir, Value: s.LibraryDir()},
		{Key: keyInboxDir, Value: s.InboxDir()},
		{Key: keyServerAddr, Value: s.ServerAddr()},
		{Key: keyServerToken, Value: maskToken(s.ServerToken())},
		{Key: keyImportMaxMB, Value: strconv.Itoa(s.importMaxMB())},
		{Key: keyPDFLayout, Value: string(opts.Layout)},
		{Key: keyPDFQuality, Value: string(opts.Quality)},
	}
}

// Set validates and persists one setting by key.
func (s *Settings) Set(key, value string) error {
	switch key {
	case keyDataDir, keyLibraryDir, keyInboxDir, keyServerAddr, keyServerToken:
		return s.config.Set(key, value)

	case keyImportMaxMB:
		mb, err := strconv.Atoi(value)
		if err != nil || mb <= 0 {
			return fmt.Errorf("%s must be a positive integer: %w", key, domain.ErrInvalidInput)
		}
		return s.config.Set(key, mb)

	case keyPDFLayout:
		if err := domain.Layout(value).Validate(); err != nil {
			return err
		}
		return s.config.Set(key, value)

	case keyPDFQuality:
		if err := domain.Quality(value).Validate(); err != nil {
			return err
		}
		return s.config.Set(key, value)
	}
	return fmt.Errorf("unknown setting %q: %w", key, domain.ErrInvalidInput)
}

// SetToken persists the web access token.
func (s *Settings) SetToken(token string) error {
	return s.config.Set(keyServerToken, token)
}

func (s *Settings) importMaxMB() int {
	if mb := s.config.GetInt(keyImportMaxMB); mb > 0 {
		return mb
	}
	return defaultImportMaxMB
}

func maskToken(token string) string {
	if token == "" {
		return ""
	}
	return "********"
}
