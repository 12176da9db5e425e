package driving

import "github.com/quirelabs/quire/internal/core/domain"

// SettingsService reads and writes application configuration with
// defaults applied.
type SettingsService interface {
	// DataDir returns the directory holding the database and, by
	// default, the library.
	DataDir() string

	// LibraryDir returns the library root (assets, sources, exports).
	LibraryDir() string

	// InboxDir returns the watched import directory, empty when the
	// watcher is disabled.
	InboxDir() string

	// ServerAddr returns the web server listen address.
	ServerAddr() string

	// ServerToken returns the web access token, empty when auth is off.
	ServerToken() string

	// ImportMaxBytes returns the import size limit in bytes.
	ImportMaxBytes() int64

	// ExportDefaults returns the configured default PDF options.
	ExportDefaults() domain.ExportOptions

	// All returns every known setting with its effective value,
	// in display order.
	All() []Setting

	// Set validates and persists one setting by key.
	// Unknown keys return ErrInvalidInput.
	Set(key, value string) error

	// SetToken persists the web access token.
	SetToken(token string) error
}

// Setting is one configuration entry for display.
type Setting struct {
	// Key is the dotted configuration key.
	Key string

	// Value is the effective value, defaults applied.
	Value string
}
