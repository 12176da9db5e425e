// Package cli implements the quire command line interface. Commands
// talk to the core services through package-level vars wired from the
// configuration in the root command's PersistentPreRunE; tests inject
// their own services instead.
package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/quirelabs/quire/internal/adapters/driven/config/file"
	"github.com/quirelabs/quire/internal/adapters/driven/fetch"
	"github.com/quirelabs/quire/internal/adapters/driven/pdf"
	"github.com/quirelabs/quire/internal/adapters/driven/storage/sqlite"
	"github.com/quirelabs/quire/internal/core/ports/driving"
	"github.com/quirelabs/quire/internal/core/services"
	"github.com/quirelabs/quire/internal/library"
	"github.com/quirelabs/quire/internal/logger"
)

// version is set at build time via ldflags.
var version = "dev"

// Services used by the commands. Wired in initServices, or set
// directly by tests before Execute.
var (
	settingsService driving.SettingsService
	ingestService   driving.IngestService
	libraryService  driving.LibraryService
	readerService   driving.ReaderService
	exportService   driving.ExportService
)

// store is the open database, closed by Execute on the way out.
var store *sqlite.Store

// Persistent flags.
var (
	verboseFlag bool
	configFlag  string
	dataDirFlag string
)

var rootCmd = &cobra.Command{
	Use:   "quire",
	Short: "Personal EPUB library and reader",
	Long: `Quire keeps a personal library of EPUB books. Import books from
files, folders or URLs, read them in the browser or the terminal with
your position remembered, and export them to PDF for print or small
screens.`,
	SilenceUsage: true,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		logger.SetVerbose(verboseFlag)
		return initServices()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&configFlag, "config", "", "config file or directory (default ~/.quire)")
	rootCmd.PersistentFlags().StringVar(&dataDirFlag, "data-dir", "", "data directory for the database and library")
}

// Execute runs the root command and exits non-zero on error.
func Execute() {
	err := rootCmd.Execute()
	if store != nil {
		//nolint:errcheck // Nothing useful to do with a close error on exit
		_ = store.Close()
	}
	if err != nil {
		os.Exit(1)
	}
}

// initServices builds the service graph from configuration. It is a
// no-op once any service is wired, so tests can inject their own.
func initServices() error {
	if settingsService != nil || ingestService != nil || libraryService != nil ||
		readerService != nil || exportService != nil {
		return nil
	}

	config, err := file.NewConfigStore(configDir())
	if err != nil {
		return fmt.Errorf("opening config: %w", err)
	}

	settings := services.NewSettings(config)
	if dataDirFlag != "" {
		settings.OverrideDataDir(dataDirFlag)
	}
	settingsService = settings

	store, err = sqlite.NewStore(settings.DataDir())
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}

	layout := library.NewLayout(settings.LibraryDir())
	maxBytes := settings.ImportMaxBytes()

	ingest := services.NewIngestService(store.Books(), store.Chapters(), layout, maxBytes)
	ingest.SetFetcher(fetch.NewClient(maxBytes))
	ingestService = ingest

	libraryService = services.NewLibraryService(store.Books(), store.Chapters(), layout)
	readerService = services.NewReaderService(store.Books(), store.Chapters())
	exportService = services.NewExportService(store.Books(), store.Chapters(), pdf.NewRenderer(), layout)

	return nil
}

// configDir resolves the configuration directory from the --config
// flag or the QUIRE_CONFIG environment variable. Both accept either
// the directory or the config.toml path inside it; empty falls through
// to the store's ~/.quire default.
func configDir() string {
	dir := configFlag
	if dir == "" {
		dir = os.Getenv("QUIRE_CONFIG")
	}
	if strings.HasSuffix(dir, ".toml") {
		return filepath.Dir(dir)
	}
	return dir
}
