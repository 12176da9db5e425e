package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quirelabs/quire/internal/core/domain"
)

func resetExportFlags() {
	exportLayout, exportQuality, exportOut = "", "", ""
}

func TestExportCmd_Use(t *testing.T) {
	assert.Equal(t, "export [book]", exportCmd.Use)
}

func TestExportCmd_HasFlags(t *testing.T) {
	assert.NotNil(t, exportCmd.Flags().Lookup("layout"))
	assert.NotNil(t, exportCmd.Flags().Lookup("quality"))
	assert.NotNil(t, exportCmd.Flags().Lookup("out"))
}

func TestExportCmd_WritesFile(t *testing.T) {
	store, cleanup := setupTestServices(t)
	defer cleanup()
	seedLibrary(t, store, "aaa111", "The Voyage Out", 3)

	out := filepath.Join(t.TempDir(), "voyage.pdf")

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"export", "aaa111", "--out", out, "--layout", "mobile"})
	defer func() {
		rootCmd.SetArgs(nil)
		resetExportFlags()
	}()

	err := rootCmd.Execute()

	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Exported \"The Voyage Out\" to "+out)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF")), "output should be a PDF")
}

func TestExportCmd_DefaultsToExportsDir(t *testing.T) {
	store, cleanup := setupTestServices(t)
	defer cleanup()
	seedLibrary(t, store, "aaa111", "The Voyage Out", 2)

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"export", "aaa111"})
	defer func() {
		rootCmd.SetArgs(nil)
		resetExportFlags()
	}()

	err := rootCmd.Execute()

	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Exported \"The Voyage Out\" to ")
	assert.Contains(t, buf.String(), ".pdf")
}

func TestExportCmd_InvalidLayout(t *testing.T) {
	store, cleanup := setupTestServices(t)
	defer cleanup()
	seedLibrary(t, store, "aaa111", "The Voyage Out", 2)

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"export", "aaa111", "--layout", "poster"})
	defer func() {
		rootCmd.SetArgs(nil)
		resetExportFlags()
	}()

	err := rootCmd.Execute()

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestExportCmd_NotFound(t *testing.T) {
	_, cleanup := setupTestServices(t)
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"export", "zzz999"})
	defer func() {
		rootCmd.SetArgs(nil)
		resetExportFlags()
	}()

	err := rootCmd.Execute()

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "finding book")
}
