package cli

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// resetProgressFlags clears flag values and their changed state so the
// next execution sees a fresh command line.
func resetProgressFlags() {
	progressChapter, progressPosition = 0, 0
	progressCmd.Flags().Lookup("chapter").Changed = false
	progressCmd.Flags().Lookup("position").Changed = false
}

func TestProgressCmd_Use(t *testing.T) {
	assert.Equal(t, "progress [book]", progressCmd.Use)
}

func TestProgressCmd_HasFlags(t *testing.T) {
	assert.NotNil(t, progressCmd.Flags().Lookup("chapter"))
	assert.NotNil(t, progressCmd.Flags().Lookup("position"))
}

func TestProgressCmd_ShowUnopened(t *testing.T) {
	store, cleanup := setupTestServices(t)
	defer cleanup()
	seedLibrary(t, store, "aaa111", "The Voyage Out", 3)

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"progress", "aaa111"})
	defer func() {
		rootCmd.SetArgs(nil)
		resetProgressFlags()
	}()

	err := rootCmd.Execute()

	assert.NoError(t, err)
	assert.Contains(t, buf.String(), `"The Voyage Out" has not been opened yet.`)
}

func TestProgressCmd_Show(t *testing.T) {
	store, cleanup := setupTestServices(t)
	defer cleanup()
	seedLibrary(t, store, "aaa111", "The Voyage Out", 3)
	require.NoError(t, readerService.UpdateProgress(context.Background(), "aaa111", 2, 0.5))

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"progress", "aaa111"})
	defer func() {
		rootCmd.SetArgs(nil)
		resetProgressFlags()
	}()

	err := rootCmd.Execute()

	assert.NoError(t, err)
	assert.Contains(t, buf.String(), "chapter 2 of 3, 50% through the chapter.")
}

func TestProgressCmd_Set(t *testing.T) {
	store, cleanup := setupTestServices(t)
	defer cleanup()
	seedLibrary(t, store, "aaa111", "The Voyage Out", 3)

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"progress", "aaa111", "--chapter", "2", "--position", "0.75"})
	defer func() {
		rootCmd.SetArgs(nil)
		resetProgressFlags()
	}()

	err := rootCmd.Execute()

	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Progress set: chapter 2 of 3.")

	progress, err := readerService.Progress(context.Background(), "aaa111")
	require.NoError(t, err)
	assert.Equal(t, 2, progress.Chapter)
	assert.InDelta(t, 0.75, progress.Position, 0.001)
}

func TestProgressCmd_SetPositionKeepsChapter(t *testing.T) {
	store, cleanup := setupTestServices(t)
	defer cleanup()
	seedLibrary(t, store, "aaa111", "The Voyage Out", 3)
	require.NoError(t, readerService.UpdateProgress(context.Background(), "aaa111", 2, 0.1))

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"progress", "aaa111", "--position", "0.9"})
	defer func() {
		rootCmd.SetArgs(nil)
		resetProgressFlags()
	}()

	err := rootCmd.Execute()

	require.NoError(t, err)

	progress, err := readerService.Progress(context.Background(), "aaa111")
	require.NoError(t, err)
	assert.Equal(t, 2, progress.Chapter)
	assert.InDelta(t, 0.9, progress.Position, 0.001)
}

func TestProgressCmd_SetOutOfRange(t *testing.T) {
	store, cleanup := setupTestServices(t)
	defer cleanup()
	seedLibrary(t, store, "aaa111", "The Voyage Out", 3)

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"progress", "aaa111", "--chapter", "9"})
	defer func() {
		rootCmd.SetArgs(nil)
		resetProgressFlags()
	}()

	err := rootCmd.Execute()

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "updating progress")
}
