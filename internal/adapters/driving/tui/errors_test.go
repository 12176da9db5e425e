package tui

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrors_Messages(t *testing.T) {
	assert.Equal(t, "tui: library service is required", ErrMissingLibraryService.Error())
	assert.Equal(t, "tui: reader service is required", ErrMissingReaderService.Error())
}

func TestErrors_Distinct(t *testing.T) {
	assert.NotErrorIs(t, ErrMissingLibraryService, ErrMissingReaderService)
}
