package reading

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quirelabs/quire/internal/adapters/driving/tui/messages"
	"github.com/quirelabs/quire/internal/adapters/driving/tui/styles"
	"github.com/quirelabs/quire/internal/core/domain"
	"github.com/quirelabs/quire/internal/core/ports/driving"
)

// MockReaderService implements driving.ReaderService for testing.
type MockReaderService struct {
	OpenFunc           func(ctx context.Context, bookID string) (int, error)
	ChapterFunc        func(ctx context.Context, bookID string, index int) (*driving.ChapterPage, error)
	UpdateProgressFunc func(ctx context.Context, bookID string, chapter int, position float64) error
	ProgressFunc       func(ctx context.Context, bookID string) (domain.Progress, error)
	SearchFunc         func(ctx context.Context, bookID string, query string) ([]domain.SearchMatch, error)
}

func (m *MockReaderService) Open(ctx context.Context, bookID string) (int, error) {
	if m.OpenFunc != nil {
		return m.OpenFunc(ctx, bookID)
	}
	return 1, nil
}

func (m *MockReaderService) Chapter(ctx context.Context, bookID string, index int) (*driving.ChapterPage, error) {
	if m.ChapterFunc != nil {
		return m.ChapterFunc(ctx, bookID, index)
	}
	return makePage(index, 12, "The sea was calm.", 0), nil
}

func (m *MockReaderService) UpdateProgress(ctx context.Context, bookID string, chapter int, position float64) error {
	if m.UpdateProgressFunc != nil {
		return m.UpdateProgressFunc(ctx, bookID, chapter, position)
	}
	return nil
}

func (m *MockReaderService) Progress(ctx context.Context, bookID string) (domain.Progress, error) {
	if m.ProgressFunc != nil {
		return m.ProgressFunc(ctx, bookID)
	}
	return domain.Progress{BookID: bookID}, nil
}

func (m *MockReaderService) Search(ctx context.Context, bookID, query string) ([]domain.SearchMatch, error) {
	if m.SearchFunc != nil {
		return m.SearchFunc(ctx, bookID, query)
	}
	return nil, nil
}

func makePage(index, total int, text string, position float64) *driving.ChapterPage {
	return &driving.ChapterPage{
		Book:     domain.Book{ID: "book-1", Title: "The Voyage Out", ChapterCount: total},
		Chapter:  domain.Chapter{BookID: "book-1", Index: index, Title: fmt.Sprintf("Chapter %d", index), Text: text},
		HasPrev:  index > 1,
		HasNext:  index < total,
		Total:    total,
		Position: position,
	}
}

// longText yields 30 one-line paragraphs, 59 wrapped lines.
func longText() string {
	return strings.TrimSuffix(strings.Repeat("alpha\n\n", 30), "\n\n")
}

func keyRune(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

// loadedView returns a 80x16 view (ten text lines) with the page applied.
func loadedView(t *testing.T, page *driving.ChapterPage) *View {
	t.Helper()
	view := NewView(styles.DefaultStyles(), &MockReaderService{})
	view.SetDimensions(80, 16)
	view.Update(messages.ChapterLoaded{Page: page})
	return view
}

func TestNewView(t *testing.T) {
	view := NewView(styles.DefaultStyles(), &MockReaderService{})

	require.NotNil(t, view)
	assert.Nil(t, view.Page())
	assert.False(t, view.ready)
}

func TestView_Init(t *testing.T) {
	view := NewView(styles.DefaultStyles(), &MockReaderService{})

	assert.Nil(t, view.Init())
}

func TestView_SetChapter(t *testing.T) {
	requested := 0
	mock := &MockReaderService{
		ChapterFunc: func(ctx context.Context, bookID string, index int) (*driving.ChapterPage, error) {
			requested = index
			return makePage(index, 12, "The sea was calm.", 0), nil
		},
	}
	view := NewView(styles.DefaultStyles(), mock)
	view.scrollOffset = 5

	cmd := view.SetChapter("book-1", 3)

	require.NotNil(t, cmd)
	assert.True(t, view.loading)
	assert.Equal(t, 0, view.ScrollOffset())

	loaded, ok := cmd().(messages.ChapterLoaded)
	require.True(t, ok)
	require.NoError(t, loaded.Err)
	assert.Equal(t, 3, requested)
	assert.Equal(t, 3, loaded.Page.Chapter.Index)
}

func TestView_Update_ChapterLoaded(t *testing.T) {
	view := loadedView(t, makePage(3, 12, "The sea was calm.", 0))

	require.NotNil(t, view.Page())
	assert.False(t, view.loading)
	assert.Equal(t, []string{"The sea was calm."}, view.lines)
	assert.Equal(t, 0, view.ScrollOffset())
}

func TestView_Update_ChapterLoaded_RestoresPosition(t *testing.T) {
	// 59 lines, 10 visible: offsets run 0 to 49.
	view := loadedView(t, makePage(3, 12, longText(), 1.0))

	assert.Equal(t, 49, view.ScrollOffset())
}

func TestView_Update_ChapterLoaded_Error(t *testing.T) {
	view := NewView(styles.DefaultStyles(), &MockReaderService{})
	view.SetDimensions(80, 16)

	view.Update(messages.ChapterLoaded{Err: errors.New("chapter missing")})

	assert.Error(t, view.Err())
	assert.Contains(t, view.View(), "chapter missing")
}

func TestView_Scroll(t *testing.T) {
	view := loadedView(t, makePage(3, 12, longText(), 0))

	view.Update(keyRune('j'))
	assert.Equal(t, 1, view.ScrollOffset())

	view.Update(keyRune('k'))
	assert.Equal(t, 0, view.ScrollOffset())

	// Top of the chapter, up does nothing.
	view.Update(keyRune('k'))
	assert.Equal(t, 0, view.ScrollOffset())

	view.Update(keyRune('G'))
	assert.Equal(t, 49, view.ScrollOffset())

	// Bottom of the chapter, down does nothing.
	view.Update(keyRune('j'))
	assert.Equal(t, 49, view.ScrollOffset())

	view.Update(keyRune('g'))
	assert.Equal(t, 0, view.ScrollOffset())

	view.Update(keyRune('f'))
	assert.Equal(t, 10, view.ScrollOffset())

	view.Update(keyRune('b'))
	assert.Equal(t, 0, view.ScrollOffset())
}

func TestView_Position(t *testing.T) {
	view := loadedView(t, makePage(3, 12, longText(), 0))

	assert.InDelta(t, 0.0, view.position(), 0.001)

	view.Update(keyRune('G'))
	assert.InDelta(t, 1.0, view.position(), 0.001)
}

func TestView_Position_ContentFits(t *testing.T) {
	view := loadedView(t, makePage(3, 12, "The sea was calm.", 0))

	assert.InDelta(t, 0.0, view.position(), 0.001)
}

func TestView_SaveProgress(t *testing.T) {
	var gotBook string
	var gotChapter int
	var gotPosition float64
	mock := &MockReaderService{
		UpdateProgressFunc: func(ctx context.Context, bookID string, chapter int, position float64) error {
			gotBook = bookID
			gotChapter = chapter
			gotPosition = position
			return nil
		},
	}
	view := NewView(styles.DefaultStyles(), mock)
	view.SetDimensions(80, 16)
	view.Update(messages.ChapterLoaded{Page: makePage(3, 12, longText(), 0)})
	view.Update(keyRune('G'))

	cmd := view.saveProgress()
	require.NotNil(t, cmd)
	msg := cmd()

	saved, ok := msg.(messages.ProgressSaved)
	require.True(t, ok)
	assert.NoError(t, saved.Err)
	assert.Equal(t, "book-1", gotBook)
	assert.Equal(t, 3, gotChapter)
	assert.InDelta(t, 1.0, gotPosition, 0.001)
}

func TestView_SaveProgress_NoPage(t *testing.T) {
	view := NewView(styles.DefaultStyles(), &MockReaderService{})

	assert.Nil(t, view.saveProgress())
}

func TestView_NextChapter(t *testing.T) {
	view := loadedView(t, makePage(3, 12, longText(), 0))

	_, cmd := view.Update(keyRune(']'))

	assert.NotNil(t, cmd)
	assert.True(t, view.loading)
}

func TestView_NextChapter_AtEnd(t *testing.T) {
	view := loadedView(t, makePage(12, 12, longText(), 0))

	_, cmd := view.Update(keyRune(']'))

	assert.Nil(t, cmd)
	assert.False(t, view.loading)
}

func TestView_PrevChapter(t *testing.T) {
	view := loadedView(t, makePage(3, 12, longText(), 0))

	_, cmd := view.Update(keyRune('h'))

	assert.NotNil(t, cmd)
	assert.True(t, view.loading)
}

func TestView_PrevChapter_AtStart(t *testing.T) {
	view := loadedView(t, makePage(1, 12, longText(), 0))

	_, cmd := view.Update(keyRune('['))

	assert.Nil(t, cmd)
}

func TestView_Back_WithPage(t *testing.T) {
	view := loadedView(t, makePage(3, 12, longText(), 0))

	_, cmd := view.Update(tea.KeyMsg{Type: tea.KeyEsc})

	// Save and navigation run as a sequence.
	assert.NotNil(t, cmd)
}

func TestView_Back_NoPage(t *testing.T) {
	view := NewView(styles.DefaultStyles(), &MockReaderService{})
	view.SetDimensions(80, 16)

	_, cmd := view.Update(tea.KeyMsg{Type: tea.KeyEsc})

	require.NotNil(t, cmd)
	changed, ok := cmd().(messages.ViewChanged)
	require.True(t, ok)
	assert.Equal(t, messages.ViewChapters, changed.View)
}

func TestView_Quit_NoPage(t *testing.T) {
	view := NewView(styles.DefaultStyles(), &MockReaderService{})
	view.SetDimensions(80, 16)

	_, cmd := view.Update(keyRune('q'))

	require.NotNil(t, cmd)
	assert.IsType(t, messages.Quit{}, cmd())
}

func TestView_View_NotReady(t *testing.T) {
	view := NewView(styles.DefaultStyles(), &MockReaderService{})

	assert.Equal(t, "Loading...", view.View())
}

func TestView_View_Loading(t *testing.T) {
	view := NewView(styles.DefaultStyles(), &MockReaderService{})
	view.SetDimensions(80, 16)
	view.SetChapter("book-1", 1)

	assert.Contains(t, view.View(), "Loading chapter...")
}

func TestView_View_RendersChapter(t *testing.T) {
	view := loadedView(t, makePage(3, 12, "The sea was calm.", 0))

	output := view.View()

	assert.Contains(t, output, "Chapter 3")
	assert.Contains(t, output, "The Voyage Out")
	assert.Contains(t, output, "chapter 3 of 12")
	assert.Contains(t, output, "The sea was calm.")
}

func TestView_View_EmptyChapter(t *testing.T) {
	view := loadedView(t, makePage(3, 12, "", 0))

	assert.Contains(t, view.View(), "(empty chapter)")
}

func TestView_SetDimensions_KeepsRelativePosition(t *testing.T) {
	view := loadedView(t, makePage(3, 12, longText(), 0))
	view.Update(keyRune('G'))
	require.InDelta(t, 1.0, view.position(), 0.001)

	view.SetDimensions(40, 12)

	assert.InDelta(t, 1.0, view.position(), 0.001)
}

func TestWrapText(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		width    int
		expected []string
	}{
		{
			name:     "empty",
			text:     "",
			width:    10,
			expected: nil,
		},
		{
			name:     "single short paragraph",
			text:     "one two three",
			width:    80,
			expected: []string{"one two three"},
		},
		{
			name:     "wraps at word boundary",
			text:     "aaa bbb ccc",
			width:    7,
			expected: []string{"aaa bbb", "ccc"},
		},
		{
			name:     "blank line between paragraphs",
			text:     "para one\n\npara two",
			width:    80,
			expected: []string{"para one", "", "para two"},
		},
		{
			name:     "hard splits oversized words",
			text:     "abcdefghij",
			width:    4,
			expected: []string{"abcd", "efgh", "ij"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, wrapText(tt.text, tt.width))
		})
	}
}
