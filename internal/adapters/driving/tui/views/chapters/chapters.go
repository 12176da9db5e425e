// Package chapters implements the chapter outline view for one book.
package chapters

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/quirelabs/quire/internal/adapters/driving/tui/keymap"
	"github.com/quirelabs/quire/internal/adapters/driving/tui/messages"
	"github.com/quirelabs/quire/internal/adapters/driving/tui/styles"
	"github.com/quirelabs/quire/internal/core/domain"
	"github.com/quirelabs/quire/internal/core/ports/driving"
)

// View lists the chapters of the selected book in reading order and
// marks the chapter the reader is currently in.
type View struct {
	styles  *styles.Styles
	library driving.LibraryService
	keys    *keymap.KeyMap

	book         *domain.Book
	chapters     []domain.Chapter
	selected     int
	scrollOffset int
	loading      bool
	err          error

	width  int
	height int
	ready  bool
}

// NewView creates a chapters view.
func NewView(s *styles.Styles, library driving.LibraryService) *View {
	return &View{
		styles:  s,
		library: library,
		keys:    keymap.DefaultKeyMap(),
	}
}

// Init implements the view contract. Loading starts with SetBook.
func (v *View) Init() tea.Cmd {
	return nil
}

// SetBook switches the view to a book and starts loading its outline.
func (v *View) SetBook(book domain.Book) tea.Cmd {
	v.book = &book
	v.chapters = nil
	v.selected = 0
	v.scrollOffset = 0
	v.err = nil
	v.loading = true
	return v.loadChapters(book.ID)
}

// Reload re-fetches the current book and outline, refreshing the
// progress marker after a reading session.
func (v *View) Reload() tea.Cmd {
	if v.book == nil {
		return nil
	}
	v.loading = true
	return v.loadChapters(v.book.ID)
}

// loadChapters fetches the book and its outline.
func (v *View) loadChapters(bookID string) tea.Cmd {
	return func() tea.Msg {
		book, err := v.library.Get(context.Background(), bookID)
		if err != nil {
			return messages.ChaptersLoaded{Err: err}
		}
		chapters, err := v.library.Outline(context.Background(), bookID)
		if err != nil {
			return messages.ChaptersLoaded{Err: err}
		}
		return messages.ChaptersLoaded{Book: *book, Chapters: chapters}
	}
}

// Update handles messages for the chapters view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case messages.ChaptersLoaded:
		v.loading = false
		if msg.Err != nil {
			v.err = msg.Err
			return v, nil
		}
		v.err = nil
		book := msg.Book
		v.book = &book
		v.chapters = msg.Chapters
		// Put the cursor on the chapter being read.
		if book.Opened() && book.LastChapter <= len(v.chapters) {
			v.selected = book.LastChapter - 1
		}
		if v.selected >= len(v.chapters) {
			v.selected = maxInt(0, len(v.chapters)-1)
		}
		v.adjustScroll()
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)
	}

	return v, nil
}

// handleKeyMsg handles keyboard input.
func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	key := msg.String()

	switch {
	case keymap.Matches(key, v.keys.Up):
		if v.selected > 0 {
			v.selected--
			v.adjustScroll()
		}

	case keymap.Matches(key, v.keys.Down):
		if v.selected < len(v.chapters)-1 {
			v.selected++
			v.adjustScroll()
		}

	case keymap.Matches(key, v.keys.Select):
		if v.selected >= 0 && v.selected < len(v.chapters) {
			index := v.chapters[v.selected].Index
			return v, func() tea.Msg {
				return messages.ChapterSelected{Index: index}
			}
		}

	case keymap.Matches(key, v.keys.Reload):
		return v, v.Reload()

	case keymap.Matches(key, v.keys.Back):
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewShelf}
		}

	case keymap.Matches(key, v.keys.Quit):
		return v, func() tea.Msg {
			return messages.Quit{}
		}
	}

	return v, nil
}

// View renders the chapter outline.
func (v *View) View() string {
	if !v.ready {
		return "Loading..."
	}

	var b strings.Builder

	title := "(no book)"
	author := ""
	if v.book != nil {
		title = v.book.Title
		author = v.book.Author
	}
	b.WriteString(v.styles.Title.Render(title))
	b.WriteString("\n")
	b.WriteString(v.styles.Muted.Render(fmt.Sprintf("%s · %d chapters", author, len(v.chapters))))
	b.WriteString("\n\n")

	switch {
	case v.loading:
		b.WriteString(v.styles.Muted.Render("Loading chapters..."))
		b.WriteString("\n")

	case v.err != nil:
		b.WriteString(v.styles.Error.Render("Error: " + v.err.Error()))
		b.WriteString("\n")

	case len(v.chapters) == 0:
		b.WriteString(v.styles.Muted.Render("No chapters."))
		b.WriteString("\n")

	default:
		visible := v.visibleChapterCount()
		end := minInt(v.scrollOffset+visible, len(v.chapters))

		if v.scrollOffset > 0 {
			b.WriteString(v.styles.Muted.Render("  ↑ more above"))
			b.WriteString("\n")
		}
		for i := v.scrollOffset; i < end; i++ {
			b.WriteString(v.renderChapter(i))
			b.WriteString("\n")
		}
		if end < len(v.chapters) {
			b.WriteString(v.styles.Muted.Render("  ↓ more below"))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(v.renderHelp())

	return b.String()
}

// renderChapter renders a single outline row.
func (v *View) renderChapter(index int) string {
	ch := v.chapters[index]

	cursor := "  "
	style := v.styles.Normal
	if index == v.selected {
		cursor = "> "
		style = v.styles.Selected
	}

	title := ch.Title
	if title == "" {
		title = fmt.Sprintf("Chapter %d", ch.Index)
	}
	maxTitle := v.width - 20
	if maxTitle < 20 {
		maxTitle = 20
	}
	title = truncate(title, maxTitle)

	line := style.Render(fmt.Sprintf("%s%3d. %s", cursor, ch.Index, title))
	if v.book != nil && v.book.Opened() && ch.Index == v.book.LastChapter {
		line += v.styles.Success.Render("  (reading)")
	}
	return line
}

// renderHelp renders the key hints.
func (v *View) renderHelp() string {
	return v.styles.Help.Render("[↑/↓] navigate  [enter] read  [esc] library  [q] quit")
}

// visibleChapterCount returns how many rows fit in the current height.
func (v *View) visibleChapterCount() int {
	reserved := 7
	count := v.height - reserved
	if count < 1 {
		count = 1
	}
	return count
}

// adjustScroll keeps the selection inside the visible window.
func (v *View) adjustScroll() {
	visible := v.visibleChapterCount()
	if v.selected < v.scrollOffset {
		v.scrollOffset = v.selected
	}
	if v.selected >= v.scrollOffset+visible {
		v.scrollOffset = v.selected - visible + 1
	}
}

// SetDimensions sets the terminal dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
}

// Book returns the book whose outline is shown.
func (v *View) Book() *domain.Book {
	return v.book
}

// Chapters returns the loaded outline.
func (v *View) Chapters() []domain.Chapter {
	return v.chapters
}

// SelectedIndex returns the cursor position.
func (v *View) SelectedIndex() int {
	return v.selected
}

// Err returns the last load error.
func (v *View) Err() error {
	return v.err
}

// truncate shortens s to max runes, ellipsised.
func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	if max <= 3 {
		return string(r[:max])
	}
	return string(r[:max-3]) + "..."
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
