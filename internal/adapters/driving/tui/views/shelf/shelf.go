// Package shelf implements the book list view for the terminal reader.
package shelf

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

// View is the shelf: every book in the library, most recent first,
// with author, chapter count and reading progress.
type View struct {
	styles  *styles.Styles
	library driving.LibraryService
	keys    *keymap.KeyMap

	books        []domain.Book
	selected     int
	scrollOffset int
	loading      bool
	err          error

	width  int
	height int
	ready  bool
}

// NewView creates a shelf view.
func NewView(s *styles.Styles, library driving.LibraryService) *View {
	return &View{
		styles:  s,
		library: library,
		keys:    keymap.DefaultKeyMap(),
	}
}

// Init starts loading the library.
func (v *View) Init() tea.Cmd {
	v.loading = true
	return v.loadBooks()
}

// loadBooks fetches the library contents.
func (v *View) loadBooks() tea.Cmd {
	return func() tea.Msg {
		books, err := v.library.List(context.Background())
		return messages.BooksLoaded{Books: books, Err: err}
	}
}

// Update handles messages for the shelf view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case messages.BooksLoaded:
		v.loading = false
		if msg.Err != nil {
			v.err = msg.Err
			return v, nil
		}
		v.err = nil
		v.books = msg.Books
		if v.selected >= len(v.books) {
			v.selected = maxInt(0, len(v.books)-1)
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
		if v.selected < len(v.books)-1 {
			v.selected++
			v.adjustScroll()
		}

	case keymap.Matches(key, v.keys.Select):
		if v.selected >= 0 && v.selected < len(v.books) {
			book := v.books[v.selected]
			return v, func() tea.Msg {
				return messages.BookSelected{Book: book}
			}
		}

	case keymap.Matches(key, v.keys.Reload):
		v.loading = true
		return v, v.loadBooks()

	case keymap.Matches(key, v.keys.Quit), keymap.Matches(key, v.keys.Back):
		// The shelf is the top level, so back also quits.
		return v, func() tea.Msg {
			return messages.Quit{}
		}
	}

	return v, nil
}

// View renders the shelf.
func (v *View) View() string {
	if !v.ready {
		return "Loading..."
	}

	var b strings.Builder

	b.WriteString(v.styles.Title.Render("Library"))
	b.WriteString("\n")
	b.WriteString(v.styles.Muted.Render(fmt.Sprintf("%d book(s)", len(v.books))))
	b.WriteString("\n\n")

	switch {
	case v.loading:
		b.WriteString(v.styles.Muted.Render("Loading books..."))
		b.WriteString("\n")

	case v.err != nil:
		b.WriteString(v.styles.Error.Render("Error: " + v.err.Error()))
		b.WriteString("\n")

	case len(v.books) == 0:
		b.WriteString(v.styles.Muted.Render("The library is empty. Import a book with: quire import <file.epub>"))
		b.WriteString("\n")

	default:
		visible := v.visibleBookCount()
		end := minInt(v.scrollOffset+visible, len(v.books))

		if v.scrollOffset > 0 {
			b.WriteString(v.styles.Muted.Render("  ↑ more above"))
			b.WriteString("\n")
		}
		for i := v.scrollOffset; i < end; i++ {
			b.WriteString(v.renderBook(i))
			b.WriteString("\n")
		}
		if end < len(v.books) {
			b.WriteString(v.styles.Muted.Render("  ↓ more below"))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(v.renderHelp())

	return b.String()
}

// renderBook renders a single shelf row.
func (v *View) renderBook(index int) string {
	book := &v.books[index]

	cursor := "  "
	style := v.styles.Normal
	if index == v.selected {
		cursor = "> "
		style = v.styles.Selected
	}

	title := book.Title
	if title == "" {
		title = "(untitled)"
	}
	maxTitle := v.width - 40
	if maxTitle < 20 {
		maxTitle = 20
	}
	title = truncate(title, maxTitle)

	progress := "new"
	if book.Opened() {
		progress = fmt.Sprintf("%d%%", book.ProgressPercent())
	}
	meta := fmt.Sprintf("  %s · %d chapters · %s", book.Author, book.ChapterCount, progress)

	return style.Render(cursor+title) + v.styles.Muted.Render(meta)
}

// renderHelp renders the key hints.
func (v *View) renderHelp() string {
	return v.styles.Help.Render("[↑/↓] navigate  [enter] open  [r] refresh  [q] quit")
}

// visibleBookCount returns how many rows fit in the current height.
func (v *View) visibleBookCount() int {
	// Title, count, blank line, scroll hints and help eat rows.
	reserved := 7
	count := v.height - reserved
	if count < 1 {
		count = 1
	}
	return count
}

// adjustScroll keeps the selection inside the visible window.
func (v *View) adjustScroll() {
	visible := v.visibleBookCount()
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

// Books returns the loaded books.
func (v *View) Books() []domain.Book {
	return v.books
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
