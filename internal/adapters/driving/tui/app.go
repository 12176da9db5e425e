package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/quirelabs/quire/internal/adapters/driving/tui/messages"
	"github.com/quirelabs/quire/internal/adapters/driving/tui/styles"
	"github.com/quirelabs/quire/internal/adapters/driving/tui/views/chapters"
	"github.com/quirelabs/quire/internal/adapters/driving/tui/views/reading"
	"github.com/quirelabs/quire/internal/adapters/driving/tui/views/shelf"
	"github.com/quirelabs/quire/internal/core/domain"
)

// App is the terminal reader, following the Elm architecture.
// It implements tea.Model for use with Bubbletea.
type App struct {
	// ports provides access to core services via driving ports.
	ports *Ports

	// ctx is the context for cancellation.
	ctx context.Context

	// styles holds the TUI styles.
	styles *styles.Styles

	// shelfView is the book list.
	shelfView *shelf.View

	// chaptersView is the chapter outline of the current book.
	chaptersView *chapters.View

	// readingView shows one chapter at a time.
	readingView *reading.View

	// currentBook tracks the selected book for navigation.
	currentBook *domain.Book

	// currentView tracks which view is active.
	currentView messages.ViewType

	// openAt is a book reference to open directly on startup,
	// skipping the shelf.
	openAt string

	// err holds the last error that occurred.
	err error

	// width and height are terminal dimensions.
	width  int
	height int

	// ready indicates if the app has initialised.
	ready bool
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// NewApp creates the terminal reader with the given ports.
func NewApp(ports *Ports) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}

	s := styles.DefaultStyles()

	return &App{
		ports:        ports,
		ctx:          context.Background(),
		styles:       s,
		shelfView:    shelf.NewView(s, ports.Library),
		chaptersView: chapters.NewView(s, ports.Library),
		readingView:  reading.NewView(s, ports.Reader),
		currentView:  messages.ViewShelf,
	}, nil
}

// WithContext sets the context for the app.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	return a
}

// OpenBook makes the app start in the reading view, resuming the
// given book at its last read chapter.
func (a *App) OpenBook(bookID string) {
	a.openAt = bookID
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	load := a.shelfView.Init()
	if a.openAt != "" {
		load = a.openBook(a.openAt)
	}
	return tea.Batch(
		tea.EnterAltScreen,
		tea.SetWindowTitle("quire - Library"),
		load,
	)
}

// openBook resolves a book and its resume chapter for direct opening.
func (a *App) openBook(bookID string) tea.Cmd {
	return func() tea.Msg {
		book, err := a.ports.Library.Get(a.ctx, bookID)
		if err != nil {
			return messages.ErrorOccurred{Err: err}
		}
		resume, err := a.ports.Reader.Open(a.ctx, book.ID)
		if err != nil {
			return messages.ErrorOccurred{Err: err}
		}
		return messages.BookOpened{Book: *book, Chapter: resume}
	}
}

// Update implements tea.Model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.ready = true
		// Forward to all views for proper sizing.
		a.shelfView.SetDimensions(msg.Width, msg.Height)
		a.chaptersView.SetDimensions(msg.Width, msg.Height)
		a.readingView.SetDimensions(msg.Width, msg.Height)
		return a, nil

	case tea.KeyMsg:
		// Global quit with ctrl+c. The views get no chance to save,
		// q is the graceful exit.
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}
		switch a.currentView {
		case messages.ViewShelf:
			a.shelfView, cmd = a.shelfView.Update(msg)
		case messages.ViewChapters:
			a.chaptersView, cmd = a.chaptersView.Update(msg)
		case messages.ViewReading:
			a.readingView, cmd = a.readingView.Update(msg)
		}
		return a, cmd

	case messages.BooksLoaded:
		a.shelfView, cmd = a.shelfView.Update(msg)
		return a, cmd

	case messages.BookSelected:
		book := msg.Book
		a.currentBook = &book
		a.currentView = messages.ViewChapters
		return a, a.chaptersView.SetBook(book)

	case messages.BookOpened:
		book := msg.Book
		a.currentBook = &book
		a.currentView = messages.ViewReading
		return a, a.readingView.SetChapter(book.ID, msg.Chapter)

	case messages.ChaptersLoaded:
		if msg.Err == nil {
			book := msg.Book
			a.currentBook = &book
		}
		a.chaptersView, cmd = a.chaptersView.Update(msg)
		return a, cmd

	case messages.ChapterSelected:
		if a.currentBook == nil {
			return a, nil
		}
		a.currentView = messages.ViewReading
		return a, a.readingView.SetChapter(a.currentBook.ID, msg.Index)

	case messages.ChapterLoaded:
		a.readingView, cmd = a.readingView.Update(msg)
		return a, cmd

	case messages.ProgressSaved:
		if msg.Err != nil {
			a.err = msg.Err
		}
		return a, nil

	case messages.ViewChanged:
		a.currentView = msg.View
		switch msg.View {
		case messages.ViewShelf:
			// Reload so progress percentages are fresh.
			return a, a.shelfView.Init()
		case messages.ViewChapters:
			return a, a.chaptersView.Reload()
		case messages.ViewReading:
			// Reading is only entered via chapter selection.
		}
		return a, nil

	case messages.ErrorOccurred:
		a.err = msg.Err
		return a, nil

	case messages.Quit:
		return a, tea.Quit
	}

	// Forward other messages to the active view.
	switch a.currentView {
	case messages.ViewShelf:
		a.shelfView, cmd = a.shelfView.Update(msg)
	case messages.ViewChapters:
		a.chaptersView, cmd = a.chaptersView.Update(msg)
	case messages.ViewReading:
		a.readingView, cmd = a.readingView.Update(msg)
	}

	return a, cmd
}

// View implements tea.Model.
func (a *App) View() string {
	if !a.ready {
		return "Initialising..."
	}

	var body string
	switch a.currentView {
	case messages.ViewChapters:
		body = a.chaptersView.View()
	case messages.ViewReading:
		body = a.readingView.View()
	default:
		body = a.shelfView.View()
	}

	if a.err != nil {
		body += "\n" + a.styles.Error.Render("Error: "+a.err.Error())
	}
	return body
}

// CurrentView returns the current view type.
func (a *App) CurrentView() messages.ViewType {
	return a.currentView
}

// CurrentBook returns the book being browsed or read.
func (a *App) CurrentBook() *domain.Book {
	return a.currentBook
}

// Err returns the last error that occurred.
func (a *App) Err() error {
	return a.err
}

// Ready returns whether the app has been initialised.
func (a *App) Ready() bool {
	return a.ready
}

// SetDimensions sets the terminal dimensions (for testing).
func (a *App) SetDimensions(width, height int) {
	a.width = width
	a.height = height
	a.ready = true
	a.shelfView.SetDimensions(width, height)
	a.chaptersView.SetDimensions(width, height)
	a.readingView.SetDimensions(width, height)
}
