package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/quirelabs/quire/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/quirelabs/quire/internal/core/domain"
	"github.com/quirelabs/quire/internal/core/ports/driven"
)

// Store is a unified SQLite-based storage that provides access to the
// book and chapter store interfaces through wrapper types sharing one
// database connection.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite store in the specified data directory.
// If dataDir is empty, defaults to ~/.quire/library.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".quire")
	}

	// Ensure directory exists
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "library.db")

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	// Run migrations
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Books returns a BookStore interface backed by this store.
func (s *Store) Books() driven.BookStore {
	return &bookStore{store: s}
}

// Chapters returns a ChapterStore interface backed by this store.
func (s *Store) Chapters() driven.ChapterStore {
	return &chapterStore{store: s}
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	// Ensure schema_migrations table exists
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	// Get current version
	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	// Find all up migrations
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	// Sort and run migrations
	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_initial.up.sql" -> 1)
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue // Skip files that don't match pattern
		}

		if version <= currentVersion {
			continue // Already applied
		}

		// Read and execute migration
		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
	}

	return nil
}

// ==================== Book Store ====================

// bookStore implements driven.BookStore.
type bookStore struct {
	store *Store
}

var _ driven.BookStore = (*bookStore)(nil)

// Save stores or updates a book. The added-at timestamp is set on
// first save and preserved on updates.
func (s *bookStore) Save(ctx context.Context, book *domain.Book) error {
	if book == nil || book.ID == "" {
		return domain.ErrInvalidInput
	}

	if book.AddedAt.IsZero() {
		book.AddedAt = time.Now().UTC()
	}

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO books (id, title, author, language, identifier, description,
			source_path, cover_path, chapter_count, added_at, last_chapter, last_position)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			author = excluded.author,
			language = excluded.language,
			identifier = excluded.identifier,
			description = excluded.description,
			source_path = excluded.source_path,
			cover_path = excluded.cover_path,
			chapter_count = excluded.chapter_count,
			last_chapter = excluded.last_chapter,
			last_position = excluded.last_position
	`, book.ID, book.Title, book.Author, book.Language, book.Identifier, book.Description,
		book.SourcePath, book.CoverPath, book.ChapterCount, book.AddedAt,
		book.LastChapter, book.LastPosition)

	if err != nil {
		return fmt.Errorf("saving book: %w", err)
	}
	return nil
}

// Get retrieves a book by ID.
func (s *bookStore) Get(ctx context.Context, id string) (*domain.Book, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, title, author, language, identifier, description,
			source_path, cover_path, chapter_count, added_at, last_chapter, last_position
		FROM books WHERE id = ?
	`, id)

	return scanBook(row)
}

// List returns all books, most recently added first.
func (s *bookStore) List(ctx context.Context) ([]domain.Book, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, title, author, language, identifier, description,
			source_path, cover_path, chapter_count, added_at, last_chapter, last_position
		FROM books
		ORDER BY added_at DESC, id
	`)
	if err != nil {
		return nil, fmt.Errorf("querying books: %w", err)
	}
	defer rows.Close()

	var books []domain.Book //nolint:prealloc // size unknown from query
	for rows.Next() {
		book, err := scanBookRows(rows)
		if err != nil {
			return nil, err
		}
		books = append(books, *book)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating books: %w", err)
	}

	return books, nil
}

// Delete removes a book. Chapters go with it through the schema's
// ON DELETE CASCADE.
func (s *bookStore) Delete(ctx context.Context, id string) error {
	_, err := s.store.db.ExecContext(ctx, "DELETE FROM books WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting book: %w", err)
	}
	return nil
}

// UpdateProgress stores the reading position for a book.
func (s *bookStore) UpdateProgress(ctx context.Context, progress domain.Progress) error {
	res, err := s.store.db.ExecContext(ctx, `
		UPDATE books SET last_chapter = ?, last_position = ? WHERE id = ?
	`, progress.Chapter, progress.Position, progress.BookID)
	if err != nil {
		return fmt.Errorf("updating progress: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating progress: %w", err)
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ==================== Chapter Store ====================

// chapterStore implements driven.ChapterStore.
type chapterStore struct {
	store *Store
}

var _ driven.ChapterStore = (*chapterStore)(nil)

// ReplaceAll atomically swaps a book's chapters for a new set.
func (s *chapterStore) ReplaceAll(ctx context.Context, bookID string, chapters []domain.Chapter) error {
	if bookID == "" {
		return domain.ErrInvalidInput
	}

	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, "DELETE FROM chapters WHERE book_id = ?", bookID); err != nil {
		return fmt.Errorf("clearing chapters: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chapters (id, book_id, idx, title, html, text)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for _, ch := range chapters {
		if _, err := stmt.ExecContext(ctx, ch.ID, bookID, ch.Index, ch.Title, ch.HTML, ch.Text); err != nil {
			return fmt.Errorf("saving chapter %d: %w", ch.Index, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// Get retrieves one chapter of a book by its 1-based index.
func (s *chapterStore) Get(ctx context.Context, bookID string, index int) (*domain.Chapter, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, book_id, idx, title, html, text
		FROM chapters WHERE book_id = ? AND idx = ?
	`, bookID, index)

	var ch domain.Chapter
	if err := row.Scan(&ch.ID, &ch.BookID, &ch.Index, &ch.Title, &ch.HTML, &ch.Text); err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning chapter: %w", err)
	}

	return &ch, nil
}

// List returns a book's chapters in reading order, content included.
func (s *chapterStore) List(ctx context.Context, bookID string) ([]domain.Chapter, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, book_id, idx, title, html, text
		FROM chapters WHERE book_id = ?
		ORDER BY idx
	`, bookID)
	if err != nil {
		return nil, fmt.Errorf("querying chapters: %w", err)
	}
	defer rows.Close()

	var chapters []domain.Chapter //nolint:prealloc // size unknown from query
	for rows.Next() {
		var ch domain.Chapter
		if err := rows.Scan(&ch.ID, &ch.BookID, &ch.Index, &ch.Title, &ch.HTML, &ch.Text); err != nil {
			return nil, fmt.Errorf("scanning chapter: %w", err)
		}
		chapters = append(chapters, ch)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chapters: %w", err)
	}

	return chapters, nil
}

// ListSummaries returns a book's chapters in reading order with index
// and title only.
func (s *chapterStore) ListSummaries(ctx context.Context, bookID string) ([]domain.Chapter, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, book_id, idx, title
		FROM chapters WHERE book_id = ?
		ORDER BY idx
	`, bookID)
	if err != nil {
		return nil, fmt.Errorf("querying chapter summaries: %w", err)
	}
	defer rows.Close()

	var chapters []domain.Chapter //nolint:prealloc // size unknown from query
	for rows.Next() {
		var ch domain.Chapter
		if err := rows.Scan(&ch.ID, &ch.BookID, &ch.Index, &ch.Title); err != nil {
			return nil, fmt.Errorf("scanning chapter summary: %w", err)
		}
		chapters = append(chapters, ch)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chapter summaries: %w", err)
	}

	return chapters, nil
}

// ==================== Helper Functions ====================

// scanBook scans a single book row.
func scanBook(row *sql.Row) (*domain.Book, error) {
	var book domain.Book
	var addedAt sql.NullTime

	if err := row.Scan(&book.ID, &book.Title, &book.Author, &book.Language,
		&book.Identifier, &book.Description, &book.SourcePath, &book.CoverPath,
		&book.ChapterCount, &addedAt, &book.LastChapter, &book.LastPosition); err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning book: %w", err)
	}

	if addedAt.Valid {
		book.AddedAt = addedAt.Time
	}

	return &book, nil
}

// scanBookRows scans a book from *sql.Rows.
func scanBookRows(rows *sql.Rows) (*domain.Book, error) {
	var book domain.Book
	var addedAt sql.NullTime

	if err := rows.Scan(&book.ID, &book.Title, &book.Author, &book.Language,
		&book.Identifier, &book.Description, &book.SourcePath, &book.CoverPath,
		&book.ChapterCount, &addedAt, &book.LastChapter, &book.LastPosition); err != nil {
		return nil, fmt.Errorf("scanning book: %w", err)
	}

	if addedAt.Valid {
		book.AddedAt = addedAt.Time
	}

	return &book, nil
}
