// Package index keeps a SQLite index of ionogram recordings keyed by month and day.
package index

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite" // SQLite driver (pure Go)

	"github.com/leapstack-labs/ionoview/internal/catalog"
)

//go:embed migrations/*.sql
var migrations embed.FS

// ErrNotOpen is returned when the store is used before Open.
var ErrNotOpen = errors.New("index not opened")

var _ catalog.Finder = (*Store)(nil)

// Store is a SQLite-backed catalog.Finder.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a Store. Call Open before use.
func NewStore() *Store {
	return &Store{}
}

// NewStoreWithDB wraps an existing connection.
func NewStoreWithDB(db *sql.DB) *Store {
	return &Store{db: db}
}

// Open opens the index database. Use ":memory:" for an in-memory index.
func (s *Store) Open(path string) error {
	dsn := path
	if path != ":memory:" {
		dsn = "file:" + path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("failed to open index database: %w", err)
	}
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping index database: %w", err)
	}

	s.db = db
	s.path = path
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Path returns the database path given to Open.
func (s *Store) Path() string { return s.path }

// Migrate runs all pending migrations.
func (s *Store) Migrate() error {
	if s.db == nil {
		return ErrNotOpen
	}

	goose.SetBaseFS(migrations)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect("sqlite"); err != nil {
		return fmt.Errorf("failed to set dialect: %w", err)
	}
	if err := goose.Up(s.db, "migrations"); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// Upsert records dir/name. Names without a month and day are ignored and
// reported as not indexed.
func (s *Store) Upsert(ctx context.Context, dir, name string) (bool, error) {
	if s.db == nil {
		return false, ErrNotOpen
	}
	return upsert(ctx, s.db, dir, name, time.Now().UTC())
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func upsert(ctx context.Context, db execer, dir, name string, now time.Time) (bool, error) {
	if !strings.HasSuffix(name, catalog.Extension) {
		return false, nil
	}
	month, day, ok := catalog.MonthDay(name)
	if !ok {
		return false, nil
	}

	_, err := db.ExecContext(ctx, `
		INSERT INTO ionogram_files (id, file_name, file_path, full_path, month, day, indexed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(full_path) DO UPDATE SET indexed_at = excluded.indexed_at`,
		uuid.New().String(), name, dir, filepath.Join(dir, name), month, day, now,
	)
	if err != nil {
		return false, fmt.Errorf("failed to index %s: %w", name, err)
	}
	return true, nil
}

// Remove drops a recording, or every recording below a removed directory.
func (s *Store) Remove(ctx context.Context, path string) (int64, error) {
	if s.db == nil {
		return 0, ErrNotOpen
	}

	clean := filepath.Clean(path)
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM ionogram_files WHERE full_path = ? OR file_path = ? OR file_path LIKE ? ESCAPE '\'`,
		clean, clean, escapeLike(clean+string(filepath.Separator))+"%",
	)
	if err != nil {
		return 0, fmt.Errorf("failed to remove %s: %w", path, err)
	}
	return res.RowsAffected()
}

// FilesByDate implements catalog.Finder.
func (s *Store) FilesByDate(ctx context.Context, date time.Time) ([]catalog.DateFileEntry, error) {
	if s.db == nil {
		return nil, ErrNotOpen
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT file_name, file_path FROM ionogram_files WHERE month = ? AND day = ? ORDER BY full_path`,
		fmt.Sprintf("%02d", int(date.Month())), fmt.Sprintf("%02d", date.Day()),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query index: %w", err)
	}
	defer func() { _ = rows.Close() }()

	files := []catalog.DateFileEntry{}
	for rows.Next() {
		var e catalog.DateFileEntry
		if err := rows.Scan(&e.FileName, &e.Path); err != nil {
			return nil, fmt.Errorf("failed to scan index row: %w", err)
		}
		files = append(files, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	catalog.SortWalkOrder(files)
	return files, nil
}

// Count returns the number of indexed recordings.
func (s *Store) Count(ctx context.Context) (int, error) {
	if s.db == nil {
		return 0, ErrNotOpen
	}
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM ionogram_files`).Scan(&n)
	return n, err
}

// Rebuild replaces the index with the recordings found below root.
func (s *Store) Rebuild(ctx context.Context, root string) (int, error) {
	if s.db == nil {
		return 0, ErrNotOpen
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM ionogram_files`); err != nil {
		return 0, fmt.Errorf("failed to clear index: %w", err)
	}

	now := time.Now().UTC()
	count := 0
	err = catalog.Walk(ctx, root, func(dir, name string) error {
		ok, err := upsert(ctx, tx, dir, name, now)
		if ok {
			count++
		}
		return err
	})
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit index: %w", err)
	}
	return count, nil
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
