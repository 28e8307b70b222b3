// Package gallery archives painted rooms in a SQLite database.
package gallery

import (
	"bytes"
	"compress/gzip"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

// ErrNotFound is returned when an entry id does not exist.
var ErrNotFound = errors.New("painting not found")

// Entry is one archived painting.
type Entry struct {
	CreatedAt time.Time
	Name      string
	Color     string // #RRGGBB of the last repaint
	PNG       []byte // encoded image; gzip-compressed in storage
	ID        int64
	Width     int
	Height    int
	Size      int // stored (compressed) size in bytes
}

// Store reads and writes paintings.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens or creates the archive at path and initializes its schema.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma %q: %w", pragma, err)
		}
	}

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &Store{db: db, path: path}, nil
}

func createSchema(db *sql.DB) error {
	schema := `
		CREATE TABLE IF NOT EXISTS paintings (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			color TEXT NOT NULL,
			width INTEGER NOT NULL,
			height INTEGER NOT NULL,
			created_at INTEGER NOT NULL,
			image BLOB NOT NULL
		);

		CREATE INDEX IF NOT EXISTS paintings_created ON paintings (created_at);
	`

	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}
	return nil
}

// Save stores e and returns its id. A zero CreatedAt is set to now.
func (s *Store) Save(ctx context.Context, e Entry) (int64, error) {
	if len(e.PNG) == 0 {
		return 0, fmt.Errorf("painting %q has no image data", e.Name)
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}

	compressed, err := gzipCompress(e.PNG)
	if err != nil {
		return 0, fmt.Errorf("failed to compress painting %q: %w", e.Name, err)
	}

	res, err := s.db.ExecContext(ctx,
		"INSERT INTO paintings (name, color, width, height, created_at, image) VALUES (?, ?, ?, ?, ?, ?)",
		e.Name, e.Color, e.Width, e.Height, e.CreatedAt.UnixMilli(), compressed,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert painting %q: %w", e.Name, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read inserted id: %w", err)
	}
	return id, nil
}

// List returns all entries, newest first, without image data.
func (s *Store) List(ctx context.Context) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, color, width, height, created_at, length(image) FROM paintings ORDER BY created_at DESC, id DESC")
	if err != nil {
		return nil, fmt.Errorf("failed to query paintings: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e       Entry
			created int64
		)
		if err := rows.Scan(&e.ID, &e.Name, &e.Color, &e.Width, &e.Height, &created, &e.Size); err != nil {
			return nil, fmt.Errorf("failed to scan painting row: %w", err)
		}
		e.CreatedAt = time.UnixMilli(created)
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating paintings: %w", err)
	}
	return entries, nil
}

// Load returns the entry with the given id including its decompressed PNG.
func (s *Store) Load(ctx context.Context, id int64) (Entry, error) {
	var (
		e          Entry
		created    int64
		compressed []byte
	)
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, color, width, height, created_at, image FROM paintings WHERE id = ?", id,
	).Scan(&e.ID, &e.Name, &e.Color, &e.Width, &e.Height, &created, &compressed)

	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	if err != nil {
		return Entry{}, fmt.Errorf("failed to query painting %d: %w", id, err)
	}

	e.PNG, err = gzipDecompress(compressed)
	if err != nil {
		return Entry{}, fmt.Errorf("failed to decompress painting %d: %w", id, err)
	}
	e.CreatedAt = time.UnixMilli(created)
	e.Size = len(compressed)
	return e, nil
}

// Path returns the database file path.
func (s *Store) Path() string { return s.path }

// Close closes the database.
func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	return nil
}

func gzipCompress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)

	if _, err := gw.Write(data); err != nil {
		gw.Close()
		return nil, err
	}
	if err := gw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func gzipDecompress(data []byte) ([]byte, error) {
	gr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer gr.Close()

	return io.ReadAll(gr)
}
