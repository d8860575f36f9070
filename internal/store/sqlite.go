package store

import (
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	tildeerr "github.com/conneroisu/tilde/internal/errors"
)

// SQLiteStore persists templates to SQLite.
type SQLiteStore struct {
	db     *sql.DB
	key    string
	mu     sync.RWMutex
	closed bool
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore opens or creates the template store at path. Use
// ":memory:" for a throwaway store.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, tildeerr.NewIOError(tildeerr.CodeStoreOpen, "open database", err).WithPath(path)
	}
	if path == ":memory:" {
		// Every pooled connection would get its own empty database.
		db.SetMaxOpenConns(1)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, tildeerr.NewIOError(tildeerr.CodeStoreOpen, "enable WAL mode", err).WithPath(path)
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS templates (
			path TEXT PRIMARY KEY,
			source TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)
	`); err != nil {
		db.Close()
		return nil, tildeerr.NewIOError(tildeerr.CodeStoreOpen, "create table", err).WithPath(path)
	}

	key := path
	if path != ":memory:" {
		if abs, err := filepath.Abs(path); err == nil {
			key = abs
		}
	} else {
		key = fmt.Sprintf(":memory:%p", db)
	}
	return &SQLiteStore{db: db, key: "sqlite:" + key}, nil
}

// Key identifies the store in template cache keys.
func (s *SQLiteStore) Key() string {
	return s.key
}

// Put implements Store.
func (s *SQLiteStore) Put(path, src string) error {
	p, err := normalize(path)
	if err != nil {
		return fmt.Errorf("put %q: %w", path, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}

	_, err = s.db.Exec(`
		INSERT INTO templates (path, source, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			source = excluded.source,
			updated_at = excluded.updated_at
	`, p, src, time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return tildeerr.NewIOError(tildeerr.CodeStoreWrite, "put template", err).WithPath(p)
	}
	return nil
}

// Get implements Store.
func (s *SQLiteStore) Get(path string) (string, error) {
	p, err := normalize(path)
	if err != nil {
		return "", fmt.Errorf("get %q: %w", path, err)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return "", ErrStoreClosed
	}

	var src string
	err = s.db.QueryRow(`SELECT source FROM templates WHERE path = ?`, p).Scan(&src)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%s: %w", p, ErrNotFound)
	}
	if err != nil {
		return "", tildeerr.NewIOError(tildeerr.CodeStoreQuery, "get template", err).WithPath(p)
	}
	return src, nil
}

// List implements Store.
func (s *SQLiteStore) List() ([]Info, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStoreClosed
	}

	rows, err := s.db.Query(`
		SELECT path, LENGTH(CAST(source AS BLOB)), updated_at
		FROM templates
		ORDER BY path
	`)
	if err != nil {
		return nil, tildeerr.NewIOError(tildeerr.CodeStoreQuery, "list templates", err)
	}
	defer rows.Close()

	var infos []Info
	for rows.Next() {
		var info Info
		var updated string
		if err := rows.Scan(&info.Path, &info.Size, &updated); err != nil {
			return nil, tildeerr.NewIOError(tildeerr.CodeStoreQuery, "scan template info", err)
		}
		info.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updated)
		infos = append(infos, info)
	}
	if err := rows.Err(); err != nil {
		return nil, tildeerr.NewIOError(tildeerr.CodeStoreQuery, "iterate templates", err)
	}
	return infos, nil
}

// Delete implements Store.
func (s *SQLiteStore) Delete(path string) error {
	p, err := normalize(path)
	if err != nil {
		return fmt.Errorf("delete %q: %w", path, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}

	if _, err := s.db.Exec(`DELETE FROM templates WHERE path = ?`, p); err != nil {
		return tildeerr.NewIOError(tildeerr.CodeStoreWrite, "delete template", err).WithPath(p)
	}
	return nil
}

// Resolve implements tilde.PathResolver.
func (s *SQLiteStore) Resolve(path string) (string, error) {
	return s.Get(path)
}

// IsValidPath implements tilde.PathResolver.
func (s *SQLiteStore) IsValidPath(path string) bool {
	_, err := s.Get(path)
	return err == nil
}

// Close implements Store.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}
