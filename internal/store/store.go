// Package store keeps template sources in a database so they can be
// loaded and included without touching the file system.
package store

import (
	"errors"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/conneroisu/tilde/pkg/tilde"
)

// Store persists template sources by path. A Store is a
// tilde.PathResolver, so templates loaded from it resolve their include
// tags against the same store. Implementations must be safe for
// concurrent use.
type Store interface {
	tilde.PathResolver

	// Put stores src under path, replacing any previous source.
	Put(path, src string) error

	// Get returns the source stored under path.
	// Returns ErrNotFound if nothing is stored there.
	Get(path string) (string, error)

	// List returns metadata for every stored template, ordered by path.
	List() ([]Info, error)

	// Delete removes path. Returns nil if it does not exist.
	Delete(path string) error

	// Close releases the underlying database.
	Close() error
}

// Info describes a stored template without its source.
type Info struct {
	Path      string    `json:"path" yaml:"path"`
	Size      int64     `json:"size" yaml:"size"`
	UpdatedAt time.Time `json:"updated_at" yaml:"updated_at"`
}

// Sentinel errors for store operations.
var (
	// ErrNotFound indicates no template is stored under a path.
	ErrNotFound = errors.New("template not found in store")

	// ErrStoreClosed indicates the store has been closed.
	ErrStoreClosed = errors.New("template store closed")

	// ErrInvalidPath indicates a path that is empty or escapes the store root.
	ErrInvalidPath = errors.New("invalid template path")
)

// normalize turns p into the slash-separated, relative form used as the
// stored key.
func normalize(p string) (string, error) {
	p = strings.TrimSpace(filepath.ToSlash(p))
	p = strings.TrimLeft(path.Clean("/"+p), "/")
	if p == "" || p == "." {
		return "", ErrInvalidPath
	}
	return p, nil
}

// ImportDir stores every file under dir whose extension is in exts, keyed
// by its path relative to dir. An empty exts imports every file. Hidden
// directories are skipped. It returns the stored paths in walk order.
func ImportDir(s Store, dir string, exts ...string) ([]string, error) {
	return ImportFS(s, os.DirFS(dir), exts...)
}

// ImportFS is ImportDir for an fs.FS.
func ImportFS(s Store, fsys fs.FS, exts ...string) ([]string, error) {
	var imported []string
	err := fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if p != "." && strings.HasPrefix(d.Name(), ".") {
				return fs.SkipDir
			}
			return nil
		}
		if !hasExt(p, exts) {
			return nil
		}
		b, err := fs.ReadFile(fsys, p)
		if err != nil {
			return err
		}
		if err := s.Put(p, string(b)); err != nil {
			return err
		}
		imported = append(imported, p)
		return nil
	})
	return imported, err
}

func hasExt(p string, exts []string) bool {
	if len(exts) == 0 {
		return true
	}
	ext := path.Ext(p)
	for _, e := range exts {
		if strings.EqualFold(e, ext) {
			return true
		}
	}
	return false
}
