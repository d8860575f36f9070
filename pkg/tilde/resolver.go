package tilde

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"sync/atomic"

	tildeerr "github.com/conneroisu/tilde/internal/errors"
)

// PathResolver loads template source for a path. It is used both for
// top-level templates and for include tags.
type PathResolver interface {
	// Resolve returns the source text for path.
	Resolve(path string) (string, error)
	// IsValidPath reports whether path can be resolved.
	IsValidPath(path string) bool
}

// keyedResolver is implemented by resolvers that know how to identify
// themselves in cache keys.
type keyedResolver interface {
	Key() string
}

func resolverKey(r PathResolver) string {
	if k, ok := r.(keyedResolver); ok {
		return k.Key()
	}
	return fmt.Sprintf("%T:%v", r, r)
}

// FileResolver reads templates from the file system. Relative paths are
// resolved against Dir, or the working directory when Dir is empty.
type FileResolver struct {
	Dir string
}

// Key implements keyedResolver.
func (r FileResolver) Key() string {
	dir := r.Dir
	if abs, err := filepath.Abs(dir); err == nil {
		dir = abs
	}
	return "file:" + dir
}

func (r FileResolver) full(path string) string {
	if filepath.IsAbs(path) || r.Dir == "" {
		return filepath.Clean(path)
	}
	return filepath.Join(r.Dir, path)
}

// IsValidPath implements PathResolver.
func (r FileResolver) IsValidPath(path string) bool {
	if path == "" {
		return false
	}
	info, err := os.Stat(r.full(path))
	return err == nil && !info.IsDir()
}

// Resolve implements PathResolver.
func (r FileResolver) Resolve(path string) (string, error) {
	b, err := os.ReadFile(r.full(path))
	if err != nil {
		return "", tildeerr.NewIOError(tildeerr.CodeTemplateRead, "reading template", err).WithPath(path)
	}
	return string(b), nil
}

// FSResolver reads templates from an fs.FS, such as an embed.FS. Name
// distinguishes file systems in cache keys. Without it, pointer and map
// file systems are told apart by address and comparable values by
// equality. Set Name for any other file system type, or all values of
// that type share cache entries.
type FSResolver struct {
	FS   fs.FS
	Name string
}

// Key implements keyedResolver.
func (r FSResolver) Key() string {
	if r.Name != "" {
		return "fs:" + r.Name
	}
	return "fs:" + fsIdentity(r.FS)
}

var (
	fsIDs   sync.Map // comparable fs.FS value -> int64
	fsIDSeq atomic.Int64
)

func fsIdentity(fsys fs.FS) string {
	v := reflect.ValueOf(fsys)
	switch v.Kind() {
	case reflect.Invalid:
		return "<nil>"
	case reflect.Pointer, reflect.Map, reflect.Chan, reflect.Func, reflect.UnsafePointer, reflect.Slice:
		return fmt.Sprintf("%T@%#x", fsys, v.Pointer())
	}
	if !v.Comparable() {
		return fmt.Sprintf("%T", fsys)
	}
	id, ok := fsIDs.Load(fsys)
	if !ok {
		id, _ = fsIDs.LoadOrStore(fsys, fsIDSeq.Add(1))
	}
	return fmt.Sprintf("%T#%d", fsys, id)
}

func fsPath(path string) string {
	return strings.TrimPrefix(filepath.ToSlash(path), "/")
}

// IsValidPath implements PathResolver.
func (r FSResolver) IsValidPath(path string) bool {
	p := fsPath(path)
	if !fs.ValidPath(p) {
		return false
	}
	info, err := fs.Stat(r.FS, p)
	return err == nil && !info.IsDir()
}

// Resolve implements PathResolver.
func (r FSResolver) Resolve(path string) (string, error) {
	b, err := fs.ReadFile(r.FS, fsPath(path))
	if err != nil {
		return "", tildeerr.NewIOError(tildeerr.CodeTemplateRead, "reading template", err).WithPath(path)
	}
	return string(b), nil
}
