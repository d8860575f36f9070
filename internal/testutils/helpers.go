// Package testutils holds helpers shared by tests across packages.
package testutils

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/conneroisu/tilde/pkg/tilde"
)

// CreateTempProject creates a temporary directory holding files, keyed by
// slash-separated relative path, and returns its path.
func CreateTempProject(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		WriteFile(t, dir, name, content)
	}
	return dir
}

// WriteFile writes content to name below dir, creating parent
// directories, and returns the full path.
func WriteFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, filepath.FromSlash(name))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

// ChdirTempProject creates a project like CreateTempProject and makes it
// the working directory for the rest of the test.
func ChdirTempProject(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := CreateTempProject(t, files)
	t.Chdir(dir)
	return dir
}

// MustParse parses src or fails the test.
func MustParse(t *testing.T, src string) *tilde.Template {
	t.Helper()
	tmpl, err := tilde.FromString(src)
	require.NoError(t, err)
	return tmpl
}

// MustRender renders s or fails the test.
func MustRender(t *testing.T, s *tilde.RenderSession) string {
	t.Helper()
	out, err := s.RenderString()
	require.NoError(t, err)
	return out
}

// Lines splits s into its non-empty lines.
func Lines(s string) []string {
	var out []string
	for _, l := range strings.Split(s, "\n") {
		if l != "" {
			out = append(out, l)
		}
	}
	return out
}
