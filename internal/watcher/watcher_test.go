package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/tilde/pkg/tilde"
)

func TestEventTypeString(t *testing.T) {
	testCases := []struct {
		eventType EventType
		expected  string
	}{
		{EventTypeCreated, "created"},
		{EventTypeModified, "modified"},
		{EventTypeDeleted, "deleted"},
		{EventTypeRenamed, "renamed"},
		{EventType(9), "unknown"},
	}

	for _, tc := range testCases {
		t.Run(tc.expected, func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.eventType.String())
		})
	}
}

func TestNewFileWatcher(t *testing.T) {
	watcher, err := NewFileWatcher(100*time.Millisecond, nil)
	require.NoError(t, err)
	defer watcher.Stop()

	assert.NotNil(t, watcher.watcher)
	assert.NotNil(t, watcher.debouncer)
	assert.Empty(t, watcher.filters)
	assert.Empty(t, watcher.handlers)

	watcher.AddFilter(ExtensionFilter(".html"))
	watcher.AddFilter(NoGitFilter)
	assert.Len(t, watcher.filters, 2)
	assert.True(t, watcher.accepts("a/page.html"))
	assert.False(t, watcher.accepts("a/page.txt"))
	assert.False(t, watcher.accepts("repo/.git/x.html"))
}

func TestFileWatcherAddPath(t *testing.T) {
	watcher, err := NewFileWatcher(100*time.Millisecond, nil)
	require.NoError(t, err)
	defer watcher.Stop()

	dir := t.TempDir()
	require.NoError(t, watcher.AddPath(dir))
	assert.Len(t, watcher.WatchList(), 1)

	assert.Error(t, watcher.AddPath(filepath.Join(dir, "missing")))
	assert.Error(t, watcher.AddPath(""))
}

func TestAddRecursive(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "partials", "forms"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, ".git", "objects"), 0o755))

	watcher, err := NewFileWatcher(100*time.Millisecond, nil)
	require.NoError(t, err)
	defer watcher.Stop()

	require.NoError(t, watcher.AddRecursive(root))
	list := watcher.WatchList()
	assert.Len(t, list, 3)
	for _, p := range list {
		assert.NotContains(t, p, ".git")
	}
}

func TestFilters(t *testing.T) {
	ext := ExtensionFilter(".html", ".TXT")
	assert.True(t, ext("a/b.html"))
	assert.True(t, ext("a/b.HTML"))
	assert.True(t, ext("notes.txt"))
	assert.False(t, ext("main.go"))
	assert.True(t, ExtensionFilter()("anything"))

	assert.False(t, NoEditorTempFilter("page.html~"))
	assert.False(t, NoEditorTempFilter(".page.html.swp"))
	assert.False(t, NoEditorTempFilter("dir/.#page.html"))
	assert.True(t, NoEditorTempFilter("page.html"))

	assert.False(t, NoGitFilter(".git/HEAD"))
	assert.False(t, NoGitFilter("repo/.git/HEAD"))
	assert.True(t, NoGitFilter("repo/git/HEAD"))
}

func TestDebouncer(t *testing.T) {
	d := NewDebouncer(30 * time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go d.Start(ctx)

	d.Add(ChangeEvent{Type: EventTypeCreated, Path: "b.html"})
	d.Add(ChangeEvent{Type: EventTypeModified, Path: "a.html"})
	d.Add(ChangeEvent{Type: EventTypeModified, Path: "b.html"})

	select {
	case batch := <-d.Output():
		require.Len(t, batch, 2)
		assert.Equal(t, "a.html", batch[0].Path)
		assert.Equal(t, "b.html", batch[1].Path)
		assert.Equal(t, EventTypeModified, batch[1].Type, "the last event per path wins")
	case <-time.After(2 * time.Second):
		t.Fatal("no batch emitted")
	}
}

func TestFileWatcherStartStop(t *testing.T) {
	dir := t.TempDir()
	watcher, err := NewFileWatcher(20*time.Millisecond, nil)
	require.NoError(t, err)

	var mu sync.Mutex
	var seen []string
	watcher.AddFilter(ExtensionFilter(".html"))
	watcher.AddHandler(func(events []ChangeEvent) error {
		mu.Lock()
		defer mu.Unlock()
		for _, e := range events {
			seen = append(seen, filepath.Base(e.Path))
		}
		return nil
	})
	require.NoError(t, watcher.AddRecursive(dir))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, watcher.Start(ctx))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "page.html"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.md"), []byte("x"), 0o644))

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(seen) > 0
	}, 3*time.Second, 10*time.Millisecond)

	mu.Lock()
	assert.NotContains(t, seen, "notes.md")
	assert.Contains(t, seen, "page.html")
	mu.Unlock()

	assert.NoError(t, watcher.Stop())
}

func TestInvalidateHandler(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "partials"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "partials", "nav.html"), []byte("<nav>~%item%</nav>"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "page.html"), []byte("~%%include:partials/nav.html%%"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "other.html"), []byte("plain"), 0o644))

	cache := tilde.NewCache(tilde.CacheUnlimited)
	r := tilde.FileResolver{Dir: root}
	_, err := cache.FromResolver(r, "page.html")
	require.NoError(t, err)
	_, err = cache.FromResolver(r, "other.html")
	require.NoError(t, err)
	require.Equal(t, 3, cache.Len())

	handler := InvalidateHandler(cache, root, nil)
	require.NoError(t, handler([]ChangeEvent{{
		Type: EventTypeModified,
		Path: filepath.Join(root, "partials", "nav.html"),
	}}))

	assert.False(t, cache.Contains(r, "page.html"))
	assert.False(t, cache.Contains(r, "partials/nav.html"))
	assert.True(t, cache.Contains(r, "other.html"))
}

func TestCandidatePaths(t *testing.T) {
	root := t.TempDir()
	got := candidatePaths(root, filepath.Join(root, "a", "b.html"))
	assert.Equal(t, []string{filepath.Join(root, "a", "b.html"), filepath.Join("a", "b.html")}, got)
}
