package tilde

import (
	"context"
	"embed"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tildeerr "github.com/conneroisu/tilde/internal/errors"
)

func cacheFS() fstest.MapFS {
	return fstest.MapFS{
		"a.html":    {Data: []byte("A ~%x%")},
		"b.html":    {Data: []byte("B ~%y%")},
		"page.html": {Data: []byte("<p>~%%include:part.html%%</p>")},
		"part.html": {Data: []byte("~%z%")},
	}
}

func TestCache_Identity(t *testing.T) {
	fsys := cacheFS()

	t.Run("hit returns the same instance", func(t *testing.T) {
		c := NewCache(10)
		first, err := c.FromFS(fsys, "a.html")
		require.NoError(t, err)
		second, err := c.FromFS(fsys, "a.html")
		require.NoError(t, err)

		assert.Same(t, first, second)
		stats := c.Stats()
		assert.Equal(t, int64(1), stats.Hits)
		assert.Equal(t, int64(1), stats.Misses)
		assert.Equal(t, 1, stats.Size)
		assert.InDelta(t, 0.5, c.HitRate(), 0.0001)
	})

	t.Run("reload after eviction is equal but distinct", func(t *testing.T) {
		c := NewCache(1)
		first, err := c.FromFS(fsys, "a.html")
		require.NoError(t, err)
		_, err = c.FromFS(fsys, "b.html")
		require.NoError(t, err)

		assert.Equal(t, 1, c.Len())
		assert.Equal(t, int64(1), c.Stats().Evictions)

		again, err := c.FromFS(fsys, "a.html")
		require.NoError(t, err)
		assert.NotSame(t, first, again)
		assert.Equal(t, first.String(), again.String())
		assert.Equal(t, first.Variables(), again.Variables())
	})

	t.Run("disabled cache parses every time", func(t *testing.T) {
		c := NewCache(CacheDisabled)
		first, err := c.FromFS(fsys, "a.html")
		require.NoError(t, err)
		second, err := c.FromFS(fsys, "a.html")
		require.NoError(t, err)
		assert.NotSame(t, first, second)
		assert.Equal(t, 0, c.Len())
	})

	t.Run("unlimited cache never evicts", func(t *testing.T) {
		c := NewCache(CacheUnlimited)
		for _, name := range []string{"a.html", "b.html", "page.html"} {
			_, err := c.FromFS(fsys, name)
			require.NoError(t, err)
		}
		assert.Equal(t, 4, c.Len())
		assert.Zero(t, c.Stats().Evictions)
	})

	t.Run("string templates are not cached", func(t *testing.T) {
		c := NewCache(10)
		_, err := c.FromString("~%x%")
		require.NoError(t, err)
		assert.Equal(t, 0, c.Len())
	})

	t.Run("failed parses are not cached", func(t *testing.T) {
		c := NewCache(10)
		broken := fstest.MapFS{"bad.html": {Data: []byte("~%%begin:x%")}}
		_, err := c.FromFS(broken, "bad.html")
		require.ErrorIs(t, err, ErrMissingEndTag)
		assert.Equal(t, 0, c.Len())
	})
}

func TestCache_LRUOrder(t *testing.T) {
	fsys := cacheFS()
	c := NewCache(2)

	a, err := c.FromFS(fsys, "a.html")
	require.NoError(t, err)
	_, err = c.FromFS(fsys, "b.html")
	require.NoError(t, err)

	// Touch a so that b becomes least recently used.
	_, err = c.FromFS(fsys, "a.html")
	require.NoError(t, err)
	_, err = c.FromFS(fsys, "part.html")
	require.NoError(t, err)

	r := FSResolver{FS: fsys}
	assert.True(t, c.Contains(r, "a.html"))
	assert.False(t, c.Contains(r, "b.html"))
	assert.True(t, c.Contains(r, "part.html"))

	again, err := c.FromFS(fsys, "a.html")
	require.NoError(t, err)
	assert.Same(t, a, again)
}

func TestCache_Invalidate(t *testing.T) {
	fsys := cacheFS()
	c := NewCache(10)

	_, err := c.FromFS(fsys, "page.html")
	require.NoError(t, err)
	_, err = c.FromFS(fsys, "a.html")
	require.NoError(t, err)
	assert.Equal(t, 3, c.Len())

	// page.html includes part.html, so both go.
	assert.Equal(t, 2, c.Invalidate("part.html"))
	assert.Equal(t, 1, c.Len())
	assert.Equal(t, 0, c.Invalidate("part.html"))

	c.Reset()
	assert.Equal(t, 0, c.Len())
	assert.Equal(t, CacheStats{Capacity: 10}, c.Stats())
}

func TestCache_Watch(t *testing.T) {
	fsys := cacheFS()
	c := NewCache(10)
	_, err := c.FromFS(fsys, "a.html")
	require.NoError(t, err)

	changes := make(chan string)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		c.Watch(ctx, changes)
		close(done)
	}()

	changes <- "a.html"
	close(changes)
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Watch did not return after the channel closed")
	}
	assert.Equal(t, 0, c.Len())
}

func TestCache_ConcurrentLoads(t *testing.T) {
	fsys := cacheFS()
	c := NewCache(10)

	var wg sync.WaitGroup
	results := make([]*Template, 32)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tmpl, err := c.FromFS(fsys, "page.html")
			assert.NoError(t, err)
			results[i] = tmpl
		}(i)
	}
	wg.Wait()

	cached, err := c.FromFS(fsys, "page.html")
	require.NoError(t, err)
	for _, r := range results {
		require.NotNil(t, r)
		assert.Equal(t, cached.String(), r.String())
	}
	assert.Equal(t, 2, c.Len())
}

func TestCache_FromFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "inc.html"), []byte("[~%v%]"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.html"),
		[]byte("~%%include:"+filepath.ToSlash(filepath.Join(dir, "inc.html"))+"%%"), 0o600))

	c := NewCache(10)
	tmpl, err := c.FromFile(filepath.Join(dir, "main.html"))
	require.NoError(t, err)
	assert.Equal(t, []string{"inc"}, tmpl.NestedTemplateNames())

	r := FileResolver{Dir: dir}
	tmpl, err = c.FromResolver(r, "inc.html")
	require.NoError(t, err)
	assert.Equal(t, []string{"v"}, tmpl.Variables())
	assert.False(t, r.IsValidPath("missing.html"))
	assert.False(t, r.IsValidPath("."))
}

func TestDefaultCache(t *testing.T) {
	prev := DefaultCache()
	defer SetDefaultCache(prev)

	c := ResetDefaultCache(5)
	assert.Same(t, c, DefaultCache())
	assert.Equal(t, 5, c.Capacity())

	_, err := FromFS(cacheFS(), "a.html")
	require.NoError(t, err)
	assert.Equal(t, 1, c.Len())

	tmpl, err := FromString("~%x%")
	require.NoError(t, err)
	assert.Equal(t, []string{"x"}, tmpl.Variables())
}

// fileFS is a comparable value-type file system holding one file.
type fileFS struct {
	name, body string
}

func (f fileFS) Open(name string) (fs.File, error) {
	return fstest.MapFS{f.name: {Data: []byte(f.body)}}.Open(name)
}

func TestFSResolver_Key(t *testing.T) {
	t.Run("named", func(t *testing.T) {
		assert.Equal(t, "fs:views", FSResolver{Name: "views", FS: fileFS{}}.Key())
	})

	t.Run("value file systems", func(t *testing.T) {
		one := FSResolver{FS: fileFS{"a.html", "one"}}
		two := FSResolver{FS: fileFS{"a.html", "two"}}
		assert.NotContains(t, one.Key(), "%!")
		assert.Equal(t, one.Key(), FSResolver{FS: fileFS{"a.html", "one"}}.Key())
		assert.NotEqual(t, one.Key(), two.Key())
		assert.NotContains(t, FSResolver{FS: embed.FS{}}.Key(), "%!")

		c := NewCache(10)
		a, err := c.FromResolver(one, "a.html")
		require.NoError(t, err)
		b, err := c.FromResolver(two, "a.html")
		require.NoError(t, err)
		assert.Equal(t, "one", a.String())
		assert.Equal(t, "two", b.String())
		assert.Equal(t, 2, c.Len())
	})

	t.Run("map file systems", func(t *testing.T) {
		fsys := cacheFS()
		assert.Equal(t, FSResolver{FS: fsys}.Key(), FSResolver{FS: fsys}.Key())
		assert.NotEqual(t, FSResolver{FS: fsys}.Key(), FSResolver{FS: cacheFS()}.Key())
	})
}

func TestResolvers_ReadErrors(t *testing.T) {
	readErr := tildeerr.NewIOError(tildeerr.CodeTemplateRead, "", nil)

	_, err := FileResolver{Dir: t.TempDir()}.Resolve("missing.html")
	assert.ErrorIs(t, err, readErr)
	assert.ErrorIs(t, err, fs.ErrNotExist)
	assert.Contains(t, err.Error(), "missing.html")

	_, err = NewCache(10).FromFS(cacheFS(), "missing.html")
	assert.ErrorIs(t, err, readErr)
	assert.ErrorIs(t, err, fs.ErrNotExist)
}
