package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test plan:
// - a write to a watched file is reported
// - a burst of writes is reported once
// - unrelated and excluded files are ignored
// - Run stops with the context

func startWatcher(t *testing.T, files []string, opts ...Option) <-chan []string {
	t.Helper()
	w, err := New(files, append([]Option{WithDebounce(30 * time.Millisecond)}, opts...)...)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	changes := make(chan []string, 16)
	done := make(chan error, 1)
	go func() {
		done <- w.Run(ctx, func(changed []string) { changes <- changed })
	}()

	t.Cleanup(func() {
		cancel()
		assert.ErrorIs(t, <-done, context.Canceled)
		w.Close()
	})
	return changes
}

func touch(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func waitChange(t *testing.T, changes <-chan []string) []string {
	t.Helper()
	select {
	case c := <-changes:
		return c
	case <-time.After(5 * time.Second):
		t.Fatal("no change reported")
	}
	return nil
}

func assertQuiet(t *testing.T, changes <-chan []string) {
	t.Helper()
	select {
	case c := <-changes:
		t.Fatalf("unexpected change: %v", c)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestWatcher_ReportsWatchedFiles(t *testing.T) {
	dir := t.TempDir()
	tpl := filepath.Join(dir, "a.cpp.dtig")
	model := filepath.Join(dir, "model.json")
	touch(t, tpl, "x")
	touch(t, model, "{}")

	changes := startWatcher(t, []string{tpl, model})

	touch(t, tpl, "y")
	assert.Equal(t, []string{tpl}, waitChange(t, changes))

	touch(t, model, "{\"name\": \"m\"}")
	touch(t, tpl, "z")
	assert.Equal(t, []string{tpl, model}, waitChange(t, changes))
}

func TestWatcher_Debounces(t *testing.T) {
	dir := t.TempDir()
	tpl := filepath.Join(dir, "a.dtig")
	touch(t, tpl, "0")

	changes := startWatcher(t, []string{tpl})
	for i := 0; i < 5; i++ {
		touch(t, tpl, "burst")
	}

	assert.Equal(t, []string{tpl}, waitChange(t, changes))
	assertQuiet(t, changes)
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	tpl := filepath.Join(dir, "a.dtig")
	touch(t, tpl, "0")

	changes := startWatcher(t, []string{tpl}, WithExclude([]string{"*.swp"}))

	touch(t, filepath.Join(dir, "other.txt"), "x")
	touch(t, filepath.Join(dir, ".a.dtig.swp"), "x")
	assertQuiet(t, changes)
}

func TestWatcher_Excluded(t *testing.T) {
	w := &Watcher{exclude: []string{"*~", ".#*"}, files: map[string]bool{"/p/a.dtig": true}}

	assert.True(t, w.excluded("/p/a.dtig~"))
	assert.True(t, w.excluded("/p/.#a.dtig"))
	assert.False(t, w.excluded("/p/a.dtig"))

	assert.True(t, w.relevant(fsnotify.Event{Name: "/p/a.dtig", Op: fsnotify.Write}))
	assert.True(t, w.relevant(fsnotify.Event{Name: "/p/./a.dtig", Op: fsnotify.Rename}))
	assert.False(t, w.relevant(fsnotify.Event{Name: "/p/a.dtig", Op: fsnotify.Chmod}))
	assert.False(t, w.relevant(fsnotify.Event{Name: "/p/b.dtig", Op: fsnotify.Create}))
}

func TestWatcher_MissingDirectory(t *testing.T) {
	_, err := New([]string{filepath.Join(t.TempDir(), "nope", "a.dtig")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to watch directory")
}
